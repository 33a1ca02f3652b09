package parser

import (
	"encoding/base64"
	"strings"
)

// DecodeBase64Lenient decodes a standard or URL-safe base64 string, dropping any
// character outside the alphabet and tolerating missing padding.
// It returns nil when nothing decodes.
func DecodeBase64Lenient(s string) []byte {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '+', r == '/':
			b.WriteRune(r)
		case r == '-':
			b.WriteByte('+')
		case r == '_':
			b.WriteByte('/')
		}
	}

	clean := b.String()
	if clean == "" {
		return nil
	}
	out, err := base64.RawStdEncoding.DecodeString(clean)
	if err != nil {
		// A trailing partial quantum cannot carry a full byte; decode what precedes it.
		if rem := len(clean) % 4; rem == 1 {
			out, err = base64.RawStdEncoding.DecodeString(clean[:len(clean)-1])
		}
		if err != nil {
			return nil
		}
	}
	return out
}

// CleanLink strips the surrounding whitespace and line breaks that pasted links carry.
func CleanLink(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\n", "")
	return s
}
