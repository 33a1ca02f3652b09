package parser

import (
	"fmt"
	"strings"
)

// Classify picks the protocol from the text before the first "//".
// A known scheme must be followed by exactly one "//" separator.
// The body is returned untouched; no case or whitespace normalization is done.
func Classify(uri string) (Protocol, string, error) {
	scheme, body, ok := strings.Cut(uri, "//")
	if !ok {
		return 0, "", fmt.Errorf("%w: missing \"//\" separator", ErrMalformedURI)
	}

	var proto Protocol
	switch {
	case strings.Contains(scheme, "vmess"):
		proto = VMess
	case strings.Contains(scheme, "vless"):
		proto = VLESS
	default:
		return 0, "", fmt.Errorf("%w: %q", ErrUnsupportedProtocol, scheme)
	}

	if strings.Contains(body, "//") {
		return 0, "", fmt.Errorf("%w: more than one \"//\" separator", ErrMalformedURI)
	}
	return proto, body, nil
}

// Parse classifies uri and runs the matching decoder.
func Parse(uri string) (*Link, error) {
	proto, body, err := Classify(uri)
	if err != nil {
		return nil, err
	}

	switch proto {
	case VMess:
		return DecodeVMess(body)
	case VLESS:
		return DecodeVLESS(body)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProtocol, proto)
	}
}
