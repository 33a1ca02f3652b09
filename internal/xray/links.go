package xray

import (
	"regexp"
	"strings"

	"xrayshim/internal/logger"
	"xrayshim/internal/xray/parser"
)

var regexLink = regexp.MustCompile(`(vmess|vless)://[a-zA-Z0-9_\-\.\:@\?=&%#+/]+`)

// ExtractedLink is a share-link found in free text, already decoded.
type ExtractedLink struct {
	Raw  string
	Link *parser.Link
}

// ExtractLinks finds vmess and vless share-links in text and keeps the ones that decode.
// Links pointing at the same server (same Hash) are reported once, first occurrence wins.
func ExtractLinks(text string) []ExtractedLink {
	var found []ExtractedLink
	seen := make(map[string]bool)

	for _, match := range regexLink.FindAllString(text, -1) {
		raw := strings.TrimRight(parser.CleanLink(match), ".,;)\"")

		link, err := parser.Parse(raw)
		if err != nil {
			logger.Log.Debugf("Dropping candidate link %q: %v", raw, err)
			continue
		}

		hash := link.Hash()
		if seen[hash] {
			continue
		}
		seen[hash] = true
		found = append(found, ExtractedLink{Raw: raw, Link: link})
	}
	return found
}
