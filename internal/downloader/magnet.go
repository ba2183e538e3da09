package downloader

import (
	"regexp"
	"strings"
)

var btihPattern = regexp.MustCompile(`(?i)xt=urn:btih:([0-9a-f]{40})`)

// ExtractInfoHash pulls the 40-hex-digit info hash out of a magnet URI,
// lowercased so it can be compared against client-reported hashes. It
// returns "" when the URI carries no v1 btih hash; base32-encoded hashes
// are not recognized.
func ExtractInfoHash(magnet string) string {
	m := btihPattern.FindStringSubmatch(magnet)
	if m == nil {
		return ""
	}
	return strings.ToLower(m[1])
}
