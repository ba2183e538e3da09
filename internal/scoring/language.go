package scoring

import (
	"golang.org/x/text/language"

	"github.com/shelfarr/shelfarr/internal/util"
)

// Common language names as they appear in release titles and archive
// metadata, mapped to BCP 47 tags for canonical comparison.
var languageNames = map[string]string{
	"english":    "en",
	"french":     "fr",
	"german":     "de",
	"spanish":    "es",
	"italian":    "it",
	"portuguese": "pt",
	"russian":    "ru",
	"japanese":   "ja",
	"chinese":    "zh",
	"dutch":      "nl",
	"polish":     "pl",
	"swedish":    "sv",
	"hungarian":  "hu",
	"czech":      "cs",
}

// canonicalBase resolves a language name or tag to its base language.
// Returns false for empty or unrecognizable input.
func canonicalBase(s string) (language.Base, bool) {
	n := util.NormalizeText(s)
	if n == "" {
		return language.Base{}, false
	}
	if tag, ok := languageNames[n]; ok {
		n = tag
	}
	parsed, err := language.Parse(n)
	if err != nil {
		return language.Base{}, false
	}
	base, conf := parsed.Base()
	if conf == language.No {
		return language.Base{}, false
	}
	return base, true
}

// SameLanguage compares two language descriptions by base language, so
// "English", "en" and "en-GB" all match each other.
func SameLanguage(a, b string) bool {
	ba, okA := canonicalBase(a)
	bb, okB := canonicalBase(b)
	return okA && okB && ba == bb
}

// detectLanguage scans title tokens for an explicit language signal. Most
// releases carry none, which is a neutral outcome, so only full language
// names count; two-letter codes are too noisy inside release titles.
func detectLanguage(title string) string {
	for _, tok := range util.Tokens(title) {
		if tag, ok := languageNames[tok]; ok {
			return tag
		}
	}
	return ""
}
