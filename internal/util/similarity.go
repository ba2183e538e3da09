package util

import (
	"regexp"
	"strings"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// NormalizeText lowercases a string and collapses everything that is not a
// letter or digit into single spaces. Release titles are noisy; comparisons
// always run on the normalized form.
func NormalizeText(s string) string {
	s = strings.ToLower(s)
	s = nonAlnum.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Tokens splits a string into normalized word tokens.
func Tokens(s string) []string {
	n := NormalizeText(s)
	if n == "" {
		return nil
	}
	return strings.Fields(n)
}

// Similarity returns a value in [0, 1] describing how alike two strings
// are. It is a Sorensen-Dice coefficient over word tokens, with full credit
// when one token set entirely contains the other (release titles usually
// embed the work title plus format noise).
func Similarity(a, b string) float64 {
	ta, tb := Tokens(a), Tokens(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	setA := make(map[string]bool, len(ta))
	for _, tok := range ta {
		setA[tok] = true
	}
	setB := make(map[string]bool, len(tb))
	for _, tok := range tb {
		setB[tok] = true
	}

	common := 0
	for tok := range setA {
		if setB[tok] {
			common++
		}
	}
	if common == 0 {
		return 0
	}
	if common == len(setA) || common == len(setB) {
		return 1
	}
	return 2 * float64(common) / float64(len(setA)+len(setB))
}

// ContainsTokens reports whether every token of needle appears in haystack.
func ContainsTokens(haystack, needle string) bool {
	set := make(map[string]bool)
	for _, tok := range Tokens(haystack) {
		set[tok] = true
	}
	needleTokens := Tokens(needle)
	if len(needleTokens) == 0 {
		return false
	}
	for _, tok := range needleTokens {
		if !set[tok] {
			return false
		}
	}
	return true
}
