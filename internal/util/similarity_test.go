package util_test

import (
	"testing"

	"github.com/shelfarr/shelfarr/internal/util"
)

func TestNormalizeText(t *testing.T) {
	got := util.NormalizeText("Dune: Messiah [EPUB]--(Retail)")
	want := "dune messiah epub retail"
	if got != want {
		t.Errorf("NormalizeText: got %q, want %q", got, want)
	}
}

func TestSimilarityIdentical(t *testing.T) {
	if s := util.Similarity("Dune", "dune"); s != 1 {
		t.Errorf("Expected similarity 1 for identical titles, got %f", s)
	}
}

func TestSimilarityContainment(t *testing.T) {
	// Release titles embed the work title plus noise.
	s := util.Similarity("Frank Herbert - Dune (1965) EPUB Retail", "Dune")
	if s != 1 {
		t.Errorf("Expected containment to score 1, got %f", s)
	}
}

func TestSimilarityDisjoint(t *testing.T) {
	if s := util.Similarity("Dune", "Moby Dick"); s != 0 {
		t.Errorf("Expected 0 for disjoint titles, got %f", s)
	}
}

func TestSimilarityPartial(t *testing.T) {
	s := util.Similarity("the left hand of darkness", "right hand of light")
	if s <= 0 || s >= 1 {
		t.Errorf("Expected partial similarity strictly between 0 and 1, got %f", s)
	}
}

func TestContainsTokens(t *testing.T) {
	if !util.ContainsTokens("Frank Herbert - Dune [EPUB]", "dune") {
		t.Error("Expected title tokens to be found")
	}
	if util.ContainsTokens("Frank Herbert - Dune", "dune messiah") {
		t.Error("Did not expect missing token to match")
	}
}

func TestSanitizeFilename(t *testing.T) {
	if got := util.SanitizeFilename(`Dune: Part "One"?`); got != `Dune- Part -One-` {
		t.Errorf("SanitizeFilename: got %q", got)
	}
	if got := util.SanitizeFilename("..."); got != "untitled" {
		t.Errorf("Expected untitled for all-dot input, got %q", got)
	}
}
