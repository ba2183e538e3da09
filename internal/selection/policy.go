// Package selection implements the auto-select policy: deciding, without
// human input, which scored candidate (if any) to hand to a download
// client.
package selection

import (
	"sort"

	"github.com/shelfarr/shelfarr/internal/models"
	"github.com/shelfarr/shelfarr/internal/scoring"
)

// Policy carries the configured selection rules.
type Policy struct {
	Enabled            bool
	Threshold          int              // Minimum confidence score for auto-selection
	PreferredTransport models.Transport // Tie-break preference, never affects scores
}

// AutoSelect returns the best eligible candidate under the policy order,
// or false when no candidate clears the bar. Eligible means pending,
// at or above the threshold, and with no detected language conflict
// against the work's requested language.
func AutoSelect(candidates []*models.Candidate, work *models.Work, p Policy) (*models.Candidate, bool) {
	if !p.Enabled {
		return nil, false
	}

	var eligible []*models.Candidate
	for _, c := range candidates {
		if c.Status != models.CandidatePending {
			continue
		}
		if c.ConfidenceScore < p.Threshold {
			continue
		}
		if c.Language != "" && work.Language != "" && !scoring.SameLanguage(c.Language, work.Language) {
			continue
		}
		eligible = append(eligible, c)
	}
	if len(eligible) == 0 {
		return nil, false
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		return less(eligible[i], eligible[j], p.PreferredTransport)
	})
	return eligible[0], true
}

// less orders candidates best-first: preferred transport, then confidence
// descending, then seeders descending, then size ascending (smaller is
// cheaper to fetch and store on an otherwise equal tie).
func less(a, b *models.Candidate, preferred models.Transport) bool {
	prefA, prefB := a.Transport() == preferred, b.Transport() == preferred
	if prefA != prefB {
		return prefA
	}
	if a.ConfidenceScore != b.ConfidenceScore {
		return a.ConfidenceScore > b.ConfidenceScore
	}
	if sa, sb := seeders(a), seeders(b); sa != sb {
		return sa > sb
	}
	return size(a) < size(b)
}

func seeders(c *models.Candidate) int {
	if c.Seeders == nil {
		return -1
	}
	return *c.Seeders
}

func size(c *models.Candidate) int64 {
	if c.SizeBytes == nil {
		// Unknown sizes sort after known ones.
		return int64(^uint64(0) >> 1)
	}
	return *c.SizeBytes
}
