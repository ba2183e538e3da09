// Package scoring implements the confidence scorer for candidate releases.
// Score is a pure function: deterministic, total, no external calls.
// Unparseable or missing fields degrade to neutral contributions, never to
// an error.
package scoring

import (
	"math"

	"github.com/shelfarr/shelfarr/internal/models"
	"github.com/shelfarr/shelfarr/internal/util"
)

// Criterion names, stable across releases so breakdowns stay auditable.
const (
	CriterionTitleMatch      = "title_match"
	CriterionFormat          = "format"
	CriterionLanguage        = "language"
	CriterionSizePlausible   = "size_plausibility"
	CriterionTransportHealth = "transport_health"
	CriterionClamp           = "range_clamp"
)

// Weights. Maximum achievable total is 100.
const (
	titleWeight      = 50
	formatWeight     = 15
	languageReward   = 10
	languagePenalty  = -15
	sizeReward       = 10
	sizePenalty      = -10
	transportWeight  = 15
	usenetFlatPoints = 8
)

// Result is the scorer's output: a 0-100 total, the signed contributions
// that sum to it, and the language detected from the release title.
type Result struct {
	Total            int
	Breakdown        []models.ScoreContribution
	DetectedLanguage string
}

// Score rates how well a candidate matches the requested work. The
// breakdown always sums exactly to the total; when the raw sum falls
// outside [0, 100] a named clamp adjustment keeps that property.
func Score(c *models.Candidate, w *models.Work) Result {
	var breakdown []models.ScoreContribution
	add := func(criterion string, points int) {
		breakdown = append(breakdown, models.ScoreContribution{Criterion: criterion, Points: points})
	}

	add(CriterionTitleMatch, titlePoints(c.Title, w))
	add(CriterionFormat, formatPoints(c.Title, w.Medium))

	detected := c.Language
	if detected == "" {
		detected = detectLanguage(c.Title)
	}
	add(CriterionLanguage, languagePoints(detected, w.Language))
	add(CriterionSizePlausible, sizePoints(c.SizeBytes, w.Medium))
	add(CriterionTransportHealth, transportPoints(c))

	total := 0
	for _, contribution := range breakdown {
		total += contribution.Points
	}
	if total < 0 {
		add(CriterionClamp, -total)
		total = 0
	} else if total > 100 {
		add(CriterionClamp, 100-total)
		total = 100
	}

	return Result{Total: total, Breakdown: breakdown, DetectedLanguage: detected}
}

// titlePoints rewards textual similarity between the release title and the
// work's title plus author. A release that contains all work-title tokens
// scores full marks even when buried in format noise.
func titlePoints(releaseTitle string, w *models.Work) int {
	if util.ContainsTokens(releaseTitle, w.Title) {
		points := titleWeight - 10
		if w.Author == "" || util.ContainsTokens(releaseTitle, w.Author) {
			points = titleWeight
		}
		return points
	}
	sim := util.Similarity(releaseTitle, w.Title+" "+w.Author)
	return int(math.Round(sim * titleWeight))
}

// Preferred format tokens per medium, best first. Points reflect how
// unambiguous and desirable the format signal is.
var ebookFormats = []struct {
	token  string
	points int
}{
	{"epub", formatWeight},
	{"azw3", 12},
	{"mobi", 11},
	{"pdf", 7},
	{"txt", 3},
}

var audiobookFormats = []struct {
	token  string
	points int
}{
	{"m4b", formatWeight},
	{"flac", 12},
	{"320", 12}, // explicit mp3 bitrate
	{"mp3", 10},
	{"aac", 9},
	{"m4a", 9},
}

func formatPoints(releaseTitle string, medium models.Medium) int {
	tokens := make(map[string]bool)
	for _, tok := range util.Tokens(releaseTitle) {
		tokens[tok] = true
	}

	formats := ebookFormats
	if medium == models.MediumAudiobook {
		formats = audiobookFormats
	}
	for _, f := range formats {
		if tokens[f.token] {
			return f.points
		}
	}
	return 0
}

// languagePoints: exact match rewarded, detected mismatch penalized, no
// signal on either side is neutral.
func languagePoints(detected, requested string) int {
	if detected == "" || requested == "" {
		return 0
	}
	if SameLanguage(detected, requested) {
		return languageReward
	}
	return languagePenalty
}

// Expected size ranges per medium. Anything wildly outside is penalized;
// a missing size is neutral.
const (
	ebookMinBytes     = 50 << 10  // 50 KiB
	ebookMaxBytes     = 200 << 20 // 200 MiB
	audiobookMinBytes = 10 << 20  // 10 MiB
	audiobookMaxBytes = 6 << 30   // 6 GiB
)

func sizePoints(size *int64, medium models.Medium) int {
	if size == nil || *size == 0 {
		return 0
	}
	min, max := int64(ebookMinBytes), int64(ebookMaxBytes)
	if medium == models.MediumAudiobook {
		min, max = audiobookMinBytes, audiobookMaxBytes
	}
	if *size < min || *size > max {
		return sizePenalty
	}
	return sizeReward
}

// transportPoints rewards torrent seeder counts with diminishing returns;
// usenet releases get a flat positive contribution since seeder data does
// not apply to them.
func transportPoints(c *models.Candidate) int {
	if c.Transport() == models.TransportUsenet {
		return usenetFlatPoints
	}
	if c.Seeders == nil || *c.Seeders <= 0 {
		return 0
	}
	s := float64(*c.Seeders)
	return int(math.Round(transportWeight * s / (s + 10)))
}
