package models

import (
	"strings"
	"time"
)

// SourceKind tags a candidate with the kind of source that produced it.
type SourceKind string

const (
	SourceIndexer SourceKind = "indexer"
	SourceArchive SourceKind = "archive"
)

// CandidateStatus tracks whether a candidate has been chosen for download.
type CandidateStatus string

const (
	CandidatePending  CandidateStatus = "pending"
	CandidateSelected CandidateStatus = "selected"
	CandidateRejected CandidateStatus = "rejected"
)

// ScoreContribution is one named, signed component of a confidence score.
type ScoreContribution struct {
	Criterion string `json:"criterion"`
	Points    int    `json:"points"`
}

// Candidate is a normalized, source-tagged release proposed as a way to
// obtain a Work. A fresh search replaces the whole candidate set for its
// request; GUIDs are unique within a request.
type Candidate struct {
	ID          int64      `json:"id"`
	RequestID   int64      `json:"request_id"`
	GUID        string     `json:"guid"`
	Title       string     `json:"title"`
	Source      SourceKind `json:"source"`
	IndexerName string     `json:"indexer_name,omitempty"`
	SizeBytes   *int64     `json:"size_bytes,omitempty"`
	Seeders     *int       `json:"seeders,omitempty"`
	Leechers    *int       `json:"leechers,omitempty"`

	// DownloadURL is a directly fetchable reference (magnet URI or link).
	// ContentID is a deferred reference requiring a resolve call against
	// the originating source. Exactly one of the two is normally set.
	DownloadURL string `json:"download_url,omitempty"`
	ContentID   string `json:"content_id,omitempty"`

	Language string          `json:"language,omitempty"` // Detected, not requested
	Status   CandidateStatus `json:"status"`

	ConfidenceScore int                 `json:"confidence_score"`
	ScoreBreakdown  []ScoreContribution `json:"score_breakdown"`

	PublishedAt *time.Time `json:"published_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// IsMagnet reports whether the candidate's fetchable reference is a
// magnet-style URI.
func (c *Candidate) IsMagnet() bool {
	return strings.HasPrefix(strings.ToLower(c.DownloadURL), "magnet:")
}

// Transport classifies the candidate for download client selection. A
// release with a magnet reference, or a link plus seeder data, is
// torrent-class; a link with no seeder signal is usenet-class. Deferred
// references resolve to torrents (or, as a documented limitation, direct
// links submitted through a torrent-capable client), so they classify as
// torrent-class too.
func (c *Candidate) Transport() Transport {
	if c.IsMagnet() || c.ContentID != "" {
		return TransportTorrent
	}
	if c.Seeders != nil {
		return TransportTorrent
	}
	return TransportUsenet
}
