package indexer

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/shelfarr/shelfarr/internal/models"
	"github.com/shelfarr/shelfarr/internal/util"
)

// Normalize maps a raw hit into a candidate release, tagged with the kind
// and name of the source that produced it. The request id is filled in by
// the caller when the set is persisted.
func Normalize(info SourceInfo, h Hit) models.Candidate {
	switch info.Kind {
	case models.SourceArchive:
		return normalizeArchiveHit(info, h)
	default:
		return normalizeIndexerHit(info, h)
	}
}

func normalizeIndexerHit(info SourceInfo, h Hit) models.Candidate {
	c := models.Candidate{
		GUID:        hitGUID(info, h),
		Title:       h.Title,
		Source:      models.SourceIndexer,
		IndexerName: indexerName(info, h),
		SizeBytes:   h.SizeBytes,
		Seeders:     h.Seeders,
		Leechers:    h.Leechers,
		DownloadURL: h.DownloadURL,
		Language:    h.Language,
		Status:      models.CandidatePending,
		PublishedAt: h.PublishedAt,
	}
	return c
}

// Archive-style hits split title, author and format into separate fields
// and report sizes as human-readable strings. The composed display title
// keeps the scorer's title parsing uniform across source kinds.
func normalizeArchiveHit(info SourceInfo, h Hit) models.Candidate {
	title := h.Title
	if h.Author != "" {
		title = fmt.Sprintf("%s - %s", h.Author, h.Title)
	}
	if h.Year > 0 {
		title = fmt.Sprintf("%s (%d)", title, h.Year)
	}
	if h.Format != "" {
		title = fmt.Sprintf("%s [%s]", title, strings.ToUpper(h.Format))
	}

	c := models.Candidate{
		GUID:        hitGUID(info, h),
		Title:       title,
		Source:      models.SourceArchive,
		IndexerName: indexerName(info, h),
		ContentID:   h.ContentID,
		DownloadURL: h.DownloadURL,
		Language:    h.Language,
		Status:      models.CandidatePending,
		PublishedAt: h.PublishedAt,
	}
	if h.SizeBytes != nil {
		c.SizeBytes = h.SizeBytes
	} else if h.SizeHuman != "" {
		if bytes, err := humanize.ParseBytes(h.SizeHuman); err == nil {
			size := int64(bytes)
			c.SizeBytes = &size
		}
		// An unparseable size string stays nil; the scorer treats a
		// missing size as neutral.
	}
	return c
}

func indexerName(info SourceInfo, h Hit) string {
	if h.IndexerName != "" {
		return h.IndexerName
	}
	return info.Name
}

// hitGUID falls back to a stable synthetic identifier for sources that do
// not assign one. Uniqueness within a request is enforced by the store.
func hitGUID(info SourceInfo, h Hit) string {
	if h.GUID != "" {
		return h.GUID
	}
	if h.ContentID != "" {
		return fmt.Sprintf("%s:%s", info.ID, h.ContentID)
	}
	return fmt.Sprintf("%s:%s", info.ID, util.NormalizeText(h.Title))
}
