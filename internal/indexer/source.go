package indexer

import (
	"context"
	"time"

	"github.com/shelfarr/shelfarr/internal/models"
)

// SourceInfo contains static information about a source.
type SourceInfo struct {
	ID   string            `json:"id"`
	Name string            `json:"name"`
	Kind models.SourceKind `json:"kind"`
}

// Query is the search input derived from a work's metadata.
type Query struct {
	Title  string
	Author string
	Medium models.Medium
}

// Hit is one raw search result from a source, before normalization into a
// candidate. Indexer-style sources fill SizeBytes and seeder counts;
// archive-style sources fill SizeHuman, Format and ContentID instead.
type Hit struct {
	GUID        string
	Title       string
	Author      string
	IndexerName string
	SizeBytes   *int64
	SizeHuman   string // e.g. "4.1 MB", archive sources only
	Seeders     *int
	Leechers    *int
	DownloadURL string // Direct link or magnet URI
	ContentID   string // Deferred reference, requires Resolve
	Language    string
	Format      string // e.g. "epub", archive sources only
	Year        int
	PublishedAt *time.Time
}

// Source is the contract every release source adapter implements. A search
// returns zero or more raw hits for the query, or one of the package
// sentinel errors.
type Source interface {
	Info() SourceInfo
	Search(ctx context.Context, q Query) ([]Hit, error)
}

// Credentialed is implemented by sources that take an API key from
// configuration.
type Credentialed interface {
	SetAPIKey(key string)
}

// Resolver is implemented by sources whose hits carry a deferred content
// identifier instead of a direct link. Resolve exchanges the identifier
// for a fetchable reference.
type Resolver interface {
	Resolve(ctx context.Context, contentID string) (string, error)
}
