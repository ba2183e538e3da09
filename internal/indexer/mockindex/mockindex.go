// Package mockindex provides an in-memory source for the test environment.
package mockindex

import (
	"context"
	"sync"

	"github.com/shelfarr/shelfarr/internal/indexer"
	"github.com/shelfarr/shelfarr/internal/models"
)

// Source is a configurable fake. Tests set Hits and Err before triggering
// a search, and inspect SearchCalls afterwards.
type Source struct {
	mu          sync.Mutex
	info        indexer.SourceInfo
	APIKey      string
	Hits        []indexer.Hit
	Err         error
	Resolved    map[string]string // content id -> resolved reference
	ResolveErr  error
	SearchCalls int
	LastQuery   indexer.Query
}

// New returns a mock source of the given kind.
func New(id string, kind models.SourceKind) *Source {
	return &Source{
		info:     indexer.SourceInfo{ID: id, Name: "Mock " + id, Kind: kind},
		Resolved: make(map[string]string),
	}
}

func (s *Source) Info() indexer.SourceInfo { return s.info }

func (s *Source) SetAPIKey(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.APIKey = key
}

func (s *Source) Search(ctx context.Context, q indexer.Query) ([]indexer.Hit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SearchCalls++
	s.LastQuery = q
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Hits, nil
}

func (s *Source) Resolve(ctx context.Context, contentID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ResolveErr != nil {
		return "", s.ResolveErr
	}
	return s.Resolved[contentID], nil
}
