// Shared test fixtures: a fully wired app with an in-memory database, a
// mock indexer source and fake download clients.
package testutil

import (
	"testing"

	"github.com/shelfarr/shelfarr/internal/config"
	"github.com/shelfarr/shelfarr/internal/core"
	"github.com/shelfarr/shelfarr/internal/dlclient"
	"github.com/shelfarr/shelfarr/internal/dlclient/fakeclient"
	"github.com/shelfarr/shelfarr/internal/indexer"
	"github.com/shelfarr/shelfarr/internal/indexer/mockindex"
	"github.com/shelfarr/shelfarr/internal/models"
	"github.com/shelfarr/shelfarr/internal/notify"
)

// TestConfig returns a config with sane pipeline defaults for tests.
func TestConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	cfg.Search.AutoSelect = true
	cfg.Search.Threshold = 70
	cfg.Search.MaxRetries = 3
	cfg.Search.RetryBackoffMinutes = 30
	cfg.Search.PreferredTransport = "torrent"
	cfg.Library.EbookPath = t.TempDir()
	cfg.Library.AudiobookPath = t.TempDir()
	cfg.Downloads.CompletedDir = t.TempDir()
	return cfg
}

// SetupTestApp initializes an app over an in-memory database, with a mock
// source registered and fake torrent/usenet clients installed.
func SetupTestApp(t *testing.T) (*core.App, *mockindex.Source, *fakeclient.Client, *fakeclient.Client) {
	t.Helper()
	db := SetupTestDB(t)

	hub := notify.NewHub()
	go hub.Run()

	app := core.NewWith(TestConfig(t), db, hub)

	t.Cleanup(func() {
		indexer.UnregisterAll()
	})

	source := mockindex.New("mock", models.SourceIndexer)
	indexer.Register(source)

	torrent := fakeclient.New("fake-torrent", models.TransportTorrent)
	usenet := fakeclient.New("fake-usenet", models.TransportUsenet)
	app.SetSelector(dlclient.NewSelector(
		dlclient.Entry{Client: torrent, Priority: 1, Enabled: true},
		dlclient.Entry{Client: usenet, Priority: 2, Enabled: true},
	))

	return app, source, torrent, usenet
}

// CreateRequest persists a work and a pending request for it.
func CreateRequest(t *testing.T, app *core.App, work models.Work) *models.Request {
	t.Helper()
	if work.Medium == "" {
		work.Medium = models.MediumEbook
	}
	if work.ExternalID == "" {
		work.ExternalID = "test-" + work.Title
	}
	saved, err := app.Store().CreateWork(&work)
	if err != nil {
		t.Fatalf("Failed to create work: %v", err)
	}
	req, err := app.Store().CreateRequest(saved.ID)
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}
	return req
}
