package library_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/shelfarr/shelfarr/internal/core"
	"github.com/shelfarr/shelfarr/internal/library"
	"github.com/shelfarr/shelfarr/internal/models"
	"github.com/shelfarr/shelfarr/internal/testutil"
)

// completedDownload fabricates a request whose download has finished: the
// payload sits in the completed directory and the attempt is 'completed'.
func completedDownload(t *testing.T, app *core.App, payload string) (*models.Request, *models.Download) {
	t.Helper()
	st := app.Store()

	req := testutil.CreateRequest(t, app, models.Work{Title: "Dune", Author: "Frank Herbert"})
	d, err := st.CreateDownload(req.ID, filepath.Base(payload), nil, models.TransportTorrent)
	if err != nil {
		t.Fatalf("CreateDownload failed: %v", err)
	}
	if _, err := st.TransitionRequest(req.ID, models.RequestPending, models.RequestDownloading); err != nil {
		t.Fatalf("TransitionRequest failed: %v", err)
	}
	if _, err := st.MarkDownloadSubmitted(d.ID, "fake-torrent", "hash"); err != nil {
		t.Fatalf("MarkDownloadSubmitted failed: %v", err)
	}
	if _, err := st.MarkDownloadCompleted(d.ID, payload); err != nil {
		t.Fatalf("MarkDownloadCompleted failed: %v", err)
	}
	return req, d
}

func TestProcessImportsFilePayload(t *testing.T) {
	app, _, _, _ := testutil.SetupTestApp(t)
	payload := filepath.Join(app.Config().Downloads.CompletedDir, "Dune.epub")
	if err := os.WriteFile(payload, []byte("book"), 0644); err != nil {
		t.Fatalf("Failed to write payload: %v", err)
	}
	req, d := completedDownload(t, app, payload)

	if err := library.Process(context.Background(), app, d.ID); err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	got, _ := app.Store().GetRequest(req.ID)
	if got.Status != models.RequestCompleted {
		t.Fatalf("Expected completed, got %s", got.Status)
	}

	work, _ := app.Store().GetWork(req.WorkID)
	wantDir := filepath.Join(app.Config().Library.EbookPath, "Frank Herbert", "Dune")
	if work.LibraryPath == nil || *work.LibraryPath != wantDir {
		t.Errorf("Expected library path %q, got %v", wantDir, work.LibraryPath)
	}

	imported := filepath.Join(wantDir, "Dune.epub")
	if _, err := os.Stat(imported); err != nil {
		t.Errorf("Imported file missing: %v", err)
	}
	// Copy, not move: the client's seeding copy stays put.
	if _, err := os.Stat(payload); err != nil {
		t.Errorf("Source payload was removed: %v", err)
	}
}

func TestProcessImportsDirectoryPreservingStructure(t *testing.T) {
	app, _, _, _ := testutil.SetupTestApp(t)
	payload := filepath.Join(app.Config().Downloads.CompletedDir, "Dune.Audiobook")
	if err := os.MkdirAll(filepath.Join(payload, "cd1"), 0755); err != nil {
		t.Fatalf("Failed to create payload: %v", err)
	}
	if err := os.WriteFile(filepath.Join(payload, "cd1", "track01.mp3"), []byte("audio"), 0644); err != nil {
		t.Fatalf("Failed to write payload: %v", err)
	}
	req, d := completedDownload(t, app, payload)

	if err := library.Process(context.Background(), app, d.ID); err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	got, _ := app.Store().GetRequest(req.ID)
	if got.Status != models.RequestCompleted {
		t.Fatalf("Expected completed, got %s", got.Status)
	}
	imported := filepath.Join(app.Config().Library.EbookPath, "Frank Herbert", "Dune", "cd1", "track01.mp3")
	if _, err := os.Stat(imported); err != nil {
		t.Errorf("Expected nested structure preserved: %v", err)
	}
}

func TestProcessIsIdempotent(t *testing.T) {
	app, _, _, _ := testutil.SetupTestApp(t)
	payload := filepath.Join(app.Config().Downloads.CompletedDir, "Dune.epub")
	os.WriteFile(payload, []byte("book"), 0644)
	req, d := completedDownload(t, app, payload)

	if err := library.Process(context.Background(), app, d.ID); err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if err := library.Process(context.Background(), app, d.ID); err != nil {
		t.Fatalf("Second Process failed: %v", err)
	}

	got, _ := app.Store().GetRequest(req.ID)
	if got.Status != models.RequestCompleted {
		t.Errorf("Expected completed after re-run, got %s", got.Status)
	}
}

func TestProcessMissingPayloadFlagsAttention(t *testing.T) {
	app, _, _, _ := testutil.SetupTestApp(t)
	payload := filepath.Join(app.Config().Downloads.CompletedDir, "Never.Arrived")
	req, d := completedDownload(t, app, payload)

	if err := library.Process(context.Background(), app, d.ID); err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	got, _ := app.Store().GetRequest(req.ID)
	if got.Status != models.RequestFailed || !got.AttentionNeeded {
		t.Errorf("Expected parked request, got %+v", got)
	}
}

func TestProcessAppliesPathRemapping(t *testing.T) {
	app, _, _, _ := testutil.SetupTestApp(t)
	cfg := app.Config()
	cfg.Downloads.RemotePathPrefix = "/data/complete"
	cfg.Downloads.LocalPathPrefix = cfg.Downloads.CompletedDir

	local := filepath.Join(cfg.Downloads.CompletedDir, "Dune.epub")
	if err := os.WriteFile(local, []byte("book"), 0644); err != nil {
		t.Fatalf("Failed to write payload: %v", err)
	}
	// The client reports its own view of the path.
	req, d := completedDownload(t, app, "/data/complete/Dune.epub")

	if err := library.Process(context.Background(), app, d.ID); err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	got, _ := app.Store().GetRequest(req.ID)
	if got.Status != models.RequestCompleted {
		t.Errorf("Expected remapped import to complete, got %s (%s)", got.Status, got.AttentionReason)
	}
}

func TestProcessIsNoOpForInFlightDownload(t *testing.T) {
	app, _, _, _ := testutil.SetupTestApp(t)
	req := testutil.CreateRequest(t, app, models.Work{Title: "Dune", Author: "Frank Herbert"})
	d, _ := app.Store().CreateDownload(req.ID, "Dune.epub", nil, models.TransportTorrent)

	if err := library.Process(context.Background(), app, d.ID); err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	got, _ := app.Store().GetRequest(req.ID)
	if got.Status != models.RequestPending {
		t.Errorf("Import of a queued download changed request to %s", got.Status)
	}
}

func TestSweepCompletedImportsInFlightRequests(t *testing.T) {
	app, _, _, _ := testutil.SetupTestApp(t)
	payload := filepath.Join(app.Config().Downloads.CompletedDir, "Dune.epub")
	os.WriteFile(payload, []byte("book"), 0644)
	req, _ := completedDownload(t, app, payload)

	library.SweepCompleted(context.Background(), app)

	got, _ := app.Store().GetRequest(req.ID)
	if got.Status != models.RequestCompleted {
		t.Errorf("Expected the sweep to import, got %s", got.Status)
	}
}
