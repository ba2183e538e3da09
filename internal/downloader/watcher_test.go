package downloader_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shelfarr/shelfarr/internal/downloader"
	"github.com/shelfarr/shelfarr/internal/models"
	"github.com/shelfarr/shelfarr/internal/testutil"
)

func TestCompletionWatcherClosesOutDownload(t *testing.T) {
	app, _, _, _ := testutil.SetupTestApp(t)
	_, d := grabbed(t, app, models.Candidate{GUID: "g", Title: "Dune.Retail", DownloadURL: magnetRef})
	if err := downloader.Submit(context.Background(), app, d.ID); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	w := downloader.NewCompletionWatcher(app)
	if err := w.Start(); err != nil {
		t.Fatalf("Failed to start watcher: %v", err)
	}
	defer w.Stop()

	payload := filepath.Join(app.Config().Downloads.CompletedDir, "Dune.Retail")
	if err := os.WriteFile(payload, []byte("book bytes"), 0644); err != nil {
		t.Fatalf("Failed to write payload: %v", err)
	}

	// The watcher debounces arrivals before matching.
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		got, err := app.Store().GetDownload(d.ID)
		if err != nil {
			t.Fatalf("GetDownload failed: %v", err)
		}
		if got.Status == models.DownloadCompleted {
			if got.ClientPath == nil || *got.ClientPath != payload {
				t.Errorf("Expected client path %q, got %v", payload, got.ClientPath)
			}
			return
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Fatal("Download was never marked completed")
}

func TestCompletionWatcherIgnoresUnknownArrivals(t *testing.T) {
	app, _, _, _ := testutil.SetupTestApp(t)
	_, d := grabbed(t, app, models.Candidate{GUID: "g", Title: "Dune.Retail", DownloadURL: magnetRef})
	if err := downloader.Submit(context.Background(), app, d.ID); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	w := downloader.NewCompletionWatcher(app)
	if err := w.Start(); err != nil {
		t.Fatalf("Failed to start watcher: %v", err)
	}
	defer w.Stop()

	stranger := filepath.Join(app.Config().Downloads.CompletedDir, "Somebody.Elses.File")
	if err := os.WriteFile(stranger, []byte("noise"), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	time.Sleep(3 * time.Second)
	got, _ := app.Store().GetDownload(d.ID)
	if got.Status != models.DownloadDownloading {
		t.Errorf("Unrelated arrival changed download status to %s", got.Status)
	}
}
