package search_test

import (
	"context"
	"testing"

	"github.com/shelfarr/shelfarr/internal/indexer"
	"github.com/shelfarr/shelfarr/internal/models"
	"github.com/shelfarr/shelfarr/internal/search"
	"github.com/shelfarr/shelfarr/internal/testutil"
)

func intPtr(v int) *int       { return &v }
func int64Ptr(v int64) *int64 { return &v }

// strongHit scores comfortably above the default test threshold.
func strongHit() indexer.Hit {
	return indexer.Hit{
		GUID:        "hit-1",
		Title:       "Frank Herbert - Dune EPUB",
		IndexerName: "Mock Indexer",
		SizeBytes:   int64Ptr(5 << 20),
		Seeders:     intPtr(30),
		DownloadURL: "magnet:?xt=urn:btih:abcdef0123456789abcdef0123456789abcdef01",
	}
}

func TestRunAutoSelectsStrongCandidate(t *testing.T) {
	app, source, _, _ := testutil.SetupTestApp(t)
	req := testutil.CreateRequest(t, app, models.Work{Title: "Dune", Author: "Frank Herbert"})
	source.Hits = []indexer.Hit{strongHit()}

	if err := search.Run(context.Background(), app, req.ID); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	got, _ := app.Store().GetRequest(req.ID)
	if got.Status != models.RequestDownloading {
		t.Fatalf("Expected downloading, got %s", got.Status)
	}

	selected, err := app.Store().GetSelectedCandidate(req.ID)
	if err != nil {
		t.Fatalf("Expected a selected candidate: %v", err)
	}
	if selected.GUID != "hit-1" {
		t.Errorf("Expected hit-1 selected, got %s", selected.GUID)
	}
	if len(selected.ScoreBreakdown) == 0 {
		t.Error("Expected a persisted score breakdown")
	}

	d, err := app.Store().GetActiveDownload(req.ID)
	if err != nil {
		t.Fatalf("Expected a queued download: %v", err)
	}
	if d.Status != models.DownloadQueued || d.Transport != models.TransportTorrent {
		t.Errorf("Unexpected download attempt: %+v", d)
	}
}

func TestRunParksWeakResultsForManualSelection(t *testing.T) {
	app, source, _, _ := testutil.SetupTestApp(t)
	req := testutil.CreateRequest(t, app, models.Work{Title: "Dune", Author: "Frank Herbert"})
	source.Hits = []indexer.Hit{{
		GUID:        "weak",
		Title:       "Something Completely Different",
		DownloadURL: "https://example.com/weak.torrent",
		Seeders:     intPtr(1),
	}}

	if err := search.Run(context.Background(), app, req.ID); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	got, _ := app.Store().GetRequest(req.ID)
	if got.Status != models.RequestAwaitingSelection {
		t.Errorf("Expected awaiting_selection, got %s", got.Status)
	}
	candidates, _ := app.Store().GetCandidates(req.ID)
	if len(candidates) != 1 || candidates[0].Status != models.CandidatePending {
		t.Errorf("Expected one pending candidate, got %+v", candidates)
	}
}

func TestRunLanguageMismatchNeverAutoSelected(t *testing.T) {
	app, source, _, _ := testutil.SetupTestApp(t)
	req := testutil.CreateRequest(t, app, models.Work{Title: "Dune", Author: "Frank Herbert", Language: "en"})
	hit := strongHit()
	hit.Language = "fr"
	source.Hits = []indexer.Hit{hit}

	if err := search.Run(context.Background(), app, req.ID); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	got, _ := app.Store().GetRequest(req.ID)
	if got.Status != models.RequestAwaitingSelection {
		t.Errorf("Expected awaiting_selection for language mismatch, got %s", got.Status)
	}
}

func TestRunSchedulesRetryOnEmptyResults(t *testing.T) {
	app, source, _, _ := testutil.SetupTestApp(t)
	req := testutil.CreateRequest(t, app, models.Work{Title: "Obscure Title"})
	source.Hits = nil

	if err := search.Run(context.Background(), app, req.ID); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	got, _ := app.Store().GetRequest(req.ID)
	if got.Status != models.RequestSearching {
		t.Fatalf("Expected the request to wait out its retry in searching, got %s", got.Status)
	}
	if got.RetryCount != 1 {
		t.Errorf("Expected retry count 1, got %d", got.RetryCount)
	}
	if got.NextRetryAt == nil {
		t.Error("Expected a next retry time")
	}
	if got.AttentionNeeded {
		t.Error("Empty results must not flag attention")
	}
}

func TestRunDoesNotReclaimBeforeRetryTime(t *testing.T) {
	app, source, _, _ := testutil.SetupTestApp(t)
	req := testutil.CreateRequest(t, app, models.Work{Title: "Obscure Title"})
	source.Hits = nil

	if err := search.Run(context.Background(), app, req.ID); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	// A stray re-delivery of the original unit of work must not jump the
	// backoff queue.
	if err := search.Run(context.Background(), app, req.ID); err != nil {
		t.Fatalf("Duplicate Run failed: %v", err)
	}

	if source.SearchCalls != 1 {
		t.Errorf("Expected the duplicate delivery to search nothing, got %d calls", source.SearchCalls)
	}
	got, _ := app.Store().GetRequest(req.ID)
	if got.Status != models.RequestSearching || got.RetryCount != 1 {
		t.Errorf("Expected the scheduled retry untouched, got %+v", got)
	}
	if got.NextRetryAt == nil {
		t.Error("Expected the wakeup time to survive a duplicate delivery")
	}
}

func TestRunGivesUpAfterMaxRetries(t *testing.T) {
	app, source, _, _ := testutil.SetupTestApp(t)
	req := testutil.CreateRequest(t, app, models.Work{Title: "Obscure Title"})
	source.Hits = nil

	// Retries already spent.
	_, err := app.DB().Exec("UPDATE requests SET retry_count = ? WHERE id = ?",
		app.Config().Search.MaxRetries, req.ID)
	if err != nil {
		t.Fatalf("Failed to set retry count: %v", err)
	}

	if err := search.Run(context.Background(), app, req.ID); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	got, _ := app.Store().GetRequest(req.ID)
	if got.Status != models.RequestNotFound {
		t.Errorf("Expected not_found, got %s", got.Status)
	}
	if got.AttentionNeeded {
		t.Error("not_found is a normal outcome, not an attention state")
	}
}

func TestRunWithNoSourcesFlagsAttention(t *testing.T) {
	app, _, _, _ := testutil.SetupTestApp(t)
	req := testutil.CreateRequest(t, app, models.Work{Title: "Dune"})
	indexer.UnregisterAll()

	if err := search.Run(context.Background(), app, req.ID); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	got, _ := app.Store().GetRequest(req.ID)
	if got.Status != models.RequestFailed || !got.AttentionNeeded {
		t.Errorf("Expected failed with attention, got %+v", got)
	}
	if got.NextRetryAt != nil {
		t.Error("A configuration gap must not be retried")
	}
}

func TestRunSoleSourceAuthFailureFlagsAttention(t *testing.T) {
	app, source, _, _ := testutil.SetupTestApp(t)
	req := testutil.CreateRequest(t, app, models.Work{Title: "Dune"})
	source.Err = indexer.ErrAuthentication

	if err := search.Run(context.Background(), app, req.ID); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	got, _ := app.Store().GetRequest(req.ID)
	if got.Status != models.RequestFailed || !got.AttentionNeeded {
		t.Errorf("Expected failed with attention, got %+v", got)
	}
}

func TestRunTransientSourceFailureBecomesRetry(t *testing.T) {
	app, source, _, _ := testutil.SetupTestApp(t)
	req := testutil.CreateRequest(t, app, models.Work{Title: "Dune"})
	source.Err = indexer.ErrConnection

	if err := search.Run(context.Background(), app, req.ID); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	got, _ := app.Store().GetRequest(req.ID)
	if got.Status != models.RequestSearching || got.RetryCount != 1 {
		t.Errorf("Expected retry scheduling for a transient failure, got %+v", got)
	}
	if got.AttentionNeeded {
		t.Error("Transient failures must not flag attention")
	}
}

func TestRunOnlyQueriesEnabledSources(t *testing.T) {
	app, source, _, _ := testutil.SetupTestApp(t)
	req := testutil.CreateRequest(t, app, models.Work{Title: "Dune"})
	source.Hits = []indexer.Hit{strongHit()}
	indexer.SetEnabled("mock", false)

	if err := search.Run(context.Background(), app, req.ID); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if source.SearchCalls != 0 {
		t.Errorf("Expected a disabled source to be skipped, got %d calls", source.SearchCalls)
	}
	got, _ := app.Store().GetRequest(req.ID)
	if got.Status != models.RequestFailed || !got.AttentionNeeded {
		t.Errorf("Expected attention when every source is disabled, got %+v", got)
	}
}

func TestRunIsNoOpWhenNotPending(t *testing.T) {
	app, source, _, _ := testutil.SetupTestApp(t)
	req := testutil.CreateRequest(t, app, models.Work{Title: "Dune"})
	app.Store().TransitionRequest(req.ID, models.RequestPending, models.RequestDownloading)

	if err := search.Run(context.Background(), app, req.ID); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if source.SearchCalls != 0 {
		t.Errorf("Expected no search for a non-pending request, got %d calls", source.SearchCalls)
	}
	got, _ := app.Store().GetRequest(req.ID)
	if got.Status != models.RequestDownloading {
		t.Errorf("Status changed unexpectedly to %s", got.Status)
	}
}

func TestSweepRetriesReRunsDueRequests(t *testing.T) {
	app, source, _, _ := testutil.SetupTestApp(t)
	req := testutil.CreateRequest(t, app, models.Work{Title: "Dune", Author: "Frank Herbert"})
	source.Hits = nil

	if err := search.Run(context.Background(), app, req.ID); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	// Pull the wakeup time into the past so the sweep picks it up.
	if _, err := app.DB().Exec("UPDATE requests SET next_retry_at = datetime('now', '-1 minute') WHERE id = ?", req.ID); err != nil {
		t.Fatalf("Failed to backdate retry: %v", err)
	}

	source.Hits = []indexer.Hit{strongHit()}
	search.SweepRetries(context.Background(), app)

	got, _ := app.Store().GetRequest(req.ID)
	if got.Status != models.RequestDownloading {
		t.Errorf("Expected the sweep to complete the search, got %s", got.Status)
	}
	if source.SearchCalls != 2 {
		t.Errorf("Expected two searches, got %d", source.SearchCalls)
	}
}
