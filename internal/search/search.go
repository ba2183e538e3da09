// Package search implements the search stage: fan a request's work out to
// every enabled source, score and persist the merged candidate set, and
// either auto-select a candidate, park the request for a human, or schedule
// a bounded retry.
package search

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/shelfarr/shelfarr/internal/core"
	"github.com/shelfarr/shelfarr/internal/indexer"
	"github.com/shelfarr/shelfarr/internal/jobs"
	"github.com/shelfarr/shelfarr/internal/models"
	"github.com/shelfarr/shelfarr/internal/notify"
	"github.com/shelfarr/shelfarr/internal/scoring"
	"github.com/shelfarr/shelfarr/internal/selection"
)

// Retry delay doubles per attempt but never exceeds a day.
const maxRetryBackoff = 24 * time.Hour

// Run executes one search pass for a request. Delivery is at-least-once:
// a first delivery claims the pending->searching transition, a retry
// delivery claims its due wakeup time, and a duplicate delivery that
// loses both claims returns without side effects. A request waiting out
// its backoff stays in 'searching' and holds a future wakeup time, so a
// stray re-delivery of the original unit of work cannot jump the queue.
func Run(ctx context.Context, app *core.App, requestID int64) error {
	st := app.Store()

	req, err := st.GetRequest(requestID)
	if err != nil {
		return fmt.Errorf("loading request %d: %w", requestID, err)
	}

	claimed, err := st.TransitionRequest(req.ID, models.RequestPending, models.RequestSearching)
	if err != nil {
		return err
	}
	if !claimed {
		claimed, err = st.ClaimRetryRequest(req.ID, time.Now())
		if err != nil {
			return err
		}
	}
	if !claimed {
		log.Printf("Search for request %d skipped: nothing to claim", req.ID)
		return nil
	}

	work, err := st.GetWork(req.WorkID)
	if err != nil {
		return fmt.Errorf("loading work %d: %w", req.WorkID, err)
	}

	sources := indexer.Enabled()
	if len(sources) == 0 {
		return park(app, req.ID, "no sources configured")
	}

	hits, searchErr := fanOut(ctx, sources, indexer.Query{
		Title:  work.Title,
		Author: work.Author,
		Medium: work.Medium,
	})
	if searchErr != nil {
		return park(app, req.ID, searchErr.Error())
	}

	candidates := scoreHits(hits, work)
	if err := st.ReplaceCandidates(req.ID, candidates); err != nil {
		return fmt.Errorf("persisting candidates for request %d: %w", req.ID, err)
	}

	if len(candidates) == 0 {
		return scheduleRetry(app, req)
	}

	app.Hub().Notify(notify.EventSearchCompleted, req.ID,
		fmt.Sprintf("Found %d candidates for %q", len(candidates), work.Title))

	// Re-read so candidates carry database ids.
	stored, err := st.GetCandidates(req.ID)
	if err != nil {
		return err
	}

	cfg := app.Config()
	best, ok := selection.AutoSelect(stored, work, selection.Policy{
		Enabled:            cfg.Search.AutoSelect,
		Threshold:          cfg.Search.Threshold,
		PreferredTransport: models.Transport(cfg.Search.PreferredTransport),
	})
	if !ok {
		if _, err := st.TransitionRequest(req.ID, models.RequestSearching, models.RequestAwaitingSelection); err != nil {
			return err
		}
		app.Hub().Notify(notify.EventAwaitingSelection, req.ID,
			fmt.Sprintf("%q needs a manual pick", work.Title))
		return nil
	}

	return Grab(ctx, app, req.ID, best)
}

// Grab records a candidate as the chosen one, creates the queued download
// attempt and moves the request into 'downloading'. Both the auto-select
// path and the manual selection endpoint land here.
func Grab(ctx context.Context, app *core.App, requestID int64, c *models.Candidate) error {
	st := app.Store()

	selected, err := st.SelectCandidate(requestID, c.ID)
	if err != nil {
		return err
	}
	if !selected {
		log.Printf("Candidate %d for request %d not selectable", c.ID, requestID)
		return nil
	}

	if _, err := st.CreateDownload(requestID, c.Title, c.SizeBytes, c.Transport()); err != nil {
		return fmt.Errorf("creating download for request %d: %w", requestID, err)
	}

	// The grab can come from 'searching' (auto-select) or from
	// 'awaiting_selection' (manual pick); claim whichever holds.
	moved, err := st.TransitionRequest(requestID, models.RequestSearching, models.RequestDownloading)
	if err != nil {
		return err
	}
	if !moved {
		if _, err := st.TransitionRequest(requestID, models.RequestAwaitingSelection, models.RequestDownloading); err != nil {
			return err
		}
	}

	app.Hub().Notify(notify.EventDownloadCreated, requestID,
		fmt.Sprintf("Queued %q for download", c.Title))

	// Hand off to the submission stage without blocking the caller.
	go func() {
		app.JobManager().RunJob(jobs.JobDownloadSweep, app)
	}()
	return nil
}

// park flags the request for a human. The attention write must land: a
// failure here would strand the request in 'searching' unnoticed.
func park(app *core.App, requestID int64, reason string) error {
	if err := app.Store().SetRequestAttention(requestID, reason); err != nil {
		return fmt.Errorf("flagging request %d for attention: %w", requestID, err)
	}
	app.Hub().Notify(notify.EventRequestAttention, requestID, reason)
	return nil
}

// fanOut queries every source and merges the hits. A source failing is
// tolerated as long as another succeeds; when every source fails and at
// least one failure is fatal (bad credentials, missing configuration) the
// request needs a human and a readable error is returned.
func fanOut(ctx context.Context, sources []indexer.Source, q indexer.Query) ([]scoredHit, error) {
	var hits []scoredHit
	var failures []error
	succeeded := false

	for _, src := range sources {
		info := src.Info()
		found, err := src.Search(ctx, q)
		if err != nil {
			log.Printf("Source %s failed: %v", info.ID, err)
			failures = append(failures, fmt.Errorf("%s: %w", info.Name, err))
			continue
		}
		succeeded = true
		for _, h := range found {
			hits = append(hits, scoredHit{info: info, hit: h})
		}
	}

	if !succeeded && len(failures) > 0 {
		for _, f := range failures {
			if indexer.Fatal(f) {
				return nil, fmt.Errorf("source error: %s", errors.Join(failures...))
			}
		}
		// All failures transient: treat as an empty result so the retry
		// path gets another shot.
		log.Printf("All sources failed transiently: %v", errors.Join(failures...))
	}
	return hits, nil
}

type scoredHit struct {
	info indexer.SourceInfo
	hit  indexer.Hit
}

func scoreHits(hits []scoredHit, work *models.Work) []models.Candidate {
	candidates := make([]models.Candidate, 0, len(hits))
	for _, sh := range hits {
		c := indexer.Normalize(sh.info, sh.hit)
		result := scoring.Score(&c, work)
		c.ConfidenceScore = result.Total
		c.ScoreBreakdown = result.Breakdown
		c.Language = result.DetectedLanguage
		candidates = append(candidates, c)
	}
	return candidates
}

// scheduleRetry applies the bounded retry policy after an empty search:
// exponential backoff until max_retries is spent, then 'not_found'.
func scheduleRetry(app *core.App, req *models.Request) error {
	st := app.Store()
	cfg := app.Config()

	if req.RetryCount >= cfg.Search.MaxRetries {
		if _, err := st.MarkRequestNotFound(req.ID); err != nil {
			return err
		}
		app.Hub().Notify(notify.EventNotFound, req.ID,
			fmt.Sprintf("No results after %d attempts", req.RetryCount+1))
		return nil
	}

	backoff := time.Duration(cfg.Search.RetryBackoffMinutes) * time.Minute
	for i := 0; i < req.RetryCount; i++ {
		backoff *= 2
		if backoff >= maxRetryBackoff {
			backoff = maxRetryBackoff
			break
		}
	}

	nextAt := time.Now().Add(backoff)
	if _, err := st.ScheduleRequestRetry(req.ID, req.RetryCount+1, nextAt); err != nil {
		return err
	}
	app.Hub().Notify(notify.EventSearchRetry, req.ID,
		fmt.Sprintf("No results, retry %d/%d at %s", req.RetryCount+1, cfg.Search.MaxRetries, nextAt.Format(time.RFC3339)))
	return nil
}

// SweepRetries re-runs the search stage for every request whose retry time
// has arrived. Registered as the 'search-retry-sweep' job.
func SweepRetries(ctx context.Context, app *core.App) {
	ids, err := app.Store().DueRetryRequests(time.Now())
	if err != nil {
		log.Printf("Error fetching due retries: %v", err)
		return
	}
	for _, id := range ids {
		if err := Run(ctx, app, id); err != nil {
			log.Printf("Retry search for request %d failed: %v", id, err)
		}
	}
}
