// Package downloader implements the submission stage: hand the selected
// candidate's fetchable reference to a download client, resolve deferred
// references first, and record the client's identifier for the attempt.
package downloader

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/shelfarr/shelfarr/internal/core"
	"github.com/shelfarr/shelfarr/internal/indexer"
	"github.com/shelfarr/shelfarr/internal/jobs"
	"github.com/shelfarr/shelfarr/internal/models"
	"github.com/shelfarr/shelfarr/internal/notify"
)

// Submit performs one submission attempt for a queued download. Duplicate
// deliveries are no-ops: only the queued->downloading transition commits
// a submission, and any precondition or client failure parks the request
// for a human instead of retrying.
func Submit(ctx context.Context, app *core.App, downloadID int64) error {
	st := app.Store()

	d, err := st.GetDownload(downloadID)
	if err != nil {
		return fmt.Errorf("loading download %d: %w", downloadID, err)
	}
	if d.Status != models.DownloadQueued {
		log.Printf("Submission for download %d skipped: status %s", d.ID, d.Status)
		return nil
	}

	c, err := st.GetSelectedCandidate(d.RequestID)
	if errors.Is(err, sql.ErrNoRows) {
		return park(app, d, "no result selected")
	}
	if err != nil {
		return err
	}

	ref := c.DownloadURL
	if ref == "" && c.ContentID != "" {
		ref, err = resolveRef(ctx, c)
		if err != nil {
			return park(app, d, fmt.Sprintf("could not resolve download link: %v", err))
		}
	}
	if ref == "" {
		return park(app, d, "selected result has no download link")
	}

	client, err := app.Selector().Select(d.Transport)
	if err != nil {
		return park(app, d, err.Error())
	}

	ack, err := client.Submit(ctx, ref)
	if err != nil {
		return park(app, d, fmt.Sprintf("client %s rejected the download: %v", client.Name(), err))
	}

	// Torrent submissions are tracked by info hash; other transports by
	// whatever id the client acknowledged with.
	externalID := ack
	if hash := ExtractInfoHash(ref); hash != "" {
		externalID = hash
	}

	committed, err := st.MarkDownloadSubmitted(d.ID, client.Name(), externalID)
	if err != nil {
		return err
	}
	if !committed {
		log.Printf("Download %d already submitted elsewhere", d.ID)
		return nil
	}

	app.Hub().Notify(notify.EventDownloadSubmitted, d.RequestID,
		fmt.Sprintf("Sent %q to %s", d.Name, client.Name()))
	return nil
}

// resolveRef exchanges a deferred content id for a fetchable reference via
// the source that produced the candidate.
func resolveRef(ctx context.Context, c *models.Candidate) (string, error) {
	var fallback indexer.Resolver
	for _, src := range indexer.All() {
		r, ok := src.(indexer.Resolver)
		if !ok {
			continue
		}
		if src.Info().Name == c.IndexerName {
			return r.Resolve(ctx, c.ContentID)
		}
		if fallback == nil {
			fallback = r
		}
	}
	if fallback == nil {
		return "", fmt.Errorf("no source can resolve %q", c.ContentID)
	}
	return fallback.Resolve(ctx, c.ContentID)
}

// park fails the attempt and flags the request: submission errors are
// never retried automatically because the same input would fail again.
func park(app *core.App, d *models.Download, reason string) error {
	if err := app.Store().FailDownload(d.ID); err != nil {
		return err
	}
	if err := app.Store().SetRequestAttention(d.RequestID, reason); err != nil {
		return err
	}
	app.Hub().Notify(notify.EventRequestAttention, d.RequestID, reason)
	return nil
}

// SweepQueued submits every queued download. Registered as the
// 'download-submit-sweep' job, it is the at-least-once delivery mechanism
// behind the search stage's fire-and-forget handoff.
func SweepQueued(ctx context.Context, app *core.App) {
	queued, err := app.Store().ListDownloadsByStatus(models.DownloadQueued)
	if err != nil {
		log.Printf("Error fetching queued downloads: %v", err)
		return
	}
	for _, d := range queued {
		if err := Submit(ctx, app, d.ID); err != nil {
			log.Printf("Submission for download %d failed: %v", d.ID, err)
		}
	}
}

// PollClients pings every enabled download client, then reconciles
// in-flight downloads against the completed directory. Registered as the
// 'client-poll' job, it is the completion signal of last resort for
// arrivals whose filesystem event the watcher missed.
func PollClients(ctx context.Context, app *core.App) {
	for _, client := range app.Selector().Enabled() {
		if err := client.Status(ctx); err != nil {
			log.Printf("Download client %s unreachable: %v", client.Name(), err)
		}
	}
	ReconcileCompleted(ctx, app)
}

// ReconcileCompleted closes out downloading attempts whose payload already
// sits in the completed directory.
func ReconcileCompleted(ctx context.Context, app *core.App) {
	dir := app.Config().Downloads.CompletedDir
	if dir == "" {
		return
	}
	st := app.Store()

	downloading, err := st.ListDownloadsByStatus(models.DownloadDownloading)
	if err != nil {
		log.Printf("Error fetching in-flight downloads: %v", err)
		return
	}

	matched := false
	for _, d := range downloading {
		path := filepath.Join(dir, d.Name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		completed, err := st.MarkDownloadCompleted(d.ID, path)
		if err != nil {
			log.Printf("Error completing download %d: %v", d.ID, err)
			continue
		}
		if completed {
			matched = true
			app.Hub().Notify(notify.EventDownloadCompleted, d.RequestID,
				fmt.Sprintf("%q finished downloading", d.Name))
		}
	}
	if matched {
		app.JobManager().RunJob(jobs.JobImportSweep, app)
	}
}
