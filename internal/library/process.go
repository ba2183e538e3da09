// Package library implements the import stage: move a completed download
// into the organized library layout and close out the request.
package library

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"github.com/shelfarr/shelfarr/internal/config"
	"github.com/shelfarr/shelfarr/internal/core"
	"github.com/shelfarr/shelfarr/internal/jobs"
	"github.com/shelfarr/shelfarr/internal/models"
	"github.com/shelfarr/shelfarr/internal/notify"
)

// Process imports one completed download. The source files are copied,
// never moved, so a seeding torrent client keeps its payload; re-running
// after a partial failure overwrites the same destinations and converges.
func Process(ctx context.Context, app *core.App, downloadID int64) error {
	st := app.Store()

	d, err := st.GetDownload(downloadID)
	if err != nil {
		return fmt.Errorf("loading download %d: %w", downloadID, err)
	}
	if d.Status != models.DownloadCompleted {
		log.Printf("Import for download %d skipped: status %s", d.ID, d.Status)
		return nil
	}

	req, err := st.GetRequest(d.RequestID)
	if err != nil {
		return err
	}
	claimed, err := st.TransitionRequest(req.ID, models.RequestDownloading, models.RequestProcessing)
	if err != nil {
		return err
	}
	if !claimed && req.Status != models.RequestProcessing {
		// A prior run already finished, or the request was parked.
		log.Printf("Import for request %d skipped: status %s", req.ID, req.Status)
		return nil
	}

	work, err := st.GetWork(req.WorkID)
	if err != nil {
		return err
	}

	source := clientPathToLocal(app, d)
	if source == "" {
		return park(app, req.ID, "download client reported no path")
	}
	if _, err := os.Stat(source); err != nil {
		return park(app, req.ID, fmt.Sprintf("downloaded files not found at %s", source))
	}

	dest := DestinationFor(app.Config(), work)
	if err := copyPayload(source, dest); err != nil {
		return park(app, req.ID, fmt.Sprintf("import failed: %v", err))
	}

	if err := st.SetWorkLibraryPath(work.ID, dest); err != nil {
		return err
	}
	if _, err := st.TransitionRequest(req.ID, models.RequestProcessing, models.RequestCompleted); err != nil {
		return err
	}

	app.Hub().Notify(notify.EventImportCompleted, req.ID,
		fmt.Sprintf("Imported %q into %s", work.Title, dest))
	app.Hub().Notify(notify.EventRequestCompleted, req.ID,
		fmt.Sprintf("%q is available", work.Title))

	// Post-import polish. Neither step may fail the import: the files
	// are already in place and the request is complete.
	Prematerialize(ctx, dest)
	go func() {
		app.JobManager().RunJob(jobs.JobLibraryScan, app)
	}()

	return nil
}

// clientPathToLocal applies path remapping to the path the download client
// reported for the finished payload.
func clientPathToLocal(app *core.App, d *models.Download) string {
	if d.ClientPath == nil || *d.ClientPath == "" {
		return ""
	}
	cfg := app.Config()

	var mapping *config.PathMapping
	if d.ClientName != nil {
		if cc, ok := app.ClientConfig(*d.ClientName); ok {
			mapping = cc.PathMapping
		}
	}
	return RemapPath(*d.ClientPath, mapping, cfg.Downloads.RemotePathPrefix, cfg.Downloads.LocalPathPrefix)
}

// copyPayload copies a file, or a directory tree preserving its relative
// structure, into dest. Existing files are overwritten so a repeated
// import converges instead of failing.
func copyPayload(source, dest string) error {
	info, err := os.Stat(source)
	if err != nil {
		return err
	}

	if !info.IsDir() {
		if err := os.MkdirAll(dest, 0755); err != nil {
			return err
		}
		return copyFile(source, filepath.Join(dest, filepath.Base(source)))
	}

	return filepath.WalkDir(source, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(source, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dest, rel)
		if entry.IsDir() {
			return os.MkdirAll(target, 0755)
		}
		return copyFile(path, target)
	})
}

func copyFile(source, dest string) error {
	in, err := os.Open(source)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}

// park flags the request and leaves the download record alone: the files
// on disk may be fine, and a human retry re-enters the import with the
// same completed download.
func park(app *core.App, requestID int64, reason string) error {
	if err := app.Store().SetRequestAttention(requestID, reason); err != nil {
		return err
	}
	app.Hub().Notify(notify.EventRequestAttention, requestID, reason)
	return nil
}

// SweepCompleted imports every completed download whose request is still
// in flight. Registered as the 'import-sweep' job, it backs up the
// completion watcher's fire-and-forget handoff.
func SweepCompleted(ctx context.Context, app *core.App) {
	completed, err := app.Store().ListDownloadsByStatus(models.DownloadCompleted)
	if err != nil {
		log.Printf("Error fetching completed downloads: %v", err)
		return
	}
	for _, d := range completed {
		req, err := app.Store().GetRequest(d.RequestID)
		if err != nil {
			log.Printf("Error loading request %d: %v", d.RequestID, err)
			continue
		}
		if req.Status != models.RequestDownloading && req.Status != models.RequestProcessing {
			continue
		}
		if err := Process(ctx, app, d.ID); err != nil {
			log.Printf("Import for download %d failed: %v", d.ID, err)
		}
	}
}
