// This file implements a file system watcher over the download client's
// completed directory. OS-level events stand in for client polling: when a
// completed payload appears, the matching downloading attempt is closed
// out and the import stage is triggered.

package downloader

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/shelfarr/shelfarr/internal/core"
	"github.com/shelfarr/shelfarr/internal/jobs"
	"github.com/shelfarr/shelfarr/internal/notify"
)

// CompletionWatcher watches the completed-downloads directory and resolves
// appearing payloads against in-flight download attempts by name.
type CompletionWatcher struct {
	app           *core.App
	watcher       *fsnotify.Watcher
	arrivedPaths  map[string]bool
	mu            sync.Mutex
	debounceTimer *time.Timer
	debounceDelay time.Duration
	stopChan      chan struct{}
}

// NewCompletionWatcher creates a watcher for the configured completed
// directory.
func NewCompletionWatcher(app *core.App) *CompletionWatcher {
	return &CompletionWatcher{
		app:          app,
		arrivedPaths: make(map[string]bool),
		// Wait for the client to finish moving files in before matching.
		debounceDelay: 2 * time.Second,
		stopChan:      make(chan struct{}),
	}
}

// Start begins watching the completed directory for arrivals.
func (w *CompletionWatcher) Start() error {
	dir := w.app.Config().Downloads.CompletedDir
	if dir == "" {
		return errors.New("downloads.completed_dir is not configured")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return err
	}
	w.watcher = watcher

	log.Printf("Completion watcher started for: %s", dir)
	go w.processEvents()
	return nil
}

// Stop stops the watcher.
func (w *CompletionWatcher) Stop() error {
	close(w.stopChan)
	if w.watcher != nil {
		return w.watcher.Close()
	}
	return nil
}

func (w *CompletionWatcher) processEvents() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Rename) != 0 {
				w.recordArrival(event.Name)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("Completion watcher error: %v", err)

		case <-w.stopChan:
			return
		}
	}
}

// recordArrival buffers the path and resets the debounce timer so a burst
// of events from one move settles into a single matching pass.
func (w *CompletionWatcher) recordArrival(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.arrivedPaths[path] = true
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.debounceDelay, w.matchArrivals)
}

func (w *CompletionWatcher) matchArrivals() {
	w.mu.Lock()
	paths := make([]string, 0, len(w.arrivedPaths))
	for p := range w.arrivedPaths {
		paths = append(paths, p)
	}
	w.arrivedPaths = make(map[string]bool)
	w.mu.Unlock()

	matched := false
	for _, p := range paths {
		if w.matchPath(p) {
			matched = true
		}
	}
	if matched {
		w.app.JobManager().RunJob(jobs.JobImportSweep, w.app)
	}
}

// matchPath closes out the downloading attempt whose name matches the
// arrived payload's base name. Unmatched arrivals are normal: clients may
// host downloads for other consumers of the same directory.
func (w *CompletionWatcher) matchPath(path string) bool {
	name := filepath.Base(path)
	st := w.app.Store()

	d, err := st.FindDownloadingByName(name)
	if errors.Is(err, sql.ErrNoRows) {
		return false
	}
	if err != nil {
		log.Printf("Error matching arrival %q: %v", name, err)
		return false
	}

	completed, err := st.MarkDownloadCompleted(d.ID, path)
	if err != nil {
		log.Printf("Error completing download %d: %v", d.ID, err)
		return false
	}
	if !completed {
		return false
	}

	w.app.Hub().Notify(notify.EventDownloadCompleted, d.RequestID,
		fmt.Sprintf("%q finished downloading", d.Name))
	return true
}
