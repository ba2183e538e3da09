package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/shelfarr/shelfarr/internal/api"
	"github.com/shelfarr/shelfarr/internal/core"
	"github.com/shelfarr/shelfarr/internal/downloader"
	"github.com/shelfarr/shelfarr/internal/indexer"
	"github.com/shelfarr/shelfarr/internal/jobs"
	"github.com/shelfarr/shelfarr/internal/library"
	"github.com/shelfarr/shelfarr/internal/search"
)

func main() {
	// Initialize the core application components
	app, err := core.New()
	if err != nil {
		log.Fatalf("Fatal error during application setup: %v", err)
	}
	defer app.Close()

	app.ApplySourceConfig()
	if len(indexer.Enabled()) == 0 {
		log.Println("Warning: no sources enabled; requests will be parked until sources are configured")
	}

	registerJobs(app)
	scheduler := jobs.StartScheduler(app)
	defer scheduler.Stop()

	// Watch the completed-downloads directory for arrivals.
	watcher := downloader.NewCompletionWatcher(app)
	if err := watcher.Start(); err != nil {
		log.Printf("Warning: completion watcher disabled: %v", err)
	} else {
		defer watcher.Stop()
	}

	// Setup the API server
	server := api.NewServer(app)
	addr := fmt.Sprintf(":%d", app.Config().Port)
	log.Printf("Starting web server on %s", addr)

	// Start the HTTP server
	if err := http.ListenAndServe(addr, server.Router()); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// registerJobs binds the pipeline sweeps to their scheduler names. The
// jobs package only knows the names; the closures carry the app.
func registerJobs(app *core.App) {
	jm := app.JobManager()
	jm.Register(jobs.JobSearchRetrySweep, func(ctx jobs.JobContext) {
		search.SweepRetries(context.Background(), app)
	})
	jm.Register(jobs.JobDownloadSweep, func(ctx jobs.JobContext) {
		downloader.SweepQueued(context.Background(), app)
	})
	jm.Register(jobs.JobImportSweep, func(ctx jobs.JobContext) {
		library.SweepCompleted(context.Background(), app)
	})
	jm.Register(jobs.JobClientPoll, func(ctx jobs.JobContext) {
		downloader.PollClients(context.Background(), app)
	})
	jm.Register(jobs.JobLibraryScan, func(ctx jobs.JobContext) {
		library.Scan(context.Background(), app)
	})
}
