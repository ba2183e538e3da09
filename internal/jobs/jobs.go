package jobs

import (
	"log"
	"time"

	"github.com/go-co-op/gocron"
)

// Job names. The tasks themselves are registered by the entrypoint so the
// jobs package stays independent of the pipeline packages.
const (
	JobSearchRetrySweep = "search-retry-sweep"
	JobDownloadSweep    = "download-submit-sweep"
	JobImportSweep      = "import-sweep"
	JobLibraryScan      = "library-scan"
	JobClientPoll       = "client-poll"
)

// StartScheduler wires the recurring jobs into gocron. The scheduler only
// re-delivers units of work; all pipeline logic lives in the registered
// tasks.
func StartScheduler(app JobContext) *gocron.Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()

	schedule(s, app, JobSearchRetrySweep, 1)
	schedule(s, app, JobDownloadSweep, 1)
	schedule(s, app, JobImportSweep, 2)
	schedule(s, app, JobClientPoll, 2)
	schedule(s, app, JobLibraryScan, 60)

	log.Println("Starting background job scheduler...")
	s.StartAsync()
	return s
}

func schedule(s *gocron.Scheduler, app JobContext, name string, everyMinutes int) {
	_, err := s.Every(everyMinutes).Minutes().Do(func() {
		// Submit through the manager so scheduled and manually triggered
		// runs cannot overlap.
		if err := app.JobManager().RunJob(name, app); err != nil {
			log.Printf("Scheduled job '%s' could not start: %v", name, err)
		}
	})
	if err != nil {
		log.Printf("Error scheduling '%s' job: %v", name, err)
	}
}
