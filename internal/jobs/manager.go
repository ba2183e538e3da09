package jobs

import (
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/shelfarr/shelfarr/internal/config"
	"github.com/shelfarr/shelfarr/internal/notify"
)

// JobContext is an interface that provides the necessary dependencies for
// a background job to run. The core.App struct implements it.
type JobContext interface {
	DB() *sql.DB
	Config() *config.Config
	Hub() *notify.Hub
	JobManager() *Manager
}

// The task function signature uses the interface so jobs stay decoupled
// from the concrete app wiring.
type jobTask func(ctx JobContext)

// Status describes one registered job for the admin surface.
type Status struct {
	Name      string    `json:"name"`
	Status    string    `json:"status"` // "idle", "running", "success", "failed"
	Message   string    `json:"message"`
	StartTime time.Time `json:"start_time,omitempty"`
	EndTime   time.Time `json:"end_time,omitempty"`
}

// Manager runs registered jobs one instance at a time per name. A job
// already running is not started again; the scheduler's next tick picks
// up whatever the skipped run would have done.
type Manager struct {
	mu     sync.Mutex
	jobs   map[string]jobTask
	status map[string]*Status
}

func NewManager() *Manager {
	return &Manager{
		jobs:   make(map[string]jobTask),
		status: make(map[string]*Status),
	}
}

func (m *Manager) Register(name string, task jobTask) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[name] = task
	m.status[name] = &Status{Name: name, Status: "idle"}
}

// RunJob starts the named job in its own goroutine. It returns an error
// when the job is unknown or already running.
func (m *Manager) RunJob(name string, ctx JobContext) error {
	m.mu.Lock()
	task, ok := m.jobs[name]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("job '%s' not found", name)
	}
	status := m.status[name]
	if status.Status == "running" {
		m.mu.Unlock()
		return fmt.Errorf("job '%s' is already running", name)
	}
	status.Status = "running"
	status.StartTime = time.Now()
	status.Message = "Job started..."
	m.mu.Unlock()

	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("Job '%s' panicked: %v", name, r)
				m.mu.Lock()
				status.Status = "failed"
				status.Message = fmt.Sprintf("Job panicked: %v", r)
			} else {
				m.mu.Lock()
				if status.Status == "running" {
					status.Status = "success"
					status.Message = "Job completed successfully."
				}
			}
			status.EndTime = time.Now()
			m.mu.Unlock()
		}()

		task(ctx)
	}()
	return nil
}

// GetStatus returns a snapshot of every registered job's state.
func (m *Manager) GetStatus() []*Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	var statuses []*Status
	for _, s := range m.status {
		copied := *s
		statuses = append(statuses, &copied)
	}
	return statuses
}
