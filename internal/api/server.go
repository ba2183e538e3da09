// It defines the API server, sets up the routes (endpoints)
// using chi, and links them to the handler functions.

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/shelfarr/shelfarr/internal/core"
	"github.com/shelfarr/shelfarr/internal/notify"
	"github.com/shelfarr/shelfarr/internal/store"
)

// Server holds the dependencies for our API.
type Server struct {
	app   *core.App
	store *store.Store
}

// NewServer creates a new Server instance.
func NewServer(app *core.App) *Server {
	return &Server{
		app:   app,
		store: app.Store(),
	}
}

// Router sets up and returns the main router for the application.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)    // Logs requests to the console
	r.Use(middleware.Recoverer) // Recovers from panics
	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/api", func(r chi.Router) {
		r.Post("/requests", s.handleCreateRequest)
		r.Get("/requests", s.handleListRequests)
		r.Get("/requests/{requestID}", s.handleGetRequest)
		r.Post("/requests/{requestID}/candidates/{guid}/select", s.handleSelectCandidate)
		r.Post("/requests/{requestID}/retry", s.handleRetryRequest)
		r.Delete("/requests/{requestID}", s.handleDeleteRequest)

		r.Get("/downloads", s.handleListDownloads)
		r.Get("/sources", s.handleListSources)

		r.Route("/admin", func(r chi.Router) {
			r.Get("/jobs/status", s.handleGetAdminJobsStatus)
			r.Post("/jobs/run", s.handleRunAdminJob)
		})
	})

	// Real-time pipeline events
	r.Get("/api/ws", func(w http.ResponseWriter, r *http.Request) {
		notify.ServeWs(s.app.Hub(), w, r)
	})

	return r
}
