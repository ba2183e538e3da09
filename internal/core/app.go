package core

import (
	"database/sql"
	"fmt"
	"log"

	shelfarr "github.com/shelfarr/shelfarr"
	"github.com/shelfarr/shelfarr/internal/config"
	"github.com/shelfarr/shelfarr/internal/db"
	"github.com/shelfarr/shelfarr/internal/dlclient"
	"github.com/shelfarr/shelfarr/internal/dlclient/qbittorrent"
	"github.com/shelfarr/shelfarr/internal/dlclient/sabnzbd"
	"github.com/shelfarr/shelfarr/internal/indexer"
	"github.com/shelfarr/shelfarr/internal/jobs"
	"github.com/shelfarr/shelfarr/internal/notify"
	"github.com/shelfarr/shelfarr/internal/store"
)

// App holds the core components of the application that are shared
// between the server and the CLI.
type App struct {
	cfg        *config.Config
	database   *sql.DB
	hub        *notify.Hub
	jobManager *jobs.Manager
	selector   *dlclient.Selector
	store      *store.Store
}

// New sets up and returns a new App instance. It handles loading the
// configuration, initializing the database connection, and running
// migrations.
func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	database, err := db.InitDB(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := db.RunMigrations(database, shelfarr.MigrationsFS); err != nil {
		// We can't proceed without a valid database schema.
		database.Close()
		return nil, fmt.Errorf("failed to run database migrations: %w", err)
	}

	hub := notify.NewHub()
	go hub.Run()

	app := NewWith(cfg, database, hub)
	log.Println("Core application setup complete.")
	return app, nil
}

// NewWith wires an App from already-initialized components. The test
// fixtures use it with an in-memory database.
func NewWith(cfg *config.Config, database *sql.DB, hub *notify.Hub) *App {
	return &App{
		cfg:        cfg,
		database:   database,
		hub:        hub,
		jobManager: jobs.NewManager(),
		selector:   buildSelector(cfg.Clients),
		store:      store.New(database),
	}
}

// buildSelector constructs one client adapter per configured client,
// keyed by its declared type.
func buildSelector(configs []config.ClientConfig) *dlclient.Selector {
	var entries []dlclient.Entry
	for _, cfg := range configs {
		var client dlclient.Client
		switch cfg.Type {
		case "qbittorrent":
			client = qbittorrent.New(cfg)
		case "sabnzbd":
			client = sabnzbd.New(cfg)
		default:
			// Config validation rejects unknown types before we get here.
			log.Printf("Ignoring download client '%s' with unknown type '%s'", cfg.Name, cfg.Type)
			continue
		}
		// The declared transport is a cross-check against the adapter
		// type; a contradiction means the operator misread the config.
		if string(client.Transport()) != cfg.Transport {
			log.Printf("Ignoring download client '%s': declared transport '%s' but type '%s' handles %s",
				cfg.Name, cfg.Transport, cfg.Type, client.Transport())
			continue
		}
		entries = append(entries, dlclient.Entry{Client: client, Priority: cfg.Priority, Enabled: cfg.Enabled})
	}
	return dlclient.NewSelector(entries...)
}

// ApplySourceConfig reconciles registered sources with configuration:
// credentials are handed over and the enabled flag applied. Called after
// source registration; a source with no config entry stays enabled.
func (a *App) ApplySourceConfig() {
	for _, sc := range a.cfg.Sources {
		src, ok := indexer.Get(sc.ID)
		if !ok {
			log.Printf("Ignoring config for source '%s': no such source registered", sc.ID)
			continue
		}
		if c, ok := src.(indexer.Credentialed); ok && sc.APIKey != "" {
			c.SetAPIKey(sc.APIKey)
		}
		indexer.SetEnabled(sc.ID, sc.Enabled)
	}
}

func (a *App) DB() *sql.DB                  { return a.database }
func (a *App) Config() *config.Config       { return a.cfg }
func (a *App) Hub() *notify.Hub             { return a.hub }
func (a *App) JobManager() *jobs.Manager    { return a.jobManager }
func (a *App) Selector() *dlclient.Selector { return a.selector }
func (a *App) Store() *store.Store          { return a.store }

// SetSelector swaps the client selector. Tests use it to install fakes.
func (a *App) SetSelector(s *dlclient.Selector) { a.selector = s }

// ClientConfig returns the configuration record for a named client, used
// for client-specific path mappings during post-processing.
func (a *App) ClientConfig(name string) (config.ClientConfig, bool) {
	for _, c := range a.cfg.Clients {
		if c.Name == name {
			return c, true
		}
	}
	return config.ClientConfig{}, false
}

// Close gracefully closes the application's resources, like the DB
// connection.
func (a *App) Close() {
	if a.database != nil {
		a.database.Close()
	}
}
