package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/shelfarr/shelfarr/internal/config"
	"github.com/shelfarr/shelfarr/internal/db"
	"github.com/shelfarr/shelfarr/internal/models"
	"github.com/shelfarr/shelfarr/internal/store"
)

func main() {
	externalID := flag.String("external-id", "", "Catalog identifier of the work (required)")
	title := flag.String("title", "", "Title of the work (required)")
	author := flag.String("author", "", "Author of the work")
	medium := flag.String("medium", "ebook", "Medium: 'ebook' or 'audiobook'")
	language := flag.String("language", "", "Preferred language")
	migrateOnly := flag.Bool("migrate-only", false, "Apply migrations and exit")
	flag.Parse()

	// Load configuration from config.yml
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize the database connection
	database, err := db.InitDB(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	// Run database migrations
	if err := runMigrations(database); err != nil {
		log.Fatalf("Failed to run database migrations: %v", err)
	}
	if *migrateOnly {
		fmt.Println("Migrations applied.")
		return
	}

	if *externalID == "" || *title == "" {
		log.Fatal("Both -external-id and -title are required")
	}
	m := models.Medium(*medium)
	if m != models.MediumEbook && m != models.MediumAudiobook {
		log.Fatalf("Unknown medium %q: use 'ebook' or 'audiobook'", *medium)
	}

	st := store.New(database)
	work, err := st.CreateWork(&models.Work{
		ExternalID: *externalID,
		Title:      *title,
		Author:     *author,
		Medium:     m,
		Language:   *language,
	})
	if err != nil {
		log.Fatalf("Failed to save work: %v", err)
	}
	req, err := st.CreateRequest(work.ID)
	if err != nil {
		log.Fatalf("Failed to create request: %v", err)
	}

	// The running server's search sweep picks the pending request up.
	fmt.Printf("Request %d created for %q (%s).\n", req.ID, work.Title, work.Medium)
}

// runMigrations applies the database migrations.
func runMigrations(database *sql.DB) error {
	driver, err := sqlite3.WithInstance(database, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("could not create sqlite3 migration driver: %w", err)
	}

	// The path to the migrations folder.
	// This relative path assumes you run the CLI from the project root.
	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"sqlite3",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	log.Println("Applying database migrations...")
	// Up applies all available "up" migrations.
	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("an error occurred while applying migrations: %w", err)
	}

	log.Println("Migrations applied successfully.")
	return nil
}
