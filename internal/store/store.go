// To handle all database interactions. This is our
// data access layer, keeping SQL queries separate from business logic.

package store

import (
	"database/sql"
	"time"

	"github.com/shelfarr/shelfarr/internal/models"
)

// Store provides all functions to interact with the database.
type Store struct {
	db *sql.DB
}

// New creates a new Store instance.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// CreateWork inserts a work, or returns the existing one when the same
// external id and medium were requested before.
func (s *Store) CreateWork(w *models.Work) (*models.Work, error) {
	var existingID int64
	err := s.db.QueryRow("SELECT id FROM works WHERE external_id = ? AND medium = ?",
		w.ExternalID, w.Medium).Scan(&existingID)
	if err == nil {
		return s.getWorkBy("id", existingID)
	}
	if err != sql.ErrNoRows {
		return nil, err
	}

	res, err := s.db.Exec(`
        INSERT INTO works (external_id, title, author, medium, language, created_at)
        VALUES (?, ?, ?, ?, ?, ?)`,
		w.ExternalID, w.Title, w.Author, w.Medium, nullString(w.Language), time.Now())
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return s.getWorkBy("id", id)
}

// GetWork retrieves a work by its primary key.
func (s *Store) GetWork(id int64) (*models.Work, error) {
	return s.getWorkBy("id", id)
}

func (s *Store) getWorkBy(column string, value interface{}) (*models.Work, error) {
	var w models.Work
	var language, libraryPath sql.NullString
	err := s.db.QueryRow(`
        SELECT id, external_id, title, author, medium, language, library_path, created_at
        FROM works WHERE `+column+` = ?`, value).Scan(
		&w.ID, &w.ExternalID, &w.Title, &w.Author, &w.Medium, &language, &libraryPath, &w.CreatedAt)
	if err != nil {
		return nil, err
	}
	w.Language = language.String
	if libraryPath.Valid {
		w.LibraryPath = &libraryPath.String
	}
	return &w, nil
}

// ListImportedWorks returns every work that has a recorded library
// location, for the scanner's consistency pass.
func (s *Store) ListImportedWorks() ([]*models.Work, error) {
	rows, err := s.db.Query("SELECT id FROM works WHERE library_path IS NOT NULL")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var works []*models.Work
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		w, err := s.getWorkBy("id", id)
		if err != nil {
			return nil, err
		}
		works = append(works, w)
	}
	return works, rows.Err()
}

// SetWorkLibraryPath records the resolved library location on the work.
func (s *Store) SetWorkLibraryPath(workID int64, path string) error {
	_, err := s.db.Exec("UPDATE works SET library_path = ? WHERE id = ?", path, workID)
	return err
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullTime(v *time.Time) sql.NullTime {
	if v == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *v, Valid: true}
}
