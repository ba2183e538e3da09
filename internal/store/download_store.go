package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/shelfarr/shelfarr/internal/models"
)

// ErrActiveDownloadExists guards the invariant that at most one
// non-terminal download is current for a request at a time.
var ErrActiveDownloadExists = fmt.Errorf("request already has an active download")

// CreateDownload records a new fulfillment attempt in 'queued'. Historical
// (completed/failed) downloads for the request are kept.
func (s *Store) CreateDownload(requestID int64, name string, size *int64, transport models.Transport) (*models.Download, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var active int
	err = tx.QueryRow(`
        SELECT COUNT(*) FROM downloads
        WHERE request_id = ? AND status IN ('queued', 'downloading')`, requestID).Scan(&active)
	if err != nil {
		return nil, err
	}
	if active > 0 {
		return nil, ErrActiveDownloadExists
	}

	now := time.Now()
	res, err := tx.Exec(`
        INSERT INTO downloads (request_id, name, size_bytes, status, transport, created_at, updated_at)
        VALUES (?, ?, ?, 'queued', ?, ?, ?)`,
		requestID, name, nullInt64(size), transport, now, now)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return s.GetDownload(id)
}

const downloadColumns = `
    id, request_id, name, size_bytes, status, client_name, transport, external_id,
    client_path, created_at, updated_at`

func scanDownload(row interface{ Scan(...interface{}) error }) (*models.Download, error) {
	var d models.Download
	var sizeBytes sql.NullInt64
	var clientName, externalID, clientPath sql.NullString
	err := row.Scan(&d.ID, &d.RequestID, &d.Name, &sizeBytes, &d.Status, &clientName,
		&d.Transport, &externalID, &clientPath, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if sizeBytes.Valid {
		d.SizeBytes = &sizeBytes.Int64
	}
	if clientName.Valid {
		d.ClientName = &clientName.String
	}
	if externalID.Valid {
		d.ExternalID = &externalID.String
	}
	if clientPath.Valid {
		d.ClientPath = &clientPath.String
	}
	return &d, nil
}

// GetDownload retrieves a download by its primary key.
func (s *Store) GetDownload(id int64) (*models.Download, error) {
	row := s.db.QueryRow(`SELECT `+downloadColumns+` FROM downloads WHERE id = ?`, id)
	return scanDownload(row)
}

// GetActiveDownload returns the request's current non-terminal download,
// or sql.ErrNoRows.
func (s *Store) GetActiveDownload(requestID int64) (*models.Download, error) {
	row := s.db.QueryRow(`
        SELECT `+downloadColumns+` FROM downloads
        WHERE request_id = ? AND status IN ('queued', 'downloading')
        ORDER BY id DESC LIMIT 1`, requestID)
	return scanDownload(row)
}

// ListDownloads returns all downloads, newest first.
func (s *Store) ListDownloads() ([]*models.Download, error) {
	rows, err := s.db.Query(`SELECT ` + downloadColumns + ` FROM downloads ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var downloads []*models.Download
	for rows.Next() {
		d, err := scanDownload(rows)
		if err != nil {
			return nil, err
		}
		downloads = append(downloads, d)
	}
	return downloads, rows.Err()
}

// ListRequestDownloads returns every attempt for a request, newest first,
// including failed history.
func (s *Store) ListRequestDownloads(requestID int64) ([]*models.Download, error) {
	rows, err := s.db.Query(`
        SELECT `+downloadColumns+` FROM downloads
        WHERE request_id = ? ORDER BY created_at DESC`, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var downloads []*models.Download
	for rows.Next() {
		d, err := scanDownload(rows)
		if err != nil {
			return nil, err
		}
		downloads = append(downloads, d)
	}
	return downloads, rows.Err()
}

// ListDownloadsByStatus returns downloads in the given status, oldest
// first, for the pollers.
func (s *Store) ListDownloadsByStatus(status models.DownloadStatus) ([]*models.Download, error) {
	rows, err := s.db.Query(`
        SELECT `+downloadColumns+` FROM downloads
        WHERE status = ? ORDER BY created_at ASC`, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var downloads []*models.Download
	for rows.Next() {
		d, err := scanDownload(rows)
		if err != nil {
			return nil, err
		}
		downloads = append(downloads, d)
	}
	return downloads, rows.Err()
}

// MarkDownloadSubmitted advances a queued download to 'downloading',
// recording the assigned client and the client's job handle. The CAS on
// status prevents two concurrent deliveries from double-submitting.
func (s *Store) MarkDownloadSubmitted(id int64, clientName, externalID string) (bool, error) {
	res, err := s.db.Exec(`
        UPDATE downloads
        SET status = 'downloading', client_name = ?, external_id = ?, updated_at = ?
        WHERE id = ? AND status = 'queued'`,
		clientName, nullString(externalID), time.Now(), id)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	return affected == 1, err
}

// MarkDownloadCompleted records the completion signal and the path the
// client reported. Only a 'downloading' download can complete.
func (s *Store) MarkDownloadCompleted(id int64, clientPath string) (bool, error) {
	res, err := s.db.Exec(`
        UPDATE downloads
        SET status = 'completed', client_path = ?, updated_at = ?
        WHERE id = ? AND status = 'downloading'`,
		nullString(clientPath), time.Now(), id)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	return affected == 1, err
}

// FailDownload moves a download to the terminal 'failed' state. Legal
// from any non-terminal state.
func (s *Store) FailDownload(id int64) error {
	_, err := s.db.Exec(`
        UPDATE downloads SET status = 'failed', updated_at = ?
        WHERE id = ? AND status IN ('queued', 'downloading')`, time.Now(), id)
	return err
}

// FindDownloadingByName matches a completion signal that carries only a
// release name (the directory watcher) to its download record.
func (s *Store) FindDownloadingByName(name string) (*models.Download, error) {
	row := s.db.QueryRow(`
        SELECT `+downloadColumns+` FROM downloads
        WHERE status = 'downloading' AND name = ?
        ORDER BY id DESC LIMIT 1`, name)
	return scanDownload(row)
}
