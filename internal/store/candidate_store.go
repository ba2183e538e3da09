package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shelfarr/shelfarr/internal/models"
)

// ReplaceCandidates atomically discards the request's previous candidate
// set and inserts the new one. Search results are not cumulative across
// attempts. Duplicate GUIDs within the new set are dropped, keeping the
// first occurrence.
func (s *Store) ReplaceCandidates(requestID int64, candidates []models.Candidate) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM candidates WHERE request_id = ?", requestID); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
        INSERT OR IGNORE INTO candidates
        (request_id, guid, title, source, indexer_name, size_bytes, seeders, leechers,
         download_url, content_id, language, status, confidence_score, score_breakdown,
         published_at, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, c := range candidates {
		breakdown, err := json.Marshal(c.ScoreBreakdown)
		if err != nil {
			return fmt.Errorf("could not encode score breakdown for %s: %w", c.GUID, err)
		}
		_, err = stmt.Exec(requestID, c.GUID, c.Title, c.Source, c.IndexerName,
			nullInt64(c.SizeBytes), nullInt(c.Seeders), nullInt(c.Leechers),
			nullString(c.DownloadURL), nullString(c.ContentID), nullString(c.Language),
			models.CandidatePending, c.ConfidenceScore, string(breakdown),
			nullTime(c.PublishedAt), time.Now())
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

const candidateColumns = `
    id, request_id, guid, title, source, indexer_name, size_bytes, seeders, leechers,
    download_url, content_id, language, status, confidence_score, score_breakdown,
    published_at, created_at`

func scanCandidate(row interface{ Scan(...interface{}) error }) (*models.Candidate, error) {
	var c models.Candidate
	var sizeBytes, seeders, leechers sql.NullInt64
	var downloadURL, contentID, language sql.NullString
	var breakdown string
	var publishedAt sql.NullTime
	err := row.Scan(&c.ID, &c.RequestID, &c.GUID, &c.Title, &c.Source, &c.IndexerName,
		&sizeBytes, &seeders, &leechers, &downloadURL, &contentID, &language,
		&c.Status, &c.ConfidenceScore, &breakdown, &publishedAt, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	if sizeBytes.Valid {
		c.SizeBytes = &sizeBytes.Int64
	}
	if seeders.Valid {
		v := int(seeders.Int64)
		c.Seeders = &v
	}
	if leechers.Valid {
		v := int(leechers.Int64)
		c.Leechers = &v
	}
	c.DownloadURL = downloadURL.String
	c.ContentID = contentID.String
	c.Language = language.String
	if publishedAt.Valid {
		c.PublishedAt = &publishedAt.Time
	}
	if err := json.Unmarshal([]byte(breakdown), &c.ScoreBreakdown); err != nil {
		// A malformed breakdown is display-only data; keep the candidate.
		c.ScoreBreakdown = nil
	}
	return &c, nil
}

// GetCandidates returns the request's candidate set, best score first.
func (s *Store) GetCandidates(requestID int64) ([]*models.Candidate, error) {
	rows, err := s.db.Query(`
        SELECT `+candidateColumns+`
        FROM candidates WHERE request_id = ?
        ORDER BY confidence_score DESC, id ASC`, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var candidates []*models.Candidate
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}

// GetCandidateByGUID looks up one candidate within a request.
func (s *Store) GetCandidateByGUID(requestID int64, guid string) (*models.Candidate, error) {
	row := s.db.QueryRow(`
        SELECT `+candidateColumns+`
        FROM candidates WHERE request_id = ? AND guid = ?`, requestID, guid)
	return scanCandidate(row)
}

// SelectCandidate marks one pending candidate as selected and rejects all
// others for the request, in a single transaction. It reports false when
// the candidate was not pending, so a second delivery cannot reselect.
func (s *Store) SelectCandidate(requestID, candidateID int64) (bool, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
        UPDATE candidates SET status = 'selected'
        WHERE id = ? AND request_id = ? AND status = 'pending'`, candidateID, requestID)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if affected != 1 {
		return false, nil
	}

	_, err = tx.Exec(`
        UPDATE candidates SET status = 'rejected'
        WHERE request_id = ? AND id != ?`, requestID, candidateID)
	if err != nil {
		return false, err
	}

	return true, tx.Commit()
}

// GetSelectedCandidate returns the request's selected candidate, or
// sql.ErrNoRows when none is selected.
func (s *Store) GetSelectedCandidate(requestID int64) (*models.Candidate, error) {
	row := s.db.QueryRow(`
        SELECT `+candidateColumns+`
        FROM candidates WHERE request_id = ? AND status = 'selected'`, requestID)
	return scanCandidate(row)
}
