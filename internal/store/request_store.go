package store

import (
	"database/sql"
	"time"

	"github.com/shelfarr/shelfarr/internal/models"
)

// CreateRequest creates a new fulfillment request for a work, in 'pending'.
func (s *Store) CreateRequest(workID int64) (*models.Request, error) {
	now := time.Now()
	res, err := s.db.Exec(`
        INSERT INTO requests (work_id, status, created_at, updated_at)
        VALUES (?, 'pending', ?, ?)`, workID, now, now)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return s.GetRequest(id)
}

const requestColumns = `
    r.id, r.work_id, r.status, r.attention_needed, r.attention_reason, r.attention_at,
    r.retry_count, r.next_retry_at, r.created_at, r.updated_at,
    w.id, w.external_id, w.title, w.author, w.medium, w.language, w.library_path, w.created_at`

func scanRequest(row interface{ Scan(...interface{}) error }) (*models.Request, error) {
	var r models.Request
	var w models.Work
	var attentionReason, language, libraryPath sql.NullString
	var attentionAt, nextRetryAt sql.NullTime
	err := row.Scan(
		&r.ID, &r.WorkID, &r.Status, &r.AttentionNeeded, &attentionReason, &attentionAt,
		&r.RetryCount, &nextRetryAt, &r.CreatedAt, &r.UpdatedAt,
		&w.ID, &w.ExternalID, &w.Title, &w.Author, &w.Medium, &language, &libraryPath, &w.CreatedAt)
	if err != nil {
		return nil, err
	}
	r.AttentionReason = attentionReason.String
	if attentionAt.Valid {
		r.AttentionAt = &attentionAt.Time
	}
	if nextRetryAt.Valid {
		r.NextRetryAt = &nextRetryAt.Time
	}
	w.Language = language.String
	if libraryPath.Valid {
		w.LibraryPath = &libraryPath.String
	}
	r.Work = &w
	return &r, nil
}

// GetRequest retrieves a request together with its work.
func (s *Store) GetRequest(id int64) (*models.Request, error) {
	row := s.db.QueryRow(`
        SELECT `+requestColumns+`
        FROM requests r JOIN works w ON r.work_id = w.id
        WHERE r.id = ?`, id)
	return scanRequest(row)
}

// ListRequests returns all requests, newest first.
func (s *Store) ListRequests() ([]*models.Request, error) {
	rows, err := s.db.Query(`
        SELECT ` + requestColumns + `
        FROM requests r JOIN works w ON r.work_id = w.id
        ORDER BY r.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []*models.Request
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, r)
	}
	return requests, rows.Err()
}

// TransitionRequest performs an atomic compare-and-update of a request's
// status. It reports false when the request was not in the expected state,
// which is how overlapping stage deliveries detect they have nothing to do.
func (s *Store) TransitionRequest(id int64, from, to models.RequestStatus) (bool, error) {
	res, err := s.db.Exec(`
        UPDATE requests SET status = ?, updated_at = ?
        WHERE id = ? AND status = ?`, to, time.Now(), id, from)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	return affected == 1, err
}

// SetRequestAttention flags a request for human intervention with a
// readable reason. The request is parked in 'failed'; a fresh attempt is
// the only way out.
func (s *Store) SetRequestAttention(id int64, reason string) error {
	_, err := s.db.Exec(`
        UPDATE requests
        SET status = 'failed', attention_needed = 1, attention_reason = ?, attention_at = ?,
            next_retry_at = NULL, updated_at = ?
        WHERE id = ?`, reason, time.Now(), time.Now(), id)
	return err
}

// ScheduleRequestRetry records a bumped retry counter and a wakeup time
// for the retry sweep. The request stays in 'searching' between attempts;
// once a request has left 'pending' it never goes back.
func (s *Store) ScheduleRequestRetry(id int64, retryCount int, nextRetryAt time.Time) (bool, error) {
	res, err := s.db.Exec(`
        UPDATE requests
        SET retry_count = ?, next_retry_at = ?, updated_at = ?
        WHERE id = ? AND status = 'searching'`, retryCount, nextRetryAt, time.Now(), id)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	return affected == 1, err
}

// ClaimRetryRequest atomically claims a scheduled retry by clearing its
// wakeup time, reporting false when the retry is not due (or was already
// claimed). A cleared wakeup time is what keeps overlapping sweep
// deliveries from re-running the same attempt.
func (s *Store) ClaimRetryRequest(id int64, now time.Time) (bool, error) {
	res, err := s.db.Exec(`
        UPDATE requests SET next_retry_at = NULL, updated_at = ?
        WHERE id = ? AND status = 'searching'
          AND next_retry_at IS NOT NULL AND next_retry_at <= ?`, time.Now(), id, now)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	return affected == 1, err
}

// MarkRequestNotFound ends the bounded retry path.
func (s *Store) MarkRequestNotFound(id int64) (bool, error) {
	return s.TransitionRequest(id, models.RequestSearching, models.RequestNotFound)
}

// DueRetryRequests returns ids of requests the search sweep should
// deliver: searching requests whose scheduled retry time has arrived, plus
// requests that have sat pending with no schedule long enough that their
// initial search handoff evidently never happened. The stage's own claim
// makes a double delivery harmless.
func (s *Store) DueRetryRequests(now time.Time) ([]int64, error) {
	rows, err := s.db.Query(`
        SELECT id FROM requests
        WHERE (status = 'searching' AND next_retry_at IS NOT NULL AND next_retry_at <= ?)
           OR (status = 'pending' AND next_retry_at IS NULL AND created_at <= ?)`,
		now, now.Add(-time.Minute))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ResetRequest restarts the pipeline for a request: attention cleared,
// retry bookkeeping zeroed, status back to 'pending'. Candidates are left
// in place; the next search replaces them wholesale.
func (s *Store) ResetRequest(id int64) error {
	_, err := s.db.Exec(`
        UPDATE requests
        SET status = 'pending', attention_needed = 0, attention_reason = NULL, attention_at = NULL,
            retry_count = 0, next_retry_at = NULL, updated_at = ?
        WHERE id = ?`, time.Now(), id)
	return err
}

// DeleteRequest tears down a request; candidates and downloads cascade.
func (s *Store) DeleteRequest(id int64) error {
	_, err := s.db.Exec("DELETE FROM requests WHERE id = ?", id)
	return err
}
