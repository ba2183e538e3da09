package models

import "time"

// RequestStatus is the lifecycle state of a fulfillment request. Transitions
// are driven exclusively by the three pipeline stages.
type RequestStatus string

const (
	RequestPending           RequestStatus = "pending"
	RequestSearching         RequestStatus = "searching"
	RequestAwaitingSelection RequestStatus = "awaiting_selection"
	RequestDownloading       RequestStatus = "downloading"
	RequestProcessing        RequestStatus = "processing"
	RequestCompleted         RequestStatus = "completed"
	RequestNotFound          RequestStatus = "not_found"
	RequestFailed            RequestStatus = "failed"
)

// Terminal reports whether no further pipeline stage will run for this status.
func (s RequestStatus) Terminal() bool {
	return s == RequestCompleted || s == RequestNotFound || s == RequestFailed
}

// Request is the unit of orchestration: one attempt to obtain one Work.
type Request struct {
	ID     int64         `json:"id"`
	WorkID int64         `json:"work_id"`
	Status RequestStatus `json:"status"`

	// AttentionNeeded is orthogonal to Status: set whenever automatic
	// recovery is impossible, cleared only by a fresh attempt.
	AttentionNeeded bool       `json:"attention_needed"`
	AttentionReason string     `json:"attention_reason,omitempty"`
	AttentionAt     *time.Time `json:"attention_at,omitempty"`

	RetryCount  int        `json:"retry_count"`
	NextRetryAt *time.Time `json:"next_retry_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Work *Work `json:"work,omitempty"`
}
