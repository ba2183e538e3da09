package notify

import (
	"time"

	"github.com/google/uuid"
)

// Event kinds emitted by the pipeline.
const (
	EventGrabRequested     = "grab.requested"
	EventSearchCompleted   = "search.completed"
	EventAwaitingSelection = "search.awaiting_selection"
	EventSearchRetry       = "search.retry_scheduled"
	EventNotFound          = "search.not_found"
	EventDownloadCreated   = "download.created"
	EventDownloadSubmitted = "download.submitted"
	EventDownloadCompleted = "download.completed"
	EventImportCompleted   = "import.completed"
	EventRequestCompleted  = "request.completed"
	EventRequestAttention  = "request.attention"
)

// Event is the JSON payload broadcast to connected consumers.
type Event struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	RequestID int64     `json:"request_id"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewEvent builds an event with a fresh id and timestamp.
func NewEvent(kind string, requestID int64, message string) Event {
	return Event{
		ID:        uuid.NewString(),
		Kind:      kind,
		RequestID: requestID,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// Notifier is the best-effort notification sink the pipeline emits into.
// Implementations must never fail the caller.
type Notifier interface {
	Notify(kind string, requestID int64, message string)
}
