package models

import "time"

// Transport classifies how a release is fetched, which drives download
// client selection.
type Transport string

const (
	TransportTorrent Transport = "torrent"
	TransportUsenet  Transport = "usenet"
)

// DownloadStatus tracks one fulfillment attempt. Status only advances
// forward; the terminal 'failed' is reachable from any non-terminal state.
type DownloadStatus string

const (
	DownloadQueued      DownloadStatus = "queued"
	DownloadDownloading DownloadStatus = "downloading"
	DownloadCompleted   DownloadStatus = "completed"
	DownloadFailed      DownloadStatus = "failed"
)

// Download is one fulfillment attempt for a request. Failed downloads are
// kept as history; at most one non-terminal download exists per request.
type Download struct {
	ID        int64          `json:"id"`
	RequestID int64          `json:"request_id"`
	Name      string         `json:"name"`
	SizeBytes *int64         `json:"size_bytes,omitempty"`
	Status    DownloadStatus `json:"status"`

	ClientName *string   `json:"client_name,omitempty"` // Nil until submission succeeds
	Transport  Transport `json:"transport"`

	// ExternalID is the client's own identifier for the submitted job: a
	// torrent info-hash or a usenet queue id.
	ExternalID *string `json:"external_id,omitempty"`
	ClientPath *string `json:"client_path,omitempty"` // As reported by the client

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
