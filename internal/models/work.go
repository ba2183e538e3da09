package models

import "time"

// Medium is the physical kind of book a work represents.
type Medium string

const (
	MediumAudiobook Medium = "audiobook"
	MediumEbook     Medium = "ebook"
)

// Work is a catalog entry, identified externally. It is supplied by the
// caller when a request is created and never modified by the pipeline
// except for recording the final library location.
type Work struct {
	ID          int64     `json:"id"`
	ExternalID  string    `json:"external_id"`
	Title       string    `json:"title"`
	Author      string    `json:"author"`
	Medium      Medium    `json:"medium"`
	Language    string    `json:"language,omitempty"`     // Preferred language, BCP 47-ish tag or plain name
	LibraryPath *string   `json:"library_path,omitempty"` // Set once post-processing has placed files
	CreatedAt   time.Time `json:"created_at"`
}
