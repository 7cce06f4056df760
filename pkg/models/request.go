package models

import "time"

// IngestRequest represents the request payload for ingesting a job posting
type IngestRequest struct {
	ID      int64          `json:"id" validate:"required"`
	HTML    string         `json:"html" validate:"required"`
	Options *IngestOptions `json:"options,omitempty"`
}

// IngestOptions provides additional configuration for ingest requests
type IngestOptions struct {
	Template string        `json:"template,omitempty" validate:"omitempty,oneof=positional labeled auto"`
	Timeout  time.Duration `json:"timeout,omitempty"` // Request timeout
}

// RejectRequest represents the request payload for flagging a job as rejected
type RejectRequest struct {
	Title   string `json:"title" validate:"required"`
	Company string `json:"company" validate:"required"`
}
