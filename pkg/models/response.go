package models

import "time"

// IngestResponse represents the response from an ingest request
type IngestResponse struct {
	Success        bool          `json:"success"`
	Job            *JobRecord    `json:"job,omitempty"`
	Outcome        string        `json:"outcome"`
	ProcessingTime time.Duration `json:"processing_time"`
	Template       string        `json:"template_used"`
	RequestID      string        `json:"request_id"`
}

// JobListResponse represents the response for a multi-job query
type JobListResponse struct {
	Jobs  []JobRecord `json:"jobs"`
	Count int         `json:"count"`
}

// RejectResponse represents the response from a reject status update
type RejectResponse struct {
	Updated bool `json:"updated"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version"`
	Uptime    time.Duration     `json:"uptime"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
}
