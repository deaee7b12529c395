package cds

import "fmt"

// APIError is a non-2xx response from the CDS API.
type APIError struct {
	StatusCode int    `json:"-"`
	Title      string `json:"title"`
	Detail     string `json:"detail"`
}

func (e *APIError) Error() string {
	msg := e.Title
	if msg == "" {
		msg = "unexpected response"
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return fmt.Sprintf("cds: HTTP %d: %s", e.StatusCode, msg)
}

// JobError reports a job that ended without producing a result.
type JobError struct {
	JobID   string
	Status  string
	Message string
}

func (e *JobError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("cds: job %s %s", e.JobID, e.Status)
	}
	return fmt.Sprintf("cds: job %s %s: %s", e.JobID, e.Status, e.Message)
}
