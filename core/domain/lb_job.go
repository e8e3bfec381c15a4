package domain

import "time"

// JobStatus is the application pipeline stage.
type JobStatus string

const (
	JobStatusApplied    JobStatus = "applied"
	JobStatusAssessment JobStatus = "assessment"
	JobStatusInterview  JobStatus = "interview"
	JobStatusOffer      JobStatus = "offer"
)

// Next advances one pipeline step; Offer wraps back to Applied.
func (s JobStatus) Next() JobStatus {
	switch s {
	case JobStatusApplied:
		return JobStatusAssessment
	case JobStatusAssessment:
		return JobStatusInterview
	case JobStatusInterview:
		return JobStatusOffer
	case JobStatusOffer:
		return JobStatusApplied
	}
	return JobStatusApplied
}

// Valid reports whether s is a known pipeline stage.
func (s JobStatus) Valid() bool {
	switch s {
	case JobStatusApplied, JobStatusAssessment, JobStatusInterview, JobStatusOffer:
		return true
	}
	return false
}

// Job is one job application owned by a roster member.
type Job struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Title     string    `json:"title"`
	Company   string    `json:"company"`
	URL       string    `json:"url,omitempty"`
	Status    JobStatus `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}
