package domain

import (
	"time"

	"github.com/google/uuid"
)

// Tailor job statuses.
const (
	StatusApplied  = "applied"
	StatusStale    = "stale"
	StatusRejected = "rejected"
	StatusFailed   = "failed"
)

// TailorJob records one tailoring run against a document version.
type TailorJob struct {
	ID             uuid.UUID `json:"id"`
	Subject        string    `json:"subject,omitempty"`
	JobDescription string    `json:"job_description"`
	Section        string    `json:"section,omitempty"`
	BaseVersion    uint64    `json:"base_version"`
	Version        uint64    `json:"version,omitempty"`
	Status         string    `json:"status"`
	Error          string    `json:"error,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func NewTailorJob(subject, jobDescription, section string, base uint64, now time.Time) *TailorJob {
	return &TailorJob{
		ID:             uuid.New(),
		Subject:        subject,
		JobDescription: jobDescription,
		Section:        section,
		BaseVersion:    base,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Finish sets the terminal status; err may be nil.
func (j *TailorJob) Finish(status string, err error, now time.Time) {
	j.Status = status
	if err != nil {
		j.Error = err.Error()
	}
	j.UpdatedAt = now
}
