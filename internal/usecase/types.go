package usecase

import (
	"time"

	"cv-builder/internal/model"
	"cv-builder/internal/render"
)

// Snapshot is one version of the edited document. Snapshots are immutable;
// a change produces a new one with a higher Version.
type Snapshot struct {
	Doc       model.Document
	Version   uint64
	UpdatedAt time.Time
}

// ExportResult is an artifact tagged with the version it was rendered from.
// Stale is set when the document changed while the export ran.
type ExportResult struct {
	Artifact *render.Artifact
	Version  uint64
	Stale    bool
}

// TailorRequest asks for the document, or one section of it, to be rewritten
// for a job description.
type TailorRequest struct {
	JobDescription string `json:"jobDescription"`
	Section        string `json:"section,omitempty"`
}
