package export

import (
	"fmt"

	"cv-builder/internal/render"
)

// Kind classifies export failures for callers that map them to responses.
type Kind int

const (
	KindRender Kind = iota
	KindBackendUnavailable
	KindTimeout
	KindInvalid
	// KindCanceled means the caller gave up before the export finished.
	KindCanceled
)

func (k Kind) String() string {
	switch k {
	case KindBackendUnavailable:
		return "backend_unavailable"
	case KindTimeout:
		return "timeout"
	case KindInvalid:
		return "invalid"
	case KindCanceled:
		return "canceled"
	}
	return "render"
}

// ExportError is returned for every failed export; nothing was delivered.
type ExportError struct {
	Kind   Kind
	Format render.Format
	Err    error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export %s (%s): %v", e.Format, e.Kind, e.Err)
}

func (e *ExportError) Unwrap() error { return e.Err }
