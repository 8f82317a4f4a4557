package section

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidContent marks section content that is not well-formed JSON.
var ErrInvalidContent = errors.New("section content is not valid JSON")

// RenderError reports a section that cannot be laid out.
type RenderError struct {
	SectionID string
	Err       error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render section %q: %v", e.SectionID, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// SchemaError lists the schema violations of a known section.
type SchemaError struct {
	SectionID string
	Problems  []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("section %q failed schema validation: %s", e.SectionID, strings.Join(e.Problems, "; "))
}
