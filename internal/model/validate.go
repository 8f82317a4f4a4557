package model

import (
	"errors"
	"fmt"
)

// ValidationError lists every problem found in a document.
type ValidationError struct {
	Problems []error
}

func (e *ValidationError) Error() string {
	msgs := ""
	for _, p := range e.Problems {
		msgs += fmt.Sprintf("%s; ", p)
	}
	return fmt.Sprintf("document validation failed: %s", msgs)
}

func (e *ValidationError) Unwrap() []error { return e.Problems }

// Validate checks the invariants a document read from outside must hold:
// ids are unique, non-empty and not reserved, and every section carries
// well-formed JSON.
func (d Document) Validate() error {
	var problems []error
	seen := make(map[string]struct{}, len(d.sections))
	for _, s := range d.sections {
		if err := checkID(s.ID); err != nil {
			problems = append(problems, err)
			continue
		}
		if _, dup := seen[s.ID]; dup {
			problems = append(problems, fmt.Errorf("%w: %q", ErrDuplicateID, s.ID))
		}
		seen[s.ID] = struct{}{}
		if !s.Valid() {
			problems = append(problems, fmt.Errorf("%w: %q", ErrInvalidJSON, s.ID))
		}
	}
	for id, c := range d.config {
		if err := checkID(id); err != nil {
			problems = append(problems, fmt.Errorf("section config: %w", err))
		}
		if len(c.Extra) > 0 && !c.Extra.IsValid() {
			problems = append(problems, fmt.Errorf("section config %q: %w", id, ErrInvalidJSON))
		}
	}
	if len(problems) == 0 {
		return nil
	}
	return &ValidationError{Problems: problems}
}

// InvalidSections returns the ids whose content is not well-formed JSON.
func (d Document) InvalidSections() []string {
	var ids []string
	for _, s := range d.sections {
		if !s.Valid() {
			ids = append(ids, s.ID)
		}
	}
	return ids
}

// IsInvalidContent reports whether err came from malformed section content.
func IsInvalidContent(err error) bool { return errors.Is(err, ErrInvalidJSON) }
