package codec

import (
	"errors"
	"fmt"
)

// ErrParse is matched by every decoding failure.
var ErrParse = errors.New("parse cv document")

// ParseError describes why a document could not be decoded. Offset is the
// byte offset in the input where decoding stopped; Key is the top-level key
// being read, if any.
type ParseError struct {
	Offset int64
	Key    string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("%v: key %q at offset %d: %v", ErrParse, e.Key, e.Offset, e.Err)
	}
	return fmt.Sprintf("%v at offset %d: %v", ErrParse, e.Offset, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == ErrParse }

// EncodeError is returned when an in-memory document cannot be serialized,
// which only happens when a section holds malformed JSON.
type EncodeError struct {
	SectionID string
	Err       error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encode section %q: %v", e.SectionID, e.Err)
}

func (e *EncodeError) Unwrap() error { return e.Err }
