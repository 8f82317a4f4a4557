// Package tailor turns externally produced CV content, such as an AI
// tailoring response or an imported file, into a new document.
package tailor

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/go-json-experiment/json/jsontext"

	"cv-builder/internal/codec"
	"cv-builder/internal/model"
)

// ResultKind says how a result relates to the document it was made from.
type ResultKind int

const (
	// Full replaces the whole document.
	Full ResultKind = iota
	// Patch replaces only the sections it names.
	Patch
)

func (k ResultKind) String() string {
	if k == Patch {
		return "patch"
	}
	return "full"
}

// Result is the raw outcome of an import or tailoring run. BaseVersion is the
// editor version of the snapshot the work started from.
type Result struct {
	Kind        ResultKind
	Body        []byte
	BaseVersion uint64
}

// Envelope keys. A body whose top-level keys are all envelope keys is an
// envelope; anything else is a full document.
const (
	keyKind     = "kind"
	keyPatch    = "patch"
	keyDocument = "document"
)

// MergeRejectedError reports a result that could not be applied. The document
// passed to Merge is returned unchanged alongside it.
type MergeRejectedError struct {
	Kind ResultKind
	Err  error
}

func (e *MergeRejectedError) Error() string {
	return fmt.Sprintf("merge rejected (%s): %v", e.Kind, e.Err)
}

func (e *MergeRejectedError) Unwrap() error { return e.Err }

var errEmptyResult = errors.New("result has no content")

// ParseResult classifies body. It accepts
//
//	{"patch": {...}}                        a patch
//	{"kind": "patch"|"full", "patch"|"document": {...}}
//	{...}                                   a full document
//
// Bodies that are not JSON are returned as Full and rejected by Merge. A flat
// full document whose only sections are named "patch" or "document" reads as
// an envelope; such a document must be wrapped in {"kind":"full","document":...}.
func ParseResult(body []byte) Result {
	env, ok := envelope(body)
	if !ok {
		return Result{Kind: Full, Body: bytes.Clone(body)}
	}
	kind := Full
	if _, isPatch := env[keyPatch]; isPatch {
		kind = Patch
	}
	switch string(env[keyKind]) {
	case `"patch"`:
		kind = Patch
	case `"full"`:
		kind = Full
	}
	first, second := env[keyDocument], env[keyPatch]
	if kind == Patch {
		first, second = second, first
	}
	payload := first
	if payload == nil {
		payload = second
	}
	return Result{Kind: kind, Body: []byte(payload)}
}

// envelope returns the members of body when every top-level key is an
// envelope key and a payload is present.
func envelope(body []byte) (map[string]jsontext.Value, bool) {
	dec := jsontext.NewDecoder(bytes.NewReader(body))
	tok, err := dec.ReadToken()
	if err != nil || tok.Kind() != '{' {
		return nil, false
	}
	out := map[string]jsontext.Value{}
	for dec.PeekKind() != '}' {
		k, err := dec.ReadToken()
		if err != nil {
			return nil, false
		}
		key := k.String()
		switch key {
		case keyKind, keyPatch, keyDocument:
		default:
			return nil, false
		}
		v, err := dec.ReadValue()
		if err != nil {
			return nil, false
		}
		out[key] = v.Clone()
	}
	if _, err := dec.ReadToken(); err != nil {
		return nil, false
	}
	_, hasPatch := out[keyPatch]
	_, hasDoc := out[keyDocument]
	return out, hasPatch || hasDoc
}

// NewPatch builds a patch result that replaces the given sections.
func NewPatch(base uint64, sections ...model.Section) (Result, error) {
	d, err := model.New("", sections...)
	if err != nil {
		return Result{}, err
	}
	body, err := codec.Encode(d)
	if err != nil {
		return Result{}, err
	}
	return Result{Kind: Patch, Body: body, BaseVersion: base}, nil
}

// Merge applies r to d. A full result replaces d; a patch replaces the
// sections it names in place, appends new ones and keeps the rest. Theme and
// section config carried by a patch override d's. The merged document must
// survive a codec round trip; otherwise d is returned with a
// *MergeRejectedError.
func Merge(d model.Document, r Result) (model.Document, error) {
	reject := func(err error) (model.Document, error) {
		return d, &MergeRejectedError{Kind: r.Kind, Err: err}
	}
	if len(bytes.TrimSpace(r.Body)) == 0 {
		return reject(errEmptyResult)
	}
	in, err := codec.Decode(r.Body)
	if err != nil {
		return reject(err)
	}
	out := in
	if r.Kind == Patch {
		out, err = apply(d, in)
		if err != nil {
			return reject(err)
		}
	}
	enc, err := codec.Encode(out)
	if err != nil {
		return reject(err)
	}
	checked, err := codec.Decode(enc)
	if err != nil {
		return reject(err)
	}
	return checked, nil
}

func apply(d, p model.Document) (model.Document, error) {
	out := d
	if t := p.ActiveTheme(); t != "" {
		out = out.WithTheme(t)
	}
	var err error
	for id, c := range p.Configs() {
		if out, err = out.WithSectionConfig(id, c); err != nil {
			return d, err
		}
	}
	for _, s := range p.Sections() {
		if out, err = out.WithSection(s); err != nil {
			return d, err
		}
	}
	return out, nil
}
