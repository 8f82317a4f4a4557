// Package codec reads and writes the JSON form of a CV document.
//
// The canonical form nests sections under a "sections" object:
//
//	{"activeTheme":"dark","sectionConfig":{...},"sections":{"basicInfo":{...},...}}
//
// Decode also accepts the flat form where sections sit next to activeTheme and
// sectionConfig at the top level. Key order is significant in both and is
// preserved.
package codec

import (
	"bytes"
	stdjson "encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"

	"cv-builder/internal/model"
)

// FileName is the name used for the JSON data-file export.
const FileName = "cv-data.json"

// MaxDocumentSize bounds what DecodeReader will read.
const MaxDocumentSize = 4 << 20

var (
	errNotObject     = errors.New("document root must be a JSON object")
	errTrailing      = errors.New("unexpected data after document")
	errEmpty         = errors.New("empty input")
	errTooLarge      = errors.New("document too large")
	errInvalidRawSec = errors.New("section content is not valid JSON")
)

// Encode writes d in canonical form. Section order is kept; section config
// entries are sorted by id.
func Encode(d model.Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := jsontext.NewEncoder(&buf)
	write := func(toks ...jsontext.Token) error {
		for _, t := range toks {
			if err := enc.WriteToken(t); err != nil {
				return err
			}
		}
		return nil
	}

	if err := write(jsontext.BeginObject,
		jsontext.String(model.KeyActiveTheme), jsontext.String(d.ActiveTheme()),
		jsontext.String(model.KeySectionConfig), jsontext.BeginObject); err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}

	cfgs := d.Configs()
	ids := make([]string, 0, len(cfgs))
	for id := range cfgs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		b, err := json.Marshal(cfgs[id])
		if err != nil {
			return nil, fmt.Errorf("encode section config %q: %w", id, err)
		}
		if err := enc.WriteToken(jsontext.String(id)); err != nil {
			return nil, fmt.Errorf("encode document: %w", err)
		}
		if err := enc.WriteValue(b); err != nil {
			return nil, fmt.Errorf("encode section config %q: %w", id, err)
		}
	}

	if err := write(jsontext.EndObject, jsontext.String(model.KeySections), jsontext.BeginObject); err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	for _, s := range d.Sections() {
		if !s.Valid() {
			return nil, &EncodeError{SectionID: s.ID, Err: errInvalidRawSec}
		}
		if err := enc.WriteToken(jsontext.String(s.ID)); err != nil {
			return nil, fmt.Errorf("encode document: %w", err)
		}
		if err := enc.WriteValue(s.Raw); err != nil {
			return nil, &EncodeError{SectionID: s.ID, Err: err}
		}
	}
	if err := write(jsontext.EndObject, jsontext.EndObject); err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// EncodeIndent is Encode with two-space indentation, for files people read.
func EncodeIndent(d model.Document) ([]byte, error) {
	b, err := Encode(d)
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := stdjson.Indent(&out, b, "", "  "); err != nil {
		return nil, fmt.Errorf("indent document: %w", err)
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

// DecodeReader reads at most MaxDocumentSize bytes from r and decodes them.
func DecodeReader(r io.Reader) (model.Document, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxDocumentSize+1))
	if err != nil {
		return model.Document{}, &ParseError{Err: err}
	}
	if len(data) > MaxDocumentSize {
		return model.Document{}, &ParseError{Offset: MaxDocumentSize, Err: errTooLarge}
	}
	return Decode(data)
}

// Decode parses a document in canonical or flat form. Only input that is not
// a well-formed JSON object is rejected, with a *ParseError. Unknown
// top-level keys become sections; a mistyped activeTheme or sectionConfig
// entry falls back to its default. Duplicate member names keep the position
// of the first occurrence and the value of the last.
//
// A top-level "sections" object is the canonical wrapper only when no other
// section sits next to it; otherwise it is a section of its own.
func Decode(data []byte) (model.Document, error) {
	dec := jsontext.NewDecoder(bytes.NewReader(data), jsontext.AllowDuplicateNames(true))
	fail := func(key string, err error) (model.Document, error) {
		return model.Document{}, &ParseError{Offset: dec.InputOffset(), Key: key, Err: err}
	}

	tok, err := dec.ReadToken()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return fail("", errEmpty)
		}
		return fail("", err)
	}
	if tok.Kind() != '{' {
		return fail("", errNotObject)
	}
	members, key, err := readMembers(dec)
	if err != nil {
		return fail(key, err)
	}
	if _, err := dec.ReadToken(); !errors.Is(err, io.EOF) {
		if err == nil {
			err = errTrailing
		}
		return fail("", err)
	}

	wrapped := isWrapped(members)
	b := model.NewBuilder()
	for _, m := range members {
		switch {
		case m.name == model.KeyActiveTheme:
			b.SetTheme(decodeTheme(m.val))
		case m.name == model.KeySectionConfig:
			decodeConfig(b, m.val)
		case m.name == model.KeySections && wrapped:
			inner := jsontext.NewDecoder(bytes.NewReader(m.val))
			if _, err := inner.ReadToken(); err != nil {
				return fail(m.name, err)
			}
			secs, key, err := readMembers(inner)
			if err != nil {
				return fail(key, err)
			}
			for _, s := range secs {
				addSection(b, s)
			}
		default:
			addSection(b, m)
		}
	}
	return b.Build(), nil
}

type member struct {
	name string
	val  jsontext.Value
}

// readMembers reads the members of the object dec is positioned in, up to and
// including its closing brace. On error it returns the name being read.
func readMembers(dec *jsontext.Decoder) ([]member, string, error) {
	var members []member
	index := map[string]int{}
	for dec.PeekKind() != '}' {
		tok, err := dec.ReadToken()
		if err != nil {
			return nil, "", err
		}
		name := tok.String()
		raw, err := dec.ReadValue()
		if err != nil {
			return nil, name, err
		}
		val, err := lastWins(raw.Clone())
		if err != nil {
			return nil, name, err
		}
		if i, ok := index[name]; ok {
			members[i].val = val
			continue
		}
		index[name] = len(members)
		members = append(members, member{name: name, val: val})
	}
	if _, err := dec.ReadToken(); err != nil {
		return nil, "", err
	}
	return members, "", nil
}

func isWrapped(members []member) bool {
	wrapper := false
	for _, m := range members {
		switch {
		case m.name == model.KeySections:
			wrapper = leading(m.val) == '{'
		case !model.IsReserved(m.name):
			return false
		}
	}
	return wrapper
}

func addSection(b *model.Builder, m member) {
	if err := b.Add(model.RawSection(m.name, m.val)); err != nil {
		slog.Warn("codec: section dropped", "id", m.name, "err", err)
	}
}

func decodeTheme(raw jsontext.Value) string {
	var theme string
	switch leading(raw) {
	case 'n':
		return ""
	case '"':
		if err := json.Unmarshal(raw, &theme); err == nil {
			return theme
		}
	}
	slog.Warn("codec: activeTheme is not a string, using the default theme", "value", string(raw))
	return ""
}

// decodeConfig applies every well-formed sectionConfig entry; anything else
// leaves that section with the default configuration.
func decodeConfig(b *model.Builder, raw jsontext.Value) {
	if leading(raw) != '{' {
		if leading(raw) != 'n' {
			slog.Warn("codec: sectionConfig is not an object, ignored")
		}
		return
	}
	dec := jsontext.NewDecoder(bytes.NewReader(raw))
	if _, err := dec.ReadToken(); err != nil {
		return
	}
	entries, _, err := readMembers(dec)
	if err != nil {
		slog.Warn("codec: sectionConfig unreadable, ignored", "err", err)
		return
	}
	for _, e := range entries {
		if e.name == "" || model.IsReserved(e.name) || leading(e.val) != '{' {
			slog.Warn("codec: sectionConfig entry ignored", "id", e.name)
			continue
		}
		var cfg model.SectionConfig
		if err := json.Unmarshal(e.val, &cfg); err != nil {
			slog.Warn("codec: sectionConfig entry ignored", "id", e.name, "err", err)
			continue
		}
		b.SetConfig(e.name, cfg)
	}
}

// lastWins returns v with duplicate member names removed at every depth:
// each name keeps its first position and its last value, which is how
// JSON.parse resolves them.
func lastWins(v jsontext.Value) (jsontext.Value, error) {
	if v.IsValid() {
		return v, nil
	}
	dec := jsontext.NewDecoder(bytes.NewReader(v), jsontext.AllowDuplicateNames(true))
	var buf bytes.Buffer
	enc := jsontext.NewEncoder(&buf)
	if err := copyValue(dec, enc); err != nil {
		return nil, err
	}
	return jsontext.Value(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

func copyValue(dec *jsontext.Decoder, enc *jsontext.Encoder) error {
	switch dec.PeekKind() {
	case '{':
		if _, err := dec.ReadToken(); err != nil {
			return err
		}
		members, _, err := readMembers(dec)
		if err != nil {
			return err
		}
		if err := enc.WriteToken(jsontext.BeginObject); err != nil {
			return err
		}
		for _, m := range members {
			if err := enc.WriteToken(jsontext.String(m.name)); err != nil {
				return err
			}
			if err := enc.WriteValue(m.val); err != nil {
				return err
			}
		}
		return enc.WriteToken(jsontext.EndObject)
	case '[':
		if _, err := dec.ReadToken(); err != nil {
			return err
		}
		if err := enc.WriteToken(jsontext.BeginArray); err != nil {
			return err
		}
		for dec.PeekKind() != ']' {
			if err := copyValue(dec, enc); err != nil {
				return err
			}
		}
		if _, err := dec.ReadToken(); err != nil {
			return err
		}
		return enc.WriteToken(jsontext.EndArray)
	}
	val, err := dec.ReadValue()
	if err != nil {
		return err
	}
	return enc.WriteValue(val)
}

func leading(v jsontext.Value) byte {
	v = bytes.TrimLeft(v, " \t\r\n")
	if len(v) == 0 {
		return 0
	}
	return v[0]
}
