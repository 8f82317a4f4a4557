package model

import (
	"bytes"
	"errors"
	"fmt"
	"sort"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
)

// Reserved top-level keys. They carry document metadata and are never
// dispatched as section ids.
const (
	KeyActiveTheme   = "activeTheme"
	KeySectionConfig = "sectionConfig"
)

// KeySections names the object that wraps sections in the canonical file
// form. It is not reserved: a section may be called "sections".
const KeySections = "sections"

// DefaultThemeID is the theme a new document starts with.
const DefaultThemeID = "default"

var (
	ErrReservedID  = errors.New("section id is reserved")
	ErrEmptyID     = errors.New("section id is empty")
	ErrDuplicateID = errors.New("duplicate section id")
	ErrInvalidJSON = errors.New("section content is not valid JSON")
)

// IsReserved reports whether key is document metadata rather than a section.
func IsReserved(key string) bool {
	switch key {
	case KeyActiveTheme, KeySectionConfig:
		return true
	}
	return false
}

// Section is one named block of a CV. Raw is the authoritative JSON content;
// typed views are obtained through the section registry.
type Section struct {
	ID  string
	Raw jsontext.Value
}

// NewSection encodes typed content into a section.
func NewSection(id string, c Content) (Section, error) {
	if err := checkID(id); err != nil {
		return Section{}, err
	}
	b, err := json.Marshal(c)
	if err != nil {
		return Section{}, fmt.Errorf("encode section %q: %w", id, err)
	}
	return Section{ID: id, Raw: jsontext.Value(b)}, nil
}

// RawSection wraps already-encoded JSON. The bytes are copied but not
// validated; use Validate on the document to check them.
func RawSection(id string, raw []byte) Section {
	return Section{ID: id, Raw: jsontext.Value(bytes.Clone(raw))}
}

// Valid reports whether the content is well-formed JSON.
func (s Section) Valid() bool {
	return len(s.Raw) > 0 && s.Raw.IsValid()
}

func (s Section) clone() Section {
	return Section{ID: s.ID, Raw: s.Raw.Clone()}
}

// SectionConfig is the per-section display configuration.
type SectionConfig struct {
	Hidden bool           `json:"hidden"`
	Order  *int           `json:"order,omitempty"`
	Title  string         `json:"title,omitempty"`
	Extra  jsontext.Value `json:",unknown"`
}

func (c SectionConfig) clone() SectionConfig {
	out := c
	if c.Order != nil {
		o := *c.Order
		out.Order = &o
	}
	out.Extra = c.Extra.Clone()
	return out
}

func (c SectionConfig) equal(o SectionConfig) bool {
	if c.Hidden != o.Hidden || c.Title != o.Title {
		return false
	}
	if (c.Order == nil) != (o.Order == nil) {
		return false
	}
	if c.Order != nil && *c.Order != *o.Order {
		return false
	}
	return jsonEqual(c.Extra, o.Extra)
}

// OrderHint returns a pointer to n, for building SectionConfig literals.
func OrderHint(n int) *int { return &n }

// Document is an immutable CV value. Every With* method returns a new
// Document and leaves the receiver untouched.
type Document struct {
	sections    []Section
	index       map[string]int
	activeTheme string
	config      map[string]SectionConfig
}

// New builds a document from sections in display order.
func New(activeTheme string, sections ...Section) (Document, error) {
	b := NewBuilder()
	b.SetTheme(activeTheme)
	for _, s := range sections {
		if err := b.Add(s); err != nil {
			return Document{}, err
		}
	}
	return b.Build(), nil
}

// MustNew is New for static documents; it panics on invalid input.
func MustNew(activeTheme string, sections ...Section) Document {
	d, err := New(activeTheme, sections...)
	if err != nil {
		panic(err)
	}
	return d
}

// Default is the document a session starts with when nothing is stored.
func Default() Document {
	return MustNew(DefaultThemeID,
		RawSection("basicInfo", []byte(`{"name":"","title":"","email":"","phone":"","location":""}`)),
		RawSection("summary", []byte(`""`)),
		RawSection("experiences", []byte(`{"list":[]}`)),
		RawSection("education", []byte(`{"list":[]}`)),
		RawSection("skills", []byte(`{"list":[]}`)),
		RawSection("projects", []byte(`{"list":[]}`)),
	)
}

func (d Document) ActiveTheme() string { return d.activeTheme }

func (d Document) Len() int { return len(d.sections) }

// IDs returns section ids in insertion order.
func (d Document) IDs() []string {
	ids := make([]string, len(d.sections))
	for i, s := range d.sections {
		ids[i] = s.ID
	}
	return ids
}

// Sections returns copies of all sections in insertion order.
func (d Document) Sections() []Section {
	out := make([]Section, len(d.sections))
	for i, s := range d.sections {
		out[i] = s.clone()
	}
	return out
}

func (d Document) Section(id string) (Section, bool) {
	i, ok := d.index[id]
	if !ok {
		return Section{}, false
	}
	return d.sections[i].clone(), true
}

func (d Document) Has(id string) bool {
	_, ok := d.index[id]
	return ok
}

// Config returns the configuration for id; absent entries are the zero config.
func (d Document) Config(id string) SectionConfig {
	if c, ok := d.config[id]; ok {
		return c.clone()
	}
	return SectionConfig{}
}

// Configs returns a copy of every explicit section configuration.
func (d Document) Configs() map[string]SectionConfig {
	out := make(map[string]SectionConfig, len(d.config))
	for k, v := range d.config {
		out[k] = v.clone()
	}
	return out
}

// DisplayOrder returns all sections in display order: a section's rank is its
// order hint when set and its insertion index otherwise; ties keep insertion
// order.
func (d Document) DisplayOrder() []Section {
	out := d.Sections()
	rank := func(i int) int {
		if c, ok := d.config[out[i].ID]; ok && c.Order != nil {
			return *c.Order
		}
		return d.index[out[i].ID]
	}
	ranks := make(map[string]int, len(out))
	for i := range out {
		ranks[out[i].ID] = rank(i)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return ranks[out[i].ID] < ranks[out[j].ID]
	})
	return out
}

// Visible returns the sections in display order without hidden ones.
func (d Document) Visible() []Section {
	all := d.DisplayOrder()
	out := all[:0]
	for _, s := range all {
		if d.config[s.ID].Hidden {
			continue
		}
		out = append(out, s)
	}
	return out
}

// WithSection replaces the section with the same id in place, or appends it.
func (d Document) WithSection(s Section) (Document, error) {
	if err := checkID(s.ID); err != nil {
		return d, err
	}
	n := d.copy()
	if i, ok := n.index[s.ID]; ok {
		n.sections[i] = s.clone()
		return n, nil
	}
	n.index[s.ID] = len(n.sections)
	n.sections = append(n.sections, s.clone())
	return n, nil
}

func (d Document) WithoutSection(id string) Document {
	if !d.Has(id) {
		return d
	}
	n := Document{activeTheme: d.activeTheme, index: map[string]int{}, config: map[string]SectionConfig{}}
	for _, s := range d.sections {
		if s.ID == id {
			continue
		}
		n.index[s.ID] = len(n.sections)
		n.sections = append(n.sections, s.clone())
	}
	for k, v := range d.config {
		if k != id {
			n.config[k] = v.clone()
		}
	}
	return n
}

func (d Document) WithTheme(id string) Document {
	n := d.copy()
	n.activeTheme = id
	return n
}

// WithSectionConfig sets the configuration for id. The id need not name an
// existing section.
func (d Document) WithSectionConfig(id string, c SectionConfig) (Document, error) {
	if id == "" {
		return d, ErrEmptyID
	}
	if IsReserved(id) {
		return d, fmt.Errorf("%w: %q", ErrReservedID, id)
	}
	n := d.copy()
	n.config[id] = c.clone()
	return n, nil
}

func (d Document) WithoutSectionConfig(id string) Document {
	n := d.copy()
	delete(n.config, id)
	return n
}

// Clone returns a deep copy.
func (d Document) Clone() Document { return d.copy() }

// Equal reports structural equality: same sections in the same order with
// the same JSON content, same theme id and same section configuration.
func (d Document) Equal(o Document) bool {
	if d.activeTheme != o.activeTheme || len(d.sections) != len(o.sections) || len(d.config) != len(o.config) {
		return false
	}
	for i := range d.sections {
		if d.sections[i].ID != o.sections[i].ID {
			return false
		}
		if !jsonEqual(d.sections[i].Raw, o.sections[i].Raw) {
			return false
		}
	}
	for k, c := range d.config {
		oc, ok := o.config[k]
		if !ok || !c.equal(oc) {
			return false
		}
	}
	return true
}

func (d Document) copy() Document {
	n := Document{
		sections:    make([]Section, len(d.sections)),
		index:       make(map[string]int, len(d.sections)),
		activeTheme: d.activeTheme,
		config:      make(map[string]SectionConfig, len(d.config)),
	}
	for i, s := range d.sections {
		n.sections[i] = s.clone()
		n.index[s.ID] = i
	}
	for k, v := range d.config {
		n.config[k] = v.clone()
	}
	return n
}

// Builder assembles a document in insertion order. It is used by decoders
// and is not safe for concurrent use.
type Builder struct {
	doc Document
}

func NewBuilder() *Builder {
	return &Builder{doc: Document{index: map[string]int{}, config: map[string]SectionConfig{}}}
}

func (b *Builder) SetTheme(id string) { b.doc.activeTheme = id }

func (b *Builder) SetConfig(id string, c SectionConfig) { b.doc.config[id] = c.clone() }

// Add appends a section; ids must be unique and not reserved.
func (b *Builder) Add(s Section) error {
	if err := checkID(s.ID); err != nil {
		return err
	}
	if _, dup := b.doc.index[s.ID]; dup {
		return fmt.Errorf("%w: %q", ErrDuplicateID, s.ID)
	}
	b.doc.index[s.ID] = len(b.doc.sections)
	b.doc.sections = append(b.doc.sections, s.clone())
	return nil
}

// Build returns the document; the builder must not be reused afterwards.
func (b *Builder) Build() Document {
	d := b.doc
	b.doc = Document{}
	return d
}

func checkID(id string) error {
	if id == "" {
		return ErrEmptyID
	}
	if IsReserved(id) {
		return fmt.Errorf("%w: %q", ErrReservedID, id)
	}
	return nil
}

// jsonEqual compares two JSON values after RFC 8785 canonicalization. Values
// that cannot be canonicalized fall back to byte comparison.
func jsonEqual(a, b jsontext.Value) bool {
	if len(a) == 0 || len(b) == 0 {
		return len(a) == len(b)
	}
	ca, cb := a.Clone(), b.Clone()
	if ca.Canonicalize() != nil || cb.Canonicalize() != nil {
		return bytes.Equal(a, b)
	}
	return bytes.Equal(ca, cb)
}
