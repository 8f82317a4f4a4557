// Package section maps section ids to the handlers that validate, type and
// lay out their content. Unknown ids get a generic handler so any section a
// document carries can still be edited and rendered.
package section

import (
	"embed"
	"fmt"
	"sort"
	"sync"

	"github.com/go-json-experiment/json/jsontext"
	"github.com/xeipuuv/gojsonschema"

	"cv-builder/internal/layout"
	"cv-builder/internal/model"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// Handler knows how to treat one section id.
type Handler struct {
	ID     string
	Kind   model.Kind
	Label  string
	Editor Editor

	schemaSrc []byte
	schema    *gojsonschema.Schema
	decode    func(raw jsontext.Value) (model.Content, error)
	layout    func(b *layout.Builder, c model.Content)
}

// Schema returns the JSON Schema source, or nil for the generic handler.
func (h Handler) Schema() []byte { return h.schemaSrc }

// Generic reports whether h is the fallback for an unknown id.
func (h Handler) Generic() bool { return h.Kind == model.KindOpaque }

// Validate checks raw against the handler's schema.
func (h Handler) Validate(raw jsontext.Value) error {
	if len(raw) == 0 || !raw.IsValid() {
		return fmt.Errorf("section %q: %w", h.ID, ErrInvalidContent)
	}
	if h.schema == nil {
		return nil
	}
	res, err := h.schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return fmt.Errorf("validate section %q: %w", h.ID, err)
	}
	if res.Valid() {
		return nil
	}
	serr := &SchemaError{SectionID: h.ID}
	for _, e := range res.Errors() {
		serr.Problems = append(serr.Problems, e.String())
	}
	return serr
}

// Decode returns the typed view of raw. Content that does not match a known
// section's schema degrades to model.Opaque; only malformed JSON is an error.
func (h Handler) Decode(raw jsontext.Value) (model.Content, error) {
	if err := h.Validate(raw); err != nil {
		if _, ok := err.(*SchemaError); !ok {
			return nil, err
		}
		return model.Opaque{Value: raw.Clone()}, nil
	}
	if h.decode == nil {
		return model.Opaque{Value: raw.Clone()}, nil
	}
	c, err := h.decode(raw)
	if err != nil {
		return model.Opaque{Value: raw.Clone()}, nil
	}
	return c, nil
}

// Layout projects a section into a block. The title honours a configured
// override.
func (h Handler) Layout(s model.Section, cfg model.SectionConfig) (layout.Block, error) {
	c, err := h.Decode(s.Raw)
	if err != nil {
		return layout.Block{}, &RenderError{SectionID: s.ID, Err: err}
	}
	title := h.Label
	if cfg.Title != "" {
		title = cfg.Title
	}
	b := layout.NewBuilder(s.ID, c.Kind(), title)
	if op, ok := c.(model.Opaque); ok {
		if err := opaqueLayout(b, op.Value); err != nil {
			return layout.Block{}, &RenderError{SectionID: s.ID, Err: err}
		}
		if !h.Generic() {
			b.Degrade()
		}
		return b.Block(), nil
	}
	if h.layout == nil {
		if err := opaqueLayout(b, s.Raw); err != nil {
			return layout.Block{}, &RenderError{SectionID: s.ID, Err: err}
		}
		return b.Block(), nil
	}
	h.layout(b, c)
	return b.Block(), nil
}

// Registry resolves section ids to handlers. It is safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	byID   map[string]Handler
	labels map[string]string
}

// NewRegistry returns a registry holding the built-in handlers.
func NewRegistry() *Registry {
	r := &Registry{byID: map[string]Handler{}, labels: map[string]string{}}
	for _, h := range builtins() {
		r.Register(h)
	}
	r.Alias("experience", "experiences")
	return r
}

var (
	defaultOnce sync.Once
	defaultReg  *Registry
)

// Default returns the shared registry with the built-in handlers.
func Default() *Registry {
	defaultOnce.Do(func() { defaultReg = NewRegistry() })
	return defaultReg
}

// Register adds or replaces the handler for h.ID.
func (r *Registry) Register(h Handler) {
	if h.Label == "" {
		h.Label = DeriveLabel(h.ID)
	}
	if h.Kind == "" {
		h.Kind = model.KindOpaque
	}
	r.mu.Lock()
	r.byID[h.ID] = h
	r.mu.Unlock()
}

// Alias makes id resolve to the handler registered for target, keeping id as
// the handler's ID and label.
func (r *Registry) Alias(id, target string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.byID[target]
	if !ok {
		return
	}
	h.ID = id
	h.Label = DeriveLabel(id)
	r.byID[id] = h
}

// Resolve never fails: unknown ids get the generic handler.
func (r *Registry) Resolve(id string) Handler {
	r.mu.RLock()
	h, ok := r.byID[id]
	r.mu.RUnlock()
	if ok {
		return h
	}
	return Handler{
		ID:     id,
		Kind:   model.KindOpaque,
		Label:  DeriveLabel(id),
		Editor: genericEditor,
	}
}

// Label is the heading for id, preferring a configured title.
func (r *Registry) Label(id string, cfg model.SectionConfig) string {
	if cfg.Title != "" {
		return cfg.Title
	}
	return r.Resolve(id).Label
}

// Known lists the registered ids in sorted order.
func (r *Registry) Known() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.byID))
	for id := range r.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func mustSchema(name string) ([]byte, *gojsonschema.Schema) {
	src, err := schemaFS.ReadFile("schemas/" + name + ".json")
	if err != nil {
		panic(fmt.Sprintf("section: missing schema %s: %v", name, err))
	}
	s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(src))
	if err != nil {
		panic(fmt.Sprintf("section: compile schema %s: %v", name, err))
	}
	return src, s
}
