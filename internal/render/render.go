// Package render projects a document and a theme into an output format.
// Projection is pure: the same document, theme and format always give the
// same bytes, except for the optional Chromium PDF engine.
package render

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"cv-builder/internal/layout"
	"cv-builder/internal/model"
	"cv-builder/internal/section"
	"cv-builder/internal/theme"
)

type Format string

const (
	FormatPreview Format = "preview"
	FormatPDF     Format = "pdf"
	FormatDOCX    Format = "docx"
	FormatHTML    Format = "html"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported format")
	// ErrBackendUnavailable is wrapped by backends whose runtime is missing.
	ErrBackendUnavailable = errors.New("render backend unavailable")
)

// RenderError reports a section that could not be projected.
type RenderError = section.RenderError

// ParseFormat accepts the formats Project can produce.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatPreview, FormatPDF, FormatDOCX:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

func (f Format) MimeType() string {
	switch f {
	case FormatPDF:
		return "application/pdf"
	case FormatDOCX:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case FormatHTML:
		return "text/html; charset=utf-8"
	}
	return "application/json"
}

func (f Format) Ext() string {
	switch f {
	case FormatPDF:
		return ".pdf"
	case FormatDOCX:
		return ".docx"
	case FormatHTML:
		return ".html"
	}
	return ".preview.json"
}

// Issue is a non-fatal problem recorded while projecting.
type Issue struct {
	SectionID string `json:"sectionId"`
	Message   string `json:"message"`
}

// Artifact is a fully materialized rendering.
type Artifact struct {
	Format   Format
	Data     []byte
	Tree     *Tree
	Filename string
	MimeType string
	Digest   string
	Issues   []Issue
}

// Job is what a backend receives.
type Job struct {
	Page   layout.Page
	Theme  theme.Config
	Title  string
	Author string
}

type Output struct {
	Data []byte
	Tree *Tree
}

// Backend turns a laid out page into bytes for one format.
type Backend interface {
	Render(ctx context.Context, job Job) (Output, error)
}

// BackendFunc adapts a function to Backend.
type BackendFunc func(ctx context.Context, job Job) (Output, error)

func (f BackendFunc) Render(ctx context.Context, job Job) (Output, error) { return f(ctx, job) }

const placeholderText = "This section could not be displayed."

// Projector maps documents onto backends. It holds no per-call state and is
// safe for concurrent use.
type Projector struct {
	reg      *section.Registry
	backends map[Format]Backend
	strict   bool
	log      *slog.Logger
}

type Option func(*Projector)

// WithStrict makes a section render failure abort the projection instead of
// being replaced by a placeholder.
func WithStrict() Option { return func(p *Projector) { p.strict = true } }

func WithRegistry(r *section.Registry) Option { return func(p *Projector) { p.reg = r } }

// WithBackend overrides the backend used for f.
func WithBackend(f Format, b Backend) Option { return func(p *Projector) { p.backends[f] = b } }

func WithLogger(l *slog.Logger) Option { return func(p *Projector) { p.log = l } }

func NewProjector(opts ...Option) *Projector {
	p := &Projector{
		reg: section.Default(),
		backends: map[Format]Backend{
			FormatPreview: PreviewBackend{},
			FormatPDF:     PDFBackend{},
			FormatDOCX:    DOCXBackend{},
			FormatHTML:    HTMLBackend{},
		},
	}
	for _, o := range opts {
		o(p)
	}
	if p.log == nil {
		p.log = slog.Default()
	}
	return p
}

// Strict reports whether render failures abort.
func (p *Projector) Strict() bool { return p.strict }

// Layout projects the visible sections of d in display order.
func (p *Projector) Layout(d model.Document) (layout.Page, []Issue, error) {
	var (
		page   layout.Page
		issues []Issue
	)
	for _, s := range d.Visible() {
		cfg := d.Config(s.ID)
		blk, err := p.reg.Resolve(s.ID).Layout(s, cfg)
		if err != nil {
			var rerr *RenderError
			if p.strict || !errors.As(err, &rerr) {
				return layout.Page{}, nil, err
			}
			p.log.Warn("render: section replaced by placeholder", "section", s.ID, "err", err)
			issues = append(issues, Issue{SectionID: s.ID, Message: err.Error()})
			blk = layout.PlaceholderBlock(s.ID, p.reg.Label(s.ID, cfg), placeholderText)
		}
		page.Blocks = append(page.Blocks, blk)
	}
	return page, issues, nil
}

// Project renders d with th into f.
func (p *Projector) Project(ctx context.Context, d model.Document, th theme.Config, f Format) (*Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, ok := p.backends[f]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
	}
	page, issues, err := p.Layout(d)
	if err != nil {
		return nil, err
	}
	name := p.ownerName(d)
	out, err := b.Render(ctx, Job{Page: page, Theme: th, Title: documentTitle(name), Author: name})
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", f, err)
	}
	sum := sha256.Sum256(out.Data)
	return &Artifact{
		Format:   f,
		Data:     out.Data,
		Tree:     out.Tree,
		Filename: sanitizeFilename(name) + f.Ext(),
		MimeType: f.MimeType(),
		Digest:   hex.EncodeToString(sum[:]),
		Issues:   issues,
	}, nil
}

func (p *Projector) ownerName(d model.Document) string {
	s, ok := d.Section("basicInfo")
	if !ok {
		return ""
	}
	c, err := p.reg.Resolve("basicInfo").Decode(s.Raw)
	if err != nil {
		return ""
	}
	if bi, ok := c.(*model.BasicInfo); ok {
		return strings.TrimSpace(bi.Name)
	}
	return ""
}

func documentTitle(name string) string {
	if name == "" {
		return "Curriculum Vitae"
	}
	return name + " - Curriculum Vitae"
}

// sanitizeFilename creates a safe file name stem from a person's name.
func sanitizeFilename(title string) string {
	var b strings.Builder
	for _, r := range title {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ':
			b.WriteByte('-')
		case r == '-', r == '_':
			b.WriteRune(r)
		}
	}
	result := b.String()
	if len(result) > 50 {
		result = result[:50]
	}
	if result == "" {
		return "cv"
	}
	return result + "-cv"
}
