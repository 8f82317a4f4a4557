// Package export materializes renderings and hands them to a sink. An
// artifact reaches the sink only after it has been fully produced and
// verified; on failure nothing is delivered.
package export

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"cv-builder/internal/codec"
	"cv-builder/internal/model"
	"cv-builder/internal/render"
	"cv-builder/internal/theme"
)

// FormatJSON is the data-file export of the document itself.
const FormatJSON render.Format = "json"

// Sink receives finished artifacts, e.g. a browser download or a file.
type Sink interface {
	Deliver(ctx context.Context, a *render.Artifact) error
}

type SinkFunc func(ctx context.Context, a *render.Artifact) error

func (f SinkFunc) Deliver(ctx context.Context, a *render.Artifact) error { return f(ctx, a) }

// Discard is a sink that drops artifacts; callers keep the returned value.
var Discard Sink = SinkFunc(func(context.Context, *render.Artifact) error { return nil })

// Pipeline runs exports. It has no mutable state after construction, so
// concurrent exports are safe.
type Pipeline struct {
	projector *render.Projector
	sink      Sink
	timeout   time.Duration
	attempts  int
	backoff   time.Duration
	log       *slog.Logger
}

type Option func(*Pipeline)

func WithProjector(p *render.Projector) Option { return func(pl *Pipeline) { pl.projector = p } }

func WithSink(s Sink) Option { return func(pl *Pipeline) { pl.sink = s } }

// WithTimeout bounds each Export call; zero disables the bound.
func WithTimeout(d time.Duration) Option { return func(pl *Pipeline) { pl.timeout = d } }

// WithRetry sets how often a transient backend failure is retried and the
// first backoff delay, which doubles per attempt.
func WithRetry(attempts int, backoff time.Duration) Option {
	return func(pl *Pipeline) {
		if attempts < 1 {
			attempts = 1
		}
		pl.attempts, pl.backoff = attempts, backoff
	}
}

func WithLogger(l *slog.Logger) Option { return func(pl *Pipeline) { pl.log = l } }

func NewPipeline(opts ...Option) *Pipeline {
	pl := &Pipeline{
		sink:     Discard,
		timeout:  30 * time.Second,
		attempts: 3,
		backoff:  250 * time.Millisecond,
	}
	for _, o := range opts {
		o(pl)
	}
	if pl.log == nil {
		pl.log = slog.Default()
	}
	if pl.projector == nil {
		pl.projector = render.NewProjector(render.WithLogger(pl.log))
	}
	return pl
}

// Export resolves the document's theme, renders it, verifies the result and
// delivers it.
func (pl *Pipeline) Export(ctx context.Context, d model.Document, f render.Format) (*render.Artifact, error) {
	if f != render.FormatHTML {
		if _, err := render.ParseFormat(string(f)); err != nil {
			return nil, &ExportError{Kind: KindInvalid, Format: f, Err: err}
		}
	}
	if pl.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, pl.timeout)
		defer cancel()
	}
	th := theme.Resolve(d.ActiveTheme())

	var (
		art *render.Artifact
		err error
	)
	for i := 0; i < pl.attempts; i++ {
		art, err = pl.projectOnce(ctx, d, th, f)
		if err == nil || !transient(ctx, err) {
			break
		}
		pl.log.Warn("export: attempt failed", "format", f, "attempt", i+1, "err", err)
		if i < pl.attempts-1 {
			select {
			case <-time.After(pl.backoff * time.Duration(1<<i)):
			case <-ctx.Done():
				err = ctx.Err()
			}
			if ctx.Err() != nil {
				break
			}
		}
	}
	if err != nil {
		return nil, classify(f, err)
	}
	if err := pl.sink.Deliver(ctx, art); err != nil {
		return nil, fmt.Errorf("deliver %s: %w", art.Filename, err)
	}
	pl.log.Info("export: delivered", "format", f, "file", art.Filename, "bytes", len(art.Data), "issues", len(art.Issues))
	return art, nil
}

func (pl *Pipeline) projectOnce(ctx context.Context, d model.Document, th theme.Config, f render.Format) (*render.Artifact, error) {
	art, err := pl.projector.Project(ctx, d, th, f)
	if err != nil {
		return nil, err
	}
	if v, ok := verifiers[f]; ok {
		if err := v(art.Data); err != nil {
			return nil, err
		}
	}
	return art, nil
}

// ExportJSON produces and delivers the cv-data.json file for d.
func (pl *Pipeline) ExportJSON(ctx context.Context, d model.Document) (*render.Artifact, error) {
	art, err := JSONArtifact(d)
	if err != nil {
		return nil, err
	}
	if err := pl.sink.Deliver(ctx, art); err != nil {
		return nil, fmt.Errorf("deliver %s: %w", art.Filename, err)
	}
	return art, nil
}

// JSONArtifact encodes d as the indented data file.
func JSONArtifact(d model.Document) (*render.Artifact, error) {
	data, err := codec.EncodeIndent(d)
	if err != nil {
		return nil, &ExportError{Kind: KindInvalid, Format: FormatJSON, Err: err}
	}
	sum := sha256.Sum256(data)
	return &render.Artifact{
		Format:   FormatJSON,
		Data:     data,
		Filename: codec.FileName,
		MimeType: "application/json",
		Digest:   hex.EncodeToString(sum[:]),
	}, nil
}

// transient reports whether retrying could help.
func transient(ctx context.Context, err error) bool {
	var rerr *render.RenderError
	switch {
	case ctx.Err() != nil,
		errors.As(err, &rerr),
		errors.Is(err, render.ErrBackendUnavailable),
		errors.Is(err, render.ErrUnsupportedFormat),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return false
	}
	return true
}

func classify(f render.Format, err error) *ExportError {
	var rerr *render.RenderError
	kind := KindRender
	switch {
	case errors.Is(err, render.ErrBackendUnavailable):
		kind = KindBackendUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		kind = KindTimeout
	case errors.Is(err, context.Canceled):
		kind = KindCanceled
	case errors.Is(err, render.ErrUnsupportedFormat), errors.Is(err, ErrCorruptArtifact):
		kind = KindInvalid
	case errors.As(err, &rerr):
		kind = KindRender
	}
	return &ExportError{Kind: kind, Format: f, Err: err}
}
