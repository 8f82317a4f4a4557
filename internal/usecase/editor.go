// Package usecase coordinates editing, importing, tailoring and exporting of
// one CV document per identity.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	repo "cv-builder/internal/adapter/repository"
	"cv-builder/internal/codec"
	"cv-builder/internal/domain"
	"cv-builder/internal/export"
	"cv-builder/internal/model"
	"cv-builder/internal/render"
	"cv-builder/internal/section"
	"cv-builder/internal/tailor"
)

var (
	// ErrStale is returned when a result was computed from a version that is
	// no longer current; the result has been discarded.
	ErrStale = errors.New("result is based on an outdated document")
	// ErrNoTailorer is returned by Tailor when no AI client is configured.
	ErrNoTailorer = errors.New("tailoring is not configured")
)

type Exporter interface {
	Export(ctx context.Context, d model.Document, f render.Format) (*render.Artifact, error)
	ExportJSON(ctx context.Context, d model.Document) (*render.Artifact, error)
}

type Tailorer interface {
	Tailor(ctx context.Context, d model.Document, jobDescription string) (tailor.Result, error)
	TailorSection(ctx context.Context, d model.Document, sectionID, jobDescription string) (tailor.Result, error)
}

// Editor owns the current snapshot of one document. Reads never block;
// writers replace the whole snapshot with compare-and-swap.
type Editor struct {
	cur atomic.Pointer[Snapshot]

	key      string
	store    repo.DocumentStore
	exporter Exporter
	tailorer Tailorer
	registry *section.Registry
	log      *slog.Logger
	now      func() time.Time

	// saveMu orders writes to the store; saved is the last persisted version.
	saveMu sync.Mutex
	saved  uint64
}

type EditorOption func(*Editor)

// WithStore persists every new snapshot under key.
func WithStore(s repo.DocumentStore, key string) EditorOption {
	return func(e *Editor) { e.store, e.key = s, key }
}

func WithExporter(x Exporter) EditorOption { return func(e *Editor) { e.exporter = x } }

func WithTailorer(t Tailorer) EditorOption { return func(e *Editor) { e.tailorer = t } }

func WithRegistry(r *section.Registry) EditorOption { return func(e *Editor) { e.registry = r } }

func WithLogger(l *slog.Logger) EditorOption { return func(e *Editor) { e.log = l } }

func NewEditor(d model.Document, opts ...EditorOption) *Editor {
	e := &Editor{now: time.Now}
	for _, o := range opts {
		o(e)
	}
	if e.log == nil {
		e.log = slog.Default()
	}
	if e.registry == nil {
		e.registry = section.Default()
	}
	if e.key == "" {
		e.key = repo.BaseKey
	}
	if e.exporter == nil {
		e.exporter = export.NewPipeline(export.WithLogger(e.log))
	}
	e.cur.Store(&Snapshot{Doc: d, Version: 1, UpdatedAt: e.now()})
	e.saved = 1
	return e
}

// OpenEditor loads the stored document for key. A store failure is logged
// and the editor starts from the default document.
func OpenEditor(ctx context.Context, store repo.DocumentStore, key string, opts ...EditorOption) *Editor {
	d, err := store.Load(ctx, key)
	if err != nil {
		slog.Default().Warn("usecase: load failed, starting from default document", "key", key, "err", err)
		d = model.Default()
	}
	return NewEditor(d, append([]EditorOption{WithStore(store, key)}, opts...)...)
}

// Current returns the current snapshot.
func (e *Editor) Current() Snapshot { return *e.cur.Load() }

func (e *Editor) Key() string { return e.key }

// Replace makes d the current document unconditionally.
func (e *Editor) Replace(ctx context.Context, d model.Document) (Snapshot, error) {
	return e.Update(ctx, func(model.Document) (model.Document, error) { return d, nil })
}

// Update applies fn to the current document. fn may run more than once when
// writers race and must not have side effects.
func (e *Editor) Update(ctx context.Context, fn func(model.Document) (model.Document, error)) (Snapshot, error) {
	for {
		old := e.cur.Load()
		d, err := fn(old.Doc)
		if err != nil {
			return *old, err
		}
		next := &Snapshot{Doc: d, Version: old.Version + 1, UpdatedAt: e.now()}
		if e.cur.CompareAndSwap(old, next) {
			return *next, e.persist(ctx, next)
		}
	}
}

// ApplyIfCurrent installs d only if base is still the current version.
func (e *Editor) ApplyIfCurrent(ctx context.Context, base uint64, d model.Document) (Snapshot, error) {
	old := e.cur.Load()
	if old.Version != base {
		return *old, fmt.Errorf("%w: based on version %d, current is %d", ErrStale, base, old.Version)
	}
	next := &Snapshot{Doc: d, Version: old.Version + 1, UpdatedAt: e.now()}
	if !e.cur.CompareAndSwap(old, next) {
		cur := e.cur.Load()
		return *cur, fmt.Errorf("%w: based on version %d, current is %d", ErrStale, base, cur.Version)
	}
	return *next, e.persist(ctx, next)
}

// persist saves s unless a newer version was already written. The snapshot
// stays current when saving fails.
func (e *Editor) persist(ctx context.Context, s *Snapshot) error {
	if e.store == nil {
		return nil
	}
	e.saveMu.Lock()
	defer e.saveMu.Unlock()
	if s.Version <= e.saved {
		return nil
	}
	if err := e.store.Save(ctx, e.key, s.Doc); err != nil {
		e.log.Error("usecase: save failed", "key", e.key, "version", s.Version, "err", err)
		return err
	}
	e.saved = s.Version
	return nil
}

// Import decodes a cv-data.json file and replaces the document with it. The
// document is unchanged when decoding fails.
func (e *Editor) Import(ctx context.Context, data []byte) (Snapshot, error) {
	base := e.Current()
	d, err := codec.Decode(data)
	if err != nil {
		return base, err
	}
	snap, err := e.ApplyIfCurrent(ctx, base.Version, d)
	if err == nil {
		e.log.Info("usecase: document imported", "key", e.key, "version", snap.Version, "sections", d.Len())
	}
	return snap, err
}

// Export renders the current snapshot.
func (e *Editor) Export(ctx context.Context, f render.Format) (ExportResult, error) {
	snap := e.Current()
	art, err := e.exporter.Export(ctx, snap.Doc, f)
	if err != nil {
		return ExportResult{Version: snap.Version}, err
	}
	return e.tagged(art, snap), nil
}

// ExportJSON produces the data file for the current snapshot.
func (e *Editor) ExportJSON(ctx context.Context) (ExportResult, error) {
	snap := e.Current()
	art, err := e.exporter.ExportJSON(ctx, snap.Doc)
	if err != nil {
		return ExportResult{Version: snap.Version}, err
	}
	return e.tagged(art, snap), nil
}

func (e *Editor) tagged(art *render.Artifact, snap Snapshot) ExportResult {
	return ExportResult{Artifact: art, Version: snap.Version, Stale: e.Current().Version != snap.Version}
}

// Tailor rewrites the document for a job description and applies the result
// if nothing changed meanwhile. The returned job records the outcome even
// when an error is returned.
func (e *Editor) Tailor(ctx context.Context, req TailorRequest) (*domain.TailorJob, error) {
	base := e.Current()
	job := domain.NewTailorJob(e.key, req.JobDescription, req.Section, base.Version, e.now())
	if e.tailorer == nil {
		job.Finish(domain.StatusFailed, ErrNoTailorer, e.now())
		return job, ErrNoTailorer
	}

	var (
		r   tailor.Result
		err error
	)
	if req.Section != "" {
		r, err = e.tailorer.TailorSection(ctx, base.Doc, req.Section, req.JobDescription)
	} else {
		r, err = e.tailorer.Tailor(ctx, base.Doc, req.JobDescription)
	}
	if err != nil {
		job.Finish(domain.StatusFailed, err, e.now())
		e.log.Warn("usecase: tailoring failed", "job", job.ID, "err", err)
		return job, err
	}
	r.BaseVersion = base.Version

	d, err := tailor.Merge(base.Doc, r)
	if err != nil {
		job.Finish(domain.StatusRejected, err, e.now())
		e.log.Warn("usecase: tailoring result rejected", "job", job.ID, "err", err)
		return job, err
	}
	snap, err := e.ApplyIfCurrent(ctx, r.BaseVersion, d)
	if errors.Is(err, ErrStale) {
		job.Finish(domain.StatusStale, err, e.now())
		e.log.Info("usecase: tailoring result discarded", "job", job.ID, "base", r.BaseVersion, "current", snap.Version)
		return job, err
	}
	job.Version = snap.Version
	job.Finish(domain.StatusApplied, err, e.now())
	e.log.Info("usecase: tailoring applied", "job", job.ID, "version", snap.Version)
	return job, err
}

// Checks reports how complete the current document is.
func (e *Editor) Checks() []StageResult {
	return Completeness(e.Current().Doc, e.registry)
}
