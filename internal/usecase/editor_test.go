package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	repo "cv-builder/internal/adapter/repository"
	"cv-builder/internal/codec"
	"cv-builder/internal/domain"
	"cv-builder/internal/layout"
	"cv-builder/internal/model"
	"cv-builder/internal/render"
	"cv-builder/internal/tailor"
)

type stubTailorer struct {
	body   string
	err    error
	before func()
}

func (s stubTailorer) Tailor(context.Context, model.Document, string) (tailor.Result, error) {
	if s.before != nil {
		s.before()
	}
	if s.err != nil {
		return tailor.Result{}, s.err
	}
	return tailor.ParseResult([]byte(s.body)), nil
}

func (s stubTailorer) TailorSection(ctx context.Context, d model.Document, _, jd string) (tailor.Result, error) {
	return s.Tailor(ctx, d, jd)
}

func TestImportThenPreview(t *testing.T) {
	e := NewEditor(model.Default())
	snap, err := e.Import(context.Background(), []byte(`{"activeTheme":"dark","sections":{"basicInfo":{"name":"B"}}}`))
	require.NoError(t, err)
	assert.EqualValues(t, 2, snap.Version)

	res, err := e.Export(context.Background(), render.FormatPreview)
	require.NoError(t, err)
	assert.False(t, res.Stale)
	tree := res.Artifact.Tree
	require.NotNil(t, tree)
	assert.Equal(t, "dark", tree.Theme)
	assert.Equal(t, "#111827", tree.Background)
	n, ok := tree.Node(layout.NodeID("basicInfo", 0))
	require.True(t, ok)
	assert.Equal(t, "B", n.Text)
}

func TestImportParseErrorLeavesDocument(t *testing.T) {
	e := NewEditor(model.Default())
	_, err := e.Import(context.Background(), []byte(`{"sections":`))
	assert.ErrorIs(t, err, codec.ErrParse)
	assert.EqualValues(t, 1, e.Current().Version)
	assert.True(t, model.Default().Equal(e.Current().Doc))
}

func TestApplyIfCurrentDiscardsStaleResults(t *testing.T) {
	e := NewEditor(model.Default())
	base := e.Current().Version

	_, err := e.Replace(context.Background(), model.Default().WithTheme("modern"))
	require.NoError(t, err)

	_, err = e.ApplyIfCurrent(context.Background(), base, model.Default().WithTheme("classic"))
	assert.ErrorIs(t, err, ErrStale)
	assert.Equal(t, "modern", e.Current().Doc.ActiveTheme())
}

func TestTailorOutcomes(t *testing.T) {
	ctx := context.Background()

	t.Run("applied", func(t *testing.T) {
		e := NewEditor(model.Default(), WithTailorer(stubTailorer{body: `{"patch":{"summary":"Go engineer"}}`}))
		job, err := e.Tailor(ctx, TailorRequest{JobDescription: "Go"})
		require.NoError(t, err)
		assert.Equal(t, domain.StatusApplied, job.Status)
		assert.EqualValues(t, 2, job.Version)
		s, _ := e.Current().Doc.Section("summary")
		assert.JSONEq(t, `"Go engineer"`, string(s.Raw))
	})

	t.Run("stale", func(t *testing.T) {
		var e *Editor
		tl := stubTailorer{body: `{"patch":{"summary":"late"}}`, before: func() {
			_, err := e.Replace(ctx, model.Default().WithTheme("minimal"))
			require.NoError(t, err)
		}}
		e = NewEditor(model.Default(), WithTailorer(tl))
		job, err := e.Tailor(ctx, TailorRequest{JobDescription: "Go"})
		assert.ErrorIs(t, err, ErrStale)
		assert.Equal(t, domain.StatusStale, job.Status)
		assert.Equal(t, "minimal", e.Current().Doc.ActiveTheme())
		s, _ := e.Current().Doc.Section("summary")
		assert.JSONEq(t, `""`, string(s.Raw))
	})

	t.Run("rejected", func(t *testing.T) {
		e := NewEditor(model.Default(), WithTailorer(stubTailorer{body: `{"summary": oops`}))
		job, err := e.Tailor(ctx, TailorRequest{JobDescription: "Go"})
		var merr *tailor.MergeRejectedError
		assert.ErrorAs(t, err, &merr)
		assert.Equal(t, domain.StatusRejected, job.Status)
		assert.EqualValues(t, 1, e.Current().Version)
	})

	t.Run("failed", func(t *testing.T) {
		boom := errors.New("ai down")
		e := NewEditor(model.Default(), WithTailorer(stubTailorer{err: boom}))
		job, err := e.Tailor(ctx, TailorRequest{JobDescription: "Go", Section: "summary"})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, domain.StatusFailed, job.Status)
		assert.Equal(t, "ai down", job.Error)
	})

	t.Run("unconfigured", func(t *testing.T) {
		_, err := NewEditor(model.Default()).Tailor(ctx, TailorRequest{JobDescription: "Go"})
		assert.ErrorIs(t, err, ErrNoTailorer)
	})
}

func TestConcurrentUpdatesAreNotLost(t *testing.T) {
	e := NewEditor(model.MustNew(""))
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := e.Update(context.Background(), func(d model.Document) (model.Document, error) {
				return d.WithSection(model.RawSection("s"+string(rune('a'+i%26))+string(rune('a'+i/26)), []byte(`1`)))
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 50, e.Current().Doc.Len())
	assert.EqualValues(t, 51, e.Current().Version)
}

func TestExportIsTaggedStaleWhenDocumentMoves(t *testing.T) {
	var e *Editor
	slow := render.BackendFunc(func(ctx context.Context, job render.Job) (render.Output, error) {
		_, err := e.Replace(ctx, model.Default().WithTheme("dark"))
		require.NoError(t, err)
		return render.PreviewBackend{}.Render(ctx, job)
	})
	e = NewEditor(model.Default(), WithExporter(newPipeline(slow)))
	res, err := e.Export(context.Background(), render.FormatPreview)
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.Version)
	assert.True(t, res.Stale)
}

func TestEditorPersistsSnapshots(t *testing.T) {
	ctx := context.Background()
	store := repo.NewDocumentStore(repo.NewMemory(), nil)
	e := OpenEditor(ctx, store, repo.StorageKey("ada"))
	assert.True(t, model.Default().Equal(e.Current().Doc))

	_, err := e.Import(ctx, []byte(`{"activeTheme":"classic","sections":{"summary":"hello"}}`))
	require.NoError(t, err)

	reopened := OpenEditor(ctx, store, repo.StorageKey("ada"))
	assert.Equal(t, "classic", reopened.Current().Doc.ActiveTheme())
	assert.Equal(t, []string{"summary"}, reopened.Current().Doc.IDs())
}

func TestSessionsShareEditorPerSubject(t *testing.T) {
	s := NewSessions(repo.NewDocumentStore(repo.NewMemory(), nil))
	a := s.Get(context.Background(), "a")
	assert.Same(t, a, s.Get(context.Background(), "a"))
	assert.NotSame(t, a, s.Get(context.Background(), "b"))
	assert.Equal(t, "cv-data:a", a.Key())
}

func TestExportJSONIsTagged(t *testing.T) {
	e := NewEditor(model.Default())
	res, err := e.ExportJSON(context.Background())
	require.NoError(t, err)
	assert.Equal(t, codec.FileName, res.Artifact.Filename)
	assert.EqualValues(t, 1, res.Version)
}
