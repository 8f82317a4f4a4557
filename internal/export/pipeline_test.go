package export

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cv-builder/internal/codec"
	"cv-builder/internal/model"
	"cv-builder/internal/render"
)

func testDoc(t *testing.T) model.Document {
	t.Helper()
	d, err := model.New("modern",
		model.RawSection("basicInfo", []byte(`{"name":"Grace Hopper","email":"grace@example.com"}`)),
		model.RawSection("summary", []byte(`"Compilers and COBOL."`)),
		model.RawSection("skills", []byte(`["Fortran","Debugging"]`)),
	)
	require.NoError(t, err)
	return d
}

type recordingSink struct {
	got []*render.Artifact
}

func (s *recordingSink) Deliver(_ context.Context, a *render.Artifact) error {
	s.got = append(s.got, a)
	return nil
}

func TestExportDeliversVerifiedArtifacts(t *testing.T) {
	sink := &recordingSink{}
	pl := NewPipeline(WithSink(sink))
	for _, f := range []render.Format{render.FormatPreview, render.FormatPDF, render.FormatDOCX} {
		t.Run(string(f), func(t *testing.T) {
			art, err := pl.Export(context.Background(), testDoc(t), f)
			require.NoError(t, err)
			assert.Equal(t, f, art.Format)
			assert.Equal(t, "Grace-Hopper-cv"+f.Ext(), art.Filename)
			assert.NotEmpty(t, art.Digest)
			assert.Same(t, art, sink.got[len(sink.got)-1])
		})
	}
	assert.Len(t, sink.got, 3)
}

func TestExportRejectsUnknownFormat(t *testing.T) {
	sink := &recordingSink{}
	_, err := NewPipeline(WithSink(sink)).Export(context.Background(), testDoc(t), "odt")
	var xerr *ExportError
	require.ErrorAs(t, err, &xerr)
	assert.Equal(t, KindInvalid, xerr.Kind)
	assert.ErrorIs(t, err, render.ErrUnsupportedFormat)
	assert.Empty(t, sink.got)
}

func TestUnavailableBackendIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	pdf := render.BackendFunc(func(context.Context, render.Job) (render.Output, error) {
		calls.Add(1)
		return render.Output{}, render.ErrBackendUnavailable
	})
	sink := &recordingSink{}
	pl := NewPipeline(
		WithSink(sink),
		WithProjector(render.NewProjector(render.WithBackend(render.FormatPDF, pdf))),
		WithRetry(3, time.Millisecond),
	)
	_, err := pl.Export(context.Background(), testDoc(t), render.FormatPDF)
	var xerr *ExportError
	require.ErrorAs(t, err, &xerr)
	assert.Equal(t, KindBackendUnavailable, xerr.Kind)
	assert.EqualValues(t, 1, calls.Load())
	assert.Empty(t, sink.got)
}

func TestTransientFailureIsRetried(t *testing.T) {
	var calls atomic.Int32
	flaky := render.BackendFunc(func(ctx context.Context, job render.Job) (render.Output, error) {
		if calls.Add(1) < 3 {
			return render.Output{}, errors.New("renderer crashed")
		}
		return render.PreviewBackend{}.Render(ctx, job)
	})
	pl := NewPipeline(
		WithProjector(render.NewProjector(render.WithBackend(render.FormatPreview, flaky))),
		WithRetry(3, time.Millisecond),
	)
	art, err := pl.Export(context.Background(), testDoc(t), render.FormatPreview)
	require.NoError(t, err)
	assert.NotEmpty(t, art.Data)
	assert.EqualValues(t, 3, calls.Load())
}

func TestExportTimesOut(t *testing.T) {
	slow := render.BackendFunc(func(ctx context.Context, _ render.Job) (render.Output, error) {
		<-ctx.Done()
		return render.Output{}, ctx.Err()
	})
	sink := &recordingSink{}
	pl := NewPipeline(
		WithSink(sink),
		WithProjector(render.NewProjector(render.WithBackend(render.FormatDOCX, slow))),
		WithTimeout(20*time.Millisecond),
	)
	_, err := pl.Export(context.Background(), testDoc(t), render.FormatDOCX)
	var xerr *ExportError
	require.ErrorAs(t, err, &xerr)
	assert.Equal(t, KindTimeout, xerr.Kind)
	assert.Empty(t, sink.got)
}

func TestCanceledExportIsNotARenderError(t *testing.T) {
	started := make(chan struct{})
	blocked := render.BackendFunc(func(ctx context.Context, _ render.Job) (render.Output, error) {
		close(started)
		<-ctx.Done()
		return render.Output{}, ctx.Err()
	})
	sink := &recordingSink{}
	pl := NewPipeline(
		WithSink(sink),
		WithProjector(render.NewProjector(render.WithBackend(render.FormatDOCX, blocked))),
		WithTimeout(time.Minute),
	)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()
	_, err := pl.Export(ctx, testDoc(t), render.FormatDOCX)
	var xerr *ExportError
	require.ErrorAs(t, err, &xerr)
	assert.Equal(t, KindCanceled, xerr.Kind)
	assert.Equal(t, "canceled", xerr.Kind.String())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, sink.got)
}

func TestStrictRenderErrorAborts(t *testing.T) {
	d, err := testDoc(t).WithSection(model.RawSection("summary", []byte(`{broken`)))
	require.NoError(t, err)
	sink := &recordingSink{}
	pl := NewPipeline(WithSink(sink), WithProjector(render.NewProjector(render.WithStrict())))
	_, err = pl.Export(context.Background(), d, render.FormatPDF)
	var xerr *ExportError
	require.ErrorAs(t, err, &xerr)
	assert.Equal(t, KindRender, xerr.Kind)
	var rerr *render.RenderError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "summary", rerr.SectionID)
	assert.Empty(t, sink.got)
}

func TestCorruptArtifactIsNeverDelivered(t *testing.T) {
	truncated := render.BackendFunc(func(context.Context, render.Job) (render.Output, error) {
		return render.Output{Data: []byte("%PDF-1.4\n")}, nil
	})
	sink := &recordingSink{}
	pl := NewPipeline(
		WithSink(sink),
		WithProjector(render.NewProjector(render.WithBackend(render.FormatPDF, truncated))),
		WithRetry(1, 0),
	)
	_, err := pl.Export(context.Background(), testDoc(t), render.FormatPDF)
	var xerr *ExportError
	require.ErrorAs(t, err, &xerr)
	assert.Equal(t, KindInvalid, xerr.Kind)
	assert.ErrorIs(t, err, ErrCorruptArtifact)
	assert.Empty(t, sink.got)
}

func TestSinkErrorIsReturned(t *testing.T) {
	boom := errors.New("disk full")
	pl := NewPipeline(WithSink(SinkFunc(func(context.Context, *render.Artifact) error { return boom })))
	_, err := pl.Export(context.Background(), testDoc(t), render.FormatPreview)
	assert.ErrorIs(t, err, boom)
}

func TestExportJSON(t *testing.T) {
	sink := &recordingSink{}
	d := testDoc(t)
	art, err := NewPipeline(WithSink(sink)).ExportJSON(context.Background(), d)
	require.NoError(t, err)
	assert.Equal(t, "cv-data.json", art.Filename)
	assert.Equal(t, "application/json", art.MimeType)
	require.Len(t, sink.got, 1)

	back, err := codec.Decode(art.Data)
	require.NoError(t, err)
	assert.True(t, d.Equal(back))
}

func TestVerifiers(t *testing.T) {
	assert.ErrorIs(t, verifyPDF([]byte("not a pdf")), ErrCorruptArtifact)
	assert.ErrorIs(t, verifyDOCX([]byte("PK")), ErrCorruptArtifact)
	assert.ErrorIs(t, verifyJSON([]byte(`{"a":`)), ErrCorruptArtifact)
	assert.NoError(t, verifyJSON([]byte(`{"a":1}`)))
	assert.ErrorIs(t, verifyNonEmpty(nil), ErrCorruptArtifact)
}
