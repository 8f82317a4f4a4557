package usecase

import (
	"cv-builder/internal/export"
	"cv-builder/internal/render"
)

func newPipeline(preview render.Backend) *export.Pipeline {
	return export.NewPipeline(export.WithProjector(
		render.NewProjector(render.WithBackend(render.FormatPreview, preview)),
	))
}
