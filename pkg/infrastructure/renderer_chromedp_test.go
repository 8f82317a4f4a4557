package infrastructure

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"cv-builder/internal/render"
)

func TestMissingChromeIsUnavailable(t *testing.T) {
	b := NewChromiumBackend(filepath.Join(t.TempDir(), "no-such-chrome"))
	assert.False(t, b.Available())
	_, err := b.Render(context.Background(), render.Job{})
	assert.ErrorIs(t, err, render.ErrBackendUnavailable)
}
