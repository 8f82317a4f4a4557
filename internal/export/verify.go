package export

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"

	"github.com/go-json-experiment/json/jsontext"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"cv-builder/internal/render"
)

func init() {
	// pdfcpu would otherwise create a config directory under the user's home.
	api.DisableConfigDir()
}

var ErrCorruptArtifact = errors.New("artifact failed verification")

// Verifier checks that an artifact is a complete, readable file.
type Verifier func(data []byte) error

var verifiers = map[render.Format]Verifier{
	render.FormatPDF:     verifyPDF,
	render.FormatDOCX:    verifyDOCX,
	render.FormatPreview: verifyJSON,
	FormatJSON:           verifyJSON,
	render.FormatHTML:    verifyNonEmpty,
}

func verifyPDF(data []byte) error {
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		return fmt.Errorf("%w: missing PDF signature (len=%d)", ErrCorruptArtifact, len(data))
	}
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), conf)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptArtifact, err)
	}
	if ctx.PageCount < 1 {
		return fmt.Errorf("%w: PDF has no pages", ErrCorruptArtifact)
	}
	return nil
}

func verifyDOCX(data []byte) error {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptArtifact, err)
	}
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			rc, err := f.Open()
			if err != nil {
				return fmt.Errorf("%w: %v", ErrCorruptArtifact, err)
			}
			return rc.Close()
		}
	}
	return fmt.Errorf("%w: word/document.xml missing", ErrCorruptArtifact)
}

func verifyJSON(data []byte) error {
	if !jsontext.Value(data).IsValid() {
		return fmt.Errorf("%w: malformed JSON", ErrCorruptArtifact)
	}
	return nil
}

func verifyNonEmpty(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: empty output", ErrCorruptArtifact)
	}
	return nil
}
