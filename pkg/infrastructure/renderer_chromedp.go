package infrastructure

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"cv-builder/internal/render"
)

// ChromiumBackend prints the HTML rendering of a CV to PDF with headless
// Chrome. It is an alternative to the native PDF backend when exact CSS
// layout matters more than reproducible bytes.
type ChromiumBackend struct {
	ExecPath string
	Timeout  time.Duration
}

func NewChromiumBackend(execPath string) *ChromiumBackend {
	if execPath == "" {
		execPath = os.Getenv("CHROME_PATH")
	}
	return &ChromiumBackend{ExecPath: execPath, Timeout: 60 * time.Second}
}

// Available reports whether a Chrome binary can be found.
func (b *ChromiumBackend) Available() bool {
	_, err := b.lookPath()
	return err == nil
}

func (b *ChromiumBackend) lookPath() (string, error) {
	if b.ExecPath != "" {
		if _, err := os.Stat(b.ExecPath); err != nil {
			return "", fmt.Errorf("%w: %v", render.ErrBackendUnavailable, err)
		}
		return b.ExecPath, nil
	}
	for _, name := range []string{"chromium-browser", "chromium", "google-chrome", "google-chrome-stable"} {
		if p, err := exec.LookPath(name); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: chromium not installed", render.ErrBackendUnavailable)
}

func (b *ChromiumBackend) Render(ctx context.Context, job render.Job) (render.Output, error) {
	path, err := b.lookPath()
	if err != nil {
		return render.Output{}, err
	}
	html, err := render.RenderHTML(job)
	if err != nil {
		return render.Output{}, err
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.ExecPath(path),
	)
	allocCtx, cancel := chromedp.NewExecAllocator(ctx, opts...)
	defer cancel()

	cctx, cancelCtx := chromedp.NewContext(allocCtx)
	defer cancelCtx()

	ctx2, cancel2 := context.WithTimeout(cctx, b.Timeout)
	defer cancel2()

	tmpDir, err := os.MkdirTemp("", "cv-")
	if err != nil {
		return render.Output{}, err
	}
	defer os.RemoveAll(tmpDir)

	htmlPath := filepath.Join(tmpDir, "index.html")
	if err := os.WriteFile(htmlPath, html, 0o644); err != nil {
		return render.Output{}, err
	}

	var pdfBuf []byte
	err = chromedp.Run(ctx2,
		chromedp.Navigate("file://"+htmlPath),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			// A4: 210mm x 297mm -> inches: 8.27 x 11.69
			pdfBuf, _, err = page.PrintToPDF().WithPrintBackground(true).
				WithPaperWidth(8.27).
				WithPaperHeight(11.69).
				WithPreferCSSPageSize(true).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		return render.Output{}, err
	}
	return render.Output{Data: pdfBuf}, nil
}
