package render

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"strings"

	"cv-builder/internal/theme"
)

//go:embed templates/*.html
var templateFS embed.FS

var cvTemplate = template.Must(template.New("cv.html").
	Funcs(template.FuncMap{"rich": richHTML}).
	ParseFS(templateFS, "templates/cv.html"))

type htmlData struct {
	Title  string
	Theme  string
	CSS    template.CSS
	Blocks []TreeBlock
}

// HTMLBackend renders a standalone HTML page. It feeds the HTML preview and
// the Chromium PDF engine.
type HTMLBackend struct{}

func (HTMLBackend) Render(ctx context.Context, job Job) (Output, error) {
	data, err := RenderHTML(job)
	if err != nil {
		return Output{}, err
	}
	return Output{Data: data}, nil
}

// RenderHTML executes the page template for job.
func RenderHTML(job Job) ([]byte, error) {
	tree := BuildTree(job.Page, job.Theme)
	var buf bytes.Buffer
	err := cvTemplate.Execute(&buf, htmlData{
		Title:  job.Title,
		Theme:  job.Theme.ID,
		CSS:    template.CSS(themeCSS(job.Theme)),
		Blocks: tree.Blocks,
	})
	if err != nil {
		return nil, fmt.Errorf("execute template: %w", err)
	}
	return buf.Bytes(), nil
}

func themeCSS(th theme.Config) string {
	var b strings.Builder
	p, s := th.Palette, th.Spacing
	fmt.Fprintf(&b, "@page{size:A4;margin:%.0fpt}", s.Margin)
	fmt.Fprintf(&b, "body{margin:0;background:%s;color:%s;font-family:%s;font-size:%.1fpt;line-height:%.2f}",
		p.Background, p.Text, th.Fonts.Body, s.BaseSize, s.LineHeight)
	fmt.Fprintf(&b, ".cv{max-width:210mm;margin:0 auto;padding:%.0fpt}", s.Margin)
	fmt.Fprintf(&b, ".cv-section{margin-top:%.0fpt}", s.SectionGap)
	align := "left"
	if th.Layout.Align == "center" {
		align = "center"
	}
	fmt.Fprintf(&b, ".cv-header{text-align:%s}", align)
	fmt.Fprintf(&b, "h1{margin:0;color:%s;font-family:%s;font-size:%.0fpt}", p.Primary, th.Fonts.Heading, s.NameSize)
	transform := "none"
	if th.Layout.UppercaseHeadings {
		transform = "uppercase"
	}
	border := "none"
	if th.Layout.SectionRule {
		border = "1px solid " + p.Rule
	}
	fmt.Fprintf(&b, "h2{color:%s;font-family:%s;font-size:%.1fpt;text-transform:%s;border-bottom:%s;margin:0 0 4pt}",
		p.Primary, th.Fonts.Heading, s.HeadingSize, transform, border)
	fmt.Fprintf(&b, "h3{margin:6pt 0 0;color:%s;font-size:%.1fpt}", p.Primary, s.BaseSize)
	fmt.Fprintf(&b, ".headline,.contact,.meta,.placeholder{color:%s}.meta,.placeholder{font-style:italic}", p.Muted)
	fmt.Fprintf(&b, "a,.tag{color:%s}ul{margin:2pt 0;padding-left:14pt}p{margin:2pt 0}", p.Accent)
	b.WriteString("pre{white-space:pre-wrap;font-size:90%}")
	return b.String()
}
