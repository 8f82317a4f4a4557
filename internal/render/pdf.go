package render

import (
	"bytes"
	"compress/zlib"
	"context"
	"fmt"
	"strings"

	"cv-builder/internal/layout"
	"cv-builder/internal/theme"
)

// A4 in points.
const (
	pdfPageWidth  = 595.28
	pdfPageHeight = 841.89
	pdfProducer   = "cv-builder"
)

// Font slots in every page's resource dictionary.
const (
	fontRegular = iota
	fontBold
	fontItalic
	fontMono
)

// PDFBackend writes PDF directly using the standard Type 1 fonts. Output has
// no timestamps or ids, so equal input gives equal bytes.
type PDFBackend struct{}

func (PDFBackend) Render(ctx context.Context, job Job) (Output, error) {
	w := newPDFWriter(job.Theme)
	for i, b := range job.Page.Blocks {
		if err := ctx.Err(); err != nil {
			return Output{}, err
		}
		w.block(b, i == 0)
	}
	data, err := w.bytes(job.Title, job.Author)
	if err != nil {
		return Output{}, err
	}
	return Output{Data: data}, nil
}

type pdfWriter struct {
	th    theme.Config
	fonts [4]string
	pages [][]byte
	cur   *bytes.Buffer
	y     float64
}

func newPDFWriter(th theme.Config) *pdfWriter {
	regular, bold, italic := fontFamily(th.Fonts.PDFBody)
	if isBase14(th.Fonts.PDFHeading) {
		bold = th.Fonts.PDFHeading
	}
	w := &pdfWriter{th: th, fonts: [4]string{regular, bold, italic, "Courier"}}
	w.newPage()
	return w
}

func (w *pdfWriter) margin() float64 { return w.th.Spacing.Margin }

func (w *pdfWriter) contentWidth() float64 { return pdfPageWidth - 2*w.margin() }

func (w *pdfWriter) newPage() {
	if w.cur != nil {
		w.pages = append(w.pages, w.cur.Bytes())
	}
	w.cur = &bytes.Buffer{}
	if bg := strings.ToLower(w.th.Palette.Background); bg != "" && bg != "#ffffff" {
		r, g, b := theme.RGB(bg)
		fmt.Fprintf(w.cur, "%.3f %.3f %.3f rg 0 0 %.2f %.2f re f\n", r, g, b, pdfPageWidth, pdfPageHeight)
	}
	w.y = pdfPageHeight - w.margin()
}

// ensure starts a new page unless h points fit above the bottom margin.
func (w *pdfWriter) ensure(h float64) {
	if w.y-h < w.margin() {
		w.newPage()
	}
}

func (w *pdfWriter) block(b layout.Block, first bool) {
	lh := w.th.Spacing.LineHeight
	if !first {
		w.y -= w.th.Spacing.SectionGap
	}
	if !isHeader(b) {
		hs := headingStyle(w.th)
		w.ensure(hs.Size*lh + w.th.Spacing.BaseSize*lh)
		w.y -= hs.Size
		w.text(fontBold, hs.Size, hs.Color, w.margin(), winAnsi(w.th.Heading(b.Title)))
		w.y -= hs.Size * (lh - 1)
		if w.th.Layout.SectionRule {
			w.rule(w.y + 2)
		}
		w.y -= 4
	}
	prevID := ""
	for _, n := range b.Nodes {
		if n.Type == layout.EntryTitle && prevID != "" && prevID != n.ID {
			w.y -= w.th.Spacing.BaseSize * 0.6
		}
		prevID = n.ID
		w.node(n)
	}
}

func (w *pdfWriter) node(n layout.Node) {
	st := nodeStyle(n.Type, w.th)
	font := fontRegular
	switch {
	case st.Mono:
		font = fontMono
	case st.Bold:
		font = fontBold
	case st.Italic:
		font = fontItalic
	}
	text := plainText(n.FlatText())
	prefix := ""
	if n.Type == layout.Bullet {
		prefix = "• "
	}
	w.paragraph(font, st, prefix, text)
}

// paragraph wraps text to the content width and writes it line by line.
func (w *pdfWriter) paragraph(font int, st Style, prefix, text string) {
	lh := st.Size * w.th.Spacing.LineHeight
	x := w.margin() + st.Indent
	maxW := w.contentWidth() - st.Indent
	var lines [][]byte
	if st.Mono {
		lines = wrapChars(winAnsi(text), w.fonts[font], st.Size, maxW)
	} else {
		lines = wrapWords(text, w.fonts[font], st.Size, maxW-textWidth(winAnsi(prefix), w.fonts[font], st.Size))
	}
	pw := textWidth(winAnsi(prefix), w.fonts[font], st.Size)
	for i, line := range lines {
		w.ensure(lh)
		w.y -= st.Size
		lx := x
		if i == 0 && prefix != "" {
			w.text(font, st.Size, st.Color, lx, winAnsi(prefix))
		}
		lx += pw
		if st.Center {
			lx = (pdfPageWidth - textWidth(line, w.fonts[font], st.Size)) / 2
		}
		w.text(font, st.Size, st.Color, lx, line)
		w.y -= lh - st.Size
	}
}

func (w *pdfWriter) text(font int, size float64, color string, x float64, s []byte) {
	r, g, b := theme.RGB(color)
	fmt.Fprintf(w.cur, "BT /F%d %.2f Tf %.3f %.3f %.3f rg %.2f %.2f Td (", font+1, size, r, g, b, x, w.y)
	w.cur.Write(escapePDF(s))
	w.cur.WriteString(") Tj ET\n")
}

func (w *pdfWriter) rule(y float64) {
	r, g, b := theme.RGB(w.th.Palette.Rule)
	fmt.Fprintf(w.cur, "%.3f %.3f %.3f RG 0.75 w %.2f %.2f m %.2f %.2f l S\n",
		r, g, b, w.margin(), y, pdfPageWidth-w.margin(), y)
}

// bytes assembles the file: catalog, page tree, four fonts, info, then a
// content stream and page object per page.
func (w *pdfWriter) bytes(title, author string) ([]byte, error) {
	pages := append(w.pages, w.cur.Bytes())

	const firstPageObj = 8
	objects := make([][]byte, 0, 7+2*len(pages))
	objects = append(objects, []byte("<< /Type /Catalog /Pages 2 0 R >>"))

	var kids strings.Builder
	for i := range pages {
		if i > 0 {
			kids.WriteByte(' ')
		}
		fmt.Fprintf(&kids, "%d 0 R", firstPageObj+2*i+1)
	}
	objects = append(objects, []byte(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", kids.String(), len(pages))))

	for _, f := range w.fonts {
		objects = append(objects, []byte(fmt.Sprintf("<< /Type /Font /Subtype /Type1 /BaseFont /%s /Encoding /WinAnsiEncoding >>", f)))
	}

	var info bytes.Buffer
	info.WriteString("<< /Title (")
	info.Write(escapePDF(winAnsi(title)))
	info.WriteString(")")
	if author != "" {
		info.WriteString(" /Author (")
		info.Write(escapePDF(winAnsi(author)))
		info.WriteString(")")
	}
	fmt.Fprintf(&info, " /Producer (%s) /Creator (%s) >>", pdfProducer, pdfProducer)
	objects = append(objects, info.Bytes())

	for i, content := range pages {
		var z bytes.Buffer
		zw, err := zlib.NewWriterLevel(&z, zlib.BestCompression)
		if err != nil {
			return nil, err
		}
		if _, err := zw.Write(content); err != nil {
			return nil, err
		}
		if err := zw.Close(); err != nil {
			return nil, err
		}
		var stream bytes.Buffer
		fmt.Fprintf(&stream, "<< /Length %d /Filter /FlateDecode >>\nstream\n", z.Len())
		stream.Write(z.Bytes())
		stream.WriteString("\nendstream")
		objects = append(objects, stream.Bytes())

		objects = append(objects, []byte(fmt.Sprintf(
			"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %.2f %.2f] /Contents %d 0 R "+
				"/Resources << /Font << /F1 3 0 R /F2 4 0 R /F3 5 0 R /F4 6 0 R >> >> >>",
			pdfPageWidth, pdfPageHeight, firstPageObj+2*i)))
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n%\xE2\xE3\xCF\xD3\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n", i+1)
		buf.Write(obj)
		buf.WriteString("\nendobj\n")
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R /Info 7 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes(), nil
}

func escapePDF(s []byte) []byte {
	out := make([]byte, 0, len(s)+8)
	for _, c := range s {
		switch {
		case c == '(' || c == ')' || c == '\\':
			out = append(out, '\\', c)
		case c < 0x20:
			out = append(out, ' ')
		default:
			out = append(out, c)
		}
	}
	return out
}

// wrapWords breaks text into lines no wider than maxW.
func wrapWords(text, font string, size, maxW float64) [][]byte {
	var (
		lines [][]byte
		line  []byte
	)
	space := textWidth([]byte{' '}, font, size)
	lineW := 0.0
	for _, word := range strings.Fields(text) {
		wb := winAnsi(word)
		ww := textWidth(wb, font, size)
		if ww > maxW {
			if len(line) > 0 {
				lines = append(lines, line)
				line, lineW = nil, 0
			}
			chunks := wrapChars(wb, font, size, maxW)
			lines = append(lines, chunks[:len(chunks)-1]...)
			line = chunks[len(chunks)-1]
			lineW = textWidth(line, font, size)
			continue
		}
		if len(line) > 0 && lineW+space+ww > maxW {
			lines = append(lines, line)
			line, lineW = nil, 0
		}
		if len(line) > 0 {
			line = append(line, ' ')
			lineW += space
		}
		line = append(line, wb...)
		lineW += ww
	}
	if len(line) > 0 {
		lines = append(lines, line)
	}
	return lines
}

// wrapChars breaks s at character boundaries, for words or code longer than
// a line.
func wrapChars(s []byte, font string, size, maxW float64) [][]byte {
	var lines [][]byte
	start, w := 0, 0.0
	for i, c := range s {
		cw := charWidth(c, font) * size / 1000
		if w+cw > maxW && i > start {
			lines = append(lines, s[start:i])
			start, w = i, 0
		}
		w += cw
	}
	if start < len(s) || len(lines) == 0 {
		lines = append(lines, s[start:])
	}
	return lines
}
