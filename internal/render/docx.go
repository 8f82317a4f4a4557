package render

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"math"
	"strings"
	"time"

	"cv-builder/internal/layout"
	"cv-builder/internal/theme"
)

// docxEpoch is stamped on every zip entry so output does not depend on the
// clock.
var docxEpoch = time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC)

// DOCXBackend writes a minimal WordprocessingML package.
type DOCXBackend struct{}

func (DOCXBackend) Render(ctx context.Context, job Job) (Output, error) {
	var body bytes.Buffer
	for i, b := range job.Page.Blocks {
		if err := ctx.Err(); err != nil {
			return Output{}, err
		}
		writeDOCXBlock(&body, b, job.Theme, i == 0)
	}

	parts := []struct{ name, data string }{
		{"[Content_Types].xml", docxContentTypes},
		{"_rels/.rels", docxRootRels},
		{"docProps/core.xml", docxCore(job.Title, job.Author)},
		{"word/_rels/document.xml.rels", docxDocumentRels},
		{"word/styles.xml", docxStyles(job.Theme)},
		{"word/document.xml", docxDocument(body.String(), job.Theme)},
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, p := range parts {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: p.name, Method: zip.Deflate, Modified: docxEpoch})
		if err != nil {
			return Output{}, fmt.Errorf("docx %s: %w", p.name, err)
		}
		if _, err := w.Write([]byte(p.data)); err != nil {
			return Output{}, fmt.Errorf("docx %s: %w", p.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return Output{}, fmt.Errorf("docx: %w", err)
	}
	return Output{Data: buf.Bytes()}, nil
}

func writeDOCXBlock(w *bytes.Buffer, b layout.Block, th theme.Config, first bool) {
	gap := 0.0
	if !first {
		gap = th.Spacing.SectionGap
	}
	if !isHeader(b) {
		hs := headingStyle(th)
		border := ""
		if th.Layout.SectionRule {
			border = fmt.Sprintf(`<w:pBdr><w:bottom w:val="single" w:sz="6" w:space="1" w:color="%s"/></w:pBdr>`, hexColor(th.Palette.Rule))
		}
		fmt.Fprintf(w, `<w:p><w:pPr><w:pStyle w:val="Heading1"/>%s<w:spacing w:before="%d" w:after="80"/></w:pPr>`, border, twips(gap))
		writeRun(w, th.Heading(b.Title), hs, th)
		w.WriteString(`</w:p>`)
		gap = 0
	}
	for _, n := range b.Nodes {
		st := nodeStyle(n.Type, th)
		text := plainText(n.FlatText())
		if n.Type == layout.Bullet {
			text = "• " + text
		}
		jc := ""
		if st.Center {
			jc = `<w:jc w:val="center"/>`
		}
		ind := ""
		if st.Indent > 0 {
			ind = fmt.Sprintf(`<w:ind w:left="%d" w:hanging="%d"/>`, twips(st.Indent*1.5), twips(st.Indent))
		}
		fmt.Fprintf(w, `<w:p><w:pPr>%s%s<w:spacing w:before="%d" w:after="40"/></w:pPr>`, jc, ind, twips(gap))
		writeRun(w, text, st, th)
		w.WriteString(`</w:p>`)
		gap = 0
	}
}

func writeRun(w *bytes.Buffer, text string, st Style, th theme.Config) {
	font := th.Fonts.DOCX
	if st.Mono {
		font = "Courier New"
	}
	w.WriteString(`<w:r><w:rPr>`)
	fmt.Fprintf(w, `<w:rFonts w:ascii="%s" w:hAnsi="%s" w:cs="%s"/>`, xmlAttr(font), xmlAttr(font), xmlAttr(font))
	if st.Bold {
		w.WriteString(`<w:b/>`)
	}
	if st.Italic {
		w.WriteString(`<w:i/>`)
	}
	fmt.Fprintf(w, `<w:color w:val="%s"/><w:sz w:val="%d"/>`, hexColor(st.Color), halfPoints(st.Size))
	w.WriteString(`</w:rPr><w:t xml:space="preserve">`)
	_ = xml.EscapeText(w, []byte(text))
	w.WriteString(`</w:t></w:r>`)
}

func twips(pt float64) int { return int(math.Round(pt * 20)) }

func halfPoints(pt float64) int { return int(math.Round(pt * 2)) }

func hexColor(c string) string {
	if _, _, _, err := theme.ParseHex(c); err != nil {
		return "000000"
	}
	return strings.ToUpper(c[1:])
}

func xmlAttr(s string) string {
	var b bytes.Buffer
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

func docxDocument(body string, th theme.Config) string {
	bg := ""
	if c := strings.ToLower(th.Palette.Background); c != "" && c != "#ffffff" {
		bg = fmt.Sprintf(`<w:background w:color="%s"/>`, hexColor(c))
	}
	margin := twips(th.Spacing.Margin)
	return xml.Header +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">` + bg +
		`<w:body>` + body +
		fmt.Sprintf(`<w:sectPr><w:pgSz w:w="11906" w:h="16838"/><w:pgMar w:top="%d" w:right="%d" w:bottom="%d" w:left="%d" w:header="0" w:footer="0" w:gutter="0"/></w:sectPr>`,
			margin, margin, margin, margin) +
		`</w:body></w:document>`
}

func docxStyles(th theme.Config) string {
	font := xmlAttr(th.Fonts.DOCX)
	return xml.Header +
		`<w:styles xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">` +
		`<w:docDefaults><w:rPrDefault><w:rPr>` +
		fmt.Sprintf(`<w:rFonts w:ascii="%s" w:hAnsi="%s" w:cs="%s"/><w:sz w:val="%d"/><w:color w:val="%s"/>`,
			font, font, font, halfPoints(th.Spacing.BaseSize), hexColor(th.Palette.Text)) +
		`</w:rPr></w:rPrDefault></w:docDefaults>` +
		`<w:style w:type="paragraph" w:default="1" w:styleId="Normal"><w:name w:val="Normal"/></w:style>` +
		`<w:style w:type="paragraph" w:styleId="Heading1"><w:name w:val="heading 1"/><w:basedOn w:val="Normal"/><w:next w:val="Normal"/><w:pPr><w:keepNext/><w:outlineLvl w:val="0"/></w:pPr></w:style>` +
		`</w:styles>`
}

func docxCore(title, author string) string {
	var t, a bytes.Buffer
	_ = xml.EscapeText(&t, []byte(title))
	_ = xml.EscapeText(&a, []byte(author))
	return xml.Header +
		`<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" xmlns:dc="http://purl.org/dc/elements/1.1/">` +
		`<dc:title>` + t.String() + `</dc:title><dc:creator>` + a.String() + `</dc:creator>` +
		`</cp:coreProperties>`
}

const docxContentTypes = xml.Header +
	`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
	`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` +
	`<Default Extension="xml" ContentType="application/xml"/>` +
	`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>` +
	`<Override PartName="/word/styles.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"/>` +
	`<Override PartName="/docProps/core.xml" ContentType="application/vnd.openxmlformats-package.core-properties+xml"/>` +
	`</Types>`

const docxRootRels = xml.Header +
	`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>` +
	`<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties" Target="docProps/core.xml"/>` +
	`</Relationships>`

const docxDocumentRels = xml.Header +
	`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles" Target="styles.xml"/>` +
	`</Relationships>`
