package render

import (
	"strings"

	"golang.org/x/text/encoding/charmap"
)

var base14 = map[string]bool{
	"Helvetica": true, "Helvetica-Bold": true, "Helvetica-Oblique": true, "Helvetica-BoldOblique": true,
	"Times-Roman": true, "Times-Bold": true, "Times-Italic": true, "Times-BoldItalic": true,
	"Courier": true, "Courier-Bold": true, "Courier-Oblique": true, "Courier-BoldOblique": true,
	"Symbol": true, "ZapfDingbats": true,
}

func isBase14(name string) bool { return base14[name] }

// fontFamily picks regular, bold and italic faces matching a base font name.
func fontFamily(base string) (regular, bold, italic string) {
	switch {
	case strings.HasPrefix(base, "Times"):
		return "Times-Roman", "Times-Bold", "Times-Italic"
	case strings.HasPrefix(base, "Courier"):
		return "Courier", "Courier-Bold", "Courier-Oblique"
	}
	return "Helvetica", "Helvetica-Bold", "Helvetica-Oblique"
}

// helveticaWidths are the Helvetica advance widths for bytes 0x20..0x7e, in
// thousandths of an em.
var helveticaWidths = [95]int{
	278, 278, 355, 556, 556, 889, 667, 191, 333, 333, 389, 584, 278, 333, 278, 278,
	556, 556, 556, 556, 556, 556, 556, 556, 556, 556, 278, 278, 584, 584, 584, 556,
	1015, 667, 667, 722, 722, 667, 611, 778, 722, 278, 500, 667, 556, 833, 722, 778,
	667, 778, 722, 667, 611, 722, 667, 944, 667, 667, 611, 278, 278, 278, 469, 556,
	333, 556, 556, 500, 556, 556, 278, 556, 556, 222, 222, 500, 222, 833, 556, 556,
	556, 556, 333, 500, 278, 556, 500, 722, 500, 500, 500, 334, 260, 334, 584,
}

// charWidth approximates the width of c in font. Helvetica metrics are scaled
// for the other proportional families; Courier is fixed pitch.
func charWidth(c byte, font string) float64 {
	if strings.HasPrefix(font, "Courier") {
		return 600
	}
	w := 556.0
	if c >= 0x20 && c <= 0x7e {
		w = float64(helveticaWidths[c-0x20])
	}
	if strings.HasPrefix(font, "Times") {
		w *= 0.92
	}
	if strings.Contains(font, "Bold") {
		w *= 1.05
	}
	return w
}

func textWidth(s []byte, font string, size float64) float64 {
	total := 0.0
	for _, c := range s {
		total += charWidth(c, font)
	}
	return total * size / 1000
}

// winAnsi encodes s for the WinAnsiEncoding fonts. Runes outside the code
// page become '?'.
func winAnsi(s string) []byte {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		switch r {
		case '\t', '\n', '\r':
			out = append(out, ' ')
			continue
		}
		if b, ok := charmap.Windows1252.EncodeRune(r); ok {
			out = append(out, b)
			continue
		}
		out = append(out, '?')
	}
	return out
}
