package render

import (
	"cv-builder/internal/layout"
	"cv-builder/internal/model"
	"cv-builder/internal/theme"
)

// isHeader reports whether b is the contact header, which is drawn without a
// section heading.
func isHeader(b layout.Block) bool {
	return b.Kind == model.KindBasicInfo
}

// Style is the resolved look of a node under a theme.
type Style struct {
	Color  string  `json:"color"`
	Font   string  `json:"font"`
	Size   float64 `json:"size"`
	Bold   bool    `json:"bold,omitempty"`
	Italic bool    `json:"italic,omitempty"`
	Mono   bool    `json:"mono,omitempty"`
	Indent float64 `json:"indent,omitempty"`
	Center bool    `json:"center,omitempty"`
}

func headingStyle(th theme.Config) Style {
	return Style{Color: th.Palette.Primary, Font: th.Fonts.Heading, Size: th.Spacing.HeadingSize, Bold: true}
}

func nodeStyle(t layout.NodeType, th theme.Config) Style {
	base := th.Spacing.BaseSize
	s := Style{Color: th.Palette.Text, Font: th.Fonts.Body, Size: base}
	center := th.Layout.Align == "center"
	switch t {
	case layout.Name:
		s = Style{Color: th.Palette.Primary, Font: th.Fonts.Heading, Size: th.Spacing.NameSize, Bold: true, Center: center}
	case layout.Headline:
		s.Color, s.Size, s.Center = th.Palette.Muted, base*1.2, center
	case layout.Contact:
		s.Color, s.Size, s.Center = th.Palette.Muted, base*0.95, center
	case layout.EntryTitle:
		s.Bold, s.Color = true, th.Palette.Primary
	case layout.EntryMeta, layout.Placeholder:
		s.Color, s.Italic, s.Size = th.Palette.Muted, true, base*0.92
	case layout.Bullet:
		s.Indent = 12
	case layout.Tags:
		s.Color = th.Palette.Accent
	case layout.Link:
		s.Color, s.Size = th.Palette.Accent, base*0.95
	case layout.Code:
		s.Mono, s.Size, s.Font = true, base*0.9, "Courier New, monospace"
	}
	return s
}
