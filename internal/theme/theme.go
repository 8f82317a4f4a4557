// Package theme holds the static catalog of visual themes. Configs are plain
// comparable values; callers get copies and cannot change the catalog.
package theme

import (
	_ "embed"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultID names the theme every unknown id falls back to.
const DefaultID = "default"

//go:embed themes.yaml
var catalogYAML []byte

type Palette struct {
	Primary    string `yaml:"primary" json:"primary"`
	Accent     string `yaml:"accent" json:"accent"`
	Text       string `yaml:"text" json:"text"`
	Muted      string `yaml:"muted" json:"muted"`
	Background string `yaml:"background" json:"background"`
	Rule       string `yaml:"rule" json:"rule"`
}

// Fonts lists CSS font stacks for HTML, base-14 names for the native PDF
// writer and a font family for DOCX.
type Fonts struct {
	Heading    string `yaml:"heading" json:"heading"`
	Body       string `yaml:"body" json:"body"`
	PDFHeading string `yaml:"pdfHeading" json:"pdfHeading"`
	PDFBody    string `yaml:"pdfBody" json:"pdfBody"`
	DOCX       string `yaml:"docx" json:"docx"`
}

type Spacing struct {
	Margin      float64 `yaml:"margin" json:"margin"`
	SectionGap  float64 `yaml:"sectionGap" json:"sectionGap"`
	LineHeight  float64 `yaml:"lineHeight" json:"lineHeight"`
	BaseSize    float64 `yaml:"baseSize" json:"baseSize"`
	NameSize    float64 `yaml:"nameSize" json:"nameSize"`
	HeadingSize float64 `yaml:"headingSize" json:"headingSize"`
}

type Layout struct {
	UppercaseHeadings bool   `yaml:"uppercaseHeadings" json:"uppercaseHeadings"`
	SectionRule       bool   `yaml:"sectionRule" json:"sectionRule"`
	Align             string `yaml:"align" json:"align"`
}

// Config is the full description of a theme.
type Config struct {
	ID      string  `yaml:"-" json:"id"`
	Name    string  `yaml:"name" json:"name"`
	Palette Palette `yaml:"palette" json:"palette"`
	Fonts   Fonts   `yaml:"fonts" json:"fonts"`
	Spacing Spacing `yaml:"spacing" json:"spacing"`
	Layout  Layout  `yaml:"layout" json:"layout"`
}

// Heading applies the theme's heading case to title.
func (c Config) Heading(title string) string {
	if c.Layout.UppercaseHeadings {
		return strings.ToUpper(title)
	}
	return title
}

var catalog = mustLoad(catalogYAML)

func mustLoad(src []byte) map[string]Config {
	m, err := parseCatalog(src)
	if err != nil {
		panic(err)
	}
	return m
}

func parseCatalog(src []byte) (map[string]Config, error) {
	var raw map[string]Config
	if err := yaml.Unmarshal(src, &raw); err != nil {
		return nil, fmt.Errorf("theme: parse catalog: %w", err)
	}
	if _, ok := raw[DefaultID]; !ok {
		return nil, fmt.Errorf("theme: catalog has no %q theme", DefaultID)
	}
	for id, c := range raw {
		c.ID = id
		if err := c.validate(); err != nil {
			return nil, fmt.Errorf("theme %q: %w", id, err)
		}
		raw[id] = c
	}
	return raw, nil
}

func (c Config) validate() error {
	for name, v := range map[string]string{
		"primary": c.Palette.Primary, "accent": c.Palette.Accent, "text": c.Palette.Text,
		"muted": c.Palette.Muted, "background": c.Palette.Background, "rule": c.Palette.Rule,
	} {
		if _, _, _, err := ParseHex(v); err != nil {
			return fmt.Errorf("palette %s: %w", name, err)
		}
	}
	if c.Spacing.BaseSize <= 0 || c.Spacing.LineHeight <= 0 || c.Spacing.Margin < 0 {
		return fmt.Errorf("spacing must be positive")
	}
	return nil
}

// Resolve returns the theme for id, or the default theme when id is empty or
// unknown. It never fails.
func Resolve(id string) Config {
	if c, ok := catalog[id]; ok {
		return c
	}
	return catalog[DefaultID]
}

// Lookup reports whether id names a theme in the catalog.
func Lookup(id string) (Config, bool) {
	c, ok := catalog[id]
	return c, ok
}

// IDs lists the catalog in sorted order.
func IDs() []string {
	ids := make([]string, 0, len(catalog))
	for id := range catalog {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ParseHex splits a #rrggbb colour into components.
func ParseHex(s string) (r, g, b uint8, err error) {
	if len(s) != 7 || s[0] != '#' {
		return 0, 0, 0, fmt.Errorf("colour %q is not #rrggbb", s)
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("colour %q: %w", s, err)
	}
	return uint8(v >> 16), uint8(v >> 8), uint8(v), nil
}

// RGB returns the colour as 0..1 floats, as PDF operators expect. Invalid
// colours become black.
func RGB(s string) (float64, float64, float64) {
	r, g, b, err := ParseHex(s)
	if err != nil {
		return 0, 0, 0
	}
	return float64(r) / 255, float64(g) / 255, float64(b) / 255
}
