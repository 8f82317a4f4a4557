package render

import (
	"html"
	"html/template"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	richPolicy  = newRichPolicy()
	stripPolicy = bluemonday.StrictPolicy()
)

// newRichPolicy allows the inline formatting a rich text editor produces.
func newRichPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("b", "strong", "i", "em", "u", "br", "span", "code", "sub", "sup")
	p.AllowStandardURLs()
	p.AllowAttrs("href").OnElements("a")
	p.RequireNoFollowOnLinks(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	return p
}

// richHTML sanitizes user text for HTML output.
func richHTML(s string) template.HTML {
	return template.HTML(richPolicy.Sanitize(s))
}

// plainText drops any markup, for backends without inline formatting.
func plainText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}
	return strings.TrimSpace(html.UnescapeString(stripPolicy.Sanitize(s)))
}
