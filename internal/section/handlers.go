package section

import (
	"bytes"
	"errors"
	"io"
	"strings"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"

	"cv-builder/internal/layout"
	"cv-builder/internal/model"
)

func builtins() []Handler {
	return []Handler{
		typed("basicInfo", model.KindBasicInfo, "Basic Info", basicInfoEditor, decodeAs[model.BasicInfo], layoutBasicInfo),
		typed("summary", model.KindSummary, "Summary", summaryEditor, decodeAs[model.Summary], layoutSummary),
		typed("experiences", model.KindExperiences, "Experiences", experiencesEditor, decodeAs[model.Experiences], layoutExperiences),
		typed("education", model.KindEducation, "Education", educationEditor, decodeAs[model.Education], layoutEducation),
		typed("skills", model.KindSkills, "Skills", skillsEditor, decodeAs[model.Skills], layoutSkills),
		typed("projects", model.KindProjects, "Projects", projectsEditor, decodeAs[model.Projects], layoutProjects),
	}
}

func typed(id string, kind model.Kind, label string, ed Editor,
	decode func(jsontext.Value) (model.Content, error), lay func(*layout.Builder, model.Content)) Handler {
	src, schema := mustSchema(id)
	return Handler{ID: id, Kind: kind, Label: label, Editor: ed, schemaSrc: src, schema: schema, decode: decode, layout: lay}
}

// decodeAs unmarshals into *T, which must implement model.Content.
func decodeAs[T any, PT interface {
	*T
	model.Content
}](raw jsontext.Value) (model.Content, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return PT(&v), nil
}

func layoutBasicInfo(b *layout.Builder, c model.Content) {
	bi := c.(*model.BasicInfo)
	b.Add(0, layout.Name, bi.Name)
	b.Add(0, layout.Headline, bi.Title)
	b.AddItems(0, layout.Contact, []string{bi.Email, bi.Phone, bi.Location})
	for _, href := range []string{bi.Website, bi.LinkedIn, bi.GitHub} {
		b.AddLink(0, layout.LinkLabel(href), layout.Href(href))
	}
	scalarMembers(b, 0, bi.Extra)
}

func layoutSummary(b *layout.Builder, c model.Content) {
	s := c.(*model.Summary)
	for _, para := range paragraphs(s.Content) {
		b.Add(0, layout.Paragraph, para)
	}
}

func layoutExperiences(b *layout.Builder, c model.Content) {
	for i, e := range c.(*model.Experiences).Items {
		b.Add(i, layout.EntryTitle, joinNonEmpty(" · ", e.Position, e.Company))
		end := e.EndDate
		if e.Current && end == "" {
			end = "Present"
		}
		b.Add(i, layout.EntryMeta, joinNonEmpty(" | ", dateRange(e.StartDate, end), e.Location))
		for _, para := range paragraphs(e.Description) {
			b.Add(i, layout.Paragraph, para)
		}
		for _, h := range e.Highlights {
			b.Add(i, layout.Bullet, h)
		}
	}
}

func layoutEducation(b *layout.Builder, c model.Content) {
	for i, e := range c.(*model.Education).Items {
		b.Add(i, layout.EntryTitle, joinNonEmpty(", ", e.Degree, e.Field))
		b.Add(i, layout.EntryMeta, joinNonEmpty(" | ", e.Institution, dateRange(e.StartDate, e.EndDate), e.Location))
		b.AddField(i, "GPA", e.GPA)
		for _, para := range paragraphs(e.Description) {
			b.Add(i, layout.Paragraph, para)
		}
	}
}

func layoutSkills(b *layout.Builder, c model.Content) {
	var plain []string
	for i, s := range c.(*model.Skills).Items {
		if s.Level == "" && len(s.Keywords) == 0 {
			plain = append(plain, s.Name)
			continue
		}
		text := s.Name
		if s.Level != "" {
			text += " (" + s.Level + ")"
		}
		if len(s.Keywords) > 0 {
			b.AddField(i, text, strings.Join(s.Keywords, ", "))
		} else {
			b.Add(i, layout.Bullet, text)
		}
	}
	b.AddItems(0, layout.Tags, plain)
}

func layoutProjects(b *layout.Builder, c model.Content) {
	for i, p := range c.(*model.Projects).Items {
		b.Add(i, layout.EntryTitle, joinNonEmpty(" · ", p.Name, p.Role))
		b.Add(i, layout.EntryMeta, dateRange(p.StartDate, p.EndDate))
		b.AddLink(i, layout.LinkLabel(p.URL), layout.Href(p.URL))
		for _, para := range paragraphs(p.Description) {
			b.Add(i, layout.Paragraph, para)
		}
		for _, h := range p.Highlights {
			b.Add(i, layout.Bullet, h)
		}
		b.AddItems(i, layout.Tags, p.Technologies)
	}
}

// opaqueLayout renders any JSON value the way a generic form would show it:
// scalars as text, arrays as entries, objects as labelled fields.
func opaqueLayout(b *layout.Builder, raw jsontext.Value) error {
	switch leading(raw) {
	case '{':
		ms, err := members(raw)
		if err != nil {
			return err
		}
		for _, m := range ms {
			if m.name == "list" && leading(m.value) == '[' {
				if err := arrayLayout(b, m.value); err != nil {
					return err
				}
				continue
			}
			fieldLayout(b, 0, m.name, m.value)
		}
		return nil
	case '[':
		return arrayLayout(b, raw)
	case 'n':
		return nil
	case 0:
		return ErrInvalidContent
	}
	b.Add(0, layout.Paragraph, scalarText(raw))
	return nil
}

func arrayLayout(b *layout.Builder, raw jsontext.Value) error {
	els, err := elements(raw)
	if err != nil {
		return err
	}
	for i, el := range els {
		switch leading(el) {
		case '{':
			ms, err := members(el)
			if err != nil {
				return err
			}
			for _, m := range ms {
				fieldLayout(b, i, m.name, m.value)
			}
		case '[':
			b.Add(i, layout.Code, compact(el))
		case 'n':
		default:
			b.Add(i, layout.Bullet, scalarText(el))
		}
	}
	return nil
}

func fieldLayout(b *layout.Builder, index int, name string, v jsontext.Value) {
	label := DeriveLabel(name)
	switch leading(v) {
	case '{':
		b.AddField(index, label, compact(v))
	case '[':
		els, err := elements(v)
		if err != nil {
			return
		}
		var texts []string
		for _, el := range els {
			if k := leading(el); k == '{' || k == '[' {
				b.AddField(index, label, compact(v))
				return
			}
			texts = append(texts, scalarText(el))
		}
		b.AddField(index, label, strings.Join(texts, ", "))
	case 'n':
	default:
		b.AddField(index, label, scalarText(v))
	}
}

// scalarMembers renders the scalar unknown members of a typed section.
func scalarMembers(b *layout.Builder, index int, extra jsontext.Value) {
	if len(extra) == 0 {
		return
	}
	ms, err := members(extra)
	if err != nil {
		return
	}
	for _, m := range ms {
		if k := leading(m.value); k == '{' || k == '[' {
			continue
		}
		fieldLayout(b, index, m.name, m.value)
	}
}

type member struct {
	name  string
	value jsontext.Value
}

// members returns an object's members in document order.
func members(raw jsontext.Value) ([]member, error) {
	dec := jsontext.NewDecoder(bytes.NewReader(raw))
	if _, err := dec.ReadToken(); err != nil {
		return nil, err
	}
	var out []member
	for dec.PeekKind() != '}' {
		tok, err := dec.ReadToken()
		if err != nil {
			return nil, err
		}
		name := tok.String()
		v, err := dec.ReadValue()
		if err != nil {
			return nil, err
		}
		out = append(out, member{name: name, value: v.Clone()})
	}
	return out, nil
}

func elements(raw jsontext.Value) ([]jsontext.Value, error) {
	dec := jsontext.NewDecoder(bytes.NewReader(raw))
	if _, err := dec.ReadToken(); err != nil {
		return nil, err
	}
	var out []jsontext.Value
	for dec.PeekKind() != ']' {
		v, err := dec.ReadValue()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, io.ErrUnexpectedEOF
			}
			return nil, err
		}
		out = append(out, v.Clone())
	}
	return out, nil
}

func scalarText(v jsontext.Value) string {
	if leading(v) == '"' {
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			return s
		}
	}
	return string(bytes.TrimSpace(v))
}

func compact(v jsontext.Value) string {
	c := v.Clone()
	if err := c.Compact(); err != nil {
		return string(v)
	}
	return string(c)
}

func leading(v jsontext.Value) byte {
	v = bytes.TrimLeft(v, " \t\r\n")
	if len(v) == 0 {
		return 0
	}
	return v[0]
}

func paragraphs(text string) []string {
	var out []string
	for _, p := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func joinNonEmpty(sep string, parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}

func dateRange(start, end string) string {
	start, end = strings.TrimSpace(start), strings.TrimSpace(end)
	switch {
	case start != "" && end != "":
		return start + " – " + end
	case start != "":
		return start
	}
	return end
}
