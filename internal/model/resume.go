package model

import (
	"bytes"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
)

// Go models for the well-known CV sections. Every struct keeps the members it
// does not know about in Extra so a typed round trip never drops data.

// Kind names the content variant of a section.
type Kind string

const (
	KindBasicInfo   Kind = "basicInfo"
	KindSummary     Kind = "summary"
	KindExperiences Kind = "experiences"
	KindEducation   Kind = "education"
	KindSkills      Kind = "skills"
	KindProjects    Kind = "projects"
	KindOpaque      Kind = "opaque"
)

// Content is the closed set of section payloads: one struct per well-known
// section plus Opaque for anything else.
type Content interface {
	Kind() Kind
}

type BasicInfo struct {
	Name     string         `json:"name,omitempty"`
	Title    string         `json:"title,omitempty"`
	Email    string         `json:"email,omitempty"`
	Phone    string         `json:"phone,omitempty"`
	Location string         `json:"location,omitempty"`
	Website  string         `json:"website,omitempty"`
	LinkedIn string         `json:"linkedin,omitempty"`
	GitHub   string         `json:"github,omitempty"`
	Extra    jsontext.Value `json:",unknown"`
}

func (*BasicInfo) Kind() Kind { return KindBasicInfo }

// Summary is stored either as a bare JSON string or as {"content": "..."}.
type Summary struct {
	Content string         `json:"content"`
	Extra   jsontext.Value `json:",unknown"`
	bare    bool
}

func (*Summary) Kind() Kind { return KindSummary }

// NewSummary returns a summary that encodes as a bare string.
func NewSummary(text string) *Summary { return &Summary{Content: text, bare: true} }

func (s Summary) MarshalJSON() ([]byte, error) {
	if s.bare && len(s.Extra) == 0 {
		return json.Marshal(s.Content)
	}
	type plain Summary
	return json.Marshal(plain(s))
}

func (s *Summary) UnmarshalJSON(b []byte) error {
	if leadingByte(b) == '"' {
		var text string
		if err := json.Unmarshal(b, &text); err != nil {
			return err
		}
		*s = Summary{Content: text, bare: true}
		return nil
	}
	type plain Summary
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*s = Summary(p)
	return nil
}

// List holds the entries of a list section. The wire form is either a bare
// array or {"list": [...]}; the form read is the form written back.
type List[T any] struct {
	Items []T
	Extra jsontext.Value
	bare  bool
}

type listObject[T any] struct {
	Items []T            `json:"list"`
	Extra jsontext.Value `json:",unknown"`
}

// NewList returns a list that encodes as {"list": [...]}.
func NewList[T any](items ...T) List[T] { return List[T]{Items: items} }

func (l List[T]) MarshalJSON() ([]byte, error) {
	items := l.Items
	if items == nil {
		items = []T{}
	}
	if l.bare && len(l.Extra) == 0 {
		return json.Marshal(items)
	}
	return json.Marshal(listObject[T]{Items: items, Extra: l.Extra})
}

func (l *List[T]) UnmarshalJSON(b []byte) error {
	if leadingByte(b) == '[' {
		var items []T
		if err := json.Unmarshal(b, &items); err != nil {
			return err
		}
		*l = List[T]{Items: items, bare: true}
		return nil
	}
	var obj listObject[T]
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	*l = List[T]{Items: obj.Items, Extra: obj.Extra}
	return nil
}

type Experience struct {
	Company     string         `json:"company,omitempty"`
	Position    string         `json:"position,omitempty"`
	Location    string         `json:"location,omitempty"`
	StartDate   string         `json:"startDate,omitempty"`
	EndDate     string         `json:"endDate,omitempty"`
	Current     bool           `json:"current,omitzero"`
	Description string         `json:"description,omitempty"`
	Highlights  []string       `json:"highlights,omitempty"`
	Extra       jsontext.Value `json:",unknown"`
}

type Experiences struct{ List[Experience] }

func (*Experiences) Kind() Kind { return KindExperiences }

type EducationEntry struct {
	Institution string         `json:"institution,omitempty"`
	Degree      string         `json:"degree,omitempty"`
	Field       string         `json:"field,omitempty"`
	Location    string         `json:"location,omitempty"`
	StartDate   string         `json:"startDate,omitempty"`
	EndDate     string         `json:"endDate,omitempty"`
	GPA         string         `json:"gpa,omitempty"`
	Description string         `json:"description,omitempty"`
	Extra       jsontext.Value `json:",unknown"`
}

type Education struct{ List[EducationEntry] }

func (*Education) Kind() Kind { return KindEducation }

// Skill is either a bare name or {"name", "level", "keywords"}.
type Skill struct {
	Name     string         `json:"name"`
	Level    string         `json:"level,omitempty"`
	Keywords []string       `json:"keywords,omitempty"`
	Extra    jsontext.Value `json:",unknown"`
	bare     bool
}

// NewSkill returns a skill that encodes as a bare string.
func NewSkill(name string) Skill { return Skill{Name: name, bare: true} }

func (s Skill) MarshalJSON() ([]byte, error) {
	if s.bare && s.Level == "" && len(s.Keywords) == 0 && len(s.Extra) == 0 {
		return json.Marshal(s.Name)
	}
	type plain Skill
	return json.Marshal(plain(s))
}

func (s *Skill) UnmarshalJSON(b []byte) error {
	if leadingByte(b) == '"' {
		var name string
		if err := json.Unmarshal(b, &name); err != nil {
			return err
		}
		*s = Skill{Name: name, bare: true}
		return nil
	}
	type plain Skill
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*s = Skill(p)
	return nil
}

type Skills struct{ List[Skill] }

func (*Skills) Kind() Kind { return KindSkills }

type Project struct {
	Name         string         `json:"name,omitempty"`
	Role         string         `json:"role,omitempty"`
	URL          string         `json:"url,omitempty"`
	Technologies []string       `json:"technologies,omitempty"`
	StartDate    string         `json:"startDate,omitempty"`
	EndDate      string         `json:"endDate,omitempty"`
	Description  string         `json:"description,omitempty"`
	Highlights   []string       `json:"highlights,omitempty"`
	Extra        jsontext.Value `json:",unknown"`
}

type Projects struct{ List[Project] }

func (*Projects) Kind() Kind { return KindProjects }

// Opaque carries the content of a section nobody knows how to type.
type Opaque struct {
	Value jsontext.Value
}

func (Opaque) Kind() Kind { return KindOpaque }

func (o Opaque) MarshalJSON() ([]byte, error) {
	if len(o.Value) == 0 {
		return []byte("null"), nil
	}
	return o.Value.Clone(), nil
}

func leadingByte(b []byte) byte {
	b = bytes.TrimLeft(b, " \t\r\n")
	if len(b) == 0 {
		return 0
	}
	return b[0]
}
