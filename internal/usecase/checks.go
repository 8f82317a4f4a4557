package usecase

import (
	"strings"

	"cv-builder/internal/model"
	"cv-builder/internal/section"
)

// StageResult holds validation state for one stage of a CV.
type StageResult struct {
	Stage   string   `json:"stage"`
	Valid   bool     `json:"valid"`
	Missing []string `json:"missing"`
}

// Completeness checks the well-known sections stage by stage: foundation
// (contact header), history (experience), showcase (projects or skills) and
// synthesis (summary). Hidden sections count as missing.
func Completeness(d model.Document, reg *section.Registry) []StageResult {
	typed := func(id string) model.Content {
		s, ok := d.Section(id)
		if !ok || d.Config(id).Hidden {
			return nil
		}
		c, err := reg.Resolve(id).Decode(s.Raw)
		if err != nil {
			return nil
		}
		return c
	}
	return []StageResult{
		foundationStage(typed("basicInfo")),
		historyStage(typed("experiences")),
		showcaseStage(typed("projects"), typed("skills")),
		synthesisStage(typed("summary")),
	}
}

func newStage(name string) StageResult {
	return StageResult{Stage: name, Valid: true, Missing: []string{}}
}

func (r *StageResult) miss(what string) {
	r.Valid = false
	r.Missing = append(r.Missing, what)
}

// foundationStage validates basicInfo.name, basicInfo.title and a contact.
func foundationStage(c model.Content) StageResult {
	r := newStage("foundation")
	bi, ok := c.(*model.BasicInfo)
	if !ok {
		r.miss("basicInfo")
		return r
	}
	if strings.TrimSpace(bi.Name) == "" {
		r.miss("basicInfo.name")
	}
	if strings.TrimSpace(bi.Title) == "" {
		r.miss("basicInfo.title")
	}
	if bi.Email == "" && bi.Phone == "" {
		r.miss("basicInfo.contact")
	}
	return r
}

// historyStage validates experiences[] with position and company.
func historyStage(c model.Content) StageResult {
	r := newStage("history")
	exp, ok := c.(*model.Experiences)
	if !ok || len(exp.Items) == 0 {
		r.miss("experiences")
		return r
	}
	for _, e := range exp.Items {
		if e.Position == "" || e.Company == "" {
			r.miss("experiences.position/company")
			break
		}
	}
	return r
}

func showcaseStage(projects, skills model.Content) StageResult {
	r := newStage("showcase")
	p, okP := projects.(*model.Projects)
	s, okS := skills.(*model.Skills)
	if (!okP || len(p.Items) == 0) && (!okS || len(s.Items) == 0) {
		r.miss("projects or skills")
	}
	return r
}

func synthesisStage(c model.Content) StageResult {
	r := newStage("synthesis")
	s, ok := c.(*model.Summary)
	if !ok || strings.TrimSpace(s.Content) == "" {
		r.miss("summary")
	}
	return r
}
