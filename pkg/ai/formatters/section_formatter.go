package formatters

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-json-experiment/json/jsontext"

	"cv-builder/internal/model"
	"cv-builder/internal/section"
	"cv-builder/internal/tailor"
)

var ErrUnknownSection = errors.New("document has no such section")

// SectionFormatter rewrites a single section for a job description and
// yields a patch that replaces only that section.
type SectionFormatter struct {
	chat     Chatter
	registry *section.Registry
	language string
	log      *slog.Logger
}

func NewSectionFormatter(chat Chatter, reg *section.Registry, language string, log *slog.Logger) *SectionFormatter {
	if reg == nil {
		reg = section.Default()
	}
	if log == nil {
		log = slog.Default()
	}
	return &SectionFormatter{chat: chat, registry: reg, language: language, log: log}
}

func (sf *SectionFormatter) Format(ctx context.Context, doc model.Document, sectionID, jobDescription string) (tailor.Result, error) {
	sec, ok := doc.Section(sectionID)
	if !ok {
		return tailor.Result{}, fmt.Errorf("%w: %q", ErrUnknownSection, sectionID)
	}
	h := sf.registry.Resolve(sectionID)

	instr := fmt.Sprintf(`Rewrite the CV section %q so it targets the job description below.
Keep every fact true; reorder, rephrase and emphasise, never invent employers, dates or degrees.
Keep the exact JSON shape of the current content, including unknown keys.
Return ONLY a single JSON object {"content": <rewritten section content>} and NOTHING ELSE.`,
		sf.registry.Label(sectionID, doc.Config(sectionID)))
	if sf.language != "" {
		instr += fmt.Sprintf("\nLANGUAGE: write all text in %s.", sf.language)
	}
	if schema := h.Schema(); schema != nil {
		instr += "\n\nJSON-SCHEMA:\n" + string(schema)
	}
	userCtx := map[string]any{
		"section":         sectionID,
		"current":         sec.Raw,
		"job_description": jobDescription,
		"instructions":    instr,
	}

	out, err := sf.chat.Chat(ctx, "Tailor CV section:\n"+mustMarshal(userCtx))
	if err != nil {
		return tailor.Result{}, err
	}
	obj, err := ExtractJSON(out)
	if err != nil {
		return tailor.Result{}, err
	}
	content, err := member(obj, "content")
	if err != nil {
		return tailor.Result{}, err
	}
	if err := h.Validate(jsontext.Value(content)); err != nil {
		sf.log.Warn("ai: tailored section rejected", "section", sectionID, "err", err)
		return tailor.Result{}, err
	}
	return tailor.NewPatch(0, model.RawSection(sectionID, content))
}
