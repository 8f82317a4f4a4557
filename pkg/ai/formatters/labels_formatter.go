package formatters

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-json-experiment/json"

	"cv-builder/internal/codec"
	"cv-builder/internal/model"
	"cv-builder/internal/section"
	"cv-builder/internal/tailor"
)

// LabelsFormatter translates section headings. The result is a patch that
// only sets sectionConfig titles.
type LabelsFormatter struct {
	chat     Chatter
	registry *section.Registry
	language string
}

func NewLabelsFormatter(chat Chatter, reg *section.Registry, language string) *LabelsFormatter {
	if reg == nil {
		reg = section.Default()
	}
	return &LabelsFormatter{chat: chat, registry: reg, language: language}
}

func (lf *LabelsFormatter) Format(ctx context.Context, doc model.Document) (tailor.Result, error) {
	if strings.TrimSpace(lf.language) == "" {
		return tailor.Result{}, fmt.Errorf("labels: no target language")
	}
	current := DefaultLabels(doc, lf.registry)
	instr := fmt.Sprintf(`You are a professional CV label translator. Translate section headings to %s.

RULES:
1. Return ONLY valid JSON (no markdown, no code blocks, no explanation)
2. Translate VALUES to %s ONLY - do NOT change the KEY names
3. Each value must be a professional heading (1-5 words)
4. MUST include ALL %d keys in the output`, lf.language, lf.language, len(current))

	out, err := lf.chat.Chat(ctx, "Translate CV headings to "+lf.language+":\n"+instr+"\n\n"+mustMarshal(current))
	if err != nil {
		return tailor.Result{}, err
	}
	obj, err := ExtractJSON(out)
	if err != nil {
		return tailor.Result{}, err
	}
	var translated map[string]string
	if err := json.Unmarshal(obj, &translated); err != nil {
		return tailor.Result{}, fmt.Errorf("labels: %w", err)
	}

	b := model.NewBuilder()
	for id := range current {
		title := strings.TrimSpace(translated[id])
		if title == "" {
			continue
		}
		cfg := doc.Config(id)
		cfg.Title = title
		b.SetConfig(id, cfg)
	}
	body, err := codec.Encode(b.Build())
	if err != nil {
		return tailor.Result{}, err
	}
	return tailor.Result{Kind: tailor.Patch, Body: body}, nil
}

// DefaultLabels returns the heading currently shown for each section of doc.
func DefaultLabels(doc model.Document, reg *section.Registry) map[string]string {
	out := make(map[string]string, doc.Len())
	for _, id := range doc.IDs() {
		out[id] = reg.Label(id, doc.Config(id))
	}
	return out
}
