// Package formatters holds the focused prompts sent to the AI service. Each
// formatter asks for one narrow piece of a CV and turns the answer into a
// tailoring result.
package formatters

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
)

// Chatter sends one prompt to the AI service and returns its raw output.
type Chatter interface {
	Chat(ctx context.Context, input string) (string, error)
}

// ErrNoJSON is returned when the model output holds no JSON object.
var ErrNoJSON = errors.New("ai-service returned non-json content")

// ExtractJSON pulls the JSON object out of model output that may be wrapped
// in prose or markdown code fences.
func ExtractJSON(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
		s = strings.TrimSpace(s)
	}
	if v := jsontext.Value(s); strings.HasPrefix(s, "{") && v.IsValid() {
		return []byte(s), nil
	}
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start >= 0 && end > start {
		sub := []byte(s[start : end+1])
		if jsontext.Value(sub).IsValid() {
			return sub, nil
		}
	}
	return nil, fmt.Errorf("%w: %.80q", ErrNoJSON, s)
}

// member returns the named top-level member of a JSON object.
func member(obj []byte, name string) (jsontext.Value, error) {
	var m map[string]jsontext.Value
	if err := json.Unmarshal(obj, &m); err != nil {
		return nil, err
	}
	v, ok := m[name]
	if !ok {
		return nil, fmt.Errorf("%w: missing %q", ErrNoJSON, name)
	}
	return bytes.Clone(v), nil
}

func mustMarshal(v any) string {
	b, err := json.Marshal(v, json.Deterministic(true))
	if err != nil {
		return "{}"
	}
	return string(b)
}
