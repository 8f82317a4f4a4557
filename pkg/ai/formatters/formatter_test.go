package formatters

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cv-builder/internal/model"
	"cv-builder/internal/section"
)

type fixedChat string

func (f fixedChat) Chat(context.Context, string) (string, error) { return string(f), nil }

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`{"a":1}`, `{"a":1}`},
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{`Sure! {"a":{"b":2}} hope that helps`, `{"a":{"b":2}}`},
	}
	for _, tt := range tests {
		got, err := ExtractJSON(tt.in)
		require.NoError(t, err, tt.in)
		assert.JSONEq(t, tt.want, string(got))
	}
	for _, in := range []string{"", "no json here", "{broken"} {
		_, err := ExtractJSON(in)
		assert.ErrorIs(t, err, ErrNoJSON, in)
	}
}

func TestSectionFormatterRejectsSchemaViolation(t *testing.T) {
	d := model.MustNew("", model.RawSection("skills", []byte(`["Go"]`)))
	sf := NewSectionFormatter(fixedChat(`{"content":{"list":"not an array"}}`), section.Default(), "", nil)
	_, err := sf.Format(context.Background(), d, "skills", "job")
	var serr *section.SchemaError
	assert.ErrorAs(t, err, &serr)
}

func TestSectionFormatterUnknownSection(t *testing.T) {
	sf := NewSectionFormatter(fixedChat(`{}`), nil, "", nil)
	_, err := sf.Format(context.Background(), model.MustNew(""), "skills", "job")
	assert.ErrorIs(t, err, ErrUnknownSection)
}

func TestDefaultLabels(t *testing.T) {
	d := model.MustNew("", model.RawSection("xyz123", []byte(`{}`)), model.RawSection("summary", []byte(`""`)))
	d, err := d.WithSectionConfig("summary", model.SectionConfig{Title: "About"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"xyz123": "Xyz123", "summary": "About"}, DefaultLabels(d, section.Default()))
}
