package model

import (
	"testing"

	"github.com/go-json-experiment/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummaryKeepsWireForm(t *testing.T) {
	for _, in := range []string{`"plain text"`, `{"content":"boxed","tone":"formal"}`} {
		var s Summary
		require.NoError(t, json.Unmarshal([]byte(in), &s))
		out, err := json.Marshal(s)
		require.NoError(t, err)
		assert.JSONEq(t, in, string(out))
	}
}

func TestListKeepsWireForm(t *testing.T) {
	tests := []string{
		`[{"company":"Acme","position":"Dev"}]`,
		`{"list":[{"company":"Acme","badge":"gold"}],"collapsed":true}`,
		`{"list":[]}`,
	}
	for _, in := range tests {
		var e Experiences
		require.NoError(t, json.Unmarshal([]byte(in), &e))
		out, err := json.Marshal(e)
		require.NoError(t, err)
		assert.JSONEq(t, in, string(out))
	}
}

func TestSkillsMixedItems(t *testing.T) {
	in := `["Go",{"name":"SQL","level":"expert"}]`
	var s Skills
	require.NoError(t, json.Unmarshal([]byte(in), &s))
	require.Len(t, s.Items, 2)
	assert.Equal(t, "Go", s.Items[0].Name)
	assert.Equal(t, "expert", s.Items[1].Level)

	out, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, in, string(out))
}

func TestNewSectionFromContent(t *testing.T) {
	sec, err := NewSection("basicInfo", &BasicInfo{Name: "Ada", Email: "ada@example.com"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Ada","email":"ada@example.com"}`, string(sec.Raw))

	sec, err = NewSection("projects", &Projects{List: NewList(Project{Name: "cv"})})
	require.NoError(t, err)
	assert.JSONEq(t, `{"list":[{"name":"cv"}]}`, string(sec.Raw))

	_, err = NewSection("sectionConfig", NewSummary("x"))
	assert.ErrorIs(t, err, ErrReservedID)
}
