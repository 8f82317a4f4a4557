package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"cv-builder/internal/model"
	"cv-builder/internal/section"
)

func TestCompletenessOfDefaultDocument(t *testing.T) {
	res := Completeness(model.Default(), section.Default())
	assert.Len(t, res, 4)
	for _, r := range res {
		assert.False(t, r.Valid, r.Stage)
	}
	assert.Equal(t, []string{"basicInfo.name", "basicInfo.title", "basicInfo.contact"}, res[0].Missing)
}

func TestCompletenessOfFilledDocument(t *testing.T) {
	d := model.MustNew("",
		model.RawSection("basicInfo", []byte(`{"name":"A","title":"Engineer","email":"a@x.io"}`)),
		model.RawSection("experiences", []byte(`[{"company":"Co","position":"Dev"}]`)),
		model.RawSection("skills", []byte(`["Go"]`)),
		model.RawSection("summary", []byte(`"Builds things."`)),
	)
	for _, r := range Completeness(d, section.Default()) {
		assert.True(t, r.Valid, r.Stage)
		assert.Empty(t, r.Missing, r.Stage)
	}

	hidden, err := d.WithSectionConfig("summary", model.SectionConfig{Hidden: true})
	assert.NoError(t, err)
	assert.False(t, Completeness(hidden, section.Default())[3].Valid)
}
