package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDoc(t *testing.T) Document {
	t.Helper()
	d, err := New("dark",
		RawSection("basicInfo", []byte(`{"name":"Ada"}`)),
		RawSection("summary", []byte(`"hello"`)),
		RawSection("xyz123", []byte(`[1,2,3]`)),
	)
	require.NoError(t, err)
	return d
}

func TestNewRejectsReservedAndDuplicateIDs(t *testing.T) {
	tests := []struct {
		name string
		ids  []string
		want error
	}{
		{"reserved theme key", []string{"activeTheme"}, ErrReservedID},
		{"reserved config key", []string{"sectionConfig"}, ErrReservedID},
		{"empty", []string{""}, ErrEmptyID},
		{"duplicate", []string{"summary", "summary"}, ErrDuplicateID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var secs []Section
			for _, id := range tt.ids {
				secs = append(secs, RawSection(id, []byte(`{}`)))
			}
			_, err := New(DefaultThemeID, secs...)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want))
		})
	}
}

func TestMutatorsDoNotAlterReceiver(t *testing.T) {
	d := sampleDoc(t)
	before := d.Clone()

	d2, err := d.WithSection(RawSection("summary", []byte(`"changed"`)))
	require.NoError(t, err)
	d3 := d2.WithTheme("modern").WithoutSection("xyz123")
	d4, err := d3.WithSectionConfig("basicInfo", SectionConfig{Hidden: true})
	require.NoError(t, err)

	assert.True(t, d.Equal(before))
	assert.Equal(t, []string{"basicInfo", "summary", "xyz123"}, d.IDs())
	assert.Equal(t, []string{"basicInfo", "summary"}, d4.IDs())
	assert.Equal(t, "modern", d4.ActiveTheme())
	assert.True(t, d4.Config("basicInfo").Hidden)
	assert.False(t, d.Config("basicInfo").Hidden)

	s, ok := d2.Section("summary")
	require.True(t, ok)
	assert.JSONEq(t, `"changed"`, string(s.Raw))
}

func TestSectionAccessorReturnsCopy(t *testing.T) {
	d := sampleDoc(t)
	s, ok := d.Section("basicInfo")
	require.True(t, ok)
	s.Raw[2] = 'X'

	again, _ := d.Section("basicInfo")
	assert.Equal(t, `{"name":"Ada"}`, string(again.Raw))
}

func TestWithSectionAppendsNewID(t *testing.T) {
	d := sampleDoc(t)
	d2, err := d.WithSection(RawSection("volunteerWork", []byte(`{"list":[]}`)))
	require.NoError(t, err)
	assert.Equal(t, []string{"basicInfo", "summary", "xyz123", "volunteerWork"}, d2.IDs())

	_, err = d.WithSection(RawSection("activeTheme", []byte(`"x"`)))
	assert.ErrorIs(t, err, ErrReservedID)
}

func TestDisplayOrder(t *testing.T) {
	d := sampleDoc(t)

	ids := func(ss []Section) []string {
		out := make([]string, len(ss))
		for i, s := range ss {
			out[i] = s.ID
		}
		return out
	}

	assert.Equal(t, []string{"basicInfo", "summary", "xyz123"}, ids(d.DisplayOrder()))

	d, err := d.WithSectionConfig("xyz123", SectionConfig{Order: OrderHint(-1)})
	require.NoError(t, err)
	assert.Equal(t, []string{"xyz123", "basicInfo", "summary"}, ids(d.DisplayOrder()))

	// A hint equal to an insertion index ties and keeps insertion order.
	d, err = d.WithSectionConfig("xyz123", SectionConfig{Order: OrderHint(1)})
	require.NoError(t, err)
	assert.Equal(t, []string{"basicInfo", "summary", "xyz123"}, ids(d.DisplayOrder()))

	d, err = d.WithSectionConfig("summary", SectionConfig{Hidden: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"basicInfo", "xyz123"}, ids(d.Visible()))
}

func TestEqualCanonicalizesJSON(t *testing.T) {
	a := MustNew("default", RawSection("basicInfo", []byte(`{"name":"A","title":"B"}`)))
	b := MustNew("default", RawSection("basicInfo", []byte(`{ "title": "B", "name": "A" }`)))
	c := MustNew("default", RawSection("basicInfo", []byte(`{"name":"A","title":"C"}`)))

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(a.WithTheme("dark")))

	withCfg, err := a.WithSectionConfig("basicInfo", SectionConfig{Order: OrderHint(2)})
	require.NoError(t, err)
	assert.False(t, a.Equal(withCfg))
	assert.True(t, withCfg.Equal(withCfg.Clone()))
}

func TestEqualOrderMatters(t *testing.T) {
	a := MustNew("default", RawSection("a", []byte(`1`)), RawSection("b", []byte(`2`)))
	b := MustNew("default", RawSection("b", []byte(`2`)), RawSection("a", []byte(`1`)))
	assert.False(t, a.Equal(b))
}

func TestDefault(t *testing.T) {
	d := Default()
	assert.Equal(t, DefaultThemeID, d.ActiveTheme())
	assert.Equal(t, []string{"basicInfo", "summary", "experiences", "education", "skills", "projects"}, d.IDs())
	require.NoError(t, d.Validate())
}

func TestValidate(t *testing.T) {
	d := MustNew("default", RawSection("broken", []byte(`{"a":`)), RawSection("ok", []byte(`true`)))
	err := d.Validate()
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Problems, 1)
	assert.True(t, IsInvalidContent(err))
	assert.Equal(t, []string{"broken"}, d.InvalidSections())
}

func TestIsReserved(t *testing.T) {
	for _, k := range []string{"activeTheme", "sectionConfig"} {
		assert.True(t, IsReserved(k), k)
	}
	for _, k := range []string{"basicInfo", "ActiveTheme", "section", "sections"} {
		assert.False(t, IsReserved(k), k)
	}
}
