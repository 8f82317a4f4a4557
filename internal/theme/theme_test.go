package theme

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveFallsBackToDefault(t *testing.T) {
	def := Resolve(DefaultID)
	for _, id := range []string{"", "nope", "Dark", "DEFAULT"} {
		assert.Equal(t, def, Resolve(id), id)
	}
	assert.Equal(t, "dark", Resolve("dark").ID)
	assert.NotEqual(t, def, Resolve("dark"))
}

func TestCatalog(t *testing.T) {
	assert.Equal(t, []string{"classic", "dark", "default", "minimal", "modern"}, IDs())
	for _, id := range IDs() {
		c, ok := Lookup(id)
		require.True(t, ok)
		assert.Equal(t, id, c.ID)
		assert.NotEmpty(t, c.Name)
		assert.NotEmpty(t, c.Fonts.PDFBody)
	}
	_, ok := Lookup("nope")
	assert.False(t, ok)
}

func TestResolveReturnsCopy(t *testing.T) {
	c := Resolve("dark")
	c.Palette.Background = "#ff0000"
	assert.Equal(t, "#111827", Resolve("dark").Palette.Background)
}

func TestParseCatalogErrors(t *testing.T) {
	_, err := parseCatalog([]byte("dark:\n  name: Dark\n"))
	assert.Error(t, err)

	_, err = parseCatalog([]byte("default:\n  palette:\n    primary: red\n"))
	assert.Error(t, err)

	_, err = parseCatalog([]byte(":::"))
	assert.Error(t, err)
}

func TestColours(t *testing.T) {
	r, g, b, err := ParseHex("#ff8000")
	require.NoError(t, err)
	assert.Equal(t, []uint8{255, 128, 0}, []uint8{r, g, b})

	fr, fg, fb := RGB("bad")
	assert.Zero(t, fr+fg+fb)

	assert.Equal(t, "SKILLS", Resolve("modern").Heading("Skills"))
	assert.Equal(t, "Skills", Resolve("default").Heading("Skills"))
}
