package codec

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cv-builder/internal/model"
)

func TestRoundTrip(t *testing.T) {
	withCfg, err := model.MustNew("dark",
		model.RawSection("basicInfo", []byte(`{"name":"Zoë Ñúñez","nickname":"Z"}`)),
		model.RawSection("xyz123", []byte(`{"anything":[1,{"deep":true}],"emoji":"🚀"}`)),
	).WithSectionConfig("xyz123", model.SectionConfig{Hidden: true, Order: model.OrderHint(0), Extra: []byte(`{"collapsed":true}`)})
	require.NoError(t, err)

	tests := map[string]model.Document{
		"default":  model.Default(),
		"empty":    model.MustNew(""),
		"unknown":  model.MustNew("modern", model.RawSection("volunteerWork", []byte(`[]`)), model.RawSection("z", []byte(`null`))),
		"unicode":  model.MustNew("classic", model.RawSection("summary", []byte(`"日本語 é \"quoted\""`))),
		"config":   withCfg,
		"scalars":  model.MustNew("x", model.RawSection("n", []byte(`1.50`)), model.RawSection("b", []byte(`false`))),
		"emptyobj": model.MustNew("default", model.RawSection("basicInfo", []byte(`{}`))),
	}
	for name, d := range tests {
		t.Run(name, func(t *testing.T) {
			b, err := Encode(d)
			require.NoError(t, err)
			got, err := Decode(b)
			require.NoError(t, err)
			assert.True(t, got.Equal(d), "round trip changed document: %s", b)

			ib, err := EncodeIndent(d)
			require.NoError(t, err)
			got, err = Decode(ib)
			require.NoError(t, err)
			assert.True(t, got.Equal(d))
		})
	}
}

func TestEncodeCanonicalShape(t *testing.T) {
	d := model.MustNew("dark", model.RawSection("summary", []byte(`"hi"`)), model.RawSection("basicInfo", []byte(`{"name":"A"}`)))
	b, err := Encode(d)
	require.NoError(t, err)
	assert.Equal(t, `{"activeTheme":"dark","sectionConfig":{},"sections":{"summary":"hi","basicInfo":{"name":"A"}}}`, string(b))
}

func TestDecodeFlatForm(t *testing.T) {
	in := `{
	  "basicInfo": {"name": "B"},
	  "activeTheme": "dark",
	  "volunteer": ["Red Cross"],
	  "sectionConfig": {"volunteer": {"hidden": true}}
	}`
	d, err := Decode([]byte(in))
	require.NoError(t, err)
	assert.Equal(t, "dark", d.ActiveTheme())
	assert.Equal(t, []string{"basicInfo", "volunteer"}, d.IDs())
	assert.True(t, d.Config("volunteer").Hidden)

	b, err := Encode(d)
	require.NoError(t, err)
	again, err := Decode(b)
	require.NoError(t, err)
	assert.True(t, again.Equal(d))
}

func TestDecodeKeepsKeyOrder(t *testing.T) {
	d, err := Decode([]byte(`{"sections":{"z":1,"a":2,"m":3}}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"z", "a", "m"}, d.IDs())
}

func TestDecodeRejects(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"empty", ``},
		{"malformed", `{"basicInfo": {`},
		{"not object", `[1,2]`},
		{"scalar root", `"cv"`},
		{"trailing data", `{} {}`},
		{"trailing garbage", `{"a":1} x`},
		{"unterminated", `{"a":1`},
		{"invalid utf8", "{\"a\":\"\xff\"}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.in))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrParse))
			var perr *ParseError
			assert.True(t, errors.As(err, &perr))
		})
	}
}

func TestDecodeAcceptsAnyObject(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		theme   string
		ids     []string
		content map[string]string
		hidden  []string
	}{
		{
			name:  "null theme",
			in:    `{"activeTheme":null,"basicInfo":{"name":"B"}}`,
			ids:   []string{"basicInfo"},
		},
		{
			name: "numeric theme",
			in:   `{"activeTheme":5}`,
		},
		{
			name: "null config",
			in:   `{"sectionConfig":null,"skills":["Go"]}`,
			ids:  []string{"skills"},
		},
		{
			name: "config array",
			in:   `{"sectionConfig":[],"skills":["Go"]}`,
			ids:  []string{"skills"},
		},
		{
			name:   "bad config entry keeps the others",
			in:     `{"sectionConfig":{"skills":{"hidden":"yes"},"summary":{"hidden":true},"a":true,"activeTheme":{}},"skills":[],"summary":""}`,
			ids:    []string{"skills", "summary"},
			hidden: []string{"summary"},
		},
		{
			name:    "scalar sections is a section",
			in:      `{"sections":"legacy text","activeTheme":"dark"}`,
			theme:   "dark",
			ids:     []string{"sections"},
			content: map[string]string{"sections": `"legacy text"`},
		},
		{
			name:    "sections next to other sections is a section",
			in:      `{"a":1,"sections":{"a":2}}`,
			ids:     []string{"a", "sections"},
			content: map[string]string{"a": `1`, "sections": `{"a":2}`},
		},
		{
			name:    "duplicate keys keep first position and last value",
			in:      `{"a":1,"b":2,"a":3}`,
			ids:     []string{"a", "b"},
			content: map[string]string{"a": `3`},
		},
		{
			name:    "nested duplicates",
			in:      `{"a":{"x":1,"y":[{"k":1,"k":2}],"x":2}}`,
			ids:     []string{"a"},
			content: map[string]string{"a": `{"x":2,"y":[{"k":2}]}`},
		},
		{
			name:    "duplicate theme",
			in:      `{"activeTheme":"dark","activeTheme":"modern"}`,
			theme:   "modern",
		},
		{
			name: "empty key dropped",
			in:   `{"":1,"b":2}`,
			ids:  []string{"b"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Decode([]byte(tt.in))
			require.NoError(t, err)
			assert.Equal(t, tt.theme, d.ActiveTheme())
			ids := tt.ids
			if ids == nil {
				ids = []string{}
			}
			assert.Equal(t, ids, d.IDs())
			for id, want := range tt.content {
				s, ok := d.Section(id)
				require.True(t, ok, id)
				assert.JSONEq(t, want, string(s.Raw))
				assert.True(t, s.Valid(), id)
			}
			for _, id := range tt.hidden {
				assert.True(t, d.Config(id).Hidden, id)
			}
			assert.NoError(t, d.Validate())

			b, err := Encode(d)
			require.NoError(t, err)
			again, err := Decode(b)
			require.NoError(t, err)
			assert.True(t, again.Equal(d), "round trip changed document: %s", b)
		})
	}
}

func TestSectionNamedSectionsRoundTrips(t *testing.T) {
	d := model.MustNew("dark",
		model.RawSection("sections", []byte(`{"note":"kept"}`)),
	)
	b, err := Encode(d)
	require.NoError(t, err)
	got, err := Decode(b)
	require.NoError(t, err)
	assert.True(t, got.Equal(d), "round trip changed document: %s", b)
}

func TestEncodeInvalidSection(t *testing.T) {
	d := model.MustNew("default", model.RawSection("ok", []byte(`1`)), model.RawSection("broken", []byte(`{"a"`)))
	_, err := Encode(d)
	var eerr *EncodeError
	require.ErrorAs(t, err, &eerr)
	assert.Equal(t, "broken", eerr.SectionID)
}

func TestDecodeReaderLimit(t *testing.T) {
	big := `{"a":"` + strings.Repeat("x", MaxDocumentSize) + `"}`
	_, err := DecodeReader(strings.NewReader(big))
	assert.ErrorIs(t, err, ErrParse)

	d, err := DecodeReader(strings.NewReader(`{"activeTheme":"dark"}`))
	require.NoError(t, err)
	assert.Equal(t, "dark", d.ActiveTheme())
}
