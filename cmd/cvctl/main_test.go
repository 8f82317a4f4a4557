package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-json-experiment/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCV = `{
  "activeTheme": "dark",
  "basicInfo": {"name": "Grace Hopper", "title": "Rear Admiral", "email": "grace@example.com"},
  "summary": "Compiler pioneer.",
  "experiences": {"list": [{"company": "Navy", "position": "Programmer", "highlights": ["Wrote A-0"]}]},
  "skills": ["COBOL", "FLOW-MATIC"]
}`

func writeSample(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cv-data.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestValidate(t *testing.T) {
	out, err := run(t, "validate", writeSample(t, sampleCV))
	require.NoError(t, err)
	assert.Contains(t, out, "ok (4 sections)")
	assert.Contains(t, out, "foundation complete")
}

func TestValidateReportsSchemaProblems(t *testing.T) {
	out, err := run(t, "validate", writeSample(t, `{"skills":{"list":"not an array"}}`))
	assert.ErrorIs(t, err, errInvalidDocument)
	assert.Contains(t, out, "skills")
}

func TestValidateParseError(t *testing.T) {
	_, err := run(t, "validate", writeSample(t, `{"basicInfo":`))
	assert.Error(t, err)
}

func TestExportWritesFile(t *testing.T) {
	dir := t.TempDir()
	out, err := run(t, "export", writeSample(t, sampleCV), "--format", "pdf", "--out", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Grace-Hopper-cv.pdf")

	data, err := os.ReadFile(filepath.Join(dir, "Grace-Hopper-cv.pdf"))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
}

func TestExportJSON(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, "export", writeSample(t, sampleCV), "-f", "json", "-o", dir)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "cv-data.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"name": "Grace Hopper"`)
}

func TestExportUnknownFormat(t *testing.T) {
	_, err := run(t, "export", writeSample(t, sampleCV), "-f", "odt", "-o", t.TempDir())
	assert.Error(t, err)
}

func TestPreview(t *testing.T) {
	path := writeSample(t, sampleCV)

	out, err := run(t, "preview", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Grace Hopper")
	assert.Contains(t, out, "Wrote A-0")

	out, err = run(t, "preview", "--markdown", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Grace Hopper")
	assert.Contains(t, out, "Compiler pioneer.")
}

func TestCatalogCommands(t *testing.T) {
	out, err := run(t, "themes")
	require.NoError(t, err)
	assert.Contains(t, out, "dark")

	out, err = run(t, "sections")
	require.NoError(t, err)
	assert.Contains(t, out, "experiences")
}

func TestTailor(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		out, _ := json.Marshal(map[string]string{
			"agent":  "mock",
			"output": "```json\n{\"kind\":\"patch\",\"patch\":{\"summary\":\"Tailored for Go.\"}}\n```",
		})
		w.Header().Set("Content-Type", "application/json")
		w.Write(out)
	}))
	defer srv.Close()

	jd := filepath.Join(t.TempDir(), "job.txt")
	require.NoError(t, os.WriteFile(jd, []byte("Senior Go engineer"), 0o644))

	out, err := run(t, "tailor", writeSample(t, sampleCV), "--job", jd, "--ai-url", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, out, `"summary": "Tailored for Go."`)
	assert.Contains(t, out, `"name": "Grace Hopper"`)
}

func TestTailorNeedsJob(t *testing.T) {
	_, err := run(t, "tailor", writeSample(t, sampleCV), "--ai-url", "http://127.0.0.1:1")
	assert.EqualError(t, err, "--job is required")
}

func TestToken(t *testing.T) {
	t.Setenv("AUTH_SECRET", "")
	_, err := run(t, "token", "grace")
	assert.Error(t, err)

	t.Setenv("AUTH_SECRET", "test-secret")
	out, err := run(t, "token", "grace")
	require.NoError(t, err)
	assert.Contains(t, out, ".")
}
