package ai

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-json-experiment/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cv-builder/internal/model"
	"cv-builder/internal/tailor"
)

func chatServer(t *testing.T, outputs ...string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		var req chatRequest
		assert.NoError(t, json.Unmarshal(body, &req))
		n := int(calls.Add(1)) - 1
		if n >= len(outputs) {
			n = len(outputs) - 1
		}
		b, _ := json.Marshal(chatResponse{Agent: "auto", Output: outputs[n]})
		w.Write(b)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func doc(t *testing.T) model.Document {
	t.Helper()
	d, err := model.New("default",
		model.RawSection("basicInfo", []byte(`{"name":"A"}`)),
		model.RawSection("summary", []byte(`"generalist"`)),
	)
	require.NoError(t, err)
	return d
}

func TestTailorParsesFencedOutput(t *testing.T) {
	srv, _ := chatServer(t, "Here you go:\n```json\n{\"patch\":{\"summary\":\"Go backend specialist\"}}\n```")
	c := NewClient(srv.URL, WithRateLimit(0, 0))
	r, err := c.Tailor(context.Background(), doc(t), "Senior Go engineer")
	require.NoError(t, err)
	assert.Equal(t, tailor.Patch, r.Kind)

	out, err := tailor.Merge(doc(t), r)
	require.NoError(t, err)
	s, _ := out.Section("summary")
	assert.JSONEq(t, `"Go backend specialist"`, string(s.Raw))
}

func TestTailorRejectsEmptyJobDescription(t *testing.T) {
	_, err := NewClient("http://unused").Tailor(context.Background(), doc(t), "  ")
	assert.ErrorIs(t, err, ErrEmptyJobDescription)
}

func TestRetryOnServerError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		b, _ := json.Marshal(chatResponse{Output: `{"activeTheme":"dark","sections":{}}`})
		w.Write(b)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, WithRetry(3, time.Millisecond), WithRateLimit(0, 0))
	r, err := c.Tailor(context.Background(), doc(t), "job")
	require.NoError(t, err)
	assert.Equal(t, tailor.Full, r.Kind)
	assert.EqualValues(t, 3, calls.Load())
}

func TestClientErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, WithRetry(3, time.Millisecond), WithRateLimit(0, 0)).Chat(context.Background(), "hi")
	var serr *StatusError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, http.StatusBadRequest, serr.Code)
	assert.EqualValues(t, 1, calls.Load())
}

func TestRateLimitHonoursContext(t *testing.T) {
	srv, calls := chatServer(t, `{}`)
	c := NewClient(srv.URL, WithRateLimit(0.001, 1))
	_, err := c.Chat(context.Background(), "first")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c.Chat(ctx, "second")
	assert.Error(t, err)
	assert.EqualValues(t, 1, calls.Load())
}

func TestTailorSection(t *testing.T) {
	srv, _ := chatServer(t, `{"content":"Backend engineer with a decade of Go."}`)
	c := NewClient(srv.URL, WithRateLimit(0, 0))
	r, err := c.TailorSection(context.Background(), doc(t), "summary", "Go role")
	require.NoError(t, err)
	out, err := tailor.Merge(doc(t), r)
	require.NoError(t, err)
	assert.Equal(t, []string{"basicInfo", "summary"}, out.IDs())
	s, _ := out.Section("summary")
	assert.True(t, strings.Contains(string(s.Raw), "decade of Go"))
}

func TestTranslateHeadings(t *testing.T) {
	srv, _ := chatServer(t, `{"basicInfo":"Informações","summary":"Resumo"}`)
	c := NewClient(srv.URL, WithLanguage("Portuguese"), WithRateLimit(0, 0))
	r, err := c.TranslateHeadings(context.Background(), doc(t))
	require.NoError(t, err)
	out, err := tailor.Merge(doc(t), r)
	require.NoError(t, err)
	assert.Equal(t, "Resumo", out.Config("summary").Title)
	assert.Equal(t, "default", out.ActiveTheme())
}
