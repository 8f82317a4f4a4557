// Package ai talks to the internal ai-service that tailors CV content for a
// job description.
package ai

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-json-experiment/json"
	"golang.org/x/time/rate"

	"cv-builder/internal/codec"
	"cv-builder/internal/model"
	"cv-builder/internal/section"
	"cv-builder/internal/tailor"
	"cv-builder/pkg/ai/formatters"
)

var ErrEmptyJobDescription = errors.New("job description is empty")

// StatusError is returned when the ai-service answers with a non-200 status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("ai-service returned non-200 status: %d", e.Code)
}

// Client calls the ai-service chat endpoint. Requests are throttled by a
// token bucket shared by all callers of one Client.
type Client struct {
	BaseURL  string
	HTTP     *http.Client
	Language string

	registry *section.Registry
	limiter  *rate.Limiter
	attempts int
	backoff  time.Duration
	log      *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.HTTP = h } }

func WithLanguage(lang string) Option { return func(c *Client) { c.Language = lang } }

func WithRegistry(r *section.Registry) Option { return func(c *Client) { c.registry = r } }

// WithRateLimit allows perSec requests per second with the given burst. A
// non-positive rate disables throttling.
func WithRateLimit(perSec float64, burst int) Option {
	return func(c *Client) {
		if perSec <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSec), burst)
	}
}

func WithRetry(attempts int, backoff time.Duration) Option {
	return func(c *Client) {
		if attempts < 1 {
			attempts = 1
		}
		c.attempts, c.backoff = attempts, backoff
	}
}

func WithLogger(l *slog.Logger) Option { return func(c *Client) { c.log = l } }

// NewClient returns a client for baseURL, falling back to AI_SERVICE_URL and
// then to the in-cluster service name.
func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = os.Getenv("AI_SERVICE_URL")
	}
	if baseURL == "" {
		baseURL = "http://ai-service:8000"
	}
	c := &Client{
		BaseURL:  strings.TrimRight(baseURL, "/"),
		HTTP:     &http.Client{Timeout: 60 * time.Second},
		registry: section.Default(),
		limiter:  rate.NewLimiter(rate.Limit(2), 2),
		attempts: 3,
		backoff:  time.Second,
	}
	for _, o := range opts {
		o(c)
	}
	if c.log == nil {
		c.log = slog.Default()
	}
	return c
}

// doPostWithRetry performs an HTTP POST to the given path with retry/backoff.
// Transport errors and 5xx/429 answers are retried.
func (c *Client) doPostWithRetry(ctx context.Context, path string, body []byte) (*http.Response, error) {
	var lastErr error
	for i := 0; i < c.attempts; i++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.HTTP.Do(req)
		switch {
		case err != nil:
			lastErr = err
		case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			resp.Body.Close()
			lastErr = &StatusError{Code: resp.StatusCode, Body: string(b)}
		default:
			return resp, nil
		}
		c.log.Warn("ai: request failed", "path", path, "attempt", i+1, "err", lastErr)
		// exponential backoff before retrying
		if i < c.attempts-1 {
			select {
			case <-time.After(c.backoff * time.Duration(1<<i)):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	return nil, lastErr
}

type chatRequest struct {
	Agent string `json:"agent"`
	Input string `json:"input"`
}

type chatResponse struct {
	Agent  string `json:"agent"`
	Output string `json:"output"`
}

// Chat sends input to /v1/chat and returns the model output.
func (c *Client) Chat(ctx context.Context, input string) (string, error) {
	b, err := json.Marshal(chatRequest{Agent: "auto", Input: input})
	if err != nil {
		return "", err
	}
	c.log.Debug("ai: POST /v1/chat", "bytes", len(b))

	resp, err := c.doPostWithRetry(ctx, "/v1/chat", b)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	rb, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", &StatusError{Code: resp.StatusCode, Body: string(rb)}
	}
	var out chatResponse
	if err := json.Unmarshal(rb, &out); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	return out.Output, nil
}

const tailorInstructions = `You will receive a CV document as JSON and a job description.
Tailor the CV for the job: reorder, rephrase and emphasise relevant experience, never invent facts.
Keep the document shape exactly: "activeTheme", "sectionConfig" and "sections" with the same section ids.
Unknown sections must be copied through unchanged.
Return ONLY {"kind": "full", "document": {...}} with the complete JSON document,
or {"kind": "patch", "patch": {...}} holding only the sections you changed.
Do NOT include explanatory text, backticks or code fences.`

// Tailor asks the ai-service to rewrite doc for jobDescription. The caller
// sets BaseVersion on the returned result.
func (c *Client) Tailor(ctx context.Context, doc model.Document, jobDescription string) (tailor.Result, error) {
	if strings.TrimSpace(jobDescription) == "" {
		return tailor.Result{}, ErrEmptyJobDescription
	}
	cur, err := codec.Encode(doc)
	if err != nil {
		return tailor.Result{}, err
	}
	instr := tailorInstructions
	if c.Language != "" {
		instr += "\nLANGUAGE: write all text in " + c.Language + "."
	}
	input := instr + "\n\nJOB DESCRIPTION:\n" + jobDescription + "\n\nCV:\n" + string(cur)

	out, err := c.Chat(ctx, input)
	if err != nil {
		return tailor.Result{}, err
	}
	obj, err := formatters.ExtractJSON(out)
	if err != nil {
		return tailor.Result{}, err
	}
	c.log.Info("ai: tailored document", "bytes", len(obj))
	return tailor.ParseResult(obj), nil
}

// TailorSection rewrites only sectionID.
func (c *Client) TailorSection(ctx context.Context, doc model.Document, sectionID, jobDescription string) (tailor.Result, error) {
	if strings.TrimSpace(jobDescription) == "" {
		return tailor.Result{}, ErrEmptyJobDescription
	}
	return formatters.NewSectionFormatter(c, c.registry, c.Language, c.log).Format(ctx, doc, sectionID, jobDescription)
}

// TranslateHeadings sets section titles in the client's language.
func (c *Client) TranslateHeadings(ctx context.Context, doc model.Document) (tailor.Result, error) {
	return formatters.NewLabelsFormatter(c, c.registry, c.Language).Format(ctx, doc)
}
