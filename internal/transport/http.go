package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/kingrea/groupassess/internal/config"
	"github.com/kingrea/groupassess/internal/i18n"
)

const (
	// DefaultTimeout bounds a single handler round-trip.
	DefaultTimeout = 30 * time.Second
	// DefaultMaxBodyBytes limits handler responses to 4 MB.
	DefaultMaxBodyBytes int64 = 4 << 20

	msgLoadFailed       = "This section could not be loaded."
	msgSubmitFailed     = "This response could not be submitted."
	msgAssessFailed     = "This assessment could not be submitted."
	msgUnexpectedFormat = "The server returned an unexpected response."
)

// Logger receives one line per request.
type Logger interface {
	Printf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Printf(string, ...any) {}

// Settings captures how the HTTP client reaches block handlers.
type Settings struct {
	HandlerURL   func(handler string) string
	Timeout      time.Duration
	MaxBodyBytes int64
}

// SettingsFromConfig builds Settings from the workspace configuration.
func SettingsFromConfig(cfg *config.Config) Settings {
	settings := Settings{Timeout: DefaultTimeout, MaxBodyBytes: DefaultMaxBodyBytes}
	if cfg != nil {
		settings.HandlerURL = cfg.HandlerURL
		settings.Timeout = cfg.Timeout()
	}
	settings.normalize()
	return settings
}

func (s *Settings) normalize() {
	if s.Timeout <= 0 {
		s.Timeout = DefaultTimeout
	}
	if s.MaxBodyBytes <= 0 {
		s.MaxBodyBytes = DefaultMaxBodyBytes
	}
}

// HTTPClient implements Client against the platform's JSON and HTML handlers.
type HTTPClient struct {
	settings  Settings
	http      *http.Client
	logger    Logger
	lookup    i18n.Lookup
	requestID func() string
	renders   singleflight.Group
}

var _ Client = (*HTTPClient)(nil)

// Option customizes client construction.
type Option func(*HTTPClient)

// WithLogger overrides the default no-op logger.
func WithLogger(l Logger) Option {
	return func(c *HTTPClient) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithHTTPClient swaps the underlying *http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *HTTPClient) {
		if h != nil {
			c.http = h
		}
	}
}

// WithLookup sets the text lookup used for client-generated messages.
func WithLookup(fn i18n.Lookup) Option {
	return func(c *HTTPClient) {
		c.lookup = i18n.OrIdentity(fn)
	}
}

// WithRequestID overrides the X-Request-ID generator.
func WithRequestID(fn func() string) Option {
	return func(c *HTTPClient) {
		if fn != nil {
			c.requestID = fn
		}
	}
}

// NewHTTPClient prepares a client using the provided settings.
func NewHTTPClient(settings Settings, opts ...Option) *HTTPClient {
	settings.normalize()
	c := &HTTPClient{
		settings:  settings,
		http:      &http.Client{},
		logger:    nopLogger{},
		lookup:    i18n.Identity,
		requestID: uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Render fetches the markup for a named fragment. Concurrent renders of
// the same fragment share one request.
func (c *HTTPClient) Render(ctx context.Context, name string) (string, error) {
	v, err, _ := c.renders.Do(name, func() (any, error) {
		status, body, err := c.post(ctx, "render_"+name, "", nil)
		if err != nil || status/100 != 2 {
			c.logger.Printf("transport: render %s failed: status=%d err=%v", name, status, err)
			return "", &Error{Message: c.lookup(msgLoadFailed)}
		}
		return string(body), nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

type submitRequest struct {
	Submission string `json:"submission"`
	Order      int    `json:"order"`
}

// SubmitResponse sends one part of the group project. The handler answers
// [success, message] or [success, code, message].
func (c *HTTPClient) SubmitResponse(ctx context.Context, text string, ordinal int) error {
	payload, err := json.Marshal(submitRequest{Submission: text, Order: ordinal})
	if err != nil {
		return fmt.Errorf("transport: encode submission: %w", err)
	}
	status, body, err := c.post(ctx, "submit_project_part", "application/json", payload)
	if err != nil || status/100 != 2 {
		c.logger.Printf("transport: submit_project_part failed: status=%d err=%v", status, err)
		return &Error{Message: c.lookup(msgSubmitFailed)}
	}
	var parts []json.RawMessage
	if err := json.Unmarshal(body, &parts); err != nil || len(parts) == 0 {
		return &Error{Message: c.lookup(msgUnexpectedFormat)}
	}
	var ok bool
	if err := json.Unmarshal(parts[0], &ok); err != nil {
		return &Error{Message: c.lookup(msgUnexpectedFormat)}
	}
	if ok {
		return nil
	}
	strs := make([]string, 0, len(parts)-1)
	for _, raw := range parts[1:] {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return &Error{Message: c.lookup(msgUnexpectedFormat)}
		}
		strs = append(strs, s)
	}
	switch len(strs) {
	case 0:
		return &Error{}
	case 1:
		return &Error{Message: strs[0]}
	default:
		return &Error{Code: strs[0], Message: strs[1]}
	}
}

type assessResponse struct {
	Success bool   `json:"success"`
	Msg     string `json:"msg"`
}

// SubmitAssessment sends a scored rubric for the current group member.
func (c *HTTPClient) SubmitAssessment(ctx context.Context, a Assessment) error {
	if a.SelectedOptions == nil {
		a.SelectedOptions = map[string]string{}
	}
	if a.CriterionFeedback == nil {
		a.CriterionFeedback = map[string]string{}
	}
	payload, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("transport: encode assessment: %w", err)
	}
	status, body, err := c.post(ctx, "group_assess", "application/json", payload)
	if err != nil || status/100 != 2 {
		c.logger.Printf("transport: group_assess failed: status=%d err=%v", status, err)
		return &Error{Message: c.lookup(msgAssessFailed)}
	}
	var resp assessResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return &Error{Message: c.lookup(msgUnexpectedFormat)}
	}
	if !resp.Success {
		return &Error{Message: resp.Msg}
	}
	return nil
}

type joinRequest struct {
	StudentName  string `json:"student_name"`
	StudentEmail string `json:"student_email"`
}

// JoinGroup adds the student to a group and returns the rendered group section.
func (c *HTTPClient) JoinGroup(ctx context.Context, name, email string) (string, error) {
	payload, err := json.Marshal(joinRequest{StudentName: name, StudentEmail: email})
	if err != nil {
		return "", fmt.Errorf("transport: encode join: %w", err)
	}
	status, body, err := c.post(ctx, "join_group", "application/json", payload)
	if err != nil || status/100 != 2 {
		c.logger.Printf("transport: join_group failed: status=%d err=%v", status, err)
		return "", &Error{Message: c.lookup(msgLoadFailed)}
	}
	return string(body), nil
}

func (c *HTTPClient) post(ctx context.Context, handler, contentType string, payload []byte) (int, []byte, error) {
	if c.settings.HandlerURL == nil {
		return 0, nil, fmt.Errorf("transport: no handler url resolver configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, c.settings.Timeout)
	defer cancel()

	target := c.settings.HandlerURL(handler)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(payload))
	if err != nil {
		return 0, nil, fmt.Errorf("transport: build %s request: %w", handler, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	id := c.requestID()
	req.Header.Set("X-Request-ID", id)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("transport: %s: %w", handler, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, c.settings.MaxBodyBytes))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("transport: read %s response: %w", handler, err)
	}
	c.logger.Printf("transport: POST %s id=%s status=%d in %s", strings.TrimSpace(handler), id, resp.StatusCode, time.Since(start).Round(time.Millisecond))
	return resp.StatusCode, body, nil
}
