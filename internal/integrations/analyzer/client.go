package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"sync"
	"time"

	"health-companion/internal/domain"
)

const (
	chatPath        = "/chatbot"
	analyzePath     = "/analyze-multiple"
	filesField      = "files"
	defaultTimeout  = 30 * time.Second
	maxResponseSize = 4 << 20
)

// tokenPayload is the expected JSON shape stored in SSM for the API token.
type tokenPayload struct {
	Token string `json:"token"`
}

type Getter interface {
	GetParameter(ctx context.Context, name string) (string, error)
}

// HTTPStatusError captures non-2xx responses that carry no remote error message.
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("analyzer: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// RemoteError is an explicit error reported by the remote collaborator in an
// {"error": "..."} body. Message is the collaborator's text, unchanged.
type RemoteError struct {
	StatusCode int
	URL        string
	Message    string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("analyzer: remote error from %s: %s", e.URL, e.Message)
}

// Client talks to the report analysis backend.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	getter      Getter
	paramPrefix string

	keyOnce sync.Once
	apiKey  string
	keyErr  error
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout replaces the default round-trip timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient = &http.Client{Timeout: d}
		}
	}
}

// WithParamStore enables bearer authentication. The token is read from
// <paramPrefix>/api-token on the first request and reused afterwards.
func WithParamStore(g Getter, paramPrefix string) Option {
	return func(c *Client) {
		c.getter = g
		c.paramPrefix = strings.TrimRight(strings.TrimSpace(paramPrefix), "/")
	}
}

// NewClient creates a Client for the backend at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("analyzer: base URL must not be empty")
	}
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.getter != nil && c.paramPrefix == "" {
		return nil, errors.New("analyzer: parameter prefix must not be empty")
	}
	return c, nil
}

// SendChat posts one chat message and returns the assistant's reply.
func (c *Client) SendChat(ctx context.Context, message string) (domain.BotReply, error) {
	body, err := json.Marshal(chatRequest{Message: message})
	if err != nil {
		return domain.BotReply{}, fmt.Errorf("analyzer: marshal chat request: %w", err)
	}

	url := c.baseURL + chatPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return domain.BotReply{}, fmt.Errorf("analyzer: create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	raw, err := c.do(ctx, req, url)
	if err != nil {
		return domain.BotReply{}, err
	}

	var payload chatResponse
	if err := json.Unmarshal(raw, &payload); err != nil {
		return domain.BotReply{}, fmt.Errorf("analyzer: decode chat response: %w", err)
	}
	if payload.Error != "" {
		return domain.BotReply{}, &RemoteError{StatusCode: http.StatusOK, URL: url, Message: payload.Error}
	}
	return payload.toReply()
}

// AnalyzeReports uploads files in one multipart request and maps the result
// into a Batch ordered as the backend returned it.
func (c *Client) AnalyzeReports(ctx context.Context, files []domain.ReportFile) (domain.Batch, error) {
	if len(files) == 0 {
		return domain.Batch{}, errors.New("analyzer: no files to analyze")
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, f := range files {
		part, err := mw.CreateFormFile(filesField, f.Name)
		if err != nil {
			return domain.Batch{}, fmt.Errorf("analyzer: create form file %q: %w", f.Name, err)
		}
		if _, err := part.Write(f.Content); err != nil {
			return domain.Batch{}, fmt.Errorf("analyzer: write form file %q: %w", f.Name, err)
		}
	}
	if err := mw.Close(); err != nil {
		return domain.Batch{}, fmt.Errorf("analyzer: close multipart body: %w", err)
	}

	url := c.baseURL + analyzePath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return domain.Batch{}, fmt.Errorf("analyzer: create analyze request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	raw, err := c.do(ctx, req, url)
	if err != nil {
		return domain.Batch{}, err
	}

	var payload analyzeResponse
	if err := json.Unmarshal(raw, &payload); err != nil {
		return domain.Batch{}, fmt.Errorf("analyzer: decode analyze response: %w", err)
	}
	if payload.Error != "" {
		return domain.Batch{}, &RemoteError{StatusCode: http.StatusOK, URL: url, Message: payload.Error}
	}
	return payload.toBatch()
}

func (c *Client) do(ctx context.Context, req *http.Request, url string) ([]byte, error) {
	if c.getter != nil {
		apiKey, err := c.resolveAPIKey(ctx)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.resolvedHTTPClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("analyzer: request failed: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		var e errorResponse
		if json.Unmarshal(buf, &e) == nil && e.Error != "" {
			return nil, &RemoteError{StatusCode: res.StatusCode, URL: url, Message: e.Error}
		}
		return nil, &HTTPStatusError{
			StatusCode: res.StatusCode,
			URL:        url,
			Body:       string(buf),
		}
	}

	buf, err := io.ReadAll(io.LimitReader(res.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("analyzer: read response body: %w", err)
	}
	return buf, nil
}

// resolveAPIKey fetches the API key from SSM on the first call and returns the
// cached result on every subsequent call within the same process lifetime.
func (c *Client) resolveAPIKey(ctx context.Context) (string, error) {
	c.keyOnce.Do(func() {
		c.apiKey, c.keyErr = fetchAPIKeyFromParamStore(ctx, c.getter, c.tokenParameterName())
	})
	return c.apiKey, c.keyErr
}

func (c *Client) tokenParameterName() string {
	return c.paramPrefix + "/api-token"
}

func (c *Client) resolvedHTTPClient() *http.Client {
	if c.httpClient != nil {
		return c.httpClient
	}
	return &http.Client{Timeout: defaultTimeout}
}

func fetchAPIKeyFromParamStore(ctx context.Context, getter Getter, name string) (string, error) {
	if getter == nil {
		return "", errors.New("analyzer: paramstore getter is nil")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("analyzer: token parameter name is empty")
	}

	raw, err := getter.GetParameter(ctx, name)
	if err != nil {
		return "", fmt.Errorf("analyzer: fetch token from paramstore: %w", err)
	}
	var tp tokenPayload
	if err := json.Unmarshal([]byte(raw), &tp); err != nil {
		return "", fmt.Errorf("analyzer: unmarshal paramstore token value as JSON: %w", err)
	}
	if tp.Token == "" {
		return "", errors.New("analyzer: API token is empty")
	}
	return tp.Token, nil
}
