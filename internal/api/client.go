package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "kanda-cli"

	// maxErrorBody bounds how much of a failed response is read
	maxErrorBody = 1 << 20
)

// Client represents an HTTP client for one Kanda base URL (API_URL or WEB_URL)
type Client struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
	logger     zerolog.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithUserAgent overrides the User-Agent header
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithLogger sets the request logger
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithTimeout sets the timeout of the default HTTP client
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// New creates a new API client.
// The default HTTP client keeps a cookie jar so cookie-authenticated
// endpoints see the same credentials across calls.
func New(baseURL string, opts ...Option) *Client {
	jar, _ := cookiejar.New(nil) // only fails with a non-nil options argument

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: defaultTimeout,
			Jar:     jar,
		},
		userAgent: defaultUserAgent,
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the base URL requests are resolved against
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Request describes one call to the API
type Request struct {
	Method string
	// Path is relative to the base URL; absolute http(s) URLs are used unchanged
	Path string
	// Data is JSON-encoded unless it is a *FormData
	Data any
	// Token is sent as a bearer credential when non-empty
	Token string
}

// Response is a successful (2xx) response
type Response struct {
	StatusCode  int
	ContentType string
	// Raw is the undecoded body
	Raw []byte
	// Value holds the decoded body for JSON responses
	Value any
}

// IsJSON reports whether the response declared a JSON content type
func (r *Response) IsJSON() bool {
	return isJSON(r.ContentType)
}

// Text returns the body as a string
func (r *Response) Text() string {
	return string(r.Raw)
}

// Decode unmarshals a JSON body into v
func (r *Response) Decode(v any) error {
	if !r.IsJSON() {
		return fmt.Errorf("response is not JSON (content type %q)", r.ContentType)
	}
	if err := json.Unmarshal(r.Raw, v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Do sends the request.
// Non-2xx responses return an *Error; transport failures are wrapped and returned.
func (c *Client) Do(ctx context.Context, r Request) (*Response, error) {
	method := strings.ToUpper(r.Method)
	if method == "" {
		method = http.MethodGet
	}

	body, contentType, err := encodeBody(r.Data)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, c.resolve(r.Path), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("User-Agent", c.userAgent)
	if r.Token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", r.Token))
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug().Err(err).Str("method", method).Str("path", r.Path).Msg("Request failed")
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	c.logger.Debug().
		Str("method", method).
		Str("path", r.Path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("Request completed")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, newError(resp.StatusCode, raw)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	out := &Response{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Raw:         raw,
	}
	if out.IsJSON() && len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &out.Value); err != nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return out, nil
}

func (c *Client) resolve(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if path == "" {
		return c.baseURL
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}

func encodeBody(data any) (io.Reader, string, error) {
	switch d := data.(type) {
	case nil:
		return nil, "", nil
	case *FormData:
		return d.Encode()
	case json.RawMessage:
		return bytes.NewReader(d), "application/json", nil
	default:
		raw, err := json.Marshal(d)
		if err != nil {
			return nil, "", fmt.Errorf("failed to marshal request: %w", err)
		}
		return bytes.NewReader(raw), "application/json", nil
	}
}

func isJSON(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}
