package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/elee1766/playground/src/catalog"
	"github.com/elee1766/playground/src/chat"
)

const (
	defaultBaseURL = "http://localhost:5000/api"
	defaultTimeout = 30 * time.Second

	// error bodies are kept in logs only up to this size
	maxLoggedBody = 512
)

var (
	_ catalog.Source = (*Client)(nil)
	_ chat.Backend   = (*Client)(nil)
)

// Client talks to the model playground backend.
type Client struct {
	config     Config
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
	baseURL    string
}

// NewClient creates a new backend API client.
func NewClient(config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if config.Timeout == 0 {
		config.Timeout = defaultTimeout
	}
	if config.RetryCount <= 0 {
		config.RetryCount = 3
	}
	if config.RetryDelay == 0 {
		config.RetryDelay = time.Second
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: config.Timeout,
		}
	}

	var limiter *rate.Limiter
	if config.RequestsPerMinute > 0 {
		burst := config.BurstSize
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(config.RequestsPerMinute)), burst)
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "api_client")

	return &Client{
		config:     config,
		httpClient: httpClient,
		limiter:    limiter,
		logger:     logger,
		baseURL:    config.BaseURL,
	}
}

// BaseURL returns the API root this client targets.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// call performs one API exchange and returns the body of a 2xx response.
// Non-2xx answers become *APIError when the body is a JSON object and
// *TransportError otherwise.
func (c *Client) call(ctx context.Context, method, path string, query url.Values, payload any) ([]byte, error) {
	op := method + " " + path
	logger := c.logger.With("method", method, "path", path)

	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &TransportError{Op: op, Err: err}
		}
	}

	req, err := c.newRequest(ctx, method, path, query, body)
	if err != nil {
		return nil, err
	}

	var resp *http.Response
	if method == http.MethodGet {
		resp, err = c.doRequestWithRetry(req)
	} else {
		resp, err = c.httpClient.Do(req)
	}
	if err != nil {
		logger.Debug("request failed", "error", err)
		return nil, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.Debug("received error response", "status_code", resp.StatusCode, "body", truncate(respBody))
		return nil, c.handleError(op, resp.StatusCode, respBody)
	}
	return respBody, nil
}

// callJSON performs call and decodes the body into out.
func (c *Client) callJSON(ctx context.Context, method, path string, query url.Values, payload, out any) error {
	body, err := c.call(ctx, method, path, query, payload)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		c.logger.Debug("failed to decode response", "path", path, "error", err)
		return &TransportError{Op: method + " " + path, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}

// newRequest creates a new HTTP request with the appropriate headers.
func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body []byte) (*http.Request, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range c.config.Headers {
		req.Header.Set(k, v)
	}

	return req, nil
}

// doRequestWithRetry performs an idempotent HTTP request with retry logic.
// The final server error response is returned as-is so its body can be read.
func (c *Client) doRequestWithRetry(req *http.Request) (*http.Response, error) {
	var lastErr error

	logger := c.logger.With("method", "doRequestWithRetry", "url", req.URL.String())

	for i := 0; i < c.config.RetryCount; i++ {
		last := i == c.config.RetryCount-1

		resp, err := c.httpClient.Do(req.Clone(req.Context()))
		if err != nil {
			lastErr = err
			logger.Debug("request attempt failed", "attempt", i+1, "error", err)
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			if !last {
				if err := c.sleep(req.Context(), i); err != nil {
					return nil, err
				}
			}
			continue
		}

		// Success or client error - return immediately
		if resp.StatusCode < 500 || last {
			return resp, nil
		}

		// Server error - retry
		resp.Body.Close()
		lastErr = fmt.Errorf("server error: %d", resp.StatusCode)
		logger.Debug("server error, retrying", "attempt", i+1, "status_code", resp.StatusCode)
		if err := c.sleep(req.Context(), i); err != nil {
			return nil, err
		}
	}

	logger.Debug("request failed after all retries", "retry_count", c.config.RetryCount, "error", lastErr)
	return nil, fmt.Errorf("request failed after %d attempts: %w", c.config.RetryCount, lastErr)
}

func (c *Client) sleep(ctx context.Context, attempt int) error {
	t := time.NewTimer(c.config.RetryDelay * time.Duration(attempt+1))
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// handleError processes error responses from the API.
func (c *Client) handleError(op string, status int, body []byte) error {
	var env envelope
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' || json.Unmarshal(trimmed, &env) != nil {
		return &TransportError{
			Op:         op,
			StatusCode: status,
			Err:        fmt.Errorf("unreadable error response: %s", truncate(body)),
		}
	}
	return env.rejection(status)
}

func truncate(body []byte) string {
	if len(body) > maxLoggedBody {
		return string(body[:maxLoggedBody]) + "..."
	}
	return string(body)
}

func pathID(id string) (string, error) {
	if strings.TrimSpace(id) == "" {
		return "", ErrMissingID
	}
	return url.PathEscape(id), nil
}
