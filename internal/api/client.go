package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	// completionsPath is the single route exposed by the gateway (and
	// mirrored by the relay).
	completionsPath = "/v1/chat/completions"

	// MinTimeout is the floor applied to the configured timeout.
	MinTimeout = 10 * time.Second

	// DefaultTimeoutSeconds is used when no timeout is configured.
	DefaultTimeoutSeconds = 120

	// DefaultRetryBackoff is the fixed delay between retry attempts.
	DefaultRetryBackoff = 900 * time.Millisecond

	// bodyPrefixLimit caps how much of an error body is kept.
	bodyPrefixLimit = 240
)

// Client is the interface for talking to the chat-completion gateway.
type Client interface {
	// Chat sends a non-streaming chat request.
	Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error)

	// ChatStream sends a streaming chat request and returns a StreamReader.
	// The reader owns the connection; callers must Close it.
	ChatStream(ctx context.Context, req *ChatRequest) (*StreamReader, error)

	// Ping sends a minimal non-streaming request to verify connectivity.
	Ping(ctx context.Context, model string) error
}

// RetryConfig configures retry behavior. A nil RetryConfig disables
// retries entirely.
type RetryConfig struct {
	// MaxRetries is the number of retry attempts after the first try.
	MaxRetries int

	// Backoff is the fixed delay before each retry.
	Backoff time.Duration
}

// SingleRetry returns the production retry profile: one retry after a
// fixed backoff.
func SingleRetry() RetryConfig {
	return RetryConfig{MaxRetries: 1, Backoff: DefaultRetryBackoff}
}

// ClientConfig contains configuration for the gateway client.
type ClientConfig struct {
	// BaseURL is the normalized gateway base URL (no trailing slash).
	BaseURL string

	// Token is the bearer token passed on every request.
	Token string

	// TimeoutSeconds is the configured request timeout. Values below
	// ten seconds are raised to ten.
	TimeoutSeconds int

	// HTTPClient is an optional custom HTTP client.
	HTTPClient *http.Client

	// Retry configures retry behavior. If nil, retries are disabled.
	Retry *RetryConfig
}

// NewClient creates a new gateway client with the given configuration.
func NewClient(cfg ClientConfig) Client {
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = DefaultTimeoutSeconds
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout < MinTimeout {
		timeout = MinTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		// Timeouts are enforced per request via context so that an
		// open stream is bounded by the same deadline as the headers.
		httpClient = &http.Client{}
	}

	return &client{
		baseURL:    cfg.BaseURL,
		token:      cfg.Token,
		timeout:    timeout,
		httpClient: httpClient,
		retry:      cfg.Retry,
	}
}

type client struct {
	baseURL    string
	token      string
	timeout    time.Duration
	httpClient *http.Client
	retry      *RetryConfig
}

func (c *client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)
}

func isSuccessStatus(code int) bool {
	return code >= 200 && code < 300
}

// truncateBody keeps at most bodyPrefixLimit characters of an upstream
// error body.
func truncateBody(body string) string {
	if len(body) > bodyPrefixLimit {
		return body[:bodyPrefixLimit]
	}
	return body
}

// classify maps a transport error to the taxonomy, distinguishing the
// per-attempt deadline from caller cancellation.
func classify(parent, attempt context.Context, cause error) error {
	if parent.Err() == context.Canceled {
		return fmt.Errorf("%w: %v", ErrCancelled, cause)
	}
	if attempt.Err() == context.DeadlineExceeded {
		return fmt.Errorf("%w: %v", ErrTimeout, cause)
	}
	return &NetworkError{Cause: cause}
}

// dispatch runs a single attempt: marshal, POST, check status. On
// success the caller owns both the response body and the cancel func
// guarding the attempt deadline.
func (c *client) dispatch(ctx context.Context, req *ChatRequest) (*http.Response, context.CancelFunc, error) {
	jsonBody, err := json.Marshal(req)
	if err != nil {
		return nil, nil, fmt.Errorf("marshaling request: %w", err)
	}

	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)

	httpReq, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, c.baseURL+completionsPath, bytes.NewReader(jsonBody))
	if err != nil {
		cancel()
		return nil, nil, fmt.Errorf("creating request: %w", err)
	}
	c.setHeaders(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		cancel()
		return nil, nil, classify(ctx, attemptCtx, err)
	}

	if !isSuccessStatus(resp.StatusCode) {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, bodyPrefixLimit+1))
		resp.Body.Close()
		cancel()
		return nil, nil, &StatusError{
			StatusCode: resp.StatusCode,
			BodyPrefix: truncateBody(string(body)),
		}
	}

	return resp, cancel, nil
}

func (c *client) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	chatReq := *req
	chatReq.Stream = false

	return doWithRetry(ctx, c.retry, func(ctx context.Context) (*ChatResponse, error) {
		resp, cancel, err := c.dispatch(ctx, &chatReq)
		if err != nil {
			return nil, err
		}
		defer cancel()
		defer resp.Body.Close()

		var chatResp ChatResponse
		if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
			// The deadline can fire mid-body; keep timeout and cancel
			// distinct from a decode failure.
			switch {
			case errors.Is(err, context.DeadlineExceeded):
				return nil, fmt.Errorf("%w: %v", ErrTimeout, err)
			case errors.Is(err, context.Canceled):
				return nil, fmt.Errorf("%w: %v", ErrCancelled, err)
			}
			return nil, fmt.Errorf("decoding response: %w", err)
		}
		if chatResp.Error != nil {
			return nil, &APIError{Message: chatResp.Error.Message}
		}
		return &chatResp, nil
	})
}

func (c *client) ChatStream(ctx context.Context, req *ChatRequest) (*StreamReader, error) {
	chatReq := *req
	chatReq.Stream = true

	return doWithRetry(ctx, c.retry, func(ctx context.Context) (*StreamReader, error) {
		resp, cancel, err := c.dispatch(ctx, &chatReq)
		if err != nil {
			return nil, err
		}
		// The StreamReader owns the body and the attempt deadline;
		// both are released by Close or when the stream drains.
		return NewStreamReader(resp.Body, cancel), nil
	})
}

func (c *client) Ping(ctx context.Context, model string) error {
	_, err := c.Chat(ctx, &ChatRequest{
		Model:    model,
		Messages: []Message{{Role: RoleUser, Content: "ping"}},
	})
	return err
}
