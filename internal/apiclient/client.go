// Package apiclient is the single outbound path to the SSC REST API.
//
// Every call goes through Client.Call, which owns the wire rules:
//   - JSON bodies get Content-Type: application/json, multipart bodies get the
//     boundary type from the multipart writer and nothing else
//   - a bearer token, when given, becomes "Authorization: Bearer <token>"
//   - the response is read as text and parsed as JSON if it is JSON; an empty
//     or non-JSON body is a nil result, not a failure
//   - a non-2xx status or a transport failure becomes one apperror request
//     error carrying a message fit for display
//
// Calls are fire-once. There are no retries and no backoff.
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
	"strconv"
	"strings"
	"time"

	"github.com/rs/xid"
	"golang.org/x/oauth2"

	"github.com/sakif/ssc-portal/internal/apperror"
)

// maxResponseBytes bounds how much of a response body is read.
const maxResponseBytes = 10 << 20

// CallOptions describes one request. Body may be nil, a *Form for multipart,
// or any value encoding/json can marshal.
type CallOptions struct {
	Method string
	Body   any
	Token  string
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *Metrics
}

// New creates a client for the API rooted at baseURL. metrics may be nil.
func New(baseURL string, timeout time.Duration, logger *slog.Logger, metrics *Metrics) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		metrics:    metrics,
	}
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Call issues one request and returns the parsed JSON body (nil when the body
// is empty or not JSON).
func (c *Client) Call(ctx context.Context, path string, opts CallOptions) (json.RawMessage, error) {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	body, contentType, err := encodeBody(opts.Body)
	if err != nil {
		return nil, apperror.RequestFailed(0, "Request failed", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, apperror.RequestFailed(0, "Request failed", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	requestID := xid.New().String()
	req.Header.Set("X-Request-ID", requestID)
	if opts.Token != "" {
		(&oauth2.Token{AccessToken: opts.Token, TokenType: "Bearer"}).SetAuthHeader(req)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		c.metrics.observe(method, path, "error", elapsed)
		c.logger.Error("api call failed",
			slog.String("request_id", requestID),
			slog.String("method", method),
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return nil, apperror.RequestFailed(0, networkMessage(err), err)
	}
	defer resp.Body.Close()

	c.metrics.observe(method, path, strconv.Itoa(resp.StatusCode), elapsed)

	text, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, apperror.RequestFailed(resp.StatusCode, "Request failed", err)
	}
	parsed := parseBody(text)

	c.logger.Debug("api call",
		slog.String("request_id", requestID),
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", elapsed),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apperror.RequestFailed(resp.StatusCode, failureMessage(parsed, resp.StatusCode), nil)
	}
	return parsed, nil
}

func encodeBody(body any) (io.Reader, string, error) {
	switch b := body.(type) {
	case nil:
		return nil, "application/json", nil
	case *Form:
		buf, contentType, err := b.encode()
		if err != nil {
			return nil, "", err
		}
		return buf, contentType, nil
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, "", fmt.Errorf("encoding request body: %w", err)
		}
		return bytes.NewReader(data), "application/json", nil
	}
}

// parseBody returns text as JSON when it is valid JSON, otherwise nil.
func parseBody(text []byte) json.RawMessage {
	text = bytes.TrimSpace(text)
	if len(text) == 0 || !json.Valid(text) {
		return nil
	}
	return json.RawMessage(text)
}

// failureMessage picks message, then error, then the status text.
func failureMessage(parsed json.RawMessage, status int) string {
	if len(parsed) > 0 && parsed[0] == '{' {
		var fields struct {
			Message json.RawMessage `json:"message"`
			Error   json.RawMessage `json:"error"`
		}
		if err := json.Unmarshal(parsed, &fields); err == nil {
			if msg := stringField(fields.Message); msg != "" {
				return msg
			}
			if msg := stringField(fields.Error); msg != "" {
				return msg
			}
		}
	}
	if text := http.StatusText(status); text != "" {
		return text
	}
	return "Request failed"
}

func stringField(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

func networkMessage(err error) string {
	var netErr interface{ Timeout() bool }
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return "Request timed out"
	}
	if errors.Is(err, context.Canceled) {
		return "Request canceled"
	}
	return "Failed to fetch"
}
