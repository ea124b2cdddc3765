package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// RetryConfig defines the transport retry behavior for the vendor API.
type RetryConfig struct {
	MaxRetries        int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	RetryableStatuses []int
}

// DefaultRetryConfig returns sensible defaults for retries.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
		RetryableStatuses: []int{
			http.StatusRequestTimeout,
			http.StatusTooManyRequests,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout,
		},
	}
}

// HTTPError is a non-2xx response from the vendor API.
type HTTPError struct {
	StatusCode int
	Status     string
	Body       []byte
}

func (e *HTTPError) Error() string {
	if len(e.Body) > 0 {
		return fmt.Sprintf("vendor api: HTTP %d: %s", e.StatusCode, string(e.Body))
	}
	return fmt.Sprintf("vendor api: HTTP %d: %s", e.StatusCode, e.Status)
}

// HTTPClient talks to the remote vendor service. All conversation traffic is
// scoped to one team id, passed as a query parameter the way the API expects.
type HTTPClient struct {
	http    *http.Client
	baseURL string
	teamID  int
	retry   RetryConfig
}

// NewHTTPClient creates a client for the vendor API at baseURL.
func NewHTTPClient(baseURL string, teamID int, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPClient{
		http:    &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		teamID:  teamID,
		retry:   DefaultRetryConfig(),
	}
}

// WithRetry overrides the default retry policy. Returns the client for
// chaining during construction.
func (c *HTTPClient) WithRetry(cfg RetryConfig) *HTTPClient {
	c.retry = cfg
	return c
}

func (c *HTTPClient) ListVendors(ctx context.Context) ([]Vendor, error) {
	var vendors []Vendor
	path := fmt.Sprintf("/vendors/?team_id=%d", c.teamID)
	if err := c.getJSON(ctx, path, &vendors); err != nil {
		return nil, err
	}
	return vendors, nil
}

func (c *HTTPClient) FetchVendorSubset(ctx context.Context, ids []int) ([]Vendor, error) {
	vendors, err := c.ListVendors(ctx)
	if err != nil {
		return nil, err
	}
	wanted := make(map[int]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	subset := make([]Vendor, 0, len(ids))
	for _, v := range vendors {
		if wanted[v.ID] {
			subset = append(subset, v)
		}
	}
	return subset, nil
}

func (c *HTTPClient) CreateConversation(ctx context.Context, vendorID int, title string) (Conversation, error) {
	var conversation Conversation
	path := fmt.Sprintf("/conversations/?team_id=%d", c.teamID)
	body := map[string]any{"vendor_id": vendorID, "title": title}
	if err := c.postJSON(ctx, path, body, &conversation); err != nil {
		return Conversation{}, err
	}
	return conversation, nil
}

// SendMessage posts the content as a multipart/form-data part; the vendor API
// rejects plain JSON message bodies.
func (c *HTTPClient) SendMessage(ctx context.Context, conversationID int, content string) (Message, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if err := writer.WriteField("content", content); err != nil {
		return Message{}, fmt.Errorf("encode message body: %w", err)
	}
	if err := writer.Close(); err != nil {
		return Message{}, fmt.Errorf("encode message body: %w", err)
	}

	path := "/messages/" + strconv.Itoa(conversationID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(buf.Bytes()))
	if err != nil {
		return Message{}, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var message Message
	if err := c.do(req, &message); err != nil {
		return Message{}, err
	}
	return message, nil
}

func (c *HTTPClient) GetMessages(ctx context.Context, conversationID int) ([]Message, error) {
	var messages []Message
	if err := c.getJSON(ctx, "/messages/"+strconv.Itoa(conversationID), &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

func (c *HTTPClient) getJSON(ctx context.Context, path string, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, result)
}

func (c *HTTPClient) postJSON(ctx context.Context, path string, body, result any) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, result)
}

// do executes the request with bounded exponential backoff on transport
// errors and retryable statuses, then decodes the JSON response.
func (c *HTTPClient) do(req *http.Request, result any) error {
	body, err := bufferBody(req)
	if err != nil {
		return err
	}

	var lastErr error
	backoff := c.retry.InitialBackoff

	for attempt := 0; attempt <= c.retry.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(backoff):
			case <-req.Context().Done():
				return req.Context().Err()
			}
			backoff *= 2
			if backoff > c.retry.MaxBackoff {
				backoff = c.retry.MaxBackoff
			}
		}

		if body != nil {
			req.Body = io.NopCloser(bytes.NewReader(body))
		}

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("request failed: %w", err)
			continue
		}

		if c.isRetryable(resp.StatusCode) {
			resp.Body.Close()
			lastErr = fmt.Errorf("retryable status code: %d", resp.StatusCode)
			continue
		}

		return decodeResponse(resp, result)
	}

	return fmt.Errorf("max retries exceeded for %s: %w", req.URL.String(), lastErr)
}

func bufferBody(req *http.Request) ([]byte, error) {
	if req.Body == nil {
		return nil, nil
	}
	defer req.Body.Close()
	body, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, fmt.Errorf("buffer request body: %w", err)
	}
	return body, nil
}

func decodeResponse(resp *http.Response, result any) error {
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &HTTPError{StatusCode: resp.StatusCode, Status: resp.Status, Body: body}
	}

	if result == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *HTTPClient) isRetryable(statusCode int) bool {
	for _, s := range c.retry.RetryableStatuses {
		if s == statusCode {
			return true
		}
	}
	return false
}
