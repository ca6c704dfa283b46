package logdna

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"

	"github.com/nicktill/logdna-export/pkg/window"
)

// maxErrorBody caps how much of a failed response is kept on the error.
const maxErrorBody = 512

// Version is reported in the User-Agent header. Set by main.
var Version = "dev"

// Fetcher retrieves the raw export body for one window.
type Fetcher interface {
	Fetch(ctx context.Context, w window.Window, query string) ([]byte, error)
}

// FetchError describes a failed window request: either a transport failure
// or a non-2xx response.
type FetchError struct {
	Window     window.Window
	RequestID  string
	StatusCode int
	Body       string
	Err        error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s (request %s): %v", e.Window, e.RequestID, e.Err)
	}
	if e.Body != "" {
		return fmt.Sprintf("fetch %s (request %s): status %d: %s", e.Window, e.RequestID, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("fetch %s (request %s): status %d", e.Window, e.RequestID, e.StatusCode)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Client talks to the LogDNA export API
type Client struct {
	endpoint   string
	serviceKey string
	client     *http.Client
}

// NewClient creates a new export API client. The service key is sent as the
// basic-auth username.
func NewClient(endpoint, serviceKey string) (*Client, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid endpoint %q: scheme must be http or https", endpoint)
	}

	return &Client{
		endpoint:   endpoint,
		serviceKey: serviceKey,
		// Exports can be large; rely on the transport defaults rather than a
		// whole-request timeout.
		client: &http.Client{},
	}, nil
}

// RequestURL builds the export URL for a window. query is omitted when empty.
func (c *Client) RequestURL(w window.Window, query string) (string, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return "", err
	}

	params := u.Query()
	params.Set("from", strconv.FormatInt(w.FromMillis(), 10))
	params.Set("to", strconv.FormatInt(w.ToMillis(), 10))
	if query != "" {
		params.Set("query", query)
	}
	u.RawQuery = params.Encode()
	return u.String(), nil
}

// Fetch downloads one window. The body is returned verbatim.
func (c *Client) Fetch(ctx context.Context, w window.Window, query string) ([]byte, error) {
	requestID := uuid.NewString()

	target, err := c.RequestURL(w, query)
	if err != nil {
		return nil, &FetchError{Window: w, RequestID: requestID, Err: fmt.Errorf("failed to build URL: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &FetchError{Window: w, RequestID: requestID, Err: fmt.Errorf("failed to create request: %w", err)}
	}

	req.SetBasicAuth(c.serviceKey, "")
	req.Header.Set("Accept", "application/x-ndjson")
	req.Header.Set("User-Agent", "logdna-export/"+Version)
	req.Header.Set("X-Request-ID", requestID)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &FetchError{Window: w, RequestID: requestID, Err: fmt.Errorf("failed to send request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &FetchError{
			Window:     w,
			RequestID:  requestID,
			StatusCode: resp.StatusCode,
			Body:       string(snippet),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{
			Window:     w,
			RequestID:  requestID,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("failed to read response body: %w", err),
		}
	}
	return body, nil
}
