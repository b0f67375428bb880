// Package api is the transport layer for the crop disease detection service.
// It owns the session cookie and request plumbing; business rules live with
// the callers.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultTimeout bounds every outbound call so a lost response cannot leave a
// workflow stuck in flight forever.
const DefaultTimeout = 30 * time.Second

// APIError is a rejected request: the service answered with a non-2xx status
// and (usually) an {"error": ...} body.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned status %d", e.Status)
	}
	return fmt.Sprintf("server returned status %d: %s", e.Status, e.Message)
}

// ErrorMessage extracts the user-facing text from err. Server-provided error
// text wins; anything else (transport failure, timeout, malformed body) maps
// to the given fallback.
func ErrorMessage(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

// Client issues authenticated requests against the detection service.
// The cookie jar holds the session credential; it is attached to every call
// transparently and no other component touches it.
type Client struct {
	baseURL string
	hc      *http.Client
}

// New returns a Client for the service at baseURL. A zero timeout falls back
// to DefaultTimeout.
func New(baseURL string, timeout time.Duration) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		hc: &http.Client{
			Jar:     jar,
			Timeout: timeout,
		},
	}, nil
}

// do issues one JSON request and decodes the response into out (ignored when
// out is nil). Non-2xx responses become *APIError.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response from %s: %w", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var er errorResponse
		_ = json.Unmarshal(data, &er) // best effort; the status alone still tells the story
		return &APIError{Status: resp.StatusCode, Message: er.Error}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding response from %s: %w", path, err)
	}
	return nil
}

// CurrentUser asks the service who the session cookie belongs to.
func (c *Client) CurrentUser(ctx context.Context) (User, error) {
	var resp userResponse
	if err := c.do(ctx, http.MethodGet, "/api/user/", nil, &resp); err != nil {
		return User{}, err
	}
	return resp.User, nil
}

// Register creates an account. A successful registration also logs the new
// user in server-side, so the session cookie is live afterwards.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (User, string, error) {
	var resp userResponse
	if err := c.do(ctx, http.MethodPost, "/api/register/", req, &resp); err != nil {
		return User{}, "", err
	}
	return resp.User, resp.Message, nil
}

// Login authenticates with email and password.
func (c *Client) Login(ctx context.Context, email, password string) (User, string, error) {
	var resp userResponse
	if err := c.do(ctx, http.MethodPost, "/api/login/", loginRequest{Email: email, Password: password}, &resp); err != nil {
		return User{}, "", err
	}
	return resp.User, resp.Message, nil
}

// Logout ends the server-side session.
func (c *Client) Logout(ctx context.Context) (string, error) {
	var resp messageResponse
	if err := c.do(ctx, http.MethodPost, "/api/logout/", struct{}{}, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// Detect submits an encoded image payload for analysis.
func (c *Client) Detect(ctx context.Context, image string) (Detection, error) {
	var resp detectResponse
	if err := c.do(ctx, http.MethodPost, "/api/detect/", detectRequest{Image: image}, &resp); err != nil {
		return Detection{}, err
	}
	return resp.Detection, nil
}

// History fetches the full detection history along with any server-side
// statistics and activity timeline, in one request.
func (c *Client) History(ctx context.Context) (HistoryReport, error) {
	var resp HistoryReport
	if err := c.do(ctx, http.MethodGet, "/api/history/", nil, &resp); err != nil {
		return HistoryReport{}, err
	}
	return resp, nil
}
