package semgrep

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const DefaultBaseURL = "https://semgrep.dev/api/v1"

var ErrInvalidJSON = errors.New("response body is not valid JSON")

type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// NewClient returns a client with no request timeout; a findings call is a
// single attempt that runs until the server answers or ctx is done.
func NewClient(token string, opts ...Option) *Client {
	c := &Client{
		token:      token,
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Response is the raw outcome of a findings call. Body is always valid JSON.
type Response struct {
	StatusCode int
	Body       json.RawMessage
}

func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode <= 299
}

// FindingsURL builds {base}/deployments/{slug}/findings with an optional since filter.
func (c *Client) FindingsURL(slug string, since *int64) string {
	u := fmt.Sprintf("%s/deployments/%s/findings", c.baseURL, url.PathEscape(slug))
	if since != nil {
		q := url.Values{}
		q.Set("since", strconv.FormatInt(*since, 10))
		u += "?" + q.Encode()
	}
	return u
}

// Findings lists the deployment's code and supply chain findings.
// The body is parsed as JSON whatever the status code so error payloads
// reach the caller too.
func (c *Client) Findings(ctx context.Context, slug string, since *int64) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.FindingsURL(slug, since), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if !json.Valid(body) {
		return nil, fmt.Errorf("status %d: %w", resp.StatusCode, ErrInvalidJSON)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       json.RawMessage(body),
	}, nil
}
