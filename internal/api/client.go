// Package api is the HTTP client for the device test backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/zjrosen/prodtests/internal/log"
	"github.com/zjrosen/prodtests/internal/prodtest"
)

// DefaultBaseURL is where the backend listens on the device host.
const DefaultBaseURL = "http://localhost:8888/webds"

// DefaultUploadLocation is where uploaded reflash images are stored.
const DefaultUploadLocation = "/tmp"

const defaultTimeout = 10 * time.Second

// Backend is the subset of the client the UI depends on.
type Backend interface {
	FetchRepository(ctx context.Context, partNumber string) (*prodtest.Repository, error)
	CommitSets(ctx context.Context, partNumber string, sets []prodtest.TestSet) error
	CommitSettings(ctx context.Context, partNumber string, repo *prodtest.Repository) error
	StartRun(ctx context.Context, partNumber string, sel prodtest.Selection) error
	Upload(ctx context.Context, name string, r io.Reader, location string) error
}

// Client talks to the backend over HTTP.
type Client struct {
	base    string
	http    *http.Client
	timeout time.Duration
}

var _ Backend = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Its Timeout must be
// zero, since the same client carries the long-lived event feed.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout bounds each request/response call. The event feed is exempt.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// NewClient creates a client rooted at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		base:    strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		timeout: defaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the backend root.
func (c *Client) BaseURL() string { return c.base }

// HTTPClient returns the client used for all requests.
func (c *Client) HTTPClient() *http.Client { return c.http }

// URL joins segments onto the base URL, escaping each one.
func (c *Client) URL(segments ...string) string {
	escaped := make([]string, 0, len(segments))
	for _, s := range segments {
		for _, part := range strings.Split(strings.Trim(s, "/"), "/") {
			if part != "" {
				escaped = append(escaped, url.PathEscape(part))
			}
		}
	}
	return c.base + "/" + path.Join(escaped...)
}

// FeedURL is the event stream endpoint.
func (c *Client) FeedURL() string { return c.URL("production-tests") }

// FetchRepository loads the tests for partNumber. An empty answer becomes a
// *NoTestsError.
func (c *Client) FetchRepository(ctx context.Context, partNumber string) (*prodtest.Repository, error) {
	body, err := c.do(ctx, http.MethodGet, c.URL("production-tests", partNumber), "", nil)
	if err != nil {
		return nil, err
	}
	repo, err := prodtest.Decode(body)
	if err != nil {
		return nil, err
	}
	if repo == nil {
		return nil, &NoTestsError{PartNumber: partNumber}
	}
	log.Info(log.CatAPI, "Loaded test repository",
		"partNumber", partNumber, "library", len(repo.Library()), "sets", len(repo.Sets))
	return repo, nil
}

// CommitSets replaces the stored test sets.
func (c *Client) CommitSets(ctx context.Context, partNumber string, sets []prodtest.TestSet) error {
	if sets == nil {
		sets = []prodtest.TestSet{}
	}
	return c.putJSON(ctx, partNumber, sets)
}

// CommitSettings sends the whole repository so the backend stores settings.
func (c *Client) CommitSettings(ctx context.Context, partNumber string, repo *prodtest.Repository) error {
	return c.putJSON(ctx, partNumber, repo)
}

func (c *Client) putJSON(ctx context.Context, partNumber string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding commit body: %w", err)
	}
	_, err = c.do(ctx, http.MethodPut, c.URL("production-tests", partNumber), "application/json", bytes.NewReader(data))
	return err
}

// StartRun asks the backend to run sel.
func (c *Client) StartRun(ctx context.Context, partNumber string, sel prodtest.Selection) error {
	data, err := json.Marshal(map[string]string{"test": sel.WireID()})
	if err != nil {
		return err
	}
	_, err = c.do(ctx, http.MethodPost, c.URL("production-tests", partNumber), "application/json", bytes.NewReader(data))
	if err == nil {
		log.Info(log.CatAPI, "Run started", "partNumber", partNumber, "test", sel.WireID())
	}
	return err
}

// Upload stores r on the device under location/name.
func (c *Client) Upload(ctx context.Context, name string, r io.Reader, location string) error {
	if location == "" {
		location = DefaultUploadLocation
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("files", name)
	if err != nil {
		return err
	}
	if _, err := io.Copy(fw, r); err != nil {
		return fmt.Errorf("reading %s: %w", name, err)
	}
	if err := mw.WriteField("location", location); err != nil {
		return err
	}
	if err := mw.Close(); err != nil {
		return err
	}

	_, err = c.do(ctx, http.MethodPost, c.URL("filesystem"), mw.FormDataContentType(), &buf)
	if err == nil {
		log.Info(log.CatAPI, "Uploaded file", "name", name, "location", location, "bytes", buf.Len())
	}
	return err
}

func (c *Client) do(ctx context.Context, method, target, contentType string, body io.Reader) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		log.ErrorErr(log.CatAPI, "Request failed", err, "method", method, "url", target)
		return nil, fmt.Errorf("%s %s: %w", method, req.URL.Path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s %s: reading body: %w", method, req.URL.Path, err)
	}

	log.Debug(log.CatAPI, "Request", "method", method, "path", req.URL.Path,
		"status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{
			Method: method,
			Path:   req.URL.Path,
			Code:   resp.StatusCode,
			Body:   strings.TrimSpace(string(data)),
		}
	}
	return data, nil
}
