/*
Copyright 2026 The Simwave Contributors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package pages is a client SDK for the Simwave reseller platform's pages
// backend. It covers the CMS page endpoints (fetch, list, upsert) and the
// image upload endpoint used by the page-builder save pipeline.
package pages

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/bytedance/sonic/decoder"
	"go.uber.org/zap"
)

// Client is a client for the pages backend.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	logger     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client. Defaults to
// http.DefaultClient.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithBearerToken sets the bearer credential attached to every request.
// The credential itself is managed by the caller.
func WithBearerToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// NewClient creates a new pages client for the given base URL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("empty base URL")
	}
	c := &Client{
		httpClient: http.DefaultClient,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the backend base URL the client was created with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// sendRequest sends an HTTP request to the specified endpoint with the given
// content type and returns the response body.
func (c *Client) sendRequest(ctx context.Context, method, url, contentType string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading http response: %w", err)
	}

	if resp.StatusCode >= 300 {
		return respBody, statusError(resp.StatusCode, respBody)
	}
	return respBody, nil
}

// statusError maps a non-2xx response to an error. Auth rejections wrap
// ErrUnauthorized so callers can tell them apart from other failures.
func statusError(code int, body []byte) error {
	if code == http.StatusUnauthorized || code == http.StatusForbidden {
		return fmt.Errorf("received status %d: %s: %w", code, string(body), ErrUnauthorized)
	}
	return &StatusError{Code: code, Body: string(body)}
}

// GetPage fetches the persisted sections for a slug. A backend 404 is
// reported as ErrPageNotFound; callers starting an edit session for a new
// slug treat that as an empty document rather than a failure.
func (c *Client) GetPage(ctx context.Context, slug string) (*Page, error) {
	if slug == "" {
		return nil, errors.New("empty slug")
	}
	pageURL, err := url.JoinPath(c.baseURL, "pages", slug)
	if err != nil {
		return nil, fmt.Errorf("creating page URL: %w", err)
	}

	respBody, err := c.sendRequest(ctx, http.MethodGet, pageURL, "", nil)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.Code == http.StatusNotFound {
			return nil, fmt.Errorf("getting page %q: %w", slug, ErrPageNotFound)
		}
		return nil, fmt.Errorf("getting page %q: %w", slug, err)
	}

	var env pageEnvelope
	if err := sonic.Unmarshal(respBody, &env); err != nil {
		return nil, fmt.Errorf("parsing page response: %w", err)
	}

	return &Page{Slug: slug, Sections: env.Sections}, nil
}

// ListPages fetches summary metadata for every known page.
func (c *Client) ListPages(ctx context.Context) ([]PageSummary, error) {
	listURL, err := url.JoinPath(c.baseURL, "pages")
	if err != nil {
		return nil, fmt.Errorf("creating list URL: %w", err)
	}

	respBody, err := c.sendRequest(ctx, http.MethodGet, listURL, "", nil)
	if err != nil {
		return nil, fmt.Errorf("listing pages: %w", err)
	}

	var env pageListEnvelope
	if err := decoder.NewStreamDecoder(bytes.NewReader(respBody)).Decode(&env); err != nil {
		return nil, fmt.Errorf("parsing page list response: %w", err)
	}
	return env.Pages, nil
}

// UpsertPage submits a finalized page as one request. The backend treats it
// as a whole-document replace: the page is created if absent, otherwise its
// section list is fully replaced, including deletion of sections absent from
// the submitted document.
func (c *Client) UpsertPage(ctx context.Context, page Page) error {
	if page.Slug == "" {
		return errors.New("empty slug")
	}
	pageURL, err := url.JoinPath(c.baseURL, "pages", page.Slug)
	if err != nil {
		return fmt.Errorf("creating page URL: %w", err)
	}

	bodyBytes, err := sonic.Marshal(upsertRequest{Sections: page.Sections})
	if err != nil {
		return fmt.Errorf("marshalling page: %w", err)
	}

	c.logger.Debug("upserting page",
		zap.String("slug", page.Slug),
		zap.Int("sections", len(page.Sections)),
	)

	if _, err := c.sendRequest(ctx, http.MethodPut, pageURL, "application/json", bytes.NewBuffer(bodyBytes)); err != nil {
		return fmt.Errorf("upserting page %q: %w", page.Slug, err)
	}
	return nil
}
