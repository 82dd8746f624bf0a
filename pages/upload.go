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

package pages

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/bytedance/sonic"
)

// uploadEnvelope covers the response shapes the upload endpoint is known to
// produce. The envelope is not uniform across backend versions; the
// persisted path may arrive under any of path, url, data.path or data.url.
type uploadEnvelope struct {
	Path string `json:"path,omitempty"`
	URL  string `json:"url,omitempty"`
	Data struct {
		Path string `json:"path,omitempty"`
		URL  string `json:"url,omitempty"`
	} `json:"data,omitempty"`
}

// persistedPath normalizes the upload response envelope to a single
// persisted path. This is the only place the envelope ambiguity is handled.
func (e *uploadEnvelope) persistedPath() (string, bool) {
	for _, candidate := range []string{e.Path, e.URL, e.Data.Path, e.Data.URL} {
		if candidate != "" {
			return candidate, true
		}
	}
	return "", false
}

// UploadImage uploads an image to the backend and returns the persisted
// backend-relative path. The save pipeline uses it to replace transient
// client-only image references before submitting a document.
func (c *Client) UploadImage(ctx context.Context, filename string, content io.Reader) (string, error) {
	if filename == "" {
		return "", errors.New("empty filename")
	}
	uploadURL, err := url.JoinPath(c.baseURL, "image", "upload")
	if err != nil {
		return "", fmt.Errorf("creating upload URL: %w", err)
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("creating form file: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return "", fmt.Errorf("writing form file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("closing multipart writer: %w", err)
	}

	respBody, err := c.sendRequest(ctx, http.MethodPost, uploadURL, writer.FormDataContentType(), &body)
	if err != nil {
		return "", fmt.Errorf("uploading image %q: %w", filename, err)
	}

	var env uploadEnvelope
	if err := sonic.Unmarshal(respBody, &env); err != nil {
		return "", fmt.Errorf("parsing upload response: %w", err)
	}
	path, ok := env.persistedPath()
	if !ok {
		return "", fmt.Errorf("upload response for %q contains no persisted path: %s", filename, string(respBody))
	}
	return path, nil
}
