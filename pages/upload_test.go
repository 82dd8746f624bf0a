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
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestUploadImage_EnvelopeShapes(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     string
		wantErr  bool
	}{
		{
			name:     "top-level path",
			response: `{"path":"/uploads/a.png"}`,
			want:     "/uploads/a.png",
		},
		{
			name:     "top-level url",
			response: `{"url":"/uploads/b.png"}`,
			want:     "/uploads/b.png",
		},
		{
			name:     "nested data.path",
			response: `{"data":{"path":"/uploads/c.png"}}`,
			want:     "/uploads/c.png",
		},
		{
			name:     "nested data.url",
			response: `{"data":{"url":"/uploads/d.png"}}`,
			want:     "/uploads/d.png",
		},
		{
			name:     "path wins over nested",
			response: `{"path":"/uploads/a.png","data":{"url":"/uploads/d.png"}}`,
			want:     "/uploads/a.png",
		},
		{
			name:     "no recognizable key",
			response: `{"status":"ok"}`,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				io.WriteString(w, tt.response)
			}))
			defer srv.Close()

			client, err := NewClient(srv.URL)
			if err != nil {
				t.Fatalf("NewClient: %v", err)
			}

			got, err := client.UploadImage(context.Background(), "a.png", strings.NewReader("img-bytes"))
			if tt.wantErr {
				if err == nil {
					t.Fatalf("UploadImage = %q, want error", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("UploadImage: %v", err)
			}
			if got != tt.want {
				t.Errorf("UploadImage = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUploadImage_Multipart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/image/upload" {
			t.Errorf("path = %s, want /image/upload", r.URL.Path)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("FormFile: %v", err)
		}
		defer file.Close()
		if header.Filename != "banner.png" {
			t.Errorf("filename = %q, want banner.png", header.Filename)
		}
		content, _ := io.ReadAll(file)
		if string(content) != "img-bytes" {
			t.Errorf("content = %q, want img-bytes", content)
		}
		io.WriteString(w, `{"path":"/uploads/banner.png"}`)
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	path, err := client.UploadImage(context.Background(), "banner.png", strings.NewReader("img-bytes"))
	if err != nil {
		t.Fatalf("UploadImage: %v", err)
	}
	if path != "/uploads/banner.png" {
		t.Errorf("path = %q, want /uploads/banner.png", path)
	}
}
