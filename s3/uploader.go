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

// Package s3 provides an image upload adapter backed by S3-compatible
// object storage, for deployments where editor images bypass the backend's
// upload endpoint and the CDN serves the bucket directly.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/simwave/cms-go/builder"
)

// Credentials configures access to an S3-compatible endpoint.
type Credentials struct {
	Endpoint        string
	AccessKeyId     string
	SecretAccessKey string
	SessionToken    string
	UseSsl          bool
}

// NewMinioClient creates a Minio client from a Credentials struct.
func (creds *Credentials) NewMinioClient() (*minio.Client, error) {
	if creds.Endpoint == "" {
		return nil, errors.New("endpoint is required")
	}
	if creds.AccessKeyId == "" {
		return nil, errors.New("access key ID is required")
	}
	if creds.SecretAccessKey == "" {
		return nil, errors.New("secret access key is required")
	}

	minioClient, err := minio.New(creds.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(creds.AccessKeyId, creds.SecretAccessKey, creds.SessionToken),
		Secure: creds.UseSsl,
	})
	if err != nil {
		return nil, fmt.Errorf("creating S3 client for endpoint %s: %w", creds.Endpoint, err)
	}
	return minioClient, nil
}

// imageContentTypes maps lowercase file extensions to MIME types for the
// image formats the page builder accepts.
var imageContentTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".webp": "image/webp",
	".gif":  "image/gif",
	".svg":  "image/svg+xml",
}

// Uploader implements builder.Uploader by writing objects to a bucket.
// The returned path is the object key with a leading slash, which is what
// the CMS stores as the persisted image reference.
type Uploader struct {
	client *minio.Client
	bucket string
	prefix string
}

// NewUploader creates an Uploader writing under bucket/prefix.
func NewUploader(creds *Credentials, bucket, prefix string) (*Uploader, error) {
	if bucket == "" {
		return nil, errors.New("bucket is required")
	}
	client, err := creds.NewMinioClient()
	if err != nil {
		return nil, err
	}
	return &Uploader{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
	}, nil
}

// Upload writes the image to the bucket under a collision-free key and
// returns its persisted path. Object keys embed a uuid so re-uploading a
// file with the same name never overwrites a reference still used by a
// published page.
func (u *Uploader) Upload(ctx context.Context, file builder.ImageFile) (string, error) {
	if file.Name == "" {
		return "", errors.New("empty filename")
	}

	ext := strings.ToLower(filepath.Ext(file.Name))
	contentType, ok := imageContentTypes[ext]
	if !ok {
		contentType = "application/octet-stream"
	}

	key := path.Join(u.prefix, uuid.NewString()+ext)
	_, err := u.client.PutObject(ctx, u.bucket, key,
		bytes.NewReader(file.Content), int64(len(file.Content)),
		minio.PutObjectOptions{ContentType: contentType},
	)
	if err != nil {
		return "", fmt.Errorf("uploading %s to bucket %s: %w", key, u.bucket, err)
	}
	return "/" + key, nil
}
