// Object storage clients for user images (avatar, cover image)
// Client layer only: the service sees them through MediaUploader.
//
// Environment:
//   - MEDIA_BACKEND: minio (default) | s3
//   - MEDIA_ENDPOINT, MEDIA_ACCESS_KEY, MEDIA_SECRET_KEY, MEDIA_REGION, MEDIA_USE_SSL
//   - MEDIA_BUCKET: bucket holding every uploaded image
//   - MEDIA_PUBLIC_BASE_URL: prefix of returned URLs (default: the endpoint)

package client

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/vidhub/backend/internal/config"
	"github.com/vidhub/backend/internal/model"
)

const objectPrefix = "avatars"

// Uploader - common surface of the storage backends
type Uploader interface {
	Upload(ctx context.Context, src model.MediaSource) (string, error)
}

// NewMediaUploader builds the backend selected by MEDIA_BACKEND.
func NewMediaUploader(ctx context.Context, cfg config.MediaConfig) (Uploader, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", "minio":
		return NewMinioUploader(ctx, cfg)
	case "s3":
		return NewS3Uploader(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported media backend %q", cfg.Backend)
	}
}

// localFile - opened upload with the metadata needed by PutObject
type localFile struct {
	*os.File
	size        int64
	key         string
	contentType string
}

func openSource(src model.MediaSource) (*localFile, error) {
	if !src.Present() {
		return nil, fmt.Errorf("media source path is empty")
	}
	f, err := os.Open(src.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to stat upload: %w", err)
	}
	return &localFile{
		File:        f,
		size:        info.Size(),
		key:         objectKey(src),
		contentType: contentType(src),
	}, nil
}

func objectKey(src model.MediaSource) string {
	name := src.Filename
	if name == "" {
		name = src.Path
	}
	ext := strings.ToLower(filepath.Ext(name))
	return path.Join(objectPrefix, uuid.NewString()+ext)
}

func contentType(src model.MediaSource) string {
	if src.ContentType != "" {
		return src.ContentType
	}
	name := src.Filename
	if name == "" {
		name = src.Path
	}
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// endpointURL returns the endpoint with a scheme, adding one from useSSL if missing.
func endpointURL(endpoint string, useSSL bool) string {
	endpoint = strings.TrimRight(endpoint, "/")
	if strings.Contains(endpoint, "://") {
		return endpoint
	}
	if useSSL {
		return "https://" + endpoint
	}
	return "http://" + endpoint
}

func publicBaseURL(cfg config.MediaConfig) string {
	if cfg.PublicBaseURL != "" {
		return strings.TrimRight(cfg.PublicBaseURL, "/")
	}
	return endpointURL(cfg.Endpoint, cfg.UseSSL)
}

func objectURL(base, bucket, key string) string {
	return base + "/" + bucket + "/" + key
}
