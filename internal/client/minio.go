package client

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/vidhub/backend/internal/config"
	"github.com/vidhub/backend/internal/model"
)

// Internal adapter interface to enable mocking without a real MinIO server.
type minioAPI interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// Wrapper to adapt *minio.Client to minioAPI.
type minioClientWrapper struct{ c *minio.Client }

func (w minioClientWrapper) BucketExists(ctx context.Context, bucketName string) (bool, error) {
	return w.c.BucketExists(ctx, bucketName)
}

func (w minioClientWrapper) MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error {
	return w.c.MakeBucket(ctx, bucketName, opts)
}

func (w minioClientWrapper) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	return w.c.PutObject(ctx, bucketName, objectName, reader, objectSize, opts)
}

type MinioUploader struct {
	api     minioAPI
	bucket  string
	baseURL string
}

func NewMinioUploader(ctx context.Context, cfg config.MediaConfig) (*MinioUploader, error) {
	endpoint := strings.TrimPrefix(strings.TrimPrefix(cfg.Endpoint, "https://"), "http://")
	c, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}
	return newMinioUploaderWithAPI(ctx, minioClientWrapper{c: c}, cfg.Bucket, publicBaseURL(cfg))
}

func newMinioUploaderWithAPI(ctx context.Context, api minioAPI, bucket, baseURL string) (*MinioUploader, error) {
	u := &MinioUploader{
		api:     api,
		bucket:  bucket,
		baseURL: baseURL,
	}
	if err := u.ensureBucketExists(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure bucket exists: %w", err)
	}
	return u, nil
}

// ensureBucketExists creates the bucket if it doesn't exist
func (u *MinioUploader) ensureBucketExists(ctx context.Context) error {
	exists, err := u.api.BucketExists(ctx, u.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if exists {
		return nil
	}
	if err := u.api.MakeBucket(ctx, u.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// Upload pushes the local file and returns its public URL.
func (u *MinioUploader) Upload(ctx context.Context, src model.MediaSource) (string, error) {
	f, err := openSource(src)
	if err != nil {
		return "", err
	}
	defer f.Close()

	_, err = u.api.PutObject(ctx, u.bucket, f.key, f, f.size, minio.PutObjectOptions{ContentType: f.contentType})
	if err != nil {
		return "", fmt.Errorf("failed to upload object: %w", err)
	}
	return objectURL(u.baseURL, u.bucket, f.key), nil
}
