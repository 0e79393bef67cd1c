package client

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/vidhub/backend/internal/config"
	"github.com/vidhub/backend/internal/model"
)

type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3Uploader struct {
	api     s3API
	bucket  string
	baseURL string
}

func NewS3Uploader(ctx context.Context, cfg config.MediaConfig) (*S3Uploader, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	c := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(endpointURL(cfg.Endpoint, cfg.UseSSL))
		}
		o.UsePathStyle = true
	})
	return newS3UploaderWithAPI(c, cfg.Bucket, publicBaseURL(cfg)), nil
}

func newS3UploaderWithAPI(api s3API, bucket, baseURL string) *S3Uploader {
	return &S3Uploader{api: api, bucket: bucket, baseURL: baseURL}
}

func (u *S3Uploader) Upload(ctx context.Context, src model.MediaSource) (string, error) {
	f, err := openSource(src)
	if err != nil {
		return "", err
	}
	defer f.Close()

	_, err = u.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.bucket),
		Key:           aws.String(f.key),
		Body:          f,
		ContentLength: aws.Int64(f.size),
		ContentType:   aws.String(f.contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload object: %w", err)
	}
	return objectURL(u.baseURL, u.bucket, f.key), nil
}
