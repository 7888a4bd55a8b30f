// Package storage keeps uploaded files in an S3-compatible bucket
// (Cloudflare R2 in production).
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/princinho/hrmbackend/config"
)

var ErrNotConfigured = errors.New("storage: object storage is not configured")

// ObjectStore is the minimal bucket contract the rest of the code relies on.
type ObjectStore interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
	URL(key string) string
	KeyFromURL(raw string) (string, error)
}

type s3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type R2 struct {
	client s3API
	bucket string
	domain string
}

func NewR2(ctx context.Context, cfg config.R2Config) (*R2, error) {
	if !cfg.Enabled() {
		return nil, ErrNotConfigured
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
		awsconfig.WithRegion("auto"),
	)
	if err != nil {
		return nil, fmt.Errorf("r2 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		o.UsePathStyle = true // required for R2
	})
	return newR2(client, cfg.Bucket, cfg.PublicDomain), nil
}

func newR2(client s3API, bucket, domain string) *R2 {
	return &R2{client: client, bucket: bucket, domain: strings.TrimRight(domain, "/")}
}

func (r *R2) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	_, err := r.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(r.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
		CacheControl:  aws.String("public, max-age=31536000, immutable"),
	})
	if err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}
	return nil
}

func (r *R2) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	_, err := r.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// URL builds the public address of key under the configured public domain.
func (r *R2) URL(key string) string {
	return fmt.Sprintf("%s/%s/%s", r.domain, r.bucket, key)
}

// KeyFromURL reverses URL. It fails for addresses outside this bucket.
func (r *R2) KeyFromURL(raw string) (string, error) {
	prefix := fmt.Sprintf("%s/%s/", r.domain, r.bucket)
	if r.domain == "" || !strings.HasPrefix(raw, prefix) {
		return "", fmt.Errorf("storage: %q is not an object url of bucket %s", raw, r.bucket)
	}
	key := strings.TrimPrefix(raw, prefix)
	if key == "" {
		return "", fmt.Errorf("storage: no object path in %q", raw)
	}
	return key, nil
}
