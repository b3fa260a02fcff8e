package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"referral-backend/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ErrNotConfigured is returned when no bucket credentials are set.
var ErrNotConfigured = errors.New("object storage not configured")

// S3Store keeps uploaded documents in an S3-compatible bucket (AWS or the
// Supabase S3 endpoint).
type S3Store struct {
	client        *s3.Client
	publicBaseURL string
}

// NewS3Store creates the client. A custom endpoint switches to path-style
// addressing, which every S3-compatible provider we use requires.
func NewS3Store(ctx context.Context, cfg *config.Config) (*S3Store, error) {
	if cfg.S3AccessKeyID == "" || cfg.S3SecretAccessKey == "" {
		return nil, ErrNotConfigured
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3AccessKeyID,
			cfg.S3SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Store{client: client, publicBaseURL: cfg.StoragePublicBaseURL}, nil
}

// Put uploads data and returns the object's public URL.
func (s *S3Store) Put(ctx context.Context, bucket, key, contentType string, data []byte) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s/%s: %w", bucket, key, err)
	}
	return PublicURL(s.publicBaseURL, bucket, key), nil
}

// Get downloads an object and returns its body and content type.
func (s *S3Store) Get(ctx context.Context, bucket, key string) ([]byte, string, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to download %s/%s: %w", bucket, key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read %s/%s: %w", bucket, key, err)
	}
	return data, aws.ToString(out.ContentType), nil
}

// HealthCheck verifies the bucket is reachable.
func (s *S3Store) HealthCheck(ctx context.Context, bucket string) error {
	_, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(bucket),
		MaxKeys: aws.Int32(1),
	})
	if err != nil {
		return fmt.Errorf("failed to access bucket %s: %w", bucket, err)
	}
	return nil
}

// PublicURL builds {base}/{bucket}/{key}.
func PublicURL(base, bucket, key string) string {
	return strings.TrimRight(base, "/") + "/" + bucket + "/" + strings.TrimLeft(key, "/")
}

// KeyFromURL reverses PublicURL. It also accepts a bare key.
func KeyFromURL(base, bucket, raw string) string {
	prefix := strings.TrimRight(base, "/") + "/" + bucket + "/"
	if base != "" && strings.HasPrefix(raw, prefix) {
		return strings.TrimPrefix(raw, prefix)
	}
	if i := strings.Index(raw, "/"+bucket+"/"); i >= 0 {
		return raw[i+len(bucket)+2:]
	}
	return strings.TrimLeft(raw, "/")
}
