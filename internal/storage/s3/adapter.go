package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/TerraMA2/terrama2-sub002/internal/common"
)

// Config holds S3 adapter configuration.
type Config struct {
	Endpoint        string
	Bucket          string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
}

// OperationObserver receives the outcome of each call: operation name,
// duration, bytes moved and error.
type OperationObserver func(operation string, d time.Duration, bytes int, err error)

// Adapter provides operations against S3-compatible object storage.
type Adapter struct {
	client  *s3.Client
	bucket  string
	observe OperationObserver
}

// NewAdapter creates a new S3 adapter.
func NewAdapter(ctx context.Context, cfg Config) (*Adapter, error) {
	var opts []func(*awsconfig.LoadOptions) error

	opts = append(opts, awsconfig.WithRegion(cfg.Region))

	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = cfg.UsePathStyle
		})
	}

	client := s3.NewFromConfig(awsCfg, s3Opts...)

	return &Adapter{
		client:  client,
		bucket:  cfg.Bucket,
		observe: func(string, time.Duration, int, error) {},
	}, nil
}

// SetOperationObserver installs a per-call callback.
func (a *Adapter) SetOperationObserver(fn OperationObserver) {
	if fn != nil {
		a.observe = fn
	}
}

// Bucket is the configured bucket name.
func (a *Adapter) Bucket() string {
	return a.bucket
}

// notFound maps missing keys to common.ErrNotFound.
func notFound(err error) bool {
	var noKey *types.NoSuchKey
	var missing *types.NotFound
	return errors.As(err, &noKey) || errors.As(err, &missing)
}

// PutObject uploads an object to S3. An empty contentType is left to the
// server default.
func (a *Adapter) PutObject(ctx context.Context, key string, data []byte, contentType string) (err error) {
	start := time.Now()
	defer func() { a.observe("put", time.Since(start), len(data), err) }()

	input := &s3.PutObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	_, err = a.client.PutObject(ctx, input)
	if err != nil {
		return fmt.Errorf("S3 PutObject %s: %w", key, err)
	}
	return nil
}

// GetObject downloads an object from S3. Missing keys wrap
// common.ErrNotFound.
func (a *Adapter) GetObject(ctx context.Context, key string) (data []byte, err error) {
	start := time.Now()
	defer func() { a.observe("get", time.Since(start), len(data), err) }()

	resp, err := a.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if notFound(err) {
			return nil, fmt.Errorf("%w: S3 object %s", common.ErrNotFound, key)
		}
		return nil, fmt.Errorf("S3 GetObject %s: %w", key, err)
	}
	defer resp.Body.Close()

	data, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("S3 read body %s: %w", key, err)
	}
	return data, nil
}

// DeleteObject deletes an object from S3.
func (a *Adapter) DeleteObject(ctx context.Context, key string) (err error) {
	start := time.Now()
	defer func() { a.observe("delete", time.Since(start), 0, err) }()

	_, err = a.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("S3 DeleteObject %s: %w", key, err)
	}
	return nil
}

// ListObjects lists objects under a prefix.
func (a *Adapter) ListObjects(ctx context.Context, prefix string) (keys []string, err error) {
	start := time.Now()
	defer func() { a.observe("list", time.Since(start), 0, err) }()

	paginator := s3.NewListObjectsV2Paginator(a.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(a.bucket),
		Prefix: aws.String(prefix),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("S3 ListObjects %s: %w", prefix, err)
		}
		for _, obj := range page.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
	}

	return keys, nil
}

// ObjectExists checks if an object exists.
func (a *Adapter) ObjectExists(ctx context.Context, key string) (bool, error) {
	_, err := a.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if notFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("S3 HeadObject %s: %w", key, err)
	}
	return true, nil
}
