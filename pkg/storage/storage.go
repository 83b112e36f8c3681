// Package storage implements the C1 storage gateway: a thin,
// bucket-overridable wrapper around an S3-compatible object store. Every
// other component is handed a presigned URL rather than credentials, so the
// backing object store can be swapped without touching callers.
package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/codeready-toolchain/meetingscribe/pkg/config"
)

// Operation selects which presigned verb to mint a URL for.
type Operation string

const (
	OpGet Operation = "get"
	OpPut Operation = "put"
)

// Gateway is the C1 storage gateway.
type Gateway struct {
	client        *s3.Client
	presignClient *s3.PresignClient
	defaultBucket string
	defaultTTL    time.Duration
}

// New builds a Gateway from the resolved storage configuration. Region and
// credentials are resolved through the standard AWS SDK default chain
// (env vars, shared config, instance role); EndpointURL overrides the
// endpoint for S3-compatible stores (MinIO, Ceph RGW, etc).
func New(ctx context.Context, cfg *config.StorageConfig) (*Gateway, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.EndpointURL)
		}
		o.UsePathStyle = cfg.ForcePathStyle
	})

	ttl := cfg.PresignTTL
	if ttl <= 0 {
		ttl = 2 * time.Hour // longest expected consumer step: mixdown/transcribe (spec.md §4.1)
	}

	return &Gateway{
		client:        client,
		presignClient: s3.NewPresignClient(client),
		defaultBucket: cfg.Bucket,
		defaultTTL:    ttl,
	}, nil
}

func (g *Gateway) bucket(override string) string {
	if override != "" {
		return override
	}
	return g.defaultBucket
}

// Put uploads body under key, returning once the object is durably stored.
func (g *Gateway) Put(ctx context.Context, key string, body io.Reader, size int64, bucket string) error {
	_, err := g.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(g.bucket(bucket)),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
	})
	if err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}
	return nil
}

// Get opens a reader for the object at key. Callers must close it.
func (g *Gateway) Get(ctx context.Context, key, bucket string) (io.ReadCloser, error) {
	out, err := g.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(g.bucket(bucket)),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("get object %s: %w", key, err)
	}
	return out.Body, nil
}

// Delete removes the object at key. Deleting a missing key is not an error.
func (g *Gateway) Delete(ctx context.Context, key, bucket string) error {
	_, err := g.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(g.bucket(bucket)),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}

// List returns every key under prefix, paging through the bucket listing
// as needed.
func (g *Gateway) List(ctx context.Context, prefix, bucket string) ([]string, error) {
	var keys []string
	paginator := s3.NewListObjectsV2Paginator(g.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(g.bucket(bucket)),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list objects under %s: %w", prefix, err)
		}
		for _, obj := range page.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
	}
	return keys, nil
}

// Presign mints a time-limited URL for op against key. ttl<=0 uses the
// gateway's configured default TTL.
func (g *Gateway) Presign(ctx context.Context, key string, op Operation, ttl time.Duration, bucket string) (string, error) {
	if ttl <= 0 {
		ttl = g.defaultTTL
	}

	switch op {
	case OpGet:
		req, err := g.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(g.bucket(bucket)),
			Key:    aws.String(key),
		}, s3.WithPresignExpires(ttl))
		if err != nil {
			return "", fmt.Errorf("presign get %s: %w", key, err)
		}
		return req.URL, nil
	case OpPut:
		req, err := g.presignClient.PresignPutObject(ctx, &s3.PutObjectInput{
			Bucket: aws.String(g.bucket(bucket)),
			Key:    aws.String(key),
		}, s3.WithPresignExpires(ttl))
		if err != nil {
			return "", fmt.Errorf("presign put %s: %w", key, err)
		}
		return req.URL, nil
	default:
		return "", fmt.Errorf("presign: unsupported operation %q", op)
	}
}
