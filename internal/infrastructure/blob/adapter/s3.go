package adapter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/pborgesjr/chat-message-node/internal/infrastructure/blob/port"
)

// S3Uploader is an adapter that satisfies the port.Uploader interface using
// an S3 bucket. Objects are written under the configured key prefix and
// resolved through baseURL.
type S3Uploader struct {
	client  *s3.Client
	bucket  string
	prefix  string
	baseURL string
}

// S3Options configures the uploader. Endpoint is optional and only needed for
// S3-compatible stores (minio, localstack).
type S3Options struct {
	Bucket    string
	Region    string
	Endpoint  string
	KeyPrefix string
	// BaseURL overrides the public URL root; defaults to the virtual-hosted
	// bucket URL for the region.
	BaseURL string
}

// NewS3Uploader constructs an uploader using the ambient AWS credential chain.
func NewS3Uploader(ctx context.Context, opts S3Options) (*S3Uploader, error) {
	if opts.Bucket == "" {
		return nil, errors.New("s3: bucket is required")
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(opts.Region))
	if err != nil {
		return nil, fmt.Errorf("s3: load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	baseURL := opts.BaseURL
	if baseURL == "" {
		if opts.Endpoint != "" {
			baseURL = strings.TrimSuffix(opts.Endpoint, "/") + "/" + opts.Bucket
		} else {
			baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", opts.Bucket, opts.Region)
		}
	}

	return &S3Uploader{
		client:  client,
		bucket:  opts.Bucket,
		prefix:  strings.Trim(opts.KeyPrefix, "/"),
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}, nil
}

// Ensure interface compliance at compile time
var _ port.Uploader = (*S3Uploader)(nil)

func (u *S3Uploader) Upload(ctx context.Context, data []byte, filename string, contentType string) (string, error) {
	key := filename
	if u.prefix != "" {
		key = u.prefix + "/" + filename
	}
	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("s3: put object: %w", err)
	}
	return u.baseURL + "/" + key, nil
}
