package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"dwdcdc/internal/logging"
)

// RawMirror keeps a copy of every downloaded archive file
type RawMirror interface {
	Put(ctx context.Context, remotePath string, data []byte) error
}

// NopMirror discards everything
type NopMirror struct{}

func (NopMirror) Put(context.Context, string, []byte) error { return nil }

// S3Mirror writes raw files to an S3 compatible bucket (AWS, R2, MinIO)
type S3Mirror struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3Mirror creates a mirror. prefix defaults to "dwd/".
func NewS3Mirror(accessKeyID, secretAccessKey, endpoint, bucket, region, prefix string) (*S3Mirror, error) {
	if bucket == "" {
		return nil, fmt.Errorf("bucket is required")
	}
	if prefix == "" {
		prefix = "dwd/"
	}
	if region == "" {
		region = "auto"
	}

	opts := s3.Options{
		Credentials:  credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, ""),
		Region:       region,
		UsePathStyle: true,
	}
	if endpoint != "" {
		opts.BaseEndpoint = aws.String(endpoint)
	}

	return &S3Mirror{
		client: s3.New(opts),
		bucket: bucket,
		prefix: prefix,
	}, nil
}

// Key maps a remote archive path to an object key
func (m *S3Mirror) Key(remotePath string) string {
	return m.prefix + strings.TrimLeft(path.Clean("/"+remotePath), "/")
}

// Put uploads data under the key of remotePath
func (m *S3Mirror) Put(ctx context.Context, remotePath string, data []byte) error {
	start := time.Now()
	key := m.Key(remotePath)

	_, err := m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(m.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType(remotePath)),
		Metadata: map[string]string{
			"source":   remotePath,
			"mirrored": time.Now().UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}

	logging.Debug("Mirrored raw file", "key", key, "bytes", len(data), "duration", time.Since(start).String())
	return nil
}

func contentType(name string) string {
	switch {
	case strings.HasSuffix(name, ".zip"):
		return "application/zip"
	case strings.HasSuffix(name, ".txt"):
		return "text/plain; charset=iso-8859-1"
	default:
		return "application/octet-stream"
	}
}
