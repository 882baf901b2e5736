// Package object mirrors processed files into an S3-compatible bucket.
package object

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/wb-go/wbf/retry"
)

// contentTypes maps output extensions to MIME types.
var contentTypes = map[string]string{
	".jpg":  "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".avif": "image/avif",
}

// Storage provides an S3-compatible storage backend using MinIO.
// Objects of one batch are stored under a prefix named after the job.
type Storage struct {
	client     *minio.Client
	bucketName string
	strategy   retry.Strategy
}

// NewStorage creates a new Storage instance connected to the specified MinIO server.
// If the bucket does not exist, it will be created automatically. Uploads are
// retried with strategy.
func NewStorage(ctx context.Context, endpoint, accessKey, secretKey, bucketName string, useSSL bool, strategy retry.Strategy) (*Storage, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, bucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to check if bucket exists: %w", err)
	}

	if !exists {
		if err := client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	if strategy.Attempts < 1 {
		strategy.Attempts = 1
	}

	return &Storage{
		client:     client,
		bucketName: bucketName,
		strategy:   strategy,
	}, nil
}

// ObjectName returns the key of filename under prefix.
func ObjectName(prefix, filename string) string {
	return path.Join(prefix, filename)
}

// ContentType returns the MIME type stored with filename.
func ContentType(filename string) string {
	if ct, ok := contentTypes[path.Ext(filename)]; ok {
		return ct
	}
	return "application/octet-stream"
}

// Mirror uploads an output file under prefix and returns its object key.
func (s *Storage) Mirror(ctx context.Context, prefix, filename string, data []byte) (string, error) {
	objectName := ObjectName(prefix, filename)

	err := retry.Do(func() error {
		_, putErr := s.client.PutObject(ctx, s.bucketName, objectName, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
			ContentType: ContentType(filename),
		})
		return putErr
	}, s.strategy)
	if err != nil {
		return "", fmt.Errorf("failed to mirror file: %w", err)
	}

	return objectName, nil
}
