package services

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioArchive is the self-hosted archive backend. The date partition is
// expressed as an object key prefix instead of a real folder, so
// ResolveFolder has nothing to create and is trivially idempotent.
type MinioArchive struct {
	Client     *minio.Client
	BucketName string
	publicURL  string
	timeout    time.Duration
}

func NewMinioArchive(endpoint, accessKey, secretKey, bucket, publicURL string, useSSL bool, timeout time.Duration) (*MinioArchive, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %v", err)
	}

	// Create bucket if it doesn't exist
	exists, err := client.BucketExists(context.Background(), bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %v", err)
	}

	if !exists {
		err = client.MakeBucket(context.Background(), bucket, minio.MakeBucketOptions{})
		if err != nil {
			return nil, fmt.Errorf("failed to create bucket: %v", err)
		}
		log.Printf("[MinIO] created bucket: %s", bucket)
	}

	log.Println("[MinIO] connected successfully")
	return &MinioArchive{
		Client:     client,
		BucketName: bucket,
		publicURL:  strings.TrimRight(publicURL, "/"),
		timeout:    timeout,
	}, nil
}

// CheckConnection is used by health checks.
func (m *MinioArchive) CheckConnection() error {
	if m == nil || m.Client == nil {
		return fmt.Errorf("minio service not initialized")
	}
	_, err := m.Client.BucketExists(context.Background(), m.BucketName)
	return err
}

// ResolveFolder returns the date itself as the partition prefix.
func (m *MinioArchive) ResolveFolder(ctx context.Context, date string) (string, error) {
	return date, nil
}

// Upload stores the image under <date>/<name> and returns its public URL.
// The bucket is expected to carry an anonymous read policy.
func (m *MinioArchive) Upload(ctx context.Context, content []byte, name, folderID string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	objectName := folderID + "/" + name
	_, err := m.Client.PutObject(
		ctx,
		m.BucketName,
		objectName,
		bytes.NewReader(content),
		int64(len(content)),
		minio.PutObjectOptions{
			ContentType: "image/jpeg",
		},
	)
	if err != nil {
		return "", fmt.Errorf("failed to upload to storage: %w", err)
	}
	return fmt.Sprintf("%s/%s/%s", m.publicURL, m.BucketName, objectName), nil
}
