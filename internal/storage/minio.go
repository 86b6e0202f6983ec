package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/facturaIA/ocr-chat-service/internal/logging"
)

var Client *minio.Client
var BucketName string

// ErrNotConfigured means MINIO_ENDPOINT is unset
var ErrNotConfigured = errors.New("no object storage configuration")

// ErrNoClient is returned by operations issued before Init succeeded
var ErrNoClient = errors.New("object storage not initialized")

func Init() error {
	endpoint := os.Getenv("MINIO_ENDPOINT")
	if endpoint == "" {
		logging.For("storage").Info("No MinIO endpoint configured - uploads are not archived")
		return ErrNotConfigured
	}

	accessKey := os.Getenv("MINIO_ACCESS_KEY")
	secretKey := os.Getenv("MINIO_SECRET_KEY")
	if accessKey == "" || secretKey == "" {
		return fmt.Errorf("MINIO_ACCESS_KEY and MINIO_SECRET_KEY are required")
	}

	bucket := os.Getenv("MINIO_BUCKET")
	if bucket == "" {
		bucket = "ocr-chat"
	}

	useSSL := os.Getenv("MINIO_USE_SSL") == "true"

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return fmt.Errorf("failed to create MinIO client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
		}
	}

	Client = client
	BucketName = bucket
	logging.For("storage").WithField("bucket", bucket).Info("MinIO storage initialized")
	return nil
}

// Enabled reports whether Init succeeded
func Enabled() bool {
	return Client != nil
}

// ObjectName builds the session-scoped object path
// Path format: {session}/YYYY/MM/{filename}
func ObjectName(sessionID, filename string, now time.Time) string {
	return fmt.Sprintf("%s/%d/%02d/%s",
		sessionID,
		now.Year(),
		now.Month(),
		path.Base(filename),
	)
}

// UploadSessionObject stores an uploaded file under the session's prefix and
// returns "bucket/object".
func UploadSessionObject(ctx context.Context, sessionID string, filename string, reader io.Reader, size int64, contentType string) (string, error) {
	if Client == nil {
		return "", ErrNoClient
	}
	objectName := ObjectName(sessionID, filename, time.Now())

	_, err := Client.PutObject(ctx, BucketName, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload object: %w", err)
	}

	return fmt.Sprintf("%s/%s", BucketName, objectName), nil
}

// GetPresignedURL generates a presigned URL for viewing an object
func GetPresignedURL(ctx context.Context, objectPath string) (string, error) {
	if Client == nil {
		return "", ErrNoClient
	}

	url, err := Client.PresignedGetObject(ctx, BucketName, trimBucket(objectPath), 24*time.Hour, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	return url.String(), nil
}

// DeleteSessionObjects removes everything stored under the session's prefix
func DeleteSessionObjects(ctx context.Context, sessionID string) (int, error) {
	if Client == nil {
		return 0, ErrNoClient
	}

	objects := Client.ListObjects(ctx, BucketName, minio.ListObjectsOptions{
		Prefix:    sessionID + "/",
		Recursive: true,
	})

	removed := 0
	for obj := range objects {
		if obj.Err != nil {
			return removed, fmt.Errorf("failed to list objects: %w", obj.Err)
		}
		if err := Client.RemoveObject(ctx, BucketName, obj.Key, minio.RemoveObjectOptions{}); err != nil {
			return removed, fmt.Errorf("failed to remove %s: %w", obj.Key, err)
		}
		removed++
	}
	return removed, nil
}

func trimBucket(objectPath string) string {
	return strings.TrimPrefix(objectPath, BucketName+"/")
}
