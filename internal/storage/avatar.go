// Package storage keeps profile avatars in an S3-compatible bucket.
package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"velym/backend/internal/config"
)

// MaxAvatarSize is the largest accepted avatar upload in bytes.
const MaxAvatarSize = 5 << 20

var allowedImageTypes = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// AvatarStore stores an avatar image and returns its public URL.
type AvatarStore interface {
	PutAvatar(ctx context.Context, userID, contentType string, r io.Reader, size int64) (string, error)
}

// ExtensionFor returns the file extension for an accepted image content type.
func ExtensionFor(contentType string) (string, bool) {
	ext, ok := allowedImageTypes[strings.ToLower(strings.TrimSpace(contentType))]
	return ext, ok
}

// AvatarKey names the object for a user's avatar uploaded at t.
func AvatarKey(userID, ext string, t time.Time) string {
	return fmt.Sprintf("%s-%d%s", userID, t.UnixMilli(), ext)
}

// MinIOStore is an AvatarStore backed by MinIO or any S3-compatible endpoint.
type MinIOStore struct {
	client  *minio.Client
	bucket  string
	baseURL string
}

// NewMinIOStore connects to the endpoint and creates the bucket if needed.
func NewMinIOStore(ctx context.Context, cfg *config.Config) (*MinIOStore, error) {
	client, err := minio.New(cfg.MinIOEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinIOAccessKey, cfg.MinIOSecretKey, ""),
		Secure: cfg.MinIOUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.MinIOBucket)
	if err != nil {
		return nil, fmt.Errorf("could not check bucket %q: %w", cfg.MinIOBucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinIOBucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("could not create bucket %q: %w", cfg.MinIOBucket, err)
		}
		slog.Info("Created avatar bucket", "bucket", cfg.MinIOBucket)
	}

	baseURL := cfg.AvatarBaseURL
	if baseURL == "" {
		scheme := "http"
		if cfg.MinIOUseSSL {
			scheme = "https"
		}
		baseURL = scheme + "://" + cfg.MinIOEndpoint
	}

	return &MinIOStore{client: client, bucket: cfg.MinIOBucket, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *MinIOStore) PutAvatar(ctx context.Context, userID, contentType string, r io.Reader, size int64) (string, error) {
	ext, ok := ExtensionFor(contentType)
	if !ok {
		return "", fmt.Errorf("unsupported avatar content type %q", contentType)
	}
	key := AvatarKey(userID, ext, time.Now())

	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("could not upload avatar: %w", err)
	}
	return PublicURL(s.baseURL, s.bucket, key), nil
}

// PublicURL joins the public base URL, bucket and object key.
func PublicURL(baseURL, bucket, key string) string {
	return strings.TrimRight(baseURL, "/") + "/" + path.Join(bucket, key)
}
