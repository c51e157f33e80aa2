// Package storage holds portfolio assets (images, the resume PDF) in an
// S3-compatible bucket and resolves their public URLs.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Object describes one stored asset.
type Object struct {
	Path         string    `json:"path"`
	URL          string    `json:"url"`
	Size         int64     `json:"size"`
	ContentType  string    `json:"contentType"`
	LastModified time.Time `json:"lastModified"`
}

// Store is the asset surface the admin handlers use.
type Store interface {
	Upload(ctx context.Context, objectPath, contentType string, size int64, r io.Reader) (Object, error)
	List(ctx context.Context, prefix string) ([]Object, error)
	PublicURL(objectPath string) string
}

// Config for the MinIO client.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	// BaseURL is the public host assets are served from. It may differ from
	// Endpoint when a CDN or gateway fronts the bucket.
	BaseURL string
	UseSSL  bool
}

// MinioStore implements Store against a MinIO or S3-compatible endpoint.
type MinioStore struct {
	client *minio.Client
	bucket string
	base   string
}

func New(cfg Config) (*MinioStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("storage client: %w", err)
	}
	return &MinioStore{
		client: client,
		bucket: cfg.Bucket,
		base:   strings.TrimRight(cfg.BaseURL, "/"),
	}, nil
}

// EnsureBucket creates the bucket if it does not exist yet.
func (s *MinioStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket: %w", err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket: %w", err)
	}
	return nil
}

func (s *MinioStore) Upload(ctx context.Context, objectPath, contentType string, size int64, r io.Reader) (Object, error) {
	objectPath = cleanPath(objectPath)
	if objectPath == "" {
		return Object{}, fmt.Errorf("empty object path")
	}

	info, err := s.client.PutObject(ctx, s.bucket, objectPath, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return Object{}, fmt.Errorf("upload %s: %w", objectPath, err)
	}

	return Object{
		Path:        objectPath,
		URL:         s.PublicURL(objectPath),
		Size:        info.Size,
		ContentType: contentType,
	}, nil
}

func (s *MinioStore) List(ctx context.Context, prefix string) ([]Object, error) {
	objects := []Object{}
	for info := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    cleanPath(prefix),
		Recursive: true,
	}) {
		if info.Err != nil {
			return nil, fmt.Errorf("list objects: %w", info.Err)
		}
		objects = append(objects, Object{
			Path:         info.Key,
			URL:          s.PublicURL(info.Key),
			Size:         info.Size,
			ContentType:  info.ContentType,
			LastModified: info.LastModified,
		})
	}
	return objects, nil
}

// PublicURL resolves an object path to the URL clients load it from.
// Absolute URLs pass through untouched so records may reference external
// assets directly.
func (s *MinioStore) PublicURL(objectPath string) string {
	if strings.HasPrefix(objectPath, "http://") || strings.HasPrefix(objectPath, "https://") {
		return objectPath
	}
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.base, s.bucket, cleanPath(objectPath))
}

// cleanPath normalizes an object key: no leading slash, no dot segments.
func cleanPath(p string) string {
	p = strings.TrimLeft(path.Clean("/"+strings.TrimSpace(p)), "/")
	if p == "." {
		return ""
	}
	return p
}
