package datastore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/frahmantamala/travel-backoffice/internal"
)

type BucketConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
	// PublicBaseURL overrides the host used when building public object URLs.
	PublicBaseURL string
}

// BlobObject describes one stored object.
type BlobObject struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	ContentType  string    `json:"content_type,omitempty"`
	LastModified time.Time `json:"last_modified"`
	URL          string    `json:"url"`
}

// BucketStore keeps binary attachments in an S3 compatible bucket.
type BucketStore struct {
	mc        *minio.Client
	bucket    string
	publicURL string
	logger    *slog.Logger
}

func NewBucketStore(cfg BucketConfig, logger *slog.Logger) (*BucketStore, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("bucket endpoint is required")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, errors.New("bucket access_key and secret_key are required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("bucket name is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create bucket client: %w", err)
	}

	return &BucketStore{
		mc:        mc,
		bucket:    cfg.Bucket,
		publicURL: publicBase(cfg),
		logger:    logger,
	}, nil
}

func publicBase(cfg BucketConfig) string {
	if cfg.PublicBaseURL != "" {
		return strings.TrimRight(cfg.PublicBaseURL, "/")
	}
	scheme := "http"
	if cfg.UseSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s", scheme, cfg.Endpoint, cfg.Bucket)
}

func (s *BucketStore) Bucket() string {
	return s.bucket
}

func (s *BucketStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.mc.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := s.mc.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}
		s.logger.Info("created bucket", "bucket", s.bucket)
	}
	return nil
}

func (s *BucketStore) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (BlobObject, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	info, err := s.mc.PutObject(ctx, s.bucket, key, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return BlobObject{}, internal.NewServerError(fmt.Sprintf("upload %s failed", key), http.StatusBadGateway).WithCause(err)
	}
	return BlobObject{
		Key:          info.Key,
		Size:         info.Size,
		ContentType:  contentType,
		LastModified: info.LastModified,
		URL:          s.PublicURL(info.Key),
	}, nil
}

// List returns every object under prefix.
func (s *BucketStore) List(ctx context.Context, prefix string) ([]BlobObject, error) {
	objects := make([]BlobObject, 0)
	for obj := range s.mc.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, internal.NewServerError(fmt.Sprintf("list %s failed", prefix), http.StatusBadGateway).WithCause(obj.Err)
		}
		objects = append(objects, BlobObject{
			Key:          obj.Key,
			Size:         obj.Size,
			ContentType:  obj.ContentType,
			LastModified: obj.LastModified,
			URL:          s.PublicURL(obj.Key),
		})
	}
	return objects, nil
}

func (s *BucketStore) PublicURL(key string) string {
	segments := strings.Split(key, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return s.publicURL + "/" + strings.Join(segments, "/")
}
