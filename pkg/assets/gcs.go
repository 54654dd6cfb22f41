package assets

import (
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"cloud.google.com/go/storage"
	"github.com/pkg/errors"
	"google.golang.org/api/option"
)

type GCSConfig struct {
	Bucket          string
	Prefix          string
	CredentialsFile string
}

// GCSStorage stores files as objects in a bucket, optionally below a prefix.
type GCSStorage struct {
	client *storage.Client
	bucket *storage.BucketHandle
	prefix string
}

func NewGCSStorage(ctx context.Context, cfg GCSConfig) (*GCSStorage, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("gcs storage: bucket not set")
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	opts := []option.ClientOption{storage.WithDisabledClientMetrics()}
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gcs storage: failed in creating storage client: %w", err)
	}

	return &GCSStorage{
		client: client,
		bucket: client.Bucket(cfg.Bucket),
		prefix: cfg.Prefix,
	}, nil
}

func (s *GCSStorage) object(key string) *storage.ObjectHandle {
	return s.bucket.Object(path.Join(s.prefix, key))
}

func (s *GCSStorage) Write(ctx context.Context, key string, content []byte) error {
	w := s.object(key).NewWriter(ctx)
	if _, err := w.Write(content); err != nil {
		_ = w.Close()
		return errors.Wrapf(err, "gcs storage: failed to write %s", key)
	}
	if err := w.Close(); err != nil {
		return errors.Wrapf(err, "gcs storage: failed to close writer for %s", key)
	}
	return nil
}

func (s *GCSStorage) Read(ctx context.Context, key string) ([]byte, error) {
	r, err := s.object(key).NewReader(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "gcs storage: failed to open %s", key)
	}
	defer r.Close()

	content, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrapf(err, "gcs storage: failed to read %s", key)
	}
	return content, nil
}

func (s *GCSStorage) Move(ctx context.Context, from, to string) error {
	src := s.object(from)
	if _, err := s.object(to).CopierFrom(src).Run(ctx); err != nil {
		return errors.Wrapf(err, "gcs storage: failed to copy %s to %s", from, to)
	}
	if err := src.Delete(ctx); err != nil {
		return errors.Wrapf(err, "gcs storage: failed to delete %s after copy", from)
	}
	return nil
}

func (s *GCSStorage) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.object(key).Attrs(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, "gcs storage: failed to read attributes of %s", key)
	}
	return true, nil
}

func (s *GCSStorage) Delete(ctx context.Context, key string) error {
	err := s.object(key).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return errors.Wrapf(err, "gcs storage: failed to delete %s", key)
	}
	return nil
}

func (s *GCSStorage) Close() error {
	return s.client.Close()
}
