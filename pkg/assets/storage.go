package assets

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Storage writes and relocates file contents for a volume. Keys are slash
// separated paths relative to the volume root.
type Storage interface {
	Write(ctx context.Context, key string, content []byte) error
	Read(ctx context.Context, key string) ([]byte, error)
	Move(ctx context.Context, from, to string) error
	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error
}

// AvailableKey returns key, or the first free "name_N.ext" variant of it.
func AvailableKey(ctx context.Context, s Storage, key string, taken func(string) bool) (string, error) {
	dir, file := path.Split(key)
	ext := path.Ext(file)
	stem := strings.TrimSuffix(file, ext)

	candidate := key
	for i := 1; ; i++ {
		exists, err := s.Exists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists && (taken == nil || !taken(candidate)) {
			return candidate, nil
		}
		candidate = dir + stem + "_" + strconv.Itoa(i) + ext
	}
}

// LocalStorage keeps files under a root directory on disk.
type LocalStorage struct {
	root string
}

func NewLocalStorage(root string) (*LocalStorage, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, errors.Wrapf(err, "failed to create storage root %s", root)
	}
	return &LocalStorage{root: root}, nil
}

func (s *LocalStorage) path(key string) string {
	return filepath.Join(s.root, filepath.FromSlash(path.Clean("/"+key)))
}

func (s *LocalStorage) Write(_ context.Context, key string, content []byte) error {
	target := s.path(key)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return errors.Wrapf(err, "failed to create folder for %s", key)
	}
	if err := os.WriteFile(target, content, 0o644); err != nil {
		return errors.Wrapf(err, "failed to write %s", key)
	}
	return nil
}

func (s *LocalStorage) Read(_ context.Context, key string) ([]byte, error) {
	content, err := os.ReadFile(s.path(key))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", key)
	}
	return content, nil
}

func (s *LocalStorage) Move(_ context.Context, from, to string) error {
	target := s.path(to)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return errors.Wrapf(err, "failed to create folder for %s", to)
	}
	if err := os.Rename(s.path(from), target); err != nil {
		return errors.Wrapf(err, "failed to move %s to %s", from, to)
	}
	return nil
}

func (s *LocalStorage) Exists(_ context.Context, key string) (bool, error) {
	_, err := os.Stat(s.path(key))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, errors.Wrapf(err, "failed to stat %s", key)
}

func (s *LocalStorage) Delete(_ context.Context, key string) error {
	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "failed to delete %s", key)
	}
	return nil
}
