package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/desoftlabs/babyshop/config"
	"github.com/pkg/errors"
)

// DiskStore keeps images under <workdir>/uploads and serves them through
// the webserver's static route. It is the dev and test default.
type DiskStore struct {
	dir       string
	publicURL string
}

func NewDiskStore(cfg config.StorageConfig) (*DiskStore, error) {
	dir := cfg.Endpoint
	if dir == "" {
		dir = "/var/babyshop/uploads"
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrap(err, "disk storage init")
	}
	publicURL := strings.TrimRight(cfg.PublicURL, "/")
	if publicURL == "" {
		publicURL = "/uploads"
	}
	return &DiskStore{dir: dir, publicURL: publicURL}, nil
}

// Dir returns the local directory backing the store.
func (s *DiskStore) Dir() string {
	return s.dir
}

func (s *DiskStore) Put(ctx context.Context, key, contentType string, r io.Reader, size int64) (string, error) {
	fpath := path.Join(s.dir, key)
	f, err := os.Create(fpath)
	if err != nil {
		return "", errors.Wrapf(err, "disk create %s", key)
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(fpath)
		return "", errors.Wrapf(err, "disk write %s", key)
	}
	if err := f.Close(); err != nil {
		return "", errors.Wrapf(err, "disk close %s", key)
	}
	return s.URL(key), nil
}

func (s *DiskStore) Delete(ctx context.Context, key string) error {
	err := os.Remove(path.Join(s.dir, key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return errors.Wrapf(err, "disk delete %s", key)
	}
	return nil
}

func (s *DiskStore) URL(key string) string {
	return fmt.Sprintf("%s/%s", s.publicURL, key)
}
