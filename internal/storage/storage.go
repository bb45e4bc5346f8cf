// Package storage abstracts the image object store behind a small
// interface with S3-compatible, SFTP and local-disk backends.
package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/desoftlabs/babyshop/config"
	"github.com/pkg/errors"
)

// ObjectStore stores uploaded catalog images under flat keys and serves
// them back by public URL.
type ObjectStore interface {
	// Put uploads the object and returns its public URL.
	Put(ctx context.Context, key string, contentType string, r io.Reader, size int64) (string, error)
	// Delete removes the object. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// URL returns the public URL for a stored key.
	URL(key string) string
}

// ImageKey builds an upload key like product-1724740000000.jpg from the
// original filename's extension.
func ImageKey(prefix, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		ext = ".jpg"
	}
	return fmt.Sprintf("%s-%d%s", prefix, time.Now().UnixMilli(), ext)
}

// KeyFromURL recovers the object key from a previously returned public
// URL, so a replaced image can be deleted. Returns "" when the URL does
// not look like one of ours.
func KeyFromURL(rawurl string) string {
	idx := strings.LastIndex(rawurl, "/")
	if idx < 0 || idx == len(rawurl)-1 {
		return ""
	}
	key := rawurl[idx+1:]
	if !strings.HasPrefix(key, "product-") && !strings.HasPrefix(key, "offer-") {
		return ""
	}
	return key
}

// NewObjectStore builds the backend selected by cfg.Backend.
func NewObjectStore(cfg config.StorageConfig) (ObjectStore, error) {
	switch cfg.Backend {
	case "s3":
		return NewS3Store(cfg)
	case "sftp":
		return NewSftpStore(cfg)
	case "disk", "":
		return NewDiskStore(cfg)
	default:
		return nil, errors.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
