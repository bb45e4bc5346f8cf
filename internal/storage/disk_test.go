package storage

import (
	"context"
	"os"
	"path"
	"strings"
	"testing"

	"github.com/desoftlabs/babyshop/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImageKey(t *testing.T) {
	key := ImageKey("product", "photo.PNG")
	assert.Regexp(t, `^product-\d+\.png$`, key)

	key = ImageKey("offer", "banner")
	assert.True(t, strings.HasPrefix(key, "offer-"))
	assert.True(t, strings.HasSuffix(key, ".jpg"), "missing extension defaults to .jpg")
}

func TestKeyFromURL(t *testing.T) {
	assert.Equal(t, "product-123.jpg", KeyFromURL("https://cdn.example.com/img/product-123.jpg"))
	assert.Equal(t, "offer-9.png", KeyFromURL("/uploads/offer-9.png"))
	assert.Empty(t, KeyFromURL("https://elsewhere.example.com/avatar.png"))
	assert.Empty(t, KeyFromURL("no-slashes"))
}

func TestDiskStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := NewDiskStore(config.StorageConfig{Endpoint: dir})
	require.NoError(t, err)

	url, err := store.Put(context.Background(), "product-1.jpg", "image/jpeg",
		strings.NewReader("fake image bytes"), 16)
	require.NoError(t, err)
	assert.Equal(t, "/uploads/product-1.jpg", url)

	data, err := os.ReadFile(path.Join(dir, "product-1.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "fake image bytes", string(data))

	require.NoError(t, store.Delete(context.Background(), "product-1.jpg"))
	_, err = os.Stat(path.Join(dir, "product-1.jpg"))
	assert.True(t, os.IsNotExist(err))

	// Deleting a missing key is not an error.
	require.NoError(t, store.Delete(context.Background(), "product-1.jpg"))
}
