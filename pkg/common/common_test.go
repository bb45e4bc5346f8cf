package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateOrderID(t *testing.T) {
	id := GenerateOrderID()
	assert.Regexp(t, `^ORD-\d+-[0-9a-z]{9}$`, id)

	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := GenerateOrderID()
		require.False(t, seen[id], "duplicate order id %s", id)
		seen[id] = true
	}
}

func TestUUIDint64(t *testing.T) {
	a := UUIDint64()
	b := UUIDint64()
	assert.NotEqual(t, a, b)
	assert.Positive(t, a)
}

func TestSha256HashWithSalt(t *testing.T) {
	h1 := Sha256HashWithSalt("secret", "salt-a")
	h2 := Sha256HashWithSalt("secret", "salt-a")
	h3 := Sha256HashWithSalt("secret", "salt-b")

	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, h3)
	assert.Len(t, h1, 64)
}
