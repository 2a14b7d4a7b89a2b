package storage_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"velym/backend/internal/storage"
)

func TestExtensionFor(t *testing.T) {
	ext, ok := storage.ExtensionFor("image/jpeg")
	assert.True(t, ok)
	assert.Equal(t, ".jpg", ext)

	ext, ok = storage.ExtensionFor(" IMAGE/PNG ")
	assert.True(t, ok)
	assert.Equal(t, ".png", ext)

	_, ok = storage.ExtensionFor("application/pdf")
	assert.False(t, ok)
}

func TestAvatarKeyAndURL(t *testing.T) {
	at := time.UnixMilli(1700000000123)
	key := storage.AvatarKey("user-1", ".png", at)
	assert.Equal(t, "user-1-1700000000123.png", key)

	assert.Equal(t, "http://minio:9000/avatars/user-1-1700000000123.png",
		storage.PublicURL("http://minio:9000/", "avatars", key))
}
