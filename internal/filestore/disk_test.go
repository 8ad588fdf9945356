package filestore

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskStore_SaveFetchDelete(t *testing.T) {
	ctx := context.Background()
	store, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)

	content := base64.StdEncoding.EncodeToString([]byte("fake image bytes"))
	fileID, err := store.Save(ctx, "id.jpg", "", content)
	require.NoError(t, err)
	require.NotEmpty(t, fileID)

	fd, err := store.Fetch(ctx, fileID)
	require.NoError(t, err)
	assert.Equal(t, "id.jpg", fd.Name)
	assert.Equal(t, "image/jpeg", fd.ContentType)
	assert.Equal(t, content, fd.Data)
	assert.Equal(t, int64(16), fd.Size)

	require.NoError(t, store.Delete(ctx, fileID))
	_, err = store.Fetch(ctx, fileID)
	assert.ErrorIs(t, err, ErrFileNotFound)

	// Deleting twice is fine.
	assert.NoError(t, store.Delete(ctx, fileID))
}

func TestDiskStore_RejectsBadBase64(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Save(context.Background(), "id.jpg", "image/jpeg", "not base64!!!")
	assert.Error(t, err)
}

func TestDiskStore_ExplicitContentTypeWins(t *testing.T) {
	ctx := context.Background()
	store, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)

	content := base64.StdEncoding.EncodeToString([]byte("%PDF-1.4"))
	fileID, err := store.Save(ctx, "report.jpg", "application/pdf", content)
	require.NoError(t, err)

	fd, err := store.Fetch(ctx, fileID)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", fd.ContentType)
}

func TestDeriveContentType(t *testing.T) {
	assert.Equal(t, "image/png", DeriveContentType("photo.PNG"))
	assert.Equal(t, "application/pdf", DeriveContentType("doc.pdf"))
	assert.Equal(t, "application/octet-stream", DeriveContentType("mystery.bin"))
	assert.Equal(t, "application/octet-stream", DeriveContentType("noext"))
}
