package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/sentitrack/sentitrack/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStorage(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStorage(filepath.Join(t.TempDir(), "archive"))
	require.NoError(t, err)

	require.NoError(t, store.Store(ctx, "digests/a.json", []byte(`{"a":1}`)))
	require.NoError(t, store.Store(ctx, "other/b.json", []byte(`{}`)))

	data, err := store.Retrieve(ctx, "digests/a.json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(data))

	names, err := store.List(ctx, "digests/")
	require.NoError(t, err)
	assert.Equal(t, []string{"digests/a.json"}, names)

	require.NoError(t, store.Delete(ctx, "digests/a.json"))
	_, err = store.Retrieve(ctx, "digests/a.json")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.Delete(ctx, "digests/a.json"), ErrNotFound)
}

func TestNewFileStorage_RequiresDirectory(t *testing.T) {
	_, err := NewFileStorage("")
	assert.Error(t, err)
}

func TestDigestArchive_OnFileStorage(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStorage(t.TempDir())
	require.NoError(t, err)
	archive := NewDigestArchive(store)

	base := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		_, err := archive.Save(ctx, &models.Digest{GeneratedAt: base.AddDate(0, 0, i), Schedule: "daily", Period: "lastweek"})
		require.NoError(t, err)
	}

	removed, err := archive.Prune(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	latest, err := archive.Latest(ctx)
	require.NoError(t, err)
	assert.True(t, latest.GeneratedAt.Equal(base.AddDate(0, 0, 2)))
}

func TestOpenArchive(t *testing.T) {
	archive, err := OpenArchive(context.Background(), "", "digests", "")
	require.NoError(t, err)
	assert.Nil(t, archive)

	archive, err = OpenArchive(context.Background(), "", "digests", t.TempDir())
	require.NoError(t, err)
	require.NotNil(t, archive)
	_, err = archive.Latest(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)
}
