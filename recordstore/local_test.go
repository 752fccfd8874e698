package recordstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStore(t *testing.T) {
	ctx := context.Background()

	t.Run("PutGetDelete", func(t *testing.T) {
		store, err := NewLocalStore(t.TempDir())
		require.NoError(t, err)

		require.NoError(t, store.Put(ctx, "a", []byte("payload")))

		data, err := store.Get(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, []byte("payload"), data)

		require.NoError(t, store.Delete(ctx, "a"))
		_, err = store.Get(ctx, "a")
		require.ErrorIs(t, err, ErrNotFound)

		// Deleting again is not an error.
		require.NoError(t, store.Delete(ctx, "a"))
	})

	t.Run("CreatesRoot", func(t *testing.T) {
		root := filepath.Join(t.TempDir(), "nested", "dir")
		_, err := NewLocalStore(root)
		require.NoError(t, err)

		info, err := os.Stat(root)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("PutReplacesAtomically", func(t *testing.T) {
		dir := t.TempDir()
		store, err := NewLocalStore(dir)
		require.NoError(t, err)

		require.NoError(t, store.Put(ctx, "a", []byte("v1")))
		require.NoError(t, store.Put(ctx, "a", []byte("v2")))

		data, err := store.Get(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, []byte("v2"), data)

		// No temp files left behind.
		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "a", entries[0].Name())
	})

	t.Run("ListFiltersPrefixAndTempFiles", func(t *testing.T) {
		dir := t.TempDir()
		store, err := NewLocalStore(dir)
		require.NoError(t, err)

		require.NoError(t, store.Put(ctx, "chunk_0000", nil))
		require.NoError(t, store.Put(ctx, "index", nil))
		// A stranded temp file from a crashed writer must not list.
		require.NoError(t, os.WriteFile(filepath.Join(dir, "chunk_0001.tmp"), nil, 0o644))

		names, err := store.List(ctx, "chunk_")
		require.NoError(t, err)
		assert.Equal(t, []string{"chunk_0000"}, names)
	})
}
