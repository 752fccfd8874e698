package seengo

import (
	"context"
	"testing"

	"github.com/hupe1980/seengo/codec"
	"github.com/hupe1980/seengo/recordstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeIndex(t *testing.T) {
	store, _ := newTestStore(t)

	t.Run("FillsDefaults", func(t *testing.T) {
		idx := &index{Chunks: []string{}}
		require.True(t, store.normalizeIndex(idx))
		assert.Equal(t, DefaultChunkSize, idx.ChunkSize)
		assert.NotNil(t, idx.Counts)
		assert.Equal(t, 0, idx.Total)
	})

	t.Run("ValidIndex", func(t *testing.T) {
		idx := &index{
			ChunkSize: 2,
			Chunks:    []string{"chunk_0000", "chunk_0002"},
			Counts:    map[string]int{"chunk_0000": 2, "chunk_0002": 1},
			Total:     3,
		}
		assert.True(t, store.normalizeIndex(idx))
	})

	t.Run("MissingChunkList", func(t *testing.T) {
		assert.False(t, store.normalizeIndex(&index{Total: 3}))
	})

	t.Run("UnorderedChunks", func(t *testing.T) {
		idx := &index{
			Chunks: []string{"chunk_0002", "chunk_0001"},
			Counts: map[string]int{"chunk_0002": 0, "chunk_0001": 0},
		}
		assert.False(t, store.normalizeIndex(idx))
	})

	t.Run("DuplicateChunk", func(t *testing.T) {
		idx := &index{
			Chunks: []string{"chunk_0001", "chunk_0001"},
			Counts: map[string]int{"chunk_0001": 0},
		}
		assert.False(t, store.normalizeIndex(idx))
	})

	t.Run("BadChunkName", func(t *testing.T) {
		idx := &index{
			Chunks: []string{"chunk_abc"},
			Counts: map[string]int{"chunk_abc": 1},
			Total:  1,
		}
		assert.False(t, store.normalizeIndex(idx))
	})

	t.Run("TotalMismatch", func(t *testing.T) {
		idx := &index{
			Chunks: []string{"chunk_0000"},
			Counts: map[string]int{"chunk_0000": 2},
			Total:  5,
		}
		assert.False(t, store.normalizeIndex(idx))
	})

	t.Run("NegativeCount", func(t *testing.T) {
		idx := &index{
			Chunks: []string{"chunk_0000"},
			Counts: map[string]int{"chunk_0000": -1},
			Total:  -1,
		}
		assert.False(t, store.normalizeIndex(idx))
	})
}

func TestParseChunkSeq(t *testing.T) {
	tests := []struct {
		name string
		seq  int
		ok   bool
	}{
		{"chunk_0000", 0, true},
		{"chunk_0042", 42, true},
		{"chunk_12345", 12345, true},
		{"chunk_", 0, false},
		{"chunk_00a1", 0, false},
		{"index", 0, false},
		{"snapshot_0001", 0, false},
	}
	for _, tt := range tests {
		seq, ok := parseChunkSeq(tt.name)
		assert.Equal(t, tt.ok, ok, tt.name)
		if tt.ok {
			assert.Equal(t, tt.seq, seq, tt.name)
		}
	}
}

func TestRebuildFromExistingChunks(t *testing.T) {
	ctx := context.Background()

	// A backend populated by some earlier instance, without an index.
	backend := recordstore.NewMemoryStore()
	require.NoError(t, backend.Put(ctx, "chunk_0000",
		codec.MustMarshal(nil, map[string]int{"a": 1, "b": 1})))
	require.NoError(t, backend.Put(ctx, "chunk_0003",
		codec.MustMarshal(nil, map[string]int{"c": 1})))
	// A record outside the naming convention is ignored.
	require.NoError(t, backend.Put(ctx, "chunk_x", []byte("garbage")))

	store, err := New(backend)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	total, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, total)

	idx, ok, err := store.loadIndexFast(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"chunk_0000", "chunk_0003"}, idx.Chunks)
	assert.Equal(t, 3, idx.Total)

	// New allocations continue past the highest rebuilt sequence.
	res, err := store.Add(ctx, "d")
	require.NoError(t, err)
	assert.True(t, res.Added)

	// chunk_0003 has room (capacity 5000), so "d" lands there.
	c, err := store.readChunk(ctx, "chunk_0003")
	require.NoError(t, err)
	assert.Contains(t, c, "d")
}

func TestIndexFastPathTrust(t *testing.T) {
	ctx := context.Background()
	store, backend := newTestStore(t)

	_, err := store.Add(ctx, "a")
	require.NoError(t, err)

	// Delete the chunk out-of-band but leave the index intact: the
	// fast path deliberately keeps trusting the index until the next
	// full-scan rebuild.
	require.NoError(t, backend.Delete(ctx, "chunk_0000"))

	total, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, total)

	// Forcing the repair path reconciles with the backend.
	require.NoError(t, backend.Delete(ctx, "index"))
	total, err = store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, total)
}
