package seengo

import (
	"bytes"
	"context"
	"testing"

	"github.com/hupe1980/seengo/codec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotRoundTrip(t *testing.T) {
	ids := []string{"a", "b", "c"}

	for _, tt := range []struct {
		name string
		comp Compression
	}{
		{"None", CompressionNone},
		{"Zstd", CompressionZstd},
		{"LZ4", CompressionLZ4},
	} {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := WriteSnapshot(&buf, &Snapshot{IDs: ids}, nil, tt.comp)
			require.NoError(t, err)

			snap, err := ReadSnapshot(&buf)
			require.NoError(t, err)
			assert.Equal(t, SnapshotFormat, snap.Format)
			assert.Equal(t, 3, snap.Count)
			assert.Equal(t, ids, snap.IDs)
			assert.False(t, snap.ExportedAt.IsZero())
		})
	}
}

func TestDecodeSnapshot(t *testing.T) {
	t.Run("BareArray", func(t *testing.T) {
		snap, err := DecodeSnapshot([]byte(`["x","y"]`), nil)
		require.NoError(t, err)
		assert.Equal(t, 2, snap.Count)
		assert.Equal(t, []string{"x", "y"}, snap.IDs)
	})

	t.Run("WrappedDocument", func(t *testing.T) {
		data := codec.MustMarshal(nil, &Snapshot{
			Format:  SnapshotFormat,
			Version: 1,
			Count:   1,
			IDs:     []string{"x"},
		})
		snap, err := DecodeSnapshot(data, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"x"}, snap.IDs)
	})

	t.Run("StdlibCodecHeader", func(t *testing.T) {
		data := codec.MustMarshal(codec.JSON{}, &Snapshot{
			Format:  SnapshotFormat,
			Version: 1,
			Codec:   "json",
			IDs:     []string{"x"},
		})
		snap, err := DecodeSnapshot(data, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"x"}, snap.IDs)
	})

	t.Run("UnknownFormatTag", func(t *testing.T) {
		_, err := DecodeSnapshot([]byte(`{"format":"other.export","ids":[]}`), nil)
		var invalid *ErrInvalidSnapshot
		require.ErrorAs(t, err, &invalid)
	})

	t.Run("UnsupportedVersion", func(t *testing.T) {
		_, err := DecodeSnapshot([]byte(`{"format":"seengo.export","version":99,"ids":[]}`), nil)
		var invalid *ErrInvalidSnapshot
		require.ErrorAs(t, err, &invalid)
	})

	t.Run("Garbage", func(t *testing.T) {
		_, err := DecodeSnapshot([]byte("not a snapshot"), nil)
		var invalid *ErrInvalidSnapshot
		require.ErrorAs(t, err, &invalid)
	})

	t.Run("Empty", func(t *testing.T) {
		_, err := DecodeSnapshot(nil, nil)
		var invalid *ErrInvalidSnapshot
		require.ErrorAs(t, err, &invalid)
	})

	t.Run("MalformedArray", func(t *testing.T) {
		_, err := DecodeSnapshot([]byte(`[1,2,3]`), nil)
		var invalid *ErrInvalidSnapshot
		require.ErrorAs(t, err, &invalid)
	})
}

func TestStoreSnapshot(t *testing.T) {
	ctx := context.Background()

	t.Run("ExportImportRoundTrip", func(t *testing.T) {
		store, _ := newTestStore(t, WithChunkSize(2))

		for _, id := range []string{"a", "b", "c"} {
			_, err := store.Add(ctx, id)
			require.NoError(t, err)
		}

		var buf bytes.Buffer
		require.NoError(t, store.Export(ctx, &buf, CompressionZstd))

		require.NoError(t, store.Clear(ctx))

		res, err := store.ImportSnapshot(ctx, &buf, false)
		require.NoError(t, err)
		assert.Equal(t, 3, res.New)
		assert.Equal(t, 3, res.Total)

		export, err := store.ExportAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "c"}, export.IDs)
	})

	t.Run("ImportBareArrayOverride", func(t *testing.T) {
		store, _ := newTestStore(t)

		_, err := store.Add(ctx, "old")
		require.NoError(t, err)

		res, err := store.ImportSnapshot(ctx, bytes.NewReader([]byte(`["x","y"]`)), true)
		require.NoError(t, err)
		assert.Equal(t, 2, res.Total)

		export, err := store.ExportAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"x", "y"}, export.IDs)
	})

	t.Run("ImportRejectsUnknownShape", func(t *testing.T) {
		store, _ := newTestStore(t)

		_, err := store.ImportSnapshot(ctx, bytes.NewReader([]byte(`{"hello":"world"}`)), false)
		var invalid *ErrInvalidSnapshot
		require.ErrorAs(t, err, &invalid)
	})
}
