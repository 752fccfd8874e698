package seengo

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/hupe1980/seengo/codec"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// SnapshotFormat tags seengo export documents.
const SnapshotFormat = "seengo.export"

// snapshotVersion is the current export document version.
const snapshotVersion = 1

// Snapshot is the bulk export/import document. Import also accepts a
// bare JSON array of identifiers for compatibility with hand-rolled
// exports; any other shape is rejected.
type Snapshot struct {
	Format     string    `json:"format"`
	Version    int       `json:"version"`
	Codec      string    `json:"codec,omitempty"`
	ExportedAt time.Time `json:"exported_at"`
	Count      int       `json:"count"`
	IDs        []string  `json:"ids"`
}

// Compression selects the stream compression for snapshot files.
type Compression int

const (
	// CompressionNone writes the document uncompressed.
	CompressionNone Compression = iota
	// CompressionZstd compresses with zstandard.
	CompressionZstd
	// CompressionLZ4 compresses with the LZ4 frame format.
	CompressionLZ4
)

// Frame magics used for sniffing on read.
var (
	zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}
	lz4Magic  = []byte{0x04, 0x22, 0x4D, 0x18}
)

// WriteSnapshot encodes the document with c (codec.Default if nil) and
// writes it to w with the chosen compression.
func WriteSnapshot(w io.Writer, snap *Snapshot, c codec.Codec, comp Compression) error {
	if c == nil {
		c = codec.Default
	}
	snap.Format = SnapshotFormat
	snap.Version = snapshotVersion
	snap.Codec = c.Name()
	snap.Count = len(snap.IDs)
	if snap.ExportedAt.IsZero() {
		snap.ExportedAt = time.Now().UTC()
	}

	data, err := c.Marshal(snap)
	if err != nil {
		return err
	}

	switch comp {
	case CompressionNone:
		_, err = w.Write(data)
		return err
	case CompressionZstd:
		zw, err := zstd.NewWriter(w)
		if err != nil {
			return err
		}
		if _, err := zw.Write(data); err != nil {
			zw.Close()
			return err
		}
		return zw.Close()
	case CompressionLZ4:
		lw := lz4.NewWriter(w)
		if _, err := lw.Write(data); err != nil {
			lw.Close()
			return err
		}
		return lw.Close()
	default:
		return fmt.Errorf("unknown compression: %d", comp)
	}
}

// ReadSnapshot reads a snapshot document from r, transparently
// decompressing zstd and lz4 streams by sniffing their frame magic.
func ReadSnapshot(r io.Reader) (*Snapshot, error) {
	br := bufio.NewReader(r)

	head, err := br.Peek(4)
	if err != nil && len(head) == 0 {
		return nil, &ErrInvalidSnapshot{Reason: "empty payload", cause: err}
	}

	var body io.Reader = br
	switch {
	case bytes.HasPrefix(head, zstdMagic):
		zr, err := zstd.NewReader(br)
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		body = zr.IOReadCloser()
	case bytes.HasPrefix(head, lz4Magic):
		body = lz4.NewReader(br)
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	return DecodeSnapshot(data, nil)
}

// DecodeSnapshot parses an uncompressed snapshot payload: either the
// wrapped document form or a bare identifier array. c decodes the
// payload (codec.Default if nil); wrapped documents naming a known
// codec are re-decoded with it.
func DecodeSnapshot(data []byte, c codec.Codec) (*Snapshot, error) {
	if c == nil {
		c = codec.Default
	}

	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) == 0 {
		return nil, &ErrInvalidSnapshot{Reason: "empty payload"}
	}

	switch trimmed[0] {
	case '[':
		var ids []string
		if err := c.Unmarshal(data, &ids); err != nil {
			return nil, &ErrInvalidSnapshot{Reason: "malformed identifier array", cause: err}
		}
		return &Snapshot{Count: len(ids), IDs: ids}, nil
	case '{':
		var snap Snapshot
		if err := c.Unmarshal(data, &snap); err != nil {
			return nil, &ErrInvalidSnapshot{Reason: "malformed export document", cause: err}
		}
		if snap.Format != SnapshotFormat {
			return nil, &ErrInvalidSnapshot{Reason: fmt.Sprintf("unrecognized format tag %q", snap.Format)}
		}
		if snap.Version > snapshotVersion {
			return nil, &ErrInvalidSnapshot{Reason: fmt.Sprintf("unsupported version %d", snap.Version)}
		}
		// Self-describing codec: re-decode when the document was
		// written by a different known codec.
		if snap.Codec != "" && snap.Codec != c.Name() {
			if named, ok := codec.ByName(snap.Codec); ok {
				if err := named.Unmarshal(data, &snap); err != nil {
					return nil, &ErrInvalidSnapshot{Reason: "malformed export document", cause: err}
				}
			}
		}
		if snap.IDs == nil {
			snap.IDs = []string{}
		}
		return &snap, nil
	default:
		return nil, &ErrInvalidSnapshot{Reason: "payload is neither an export document nor an identifier array"}
	}
}

// Export writes the full identifier set to w as a snapshot document.
func (s *Store) Export(ctx context.Context, w io.Writer, comp Compression) error {
	res, err := s.ExportAll(ctx)
	if err != nil {
		return err
	}
	return WriteSnapshot(w, &Snapshot{IDs: res.IDs}, s.codec, comp)
}

// ImportSnapshot reads a snapshot document from r and loads it, either
// merging with or overriding the current store contents.
func (s *Store) ImportSnapshot(ctx context.Context, r io.Reader, override bool) (ImportResult, error) {
	snap, err := ReadSnapshot(r)
	if err != nil {
		return ImportResult{}, err
	}
	if override {
		return s.ImportOverride(ctx, snap.IDs)
	}
	return s.ImportMerge(ctx, snap.IDs)
}
