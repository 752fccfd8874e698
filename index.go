package seengo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hupe1980/seengo/recordstore"
)

const (
	indexRecordName = "index"
	indexVersion    = 1
)

// index is the single authoritative metadata record: chunk order,
// per-chunk counts and the running total. It is derived state - a full
// chunk scan can rebuild it at any time.
type index struct {
	Version   int            `json:"version"`
	ChunkSize int            `json:"chunk_size"`
	Chunks    []string       `json:"chunks"`
	Counts    map[string]int `json:"counts"`
	Total     int            `json:"total"`
}

func (s *Store) newIndex() *index {
	return &index{
		Version:   indexVersion,
		ChunkSize: s.chunkSize,
		Chunks:    []string{},
		Counts:    map[string]int{},
		Total:     0,
	}
}

// writeIndex persists the index in a single record write. This is the
// commit point for every multi-step mutation.
func (s *Store) writeIndex(ctx context.Context, idx *index) error {
	data, err := s.codec.Marshal(idx)
	if err != nil {
		return fmt.Errorf("index: %w", err)
	}
	return s.backend.Put(ctx, indexRecordName, data)
}

// loadIndexFast reads and validates the index record without touching
// any chunk. ok is false when the record is absent or structurally
// invalid and a rebuild is required. The fast path deliberately does
// not verify that the listed chunks still exist in the backend.
func (s *Store) loadIndexFast(ctx context.Context) (*index, bool, error) {
	data, err := s.backend.Get(ctx, indexRecordName)
	if errors.Is(err, recordstore.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var idx index
	if err := s.codec.Unmarshal(data, &idx); err != nil {
		return nil, false, nil
	}
	if !s.normalizeIndex(&idx) {
		return nil, false, nil
	}

	if seq := maxSeq(idx.Chunks); seq >= 0 {
		s.observeSeq(seq)
	}
	return &idx, true, nil
}

// normalizeIndex fills defaults for missing optional fields and checks
// the structural invariants the index guarantees about itself: every
// chunk name parses, sequence numbers strictly increase, counts are
// non-negative and sum to the total. Returns false when the record
// must be rebuilt instead of trusted.
func (s *Store) normalizeIndex(idx *index) bool {
	if idx.Chunks == nil {
		return false
	}
	if idx.ChunkSize <= 0 {
		idx.ChunkSize = s.chunkSize
	}
	if idx.Counts == nil {
		idx.Counts = map[string]int{}
	}

	prev := -1
	sum := 0
	for _, name := range idx.Chunks {
		seq, ok := parseChunkSeq(name)
		if !ok || seq <= prev {
			return false
		}
		prev = seq

		count := idx.Counts[name]
		if count < 0 {
			return false
		}
		sum += count
	}
	return sum == idx.Total
}

// rebuildIndex recomputes the index from a full backend scan and
// persists it before returning. Must only run on the serializer.
func (s *Store) rebuildIndex(ctx context.Context) (*index, error) {
	start := time.Now()
	idx, err := s.rebuildIndexScan(ctx)
	s.metrics.RecordRepair(len(idxChunks(idx)), time.Since(start), err)
	if err != nil {
		s.logger.LogRepair(ctx, 0, 0, err)
		return nil, err
	}
	s.logger.LogRepair(ctx, len(idx.Chunks), idx.Total, nil)
	return idx, nil
}

func idxChunks(idx *index) []string {
	if idx == nil {
		return nil
	}
	return idx.Chunks
}

func (s *Store) rebuildIndexScan(ctx context.Context) (*index, error) {
	names, err := s.scanChunkNames(ctx)
	if err != nil {
		return nil, err
	}

	chunks, err := s.readChunks(ctx, names)
	if err != nil {
		return nil, err
	}

	idx := s.newIndex()
	members := make(map[string]struct{})
	for i, name := range names {
		idx.Chunks = append(idx.Chunks, name)
		idx.Counts[name] = len(chunks[i])
		idx.Total += len(chunks[i])
		for id := range chunks[i] {
			members[id] = struct{}{}
		}
	}

	if err := s.writeIndex(ctx, idx); err != nil {
		return nil, err
	}

	// The scan already visited every identifier, so refresh the
	// membership cache while it is cheap.
	s.setMembers(members)
	if seq := maxSeq(idx.Chunks); seq >= 0 {
		s.observeSeq(seq)
	}
	return idx, nil
}

// ensureIndex returns a valid index, rebuilding if needed. Must only
// run on the serializer (the rebuild persists).
func (s *Store) ensureIndex(ctx context.Context) (*index, error) {
	idx, ok, err := s.loadIndexFast(ctx)
	if err != nil {
		return nil, err
	}
	if ok {
		return idx, nil
	}
	return s.rebuildIndex(ctx)
}

// ensureIndexShared is the read-path variant: the fast path runs
// directly on the caller's goroutine, and only a required rebuild is
// routed through the serializer so all backend writes stay single-owner.
func (s *Store) ensureIndexShared(ctx context.Context) (*index, error) {
	idx, ok, err := s.loadIndexFast(ctx)
	if err != nil {
		return nil, err
	}
	if ok {
		return idx, nil
	}

	var rebuilt *index
	err = s.submit(ctx, func(ctx context.Context) error {
		// Another queued mutation may have repaired the index while
		// this task waited; re-check before scanning.
		idx, ok, err := s.loadIndexFast(ctx)
		if err != nil {
			return err
		}
		if ok {
			rebuilt = idx
			return nil
		}
		rebuilt, err = s.rebuildIndex(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rebuilt, nil
}
