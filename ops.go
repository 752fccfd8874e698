package seengo

import (
	"context"
	"errors"
	"time"

	"github.com/hupe1980/seengo/recordstore"
)

// membership returns the set of all identifiers currently stored,
// loading it from the index's chunks on first use. Must only run on
// the serializer; the returned map is the live cache.
func (s *Store) membership(ctx context.Context, idx *index) (map[string]struct{}, error) {
	if m := s.cachedMembers(); m != nil {
		return m, nil
	}

	chunks, err := s.readChunks(ctx, idx.Chunks)
	if err != nil {
		return nil, err
	}

	members := make(map[string]struct{}, idx.Total)
	for _, c := range chunks {
		for id := range c {
			members[id] = struct{}{}
		}
	}
	s.setMembers(members)
	return members, nil
}

// Add records the identifier as processed. When it is already present
// anywhere in the store, nothing is written and Added is false.
func (s *Store) Add(ctx context.Context, id string) (AddResult, error) {
	start := time.Now()

	if id == "" {
		s.metrics.RecordAdd(time.Since(start), false, ErrEmptyIdentifier)
		return AddResult{}, ErrEmptyIdentifier
	}

	var res AddResult
	err := s.submit(ctx, func(ctx context.Context) error {
		idx, err := s.ensureIndex(ctx)
		if err != nil {
			return err
		}

		members, err := s.membership(ctx, idx)
		if err != nil {
			return err
		}
		if _, ok := members[id]; ok {
			res = AddResult{Added: false, Total: idx.Total}
			return nil
		}

		// Active chunk: the last one, unless full or absent.
		var name string
		if n := len(idx.Chunks); n > 0 {
			last := idx.Chunks[n-1]
			if idx.Counts[last] < idx.ChunkSize {
				name = last
			}
		}
		if name == "" {
			name, err = s.allocateChunk(ctx, idx)
			if err != nil {
				return err
			}
		}

		// Re-read the chunk in this same serialized turn; never write
		// from contents cached across turns.
		c, err := s.readChunk(ctx, name)
		if errors.Is(err, recordstore.ErrNotFound) {
			c = chunk{}
		} else if err != nil {
			return err
		}

		if _, ok := c[id]; ok {
			members[id] = struct{}{}
			res = AddResult{Added: false, Total: idx.Total}
			return nil
		}

		c[id] = 1
		if err := s.writeChunk(ctx, name, c); err != nil {
			return err
		}
		// The identifier is durably in the chunk from here on; a failed
		// index write leaves a divergence the repair path heals.
		members[id] = struct{}{}

		idx.Counts[name]++
		idx.Total++
		if err := s.writeIndex(ctx, idx); err != nil {
			return err
		}

		res = AddResult{Added: true, Total: idx.Total}
		return nil
	})

	s.metrics.RecordAdd(time.Since(start), res.Added, err)
	s.logger.LogAdd(ctx, res.Added, res.Total, err)
	if err != nil {
		return AddResult{}, err
	}
	return res, nil
}

// Count returns the running total of stored identifiers.
//
// The fast path reads the index record directly without entering the
// serializer; only a required rebuild is serialized.
func (s *Store) Count(ctx context.Context) (int, error) {
	idx, err := s.ensureIndexShared(ctx)
	if err != nil {
		return 0, err
	}
	return idx.Total, nil
}

// Clear removes every chunk record and the index. Orphan chunks left
// behind by an earlier override are reclaimed as well. Clearing an
// empty store is a no-op.
func (s *Store) Clear(ctx context.Context) error {
	start := time.Now()

	var removed int
	err := s.submit(ctx, func(ctx context.Context) error {
		targets := make(map[string]struct{})

		idx, ok, err := s.loadIndexFast(ctx)
		if err != nil {
			return err
		}
		if ok {
			for _, name := range idx.Chunks {
				targets[name] = struct{}{}
			}
		}

		// Scan regardless of index validity so orphans cannot survive
		// a clear.
		scanned, err := s.scanChunkNames(ctx)
		if err != nil {
			return err
		}
		for _, name := range scanned {
			targets[name] = struct{}{}
		}

		for name := range targets {
			if err := s.backend.Delete(ctx, name); err != nil {
				return err
			}
		}
		if err := s.backend.Delete(ctx, indexRecordName); err != nil {
			return err
		}

		removed = len(targets)
		s.setMembers(map[string]struct{}{})
		return nil
	})

	s.metrics.RecordClear(time.Since(start), err)
	s.logger.LogClear(ctx, removed, err)
	return err
}
