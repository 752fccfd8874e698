package seengo

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// Import mode tags reported to metrics and logs.
const (
	importModeMerge    = "merge"
	importModeOverride = "override"
)

// dedupeIDs drops empty strings and duplicates, preserving
// first-occurrence order.
func dedupeIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func (s *Store) checkImportSize(ids []string) error {
	if len(ids) > s.maxImportCount {
		return &ErrImportTooLarge{Count: len(ids), Limit: s.maxImportCount}
	}
	return nil
}

// writeNewChunks partitions ids into chunkSize groups numbered from
// startSeq and writes each chunk record. Returns the ordered chunk
// names and their counts. Nothing here touches the index; the caller
// owns the commit.
func (s *Store) writeNewChunks(ctx context.Context, ids []string, startSeq, chunkSize int) ([]string, map[string]int, error) {
	var names []string
	counts := make(map[string]int)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(chunkReadParallelism)

	for i := 0; i < len(ids); i += chunkSize {
		end := min(i+chunkSize, len(ids))
		group := ids[i:end]

		name := chunkName(startSeq + i/chunkSize)
		names = append(names, name)
		counts[name] = len(group)

		g.Go(func() error {
			c := make(chunk, len(group))
			for _, id := range group {
				c[id] = 1
			}
			return s.writeChunk(gctx, name, c)
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	if len(names) > 0 {
		s.observeSeq(startSeq + len(names) - 1)
	}
	return names, counts, nil
}

// ExportAll returns every stored identifier, deduplicated, ordered by
// chunk sequence and lexicographically within each chunk. Pure read.
func (s *Store) ExportAll(ctx context.Context) (ExportResult, error) {
	start := time.Now()

	res, err := s.exportAll(ctx)

	s.metrics.RecordExport(res.Count, time.Since(start), err)
	s.logger.LogExport(ctx, res.Count, err)
	return res, err
}

func (s *Store) exportAll(ctx context.Context) (ExportResult, error) {
	idx, err := s.ensureIndexShared(ctx)
	if err != nil {
		return ExportResult{}, err
	}

	chunks, err := s.readChunks(ctx, idx.Chunks)
	if err != nil {
		return ExportResult{}, err
	}

	seen := make(map[string]struct{}, idx.Total)
	ids := make([]string, 0, idx.Total)
	for _, c := range chunks {
		for _, id := range c.sortedIDs() {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}

	return ExportResult{IDs: ids, Count: len(ids)}, nil
}

// ImportOverride replaces the entire store with exactly the
// deduplicated, non-empty members of ids.
//
// Write-then-swap: every new chunk is written before the single index
// write that commits the swap. A crash before the commit leaves the
// old store authoritative and untouched; after it, the new store is
// authoritative and old chunks are at worst harmless orphans.
func (s *Store) ImportOverride(ctx context.Context, ids []string) (ImportResult, error) {
	start := time.Now()

	if err := s.checkImportSize(ids); err != nil {
		s.metrics.RecordImport(importModeOverride, 0, 0, time.Since(start), err)
		return ImportResult{}, err
	}
	deduped := dedupeIDs(ids)

	var res ImportResult
	err := s.submit(ctx, func(ctx context.Context) error {
		// Capture the chunk set to retire. An invalid index falls back
		// to a naming-convention scan so nothing is orphaned silently.
		var oldChunks []string
		chunkSize := s.chunkSize

		idx, ok, err := s.loadIndexFast(ctx)
		if err != nil {
			return err
		}
		if ok {
			oldChunks = idx.Chunks
			chunkSize = idx.ChunkSize
		} else {
			oldChunks, err = s.scanChunkNames(ctx)
			if err != nil {
				return err
			}
		}

		// New sequence numbers continue past all surviving old data so
		// names never collide.
		startSeq := maxSeq(oldChunks)
		if hw := s.highWater(); hw > startSeq {
			startSeq = hw
		}
		startSeq++

		names, counts, err := s.writeNewChunks(ctx, deduped, startSeq, chunkSize)
		if err != nil {
			return err
		}
		if names == nil {
			names = []string{}
		}

		newIdx := &index{
			Version:   indexVersion,
			ChunkSize: chunkSize,
			Chunks:    names,
			Counts:    counts,
			Total:     len(deduped),
		}
		// Commit point.
		if err := s.writeIndex(ctx, newIdx); err != nil {
			return err
		}

		// Best effort: the index no longer references these, so a
		// failed delete only leaks an orphan for a later clear/repair.
		for _, old := range oldChunks {
			if err := s.backend.Delete(ctx, old); err != nil {
				s.logger.LogOrphanCleanup(ctx, old, err)
			}
		}

		members := make(map[string]struct{}, len(deduped))
		for _, id := range deduped {
			members[id] = struct{}{}
		}
		s.setMembers(members)

		res = ImportResult{New: len(deduped), Duplicates: 0, Total: len(deduped)}
		return nil
	})

	s.metrics.RecordImport(importModeOverride, res.New, res.Duplicates, time.Since(start), err)
	s.logger.LogImport(ctx, importModeOverride, res.New, res.Duplicates, err)
	if err != nil {
		return ImportResult{}, err
	}
	return res, nil
}

// ImportMerge adds only the identifiers not already present. Existing
// chunks are never rewritten or deleted; new identifiers land in fresh
// chunks appended behind the existing ones by a single index update.
func (s *Store) ImportMerge(ctx context.Context, ids []string) (ImportResult, error) {
	start := time.Now()

	if err := s.checkImportSize(ids); err != nil {
		s.metrics.RecordImport(importModeMerge, 0, 0, time.Since(start), err)
		return ImportResult{}, err
	}
	deduped := dedupeIDs(ids)

	var res ImportResult
	err := s.submit(ctx, func(ctx context.Context) error {
		idx, err := s.ensureIndex(ctx)
		if err != nil {
			return err
		}

		// Fresh membership straight from the chunks, not the cache:
		// merge placement decisions must reflect the backend.
		chunks, err := s.readChunks(ctx, idx.Chunks)
		if err != nil {
			return err
		}
		existing := make(map[string]struct{}, idx.Total)
		for _, c := range chunks {
			for id := range c {
				existing[id] = struct{}{}
			}
		}

		toWrite := make([]string, 0, len(deduped))
		for _, id := range deduped {
			if _, ok := existing[id]; !ok {
				toWrite = append(toWrite, id)
			}
		}
		duplicates := len(deduped) - len(toWrite)

		if len(toWrite) == 0 {
			s.setMembers(existing)
			res = ImportResult{New: 0, Duplicates: duplicates, Total: idx.Total}
			return nil
		}

		startSeq := maxSeq(idx.Chunks)
		if hw := s.highWater(); hw > startSeq {
			startSeq = hw
		}
		startSeq++

		names, counts, err := s.writeNewChunks(ctx, toWrite, startSeq, idx.ChunkSize)
		if err != nil {
			return err
		}

		idx.Chunks = append(idx.Chunks, names...)
		for name, count := range counts {
			idx.Counts[name] = count
		}
		idx.Total += len(toWrite)
		// Single index update commits the merge.
		if err := s.writeIndex(ctx, idx); err != nil {
			return err
		}

		for _, id := range toWrite {
			existing[id] = struct{}{}
		}
		s.setMembers(existing)

		res = ImportResult{New: len(toWrite), Duplicates: duplicates, Total: idx.Total}
		return nil
	})

	s.metrics.RecordImport(importModeMerge, res.New, res.Duplicates, time.Since(start), err)
	s.logger.LogImport(ctx, importModeMerge, res.New, res.Duplicates, err)
	if err != nil {
		return ImportResult{}, err
	}
	return res, nil
}
