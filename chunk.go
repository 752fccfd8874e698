package seengo

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/hupe1980/seengo/recordstore"
	"golang.org/x/sync/errgroup"
)

const (
	chunkPrefix = "chunk_"

	// seqWidth pads sequence numbers for lexicographic ordering in
	// backend listings. Sequence numbers above 9999 simply widen.
	seqWidth = 4

	// chunkReadParallelism bounds concurrent backend reads on the
	// scan-heavy paths (rebuild, export, membership load).
	chunkReadParallelism = 8
)

// chunk is a presence set: key existence is all that matters, the
// value is a constant 1 for wire compatibility with map-shaped records.
type chunk map[string]int

func chunkName(seq int) string {
	return fmt.Sprintf("%s%0*d", chunkPrefix, seqWidth, seq)
}

// parseChunkSeq extracts the sequence number from a record name.
// Returns false for names outside the chunk naming convention.
func parseChunkSeq(name string) (int, bool) {
	rest, ok := strings.CutPrefix(name, chunkPrefix)
	if !ok || rest == "" {
		return 0, false
	}
	for _, r := range rest {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	seq, err := strconv.Atoi(rest)
	if err != nil {
		return 0, false
	}
	return seq, true
}

func (s *Store) readChunk(ctx context.Context, name string) (chunk, error) {
	data, err := s.backend.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	var c chunk
	if err := s.codec.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("chunk %s: %w", name, err)
	}
	if c == nil {
		c = chunk{}
	}
	return c, nil
}

func (s *Store) writeChunk(ctx context.Context, name string, c chunk) error {
	data, err := s.codec.Marshal(c)
	if err != nil {
		return fmt.Errorf("chunk %s: %w", name, err)
	}
	return s.backend.Put(ctx, name, data)
}

// scanChunkNames lists every backend record matching the chunk naming
// convention, ordered by sequence number.
func (s *Store) scanChunkNames(ctx context.Context) ([]string, error) {
	names, err := s.backend.List(ctx, chunkPrefix)
	if err != nil {
		return nil, err
	}

	type named struct {
		name string
		seq  int
	}
	var found []named
	for _, name := range names {
		seq, ok := parseChunkSeq(name)
		if !ok {
			continue
		}
		found = append(found, named{name: name, seq: seq})
	}
	sort.Slice(found, func(i, j int) bool { return found[i].seq < found[j].seq })

	ordered := make([]string, len(found))
	for i, f := range found {
		ordered[i] = f.name
	}
	return ordered, nil
}

// readChunks reads the named chunks with bounded parallelism,
// preserving input order. A chunk listed but missing in the backend is
// returned as empty rather than failing the whole read.
func (s *Store) readChunks(ctx context.Context, names []string) ([]chunk, error) {
	chunks := make([]chunk, len(names))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(chunkReadParallelism)
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			c, err := s.readChunk(gctx, name)
			if errors.Is(err, recordstore.ErrNotFound) {
				chunks[i] = chunk{}
				return nil
			}
			if err != nil {
				return err
			}
			chunks[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return chunks, nil
}

// maxSeq returns the highest sequence number among names, or -1.
func maxSeq(names []string) int {
	max := -1
	for _, name := range names {
		if seq, ok := parseChunkSeq(name); ok && seq > max {
			max = seq
		}
	}
	return max
}

// nextSeq picks the sequence number for a new chunk: one past both the
// index's highest chunk and anything this instance has ever allocated,
// so numbers are never reused even across clear cycles.
func (s *Store) nextSeq(idx *index) int {
	next := maxSeq(idx.Chunks)
	if hw := s.highWater(); hw > next {
		next = hw
	}
	next++
	s.observeSeq(next)
	return next
}

// allocateChunk appends a fresh, empty active chunk to the index and
// persists both records. The empty chunk is written first so a crash
// between the two writes leaves an unreferenced empty record, never an
// index entry pointing at nothing.
func (s *Store) allocateChunk(ctx context.Context, idx *index) (string, error) {
	name := chunkName(s.nextSeq(idx))

	if err := s.writeChunk(ctx, name, chunk{}); err != nil {
		return "", err
	}

	idx.Chunks = append(idx.Chunks, name)
	idx.Counts[name] = 0
	if err := s.writeIndex(ctx, idx); err != nil {
		return "", err
	}
	return name, nil
}

// sortedIDs returns the chunk's identifiers in lexicographic order.
func (c chunk) sortedIDs() []string {
	ids := make([]string, 0, len(c))
	for id := range c {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
