// Package seengo provides an embedded, persistent "seen set": a store
// of opaque string identifiers that have already been processed, so a
// client never handles the same item twice across restarts.
//
// Identifiers are sharded into fixed-capacity chunk records over a
// pluggable key-value backend (memory, local filesystem, S3, DynamoDB,
// MinIO). A single small index record describes chunk order, per-chunk
// counts and the running total; it is rebuilt from a full chunk scan
// whenever it is missing or structurally invalid. All mutations funnel
// through a single in-process serializer, and bulk replacement commits
// through one atomic index write so old data survives a crash at any
// earlier step.
//
// # Quick Start
//
//	ctx := context.Background()
//	backend, _ := recordstore.NewLocalStore("./seen")
//	store, err := seengo.New(backend)
//	if err != nil {
//	    panic(err)
//	}
//	defer store.Close()
//
//	res, err := store.Add(ctx, "item-42")
//	if err != nil {
//	    panic(err)
//	}
//	if !res.Added {
//	    // already processed
//	}
//
// Bulk load from an external snapshot:
//
//	res, err := store.ImportMerge(ctx, ids)   // keep existing entries
//	res, err = store.ImportOverride(ctx, ids) // replace the whole set
package seengo

import (
	"sync"

	"github.com/hupe1980/seengo/codec"
	"github.com/hupe1980/seengo/recordstore"
)

// AddResult reports the outcome of a single Add.
type AddResult struct {
	// Added is false when the identifier was already present.
	Added bool
	// Total is the running total after the operation.
	Total int
}

// ImportResult reports the outcome of a bulk import.
type ImportResult struct {
	// New is the number of identifiers written by this import.
	New int
	// Duplicates is the number of input identifiers already present
	// (always 0 in override mode).
	Duplicates int
	// Total is the running total after the import.
	Total int
}

// ExportResult carries a full, deduplicated identifier listing.
type ExportResult struct {
	// IDs is ordered by chunk sequence, then lexicographically within
	// a chunk. The order carries no meaning beyond determinism.
	IDs []string
	// Count is len(IDs).
	Count int
}

// Store is a persistent identifier-set store.
//
// All exported methods are safe for concurrent use. Mutations execute
// strictly one at a time in submission order; reads may run alongside
// them (see Count).
type Store struct {
	backend recordstore.Store
	codec   codec.Codec
	logger  *Logger
	metrics MetricsCollector

	chunkSize      int
	maxImportCount int

	tasks    chan task
	workerWg sync.WaitGroup
	closeMu  sync.RWMutex
	closed   bool

	// In-process state. members caches the membership set for the add
	// fast path; seqHighWater keeps chunk sequence numbers monotonic
	// across Clear within this instance.
	stateMu      sync.Mutex
	members      map[string]struct{}
	seqHighWater int
}

// New creates a Store on top of the given record backend.
//
// The backend is the unit of persistence and crash safety: seengo
// requires only per-record atomic writes from it, never multi-record
// transactions.
func New(backend recordstore.Store, optFns ...Option) (*Store, error) {
	opts := options{
		chunkSize:      DefaultChunkSize,
		codec:          codec.Default,
		logger:         NoopLogger(),
		metrics:        NoopMetricsCollector{},
		maxImportCount: DefaultMaxImportCount,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	s := &Store{
		backend:        backend,
		codec:          opts.codec,
		logger:         opts.logger,
		metrics:        opts.metrics,
		chunkSize:      opts.chunkSize,
		maxImportCount: opts.maxImportCount,
		tasks:          make(chan task),
		seqHighWater:   -1,
	}

	s.workerWg.Add(1)
	go s.runSerializer()

	return s, nil
}

// Close stops the mutation serializer. Operations already submitted
// run to completion; later submissions return ErrClosed. Close never
// touches the backend.
func (s *Store) Close() error {
	s.closeMu.Lock()
	if s.closed {
		s.closeMu.Unlock()
		return nil
	}
	s.closed = true
	close(s.tasks)
	s.closeMu.Unlock()

	s.workerWg.Wait()
	return nil
}

// observeSeq raises the in-process sequence high-water mark.
func (s *Store) observeSeq(seq int) {
	s.stateMu.Lock()
	if seq > s.seqHighWater {
		s.seqHighWater = seq
	}
	s.stateMu.Unlock()
}

func (s *Store) highWater() int {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return s.seqHighWater
}

func (s *Store) setMembers(m map[string]struct{}) {
	s.stateMu.Lock()
	s.members = m
	s.stateMu.Unlock()
}

func (s *Store) cachedMembers() map[string]struct{} {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return s.members
}
