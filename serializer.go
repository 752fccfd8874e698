package seengo

import (
	"context"
)

// The mutation serializer: a single worker goroutine draining an
// unbuffered task channel. Channel send order gives first-submitted,
// first-executed; one failed task never blocks the next. A task is not
// cancellable once dequeued - it runs to completion or failure.

type task struct {
	ctx  context.Context
	fn   func(ctx context.Context) error
	done chan error
}

func (s *Store) runSerializer() {
	defer s.workerWg.Done()
	for t := range s.tasks {
		t.done <- t.fn(t.ctx)
	}
}

// submit enqueues fn and blocks until it has executed.
func (s *Store) submit(ctx context.Context, fn func(ctx context.Context) error) error {
	t := task{
		ctx:  ctx,
		fn:   fn,
		done: make(chan error, 1),
	}

	// The read lock spans the send so Close cannot close the channel
	// between the closed check and the send.
	s.closeMu.RLock()
	if s.closed {
		s.closeMu.RUnlock()
		return ErrClosed
	}
	s.tasks <- t
	s.closeMu.RUnlock()

	return <-t.done
}
