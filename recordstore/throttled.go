package recordstore

import (
	"context"

	"golang.org/x/time/rate"
)

// ThrottledStore wraps a Store with a byte-budget rate limiter so bulk
// operations (import, export, rebuild) do not saturate a shared
// backend.
//
// The limiter charges Get and Put by payload size and Delete/List a
// single token. A zero bytesPerSec means unlimited.
type ThrottledStore struct {
	inner   Store
	limiter *rate.Limiter
}

// NewThrottledStore creates a throttled wrapper around inner.
func NewThrottledStore(inner Store, bytesPerSec int) *ThrottledStore {
	var limiter *rate.Limiter
	if bytesPerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(bytesPerSec), bytesPerSec)
	}
	return &ThrottledStore{inner: inner, limiter: limiter}
}

func (t *ThrottledStore) wait(ctx context.Context, n int) error {
	if t.limiter == nil {
		return nil
	}
	if n <= 0 {
		n = 1
	}
	if burst := t.limiter.Burst(); n > burst {
		n = burst
	}
	return t.limiter.WaitN(ctx, n)
}

// Get returns the payload of the named record.
func (t *ThrottledStore) Get(ctx context.Context, name string) ([]byte, error) {
	data, err := t.inner.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := t.wait(ctx, len(data)); err != nil {
		return nil, err
	}
	return data, nil
}

// Put writes a record atomically.
func (t *ThrottledStore) Put(ctx context.Context, name string, data []byte) error {
	if err := t.wait(ctx, len(data)); err != nil {
		return err
	}
	return t.inner.Put(ctx, name, data)
}

// Delete removes a record.
func (t *ThrottledStore) Delete(ctx context.Context, name string) error {
	if err := t.wait(ctx, 1); err != nil {
		return err
	}
	return t.inner.Delete(ctx, name)
}

// List returns all record names matching the prefix.
func (t *ThrottledStore) List(ctx context.Context, prefix string) ([]string, error) {
	if err := t.wait(ctx, 1); err != nil {
		return nil, err
	}
	return t.inner.List(ctx, prefix)
}
