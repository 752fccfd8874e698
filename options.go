package seengo

import (
	"github.com/hupe1980/seengo/codec"
)

const (
	// DefaultChunkSize is the number of identifiers per chunk record.
	// Sized so a full chunk stays well below typical per-record payload
	// ceilings in key-value backends.
	DefaultChunkSize = 5000

	// DefaultMaxImportCount caps the number of identifiers accepted in
	// a single import payload.
	DefaultMaxImportCount = 1_000_000
)

type options struct {
	chunkSize      int
	codec          codec.Codec
	logger         *Logger
	metrics        MetricsCollector
	maxImportCount int
}

// Option configures Store constructor behavior.
type Option func(*options)

// WithChunkSize configures the per-chunk identifier capacity.
//
// The value only affects newly allocated chunks; chunks written with a
// different capacity remain readable, and existing stores keep the
// capacity recorded in their index.
func WithChunkSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.chunkSize = n
		}
	}
}

// WithCodec configures the codec used for index, chunk and snapshot
// records. If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithLogger configures structured logging. If nil is passed, logging
// is disabled.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithMetricsCollector configures operational metrics collection.
func WithMetricsCollector(m MetricsCollector) Option {
	return func(o *options) {
		if m == nil {
			m = NoopMetricsCollector{}
		}
		o.metrics = m
	}
}

// WithMaxImportCount caps the number of identifiers a single import
// payload may carry. Oversized payloads are rejected before any write.
func WithMaxImportCount(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxImportCount = n
		}
	}
}
