package seengo

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
type MetricsCollector interface {
	// RecordAdd is called after each add operation.
	// added is false when the identifier was already present.
	RecordAdd(duration time.Duration, added bool, err error)

	// RecordImport is called after each bulk import.
	// mode is "merge" or "override".
	RecordImport(mode string, newCount, duplicateCount int, duration time.Duration, err error)

	// RecordExport is called after each bulk export.
	RecordExport(count int, duration time.Duration, err error)

	// RecordClear is called after each clear operation.
	RecordClear(duration time.Duration, err error)

	// RecordRepair is called after each full-scan index rebuild.
	RecordRepair(chunks int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordAdd(time.Duration, bool, error) {}

func (NoopMetricsCollector) RecordImport(string, int, int, time.Duration, error) {}

func (NoopMetricsCollector) RecordExport(int, time.Duration, error) {}

func (NoopMetricsCollector) RecordClear(time.Duration, error) {}

func (NoopMetricsCollector) RecordRepair(int, time.Duration, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	AddCount         atomic.Int64
	AddDuplicates    atomic.Int64
	AddErrors        atomic.Int64
	AddTotalNanos    atomic.Int64
	ImportCount      atomic.Int64
	ImportNewItems   atomic.Int64
	ImportDuplicates atomic.Int64
	ImportErrors     atomic.Int64
	ExportCount      atomic.Int64
	ExportItems      atomic.Int64
	ExportErrors     atomic.Int64
	ClearCount       atomic.Int64
	ClearErrors      atomic.Int64
	RepairCount      atomic.Int64
	RepairErrors     atomic.Int64
}

func (b *BasicMetricsCollector) RecordAdd(d time.Duration, added bool, err error) {
	b.AddCount.Add(1)
	b.AddTotalNanos.Add(int64(d))
	if err != nil {
		b.AddErrors.Add(1)
		return
	}
	if !added {
		b.AddDuplicates.Add(1)
	}
}

func (b *BasicMetricsCollector) RecordImport(_ string, newCount, duplicateCount int, _ time.Duration, err error) {
	b.ImportCount.Add(1)
	if err != nil {
		b.ImportErrors.Add(1)
		return
	}
	b.ImportNewItems.Add(int64(newCount))
	b.ImportDuplicates.Add(int64(duplicateCount))
}

func (b *BasicMetricsCollector) RecordExport(count int, _ time.Duration, err error) {
	b.ExportCount.Add(1)
	if err != nil {
		b.ExportErrors.Add(1)
		return
	}
	b.ExportItems.Add(int64(count))
}

func (b *BasicMetricsCollector) RecordClear(_ time.Duration, err error) {
	b.ClearCount.Add(1)
	if err != nil {
		b.ClearErrors.Add(1)
	}
}

func (b *BasicMetricsCollector) RecordRepair(_ int, _ time.Duration, err error) {
	b.RepairCount.Add(1)
	if err != nil {
		b.RepairErrors.Add(1)
	}
}
