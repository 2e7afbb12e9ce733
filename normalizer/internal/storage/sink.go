// Package storage delivers normalized records to their destination.
package storage

import (
	"context"

	"github.com/telhawk-systems/cdm-normalizer/normalizer/internal/record"
)

// Sink receives normalized records. Implementations are safe for concurrent
// use.
type Sink interface {
	// Write hands off one record. The sink owns rec afterwards.
	Write(ctx context.Context, tag string, rec record.Record) error
	// Close flushes anything buffered.
	Close(ctx context.Context) error
	// Name identifies the sink in logs and metrics.
	Name() string
}

// takeIndex removes field from rec and returns its string value.
func takeIndex(rec record.Record, field string) string {
	if field == "" {
		return ""
	}
	name, _ := rec[field].(string)
	delete(rec, field)
	return name
}
