package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/telhawk-systems/cdm-normalizer/normalizer/internal/metrics"
	"github.com/telhawk-systems/cdm-normalizer/normalizer/internal/record"
)

// WriterSink writes one JSON document per line.
type WriterSink struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewWriterSink writes records to w.
func NewWriterSink(w io.Writer) *WriterSink {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &WriterSink{enc: enc}
}

// Name implements Sink.
func (s *WriterSink) Name() string { return "stdout" }

// Write implements Sink.
func (s *WriterSink) Write(_ context.Context, _ string, rec record.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.enc.Encode(rec); err != nil {
		metrics.SinkWrites.WithLabelValues(s.Name(), "failed").Inc()
		return fmt.Errorf("encode record: %w", err)
	}
	metrics.SinkWrites.WithLabelValues(s.Name(), "ok").Inc()
	return nil
}

// Close implements Sink.
func (s *WriterSink) Close(context.Context) error { return nil }
