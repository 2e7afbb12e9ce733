package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/telhawk-systems/cdm-normalizer/common/messaging"
	"github.com/telhawk-systems/cdm-normalizer/normalizer/internal/metrics"
	"github.com/telhawk-systems/cdm-normalizer/normalizer/internal/record"
)

// PublishSink re-publishes normalized records on the message bus. Records
// carrying an index name go to a per-index subject under base.
type PublishSink struct {
	publisher  messaging.Publisher
	base       string
	indexField string
}

// NewPublishSink publishes to subjects under base. indexField may be empty.
func NewPublishSink(p messaging.Publisher, base, indexField string) *PublishSink {
	if base == "" {
		base = messaging.SubjectRecordsNormalized
	}
	return &PublishSink{publisher: p, base: base, indexField: indexField}
}

// Name implements Sink.
func (s *PublishSink) Name() string { return "nats" }

// Write implements Sink.
func (s *PublishSink) Write(ctx context.Context, tag string, rec record.Record) error {
	index := takeIndex(rec, s.indexField)

	data, err := json.Marshal(rec)
	if err != nil {
		metrics.SinkWrites.WithLabelValues(s.Name(), "failed").Inc()
		return fmt.Errorf("marshal record: %w", err)
	}

	msg := &messaging.Message{
		Subject:  messaging.NormalizedSubject(s.base, index),
		Data:     data,
		Metadata: map[string]string{messaging.HeaderTag: tag},
	}
	if index != "" {
		msg.Metadata[messaging.HeaderIndexName] = index
	}

	if err := s.publisher.PublishMsg(ctx, msg); err != nil {
		metrics.SinkWrites.WithLabelValues(s.Name(), "failed").Inc()
		return fmt.Errorf("publish %s: %w", msg.Subject, err)
	}
	metrics.SinkWrites.WithLabelValues(s.Name(), "ok").Inc()
	return nil
}

// Close implements Sink. The publisher's connection is owned by the caller.
func (s *PublishSink) Close(context.Context) error { return nil }
