// Package service runs records through the pipeline and hands them to a sink.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/telhawk-systems/cdm-normalizer/common/logging"
	"github.com/telhawk-systems/cdm-normalizer/common/messaging"
	"github.com/telhawk-systems/cdm-normalizer/normalizer/internal/dlq"
	"github.com/telhawk-systems/cdm-normalizer/normalizer/internal/metrics"
	"github.com/telhawk-systems/cdm-normalizer/normalizer/internal/pipeline"
	"github.com/telhawk-systems/cdm-normalizer/normalizer/internal/record"
	"github.com/telhawk-systems/cdm-normalizer/normalizer/internal/storage"
)

// ErrDecode wraps envelopes that could not be decoded.
var ErrDecode = errors.New("invalid envelope")

// Processor wraps the pipeline and captures basic telemetry.
type Processor struct {
	pipeline *pipeline.Pipeline
	decoder  record.Decoder
	sink     storage.Sink
	dlq      *dlq.Queue
	broker   messaging.Client
	logger   *logging.Logger
	now      func() time.Time

	startedAt    time.Time
	processed    atomic.Uint64
	emptied      atomic.Uint64
	decodeFailed atomic.Uint64
	sinkFailed   atomic.Uint64
}

// NewProcessor creates a new Processor. sink and queue may be nil; without a
// sink, Ingest only normalizes.
func NewProcessor(p *pipeline.Pipeline, sink storage.Sink, queue *dlq.Queue, logger *logging.Logger) *Processor {
	if logger == nil {
		logger = logging.Default()
	}
	return &Processor{
		pipeline:  p,
		sink:      sink,
		dlq:       queue,
		logger:    logger,
		now:       time.Now,
		startedAt: time.Now().UTC(),
	}
}

// Normalize runs the pipeline against env and records metrics.
func (p *Processor) Normalize(ctx context.Context, env *record.Envelope) pipeline.Result {
	start := time.Now()
	res := p.pipeline.ProcessResult(ctx, env.Tag, env.ReceivedAt, env.Record)
	metrics.ProcessingDuration.Observe(time.Since(start).Seconds())

	p.processed.Add(1)
	metrics.RecordsTotal.WithLabelValues(metrics.FormatterLabel(string(res.Formatter))).Inc()
	metrics.IndexNameOutcomes.WithLabelValues(string(res.Index)).Inc()
	if res.Emptied {
		p.emptied.Add(1)
		metrics.RecordsEmptied.Inc()
	}
	p.logger.DebugContext(ctx, "record normalized",
		logging.Tag(env.Tag),
		logging.Formatter(metrics.FormatterLabel(string(res.Formatter))),
		"index_outcome", string(res.Index),
	)
	return res
}

// Decode parses a raw envelope. Failures are counted, written to the dead
// letter queue and returned wrapped in ErrDecode.
func (p *Processor) Decode(ctx context.Context, data []byte, source string) (*record.Envelope, error) {
	env, err := p.decoder.DecodeEnvelope(data, p.now().UTC())
	if err == nil {
		return env, nil
	}

	p.decodeFailed.Add(1)
	metrics.DecodeErrors.WithLabelValues(source).Inc()
	if p.dlq != nil {
		metrics.DLQWrites.WithLabelValues(dlq.ReasonDecode).Inc()
		if werr := p.dlq.Write(ctx, dlq.Entry{
			Reason:  dlq.ReasonDecode,
			Error:   err.Error(),
			Payload: string(data),
		}); werr != nil {
			p.logger.ErrorContext(ctx, "failed to write DLQ entry", logging.Error(werr))
		}
	}
	return nil, fmt.Errorf("%w: %w", ErrDecode, err)
}

// Ingest decodes data, normalizes it and writes the result to the sink.
func (p *Processor) Ingest(ctx context.Context, data []byte, source string) error {
	env, err := p.Decode(ctx, data, source)
	if err != nil {
		return err
	}

	res := p.Normalize(ctx, env)
	if p.sink == nil {
		return nil
	}
	if err := p.sink.Write(ctx, env.Tag, res.Record); err != nil {
		p.sinkFailed.Add(1)
		return fmt.Errorf("sink %s: %w", p.sink.Name(), err)
	}
	return nil
}

// Stats returns a snapshot of processor metrics.
type Stats struct {
	UptimeSeconds int64     `json:"uptime_seconds"`
	Processed     uint64    `json:"processed"`
	Emptied       uint64    `json:"emptied"`
	DecodeFailed  uint64    `json:"decode_failed"`
	SinkFailed    uint64    `json:"sink_failed"`
	Sink          string    `json:"sink,omitempty"`
	DLQ           dlq.Stats `json:"dlq"`

	Messaging *messaging.HealthStatus `json:"messaging,omitempty"`
}

// Health returns live status for health checks.
func (p *Processor) Health() Stats {
	st := Stats{
		UptimeSeconds: int64(time.Since(p.startedAt).Seconds()),
		Processed:     p.processed.Load(),
		Emptied:       p.emptied.Load(),
		DecodeFailed:  p.decodeFailed.Load(),
		SinkFailed:    p.sinkFailed.Load(),
		DLQ:           p.dlq.Stats(),
	}
	if p.sink != nil {
		st.Sink = p.sink.Name()
	}
	if p.broker != nil {
		status := messaging.CheckClientHealth(p.broker)
		st.Messaging = &status
	}
	return st
}

// SetBroker attaches the message broker whose connection state Health
// reports. Call before serving.
func (p *Processor) SetBroker(c messaging.Client) { p.broker = c }

// DLQ returns the dead letter queue, which may be nil.
func (p *Processor) DLQ() *dlq.Queue { return p.dlq }
