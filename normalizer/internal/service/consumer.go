package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/telhawk-systems/cdm-normalizer/common/logging"
	"github.com/telhawk-systems/cdm-normalizer/common/messaging"
	"github.com/telhawk-systems/cdm-normalizer/common/middleware"
)

// Consumer feeds raw envelopes from a queue subscription into a Processor.
type Consumer struct {
	subscriber messaging.Subscriber
	processor  *Processor
	subject    string
	queue      string
	logger     *logging.Logger

	mu  sync.Mutex
	sub messaging.Subscription
}

// NewConsumer creates a consumer for subject within queue group queue.
func NewConsumer(s messaging.Subscriber, p *Processor, subject, queue string, logger *logging.Logger) *Consumer {
	if subject == "" {
		subject = messaging.SubjectRecordsRaw
	}
	if queue == "" {
		queue = messaging.QueueNormalizerWorkers
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Consumer{
		subscriber: s,
		processor:  p,
		subject:    subject,
		queue:      queue,
		logger:     logger,
	}
}

// Start subscribes. Calling Start twice is an error.
func (c *Consumer) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sub != nil {
		return fmt.Errorf("consumer already started on %s", c.subject)
	}
	sub, err := c.subscriber.QueueSubscribe(c.subject, c.queue, c.handle)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", c.subject, err)
	}
	c.sub = sub
	c.logger.Info("consuming raw records", logging.Subject(c.subject), "queue", c.queue)
	return nil
}

// Stop unsubscribes. It is safe to call on a stopped consumer.
func (c *Consumer) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sub == nil {
		return nil
	}
	err := c.sub.Unsubscribe()
	c.sub = nil
	return err
}

// handle logs its own failures so they carry the message's request ID.
func (c *Consumer) handle(ctx context.Context, msg *messaging.Message) error {
	ctx = middleware.WithRequestID(ctx, uuid.NewString())
	if err := c.processor.Ingest(ctx, msg.Data, "nats"); err != nil {
		c.logger.WithContext(ctx).Warn("failed to process message",
			logging.Subject(msg.Subject),
			logging.Error(err),
		)
	}
	return nil
}
