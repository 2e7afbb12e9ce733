package storage

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/opensearch-project/opensearch-go/v2"
	"github.com/opensearch-project/opensearch-go/v2/opensearchutil"

	"github.com/telhawk-systems/cdm-normalizer/common/logging"
	"github.com/telhawk-systems/cdm-normalizer/normalizer/internal/dlq"
	"github.com/telhawk-systems/cdm-normalizer/normalizer/internal/metrics"
	"github.com/telhawk-systems/cdm-normalizer/normalizer/internal/record"
)

// OpenSearchConfig holds connection and bulk indexing settings.
type OpenSearchConfig struct {
	URL           string
	Username      string
	Password      string
	TLSSkipVerify bool
	// DefaultIndex receives records without an index name.
	DefaultIndex string
	// IndexField names the record field holding the target index. It is
	// removed from the document before indexing.
	IndexField    string
	Workers       int
	FlushBytes    int
	FlushInterval time.Duration
}

// DefaultOpenSearchConfig returns sensible defaults.
func DefaultOpenSearchConfig() OpenSearchConfig {
	return OpenSearchConfig{
		URL:           "https://localhost:9200",
		Username:      "admin",
		Password:      "admin",
		TLSSkipVerify: true,
		DefaultIndex:  "orphaned",
		IndexField:    "viaq_index_name",
		Workers:       2,
		FlushBytes:    5 << 20,
		FlushInterval: 5 * time.Second,
	}
}

// OpenSearchSink bulk-indexes records through one long-lived indexer.
// Items OpenSearch rejects are written to the dead letter queue.
type OpenSearchSink struct {
	client  *opensearch.Client
	indexer opensearchutil.BulkIndexer
	config  OpenSearchConfig
	dlq     *dlq.Queue
	logger  *logging.Logger

	indexed atomic.Uint64
	failed  atomic.Uint64
}

// NewOpenSearchSink connects to OpenSearch and starts the bulk indexer.
// queue may be nil.
func NewOpenSearchSink(cfg OpenSearchConfig, queue *dlq.Queue, logger *logging.Logger) (*OpenSearchSink, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.DefaultIndex == "" {
		cfg.DefaultIndex = "orphaned"
	}

	httpClient := &http.Client{
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: cfg.TLSSkipVerify,
			},
		},
	}

	client, err := opensearch.NewClient(opensearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.Username,
		Password:  cfg.Password,
		Transport: httpClient.Transport,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create opensearch client: %w", err)
	}

	s := &OpenSearchSink{
		client: client,
		config: cfg,
		dlq:    queue,
		logger: logger,
	}

	s.indexer, err = opensearchutil.NewBulkIndexer(opensearchutil.BulkIndexerConfig{
		Client:        client,
		Index:         cfg.DefaultIndex,
		NumWorkers:    cfg.Workers,
		FlushBytes:    cfg.FlushBytes,
		FlushInterval: cfg.FlushInterval,
		OnError: func(ctx context.Context, err error) {
			logger.ErrorContext(ctx, "bulk indexer error", logging.Error(err))
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create bulk indexer: %w", err)
	}
	return s, nil
}

// Ping verifies the cluster is reachable.
func (s *OpenSearchSink) Ping(ctx context.Context) error {
	info, err := s.client.Info(s.client.Info.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to connect to opensearch: %w", err)
	}
	defer info.Body.Close()

	if info.IsError() {
		return fmt.Errorf("opensearch returned error: %s", info.Status())
	}
	return nil
}

// Name implements Sink.
func (s *OpenSearchSink) Name() string { return "opensearch" }

// Write implements Sink. Indexing results arrive asynchronously.
func (s *OpenSearchSink) Write(ctx context.Context, tag string, rec record.Record) error {
	index := takeIndex(rec, s.config.IndexField)
	if index == "" {
		index = s.config.DefaultIndex
	}

	data, err := json.Marshal(rec)
	if err != nil {
		s.fail(ctx, tag, rec, err)
		return fmt.Errorf("marshal record: %w", err)
	}

	err = s.indexer.Add(ctx, opensearchutil.BulkIndexerItem{
		Action: "index",
		Index:  index,
		Body:   bytes.NewReader(data),
		OnSuccess: func(context.Context, opensearchutil.BulkIndexerItem, opensearchutil.BulkIndexerResponseItem) {
			s.indexed.Add(1)
			metrics.SinkWrites.WithLabelValues(s.Name(), "ok").Inc()
		},
		OnFailure: func(ctx context.Context, _ opensearchutil.BulkIndexerItem, res opensearchutil.BulkIndexerResponseItem, err error) {
			if err == nil {
				err = fmt.Errorf("%s: %s", res.Error.Type, res.Error.Reason)
			}
			s.fail(ctx, tag, rec, err)
		},
	})
	if err != nil {
		s.fail(ctx, tag, rec, err)
		return fmt.Errorf("failed to add to bulk indexer: %w", err)
	}
	return nil
}

func (s *OpenSearchSink) fail(ctx context.Context, tag string, rec record.Record, err error) {
	s.failed.Add(1)
	metrics.SinkWrites.WithLabelValues(s.Name(), "failed").Inc()
	s.logger.WarnContext(ctx, "failed to index record", logging.Tag(tag), logging.Error(err))

	if s.dlq == nil {
		return
	}
	metrics.DLQWrites.WithLabelValues(dlq.ReasonSink).Inc()
	if werr := s.dlq.Write(ctx, dlq.Entry{
		Reason: dlq.ReasonSink,
		Error:  err.Error(),
		Tag:    tag,
		Record: rec,
	}); werr != nil {
		s.logger.ErrorContext(ctx, "failed to write DLQ entry", logging.Error(werr))
	}
}

// IndexStats counts asynchronous indexing results.
type IndexStats struct {
	Indexed uint64 `json:"indexed"`
	Failed  uint64 `json:"failed"`
}

// Stats returns a snapshot of indexing results.
func (s *OpenSearchSink) Stats() IndexStats {
	return IndexStats{Indexed: s.indexed.Load(), Failed: s.failed.Load()}
}

// Close flushes pending items and stops the indexer.
func (s *OpenSearchSink) Close(ctx context.Context) error {
	if err := s.indexer.Close(ctx); err != nil {
		return fmt.Errorf("bulk indexer close: %w", err)
	}
	return nil
}
