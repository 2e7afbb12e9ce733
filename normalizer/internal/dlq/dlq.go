// Package dlq keeps envelopes and records that could not be normalized or
// delivered, one JSON file per entry.
package dlq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/telhawk-systems/cdm-normalizer/common/logging"
)

// ErrDisabled is returned by read operations on a nil Queue.
var ErrDisabled = errors.New("dlq not enabled")

// ErrNotFound is returned by Delete when no entry has the given ID.
var ErrNotFound = errors.New("dlq entry not found")

// Reasons an entry was written.
const (
	ReasonDecode = "decode_failed"
	ReasonSink   = "sink_failed"
)

// Entry is one failed item.
type Entry struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Reason    string         `json:"reason"`
	Error     string         `json:"error"`
	Tag       string         `json:"tag,omitempty"`
	Payload   string         `json:"payload,omitempty"`
	Record    map[string]any `json:"record,omitempty"`
}

// Queue writes failed items to disk for later analysis or replay. A nil
// *Queue accepts writes and drops them.
type Queue struct {
	basePath string
	logger   *logging.Logger
	mu       sync.Mutex
	written  uint64
}

// NewQueue creates a queue rooted at basePath.
func NewQueue(basePath string, logger *logging.Logger) (*Queue, error) {
	if basePath == "" {
		basePath = "/var/lib/cdm-normalizer/dlq"
	}
	if logger == nil {
		logger = logging.Default()
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create dlq directory: %w", err)
	}
	return &Queue{basePath: basePath, logger: logger}, nil
}

// Write stores entry, assigning its ID and timestamp.
func (q *Queue) Write(ctx context.Context, entry Entry) error {
	if q == nil {
		return nil
	}

	entry.ID = uuid.NewString()
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal dlq entry: %w", err)
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	filename := fileName(entry)
	if err := os.WriteFile(filepath.Join(q.basePath, filename), data, 0o644); err != nil {
		q.logger.ErrorContext(ctx, "failed to write DLQ entry", logging.Error(err))
		return fmt.Errorf("write dlq entry: %w", err)
	}
	q.written++

	q.logger.WarnContext(ctx, "wrote DLQ entry",
		"file", filename,
		"reason", entry.Reason,
		logging.Tag(entry.Tag),
	)
	return nil
}

// fileName sorts entries by time first.
func fileName(e Entry) string {
	return fmt.Sprintf("failed_%d_%s.json", e.Timestamp.UnixNano(), e.ID)
}

// Stats describes the queue for health checks.
type Stats struct {
	Enabled      bool   `json:"enabled"`
	Written      uint64 `json:"written"`
	PendingFiles int    `json:"pending_files"`
	BasePath     string `json:"base_path,omitempty"`
	Error        string `json:"error,omitempty"`
}

// Stats returns a snapshot of queue counters.
func (q *Queue) Stats() Stats {
	if q == nil {
		return Stats{}
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	st := Stats{Enabled: true, Written: q.written, BasePath: q.basePath}
	files, err := q.entryFiles()
	if err != nil {
		st.Error = err.Error()
		return st
	}
	st.PendingFiles = len(files)
	return st
}

// List returns up to limit entries, oldest first. limit <= 0 means all.
func (q *Queue) List(ctx context.Context, limit int) ([]Entry, error) {
	if q == nil {
		return nil, ErrDisabled
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	files, err := q.entryFiles()
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(files))
	for _, name := range files {
		if limit > 0 && len(entries) >= limit {
			break
		}
		data, err := os.ReadFile(filepath.Join(q.basePath, name))
		if err != nil {
			q.logger.ErrorContext(ctx, "failed to read DLQ file", "file", name, logging.Error(err))
			continue
		}
		var e Entry
		if err := json.Unmarshal(data, &e); err != nil {
			q.logger.ErrorContext(ctx, "failed to parse DLQ file", "file", name, logging.Error(err))
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Delete removes the entry with the given ID.
func (q *Queue) Delete(ctx context.Context, id string) error {
	if q == nil {
		return ErrDisabled
	}
	if id == "" || strings.ContainsAny(id, `/\*?[`) {
		return ErrNotFound
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	matches, err := filepath.Glob(filepath.Join(q.basePath, "failed_*_"+id+".json"))
	if err != nil {
		return fmt.Errorf("search dlq files: %w", err)
	}
	if len(matches) == 0 {
		return ErrNotFound
	}
	for _, m := range matches {
		if err := os.Remove(m); err != nil {
			return fmt.Errorf("delete dlq file: %w", err)
		}
	}
	q.logger.InfoContext(ctx, "deleted DLQ entry", "id", id)
	return nil
}

// Purge removes all entries and returns how many were deleted.
func (q *Queue) Purge(ctx context.Context) (int, error) {
	if q == nil {
		return 0, ErrDisabled
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	files, err := q.entryFiles()
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, name := range files {
		if err := os.Remove(filepath.Join(q.basePath, name)); err != nil {
			q.logger.ErrorContext(ctx, "failed to delete DLQ file", "file", name, logging.Error(err))
			continue
		}
		deleted++
	}
	q.logger.InfoContext(ctx, "purged DLQ", logging.Count(deleted))
	return deleted, nil
}

// entryFiles lists entry file names sorted oldest first. Callers hold mu.
func (q *Queue) entryFiles() ([]string, error) {
	dirents, err := os.ReadDir(q.basePath)
	if err != nil {
		return nil, fmt.Errorf("read dlq directory: %w", err)
	}
	names := make([]string, 0, len(dirents))
	for _, d := range dirents {
		if d.IsDir() || !strings.HasPrefix(d.Name(), "failed_") || !strings.HasSuffix(d.Name(), ".json") {
			continue
		}
		names = append(names, d.Name())
	}
	sort.Strings(names)
	return names, nil
}
