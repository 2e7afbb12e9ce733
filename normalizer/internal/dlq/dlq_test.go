package dlq_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telhawk-systems/cdm-normalizer/common/logging"
	"github.com/telhawk-systems/cdm-normalizer/normalizer/internal/dlq"
)

func newQueue(t *testing.T) (*dlq.Queue, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "dlq")
	q, err := dlq.NewQueue(dir, logging.Discard())
	require.NoError(t, err)
	return q, dir
}

func TestQueue_WriteAndList(t *testing.T) {
	q, dir := newQueue(t)
	ctx := context.Background()

	base := time.Date(2017, 7, 27, 17, 27, 46, 0, time.UTC)
	require.NoError(t, q.Write(ctx, dlq.Entry{
		Timestamp: base,
		Reason:    dlq.ReasonDecode,
		Error:     "payload is not a JSON object",
		Payload:   "[1,2]",
	}))
	require.NoError(t, q.Write(ctx, dlq.Entry{
		Timestamp: base.Add(time.Second),
		Reason:    dlq.ReasonSink,
		Error:     "mapper_parsing_exception",
		Tag:       "journal.system",
		Record:    map[string]any{"message": "hi"},
	}))

	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, files, 2)

	entries, err := q.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, dlq.ReasonDecode, entries[0].Reason)
	assert.Equal(t, "[1,2]", entries[0].Payload)
	assert.NotEmpty(t, entries[0].ID)

	assert.Equal(t, dlq.ReasonSink, entries[1].Reason)
	assert.Equal(t, "journal.system", entries[1].Tag)
	assert.Equal(t, "hi", entries[1].Record["message"])

	limited, err := q.List(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	st := q.Stats()
	assert.True(t, st.Enabled)
	assert.Equal(t, uint64(2), st.Written)
	assert.Equal(t, 2, st.PendingFiles)
}

func TestQueue_DeleteAndPurge(t *testing.T) {
	q, _ := newQueue(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, q.Write(ctx, dlq.Entry{Reason: dlq.ReasonSink, Error: "boom"}))
	}

	entries, err := q.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	require.NoError(t, q.Delete(ctx, entries[0].ID))
	assert.ErrorIs(t, q.Delete(ctx, entries[0].ID), dlq.ErrNotFound)
	assert.ErrorIs(t, q.Delete(ctx, "*"), dlq.ErrNotFound)

	n, err := q.Purge(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	entries, err = q.List(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestQueue_Nil(t *testing.T) {
	var q *dlq.Queue
	ctx := context.Background()

	assert.NoError(t, q.Write(ctx, dlq.Entry{Reason: dlq.ReasonSink}))
	assert.False(t, q.Stats().Enabled)

	_, err := q.List(ctx, 0)
	assert.True(t, errors.Is(err, dlq.ErrDisabled))
	_, err = q.Purge(ctx)
	assert.ErrorIs(t, err, dlq.ErrDisabled)
}
