package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.ozon.dev/pupkingeorgij/smartlocker/internal/storage"
)

type capturingProducer struct {
	messages []capturedMessage
	fail     bool
}

type capturedMessage struct {
	topic string
	key   string
	value []byte
}

func (p *capturingProducer) SendMessage(ctx context.Context, topic string, key []byte, value []byte) error {
	if p.fail {
		return errors.New("broker unavailable")
	}
	p.messages = append(p.messages, capturedMessage{topic: topic, key: string(key), value: value})
	return nil
}

func (p *capturingProducer) Close() error { return nil }

func newTrail(t *testing.T, entries ...storage.TransactionEntry) *storage.FileStorage {
	t.Helper()
	st, err := storage.NewFileStorage(filepath.Join(t.TempDir(), "state.json"))
	require.NoError(t, err)
	for _, e := range entries {
		require.NoError(t, st.AppendTransaction(context.Background(), e))
	}
	return st
}

func entry(action string) storage.TransactionEntry {
	return storage.TransactionEntry{
		ID:        uuid.New(),
		LockerID:  1,
		Action:    action,
		Timestamp: time.Now().UTC(),
	}
}

func TestProcessBatchPublishesAndMarks(t *testing.T) {
	ctx := context.Background()
	first, second := entry("open_deposit"), entry("close_deposit")
	st := newTrail(t, first, second)
	producer := &capturingProducer{}

	p := NewPublisher(st, producer, PublisherConfig{Topic: "locker_transactions"})
	require.NoError(t, p.processBatch(ctx))

	require.Len(t, producer.messages, 2)
	assert.Equal(t, "locker_transactions", producer.messages[0].topic)
	assert.Equal(t, first.ID.String(), producer.messages[0].key)

	var decoded storage.TransactionEntry
	require.NoError(t, json.Unmarshal(producer.messages[0].value, &decoded))
	assert.Equal(t, "open_deposit", decoded.Action)

	remaining, err := st.ListUnpublishedTransactions(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestProcessBatchRetriesOnSendFailure(t *testing.T) {
	ctx := context.Background()
	st := newTrail(t, entry("open_deposit"))
	producer := &capturingProducer{fail: true}

	p := NewPublisher(st, producer, PublisherConfig{Topic: "locker_transactions"})
	require.NoError(t, p.processBatch(ctx))

	remaining, err := st.ListUnpublishedTransactions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, remaining, 1)

	// The broker recovers and the next tick drains the entry.
	producer.fail = false
	require.NoError(t, p.processBatch(ctx))

	remaining, err = st.ListUnpublishedTransactions(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}
