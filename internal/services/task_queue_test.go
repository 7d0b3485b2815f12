package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tradingnft/backend/internal/config"
)

func TestTaskTypes(t *testing.T) {
	assert.Equal(t, "account:signed_in", TaskAccountSignedIn)
	assert.Equal(t, "account:created", TaskAccountCreated)
	assert.Equal(t, "account:updated", TaskAccountUpdated)
	assert.Equal(t, "account:deleted", TaskAccountDeleted)
}

func TestNewTaskQueue_RedisDisabled(t *testing.T) {
	queue := NewTaskQueue(&config.RedisConfig{Enabled: false})
	_, ok := queue.(*SyncQueue)
	assert.True(t, ok)
	assert.False(t, queue.IsAsync())
}

func TestNewTaskQueue_RedisUnreachable(t *testing.T) {
	queue := NewTaskQueue(&config.RedisConfig{Enabled: true, Addr: "127.0.0.1:1"})
	_, ok := queue.(*SyncQueue)
	assert.True(t, ok, "unreachable Redis falls back to the in-process queue")
}

func TestSyncQueue_ProcessesEvents(t *testing.T) {
	queue := NewSyncQueue()
	var processed atomic.Int32
	queue.SetProcessor(func(ctx context.Context, event *AccountEvent) error {
		time.Sleep(10 * time.Millisecond)
		processed.Add(1)
		return nil
	})

	for i := 0; i < 3; i++ {
		require.NoError(t, queue.Enqueue(&AccountEvent{Type: TaskAccountSignedIn, AccountID: "a"}))
	}
	require.NoError(t, queue.Close())
	assert.Equal(t, int32(3), processed.Load(), "Close waits for in-flight events")
}

func TestSyncQueue_NoProcessor(t *testing.T) {
	queue := NewSyncQueue()
	assert.NoError(t, queue.Enqueue(&AccountEvent{Type: TaskAccountCreated}))
	assert.NoError(t, queue.Close())
}

func TestSyncQueue_ProcessorErrorIsSwallowed(t *testing.T) {
	queue := NewSyncQueue()
	queue.SetProcessor(func(context.Context, *AccountEvent) error {
		return errors.New("boom")
	})

	assert.NoError(t, queue.Enqueue(&AccountEvent{Type: TaskAccountCreated}))
	assert.NoError(t, queue.Close())
}

func TestDecodeAndProcess(t *testing.T) {
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	payload, err := json.Marshal(&AccountEvent{Type: TaskAccountSignedIn, AccountID: "acc-1", At: at})
	require.NoError(t, err)

	var got *AccountEvent
	err = decodeAndProcess(context.Background(), payload, func(_ context.Context, e *AccountEvent) error {
		got = e
		return nil
	})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "acc-1", got.AccountID)
	assert.True(t, got.At.Equal(at))

	assert.Error(t, decodeAndProcess(context.Background(), []byte("{"), nil))
	assert.NoError(t, decodeAndProcess(context.Background(), payload, nil))
}

func TestNewWorker_RedisDisabled(t *testing.T) {
	assert.Nil(t, NewWorker(&config.RedisConfig{Enabled: false}))
}
