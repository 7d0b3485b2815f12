package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/hibiken/asynq"
	"github.com/tradingnft/backend/internal/config"
	"github.com/tradingnft/backend/pkg/logger"
)

const (
	TaskAccountSignedIn = "account:signed_in"
	TaskAccountCreated  = "account:created"
	TaskAccountUpdated  = "account:updated"
	TaskAccountDeleted  = "account:deleted"
)

// AccountEvent is a background job raised by the auth and user flows.
type AccountEvent struct {
	Type      string    `json:"type"`
	AccountID string    `json:"account_id"`
	Email     string    `json:"email,omitempty"`
	At        time.Time `json:"at"`
}

// EventProcessor handles one account event.
type EventProcessor func(context.Context, *AccountEvent) error

// TaskQueue defines the interface for account event processing
type TaskQueue interface {
	// Enqueue adds an event to the queue
	Enqueue(event *AccountEvent) error
	// IsAsync returns true if queue processes tasks asynchronously
	IsAsync() bool
	// Close gracefully shuts down the queue
	Close() error
}

// NewTaskQueue returns a Redis-backed queue when Redis is enabled and
// reachable, and an in-process queue otherwise.
func NewTaskQueue(cfg *config.RedisConfig) TaskQueue {
	if !cfg.Enabled {
		logger.Infof("[TaskQueue] Sync queue initialized (Redis disabled)")
		return NewSyncQueue()
	}

	queue, err := NewAsyncQueue(cfg)
	if err != nil {
		logger.Warnf("[TaskQueue] Redis unavailable, falling back to sync mode: %v", err)
		return NewSyncQueue()
	}
	logger.Infof("[TaskQueue] Async queue initialized with Redis at %s", cfg.Addr)
	return queue
}

// AsyncQueue implements TaskQueue using asynq (Redis-based)
type AsyncQueue struct {
	client *asynq.Client
}

// NewAsyncQueue creates a new Redis-based async queue
func NewAsyncQueue(cfg *config.RedisConfig) (*AsyncQueue, error) {
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}

	client := asynq.NewClient(redisOpt)

	// Test connection by pinging Redis
	inspector := asynq.NewInspector(redisOpt)
	defer inspector.Close()

	if _, err := inspector.Queues(); err != nil {
		client.Close()
		return nil, err
	}

	return &AsyncQueue{client: client}, nil
}

// Enqueue adds an account event to the async queue
func (q *AsyncQueue) Enqueue(event *AccountEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	t := asynq.NewTask(event.Type, payload)
	info, err := q.client.Enqueue(t,
		asynq.Queue("default"),
		asynq.MaxRetry(3),
	)
	if err != nil {
		return err
	}

	logger.Debug().Str("id", info.ID).Str("type", event.Type).Msg("[AsyncQueue] Task enqueued")
	return nil
}

// IsAsync returns true for async queue
func (q *AsyncQueue) IsAsync() bool {
	return true
}

// Close closes the async queue client
func (q *AsyncQueue) Close() error {
	return q.client.Close()
}

// SyncQueue runs each event on its own goroutine inside the process.
type SyncQueue struct {
	mu        sync.RWMutex
	processor EventProcessor
	wg        sync.WaitGroup
}

// NewSyncQueue creates a new in-process queue
func NewSyncQueue() *SyncQueue {
	return &SyncQueue{}
}

// SetProcessor sets the function that handles events
func (q *SyncQueue) SetProcessor(processor EventProcessor) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.processor = processor
}

// Enqueue hands the event to the processor without blocking the caller.
func (q *SyncQueue) Enqueue(event *AccountEvent) error {
	q.mu.RLock()
	processor := q.processor
	q.mu.RUnlock()

	if processor == nil {
		logger.Warnf("[SyncQueue] No processor set, event %s will be dropped", event.Type)
		return nil
	}

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		if err := processor(context.Background(), event); err != nil {
			logger.Warnf("[SyncQueue] Event %s failed: %v", event.Type, err)
		}
	}()

	return nil
}

// IsAsync returns false for sync queue
func (q *SyncQueue) IsAsync() bool {
	return false
}

// Close waits for in-flight events to finish.
func (q *SyncQueue) Close() error {
	q.wg.Wait()
	return nil
}
