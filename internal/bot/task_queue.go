package bot

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"

	"github.com/PKartavkin/slack-bot/internal/config"
	"github.com/PKartavkin/slack-bot/pkg/logger"
)

const TaskTypeMention = "mention:process"

// MentionTask is one app_mention event handed off for processing after
// the HTTP handler has already acknowledged Slack.
type MentionTask struct {
	TeamID    string `json:"team_id"`
	ChannelID string `json:"channel_id"`
	UserID    string `json:"user_id"`
	Text      string `json:"text"`
	EventID   string `json:"event_id"`
}

// TaskQueue hands mention events to a processor, either through Redis
// or inline when Redis is disabled.
type TaskQueue interface {
	Enqueue(task *MentionTask) error
	IsAsync() bool
	Close() error
}

// NewTaskQueue picks the queue implementation from config. A Redis
// connection failure falls back to the in-process queue rather than
// refusing to start.
func NewTaskQueue(cfg *config.RedisConfig) TaskQueue {
	if cfg.Enabled {
		queue, err := NewAsyncQueue(cfg)
		if err != nil {
			logger.Warn().Err(err).Msg("Redis unavailable, falling back to sync queue")
			return NewSyncQueue()
		}
		logger.Info().Str("addr", cfg.Addr).Msg("Async task queue initialized")
		return queue
	}
	logger.Info().Msg("Sync task queue initialized (Redis disabled)")
	return NewSyncQueue()
}

// AsyncQueue is the Redis-backed queue.
type AsyncQueue struct {
	client *asynq.Client
}

func NewAsyncQueue(cfg *config.RedisConfig) (*AsyncQueue, error) {
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}

	client := asynq.NewClient(redisOpt)

	// verify the connection before committing to async mode
	inspector := asynq.NewInspector(redisOpt)
	defer inspector.Close()
	if _, err := inspector.Queues(); err != nil {
		client.Close()
		return nil, err
	}

	return &AsyncQueue{client: client}, nil
}

func (q *AsyncQueue) Enqueue(task *MentionTask) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return err
	}

	info, err := q.client.Enqueue(asynq.NewTask(TaskTypeMention, payload),
		asynq.Queue("default"),
		asynq.MaxRetry(3),
	)
	if err != nil {
		return err
	}

	logger.Debug().Str("task_id", info.ID).Str("queue", info.Queue).Msg("mention task enqueued")
	return nil
}

func (q *AsyncQueue) IsAsync() bool { return true }

func (q *AsyncQueue) Close() error { return q.client.Close() }

// SyncQueue processes tasks in-process. The handler still returns to
// Slack immediately because processing happens in a goroutine.
type SyncQueue struct {
	processor func(context.Context, *MentionTask) error
}

func NewSyncQueue() *SyncQueue {
	return &SyncQueue{}
}

func (q *SyncQueue) SetProcessor(processor func(context.Context, *MentionTask) error) {
	q.processor = processor
}

func (q *SyncQueue) Enqueue(task *MentionTask) error {
	if q.processor == nil {
		logger.Warn().Msg("sync queue has no processor, dropping task")
		return nil
	}

	go func() {
		if err := q.processor(context.Background(), task); err != nil {
			logger.Error().Err(err).Str("event_id", task.EventID).Msg("mention task failed")
		}
	}()
	return nil
}

func (q *SyncQueue) IsAsync() bool { return false }

func (q *SyncQueue) Close() error { return nil }
