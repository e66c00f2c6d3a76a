package bot

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/hibiken/asynq"

	"github.com/PKartavkin/slack-bot/internal/config"
	"github.com/PKartavkin/slack-bot/pkg/logger"
)

// Worker consumes mention tasks from Redis. It is only constructed
// when the async queue is in use.
type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	processor func(context.Context, *MentionTask) error
	wg        sync.WaitGroup
	running   bool
	mu        sync.Mutex
}

func NewWorker(cfg *config.RedisConfig) *Worker {
	if !cfg.Enabled {
		return nil
	}

	server := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		},
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Error().Err(err).Str("type", task.Type()).Msg("task processing error")
			}),
		},
	)

	return &Worker{
		server: server,
		mux:    asynq.NewServeMux(),
	}
}

func (w *Worker) SetProcessor(processor func(context.Context, *MentionTask) error) {
	w.processor = processor
}

func (w *Worker) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}

	w.mux.HandleFunc(TaskTypeMention, w.handleMentionTask)

	w.running = true
	w.wg.Add(1)

	go func() {
		defer w.wg.Done()
		logger.Info().Msg("Starting async worker")
		if err := w.server.Run(w.mux); err != nil {
			logger.Error().Err(err).Msg("worker server error")
		}
	}()

	return nil
}

func (w *Worker) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}

	logger.Info().Msg("Shutting down worker")
	w.server.Shutdown()
	w.running = false
	w.wg.Wait()
}

func (w *Worker) handleMentionTask(ctx context.Context, t *asynq.Task) error {
	var task MentionTask
	if err := json.Unmarshal(t.Payload(), &task); err != nil {
		logger.Error().Err(err).Msg("failed to unmarshal mention task")
		return err
	}

	logger.Debug().
		Str("team_id", task.TeamID).
		Str("channel_id", task.ChannelID).
		Str("event_id", task.EventID).
		Msg("processing mention task")

	if w.processor == nil {
		logger.Warn().Msg("worker has no processor set")
		return nil
	}
	return w.processor(ctx, &task)
}
