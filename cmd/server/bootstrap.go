package main

import (
	"context"
	"time"

	"github.com/PKartavkin/slack-bot/internal/ai"
	"github.com/PKartavkin/slack-bot/internal/bot"
	"github.com/PKartavkin/slack-bot/internal/config"
	"github.com/PKartavkin/slack-bot/internal/handlers"
	"github.com/PKartavkin/slack-bot/internal/ratelimit"
	"github.com/PKartavkin/slack-bot/internal/settings"
	"github.com/PKartavkin/slack-bot/internal/slack"
	"github.com/PKartavkin/slack-bot/internal/store"
	"github.com/PKartavkin/slack-bot/pkg/logger"
)

// appServices holds all initialized services and handlers needed by the application.
type appServices struct {
	store        store.Store
	settings     *settings.Service
	bot          *bot.Bot
	slackClient  *slack.Client
	taskQueue    bot.TaskQueue
	worker       *bot.Worker
	pruner       *ratelimit.Pruner
	slackHandler *handlers.SlackHandler
	adminHandler *handlers.AdminHandler
	health       *handlers.HealthHandler
}

// bootstrap wires storage, services, the task queue and handlers.
func bootstrap(cfg *config.Config) *appServices {
	st := openStore(cfg)

	settingsService := settings.NewService(st)
	limitWindow := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
	limiter := ratelimit.NewLimiter(st, "openai_api", cfg.RateLimit.MaxRequests, limitWindow)
	generator := ai.NewGenerator(cfg.AI)
	jiraTimeout := time.Duration(cfg.Jira.TimeoutSeconds) * time.Second

	botService := bot.New(settingsService, limiter, generator, st, jiraTimeout)
	slackClient := slack.NewClient(cfg.Slack.BotToken)

	// replies are generated off the request path and posted back
	process := func(ctx context.Context, task *bot.MentionTask) error {
		reply := botService.HandleMention(ctx, task.TeamID, task.ChannelID, task.Text)
		if reply == "" {
			return nil
		}
		return slackClient.PostMessage(ctx, task.ChannelID, reply)
	}

	taskQueue := bot.NewTaskQueue(&cfg.Redis)
	if syncQueue, ok := taskQueue.(*bot.SyncQueue); ok {
		syncQueue.SetProcessor(process)
	}

	var worker *bot.Worker
	if cfg.Redis.Enabled && taskQueue.IsAsync() {
		worker = bot.NewWorker(&cfg.Redis)
		if worker != nil {
			worker.SetProcessor(process)
			if err := worker.Start(); err != nil {
				logger.Fatalf("Failed to start worker: %v", err)
			}
		}
	}

	pruner := ratelimit.NewPruner(st, limitWindow)
	if err := pruner.Start(); err != nil {
		logger.Fatalf("Failed to start rate limit pruner: %v", err)
	}

	return &appServices{
		store:        st,
		settings:     settingsService,
		bot:          botService,
		slackClient:  slackClient,
		taskQueue:    taskQueue,
		worker:       worker,
		pruner:       pruner,
		slackHandler: handlers.NewSlackHandler(cfg.Slack.SigningSecret, taskQueue),
		adminHandler: handlers.NewAdminHandler(st),
		health:       handlers.NewHealthHandler(st, taskQueue),
	}
}

// openStore connects to Mongo, or falls back to the in-memory store in
// debug mode when no Mongo URL is configured.
func openStore(cfg *config.Config) store.Store {
	if cfg.Mongo.URL == "" {
		if cfg.Server.Mode == "release" {
			logger.Fatalf("MONGO_URL is required in release mode")
		}
		logger.Warn().Msg("No Mongo URL configured, using in-memory store (data is not persisted)")
		return store.NewMemoryStore()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	st, err := store.NewMongoStore(ctx, &cfg.Mongo)
	if err != nil {
		logger.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	logger.Info().Str("database", cfg.Mongo.Database).Msg("Connected to MongoDB")
	return st
}

// shutdown gracefully stops background services.
func (s *appServices) shutdown() {
	s.pruner.Stop()
	if s.worker != nil {
		s.worker.Stop()
	}
	if s.taskQueue != nil {
		s.taskQueue.Close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.store.Close(ctx); err != nil {
		logger.Error().Err(err).Msg("store close failed")
	}
	logger.Info().Msg("All services stopped")
}
