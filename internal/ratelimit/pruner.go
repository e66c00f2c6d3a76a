package ratelimit

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/PKartavkin/slack-bot/internal/store"
	"github.com/PKartavkin/slack-bot/pkg/logger"
)

// Pruner deletes rate limit windows that have gone quiet, so abandoned
// workspaces do not accumulate documents forever. Windows untouched for
// twice the limiter interval can no longer influence a quota decision.
type Pruner struct {
	store  store.RateLimitStore
	window time.Duration
	cron   *cron.Cron
}

func NewPruner(st store.RateLimitStore, window time.Duration) *Pruner {
	return &Pruner{
		store:  st,
		window: window,
		cron:   cron.New(),
	}
}

// Start schedules a daily cleanup run. The first run happens on
// schedule, not at startup.
func (p *Pruner) Start() error {
	_, err := p.cron.AddFunc("@daily", p.run)
	if err != nil {
		return err
	}
	p.cron.Start()
	logger.Info().Msg("Rate limit pruner scheduled (daily)")
	return nil
}

// Stop waits for an in-flight run to finish.
func (p *Pruner) Stop() {
	ctx := p.cron.Stop()
	<-ctx.Done()
}

func (p *Pruner) run() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cutoff := time.Now().Add(-2 * p.window)
	deleted, err := p.store.DeleteStaleWindows(ctx, cutoff)
	if err != nil {
		logger.Error().Err(err).Msg("Rate limit prune failed")
		return
	}
	if deleted > 0 {
		logger.Info().Int64("deleted", deleted).Msg("Pruned stale rate limit windows")
	}
}
