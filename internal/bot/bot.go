package bot

import (
	"context"
	"errors"
	"time"

	"github.com/PKartavkin/slack-bot/internal/jira"
	"github.com/PKartavkin/slack-bot/internal/ratelimit"
	"github.com/PKartavkin/slack-bot/internal/settings"
	"github.com/PKartavkin/slack-bot/internal/store"
	"github.com/PKartavkin/slack-bot/pkg/logger"
)

// generator abstracts the AI backend so command tests can stub it.
type generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// issueTracker is the slice of the Jira client the commands use.
type issueTracker interface {
	Myself(ctx context.Context) (string, error)
	SearchIssues(ctx context.Context, jql string, max int) ([]jira.Issue, error)
	BaseURL() string
}

// Bot implements the chat command surface. Every handler returns the
// string to post back to the channel; failures become user-facing
// messages rather than errors, because there is nobody upstream to
// handle them.
type Bot struct {
	settings *settings.Service
	limiter  *ratelimit.Limiter
	ai       generator
	store    store.OrgStore

	// newTracker builds a Jira client from per-project credentials.
	// Swapped in tests for a fake.
	newTracker func(baseURL, email, token string) issueTracker
}

func New(svc *settings.Service, limiter *ratelimit.Limiter, gen generator, st store.OrgStore, jiraTimeout time.Duration) *Bot {
	return &Bot{
		settings: svc,
		limiter:  limiter,
		ai:       gen,
		store:    st,
		newTracker: func(baseURL, email, token string) issueTracker {
			return jira.NewClient(baseURL, email, token, jiraTimeout)
		},
	}
}

// requireProject returns a non-empty message when the channel has no
// bound project. Commands that operate on project settings call it
// first. An empty channelID (DM context) passes the gate.
func (b *Bot) requireProject(ctx context.Context, teamID, channelID string) string {
	if channelID == "" {
		return ""
	}
	if b.settings.ChannelProjectName(ctx, teamID, channelID) == "" {
		return "❌ No project is set for this channel.\n" +
			"Please set a project first using: `use project <project-name>`\n" +
			"Example: `use project Mobile app`"
	}
	return ""
}

func isInvalidInput(err error) bool {
	return errors.Is(err, settings.ErrInvalidIdentifier)
}

// storageErrorMessage logs a storage failure and returns the message to
// post. Connectivity problems get a softer wording than data errors.
func storageErrorMessage(err error, operation string) string {
	logger.Error().Err(err).Str("operation", operation).Msg("storage error")
	if store.IsConnectivity(err) {
		return "The database is temporarily unavailable. Please try again in a few minutes."
	}
	return "Something went wrong while accessing the database. Please try again."
}
