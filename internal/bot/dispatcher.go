package bot

import (
	"context"
	"strings"

	"github.com/PKartavkin/slack-bot/internal/utils"
	"github.com/PKartavkin/slack-bot/pkg/logger"
)

// HandleMention routes a mention to the matching command and returns
// the reply to post. Matching is containment based: the command phrase
// may appear anywhere in the message, so "hey bot, show bug template
// please" still works. More specific phrases are checked before their
// prefixes.
func (b *Bot) HandleMention(ctx context.Context, teamID, channelID, text string) string {
	b.recordInvocation(ctx, teamID)

	cleaned := utils.StripMentions(text)
	lowered := strings.ToLower(cleaned)

	var reply string
	switch {
	case utils.Contains(lowered, "use project"):
		reply = b.UseProject(ctx, cleaned, teamID, channelID)
	case utils.Contains(lowered, "list projects"):
		reply = b.ListProjects(ctx, teamID)
	case utils.Contains(lowered, "create bug report"):
		reply = b.CreateBugReport(ctx, cleaned, teamID, channelID)
	case utils.Contains(lowered, "show bug template"):
		reply = b.ShowBugTemplate(ctx, teamID, channelID)
	case utils.Contains(lowered, "edit bug template"):
		reply = b.EditBugTemplate(ctx, cleaned, teamID, channelID)
	case utils.Contains(lowered, "update docs"):
		reply = b.UpdateProjectOverview(ctx, cleaned, teamID, channelID)
	case utils.Contains(lowered, "enable docs"):
		reply = b.SetUseDocs(ctx, true, teamID, channelID)
	case utils.Contains(lowered, "disable docs"):
		reply = b.SetUseDocs(ctx, false, teamID, channelID)
	case utils.Contains(lowered, "set jira token"):
		reply = b.SetJiraToken(ctx, cleaned, teamID, channelID)
	case utils.Contains(lowered, "set jira url"):
		reply = b.SetJiraURL(ctx, cleaned, teamID, channelID)
	case utils.Contains(lowered, "set jira email"):
		reply = b.SetJiraEmail(ctx, cleaned, teamID, channelID)
	case utils.Contains(lowered, "set jira query"):
		reply = b.SetJiraQuery(ctx, cleaned, teamID, channelID)
	case utils.Contains(lowered, "set jira defaults"):
		reply = b.SetJiraDefaults(ctx, cleaned, teamID, channelID)
	case utils.Contains(lowered, "show jira query"):
		reply = b.ShowJiraQuery(ctx, teamID, channelID)
	case utils.Contains(lowered, "show jira defaults"):
		reply = b.ShowJiraDefaults(ctx, teamID, channelID)
	case utils.Contains(lowered, "clear jira default"):
		reply = b.ClearJiraDefault(ctx, cleaned, teamID, channelID)
	case utils.Contains(lowered, "test jira"):
		reply = b.TestJira(ctx, teamID, channelID)
	case utils.Contains(lowered, "get bugs"):
		reply = b.GetBugs(ctx, teamID, channelID)
	case utils.Contains(lowered, "show project"):
		reply = b.ShowProjectOverview(ctx, teamID, channelID)
	case utils.Contains(lowered, "status"):
		reply = b.ChannelStatus(ctx, teamID, channelID)
	case utils.Contains(lowered, "help"):
		reply = b.Help()
	default:
		reply = "I did not understand that command. Type `help` to see available commands."
	}

	return b.withWelcome(ctx, teamID, channelID, reply)
}

// withWelcome prepends the one-time welcome blurb on a channel's first
// interaction and marks it shown.
func (b *Bot) withWelcome(ctx context.Context, teamID, channelID, reply string) string {
	if channelID == "" {
		return reply
	}
	if b.settings.WelcomeShown(ctx, teamID, channelID) {
		return reply
	}
	b.settings.SetWelcomeShown(ctx, teamID, channelID)
	return welcomeMessage + "\n\n" + reply
}

// recordInvocation bumps the org's usage counter. Metrics are best
// effort and never block a command.
func (b *Bot) recordInvocation(ctx context.Context, teamID string) {
	if err := b.store.IncOrgField(ctx, teamID, "bot_invocations_total", 1); err != nil {
		logger.Error().Err(err).Str("team_id", teamID).Msg("failed to record invocation")
	}
}
