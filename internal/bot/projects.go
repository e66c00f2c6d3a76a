package bot

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/PKartavkin/slack-bot/internal/settings"
	"github.com/PKartavkin/slack-bot/internal/utils"
)

// UseProject binds the channel to a named project configuration,
// creating the project with defaults on first use.
func (b *Bot) UseProject(ctx context.Context, text, teamID, channelID string) string {
	projectName := utils.StripCommand(text, "use project")
	if projectName == "" {
		return "Please provide a project name. Example:\n`use project Mobile app`"
	}

	if err := b.settings.BindChannel(ctx, teamID, channelID, projectName); err != nil {
		if isInvalidInput(err) {
			return fmt.Sprintf("Invalid project name: %s", err)
		}
		return storageErrorMessage(err, "use_project")
	}
	return fmt.Sprintf("Channel is now using project configuration *%s*.", projectName)
}

// ListProjects lists the org's project configurations.
func (b *Bot) ListProjects(ctx context.Context, teamID string) string {
	names, err := b.settings.ProjectNames(ctx, teamID)
	if err != nil {
		return storageErrorMessage(err, "list_projects")
	}
	if len(names) == 0 {
		return "No project configurations found yet.\n" +
			"You can create one by mentioning me and saying, for example:\n" +
			"`use project Mobile app`"
	}

	lines := []string{"Available project configurations:"}
	for _, name := range names {
		lines = append(lines, "- "+name)
	}
	return strings.Join(lines, "\n")
}

// ChannelStatus summarizes the channel's project and Jira configuration.
func (b *Bot) ChannelStatus(ctx context.Context, teamID, channelID string) string {
	if channelID == "" {
		return "Channel status is only available when called from a channel."
	}

	projectName := b.settings.ChannelProjectName(ctx, teamID, channelID)
	cfg, err := b.settings.Resolve(ctx, teamID, channelID)
	if err != nil {
		return storageErrorMessage(err, "channel_status")
	}
	if cfg == nil {
		cfg = settings.DefaultSettings()
	}

	lines := []string{
		fmt.Sprintf("*Project name:* %s", orNA(projectName)),
		fmt.Sprintf("*Project context:* %s", orNA(strings.TrimSpace(cfg.ProjectContext))),
		fmt.Sprintf("*Use project context:* %t", cfg.UseProjectContext),
		fmt.Sprintf("*Jira URL:* %s", orNA(strings.TrimSpace(cfg.JiraURL))),
		fmt.Sprintf("*Jira token:* %s", setOrNot(cfg.JiraToken)),
		fmt.Sprintf("*Jira email:* %s", orNA(strings.TrimSpace(cfg.JiraEmail))),
	}

	if len(cfg.JiraDefaults) > 0 {
		keys := make([]string, 0, len(cfg.JiraDefaults))
		for k := range cfg.JiraDefaults {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		pairs := make([]string, 0, len(keys))
		for _, k := range keys {
			pairs = append(pairs, fmt.Sprintf("%s=%s", k, cfg.JiraDefaults[k]))
		}
		lines = append(lines, fmt.Sprintf("*Jira defaults:* %s", strings.Join(pairs, ", ")))
	} else {
		lines = append(lines, "*Jira defaults:* none")
	}

	return strings.Join(lines, "\n")
}

func orNA(v string) string {
	if v == "" {
		return "N/A"
	}
	return v
}

func setOrNot(v string) string {
	if strings.TrimSpace(v) == "" {
		return "not set"
	}
	return "set"
}
