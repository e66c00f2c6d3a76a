package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/PKartavkin/slack-bot/internal/ai"
	"github.com/PKartavkin/slack-bot/internal/settings"
	"github.com/PKartavkin/slack-bot/internal/utils"
	"github.com/PKartavkin/slack-bot/pkg/logger"
)

// maxBugReportInputLength caps the user text sent to the AI backend.
const maxBugReportInputLength = 4000

// CreateBugReport converts the user's message into a structured bug
// report through the AI backend, applying the project's template and
// optional context.
func (b *Bot) CreateBugReport(ctx context.Context, text, teamID, channelID string) string {
	if msg := b.requireProject(ctx, teamID, channelID); msg != "" {
		return msg
	}
	if b.ai == nil {
		return "Bug report generation is temporarily unavailable: " +
			"the AI backend is not configured."
	}

	if allowed, msg := b.limiter.Allowed(ctx, teamID); !allowed {
		return msg
	}

	if len(text) > maxBugReportInputLength {
		logger.Warn().
			Int("length", len(text)).
			Str("team_id", teamID).
			Msg("bug report input too long")
		return fmt.Sprintf(
			"Your message is too long for bug report generation. "+
				"Please shorten it to under %d characters.", maxBugReportInputLength)
	}

	cfg, err := b.settings.Resolve(ctx, teamID, channelID)
	if err != nil {
		return storageErrorMessage(err, "create_bug_report")
	}
	if cfg == nil {
		cfg = settings.DefaultSettings()
	}

	content, err := b.ai.Generate(ctx, bugReportPrompt(cfg, text))
	if err != nil {
		if errors.Is(err, ai.ErrTimeout) {
			logger.Error().Err(err).Str("team_id", teamID).Msg("AI timeout generating bug report")
			return "The AI service took too long to respond. " +
				"Please try again with a shorter message or try again later."
		}
		logger.Error().Err(err).Str("team_id", teamID).Msg("AI error generating bug report")
		return "I couldn't generate a bug report due to an internal error talking to the AI service. " +
			"Please try again in a bit."
	}

	content = strings.TrimSpace(content)
	if content == "" {
		logger.Error().Str("team_id", teamID).Msg("AI returned empty bug report")
		return "I couldn't generate a bug report from this message. " +
			"Please try rephrasing or adding more details."
	}
	return content
}

func bugReportPrompt(cfg *settings.ProjectSettings, text string) string {
	contextBlock := ""
	if cfg.UseProjectContext && strings.TrimSpace(cfg.ProjectContext) != "" {
		contextBlock = cfg.ProjectContext
	}
	return fmt.Sprintf(`Convert the user's message into a bug report.

%s

Use the following format exactly:
%s

Rules:
- If project context is disabled or empty, ignore it.
- Bug name must be short (3-6 words).
- Steps must be numbered and reproducible.
- Infer details only when logically obvious.
- If the user input is too short to create a meaningful bug report, respond with: "Too short for bug report".
- Output only the bug report in the template format.

User input: %s`, contextBlock, cfg.BugReportTemplate, text)
}

// ShowBugTemplate shows the channel project's bug report template.
func (b *Bot) ShowBugTemplate(ctx context.Context, teamID, channelID string) string {
	if msg := b.requireProject(ctx, teamID, channelID); msg != "" {
		return msg
	}
	cfg, err := b.settings.Resolve(ctx, teamID, channelID)
	if err != nil {
		return storageErrorMessage(err, "show_bug_template")
	}
	if cfg == nil {
		cfg = settings.DefaultSettings()
	}
	return cfg.BugReportTemplate
}

// EditBugTemplate replaces the project's bug report template with the
// command payload.
func (b *Bot) EditBugTemplate(ctx context.Context, text, teamID, channelID string) string {
	if msg := b.requireProject(ctx, teamID, channelID); msg != "" {
		return msg
	}
	payload := utils.StripCommand(text, "edit bug template")
	if payload == "" {
		return "Please provide the bug report template content."
	}
	if err := b.settings.UpdateField(ctx, teamID, channelID, settings.FieldBugReportTemplate, payload); err != nil {
		return storageErrorMessage(err, "edit_bug_template")
	}
	return "Bug report template updated"
}

// ShowProjectOverview shows the project's documentation text.
func (b *Bot) ShowProjectOverview(ctx context.Context, teamID, channelID string) string {
	if msg := b.requireProject(ctx, teamID, channelID); msg != "" {
		return msg
	}
	cfg, err := b.settings.Resolve(ctx, teamID, channelID)
	if err != nil {
		return storageErrorMessage(err, "show_project_overview")
	}
	if cfg == nil || strings.TrimSpace(cfg.ProjectContext) == "" {
		return "Project documentation is empty. Use *update docs* to add it."
	}
	return cfg.ProjectContext
}

// UpdateProjectOverview replaces the project's documentation text.
func (b *Bot) UpdateProjectOverview(ctx context.Context, text, teamID, channelID string) string {
	if msg := b.requireProject(ctx, teamID, channelID); msg != "" {
		return msg
	}
	payload := utils.StripCommand(text, "update docs")
	if payload == "" {
		return "Please provide project documentation content."
	}
	if err := b.settings.UpdateField(ctx, teamID, channelID, settings.FieldProjectContext, payload); err != nil {
		return storageErrorMessage(err, "update_project_overview")
	}
	return "Project overview updated."
}

// SetUseDocs toggles whether project documentation is fed into bug
// report prompts.
func (b *Bot) SetUseDocs(ctx context.Context, flag bool, teamID, channelID string) string {
	if msg := b.requireProject(ctx, teamID, channelID); msg != "" {
		return msg
	}
	if err := b.settings.UpdateField(ctx, teamID, channelID, settings.FieldUseProjectContext, flag); err != nil {
		return storageErrorMessage(err, "set_use_docs")
	}
	return fmt.Sprintf("Use documentation: %t", flag)
}
