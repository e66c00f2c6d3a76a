package bot

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/PKartavkin/slack-bot/internal/jira"
	"github.com/PKartavkin/slack-bot/internal/settings"
	"github.com/PKartavkin/slack-bot/internal/utils"
	"github.com/PKartavkin/slack-bot/pkg/logger"
)

const (
	minJiraTokenLength     = 8
	maxJiraTokenLength     = 512
	maxJiraURLLength       = 512
	minJiraQueryLength     = 3
	maxJiraQueryLength     = 1024
	maxJiraEmailLength     = 254
	maxJiraIssues          = 10
	maxJiraFieldNameLength = 64
	maxJiraFieldValLength  = 256
)

// SetJiraToken stores the project's Jira API token.
func (b *Bot) SetJiraToken(ctx context.Context, text, teamID, channelID string) string {
	if msg := b.requireProject(ctx, teamID, channelID); msg != "" {
		return msg
	}
	token := utils.StripCommand(text, "set jira token")
	if token == "" {
		return "Please provide a Jira token. Example: `set jira token <your-token>`"
	}
	if len(token) < minJiraTokenLength {
		return "Jira token looks too short. Please send a valid token."
	}
	if len(token) > maxJiraTokenLength {
		return fmt.Sprintf(
			"Jira token looks unusually long. "+
				"Please ensure it's correct and shorter than %d characters.", maxJiraTokenLength)
	}
	if err := b.settings.UpdateField(ctx, teamID, channelID, settings.FieldJiraToken, token); err != nil {
		return storageErrorMessage(err, "set_jira_token")
	}
	return "Jira token has been updated."
}

// SetJiraURL stores the project's Jira instance URL, cleaning chat
// markup and invisible characters first.
func (b *Bot) SetJiraURL(ctx context.Context, text, teamID, channelID string) string {
	if msg := b.requireProject(ctx, teamID, channelID); msg != "" {
		return msg
	}
	url := utils.CleanURL(utils.StripCommand(text, "set jira url"))
	if url == "" {
		return "Please provide a Jira URL. Example: `set jira url https://your-instance.atlassian.net`"
	}

	lowered := strings.ToLower(url)
	if !strings.HasPrefix(lowered, "http://") && !strings.HasPrefix(lowered, "https://") {
		logger.Error().
			Str("team_id", teamID).
			Str("extracted", url).
			Msg("jira url validation failed")
		preview := url
		if len(preview) > 60 {
			preview = preview[:60]
		}
		return fmt.Sprintf("Jira URL should start with http:// or https://. Got: %q", preview)
	}
	if len(url) > maxJiraURLLength {
		return fmt.Sprintf(
			"Jira URL is too long. "+
				"Please provide a URL shorter than %d characters.", maxJiraURLLength)
	}
	if err := b.settings.UpdateField(ctx, teamID, channelID, settings.FieldJiraURL, url); err != nil {
		return storageErrorMessage(err, "set_jira_url")
	}
	return "Jira URL has been updated."
}

// SetJiraEmail stores the Jira account email used for basic auth.
func (b *Bot) SetJiraEmail(ctx context.Context, text, teamID, channelID string) string {
	if msg := b.requireProject(ctx, teamID, channelID); msg != "" {
		return msg
	}
	email := utils.StripCommand(text, "set jira email")
	if email == "" {
		return "Please provide a Jira email address. Example: `set jira email user@example.com`"
	}
	at := strings.LastIndex(email, "@")
	if at <= 0 || !strings.Contains(email[at:], ".") {
		return "Please provide a valid email address."
	}
	if len(email) > maxJiraEmailLength {
		return fmt.Sprintf(
			"Jira email is too long. "+
				"Please provide an email shorter than %d characters.", maxJiraEmailLength)
	}
	if err := b.settings.UpdateField(ctx, teamID, channelID, settings.FieldJiraEmail, email); err != nil {
		return storageErrorMessage(err, "set_jira_email")
	}
	return "Jira email has been updated."
}

// SetJiraQuery stores the JQL query used by the get bugs command.
func (b *Bot) SetJiraQuery(ctx context.Context, text, teamID, channelID string) string {
	if msg := b.requireProject(ctx, teamID, channelID); msg != "" {
		return msg
	}
	query := utils.StripCommand(text, "set jira query")
	if query == "" {
		return "Please provide a JQL query. Example: `set jira query project = PROJ AND status != Done`"
	}
	if len(query) < minJiraQueryLength {
		return "Jira query looks too short. Please provide a valid JQL query."
	}
	if len(query) > maxJiraQueryLength {
		return fmt.Sprintf(
			"Jira query is too long. "+
				"Please shorten it to under %d characters.", maxJiraQueryLength)
	}
	if err := b.settings.UpdateField(ctx, teamID, channelID, settings.FieldJiraBugQuery, query); err != nil {
		return storageErrorMessage(err, "set_jira_query")
	}
	return "Jira bug query has been updated."
}

// ShowJiraQuery shows the configured JQL query.
func (b *Bot) ShowJiraQuery(ctx context.Context, teamID, channelID string) string {
	if msg := b.requireProject(ctx, teamID, channelID); msg != "" {
		return msg
	}
	cfg, err := b.settings.Resolve(ctx, teamID, channelID)
	if err != nil {
		return storageErrorMessage(err, "show_jira_query")
	}
	if cfg == nil || strings.TrimSpace(cfg.JiraBugQuery) == "" {
		return "Jira bug query is not set."
	}
	return fmt.Sprintf("Current Jira bug query:\n```\n%s\n```", cfg.JiraBugQuery)
}

// SetJiraDefaults merges field=value pairs into the project's Jira
// default fields. Multiple pairs may be given in one command.
func (b *Bot) SetJiraDefaults(ctx context.Context, text, teamID, channelID string) string {
	if msg := b.requireProject(ctx, teamID, channelID); msg != "" {
		return msg
	}
	payload := utils.StripCommand(text, "set jira defaults")
	if payload == "" {
		return "Please provide field=value pairs.\n" +
			"Example: `set jira defaults project=PROJ-123 type=Bug priority=High`\n" +
			"For a single field: `set jira defaults project=PROJ-123`"
	}

	updates := map[string]string{}
	var problems []string
	for _, pair := range strings.Fields(payload) {
		name, value, found := strings.Cut(pair, "=")
		if !found {
			problems = append(problems, fmt.Sprintf("Invalid format: '%s' (expected field=value)", pair))
			continue
		}
		name = strings.TrimSpace(name)
		value = strings.TrimSpace(value)
		switch {
		case name == "":
			problems = append(problems, fmt.Sprintf("Empty field name in: '%s'", pair))
		case value == "":
			problems = append(problems, fmt.Sprintf("Empty field value in: '%s'", pair))
		case len(name) > maxJiraFieldNameLength:
			problems = append(problems, fmt.Sprintf("Field name too long: '%s' (max %d characters)", name, maxJiraFieldNameLength))
		case len(value) > maxJiraFieldValLength:
			problems = append(problems, fmt.Sprintf("Field value too long: '%s' (max %d characters)", value, maxJiraFieldValLength))
		default:
			updates[name] = value
		}
	}

	if len(problems) > 0 {
		lines := make([]string, 0, len(problems)+1)
		lines = append(lines, "Errors found:")
		for _, p := range problems {
			lines = append(lines, "- "+p)
		}
		return strings.Join(lines, "\n")
	}
	if len(updates) == 0 {
		return "No valid field=value pairs found."
	}

	cfg, err := b.settings.Resolve(ctx, teamID, channelID)
	if err != nil {
		return storageErrorMessage(err, "set_jira_defaults")
	}
	merged := map[string]string{}
	if cfg != nil {
		for k, v := range cfg.JiraDefaults {
			merged[k] = v
		}
	}
	for k, v := range updates {
		merged[k] = v
	}

	if err := b.settings.UpdateField(ctx, teamID, channelID, settings.FieldJiraDefaults, merged); err != nil {
		return storageErrorMessage(err, "set_jira_defaults")
	}

	keys := make([]string, 0, len(updates))
	for k := range updates {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, fmt.Sprintf("*%s*=%s", k, updates[k]))
	}
	return fmt.Sprintf("Jira defaults updated: %s.", strings.Join(pairs, ", "))
}

// ShowJiraDefaults lists the project's Jira default fields.
func (b *Bot) ShowJiraDefaults(ctx context.Context, teamID, channelID string) string {
	if msg := b.requireProject(ctx, teamID, channelID); msg != "" {
		return msg
	}
	cfg, err := b.settings.Resolve(ctx, teamID, channelID)
	if err != nil {
		return storageErrorMessage(err, "show_jira_defaults")
	}
	if cfg == nil || len(cfg.JiraDefaults) == 0 {
		return "No Jira default fields are set.\n" +
			"Use `set jira defaults field=value` to set fields.\n" +
			"Example: `set jira defaults project=PROJ-123 type=Bug`"
	}

	keys := make([]string, 0, len(cfg.JiraDefaults))
	for k := range cfg.JiraDefaults {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := []string{"*Jira default fields:*"}
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("  • *%s*: %s", k, cfg.JiraDefaults[k]))
	}
	return strings.Join(lines, "\n")
}

// ClearJiraDefault removes one Jira default field.
func (b *Bot) ClearJiraDefault(ctx context.Context, text, teamID, channelID string) string {
	if msg := b.requireProject(ctx, teamID, channelID); msg != "" {
		return msg
	}
	fieldName := utils.StripCommand(text, "clear jira default")
	if fieldName == "" {
		return "Please provide a field name to clear.\n" +
			"Example: `clear jira default project`"
	}
	if len(fieldName) > maxJiraFieldNameLength {
		return fmt.Sprintf("Field name is too long (max %d characters).", maxJiraFieldNameLength)
	}

	cfg, err := b.settings.Resolve(ctx, teamID, channelID)
	if err != nil {
		return storageErrorMessage(err, "clear_jira_default")
	}
	if cfg == nil {
		cfg = settings.DefaultSettings()
	}
	if _, present := cfg.JiraDefaults[fieldName]; !present {
		return fmt.Sprintf("Jira default field *%s* is not set.", fieldName)
	}

	remaining := map[string]string{}
	for k, v := range cfg.JiraDefaults {
		if k != fieldName {
			remaining[k] = v
		}
	}
	if err := b.settings.UpdateField(ctx, teamID, channelID, settings.FieldJiraDefaults, remaining); err != nil {
		return storageErrorMessage(err, "clear_jira_default")
	}
	return fmt.Sprintf("Jira default field *%s* has been cleared.", fieldName)
}

// jiraClient builds an issue tracker client from project settings,
// returning a user-facing message when configuration is incomplete.
func (b *Bot) jiraClient(ctx context.Context, teamID, channelID string) (issueTracker, *settings.ProjectSettings, string) {
	cfg, err := b.settings.Resolve(ctx, teamID, channelID)
	if err != nil {
		return nil, nil, storageErrorMessage(err, "jira_client")
	}
	if cfg == nil {
		cfg = settings.DefaultSettings()
	}

	url := strings.TrimSpace(cfg.JiraURL)
	token := strings.TrimSpace(cfg.JiraToken)
	email := strings.TrimSpace(cfg.JiraEmail)

	var missing []string
	if url == "" {
		missing = append(missing, "Jira URL")
	}
	if token == "" {
		missing = append(missing, "Jira token")
	}
	if email == "" {
		missing = append(missing, "Jira email")
	}
	if len(missing) > 0 {
		return nil, nil, fmt.Sprintf(
			"Jira is not fully configured. Missing: %s.\n"+
				"Please set these using:\n"+
				"- `set jira url <url>`\n"+
				"- `set jira token <token>`\n"+
				"- `set jira email <email>`", strings.Join(missing, ", "))
	}
	return b.newTracker(url, email, token), cfg, ""
}

// TestJira checks connectivity and credentials against the configured
// Jira instance.
func (b *Bot) TestJira(ctx context.Context, teamID, channelID string) string {
	if msg := b.requireProject(ctx, teamID, channelID); msg != "" {
		return msg
	}
	client, _, msg := b.jiraClient(ctx, teamID, channelID)
	if msg != "" {
		return msg
	}

	user, err := client.Myself(ctx)
	if err != nil {
		logger.Error().Err(err).Str("team_id", teamID).Msg("jira connection test failed")
		var jiraErr *jira.Error
		if errors.As(err, &jiraErr) {
			switch jiraErr.StatusCode {
			case http.StatusUnauthorized:
				return "❌ Authentication failed. Please check your Jira email and token."
			case http.StatusForbidden:
				return "❌ Access forbidden. Please check your Jira permissions."
			default:
				return fmt.Sprintf("❌ Jira connection test failed: %s", jiraErr.Message)
			}
		}
		return fmt.Sprintf("❌ Jira connection test failed: %s", err)
	}
	return fmt.Sprintf("✅ Jira connection successful!\nConnected as: *%s*", user)
}

// GetBugs runs the project's JQL query and formats the matching issues.
func (b *Bot) GetBugs(ctx context.Context, teamID, channelID string) string {
	if msg := b.requireProject(ctx, teamID, channelID); msg != "" {
		return msg
	}
	client, cfg, msg := b.jiraClient(ctx, teamID, channelID)
	if msg != "" {
		return msg
	}

	jql := strings.TrimSpace(cfg.JiraBugQuery)
	if jql == "" {
		return "Jira bug query (JQL) is not set for this project.\n" +
			"Please set it using: `set jira query <JQL query>`\n" +
			"Example: `set jira query project = PROJ AND status != Done`"
	}

	issues, err := client.SearchIssues(ctx, jql, maxJiraIssues)
	if err != nil {
		logger.Error().Err(err).Str("team_id", teamID).Msg("jira search failed")
		var jiraErr *jira.Error
		if errors.As(err, &jiraErr) {
			switch jiraErr.StatusCode {
			case http.StatusBadRequest:
				return fmt.Sprintf(
					"❌ Invalid JQL query:\n```%s```\n"+
						"Error: %s\n"+
						"Please check your query syntax and try again.", jql, jiraErr.Message)
			case http.StatusUnauthorized:
				return "❌ Authentication failed. Please check your Jira email and token."
			case http.StatusForbidden:
				return "❌ Access forbidden. Please check your Jira permissions."
			default:
				return fmt.Sprintf("❌ Failed to fetch issues: %s", jiraErr.Message)
			}
		}
		return fmt.Sprintf("❌ Failed to fetch issues: %s", err)
	}

	if len(issues) == 0 {
		return fmt.Sprintf("No issues found matching the query:\n```%s```", jql)
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.JiraURL), "/")
	lines := []string{fmt.Sprintf("Found *%d* issue(s) (showing up to %d):\n", len(issues), maxJiraIssues)}
	for _, issue := range issues {
		lines = append(lines,
			fmt.Sprintf("• *%s*: %s", issue.Key, issue.Summary),
			fmt.Sprintf("  Type: %s | Status: %s", issue.IssueType, issue.Status),
			fmt.Sprintf("  <%s/browse/%s|View in Jira>", baseURL, issue.Key),
			"")
	}
	if len(issues) == maxJiraIssues {
		lines = append(lines, fmt.Sprintf("\n_Note: Showing first %d issues. There may be more._", maxJiraIssues))
	}
	return strings.Join(lines, "\n")
}
