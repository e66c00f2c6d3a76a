package bot

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/PKartavkin/slack-bot/internal/jira"
)

func configureJira(t *testing.T, b *Bot, teamID, channelID string) {
	t.Helper()
	ctx := context.Background()
	for _, cmd := range []string{
		"set jira url https://acme.atlassian.net",
		"set jira token abcdef123456",
		"set jira email user@example.com",
	} {
		reply := b.HandleMention(ctx, teamID, channelID, cmd)
		if !strings.Contains(reply, "has been updated") {
			t.Fatalf("command %q failed: %q", cmd, reply)
		}
	}
}

func TestSetJiraTokenValidation(t *testing.T) {
	b, _ := newTestBot(t)
	ctx := context.Background()
	bindProject(t, b, "T0TEAM", "C0CH", "alpha")

	if reply := b.SetJiraToken(ctx, "set jira token", "T0TEAM", "C0CH"); !strings.Contains(reply, "Please provide a Jira token") {
		t.Fatalf("empty token reply = %q", reply)
	}
	if reply := b.SetJiraToken(ctx, "set jira token short", "T0TEAM", "C0CH"); !strings.Contains(reply, "too short") {
		t.Fatalf("short token reply = %q", reply)
	}
	if reply := b.SetJiraToken(ctx, "set jira token "+strings.Repeat("t", 513), "T0TEAM", "C0CH"); !strings.Contains(reply, "unusually long") {
		t.Fatalf("long token reply = %q", reply)
	}
	if reply := b.SetJiraToken(ctx, "set jira token validtoken123", "T0TEAM", "C0CH"); reply != "Jira token has been updated." {
		t.Fatalf("valid token reply = %q", reply)
	}
}

func TestSetJiraURLValidation(t *testing.T) {
	b, _ := newTestBot(t)
	ctx := context.Background()
	bindProject(t, b, "T0TEAM", "C0CH", "alpha")

	if reply := b.SetJiraURL(ctx, "set jira url ftp://acme.example.com", "T0TEAM", "C0CH"); !strings.Contains(reply, "should start with http:// or https://") {
		t.Fatalf("bad scheme reply = %q", reply)
	}
	if reply := b.SetJiraURL(ctx, "set jira url <https://acme.atlassian.net|acme>", "T0TEAM", "C0CH"); reply != "Jira URL has been updated." {
		t.Fatalf("slack link reply = %q", reply)
	}

	cfg, err := b.settings.Resolve(ctx, "T0TEAM", "C0CH")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if cfg.JiraURL != "https://acme.atlassian.net" {
		t.Fatalf("stored url = %q, want unwrapped", cfg.JiraURL)
	}
}

func TestSetJiraEmailValidation(t *testing.T) {
	b, _ := newTestBot(t)
	ctx := context.Background()
	bindProject(t, b, "T0TEAM", "C0CH", "alpha")

	if reply := b.SetJiraEmail(ctx, "set jira email not-an-email", "T0TEAM", "C0CH"); !strings.Contains(reply, "valid email") {
		t.Fatalf("bad email reply = %q", reply)
	}
	if reply := b.SetJiraEmail(ctx, "set jira email user@example.com", "T0TEAM", "C0CH"); reply != "Jira email has been updated." {
		t.Fatalf("valid email reply = %q", reply)
	}
}

func TestJiraDefaultsLifecycle(t *testing.T) {
	b, _ := newTestBot(t)
	ctx := context.Background()
	bindProject(t, b, "T0TEAM", "C0CH", "alpha")

	reply := b.HandleMention(ctx, "T0TEAM", "C0CH", "set jira defaults project=PROJ-123 type=Bug")
	if !strings.Contains(reply, "Jira defaults updated:") {
		t.Fatalf("set defaults reply = %q", reply)
	}

	shown := b.HandleMention(ctx, "T0TEAM", "C0CH", "show jira defaults")
	for _, want := range []string{"*project*: PROJ-123", "*type*: Bug"} {
		if !strings.Contains(shown, want) {
			t.Errorf("defaults missing %q:\n%s", want, shown)
		}
	}

	cleared := b.HandleMention(ctx, "T0TEAM", "C0CH", "clear jira default type")
	if !strings.Contains(cleared, "*type* has been cleared") {
		t.Fatalf("clear reply = %q", cleared)
	}
	if reply := b.HandleMention(ctx, "T0TEAM", "C0CH", "clear jira default type"); !strings.Contains(reply, "is not set") {
		t.Fatalf("clear absent reply = %q", reply)
	}

	shown = b.HandleMention(ctx, "T0TEAM", "C0CH", "show jira defaults")
	if strings.Contains(shown, "*type*") {
		t.Fatalf("cleared field still shown:\n%s", shown)
	}
	if !strings.Contains(shown, "*project*: PROJ-123") {
		t.Fatalf("surviving field missing:\n%s", shown)
	}
}

func TestSetJiraDefaultsRejectsMalformedPairs(t *testing.T) {
	b, _ := newTestBot(t)
	ctx := context.Background()
	bindProject(t, b, "T0TEAM", "C0CH", "alpha")

	reply := b.SetJiraDefaults(ctx, "set jira defaults project PROJ", "T0TEAM", "C0CH")
	if !strings.Contains(reply, "Errors found:") {
		t.Fatalf("reply = %q", reply)
	}
}

func TestTestJiraNotConfigured(t *testing.T) {
	b, _ := newTestBot(t)
	bindProject(t, b, "T0TEAM", "C0CH", "alpha")

	reply := b.TestJira(context.Background(), "T0TEAM", "C0CH")
	if !strings.Contains(reply, "Jira is not fully configured. Missing: Jira URL, Jira token, Jira email.") {
		t.Fatalf("reply = %q", reply)
	}
}

func TestTestJiraSuccess(t *testing.T) {
	b, _ := newTestBot(t)
	bindProject(t, b, "T0TEAM", "C0CH", "alpha")
	configureJira(t, b, "T0TEAM", "C0CH")
	b.newTracker = func(baseURL, email, token string) issueTracker {
		return &stubTracker{user: "Test User"}
	}

	reply := b.TestJira(context.Background(), "T0TEAM", "C0CH")
	if !strings.Contains(reply, "✅ Jira connection successful!") || !strings.Contains(reply, "*Test User*") {
		t.Fatalf("reply = %q", reply)
	}
}

func TestTestJiraUnauthorized(t *testing.T) {
	b, _ := newTestBot(t)
	bindProject(t, b, "T0TEAM", "C0CH", "alpha")
	configureJira(t, b, "T0TEAM", "C0CH")
	b.newTracker = func(baseURL, email, token string) issueTracker {
		return &stubTracker{userErr: &jira.Error{StatusCode: http.StatusUnauthorized, Message: "bad credentials"}}
	}

	reply := b.TestJira(context.Background(), "T0TEAM", "C0CH")
	if !strings.Contains(reply, "Authentication failed") {
		t.Fatalf("reply = %q", reply)
	}
}

func TestGetBugsNoQuery(t *testing.T) {
	b, _ := newTestBot(t)
	bindProject(t, b, "T0TEAM", "C0CH", "alpha")
	configureJira(t, b, "T0TEAM", "C0CH")

	reply := b.GetBugs(context.Background(), "T0TEAM", "C0CH")
	if !strings.Contains(reply, "Jira bug query (JQL) is not set") {
		t.Fatalf("reply = %q", reply)
	}
}

func TestGetBugsFormatsIssues(t *testing.T) {
	b, _ := newTestBot(t)
	ctx := context.Background()
	bindProject(t, b, "T0TEAM", "C0CH", "alpha")
	configureJira(t, b, "T0TEAM", "C0CH")
	b.HandleMention(ctx, "T0TEAM", "C0CH", "set jira query project = PROJ AND status != Done")
	b.newTracker = func(baseURL, email, token string) issueTracker {
		return &stubTracker{issues: []jira.Issue{
			{Key: "PROJ-1", Summary: "Crash on login", Status: "To Do", IssueType: "Bug"},
		}}
	}

	reply := b.GetBugs(ctx, "T0TEAM", "C0CH")
	for _, want := range []string{
		"Found *1* issue(s)",
		"*PROJ-1*: Crash on login",
		"Type: Bug | Status: To Do",
		"<https://acme.atlassian.net/browse/PROJ-1|View in Jira>",
	} {
		if !strings.Contains(reply, want) {
			t.Errorf("reply missing %q:\n%s", want, reply)
		}
	}
}

func TestGetBugsBadJQL(t *testing.T) {
	b, _ := newTestBot(t)
	ctx := context.Background()
	bindProject(t, b, "T0TEAM", "C0CH", "alpha")
	configureJira(t, b, "T0TEAM", "C0CH")
	b.HandleMention(ctx, "T0TEAM", "C0CH", "set jira query bogus = 1")
	b.newTracker = func(baseURL, email, token string) issueTracker {
		return &stubTracker{searchErr: &jira.Error{StatusCode: http.StatusBadRequest, Message: "field does not exist"}}
	}

	reply := b.GetBugs(ctx, "T0TEAM", "C0CH")
	if !strings.Contains(reply, "❌ Invalid JQL query:") || !strings.Contains(reply, "field does not exist") {
		t.Fatalf("reply = %q", reply)
	}
}
