package bot

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/PKartavkin/slack-bot/internal/jira"
	"github.com/PKartavkin/slack-bot/internal/ratelimit"
	"github.com/PKartavkin/slack-bot/internal/settings"
	"github.com/PKartavkin/slack-bot/internal/store"
)

type stubGenerator struct {
	reply string
	err   error
}

func (s *stubGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return s.reply, s.err
}

type stubTracker struct {
	user      string
	userErr   error
	issues    []jira.Issue
	searchErr error
}

func (s *stubTracker) Myself(ctx context.Context) (string, error) { return s.user, s.userErr }
func (s *stubTracker) SearchIssues(ctx context.Context, jql string, max int) ([]jira.Issue, error) {
	return s.issues, s.searchErr
}
func (s *stubTracker) BaseURL() string { return "https://acme.atlassian.net" }

func newTestBot(t *testing.T) (*Bot, *store.MemoryStore) {
	t.Helper()
	mem := store.NewMemoryStore()
	svc := settings.NewService(mem)
	limiter := ratelimit.NewLimiter(mem, "openai_api", 100, 24*time.Hour)
	b := New(svc, limiter, &stubGenerator{reply: "Bug name: something"}, mem, 5*time.Second)
	return b, mem
}

func bindProject(t *testing.T, b *Bot, teamID, channelID, name string) {
	t.Helper()
	if err := b.settings.BindChannel(context.Background(), teamID, channelID, name); err != nil {
		t.Fatalf("BindChannel() error = %v", err)
	}
	// welcome blurb is tested separately, keep other replies clean
	b.settings.SetWelcomeShown(context.Background(), teamID, channelID)
}

func TestHandleMentionUseProject(t *testing.T) {
	b, _ := newTestBot(t)
	ctx := context.Background()

	reply := b.HandleMention(ctx, "T0TEAM", "C0CH", "<@U0BOT> use project Mobile app")
	if !strings.Contains(reply, "Channel is now using project configuration *Mobile app*.") {
		t.Fatalf("reply = %q", reply)
	}
}

func TestHandleMentionListProjects(t *testing.T) {
	b, _ := newTestBot(t)
	ctx := context.Background()
	bindProject(t, b, "T0TEAM", "C0CH", "alpha")

	reply := b.HandleMention(ctx, "T0TEAM", "C0CH", "<@U0BOT> list projects")
	if !strings.Contains(reply, "Available project configurations:") || !strings.Contains(reply, "- alpha") {
		t.Fatalf("reply = %q", reply)
	}
}

func TestHandleMentionUnknownCommand(t *testing.T) {
	b, _ := newTestBot(t)
	bindProject(t, b, "T0TEAM", "C0CH", "alpha")

	reply := b.HandleMention(context.Background(), "T0TEAM", "C0CH", "<@U0BOT> make me a sandwich")
	if !strings.Contains(reply, "I did not understand that command.") {
		t.Fatalf("reply = %q", reply)
	}
}

func TestHandleMentionHelp(t *testing.T) {
	b, _ := newTestBot(t)
	bindProject(t, b, "T0TEAM", "C0CH", "alpha")

	reply := b.HandleMention(context.Background(), "T0TEAM", "C0CH", "<@U0BOT> help")
	if !strings.Contains(reply, "*Available commands:*") {
		t.Fatalf("reply = %q", reply)
	}
}

func TestHandleMentionWelcomeShownOnce(t *testing.T) {
	b, _ := newTestBot(t)
	ctx := context.Background()

	first := b.HandleMention(ctx, "T0TEAM", "C0NEW", "<@U0BOT> help")
	if !strings.Contains(first, "👋") {
		t.Fatalf("first reply missing welcome: %q", first)
	}
	second := b.HandleMention(ctx, "T0TEAM", "C0NEW", "<@U0BOT> help")
	if strings.Contains(second, "👋") {
		t.Fatalf("welcome repeated: %q", second)
	}
}

func TestHandleMentionRecordsInvocations(t *testing.T) {
	b, mem := newTestBot(t)
	ctx := context.Background()

	b.HandleMention(ctx, "T0TEAM", "C0CH", "<@U0BOT> help")
	b.HandleMention(ctx, "T0TEAM", "C0CH", "<@U0BOT> status")

	org, err := mem.GetOrg(ctx, "T0TEAM")
	if err != nil {
		t.Fatalf("GetOrg() error = %v", err)
	}
	if org.Invocations != 2 {
		t.Fatalf("invocations = %d, want 2", org.Invocations)
	}
}

func TestCommandsRequireProject(t *testing.T) {
	b, _ := newTestBot(t)
	ctx := context.Background()

	commands := []string{
		"create bug report app crashes",
		"show bug template",
		"edit bug template new template",
		"show project",
		"update docs some docs",
		"enable docs",
		"disable docs",
		"set jira token sometoken123",
		"set jira url https://acme.atlassian.net",
		"set jira email user@example.com",
		"set jira query project = PROJ",
		"show jira query",
		"set jira defaults project=PROJ",
		"show jira defaults",
		"clear jira default project",
		"test jira",
		"get bugs",
	}
	for _, cmd := range commands {
		reply := b.HandleMention(ctx, "T0TEAM", "C0LOOSE", cmd)
		if !strings.Contains(reply, "No project is set for this channel") {
			t.Errorf("command %q bypassed the project gate: %q", cmd, reply)
		}
	}
}

func TestCreateBugReport(t *testing.T) {
	b, _ := newTestBot(t)
	ctx := context.Background()
	bindProject(t, b, "T0TEAM", "C0CH", "alpha")

	reply := b.HandleMention(ctx, "T0TEAM", "C0CH", "create bug report app crashes when tapping save")
	if reply != "Bug name: something" {
		t.Fatalf("reply = %q", reply)
	}
}

func TestCreateBugReportTooLong(t *testing.T) {
	b, _ := newTestBot(t)
	ctx := context.Background()
	bindProject(t, b, "T0TEAM", "C0CH", "alpha")

	long := "create bug report " + strings.Repeat("x", maxBugReportInputLength+1)
	reply := b.HandleMention(ctx, "T0TEAM", "C0CH", long)
	if !strings.Contains(reply, "too long for bug report generation") {
		t.Fatalf("reply = %q", reply)
	}
}

func TestCreateBugReportAIFailure(t *testing.T) {
	b, _ := newTestBot(t)
	b.ai = &stubGenerator{err: errors.New("boom")}
	ctx := context.Background()
	bindProject(t, b, "T0TEAM", "C0CH", "alpha")

	reply := b.CreateBugReport(ctx, "create bug report app crashes", "T0TEAM", "C0CH")
	if !strings.Contains(reply, "internal error talking to the AI service") {
		t.Fatalf("reply = %q", reply)
	}
}

func TestCreateBugReportRateLimited(t *testing.T) {
	b, mem := newTestBot(t)
	b.limiter = ratelimit.NewLimiter(mem, "openai_api", 1, 24*time.Hour)
	ctx := context.Background()
	bindProject(t, b, "T0TEAM", "C0CH", "alpha")

	first := b.CreateBugReport(ctx, "create bug report app crashes", "T0TEAM", "C0CH")
	if strings.Contains(first, "daily limit") {
		t.Fatalf("first request limited: %q", first)
	}
	second := b.CreateBugReport(ctx, "create bug report app crashes", "T0TEAM", "C0CH")
	if !strings.Contains(second, "daily limit of 1 AI requests") {
		t.Fatalf("second request not limited: %q", second)
	}
}

func TestEditAndShowBugTemplate(t *testing.T) {
	b, _ := newTestBot(t)
	ctx := context.Background()
	bindProject(t, b, "T0TEAM", "C0CH", "alpha")

	reply := b.HandleMention(ctx, "T0TEAM", "C0CH", "edit bug template Title:\nRepro:")
	if reply != "Bug report template updated" {
		t.Fatalf("edit reply = %q", reply)
	}

	shown := b.HandleMention(ctx, "T0TEAM", "C0CH", "show bug template")
	if shown != "Title:\nRepro:" {
		t.Fatalf("show reply = %q", shown)
	}
}

func TestDocsCommands(t *testing.T) {
	b, _ := newTestBot(t)
	ctx := context.Background()
	bindProject(t, b, "T0TEAM", "C0CH", "alpha")

	if reply := b.HandleMention(ctx, "T0TEAM", "C0CH", "show project"); !strings.Contains(reply, "Project documentation is empty") {
		t.Fatalf("show project on empty docs = %q", reply)
	}
	if reply := b.HandleMention(ctx, "T0TEAM", "C0CH", "update docs The app is a mobile banking client."); reply != "Project overview updated." {
		t.Fatalf("update docs reply = %q", reply)
	}
	if reply := b.HandleMention(ctx, "T0TEAM", "C0CH", "show project"); reply != "The app is a mobile banking client." {
		t.Fatalf("show project reply = %q", reply)
	}
	if reply := b.HandleMention(ctx, "T0TEAM", "C0CH", "enable docs"); reply != "Use documentation: true" {
		t.Fatalf("enable docs reply = %q", reply)
	}
	if reply := b.HandleMention(ctx, "T0TEAM", "C0CH", "disable docs"); reply != "Use documentation: false" {
		t.Fatalf("disable docs reply = %q", reply)
	}
}

func TestChannelStatus(t *testing.T) {
	b, _ := newTestBot(t)
	ctx := context.Background()
	bindProject(t, b, "T0TEAM", "C0CH", "alpha")

	reply := b.HandleMention(ctx, "T0TEAM", "C0CH", "status")
	for _, want := range []string{"*Project name:* alpha", "*Jira token:* not set", "*Jira defaults:* none"} {
		if !strings.Contains(reply, want) {
			t.Errorf("status missing %q:\n%s", want, reply)
		}
	}
}

func TestStatusOutsideChannel(t *testing.T) {
	b, _ := newTestBot(t)

	reply := b.ChannelStatus(context.Background(), "T0TEAM", "")
	if reply != "Channel status is only available when called from a channel." {
		t.Fatalf("reply = %q", reply)
	}
}
