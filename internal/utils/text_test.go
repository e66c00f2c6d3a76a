package utils

import "testing"

func TestContains(t *testing.T) {
	if !Contains("please create bug report now", "create bug report") {
		t.Fatal("keyword not matched")
	}
	if Contains("hello there", "bug report", "help") {
		t.Fatal("matched absent keywords")
	}
}

func TestStripCommand(t *testing.T) {
	tests := []struct {
		text    string
		keyword string
		want    string
	}{
		{"use project Mobile app", "use project", "Mobile app"},
		{"USE PROJECT backend", "use project", "backend"},
		{"prefix edit bug template suffix", "edit bug template", "prefix suffix"},
		{"no command here", "use project", "no command here"},
		{"set jira token   tok123  ", "set jira token", "tok123"},
	}
	for _, tt := range tests {
		if got := StripCommand(tt.text, tt.keyword); got != tt.want {
			t.Errorf("StripCommand(%q, %q) = %q, want %q", tt.text, tt.keyword, got, tt.want)
		}
	}
}

func TestStripMentions(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"<@U123ABC> help", "help"},
		{"hey <@U123ABC> use project alpha", "hey  use project alpha"},
		{"no mentions", "no mentions"},
	}
	for _, tt := range tests {
		if got := StripMentions(tt.text); got != tt.want {
			t.Errorf("StripMentions(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func TestCleanURL(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain", "https://acme.atlassian.net", "https://acme.atlassian.net"},
		{"slack link", "<https://acme.atlassian.net>", "https://acme.atlassian.net"},
		{"slack link with label", "<https://acme.atlassian.net|acme>", "https://acme.atlassian.net"},
		{"zero width", "https://acme​.atlassian.net", "https://acme.atlassian.net"},
		{"nbsp and spaces", " https://acme.atlassian.net ", "https://acme.atlassian.net"},
		{"fullwidth colon normalized", "https：//acme.atlassian.net", "https://acme.atlassian.net"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanURL(tt.raw); got != tt.want {
				t.Fatalf("CleanURL(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}
