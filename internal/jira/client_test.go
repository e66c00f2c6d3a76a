package jira

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestMyself(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/api/2/myself" {
			t.Errorf("path = %q", r.URL.Path)
		}
		auth := r.Header.Get("Authorization")
		want := "Basic " + base64.StdEncoding.EncodeToString([]byte("user@example.com:tok123"))
		if auth != want {
			t.Errorf("auth header = %q, want %q", auth, want)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"displayName":"Test User","emailAddress":"user@example.com"}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, "user@example.com", "tok123", 5*time.Second)
	name, err := c.Myself(context.Background())
	if err != nil {
		t.Fatalf("Myself() error = %v", err)
	}
	if name != "Test User" {
		t.Fatalf("Myself() = %q, want %q", name, "Test User")
	}
}

func TestMyselfUnauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"errorMessages":["Basic auth failed"]}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, "user@example.com", "bad", 5*time.Second)
	_, err := c.Myself(context.Background())

	var jiraErr *Error
	if !errors.As(err, &jiraErr) {
		t.Fatalf("error = %v, want *jira.Error", err)
	}
	if jiraErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("StatusCode = %d, want 401", jiraErr.StatusCode)
	}
	if jiraErr.Message != "Basic auth failed" {
		t.Fatalf("Message = %q", jiraErr.Message)
	}
}

func TestSearchIssues(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/api/2/search" {
			t.Errorf("path = %q", r.URL.Path)
		}
		q := r.URL.Query()
		if got := q.Get("jql"); got != `project = PROJ AND status != Done` {
			t.Errorf("jql = %q", got)
		}
		if got := q.Get("maxResults"); got != "10" {
			t.Errorf("maxResults = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"issues": [
				{"key": "PROJ-1", "fields": {"summary": "Crash on login", "status": {"name": "To Do"}, "issuetype": {"name": "Bug"}}},
				{"key": "PROJ-2", "fields": {"summary": "Slow search", "status": {"name": "In Progress"}, "issuetype": {"name": "Bug"}}}
			]
		}`))
	}))
	defer server.Close()

	c := NewClient(server.URL+"/", "user@example.com", "tok123", 5*time.Second)
	issues, err := c.SearchIssues(context.Background(), `project = PROJ AND status != Done`, 10)
	if err != nil {
		t.Fatalf("SearchIssues() error = %v", err)
	}
	if len(issues) != 2 {
		t.Fatalf("len(issues) = %d, want 2", len(issues))
	}
	want := Issue{Key: "PROJ-1", Summary: "Crash on login", Status: "To Do", IssueType: "Bug"}
	if issues[0] != want {
		t.Fatalf("issues[0] = %+v, want %+v", issues[0], want)
	}
}

func TestSearchIssuesBadJQL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"errorMessages":["Field 'bogus' does not exist"]}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, "user@example.com", "tok123", 5*time.Second)
	_, err := c.SearchIssues(context.Background(), "bogus = 1", 10)

	var jiraErr *Error
	if !errors.As(err, &jiraErr) {
		t.Fatalf("error = %v, want *jira.Error", err)
	}
	if jiraErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("StatusCode = %d, want 400", jiraErr.StatusCode)
	}
}

func TestBaseURLTrimsSlash(t *testing.T) {
	c := NewClient("https://acme.atlassian.net/", "e", "t", 0)
	if c.BaseURL() != "https://acme.atlassian.net" {
		t.Fatalf("BaseURL() = %q", c.BaseURL())
	}
}
