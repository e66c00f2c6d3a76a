package jira

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Error is a Jira API failure with the HTTP status attached, so callers
// can distinguish bad credentials from bad JQL.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("jira: status %d: %s", e.StatusCode, e.Message)
}

// Issue is the subset of an issue used in chat summaries.
type Issue struct {
	Key       string
	Summary   string
	Status    string
	IssueType string
}

// Client talks to a Jira Cloud instance over the REST v2 API using
// basic auth (account email + API token). Credentials come from project
// settings, so a fresh client is built per command.
type Client struct {
	baseURL string
	email   string
	token   string
	http    *http.Client
}

func NewClient(baseURL, email, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		email:   email,
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}
}

// BaseURL returns the instance URL without a trailing slash, for
// building browse links.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Myself returns the display name of the authenticated user. Used as a
// connection test.
func (c *Client) Myself(ctx context.Context) (string, error) {
	var out struct {
		DisplayName  string `json:"displayName"`
		EmailAddress string `json:"emailAddress"`
	}
	if err := c.get(ctx, "/rest/api/2/myself", nil, &out); err != nil {
		return "", err
	}
	if out.DisplayName != "" {
		return out.DisplayName, nil
	}
	return out.EmailAddress, nil
}

// SearchIssues runs a JQL query and returns up to max issues.
func (c *Client) SearchIssues(ctx context.Context, jql string, max int) ([]Issue, error) {
	params := url.Values{}
	params.Set("jql", jql)
	params.Set("maxResults", strconv.Itoa(max))
	params.Set("fields", "summary,status,issuetype")

	var out struct {
		Issues []struct {
			Key    string `json:"key"`
			Fields struct {
				Summary string `json:"summary"`
				Status  struct {
					Name string `json:"name"`
				} `json:"status"`
				IssueType struct {
					Name string `json:"name"`
				} `json:"issuetype"`
			} `json:"fields"`
		} `json:"issues"`
	}
	if err := c.get(ctx, "/rest/api/2/search", params, &out); err != nil {
		return nil, err
	}

	issues := make([]Issue, 0, len(out.Issues))
	for _, raw := range out.Issues {
		issues = append(issues, Issue{
			Key:       raw.Key,
			Summary:   raw.Fields.Summary,
			Status:    raw.Fields.Status.Name,
			IssueType: raw.Fields.IssueType.Name,
		})
	}
	return issues, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build jira request: %w", err)
	}
	req.SetBasicAuth(c.email, c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("jira request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &Error{
			StatusCode: resp.StatusCode,
			Message:    readErrorBody(resp.Body),
		}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode jira response: %w", err)
	}
	return nil
}

// readErrorBody extracts a human-readable message from a Jira error
// payload, falling back to the raw body.
func readErrorBody(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil || len(raw) == 0 {
		return "no error detail"
	}
	var payload struct {
		ErrorMessages []string `json:"errorMessages"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil && len(payload.ErrorMessages) > 0 {
		return strings.Join(payload.ErrorMessages, "; ")
	}
	return strings.TrimSpace(string(raw))
}
