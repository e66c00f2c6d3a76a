package handlers

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/PKartavkin/slack-bot/internal/store"
	"github.com/PKartavkin/slack-bot/pkg/response"
)

// OrgStats is the admin view of one workspace.
type OrgStats struct {
	ClientID            string            `json:"client_id"`
	DateJoined          string            `json:"date_joined"`
	NumChannels         int               `json:"num_channels"`
	NumProjects         int               `json:"num_projects"`
	NumBotInvocations   int64             `json:"num_bot_invocations"`
	ProjectDescriptions map[string]string `json:"project_descriptions"`
}

// AdminHandler serves read-only workspace statistics.
type AdminHandler struct {
	store store.OrgStore
}

func NewAdminHandler(st store.OrgStore) *AdminHandler {
	return &AdminHandler{store: st}
}

// ListOrgs handles GET /api/admin/orgs.
func (h *AdminHandler) ListOrgs(c *gin.Context) {
	orgs, err := h.store.ListOrgs(c.Request.Context())
	if err != nil {
		response.ServerError(c, "failed to list organizations")
		return
	}

	stats := make([]OrgStats, 0, len(orgs))
	for _, org := range orgs {
		stats = append(stats, orgStats(org))
	}
	response.Success(c, gin.H{"orgs": stats, "total": len(stats)})
}

func orgStats(org *store.Org) OrgStats {
	descriptions := map[string]string{}
	for name, doc := range org.Projects {
		if text, ok := doc["project_context"].(string); ok {
			if text = strings.TrimSpace(text); text != "" {
				descriptions[name] = text
			}
		}
	}
	return OrgStats{
		ClientID:            org.TeamID,
		DateJoined:          formatJoined(org.JoinedDate),
		NumChannels:         len(org.Bindings),
		NumProjects:         len(org.Projects),
		NumBotInvocations:   org.Invocations,
		ProjectDescriptions: descriptions,
	}
}

// formatJoined reduces a stored timestamp to its date part.
func formatJoined(joined string) string {
	if joined == "" {
		return "N/A"
	}
	trimmed := strings.TrimSuffix(joined, "Z")
	for _, layout := range []string{"2006-01-02T15:04:05.999999999", "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return "N/A"
}
