package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/PKartavkin/slack-bot/internal/bot"
	"github.com/PKartavkin/slack-bot/internal/slack"
	"github.com/PKartavkin/slack-bot/pkg/logger"
)

// eventEnvelope is the outer payload of the Slack events API.
type eventEnvelope struct {
	Type      string `json:"type"`
	Challenge string `json:"challenge"`
	TeamID    string `json:"team_id"`
	EventID   string `json:"event_id"`
	Event     struct {
		Type    string `json:"type"`
		User    string `json:"user"`
		Text    string `json:"text"`
		Channel string `json:"channel"`
	} `json:"event"`
}

// SlackHandler receives events API callbacks. Verification happens on
// the raw body; reply generation is handed to the task queue so the
// endpoint answers inside Slack's three second deadline.
type SlackHandler struct {
	signingSecret string
	queue         bot.TaskQueue
}

func NewSlackHandler(signingSecret string, queue bot.TaskQueue) *SlackHandler {
	return &SlackHandler{
		signingSecret: signingSecret,
		queue:         queue,
	}
}

// Events handles POST /slack/events.
func (h *SlackHandler) Events(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.String(http.StatusBadRequest, "unable to read request")
		return
	}

	if err := slack.VerifySignature(
		h.signingSecret,
		c.GetHeader("X-Slack-Request-Timestamp"),
		c.GetHeader("X-Slack-Signature"),
		body,
	); err != nil {
		logger.Warn().Err(err).Str("ip", c.ClientIP()).Msg("rejected slack request")
		c.String(http.StatusUnauthorized, "invalid signature")
		return
	}

	var envelope eventEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		c.String(http.StatusBadRequest, "bad event format")
		return
	}

	if envelope.Type == "url_verification" {
		c.String(http.StatusOK, envelope.Challenge)
		return
	}

	// Slack redelivers events it considers unacknowledged. The first
	// delivery already queued the work, so retries are acked and dropped.
	if retry := c.GetHeader("X-Slack-Retry-Num"); retry != "" {
		logger.Debug().
			Str("event_id", envelope.EventID).
			Str("retry", retry).
			Msg("dropping slack retry delivery")
		c.Status(http.StatusOK)
		return
	}

	if envelope.Event.Type == "app_mention" {
		eventID := envelope.EventID
		if eventID == "" {
			eventID = uuid.NewString()
		}
		task := &bot.MentionTask{
			TeamID:    envelope.TeamID,
			ChannelID: envelope.Event.Channel,
			UserID:    envelope.Event.User,
			Text:      envelope.Event.Text,
			EventID:   eventID,
		}
		if err := h.queue.Enqueue(task); err != nil {
			logger.Error().Err(err).Str("event_id", eventID).Msg("failed to enqueue mention")
		}
	}

	c.Status(http.StatusOK)
}
