package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/victorivanov/chatsync/internal/database"
	"github.com/victorivanov/chatsync/internal/models"
)

// MessageHandler exposes the read side of a channel's message history.
// Writes stay out of scope here; reconciliation only ever counts rows.
type MessageHandler struct {
	messages database.MessageRepository
	channels database.ChannelRepository
}

func NewMessageHandler(messages database.MessageRepository, channels database.ChannelRepository) *MessageHandler {
	return &MessageHandler{messages: messages, channels: channels}
}

// GetMessages handles GET /api/v1/channels/:id/messages. Trashed
// messages never appear; trashed channels hide their history entirely.
func (h *MessageHandler) GetMessages(c echo.Context) error {
	channelID, err := parseChannelID(c)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_ID", "channel id must be a number")
	}

	ctx := c.Request().Context()
	ch, err := h.channels.GetByID(ctx, channelID)
	if err != nil {
		return errorJSON(c, http.StatusInternalServerError, "INTERNAL", "internal server error")
	}
	if ch == nil || ch.DeletedAt != nil {
		return errorJSON(c, http.StatusNotFound, "UNKNOWN_CHANNEL", "channel not found")
	}

	limit := 50
	if l := c.QueryParam("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed < 1 || parsed > 100 {
			return errorJSON(c, http.StatusBadRequest, "INVALID_LIMIT", "limit must be 1-100")
		}
		limit = parsed
	}

	messages, err := h.messages.GetByChannelID(ctx, channelID, limit)
	if err != nil {
		return errorJSON(c, http.StatusInternalServerError, "INTERNAL", "internal server error")
	}
	if messages == nil {
		messages = []models.Message{}
	}
	return successJSON(c, http.StatusOK, messages)
}
