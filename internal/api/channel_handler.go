package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/victorivanov/chatsync/internal/database"
	"github.com/victorivanov/chatsync/internal/models"
	"github.com/victorivanov/chatsync/internal/snowflake"
)

// ChannelHandler exposes channel management operations. Counter writes
// stay with the reconciliation engine; this surface never touches them.
type ChannelHandler struct {
	channels  database.ChannelRepository
	snowflake *snowflake.Generator
}

func NewChannelHandler(channels database.ChannelRepository, sf *snowflake.Generator) *ChannelHandler {
	return &ChannelHandler{channels: channels, snowflake: sf}
}

// channelResponse is a channel plus its derived canonical path.
type channelResponse struct {
	models.Channel
	RelativeURL string `json:"relative_url"`
}

func toChannelResponse(ch *models.Channel) channelResponse {
	return channelResponse{Channel: *ch, RelativeURL: ch.RelativeURL()}
}

func parseChannelID(c echo.Context) (int64, error) {
	return strconv.ParseInt(c.Param("id"), 10, 64)
}

// GetChannel handles GET /api/v1/channels/:id.
func (h *ChannelHandler) GetChannel(c echo.Context) error {
	id, err := parseChannelID(c)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_ID", "channel id must be a number")
	}

	ch, err := h.channels.GetByID(c.Request().Context(), id)
	if err != nil {
		return errorJSON(c, http.StatusInternalServerError, "INTERNAL", "internal server error")
	}
	if ch == nil || ch.DeletedAt != nil {
		return errorJSON(c, http.StatusNotFound, "UNKNOWN_CHANNEL", "channel not found")
	}
	return successJSON(c, http.StatusOK, toChannelResponse(ch))
}

type createChannelRequest struct {
	Name string  `json:"name"`
	Slug *string `json:"slug"`
}

// CreateChannel handles POST /api/v1/channels.
func (h *ChannelHandler) CreateChannel(c echo.Context) error {
	var req createChannelRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_BODY", "malformed request body")
	}
	if len(req.Name) < 1 || len(req.Name) > 100 {
		return errorJSON(c, http.StatusBadRequest, "INVALID_NAME", "channel name must be 1-100 characters")
	}

	ch := &models.Channel{
		ID:                       h.snowflake.Generate(),
		Name:                     req.Name,
		Slug:                     req.Slug,
		Status:                   models.ChannelStatusOpen,
		AllowChannelWideMentions: true,
	}
	if err := h.channels.Create(c.Request().Context(), ch); err != nil {
		return errorJSON(c, http.StatusInternalServerError, "INTERNAL", "internal server error")
	}
	return successJSON(c, http.StatusCreated, toChannelResponse(ch))
}

// updateChannelRequest distinguishes absent fields from explicit nulls:
// allow_channel_wide_mentions must reject null with a constraint error
// rather than silently skipping it.
type updateChannelRequest struct {
	Status                   *string         `json:"status"`
	Slug                     *string         `json:"slug"`
	AllowChannelWideMentions json.RawMessage `json:"allow_channel_wide_mentions"`
}

func parseStatus(s string) (models.ChannelStatus, bool) {
	switch s {
	case "open":
		return models.ChannelStatusOpen, true
	case "read_only":
		return models.ChannelStatusReadOnly, true
	case "archived":
		return models.ChannelStatusArchived, true
	default:
		return 0, false
	}
}

// UpdateChannel handles PATCH /api/v1/channels/:id.
func (h *ChannelHandler) UpdateChannel(c echo.Context) error {
	id, err := parseChannelID(c)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_ID", "channel id must be a number")
	}

	ctx := c.Request().Context()
	ch, err := h.channels.GetByID(ctx, id)
	if err != nil {
		return errorJSON(c, http.StatusInternalServerError, "INTERNAL", "internal server error")
	}
	if ch == nil || ch.DeletedAt != nil {
		return errorJSON(c, http.StatusNotFound, "UNKNOWN_CHANNEL", "channel not found")
	}

	var req updateChannelRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_BODY", "malformed request body")
	}

	if req.Status != nil {
		status, ok := parseStatus(*req.Status)
		if !ok {
			return errorJSON(c, http.StatusBadRequest, "INVALID_STATUS", "status must be open, read_only, or archived")
		}
		if err := h.channels.SetStatus(ctx, id, status); err != nil {
			return errorJSON(c, http.StatusInternalServerError, "INTERNAL", "internal server error")
		}
	}

	if req.Slug != nil {
		slug := req.Slug
		if *slug == "" {
			slug = nil
		}
		if err := h.channels.SetSlug(ctx, id, slug); err != nil {
			return errorJSON(c, http.StatusInternalServerError, "INTERNAL", "internal server error")
		}
	}

	if len(req.AllowChannelWideMentions) > 0 {
		var allow *bool
		// An explicit null reaches the repository as nil and fails the
		// not-null constraint; absent fields never get this far.
		if string(req.AllowChannelWideMentions) != "null" {
			var v bool
			if err := json.Unmarshal(req.AllowChannelWideMentions, &v); err != nil {
				return errorJSON(c, http.StatusBadRequest, "INVALID_BODY", "allow_channel_wide_mentions must be a boolean or null")
			}
			allow = &v
		}
		if err := h.channels.SetAllowChannelWideMentions(ctx, id, allow); err != nil {
			if errors.Is(err, database.ErrNotNullViolation) {
				return errorJSON(c, http.StatusUnprocessableEntity, "NOT_NULL_VIOLATION", "allow_channel_wide_mentions cannot be null")
			}
			return errorJSON(c, http.StatusInternalServerError, "INTERNAL", "internal server error")
		}
	}

	updated, err := h.channels.GetByID(ctx, id)
	if err != nil || updated == nil {
		return errorJSON(c, http.StatusInternalServerError, "INTERNAL", "internal server error")
	}
	return successJSON(c, http.StatusOK, toChannelResponse(updated))
}

// DeleteChannel handles DELETE /api/v1/channels/:id by soft-deleting.
// The channel's counters freeze at their current values.
func (h *ChannelHandler) DeleteChannel(c echo.Context) error {
	id, err := parseChannelID(c)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_ID", "channel id must be a number")
	}

	ctx := c.Request().Context()
	ch, err := h.channels.GetByID(ctx, id)
	if err != nil {
		return errorJSON(c, http.StatusInternalServerError, "INTERNAL", "internal server error")
	}
	if ch == nil || ch.DeletedAt != nil {
		return errorJSON(c, http.StatusNotFound, "UNKNOWN_CHANNEL", "channel not found")
	}

	if err := h.channels.Trash(ctx, id); err != nil {
		return errorJSON(c, http.StatusInternalServerError, "INTERNAL", "internal server error")
	}
	return c.NoContent(http.StatusNoContent)
}
