package api

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/victorivanov/chatsync/internal/models"
)

// Reconciler runs one counter reconciliation pass. The concrete
// implementation is consistency.Engine.
type Reconciler interface {
	EnsureConsistency(ctx context.Context) ([]models.ChannelDelta, error)
}

// ConsistencyHandler triggers reconciliation on demand, in addition to
// whatever schedule the server runs.
type ConsistencyHandler struct {
	reconciler Reconciler
}

func NewConsistencyHandler(reconciler Reconciler) *ConsistencyHandler {
	return &ConsistencyHandler{reconciler: reconciler}
}

type consistencyResult struct {
	Changed int                   `json:"changed"`
	Deltas  []models.ChannelDelta `json:"deltas"`
}

// RunConsistency handles POST /api/v1/consistency.
func (h *ConsistencyHandler) RunConsistency(c echo.Context) error {
	deltas, err := h.reconciler.EnsureConsistency(c.Request().Context())
	if err != nil {
		return errorJSON(c, http.StatusInternalServerError, "RECONCILE_FAILED", "consistency pass failed")
	}
	if deltas == nil {
		deltas = []models.ChannelDelta{}
	}
	return successJSON(c, http.StatusOK, consistencyResult{Changed: len(deltas), Deltas: deltas})
}
