package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/victorivanov/chatsync/internal/models"
)

func TestRunConsistency_ReportsDeltas(t *testing.T) {
	rec42 := models.ChannelDelta{ChannelID: 42, MessagesCount: 5, UserCount: 2}
	reconciler := &mockReconciler{deltas: []models.ChannelDelta{rec42}}
	h := NewConsistencyHandler(reconciler)

	c, rec := newTestContext(http.MethodPost, "/api/v1/consistency", nil)
	if err := h.RunConsistency(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	if reconciler.calls != 1 {
		t.Errorf("reconciler called %d times, want 1", reconciler.calls)
	}

	var resp struct {
		Data consistencyResult `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Data.Changed != 1 {
		t.Errorf("changed = %d, want 1", resp.Data.Changed)
	}
	if len(resp.Data.Deltas) != 1 || resp.Data.Deltas[0].ChannelID != 42 {
		t.Errorf("deltas = %+v, want single delta for channel 42", resp.Data.Deltas)
	}
}

func TestRunConsistency_EmptyDeltasIsArray(t *testing.T) {
	h := NewConsistencyHandler(&mockReconciler{})

	c, rec := newTestContext(http.MethodPost, "/api/v1/consistency", nil)
	if err := h.RunConsistency(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Clients iterate deltas directly; null would break them.
	var resp struct {
		Data struct {
			Deltas json.RawMessage `json:"deltas"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if string(resp.Data.Deltas) == "null" {
		t.Error("deltas serialized as null, want []")
	}
}

func TestRunConsistency_EngineFailure(t *testing.T) {
	h := NewConsistencyHandler(&mockReconciler{err: errBoom})

	c, rec := newTestContext(http.MethodPost, "/api/v1/consistency", nil)
	if err := h.RunConsistency(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
}
