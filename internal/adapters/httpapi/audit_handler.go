package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/atvirokodosprendimai/crmapi/internal/core/usecase"
)

type auditLogResponse struct {
	ID         int64                 `json:"id"`
	EntityType string                `json:"entityType"`
	EntityID   string                `json:"entityId"`
	Action     string                `json:"action"`
	Field      string                `json:"field,omitempty"`
	OldValue   json.RawMessage       `json:"oldValue,omitempty"`
	NewValue   json.RawMessage       `json:"newValue,omitempty"`
	Changes    []fieldChangeResponse `json:"changes,omitempty"`
	Actor      *actorResponse        `json:"actor,omitempty"`
	Display    entryDisplayResponse  `json:"display"`
	CreatedAt  string                `json:"createdAt"`
}

type fieldChangeResponse struct {
	Field    string          `json:"field"`
	OldValue json.RawMessage `json:"oldValue,omitempty"`
	NewValue json.RawMessage `json:"newValue,omitempty"`
}

type entryDisplayResponse struct {
	FieldLabel string                  `json:"fieldLabel,omitempty"`
	OldValue   string                  `json:"oldValue,omitempty"`
	NewValue   string                  `json:"newValue,omitempty"`
	Changes    []changeDisplayResponse `json:"changes,omitempty"`
}

type changeDisplayResponse struct {
	FieldLabel string `json:"fieldLabel"`
	OldValue   string `json:"oldValue"`
	NewValue   string `json:"newValue"`
}

// auditLogs serves GET /audit-logs?entityType=<kind>&entityId=<id>. Both
// parameters are required; the check happens before any store access.
func (h *Handler) auditLogs(w http.ResponseWriter, r *http.Request) {
	entityType := r.URL.Query().Get("entityType")
	entityID := r.URL.Query().Get("entityId")
	if entityType == "" || entityID == "" {
		writeError(w, http.StatusBadRequest, "entityType and entityId query parameters are required")
		return
	}

	entries, err := h.history.Query(r.Context(), entityType, entityID)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	result := make([]auditLogResponse, 0, len(entries))
	for _, entry := range entries {
		result = append(result, toAuditLogResponse(entry))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": result})
}

func toAuditLogResponse(entry usecase.HistoryEntry) auditLogResponse {
	rec := entry.Record
	resp := auditLogResponse{
		ID:         rec.ID,
		EntityType: rec.EntityKind,
		EntityID:   rec.EntityID,
		Action:     string(rec.Action),
		Field:      rec.Field,
		OldValue:   rec.OldValue,
		NewValue:   rec.NewValue,
		CreatedAt:  rec.CreatedAt.UTC().Format(timeFormat),
		Display: entryDisplayResponse{
			FieldLabel: entry.Display.FieldLabel,
			OldValue:   entry.Display.OldValue,
			NewValue:   entry.Display.NewValue,
		},
	}
	for _, c := range rec.Changes {
		resp.Changes = append(resp.Changes, fieldChangeResponse{
			Field:    c.Field,
			OldValue: c.OldValue,
			NewValue: c.NewValue,
		})
	}
	for _, c := range entry.Display.Changes {
		resp.Display.Changes = append(resp.Display.Changes, changeDisplayResponse{
			FieldLabel: c.FieldLabel,
			OldValue:   c.OldValue,
			NewValue:   c.NewValue,
		})
	}
	if entry.Actor != nil {
		actor := toActorResponse(*entry.Actor)
		resp.Actor = &actor
	}
	return resp
}
