package handlers

import (
	"context"
	"net/http"

	"clinic-backend/internal/models"
	"clinic-backend/pkg/utils"
)

type AuditReader interface {
	List(ctx context.Context, filter models.AuditLogFilter) ([]*models.AuditLog, error)
}

type AuditHandler struct {
	Service AuditReader
}

func NewAuditHandler(s AuditReader) *AuditHandler {
	return &AuditHandler{Service: s}
}

// List returns audit entries newest first, filtered by ?entity_kind=,
// ?entity_id=, ?actor= and ?limit=.
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := models.AuditLogFilter{EntityKind: r.URL.Query().Get("entity_kind")}

	var err error
	if filter.EntityID, err = utils.QueryInt(r, "entity_id"); err != nil {
		utils.RespondError(w, err)
		return
	}
	if filter.ActorUserID, err = utils.QueryInt(r, "actor"); err != nil {
		utils.RespondError(w, err)
		return
	}
	limit, err := utils.QueryInt(r, "limit")
	if err != nil {
		utils.RespondError(w, err)
		return
	}
	if limit != nil {
		filter.Limit = *limit
	}

	logs, err := h.Service.List(r.Context(), filter)
	if err != nil {
		utils.RespondError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, logs)
}
