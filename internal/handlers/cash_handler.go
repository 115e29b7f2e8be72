package handlers

import (
	"context"
	"net/http"

	"clinic-backend/internal/middleware"
	"clinic-backend/internal/models"
	"clinic-backend/pkg/utils"
)

type CashLedger interface {
	RecordManual(ctx context.Context, actor *int, req *models.CreateCashMovementRequest) (*models.CashMovement, []string, error)
	List(ctx context.Context, from, to string) ([]*models.CashMovement, error)
	DailySummary(ctx context.Context, date string) (*models.CashSummary, error)
}

type CashHandler struct {
	Service CashLedger
}

func NewCashHandler(s CashLedger) *CashHandler {
	return &CashHandler{Service: s}
}

type cashMovementResponse struct {
	Movement *models.CashMovement `json:"movement"`
	Warnings []string             `json:"warnings,omitempty"`
}

// Create records a desk movement not tied to an invoice
func (h *CashHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateCashMovementRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondError(w, err)
		return
	}

	movement, warnings, err := h.Service.RecordManual(r.Context(), middleware.ActorFromContext(r.Context()), &req)
	if err != nil {
		utils.RespondError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusCreated, cashMovementResponse{Movement: movement, Warnings: warnings})
}

func (h *CashHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	movements, err := h.Service.List(r.Context(), q.Get("from"), q.Get("to"))
	if err != nil {
		utils.RespondError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, movements)
}

// Summary returns the totals of ?date= (default today)
func (h *CashHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Service.DailySummary(r.Context(), r.URL.Query().Get("date"))
	if err != nil {
		utils.RespondError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, summary)
}
