package handlers

import (
	"context"
	"net/http"

	"clinic-backend/internal/middleware"
	"clinic-backend/internal/models"
	"clinic-backend/pkg/utils"
)

type Inventory interface {
	List(ctx context.Context) ([]*models.Product, error)
	ListLowStock(ctx context.Context) ([]*models.Product, error)
	Restock(ctx context.Context, actor *int, productID int, req *models.RestockRequest) (*models.StockMovement, []string, error)
	ListMovements(ctx context.Context, productID, limit int) ([]*models.StockMovement, error)
}

type ProductHandler struct {
	Service Inventory
}

func NewProductHandler(s Inventory) *ProductHandler {
	return &ProductHandler{Service: s}
}

type stockMovementResponse struct {
	Movement *models.StockMovement `json:"movement"`
	Warnings []string              `json:"warnings,omitempty"`
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.Service.List(r.Context())
	if err != nil {
		utils.RespondError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, products)
}

func (h *ProductHandler) LowStock(w http.ResponseWriter, r *http.Request) {
	products, err := h.Service.ListLowStock(r.Context())
	if err != nil {
		utils.RespondError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, products)
}

// Restock adds units to a product
func (h *ProductHandler) Restock(w http.ResponseWriter, r *http.Request) {
	id, err := utils.PathID(r, "id")
	if err != nil {
		utils.RespondError(w, err)
		return
	}

	var req models.RestockRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondError(w, err)
		return
	}

	movement, warnings, err := h.Service.Restock(r.Context(), middleware.ActorFromContext(r.Context()), id, &req)
	if err != nil {
		utils.RespondError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusCreated, stockMovementResponse{Movement: movement, Warnings: warnings})
}

func (h *ProductHandler) Movements(w http.ResponseWriter, r *http.Request) {
	id, err := utils.PathID(r, "id")
	if err != nil {
		utils.RespondError(w, err)
		return
	}
	limit, err := utils.QueryInt(r, "limit")
	if err != nil {
		utils.RespondError(w, err)
		return
	}

	n := 0
	if limit != nil {
		n = *limit
	}
	movements, err := h.Service.ListMovements(r.Context(), id, n)
	if err != nil {
		utils.RespondError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, movements)
}
