package handlers

import (
	"context"
	"errors"
	"net/http"

	"clinic-backend/internal/middleware"
	"clinic-backend/internal/models"
	"clinic-backend/internal/services"
	"clinic-backend/pkg/utils"
)

type Authenticator interface {
	Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error)
	GetUser(ctx context.Context, id int) (*models.User, error)
}

type AuthHandler struct {
	Service Authenticator
}

func NewAuthHandler(s Authenticator) *AuthHandler {
	return &AuthHandler{Service: s}
}

// Login handles user authentication
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondError(w, err)
		return
	}

	authResp, err := h.Service.Login(r.Context(), &req)
	if errors.Is(err, services.ErrInvalidCredentials) {
		utils.RespondJSON(w, http.StatusUnauthorized, utils.ErrorResponse{Error: err.Error()})
		return
	}
	if err != nil {
		utils.RespondError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, authResp)
}

// Me returns the authenticated user
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	user, err := h.Service.GetUser(r.Context(), userID)
	if err != nil {
		utils.RespondError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, user)
}
