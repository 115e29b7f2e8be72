package utils

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"clinic-backend/internal/apperr"

	"github.com/gorilla/mux"
)

// PersistenceMessage is shown to staff for any server-side storage failure
const PersistenceMessage = "falha ao gravar, tente novamente"

// ErrorResponse is the JSON body of every failed API call
type ErrorResponse struct {
	Error     string `json:"error"`
	Field     string `json:"field,omitempty"`
	ProductID int    `json:"product_id,omitempty"`
}

func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// RespondError writes err with the status code of its taxonomy class.
// Untyped errors are treated as server failures and never echoed.
func RespondError(w http.ResponseWriter, err error) {
	var (
		validation *apperr.ValidationError
		stock      *apperr.InsufficientStockError
	)

	switch {
	case errors.As(err, &validation):
		RespondJSON(w, http.StatusBadRequest, ErrorResponse{Error: validation.Message, Field: validation.Field})
	case errors.As(err, &stock):
		RespondJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Error: stock.Error(), ProductID: stock.ProductID})
	case errors.Is(err, apperr.ErrConflict):
		RespondJSON(w, http.StatusConflict, ErrorResponse{Error: err.Error()})
	case errors.Is(err, apperr.ErrNotFound):
		RespondJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error()})
	default:
		RespondJSON(w, http.StatusInternalServerError, ErrorResponse{Error: PersistenceMessage})
	}
}

// DecodeJSON reads the request body into dst
func DecodeJSON(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.Validation("", "invalid request body")
	}
	return nil
}

// PathID parses a positive integer route variable
func PathID(r *http.Request, name string) (int, error) {
	id, err := strconv.Atoi(mux.Vars(r)[name])
	if err != nil || id <= 0 {
		return 0, apperr.Validation(name, "invalid id")
	}
	return id, nil
}

// QueryInt parses an optional integer query parameter
func QueryInt(r *http.Request, name string) (*int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, apperr.Validation(name, "must be an integer")
	}
	return &v, nil
}
