package utils

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"clinic-backend/internal/apperr"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		body   ErrorResponse
	}{
		{
			name:   "validation",
			err:    apperr.Validation("end_time", "must be after start_time"),
			status: http.StatusBadRequest,
			body:   ErrorResponse{Error: "must be after start_time", Field: "end_time"},
		},
		{
			name:   "conflict",
			err:    &apperr.ConflictError{},
			status: http.StatusConflict,
			body:   ErrorResponse{Error: (&apperr.ConflictError{}).Error()},
		},
		{
			name:   "insufficient stock",
			err:    &apperr.InsufficientStockError{ProductID: 7, Requested: 3},
			status: http.StatusUnprocessableEntity,
			body:   ErrorResponse{Error: "insufficient stock for product 7 (requested 3)", ProductID: 7},
		},
		{
			name:   "not found",
			err:    apperr.NotFound("invoice", 4),
			status: http.StatusNotFound,
			body:   ErrorResponse{Error: "invoice 4 not found"},
		},
		{
			name:   "persistence hides detail",
			err:    apperr.Persistence("post invoice", errors.New("connection refused")),
			status: http.StatusInternalServerError,
			body:   ErrorResponse{Error: PersistenceMessage},
		},
		{
			name:   "untyped",
			err:    errors.New("boom"),
			status: http.StatusInternalServerError,
			body:   ErrorResponse{Error: PersistenceMessage},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			RespondError(rec, tt.err)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var got ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			assert.Equal(t, tt.body, got)
		})
	}
}

func TestPathID(t *testing.T) {
	var got int
	var gotErr error
	r := mux.NewRouter()
	r.HandleFunc("/x/{id}", func(w http.ResponseWriter, r *http.Request) {
		got, gotErr = PathID(r, "id")
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x/42", nil))
	require.NoError(t, gotErr)
	assert.Equal(t, 42, got)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x/abc", nil))
	assert.ErrorIs(t, gotErr, apperr.ErrValidation)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x/0", nil))
	assert.ErrorIs(t, gotErr, apperr.ErrValidation)
}

func TestQueryInt(t *testing.T) {
	v, err := QueryInt(httptest.NewRequest(http.MethodGet, "/?limit=20", nil), "limit")
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, 20, *v)

	v, err = QueryInt(httptest.NewRequest(http.MethodGet, "/", nil), "limit")
	require.NoError(t, err)
	assert.Nil(t, v)

	_, err = QueryInt(httptest.NewRequest(http.MethodGet, "/?limit=x", nil), "limit")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}
