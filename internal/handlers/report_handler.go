package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"clinic-backend/internal/services"
	"clinic-backend/internal/storage"
	"clinic-backend/internal/timeutil"
	"clinic-backend/pkg/utils"
)

type Reports interface {
	InvoicesCSV(ctx context.Context, from, to string) ([]byte, int, error)
	InvoicesPDF(ctx context.Context, from, to string) ([]byte, error)
	ArchiveInvoicesCSV(ctx context.Context, from, to string) (*services.ArchiveResult, error)
}

type ReportHandler struct {
	Service Reports
}

func NewReportHandler(s Reports) *ReportHandler {
	return &ReportHandler{Service: s}
}

func (h *ReportHandler) InvoicesCSV(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	data, _, err := h.Service.InvoicesCSV(r.Context(), q.Get("from"), q.Get("to"))
	if err != nil {
		utils.RespondError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=notas-%s.csv", timeutil.Today()))
	w.Write(data)
}

func (h *ReportHandler) InvoicesPDF(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	data, err := h.Service.InvoicesPDF(r.Context(), q.Get("from"), q.Get("to"))
	if err != nil {
		utils.RespondError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=notas-%s.pdf", timeutil.Today()))
	w.Write(data)
}

// Archive stores the period CSV in object storage
func (h *ReportHandler) Archive(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	result, err := h.Service.ArchiveInvoicesCSV(r.Context(), q.Get("from"), q.Get("to"))
	if errors.Is(err, storage.ErrDisabled) {
		utils.RespondJSON(w, http.StatusServiceUnavailable, utils.ErrorResponse{Error: err.Error()})
		return
	}
	if err != nil {
		utils.RespondError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusCreated, result)
}
