package handlers

import (
	"context"
	"fmt"
	"net/http"

	"clinic-backend/internal/middleware"
	"clinic-backend/internal/models"
	"clinic-backend/internal/services"
	"clinic-backend/pkg/utils"
)

// InvoicePoster is the sale posting surface used by the handler
type InvoicePoster interface {
	Post(ctx context.Context, actor *int, inv *models.Invoice) (*services.PostResult, error)
	Get(ctx context.Context, id int) (*models.InvoiceWithDetails, error)
	ListByPeriod(ctx context.Context, from, to string) ([]*models.InvoiceSummary, error)
}

// ReceiptRenderer renders the reprint of a posted invoice
type ReceiptRenderer interface {
	ReceiptPDF(ctx context.Context, invoiceID int) ([]byte, error)
}

type InvoiceHandler struct {
	Service  InvoicePoster
	Receipts ReceiptRenderer
}

func NewInvoiceHandler(s InvoicePoster, receipts ReceiptRenderer) *InvoiceHandler {
	return &InvoiceHandler{Service: s, Receipts: receipts}
}

// Post records a sale: invoice, stock decrements and the cash entry
func (h *InvoiceHandler) Post(w http.ResponseWriter, r *http.Request) {
	var req models.CreateInvoiceRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondError(w, err)
		return
	}

	result, err := h.Service.Post(r.Context(), middleware.ActorFromContext(r.Context()), req.ToInvoice())
	if err != nil {
		utils.RespondError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusCreated, result)
}

func (h *InvoiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := utils.PathID(r, "id")
	if err != nil {
		utils.RespondError(w, err)
		return
	}

	invoice, err := h.Service.Get(r.Context(), id)
	if err != nil {
		utils.RespondError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, invoice)
}

// List returns the invoices of ?from= to ?to= (inclusive dates)
func (h *InvoiceHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	invoices, err := h.Service.ListByPeriod(r.Context(), q.Get("from"), q.Get("to"))
	if err != nil {
		utils.RespondError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, invoices)
}

// Receipt streams the PDF reprint of one invoice
func (h *InvoiceHandler) Receipt(w http.ResponseWriter, r *http.Request) {
	id, err := utils.PathID(r, "id")
	if err != nil {
		utils.RespondError(w, err)
		return
	}

	pdf, err := h.Receipts.ReceiptPDF(r.Context(), id)
	if err != nil {
		utils.RespondError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=nota-%d.pdf", id))
	w.Write(pdf)
}
