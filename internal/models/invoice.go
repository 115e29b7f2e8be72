package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ItemKind distinguishes stocked products from services
type ItemKind string

const (
	ItemProduct ItemKind = "PRODUTO"
	ItemService ItemKind = "SERVICO"
)

// PaymentMethod is how a sale or desk movement was paid
type PaymentMethod string

const (
	PaymentCash  PaymentMethod = "DINHEIRO"
	PaymentPix   PaymentMethod = "PIX"
	PaymentCard  PaymentMethod = "CARTAO"
	PaymentDebit PaymentMethod = "DEBITO"
	PaymentOther PaymentMethod = "OUTRO"
)

var PaymentMethods = []PaymentMethod{PaymentCash, PaymentPix, PaymentCard, PaymentDebit, PaymentOther}

func (p PaymentMethod) Valid() bool {
	for _, m := range PaymentMethods {
		if p == m {
			return true
		}
	}
	return false
}

// Invoice (nota) is one posted sale. It is immutable once posted.
type Invoice struct {
	ID             int             `json:"id"`
	PatientID      int             `json:"patient_id"`
	ProfessionalID int             `json:"professional_id"`
	PaymentMethod  PaymentMethod   `json:"payment_method"`
	GrossTotal     decimal.Decimal `json:"gross_total"`
	Discount       decimal.Decimal `json:"discount"`
	NetTotal       decimal.Decimal `json:"net_total"`
	Note           string          `json:"note"`
	CreatedBy      *int            `json:"created_by,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	Items          []InvoiceItem   `json:"items"`
}

// InvoiceItem represents one priced line of an invoice
type InvoiceItem struct {
	ID          int             `json:"id"`
	InvoiceID   int             `json:"invoice_id"`
	Position    int             `json:"position"`
	Kind        ItemKind        `json:"kind"`
	ProductID   *int            `json:"product_id"`
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// Recompute refreshes the line total from quantity and unit price
func (it *InvoiceItem) Recompute() {
	it.LineTotal = it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))).Round(2)
}

// RecomputeTotals overwrites every line total and the invoice totals from
// the items. Discount is always zero.
func (inv *Invoice) RecomputeTotals() {
	gross := decimal.Zero
	for i := range inv.Items {
		inv.Items[i].Recompute()
		gross = gross.Add(inv.Items[i].LineTotal)
	}
	inv.GrossTotal = gross
	inv.Discount = decimal.Zero
	inv.NetTotal = gross.Sub(inv.Discount)
}

// InvoiceWithDetails is the reprint view: header, items and party names
type InvoiceWithDetails struct {
	Invoice
	PatientName      string `json:"patient_name"`
	PatientCPF       string `json:"patient_cpf"`
	ProfessionalName string `json:"professional_name"`
	CreatedByName    string `json:"created_by_name"`
}

// CreateInvoiceRequest represents the request to post an invoice. Totals
// supplied by the caller are ignored.
type CreateInvoiceRequest struct {
	PatientID      int                 `json:"patient_id"`
	ProfessionalID int                 `json:"professional_id"`
	PaymentMethod  PaymentMethod       `json:"payment_method"`
	Note           string              `json:"note"`
	NetTotal       *decimal.Decimal    `json:"net_total,omitempty"`
	Items          []CreateInvoiceItem `json:"items"`
}

type CreateInvoiceItem struct {
	Kind        ItemKind        `json:"kind"`
	ProductID   *int            `json:"product_id"`
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// ToInvoice builds the in-memory invoice to be posted
func (r *CreateInvoiceRequest) ToInvoice() *Invoice {
	inv := &Invoice{
		PatientID:      r.PatientID,
		ProfessionalID: r.ProfessionalID,
		PaymentMethod:  r.PaymentMethod,
		Note:           r.Note,
	}
	if r.NetTotal != nil {
		inv.NetTotal = *r.NetTotal
	}
	for i, it := range r.Items {
		inv.Items = append(inv.Items, InvoiceItem{
			Position:    i + 1,
			Kind:        it.Kind,
			ProductID:   it.ProductID,
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
		})
	}
	return inv
}

// InvoiceSummary is one row of the period listing used by reports
type InvoiceSummary struct {
	ID               int             `json:"id"`
	CreatedAt        time.Time       `json:"created_at"`
	PatientName      string          `json:"patient_name"`
	ProfessionalName string          `json:"professional_name"`
	PaymentMethod    PaymentMethod   `json:"payment_method"`
	ItemsCount       int             `json:"items_count"`
	NetTotal         decimal.Decimal `json:"net_total"`
}
