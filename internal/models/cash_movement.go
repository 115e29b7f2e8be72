package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CashDirection is the sense of a cash movement
type CashDirection string

const (
	CashIn  CashDirection = "ENTRADA"
	CashOut CashDirection = "SAIDA"
)

func (d CashDirection) Valid() bool {
	return d == CashIn || d == CashOut
}

// CashMovement (movimento) is one dated money movement at the front desk.
// Movements are never updated or deleted.
type CashMovement struct {
	ID            int             `json:"id"`
	Date          string          `json:"date"` // YYYY-MM-DD
	Description   string          `json:"description"`
	Direction     CashDirection   `json:"direction"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	PatientLabel  string          `json:"patient_label"`
	Note          string          `json:"note"`
	InvoiceID     *int            `json:"invoice_id,omitempty"`
	CreatedBy     *int            `json:"created_by,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// CreateCashMovementRequest represents a manual desk movement
type CreateCashMovementRequest struct {
	Date          string          `json:"date"`
	Description   string          `json:"description"`
	Direction     CashDirection   `json:"direction"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	PatientLabel  string          `json:"patient_label"`
	Note          string          `json:"note"`
}

// CashSummary aggregates one day of movements
type CashSummary struct {
	Date      string                            `json:"date"`
	TotalIn   decimal.Decimal                   `json:"total_in"`
	TotalOut  decimal.Decimal                   `json:"total_out"`
	Balance   decimal.Decimal                   `json:"balance"`
	ByMethod  map[PaymentMethod]decimal.Decimal `json:"by_method"`
	Movements int                               `json:"movements"`
}
