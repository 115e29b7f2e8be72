package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a stocked item. CurrentStock is only ever lowered through the
// guarded decrement and never goes below zero.
type Product struct {
	ID           int             `json:"id"`
	Name         string          `json:"name"`
	SalePrice    decimal.Decimal `json:"sale_price"`
	CurrentStock int             `json:"current_stock"`
	MinStock     int             `json:"min_stock"`
	IsActive     bool            `json:"is_active"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// LowStock reports whether the product is at or below its alert threshold
func (p *Product) LowStock() bool {
	return p.CurrentStock <= p.MinStock
}

// StockMovementReason tells why a product's stock changed
type StockMovementReason string

const (
	StockSale    StockMovementReason = "VENDA"
	StockRestock StockMovementReason = "ENTRADA"
)

// StockMovement is one append-only change to a product's stock
type StockMovement struct {
	ID        int                 `json:"id"`
	ProductID int                 `json:"product_id"`
	Quantity  int                 `json:"quantity"` // negative for outflows
	Reason    StockMovementReason `json:"reason"`
	InvoiceID *int                `json:"invoice_id,omitempty"`
	Note      string              `json:"note"`
	CreatedBy *int                `json:"created_by,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
}

// RestockRequest represents a manual stock entry
type RestockRequest struct {
	Quantity int    `json:"quantity"`
	Note     string `json:"note"`
}
