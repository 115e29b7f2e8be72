package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestRecomputeTotalsIgnoresCallerTotals(t *testing.T) {
	stale := decimal.NewFromInt(999)
	req := &CreateInvoiceRequest{
		PatientID:      1,
		ProfessionalID: 2,
		PaymentMethod:  PaymentPix,
		NetTotal:       &stale,
		Items: []CreateInvoiceItem{
			{Kind: ItemProduct, ProductID: intPtr(7), Description: "Protetor solar", Quantity: 3, UnitPrice: decimal.RequireFromString("49.90")},
			{Kind: ItemService, Description: "Limpeza de pele", Quantity: 1, UnitPrice: decimal.RequireFromString("120.00")},
		},
	}

	inv := req.ToInvoice()
	assert.True(t, inv.NetTotal.Equal(stale))

	inv.Items[0].LineTotal = decimal.NewFromInt(1)
	inv.RecomputeTotals()

	assert.Equal(t, "149.7", inv.Items[0].LineTotal.String())
	assert.True(t, inv.GrossTotal.Equal(decimal.RequireFromString("269.70")))
	assert.True(t, inv.Discount.IsZero())
	assert.True(t, inv.NetTotal.Equal(inv.GrossTotal))
	assert.Equal(t, 2, inv.Items[1].Position)
}

func TestPaymentMethodValid(t *testing.T) {
	assert.True(t, PaymentDebit.Valid())
	assert.False(t, PaymentMethod("CHEQUE").Valid())
}
