package utils

import (
	"github.com/printhub/printhub-backend/internal/models"
	"github.com/shopspring/decimal"
)

// Totals holds the money fields of an order
type Totals struct {
	Subtotal float64
	Tax      float64
	Total    float64
}

// ComputeTotals sums price*quantity over items and applies taxRate. Each figure is rounded to 2 places
// and Total is exactly Subtotal+Tax.
func ComputeTotals(items []models.OrderItem, taxRate float64) Totals {
	subtotal := decimal.Zero
	for _, item := range items {
		line := decimal.NewFromFloat(item.Price).Mul(decimal.NewFromInt(int64(item.Quantity)))
		subtotal = subtotal.Add(line)
	}
	subtotal = subtotal.Round(2)
	tax := subtotal.Mul(decimal.NewFromFloat(taxRate)).Round(2)
	total := subtotal.Add(tax)

	return Totals{
		Subtotal: subtotal.InexactFloat64(),
		Tax:      tax.InexactFloat64(),
		Total:    total.InexactFloat64(),
	}
}

// ToMinorUnits converts an amount to the smallest currency unit (paise for INR)
func ToMinorUnits(amount float64) int64 {
	return decimal.NewFromFloat(amount).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
