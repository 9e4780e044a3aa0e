package utils

import (
	"github.com/shopspring/decimal"
)

const (
	freeShippingThreshold = 100.0
	flatShippingFee       = 10.0
	taxRate               = 0.08
)

// PriceBreakdown is the derived price quadruple for a cart or order.
type PriceBreakdown struct {
	ItemsPrice    float64 `json:"itemsPrice"`
	ShippingPrice float64 `json:"shippingPrice"`
	TaxPrice      float64 `json:"taxPrice"`
	TotalPrice    float64 `json:"totalPrice"`
}

// Round2 rounds a monetary value to 2 decimal places, half away from zero
func Round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

// ToCents converts a dollar amount to integer cents, rounding
func ToCents(v float64) int64 {
	return decimal.NewFromFloat(v).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// ComputeBreakdown derives shipping, tax and total from an items subtotal.
// Shipping is free over the threshold, otherwise a flat fee; tax is a flat
// rate on the subtotal. Every field is rounded to 2 decimals.
func ComputeBreakdown(itemsPrice float64) PriceBreakdown {
	items := Round2(itemsPrice)

	shipping := flatShippingFee
	if items > freeShippingThreshold {
		shipping = 0
	}

	tax := Round2(items * taxRate)

	return PriceBreakdown{
		ItemsPrice:    items,
		ShippingPrice: shipping,
		TaxPrice:      tax,
		TotalPrice:    Round2(items + shipping + tax),
	}
}
