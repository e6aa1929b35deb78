// Package pricing holds the tax and shipping collaborators the cart
// aggregate calls during total recomputation.
package pricing

import (
	"context"

	"cartservice/internal/domain"
)

// PercentTax charges RateBps basis points of the cart subtotal, rounded
// half-up to the nearest cent.
type PercentTax struct {
	RateBps int64
}

func (t PercentTax) TaxCents(_ context.Context, cart domain.Cart) (int64, error) {
	if t.RateBps <= 0 || cart.SubtotalCents <= 0 {
		return 0, nil
	}
	return roundBpsHalfUp(cart.SubtotalCents, t.RateBps), nil
}

// TieredShipping charges a flat fee, waived for empty carts and for
// subtotals at or above FreeOverCents (when set).
type TieredShipping struct {
	FlatCents     int64
	FreeOverCents int64
}

func (s TieredShipping) ShippingCents(_ context.Context, cart domain.Cart) (int64, error) {
	if len(cart.Lines) == 0 {
		return 0, nil
	}
	if s.FreeOverCents > 0 && cart.SubtotalCents >= s.FreeOverCents {
		return 0, nil
	}
	return s.FlatCents, nil
}

// roundBpsHalfUp computes amount * bps / 10000 rounding half-up.
func roundBpsHalfUp(amount, bps int64) int64 {
	return (amount*bps + 5000) / 10000
}
