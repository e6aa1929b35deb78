package pricing

import (
	"context"
	"testing"

	"cartservice/internal/domain"
)

func cartWithSubtotal(cents int64) domain.Cart {
	cart := domain.Cart{SubtotalCents: cents}
	if cents > 0 {
		cart.Lines = []domain.CartLine{{ProductID: "p1", Quantity: 1, UnitPriceCents: cents, TotalCents: cents}}
	}
	return cart
}

func TestPercentTax(t *testing.T) {
	cases := []struct {
		name     string
		rateBps  int64
		subtotal int64
		want     int64
	}{
		{"zero rate", 0, 10000, 0},
		{"zero subtotal", 800, 0, 0},
		{"exact", 1000, 10000, 1000},
		{"fraction rounds up", 825, 1999, 165}, // 164.9175 -> 165
		{"half rounds up", 500, 10, 1},         // 0.5 -> 1
		{"half cent rounds up", 825, 1000, 83}, // 82.5 -> 83
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := PercentTax{RateBps: tc.rateBps}.TaxCents(context.Background(), cartWithSubtotal(tc.subtotal))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %d want %d", got, tc.want)
			}
		})
	}
}

func TestTieredShipping(t *testing.T) {
	calc := TieredShipping{FlatCents: 500, FreeOverCents: 5000}

	got, err := calc.ShippingCents(context.Background(), domain.Cart{})
	if err != nil || got != 0 {
		t.Fatalf("empty cart: got %d err %v", got, err)
	}

	got, _ = calc.ShippingCents(context.Background(), cartWithSubtotal(2000))
	if got != 500 {
		t.Fatalf("below threshold: got %d want 500", got)
	}

	got, _ = calc.ShippingCents(context.Background(), cartWithSubtotal(5000))
	if got != 0 {
		t.Fatalf("at threshold: got %d want 0", got)
	}

	noFree := TieredShipping{FlatCents: 500}
	got, _ = noFree.ShippingCents(context.Background(), cartWithSubtotal(999999))
	if got != 500 {
		t.Fatalf("no threshold configured: got %d want 500", got)
	}
}
