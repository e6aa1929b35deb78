package domain

import "time"

// Coupon kinds.
const (
	CouponKindAmount  = "amount"
	CouponKindPercent = "percent"
)

// Coupon is a discount code. Amount coupons take AmountCents off the
// subtotal; percent coupons take PercentBps basis points of the subtotal,
// rounded half-up to the nearest cent.
type Coupon struct {
	Code             string     `json:"code"`
	Kind             string     `json:"kind"`
	AmountCents      int64      `json:"amountCents,omitempty"`
	PercentBps       int64      `json:"percentBps,omitempty"`
	MinSubtotalCents int64      `json:"minSubtotalCents,omitempty"`
	ValidFrom        *time.Time `json:"validFrom,omitempty"`
	ValidUntil       *time.Time `json:"validUntil,omitempty"`
	Active           bool       `json:"active"`
	CreatedAt        time.Time  `json:"createdAt"`
}
