package coupon

import (
	"context"
	"errors"
	"strings"
	"time"

	"cartservice/internal/domain"
)

type couponRepo interface {
	GetByCode(ctx context.Context, code string) (*domain.Coupon, error)
}

// Validator resolves coupon codes against the coupon store and prices the
// discount for a given cart. Unknown, inactive, expired or not-yet-valid
// codes and carts below the minimum subtotal all reject with
// domain.ErrInvalidCoupon.
type Validator struct {
	repo couponRepo
	now  func() time.Time
}

func New(repo couponRepo) *Validator {
	return &Validator{repo: repo, now: time.Now}
}

func (v *Validator) Validate(ctx context.Context, code string, cart domain.Cart) (int64, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return 0, domain.ErrInvalidCoupon
	}

	c, err := v.repo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return 0, domain.ErrInvalidCoupon
		}
		return 0, err
	}

	now := v.now().UTC()
	switch {
	case !c.Active:
		return 0, domain.ErrInvalidCoupon
	case c.ValidFrom != nil && now.Before(*c.ValidFrom):
		return 0, domain.ErrInvalidCoupon
	case c.ValidUntil != nil && now.After(*c.ValidUntil):
		return 0, domain.ErrInvalidCoupon
	case cart.SubtotalCents < c.MinSubtotalCents:
		return 0, domain.ErrInvalidCoupon
	}

	switch c.Kind {
	case domain.CouponKindAmount:
		return c.AmountCents, nil
	case domain.CouponKindPercent:
		// half-up to the nearest cent
		return (cart.SubtotalCents*c.PercentBps + 5000) / 10000, nil
	default:
		return 0, domain.ErrInvalidCoupon
	}
}
