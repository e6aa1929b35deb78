package domain

import "errors"

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrItemNotFound indicates the cart holds no line for the product.
	ErrItemNotFound = errors.New("item not found in cart")
	// ErrInvalidQuantity indicates a zero or negative quantity.
	ErrInvalidQuantity = errors.New("invalid quantity")
	// ErrInvalidCoupon indicates the coupon code was rejected.
	ErrInvalidCoupon = errors.New("invalid coupon")
	// ErrConcurrencyConflict indicates the supplied version is stale.
	ErrConcurrencyConflict = errors.New("concurrency conflict")
	// ErrDependencyUnavailable indicates a collaborator call failed or
	// timed out; the operation was aborted without side effects.
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)
