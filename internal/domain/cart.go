package domain

import "time"

// Cart is the aggregate for one shopper, addressed by CartKey. All monetary
// fields are derived from the lines and the coupon; callers never set them
// directly. Amounts are integer minor units (cents).
type Cart struct {
	CartKey             string     `json:"cartKey"`
	OwnerID             *string    `json:"ownerId,omitempty"`
	Currency            string     `json:"currency"`
	Lines               []CartLine `json:"lineItems,omitempty"`
	CouponCode          *string    `json:"couponCode,omitempty"`
	CouponDiscountCents int64      `json:"couponDiscountCents,omitempty"`
	SubtotalCents       int64      `json:"subtotalCents"`
	TaxCents            int64      `json:"taxCents"`
	ShippingCents       int64      `json:"shippingCents"`
	DiscountCents       int64      `json:"discountCents"`
	TotalCents          int64      `json:"totalCents"`
	Version             int64      `json:"version"`
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt"`
}

// CartLine is one product entry with its quantity and the price snapshotted
// at add time. Identity within a cart is (ProductID, Attributes): the same
// product with different attributes (variant selections) stays on distinct
// lines.
type CartLine struct {
	ID             string    `json:"id"`
	ProductID      string    `json:"productId"`
	ProductName    string    `json:"productName"`
	ProductSKU     string    `json:"productSku"`
	StoreID        string    `json:"storeId,omitempty"`
	Attributes     string    `json:"attributes,omitempty"`
	UnitPriceCents int64     `json:"unitPriceCents"`
	Quantity       int       `json:"quantity"`
	TotalCents     int64     `json:"totalCents"`
	AddedAt        time.Time `json:"addedAt"`
}

// Clone returns a deep copy so callers hold a snapshot without aliasing the
// aggregate's line slice.
func (c Cart) Clone() Cart {
	out := c
	if c.OwnerID != nil {
		owner := *c.OwnerID
		out.OwnerID = &owner
	}
	if c.CouponCode != nil {
		code := *c.CouponCode
		out.CouponCode = &code
	}
	if c.Lines != nil {
		out.Lines = make([]CartLine, len(c.Lines))
		copy(out.Lines, c.Lines)
	}
	return out
}

// FindLine returns the index of the line matching productID and attributes,
// or -1 when absent.
func (c Cart) FindLine(productID, attributes string) int {
	for i, line := range c.Lines {
		if line.ProductID == productID && line.Attributes == attributes {
			return i
		}
	}
	return -1
}
