package httpserver

import (
	"time"

	"cartservice/internal/domain"
)

type cartView struct {
	CartKey             string     `json:"cartKey"`
	OwnerID             string     `json:"ownerId,omitempty"`
	Currency            string     `json:"currency"`
	LineItems           []lineView `json:"lineItems"`
	CouponCode          string     `json:"couponCode,omitempty"`
	CouponDiscountCents int64      `json:"couponDiscountCents,omitempty"`
	SubtotalCents       int64      `json:"subtotalCents"`
	TaxCents            int64      `json:"taxCents"`
	ShippingCents       int64      `json:"shippingCents"`
	DiscountCents       int64      `json:"discountCents"`
	TotalCents          int64      `json:"totalCents"`
	Version             int64      `json:"version"`
	ConcurrencyToken    string     `json:"concurrencyToken"`
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt"`
}

type lineView struct {
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

func toCartView(cart domain.Cart, token string) cartView {
	lines := make([]lineView, 0, len(cart.Lines))
	for _, line := range cart.Lines {
		lines = append(lines, lineView{
			ID:             line.ID,
			ProductID:      line.ProductID,
			ProductName:    line.ProductName,
			ProductSKU:     line.ProductSKU,
			StoreID:        line.StoreID,
			Attributes:     line.Attributes,
			UnitPriceCents: line.UnitPriceCents,
			Quantity:       line.Quantity,
			TotalCents:     line.TotalCents,
			AddedAt:        line.AddedAt,
		})
	}

	out := cartView{
		CartKey:             cart.CartKey,
		Currency:            cart.Currency,
		LineItems:           lines,
		CouponDiscountCents: cart.CouponDiscountCents,
		SubtotalCents:       cart.SubtotalCents,
		TaxCents:            cart.TaxCents,
		ShippingCents:       cart.ShippingCents,
		DiscountCents:       cart.DiscountCents,
		TotalCents:          cart.TotalCents,
		Version:             cart.Version,
		ConcurrencyToken:    token,
		CreatedAt:           cart.CreatedAt,
		UpdatedAt:           cart.UpdatedAt,
	}
	if cart.OwnerID != nil {
		out.OwnerID = *cart.OwnerID
	}
	if cart.CouponCode != nil {
		out.CouponCode = *cart.CouponCode
	}
	return out
}
