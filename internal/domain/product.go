package domain

import "time"

// Product is the catalog record carts snapshot from at add time. The cart
// never live-joins against it afterwards, so later catalog edits leave
// existing lines untouched.
type Product struct {
	ID         string    `json:"id"`
	SKU        string    `json:"sku"`
	Name       string    `json:"name"`
	PriceCents int64     `json:"priceCents"`
	Currency   string    `json:"currency"`
	StoreID    string    `json:"storeId,omitempty"`
	StoreName  string    `json:"storeName,omitempty"`
	ImageURL   string    `json:"imageUrl,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}
