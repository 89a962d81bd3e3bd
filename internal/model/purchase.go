package model

import "time"

// PurchasedItem is one line of a completed purchase. Bought records how much
// of the requested quantity was actually taken off the list.
type PurchasedItem struct {
	Name     string   `json:"name"`
	Quantity int      `json:"quantity"`
	Unit     Unit     `json:"unit"`
	Bought   int      `json:"bought"`
	Price    *float64 `json:"price,omitempty"`
}

// CompletedPurchase is a finished shopping trip kept in the purchase history.
type CompletedPurchase struct {
	ID          int64           `json:"id"`
	OwnerID     int64           `json:"owner_id"`
	Items       []PurchasedItem `json:"items"`
	TotalSpent  float64         `json:"total_spent"`
	PurchasedAt time.Time       `json:"purchased_at"`
}
