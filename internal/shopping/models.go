package shopping

import (
	"time"

	"mealhow/internal/shared"
)

// Item is one product to buy.
type Item struct {
	Name     string `json:"name"`
	Quantity string `json:"quantity"`
	Category string `json:"category"`
}

// ShoppingList collects the products needed for a set of meals.
type ShoppingList struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user_id"`
	Status    shared.JobStatus `json:"status"`
	Items     []Item           `json:"items"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}
