package domain

import "time"

type WishlistItem struct {
	UserID    int32     `json:"user_id"`
	ProductID int32     `json:"product_id"`
	Product   *Product  `json:"product,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
