package wishlist

import "time"

// Item is one liked product. Product carries the snapshot the client sent
// when the product was liked, if any.
type Item struct {
	ProductID string         `json:"product_id"`
	Product   map[string]any `json:"product,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// Page is a cursor-paginated slice of a user's wishlist, newest first.
type Page struct {
	Items      []Item `json:"items"`
	NextCursor string `json:"next_cursor,omitempty"`
	Total      int64  `json:"total"`
}
