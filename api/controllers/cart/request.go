package cart

import (
	cartsvc "github.com/praytees/storefront/internal/cart"
)

type lineRequest struct {
	ProductID string `json:"product_id" validate:"required,max=64"`
	Size      string `json:"size" validate:"max=32"`
	Color     string `json:"color" validate:"max=64"`
}

func (r lineRequest) key() cartsvc.Key {
	return cartsvc.NewKey(r.ProductID, r.Size, r.Color)
}

type quantityRequest struct {
	ProductID string `json:"product_id" validate:"required,max=64"`
	Size      string `json:"size" validate:"max=32"`
	Color     string `json:"color" validate:"max=64"`
	Quantity  *int   `json:"quantity" validate:"required,lte=99"`
}

func (r quantityRequest) key() cartsvc.Key {
	return cartsvc.NewKey(r.ProductID, r.Size, r.Color)
}

type switchRequest struct {
	From  lineRequest `json:"from"`
	Size  string      `json:"size" validate:"max=32"`
	Color string      `json:"color" validate:"max=64"`
}
