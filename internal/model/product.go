package model

import (
	"time"

	"github.com/google/uuid"
)

// Product categories shown in the storefront menu.
const (
	CategoryBurger  = "burger"
	CategoryPizza   = "pizza"
	CategoryDessert = "dessert"
	CategoryDrink   = "drink"
	CategoryOther   = "other"
)

// Product is a menu entry. IsAvailable gates visibility in the
// customer-facing catalog; admin tables always see the full set.
type Product struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description *string   `json:"description" db:"description"`
	Price       float64   `json:"price" db:"price"`
	Category    string    `json:"category" db:"category"`
	ImageURL    *string   `json:"image_url" db:"image_url"`
	IsAvailable bool      `json:"is_available" db:"is_available"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}
