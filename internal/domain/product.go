package domain

import (
	"time"
)

// Product represents a product in the catalog
type Product struct {
	ID          string    `json:"id" bson:"_id" db:"id"`
	Name        string    `json:"name" bson:"name" db:"name"`
	Description string    `json:"description" bson:"description" db:"description"`
	Price       float64   `json:"price" bson:"price" db:"price"`
	Category    string    `json:"category" bson:"category" db:"category"`
	Stock       int       `json:"stock" bson:"stock" db:"stock"`
	Image       string    `json:"image" bson:"image" db:"image"`
	Brand       string    `json:"brand" bson:"brand" db:"brand"`
	Rating      float64   `json:"rating" bson:"rating" db:"rating"`
	NumReviews  int       `json:"numReviews" bson:"num_reviews" db:"num_reviews"`
	Offer       string    `json:"offer,omitempty" bson:"offer,omitempty" db:"offer"`
	CreatedAt   time.Time `json:"createdAt" bson:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updated_at" db:"updated_at"`
}

// ProductSummary is the subset of a product embedded in order views
type ProductSummary struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Image string  `json:"image"`
}

// Summary returns the display fields of the product
func (p *Product) Summary() *ProductSummary {
	return &ProductSummary{ID: p.ID, Name: p.Name, Price: p.Price, Image: p.Image}
}

// Wishlist is the per-user set of saved products
type Wishlist struct {
	ID         string    `json:"id" bson:"_id" db:"id"`
	UserID     string    `json:"userId" bson:"user_id" db:"user_id"`
	ProductIDs []string  `json:"products" bson:"product_ids"`
	CreatedAt  time.Time `json:"createdAt" bson:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updatedAt" bson:"updated_at" db:"updated_at"`
}

// Contains reports whether productID is already saved
func (w *Wishlist) Contains(productID string) bool {
	for _, id := range w.ProductIDs {
		if id == productID {
			return true
		}
	}
	return false
}
