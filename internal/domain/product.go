package domain

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Category is the closed set of product categories. Matching is exact and
// case-sensitive; "Electronics" or " electronics" are not categories.
type Category string

const (
	CategoryElectronics Category = "electronics"
	CategoryClothing    Category = "clothing"
	CategoryFood        Category = "food"
	CategoryBooks       Category = "books"
	CategoryOther       Category = "other"
)

// Categories lists every valid category token.
func Categories() []Category {
	return []Category{
		CategoryElectronics,
		CategoryClothing,
		CategoryFood,
		CategoryBooks,
		CategoryOther,
	}
}

// ParseCategory parses a category token. No trimming, no case folding.
func ParseCategory(s string) (Category, error) {
	switch c := Category(s); c {
	case CategoryElectronics, CategoryClothing, CategoryFood, CategoryBooks, CategoryOther:
		return c, nil
	}
	return "", fmt.Errorf("invalid category: %q", s)
}

// Valid reports whether c is one of the known category tokens.
func (c Category) Valid() bool {
	_, err := ParseCategory(string(c))
	return err == nil
}

func (c Category) String() string {
	return string(c)
}

// Product represents a product in the catalog. The ID is assigned by the
// storage layer on creation and is immutable afterwards.
type Product struct {
	ID            primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name          string             `json:"name" bson:"name"`
	Price         float64            `json:"price" bson:"price"`
	Category      Category           `json:"category" bson:"category"`
	HasActiveSale bool               `json:"has_active_sale" bson:"has_active_sale"`
}
