package recipe

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when a requested recipe does not exist.
var ErrNotFound = errors.New("recipe not found")

// Recipe is an editorial entry pairing a dish with a product line
// (honey or cured meat).
type Recipe struct {
	ID          int64
	Name        string
	Description string
	ImageURL    string
	ProductType string
}

// Repository defines read operations for the recipe catalog.
type Repository interface {
	List(ctx context.Context) ([]Recipe, error)
	ListByType(ctx context.Context, productType string) ([]Recipe, error)
	GetByID(ctx context.Context, id int64) (*Recipe, error)
}
