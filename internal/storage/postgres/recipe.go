package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mielpino/storefront/internal/domain/recipe"
)

var _ recipe.Repository = (*RecipeRepository)(nil)

// RecipeRepository implements recipe.Repository backed by PostgreSQL.
type RecipeRepository struct {
	pool *pgxpool.Pool
}

// NewRecipeRepository returns a RecipeRepository that uses the given pool.
func NewRecipeRepository(pool *pgxpool.Pool) *RecipeRepository {
	return &RecipeRepository{pool: pool}
}

func (r *RecipeRepository) List(ctx context.Context) ([]recipe.Recipe, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, description, image_url, product_type
		FROM recipes ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing recipes: %w", err)
	}
	defer rows.Close()

	return scanRecipes(rows)
}

func (r *RecipeRepository) ListByType(ctx context.Context, productType string) ([]recipe.Recipe, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, description, image_url, product_type
		FROM recipes WHERE product_type = $1
		ORDER BY id`, productType)
	if err != nil {
		return nil, fmt.Errorf("listing recipes by type %q: %w", productType, err)
	}
	defer rows.Close()

	return scanRecipes(rows)
}

func (r *RecipeRepository) GetByID(ctx context.Context, id int64) (*recipe.Recipe, error) {
	var rec recipe.Recipe
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, description, image_url, product_type
		FROM recipes WHERE id = $1`, id).Scan(
		&rec.ID, &rec.Name, &rec.Description, &rec.ImageURL, &rec.ProductType,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, recipe.ErrNotFound
		}
		return nil, fmt.Errorf("getting recipe %d: %w", id, err)
	}
	return &rec, nil
}

// Upsert inserts or refreshes a recipe row. Used by the seed tooling.
func (r *RecipeRepository) Upsert(ctx context.Context, rec *recipe.Recipe) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO recipes (id, name, description, image_url, product_type)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			image_url = EXCLUDED.image_url,
			product_type = EXCLUDED.product_type`,
		rec.ID, rec.Name, rec.Description, rec.ImageURL, rec.ProductType,
	)
	if err != nil {
		return fmt.Errorf("upserting recipe %d: %w", rec.ID, err)
	}
	return nil
}

func scanRecipes(rows pgx.Rows) ([]recipe.Recipe, error) {
	var out []recipe.Recipe
	for rows.Next() {
		var rec recipe.Recipe
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Description, &rec.ImageURL, &rec.ProductType); err != nil {
			return nil, fmt.Errorf("scanning recipe: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
