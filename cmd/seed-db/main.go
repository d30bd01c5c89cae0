// Command seed-db loads the product catalog and recipe list from JSON files
// into PostgreSQL. Reseeding is safe: catalog fields are refreshed in place
// and live stock counters are left alone.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/mielpino/storefront/internal/domain/product"
	"github.com/mielpino/storefront/internal/domain/recipe"
	"github.com/mielpino/storefront/internal/storage/postgres"
)

type productJSON struct {
	ID          int64             `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Price       decimal.Decimal   `json:"price"`
	Stock       decimal.Decimal   `json:"stock"`
	SizesKg     []decimal.Decimal `json:"sizesKg"`
	ImageURL    string            `json:"imageUrl"`
	BgColor     string            `json:"bgColor"`
	BtnColor    string            `json:"btnColor"`
	HoneyColor  string            `json:"honeyColor"`
	ModelPath   string            `json:"modelPath"`
}

type recipeJSON struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl"`
	ProductType string `json:"productType"`
}

func main() {
	var (
		databaseURL  string
		productsFile string
		recipesFile  string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&productsFile, "products-file", "db/seed/products.json", "path to products JSON file")
	flag.StringVar(&recipesFile, "recipes-file", "db/seed/recipes.json", "path to recipes JSON file")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, productsFile, recipesFile); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, productsFile, recipesFile string) error {
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedProducts(ctx, postgres.NewProductRepository(pool), productsFile); err != nil {
		return errors.Wrap(err, "seed products")
	}

	if err := seedRecipes(ctx, postgres.NewRecipeRepository(pool), recipesFile); err != nil {
		return errors.Wrap(err, "seed recipes")
	}

	return nil
}

func seedProducts(ctx context.Context, repo *postgres.ProductRepository, productsFile string) error {
	slog.Info("reading products file", slog.String("path", productsFile))

	data, err := os.ReadFile(productsFile)
	if err != nil {
		return errors.Wrap(err, "read products file")
	}

	var products []productJSON
	if err := json.Unmarshal(data, &products); err != nil {
		return errors.Wrap(err, "parse products JSON")
	}

	slog.Info("upserting products", slog.Int("count", len(products)))

	for _, p := range products {
		if err := repo.Upsert(ctx, &product.Product{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			Price:       p.Price,
			Stock:       p.Stock,
			SizesKg:     p.SizesKg,
			ImageURL:    p.ImageURL,
			Display: product.Display{
				BgColor:    p.BgColor,
				BtnColor:   p.BtnColor,
				HoneyColor: p.HoneyColor,
				ModelPath:  p.ModelPath,
			},
		}); err != nil {
			return errors.Wrapf(err, "upsert product %d", p.ID)
		}

		slog.Info("upserted product", slog.Int64("id", p.ID), slog.String("name", p.Name))
	}

	return nil
}

func seedRecipes(ctx context.Context, repo *postgres.RecipeRepository, recipesFile string) error {
	slog.Info("reading recipes file", slog.String("path", recipesFile))

	data, err := os.ReadFile(recipesFile)
	if err != nil {
		return errors.Wrap(err, "read recipes file")
	}

	var recipes []recipeJSON
	if err := json.Unmarshal(data, &recipes); err != nil {
		return errors.Wrap(err, "parse recipes JSON")
	}

	slog.Info("upserting recipes", slog.Int("count", len(recipes)))

	for _, rc := range recipes {
		if err := repo.Upsert(ctx, &recipe.Recipe{
			ID:          rc.ID,
			Name:        rc.Name,
			Description: rc.Description,
			ImageURL:    rc.ImageURL,
			ProductType: rc.ProductType,
		}); err != nil {
			return errors.Wrapf(err, "upsert recipe %d", rc.ID)
		}

		slog.Info("upserted recipe", slog.Int64("id", rc.ID), slog.String("name", rc.Name))
	}

	return nil
}
