package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"shop-api/internal/domain"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProduct(name, category string, price float64, stock int) *domain.Product {
	now := time.Now()
	return &domain.Product{
		ID:        uuid.New().String(),
		Name:      name,
		Price:     price,
		Category:  category,
		Stock:     stock,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Feature: shop-api, Property 22: Product creation preserves attributes
func TestProperty_ProductCreationPreservesAttributes(t *testing.T) {
	for _, ts := range stores(t) {
		t.Run(ts.name, func(t *testing.T) {
			repo := ts.store.Products
			ctx := context.Background()

			parameters := gopter.DefaultTestParameters()
			parameters.MinSuccessfulTests = 30
			properties := gopter.NewProperties(parameters)

			properties.Property("creating and retrieving a product preserves all attributes", prop.ForAll(
				func(name string, description string, price float64, image string, stock int) bool {
					product := newTestProduct(name, "Property", price, stock)
					product.Description = description
					product.Image = image

					if err := repo.Create(ctx, product); err != nil {
						t.Logf("FAIL: Failed to create product: %v", err)
						return false
					}
					defer repo.Delete(ctx, product.ID)

					retrieved, err := repo.FindByID(ctx, product.ID)
					if err != nil {
						t.Logf("FAIL: Failed to retrieve product: %v", err)
						return false
					}

					// prices are stored with two decimal places
					if retrieved.Price < product.Price-0.01 || retrieved.Price > product.Price+0.01 {
						t.Logf("FAIL: Price mismatch. Expected %f, got %f", product.Price, retrieved.Price)
						return false
					}

					return retrieved.ID == product.ID &&
						retrieved.Name == product.Name &&
						retrieved.Description == product.Description &&
						retrieved.Image == product.Image &&
						retrieved.Stock == product.Stock &&
						!retrieved.CreatedAt.IsZero()
				},
				gen.RegexMatch(`[A-Za-z0-9 ]{3,50}`),
				gen.RegexMatch(`[A-Za-z0-9 .,!?]{10,200}`),
				gen.Float64Range(0.01, 9999.99),
				gen.RegexMatch(`https?://[a-z0-9.-]+/[a-z0-9/._-]{1,50}`),
				gen.IntRange(0, 1000),
			))

			properties.TestingRun(t, gopter.ConsoleReporter(false))
		})
	}
}

func TestProductRepository_DecrementStockGuard(t *testing.T) {
	for _, ts := range stores(t) {
		t.Run(ts.name, func(t *testing.T) {
			repo := ts.store.Products
			ctx := context.Background()

			product := newTestProduct("Guarded", "Stock", 10, 5)
			require.NoError(t, repo.Create(ctx, product))
			defer repo.Delete(ctx, product.ID)

			require.NoError(t, repo.DecrementStock(ctx, product.ID, 2))
			assert.ErrorIs(t, repo.DecrementStock(ctx, product.ID, 4), ErrInsufficientStock)
			assert.ErrorIs(t, repo.DecrementStock(ctx, uuid.New().String(), 1), ErrProductNotFound)

			found, err := repo.FindByID(ctx, product.ID)
			require.NoError(t, err)
			assert.Equal(t, 3, found.Stock)

			require.NoError(t, repo.IncrementStock(ctx, product.ID, 2))
			found, err = repo.FindByID(ctx, product.ID)
			require.NoError(t, err)
			assert.Equal(t, 5, found.Stock)
		})
	}
}

// Feature: shop-api, Property 23: Concurrent purchases never oversell
func TestProperty_ConcurrentDecrementsNeverOversell(t *testing.T) {
	for _, ts := range stores(t) {
		t.Run(ts.name, func(t *testing.T) {
			repo := ts.store.Products
			ctx := context.Background()

			parameters := gopter.DefaultTestParameters()
			parameters.MinSuccessfulTests = 10
			properties := gopter.NewProperties(parameters)

			properties.Property("successful decrements never exceed the initial stock", prop.ForAll(
				func(stock int, buyers int) bool {
					product := newTestProduct("Contended", "Stock", 1, stock)
					if err := repo.Create(ctx, product); err != nil {
						return false
					}
					defer repo.Delete(ctx, product.ID)

					var (
						wg        sync.WaitGroup
						mu        sync.Mutex
						succeeded int
					)
					for i := 0; i < buyers; i++ {
						wg.Add(1)
						go func() {
							defer wg.Done()
							if err := repo.DecrementStock(ctx, product.ID, 1); err == nil {
								mu.Lock()
								succeeded++
								mu.Unlock()
							}
						}()
					}
					wg.Wait()

					found, err := repo.FindByID(ctx, product.ID)
					if err != nil {
						return false
					}

					expected := min(stock, buyers)
					return succeeded == expected && found.Stock == stock-expected
				},
				gen.IntRange(0, 5),
				gen.IntRange(1, 10),
			))

			properties.TestingRun(t, gopter.ConsoleReporter(false))
		})
	}
}

func TestProductRepository_ListAndCategories(t *testing.T) {
	for _, ts := range stores(t) {
		t.Run(ts.name, func(t *testing.T) {
			repo := ts.store.Products
			ctx := context.Background()

			category := "Cat-" + uuid.New().String()[:8]
			cheap := newTestProduct("Blue Kettle", category, 5, 1)
			pricey := newTestProduct("Red Kettle", category, 50, 1)
			other := newTestProduct("Blue Lamp", "Other-"+category, 20, 1)
			for _, p := range []*domain.Product{cheap, pricey, other} {
				require.NoError(t, repo.Create(ctx, p))
				defer repo.Delete(ctx, p.ID)
			}

			products, total, err := repo.List(ctx, ProductQuery{
				Category:  category,
				Page:      1,
				PageSize:  10,
				SortBy:    "price",
				SortOrder: SortOrderAsc,
			})
			require.NoError(t, err)
			assert.Equal(t, 2, total)
			require.Len(t, products, 2)
			assert.Equal(t, cheap.ID, products[0].ID)

			products, total, err = repo.List(ctx, ProductQuery{Category: category, Search: "red", Page: 1, PageSize: 10})
			require.NoError(t, err)
			assert.Equal(t, 1, total)
			require.Len(t, products, 1)
			assert.Equal(t, pricey.ID, products[0].ID)

			categories, err := repo.Categories(ctx)
			require.NoError(t, err)
			assert.Contains(t, categories, category)
			assert.Contains(t, categories, "Other-"+category)

			found, err := repo.FindByIDs(ctx, []string{cheap.ID, other.ID, uuid.New().String()})
			require.NoError(t, err)
			assert.Len(t, found, 2)
		})
	}
}
