// Copyright (c) 2026 MotoWorld. All rights reserved.
// Author: dev@motoworld.shop

package catalog_test

import (
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/motoworld/api/internal/catalog"
	"github.com/motoworld/api/internal/platform/apperr"
	"github.com/motoworld/api/pkg/pagination"
)

// # Test Doubles

type fakeProductRepository struct {
	mu     sync.Mutex
	nextID int64
	bySlug map[string]*catalog.Product

	listCalls     int
	featuredCalls int
	suggestCalls  int
}

func newFakeProductRepository() *fakeProductRepository {
	return &fakeProductRepository{nextID: 1, bySlug: make(map[string]*catalog.Product)}
}

func (repository *fakeProductRepository) List(_ context.Context, filter catalog.Filter, params pagination.Params) ([]*catalog.Product, int, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	repository.listCalls++

	var matched []*catalog.Product
	for _, product := range repository.bySlug {
		if len(filter.CategoryIDs) > 0 {
			found := false
			for _, id := range filter.CategoryIDs {
				if product.CategoryID == id {
					found = true
					break
				}
			}
			if !found {
				continue
			}
		}
		copied := *product
		matched = append(matched, &copied)
	}
	return matched, len(matched), nil
}

func (repository *fakeProductRepository) FindBySlug(_ context.Context, slug string) (*catalog.Product, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	if product, ok := repository.bySlug[slug]; ok {
		copied := *product
		return &copied, nil
	}
	return nil, apperr.NotFound("Product")
}

func (repository *fakeProductRepository) FindByID(_ context.Context, id int64) (*catalog.Product, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	for _, product := range repository.bySlug {
		if product.ID == id {
			copied := *product
			return &copied, nil
		}
	}
	return nil, apperr.NotFound("Product")
}

func (repository *fakeProductRepository) Featured(_ context.Context, limit int) ([]*catalog.Product, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	repository.featuredCalls++

	var featured []*catalog.Product
	for _, product := range repository.bySlug {
		if product.IsFeatured && len(featured) < limit {
			copied := *product
			featured = append(featured, &copied)
		}
	}
	return featured, nil
}

func (repository *fakeProductRepository) Suggest(_ context.Context, _ string, _ int) (*catalog.Suggestions, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	repository.suggestCalls++
	return &catalog.Suggestions{
		Products:   []catalog.ProductSuggestion{{ID: 1, Name: "Street Triple", Slug: "street-triple"}},
		Categories: []catalog.CategorySuggestion{},
		Brands:     []string{"Triumph"},
	}, nil
}

func (repository *fakeProductRepository) Create(_ context.Context, product *catalog.Product) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	if _, ok := repository.bySlug[product.Slug]; ok {
		return apperr.Conflict("A product with this slug or SKU already exists")
	}
	product.ID = repository.nextID
	repository.nextID++
	copied := *product
	repository.bySlug[product.Slug] = &copied
	return nil
}

func (repository *fakeProductRepository) Update(_ context.Context, product *catalog.Product) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	copied := *product
	repository.bySlug[product.Slug] = &copied
	return nil
}

func (repository *fakeProductRepository) SlugExists(_ context.Context, slug string) (bool, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	_, ok := repository.bySlug[slug]
	return ok, nil
}

func (repository *fakeProductRepository) SKUExists(_ context.Context, sku string) (bool, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	for _, product := range repository.bySlug {
		if product.SKU == sku {
			return true, nil
		}
	}
	return false, nil
}

type fakeCategoryRepository struct {
	mu         sync.Mutex
	categories []*catalog.Category
	listCalls  int
}

func (repository *fakeCategoryRepository) List(_ context.Context) ([]*catalog.Category, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	repository.listCalls++

	copied := make([]*catalog.Category, len(repository.categories))
	for i, category := range repository.categories {
		c := *category
		copied[i] = &c
	}
	return copied, nil
}

func (repository *fakeCategoryRepository) FindBySlug(_ context.Context, slug string) (*catalog.Category, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	for _, category := range repository.categories {
		if category.Slug == slug {
			copied := *category
			return &copied, nil
		}
	}
	return nil, apperr.NotFound("Category")
}

// # Test Fixtures

func newTestService(productRepo *fakeProductRepository, categoryRepo *fakeCategoryRepository) *catalog.Service {
	return catalog.NewService(productRepo, categoryRepo, slog.Default())
}

func int64Ptr(v int64) *int64 { return &v }

func motorcycleCategories() []*catalog.Category {
	return []*catalog.Category{
		{ID: 1, Name: "Motorcycles", Slug: "motorcycles", IsActive: true},
		{ID: 2, Name: "Sport", Slug: "sport", ParentID: int64Ptr(1), IsActive: true},
		{ID: 3, Name: "Naked", Slug: "naked", ParentID: int64Ptr(1), IsActive: true},
		{ID: 4, Name: "Gear", Slug: "gear", IsActive: true},
	}
}

// # Discovery Tests

func TestService_ListProducts_CategoryTreeExpansion(t *testing.T) {
	productRepo := newFakeProductRepository()
	categoryRepo := &fakeCategoryRepository{categories: motorcycleCategories()}
	service := newTestService(productRepo, categoryRepo)

	require.NoError(t, productRepo.Create(context.Background(), &catalog.Product{Name: "R1", Slug: "r1", CategoryID: 2, Status: catalog.StatusActive}))
	require.NoError(t, productRepo.Create(context.Background(), &catalog.Product{Name: "MT-09", Slug: "mt-09", CategoryID: 3, Status: catalog.StatusActive}))
	require.NoError(t, productRepo.Create(context.Background(), &catalog.Product{Name: "Gloves", Slug: "gloves", CategoryID: 4, Status: catalog.StatusActive}))

	params := pagination.Params{Page: 1, PageSize: 20}

	t.Run("tree_slug_includes_descendants", func(t *testing.T) {
		products, total, err := service.ListProducts(context.Background(), catalog.Filter{}, "", "motorcycles", params)
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		assert.Len(t, products, 2)
	})

	t.Run("exact_slug_excludes_descendants", func(t *testing.T) {
		products, total, err := service.ListProducts(context.Background(), catalog.Filter{}, "sport", "", params)
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		require.Len(t, products, 1)
		assert.Equal(t, "r1", products[0].Slug)
	})

	t.Run("unknown_slug_yields_empty_page", func(t *testing.T) {
		products, total, err := service.ListProducts(context.Background(), catalog.Filter{}, "scooters", "", params)
		require.NoError(t, err)
		assert.Zero(t, total)
		assert.Empty(t, products)
	})
}

func TestService_FeaturedProducts_Cached(t *testing.T) {
	productRepo := newFakeProductRepository()
	categoryRepo := &fakeCategoryRepository{}
	service := newTestService(productRepo, categoryRepo)

	require.NoError(t, productRepo.Create(context.Background(), &catalog.Product{
		Name: "Panigale", Slug: "panigale", CategoryID: 1, Status: catalog.StatusActive, IsFeatured: true,
	}))

	first, err := service.FeaturedProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := service.FeaturedProducts(context.Background())
	require.NoError(t, err)
	assert.Len(t, second, 1)

	// Second read must come from the cache
	assert.Equal(t, 1, productRepo.featuredCalls)
}

func TestService_SearchSuggestions_MinLength(t *testing.T) {
	productRepo := newFakeProductRepository()
	service := newTestService(productRepo, &fakeCategoryRepository{})

	t.Run("short_query_skips_repository", func(t *testing.T) {
		suggestions, err := service.SearchSuggestions(context.Background(), " d ")
		require.NoError(t, err)
		assert.Empty(t, suggestions.Products)
		assert.Empty(t, suggestions.Categories)
		assert.Empty(t, suggestions.Brands)
		assert.Zero(t, productRepo.suggestCalls)
	})

	t.Run("long_enough_query_hits_repository", func(t *testing.T) {
		suggestions, err := service.SearchSuggestions(context.Background(), "tri")
		require.NoError(t, err)
		assert.Equal(t, 1, productRepo.suggestCalls)
		require.Len(t, suggestions.Products, 1)
		assert.Equal(t, "street-triple", suggestions.Products[0].Slug)
	})
}

func TestService_CategoryTree(t *testing.T) {
	categoryRepo := &fakeCategoryRepository{categories: motorcycleCategories()}
	service := newTestService(newFakeProductRepository(), categoryRepo)

	roots, err := service.CategoryTree(context.Background())
	require.NoError(t, err)
	require.Len(t, roots, 2)

	assert.Equal(t, "motorcycles", roots[0].Slug)
	require.Len(t, roots[0].Children, 2)
	assert.Equal(t, "sport", roots[0].Children[0].Slug)
	assert.Equal(t, "naked", roots[0].Children[1].Slug)

	assert.Equal(t, "gear", roots[1].Slug)
	assert.Empty(t, roots[1].Children)

	// Second call is served from the cache
	_, err = service.CategoryTree(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, categoryRepo.listCalls)
}

// # Management Tests

func TestService_CreateProduct(t *testing.T) {
	productRepo := newFakeProductRepository()
	categoryRepo := &fakeCategoryRepository{categories: motorcycleCategories()}
	service := newTestService(productRepo, categoryRepo)

	t.Run("generates_slug_and_sku", func(t *testing.T) {
		product := &catalog.Product{
			Name:       "Ninja ZX-10R",
			Brand:      "Kawasaki",
			CategoryID: 2,
			Price:      18_499,
		}
		require.NoError(t, service.CreateProduct(context.Background(), product))

		assert.Equal(t, "ninja-zx-10r", product.Slug)
		assert.Equal(t, "SPO-NINJAZ", product.SKU)
		assert.Equal(t, catalog.StatusDraft, product.Status)
		assert.NotZero(t, product.ID)
	})

	t.Run("suffixes_slug_and_sku_on_collision", func(t *testing.T) {
		product := &catalog.Product{
			Name:       "Ninja ZX-10R",
			Brand:      "Kawasaki",
			CategoryID: 2,
			Price:      18_999,
		}
		require.NoError(t, service.CreateProduct(context.Background(), product))

		assert.Equal(t, "ninja-zx-10r-1", product.Slug)
		assert.Equal(t, "SPO-NINJAZ-001", product.SKU)
	})

	t.Run("rejects_missing_name", func(t *testing.T) {
		err := service.CreateProduct(context.Background(), &catalog.Product{Brand: "Honda", Price: 100})
		require.Error(t, err)
		appError := apperr.As(err)
		require.NotNil(t, appError)
		assert.Equal(t, "VALIDATION_ERROR", appError.Code)
	})

	t.Run("rejects_non_positive_price", func(t *testing.T) {
		err := service.CreateProduct(context.Background(), &catalog.Product{Name: "Chain", Brand: "DID"})
		require.Error(t, err)
		appError := apperr.As(err)
		require.NotNil(t, appError)
		assert.Equal(t, "VALIDATION_ERROR", appError.Code)
	})
}

func TestService_UpdateProduct(t *testing.T) {
	productRepo := newFakeProductRepository()
	service := newTestService(productRepo, &fakeCategoryRepository{})

	original := &catalog.Product{
		Name:       "Street Triple RS",
		Brand:      "Triumph",
		CategoryID: 2,
		Price:      12_595,
		Status:     catalog.StatusActive,
	}
	require.NoError(t, service.CreateProduct(context.Background(), original))

	t.Run("partial_update_preserves_other_fields", func(t *testing.T) {
		newPrice := 11_995.0
		updated, err := service.UpdateProduct(context.Background(), original.Slug, catalog.UpdateProductInput{
			Price: &newPrice,
		})
		require.NoError(t, err)

		assert.Equal(t, newPrice, updated.Price)
		assert.Equal(t, "Street Triple RS", updated.Name)
		assert.Equal(t, "Triumph", updated.Brand)
		assert.Equal(t, original.Slug, updated.Slug)
		assert.Equal(t, original.SKU, updated.SKU)
	})

	t.Run("unknown_slug", func(t *testing.T) {
		_, err := service.UpdateProduct(context.Background(), "does-not-exist", catalog.UpdateProductInput{})
		require.Error(t, err)
		appError := apperr.As(err)
		require.NotNil(t, appError)
		assert.Equal(t, "NOT_FOUND", appError.Code)
	})

	t.Run("invalidates_featured_cache", func(t *testing.T) {
		_, err := service.FeaturedProducts(context.Background())
		require.NoError(t, err)
		callsBefore := productRepo.featuredCalls

		featured := true
		_, err = service.UpdateProduct(context.Background(), original.Slug, catalog.UpdateProductInput{
			IsFeatured: &featured,
		})
		require.NoError(t, err)

		_, err = service.FeaturedProducts(context.Background())
		require.NoError(t, err)
		assert.Equal(t, callsBefore+1, productRepo.featuredCalls)
	})
}

// # Entity Tests

func TestProduct_SaleHelpers(t *testing.T) {
	compare := 1000.0
	onSale := &catalog.Product{Price: 750, ComparePrice: &compare}
	assert.True(t, onSale.IsOnSale())
	assert.Equal(t, 25, onSale.DiscountPercent())

	fullPrice := &catalog.Product{Price: 750}
	assert.False(t, fullPrice.IsOnSale())
	assert.Zero(t, fullPrice.DiscountPercent())

	inverted := &catalog.Product{Price: 1000, ComparePrice: &compare}
	assert.False(t, inverted.IsOnSale())
}
