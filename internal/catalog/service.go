// Copyright (c) 2026 MotoWorld. All rights reserved.
// Author: dev@motoworld.shop

package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/motoworld/api/internal/platform/validate"
	"github.com/motoworld/api/pkg/pagination"
	"github.com/motoworld/api/pkg/slug"
)

// # Service Constants

const (
	// FeaturedLimit caps the homepage featured carousel.
	FeaturedLimit = 8

	// SuggestionMinLength is the minimum query length before the
	// typeahead endpoint touches the database.
	SuggestionMinLength = 2

	// SuggestionLimit caps each suggestion group (products, categories, brands).
	SuggestionLimit = 5

	// cacheTTL bounds the staleness of the category tree and featured caches.
	cacheTTL = 5 * time.Minute

	// cacheSize is generous: both caches hold a single entry each.
	cacheSize = 4
)

// Cache keys. Each cache holds one logical entry; the LRU gives us TTL
// expiry and safe concurrent access.
const (
	cacheKeyTree     = "category_tree"
	cacheKeyFeatured = "featured"
)

// # Service Layer

// Service orchestrates the business logic for the product catalogue.
// It acts as the primary entry point for storefront discovery and
// back-office product management.
type Service struct {
	productRepo  ProductRepository
	categoryRepo CategoryRepository
	logger       *slog.Logger

	treeCache     *expirable.LRU[string, []*Category]
	featuredCache *expirable.LRU[string, []*Product]
}

// NewService constructs a new [Service] with its required repositories.
func NewService(productRepo ProductRepository, categoryRepo CategoryRepository, logger *slog.Logger) *Service {
	return &Service{
		productRepo:   productRepo,
		categoryRepo:  categoryRepo,
		logger:        logger,
		treeCache:     expirable.NewLRU[string, []*Category](cacheSize, nil, cacheTTL),
		featuredCache: expirable.NewLRU[string, []*Product](cacheSize, nil, cacheTTL),
	}
}

// # Product Discovery

/*
ListProducts retrieves a paginated and filtered collection of products.

Description: This method orchestrates the discovery phase of the catalogue.
Category slugs are resolved here: categorySlug narrows to a single category,
while categoryTreeSlug expands to the category plus all of its descendants.
An unknown slug yields an empty page rather than an error, matching the
behaviour of filtering on a value that matches nothing.

Parameters:
  - context: context.Context
  - filter: Filter (Criteria for search, price, brand, stock, etc.)
  - categorySlug: string (Exact category filter; empty to skip)
  - categoryTreeSlug: string (Category subtree filter; empty to skip)
  - params: pagination.Params

Returns:
  - []*Product: Slice of matching products (list projection)
  - int: Total count of records matching the filter
  - error: System or repository level errors
*/
func (service *Service) ListProducts(context context.Context, filter Filter, categorySlug, categoryTreeSlug string, params pagination.Params) ([]*Product, int, error) {

	// Category slug resolution
	if categorySlug != "" || categoryTreeSlug != "" {
		ids, err := service.resolveCategoryIDs(context, categorySlug, categoryTreeSlug)
		if err != nil {
			return nil, 0, err
		}

		// Unknown slug matches nothing
		if len(ids) == 0 {
			return []*Product{}, 0, nil
		}
		filter.CategoryIDs = append(filter.CategoryIDs, ids...)
	}

	return service.productRepo.List(context, filter, params)
}

/*
GetProduct fetches a single product by its SEO slug.

Parameters:
  - context: context.Context
  - productSlug: string

Returns:
  - *Product: The fully hydrated entity (images, variants)
  - error: apperr.NotFound if no match is found
*/
func (service *Service) GetProduct(context context.Context, productSlug string) (*Product, error) {
	return service.productRepo.FindBySlug(context, productSlug)
}

/*
FeaturedProducts returns the merchandised homepage selection.

Description: The result is cached for a short TTL since the homepage is the
hottest read path and featured flags change rarely.

Parameters:
  - context: context.Context

Returns:
  - []*Product: Up to [FeaturedLimit] active, featured products
  - error: Repository level errors on cache miss
*/
func (service *Service) FeaturedProducts(context context.Context) ([]*Product, error) {
	if cached, ok := service.featuredCache.Get(cacheKeyFeatured); ok {
		return cached, nil
	}

	products, err := service.productRepo.Featured(context, FeaturedLimit)
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []*Product{}
	}

	service.featuredCache.Add(cacheKeyFeatured, products)

	return products, nil
}

/*
SearchSuggestions returns typeahead suggestions for a partial query.

Description: Queries shorter than [SuggestionMinLength] characters return an
empty payload without touching the database, keeping the per-keystroke cost
of the storefront search box bounded.

Parameters:
  - context: context.Context
  - query: string (Raw user input; whitespace is trimmed)

Returns:
  - *Suggestions: Matching products, categories and brands (never nil)
  - error: Repository level errors
*/
func (service *Service) SearchSuggestions(context context.Context, query string) (*Suggestions, error) {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < SuggestionMinLength {
		return &Suggestions{
			Products:   []ProductSuggestion{},
			Categories: []CategorySuggestion{},
			Brands:     []string{},
		}, nil
	}

	return service.productRepo.Suggest(context, query, SuggestionLimit)
}

// # Category Browsing

/*
Categories returns the flat list of active categories with product counts.

Parameters:
  - context: context.Context

Returns:
  - []*Category: Flat, display-ordered list
  - error: Repository level errors
*/
func (service *Service) Categories(context context.Context) ([]*Category, error) {
	return service.categoryRepo.List(context)
}

/*
GetCategory fetches a single active category by slug.

Parameters:
  - context: context.Context
  - categorySlug: string

Returns:
  - *Category: The hydrated entity
  - error: apperr.NotFound if no match is found
*/
func (service *Service) GetCategory(context context.Context, categorySlug string) (*Category, error) {
	return service.categoryRepo.FindBySlug(context, categorySlug)
}

/*
CategoryTree returns the category hierarchy as nested roots.

Description: The flat repository list is assembled into a tree keyed on
ParentID. Results are cached for a short TTL; the navigation menu renders
this on every page of the storefront.

Parameters:
  - context: context.Context

Returns:
  - []*Category: Root categories with Children populated recursively
  - error: Repository level errors on cache miss
*/
func (service *Service) CategoryTree(context context.Context) ([]*Category, error) {
	if cached, ok := service.treeCache.Get(cacheKeyTree); ok {
		return cached, nil
	}

	categories, err := service.categoryRepo.List(context)
	if err != nil {
		return nil, err
	}

	roots := buildTree(categories)
	service.treeCache.Add(cacheKeyTree, roots)

	return roots, nil
}

// buildTree assembles a flat category list into nested roots.
// The repository returns rows display-ordered, so insertion order is kept.
func buildTree(categories []*Category) []*Category {
	byID := make(map[int64]*Category, len(categories))
	for _, category := range categories {
		category.Children = []*Category{}
		byID[category.ID] = category
	}

	roots := []*Category{}
	for _, category := range categories {
		if category.ParentID != nil {
			if parent, ok := byID[*category.ParentID]; ok {
				parent.Children = append(parent.Children, category)
				continue
			}
		}
		// Orphans (inactive parent) surface as roots rather than vanish
		roots = append(roots, category)
	}

	return roots
}

// resolveCategoryIDs maps category slugs to concrete IDs. The tree slug
// expands to the category and every descendant.
func (service *Service) resolveCategoryIDs(context context.Context, categorySlug, categoryTreeSlug string) ([]int64, error) {
	categories, err := service.categoryRepo.List(context)
	if err != nil {
		return nil, err
	}

	var ids []int64
	if categorySlug != "" {
		for _, category := range categories {
			if category.Slug == categorySlug {
				ids = append(ids, category.ID)
				break
			}
		}
	}

	if categoryTreeSlug != "" {
		children := make(map[int64][]int64, len(categories))
		var rootID int64
		found := false
		for _, category := range categories {
			if category.ParentID != nil {
				children[*category.ParentID] = append(children[*category.ParentID], category.ID)
			}
			if category.Slug == categoryTreeSlug {
				rootID = category.ID
				found = true
			}
		}

		// Breadth-first walk over the subtree
		if found {
			queue := []int64{rootID}
			for len(queue) > 0 {
				id := queue[0]
				queue = queue[1:]
				ids = append(ids, id)
				queue = append(queue, children[id]...)
			}
		}
	}

	return ids, nil
}

// # Product Management

/*
CreateProduct initialises a new product record in the catalogue.

Description: Performs deep business validation on the metadata, derives a
unique SEO slug from the name (suffixing a counter on collision), and
generates a sequential SKU scoped to the category before persisting.

Parameters:
  - context: context.Context
  - product: *Product (The entity to be persisted)

Returns:
  - error: Validation or persistence errors
*/
func (service *Service) CreateProduct(context context.Context, product *Product) error {

	// Business attribute validation
	validator := &validate.Validator{}
	validator.Required(FieldName, product.Name).MaxLen(FieldName, product.Name, 200)
	validator.Required(FieldBrand, product.Brand).MaxLen(FieldBrand, product.Brand, 100)
	validator.PositiveAmount(FieldPrice, product.Price)

	// Lifecycle state defaulting and validation
	if product.Status == "" {
		product.Status = StatusDraft
	}
	if !product.Status.IsValid() {
		validator.OneOf(FieldStatus, string(product.Status),
			string(StatusDraft),
			string(StatusActive),
			string(StatusInactive),
			string(StatusOutOfStock),
		)
	}

	// Return validation errors if any constraints failed
	if err := validator.Err(); err != nil {
		return err
	}

	// Slug generation with collision suffixing
	if product.Slug == "" {
		uniqueSlug, err := service.uniqueSlug(context, product.Name)
		if err != nil {
			return err
		}
		product.Slug = uniqueSlug
	}

	// SKU generation scoped to the category sequence
	if product.SKU == "" {
		sku, err := service.generateSKU(context, product)
		if err != nil {
			return err
		}
		product.SKU = sku
	}

	// Persistence via Repository
	if err := service.productRepo.Create(context, product); err != nil {
		return err
	}

	service.invalidateCaches()

	service.logger.Info("product_created",
		slog.Int64("product_id", product.ID),
		slog.String("slug", product.Slug),
		slog.String("sku", product.SKU),
	)

	return nil
}

// UpdateProductInput carries partial product mutations.
// Nil pointers leave the current value unchanged.
type UpdateProductInput struct {
	Name             *string  `json:"name"`
	Brand            *string  `json:"brand"`
	Model            *string  `json:"model"`
	Year             *int     `json:"year"`
	Description      *string  `json:"description"`
	ShortDescription *string  `json:"short_description"`
	CategoryID       *int64   `json:"category_id"`
	Price            *float64 `json:"price"`
	ComparePrice     *float64 `json:"compare_price"`
	StockQuantity    *int     `json:"stock_quantity"`
	Status           *Status  `json:"status"`
	IsFeatured       *bool    `json:"is_featured"`
}

/*
UpdateProduct applies a partial update to an existing product.

Description: The current entity is loaded, the non-nil input fields are
folded in, and the merged record is validated before persisting. The slug
and SKU are immutable once assigned.

Parameters:
  - context: context.Context
  - productSlug: string
  - input: UpdateProductInput (Fields to change; nil means keep)

Returns:
  - *Product: The updated entity
  - error: apperr.NotFound, validation, or persistence errors
*/
func (service *Service) UpdateProduct(context context.Context, productSlug string, input UpdateProductInput) (*Product, error) {

	// Load current state
	product, err := service.productRepo.FindBySlug(context, productSlug)
	if err != nil {
		return nil, err
	}

	// Fold in the requested changes
	if input.Name != nil {
		product.Name = *input.Name
	}
	if input.Brand != nil {
		product.Brand = *input.Brand
	}
	if input.Model != nil {
		product.Model = *input.Model
	}
	if input.Year != nil {
		product.Year = input.Year
	}
	if input.Description != nil {
		product.Description = *input.Description
	}
	if input.ShortDescription != nil {
		product.ShortDescription = *input.ShortDescription
	}
	if input.CategoryID != nil {
		product.CategoryID = *input.CategoryID
	}
	if input.Price != nil {
		product.Price = *input.Price
	}
	if input.ComparePrice != nil {
		product.ComparePrice = input.ComparePrice
	}
	if input.StockQuantity != nil {
		product.StockQuantity = *input.StockQuantity
	}
	if input.Status != nil {
		product.Status = *input.Status
	}
	if input.IsFeatured != nil {
		product.IsFeatured = *input.IsFeatured
	}

	// Integrity validation on the merged record
	validator := &validate.Validator{}
	validator.Required(FieldName, product.Name).MaxLen(FieldName, product.Name, 200)
	validator.Required(FieldBrand, product.Brand).MaxLen(FieldBrand, product.Brand, 100)
	validator.PositiveAmount(FieldPrice, product.Price)
	if !product.Status.IsValid() {
		validator.OneOf(FieldStatus, string(product.Status),
			string(StatusDraft),
			string(StatusActive),
			string(StatusInactive),
			string(StatusOutOfStock),
		)
	}
	if product.StockQuantity < 0 {
		validator.Range(FieldStockQuantity, product.StockQuantity, 0, 1_000_000)
	}
	if err := validator.Err(); err != nil {
		return nil, err
	}

	// Execute storage update
	if err := service.productRepo.Update(context, product); err != nil {
		return nil, err
	}

	service.invalidateCaches()

	service.logger.Info("product_updated",
		slog.Int64("product_id", product.ID),
		slog.String("slug", product.Slug),
	)

	return product, nil
}

// invalidateCaches drops the merchandising caches after a catalogue mutation.
func (service *Service) invalidateCaches() {
	service.featuredCache.Remove(cacheKeyFeatured)
	service.treeCache.Remove(cacheKeyTree)
}

// # Internal Helpers

// uniqueSlug derives a URL slug from the name, suffixing a counter
// when the base form is already taken.
func (service *Service) uniqueSlug(context context.Context, name string) (string, error) {
	base := slug.From(name)
	candidate := base

	for counter := 1; ; counter++ {
		taken, err := service.productRepo.SlugExists(context, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, counter)
	}
}

// generateSKU builds a human-readable stock keeping unit from the category
// and product names, suffixing a zero-padded counter on collision.
func (service *Service) generateSKU(context context.Context, product *Product) (string, error) {
	categoryPrefix := "GEN"
	categories, err := service.categoryRepo.List(context)
	if err != nil {
		return "", err
	}
	for _, category := range categories {
		if category.ID == product.CategoryID {
			categoryPrefix = skuPrefix(category.Name, 3)
			break
		}
	}

	base := fmt.Sprintf("%s-%s", categoryPrefix, skuPrefix(product.Name, 6))
	candidate := base

	for counter := 1; ; counter++ {
		taken, err := service.productRepo.SKUExists(context, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%03d", base, counter)
	}
}

// skuPrefix extracts up to n upper-cased alphanumeric characters.
func skuPrefix(s string, n int) string {
	var builder strings.Builder
	for _, r := range strings.ToUpper(s) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			builder.WriteRune(r)
			if builder.Len() >= n {
				break
			}
		}
	}
	if builder.Len() == 0 {
		return "X"
	}
	return builder.String()
}
