// Copyright (c) 2026 MotoWorld. All rights reserved.
// Author: dev@motoworld.shop

/*
Package catalog defines the core domain entities for the MotoWorld shop.

It manages the lifecycle of sellable products (motorcycles, gear, parts and
accessories) including metadata, variants, imagery, and rating metrics.

Core Responsibility:

  - Catalogue: Defines product statuses (Draft, Active) and merchandising flags.
  - Discovery: Manages hierarchical categories, brands, and search suggestions.
  - Analytics: Tracks rating aggregates maintained by the reviews domain.

This package acts as the source of truth for all product-related data models.
*/
package catalog

import "time"

// # Domain Enums

// Status represents the merchandising status of a product.
type Status string

const (
	// StatusDraft indicates the product is being prepared and is not visible.
	StatusDraft Status = "draft"

	// StatusActive indicates the product is live and purchasable.
	StatusActive Status = "active"

	// StatusInactive indicates the product has been pulled from the storefront.
	StatusInactive Status = "inactive"

	// StatusOutOfStock indicates the product is visible but not purchasable.
	StatusOutOfStock Status = "out_of_stock"
)

// IsValid reports whether s is a recognised [Status] value.
func (s Status) IsValid() bool {
	switch s {
	case
		StatusDraft,
		StatusActive,
		StatusInactive,
		StatusOutOfStock:
		return true
	}
	return false
}

// # Core Entities

// Product is the central aggregate of the MotoWorld domain.
// It represents a single sellable item in the catalogue.
type Product struct {
	ID               int64   `json:"id"`
	Name             string  `json:"name"`
	Slug             string  `json:"slug"` // URL-safe identifier
	SKU              string  `json:"sku"`
	Brand            string  `json:"brand"`
	Model            string  `json:"model,omitempty"`
	Year             *int    `json:"year,omitempty"`
	Description      string  `json:"description"`
	ShortDescription string  `json:"short_description,omitempty"`
	CategoryID       int64   `json:"category_id"`
	CategoryName     string  `json:"category_name,omitempty"` // Denormalized for list rendering
	Price            float64 `json:"price"`
	ComparePrice     *float64 `json:"compare_price,omitempty"` // Pre-discount price, if on sale
	StockQuantity    int     `json:"stock_quantity"`
	Status           Status  `json:"status"`
	IsFeatured       bool    `json:"is_featured"`

	Images   []Image   `json:"images,omitempty"`
	Variants []Variant `json:"variants,omitempty"`

	// # Computed Metrics
	// Maintained by the reviews domain whenever a review is approved.
	RatingAvg   float64 `json:"rating_avg"`
	RatingCount int     `json:"rating_count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsOnSale reports whether the product carries a valid discount.
func (p *Product) IsOnSale() bool {
	return p.ComparePrice != nil && *p.ComparePrice > p.Price
}

// DiscountPercent returns the rounded discount percentage, or 0 when not on sale.
func (p *Product) DiscountPercent() int {
	if !p.IsOnSale() {
		return 0
	}
	return int(((*p.ComparePrice - p.Price) / *p.ComparePrice) * 100)
}

// InStock reports whether the product can currently be added to a cart.
func (p *Product) InStock() bool {
	return p.Status == StatusActive && p.StockQuantity > 0
}

// Variant represents a purchasable variation of a product (size, colour,
// displacement). The effective price is the product price plus the adjustment.
type Variant struct {
	ID              int64             `json:"id"`
	ProductID       int64             `json:"product_id"`
	Name            string            `json:"name"`
	SKU             string            `json:"sku"`
	PriceAdjustment float64           `json:"price_adjustment"`
	StockQuantity   int               `json:"stock_quantity"`
	Attributes      map[string]string `json:"attributes,omitempty"`
	IsActive        bool              `json:"is_active"`
}

// Image represents a gallery image attached to a [Product].
type Image struct {
	ID        int64  `json:"id"`
	ProductID int64  `json:"product_id"`
	URL       string `json:"url"`
	AltText   string `json:"alt_text,omitempty"`
	IsPrimary bool   `json:"is_primary"`
	SortOrder int    `json:"sort_order"`
}

// # Search & Filtering

// Filter holds the parameters for a filtered product list query.
//
// CategoryIDs is resolved by the service layer: a `category` query parameter
// maps to a single ID, a `category_tree` slug expands to the category plus
// all of its descendants.
type Filter struct {
	Search      string   `json:"search,omitempty"`
	CategoryIDs []int64  `json:"category_ids,omitempty"`
	PriceMin    *float64 `json:"price_min,omitempty"`
	PriceMax    *float64 `json:"price_max,omitempty"`
	Brand       string   `json:"brand,omitempty"`
	InStock     *bool    `json:"in_stock,omitempty"`
	OnSale      *bool    `json:"on_sale,omitempty"`
	IsFeatured  *bool    `json:"is_featured,omitempty"`
	Ordering    string   `json:"ordering,omitempty"` // price, -price, name, -name, rating, -created_at
	// IncludeHidden widens the listing to draft/inactive products (admin views).
	IncludeHidden bool `json:"-"`
}

// Suggestions is the payload for the typeahead search endpoint.
type Suggestions struct {
	Products   []ProductSuggestion  `json:"products"`
	Categories []CategorySuggestion `json:"categories"`
	Brands     []string             `json:"brands"`
}

// ProductSuggestion is a minimal product reference for typeahead rendering.
type ProductSuggestion struct {
	ID    int64   `json:"id"`
	Name  string  `json:"name"`
	Slug  string  `json:"slug"`
	Price float64 `json:"price"`
}

// CategorySuggestion is a minimal category reference for typeahead rendering.
type CategorySuggestion struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// # Field Identifiers

// Global field names for validation and dynamic query mapping.
const (
	FieldName             = "name"
	FieldSlug             = "slug"
	FieldSKU              = "sku"
	FieldBrand            = "brand"
	FieldDescription      = "description"
	FieldShortDescription = "short_description"
	FieldCategoryID       = "category_id"
	FieldPrice            = "price"
	FieldComparePrice     = "compare_price"
	FieldStockQuantity    = "stock_quantity"
	FieldStatus           = "status"
	FieldSortOrder        = "sort_order"
	FieldParentID         = "parent_id"
	FieldMessage          = "message"
)
