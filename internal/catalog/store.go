// Copyright (c) 2026 MotoWorld. All rights reserved.
// Author: dev@motoworld.shop

package catalog

import (
	"context"

	"github.com/motoworld/api/pkg/pagination"
)

// # Product Data Access

// ProductRepository defines the data access contract for products.
type ProductRepository interface {

	/*
		List returns a filtered, paginated slice of products and the total count.

		Parameters:
		  - context: context.Context
		  - filter: Filter (Search, categories, price range, flags, ordering)
		  - params: pagination.Params

		Returns:
		  - []*Product: Page of products (without images/variants)
		  - int: Total count matching filters
		  - error: Database execution errors
	*/
	List(context context.Context, filter Filter, params pagination.Params) ([]*Product, int, error)

	/*
		FindBySlug returns the fully hydrated product (images, variants).

		Parameters:
		  - context: context.Context
		  - slug: string

		Returns:
		  - *Product: Hydrated entity
		  - error: apperr.NotFound or database errors
	*/
	FindBySlug(context context.Context, slug string) (*Product, error)

	/*
		FindByID returns the fully hydrated product (images, variants).

		Parameters:
		  - context: context.Context
		  - id: int64

		Returns:
		  - *Product: Hydrated entity
		  - error: apperr.NotFound or database errors
	*/
	FindByID(context context.Context, id int64) (*Product, error)

	/*
		Featured returns up to limit active, featured products (newest first).

		Parameters:
		  - context: context.Context
		  - limit: int

		Returns:
		  - []*Product: Featured products
		  - error: Database execution errors
	*/
	Featured(context context.Context, limit int) ([]*Product, error)

	/*
		Suggest returns typeahead suggestions matching the query prefix.

		Parameters:
		  - context: context.Context
		  - query: string (already length-checked by the service)
		  - limit: int (per suggestion group)

		Returns:
		  - *Suggestions: Matching products, categories and brands
		  - error: Database execution errors
	*/
	Suggest(context context.Context, query string, limit int) (*Suggestions, error)

	/*
		Create persists a new product and assigns its ID.

		Parameters:
		  - context: context.Context
		  - product: *Product

		Returns:
		  - error: apperr.Conflict on duplicate slug/SKU, or storage errors
	*/
	Create(context context.Context, product *Product) error

	/*
		Update persists changes to mutable product fields.

		Parameters:
		  - context: context.Context
		  - product: *Product

		Returns:
		  - error: Persistence failures
	*/
	Update(context context.Context, product *Product) error

	/*
		SlugExists reports whether a product already uses the given slug.

		Parameters:
		  - context: context.Context
		  - slug: string

		Returns:
		  - bool: true when taken
		  - error: Database execution errors
	*/
	SlugExists(context context.Context, slug string) (bool, error)

	/*
		SKUExists reports whether a product already uses the given SKU.
		Used to derive collision suffixes during SKU generation.

		Parameters:
		  - context: context.Context
		  - sku: string

		Returns:
		  - bool: true when taken
		  - error: Database execution errors
	*/
	SKUExists(context context.Context, sku string) (bool, error)
}

// # Category Data Access

// CategoryRepository defines the data access contract for categories.
type CategoryRepository interface {

	/*
		List returns all active categories ordered by sort order, each
		carrying its active product count.

		Parameters:
		  - context: context.Context

		Returns:
		  - []*Category: Flat category list (no nesting)
		  - error: Database execution errors
	*/
	List(context context.Context) ([]*Category, error)

	/*
		FindBySlug returns the active category with the given slug.

		Parameters:
		  - context: context.Context
		  - slug: string

		Returns:
		  - *Category: Hydrated entity
		  - error: apperr.NotFound or database errors
	*/
	FindBySlug(context context.Context, slug string) (*Category, error)
}
