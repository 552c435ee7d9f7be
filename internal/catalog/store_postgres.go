// Copyright (c) 2026 MotoWorld. All rights reserved.
// Author: dev@motoworld.shop

/*
PostgreSQL implementation for the catalogue's data access.

It utilizes advanced Postgres features to deliver a high-performance discovery experience:
  - Full-Text Search: Uses 'websearch_to_tsquery' and GIN indexes for fuzzy matching.
  - JSON Aggregation: Retrieves complex nested data (images, variants) in a single round-trip.
  - Window Functions: Calculates total result counts without requiring a separate 'COUNT' query.

The repository follows an "Aggregate" pattern where sub-resources (images,
variants) are managed through the main repository instance to maintain domain
integrity.
*/
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/motoworld/api/internal/platform/apperr"
	"github.com/motoworld/api/internal/platform/dberr"
	"github.com/motoworld/api/pkg/pagination"
)

// # PostgreSQL Repositories

// productRepository implements the [ProductRepository] interface using pgx.
type productRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository constructs a PostgreSQL backed product store.
func NewProductRepository(pool *pgxpool.Pool) ProductRepository {
	return &productRepository{pool: pool}
}

/*
List returns a filtered, paginated slice of products and the total count.

Description: This high-performance query utilizes several PostgreSQL advanced
features:
  - Window Function: Uses COUNT(*) OVER() to retrieve total record counts
    without a second query.
  - Denormalized join: Pulls the category name alongside each row so list
    rendering needs no extra lookups.
  - Full-text search: Matches the search vector via websearch_to_tsquery.

Parameters:
  - context: context.Context
  - filter: Filter (Search, categories, price range, flags, ordering)
  - params: pagination.Params

Returns:
  - []*Product: Page of hydrated product entities (no images/variants)
  - int: Total count matching filters
  - error: Database execution errors
*/
func (repository *productRepository) List(context context.Context, filter Filter, params pagination.Params) ([]*Product, int, error) {

	// Query build initialization
	var queryBuilder strings.Builder
	var args []any
	argID := 1

	// Using Window Function to get total count
	queryBuilder.WriteString(`
		SELECT
			p.id, p.name, p.slug, p.sku, p.brand, p.model, p.year,
			p.shortdescription, p.categoryid, c.name AS categoryname,
			p.price, p.compareprice, p.stockquantity, p.status, p.isfeatured,
			p.ratingavg, p.ratingcount, p.createdat, p.updatedat,
			COUNT(*) OVER() AS total_count
		FROM catalog.product p
		JOIN catalog.category c ON c.id = p.categoryid
		WHERE 1=1
	`)

	// Hidden statuses are excluded from storefront listings
	if !filter.IncludeHidden {
		queryBuilder.WriteString(fmt.Sprintf(" AND p.status = ANY($%d)", argID))
		args = append(args, []Status{StatusActive, StatusOutOfStock})
		argID++
	}

	// Apply Filters (Dynamic WHERE clause construction)
	if len(filter.CategoryIDs) > 0 {
		queryBuilder.WriteString(fmt.Sprintf(" AND p.categoryid = ANY($%d)", argID))
		args = append(args, filter.CategoryIDs)
		argID++
	}

	// Price Range Filtering
	if filter.PriceMin != nil {
		queryBuilder.WriteString(fmt.Sprintf(" AND p.price >= $%d", argID))
		args = append(args, *filter.PriceMin)
		argID++
	}
	if filter.PriceMax != nil {
		queryBuilder.WriteString(fmt.Sprintf(" AND p.price <= $%d", argID))
		args = append(args, *filter.PriceMax)
		argID++
	}

	// Brand Filtering (case-insensitive exact match)
	if filter.Brand != "" {
		queryBuilder.WriteString(fmt.Sprintf(" AND LOWER(p.brand) = LOWER($%d)", argID))
		args = append(args, filter.Brand)
		argID++
	}

	// Stock Filtering
	if filter.InStock != nil {
		if *filter.InStock {
			queryBuilder.WriteString(" AND p.stockquantity > 0 AND p.status = 'active'")
		} else {
			queryBuilder.WriteString(" AND (p.stockquantity = 0 OR p.status = 'out_of_stock')")
		}
	}

	// Sale Filtering
	if filter.OnSale != nil {
		if *filter.OnSale {
			queryBuilder.WriteString(" AND p.compareprice IS NOT NULL AND p.compareprice > p.price")
		} else {
			queryBuilder.WriteString(" AND (p.compareprice IS NULL OR p.compareprice <= p.price)")
		}
	}

	// Featured Filtering
	if filter.IsFeatured != nil {
		queryBuilder.WriteString(fmt.Sprintf(" AND p.isfeatured = $%d", argID))
		args = append(args, *filter.IsFeatured)
		argID++
	}

	// Search Query Filtering
	if filter.Search != "" {
		queryBuilder.WriteString(fmt.Sprintf(" AND p.searchvector @@ websearch_to_tsquery('simple', $%d)", argID))
		args = append(args, filter.Search)
		argID++
	}

	// Apply Sorting Logic
	queryBuilder.WriteString(" ORDER BY " + orderingClause(filter.Ordering))

	// Pagination injection
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argID, argID+1))
	args = append(args, params.PageSize, params.Offset())

	// Query Execution
	rows, err := repository.pool.Query(context, queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("postgres: failed to list products: %w", err)
	}
	defer rows.Close()

	// Initialize variables
	var products []*Product
	var totalCount int

	// Iterate over rows
	for rows.Next() {
		product := &Product{}
		err := rows.Scan(
			&product.ID,
			&product.Name,
			&product.Slug,
			&product.SKU,
			&product.Brand,
			&product.Model,
			&product.Year,
			&product.ShortDescription,
			&product.CategoryID,
			&product.CategoryName,
			&product.Price,
			&product.ComparePrice,
			&product.StockQuantity,
			&product.Status,
			&product.IsFeatured,
			&product.RatingAvg,
			&product.RatingCount,
			&product.CreatedAt,
			&product.UpdatedAt,
			&totalCount,
		)

		// Check for errors during row scanning
		if err != nil {
			return nil, 0, fmt.Errorf("postgres: failed to scan product: %w", err)
		}

		products = append(products, product)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("postgres: failed reading product rows: %w", err)
	}

	// Return the list of products and total count
	return products, totalCount, nil
}

// orderingClause maps a client ordering key to a safe ORDER BY expression.
// Unknown keys fall back to newest-first.
func orderingClause(ordering string) string {
	switch ordering {
	case "price":
		return "p.price ASC, p.id DESC"
	case "-price":
		return "p.price DESC, p.id DESC"
	case "name":
		return "p.name ASC, p.id DESC"
	case "-name":
		return "p.name DESC, p.id DESC"
	case "rating", "-rating":
		return "p.ratingavg DESC, p.ratingcount DESC, p.id DESC"
	case "created_at":
		return "p.createdat ASC, p.id ASC"
	default:
		return "p.createdat DESC, p.id DESC"
	}
}

// productDetailQuery hydrates a full product row including JSON-aggregated
// images and variants in a single round-trip.
const productDetailQuery = `
	SELECT
		p.id, p.name, p.slug, p.sku, p.brand, p.model, p.year,
		p.description, p.shortdescription, p.categoryid, c.name AS categoryname,
		p.price, p.compareprice, p.stockquantity, p.status, p.isfeatured,
		p.ratingavg, p.ratingcount, p.createdat, p.updatedat,
		COALESCE((
			SELECT json_agg(json_build_object(
				'id', i.id, 'product_id', i.productid, 'url', i.url,
				'alt_text', i.alttext, 'is_primary', i.isprimary, 'sort_order', i.sortorder
			) ORDER BY i.sortorder)
			FROM catalog.productimage i
			WHERE i.productid = p.id
		), '[]') AS images,
		COALESCE((
			SELECT json_agg(json_build_object(
				'id', v.id, 'product_id', v.productid, 'name', v.name, 'sku', v.sku,
				'price_adjustment', v.priceadjustment, 'stock_quantity', v.stockquantity,
				'attributes', v.attributes, 'is_active', v.isactive
			) ORDER BY v.id)
			FROM catalog.productvariant v
			WHERE v.productid = p.id AND v.isactive = TRUE
		), '[]') AS variants
	FROM catalog.product p
	JOIN catalog.category c ON c.id = p.categoryid
`

// scanProductDetail hydrates a detail row including the aggregated JSON columns.
func scanProductDetail(row pgx.Row) (*Product, error) {
	product := &Product{}
	var imagesJSON, variantsJSON []byte

	err := row.Scan(
		&product.ID,
		&product.Name,
		&product.Slug,
		&product.SKU,
		&product.Brand,
		&product.Model,
		&product.Year,
		&product.Description,
		&product.ShortDescription,
		&product.CategoryID,
		&product.CategoryName,
		&product.Price,
		&product.ComparePrice,
		&product.StockQuantity,
		&product.Status,
		&product.IsFeatured,
		&product.RatingAvg,
		&product.RatingCount,
		&product.CreatedAt,
		&product.UpdatedAt,
		&imagesJSON,
		&variantsJSON,
	)
	if err != nil {
		return nil, err
	}

	// Unmarshal the aggregated sub-resources
	if err := json.Unmarshal(imagesJSON, &product.Images); err != nil {
		return nil, fmt.Errorf("postgres: failed to unmarshal images: %w", err)
	}
	if err := json.Unmarshal(variantsJSON, &product.Variants); err != nil {
		return nil, fmt.Errorf("postgres: failed to unmarshal variants: %w", err)
	}

	return product, nil
}

/*
FindBySlug retrieves a fully hydrated product by its unique slug.

Description: In addition to the core fields, this query utilizes PostgreSQL's
JSON aggregation capabilities (json_agg and json_build_object) natively to
retrieve the associated images and variants in a single database round-trip.
This avoids the classic N+1 query problem.

Parameters:
  - context: context.Context
  - slug: string

Returns:
  - *Product: The fully hydrated product entity
  - error: apperr.NotFound if the product does not exist
*/
func (repository *productRepository) FindBySlug(context context.Context, slug string) (*Product, error) {
	query := productDetailQuery + " WHERE p.slug = $1"

	product, err := scanProductDetail(repository.pool.QueryRow(context, query, slug))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Product")
		}
		return nil, fmt.Errorf("postgres: failed to find product by slug: %w", err)
	}

	return product, nil
}

/*
FindByID retrieves a fully hydrated product by its primary key.

Parameters:
  - context: context.Context
  - id: int64

Returns:
  - *Product: The fully hydrated product entity
  - error: apperr.NotFound if the product does not exist
*/
func (repository *productRepository) FindByID(context context.Context, id int64) (*Product, error) {
	query := productDetailQuery + " WHERE p.id = $1"

	product, err := scanProductDetail(repository.pool.QueryRow(context, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Product")
		}
		return nil, fmt.Errorf("postgres: failed to find product by id: %w", err)
	}

	return product, nil
}

/*
Featured returns up to limit active, featured products (newest first).

Parameters:
  - context: context.Context
  - limit: int

Returns:
  - []*Product: Featured products
  - error: Database execution errors
*/
func (repository *productRepository) Featured(context context.Context, limit int) ([]*Product, error) {
	const query = `
		SELECT
			p.id, p.name, p.slug, p.sku, p.brand, p.model, p.year,
			p.shortdescription, p.categoryid, c.name AS categoryname,
			p.price, p.compareprice, p.stockquantity, p.status, p.isfeatured,
			p.ratingavg, p.ratingcount, p.createdat, p.updatedat
		FROM catalog.product p
		JOIN catalog.category c ON c.id = p.categoryid
		WHERE p.isfeatured = TRUE AND p.status = 'active'
		ORDER BY p.createdat DESC, p.id DESC
		LIMIT $1`

	rows, err := repository.pool.Query(context, query, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to list featured products: %w", err)
	}
	defer rows.Close()

	var products []*Product
	for rows.Next() {
		product := &Product{}
		err := rows.Scan(
			&product.ID,
			&product.Name,
			&product.Slug,
			&product.SKU,
			&product.Brand,
			&product.Model,
			&product.Year,
			&product.ShortDescription,
			&product.CategoryID,
			&product.CategoryName,
			&product.Price,
			&product.ComparePrice,
			&product.StockQuantity,
			&product.Status,
			&product.IsFeatured,
			&product.RatingAvg,
			&product.RatingCount,
			&product.CreatedAt,
			&product.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("postgres: failed to scan featured product: %w", err)
		}
		products = append(products, product)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: failed reading featured rows: %w", err)
	}

	return products, nil
}

/*
Suggest returns typeahead suggestions matching the query.

Description: Runs three narrow ILIKE probes (products, categories, brands).
Each probe hits its own index; the service caps the input length and rate.

Parameters:
  - context: context.Context
  - query: string
  - limit: int (per suggestion group)

Returns:
  - *Suggestions: Matching products, categories and brands
  - error: Database execution errors
*/
func (repository *productRepository) Suggest(context context.Context, query string, limit int) (*Suggestions, error) {
	suggestions := &Suggestions{
		Products:   []ProductSuggestion{},
		Categories: []CategorySuggestion{},
		Brands:     []string{},
	}
	pattern := "%" + query + "%"

	// Product name matches
	const productQuery = `
		SELECT id, name, slug, price
		FROM catalog.product
		WHERE status = 'active' AND name ILIKE $1
		ORDER BY name
		LIMIT $2`

	rows, err := repository.pool.Query(context, productQuery, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to suggest products: %w", err)
	}
	for rows.Next() {
		var s ProductSuggestion
		if err := rows.Scan(&s.ID, &s.Name, &s.Slug, &s.Price); err != nil {
			rows.Close()
			return nil, fmt.Errorf("postgres: failed to scan product suggestion: %w", err)
		}
		suggestions.Products = append(suggestions.Products, s)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: failed reading product suggestions: %w", err)
	}

	// Category name matches
	const categoryQuery = `
		SELECT id, name, slug
		FROM catalog.category
		WHERE isactive = TRUE AND name ILIKE $1
		ORDER BY name
		LIMIT $2`

	rows, err = repository.pool.Query(context, categoryQuery, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to suggest categories: %w", err)
	}
	for rows.Next() {
		var s CategorySuggestion
		if err := rows.Scan(&s.ID, &s.Name, &s.Slug); err != nil {
			rows.Close()
			return nil, fmt.Errorf("postgres: failed to scan category suggestion: %w", err)
		}
		suggestions.Categories = append(suggestions.Categories, s)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: failed reading category suggestions: %w", err)
	}

	// Distinct brand matches
	const brandQuery = `
		SELECT DISTINCT brand
		FROM catalog.product
		WHERE status = 'active' AND brand ILIKE $1
		ORDER BY brand
		LIMIT $2`

	rows, err = repository.pool.Query(context, brandQuery, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to suggest brands: %w", err)
	}
	for rows.Next() {
		var brand string
		if err := rows.Scan(&brand); err != nil {
			rows.Close()
			return nil, fmt.Errorf("postgres: failed to scan brand suggestion: %w", err)
		}
		suggestions.Brands = append(suggestions.Brands, brand)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: failed reading brand suggestions: %w", err)
	}

	return suggestions, nil
}

/*
Create persists a new product and assigns the generated ID.

Parameters:
  - context: context.Context
  - product: *Product

Returns:
  - error: apperr.Conflict on duplicate slug/SKU, or storage errors
*/
func (repository *productRepository) Create(context context.Context, product *Product) error {
	const query = `
		INSERT INTO catalog.product (
			name, slug, sku, brand, model, year, description, shortdescription,
			categoryid, price, compareprice, stockquantity, status, isfeatured
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, createdat, updatedat`

	err := repository.pool.QueryRow(context, query,
		product.Name,
		product.Slug,
		product.SKU,
		product.Brand,
		product.Model,
		product.Year,
		product.Description,
		product.ShortDescription,
		product.CategoryID,
		product.Price,
		product.ComparePrice,
		product.StockQuantity,
		product.Status,
		product.IsFeatured,
	).Scan(&product.ID, &product.CreatedAt, &product.UpdatedAt)

	if err != nil {
		if dberr.IsUniqueViolation(err, "") {
			return apperr.Conflict("A product with this slug or SKU already exists")
		}
		return fmt.Errorf("postgres: failed to create product: %w", err)
	}

	return nil
}

/*
Update persists changes to mutable product fields.

Parameters:
  - context: context.Context
  - product: *Product

Returns:
  - error: Persistence failures
*/
func (repository *productRepository) Update(context context.Context, product *Product) error {
	const query = `
		UPDATE catalog.product
		SET name = $2, brand = $3, model = $4, year = $5, description = $6,
			shortdescription = $7, categoryid = $8, price = $9, compareprice = $10,
			stockquantity = $11, status = $12, isfeatured = $13, updatedat = NOW()
		WHERE id = $1`

	_, err := repository.pool.Exec(context, query,
		product.ID,
		product.Name,
		product.Brand,
		product.Model,
		product.Year,
		product.Description,
		product.ShortDescription,
		product.CategoryID,
		product.Price,
		product.ComparePrice,
		product.StockQuantity,
		product.Status,
		product.IsFeatured,
	)

	if err != nil {
		return fmt.Errorf("postgres: failed to update product: %w", err)
	}

	return nil
}

/*
SlugExists reports whether a product already uses the given slug.

Parameters:
  - context: context.Context
  - slug: string

Returns:
  - bool: true when taken
  - error: Database execution errors
*/
func (repository *productRepository) SlugExists(context context.Context, slug string) (bool, error) {
	const query = "SELECT EXISTS(SELECT 1 FROM catalog.product WHERE slug = $1)"

	var exists bool
	if err := repository.pool.QueryRow(context, query, slug).Scan(&exists); err != nil {
		return false, fmt.Errorf("postgres: failed to check slug: %w", err)
	}

	return exists, nil
}

/*
SKUExists reports whether a product already uses the given SKU.

Parameters:
  - context: context.Context
  - sku: string

Returns:
  - bool: true when taken
  - error: Database execution errors
*/
func (repository *productRepository) SKUExists(context context.Context, sku string) (bool, error) {
	const query = "SELECT EXISTS(SELECT 1 FROM catalog.product WHERE sku = $1)"

	var exists bool
	if err := repository.pool.QueryRow(context, query, sku).Scan(&exists); err != nil {
		return false, fmt.Errorf("postgres: failed to check sku: %w", err)
	}

	return exists, nil
}

// # Category Repository

// categoryRepository implements the [CategoryRepository] interface using pgx.
type categoryRepository struct {
	pool *pgxpool.Pool
}

// NewCategoryRepository constructs a PostgreSQL backed category store.
func NewCategoryRepository(pool *pgxpool.Pool) CategoryRepository {
	return &categoryRepository{pool: pool}
}

const categoryColumns = `
	c.id, c.name, c.slug, c.description, c.parentid, c.imageurl,
	c.sortorder, c.isactive, c.createdat, c.updatedat,
	(SELECT COUNT(*) FROM catalog.product p
	 WHERE p.categoryid = c.id AND p.status = 'active') AS productcount`

/*
List returns all active categories ordered by sort order and name.

Description: The active product count is computed per row via a correlated
subquery; the tree shape is assembled by the service layer.

Parameters:
  - context: context.Context

Returns:
  - []*Category: Flat category list
  - error: Database execution errors
*/
func (repository *categoryRepository) List(context context.Context) ([]*Category, error) {
	query := `
		SELECT ` + categoryColumns + `
		FROM catalog.category c
		WHERE c.isactive = TRUE
		ORDER BY c.sortorder, c.name`

	rows, err := repository.pool.Query(context, query)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to list categories: %w", err)
	}
	defer rows.Close()

	var categories []*Category
	for rows.Next() {
		category := &Category{}
		err := rows.Scan(
			&category.ID,
			&category.Name,
			&category.Slug,
			&category.Description,
			&category.ParentID,
			&category.ImageURL,
			&category.SortOrder,
			&category.IsActive,
			&category.CreatedAt,
			&category.UpdatedAt,
			&category.ProductCount,
		)
		if err != nil {
			return nil, fmt.Errorf("postgres: failed to scan category: %w", err)
		}
		categories = append(categories, category)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: failed reading category rows: %w", err)
	}

	return categories, nil
}

/*
FindBySlug returns the active category with the given slug.

Parameters:
  - context: context.Context
  - slug: string

Returns:
  - *Category: Hydrated entity
  - error: apperr.NotFound or database errors
*/
func (repository *categoryRepository) FindBySlug(context context.Context, slug string) (*Category, error) {
	query := `
		SELECT ` + categoryColumns + `
		FROM catalog.category c
		WHERE c.slug = $1 AND c.isactive = TRUE`

	category := &Category{}
	err := repository.pool.QueryRow(context, query, slug).Scan(
		&category.ID,
		&category.Name,
		&category.Slug,
		&category.Description,
		&category.ParentID,
		&category.ImageURL,
		&category.SortOrder,
		&category.IsActive,
		&category.CreatedAt,
		&category.UpdatedAt,
		&category.ProductCount,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Category")
		}
		return nil, fmt.Errorf("postgres: failed to find category by slug: %w", err)
	}

	return category, nil
}
