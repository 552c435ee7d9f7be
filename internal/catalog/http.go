// Copyright (c) 2026 MotoWorld. All rights reserved.
// Author: dev@motoworld.shop

/*
HTTP interface for catalogue discovery and management.

It exposes endpoints for browsing products and categories, homepage
merchandising, and typeahead search, plus metadata management for
authorised personnel.

# Routing Strategy

  - Public: Discovery endpoints accessible to all visitors (GET /api/products/).
  - Restricted: Mutative endpoints requiring the Admin role (POST, PATCH).

The handler translates between the web/JSON layer and the internal domain [Service].
*/
package catalog

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/motoworld/api/internal/platform/middleware"
	requestutil "github.com/motoworld/api/internal/platform/request"
	"github.com/motoworld/api/internal/platform/respond"
	"github.com/motoworld/api/internal/platform/sec"
	"github.com/motoworld/api/pkg/pagination"
	"github.com/motoworld/api/pkg/query"
)

// # Handler Implementation

// Handler implements the HTTP layer for catalogue discovery and management.
// It translates web requests into domain service calls.
type Handler struct {
	service *Service
}

// NewHandler constructs a new catalogue [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns a [chi.Router] configured with the catalogue's endpoints.
//
// # Routing Strategy
//
//   - Discovery (Public): Accessible by all visitors for browsing.
//   - Management (Restricted): Requires [sec.RoleAdmin] for mutations.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// ## Public Discovery Endpoints
	router.Get("/", handler.listProducts)
	router.Get("/featured/", handler.featuredProducts)
	router.Get("/search/suggestions/", handler.searchSuggestions)
	router.Get("/categories/", handler.listCategories)
	router.Get("/categories/tree/", handler.categoryTree)
	router.Get("/categories/{slug}/", handler.getCategory)
	router.Get("/{slug}/", handler.getProduct)

	// ## Catalogue Management (Admin Protected)
	router.Group(func(admin chi.Router) {
		admin.Use(middleware.RequireAuth)
		admin.Use(middleware.RequireRole(sec.RoleAdmin))

		admin.Post("/", handler.createProduct)
		admin.Patch("/{slug}/", handler.updateProduct)
	})

	return router
}

// # Discovery Endpoints

/*
GET /api/products/.

Description: Retrieves a paginated list of products from the catalogue.
Supports filtering by category, price range, brand, availability, and
full-text search.

Request:
  - search: string (Full-text search)
  - category: string (Category slug, exact)
  - category_tree: string (Category slug including descendants)
  - price_min: float
  - price_max: float
  - brand: string
  - in_stock: bool
  - on_sale: bool
  - is_featured: bool
  - ordering: string (price, -price, name, -name, rating, created_at, -created_at)
  - page, page_size: int

Response:
  - 200: Paginated list envelope {count, next, previous, results}
*/
func (handler *Handler) listProducts(writer http.ResponseWriter, request *http.Request) {
	params := pagination.FromRequest(request)
	queryParams := request.URL.Query()

	filter := Filter{
		Search:   queryParams.Get("search"),
		Brand:    queryParams.Get("brand"),
		Ordering: queryParams.Get("ordering"),
	}

	if value, ok := query.Float(queryParams.Get("price_min")); ok {
		filter.PriceMin = &value
	}
	if value, ok := query.Float(queryParams.Get("price_max")); ok {
		filter.PriceMax = &value
	}
	if value, ok := query.Bool(queryParams.Get("in_stock")); ok {
		filter.InStock = &value
	}
	if value, ok := query.Bool(queryParams.Get("on_sale")); ok {
		filter.OnSale = &value
	}
	if value, ok := query.Bool(queryParams.Get("is_featured")); ok {
		filter.IsFeatured = &value
	}

	products, total, err := handler.service.ListProducts(
		request.Context(),
		filter,
		queryParams.Get("category"),
		queryParams.Get("category_tree"),
		params,
	)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if products == nil {
		products = []*Product{}
	}

	respond.Results(writer, products, total, pagination.NewLinks(request, params, total))
}

/*
GET /api/products/{slug}/.

Description: Retrieves full product detail including images and variants.

Response:
  - 200: Product: Success
  - 404: ErrNotFound: Product not found
*/
func (handler *Handler) getProduct(writer http.ResponseWriter, request *http.Request) {
	productSlug := requestutil.Param(request, "slug")

	product, err := handler.service.GetProduct(request.Context(), productSlug)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, product)
}

/*
GET /api/products/featured/.

Description: Returns the homepage featured selection. Served from a short
TTL cache.

Response:
  - 200: []Product: Featured products (raw array, not paginated)
*/
func (handler *Handler) featuredProducts(writer http.ResponseWriter, request *http.Request) {
	products, err := handler.service.FeaturedProducts(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, products)
}

/*
GET /api/products/search/suggestions/.

Description: Typeahead endpoint for the storefront search box. Queries
shorter than two characters return empty groups without a database hit.

Request:
  - q: string

Response:
  - 200: {suggestions: {products, categories, brands}}
*/
func (handler *Handler) searchSuggestions(writer http.ResponseWriter, request *http.Request) {
	suggestions, err := handler.service.SearchSuggestions(request.Context(), request.URL.Query().Get("q"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	// Legacy storefront scripts expect the wrapped shape
	respond.OK(writer, map[string]any{"suggestions": suggestions})
}

// # Category Endpoints

/*
GET /api/products/categories/.

Response:
  - 200: []Category: Flat active category list with product counts
*/
func (handler *Handler) listCategories(writer http.ResponseWriter, request *http.Request) {
	categories, err := handler.service.Categories(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if categories == nil {
		categories = []*Category{}
	}

	respond.OK(writer, categories)
}

/*
GET /api/products/categories/tree/.

Response:
  - 200: []Category: Root categories with nested children
*/
func (handler *Handler) categoryTree(writer http.ResponseWriter, request *http.Request) {
	roots, err := handler.service.CategoryTree(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, roots)
}

/*
GET /api/products/categories/{slug}/.

Response:
  - 200: Category: Success
  - 404: ErrNotFound: Category not found
*/
func (handler *Handler) getCategory(writer http.ResponseWriter, request *http.Request) {
	categorySlug := requestutil.Param(request, "slug")

	category, err := handler.service.GetCategory(request.Context(), categorySlug)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, category)
}

// # Request Payloads

// createProductRequest defines the inbound JSON schema for product creation.
type createProductRequest struct {
	Name             string   `json:"name"`
	Brand            string   `json:"brand"`
	Model            string   `json:"model"`
	Year             *int     `json:"year"`
	Description      string   `json:"description"`
	ShortDescription string   `json:"short_description"`
	CategoryID       int64    `json:"category_id"`
	Price            float64  `json:"price"`
	ComparePrice     *float64 `json:"compare_price"`
	StockQuantity    int      `json:"stock_quantity"`
	Status           Status   `json:"status"`
	IsFeatured       bool     `json:"is_featured"`
}

// # Mutation Endpoints

/*
POST /api/products/.

Description: Creates a new product in the catalogue. Slug and SKU are
auto-generated from the name and category when not provided.

Response:
  - 201: Product: Created product object
  - 400: ErrInvalidJSON/Validation: Invalid input data
  - 403: ErrForbidden: Insufficient permissions
  - 409: ErrConflict: Duplicate slug or SKU
*/
func (handler *Handler) createProduct(writer http.ResponseWriter, request *http.Request) {
	var input createProductRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	product := &Product{
		Name:             input.Name,
		Brand:            input.Brand,
		Model:            input.Model,
		Year:             input.Year,
		Description:      input.Description,
		ShortDescription: input.ShortDescription,
		CategoryID:       input.CategoryID,
		Price:            input.Price,
		ComparePrice:     input.ComparePrice,
		StockQuantity:    input.StockQuantity,
		Status:           input.Status,
		IsFeatured:       input.IsFeatured,
	}

	if err := handler.service.CreateProduct(request.Context(), product); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, product)
}

/*
PATCH /api/products/{slug}/.

Description: Applies a partial update to an existing product. Omitted
fields keep their current values; slug and SKU are immutable.

Response:
  - 200: Product: Updated product object
  - 400: ErrInvalidJSON/Validation: Invalid input data
  - 404: ErrNotFound: Product not found
*/
func (handler *Handler) updateProduct(writer http.ResponseWriter, request *http.Request) {
	productSlug := requestutil.Param(request, "slug")

	var input UpdateProductInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	product, err := handler.service.UpdateProduct(request.Context(), productSlug, input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, product)
}
