// Copyright (c) 2026 MotoWorld. All rights reserved.
// Author: dev@motoworld.shop

package storefront

import (
	"context"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

// # Catalog Types

// ProductSummary is one card in the product grid.
type ProductSummary struct {
	ID         int64    `json:"id"`
	Name       string   `json:"name"`
	Slug       string   `json:"slug"`
	Brand      string   `json:"brand"`
	Price      float64  `json:"price"`
	SalePrice  *float64 `json:"sale_price"`
	Rating     float64  `json:"rating_avg"`
	IsFeatured bool     `json:"is_featured"`
}

// ProductPage is one page of the paginated catalog listing.
type ProductPage struct {
	Count    int              `json:"count"`
	Next     *string          `json:"next"`
	Previous *string          `json:"previous"`
	Results  []ProductSummary `json:"results"`
}

// HasNext derives solely from the server's link presence; the client
// never computes page counts itself.
func (page *ProductPage) HasNext() bool { return page.Next != nil }

// HasPrev derives solely from the server's link presence.
func (page *ProductPage) HasPrev() bool { return page.Previous != nil }

// CategoryNode is one node of the category tree.
type CategoryNode struct {
	ID           int64          `json:"id"`
	Name         string         `json:"name"`
	Slug         string         `json:"slug"`
	ProductCount int            `json:"product_count"`
	Children     []CategoryNode `json:"children"`
}

// SuggestionGroups is the typeahead payload: matching products,
// categories, and brands.
type SuggestionGroups struct {
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

// Debounce and typeahead tuning, matching the browser scripts.
const (
	DefaultDebounce    = 300 * time.Millisecond
	MinSuggestionQuery = 2
)

// # Catalog Controller

/*
CatalogController tracks the active filters and page number and fetches
matching product pages.

# State Rules

  - Any filter change resets the page to 1: a filtered result set's
    page count differs from the unfiltered one, so a carried-over page
    number would be incoherent. The controller enforces this; callers
    cannot opt out.
  - Responses apply last-issued-wins: a slow fetch whose filters have
    since changed is discarded when it finally resolves.
  - Typeahead fetches ride a single-slot debounce timer; only the last
    keystroke in a burst produces a network call.
*/
type CatalogController struct {
	client   *Client
	logger   *slog.Logger
	debounce time.Duration

	mutex      sync.Mutex
	filters    map[string]string
	page       int
	generation uint64
	lastPage   *ProductPage
	pending    *time.Timer
}

// NewCatalogController constructs a controller at page 1 with no filters.
func NewCatalogController(client *Client, logger *slog.Logger) *CatalogController {
	return &CatalogController{
		client:   client,
		logger:   logger,
		debounce: DefaultDebounce,
		filters:  map[string]string{},
		page:     1,
	}
}

// SetDebounce overrides the typeahead quiet window, mainly for tests.
func (controller *CatalogController) SetDebounce(window time.Duration) {
	controller.mutex.Lock()
	defer controller.mutex.Unlock()
	controller.debounce = window
}

/*
SetFilter sets or clears one filter key. An empty value clears.

Any call that changes the filter mapping resets the page to 1.

Parameters:
  - key: string: e.g. "category", "search", "price_min", "price_max"
  - value: string
*/
func (controller *CatalogController) SetFilter(key, value string) {
	controller.mutex.Lock()
	defer controller.mutex.Unlock()

	previous, existed := controller.filters[key]

	if value == "" {
		if !existed {
			return
		}
		delete(controller.filters, key)
		controller.page = 1
		return
	}

	if existed && previous == value {
		return
	}
	controller.filters[key] = value
	controller.page = 1
}

// SetPage moves to a page number; values below 1 clamp to 1.
func (controller *CatalogController) SetPage(page int) {
	controller.mutex.Lock()
	defer controller.mutex.Unlock()

	if page < 1 {
		page = 1
	}
	controller.page = page
}

// Page returns the current page number.
func (controller *CatalogController) Page() int {
	controller.mutex.Lock()
	defer controller.mutex.Unlock()
	return controller.page
}

// Filters returns a copy of the active filter mapping.
func (controller *CatalogController) Filters() map[string]string {
	controller.mutex.Lock()
	defer controller.mutex.Unlock()

	filters := make(map[string]string, len(controller.filters))
	for key, value := range controller.filters {
		filters[key] = value
	}
	return filters
}

// LastPage returns the most recently applied result page, nil before
// the first successful fetch.
func (controller *CatalogController) LastPage() *ProductPage {
	controller.mutex.Lock()
	defer controller.mutex.Unlock()
	return controller.lastPage
}

/*
Refetch fetches the page matching the current filters and page number.

A response is applied to shared state only when no newer fetch was
issued while it was in flight; stale responses are returned to their
caller but discarded from display state.

Parameters:
  - context: context.Context

Returns:
  - *ProductPage: The fetched page
  - error: Transport or server failures
*/
func (controller *CatalogController) Refetch(context context.Context) (*ProductPage, error) {
	controller.mutex.Lock()
	controller.generation++
	issued := controller.generation

	values := url.Values{}
	for key, value := range controller.filters {
		values.Set(key, value)
	}
	values.Set("page", strconv.Itoa(controller.page))
	controller.mutex.Unlock()

	page, err := controller.client.Products(context, values)
	if err != nil {
		return nil, err
	}

	controller.mutex.Lock()
	if controller.generation == issued {
		controller.lastPage = page
	} else {
		controller.logger.Debug("stale_catalog_response_discarded")
	}
	controller.mutex.Unlock()

	return page, nil
}

/*
Suggest schedules a debounced typeahead fetch.

Successive calls within the quiet window replace the pending fetch, so
a burst of keystrokes yields exactly one request, for the last input.
Queries shorter than [MinSuggestionQuery] characters cancel any pending
fetch and deliver empty groups immediately, with zero network activity.

Parameters:
  - context: context.Context
  - query: string: Current search box contents
  - deliver: func(*SuggestionGroups): Invoked with the fetched groups;
    not invoked for fetch failures (logged, state unchanged)
*/
func (controller *CatalogController) Suggest(context context.Context, query string, deliver func(*SuggestionGroups)) {
	trimmed := strings.TrimSpace(query)

	controller.mutex.Lock()
	if controller.pending != nil {
		controller.pending.Stop()
		controller.pending = nil
	}

	if len([]rune(trimmed)) < MinSuggestionQuery {
		controller.mutex.Unlock()
		deliver(&SuggestionGroups{
			Products:   []ProductSuggestion{},
			Categories: []CategorySuggestion{},
			Brands:     []string{},
		})
		return
	}

	controller.pending = time.AfterFunc(controller.debounce, func() {
		groups, err := controller.client.Suggestions(context, trimmed)
		if err != nil {
			controller.logger.Warn("suggestion_fetch_failed", slog.String("error", err.Error()))
			return
		}
		deliver(groups)
	})
	controller.mutex.Unlock()
}
