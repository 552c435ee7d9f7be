// Copyright (c) 2026 MotoWorld. All rights reserved.
// Author: dev@motoworld.shop

package storefront

import (
	"context"
	"log/slog"
	"sync"
)

// # Cart Types

// LineItem is one product (and optional variant) with a quantity.
type LineItem struct {
	ID          int64   `json:"id"`
	ProductID   int64   `json:"product_id"`
	VariantID   *int64  `json:"variant_id"`
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	Subtotal    float64 `json:"subtotal"`
}

// CartView is the server's cart payload.
type CartView struct {
	ID         int64      `json:"id"`
	Items      []LineItem `json:"items"`
	TotalItems int        `json:"total_items"`
	TotalPrice float64    `json:"total_price"`
}

// # Cart Manager

/*
CartManager maintains the in-memory cart, synchronized from the server
when an identity is resolved.

The server is the single source of truth: AddItem never appends
locally, it posts and then re-loads, so server-computed totals and
stock checks can never drift from what is displayed.
*/
type CartManager struct {
	client  *Client
	session *Session
	logger  *slog.Logger

	mutex sync.Mutex
	items []LineItem
}

// NewCartManager wires a [CartManager] over the client and session.
func NewCartManager(client *Client, session *Session, logger *slog.Logger) *CartManager {
	return &CartManager{
		client:  client,
		session: session,
		logger:  logger,
	}
}

/*
Load replaces the entire in-memory item sequence from the server.

Failures are logged and leave the cart empty rather than erroring: a
missing cart never blocks the page.

Parameters:
  - context: context.Context

Returns:
  - []LineItem: The refreshed items (never nil)
*/
func (manager *CartManager) Load(context context.Context) []LineItem {
	if manager.session.Current() == nil {
		manager.replace(nil)
		return manager.Items()
	}

	cart, err := manager.client.FetchCart(context)
	if err != nil {
		manager.logger.Warn("cart_load_failed", slog.String("error", err.Error()))
		manager.replace(nil)
		return manager.Items()
	}

	manager.replace(cart.Items)
	return manager.Items()
}

/*
AddItem adds a product to the server cart and refreshes local state.

Guests get [ErrAuthRequired] before any network activity; the UI
responds by prompting login rather than dropping the item silently.

Parameters:
  - context: context.Context
  - productID: int64
  - variantID: *int64: Optional variant selection
  - quantity: int: Defaults to 1 when not positive

Returns:
  - error: ErrAuthRequired for guests, *APIError for server rejections
*/
func (manager *CartManager) AddItem(context context.Context, productID int64, variantID *int64, quantity int) error {
	if manager.session.Current() == nil {
		return ErrAuthRequired
	}

	if quantity < 1 {
		quantity = 1
	}

	if err := manager.client.PostCartAdd(context, productID, variantID, quantity); err != nil {
		return err
	}

	manager.Load(context)
	return nil
}

// Items returns a copy of the current line items.
func (manager *CartManager) Items() []LineItem {
	manager.mutex.Lock()
	defer manager.mutex.Unlock()

	items := make([]LineItem, len(manager.items))
	copy(items, manager.items)
	return items
}

// TotalCount is the displayed badge count: the sum of quantities over
// all line items, recomputed on every read.
func (manager *CartManager) TotalCount() int {
	manager.mutex.Lock()
	defer manager.mutex.Unlock()

	total := 0
	for _, item := range manager.items {
		total += item.Quantity
	}
	return total
}

func (manager *CartManager) replace(items []LineItem) {
	manager.mutex.Lock()
	defer manager.mutex.Unlock()

	if items == nil {
		items = []LineItem{}
	}
	manager.items = items
}
