// Copyright (c) 2026 MotoWorld. All rights reserved.
// Author: dev@motoworld.shop

package orders

import (
	"context"

	"github.com/motoworld/api/pkg/pagination"
)

// # Repository Contracts

// CartRepository defines the persistence contract for shopping carts.
type CartRepository interface {

	/*
		FindOrCreate returns the user's cart, creating an empty one on first
		use. Items are returned hydrated with current catalogue details.

		Parameters:
		  - context: context.Context
		  - userID: int64

		Returns:
		  - *Cart: The user's cart with hydrated items
		  - error: Database execution errors
	*/
	FindOrCreate(context context.Context, userID int64) (*Cart, error)

	/*
		FindItem locates a cart row by its (product, variant) pair.

		Parameters:
		  - context: context.Context
		  - cartID: int64
		  - productID: int64
		  - variantID: *int64 (nil matches rows without a variant)

		Returns:
		  - *CartItem: The matching row
		  - error: apperr.NotFound when no such row exists
	*/
	FindItem(context context.Context, cartID, productID int64, variantID *int64) (*CartItem, error)

	/*
		FindItemByID locates a cart row by primary key, scoped to the cart.

		Parameters:
		  - context: context.Context
		  - cartID: int64
		  - itemID: int64

		Returns:
		  - *CartItem: The matching row
		  - error: apperr.NotFound when the row is absent or owned elsewhere
	*/
	FindItemByID(context context.Context, cartID, itemID int64) (*CartItem, error)

	/*
		CreateItem inserts a new cart row and assigns the generated ID.

		Parameters:
		  - context: context.Context
		  - item: *CartItem (CartID, ProductID, VariantID, Quantity set)

		Returns:
		  - error: Persistence failures
	*/
	CreateItem(context context.Context, item *CartItem) error

	/*
		UpdateItemQuantity sets the quantity of an existing cart row.

		Parameters:
		  - context: context.Context
		  - itemID: int64
		  - quantity: int

		Returns:
		  - error: Persistence failures
	*/
	UpdateItemQuantity(context context.Context, itemID int64, quantity int) error

	/*
		DeleteItem removes a cart row, scoped to the cart.

		Parameters:
		  - context: context.Context
		  - cartID: int64
		  - itemID: int64

		Returns:
		  - error: Persistence failures
	*/
	DeleteItem(context context.Context, cartID, itemID int64) error

	/*
		Clear removes every row from the cart.

		Parameters:
		  - context: context.Context
		  - cartID: int64

		Returns:
		  - error: Persistence failures
	*/
	Clear(context context.Context, cartID int64) error
}

// OrderRepository defines the persistence contract for orders.
type OrderRepository interface {

	/*
		CreateFromCart atomically converts a cart into the given order.

		Description: Runs inside a single database transaction: inserts the
		order and its pre-built item snapshots, decrements product or variant
		stock with a guard against overselling, writes the initial status
		history entry, and clears the cart. Any failure rolls the whole
		conversion back.

		Parameters:
		  - context: context.Context
		  - order: *Order (ID, totals, shipping and Items populated)
		  - cartID: int64 (Cart to clear on success)

		Returns:
		  - error: apperr.Unprocessable when stock ran out mid-checkout,
		    or persistence failures
	*/
	CreateFromCart(context context.Context, order *Order, cartID int64) error

	/*
		ListByUser returns the user's orders newest-first with the total count.

		Parameters:
		  - context: context.Context
		  - userID: int64
		  - params: pagination.Params

		Returns:
		  - []*Order: Page of orders (items and history not loaded)
		  - int: Total order count for the user
		  - error: Database execution errors
	*/
	ListByUser(context context.Context, userID int64, params pagination.Params) ([]*Order, int, error)

	/*
		FindByID returns a fully hydrated order including items and history.

		Parameters:
		  - context: context.Context
		  - id: string (UUID)

		Returns:
		  - *Order: The hydrated order
		  - error: apperr.NotFound if the order does not exist
	*/
	FindByID(context context.Context, id string) (*Order, error)

	/*
		UpdateStatus transitions an order and appends a history entry
		atomically.

		Parameters:
		  - context: context.Context
		  - order: *Order (Status and timestamp fields already updated)
		  - entry: *StatusHistory (Audit entry to append)

		Returns:
		  - error: Persistence failures
	*/
	UpdateStatus(context context.Context, order *Order, entry *StatusHistory) error
}
