// Copyright (c) 2026 MotoWorld. All rights reserved.
// Author: dev@motoworld.shop

/*
PostgreSQL implementation for the purchasing pipeline's data access.

Cart reads hydrate live catalogue details (names, prices, stock) via joins,
so the cart payload is always priced against the current catalogue. The
checkout conversion runs as a single transaction with conditional stock
decrements guarding against overselling under concurrency.
*/
package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/motoworld/api/internal/platform/apperr"
	"github.com/motoworld/api/pkg/pagination"
)

// # Cart Repository

// cartRepository implements the [CartRepository] interface using pgx.
type cartRepository struct {
	pool *pgxpool.Pool
}

// NewCartRepository constructs a PostgreSQL backed cart store.
func NewCartRepository(pool *pgxpool.Pool) CartRepository {
	return &cartRepository{pool: pool}
}

// cartItemQuery hydrates cart rows with live catalogue details. The unit
// price folds in the variant adjustment; stock reflects the chosen variant
// when present.
const cartItemQuery = `
	SELECT
		ci.id, ci.cartid, ci.productid, ci.variantid, ci.quantity,
		p.name, p.slug,
		COALESCE(img.url, '') AS productimage,
		COALESCE(v.name, '') AS variantname,
		p.price + COALESCE(v.priceadjustment, 0) AS unitprice,
		CASE WHEN ci.variantid IS NULL THEN p.stockquantity ELSE v.stockquantity END AS availablestock,
		ci.createdat, ci.updatedat
	FROM orders.cartitem ci
	JOIN catalog.product p ON p.id = ci.productid
	LEFT JOIN catalog.productvariant v ON v.id = ci.variantid
	LEFT JOIN LATERAL (
		SELECT url FROM catalog.productimage
		WHERE productid = p.id
		ORDER BY isprimary DESC, sortorder
		LIMIT 1
	) img ON TRUE
`

// scanCartItem reads one hydrated cart row.
func scanCartItem(row pgx.Row) (*CartItem, error) {
	item := &CartItem{}
	err := row.Scan(
		&item.ID,
		&item.CartID,
		&item.ProductID,
		&item.VariantID,
		&item.Quantity,
		&item.ProductName,
		&item.ProductSlug,
		&item.ProductImage,
		&item.VariantName,
		&item.UnitPrice,
		&item.AvailableStock,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return item, nil
}

/*
FindOrCreate returns the user's cart, creating an empty one on first use.

Description: Uses an upsert on the unique user constraint so concurrent
first requests converge on a single cart row. Items are hydrated with
current catalogue details in a second query.

Parameters:
  - context: context.Context
  - userID: int64

Returns:
  - *Cart: The user's cart with hydrated items (Items never nil)
  - error: Database execution errors
*/
func (repository *cartRepository) FindOrCreate(context context.Context, userID int64) (*Cart, error) {
	const upsert = `
		INSERT INTO orders.cart (userid)
		VALUES ($1)
		ON CONFLICT (userid) DO UPDATE SET userid = EXCLUDED.userid
		RETURNING id, userid, createdat, updatedat`

	cart := &Cart{Items: []*CartItem{}}
	err := repository.pool.QueryRow(context, upsert, userID).Scan(
		&cart.ID,
		&cart.UserID,
		&cart.CreatedAt,
		&cart.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to upsert cart: %w", err)
	}

	rows, err := repository.pool.Query(context, cartItemQuery+" WHERE ci.cartid = $1 ORDER BY ci.createdat, ci.id", cart.ID)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to list cart items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		item, err := scanCartItem(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: failed to scan cart item: %w", err)
		}
		cart.Items = append(cart.Items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: failed reading cart rows: %w", err)
	}

	return cart, nil
}

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
func (repository *cartRepository) FindItem(context context.Context, cartID, productID int64, variantID *int64) (*CartItem, error) {
	query := cartItemQuery + ` WHERE ci.cartid = $1 AND ci.productid = $2 AND ci.variantid IS NOT DISTINCT FROM $3`

	item, err := scanCartItem(repository.pool.QueryRow(context, query, cartID, productID, variantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Cart item")
		}
		return nil, fmt.Errorf("postgres: failed to find cart item: %w", err)
	}

	return item, nil
}

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
func (repository *cartRepository) FindItemByID(context context.Context, cartID, itemID int64) (*CartItem, error) {
	query := cartItemQuery + ` WHERE ci.cartid = $1 AND ci.id = $2`

	item, err := scanCartItem(repository.pool.QueryRow(context, query, cartID, itemID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Cart item")
		}
		return nil, fmt.Errorf("postgres: failed to find cart item by id: %w", err)
	}

	return item, nil
}

/*
CreateItem inserts a new cart row and assigns the generated ID.

Parameters:
  - context: context.Context
  - item: *CartItem

Returns:
  - error: Persistence failures
*/
func (repository *cartRepository) CreateItem(context context.Context, item *CartItem) error {
	const query = `
		INSERT INTO orders.cartitem (cartid, productid, variantid, quantity)
		VALUES ($1, $2, $3, $4)
		RETURNING id, createdat, updatedat`

	err := repository.pool.QueryRow(context, query,
		item.CartID,
		item.ProductID,
		item.VariantID,
		item.Quantity,
	).Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)

	if err != nil {
		return fmt.Errorf("postgres: failed to create cart item: %w", err)
	}

	return nil
}

/*
UpdateItemQuantity sets the quantity of an existing cart row.

Parameters:
  - context: context.Context
  - itemID: int64
  - quantity: int

Returns:
  - error: Persistence failures
*/
func (repository *cartRepository) UpdateItemQuantity(context context.Context, itemID int64, quantity int) error {
	const query = `
		UPDATE orders.cartitem
		SET quantity = $2, updatedat = NOW()
		WHERE id = $1`

	if _, err := repository.pool.Exec(context, query, itemID, quantity); err != nil {
		return fmt.Errorf("postgres: failed to update cart item: %w", err)
	}

	return nil
}

/*
DeleteItem removes a cart row, scoped to the cart.

Parameters:
  - context: context.Context
  - cartID: int64
  - itemID: int64

Returns:
  - error: Persistence failures
*/
func (repository *cartRepository) DeleteItem(context context.Context, cartID, itemID int64) error {
	const query = "DELETE FROM orders.cartitem WHERE cartid = $1 AND id = $2"

	if _, err := repository.pool.Exec(context, query, cartID, itemID); err != nil {
		return fmt.Errorf("postgres: failed to delete cart item: %w", err)
	}

	return nil
}

/*
Clear removes every row from the cart.

Parameters:
  - context: context.Context
  - cartID: int64

Returns:
  - error: Persistence failures
*/
func (repository *cartRepository) Clear(context context.Context, cartID int64) error {
	const query = "DELETE FROM orders.cartitem WHERE cartid = $1"

	if _, err := repository.pool.Exec(context, query, cartID); err != nil {
		return fmt.Errorf("postgres: failed to clear cart: %w", err)
	}

	return nil
}

// # Order Repository

// orderRepository implements the [OrderRepository] interface using pgx.
type orderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository constructs a PostgreSQL backed order store.
func NewOrderRepository(pool *pgxpool.Pool) OrderRepository {
	return &orderRepository{pool: pool}
}

/*
CreateFromCart atomically converts a cart into the given order.

Description: The conversion runs as one transaction: the order row is
inserted, each item snapshot is written while the corresponding product or
variant stock is decremented with a conditional UPDATE (the guard fails if
a concurrent checkout consumed the stock first), the initial status history
entry is recorded, and finally the source cart is emptied.

Parameters:
  - context: context.Context
  - order: *Order (ID, totals, shipping and Items populated)
  - cartID: int64

Returns:
  - error: apperr.Unprocessable when stock ran out mid-checkout,
    or persistence failures
*/
func (repository *orderRepository) CreateFromCart(context context.Context, order *Order, cartID int64) error {
	transaction, err := repository.pool.Begin(context)
	if err != nil {
		return fmt.Errorf("postgres: failed to begin transaction: %w", err)
	}
	defer transaction.Rollback(context)

	const insertOrder = `
		INSERT INTO orders.customerorder (
			id, userid, status, paymentmethod,
			subtotal, shippingcost, taxamount, discountamount, totalamount,
			shippingname, shippingemail, shippingphone, shippingaddress,
			shippingcity, shippingstate, shippingpostalcode, shippingcountry,
			notes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING createdat, updatedat`

	err = transaction.QueryRow(context, insertOrder,
		order.ID,
		order.UserID,
		order.Status,
		order.PaymentMethod,
		order.Subtotal,
		order.ShippingCost,
		order.TaxAmount,
		order.DiscountAmount,
		order.TotalAmount,
		order.Shipping.Name,
		order.Shipping.Email,
		order.Shipping.Phone,
		order.Shipping.Address,
		order.Shipping.City,
		order.Shipping.State,
		order.Shipping.PostalCode,
		order.Shipping.Country,
		order.Notes,
	).Scan(&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("postgres: failed to create order: %w", err)
	}

	const decrementVariant = `
		UPDATE catalog.productvariant
		SET stockquantity = stockquantity - $2
		WHERE id = $1 AND stockquantity >= $2`

	const decrementProduct = `
		UPDATE catalog.product
		SET stockquantity = stockquantity - $2, updatedat = NOW()
		WHERE id = $1 AND stockquantity >= $2`

	const insertItem = `
		INSERT INTO orders.orderitem (
			orderid, productid, variantid, quantity, unitprice, totalprice,
			productname, productsku, variantname
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`

	for _, item := range order.Items {

		// Conditional decrement guards against overselling
		decrement, decrementID := decrementProduct, item.ProductID
		if item.VariantID != nil {
			decrement, decrementID = decrementVariant, *item.VariantID
		}

		result, err := transaction.Exec(context, decrement, decrementID, item.Quantity)
		if err != nil {
			return fmt.Errorf("postgres: failed to decrement stock: %w", err)
		}
		if result.RowsAffected() == 0 {
			return apperr.Unprocessable(fmt.Sprintf("Insufficient stock for %s", item.ProductName))
		}

		err = transaction.QueryRow(context, insertItem,
			order.ID,
			item.ProductID,
			item.VariantID,
			item.Quantity,
			item.UnitPrice,
			item.TotalPrice,
			item.ProductName,
			item.ProductSKU,
			item.VariantName,
		).Scan(&item.ID)
		if err != nil {
			return fmt.Errorf("postgres: failed to create order item: %w", err)
		}
		item.OrderID = order.ID
	}

	const insertHistory = `
		INSERT INTO orders.orderstatushistory (orderid, status, notes, createdby)
		VALUES ($1, $2, $3, $4)`

	if _, err := transaction.Exec(context, insertHistory, order.ID, order.Status, "Order created", order.UserID); err != nil {
		return fmt.Errorf("postgres: failed to record order status: %w", err)
	}

	if _, err := transaction.Exec(context, "DELETE FROM orders.cartitem WHERE cartid = $1", cartID); err != nil {
		return fmt.Errorf("postgres: failed to clear cart: %w", err)
	}

	if err := transaction.Commit(context); err != nil {
		return fmt.Errorf("postgres: failed to commit checkout transaction: %w", err)
	}

	return nil
}

const orderColumns = `
	id, userid, status, paymentmethod,
	subtotal, shippingcost, taxamount, discountamount, totalamount,
	shippingname, shippingemail, shippingphone, shippingaddress,
	shippingcity, shippingstate, shippingpostalcode, shippingcountry,
	COALESCE(trackingnumber, ''), COALESCE(notes, ''),
	createdat, updatedat, shippedat, deliveredat`

// scanOrder reads one order row (items and history not included).
func scanOrder(row pgx.Row, extra ...any) (*Order, error) {
	order := &Order{}
	dest := []any{
		&order.ID,
		&order.UserID,
		&order.Status,
		&order.PaymentMethod,
		&order.Subtotal,
		&order.ShippingCost,
		&order.TaxAmount,
		&order.DiscountAmount,
		&order.TotalAmount,
		&order.Shipping.Name,
		&order.Shipping.Email,
		&order.Shipping.Phone,
		&order.Shipping.Address,
		&order.Shipping.City,
		&order.Shipping.State,
		&order.Shipping.PostalCode,
		&order.Shipping.Country,
		&order.TrackingNumber,
		&order.Notes,
		&order.CreatedAt,
		&order.UpdatedAt,
		&order.ShippedAt,
		&order.DeliveredAt,
	}
	dest = append(dest, extra...)

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return order, nil
}

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
func (repository *orderRepository) ListByUser(context context.Context, userID int64, params pagination.Params) ([]*Order, int, error) {
	query := `
		SELECT ` + orderColumns + `,
			COUNT(*) OVER() AS total_count
		FROM orders.customerorder
		WHERE userid = $1
		ORDER BY createdat DESC, id DESC
		LIMIT $2 OFFSET $3`

	rows, err := repository.pool.Query(context, query, userID, params.PageSize, params.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("postgres: failed to list orders: %w", err)
	}
	defer rows.Close()

	var ordersPage []*Order
	var totalCount int

	for rows.Next() {
		order, err := scanOrder(rows, &totalCount)
		if err != nil {
			return nil, 0, fmt.Errorf("postgres: failed to scan order: %w", err)
		}
		ordersPage = append(ordersPage, order)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("postgres: failed reading order rows: %w", err)
	}

	return ordersPage, totalCount, nil
}

/*
FindByID returns a fully hydrated order including items and history.

Parameters:
  - context: context.Context
  - id: string (UUID)

Returns:
  - *Order: The hydrated order
  - error: apperr.NotFound if the order does not exist
*/
func (repository *orderRepository) FindByID(context context.Context, id string) (*Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders.customerorder
		WHERE id = $1`

	order, err := scanOrder(repository.pool.QueryRow(context, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Order")
		}
		return nil, fmt.Errorf("postgres: failed to find order: %w", err)
	}

	// Item snapshots
	const itemQuery = `
		SELECT id, orderid, productid, variantid, quantity, unitprice, totalprice,
			productname, productsku, COALESCE(variantname, '')
		FROM orders.orderitem
		WHERE orderid = $1
		ORDER BY id`

	rows, err := repository.pool.Query(context, itemQuery, id)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to list order items: %w", err)
	}
	for rows.Next() {
		item := &OrderItem{}
		err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.VariantID,
			&item.Quantity,
			&item.UnitPrice,
			&item.TotalPrice,
			&item.ProductName,
			&item.ProductSKU,
			&item.VariantName,
		)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("postgres: failed to scan order item: %w", err)
		}
		order.Items = append(order.Items, item)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: failed reading order item rows: %w", err)
	}

	// Audit trail, newest first
	const historyQuery = `
		SELECT id, orderid, status, COALESCE(notes, ''), createdby, createdat
		FROM orders.orderstatushistory
		WHERE orderid = $1
		ORDER BY createdat DESC, id DESC`

	rows, err = repository.pool.Query(context, historyQuery, id)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to list order history: %w", err)
	}
	for rows.Next() {
		entry := &StatusHistory{}
		err := rows.Scan(
			&entry.ID,
			&entry.OrderID,
			&entry.Status,
			&entry.Notes,
			&entry.CreatedBy,
			&entry.CreatedAt,
		)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("postgres: failed to scan order history: %w", err)
		}
		order.History = append(order.History, entry)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: failed reading order history rows: %w", err)
	}

	return order, nil
}

/*
UpdateStatus transitions an order and appends a history entry atomically.

Parameters:
  - context: context.Context
  - order: *Order (Status and timestamp fields already updated)
  - entry: *StatusHistory

Returns:
  - error: Persistence failures
*/
func (repository *orderRepository) UpdateStatus(context context.Context, order *Order, entry *StatusHistory) error {
	transaction, err := repository.pool.Begin(context)
	if err != nil {
		return fmt.Errorf("postgres: failed to begin transaction: %w", err)
	}
	defer transaction.Rollback(context)

	const updateOrder = `
		UPDATE orders.customerorder
		SET status = $2, trackingnumber = NULLIF($3, ''), shippedat = $4, deliveredat = $5, updatedat = NOW()
		WHERE id = $1`

	if _, err := transaction.Exec(context, updateOrder,
		order.ID,
		order.Status,
		order.TrackingNumber,
		order.ShippedAt,
		order.DeliveredAt,
	); err != nil {
		return fmt.Errorf("postgres: failed to update order status: %w", err)
	}

	const insertHistory = `
		INSERT INTO orders.orderstatushistory (orderid, status, notes, createdby)
		VALUES ($1, $2, $3, $4)
		RETURNING id, createdat`

	if err := transaction.QueryRow(context, insertHistory,
		entry.OrderID,
		entry.Status,
		entry.Notes,
		entry.CreatedBy,
	).Scan(&entry.ID, &entry.CreatedAt); err != nil {
		return fmt.Errorf("postgres: failed to record order status: %w", err)
	}

	if err := transaction.Commit(context); err != nil {
		return fmt.Errorf("postgres: failed to commit status transaction: %w", err)
	}

	return nil
}
