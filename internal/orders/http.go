// Copyright (c) 2026 MotoWorld. All rights reserved.
// Author: dev@motoworld.shop

/*
HTTP interface for the purchasing pipeline.

Every route requires authentication: guests never reach this surface (the
storefront client refuses cart operations locally before any request is
made). Cart mutations respond with the full refreshed cart so the client
can replace its state wholesale.
*/
package orders

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/motoworld/api/internal/platform/middleware"
	requestutil "github.com/motoworld/api/internal/platform/request"
	"github.com/motoworld/api/internal/platform/respond"
	"github.com/motoworld/api/internal/platform/sec"
	"github.com/motoworld/api/pkg/pagination"
)

// # Handler Implementation

// Handler implements the HTTP layer for carts and orders.
type Handler struct {
	service *Service
}

// NewHandler constructs a new orders [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns a [chi.Router] configured with the purchasing endpoints.
//
// # Routing Strategy
//
//   - Customer: Every route requires authentication; carts and orders are
//     always scoped to the caller.
//   - Administration: Status transitions require [sec.RoleAdmin].
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireAuth)

	// ## Cart State
	router.Get("/cart/", handler.showCart)
	router.Post("/cart/add/", handler.addToCart)
	router.Patch("/cart/items/{id}/", handler.updateCartItem)
	router.Delete("/cart/items/{id}/", handler.removeCartItem)
	router.Post("/cart/clear/", handler.clearCart)

	// ## Checkout & History
	router.Post("/checkout/", handler.checkout)
	router.Get("/", handler.listOrders)
	router.Get("/{id}/", handler.getOrder)

	// ## Fulfilment (Admin Protected)
	router.Group(func(admin chi.Router) {
		admin.Use(middleware.RequireRole(sec.RoleAdmin))
		admin.Patch("/{id}/status/", handler.updateOrderStatus)
	})

	return router
}

// # Response Payloads

// cartPayload is the wire shape of a cart. The aggregate and per-row totals
// are derived server-side; clients treat them as authoritative.
type cartPayload struct {
	ID         int64             `json:"id"`
	Items      []cartItemPayload `json:"items"`
	TotalItems int               `json:"total_items"`
	TotalPrice float64           `json:"total_price"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

type cartItemPayload struct {
	*CartItem
	RowSubtotal float64 `json:"subtotal"`
}

func newCartPayload(cart *Cart) cartPayload {
	items := make([]cartItemPayload, 0, len(cart.Items))
	for _, item := range cart.Items {
		items = append(items, cartItemPayload{CartItem: item, RowSubtotal: item.Subtotal()})
	}
	return cartPayload{
		ID:         cart.ID,
		Items:      items,
		TotalItems: cart.TotalItems(),
		TotalPrice: cart.TotalPrice(),
		UpdatedAt:  cart.UpdatedAt,
	}
}

// orderPayload decorates an order with its derived human-readable number.
type orderPayload struct {
	*Order
	OrderNumber string `json:"order_number"`
}

func newOrderPayload(order *Order) orderPayload {
	return orderPayload{Order: order, OrderNumber: order.Number()}
}

func newOrderPayloads(ordersPage []*Order) []orderPayload {
	payloads := make([]orderPayload, 0, len(ordersPage))
	for _, order := range ordersPage {
		payloads = append(payloads, newOrderPayload(order))
	}
	return payloads
}

// # Cart Endpoints

/*
GET /api/orders/cart/.

Response:
  - 200: cartPayload: {id, items, total_items, total_price}
  - 401: ErrUnauthorized: Missing credentials
*/
func (handler *Handler) showCart(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	cart, err := handler.service.Cart(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, newCartPayload(cart))
}

/*
POST /api/orders/cart/add/.

Description: Adds a product to the cart. Duplicate (product, variant) rows
merge server-side.

Request (Body):
  - product_id: int64
  - variant_id: int64 (optional)
  - quantity: int (>= 1)

Response:
  - 200: cartPayload: The refreshed cart
  - 400: Validation: Invalid quantity
  - 404: ErrNotFound: Unknown product
  - 422: ErrUnprocessable: Inactive product, foreign variant, or no stock
*/
func (handler *Handler) addToCart(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input AddItemInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	cart, err := handler.service.AddToCart(request.Context(), userID, input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, newCartPayload(cart))
}

// updateCartItemRequest carries a quantity change for a cart row.
type updateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

/*
PATCH /api/orders/cart/items/{id}/.

Response:
  - 200: cartPayload: The refreshed cart
  - 404: ErrNotFound: Row absent or owned by another cart
  - 422: ErrUnprocessable: Quantity exceeds stock
*/
func (handler *Handler) updateCartItem(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	itemID, err := requestutil.IntParam(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input updateCartItemRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	cart, err := handler.service.UpdateItemQuantity(request.Context(), userID, itemID, input.Quantity)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, newCartPayload(cart))
}

/*
DELETE /api/orders/cart/items/{id}/.

Response:
  - 200: cartPayload: The refreshed cart
  - 404: ErrNotFound: Row absent or owned by another cart
*/
func (handler *Handler) removeCartItem(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	itemID, err := requestutil.IntParam(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	cart, err := handler.service.RemoveItem(request.Context(), userID, itemID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, newCartPayload(cart))
}

/*
POST /api/orders/cart/clear/.

Response:
  - 200: cartPayload: The emptied cart
*/
func (handler *Handler) clearCart(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	cart, err := handler.service.ClearCart(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, newCartPayload(cart))
}

// # Order Endpoints

/*
POST /api/orders/checkout/.

Description: Converts the caller's cart into an order inside one database
transaction. The cart is empty afterwards.

Request (Body):
  - payment_method: string (cod, bank_transfer, credit_card, paypal)
  - shipping: object (name, email, phone, address, city, state, postal_code, country)
  - notes: string (optional)

Response:
  - 201: orderPayload: The created order with items
  - 400: Validation: Incomplete shipping details
  - 422: ErrUnprocessable: Empty cart or insufficient stock
*/
func (handler *Handler) checkout(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input CheckoutInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	order, err := handler.service.Checkout(request.Context(), userID, input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, newOrderPayload(order))
}

/*
GET /api/orders/.

Response:
  - 200: Paginated list envelope of the caller's orders, newest first
*/
func (handler *Handler) listOrders(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	params := pagination.FromRequest(request)

	ordersPage, total, err := handler.service.Orders(request.Context(), userID, params)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Results(writer, newOrderPayloads(ordersPage), total, pagination.NewLinks(request, params, total))
}

/*
GET /api/orders/{id}/.

Description: Customers see their own orders; staff see all. Foreign orders
resolve to 404.

Response:
  - 200: orderPayload: The hydrated order with items and status history
  - 404: ErrNotFound: Unknown or foreign order
*/
func (handler *Handler) getOrder(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	order, err := handler.service.Order(
		request.Context(),
		requestutil.Param(request, "id"),
		claims.UserID,
		sec.UserRole(claims.Role).IsStaff(),
	)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, newOrderPayload(order))
}

// updateStatusRequest carries a fulfilment transition.
type updateStatusRequest struct {
	Status         OrderStatus `json:"status"`
	Notes          string      `json:"notes"`
	TrackingNumber string      `json:"tracking_number"`
}

/*
PATCH /api/orders/{id}/status/.

Description: Transitions an order through the fulfilment pipeline and
appends an audit entry. Shipped/delivered timestamps are set on first
entry into those statuses.

Response:
  - 200: orderPayload: The updated order
  - 400: Validation: Unknown status value
  - 403: ErrForbidden: Caller is not an administrator
  - 404: ErrNotFound: Unknown order
*/
func (handler *Handler) updateOrderStatus(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input updateStatusRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	order, err := handler.service.UpdateStatus(
		request.Context(),
		requestutil.Param(request, "id"),
		input.Status,
		input.Notes,
		input.TrackingNumber,
		claims.UserID,
	)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, newOrderPayload(order))
}
