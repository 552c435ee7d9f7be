// Copyright (c) 2026 MotoWorld. All rights reserved.
// Author: dev@motoworld.shop

package orders

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/motoworld/api/internal/catalog"
	"github.com/motoworld/api/internal/platform/apperr"
	"github.com/motoworld/api/internal/platform/validate"
	"github.com/motoworld/api/pkg/pagination"
	"github.com/motoworld/api/pkg/uuid"
)

// # Service Dependencies

// ProductFinder is the slice of the catalogue the purchasing pipeline needs:
// resolving a product (with variants) for validation and snapshotting.
type ProductFinder interface {
	FindByID(context context.Context, id int64) (*catalog.Product, error)
}

// # Service Layer

// Service orchestrates cart management and the checkout pipeline.
type Service struct {
	cartRepo  CartRepository
	orderRepo OrderRepository
	products  ProductFinder
	logger    *slog.Logger
}

// NewService constructs a new [Service] with its required repositories.
func NewService(cartRepo CartRepository, orderRepo OrderRepository, products ProductFinder, logger *slog.Logger) *Service {
	return &Service{
		cartRepo:  cartRepo,
		orderRepo: orderRepo,
		products:  products,
		logger:    logger,
	}
}

// # Cart Operations

/*
Cart returns the user's cart, creating an empty one on first use.

Parameters:
  - context: context.Context
  - userID: int64

Returns:
  - *Cart: The hydrated cart (Items never nil)
  - error: Repository level errors
*/
func (service *Service) Cart(context context.Context, userID int64) (*Cart, error) {
	return service.cartRepo.FindOrCreate(context, userID)
}

// AddItemInput carries a cart addition request.
type AddItemInput struct {
	ProductID int64  `json:"product_id"`
	VariantID *int64 `json:"variant_id"`
	Quantity  int    `json:"quantity"`
}

/*
AddToCart adds a product (optionally a specific variant) to the user's cart.

Description: Validates that the product is purchasable and, when a variant
is requested, that it belongs to the product and is active. Duplicate
(product, variant) rows merge server-side: the requested quantity is added
to the existing row, bounded by available stock.

Parameters:
  - context: context.Context
  - userID: int64
  - input: AddItemInput

Returns:
  - *Cart: The updated cart
  - error: Validation, stock, or repository errors
*/
func (service *Service) AddToCart(context context.Context, userID int64, input AddItemInput) (*Cart, error) {
	if input.Quantity < 1 {
		return nil, apperr.ValidationError("Quantity must be at least 1")
	}

	// Product must exist and be purchasable
	product, err := service.products.FindByID(context, input.ProductID)
	if err != nil {
		return nil, err
	}
	if product.Status != catalog.StatusActive {
		return nil, apperr.Unprocessable("Product not found or inactive")
	}

	// Variant resolution and scoping
	availableStock := product.StockQuantity
	if input.VariantID != nil {
		variant := findVariant(product, *input.VariantID)
		if variant == nil {
			return nil, apperr.Unprocessable("Product variant not found or inactive")
		}
		availableStock = variant.StockQuantity
	}

	if availableStock < input.Quantity {
		return nil, apperr.Unprocessable(fmt.Sprintf("Only %d items available in stock", availableStock))
	}

	cart, err := service.cartRepo.FindOrCreate(context, userID)
	if err != nil {
		return nil, err
	}

	// Merge with an existing (product, variant) row when present
	existing, err := service.cartRepo.FindItem(context, cart.ID, input.ProductID, input.VariantID)
	switch {
	case err == nil:
		newQuantity := existing.Quantity + input.Quantity
		if availableStock < newQuantity {
			return nil, apperr.Unprocessable(fmt.Sprintf(
				"Cannot add %d more items. Only %d more available",
				input.Quantity, availableStock-existing.Quantity,
			))
		}
		if err := service.cartRepo.UpdateItemQuantity(context, existing.ID, newQuantity); err != nil {
			return nil, err
		}

	case apperr.As(err) != nil && apperr.As(err).Code == "NOT_FOUND":
		item := &CartItem{
			CartID:    cart.ID,
			ProductID: input.ProductID,
			VariantID: input.VariantID,
			Quantity:  input.Quantity,
		}
		if err := service.cartRepo.CreateItem(context, item); err != nil {
			return nil, err
		}

	default:
		return nil, err
	}

	service.logger.Info("cart_item_added",
		slog.Int64("user_id", userID),
		slog.Int64("product_id", input.ProductID),
		slog.Int("quantity", input.Quantity),
	)

	return service.cartRepo.FindOrCreate(context, userID)
}

/*
UpdateItemQuantity sets the quantity of a cart row owned by the user.

Parameters:
  - context: context.Context
  - userID: int64
  - itemID: int64
  - quantity: int (must be >= 1; use RemoveItem to drop a row)

Returns:
  - *Cart: The updated cart
  - error: Validation, stock, or repository errors
*/
func (service *Service) UpdateItemQuantity(context context.Context, userID, itemID int64, quantity int) (*Cart, error) {
	if quantity < 1 {
		return nil, apperr.ValidationError("Quantity must be at least 1")
	}

	cart, err := service.cartRepo.FindOrCreate(context, userID)
	if err != nil {
		return nil, err
	}

	item, err := service.cartRepo.FindItemByID(context, cart.ID, itemID)
	if err != nil {
		return nil, err
	}

	if item.AvailableStock < quantity {
		return nil, apperr.Unprocessable(fmt.Sprintf("Only %d items available in stock", item.AvailableStock))
	}

	if err := service.cartRepo.UpdateItemQuantity(context, item.ID, quantity); err != nil {
		return nil, err
	}

	return service.cartRepo.FindOrCreate(context, userID)
}

/*
RemoveItem deletes a cart row owned by the user.

Parameters:
  - context: context.Context
  - userID: int64
  - itemID: int64

Returns:
  - *Cart: The updated cart
  - error: apperr.NotFound or repository errors
*/
func (service *Service) RemoveItem(context context.Context, userID, itemID int64) (*Cart, error) {
	cart, err := service.cartRepo.FindOrCreate(context, userID)
	if err != nil {
		return nil, err
	}

	// Scope check before deletion
	if _, err := service.cartRepo.FindItemByID(context, cart.ID, itemID); err != nil {
		return nil, err
	}

	if err := service.cartRepo.DeleteItem(context, cart.ID, itemID); err != nil {
		return nil, err
	}

	return service.cartRepo.FindOrCreate(context, userID)
}

/*
ClearCart removes every item from the user's cart.

Parameters:
  - context: context.Context
  - userID: int64

Returns:
  - *Cart: The emptied cart
  - error: Repository errors
*/
func (service *Service) ClearCart(context context.Context, userID int64) (*Cart, error) {
	cart, err := service.cartRepo.FindOrCreate(context, userID)
	if err != nil {
		return nil, err
	}

	if err := service.cartRepo.Clear(context, cart.ID); err != nil {
		return nil, err
	}

	return service.cartRepo.FindOrCreate(context, userID)
}

// # Checkout

// CheckoutInput carries the order details captured at checkout.
type CheckoutInput struct {
	PaymentMethod PaymentMethod   `json:"payment_method"`
	Shipping      ShippingDetails `json:"shipping"`
	Notes         string          `json:"notes"`
}

/*
Checkout converts the user's cart into an order.

Description: Validates the shipping block and payment method, prices the
cart (subtotal, shipping, tax), snapshots every line with current product
details, and hands the whole conversion to the repository which executes it
inside one transaction. Stock is both pre-checked here for a friendly error
and guarded again at decrement time against concurrent checkouts.

Parameters:
  - context: context.Context
  - userID: int64
  - input: CheckoutInput

Returns:
  - *Order: The created order (hydrated with items)
  - error: Validation, stock, or persistence errors
*/
func (service *Service) Checkout(context context.Context, userID int64, input CheckoutInput) (*Order, error) {

	// Shipping block validation
	validator := &validate.Validator{}
	validator.Required(FieldName, input.Shipping.Name).MaxLen(FieldName, input.Shipping.Name, 100)
	validator.Required(FieldEmail, input.Shipping.Email).Email(FieldEmail, input.Shipping.Email)
	validator.Required(FieldPhone, input.Shipping.Phone).MaxLen(FieldPhone, input.Shipping.Phone, 20)
	validator.Required(FieldAddress, input.Shipping.Address)
	validator.Required(FieldCity, input.Shipping.City)
	validator.Required(FieldPostalCode, input.Shipping.PostalCode)
	validator.Required(FieldCountry, input.Shipping.Country)

	if input.PaymentMethod == "" {
		input.PaymentMethod = PaymentCOD
	}
	if !input.PaymentMethod.IsValid() {
		validator.OneOf(FieldPaymentMethod, string(input.PaymentMethod),
			string(PaymentCOD),
			string(PaymentBankTransfer),
			string(PaymentCreditCard),
			string(PaymentPayPal),
		)
	}

	if err := validator.Err(); err != nil {
		return nil, err
	}

	cart, err := service.cartRepo.FindOrCreate(context, userID)
	if err != nil {
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, apperr.Unprocessable("Cart is empty")
	}

	// Friendly stock pre-check; the transaction guards again on decrement
	for _, item := range cart.Items {
		if item.AvailableStock < item.Quantity {
			return nil, apperr.Unprocessable(fmt.Sprintf("Insufficient stock for %s", item.ProductName))
		}
	}

	subtotal := cart.TotalPrice()
	order := &Order{
		ID:            uuid.New(),
		UserID:        userID,
		Status:        StatusPending,
		PaymentMethod: input.PaymentMethod,
		Subtotal:      subtotal,
		ShippingCost:  ShippingCost(subtotal),
		TaxAmount:     TaxAmount(subtotal),
		Shipping:      input.Shipping,
		Notes:         input.Notes,
	}
	order.TotalAmount = order.Subtotal + order.ShippingCost + order.TaxAmount - order.DiscountAmount

	// Line snapshots with the SKU frozen at purchase time
	for _, item := range cart.Items {
		product, err := service.products.FindByID(context, item.ProductID)
		if err != nil {
			return nil, err
		}

		order.Items = append(order.Items, &OrderItem{
			ProductID:   item.ProductID,
			VariantID:   item.VariantID,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			TotalPrice:  item.Subtotal(),
			ProductName: item.ProductName,
			ProductSKU:  product.SKU,
			VariantName: item.VariantName,
		})
	}

	if err := service.orderRepo.CreateFromCart(context, order, cart.ID); err != nil {
		return nil, err
	}

	service.logger.Info("order_created",
		slog.String("order_id", order.ID),
		slog.String("order_number", order.Number()),
		slog.Int64("user_id", userID),
		slog.Float64("total_amount", order.TotalAmount),
	)

	return order, nil
}

// # Order Lookups

/*
Orders returns the user's order history, newest first.

Parameters:
  - context: context.Context
  - userID: int64
  - params: pagination.Params

Returns:
  - []*Order: Page of orders
  - int: Total order count for the user
  - error: Repository errors
*/
func (service *Service) Orders(context context.Context, userID int64, params pagination.Params) ([]*Order, int, error) {
	return service.orderRepo.ListByUser(context, userID, params)
}

/*
Order returns a single order if the caller may see it.

Description: Customers only see their own orders; staff see all. A foreign
order resolves to NotFound rather than Forbidden so order IDs leak nothing.

Parameters:
  - context: context.Context
  - orderID: string (UUID)
  - userID: int64 (Caller)
  - isStaff: bool

Returns:
  - *Order: The hydrated order
  - error: apperr.NotFound or repository errors
*/
func (service *Service) Order(context context.Context, orderID string, userID int64, isStaff bool) (*Order, error) {
	order, err := service.orderRepo.FindByID(context, orderID)
	if err != nil {
		return nil, err
	}

	if order.UserID != userID && !isStaff {
		return nil, apperr.NotFound("Order")
	}

	return order, nil
}

// # Order Administration

/*
UpdateStatus transitions an order through its fulfilment pipeline.

Description: Sets the shipped/delivered timestamps on first entry into the
matching status and appends an audit entry naming the change and its author.

Parameters:
  - context: context.Context
  - orderID: string (UUID)
  - newStatus: OrderStatus
  - notes: string (Optional; defaulted to a transition message)
  - trackingNumber: string (Optional; kept when empty)
  - updatedBy: int64 (Staff user performing the change)

Returns:
  - *Order: The updated order
  - error: Validation, apperr.NotFound, or persistence errors
*/
func (service *Service) UpdateStatus(context context.Context, orderID string, newStatus OrderStatus, notes, trackingNumber string, updatedBy int64) (*Order, error) {
	if !newStatus.IsValid() {
		return nil, apperr.ValidationError("Invalid order status")
	}

	order, err := service.orderRepo.FindByID(context, orderID)
	if err != nil {
		return nil, err
	}

	oldStatus := order.Status
	order.Status = newStatus
	if trackingNumber != "" {
		order.TrackingNumber = trackingNumber
	}

	now := time.Now()
	if newStatus == StatusShipped && order.ShippedAt == nil {
		order.ShippedAt = &now
	}
	if newStatus == StatusDelivered && order.DeliveredAt == nil {
		order.DeliveredAt = &now
	}

	if notes == "" {
		notes = fmt.Sprintf("Status changed from %s to %s", oldStatus, newStatus)
	}

	entry := &StatusHistory{
		OrderID:   order.ID,
		Status:    newStatus,
		Notes:     notes,
		CreatedBy: &updatedBy,
	}

	if err := service.orderRepo.UpdateStatus(context, order, entry); err != nil {
		return nil, err
	}
	order.History = append([]*StatusHistory{entry}, order.History...)

	service.logger.Info("order_status_updated",
		slog.String("order_id", order.ID),
		slog.String("status", string(newStatus)),
		slog.Int64("updated_by", updatedBy),
	)

	return order, nil
}

// # Internal Helpers

// findVariant returns the active variant with the given id, or nil.
func findVariant(product *catalog.Product, variantID int64) *catalog.Variant {
	for i := range product.Variants {
		if product.Variants[i].ID == variantID && product.Variants[i].IsActive {
			return &product.Variants[i]
		}
	}
	return nil
}
