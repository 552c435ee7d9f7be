// Copyright (c) 2026 MotoWorld. All rights reserved.
// Author: dev@motoworld.shop

/*
Package orders manages the purchasing pipeline of the MotoWorld shop.

It covers the per-user shopping cart, the checkout transaction that turns a
cart into an immutable order, and the order lifecycle afterwards.

Core Responsibility:

  - Cart: One cart per user; items merge on (product, variant) pairs and the
    server remains the single authority on quantities and totals.
  - Checkout: Atomic conversion of cart state into an order with price
    snapshots and stock decrements.
  - Lifecycle: Status pipeline with a full audit history per order.
*/
package orders

import (
	"strings"
	"time"
)

// # Pricing Rules

const (
	// FreeShippingThreshold is the subtotal at which shipping becomes free.
	FreeShippingThreshold = 100.00

	// FlatShippingRate applies below the free shipping threshold.
	FlatShippingRate = 10.00

	// TaxRate is applied to the order subtotal.
	TaxRate = 0.08
)

// ShippingCost returns the shipping charge for a given subtotal.
func ShippingCost(subtotal float64) float64 {
	if subtotal >= FreeShippingThreshold {
		return 0
	}
	return FlatShippingRate
}

// TaxAmount returns the tax charge for a given subtotal.
func TaxAmount(subtotal float64) float64 {
	return subtotal * TaxRate
}

// # Domain Enums

// OrderStatus represents a stage in the order fulfilment pipeline.
type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusConfirmed  OrderStatus = "confirmed"
	StatusProcessing OrderStatus = "processing"
	StatusShipped    OrderStatus = "shipped"
	StatusDelivered  OrderStatus = "delivered"
	StatusCancelled  OrderStatus = "cancelled"
	StatusRefunded   OrderStatus = "refunded"
)

// IsValid reports whether s is a recognised [OrderStatus] value.
func (s OrderStatus) IsValid() bool {
	switch s {
	case
		StatusPending,
		StatusConfirmed,
		StatusProcessing,
		StatusShipped,
		StatusDelivered,
		StatusCancelled,
		StatusRefunded:
		return true
	}
	return false
}

// PaymentMethod represents how the customer intends to pay.
type PaymentMethod string

const (
	PaymentCOD          PaymentMethod = "cod"
	PaymentBankTransfer PaymentMethod = "bank_transfer"
	PaymentCreditCard   PaymentMethod = "credit_card"
	PaymentPayPal       PaymentMethod = "paypal"
)

// IsValid reports whether m is a recognised [PaymentMethod] value.
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentCOD, PaymentBankTransfer, PaymentCreditCard, PaymentPayPal:
		return true
	}
	return false
}

// # Cart Entities

// Cart is a user's current shopping basket. Each user owns exactly one.
type Cart struct {
	ID        int64       `json:"id"`
	UserID    int64       `json:"-"`
	Items     []*CartItem `json:"items"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// TotalItems returns the summed quantity across all cart rows.
func (c *Cart) TotalItems() int {
	total := 0
	for _, item := range c.Items {
		total += item.Quantity
	}
	return total
}

// TotalPrice returns the summed subtotal across all cart rows.
func (c *Cart) TotalPrice() float64 {
	total := 0.0
	for _, item := range c.Items {
		total += item.Subtotal()
	}
	return total
}

// CartItem is one (product, variant) row in a cart.
//
// Product fields are hydrated from the catalogue on read so the client can
// render the row; UnitPrice already includes the variant price adjustment.
type CartItem struct {
	ID        int64  `json:"id"`
	CartID    int64  `json:"-"`
	ProductID int64  `json:"product_id"`
	VariantID *int64 `json:"variant_id,omitempty"`
	Quantity  int    `json:"quantity"`

	ProductName  string  `json:"product_name"`
	ProductSlug  string  `json:"product_slug"`
	ProductImage string  `json:"product_image,omitempty"`
	VariantName  string  `json:"variant_name,omitempty"`
	UnitPrice    float64 `json:"unit_price"`
	// AvailableStock is the current stock of the product or chosen variant.
	AvailableStock int `json:"available_stock"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Subtotal returns the row total at the current unit price.
func (i *CartItem) Subtotal() float64 {
	return i.UnitPrice * float64(i.Quantity)
}

// # Order Entities

// Order is an immutable record of a completed checkout. Prices and product
// details are snapshotted; later catalogue edits never change an order.
type Order struct {
	ID     string      `json:"id"` // UUID
	UserID int64       `json:"-"`
	Status OrderStatus `json:"status"`

	PaymentMethod PaymentMethod `json:"payment_method"`

	Subtotal       float64 `json:"subtotal"`
	ShippingCost   float64 `json:"shipping_cost"`
	TaxAmount      float64 `json:"tax_amount"`
	DiscountAmount float64 `json:"discount_amount"`
	TotalAmount    float64 `json:"total_amount"`

	Shipping ShippingDetails `json:"shipping"`

	TrackingNumber string `json:"tracking_number,omitempty"`
	Notes          string `json:"notes,omitempty"`

	Items   []*OrderItem     `json:"items,omitempty"`
	History []*StatusHistory `json:"status_history,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	ShippedAt   *time.Time `json:"shipped_at,omitempty"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`
}

// Number returns the human-readable order reference shown to customers.
func (o *Order) Number() string {
	id := strings.ReplaceAll(o.ID, "-", "")
	if len(id) > 8 {
		id = id[:8]
	}
	return "MW-" + strings.ToUpper(id)
}

// ShippingDetails is the destination block captured at checkout.
type ShippingDetails struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// OrderItem is a line of an order with the product details frozen at
// purchase time.
type OrderItem struct {
	ID          int64   `json:"id"`
	OrderID     string  `json:"-"`
	ProductID   int64   `json:"product_id"`
	VariantID   *int64  `json:"variant_id,omitempty"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	TotalPrice  float64 `json:"total_price"`
	ProductName string  `json:"product_name"`
	ProductSKU  string  `json:"product_sku"`
	VariantName string  `json:"variant_name,omitempty"`
}

// StatusHistory is one entry of an order's audit trail.
type StatusHistory struct {
	ID        int64       `json:"id"`
	OrderID   string      `json:"-"`
	Status    OrderStatus `json:"status"`
	Notes     string      `json:"notes,omitempty"`
	CreatedBy *int64      `json:"created_by,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

// # Field Identifiers

// Global field names for validation and request decoding.
const (
	FieldProductID     = "product_id"
	FieldVariantID     = "variant_id"
	FieldQuantity      = "quantity"
	FieldPaymentMethod = "payment_method"
	FieldStatus        = "status"
	FieldName          = "name"
	FieldEmail         = "email"
	FieldPhone         = "phone"
	FieldAddress       = "address"
	FieldCity          = "city"
	FieldPostalCode    = "postal_code"
	FieldCountry       = "country"
)
