// Copyright (c) 2026 MotoWorld. All rights reserved.
// Author: dev@motoworld.shop

package orders_test

import (
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/motoworld/api/internal/catalog"
	"github.com/motoworld/api/internal/orders"
	"github.com/motoworld/api/internal/platform/apperr"
	"github.com/motoworld/api/pkg/pagination"
)

// # Test Doubles

// fakeWorld backs all three repositories with one shared in-memory state so
// cart hydration and checkout stock decrements observe the same products.
type fakeWorld struct {
	mu       sync.Mutex
	products map[int64]*catalog.Product

	nextCartID int64
	nextItemID int64
	carts      map[int64]*orders.Cart // keyed by user ID

	orders map[string]*orders.Order
}

func newFakeWorld(products ...*catalog.Product) *fakeWorld {
	world := &fakeWorld{
		products:   make(map[int64]*catalog.Product),
		nextCartID: 1,
		nextItemID: 1,
		carts:      make(map[int64]*orders.Cart),
		orders:     make(map[string]*orders.Order),
	}
	for _, product := range products {
		world.products[product.ID] = product
	}
	return world
}

// hydrate refreshes an item's catalogue projection from the product map.
func (world *fakeWorld) hydrate(item *orders.CartItem) {
	product := world.products[item.ProductID]
	if product == nil {
		return
	}
	item.ProductName = product.Name
	item.ProductSlug = product.Slug
	item.UnitPrice = product.Price
	item.AvailableStock = product.StockQuantity
	if item.VariantID != nil {
		for i := range product.Variants {
			if product.Variants[i].ID == *item.VariantID {
				item.VariantName = product.Variants[i].Name
				item.UnitPrice = product.Price + product.Variants[i].PriceAdjustment
				item.AvailableStock = product.Variants[i].StockQuantity
			}
		}
	}
}

type fakeProductFinder struct{ world *fakeWorld }

func (finder *fakeProductFinder) FindByID(_ context.Context, id int64) (*catalog.Product, error) {
	finder.world.mu.Lock()
	defer finder.world.mu.Unlock()
	if product, ok := finder.world.products[id]; ok {
		copied := *product
		return &copied, nil
	}
	return nil, apperr.NotFound("Product")
}

type fakeCartRepository struct{ world *fakeWorld }

func (repository *fakeCartRepository) FindOrCreate(_ context.Context, userID int64) (*orders.Cart, error) {
	world := repository.world
	world.mu.Lock()
	defer world.mu.Unlock()

	cart, ok := world.carts[userID]
	if !ok {
		cart = &orders.Cart{ID: world.nextCartID, UserID: userID}
		world.nextCartID++
		world.carts[userID] = cart
	}

	view := &orders.Cart{ID: cart.ID, UserID: cart.UserID, Items: []*orders.CartItem{}}
	for _, item := range cart.Items {
		copied := *item
		world.hydrate(&copied)
		view.Items = append(view.Items, &copied)
	}
	return view, nil
}

func (repository *fakeCartRepository) FindItem(_ context.Context, cartID, productID int64, variantID *int64) (*orders.CartItem, error) {
	world := repository.world
	world.mu.Lock()
	defer world.mu.Unlock()

	for _, cart := range world.carts {
		if cart.ID != cartID {
			continue
		}
		for _, item := range cart.Items {
			sameVariant := (item.VariantID == nil && variantID == nil) ||
				(item.VariantID != nil && variantID != nil && *item.VariantID == *variantID)
			if item.ProductID == productID && sameVariant {
				copied := *item
				world.hydrate(&copied)
				return &copied, nil
			}
		}
	}
	return nil, apperr.NotFound("Cart item")
}

func (repository *fakeCartRepository) FindItemByID(_ context.Context, cartID, itemID int64) (*orders.CartItem, error) {
	world := repository.world
	world.mu.Lock()
	defer world.mu.Unlock()

	for _, cart := range world.carts {
		if cart.ID != cartID {
			continue
		}
		for _, item := range cart.Items {
			if item.ID == itemID {
				copied := *item
				world.hydrate(&copied)
				return &copied, nil
			}
		}
	}
	return nil, apperr.NotFound("Cart item")
}

func (repository *fakeCartRepository) CreateItem(_ context.Context, item *orders.CartItem) error {
	world := repository.world
	world.mu.Lock()
	defer world.mu.Unlock()

	item.ID = world.nextItemID
	world.nextItemID++
	for _, cart := range world.carts {
		if cart.ID == item.CartID {
			copied := *item
			cart.Items = append(cart.Items, &copied)
			return nil
		}
	}
	return apperr.NotFound("Cart")
}

func (repository *fakeCartRepository) UpdateItemQuantity(_ context.Context, itemID int64, quantity int) error {
	world := repository.world
	world.mu.Lock()
	defer world.mu.Unlock()

	for _, cart := range world.carts {
		for _, item := range cart.Items {
			if item.ID == itemID {
				item.Quantity = quantity
				return nil
			}
		}
	}
	return apperr.NotFound("Cart item")
}

func (repository *fakeCartRepository) DeleteItem(_ context.Context, cartID, itemID int64) error {
	world := repository.world
	world.mu.Lock()
	defer world.mu.Unlock()

	for _, cart := range world.carts {
		if cart.ID != cartID {
			continue
		}
		for i, item := range cart.Items {
			if item.ID == itemID {
				cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
				return nil
			}
		}
	}
	return nil
}

func (repository *fakeCartRepository) Clear(_ context.Context, cartID int64) error {
	world := repository.world
	world.mu.Lock()
	defer world.mu.Unlock()

	for _, cart := range world.carts {
		if cart.ID == cartID {
			cart.Items = nil
		}
	}
	return nil
}

type fakeOrderRepository struct{ world *fakeWorld }

func (repository *fakeOrderRepository) CreateFromCart(_ context.Context, order *orders.Order, cartID int64) error {
	world := repository.world
	world.mu.Lock()
	defer world.mu.Unlock()

	// Stock guard mirrors the conditional decrement in the real store
	for _, item := range order.Items {
		product := world.products[item.ProductID]
		if item.VariantID != nil {
			for i := range product.Variants {
				if product.Variants[i].ID == *item.VariantID {
					if product.Variants[i].StockQuantity < item.Quantity {
						return apperr.Unprocessable("Insufficient stock for " + item.ProductName)
					}
					product.Variants[i].StockQuantity -= item.Quantity
				}
			}
			continue
		}
		if product.StockQuantity < item.Quantity {
			return apperr.Unprocessable("Insufficient stock for " + item.ProductName)
		}
		product.StockQuantity -= item.Quantity
	}

	copied := *order
	world.orders[order.ID] = &copied

	for _, cart := range world.carts {
		if cart.ID == cartID {
			cart.Items = nil
		}
	}
	return nil
}

func (repository *fakeOrderRepository) ListByUser(_ context.Context, userID int64, _ pagination.Params) ([]*orders.Order, int, error) {
	world := repository.world
	world.mu.Lock()
	defer world.mu.Unlock()

	var page []*orders.Order
	for _, order := range world.orders {
		if order.UserID == userID {
			copied := *order
			page = append(page, &copied)
		}
	}
	return page, len(page), nil
}

func (repository *fakeOrderRepository) FindByID(_ context.Context, id string) (*orders.Order, error) {
	world := repository.world
	world.mu.Lock()
	defer world.mu.Unlock()

	if order, ok := world.orders[id]; ok {
		copied := *order
		return &copied, nil
	}
	return nil, apperr.NotFound("Order")
}

func (repository *fakeOrderRepository) UpdateStatus(_ context.Context, order *orders.Order, entry *orders.StatusHistory) error {
	world := repository.world
	world.mu.Lock()
	defer world.mu.Unlock()

	stored, ok := world.orders[order.ID]
	if !ok {
		return apperr.NotFound("Order")
	}
	stored.Status = order.Status
	stored.TrackingNumber = order.TrackingNumber
	stored.ShippedAt = order.ShippedAt
	stored.DeliveredAt = order.DeliveredAt
	entry.ID = int64(len(stored.History) + 1)
	stored.History = append([]*orders.StatusHistory{entry}, stored.History...)
	return nil
}

// # Test Fixtures

func int64Ptr(v int64) *int64 { return &v }

func newTestService(world *fakeWorld) *orders.Service {
	return orders.NewService(
		&fakeCartRepository{world: world},
		&fakeOrderRepository{world: world},
		&fakeProductFinder{world: world},
		slog.Default(),
	)
}

func helmetProduct() *catalog.Product {
	return &catalog.Product{
		ID:            10,
		Name:          "Shoei RF-1400",
		Slug:          "shoei-rf-1400",
		SKU:           "HEL-SHOEIR",
		Price:         579.99,
		StockQuantity: 5,
		Status:        catalog.StatusActive,
		Variants: []catalog.Variant{
			{ID: 101, ProductID: 10, Name: "Large", PriceAdjustment: 0, StockQuantity: 2, IsActive: true},
			{ID: 102, ProductID: 10, Name: "XL", PriceAdjustment: 20, StockQuantity: 0, IsActive: true},
		},
	}
}

func chainProduct() *catalog.Product {
	return &catalog.Product{
		ID:            11,
		Name:          "DID 520 Chain",
		Slug:          "did-520-chain",
		SKU:           "PAR-DID520",
		Price:         89.50,
		StockQuantity: 40,
		Status:        catalog.StatusActive,
	}
}

func validShipping() orders.ShippingDetails {
	return orders.ShippingDetails{
		Name:       "Test User",
		Email:      "test@example.com",
		Phone:      "555-0100",
		Address:    "1 Main St",
		City:       "Springfield",
		State:      "IL",
		PostalCode: "62701",
		Country:    "USA",
	}
}

// # Cart Tests

func TestService_AddToCart(t *testing.T) {
	world := newFakeWorld(helmetProduct(), chainProduct())
	service := newTestService(world)
	const userID = int64(1)

	t.Run("adds_new_row", func(t *testing.T) {
		cart, err := service.AddToCart(context.Background(), userID, orders.AddItemInput{ProductID: 10, Quantity: 2})
		require.NoError(t, err)
		require.Len(t, cart.Items, 1)
		assert.Equal(t, 2, cart.Items[0].Quantity)
		assert.Equal(t, 579.99, cart.Items[0].UnitPrice)
		assert.Equal(t, 2, cart.TotalItems())
	})

	t.Run("merges_duplicate_product", func(t *testing.T) {
		cart, err := service.AddToCart(context.Background(), userID, orders.AddItemInput{ProductID: 10, Quantity: 1})
		require.NoError(t, err)
		require.Len(t, cart.Items, 1)
		assert.Equal(t, 3, cart.Items[0].Quantity)
	})

	t.Run("variant_is_a_separate_row", func(t *testing.T) {
		cart, err := service.AddToCart(context.Background(), userID, orders.AddItemInput{ProductID: 10, VariantID: int64Ptr(101), Quantity: 1})
		require.NoError(t, err)
		assert.Len(t, cart.Items, 2)
	})

	t.Run("variant_price_adjustment_applied", func(t *testing.T) {
		world2 := newFakeWorld(helmetProduct())
		service2 := newTestService(world2)
		variant := helmetProduct().Variants[1]
		world2.products[10].Variants[1].StockQuantity = 3

		cart, err := service2.AddToCart(context.Background(), userID, orders.AddItemInput{ProductID: 10, VariantID: &variant.ID, Quantity: 1})
		require.NoError(t, err)
		require.Len(t, cart.Items, 1)
		assert.InDelta(t, 599.99, cart.Items[0].UnitPrice, 0.001)
	})

	t.Run("rejects_insufficient_stock", func(t *testing.T) {
		_, err := service.AddToCart(context.Background(), userID, orders.AddItemInput{ProductID: 10, Quantity: 99})
		require.Error(t, err)
		assert.Equal(t, "UNPROCESSABLE", apperr.As(err).Code)
	})

	t.Run("rejects_merge_beyond_stock", func(t *testing.T) {
		// 3 already in the cart, stock is 5
		_, err := service.AddToCart(context.Background(), userID, orders.AddItemInput{ProductID: 10, Quantity: 3})
		require.Error(t, err)
		assert.Equal(t, "UNPROCESSABLE", apperr.As(err).Code)
	})

	t.Run("rejects_unknown_product", func(t *testing.T) {
		_, err := service.AddToCart(context.Background(), userID, orders.AddItemInput{ProductID: 999, Quantity: 1})
		require.Error(t, err)
		assert.Equal(t, "NOT_FOUND", apperr.As(err).Code)
	})

	t.Run("rejects_inactive_product", func(t *testing.T) {
		world.products[11].Status = catalog.StatusInactive
		_, err := service.AddToCart(context.Background(), userID, orders.AddItemInput{ProductID: 11, Quantity: 1})
		require.Error(t, err)
		assert.Equal(t, "UNPROCESSABLE", apperr.As(err).Code)
		world.products[11].Status = catalog.StatusActive
	})

	t.Run("rejects_foreign_variant", func(t *testing.T) {
		_, err := service.AddToCart(context.Background(), userID, orders.AddItemInput{ProductID: 11, VariantID: int64Ptr(101), Quantity: 1})
		require.Error(t, err)
		assert.Equal(t, "UNPROCESSABLE", apperr.As(err).Code)
	})

	t.Run("rejects_zero_quantity", func(t *testing.T) {
		_, err := service.AddToCart(context.Background(), userID, orders.AddItemInput{ProductID: 10, Quantity: 0})
		require.Error(t, err)
		assert.Equal(t, "VALIDATION_ERROR", apperr.As(err).Code)
	})
}

func TestService_UpdateAndRemoveItems(t *testing.T) {
	world := newFakeWorld(chainProduct())
	service := newTestService(world)
	const userID = int64(1)

	cart, err := service.AddToCart(context.Background(), userID, orders.AddItemInput{ProductID: 11, Quantity: 1})
	require.NoError(t, err)
	itemID := cart.Items[0].ID

	t.Run("update_quantity", func(t *testing.T) {
		cart, err := service.UpdateItemQuantity(context.Background(), userID, itemID, 4)
		require.NoError(t, err)
		assert.Equal(t, 4, cart.Items[0].Quantity)
	})

	t.Run("update_beyond_stock", func(t *testing.T) {
		_, err := service.UpdateItemQuantity(context.Background(), userID, itemID, 500)
		require.Error(t, err)
		assert.Equal(t, "UNPROCESSABLE", apperr.As(err).Code)
	})

	t.Run("foreign_item_not_found", func(t *testing.T) {
		_, err := service.UpdateItemQuantity(context.Background(), int64(2), itemID, 1)
		require.Error(t, err)
		assert.Equal(t, "NOT_FOUND", apperr.As(err).Code)
	})

	t.Run("remove_item", func(t *testing.T) {
		cart, err := service.RemoveItem(context.Background(), userID, itemID)
		require.NoError(t, err)
		assert.Empty(t, cart.Items)
	})
}

// # Checkout Tests

func TestService_Checkout(t *testing.T) {
	world := newFakeWorld(helmetProduct(), chainProduct())
	service := newTestService(world)
	const userID = int64(1)

	t.Run("empty_cart", func(t *testing.T) {
		_, err := service.Checkout(context.Background(), userID, orders.CheckoutInput{Shipping: validShipping()})
		require.Error(t, err)
		assert.Equal(t, "UNPROCESSABLE", apperr.As(err).Code)
	})

	t.Run("invalid_shipping", func(t *testing.T) {
		_, err := service.AddToCart(context.Background(), userID, orders.AddItemInput{ProductID: 11, Quantity: 1})
		require.NoError(t, err)

		_, err = service.Checkout(context.Background(), userID, orders.CheckoutInput{})
		require.Error(t, err)
		assert.Equal(t, "VALIDATION_ERROR", apperr.As(err).Code)
	})

	t.Run("flat_shipping_below_threshold", func(t *testing.T) {
		// One chain at 89.50 stays under the free shipping threshold
		order, err := service.Checkout(context.Background(), userID, orders.CheckoutInput{Shipping: validShipping()})
		require.NoError(t, err)

		assert.Equal(t, 89.50, order.Subtotal)
		assert.Equal(t, orders.FlatShippingRate, order.ShippingCost)
		assert.InDelta(t, 89.50*orders.TaxRate, order.TaxAmount, 0.001)
		assert.InDelta(t, 89.50+10.00+89.50*orders.TaxRate, order.TotalAmount, 0.001)
		assert.Equal(t, orders.StatusPending, order.Status)
		assert.Equal(t, orders.PaymentCOD, order.PaymentMethod)

		require.Len(t, order.Items, 1)
		assert.Equal(t, "DID 520 Chain", order.Items[0].ProductName)
		assert.Equal(t, "PAR-DID520", order.Items[0].ProductSKU)

		// Stock decremented and cart cleared
		assert.Equal(t, 39, world.products[11].StockQuantity)
		cart, err := service.Cart(context.Background(), userID)
		require.NoError(t, err)
		assert.Empty(t, cart.Items)
	})

	t.Run("free_shipping_at_threshold", func(t *testing.T) {
		_, err := service.AddToCart(context.Background(), userID, orders.AddItemInput{ProductID: 10, Quantity: 1})
		require.NoError(t, err)

		order, err := service.Checkout(context.Background(), userID, orders.CheckoutInput{
			PaymentMethod: orders.PaymentPayPal,
			Shipping:      validShipping(),
		})
		require.NoError(t, err)

		assert.Zero(t, order.ShippingCost)
		assert.Equal(t, orders.PaymentPayPal, order.PaymentMethod)
		assert.Regexp(t, `^MW-[0-9A-F]{8}$`, order.Number())
	})
}

// # Order Lookup Tests

func TestService_OrderOwnership(t *testing.T) {
	world := newFakeWorld(chainProduct())
	service := newTestService(world)
	const owner = int64(1)

	_, err := service.AddToCart(context.Background(), owner, orders.AddItemInput{ProductID: 11, Quantity: 1})
	require.NoError(t, err)
	created, err := service.Checkout(context.Background(), owner, orders.CheckoutInput{Shipping: validShipping()})
	require.NoError(t, err)

	t.Run("owner_sees_order", func(t *testing.T) {
		order, err := service.Order(context.Background(), created.ID, owner, false)
		require.NoError(t, err)
		assert.Equal(t, created.ID, order.ID)
	})

	t.Run("stranger_gets_not_found", func(t *testing.T) {
		_, err := service.Order(context.Background(), created.ID, int64(2), false)
		require.Error(t, err)
		assert.Equal(t, "NOT_FOUND", apperr.As(err).Code)
	})

	t.Run("staff_sees_all", func(t *testing.T) {
		order, err := service.Order(context.Background(), created.ID, int64(2), true)
		require.NoError(t, err)
		assert.Equal(t, created.ID, order.ID)
	})
}

func TestService_UpdateStatus(t *testing.T) {
	world := newFakeWorld(chainProduct())
	service := newTestService(world)
	const userID = int64(1)
	const adminID = int64(9)

	_, err := service.AddToCart(context.Background(), userID, orders.AddItemInput{ProductID: 11, Quantity: 1})
	require.NoError(t, err)
	created, err := service.Checkout(context.Background(), userID, orders.CheckoutInput{Shipping: validShipping()})
	require.NoError(t, err)

	t.Run("shipped_sets_timestamp_and_history", func(t *testing.T) {
		order, err := service.UpdateStatus(context.Background(), created.ID, orders.StatusShipped, "", "TRACK-42", adminID)
		require.NoError(t, err)

		assert.Equal(t, orders.StatusShipped, order.Status)
		require.NotNil(t, order.ShippedAt)
		assert.Equal(t, "TRACK-42", order.TrackingNumber)
		require.NotEmpty(t, order.History)
		assert.Equal(t, "Status changed from pending to shipped", order.History[0].Notes)
		require.NotNil(t, order.History[0].CreatedBy)
		assert.Equal(t, adminID, *order.History[0].CreatedBy)
	})

	t.Run("invalid_status", func(t *testing.T) {
		_, err := service.UpdateStatus(context.Background(), created.ID, orders.OrderStatus("teleported"), "", "", adminID)
		require.Error(t, err)
		assert.Equal(t, "VALIDATION_ERROR", apperr.As(err).Code)
	})

	t.Run("unknown_order", func(t *testing.T) {
		_, err := service.UpdateStatus(context.Background(), "00000000-0000-0000-0000-000000000000", orders.StatusShipped, "", "", adminID)
		require.Error(t, err)
		assert.Equal(t, "NOT_FOUND", apperr.As(err).Code)
	})
}
