package service

import (
	"context"
	"fmt"

	"storefront/internal/models"
	"storefront/internal/store"
	"storefront/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CartStore is the slice of the store the cart workflow needs
type CartStore interface {
	GetProductByID(ctx context.Context, id int64) (*models.Product, error)
	GetCartByUser(ctx context.Context, userID int64) (*models.Cart, error)
	CreateCart(ctx context.Context, userID int64) (*models.Cart, error)
	GetCartItems(ctx context.Context, cartID int64) ([]models.CartItem, error)
	ReplaceCartItems(ctx context.Context, cartID int64, items []models.CartItem) error
	GetCartDetail(ctx context.Context, userID int64) (*models.CartDetail, error)
}

// CartService handles cart mutations
type CartService struct {
	store  CartStore
	logger *zap.Logger
}

// NewCartService creates a new cart service
func NewCartService(store CartStore) *CartService {
	return &CartService{
		store:  store,
		logger: util.NamedLogger("cart"),
	}
}

// clampQuantity reduces a requested quantity to the available
// inventory instead of rejecting the request
func clampQuantity(inventory, quantity int) int {
	if quantity > inventory {
		util.CartItemsClampedTotal.Inc()
		return inventory
	}
	return quantity
}

// AddItem adds a product to the user's cart, creating the cart lazily
// on first add. If the product is already a line item its quantity is
// increased by the requested amount; either way the resulting line is
// clamped to the product's current inventory. The full line-item list
// is persisted (replace-all, not a delta update).
func (s *CartService) AddItem(ctx context.Context, userID, productID int64, quantity int) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "CartService.AddItem")
	defer span.End()

	product, err := s.store.GetProductByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	if product.Inventory == 0 {
		return nil, fmt.Errorf("%s: %w", product.Name, ErrOutOfStock)
	}

	cart, err := s.store.GetCartByUser(ctx, userID)
	if err != nil {
		if !IsNotFound(err) {
			return nil, err
		}
		cart, err = s.store.CreateCart(ctx, userID)
		if err != nil {
			return nil, err
		}
		item := models.CartItem{
			ID:        uuid.New().String(),
			CartID:    cart.ID,
			ProductID: productID,
			Quantity:  clampQuantity(product.Inventory, quantity),
		}
		if err := s.store.ReplaceCartItems(ctx, cart.ID, []models.CartItem{item}); err != nil {
			return nil, err
		}
		util.CartUpdatesTotal.WithLabelValues("add").Inc()
		s.logger.Info("Cart created",
			zap.Int64("user_id", userID),
			zap.Int64("product_id", productID),
			zap.Int("quantity", item.Quantity))
		return product, nil
	}

	items, err := s.store.GetCartItems(ctx, cart.ID)
	if err != nil {
		return nil, err
	}

	merged := false
	for i := range items {
		if items[i].ProductID == productID {
			items[i].Quantity = clampQuantity(product.Inventory, items[i].Quantity+quantity)
			merged = true
			break
		}
	}
	if !merged {
		items = append(items, models.CartItem{
			ID:        uuid.New().String(),
			CartID:    cart.ID,
			ProductID: productID,
			Quantity:  clampQuantity(product.Inventory, quantity),
		})
	}

	if err := s.store.ReplaceCartItems(ctx, cart.ID, items); err != nil {
		return nil, err
	}

	util.CartUpdatesTotal.WithLabelValues("add").Inc()
	s.logger.Info("Cart updated",
		zap.Int64("user_id", userID),
		zap.Int64("product_id", productID),
		zap.Bool("merged", merged))
	return product, nil
}

// RemoveItem removes exactly the matching line item from the user's
// cart. A missing cart or line is a not-found outcome and leaves the
// cart unchanged.
func (s *CartService) RemoveItem(ctx context.Context, userID int64, cartItemID string) error {
	ctx, span := util.StartSpan(ctx, "CartService.RemoveItem")
	defer span.End()

	cart, err := s.store.GetCartByUser(ctx, userID)
	if err != nil {
		return err
	}

	items, err := s.store.GetCartItems(ctx, cart.ID)
	if err != nil {
		return err
	}

	remaining := make([]models.CartItem, 0, len(items))
	found := false
	for _, item := range items {
		if item.ID == cartItemID {
			found = true
			continue
		}
		remaining = append(remaining, item)
	}
	if !found {
		return fmt.Errorf("cart item %s: %w", cartItemID, store.ErrNotFound)
	}

	if err := s.store.ReplaceCartItems(ctx, cart.ID, remaining); err != nil {
		return err
	}

	util.CartUpdatesTotal.WithLabelValues("remove").Inc()
	s.logger.Info("Cart item removed",
		zap.Int64("user_id", userID),
		zap.String("cart_item_id", cartItemID))
	return nil
}

// GetCart returns the resolved cart detail for rendering. A user
// without a cart gets an empty detail rather than an error.
func (s *CartService) GetCart(ctx context.Context, userID int64) (*models.CartDetail, error) {
	detail, err := s.store.GetCartDetail(ctx, userID)
	if err != nil {
		if IsNotFound(err) {
			return &models.CartDetail{Items: []models.CartLine{}}, nil
		}
		return nil, err
	}
	return detail, nil
}
