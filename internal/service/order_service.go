package service

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/models"
	"storefront/internal/store"
	"storefront/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OrderStore is the slice of the store the order workflows need
type OrderStore interface {
	GetOrderByID(ctx context.Context, id int64) (*models.Order, error)
	GetOrdersByUser(ctx context.Context, userID int64) ([]models.Order, error)
	GetOrderItems(ctx context.Context, orderID int64) ([]models.OrderItem, error)
	GetProductsByIDs(ctx context.Context, ids []int64) ([]models.Product, error)
	UpdateOrderStatus(ctx context.Context, orderID int64, status string) error
	RestoreInventory(ctx context.Context, productID int64, quantity int) error
	IsEventProcessed(ctx context.Context, eventID string) (bool, error)
	MarkEventProcessed(ctx context.Context, eventID, eventType string) error
}

// StatusEventPublisher publishes order status changes
type StatusEventPublisher interface {
	PublishOrderStatusChanged(ctx context.Context, event *models.OrderStatusChangedEvent) error
}

// OrderService handles order queries, status progression and the
// payment event side of the checkout saga
type OrderService struct {
	store     OrderStore
	publisher StatusEventPublisher
	logger    *zap.Logger
}

// NewOrderService creates a new order service
func NewOrderService(store OrderStore, publisher StatusEventPublisher) *OrderService {
	return &OrderService{
		store:     store,
		publisher: publisher,
		logger:    util.NamedLogger("orders"),
	}
}

// GetOrder retrieves an order with its items. Orders are owner-only;
// someone else's order is a not-found outcome, not a permission hint.
func (s *OrderService) GetOrder(ctx context.Context, userID, orderID int64) (*models.Order, []models.OrderItem, error) {
	order, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	if order.UserID != userID {
		return nil, nil, fmt.Errorf("order %d: %w", orderID, store.ErrNotFound)
	}

	items, err := s.store.GetOrderItems(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	if err := s.resolveProductNames(ctx, items); err != nil {
		return nil, nil, err
	}
	return order, items, nil
}

// resolveProductNames fills in current product names for display. A
// product deleted since purchase leaves its line's name empty; the
// price snapshot is untouched either way.
func (s *OrderService) resolveProductNames(ctx context.Context, items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	products, err := s.store.GetProductsByIDs(ctx, ids)
	if err != nil {
		return err
	}
	names := make(map[int64]string, len(products))
	for _, p := range products {
		names[p.ID] = p.Name
	}
	for i := range items {
		items[i].ProductName = names[items[i].ProductID]
	}
	return nil
}

// ListOrders retrieves a user's orders, newest first
func (s *OrderService) ListOrders(ctx context.Context, userID int64) ([]models.Order, error) {
	return s.store.GetOrdersByUser(ctx, userID)
}

// AdvanceStatus moves an order along pending → processing → shipped →
// delivered, or cancels it. Backward and skipping transitions are
// rejected.
func (s *OrderService) AdvanceStatus(ctx context.Context, orderID int64, to string) error {
	ctx, span := util.StartSpan(ctx, "OrderService.AdvanceStatus")
	defer span.End()

	order, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return err
	}

	if !models.ValidStatusTransition(order.Status, to) {
		return fmt.Errorf("%s -> %s: %w", order.Status, to, ErrInvalidTransition)
	}

	if err := s.store.UpdateOrderStatus(ctx, orderID, to); err != nil {
		return err
	}

	s.logger.Info("Order status advanced",
		zap.Int64("order_id", orderID),
		zap.String("from", order.Status),
		zap.String("to", to))

	event := &models.OrderStatusChangedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderStatusChanged,
			Timestamp: time.Now(),
		},
		OrderID: orderID,
		From:    order.Status,
		To:      to,
	}
	if err := s.publisher.PublishOrderStatusChanged(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderStatusChanged event", zap.Error(err))
	}
	return nil
}

// HandlePaymentSucceeded advances a pending order to processing once
// the mock payment clears. Idempotent: replayed events are skipped.
func (s *OrderService) HandlePaymentSucceeded(ctx context.Context, event *models.PaymentSucceededEvent) error {
	ctx, span := util.StartSpan(ctx, "OrderService.HandlePaymentSucceeded")
	defer span.End()

	processed, err := s.store.IsEventProcessed(ctx, event.EventID)
	if err != nil {
		return fmt.Errorf("failed to check event processed: %w", err)
	}
	if processed {
		s.logger.Info("Event already processed", zap.String("event_id", event.EventID))
		return nil
	}

	// a redelivered outcome may carry a fresh event id; the order's own
	// status is the durable guard
	order, err := s.store.GetOrderByID(ctx, event.OrderID)
	if err != nil {
		return err
	}
	if order.Status != models.OrderStatusPending {
		s.logger.Info("Order already past pending, skipping",
			zap.Int64("order_id", event.OrderID),
			zap.String("status", order.Status))
		return s.store.MarkEventProcessed(ctx, event.EventID, event.EventType)
	}

	if err := s.AdvanceStatus(ctx, event.OrderID, models.OrderStatusProcessing); err != nil {
		return fmt.Errorf("failed to advance order %d: %w", event.OrderID, err)
	}

	if err := s.store.MarkEventProcessed(ctx, event.EventID, event.EventType); err != nil {
		s.logger.Error("Failed to mark event processed", zap.Error(err))
	}

	s.logger.Info("Order moved to processing",
		zap.Int64("order_id", event.OrderID),
		zap.String("tx_id", event.TxID))
	return nil
}

// HandlePaymentFailed cancels the order and restores the decremented
// inventory (compensation for the already-committed checkout).
func (s *OrderService) HandlePaymentFailed(ctx context.Context, event *models.PaymentFailedEvent) error {
	ctx, span := util.StartSpan(ctx, "OrderService.HandlePaymentFailed")
	defer span.End()

	processed, err := s.store.IsEventProcessed(ctx, event.EventID)
	if err != nil {
		return fmt.Errorf("failed to check event processed: %w", err)
	}
	if processed {
		s.logger.Info("Event already processed", zap.String("event_id", event.EventID))
		return nil
	}

	// a redelivery may carry a fresh event id, so idempotency hangs on
	// the order itself: only the one cancel transition restores stock
	order, err := s.store.GetOrderByID(ctx, event.OrderID)
	if err != nil {
		return err
	}
	if order.Status == models.OrderStatusCancelled {
		s.logger.Info("Order already cancelled, skipping compensation",
			zap.Int64("order_id", event.OrderID))
		return s.store.MarkEventProcessed(ctx, event.EventID, event.EventType)
	}

	s.logger.Warn("Payment failed - cancelling order",
		zap.Int64("order_id", event.OrderID),
		zap.String("reason", event.Reason))

	// cancel first; inventory comes back only once the order is off the
	// live path
	if err := s.AdvanceStatus(ctx, event.OrderID, models.OrderStatusCancelled); err != nil {
		return fmt.Errorf("failed to cancel order %d: %w", event.OrderID, err)
	}

	items, err := s.store.GetOrderItems(ctx, event.OrderID)
	if err != nil {
		return fmt.Errorf("failed to get order items: %w", err)
	}
	for _, item := range items {
		if err := s.store.RestoreInventory(ctx, item.ProductID, item.Quantity); err != nil {
			s.logger.Error("Failed to restore inventory",
				zap.Int64("product_id", item.ProductID),
				zap.Error(err))
		}
	}

	util.OrdersCancelledTotal.Inc()

	if err := s.store.MarkEventProcessed(ctx, event.EventID, event.EventType); err != nil {
		s.logger.Error("Failed to mark event processed", zap.Error(err))
	}
	return nil
}
