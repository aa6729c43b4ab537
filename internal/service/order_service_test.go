package service

import (
	"context"
	"testing"

	"storefront/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func placeTestOrder(t *testing.T, db *memStore, userID int64) *models.Order {
	t.Helper()
	product := db.addProduct("widget", 1000, 10)
	cartSvc := NewCartService(db)
	_, err := cartSvc.AddItem(context.Background(), userID, product.ID, 2)
	require.NoError(t, err)

	order, err := NewCheckoutService(db, &fakePublisher{}).Checkout(context.Background(), userID, validForm())
	require.NoError(t, err)
	return order
}

func TestGetOrderOwnerOnly(t *testing.T) {
	db := newMemStore()
	order := placeTestOrder(t, db, 1)
	svc := NewOrderService(db, &fakePublisher{})

	got, items, err := svc.GetOrder(context.Background(), 1, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)
	require.Len(t, items, 1)
	assert.Equal(t, "widget", items[0].ProductName)

	// a product removed after purchase leaves the name blank but keeps
	// the snapshot
	delete(db.products, items[0].ProductID)
	_, items, err = svc.GetOrder(context.Background(), 1, order.ID)
	require.NoError(t, err)
	assert.Empty(t, items[0].ProductName)
	assert.Equal(t, int64(1000), items[0].UnitPrice)

	// another user sees not-found, not forbidden
	_, _, err = svc.GetOrder(context.Background(), 2, order.ID)
	assert.True(t, IsNotFound(err))
}

func TestAdvanceStatusForwardOnly(t *testing.T) {
	db := newMemStore()
	order := placeTestOrder(t, db, 1)
	pub := &fakePublisher{}
	svc := NewOrderService(db, pub)

	require.NoError(t, svc.AdvanceStatus(context.Background(), order.ID, models.OrderStatusProcessing))
	require.NoError(t, svc.AdvanceStatus(context.Background(), order.ID, models.OrderStatusShipped))

	// backward and skipping moves are rejected
	err := svc.AdvanceStatus(context.Background(), order.ID, models.OrderStatusPending)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	err = svc.AdvanceStatus(context.Background(), order.ID, models.OrderStatusCancelled)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	require.NoError(t, svc.AdvanceStatus(context.Background(), order.ID, models.OrderStatusDelivered))
	got, _ := db.GetOrderByID(context.Background(), order.ID)
	assert.Equal(t, models.OrderStatusDelivered, got.Status)

	assert.Len(t, pub.statusChanged, 3)
}

func TestHandlePaymentSucceeded(t *testing.T) {
	db := newMemStore()
	order := placeTestOrder(t, db, 1)
	svc := NewOrderService(db, &fakePublisher{})

	event := &models.PaymentSucceededEvent{
		BaseEvent: models.BaseEvent{EventID: "evt-1", EventType: models.EventTypePaymentSucceeded},
		OrderID:   order.ID,
	}
	require.NoError(t, svc.HandlePaymentSucceeded(context.Background(), event))

	got, _ := db.GetOrderByID(context.Background(), order.ID)
	assert.Equal(t, models.OrderStatusProcessing, got.Status)

	// replaying the same event is a no-op
	require.NoError(t, svc.HandlePaymentSucceeded(context.Background(), event))
	got, _ = db.GetOrderByID(context.Background(), order.ID)
	assert.Equal(t, models.OrderStatusProcessing, got.Status)
}

func TestHandlePaymentFailedRestoresInventory(t *testing.T) {
	db := newMemStore()
	order := placeTestOrder(t, db, 1)
	productID := db.orderItems[order.ID][0].ProductID
	require.Equal(t, 8, db.products[productID].Inventory)

	svc := NewOrderService(db, &fakePublisher{})
	event := &models.PaymentFailedEvent{
		BaseEvent: models.BaseEvent{EventID: "evt-2", EventType: models.EventTypePaymentFailed},
		OrderID:   order.ID,
		Reason:    "mock_payment_declined",
	}
	require.NoError(t, svc.HandlePaymentFailed(context.Background(), event))

	got, _ := db.GetOrderByID(context.Background(), order.ID)
	assert.Equal(t, models.OrderStatusCancelled, got.Status)
	assert.Equal(t, 10, db.products[productID].Inventory)

	// replay does not double-restore
	require.NoError(t, svc.HandlePaymentFailed(context.Background(), event))
	assert.Equal(t, 10, db.products[productID].Inventory)
}

func TestHandlePaymentFailedFreshEventID(t *testing.T) {
	db := newMemStore()
	order := placeTestOrder(t, db, 1)
	productID := db.orderItems[order.ID][0].ProductID
	require.Equal(t, 8, db.products[productID].Inventory)

	svc := NewOrderService(db, &fakePublisher{})

	first := &models.PaymentFailedEvent{
		BaseEvent: models.BaseEvent{EventID: "evt-a", EventType: models.EventTypePaymentFailed},
		OrderID:   order.ID,
		Reason:    "mock_payment_declined",
	}
	require.NoError(t, svc.HandlePaymentFailed(context.Background(), first))
	assert.Equal(t, 10, db.products[productID].Inventory)

	// a redelivered outcome can arrive under a brand-new event id; the
	// already-cancelled order must not be compensated again
	second := &models.PaymentFailedEvent{
		BaseEvent: models.BaseEvent{EventID: "evt-b", EventType: models.EventTypePaymentFailed},
		OrderID:   order.ID,
		Reason:    "mock_payment_declined",
	}
	require.NoError(t, svc.HandlePaymentFailed(context.Background(), second))

	got, _ := db.GetOrderByID(context.Background(), order.ID)
	assert.Equal(t, models.OrderStatusCancelled, got.Status)
	assert.Equal(t, 10, db.products[productID].Inventory)
}

func TestHandlePaymentFailedCancelBeforeRestore(t *testing.T) {
	db := newMemStore()
	order := placeTestOrder(t, db, 1)
	productID := db.orderItems[order.ID][0].ProductID

	// an order that already shipped cannot be cancelled, so no stock
	// may come back either
	require.NoError(t, db.UpdateOrderStatus(context.Background(), order.ID, models.OrderStatusShipped))

	svc := NewOrderService(db, &fakePublisher{})
	event := &models.PaymentFailedEvent{
		BaseEvent: models.BaseEvent{EventID: "evt-late", EventType: models.EventTypePaymentFailed},
		OrderID:   order.ID,
		Reason:    "mock_payment_declined",
	}
	err := svc.HandlePaymentFailed(context.Background(), event)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, 8, db.products[productID].Inventory)
}

func TestHandlePaymentSucceededFreshEventID(t *testing.T) {
	db := newMemStore()
	order := placeTestOrder(t, db, 1)
	pub := &fakePublisher{}
	svc := NewOrderService(db, pub)

	first := &models.PaymentSucceededEvent{
		BaseEvent: models.BaseEvent{EventID: "evt-a", EventType: models.EventTypePaymentSucceeded},
		OrderID:   order.ID,
	}
	require.NoError(t, svc.HandlePaymentSucceeded(context.Background(), first))

	second := &models.PaymentSucceededEvent{
		BaseEvent: models.BaseEvent{EventID: "evt-b", EventType: models.EventTypePaymentSucceeded},
		OrderID:   order.ID,
	}
	require.NoError(t, svc.HandlePaymentSucceeded(context.Background(), second))

	got, _ := db.GetOrderByID(context.Background(), order.ID)
	assert.Equal(t, models.OrderStatusProcessing, got.Status)
	assert.Len(t, pub.statusChanged, 1)
}

func TestValidStatusTransition(t *testing.T) {
	assert.True(t, models.ValidStatusTransition(models.OrderStatusPending, models.OrderStatusProcessing))
	assert.True(t, models.ValidStatusTransition(models.OrderStatusProcessing, models.OrderStatusShipped))
	assert.True(t, models.ValidStatusTransition(models.OrderStatusShipped, models.OrderStatusDelivered))
	assert.True(t, models.ValidStatusTransition(models.OrderStatusPending, models.OrderStatusCancelled))
	assert.True(t, models.ValidStatusTransition(models.OrderStatusProcessing, models.OrderStatusCancelled))

	assert.False(t, models.ValidStatusTransition(models.OrderStatusPending, models.OrderStatusShipped))
	assert.False(t, models.ValidStatusTransition(models.OrderStatusShipped, models.OrderStatusCancelled))
	assert.False(t, models.ValidStatusTransition(models.OrderStatusDelivered, models.OrderStatusCancelled))
	assert.False(t, models.ValidStatusTransition(models.OrderStatusCancelled, models.OrderStatusProcessing))
	assert.False(t, models.ValidStatusTransition(models.OrderStatusProcessing, models.OrderStatusPending))
}
