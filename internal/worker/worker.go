package worker

import (
	"context"
	"log"

	"storefront/internal/broker"
	"storefront/internal/models"
	"storefront/internal/service"
)

// EventLog records which events have already been handled, so
// redelivered messages do not repeat their side effects
type EventLog interface {
	IsEventProcessed(ctx context.Context, eventID string) (bool, error)
	MarkEventProcessed(ctx context.Context, eventID, eventType string) error
}

// PaymentWorker consumes OrderPlaced events and runs the mock payment
// provider for each one
type PaymentWorker struct {
	consumer       *broker.Consumer
	eventHandler   *broker.EventHandler
	paymentService *service.PaymentService
	events         EventLog
}

// NewPaymentWorker creates a new payment worker
func NewPaymentWorker(consumer *broker.Consumer, paymentService *service.PaymentService, events EventLog) *PaymentWorker {
	eventHandler := broker.NewEventHandler()
	worker := &PaymentWorker{
		consumer:       consumer,
		eventHandler:   eventHandler,
		paymentService: paymentService,
		events:         events,
	}

	eventHandler.OnOrderPlaced(worker.handleOrderPlaced)
	return worker
}

// handleOrderPlaced charges each placed order exactly once. A
// redelivered OrderPlaced keeps its original event id, so the log
// catches it before a second payment attempt publishes a second
// outcome.
func (w *PaymentWorker) handleOrderPlaced(ctx context.Context, event *models.OrderPlacedEvent) error {
	processed, err := w.events.IsEventProcessed(ctx, event.EventID)
	if err != nil {
		return err
	}
	if processed {
		log.Printf("Skipping already charged order: %d", event.OrderID)
		return nil
	}

	log.Printf("Processing payment for order: %d", event.OrderID)
	if err := w.paymentService.ProcessPayment(ctx, event.OrderID, event.Total); err != nil {
		return err
	}
	return w.events.MarkEventProcessed(ctx, event.EventID, event.EventType)
}

// Start starts the worker
func (w *PaymentWorker) Start(ctx context.Context) error {
	log.Println("Starting payment worker...")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *PaymentWorker) Stop() error {
	log.Println("Stopping payment worker...")
	return w.consumer.Close()
}

// OrderWorker consumes payment outcome events and applies them to the
// order (status advance or cancellation compensation)
type OrderWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	orderService *service.OrderService
}

// NewOrderWorker creates a new order worker
func NewOrderWorker(consumer *broker.Consumer, orderService *service.OrderService) *OrderWorker {
	eventHandler := broker.NewEventHandler()

	eventHandler.OnPaymentSucceeded(orderService.HandlePaymentSucceeded)
	eventHandler.OnPaymentFailed(orderService.HandlePaymentFailed)

	return &OrderWorker{
		consumer:     consumer,
		eventHandler: eventHandler,
		orderService: orderService,
	}
}

// Start starts the worker
func (w *OrderWorker) Start(ctx context.Context) error {
	log.Println("Starting order worker...")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *OrderWorker) Stop() error {
	log.Println("Stopping order worker...")
	return w.consumer.Close()
}
