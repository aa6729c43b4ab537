package service

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"storefront/internal/models"
	"storefront/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PaymentEventPublisher publishes payment outcomes
type PaymentEventPublisher interface {
	PublishPaymentSucceeded(ctx context.Context, event *models.PaymentSucceededEvent) error
	PublishPaymentFailed(ctx context.Context, event *models.PaymentFailedEvent) error
}

// PaymentService simulates a payment provider: it sleeps for the
// configured latency and succeeds with the configured probability. No
// real gateway is involved.
type PaymentService struct {
	publisher   PaymentEventPublisher
	latency     time.Duration
	successRate float64
	logger      *zap.Logger
}

// NewPaymentService creates a new mock payment service
func NewPaymentService(publisher PaymentEventPublisher, latency time.Duration, successRate float64) *PaymentService {
	return &PaymentService{
		publisher:   publisher,
		latency:     latency,
		successRate: successRate,
		logger:      util.NamedLogger("payment"),
	}
}

// ProcessPayment runs the mock payment for an order and publishes the
// outcome event
func (ps *PaymentService) ProcessPayment(ctx context.Context, orderID int64, amount int64) error {
	ctx, span := util.StartSpan(ctx, "PaymentService.ProcessPayment")
	defer span.End()

	util.PaymentAttemptsTotal.Inc()

	ps.logger.Info("Processing payment",
		zap.Int64("order_id", orderID),
		zap.Int64("amount", amount))

	select {
	case <-time.After(ps.latency):
	case <-ctx.Done():
		return ctx.Err()
	}

	if rand.Float64() < ps.successRate {
		txID := fmt.Sprintf("TXN-%s", uuid.New().String()[:8])
		ps.logger.Info("Payment succeeded",
			zap.Int64("order_id", orderID),
			zap.String("tx_id", txID))

		util.PaymentSuccessTotal.Inc()

		event := &models.PaymentSucceededEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypePaymentSucceeded,
				Timestamp: time.Now(),
			},
			OrderID: orderID,
			Amount:  amount,
			TxID:    txID,
		}
		if err := ps.publisher.PublishPaymentSucceeded(ctx, event); err != nil {
			return fmt.Errorf("failed to publish PaymentSucceeded event: %w", err)
		}
		return nil
	}

	ps.logger.Warn("Payment declined", zap.Int64("order_id", orderID))
	util.PaymentFailedTotal.Inc()

	event := &models.PaymentFailedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypePaymentFailed,
			Timestamp: time.Now(),
		},
		OrderID: orderID,
		Reason:  "mock_payment_declined",
	}
	if err := ps.publisher.PublishPaymentFailed(ctx, event); err != nil {
		return fmt.Errorf("failed to publish PaymentFailed event: %w", err)
	}
	return nil
}
