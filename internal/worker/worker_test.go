package worker

import (
	"context"
	"testing"

	"storefront/internal/models"
	"storefront/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// capturePublisher counts published payment outcomes
type capturePublisher struct {
	succeeded int
	failed    int
}

func (p *capturePublisher) PublishPaymentSucceeded(ctx context.Context, event *models.PaymentSucceededEvent) error {
	p.succeeded++
	return nil
}

func (p *capturePublisher) PublishPaymentFailed(ctx context.Context, event *models.PaymentFailedEvent) error {
	p.failed++
	return nil
}

// memEventLog is a fake EventLog
type memEventLog struct {
	processed map[string]bool
}

func newMemEventLog() *memEventLog {
	return &memEventLog{processed: make(map[string]bool)}
}

func (l *memEventLog) IsEventProcessed(ctx context.Context, eventID string) (bool, error) {
	return l.processed[eventID], nil
}

func (l *memEventLog) MarkEventProcessed(ctx context.Context, eventID, eventType string) error {
	l.processed[eventID] = true
	return nil
}

func TestPaymentWorkerChargesOnce(t *testing.T) {
	pub := &capturePublisher{}
	paymentService := service.NewPaymentService(pub, 0, 1.0)
	w := NewPaymentWorker(nil, paymentService, newMemEventLog())

	event := &models.OrderPlacedEvent{
		BaseEvent: models.BaseEvent{EventID: "evt-1", EventType: models.EventTypeOrderPlaced},
		OrderID:   7,
		Total:     4500,
	}

	require.NoError(t, w.handleOrderPlaced(context.Background(), event))

	// a redelivery keeps the original event id and must not publish a
	// second outcome
	require.NoError(t, w.handleOrderPlaced(context.Background(), event))

	assert.Equal(t, 1, pub.succeeded)
	assert.Zero(t, pub.failed)
}
