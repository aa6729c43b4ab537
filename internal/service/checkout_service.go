package service

import (
	"context"
	"regexp"
	"strings"
	"time"

	"storefront/internal/models"
	"storefront/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CheckoutStore is the slice of the store the checkout workflow needs
type CheckoutStore interface {
	GetCartDetail(ctx context.Context, userID int64) (*models.CartDetail, error)
	PlaceOrderTx(ctx context.Context, userID, cartID int64, items []models.CartItem) (*models.Order, error)
}

// OrderEventPublisher publishes checkout-related events
type OrderEventPublisher interface {
	PublishOrderPlaced(ctx context.Context, event *models.OrderPlacedEvent) error
}

// CheckoutService turns a cart into an order
type CheckoutService struct {
	store     CheckoutStore
	publisher OrderEventPublisher
	logger    *zap.Logger
}

// NewCheckoutService creates a new checkout service
func NewCheckoutService(store CheckoutStore, publisher OrderEventPublisher) *CheckoutService {
	return &CheckoutService{
		store:     store,
		publisher: publisher,
		logger:    util.NamedLogger("checkout"),
	}
}

// CheckoutForm carries the shipping and payment fields. No real
// gateway sits behind PaymentMethod; validation is structural only.
type CheckoutForm struct {
	FirstName     string `json:"firstName"`
	LastName      string `json:"lastName"`
	Email         string `json:"email"`
	Address       string `json:"address"`
	City          string `json:"city"`
	State         string `json:"state"`
	ZipCode       string `json:"zipCode"`
	PaymentMethod string `json:"paymentMethod"`
	AgreeToTerms  bool   `json:"agreeToTerms"`
}

var (
	zipCodePattern = regexp.MustCompile(`^\d{5}(-\d{4})?$`)
	emailPattern   = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

var paymentMethods = map[string]bool{
	"card":      true,
	"paypal":    true,
	"apple-pay": true,
}

// Validate checks the form structurally and returns per-field errors
func (f *CheckoutForm) Validate() *ValidationError {
	verr := NewValidationError()

	if len(strings.TrimSpace(f.FirstName)) < 2 {
		verr.Add("firstName", "First name must be at least 2 characters")
	}
	if len(strings.TrimSpace(f.LastName)) < 2 {
		verr.Add("lastName", "Last name must be at least 2 characters")
	}
	if !emailPattern.MatchString(f.Email) {
		verr.Add("email", "Please enter a valid email address")
	}
	if len(strings.TrimSpace(f.Address)) < 5 {
		verr.Add("address", "Please enter a complete address")
	}
	if len(strings.TrimSpace(f.City)) < 2 {
		verr.Add("city", "City must be at least 2 characters")
	}
	if len(strings.TrimSpace(f.State)) < 2 {
		verr.Add("state", "State must be at least 2 characters")
	}
	if !zipCodePattern.MatchString(f.ZipCode) {
		verr.Add("zipCode", "Please enter a valid ZIP code")
	}
	if f.PaymentMethod == "" {
		f.PaymentMethod = "card"
	} else if !paymentMethods[f.PaymentMethod] {
		verr.Add("paymentMethod", "Unsupported payment method")
	}
	if !f.AgreeToTerms {
		verr.Add("agreeToTerms", "You must agree to the terms and conditions")
	}

	if verr.Empty() {
		return nil
	}
	return verr
}

// Checkout validates the form and cart, then places the order as one
// transaction: inventory re-check under row locks, price snapshot,
// order creation, inventory decrement and cart deletion all commit or
// roll back together. On success an OrderPlaced event is published and
// the payment worker later advances the order from pending to
// processing.
func (s *CheckoutService) Checkout(ctx context.Context, userID int64, form *CheckoutForm) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "CheckoutService.Checkout")
	defer span.End()

	start := time.Now()
	defer func() {
		util.CheckoutLatency.Observe(time.Since(start).Seconds())
	}()

	if verr := form.Validate(); verr != nil {
		util.OrdersFailedTotal.WithLabelValues("invalid_form").Inc()
		return nil, verr
	}

	cart, err := s.store.GetCartDetail(ctx, userID)
	if err != nil {
		if IsNotFound(err) {
			util.OrdersFailedTotal.WithLabelValues("empty_cart").Inc()
			return nil, ErrEmptyCart
		}
		return nil, err
	}
	if len(cart.Items) == 0 {
		util.OrdersFailedTotal.WithLabelValues("empty_cart").Inc()
		return nil, ErrEmptyCart
	}

	items := make([]models.CartItem, 0, len(cart.Items))
	for _, line := range cart.Items {
		items = append(items, models.CartItem{
			ID:        line.ID,
			CartID:    cart.ID,
			ProductID: line.Product.ID,
			Quantity:  line.Quantity,
		})
	}

	order, err := s.store.PlaceOrderTx(ctx, userID, cart.ID, items)
	if err != nil {
		util.OrdersFailedTotal.WithLabelValues("place_order").Inc()
		return nil, err
	}

	util.OrdersPlacedTotal.Inc()
	s.logger.Info("Order placed",
		zap.Int64("order_id", order.ID),
		zap.Int64("user_id", userID),
		zap.Int64("total", order.Total))

	eventItems := make([]models.OrderItemData, 0, len(cart.Items))
	for _, line := range cart.Items {
		eventItems = append(eventItems, models.OrderItemData{
			ProductID: line.Product.ID,
			Quantity:  line.Quantity,
			UnitPrice: line.Product.Price,
		})
	}

	event := &models.OrderPlacedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderPlaced,
			Timestamp: time.Now(),
		},
		OrderID: order.ID,
		UserID:  userID,
		Total:   order.Total,
		Items:   eventItems,
	}
	if err := s.publisher.PublishOrderPlaced(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderPlaced event", zap.Error(err))
	}

	return order, nil
}
