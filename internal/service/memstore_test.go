package service

import (
	"context"
	"fmt"
	"sort"

	"storefront/internal/models"
	"storefront/internal/store"
)

// memStore is an in-memory stand-in for the sqlx store so the
// workflows can be tested without a database.
type memStore struct {
	nextID       int64
	products     map[int64]*models.Product
	categories   map[int64]*models.Category
	carts        map[int64]*models.Cart
	cartByUser   map[int64]int64
	cartItems    map[int64][]models.CartItem
	orders       map[int64]*models.Order
	orderItems   map[int64][]models.OrderItem
	users        map[int64]*models.User
	usersByEmail map[string]int64
	processed    map[string]bool
}

func newMemStore() *memStore {
	return &memStore{
		products:     make(map[int64]*models.Product),
		categories:   make(map[int64]*models.Category),
		carts:        make(map[int64]*models.Cart),
		cartByUser:   make(map[int64]int64),
		cartItems:    make(map[int64][]models.CartItem),
		orders:       make(map[int64]*models.Order),
		orderItems:   make(map[int64][]models.OrderItem),
		users:        make(map[int64]*models.User),
		usersByEmail: make(map[string]int64),
		processed:    make(map[string]bool),
	}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memStore) addProduct(name string, price int64, inventory int) *models.Product {
	p := &models.Product{
		ID:        m.id(),
		Name:      name,
		Slug:      name,
		Price:     price,
		Inventory: inventory,
	}
	m.products[p.ID] = p
	return p
}

func (m *memStore) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, fmt.Errorf("product %d: %w", id, store.ErrNotFound)
	}
	clone := *p
	return &clone, nil
}

func (m *memStore) GetProductsByIDs(ctx context.Context, ids []int64) ([]models.Product, error) {
	var products []models.Product
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			products = append(products, *p)
		}
	}
	return products, nil
}

func (m *memStore) GetCartByUser(ctx context.Context, userID int64) (*models.Cart, error) {
	cartID, ok := m.cartByUser[userID]
	if !ok {
		return nil, fmt.Errorf("cart for user %d: %w", userID, store.ErrNotFound)
	}
	clone := *m.carts[cartID]
	return &clone, nil
}

func (m *memStore) CreateCart(ctx context.Context, userID int64) (*models.Cart, error) {
	if _, ok := m.cartByUser[userID]; ok {
		return nil, fmt.Errorf("cart for user %d: %w", userID, store.ErrDuplicate)
	}
	cart := &models.Cart{ID: m.id(), UserID: userID}
	m.carts[cart.ID] = cart
	m.cartByUser[userID] = cart.ID
	return cart, nil
}

func (m *memStore) GetCartItems(ctx context.Context, cartID int64) ([]models.CartItem, error) {
	items := m.cartItems[cartID]
	out := make([]models.CartItem, len(items))
	copy(out, items)
	return out, nil
}

func (m *memStore) ReplaceCartItems(ctx context.Context, cartID int64, items []models.CartItem) error {
	replaced := make([]models.CartItem, len(items))
	copy(replaced, items)
	m.cartItems[cartID] = replaced
	return nil
}

func (m *memStore) GetCartDetail(ctx context.Context, userID int64) (*models.CartDetail, error) {
	cart, err := m.GetCartByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	detail := &models.CartDetail{ID: cart.ID, Items: []models.CartLine{}}
	for _, item := range m.cartItems[cart.ID] {
		product, ok := m.products[item.ProductID]
		if !ok {
			return nil, fmt.Errorf("product %d: %w", item.ProductID, store.ErrNotFound)
		}
		detail.Items = append(detail.Items, models.CartLine{
			ID:       item.ID,
			Quantity: item.Quantity,
			Product:  *product,
		})
		detail.Total += product.Price * int64(item.Quantity)
	}
	return detail, nil
}

func (m *memStore) DeleteCart(cartID int64) {
	cart, ok := m.carts[cartID]
	if !ok {
		return
	}
	delete(m.cartByUser, cart.UserID)
	delete(m.carts, cartID)
	delete(m.cartItems, cartID)
}

// PlaceOrderTx mirrors the all-or-nothing checkout transaction:
// nothing is mutated unless every line validates.
func (m *memStore) PlaceOrderTx(ctx context.Context, userID, cartID int64, items []models.CartItem) (*models.Order, error) {
	sorted := make([]models.CartItem, len(items))
	copy(sorted, items)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ProductID < sorted[j].ProductID })

	var total int64
	for _, item := range sorted {
		product, ok := m.products[item.ProductID]
		if !ok {
			return nil, fmt.Errorf("product %d: %w", item.ProductID, store.ErrNotFound)
		}
		if item.Quantity > product.Inventory {
			return nil, &store.InsufficientInventoryError{
				ProductID:   product.ID,
				ProductName: product.Name,
				Available:   product.Inventory,
				Requested:   item.Quantity,
			}
		}
		total += product.Price * int64(item.Quantity)
	}

	order := &models.Order{
		ID:     m.id(),
		UserID: userID,
		Status: models.OrderStatusPending,
		Total:  total,
	}
	m.orders[order.ID] = order

	for _, item := range items {
		product := m.products[item.ProductID]
		product.Inventory -= item.Quantity
		m.orderItems[order.ID] = append(m.orderItems[order.ID], models.OrderItem{
			ID:        m.id(),
			OrderID:   order.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: product.Price,
		})
	}

	// only the purchased lines leave the cart; a line added after the
	// read survives and keeps the cart alive
	purchased := make(map[string]bool, len(items))
	for _, item := range items {
		purchased[item.ID] = true
	}
	var remaining []models.CartItem
	for _, line := range m.cartItems[cartID] {
		if !purchased[line.ID] {
			remaining = append(remaining, line)
		}
	}
	if len(remaining) == 0 {
		m.DeleteCart(cartID)
	} else {
		m.cartItems[cartID] = remaining
	}

	clone := *order
	return &clone, nil
}

func (m *memStore) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	order, ok := m.orders[id]
	if !ok {
		return nil, fmt.Errorf("order %d: %w", id, store.ErrNotFound)
	}
	clone := *order
	return &clone, nil
}

func (m *memStore) GetOrdersByUser(ctx context.Context, userID int64) ([]models.Order, error) {
	var orders []models.Order
	for _, order := range m.orders {
		if order.UserID == userID {
			orders = append(orders, *order)
		}
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].ID > orders[j].ID })
	return orders, nil
}

func (m *memStore) GetOrderItems(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	items := m.orderItems[orderID]
	out := make([]models.OrderItem, len(items))
	copy(out, items)
	return out, nil
}

func (m *memStore) UpdateOrderStatus(ctx context.Context, orderID int64, status string) error {
	order, ok := m.orders[orderID]
	if !ok {
		return fmt.Errorf("order %d: %w", orderID, store.ErrNotFound)
	}
	order.Status = status
	return nil
}

func (m *memStore) RestoreInventory(ctx context.Context, productID int64, quantity int) error {
	product, ok := m.products[productID]
	if !ok {
		return fmt.Errorf("product %d: %w", productID, store.ErrNotFound)
	}
	product.Inventory += quantity
	return nil
}

func (m *memStore) IsEventProcessed(ctx context.Context, eventID string) (bool, error) {
	return m.processed[eventID], nil
}

func (m *memStore) MarkEventProcessed(ctx context.Context, eventID, eventType string) error {
	m.processed[eventID] = true
	return nil
}

func (m *memStore) CreateUser(ctx context.Context, user *models.User) error {
	if _, ok := m.usersByEmail[user.Email]; ok {
		return fmt.Errorf("email %q: %w", user.Email, store.ErrDuplicate)
	}
	user.ID = m.id()
	clone := *user
	m.users[user.ID] = &clone
	m.usersByEmail[user.Email] = user.ID
	return nil
}

func (m *memStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	id, ok := m.usersByEmail[email]
	if !ok {
		return nil, fmt.Errorf("user %q: %w", email, store.ErrNotFound)
	}
	clone := *m.users[id]
	return &clone, nil
}

func (m *memStore) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	user, ok := m.users[id]
	if !ok {
		return nil, fmt.Errorf("user %d: %w", id, store.ErrNotFound)
	}
	clone := *user
	return &clone, nil
}

// fakePublisher records every published event
type fakePublisher struct {
	orderPlaced   []*models.OrderPlacedEvent
	statusChanged []*models.OrderStatusChangedEvent
	paySucceeded  []*models.PaymentSucceededEvent
	payFailed     []*models.PaymentFailedEvent
}

func (p *fakePublisher) PublishOrderPlaced(ctx context.Context, event *models.OrderPlacedEvent) error {
	p.orderPlaced = append(p.orderPlaced, event)
	return nil
}

func (p *fakePublisher) PublishOrderStatusChanged(ctx context.Context, event *models.OrderStatusChangedEvent) error {
	p.statusChanged = append(p.statusChanged, event)
	return nil
}

func (p *fakePublisher) PublishPaymentSucceeded(ctx context.Context, event *models.PaymentSucceededEvent) error {
	p.paySucceeded = append(p.paySucceeded, event)
	return nil
}

func (p *fakePublisher) PublishPaymentFailed(ctx context.Context, event *models.PaymentFailedEvent) error {
	p.payFailed = append(p.payFailed, event)
	return nil
}
