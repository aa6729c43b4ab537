package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"storefront/internal/models"

	"github.com/jmoiron/sqlx"
)

// InsufficientInventoryError reports a cart line whose quantity exceeds
// the product's current inventory at checkout time.
type InsufficientInventoryError struct {
	ProductID   int64
	ProductName string
	Available   int
	Requested   int
}

func (e *InsufficientInventoryError) Error() string {
	return fmt.Sprintf("only %d %s(s) available (requested %d)",
		e.Available, e.ProductName, e.Requested)
}

// PlaceOrderTx runs the whole checkout sequence as a single
// transaction: lock product rows, validate inventory, snapshot prices,
// insert the order and its items, decrement inventory, delete the cart.
// A failure at any step rolls everything back, so concurrent checkouts
// against the same product cannot oversell.
func (s *Store) PlaceOrderTx(ctx context.Context, userID, cartID int64, items []models.CartItem) (*models.Order, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	// Lock in ascending product id order so concurrent checkouts
	// cannot deadlock on each other.
	sorted := make([]models.CartItem, len(items))
	copy(sorted, items)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ProductID < sorted[j].ProductID })

	var total int64
	prices := make(map[int64]int64, len(sorted))

	for _, item := range sorted {
		var product models.Product
		err := tx.GetContext(ctx, &product,
			"SELECT * FROM products WHERE id = $1 FOR UPDATE", item.ProductID)
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("product %d: %w", item.ProductID, ErrNotFound)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to lock product: %w", err)
		}

		if item.Quantity > product.Inventory {
			return nil, &InsufficientInventoryError{
				ProductID:   product.ID,
				ProductName: product.Name,
				Available:   product.Inventory,
				Requested:   item.Quantity,
			}
		}

		prices[product.ID] = product.Price
		total += product.Price * int64(item.Quantity)

		_, err = tx.ExecContext(ctx,
			"UPDATE products SET inventory = inventory - $1, updated_at = NOW() WHERE id = $2",
			item.Quantity, product.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to decrement inventory: %w", err)
		}
	}

	order := &models.Order{}
	err = tx.GetContext(ctx, order, `
		INSERT INTO orders (user_id, status, total)
		VALUES ($1, $2, $3)
		RETURNING *`, userID, models.OrderStatusPending, total)
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	// Snapshot items in the cart's original order, at the prices read
	// under lock.
	for _, item := range items {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO order_items (order_id, product_id, quantity, unit_price)
			VALUES ($1, $2, $3, $4)`,
			order.ID, item.ProductID, item.Quantity, prices[item.ProductID])
		if err != nil {
			return nil, fmt.Errorf("failed to create order item: %w", err)
		}
	}

	// Remove exactly the purchased lines. A line added to the cart
	// between the read and this commit survives, and keeps its cart.
	lineIDs := make([]string, 0, len(items))
	for _, item := range items {
		lineIDs = append(lineIDs, item.ID)
	}
	query, args, err := sqlx.In("DELETE FROM cart_items WHERE id IN (?)", lineIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to build cart clear: %w", err)
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to clear cart items: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM carts
		WHERE id = $1
		  AND NOT EXISTS (SELECT 1 FROM cart_items WHERE cart_id = carts.id)`, cartID); err != nil {
		return nil, fmt.Errorf("failed to clear cart: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return order, nil
}

// GetOrderByID retrieves an order by ID
func (s *Store) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("order %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrdersByUser retrieves a user's orders, newest first
func (s *Store) GetOrdersByUser(ctx context.Context, userID int64) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.SelectContext(ctx, &orders,
		"SELECT * FROM orders WHERE user_id = $1 ORDER BY created_at DESC", userID)
	return orders, err
}

// GetOrderItems retrieves all items for an order
func (s *Store) GetOrderItems(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := s.db.SelectContext(ctx, &items,
		"SELECT * FROM order_items WHERE order_id = $1 ORDER BY id", orderID)
	return items, err
}

// UpdateOrderStatus updates order status
func (s *Store) UpdateOrderStatus(ctx context.Context, orderID int64, status string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2",
		status, orderID)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("order %d: %w", orderID, ErrNotFound)
	}
	return nil
}
