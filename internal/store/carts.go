package store

import (
	"context"
	"database/sql"
	"fmt"

	"storefront/internal/models"
)

// GetCartByUser retrieves the user's cart, or ErrNotFound if none exists
func (s *Store) GetCartByUser(ctx context.Context, userID int64) (*models.Cart, error) {
	var cart models.Cart
	err := s.db.GetContext(ctx, &cart, "SELECT * FROM carts WHERE user_id = $1", userID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("cart for user %d: %w", userID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// CreateCart creates an empty cart for a user. The unique constraint on
// user_id keeps it at exactly one cart per user.
func (s *Store) CreateCart(ctx context.Context, userID int64) (*models.Cart, error) {
	var cart models.Cart
	err := s.db.GetContext(ctx, &cart, `
		INSERT INTO carts (user_id)
		VALUES ($1)
		RETURNING *`, userID)
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("cart for user %d: %w", userID, ErrDuplicate)
	}
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// GetCartItems retrieves a cart's line items in insertion order
func (s *Store) GetCartItems(ctx context.Context, cartID int64) ([]models.CartItem, error) {
	var items []models.CartItem
	err := s.db.SelectContext(ctx, &items,
		"SELECT * FROM cart_items WHERE cart_id = $1 ORDER BY position", cartID)
	return items, err
}

// ReplaceCartItems overwrites the full line-item list of a cart in one
// transaction (replace-all semantics, not a delta update).
func (s *Store) ReplaceCartItems(ctx context.Context, cartID int64, items []models.CartItem) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM cart_items WHERE cart_id = $1", cartID); err != nil {
		return fmt.Errorf("failed to clear cart items: %w", err)
	}

	for i, item := range items {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO cart_items (id, cart_id, product_id, quantity, position)
			VALUES ($1, $2, $3, $4, $5)`,
			item.ID, cartID, item.ProductID, item.Quantity, i)
		if err != nil {
			return fmt.Errorf("failed to insert cart item: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE carts SET updated_at = NOW() WHERE id = $1", cartID); err != nil {
		return err
	}

	return tx.Commit()
}

type cartLineRow struct {
	models.Product
	ItemID   string `db:"item_id"`
	Quantity int    `db:"item_quantity"`
}

// GetCartDetail returns the cart with every product reference resolved
// and a running total at current prices. Workflow code only ever sees
// resolved products.
func (s *Store) GetCartDetail(ctx context.Context, userID int64) (*models.CartDetail, error) {
	cart, err := s.GetCartByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	var rows []cartLineRow
	err = s.db.SelectContext(ctx, &rows, `
		SELECT ci.id AS item_id, ci.quantity AS item_quantity,
		       p.id, p.name, p.slug, p.description, p.price,
		       p.category_id, p.inventory, p.created_at, p.updated_at
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id = $1
		ORDER BY ci.position`, cart.ID)
	if err != nil {
		return nil, err
	}

	detail := &models.CartDetail{ID: cart.ID, Items: make([]models.CartLine, 0, len(rows))}
	for _, row := range rows {
		detail.Items = append(detail.Items, models.CartLine{
			ID:       row.ItemID,
			Quantity: row.Quantity,
			Product:  row.Product,
		})
		detail.Total += row.Product.Price * int64(row.Quantity)
	}
	return detail, nil
}

// DeleteCart removes a cart and its items
func (s *Store) DeleteCart(ctx context.Context, cartID int64) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM carts WHERE id = $1", cartID)
	return err
}
