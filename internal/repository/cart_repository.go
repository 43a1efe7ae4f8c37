package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"storefront/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrCartNotFound     = errors.New("cart not found")
	ErrCartItemNotFound = errors.New("product not found in cart")
	ErrQuantityLimit    = errors.New("cart line quantity limit exceeded")
)

// CartRepository defines the interface for cart data access.
// Every mutation is applied atomically by the store.
type CartRepository interface {
	// AddItem creates the cart when missing and merges quantity into the product's line.
	// A merge past domain.MaxItemQuantity fails with ErrQuantityLimit and changes nothing.
	AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*domain.Cart, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) (*domain.Cart, error)
	// UpdateItemQuantity replaces the quantity of an existing line and never creates one
	UpdateItemQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) (*domain.Cart, error)
	// RemoveItem drops the product's line; a missing line is not an error
	RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*domain.Cart, error)
	Clear(ctx context.Context, userID uuid.UUID) (*domain.Cart, error)
}

type cartRepository struct {
	db *sql.DB
}

// NewCartRepository creates a new instance of CartRepository
func NewCartRepository(db *sql.DB) CartRepository {
	return &cartRepository{db: db}
}

// AddItem upserts the cart and the line in one transaction. The line upsert adds to
// the stored quantity, so concurrent adds of the same product are never lost. The
// conflict update is guarded so the sum stays within domain.MaxItemQuantity; when the
// guard refuses, no row is written and the transaction rolls back.
func (r *cartRepository) AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*domain.Cart, error) {
	var cart *domain.Cart
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO carts (user_id, created_at, updated_at)
			VALUES ($1, NOW(), NOW())
			ON CONFLICT (user_id) DO UPDATE SET updated_at = NOW()
		`, userID)
		if err != nil {
			return fmt.Errorf("failed to upsert cart: %w", err)
		}

		result, err := tx.ExecContext(ctx, `
			INSERT INTO cart_items (user_id, product_id, quantity)
			VALUES ($1, $2, $3)
			ON CONFLICT (user_id, product_id)
			DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
			WHERE cart_items.quantity <= $4 - EXCLUDED.quantity
		`, userID, productID, quantity, domain.MaxItemQuantity)
		if err != nil {
			return fmt.Errorf("failed to upsert cart item: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to upsert cart item: %w", err)
		}
		if affected == 0 {
			return ErrQuantityLimit
		}

		cart, err = loadCart(ctx, tx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return cart, nil
}

// FindByUserID retrieves the cart of a user with its lines in insertion order
func (r *cartRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*domain.Cart, error) {
	return loadCart(ctx, r.db, userID)
}

// UpdateItemQuantity sets the quantity of an existing line
func (r *cartRepository) UpdateItemQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) (*domain.Cart, error) {
	return r.mutate(ctx, userID, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE cart_items SET quantity = $3
			WHERE user_id = $1 AND product_id = $2
		`, userID, productID, quantity)
		if err != nil {
			return fmt.Errorf("failed to update cart item: %w", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}

		if rowsAffected == 0 {
			return ErrCartItemNotFound
		}
		return nil
	})
}

// RemoveItem deletes the product's line if present
func (r *cartRepository) RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*domain.Cart, error) {
	return r.mutate(ctx, userID, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = $1 AND product_id = $2`, userID, productID)
		if err != nil {
			return fmt.Errorf("failed to remove cart item: %w", err)
		}
		return nil
	})
}

// Clear empties the cart but keeps it
func (r *cartRepository) Clear(ctx context.Context, userID uuid.UUID) (*domain.Cart, error) {
	return r.mutate(ctx, userID, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID)
		if err != nil {
			return fmt.Errorf("failed to clear cart: %w", err)
		}
		return nil
	})
}

// mutate locks an existing cart row, applies fn and returns the resulting cart
func (r *cartRepository) mutate(ctx context.Context, userID uuid.UUID, fn func(tx *sql.Tx) error) (*domain.Cart, error) {
	var cart *domain.Cart
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `UPDATE carts SET updated_at = NOW() WHERE user_id = $1`, userID)
		if err != nil {
			return fmt.Errorf("failed to lock cart: %w", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}

		if rowsAffected == 0 {
			return ErrCartNotFound
		}

		if err := fn(tx); err != nil {
			return err
		}

		cart, err = loadCart(ctx, tx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return cart, nil
}

func loadCart(ctx context.Context, q querier, userID uuid.UUID) (*domain.Cart, error) {
	cart := &domain.Cart{UserID: userID, Items: []domain.CartItem{}}

	err := q.QueryRowContext(ctx, `SELECT created_at, updated_at FROM carts WHERE user_id = $1`, userID).
		Scan(&cart.CreatedAt, &cart.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to find cart: %w", err)
	}

	rows, err := q.QueryContext(ctx, `
		SELECT product_id, quantity
		FROM cart_items
		WHERE user_id = $1
		ORDER BY position ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cart items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.CartItem
		if err := rows.Scan(&item.ProductID, &item.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		cart.Items = append(cart.Items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cart items: %w", err)
	}

	return cart, nil
}
