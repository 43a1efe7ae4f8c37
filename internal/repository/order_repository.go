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
	ErrOrderNotFound = errors.New("order not found")
)

// OrderRepository defines the interface for order data access
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	List(ctx context.Context) ([]*domain.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error)
	// UpdateStatus moves the order to status when its current status is in from.
	// A nil from accepts any current status. A refused move returns
	// domain.ErrInvalidStatusTransition.
	UpdateStatus(ctx context.Context, id uuid.UUID, from []domain.OrderStatus, status domain.OrderStatus) (*domain.Order, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository creates a new instance of OrderRepository
func NewOrderRepository(db *sql.DB) OrderRepository {
	return &orderRepository{db: db}
}

const orderColumns = `id, user_id, total_amount, payment_method, shipping_address, status, created_at, updated_at`

func scanOrder(row rowScanner) (*domain.Order, error) {
	order := &domain.Order{Items: []domain.OrderItem{}}
	err := row.Scan(
		&order.ID,
		&order.UserID,
		&order.TotalAmount,
		&order.PaymentMethod,
		&order.ShippingAddress,
		&order.Status,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	return order, err
}

// Create inserts the order and its lines in one transaction
func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO orders (`+orderColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`,
			order.ID,
			order.UserID,
			order.TotalAmount,
			order.PaymentMethod,
			order.ShippingAddress,
			string(order.Status),
			order.CreatedAt,
			order.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		for i, item := range order.Items {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO order_items (order_id, line_no, product_id, quantity, price)
				VALUES ($1, $2, $3, $4, $5)
			`, order.ID, i, item.ProductID, item.Quantity, item.Price)
			if err != nil {
				return fmt.Errorf("failed to create order item: %w", err)
			}
		}

		return nil
	})
}

// FindByID retrieves an order with its lines
func (r *orderRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	order, err := scanOrder(r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to find order by ID: %w", err)
	}

	if err := r.attachItems(ctx, []*domain.Order{order}); err != nil {
		return nil, err
	}

	return order, nil
}

// List retrieves every order, newest first
func (r *orderRepository) List(ctx context.Context) ([]*domain.Order, error) {
	return r.query(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC, id`)
}

// ListByUser retrieves the orders placed by a user, newest first
func (r *orderRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	return r.query(ctx, `SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC, id`, userID)
}

// UpdateStatus performs a compare-and-set on the status column, so two racing
// transitions out of the same status cannot both succeed
func (r *orderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from []domain.OrderStatus, status domain.OrderStatus) (*domain.Order, error) {
	query := `
		UPDATE orders SET status = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + orderColumns
	args := []interface{}{id, string(status)}

	if from != nil {
		allowed := make([]string, len(from))
		for i, s := range from {
			allowed[i] = string(s)
		}
		query = `
			UPDATE orders SET status = $2, updated_at = NOW()
			WHERE id = $1 AND status = ANY($3::text[])
			RETURNING ` + orderColumns
		args = append(args, allowed)
	}

	order, err := scanOrder(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("failed to update order status: %w", err)
		}
		if from == nil {
			return nil, ErrOrderNotFound
		}

		var exists bool
		err = r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, id).Scan(&exists)
		if err != nil {
			return nil, fmt.Errorf("failed to check order: %w", err)
		}
		if !exists {
			return nil, ErrOrderNotFound
		}
		return nil, domain.ErrInvalidStatusTransition
	}

	if err := r.attachItems(ctx, []*domain.Order{order}); err != nil {
		return nil, err
	}

	return order, nil
}

// Delete removes an order; its lines follow through ON DELETE CASCADE
func (r *orderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrOrderNotFound
	}

	return nil
}

func (r *orderRepository) query(ctx context.Context, query string, args ...interface{}) ([]*domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := []*domain.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}

	return orders, nil
}

// attachItems loads the lines of every order with a single query
func (r *orderRepository) attachItems(ctx context.Context, orders []*domain.Order) error {
	if len(orders) == 0 {
		return nil
	}

	byID := make(map[uuid.UUID]*domain.Order, len(orders))
	ids := make([]uuid.UUID, 0, len(orders))
	for _, order := range orders {
		byID[order.ID] = order
		ids = append(ids, order.ID)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT order_id, product_id, quantity, price
		FROM order_items
		WHERE order_id = ANY($1::uuid[])
		ORDER BY order_id, line_no
	`, uuidStrings(ids))
	if err != nil {
		return fmt.Errorf("failed to list order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var orderID uuid.UUID
		var item domain.OrderItem
		if err := rows.Scan(&orderID, &item.ProductID, &item.Quantity, &item.Price); err != nil {
			return fmt.Errorf("failed to scan order item: %w", err)
		}
		if order, ok := byID[orderID]; ok {
			order.Items = append(order.Items, item)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating order items: %w", err)
	}

	return nil
}
