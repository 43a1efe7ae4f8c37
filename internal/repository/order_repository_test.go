package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"storefront/internal/domain"

	"github.com/google/uuid"
)

func newTestOrder(userID uuid.UUID) *domain.Order {
	return &domain.Order{
		ID:     uuid.New(),
		UserID: userID,
		Items: []domain.OrderItem{
			{ProductID: uuid.New(), Quantity: 5, Price: 9.99},
			{ProductID: uuid.New(), Quantity: 1, Price: 0},
		},
		TotalAmount:     49.95,
		PaymentMethod:   "card",
		ShippingAddress: "1 Test Street",
		Status:          domain.OrderStatusPending,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}
}

func TestOrderRepository_CreateAndFind(t *testing.T) {
	requireDB(t)
	repo := NewOrderRepository(testDB)
	ctx := context.Background()
	userID := uuid.New()

	order := newTestOrder(userID)
	if err := repo.Create(ctx, order); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	found, err := repo.FindByID(ctx, order.ID)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if len(found.Items) != 2 || found.Items[0].Price != 9.99 || found.Items[0].Quantity != 5 {
		t.Errorf("Unexpected items: %+v", found.Items)
	}
	if found.ShippingAddress != "1 Test Street" || found.Status != domain.OrderStatusPending {
		t.Errorf("Unexpected order: %+v", found)
	}

	orders, err := repo.ListByUser(ctx, userID)
	if err != nil {
		t.Fatalf("ListByUser failed: %v", err)
	}
	if len(orders) != 1 || len(orders[0].Items) != 2 {
		t.Errorf("Expected one order with two lines, got %+v", orders)
	}
}

func TestOrderRepository_PricesRoundTripExactly(t *testing.T) {
	requireDB(t)
	repo := NewOrderRepository(testDB)
	ctx := context.Background()

	order := newTestOrder(uuid.New())
	order.Items[0].Price = 9.999
	order.Items[1].Price = 1e12 + 0.125
	order.TotalAmount = 123456789012.345
	if err := repo.Create(ctx, order); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	found, err := repo.FindByID(ctx, order.ID)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if found.Items[0].Price != 9.999 || found.Items[1].Price != 1e12+0.125 {
		t.Errorf("Item prices changed in storage: %+v", found.Items)
	}
	if found.TotalAmount != order.TotalAmount {
		t.Errorf("Expected total %v, got %v", order.TotalAmount, found.TotalAmount)
	}
}

func TestOrderRepository_UpdateStatusCompareAndSet(t *testing.T) {
	requireDB(t)
	repo := NewOrderRepository(testDB)
	ctx := context.Background()

	order := newTestOrder(uuid.New())
	if err := repo.Create(ctx, order); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	updated, err := repo.UpdateStatus(ctx, order.ID, []domain.OrderStatus{domain.OrderStatusPending}, domain.OrderStatusConfirmed)
	if err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}
	if updated.Status != domain.OrderStatusConfirmed || len(updated.Items) != 2 {
		t.Errorf("Unexpected order after update: %+v", updated)
	}

	// The order is no longer pending, so the same guarded move must be refused
	_, err = repo.UpdateStatus(ctx, order.ID, []domain.OrderStatus{domain.OrderStatusPending}, domain.OrderStatusConfirmed)
	if !errors.Is(err, domain.ErrInvalidStatusTransition) {
		t.Errorf("Expected ErrInvalidStatusTransition, got %v", err)
	}

	updated, err = repo.UpdateStatus(ctx, order.ID, nil, domain.OrderStatusPending)
	if err != nil {
		t.Fatalf("Unguarded UpdateStatus failed: %v", err)
	}
	if updated.Status != domain.OrderStatusPending {
		t.Errorf("Expected pending, got %s", updated.Status)
	}

	if _, err := repo.UpdateStatus(ctx, uuid.New(), nil, domain.OrderStatusShipped); !errors.Is(err, ErrOrderNotFound) {
		t.Errorf("Expected ErrOrderNotFound, got %v", err)
	}
	if _, err := repo.UpdateStatus(ctx, uuid.New(), []domain.OrderStatus{}, domain.OrderStatusShipped); !errors.Is(err, ErrOrderNotFound) {
		t.Errorf("Expected ErrOrderNotFound, got %v", err)
	}

	if err := repo.Delete(ctx, order.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := repo.FindByID(ctx, order.ID); !errors.Is(err, ErrOrderNotFound) {
		t.Errorf("Expected ErrOrderNotFound after delete, got %v", err)
	}
}
