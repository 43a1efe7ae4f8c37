package memory

import (
	"context"
	"slices"
	"sort"

	"storefront/internal/domain"
	"storefront/internal/repository"

	"github.com/google/uuid"
)

type orderRepository struct {
	s *Store
}

func (r *orderRepository) Create(_ context.Context, order *domain.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.orders[order.ID] = cloneOrder(order)
	return nil
}

func (r *orderRepository) FindByID(_ context.Context, id uuid.UUID) (*domain.Order, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	order, ok := r.s.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	return cloneOrder(order), nil
}

func (r *orderRepository) List(_ context.Context) ([]*domain.Order, error) {
	return r.filter(func(*domain.Order) bool { return true }), nil
}

func (r *orderRepository) ListByUser(_ context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	return r.filter(func(o *domain.Order) bool { return o.UserID == userID }), nil
}

func (r *orderRepository) UpdateStatus(_ context.Context, id uuid.UUID, from []domain.OrderStatus, status domain.OrderStatus) (*domain.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	order, ok := r.s.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	if from != nil && !slices.Contains(from, order.Status) {
		return nil, domain.ErrInvalidStatusTransition
	}
	order.Status = status
	order.UpdatedAt = now()
	return cloneOrder(order), nil
}

func (r *orderRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.orders[id]; !ok {
		return repository.ErrOrderNotFound
	}
	delete(r.s.orders, id)
	return nil
}

// filter returns matching orders, newest first
func (r *orderRepository) filter(match func(*domain.Order) bool) []*domain.Order {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	orders := []*domain.Order{}
	for _, o := range r.s.orders {
		if match(o) {
			orders = append(orders, cloneOrder(o))
		}
	}
	sort.Slice(orders, func(i, j int) bool {
		if orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].ID.String() < orders[j].ID.String()
		}
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	return orders
}
