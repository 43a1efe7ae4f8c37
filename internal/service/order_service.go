package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/internal/domain"
	"storefront/internal/repository"

	"github.com/google/uuid"
)

var (
	ErrInvalidOrder = errors.New("invalid order")
)

// CreateOrderInput is a checkout as submitted by the client. Items and
// TotalAmount are stored exactly as given.
type CreateOrderInput struct {
	UserID        uuid.UUID
	Items         []domain.OrderItem
	TotalAmount   float64
	PaymentMethod string
}

// OrderService defines the interface for order operations
type OrderService interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (*domain.Order, error)
	GetOrder(ctx context.Context, orderID uuid.UUID) (*domain.PopulatedOrder, error)
	ListOrders(ctx context.Context) ([]*domain.PopulatedOrder, error)
	ListUserOrders(ctx context.Context, userID uuid.UUID) ([]*domain.PopulatedOrder, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, status string) (*domain.Order, error)
	DeleteOrder(ctx context.Context, orderID uuid.UUID) error
}

type orderService struct {
	orderRepo   repository.OrderRepository
	userRepo    repository.UserRepository
	productRepo repository.ProductRepository
	policy      domain.StatusPolicy
}

// NewOrderService creates a new instance of OrderService
func NewOrderService(
	orderRepo repository.OrderRepository,
	userRepo repository.UserRepository,
	productRepo repository.ProductRepository,
	policy domain.StatusPolicy,
) OrderService {
	return &orderService{
		orderRepo:   orderRepo,
		userRepo:    userRepo,
		productRepo: productRepo,
		policy:      policy,
	}
}

// CreateOrder snapshots the checkout into a pending order shipped to the
// user's current address. The cart is left untouched.
func (s *orderService) CreateOrder(ctx context.Context, input CreateOrderInput) (*domain.Order, error) {
	if err := validateOrderInput(input); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(ctx, input.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	now := time.Now().UTC()
	order := &domain.Order{
		ID:              uuid.New(),
		UserID:          user.ID,
		Items:           append([]domain.OrderItem(nil), input.Items...),
		TotalAmount:     input.TotalAmount,
		PaymentMethod:   input.PaymentMethod,
		ShippingAddress: user.Address,
		Status:          domain.OrderStatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	return order, nil
}

func (s *orderService) GetOrder(ctx context.Context, orderID uuid.UUID) (*domain.PopulatedOrder, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	populated, err := s.populate(ctx, []*domain.Order{order})
	if err != nil {
		return nil, err
	}
	return populated[0], nil
}

func (s *orderService) ListOrders(ctx context.Context) ([]*domain.PopulatedOrder, error) {
	orders, err := s.orderRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return s.populate(ctx, orders)
}

func (s *orderService) ListUserOrders(ctx context.Context, userID uuid.UUID) ([]*domain.PopulatedOrder, error) {
	orders, err := s.orderRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user orders: %w", err)
	}
	return s.populate(ctx, orders)
}

// UpdateStatus moves an order to status if the configured policy allows it.
// The check and the write happen in one store operation.
func (s *orderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, status string) (*domain.Order, error) {
	next, err := domain.ParseOrderStatus(status)
	if err != nil {
		return nil, err
	}

	order, err := s.orderRepo.UpdateStatus(ctx, orderID, s.policy.AllowedFrom(next), next)
	if err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}
	return order, nil
}

func (s *orderService) DeleteOrder(ctx context.Context, orderID uuid.UUID) error {
	if err := s.orderRepo.Delete(ctx, orderID); err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}
	return nil
}

func (s *orderService) populate(ctx context.Context, orders []*domain.Order) ([]*domain.PopulatedOrder, error) {
	products, err := productSummaries(ctx, s.productRepo, orderProductIDs(orders))
	if err != nil {
		return nil, err
	}

	populated := make([]*domain.PopulatedOrder, 0, len(orders))
	for _, order := range orders {
		populated = append(populated, populateOrder(order, products))
	}
	return populated, nil
}

func validateOrderInput(input CreateOrderInput) error {
	if len(input.Items) == 0 {
		return fmt.Errorf("%w: at least one item is required", ErrInvalidOrder)
	}
	for i, item := range input.Items {
		if item.ProductID == uuid.Nil {
			return fmt.Errorf("%w: item %d has no product", ErrInvalidOrder, i)
		}
		if !validQuantity(item.Quantity) {
			return fmt.Errorf("%w: item %d quantity must be between 1 and %d", ErrInvalidOrder, i, domain.MaxItemQuantity)
		}
		if item.Price < 0 {
			return fmt.Errorf("%w: item %d price must not be negative", ErrInvalidOrder, i)
		}
	}
	if input.TotalAmount < 0 {
		return fmt.Errorf("%w: total amount must not be negative", ErrInvalidOrder)
	}
	if strings.TrimSpace(input.PaymentMethod) == "" {
		return fmt.Errorf("%w: payment method is required", ErrInvalidOrder)
	}
	return nil
}
