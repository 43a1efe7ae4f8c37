package service

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/domain"
	"storefront/internal/repository"

	"github.com/google/uuid"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be between 1 and 2147483647")
)

// CartService defines the interface for cart operations
type CartService interface {
	AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*domain.Cart, error)
	GetCart(ctx context.Context, userID uuid.UUID) (*domain.PopulatedCart, error)
	UpdateItemQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) (*domain.Cart, error)
	RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*domain.Cart, error)
	ClearCart(ctx context.Context, userID uuid.UUID) (*domain.Cart, error)
}

type cartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
}

// NewCartService creates a new instance of CartService
func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository) CartService {
	return &cartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

// AddItem adds quantity of a product to the user's cart, creating the cart on
// first use. Stock is not checked.
func (s *cartService) AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*domain.Cart, error) {
	if !validQuantity(quantity) {
		return nil, ErrInvalidQuantity
	}

	cart, err := s.cartRepo.AddItem(ctx, userID, productID, quantity)
	if errors.Is(err, repository.ErrQuantityLimit) {
		return nil, ErrInvalidQuantity
	}
	if err != nil {
		return nil, fmt.Errorf("failed to add cart item: %w", err)
	}
	return cart, nil
}

// GetCart returns the cart with each line joined to the current catalog entry
func (s *cartService) GetCart(ctx context.Context, userID uuid.UUID) (*domain.PopulatedCart, error) {
	cart, err := s.cartRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(cart.Items))
	for _, item := range cart.Items {
		ids = append(ids, item.ProductID)
	}

	products, err := productSummaries(ctx, s.productRepo, ids)
	if err != nil {
		return nil, err
	}

	return populateCart(cart, products), nil
}

func (s *cartService) UpdateItemQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) (*domain.Cart, error) {
	if !validQuantity(quantity) {
		return nil, ErrInvalidQuantity
	}

	cart, err := s.cartRepo.UpdateItemQuantity(ctx, userID, productID, quantity)
	if err != nil {
		return nil, fmt.Errorf("failed to update cart item: %w", err)
	}
	return cart, nil
}

func (s *cartService) RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*domain.Cart, error) {
	cart, err := s.cartRepo.RemoveItem(ctx, userID, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to remove cart item: %w", err)
	}
	return cart, nil
}

func (s *cartService) ClearCart(ctx context.Context, userID uuid.UUID) (*domain.Cart, error) {
	cart, err := s.cartRepo.Clear(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to clear cart: %w", err)
	}
	return cart, nil
}

func validQuantity(quantity int) bool {
	return quantity >= 1 && quantity <= domain.MaxItemQuantity
}
