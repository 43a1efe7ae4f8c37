package memory

import (
	"context"

	"storefront/internal/domain"
	"storefront/internal/repository"

	"github.com/google/uuid"
)

type cartRepository struct {
	s *Store
}

func (r *cartRepository) AddItem(_ context.Context, userID, productID uuid.UUID, quantity int) (*domain.Cart, error) {
	if quantity > domain.MaxItemQuantity {
		return nil, repository.ErrQuantityLimit
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	ts := now()
	cart, ok := r.s.carts[userID]
	if ok {
		if item, found := cart.Item(productID); found && item.Quantity > domain.MaxItemQuantity-quantity {
			return nil, repository.ErrQuantityLimit
		}
	} else {
		cart = &domain.Cart{UserID: userID, Items: []domain.CartItem{}, CreatedAt: ts}
		r.s.carts[userID] = cart
	}

	merged := false
	for i := range cart.Items {
		if cart.Items[i].ProductID == productID {
			cart.Items[i].Quantity += quantity
			merged = true
			break
		}
	}
	if !merged {
		cart.Items = append(cart.Items, domain.CartItem{ProductID: productID, Quantity: quantity})
	}
	cart.UpdatedAt = ts

	return cloneCart(cart), nil
}

func (r *cartRepository) FindByUserID(_ context.Context, userID uuid.UUID) (*domain.Cart, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	cart, ok := r.s.carts[userID]
	if !ok {
		return nil, repository.ErrCartNotFound
	}
	return cloneCart(cart), nil
}

func (r *cartRepository) UpdateItemQuantity(_ context.Context, userID, productID uuid.UUID, quantity int) (*domain.Cart, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cart, ok := r.s.carts[userID]
	if !ok {
		return nil, repository.ErrCartNotFound
	}
	for i := range cart.Items {
		if cart.Items[i].ProductID == productID {
			cart.Items[i].Quantity = quantity
			cart.UpdatedAt = now()
			return cloneCart(cart), nil
		}
	}
	return nil, repository.ErrCartItemNotFound
}

func (r *cartRepository) RemoveItem(_ context.Context, userID, productID uuid.UUID) (*domain.Cart, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cart, ok := r.s.carts[userID]
	if !ok {
		return nil, repository.ErrCartNotFound
	}
	kept := cart.Items[:0]
	for _, item := range cart.Items {
		if item.ProductID != productID {
			kept = append(kept, item)
		}
	}
	cart.Items = kept
	cart.UpdatedAt = now()
	return cloneCart(cart), nil
}

func (r *cartRepository) Clear(_ context.Context, userID uuid.UUID) (*domain.Cart, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cart, ok := r.s.carts[userID]
	if !ok {
		return nil, repository.ErrCartNotFound
	}
	cart.Items = []domain.CartItem{}
	cart.UpdatedAt = now()
	return cloneCart(cart), nil
}
