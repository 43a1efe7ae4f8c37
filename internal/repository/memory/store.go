// Package memory keeps every repository in process memory behind one mutex.
// It backs STORE_DRIVER=memory and the service and transport tests.
package memory

import (
	"sync"
	"time"

	"storefront/internal/domain"
	"storefront/internal/repository"

	"github.com/google/uuid"
)

// Store holds the collections shared by the in-memory repositories
type Store struct {
	mu         sync.RWMutex
	users      map[uuid.UUID]*domain.User
	categories map[uuid.UUID]*domain.Category
	products   map[uuid.UUID]*domain.Product
	carts      map[uuid.UUID]*domain.Cart
	orders     map[uuid.UUID]*domain.Order
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		users:      make(map[uuid.UUID]*domain.User),
		categories: make(map[uuid.UUID]*domain.Category),
		products:   make(map[uuid.UUID]*domain.Product),
		carts:      make(map[uuid.UUID]*domain.Cart),
		orders:     make(map[uuid.UUID]*domain.Order),
	}
}

func (s *Store) Users() repository.UserRepository         { return &userRepository{s} }
func (s *Store) Categories() repository.CategoryRepository { return &categoryRepository{s} }
func (s *Store) Products() repository.ProductRepository   { return &productRepository{s} }
func (s *Store) Carts() repository.CartRepository         { return &cartRepository{s} }
func (s *Store) Orders() repository.OrderRepository       { return &orderRepository{s} }

func now() time.Time {
	return time.Now().UTC()
}

func cloneUser(u *domain.User) *domain.User {
	c := *u
	c.Roles = append([]string(nil), u.Roles...)
	return &c
}

func cloneCart(c *domain.Cart) *domain.Cart {
	out := *c
	out.Items = append([]domain.CartItem{}, c.Items...)
	return &out
}

func cloneOrder(o *domain.Order) *domain.Order {
	out := *o
	out.Items = append([]domain.OrderItem{}, o.Items...)
	return &out
}
