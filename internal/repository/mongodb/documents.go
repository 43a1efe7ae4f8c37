// Package mongodb implements the repository interfaces on a MongoDB document store.
// Identifiers are stored as canonical UUID strings in _id.
package mongodb

import (
	"fmt"
	"time"

	"storefront/internal/domain"

	"github.com/google/uuid"
)

type userDocument struct {
	ID           string    `bson:"_id"`
	Email        string    `bson:"email"`
	PasswordHash string    `bson:"passwordHash"`
	Name         string    `bson:"name"`
	Dept         string    `bson:"dept"`
	RollNo       string    `bson:"rollno"`
	Age          string    `bson:"age"`
	Phone        string    `bson:"phno"`
	Address      string    `bson:"address"`
	Roles        []string  `bson:"roles"`
	CreatedAt    time.Time `bson:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt"`
}

func newUserDocument(u *domain.User) userDocument {
	return userDocument{
		ID:           u.ID.String(),
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Name:         u.Name,
		Dept:         u.Dept,
		RollNo:       u.RollNo,
		Age:          u.Age,
		Phone:        u.Phone,
		Address:      u.Address,
		Roles:        u.Roles,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func (d userDocument) toDomain() (*domain.User, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id %q: %w", d.ID, err)
	}
	return &domain.User{
		ID:           id,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		Name:         d.Name,
		Dept:         d.Dept,
		RollNo:       d.RollNo,
		Age:          d.Age,
		Phone:        d.Phone,
		Address:      d.Address,
		Roles:        d.Roles,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}, nil
}

type categoryDocument struct {
	ID          string    `bson:"_id"`
	Name        string    `bson:"name"`
	Description string    `bson:"description"`
	Image       string    `bson:"image"`
	CreatedAt   time.Time `bson:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt"`
}

func newCategoryDocument(c *domain.Category) categoryDocument {
	return categoryDocument{
		ID:          c.ID.String(),
		Name:        c.Name,
		Description: c.Description,
		Image:       c.Image,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func (d categoryDocument) toDomain() (*domain.Category, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid category id %q: %w", d.ID, err)
	}
	return &domain.Category{
		ID:          id,
		Name:        d.Name,
		Description: d.Description,
		Image:       d.Image,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}, nil
}

type productDocument struct {
	ID          string    `bson:"_id"`
	Name        string    `bson:"name"`
	Description string    `bson:"description"`
	Price       float64   `bson:"price"`
	CategoryID  string    `bson:"categoryId"`
	Image       string    `bson:"image"`
	Stock       int       `bson:"stock"`
	Rating      float64   `bson:"rating"`
	CreatedAt   time.Time `bson:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt"`
}

func newProductDocument(p *domain.Product) productDocument {
	return productDocument{
		ID:          p.ID.String(),
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		CategoryID:  p.CategoryID.String(),
		Image:       p.Image,
		Stock:       p.Stock,
		Rating:      p.Rating,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func (d productDocument) toDomain() (*domain.Product, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid product id %q: %w", d.ID, err)
	}
	categoryID, err := uuid.Parse(d.CategoryID)
	if err != nil {
		return nil, fmt.Errorf("invalid category id %q: %w", d.CategoryID, err)
	}
	return &domain.Product{
		ID:          id,
		Name:        d.Name,
		Description: d.Description,
		Price:       d.Price,
		CategoryID:  categoryID,
		Image:       d.Image,
		Stock:       d.Stock,
		Rating:      d.Rating,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}, nil
}

type cartItemDocument struct {
	ProductID string `bson:"productId"`
	Quantity  int    `bson:"quantity"`
}

// cartDocument is keyed by the owner's id, which makes one cart per user a store guarantee
type cartDocument struct {
	UserID    string             `bson:"_id"`
	Items     []cartItemDocument `bson:"items"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

func (d cartDocument) toDomain() (*domain.Cart, error) {
	userID, err := uuid.Parse(d.UserID)
	if err != nil {
		return nil, fmt.Errorf("invalid cart owner %q: %w", d.UserID, err)
	}
	cart := &domain.Cart{
		UserID:    userID,
		Items:     make([]domain.CartItem, 0, len(d.Items)),
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
	for _, item := range d.Items {
		productID, err := uuid.Parse(item.ProductID)
		if err != nil {
			return nil, fmt.Errorf("invalid cart product %q: %w", item.ProductID, err)
		}
		cart.Items = append(cart.Items, domain.CartItem{ProductID: productID, Quantity: item.Quantity})
	}
	return cart, nil
}

type orderItemDocument struct {
	ProductID string  `bson:"productId"`
	Quantity  int     `bson:"quantity"`
	Price     float64 `bson:"price"`
}

type orderDocument struct {
	ID              string              `bson:"_id"`
	UserID          string              `bson:"userId"`
	Items           []orderItemDocument `bson:"items"`
	TotalAmount     float64             `bson:"totalAmount"`
	PaymentMethod   string              `bson:"paymentMethod"`
	ShippingAddress string              `bson:"shippingAddress"`
	Status          string              `bson:"status"`
	CreatedAt       time.Time           `bson:"createdAt"`
	UpdatedAt       time.Time           `bson:"updatedAt"`
}

func newOrderDocument(o *domain.Order) orderDocument {
	doc := orderDocument{
		ID:              o.ID.String(),
		UserID:          o.UserID.String(),
		Items:           make([]orderItemDocument, 0, len(o.Items)),
		TotalAmount:     o.TotalAmount,
		PaymentMethod:   o.PaymentMethod,
		ShippingAddress: o.ShippingAddress,
		Status:          string(o.Status),
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
	for _, item := range o.Items {
		doc.Items = append(doc.Items, orderItemDocument{
			ProductID: item.ProductID.String(),
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
	}
	return doc
}

func (d orderDocument) toDomain() (*domain.Order, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid order id %q: %w", d.ID, err)
	}
	userID, err := uuid.Parse(d.UserID)
	if err != nil {
		return nil, fmt.Errorf("invalid order owner %q: %w", d.UserID, err)
	}
	order := &domain.Order{
		ID:              id,
		UserID:          userID,
		Items:           make([]domain.OrderItem, 0, len(d.Items)),
		TotalAmount:     d.TotalAmount,
		PaymentMethod:   d.PaymentMethod,
		ShippingAddress: d.ShippingAddress,
		Status:          domain.OrderStatus(d.Status),
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
	for _, item := range d.Items {
		productID, err := uuid.Parse(item.ProductID)
		if err != nil {
			return nil, fmt.Errorf("invalid order product %q: %w", item.ProductID, err)
		}
		order.Items = append(order.Items, domain.OrderItem{
			ProductID: productID,
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
	}
	return order, nil
}

func idStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

// now is truncated to the millisecond precision BSON dates keep
func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
