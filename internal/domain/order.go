package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// OrderStatus is the lifecycle state of an order
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

var (
	ErrInvalidStatus           = errors.New("invalid order status")
	ErrInvalidStatusTransition = errors.New("order status transition not allowed")
)

// OrderStatuses lists every valid status
var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// ParseOrderStatus validates a raw status value
func ParseOrderStatus(s string) (OrderStatus, error) {
	for _, status := range OrderStatuses {
		if string(status) == s {
			return status, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// OrderItem is a line of an order. Price is captured when the order is created
// and never re-derived from the catalog.
type OrderItem struct {
	ProductID uuid.UUID `json:"productId"`
	Quantity  int       `json:"quantity"`
	Price     float64   `json:"price"`
}

// Order is a point-in-time snapshot of a checkout
type Order struct {
	ID              uuid.UUID   `json:"id"`
	UserID          uuid.UUID   `json:"userId"`
	Items           []OrderItem `json:"items"`
	TotalAmount     float64     `json:"totalAmount"`
	PaymentMethod   string      `json:"paymentMethod"`
	ShippingAddress string      `json:"shippingAddress"`
	Status          OrderStatus `json:"status"`
	CreatedAt       time.Time   `json:"createdAt"`
	UpdatedAt       time.Time   `json:"updatedAt"`
}

// PopulatedOrderItem is an order line shown with the live catalog entry.
// Price stays the captured price; Product.Price may differ.
type PopulatedOrderItem struct {
	ProductID uuid.UUID       `json:"productId"`
	Quantity  int             `json:"quantity"`
	Price     float64         `json:"price"`
	Product   *ProductSummary `json:"product"`
}

// PopulatedOrder is an order prepared for display
type PopulatedOrder struct {
	ID              uuid.UUID            `json:"id"`
	UserID          uuid.UUID            `json:"userId"`
	Items           []PopulatedOrderItem `json:"items"`
	TotalAmount     float64              `json:"totalAmount"`
	PaymentMethod   string               `json:"paymentMethod"`
	ShippingAddress string               `json:"shippingAddress"`
	Status          OrderStatus          `json:"status"`
	CreatedAt       time.Time            `json:"createdAt"`
	UpdatedAt       time.Time            `json:"updatedAt"`
}

// StatusPolicy decides which status changes are accepted
type StatusPolicy string

const (
	// StatusPolicyPermissive accepts any status from any status
	StatusPolicyPermissive StatusPolicy = "permissive"
	// StatusPolicyForwardOnly only moves orders forward through fulfilment
	StatusPolicyForwardOnly StatusPolicy = "forward_only"
)

var forwardTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:   {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:   {OrderStatusDelivered},
}

// ParseStatusPolicy validates a configured policy name
func ParseStatusPolicy(s string) (StatusPolicy, error) {
	switch StatusPolicy(s) {
	case StatusPolicyPermissive, StatusPolicyForwardOnly:
		return StatusPolicy(s), nil
	}
	return "", fmt.Errorf("unknown order status policy %q", s)
}

// AllowedFrom returns the statuses an order may be in to move to next.
// A nil result means any status is accepted.
func (p StatusPolicy) AllowedFrom(next OrderStatus) []OrderStatus {
	if p != StatusPolicyForwardOnly {
		return nil
	}
	from := []OrderStatus{}
	for _, status := range OrderStatuses {
		for _, to := range forwardTransitions[status] {
			if to == next {
				from = append(from, status)
			}
		}
	}
	return from
}

// CanTransition reports whether the policy accepts moving from current to next
func (p StatusPolicy) CanTransition(current, next OrderStatus) bool {
	allowed := p.AllowedFrom(next)
	if allowed == nil {
		return true
	}
	for _, status := range allowed {
		if status == current {
			return true
		}
	}
	return false
}
