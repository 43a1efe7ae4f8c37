package service

import (
	"context"
	"fmt"

	"storefront/internal/domain"
	"storefront/internal/repository"

	"github.com/google/uuid"
)

// productSummaries loads the display data of every referenced product in one
// lookup. Products that no longer exist are absent from the map.
func productSummaries(ctx context.Context, repo repository.ProductRepository, ids []uuid.UUID) (map[uuid.UUID]*domain.ProductSummary, error) {
	summaries := make(map[uuid.UUID]*domain.ProductSummary, len(ids))
	if len(ids) == 0 {
		return summaries, nil
	}

	products, err := repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}

	for _, product := range products {
		summaries[product.ID] = product.Summary()
	}
	return summaries, nil
}

func populateCart(cart *domain.Cart, products map[uuid.UUID]*domain.ProductSummary) *domain.PopulatedCart {
	populated := &domain.PopulatedCart{
		UserID:    cart.UserID,
		Items:     make([]domain.PopulatedCartItem, 0, len(cart.Items)),
		CreatedAt: cart.CreatedAt,
		UpdatedAt: cart.UpdatedAt,
	}
	for _, item := range cart.Items {
		populated.Items = append(populated.Items, domain.PopulatedCartItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Product:   products[item.ProductID],
		})
	}
	return populated
}

// populateOrder keeps the captured line price next to the live product data
func populateOrder(order *domain.Order, products map[uuid.UUID]*domain.ProductSummary) *domain.PopulatedOrder {
	populated := &domain.PopulatedOrder{
		ID:              order.ID,
		UserID:          order.UserID,
		Items:           make([]domain.PopulatedOrderItem, 0, len(order.Items)),
		TotalAmount:     order.TotalAmount,
		PaymentMethod:   order.PaymentMethod,
		ShippingAddress: order.ShippingAddress,
		Status:          order.Status,
		CreatedAt:       order.CreatedAt,
		UpdatedAt:       order.UpdatedAt,
	}
	for _, item := range order.Items {
		populated.Items = append(populated.Items, domain.PopulatedOrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
			Product:   products[item.ProductID],
		})
	}
	return populated
}

func orderProductIDs(orders []*domain.Order) []uuid.UUID {
	seen := map[uuid.UUID]bool{}
	ids := []uuid.UUID{}
	for _, order := range orders {
		for _, item := range order.Items {
			if !seen[item.ProductID] {
				seen[item.ProductID] = true
				ids = append(ids, item.ProductID)
			}
		}
	}
	return ids
}
