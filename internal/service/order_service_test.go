package service

import (
	"context"
	"testing"

	"storefront/internal/domain"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProperty_OrderPricesAreFrozen(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("repricing a product never changes existing order lines", prop.ForAll(
		func(price float64, newPrice float64, quantity int) bool {
			f := newCatalogFixture(t)
			ctx := context.Background()
			orders := NewOrderService(f.store.Orders(), f.store.Users(), f.store.Products(), domain.StatusPolicyPermissive)

			user := &domain.User{ID: uuid.New(), Email: uuid.NewString() + "@example.com", Roles: []string{domain.RoleUser}}
			if err := f.store.Users().Create(ctx, user); err != nil {
				return false
			}

			product := f.product(t, "P", price)
			order, err := orders.CreateOrder(ctx, CreateOrderInput{
				UserID:        user.ID,
				Items:         []domain.OrderItem{{ProductID: product.ID, Quantity: quantity, Price: price}},
				TotalAmount:   price * float64(quantity),
				PaymentMethod: "card",
			})
			if err != nil {
				return false
			}

			if _, err := f.catalog.UpdateProduct(ctx, product.ID, ProductUpdate{Price: &newPrice}); err != nil {
				return false
			}

			loaded, err := orders.GetOrder(ctx, order.ID)
			if err != nil {
				return false
			}
			return loaded.Items[0].Price == price &&
				loaded.Items[0].Product != nil &&
				loaded.Items[0].Product.Price == newPrice
		},
		gen.Float64Range(0, 1000),
		gen.Float64Range(0, 1000),
		gen.IntRange(1, 10),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestOrderService_CreateOrderCopiesAddress(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()
	orders := NewOrderService(f.store.Orders(), f.store.Users(), f.store.Products(), domain.StatusPolicyPermissive)

	user := &domain.User{ID: uuid.New(), Email: "dan@example.com", Address: "1 Main St", Roles: []string{domain.RoleUser}}
	require.NoError(t, f.store.Users().Create(ctx, user))

	order, err := orders.CreateOrder(ctx, CreateOrderInput{
		UserID:        user.ID,
		Items:         []domain.OrderItem{{ProductID: uuid.New(), Quantity: 1, Price: 5}},
		TotalAmount:   123.45,
		PaymentMethod: "cash",
	})
	require.NoError(t, err)
	assert.Equal(t, "1 Main St", order.ShippingAddress)
	assert.Equal(t, domain.OrderStatusPending, order.Status)
	// totals are stored as submitted
	assert.Equal(t, 123.45, order.TotalAmount)

	user.Address = "2 Other St"
	require.NoError(t, f.store.Users().Update(ctx, user))

	loaded, err := orders.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "1 Main St", loaded.ShippingAddress)
	assert.Nil(t, loaded.Items[0].Product)

	_, err = orders.CreateOrder(ctx, CreateOrderInput{
		UserID:        uuid.New(),
		Items:         []domain.OrderItem{{ProductID: uuid.New(), Quantity: 1}},
		PaymentMethod: "cash",
	})
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}

func TestOrderService_CreateOrderValidation(t *testing.T) {
	f := newCatalogFixture(t)
	orders := NewOrderService(f.store.Orders(), f.store.Users(), f.store.Products(), domain.StatusPolicyPermissive)
	userID := uuid.New()

	tests := []struct {
		name  string
		input CreateOrderInput
	}{
		{"no items", CreateOrderInput{UserID: userID, PaymentMethod: "card"}},
		{"zero quantity", CreateOrderInput{UserID: userID, PaymentMethod: "card", Items: []domain.OrderItem{{ProductID: uuid.New(), Quantity: 0}}}},
		{"quantity over limit", CreateOrderInput{UserID: userID, PaymentMethod: "card", Items: []domain.OrderItem{{ProductID: uuid.New(), Quantity: domain.MaxItemQuantity + 1}}}},
		{"negative price", CreateOrderInput{UserID: userID, PaymentMethod: "card", Items: []domain.OrderItem{{ProductID: uuid.New(), Quantity: 1, Price: -1}}}},
		{"missing product", CreateOrderInput{UserID: userID, PaymentMethod: "card", Items: []domain.OrderItem{{Quantity: 1}}}},
		{"missing payment method", CreateOrderInput{UserID: userID, Items: []domain.OrderItem{{ProductID: uuid.New(), Quantity: 1}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := orders.CreateOrder(context.Background(), tt.input)
			assert.ErrorIs(t, err, ErrInvalidOrder)
		})
	}
}

func TestOrderService_UpdateStatusPolicies(t *testing.T) {
	tests := []struct {
		name    string
		policy  domain.StatusPolicy
		moves   []string
		wantErr error
	}{
		{"permissive allows backwards", domain.StatusPolicyPermissive, []string{"shipped", "pending"}, nil},
		{"forward only allows fulfilment", domain.StatusPolicyForwardOnly, []string{"confirmed", "shipped", "delivered"}, nil},
		{"forward only rejects backwards", domain.StatusPolicyForwardOnly, []string{"confirmed", "pending"}, domain.ErrInvalidStatusTransition},
		{"forward only rejects cancel after shipping", domain.StatusPolicyForwardOnly, []string{"confirmed", "shipped", "cancelled"}, domain.ErrInvalidStatusTransition},
		{"unknown status", domain.StatusPolicyPermissive, []string{"lost"}, domain.ErrInvalidStatus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newCatalogFixture(t)
			ctx := context.Background()
			orders := NewOrderService(f.store.Orders(), f.store.Users(), f.store.Products(), tt.policy)

			user := &domain.User{ID: uuid.New(), Email: "erin@example.com", Roles: []string{domain.RoleUser}}
			require.NoError(t, f.store.Users().Create(ctx, user))
			order, err := orders.CreateOrder(ctx, CreateOrderInput{
				UserID:        user.ID,
				Items:         []domain.OrderItem{{ProductID: uuid.New(), Quantity: 1, Price: 1}},
				TotalAmount:   1,
				PaymentMethod: "card",
			})
			require.NoError(t, err)

			var lastErr error
			for _, status := range tt.moves {
				_, lastErr = orders.UpdateStatus(ctx, order.ID, status)
				if lastErr != nil {
					break
				}
			}

			if tt.wantErr == nil {
				assert.NoError(t, lastErr)
			} else {
				assert.ErrorIs(t, lastErr, tt.wantErr)
			}
		})
	}
}

func TestOrderService_ListAndDelete(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()
	orders := NewOrderService(f.store.Orders(), f.store.Users(), f.store.Products(), domain.StatusPolicyPermissive)

	product := f.product(t, "P1", 2.5)
	var userIDs []uuid.UUID
	for _, email := range []string{"a@example.com", "b@example.com"} {
		user := &domain.User{ID: uuid.New(), Email: email, Roles: []string{domain.RoleUser}}
		require.NoError(t, f.store.Users().Create(ctx, user))
		userIDs = append(userIDs, user.ID)
		_, err := orders.CreateOrder(ctx, CreateOrderInput{
			UserID:        user.ID,
			Items:         []domain.OrderItem{{ProductID: product.ID, Quantity: 2, Price: 2.5}},
			TotalAmount:   5,
			PaymentMethod: "card",
		})
		require.NoError(t, err)
	}

	all, err := orders.ListOrders(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, "P1", all[0].Items[0].Product.Name)

	mine, err := orders.ListUserOrders(ctx, userIDs[0])
	require.NoError(t, err)
	require.Len(t, mine, 1)

	require.NoError(t, orders.DeleteOrder(ctx, mine[0].ID))
	assert.ErrorIs(t, orders.DeleteOrder(ctx, mine[0].ID), repository.ErrOrderNotFound)
	_, err = orders.UpdateStatus(ctx, mine[0].ID, "shipped")
	assert.ErrorIs(t, err, repository.ErrOrderNotFound)
}
