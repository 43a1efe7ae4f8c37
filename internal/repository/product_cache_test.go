package repository

import (
	"context"
	"testing"
	"time"

	"storefront/internal/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// countingProductRepository records how often the backing store is hit
type countingProductRepository struct {
	ProductRepository
	products  map[uuid.UUID]*domain.Product
	findCalls int
}

func (r *countingProductRepository) FindByID(_ context.Context, id uuid.UUID) (*domain.Product, error) {
	r.findCalls++
	product, ok := r.products[id]
	if !ok {
		return nil, ErrProductNotFound
	}
	clone := *product
	return &clone, nil
}

func (r *countingProductRepository) FindByIDs(_ context.Context, ids []uuid.UUID) ([]*domain.Product, error) {
	r.findCalls++
	out := []*domain.Product{}
	for _, id := range ids {
		if product, ok := r.products[id]; ok {
			clone := *product
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *countingProductRepository) Update(_ context.Context, product *domain.Product) error {
	r.products[product.ID] = product
	return nil
}

func (r *countingProductRepository) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.products, id)
	return nil
}

func newCacheFixture(t *testing.T) (*miniredis.Miniredis, *countingProductRepository, ProductRepository) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	backing := &countingProductRepository{products: map[uuid.UUID]*domain.Product{}}
	return mr, backing, NewCachedProductRepository(backing, client, time.Minute, zap.NewNop())
}

func TestCachedProductRepository_ReadThrough(t *testing.T) {
	mr, backing, cached := newCacheFixture(t)
	ctx := context.Background()

	product := &domain.Product{ID: uuid.New(), Name: "P1", Price: 9.99}
	backing.products[product.ID] = product

	first, err := cached.FindByID(ctx, product.ID)
	require.NoError(t, err)
	second, err := cached.FindByID(ctx, product.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, backing.findCalls)
	assert.Equal(t, first.Price, second.Price)
	assert.True(t, mr.Exists(productCacheKey(product.ID)))
}

func TestCachedProductRepository_UpdateInvalidates(t *testing.T) {
	mr, backing, cached := newCacheFixture(t)
	ctx := context.Background()

	product := &domain.Product{ID: uuid.New(), Name: "P1", Price: 9.99}
	backing.products[product.ID] = product

	_, err := cached.FindByID(ctx, product.ID)
	require.NoError(t, err)

	repriced := *product
	repriced.Price = 12.50
	require.NoError(t, cached.Update(ctx, &repriced))
	assert.False(t, mr.Exists(productCacheKey(product.ID)))

	got, err := cached.FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 12.50, got.Price)

	require.NoError(t, cached.Delete(ctx, product.ID))
	_, err = cached.FindByID(ctx, product.ID)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestCachedProductRepository_FindByIDsMixesHitsAndMisses(t *testing.T) {
	_, backing, cached := newCacheFixture(t)
	ctx := context.Background()

	a := &domain.Product{ID: uuid.New(), Name: "A"}
	b := &domain.Product{ID: uuid.New(), Name: "B"}
	backing.products[a.ID] = a
	backing.products[b.ID] = b

	_, err := cached.FindByID(ctx, a.ID)
	require.NoError(t, err)

	products, err := cached.FindByIDs(ctx, []uuid.UUID{a.ID, b.ID, uuid.New()})
	require.NoError(t, err)
	assert.Len(t, products, 2)

	products, err = cached.FindByIDs(ctx, []uuid.UUID{a.ID, b.ID})
	require.NoError(t, err)
	assert.Len(t, products, 2)
	// one FindByID, then one batch load for the first misses
	assert.Equal(t, 2, backing.findCalls)
}

func TestCachedProductRepository_FallsThroughWhenRedisIsDown(t *testing.T) {
	mr, backing, cached := newCacheFixture(t)
	ctx := context.Background()

	product := &domain.Product{ID: uuid.New(), Name: "P1"}
	backing.products[product.ID] = product
	mr.Close()

	got, err := cached.FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, "P1", got.Name)
}
