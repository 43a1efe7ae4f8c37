package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"storefront/internal/domain"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// cachedProductRepository serves single-product reads from Redis and falls back to
// the wrapped repository on a miss or when Redis is unavailable
type cachedProductRepository struct {
	ProductRepository
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedProductRepository wraps next with a Redis read-through cache keyed by product ID
func NewCachedProductRepository(next ProductRepository, client *redis.Client, ttl time.Duration, logger *zap.Logger) ProductRepository {
	return &cachedProductRepository{
		ProductRepository: next,
		client:            client,
		ttl:               ttl,
		logger:            logger,
	}
}

func productCacheKey(id uuid.UUID) string {
	return fmt.Sprintf("product:%s", id)
}

// FindByID returns the cached product or loads and caches it
func (c *cachedProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	data, err := c.client.Get(ctx, productCacheKey(id)).Bytes()
	if err == nil {
		var product domain.Product
		if err := json.Unmarshal(data, &product); err == nil {
			return &product, nil
		}
		c.logger.Warn("Discarding unreadable cached product", zap.String("product_id", id.String()))
	} else if !errors.Is(err, redis.Nil) {
		c.logger.Warn("Product cache read failed", zap.String("product_id", id.String()), zap.Error(err))
	}

	product, err := c.ProductRepository.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	c.store(ctx, product)
	return product, nil
}

// FindByIDs serves the cached products and loads the rest in one call
func (c *cachedProductRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Product, error) {
	if len(ids) == 0 {
		return []*domain.Product{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = productCacheKey(id)
	}

	values, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		c.logger.Warn("Product cache batch read failed", zap.Error(err))
		return c.ProductRepository.FindByIDs(ctx, ids)
	}

	products := make([]*domain.Product, 0, len(ids))
	missing := []uuid.UUID{}
	for i, value := range values {
		raw, ok := value.(string)
		if !ok {
			missing = append(missing, ids[i])
			continue
		}
		var product domain.Product
		if err := json.Unmarshal([]byte(raw), &product); err != nil {
			missing = append(missing, ids[i])
			continue
		}
		products = append(products, &product)
	}

	if len(missing) == 0 {
		return products, nil
	}

	loaded, err := c.ProductRepository.FindByIDs(ctx, missing)
	if err != nil {
		return nil, err
	}

	c.store(ctx, loaded...)
	return append(products, loaded...), nil
}

// Update writes through and invalidates the cached entry
func (c *cachedProductRepository) Update(ctx context.Context, product *domain.Product) error {
	if err := c.ProductRepository.Update(ctx, product); err != nil {
		return err
	}
	c.invalidate(ctx, product.ID)
	return nil
}

// Delete removes the product and its cached entry
func (c *cachedProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := c.ProductRepository.Delete(ctx, id); err != nil {
		return err
	}
	c.invalidate(ctx, id)
	return nil
}

func (c *cachedProductRepository) store(ctx context.Context, products ...*domain.Product) {
	pipe := c.client.TxPipeline()
	for _, product := range products {
		data, err := json.Marshal(product)
		if err != nil {
			c.logger.Warn("Failed to marshal product for cache", zap.String("product_id", product.ID.String()), zap.Error(err))
			continue
		}
		pipe.Set(ctx, productCacheKey(product.ID), data, c.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.Warn("Product cache write failed", zap.Error(err))
	}
}

func (c *cachedProductRepository) invalidate(ctx context.Context, id uuid.UUID) {
	if err := c.client.Del(ctx, productCacheKey(id)).Err(); err != nil {
		c.logger.Warn("Product cache invalidation failed", zap.String("product_id", id.String()), zap.Error(err))
	}
}
