package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/repository"
	"storefront/internal/repository/memory"
	"storefront/internal/repository/mongodb"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Stores bundles the repositories of the selected backend
type Stores struct {
	Users      repository.UserRepository
	Categories repository.CategoryRepository
	Products   repository.ProductRepository
	Carts      repository.CartRepository
	Orders     repository.OrderRepository

	health  func(ctx context.Context) map[string]string
	closers []func(ctx context.Context) error
}

// MemoryStores returns stores kept in process memory
func MemoryStores() *Stores {
	store := memory.NewStore()
	return &Stores{
		Users:      store.Users(),
		Categories: store.Categories(),
		Products:   store.Products(),
		Carts:      store.Carts(),
		Orders:     store.Orders(),
		health: func(context.Context) map[string]string {
			return map[string]string{"status": "up", "driver": config.StoreDriverMemory}
		},
	}
}

// OpenStores connects to the backend named by cfg.Store.Driver and prepares
// its schema: goose migrations for PostgreSQL, indexes for MongoDB.
func OpenStores(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Stores, error) {
	switch cfg.Store.Driver {
	case config.StoreDriverPostgres:
		return openPostgres(cfg, logger)
	case config.StoreDriverMongo:
		return openMongo(ctx, cfg, logger)
	case config.StoreDriverMemory:
		logger.Warn("Using in-memory store, data is lost on restart")
		return MemoryStores(), nil
	}
	return nil, fmt.Errorf("%w: %q", config.ErrUnknownStoreDriver, cfg.Store.Driver)
}

func openPostgres(cfg *config.Config, logger *zap.Logger) (*Stores, error) {
	dbService, err := database.New(cfg.Database)
	if err != nil {
		return nil, err
	}

	db := dbService.DB()
	if err := database.RunMigrations(db, cfg.Database.MigrationsDir, logger); err != nil {
		dbService.Close()
		return nil, err
	}

	return &Stores{
		Users:      repository.NewUserRepository(db),
		Categories: repository.NewCategoryRepository(db),
		Products:   repository.NewProductRepository(db),
		Carts:      repository.NewCartRepository(db),
		Orders:     repository.NewOrderRepository(db),
		health:     dbService.Health,
		closers: []func(context.Context) error{
			func(context.Context) error { return dbService.Close() },
		},
	}, nil
}

func openMongo(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Stores, error) {
	client, err := database.ConnectMongo(ctx, cfg.Mongo)
	if err != nil {
		return nil, err
	}

	db := client.Database(cfg.Mongo.Database)
	if err := database.EnsureIndexes(ctx, db, logger); err != nil {
		client.Disconnect(context.Background())
		return nil, err
	}

	return &Stores{
		Users:      mongodb.NewUserRepository(db),
		Categories: mongodb.NewCategoryRepository(db),
		Products:   mongodb.NewProductRepository(db),
		Carts:      mongodb.NewCartRepository(db),
		Orders:     mongodb.NewOrderRepository(db),
		health: func(ctx context.Context) map[string]string {
			ctx, cancel := context.WithTimeout(ctx, time.Second)
			defer cancel()
			if err := client.Ping(ctx, nil); err != nil {
				return map[string]string{"status": "down", "driver": config.StoreDriverMongo, "error": err.Error()}
			}
			return map[string]string{"status": "up", "driver": config.StoreDriverMongo}
		},
		closers: []func(context.Context) error{client.Disconnect},
	}, nil
}

// WithProductCache puts a Redis read-through cache in front of the product
// store. A nil client or a non-positive ttl leaves the store unchanged.
func (s *Stores) WithProductCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) {
	if client == nil || ttl <= 0 {
		return
	}
	s.Products = repository.NewCachedProductRepository(s.Products, client, ttl, logger)
	logger.Info("Product cache enabled", zap.Duration("ttl", ttl))
}

// Health reports the state of the backing store
func (s *Stores) Health(ctx context.Context) map[string]string {
	if s.health == nil {
		return map[string]string{"status": "up"}
	}
	return s.health(ctx)
}

// Close releases the backend connections
func (s *Stores) Close(ctx context.Context) error {
	var errs []error
	for _, closeFn := range s.closers {
		if err := closeFn(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ConnectRedis opens the Redis client used by the rate limiter and the
// product cache. It returns nil when Redis does not answer a ping.
func ConnectRedis(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("Redis unavailable, rate limiting and product cache disabled",
			zap.String("addr", cfg.Addr()),
			zap.Error(err),
		)
		client.Close()
		return nil
	}
	return client
}
