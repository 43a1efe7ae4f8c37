package database

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/config"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap"
)

const (
	UsersCollection      = "users"
	CategoriesCollection = "categories"
	ProductsCollection   = "products"
	CartsCollection      = "carts"
	OrdersCollection     = "orders"
)

// IndexConfig binds an index model to its collection
type IndexConfig struct {
	CollectionName string
	IndexModel     mongo.IndexModel
}

var requiredIndexes = []IndexConfig{
	{
		CollectionName: UsersCollection,
		IndexModel: mongo.IndexModel{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_user_email_unique"),
		},
	},
	{
		CollectionName: CategoriesCollection,
		IndexModel: mongo.IndexModel{
			Keys:    bson.D{{Key: "name", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_category_name_unique"),
		},
	},
	{
		CollectionName: ProductsCollection,
		IndexModel: mongo.IndexModel{
			Keys:    bson.D{{Key: "categoryId", Value: 1}},
			Options: options.Index().SetName("idx_product_category"),
		},
	},
	{
		CollectionName: OrdersCollection,
		IndexModel: mongo.IndexModel{
			Keys: bson.D{
				{Key: "userId", Value: 1},
				{Key: "createdAt", Value: -1},
			},
			Options: options.Index().SetName("idx_user_orders"),
		},
	},
}

// ConnectMongo opens a client and verifies it with a ping
func ConnectMongo(ctx context.Context, cfg config.MongoConfig) (*mongo.Client, error) {
	serverAPI := options.ServerAPI(options.ServerAPIVersion1)
	clientOptions := options.Client().ApplyURI(cfg.URI).SetServerAPIOptions(serverAPI)

	client, err := mongo.Connect(clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to create mongo client: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	return client, nil
}

// EnsureIndexes creates the indexes the document store relies on
func EnsureIndexes(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	for _, idx := range requiredIndexes {
		name, err := db.Collection(idx.CollectionName).Indexes().CreateOne(ctx, idx.IndexModel)
		if err != nil {
			return fmt.Errorf("failed to create index on %s: %w", idx.CollectionName, err)
		}
		logger.Info("Index ensured",
			zap.String("collection", idx.CollectionName),
			zap.String("index", name),
		)
	}
	return nil
}
