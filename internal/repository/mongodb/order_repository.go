package mongodb

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/database"
	"storefront/internal/domain"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type orderRepository struct {
	collection *mongo.Collection
}

// NewOrderRepository creates an OrderRepository backed by the orders collection
func NewOrderRepository(db *mongo.Database) repository.OrderRepository {
	return &orderRepository{collection: db.Collection(database.OrdersCollection)}
}

func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	if _, err := r.collection.InsertOne(ctx, newOrderDocument(order)); err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

func (r *orderRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	var doc orderDocument
	if err := r.collection.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to find order by ID: %w", err)
	}
	return doc.toDomain()
}

func (r *orderRepository) List(ctx context.Context) ([]*domain.Order, error) {
	return r.find(ctx, bson.M{})
}

func (r *orderRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	return r.find(ctx, bson.M{"userId": userID.String()})
}

// UpdateStatus applies the move only if the stored status is still one of from
func (r *orderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from []domain.OrderStatus, status domain.OrderStatus) (*domain.Order, error) {
	filter := bson.M{"_id": id.String()}
	if from != nil {
		allowed := make([]string, len(from))
		for i, s := range from {
			allowed[i] = string(s)
		}
		filter["status"] = bson.M{"$in": allowed}
	}

	update := bson.M{"$set": bson.M{"status": string(status), "updatedAt": now()}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc orderDocument
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if err == nil {
		return doc.toDomain()
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}
	if from == nil {
		return nil, repository.ErrOrderNotFound
	}

	count, err := r.collection.CountDocuments(ctx, bson.M{"_id": id.String()}, options.Count().SetLimit(1))
	if err != nil {
		return nil, fmt.Errorf("failed to check order: %w", err)
	}
	if count == 0 {
		return nil, repository.ErrOrderNotFound
	}
	return nil, domain.ErrInvalidStatusTransition
}

func (r *orderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}

	if result.DeletedCount == 0 {
		return repository.ErrOrderNotFound
	}
	return nil
}

func (r *orderRepository) find(ctx context.Context, filter bson.M) ([]*domain.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []orderDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode orders: %w", err)
	}

	orders := make([]*domain.Order, 0, len(docs))
	for _, doc := range docs {
		order, err := doc.toDomain()
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, nil
}
