package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/database"
	"storefront/internal/domain"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// addItemBackoff bounds the retries of an add that raced with the creation of
// the same cart or line. Backoffs carry state, so each call builds its own.
func addItemBackoff() retry.Backoff {
	return retry.WithMaxRetries(5, retry.NewConstant(10*time.Millisecond))
}

type cartRepository struct {
	collection *mongo.Collection
}

// NewCartRepository creates a CartRepository backed by the carts collection
func NewCartRepository(db *mongo.Database) repository.CartRepository {
	return &cartRepository{collection: db.Collection(database.CartsCollection)}
}

// AddItem merges quantity into the cart with single-document atomic updates.
// An existing line is incremented in place; otherwise the line is pushed through
// an upsert that only matches carts without that product. If another request
// created the cart or the line in between, the upsert hits the _id unique index
// and the whole step is retried.
func (r *cartRepository) AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*domain.Cart, error) {
	owner, product := userID.String(), productID.String()

	err := retry.Do(ctx, addItemBackoff(), func(ctx context.Context) error {
		ts := now()

		result, err := r.collection.UpdateOne(ctx,
			bson.M{"_id": owner, "items": bson.M{"$elemMatch": bson.M{
				"productId": product,
				"quantity":  bson.M{"$lte": domain.MaxItemQuantity - quantity},
			}}},
			bson.M{
				"$inc": bson.M{"items.$.quantity": quantity},
				"$set": bson.M{"updatedAt": ts},
			},
		)
		if err != nil {
			return fmt.Errorf("failed to increment cart item: %w", err)
		}
		if result.MatchedCount > 0 {
			return nil
		}

		_, err = r.collection.UpdateOne(ctx,
			bson.M{"_id": owner, "items.productId": bson.M{"$ne": product}},
			bson.M{
				"$push":        bson.M{"items": cartItemDocument{ProductID: product, Quantity: quantity}},
				"$set":         bson.M{"updatedAt": ts},
				"$setOnInsert": bson.M{"createdAt": ts},
			},
			options.UpdateOne().SetUpsert(true),
		)
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				full, countErr := r.collection.CountDocuments(ctx, bson.M{"_id": owner, "items": bson.M{"$elemMatch": bson.M{
					"productId": product,
					"quantity":  bson.M{"$gt": domain.MaxItemQuantity - quantity},
				}}})
				if countErr != nil {
					return fmt.Errorf("failed to check cart item quantity: %w", countErr)
				}
				if full > 0 {
					return repository.ErrQuantityLimit
				}
				return retry.RetryableError(err)
			}
			return fmt.Errorf("failed to append cart item: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return r.FindByUserID(ctx, userID)
}

func (r *cartRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*domain.Cart, error) {
	var doc cartDocument
	if err := r.collection.FindOne(ctx, bson.M{"_id": userID.String()}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to find cart: %w", err)
	}
	return doc.toDomain()
}

func (r *cartRepository) UpdateItemQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) (*domain.Cart, error) {
	cart, err := r.findAndUpdate(ctx,
		bson.M{"_id": userID.String(), "items.productId": productID.String()},
		bson.M{"$set": bson.M{"items.$.quantity": quantity, "updatedAt": now()}},
	)
	if !errors.Is(err, repository.ErrCartNotFound) {
		return cart, err
	}

	// Nothing matched: tell a missing cart apart from a missing line
	if _, findErr := r.FindByUserID(ctx, userID); findErr != nil {
		return nil, findErr
	}
	return nil, repository.ErrCartItemNotFound
}

func (r *cartRepository) RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*domain.Cart, error) {
	return r.findAndUpdate(ctx,
		bson.M{"_id": userID.String()},
		bson.M{
			"$pull": bson.M{"items": bson.M{"productId": productID.String()}},
			"$set":  bson.M{"updatedAt": now()},
		},
	)
}

func (r *cartRepository) Clear(ctx context.Context, userID uuid.UUID) (*domain.Cart, error) {
	return r.findAndUpdate(ctx,
		bson.M{"_id": userID.String()},
		bson.M{"$set": bson.M{"items": bson.A{}, "updatedAt": now()}},
	)
}

func (r *cartRepository) findAndUpdate(ctx context.Context, filter, update bson.M) (*domain.Cart, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc cartDocument
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to update cart: %w", err)
	}
	return doc.toDomain()
}
