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

type categoryRepository struct {
	collection *mongo.Collection
	products   *mongo.Collection
}

// NewCategoryRepository creates a CategoryRepository backed by the categories collection
func NewCategoryRepository(db *mongo.Database) repository.CategoryRepository {
	return &categoryRepository{
		collection: db.Collection(database.CategoriesCollection),
		products:   db.Collection(database.ProductsCollection),
	}
}

func (r *categoryRepository) Create(ctx context.Context, category *domain.Category) error {
	if _, err := r.collection.InsertOne(ctx, newCategoryDocument(category)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrCategoryAlreadyExists
		}
		return fmt.Errorf("failed to create category: %w", err)
	}
	return nil
}

func (r *categoryRepository) List(ctx context.Context) ([]*domain.Category, error) {
	cursor, err := r.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []categoryDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode categories: %w", err)
	}

	categories := make([]*domain.Category, 0, len(docs))
	for _, doc := range docs {
		category, err := doc.toDomain()
		if err != nil {
			return nil, err
		}
		categories = append(categories, category)
	}
	return categories, nil
}

func (r *categoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	var doc categoryDocument
	if err := r.collection.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to find category by ID: %w", err)
	}
	return doc.toDomain()
}

func (r *categoryRepository) Update(ctx context.Context, category *domain.Category) error {
	update := bson.M{"$set": bson.M{
		"name":        category.Name,
		"description": category.Description,
		"image":       category.Image,
		"updatedAt":   category.UpdatedAt,
	}}

	result, err := r.collection.UpdateByID(ctx, category.ID.String(), update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrCategoryAlreadyExists
		}
		return fmt.Errorf("failed to update category: %w", err)
	}

	if result.MatchedCount == 0 {
		return repository.ErrCategoryNotFound
	}
	return nil
}

// Delete refuses to remove a category that products still reference. There is
// no foreign key to lean on, so the reference count is taken again after the
// delete: a product written concurrently gets its category restored. Product
// writes re-check their category after writing, so one of the two sides always
// observes the other.
func (r *categoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	inUse, err := r.inUse(ctx, id)
	if err != nil {
		return err
	}
	if inUse {
		return repository.ErrCategoryInUse
	}

	var deleted bson.Raw
	err = r.collection.FindOneAndDelete(ctx, bson.M{"_id": id.String()}).Decode(&deleted)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return repository.ErrCategoryNotFound
		}
		return fmt.Errorf("failed to delete category: %w", err)
	}

	inUse, err = r.inUse(ctx, id)
	if err != nil {
		return err
	}
	if inUse {
		if _, err := r.collection.InsertOne(ctx, deleted); err != nil {
			return fmt.Errorf("failed to restore category in use: %w", err)
		}
		return repository.ErrCategoryInUse
	}
	return nil
}

func (r *categoryRepository) inUse(ctx context.Context, id uuid.UUID) (bool, error) {
	count, err := r.products.CountDocuments(ctx, bson.M{"categoryId": id.String()}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to check category products: %w", err)
	}
	return count > 0, nil
}
