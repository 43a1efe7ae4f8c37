package mongodb

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"storefront/internal/database"
	"storefront/internal/domain"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// sortFields maps the sort names accepted by the API onto document fields
var sortFields = map[string]string{
	"name":       "name",
	"price":      "price",
	"created_at": "createdAt",
	"stock":      "stock",
	"rating":     "rating",
}

type productRepository struct {
	collection *mongo.Collection
	categories *mongo.Collection
}

// NewProductRepository creates a ProductRepository backed by the products collection
func NewProductRepository(db *mongo.Database) repository.ProductRepository {
	return &productRepository{
		collection: db.Collection(database.ProductsCollection),
		categories: db.Collection(database.CategoriesCollection),
	}
}

func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	if err := r.requireCategory(ctx, product.CategoryID); err != nil {
		return err
	}

	doc := newProductDocument(product)
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}

	// The category may have been deleted between the check and the insert
	if err := r.requireCategory(ctx, product.CategoryID); err != nil {
		if _, delErr := r.collection.DeleteOne(ctx, bson.M{"_id": doc.ID}); delErr != nil {
			return fmt.Errorf("failed to remove product of deleted category: %w", delErr)
		}
		return err
	}
	return nil
}

func (r *productRepository) Update(ctx context.Context, product *domain.Product) error {
	if err := r.requireCategory(ctx, product.CategoryID); err != nil {
		return err
	}

	doc := newProductDocument(product)
	update := bson.M{"$set": bson.M{
		"name":        doc.Name,
		"description": doc.Description,
		"price":       doc.Price,
		"categoryId":  doc.CategoryID,
		"image":       doc.Image,
		"stock":       doc.Stock,
		"rating":      doc.Rating,
		"updatedAt":   doc.UpdatedAt,
	}}

	var previous bson.Raw
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": doc.ID}, update).Decode(&previous)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return repository.ErrProductNotFound
		}
		return fmt.Errorf("failed to update product: %w", err)
	}

	// Same re-check as Create; the previous version is put back
	if err := r.requireCategory(ctx, product.CategoryID); err != nil {
		if _, restoreErr := r.collection.ReplaceOne(ctx, bson.M{"_id": doc.ID}, previous); restoreErr != nil {
			return fmt.Errorf("failed to restore product of deleted category: %w", restoreErr)
		}
		return err
	}
	return nil
}

func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	if result.DeletedCount == 0 {
		return repository.ErrProductNotFound
	}
	return nil
}

func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	var doc productDocument
	if err := r.collection.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}
	return doc.toDomain()
}

func (r *productRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Product, error) {
	if len(ids) == 0 {
		return []*domain.Product{}, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": idStrings(ids)}})
}

func (r *productRepository) List(ctx context.Context, categoryID *uuid.UUID, page, pageSize int, sortBy string, sortOrder repository.SortOrder) ([]*domain.Product, int, error) {
	filter := bson.M{}
	if categoryID != nil {
		filter["categoryId"] = categoryID.String()
	}
	return r.page(ctx, filter, page, pageSize, sortBy, sortOrder)
}

func (r *productRepository) ListByCategory(ctx context.Context, categoryID uuid.UUID) ([]*domain.Product, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}})
	return r.find(ctx, bson.M{"categoryId": categoryID.String()}, opts)
}

// Search matches name or description case-insensitively
func (r *productRepository) Search(ctx context.Context, query string, page, pageSize int) ([]*domain.Product, int, error) {
	if strings.TrimSpace(query) == "" {
		return r.List(ctx, nil, page, pageSize, "created_at", repository.SortOrderDesc)
	}

	pattern := bson.Regex{Pattern: regexp.QuoteMeta(query), Options: "i"}
	filter := bson.M{"$or": bson.A{
		bson.M{"name": pattern},
		bson.M{"description": pattern},
	}}
	return r.page(ctx, filter, page, pageSize, "created_at", repository.SortOrderDesc)
}

func (r *productRepository) page(ctx context.Context, filter bson.M, page, pageSize int, sortBy string, sortOrder repository.SortOrder) ([]*domain.Product, int, error) {
	sortBy, sortOrder = repository.NormalizeSort(sortBy, sortOrder)
	direction := -1
	if sortOrder == repository.SortOrderAsc {
		direction = 1
	}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: sortFields[sortBy], Value: direction}, {Key: "_id", Value: 1}}).
		SetSkip(int64((page - 1) * pageSize)).
		SetLimit(int64(pageSize))

	products, err := r.find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	return products, int(total), nil
}

func (r *productRepository) find(ctx context.Context, filter bson.M, opts ...options.Lister[options.FindOptions]) ([]*domain.Product, error) {
	cursor, err := r.collection.Find(ctx, filter, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []productDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}

	products := make([]*domain.Product, 0, len(docs))
	for _, doc := range docs {
		product, err := doc.toDomain()
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	return products, nil
}

func (r *productRepository) requireCategory(ctx context.Context, categoryID uuid.UUID) error {
	count, err := r.categories.CountDocuments(ctx, bson.M{"_id": categoryID.String()}, options.Count().SetLimit(1))
	if err != nil {
		return fmt.Errorf("failed to check category: %w", err)
	}
	if count == 0 {
		return repository.ErrCategoryNotFound
	}
	return nil
}
