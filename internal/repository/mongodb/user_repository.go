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

type userRepository struct {
	collection *mongo.Collection
}

// NewUserRepository creates a UserRepository backed by the users collection
func NewUserRepository(db *mongo.Database) repository.UserRepository {
	return &userRepository{collection: db.Collection(database.UsersCollection)}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	if _, err := r.collection.InsertOne(ctx, newUserDocument(user)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrUserAlreadyExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"_id": id.String()})
}

func (r *userRepository) List(ctx context.Context) ([]*domain.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []userDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}

	users := make([]*domain.User, 0, len(docs))
	for _, doc := range docs {
		user, err := doc.toDomain()
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

// Update writes the profile fields; roles and the password hash are left alone
func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	update := bson.M{"$set": bson.M{
		"email":     user.Email,
		"name":      user.Name,
		"dept":      user.Dept,
		"rollno":    user.RollNo,
		"age":       user.Age,
		"phno":      user.Phone,
		"address":   user.Address,
		"updatedAt": user.UpdatedAt,
	}}

	result, err := r.collection.UpdateByID(ctx, user.ID.String(), update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrUserAlreadyExists
		}
		return fmt.Errorf("failed to update user: %w", err)
	}

	if result.MatchedCount == 0 {
		return repository.ErrUserNotFound
	}
	return nil
}

func (r *userRepository) SetRoles(ctx context.Context, id uuid.UUID, roles []string) (*domain.User, error) {
	update := bson.M{"$set": bson.M{"roles": roles, "updatedAt": now()}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc userDocument
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id.String()}, update, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to set user roles: %w", err)
	}
	return doc.toDomain()
}

func (r *userRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	var doc userDocument
	if err := r.collection.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return doc.toDomain()
}
