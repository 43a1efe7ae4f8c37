package repository

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"storefront/internal/domain"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func createTestCategory(t *testing.T, repo CategoryRepository) *domain.Category {
	t.Helper()
	category := &domain.Category{
		ID:          uuid.New(),
		Name:        "Test Category " + uuid.New().String(),
		Description: "Test category description",
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	if err := repo.Create(context.Background(), category); err != nil {
		t.Fatalf("Failed to create category: %v", err)
	}
	return category
}

func priceEqual(a, b float64) bool {
	return math.Abs(a-b) < 0.01
}

func TestProperty_ProductCreationPreservesAttributes(t *testing.T) {
	requireDB(t)
	productRepo := NewProductRepository(testDB)
	category := createTestCategory(t, NewCategoryRepository(testDB))

	properties := gopter.NewProperties(nil)

	properties.Property("creating and retrieving a product preserves all attributes", prop.ForAll(
		func(name string, description string, price float64, image string, stock int) bool {
			ctx := context.Background()

			product := &domain.Product{
				ID:          uuid.New(),
				Name:        name,
				Description: description,
				Price:       price,
				CategoryID:  category.ID,
				Image:       image,
				Stock:       stock,
				Rating:      4.5,
				CreatedAt:   time.Now(),
				UpdatedAt:   time.Now(),
			}

			if err := productRepo.Create(ctx, product); err != nil {
				t.Logf("FAIL: Failed to create product: %v", err)
				return false
			}

			retrieved, err := productRepo.FindByID(ctx, product.ID)
			if err != nil {
				t.Logf("FAIL: Failed to retrieve product: %v", err)
				return false
			}

			if retrieved.Name != product.Name || retrieved.Description != product.Description {
				t.Logf("FAIL: text mismatch. Expected %q/%q, got %q/%q", product.Name, product.Description, retrieved.Name, retrieved.Description)
				return false
			}

			if !priceEqual(retrieved.Price, product.Price) {
				t.Logf("FAIL: Price mismatch. Expected %f, got %f", product.Price, retrieved.Price)
				return false
			}

			if retrieved.CategoryID != product.CategoryID || retrieved.Image != product.Image || retrieved.Stock != product.Stock {
				t.Logf("FAIL: attribute mismatch for product %s", product.ID)
				return false
			}

			if retrieved.Rating != product.Rating {
				t.Logf("FAIL: Rating mismatch. Expected %f, got %f", product.Rating, retrieved.Rating)
				return false
			}

			return !retrieved.CreatedAt.IsZero()
		},
		gen.RegexMatch(`[A-Za-z0-9 ]{3,50}`),
		gen.RegexMatch(`[A-Za-z0-9 .,!?]{10,200}`),
		gen.Float64Range(0.01, 9999.99),
		gen.RegexMatch(`https?://[a-z0-9.-]+/[a-z0-9/._-]{1,50}`),
		gen.IntRange(0, 1000),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestProperty_ProductUpdatesAreReflected(t *testing.T) {
	requireDB(t)
	productRepo := NewProductRepository(testDB)
	category := createTestCategory(t, NewCategoryRepository(testDB))

	properties := gopter.NewProperties(nil)

	properties.Property("updating a product and retrieving it shows the updated values", prop.ForAll(
		func(name1, name2 string, price1, price2 float64, stock1, stock2 int) bool {
			ctx := context.Background()

			product := &domain.Product{
				ID:         uuid.New(),
				Name:       name1,
				Price:      price1,
				CategoryID: category.ID,
				Stock:      stock1,
				CreatedAt:  time.Now(),
				UpdatedAt:  time.Now(),
			}
			if err := productRepo.Create(ctx, product); err != nil {
				t.Logf("FAIL: Failed to create product: %v", err)
				return false
			}

			product.Name = name2
			product.Price = price2
			product.Stock = stock2
			product.UpdatedAt = time.Now()
			if err := productRepo.Update(ctx, product); err != nil {
				t.Logf("FAIL: Failed to update product: %v", err)
				return false
			}

			retrieved, err := productRepo.FindByID(ctx, product.ID)
			if err != nil {
				t.Logf("FAIL: Failed to retrieve product: %v", err)
				return false
			}

			return retrieved.Name == name2 && priceEqual(retrieved.Price, price2) && retrieved.Stock == stock2
		},
		gen.RegexMatch(`[A-Za-z0-9 ]{3,50}`),
		gen.RegexMatch(`[A-Za-z0-9 ]{3,50}`),
		gen.Float64Range(0.01, 9999.99),
		gen.Float64Range(0.01, 9999.99),
		gen.IntRange(0, 1000),
		gen.IntRange(0, 1000),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestProperty_ProductDeletionRemovesFromCatalog(t *testing.T) {
	requireDB(t)
	productRepo := NewProductRepository(testDB)
	category := createTestCategory(t, NewCategoryRepository(testDB))

	properties := gopter.NewProperties(nil)

	properties.Property("deleting a product makes it not retrievable", prop.ForAll(
		func(name string, price float64) bool {
			ctx := context.Background()

			product := &domain.Product{
				ID:         uuid.New(),
				Name:       name,
				Price:      price,
				CategoryID: category.ID,
				CreatedAt:  time.Now(),
				UpdatedAt:  time.Now(),
			}
			if err := productRepo.Create(ctx, product); err != nil {
				t.Logf("FAIL: Failed to create product: %v", err)
				return false
			}

			if err := productRepo.Delete(ctx, product.ID); err != nil {
				t.Logf("FAIL: Failed to delete product: %v", err)
				return false
			}

			_, err := productRepo.FindByID(ctx, product.ID)
			if !errors.Is(err, ErrProductNotFound) {
				t.Logf("FAIL: Expected ErrProductNotFound, got %v", err)
				return false
			}

			return errors.Is(productRepo.Delete(ctx, product.ID), ErrProductNotFound)
		},
		gen.RegexMatch(`[A-Za-z0-9 ]{3,50}`),
		gen.Float64Range(0.01, 9999.99),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestProductRepository_FindByIDsAndCategoryRules(t *testing.T) {
	requireDB(t)
	ctx := context.Background()
	productRepo := NewProductRepository(testDB)
	categoryRepo := NewCategoryRepository(testDB)
	category := createTestCategory(t, categoryRepo)

	ids := []uuid.UUID{}
	for _, name := range []string{"Beta", "Alpha"} {
		product := &domain.Product{ID: uuid.New(), Name: name, Price: 1, CategoryID: category.ID, CreatedAt: time.Now(), UpdatedAt: time.Now()}
		if err := productRepo.Create(ctx, product); err != nil {
			t.Fatalf("Failed to create product: %v", err)
		}
		ids = append(ids, product.ID)
	}

	found, err := productRepo.FindByIDs(ctx, append(ids, uuid.New()))
	if err != nil {
		t.Fatalf("FindByIDs failed: %v", err)
	}
	if len(found) != 2 {
		t.Fatalf("Expected 2 products, got %d", len(found))
	}

	byCategory, err := productRepo.ListByCategory(ctx, category.ID)
	if err != nil {
		t.Fatalf("ListByCategory failed: %v", err)
	}
	if len(byCategory) != 2 || byCategory[0].Name != "Alpha" {
		t.Fatalf("Expected products ordered by name, got %+v", byCategory)
	}

	orphan := &domain.Product{ID: uuid.New(), Name: "Orphan", CategoryID: uuid.New(), CreatedAt: time.Now(), UpdatedAt: time.Now()}
	if err := productRepo.Create(ctx, orphan); !errors.Is(err, ErrCategoryNotFound) {
		t.Errorf("Expected ErrCategoryNotFound, got %v", err)
	}

	if err := categoryRepo.Delete(ctx, category.ID); !errors.Is(err, ErrCategoryInUse) {
		t.Errorf("Expected ErrCategoryInUse, got %v", err)
	}

	duplicate := &domain.Category{ID: uuid.New(), Name: category.Name, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	if err := categoryRepo.Create(ctx, duplicate); !errors.Is(err, ErrCategoryAlreadyExists) {
		t.Errorf("Expected ErrCategoryAlreadyExists, got %v", err)
	}
}

func TestEscapeLike(t *testing.T) {
	tests := map[string]string{
		"plain":    "plain",
		"50%":      `50\%`,
		"a_b":      `a\_b`,
		`back\sla`: `back\\sla`,
	}
	for in, want := range tests {
		if got := escapeLike(in); got != want {
			t.Errorf("escapeLike(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestProductRepository_SearchMatchesWildcardsLiterally(t *testing.T) {
	requireDB(t)
	ctx := context.Background()
	productRepo := NewProductRepository(testDB)
	category := createTestCategory(t, NewCategoryRepository(testDB))
	marker := uuid.New().String()

	for _, name := range []string{marker + " 50% off", marker + " 500 off", marker + " a_b", marker + " axb"} {
		product := &domain.Product{ID: uuid.New(), Name: name, Price: 1, CategoryID: category.ID, CreatedAt: time.Now(), UpdatedAt: time.Now()}
		if err := productRepo.Create(ctx, product); err != nil {
			t.Fatalf("Failed to create product: %v", err)
		}
	}

	for query, want := range map[string]string{
		marker + " 50%": marker + " 50% off",
		marker + " a_b": marker + " a_b",
	} {
		found, total, err := productRepo.Search(ctx, query, 1, 10)
		if err != nil {
			t.Fatalf("Search failed: %v", err)
		}
		if total != 1 || len(found) != 1 || found[0].Name != want {
			t.Errorf("Search(%q) = %d results %+v, want only %q", query, total, found, want)
		}
	}
}
