package service

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/domain"
	"storefront/internal/repository"

	"github.com/google/uuid"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// CategoryInput carries the fields of a new category
type CategoryInput struct {
	Name        string
	Description string
	Image       string
}

// CategoryUpdate is a partial category update; nil fields are kept
type CategoryUpdate struct {
	Name        *string
	Description *string
	Image       *string
}

// ProductInput carries the fields of a new product
type ProductInput struct {
	Name        string
	Description string
	Price       float64
	CategoryID  uuid.UUID
	Image       string
	Stock       int
	Rating      float64
}

// ProductUpdate is a partial product update; nil fields are kept
type ProductUpdate struct {
	Name        *string
	Description *string
	Price       *float64
	CategoryID  *uuid.UUID
	Image       *string
	Stock       *int
	Rating      *float64
}

// ProductQuery selects a page of the catalog
type ProductQuery struct {
	CategoryID *uuid.UUID
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  repository.SortOrder
}

// ProductPage is one page of products plus paging metadata
type ProductPage struct {
	Products   []*domain.Product `json:"products"`
	Total      int               `json:"total"`
	Page       int               `json:"page"`
	PageSize   int               `json:"pageSize"`
	TotalPages int               `json:"totalPages"`
}

// CatalogService defines the interface for category and product management
type CatalogService interface {
	CreateCategory(ctx context.Context, input CategoryInput) (*domain.Category, error)
	ListCategories(ctx context.Context) ([]*domain.Category, error)
	GetCategory(ctx context.Context, id uuid.UUID) (*domain.Category, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, update CategoryUpdate) (*domain.Category, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error

	CreateProduct(ctx context.Context, input ProductInput) (*domain.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	ListProducts(ctx context.Context, query ProductQuery) (*ProductPage, error)
	ListProductsByCategory(ctx context.Context, categoryID uuid.UUID) ([]*domain.Product, error)
	SearchProducts(ctx context.Context, query string, page, pageSize int) (*ProductPage, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, update ProductUpdate) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
}

type catalogService struct {
	categoryRepo repository.CategoryRepository
	productRepo  repository.ProductRepository
}

// NewCatalogService creates a new instance of CatalogService
func NewCatalogService(categoryRepo repository.CategoryRepository, productRepo repository.ProductRepository) CatalogService {
	return &catalogService{
		categoryRepo: categoryRepo,
		productRepo:  productRepo,
	}
}

func (s *catalogService) CreateCategory(ctx context.Context, input CategoryInput) (*domain.Category, error) {
	now := time.Now().UTC()
	category := &domain.Category{
		ID:          uuid.New(),
		Name:        input.Name,
		Description: input.Description,
		Image:       input.Image,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	return category, nil
}

func (s *catalogService) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	categories, err := s.categoryRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

func (s *catalogService) GetCategory(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	category, err := s.categoryRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return category, nil
}

func (s *catalogService) UpdateCategory(ctx context.Context, id uuid.UUID, update CategoryUpdate) (*domain.Category, error) {
	category, err := s.categoryRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}

	if update.Name != nil {
		category.Name = *update.Name
	}
	if update.Description != nil {
		category.Description = *update.Description
	}
	if update.Image != nil {
		category.Image = *update.Image
	}
	category.UpdatedAt = time.Now().UTC()

	if err := s.categoryRepo.Update(ctx, category); err != nil {
		return nil, fmt.Errorf("failed to update category: %w", err)
	}
	return category, nil
}

func (s *catalogService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	if err := s.categoryRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	return nil
}

// CreateProduct adds a product to an existing category
func (s *catalogService) CreateProduct(ctx context.Context, input ProductInput) (*domain.Product, error) {
	if _, err := s.categoryRepo.FindByID(ctx, input.CategoryID); err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}

	now := time.Now().UTC()
	product := &domain.Product{
		ID:          uuid.New(),
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		CategoryID:  input.CategoryID,
		Image:       input.Image,
		Stock:       input.Stock,
		Rating:      input.Rating,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return product, nil
}

func (s *catalogService) GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return product, nil
}

func (s *catalogService) ListProducts(ctx context.Context, query ProductQuery) (*ProductPage, error) {
	page, pageSize := normalizePaging(query.Page, query.PageSize)

	products, total, err := s.productRepo.List(ctx, query.CategoryID, page, pageSize, query.SortBy, query.SortOrder)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return newProductPage(products, total, page, pageSize), nil
}

func (s *catalogService) ListProductsByCategory(ctx context.Context, categoryID uuid.UUID) ([]*domain.Product, error) {
	products, err := s.productRepo.ListByCategory(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to list products by category: %w", err)
	}
	return products, nil
}

func (s *catalogService) SearchProducts(ctx context.Context, query string, page, pageSize int) (*ProductPage, error) {
	page, pageSize = normalizePaging(page, pageSize)

	products, total, err := s.productRepo.Search(ctx, query, page, pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}
	return newProductPage(products, total, page, pageSize), nil
}

func (s *catalogService) UpdateProduct(ctx context.Context, id uuid.UUID, update ProductUpdate) (*domain.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	if update.CategoryID != nil && *update.CategoryID != product.CategoryID {
		if _, err := s.categoryRepo.FindByID(ctx, *update.CategoryID); err != nil {
			return nil, fmt.Errorf("failed to get category: %w", err)
		}
		product.CategoryID = *update.CategoryID
	}
	if update.Name != nil {
		product.Name = *update.Name
	}
	if update.Description != nil {
		product.Description = *update.Description
	}
	if update.Price != nil {
		product.Price = *update.Price
	}
	if update.Image != nil {
		product.Image = *update.Image
	}
	if update.Stock != nil {
		product.Stock = *update.Stock
	}
	if update.Rating != nil {
		product.Rating = *update.Rating
	}
	product.UpdatedAt = time.Now().UTC()

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return product, nil
}

func (s *catalogService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if err := s.productRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return nil
}

func normalizePaging(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}

func newProductPage(products []*domain.Product, total, page, pageSize int) *ProductPage {
	return &ProductPage{
		Products:   products,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: (total + pageSize - 1) / pageSize,
	}
}
