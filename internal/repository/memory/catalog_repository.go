package memory

import (
	"context"
	"sort"
	"strings"

	"storefront/internal/domain"
	"storefront/internal/repository"

	"github.com/google/uuid"
)

type categoryRepository struct {
	s *Store
}

func (r *categoryRepository) nameTaken(name string, except uuid.UUID) bool {
	for id, c := range r.s.categories {
		if id != except && c.Name == name {
			return true
		}
	}
	return false
}

func (r *categoryRepository) Create(_ context.Context, category *domain.Category) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.nameTaken(category.Name, uuid.Nil) {
		return repository.ErrCategoryAlreadyExists
	}
	c := *category
	r.s.categories[c.ID] = &c
	return nil
}

func (r *categoryRepository) List(_ context.Context) ([]*domain.Category, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	categories := make([]*domain.Category, 0, len(r.s.categories))
	for _, c := range r.s.categories {
		clone := *c
		categories = append(categories, &clone)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].Name < categories[j].Name })
	return categories, nil
}

func (r *categoryRepository) FindByID(_ context.Context, id uuid.UUID) (*domain.Category, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.categories[id]
	if !ok {
		return nil, repository.ErrCategoryNotFound
	}
	clone := *c
	return &clone, nil
}

func (r *categoryRepository) Update(_ context.Context, category *domain.Category) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.categories[category.ID]
	if !ok {
		return repository.ErrCategoryNotFound
	}
	if r.nameTaken(category.Name, category.ID) {
		return repository.ErrCategoryAlreadyExists
	}
	c := *category
	c.CreatedAt = existing.CreatedAt
	r.s.categories[c.ID] = &c
	return nil
}

func (r *categoryRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.categories[id]; !ok {
		return repository.ErrCategoryNotFound
	}
	for _, p := range r.s.products {
		if p.CategoryID == id {
			return repository.ErrCategoryInUse
		}
	}
	delete(r.s.categories, id)
	return nil
}

type productRepository struct {
	s *Store
}

func (r *productRepository) Create(_ context.Context, product *domain.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.categories[product.CategoryID]; !ok {
		return repository.ErrCategoryNotFound
	}
	p := *product
	r.s.products[p.ID] = &p
	return nil
}

func (r *productRepository) Update(_ context.Context, product *domain.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.products[product.ID]
	if !ok {
		return repository.ErrProductNotFound
	}
	if _, ok := r.s.categories[product.CategoryID]; !ok {
		return repository.ErrCategoryNotFound
	}
	p := *product
	p.CreatedAt = existing.CreatedAt
	r.s.products[p.ID] = &p
	return nil
}

func (r *productRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.products[id]; !ok {
		return repository.ErrProductNotFound
	}
	delete(r.s.products, id)
	return nil
}

func (r *productRepository) FindByID(_ context.Context, id uuid.UUID) (*domain.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	clone := *p
	return &clone, nil
}

func (r *productRepository) FindByIDs(_ context.Context, ids []uuid.UUID) ([]*domain.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	products := []*domain.Product{}
	seen := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if p, ok := r.s.products[id]; ok {
			clone := *p
			products = append(products, &clone)
		}
	}
	return products, nil
}

func (r *productRepository) List(_ context.Context, categoryID *uuid.UUID, page, pageSize int, sortBy string, sortOrder repository.SortOrder) ([]*domain.Product, int, error) {
	return r.page(func(p *domain.Product) bool {
		return categoryID == nil || p.CategoryID == *categoryID
	}, page, pageSize, sortBy, sortOrder)
}

func (r *productRepository) ListByCategory(_ context.Context, categoryID uuid.UUID) ([]*domain.Product, error) {
	products, _, err := r.page(func(p *domain.Product) bool {
		return p.CategoryID == categoryID
	}, 1, 0, "name", repository.SortOrderAsc)
	return products, err
}

func (r *productRepository) Search(_ context.Context, query string, page, pageSize int) ([]*domain.Product, int, error) {
	needle := strings.ToLower(strings.TrimSpace(query))
	return r.page(func(p *domain.Product) bool {
		return needle == "" ||
			strings.Contains(strings.ToLower(p.Name), needle) ||
			strings.Contains(strings.ToLower(p.Description), needle)
	}, page, pageSize, "created_at", repository.SortOrderDesc)
}

// page filters, sorts and slices the catalog. A pageSize of 0 returns every match.
func (r *productRepository) page(match func(*domain.Product) bool, page, pageSize int, sortBy string, sortOrder repository.SortOrder) ([]*domain.Product, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	sortBy, sortOrder = repository.NormalizeSort(sortBy, sortOrder)

	products := []*domain.Product{}
	for _, p := range r.s.products {
		if match(p) {
			clone := *p
			products = append(products, &clone)
		}
	}

	sort.Slice(products, func(i, j int) bool {
		a, b := products[i], products[j]
		if sortOrder == repository.SortOrderDesc {
			a, b = b, a
		}
		if less, equal := compareProducts(a, b, sortBy); !equal {
			return less
		}
		return products[i].ID.String() < products[j].ID.String()
	})

	total := len(products)
	if pageSize <= 0 {
		return products, total, nil
	}

	start := (page - 1) * pageSize
	if start < 0 {
		start = 0
	}
	if start >= total {
		return []*domain.Product{}, total, nil
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	return products[start:end], total, nil
}

func compareProducts(a, b *domain.Product, field string) (less, equal bool) {
	switch field {
	case "name":
		return a.Name < b.Name, a.Name == b.Name
	case "price":
		return a.Price < b.Price, a.Price == b.Price
	case "stock":
		return a.Stock < b.Stock, a.Stock == b.Stock
	case "rating":
		return a.Rating < b.Rating, a.Rating == b.Rating
	default:
		return a.CreatedAt.Before(b.CreatedAt), a.CreatedAt.Equal(b.CreatedAt)
	}
}
