package transport

import (
	"errors"
	"net/http"
	"strings"

	"storefront/internal/middleware"
	"storefront/internal/repository"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateProductRequest represents the product creation payload
type CreateProductRequest struct {
	Name        string   `json:"name" validate:"required"`
	Description string   `json:"description"`
	Price       *float64 `json:"price" validate:"required,gte=0,lte=2147483647"`
	Stock       *int     `json:"stock" validate:"required,gte=0,lte=2147483647"`
	CategoryID  string   `json:"categoryId" validate:"required,uuid"`
	Image       string   `json:"image" validate:"required"`
	Rating      float64  `json:"rating" validate:"gte=0,lte=5"`
}

// UpdateProductRequest is a partial product update
type UpdateProductRequest struct {
	Name        *string  `json:"name" validate:"omitempty,min=1"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price" validate:"omitempty,gte=0"`
	Stock       *int     `json:"stock" validate:"omitempty,gte=0,lte=2147483647"`
	CategoryID  *string  `json:"categoryId" validate:"omitempty,uuid"`
	Image       *string  `json:"image"`
	Rating      *float64 `json:"rating" validate:"omitempty,gte=0,lte=5"`
}

// sortParams maps the sortBy values clients send onto store sort fields
var sortParams = map[string]string{
	"name":      "name",
	"price":     "price",
	"stock":     "stock",
	"rating":    "rating",
	"createdAt": "created_at",
}

// ProductHandler serves the /products routes
type ProductHandler struct {
	catalog service.CatalogService
	logger  *zap.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(catalog service.CatalogService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		catalog: catalog,
		logger:  logger,
	}
}

// RegisterRoutes registers the product routes. Reads are public, writes need an admin.
func (h *ProductHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/by-category", h.ListByCategory)
		r.Get("/search", h.Search)
		r.Get("/{id}", h.Get)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware, middleware.RequireAdmin(h.logger))
			r.Post("/", h.Create)
			r.Put("/{id}", h.Update)
			r.Delete("/{id}", h.Delete)
		})
	})
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	product, err := h.catalog.CreateProduct(r.Context(), service.ProductInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       *req.Price,
		CategoryID:  uuid.MustParse(req.CategoryID),
		Image:       req.Image,
		Stock:       *req.Stock,
		Rating:      req.Rating,
	})
	if err != nil {
		h.respondWithServiceError(w, err, "failed to create product")
		return
	}

	h.logger.Info("Product created", zap.String("product_id", product.ID.String()))
	middleware.RespondWithJSON(w, http.StatusCreated, product)
}

// List returns a page of products, optionally restricted to one category
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	query := service.ProductQuery{
		SortBy:    sortParams[r.URL.Query().Get("sortBy")],
		SortOrder: repository.SortOrder(strings.ToUpper(r.URL.Query().Get("sortOrder"))),
	}

	var ok bool
	if query.Page, ok = intQuery(w, r, "page"); !ok {
		return
	}
	if query.PageSize, ok = intQuery(w, r, "pageSize"); !ok {
		return
	}

	if raw := r.URL.Query().Get("categoryId"); raw != "" {
		categoryID, err := uuid.Parse(raw)
		if err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid categoryId")
			return
		}
		query.CategoryID = &categoryID
	}

	page, err := h.catalog.ListProducts(r.Context(), query)
	if err != nil {
		h.respondWithServiceError(w, err, "failed to list products")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, page)
}

// ListByCategory returns every product of ?categoryId=, or the whole catalog
// when no category is given.
func (h *ProductHandler) ListByCategory(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("categoryId")
	if raw == "" {
		page, err := h.catalog.ListProducts(r.Context(), service.ProductQuery{PageSize: service.MaxPageSize})
		if err != nil {
			h.respondWithServiceError(w, err, "failed to list products")
			return
		}
		middleware.RespondWithJSON(w, http.StatusOK, page.Products)
		return
	}

	categoryID, err := uuid.Parse(raw)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid categoryId")
		return
	}

	products, err := h.catalog.ListProductsByCategory(r.Context(), categoryID)
	if err != nil {
		h.respondWithServiceError(w, err, "failed to list products")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, products)
}

func (h *ProductHandler) Search(w http.ResponseWriter, r *http.Request) {
	page, ok := intQuery(w, r, "page")
	if !ok {
		return
	}
	pageSize, ok := intQuery(w, r, "pageSize")
	if !ok {
		return
	}

	result, err := h.catalog.SearchProducts(r.Context(), r.URL.Query().Get("q"), page, pageSize)
	if err != nil {
		h.respondWithServiceError(w, err, "failed to search products")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, result)
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	product, err := h.catalog.GetProduct(r.Context(), id)
	if err != nil {
		h.respondWithServiceError(w, err, "failed to get product")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	var req UpdateProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	update := service.ProductUpdate{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Image:       req.Image,
		Stock:       req.Stock,
		Rating:      req.Rating,
	}
	if req.CategoryID != nil {
		categoryID := uuid.MustParse(*req.CategoryID)
		update.CategoryID = &categoryID
	}

	product, err := h.catalog.UpdateProduct(r.Context(), id, update)
	if err != nil {
		h.respondWithServiceError(w, err, "failed to update product")
		return
	}

	h.logger.Info("Product updated", zap.String("product_id", product.ID.String()))
	middleware.RespondWithJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.catalog.DeleteProduct(r.Context(), id); err != nil {
		h.respondWithServiceError(w, err, "failed to delete product")
		return
	}

	h.logger.Info("Product deleted", zap.String("product_id", id.String()))
	w.WriteHeader(http.StatusNoContent)
}

func (h *ProductHandler) respondWithServiceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, repository.ErrProductNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, "product not found")
	case errors.Is(err, repository.ErrCategoryNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, "category not found")
	default:
		h.logger.Error(fallback, zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, fallback)
	}
}
