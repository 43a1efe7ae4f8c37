package transport

import (
	"errors"
	"net/http"

	"storefront/internal/middleware"
	"storefront/internal/repository"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AddCartItemRequest represents the add-to-cart payload
type AddCartItemRequest struct {
	UserID    string `json:"userId" validate:"required,uuid"`
	ProductID string `json:"productId" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"gte=1,lte=2147483647"`
}

// UpdateCartItemRequest replaces the quantity of one cart line
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" validate:"gte=1,lte=2147483647"`
}

// CartHandler serves the /cart routes
type CartHandler struct {
	cartService service.CartService
	logger      *zap.Logger
}

// NewCartHandler creates a new CartHandler
func NewCartHandler(cartService service.CartService, logger *zap.Logger) *CartHandler {
	return &CartHandler{
		cartService: cartService,
		logger:      logger,
	}
}

// RegisterRoutes registers the cart routes. A caller may only touch their own cart unless they are an admin.
func (h *CartHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/cart", func(r chi.Router) {
		r.Use(authMiddleware)

		r.Post("/", h.AddItem)

		r.Route("/{userId}", func(r chi.Router) {
			r.Use(middleware.RequireSelfOrAdmin("userId", h.logger))
			r.Get("/", h.GetCart)
			r.Delete("/", h.ClearCart)
			r.Put("/{productId}", h.UpdateItem)
			r.Delete("/{productId}", h.RemoveItem)
		})
	})
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddCartItemRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	userID := uuid.MustParse(req.UserID)
	if !middleware.CanActFor(r.Context(), userID) {
		middleware.RespondWithError(w, http.StatusForbidden, "insufficient permissions")
		return
	}

	cart, err := h.cartService.AddItem(r.Context(), userID, uuid.MustParse(req.ProductID), req.Quantity)
	if err != nil {
		h.respondWithServiceError(w, err, "failed to add item to cart")
		return
	}

	h.logger.Debug("Cart item added",
		zap.String("user_id", req.UserID),
		zap.String("product_id", req.ProductID),
		zap.Int("quantity", req.Quantity),
	)
	middleware.RespondWithJSON(w, http.StatusOK, cart)
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := uuidParam(w, r, "userId")
	if !ok {
		return
	}

	cart, err := h.cartService.GetCart(r.Context(), userID)
	if err != nil {
		h.respondWithServiceError(w, err, "failed to get cart")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, cart)
}

func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := uuidParam(w, r, "userId")
	if !ok {
		return
	}
	productID, ok := uuidParam(w, r, "productId")
	if !ok {
		return
	}

	var req UpdateCartItemRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	cart, err := h.cartService.UpdateItemQuantity(r.Context(), userID, productID, req.Quantity)
	if err != nil {
		h.respondWithServiceError(w, err, "failed to update cart item")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, cart)
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := uuidParam(w, r, "userId")
	if !ok {
		return
	}
	productID, ok := uuidParam(w, r, "productId")
	if !ok {
		return
	}

	cart, err := h.cartService.RemoveItem(r.Context(), userID, productID)
	if err != nil {
		h.respondWithServiceError(w, err, "failed to remove cart item")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, cart)
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := uuidParam(w, r, "userId")
	if !ok {
		return
	}

	cart, err := h.cartService.ClearCart(r.Context(), userID)
	if err != nil {
		h.respondWithServiceError(w, err, "failed to clear cart")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, cart)
}

func (h *CartHandler) respondWithServiceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrInvalidQuantity):
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, repository.ErrCartNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, "cart not found")
	case errors.Is(err, repository.ErrCartItemNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, "item not found in cart")
	default:
		h.logger.Error(fallback, zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, fallback)
	}
}
