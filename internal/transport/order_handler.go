package transport

import (
	"errors"
	"net/http"

	"storefront/internal/domain"
	"storefront/internal/middleware"
	"storefront/internal/repository"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OrderItemRequest is one line of a checkout
type OrderItemRequest struct {
	ProductID string   `json:"productId" validate:"required,uuid"`
	Quantity  int      `json:"quantity" validate:"gte=1,lte=2147483647"`
	Price     *float64 `json:"price" validate:"required,gte=0"`
}

// CreateOrderRequest represents the checkout payload
type CreateOrderRequest struct {
	UserID        string             `json:"userId" validate:"required,uuid"`
	Items         []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
	TotalAmount   *float64           `json:"totalAmount" validate:"required,gte=0"`
	PaymentMethod string             `json:"paymentMethod" validate:"required"`
}

// OrderHandler serves the /orders routes
type OrderHandler struct {
	orderService service.OrderService
	logger       *zap.Logger
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orderService service.OrderService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		logger:       logger,
	}
}

// RegisterRoutes registers the order routes
func (h *OrderHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/orders", func(r chi.Router) {
		r.Use(authMiddleware)

		r.Post("/", h.Create)
		r.Get("/{id}", h.Get)
		r.With(middleware.RequireSelfOrAdmin("userId", h.logger)).Get("/user/{userId}", h.ListByUser)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin(h.logger))
			r.Get("/", h.List)
			r.Patch("/{id}/status/{status}", h.UpdateStatus)
			r.Delete("/{id}", h.Delete)
		})
	})
}

// Create places an order for the user named in the body
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	userID := uuid.MustParse(req.UserID)
	if !middleware.CanActFor(r.Context(), userID) {
		middleware.RespondWithError(w, http.StatusForbidden, "insufficient permissions")
		return
	}

	items := make([]domain.OrderItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, domain.OrderItem{
			ProductID: uuid.MustParse(item.ProductID),
			Quantity:  item.Quantity,
			Price:     *item.Price,
		})
	}

	order, err := h.orderService.CreateOrder(r.Context(), service.CreateOrderInput{
		UserID:        userID,
		Items:         items,
		TotalAmount:   *req.TotalAmount,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		h.respondWithServiceError(w, err, "failed to create order")
		return
	}

	h.logger.Info("Order created",
		zap.String("order_id", order.ID.String()),
		zap.String("user_id", order.UserID.String()),
		zap.Float64("total_amount", order.TotalAmount),
	)
	middleware.RespondWithJSON(w, http.StatusCreated, order)
}

func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orderService.ListOrders(r.Context())
	if err != nil {
		h.respondWithServiceError(w, err, "failed to list orders")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := uuidParam(w, r, "userId")
	if !ok {
		return
	}

	orders, err := h.orderService.ListUserOrders(r.Context(), userID)
	if err != nil {
		h.respondWithServiceError(w, err, "failed to list orders")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, orders)
}

// Get returns one order to its owner or an admin
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	order, err := h.orderService.GetOrder(r.Context(), id)
	if err != nil {
		h.respondWithServiceError(w, err, "failed to get order")
		return
	}

	if !middleware.CanActFor(r.Context(), order.UserID) {
		middleware.RespondWithError(w, http.StatusForbidden, "insufficient permissions")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, order)
}

func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	order, err := h.orderService.UpdateStatus(r.Context(), id, chi.URLParam(r, "status"))
	if err != nil {
		h.respondWithServiceError(w, err, "failed to update order status")
		return
	}

	h.logger.Info("Order status updated",
		zap.String("order_id", order.ID.String()),
		zap.String("status", string(order.Status)),
	)
	middleware.RespondWithJSON(w, http.StatusOK, order)
}

func (h *OrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.orderService.DeleteOrder(r.Context(), id); err != nil {
		h.respondWithServiceError(w, err, "failed to delete order")
		return
	}

	h.logger.Info("Order deleted", zap.String("order_id", id.String()))
	w.WriteHeader(http.StatusNoContent)
}

func (h *OrderHandler) respondWithServiceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrInvalidOrder), errors.Is(err, domain.ErrInvalidStatus):
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrInvalidStatusTransition):
		middleware.RespondWithError(w, http.StatusConflict, "order status transition not allowed")
	case errors.Is(err, repository.ErrOrderNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, "order not found")
	case errors.Is(err, repository.ErrUserNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, "user not found")
	default:
		h.logger.Error(fallback, zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, fallback)
	}
}
