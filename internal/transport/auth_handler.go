package transport

import (
	"errors"
	"net/http"

	"storefront/internal/domain"
	"storefront/internal/middleware"
	"storefront/internal/repository"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// SignUpRequest represents the registration request payload
type SignUpRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Dept     string `json:"dept" validate:"required"`
	RollNo   string `json:"rollno" validate:"required"`
	Age      string `json:"age" validate:"required"`
	Phone    string `json:"phno" validate:"required"`
	Address  string `json:"address" validate:"required"`
}

// LoginRequest represents the login request payload
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UpdateUserRequest is a partial profile update. Roles cannot be changed here.
type UpdateUserRequest struct {
	Name    *string `json:"name" validate:"omitempty,min=1"`
	Email   *string `json:"email" validate:"omitempty,email"`
	Dept    *string `json:"dept"`
	RollNo  *string `json:"rollno"`
	Age     *string `json:"age"`
	Phone   *string `json:"phno"`
	Address *string `json:"address"`
}

// MessageResponse is a bare acknowledgement
type MessageResponse struct {
	Message string `json:"message"`
}

// LoginResponse represents the login response
type LoginResponse struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

// PromoteResponse is returned after granting admin rights
type PromoteResponse struct {
	Message string       `json:"message"`
	User    *domain.User `json:"user"`
}

// AuthHandler handles HTTP requests for accounts and credentials
type AuthHandler struct {
	authService service.AuthService
	logger      *zap.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService service.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// RegisterRoutes registers the /auth routes. rateLimit, when not nil, guards
// sign-up and login.
func (h *AuthHandler) RegisterRoutes(r chi.Router, authMiddleware, rateLimit func(http.Handler) http.Handler) {
	r.Route("/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if rateLimit != nil {
				r.Use(rateLimit)
			}
			r.Post("/sign-up", h.SignUp)
			r.Post("/login", h.Login)
		})

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)

			r.With(middleware.RequireAdmin(h.logger)).Get("/getUser", h.ListUsers)
			r.With(middleware.RequireSelfOrAdmin("id", h.logger)).Get("/getProfile/{id}", h.GetProfile)
			r.With(middleware.RequireSelfOrAdmin("id", h.logger)).Put("/{id}", h.UpdateProfile)
			r.With(middleware.RequireAdmin(h.logger)).Patch("/{id}/make-admin", h.MakeAdmin)
		})
	})
}

// SignUp handles user registration
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req SignUpRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Sign-up validation failed", zap.Error(err))
		middleware.RespondWithDecodeError(w, err)
		return
	}

	user, err := h.authService.Register(r.Context(), domain.Profile{
		Name:    req.Name,
		Email:   req.Email,
		Dept:    req.Dept,
		RollNo:  req.RollNo,
		Age:     req.Age,
		Phone:   req.Phone,
		Address: req.Address,
	}, req.Password)
	if err != nil {
		h.respondWithServiceError(w, err, "failed to register user")
		return
	}

	h.logger.Info("User registered successfully", zap.String("user_id", user.ID.String()))
	middleware.RespondWithJSON(w, http.StatusCreated, MessageResponse{Message: "Registered successfully"})
}

// Login handles user authentication
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Login validation failed", zap.Error(err))
		middleware.RespondWithDecodeError(w, err)
		return
	}

	token, user, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.respondWithServiceError(w, err, "failed to login")
		return
	}

	h.logger.Info("User logged in successfully", zap.String("user_id", user.ID.String()))
	middleware.RespondWithJSON(w, http.StatusOK, LoginResponse{Token: token, User: user})
}

// ListUsers returns every account
func (h *AuthHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.authService.ListUsers(r.Context())
	if err != nil {
		h.respondWithServiceError(w, err, "failed to list users")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, users)
}

// GetProfile returns one account
func (h *AuthHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	user, err := h.authService.GetProfile(r.Context(), userID)
	if err != nil {
		h.respondWithServiceError(w, err, "failed to get user profile")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, user)
}

// UpdateProfile applies a partial profile update
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	var req UpdateUserRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Profile update validation failed", zap.Error(err))
		middleware.RespondWithDecodeError(w, err)
		return
	}

	user, err := h.authService.UpdateProfile(r.Context(), userID, domain.ProfileUpdate{
		Name:    req.Name,
		Email:   req.Email,
		Dept:    req.Dept,
		RollNo:  req.RollNo,
		Age:     req.Age,
		Phone:   req.Phone,
		Address: req.Address,
	})
	if err != nil {
		h.respondWithServiceError(w, err, "failed to update user")
		return
	}

	h.logger.Info("User profile updated", zap.String("user_id", user.ID.String()))
	middleware.RespondWithJSON(w, http.StatusOK, user)
}

// MakeAdmin replaces the user's roles with admin
func (h *AuthHandler) MakeAdmin(w http.ResponseWriter, r *http.Request) {
	userID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	user, err := h.authService.Promote(r.Context(), userID)
	if err != nil {
		h.respondWithServiceError(w, err, "failed to promote user")
		return
	}

	h.logger.Info("User promoted to admin", zap.String("user_id", user.ID.String()))
	middleware.RespondWithJSON(w, http.StatusOK, PromoteResponse{Message: "User promoted to admin", User: user})
}

func (h *AuthHandler) respondWithServiceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		middleware.RespondWithError(w, http.StatusUnauthorized, "invalid email or password")
	case errors.Is(err, repository.ErrUserAlreadyExists):
		middleware.RespondWithError(w, http.StatusConflict, "user with this email already exists")
	case errors.Is(err, repository.ErrUserNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, "user not found")
	default:
		h.logger.Error(fallback, zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, fallback)
	}
}
