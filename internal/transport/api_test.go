package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront/internal/domain"
	"storefront/internal/middleware"
	"storefront/internal/repository/memory"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "transport-test-secret"

type testAPI struct {
	router  chi.Router
	store   *memory.Store
	auth    service.AuthService
	catalog service.CatalogService
}

func newTestAPI(t *testing.T, policy domain.StatusPolicy) *testAPI {
	t.Helper()

	logger := zap.NewNop()
	store := memory.NewStore()

	authService := service.NewAuthService(store.Users(), testSecret, time.Hour)
	catalogService := service.NewCatalogService(store.Categories(), store.Products())
	cartService := service.NewCartService(store.Carts(), store.Products())
	orderService := service.NewOrderService(store.Orders(), store.Users(), store.Products(), policy)

	authMiddleware := middleware.AuthMiddleware(authService, logger)

	router := chi.NewRouter()
	NewAuthHandler(authService, logger).RegisterRoutes(router, authMiddleware, nil)
	NewCategoryHandler(catalogService, logger).RegisterRoutes(router, authMiddleware)
	NewProductHandler(catalogService, logger).RegisterRoutes(router, authMiddleware)
	NewCartHandler(cartService, logger).RegisterRoutes(router, authMiddleware)
	NewOrderHandler(orderService, logger).RegisterRoutes(router, authMiddleware)

	return &testAPI{router: router, store: store, auth: authService, catalog: catalogService}
}

// do sends a JSON request and returns the recorded response
func (a *testAPI) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func signUpBody(email string) map[string]interface{} {
	return map[string]interface{}{
		"name":     "Alice",
		"email":    email,
		"password": "secret123",
		"dept":     "CSE",
		"rollno":   "42",
		"age":      "21",
		"phno":     "5550100",
		"address":  "1 Main St",
	}
}

// account registers email through the API and logs in. Admin accounts are
// promoted before logging in so the token carries the admin role.
func (a *testAPI) account(t *testing.T, email string, admin bool) (string, *domain.User) {
	t.Helper()

	w := a.do(t, http.MethodPost, "/auth/sign-up", "", signUpBody(email))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	if admin {
		user, err := a.store.Users().FindByEmail(context.Background(), email)
		require.NoError(t, err)
		_, err = a.auth.Promote(context.Background(), user.ID)
		require.NoError(t, err)
	}

	w = a.do(t, http.MethodPost, "/auth/login", "", map[string]string{"email": email, "password": "secret123"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp LoginResponse
	decode(t, w, &resp)
	return resp.Token, resp.User
}

func (a *testAPI) product(t *testing.T, name string, price float64) *domain.Product {
	t.Helper()
	ctx := context.Background()

	categories, err := a.catalog.ListCategories(ctx)
	require.NoError(t, err)

	var category *domain.Category
	if len(categories) > 0 {
		category = categories[0]
	} else {
		category, err = a.catalog.CreateCategory(ctx, service.CategoryInput{Name: "General", Description: "Everything"})
		require.NoError(t, err)
	}

	product, err := a.catalog.CreateProduct(ctx, service.ProductInput{
		Name:       name,
		Price:      price,
		CategoryID: category.ID,
		Image:      name + ".png",
		Stock:      100,
	})
	require.NoError(t, err)
	return product
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp middleware.ErrorResponse
	decode(t, w, &resp)
	return resp.Error.Message
}
