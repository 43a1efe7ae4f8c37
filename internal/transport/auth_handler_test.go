package transport

import (
	"net/http"
	"strings"
	"testing"

	"storefront/internal/domain"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProperty_InvalidSignUpDataIsRejected(t *testing.T) {
	api := newTestAPI(t, domain.StatusPolicyPermissive)

	properties := gopter.NewProperties(nil)

	properties.Property("sign-up with a missing or malformed field returns 400", prop.ForAll(
		func(field string, malformed bool) bool {
			body := signUpBody("someone@example.com")
			switch {
			case field == "email" && malformed:
				body["email"] = "not-an-email"
			case field == "password" && malformed:
				body["password"] = "short"
			default:
				delete(body, field)
			}

			w := api.do(t, http.MethodPost, "/auth/sign-up", "", body)
			if w.Code != http.StatusBadRequest {
				t.Logf("expected 400 for %s (malformed=%v), got %d", field, malformed, w.Code)
				return false
			}
			return strings.Contains(w.Body.String(), `"error"`)
		},
		gen.OneConstOf("name", "email", "password", "dept", "rollno", "age", "phno", "address"),
		gen.Bool(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestSignUpAndLogin(t *testing.T) {
	api := newTestAPI(t, domain.StatusPolicyPermissive)

	w := api.do(t, http.MethodPost, "/auth/sign-up", "", signUpBody("alice@example.com"))
	require.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"message":"Registered successfully"}`, w.Body.String())

	w = api.do(t, http.MethodPost, "/auth/sign-up", "", signUpBody("alice@example.com"))
	assert.Equal(t, http.StatusConflict, w.Code)

	w = api.do(t, http.MethodPost, "/auth/login", "", map[string]string{"email": "alice@example.com", "password": "secret123"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "password")

	var resp LoginResponse
	decode(t, w, &resp)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, []string{domain.RoleUser}, resp.User.Roles)
	assert.Equal(t, "1 Main St", resp.User.Address)

	wrongPassword := api.do(t, http.MethodPost, "/auth/login", "", map[string]string{"email": "alice@example.com", "password": "nope"})
	unknownEmail := api.do(t, http.MethodPost, "/auth/login", "", map[string]string{"email": "bob@example.com", "password": "secret123"})

	assert.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
	assert.Equal(t, http.StatusUnauthorized, unknownEmail.Code)
	assert.Equal(t, errorMessage(t, wrongPassword), errorMessage(t, unknownEmail))
}

func TestProfileRoutesEnforceOwnership(t *testing.T) {
	api := newTestAPI(t, domain.StatusPolicyPermissive)
	aliceToken, alice := api.account(t, "alice@example.com", false)
	_, bob := api.account(t, "bob@example.com", false)
	adminToken, _ := api.account(t, "admin@example.com", true)

	assert.Equal(t, http.StatusUnauthorized, api.do(t, http.MethodGet, "/auth/getProfile/"+alice.ID.String(), "", nil).Code)
	assert.Equal(t, http.StatusOK, api.do(t, http.MethodGet, "/auth/getProfile/"+alice.ID.String(), aliceToken, nil).Code)
	assert.Equal(t, http.StatusForbidden, api.do(t, http.MethodGet, "/auth/getProfile/"+bob.ID.String(), aliceToken, nil).Code)
	assert.Equal(t, http.StatusOK, api.do(t, http.MethodGet, "/auth/getProfile/"+bob.ID.String(), adminToken, nil).Code)
	assert.Equal(t, http.StatusNotFound, api.do(t, http.MethodGet, "/auth/getProfile/"+uuid.NewString(), adminToken, nil).Code)

	assert.Equal(t, http.StatusForbidden, api.do(t, http.MethodGet, "/auth/getUser", aliceToken, nil).Code)

	w := api.do(t, http.MethodGet, "/auth/getUser", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var users []domain.User
	decode(t, w, &users)
	assert.Len(t, users, 3)
}

func TestUpdateProfile(t *testing.T) {
	api := newTestAPI(t, domain.StatusPolicyPermissive)
	aliceToken, alice := api.account(t, "alice@example.com", false)
	_, bob := api.account(t, "bob@example.com", false)

	w := api.do(t, http.MethodPut, "/auth/"+alice.ID.String(), aliceToken, map[string]interface{}{
		"address": "2 Side St",
		"roles":   []string{"admin"},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var updated domain.User
	decode(t, w, &updated)
	assert.Equal(t, "2 Side St", updated.Address)
	assert.Equal(t, "Alice", updated.Name)
	assert.Equal(t, []string{domain.RoleUser}, updated.Roles)

	w = api.do(t, http.MethodPut, "/auth/"+alice.ID.String(), aliceToken, map[string]string{"email": bob.Email})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = api.do(t, http.MethodPut, "/auth/"+alice.ID.String(), aliceToken, map[string]string{"email": "broken"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(t, http.MethodPut, "/auth/"+bob.ID.String(), aliceToken, map[string]string{"name": "Mallory"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestMakeAdmin(t *testing.T) {
	api := newTestAPI(t, domain.StatusPolicyPermissive)
	aliceToken, alice := api.account(t, "alice@example.com", false)
	adminToken, _ := api.account(t, "admin@example.com", true)

	path := "/auth/" + alice.ID.String() + "/make-admin"
	assert.Equal(t, http.StatusForbidden, api.do(t, http.MethodPatch, path, aliceToken, nil).Code)

	w := api.do(t, http.MethodPatch, path, adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp PromoteResponse
	decode(t, w, &resp)
	assert.Equal(t, []string{domain.RoleAdmin}, resp.User.Roles)

	w = api.do(t, http.MethodPatch, "/auth/"+uuid.NewString()+"/make-admin", adminToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
