package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type addItemRequest struct {
	UserID    string `json:"userId" validate:"required,uuid"`
	ProductID string `json:"productId" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"gte=1"`
}

const (
	testUserID    = "1b0f4f0e-6a52-4c8e-9c7c-3a8e8e0a1f10"
	testProductID = "5a7d1c2b-93e4-4f6a-8b0d-2c1e9f8a7b6c"
)

func newJSONRequest(t *testing.T, body interface{}) *http.Request {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/cart", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestProperty_RequiredFieldValidationWorks(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("a request missing any required field is rejected", prop.ForAll(
		func(includeUser, includeProduct, includeQuantity bool) bool {
			body := map[string]interface{}{}
			if includeUser {
				body["userId"] = testUserID
			}
			if includeProduct {
				body["productId"] = testProductID
			}
			if includeQuantity {
				body["quantity"] = 2
			}

			var req addItemRequest
			err := DecodeAndValidate(newJSONRequest(t, body), &req)

			if includeUser && includeProduct && includeQuantity {
				return err == nil
			}
			return err != nil
		},
		gen.Bool(),
		gen.Bool(),
		gen.Bool(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestProperty_QuantityLowerBound(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("quantities below one are rejected", prop.ForAll(
		func(quantity int) bool {
			var req addItemRequest
			err := DecodeAndValidate(newJSONRequest(t, map[string]interface{}{
				"userId":    testUserID,
				"productId": testProductID,
				"quantity":  quantity,
			}), &req)

			if quantity >= 1 {
				return err == nil
			}
			return err != nil
		},
		gen.IntRange(-50, 50),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestFormatValidationErrorsUsesJSONNames(t *testing.T) {
	var req addItemRequest
	err := DecodeAndValidate(newJSONRequest(t, map[string]interface{}{
		"userId":    "not-a-uuid",
		"productId": testProductID,
		"quantity":  0,
	}), &req)
	require.Error(t, err)

	fields := map[string]string{}
	for _, ve := range FormatValidationErrors(err) {
		fields[ve.Field] = ve.Message
	}

	assert.Equal(t, "Must be a valid UUID", fields["userId"])
	assert.Equal(t, "Value must be greater than or equal to 1", fields["quantity"])
	assert.NotContains(t, fields, "productId")
}

func TestDecodeAndValidateRejectsMalformedBodies(t *testing.T) {
	var req addItemRequest

	err := DecodeAndValidate(httptest.NewRequest(http.MethodPost, "/cart", strings.NewReader("{")), &req)
	require.Error(t, err)
	assert.Empty(t, FormatValidationErrors(err))

	err = DecodeAndValidate(httptest.NewRequest(http.MethodPost, "/cart", http.NoBody), &req)
	assert.ErrorIs(t, err, ErrEmptyBody)
}

func TestRespondWithDecodeError(t *testing.T) {
	var req addItemRequest
	err := DecodeAndValidate(newJSONRequest(t, map[string]interface{}{"quantity": 1}), &req)

	w := httptest.NewRecorder()
	RespondWithDecodeError(w, err)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "validationErrors")

	w = httptest.NewRecorder()
	RespondWithDecodeError(w, ErrEmptyBody)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid request body")
}
