package transport

import (
	"net/http"
	"strconv"

	"storefront/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// uuidParam parses the URL parameter name, answering 400 when it is not a UUID
func uuidParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// intQuery reads an optional integer query parameter
func intQuery(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return n, true
}
