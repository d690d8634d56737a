package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ritunjaym/vector-catalog-service/internal/monitoring"
	"github.com/ritunjaym/vector-catalog-service/internal/search"
)

// Problem is an RFC 7807 body. Every error response carries the request
// correlation id.
type Problem struct {
	Type          string `json:"type"`
	Title         string `json:"title"`
	Status        int    `json:"status"`
	Detail        string `json:"detail,omitempty"`
	CorrelationID string `json:"correlationId,omitempty"`
}

func writeProblem(w http.ResponseWriter, r *http.Request, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(Problem{
		Type:          "about:blank",
		Title:         title,
		Status:        status,
		Detail:        detail,
		CorrelationID: monitoring.CorrelationIDFromContext(r.Context()),
	})
}

// writeError maps the gateway error taxonomy onto HTTP statuses.
// Anticipated failures never surface as 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var gwErr *search.GatewayError
	if errors.As(err, &gwErr) {
		switch gwErr.Kind {
		case search.KindValidation:
			writeProblem(w, r, http.StatusBadRequest, "Bad Request", gwErr.Detail)
			return
		case search.KindRateLimited:
			writeProblem(w, r, http.StatusTooManyRequests, "Too Many Requests", gwErr.Detail)
			return
		case search.KindBackendUnavailable:
			writeProblem(w, r, http.StatusServiceUnavailable, "Service Unavailable", gwErr.Detail)
			return
		}
	}
	writeProblem(w, r, http.StatusServiceUnavailable, "Service Unavailable", "unexpected internal error")
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
