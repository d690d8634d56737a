package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/ritunjaym/vector-catalog-service/internal/monitoring"
)

// HeaderCorrelationID is propagated in both directions; the gateway
// synthesizes one when the client did not supply it.
const HeaderCorrelationID = "X-Correlation-ID"

// CorrelationID reads or synthesizes the correlation id, echoes it on the
// response, and binds it to the request context for logs and spans.
func CorrelationID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(HeaderCorrelationID)
		if id == "" {
			id = NewCorrelationID()
		}
		w.Header().Set(HeaderCorrelationID, id)
		ctx := monitoring.ContextWithCorrelationID(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// NewCorrelationID returns 16 hex characters from a fresh random UUID.
func NewCorrelationID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
}
