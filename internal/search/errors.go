package search

import "fmt"

// ErrorKind classifies gateway failures for the HTTP surface. Kinds, not
// type names: the mapping to status codes lives in the API layer.
type ErrorKind string

const (
	KindValidation         ErrorKind = "validation-error"
	KindRateLimited        ErrorKind = "rate-limited"
	KindBackendUnavailable ErrorKind = "backend-unavailable"
	KindInternal           ErrorKind = "internal-error"
)

// GatewayError carries an error kind and a client-safe detail message.
type GatewayError struct {
	Kind   ErrorKind
	Detail string
	Err    error
}

func (e *GatewayError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

func validationError(detail string) *GatewayError {
	return &GatewayError{Kind: KindValidation, Detail: detail}
}

func backendUnavailable(detail string, err error) *GatewayError {
	return &GatewayError{Kind: KindBackendUnavailable, Detail: detail, Err: err}
}
