// internal/app/features/shared/respond.go
package shared

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/dalemusser/topichub/internal/domain/apperror"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20 // 1 MiB JSON bodies

// JSON writes v as a JSON response with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Error writes a JSON error body with the given status.
func Error(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, map[string]string{"error": msg})
}

// AppError maps the domain error taxonomy onto HTTP statuses. Unknown
// errors are logged and reported as a generic 500 so internals never
// leak to clients.
func AppError(w http.ResponseWriter, log *zap.Logger, err error) {
	switch {
	case errors.Is(err, apperror.ErrUnauthenticated):
		Error(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, apperror.ErrNotFound):
		Error(w, http.StatusNotFound, "not found")
	case errors.Is(err, apperror.ErrPermissionDenied):
		Error(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, apperror.ErrUpstream):
		log.Error("upstream failure", zap.Error(err))
		Error(w, http.StatusBadGateway, "upstream failure")
	default:
		log.Error("request failed", zap.Error(err))
		Error(w, http.StatusInternalServerError, "internal error")
	}
}

// Decode parses a JSON request body into dst, rejecting unknown fields
// and oversized bodies.
func Decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}
