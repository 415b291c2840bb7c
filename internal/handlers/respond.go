// internal/handlers/respond.go
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ammerola/fieldservice-be/internal/core/domain"
)

// maxJSONBody caps request bodies decoded by decodeJSON
const maxJSONBody = 1 << 20

// ErrorResponse is the body of every non-2xx JSON response
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type responder struct {
	logger *slog.Logger
}

func (h responder) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode JSON response",
			slog.String("error", err.Error()))
	}
}

func (h responder) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, ErrorResponse{Error: message})
}

func (h responder) respondErrorDetails(w http.ResponseWriter, status int, message string, err error) {
	h.respondJSON(w, status, ErrorResponse{Error: message, Details: err.Error()})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// isInputError reports whether err was caused by the caller's data rather
// than by the server.
func isInputError(err error) bool {
	for _, target := range []error{
		domain.ErrInvalidLineItem,
		domain.ErrUnknownLineItemType,
		domain.ErrNegativeAmount,
		domain.ErrUnknownDiscountType,
		domain.ErrUnknownTier,
		domain.ErrDiscountExceedsSubtotal,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
