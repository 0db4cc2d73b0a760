// Package httpapi exposes the HTTP API layer of the service.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fairyhunter13/order-fulfillment-service/internal/model"
)

// jsonError represents a JSON error payload.
type jsonError struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// WriteJSONError writes a JSON error payload with the given status code.
func WriteJSONError(w http.ResponseWriter, status int, message, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(jsonError{Error: message, Details: details})
}

// WriteDomainError maps a typed domain failure onto its HTTP
// representation. Unrecognized errors are storage failures.
func WriteDomainError(w http.ResponseWriter, err error) {
	var (
		ve *model.ValidationError
		qe *model.InvalidQuantityError
		nf *model.ProductNotFoundError
		is *model.InsufficientStockError
		cm *model.ConcurrentModificationError
	)
	switch {
	case errors.As(err, &ve):
		WriteJSONError(w, http.StatusBadRequest, "validation_error", ve.Error())
	case errors.Is(err, model.ErrEmptyOrder):
		WriteJSONError(w, http.StatusBadRequest, "empty_order", err.Error())
	case errors.As(err, &qe):
		WriteJSONError(w, http.StatusBadRequest, "invalid_quantity", qe.Error())
	case errors.As(err, &nf):
		WriteJSONError(w, http.StatusNotFound, "product_not_found", nf.Error())
	case errors.As(err, &is):
		WriteJSONError(w, http.StatusConflict, "insufficient_stock", is.Error())
	case errors.As(err, &cm):
		WriteJSONError(w, http.StatusConflict, "concurrent_modification", cm.Error())
	default:
		WriteJSONError(w, http.StatusInternalServerError, "storage_error", err.Error())
	}
}
