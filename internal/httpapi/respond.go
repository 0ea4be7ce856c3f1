package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vladislavdragonenkov/shopadmin/internal/domain"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

var validationErrors = []error{
	domain.ErrCustomerRequired,
	domain.ErrItemsRequired,
	domain.ErrItemQtyInvalid,
	domain.ErrProductIDRequired,
	domain.ErrProductNameRequired,
	domain.ErrQuantityNegative,
	domain.ErrMovementKindInvalid,
	domain.ErrMovementQtyInvalid,
	domain.ErrAdjustmentDirection,
}

// writeDomainError переводит доменные ошибки в HTTP-статусы:
// 422 — недопустимый переход, 409 — конфликт или нехватка остатка,
// 404 — агрегат не найден, 400 — ошибки валидации входа.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidTransition):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrAlreadyExists),
		errors.Is(err, domain.ErrInsufficientStock),
		domain.IsConflict(err):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case domain.IsNotFound(err):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case isValidationError(err):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func isValidationError(err error) bool {
	for _, candidate := range validationErrors {
		if errors.Is(err, candidate) {
			return true
		}
	}
	return false
}
