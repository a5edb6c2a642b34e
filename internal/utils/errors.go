package utils

import (
	"errors"
	"net/http"
)

// Error taxonomy shared by repositories, services and handlers. Wrap with
// fmt.Errorf("%w: ...", ErrX) and test with errors.Is.
var (
	ErrUnauthorized      = errors.New("unauthorized")
	ErrNotFound          = errors.New("not found")
	ErrSignatureMismatch = errors.New("signature mismatch")
	ErrStorage           = errors.New("storage unavailable")
	ErrProvider          = errors.New("payment provider unavailable")
	ErrValidation        = errors.New("validation failed")
	ErrAlreadyPaid       = errors.New("payment already verified")
	ErrInvalidTransition = errors.New("invalid payment status transition")
	ErrDuplicateReceipt  = errors.New("receipt already used")
)

// ErrorCode maps an error to its HTTP status and the taxonomy label sent to
// clients. Unknown errors become INTERNAL_ERROR so driver text never leaks.
func ErrorCode(err error) (int, string, string) {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest, "VALIDATION_ERROR", MsgValidationFailed
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, "AUTH_ERROR", MsgUnauthorized
	case errors.Is(err, ErrSignatureMismatch):
		return http.StatusBadRequest, "SIGNATURE_MISMATCH", MsgSignatureMismatch
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND", MsgNotFound
	case errors.Is(err, ErrDuplicateReceipt):
		return http.StatusConflict, "CONFLICT", "receipt already used"
	case errors.Is(err, ErrProvider):
		return http.StatusBadGateway, "PROVIDER_ERROR", MsgProviderFailed
	case errors.Is(err, ErrStorage):
		return http.StatusServiceUnavailable, "STORAGE_ERROR", MsgStorageUnavailable
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", MsgInternalServer
	}
}
