package errors

import (
	"errors"
	"net/http"
)

// Sentinel errors identifying the store/adapter/engine failure kinds
// named in the error handling design.
var (
	ErrNotFound                   = errors.New("resource not found")
	ErrInvalidInput               = errors.New("invalid input")
	ErrDuplicateIdempotencyKey    = errors.New("duplicate idempotency key")
	ErrDuplicateOrderCode         = errors.New("duplicate order code")
	ErrPaymentNotFound            = errors.New("payment not found")
	ErrProviderVerificationFailed = errors.New("provider callback verification failed")
	ErrProviderUnavailable        = errors.New("provider unavailable")
	ErrProviderRejected           = errors.New("provider rejected request")
	ErrMalformedPayload           = errors.New("malformed provider payload")
	ErrStateTransitionConflict    = errors.New("state transition conflict")
	ErrUnsupportedProvider        = errors.New("unsupported provider")
	ErrBusPublishFailed           = errors.New("bus publish failed")
	ErrExhausted                  = errors.New("retry budget exhausted")
)

// AppError carries an HTTP status, a business code and a wrapped cause.
type AppError struct {
	Status  int    `json:"-"`
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(status, code int, message string, err error) *AppError {
	return &AppError{Status: status, Code: code, Message: message, Err: err}
}

// Business codes from spec.md §4.7.
const (
	CodePaymentNotFound = 20000
	CodeForbidden       = 20403
)

func NotFound(message string) *AppError {
	return NewAppError(http.StatusNotFound, CodePaymentNotFound, message, ErrPaymentNotFound)
}

func ValidationError(message string) *AppError {
	return NewAppError(http.StatusBadRequest, http.StatusBadRequest, message, ErrInvalidInput)
}

func Forbidden(message string) *AppError {
	return NewAppError(http.StatusForbidden, CodeForbidden, message, nil)
}

func InternalError(err error) *AppError {
	return NewAppError(http.StatusInternalServerError, http.StatusInternalServerError, "internal error", err)
}

// AsAppError unwraps err into an *AppError, falling back to InternalError
// when err carries no business classification.
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return InternalError(err)
}
