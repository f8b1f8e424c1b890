package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Input Validation (PAY) ----

// ErrInvalidPhoneNumber indicates the payer phone failed the MSISDN shape
// check after normalization.
func ErrInvalidPhoneNumber(raw string) *AppError {
	return New("PAY_010", fmt.Sprintf("Invalid phone number %q: must normalize to 254 followed by 9 digits", raw), http.StatusBadRequest)
}

// ErrInvalidAmount indicates a non-positive charge amount.
func ErrInvalidAmount() *AppError {
	return New("PAY_011", "Amount must be a positive number of whole shillings", http.StatusBadRequest)
}

func ErrAttemptNotFound() *AppError {
	return New("PAY_012", "Payment attempt not found", http.StatusNotFound)
}

// ---- Gateway (GW) ----

// ErrAuthentication indicates the token exchange with the gateway failed,
// either at the network level or with a non-2xx status. The raw gateway
// diagnostic travels in the wrapped error, never in the client message.
func ErrAuthentication(err error) *AppError {
	return Wrap("GW_001", "Could not authenticate with the payment provider", http.StatusBadGateway, err)
}

// ErrSubmission indicates the charge POST failed at the transport/HTTP level.
// Distinct from ErrGatewayRejected: the push never reached processing.
func ErrSubmission(err error) *AppError {
	return Wrap("GW_002", "Could not reach the payment provider", http.StatusBadGateway, err)
}

// ErrGatewayRejected indicates the gateway answered 2xx but its embedded
// response code declined the charge. Carries the gateway's own code and
// message so the caller can surface them.
func ErrGatewayRejected(code, message string) *AppError {
	return New("GW_003", fmt.Sprintf("Payment provider declined the request (code %s): %s", code, message), http.StatusUnprocessableEntity)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

func ErrDatabaseError(err error) *AppError {
	return Wrap("SYS_001", "Internal database error", http.StatusInternalServerError, err)
}

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

// Validation returns a request-binding validation error.
func Validation(message string) *AppError {
	return New("PAY_013", message, http.StatusBadRequest)
}
