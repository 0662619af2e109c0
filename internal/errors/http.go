package errors

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
)

// MapHTTPStatus maps a non-2xx backend response to an AppError.
// message is the backend's own error text; when empty a generic message is used.
//
//   - 400, 422 → Validation
//   - 401      → Unauthorized
//   - 403      → Forbidden
//   - 404      → NotFound
//   - 409      → Conflict
//   - 429      → RateLimited
//   - other    → Validation for 4xx, Internal for 5xx
func MapHTTPStatus(status int, message string) *AppError {
	msg := strings.TrimSpace(message)
	if msg == "" {
		msg = http.StatusText(status)
	}
	if msg == "" {
		msg = "Unexpected response from server."
	}

	return &AppError{
		Code:    codeForStatus(status),
		Message: msg,
		Status:  status,
	}
}

func codeForStatus(status int) ErrorCode {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return ErrCodeValidation
	case http.StatusUnauthorized:
		return ErrCodeUnauthorized
	case http.StatusForbidden:
		return ErrCodeForbidden
	case http.StatusNotFound:
		return ErrCodeNotFound
	case http.StatusConflict:
		return ErrCodeConflict
	case http.StatusTooManyRequests:
		return ErrCodeRateLimited
	}
	if status >= 400 && status < 500 {
		return ErrCodeValidation
	}
	return ErrCodeInternal
}

// MapTransportError maps an error returned by http.Client.Do to an AppError.
// Context timeouts/cancellations are checked first, then network timeouts.
// Everything else is a Transport error. A nil error maps to nil.
func MapTransportError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &AppError{
			Code:    ErrCodeTimeout,
			Message: "Request timed out. Please try again.",
			Cause:   err,
		}
	}
	if errors.Is(err, context.Canceled) {
		return &AppError{
			Code:    ErrCodeCanceled,
			Message: "Request was canceled.",
			Cause:   err,
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &AppError{
			Code:    ErrCodeTimeout,
			Message: "Request timed out. Please try again.",
			Cause:   err,
		}
	}

	return &AppError{
		Code:    ErrCodeTransport,
		Message: "Unable to reach the server.",
		Cause:   err,
	}
}
