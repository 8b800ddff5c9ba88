package errors

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"strings"
)

// ClassifyError maps storage and transport errors to application error codes
func ClassifyError(err error) ErrorCode {
	if err == nil {
		return ErrCodeUnknown
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}

	if code := classifySQLiteError(err); code != ErrCodeUnknown {
		return code
	}

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return ErrCodeNotFound
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return ErrCodeTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return ErrCodeTimeout
		}
		return ErrCodeNetwork
	}

	errStr := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errStr, "unique constraint"):
		return ErrCodeDuplicate
	case strings.Contains(errStr, "constraint"):
		return ErrCodeConstraint
	case strings.Contains(errStr, "database is locked"):
		return ErrCodeBusy
	case strings.Contains(errStr, "database disk image is malformed"):
		return ErrCodeCorruption
	case strings.Contains(errStr, "no such table"), strings.Contains(errStr, "no such column"):
		return ErrCodeSchema
	case strings.Contains(errStr, "permission denied"):
		return ErrCodePermission
	case strings.Contains(errStr, "no space left"):
		return ErrCodeDiskSpace
	case strings.Contains(errStr, "connection refused"), strings.Contains(errStr, "connection reset"):
		return ErrCodeNetwork
	case strings.Contains(errStr, "timeout"):
		return ErrCodeTimeout
	default:
		return ErrCodeUnknown
	}
}

// WrapDatabaseError wraps a database error as a classified application error
func WrapDatabaseError(op string, err error) error {
	if err == nil {
		return nil
	}
	code := ClassifyError(err)
	if code == ErrCodeUnknown {
		code = ErrCodeStorage
	}
	return NewAppError(op, err, code)
}

// WrapDatabaseErrorWithContext is WrapDatabaseError with additional context
func WrapDatabaseErrorWithContext(op string, err error, contextMap map[string]string) error {
	if err == nil {
		return nil
	}
	code := ClassifyError(err)
	if code == ErrCodeUnknown {
		code = ErrCodeStorage
	}
	return NewAppErrorWithContext(op, err, code, contextMap)
}

// WrapTransportError wraps an HTTP transport failure. Unclassified failures
// are treated as network errors so that they are retried.
func WrapTransportError(op string, url string, err error) error {
	if err == nil {
		return nil
	}
	code := ClassifyError(err)
	if code == ErrCodeUnknown {
		code = ErrCodeNetwork
	}
	return NewAppErrorWithContext(op, err, code, map[string]string{"url": url})
}

// HandleUpstreamError creates an error for a remote API that answered with a failure code
func HandleUpstreamError(op string, apiCode int, message string) error {
	if message == "" {
		message = "request rejected"
	}
	return NewAppErrorWithContext(op, errors.New(message), ErrCodeUpstream, map[string]string{
		"api_code": fmt.Sprintf("%d", apiCode),
	})
}

// HandleNotFound creates a standardized not found error
func HandleNotFound(op string, resource string, identifier string) error {
	return NewAppErrorWithContext(op, sql.ErrNoRows, ErrCodeNotFound, map[string]string{
		"resource":   resource,
		"identifier": identifier,
	})
}

// HandleValidationError creates a standardized validation error
func HandleValidationError(op string, field string, value string, reason string) error {
	return NewAppErrorWithContext(op, errors.New("validation failed"), ErrCodeValidation, map[string]string{
		"field":  field,
		"value":  value,
		"reason": reason,
	})
}

// HandleConnectionError creates a standardized connection error
func HandleConnectionError(op string, details string) error {
	return NewAppErrorWithContext(op, errors.New("connection error"), ErrCodeConnection, map[string]string{
		"details": details,
	})
}

// HandleSetupError creates a fatal startup error
func HandleSetupError(op string, err error) *AppError {
	return NewAppError(op, err, ErrCodeSetup)
}
