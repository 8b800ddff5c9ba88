package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// ErrorCode classifies application errors
type ErrorCode int

const (
	ErrCodeUnknown ErrorCode = iota
	ErrCodeSetup
	ErrCodePlugin
	ErrCodeRun
	ErrCodeNetwork
	ErrCodeUpstream
	ErrCodeNotFound
	ErrCodeValidation
	ErrCodeConnection
	ErrCodeTimeout
	ErrCodeBusy
	ErrCodeStorage
	ErrCodeSchema
	ErrCodeCorruption
	ErrCodePermission
	ErrCodeDiskSpace
	ErrCodeDuplicate
	ErrCodeConstraint
)

// String returns a string representation of the error code
func (e ErrorCode) String() string {
	switch e {
	case ErrCodeSetup:
		return "SETUP"
	case ErrCodePlugin:
		return "PLUGIN"
	case ErrCodeRun:
		return "RUN"
	case ErrCodeNetwork:
		return "NETWORK"
	case ErrCodeUpstream:
		return "UPSTREAM"
	case ErrCodeNotFound:
		return "NOT_FOUND"
	case ErrCodeValidation:
		return "VALIDATION"
	case ErrCodeConnection:
		return "CONNECTION"
	case ErrCodeTimeout:
		return "TIMEOUT"
	case ErrCodeBusy:
		return "BUSY"
	case ErrCodeStorage:
		return "STORAGE"
	case ErrCodeSchema:
		return "SCHEMA"
	case ErrCodeCorruption:
		return "CORRUPTION"
	case ErrCodePermission:
		return "PERMISSION"
	case ErrCodeDiskSpace:
		return "DISK_SPACE"
	case ErrCodeDuplicate:
		return "DUPLICATE"
	case ErrCodeConstraint:
		return "CONSTRAINT"
	default:
		return "UNKNOWN"
	}
}

// AppError is a classified error carrying the failed operation and its context
type AppError struct {
	Op        string            // operation name
	Err       error             // underlying error
	Code      ErrorCode         // error classification
	Retryable bool              // whether the operation may be retried
	Fatal     bool              // whether the process must terminate
	Context   map[string]string // additional context information
	Timestamp time.Time         // when the error occurred
}

func (e *AppError) Error() string {
	if e == nil {
		return "application error"
	}

	var parts []string

	if e.Op != "" {
		parts = append(parts, fmt.Sprintf("op=%s", e.Op))
	}

	if e.Code != ErrCodeUnknown {
		parts = append(parts, fmt.Sprintf("code=%s", e.Code.String()))
	}

	if e.Retryable {
		parts = append(parts, "retryable=true")
	}

	if e.Fatal {
		parts = append(parts, "fatal=true")
	}

	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%s", k, e.Context[k]))
		}
	}

	contextStr := ""
	if len(parts) > 0 {
		contextStr = fmt.Sprintf(" [%s]", strings.Join(parts, " "))
	}

	if e.Err != nil {
		return e.Err.Error() + contextStr
	}
	return "application error" + contextStr
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches another *AppError by code, otherwise the wrapped error
func (e *AppError) Is(target error) bool {
	if e == nil {
		return false
	}
	if t, ok := target.(*AppError); ok {
		return e.Code == t.Code
	}
	if e.Err != nil {
		return errors.Is(e.Err, target)
	}
	return false
}

// IsRetryable returns whether the error is retryable
func (e *AppError) IsRetryable() bool {
	if e == nil {
		return false
	}
	return e.Retryable
}

// GetCode returns the error code as a string (for logging interface compatibility)
func (e *AppError) GetCode() string {
	if e == nil {
		return ErrCodeUnknown.String()
	}
	return e.Code.String()
}

// GetContext returns the error context (for logging interface compatibility)
func (e *AppError) GetContext() map[string]string {
	if e == nil || e.Context == nil {
		return make(map[string]string)
	}
	return e.Context
}

// GetTimestamp returns the error timestamp (for logging interface compatibility)
func (e *AppError) GetTimestamp() time.Time {
	if e == nil {
		return time.Time{}
	}
	return e.Timestamp
}

// WithContext adds a context entry by mutating the receiver.
// Not safe once the error has been handed to another goroutine.
func (e *AppError) WithContext(key, value string) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]string)
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(op string, err error, code ErrorCode) *AppError {
	return &AppError{
		Op:        op,
		Err:       err,
		Code:      code,
		Retryable: isRetryableError(code, err),
		Fatal:     isFatalCode(code),
		Context:   make(map[string]string),
		Timestamp: time.Now(),
	}
}

// NewAppErrorWithContext creates a new application error with a copy of context
func NewAppErrorWithContext(op string, err error, code ErrorCode, context map[string]string) *AppError {
	appErr := NewAppError(op, err, code)
	if context != nil {
		appErr.Context = make(map[string]string, len(context))
		for k, v := range context {
			appErr.Context[k] = v
		}
	}
	return appErr
}

// isFatalCode reports whether errors of this code abort startup
func isFatalCode(code ErrorCode) bool {
	switch code {
	case ErrCodeSetup, ErrCodePlugin, ErrCodeRun:
		return true
	default:
		return false
	}
}

// isRetryableError determines if an error is retryable based on its code
func isRetryableError(code ErrorCode, err error) bool {
	switch code {
	case ErrCodeNetwork, ErrCodeTimeout, ErrCodeConnection, ErrCodeBusy:
		return true
	case ErrCodeUnknown:
		if err != nil {
			errStr := strings.ToLower(err.Error())
			return strings.Contains(errStr, "temporary") ||
				strings.Contains(errStr, "retry") ||
				strings.Contains(errStr, "busy") ||
				strings.Contains(errStr, "locked")
		}
		return false
	default:
		return false
	}
}

func hasCode(err error, code ErrorCode) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// IsNotFound checks if the error is a "not found" error
func IsNotFound(err error) bool { return hasCode(err, ErrCodeNotFound) }

// IsValidation checks if the error is a validation error
func IsValidation(err error) bool { return hasCode(err, ErrCodeValidation) }

// IsNetwork checks if the error is a transport failure
func IsNetwork(err error) bool { return hasCode(err, ErrCodeNetwork) }

// IsUpstream checks if a remote API rejected the request
func IsUpstream(err error) bool { return hasCode(err, ErrCodeUpstream) }

// IsTimeout checks if the error is a timeout error
func IsTimeout(err error) bool { return hasCode(err, ErrCodeTimeout) }

// IsConnection checks if the error is a connection error
func IsConnection(err error) bool { return hasCode(err, ErrCodeConnection) }

// IsBusy checks if the error is a busy/locked error
func IsBusy(err error) bool { return hasCode(err, ErrCodeBusy) }

// IsDuplicate checks if the error is a uniqueness violation
func IsDuplicate(err error) bool { return hasCode(err, ErrCodeDuplicate) }

// IsSchema checks if the error is a schema error
func IsSchema(err error) bool { return hasCode(err, ErrCodeSchema) }

// IsRetryable checks if the error is retryable
func IsRetryable(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Retryable
	}
	return false
}

// IsFatal checks if the error must terminate the process
func IsFatal(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Fatal
	}
	return false
}
