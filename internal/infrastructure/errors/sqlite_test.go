package errors

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/mattn/go-sqlite3"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected ErrorCode
	}{
		{"nil error", nil, ErrCodeUnknown},
		{"unique constraint", sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique}, ErrCodeDuplicate},
		{"not null constraint", sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintNotNull}, ErrCodeConstraint},
		{"busy", sqlite3.Error{Code: sqlite3.ErrBusy}, ErrCodeBusy},
		{"locked", sqlite3.Error{Code: sqlite3.ErrLocked}, ErrCodeBusy},
		{"corrupt", sqlite3.Error{Code: sqlite3.ErrCorrupt}, ErrCodeCorruption},
		{"readonly", sqlite3.Error{Code: sqlite3.ErrReadonly}, ErrCodePermission},
		{"disk full", sqlite3.Error{Code: sqlite3.ErrFull}, ErrCodeDiskSpace},
		{"schema", sqlite3.Error{Code: sqlite3.ErrSchema}, ErrCodeSchema},
		{"no rows", sql.ErrNoRows, ErrCodeNotFound},
		{"deadline", context.DeadlineExceeded, ErrCodeTimeout},
		{"missing table", errors.New("no such table: settings"), ErrCodeSchema},
		{"refused", errors.New("dial tcp: connection refused"), ErrCodeNetwork},
		{"already classified", NewAppError("x", nil, ErrCodeUpstream), ErrCodeUpstream},
		{"unrelated", errors.New("something odd"), ErrCodeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyError(tt.err); got != tt.expected {
				t.Errorf("ClassifyError() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestWrapDatabaseError(t *testing.T) {
	if WrapDatabaseError("op", nil) != nil {
		t.Error("Expected nil for nil error")
	}

	err := WrapDatabaseError("op", errors.New("something odd"))
	var appErr *AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("Expected *AppError, got %T", err)
	}
	if appErr.Code != ErrCodeStorage {
		t.Errorf("Expected unclassified database error to be STORAGE, got %v", appErr.Code)
	}
}

func TestWrapTransportError(t *testing.T) {
	err := WrapTransportError("fetch", "https://example.invalid", errors.New("EOF"))
	if !IsNetwork(err) {
		t.Fatalf("Expected network error, got %v", err)
	}
	if !IsRetryable(err) {
		t.Error("Expected transport error to be retryable")
	}
}
