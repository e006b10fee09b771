package errors_test

import (
	"errors"
	"fmt"
	"testing"

	. "github.com/kuntalKnight/cpftw-problems-service/pkg/errors"
)

func TestErrorCode_Message(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want string
	}{
		{Success, "Success"},
		{ProblemNotFound, "Problem not found"},
		{InvalidParams, "Invalid parameters"},
		{DatabaseError, "Database operation failed"},
		{ErrorCode(99999), "Unknown error"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.code.Message(); got != tt.want {
				t.Errorf("Message() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestErrorCode_HTTPStatusAndName(t *testing.T) {
	tests := []struct {
		code       ErrorCode
		wantStatus int
		wantName   string
	}{
		{Success, 200, "SUCCESS"},
		{InvalidParams, 400, "VALIDATION_ERROR"},
		{ValidationFailed, 400, "VALIDATION_ERROR"},
		{Unauthorized, 401, "UNAUTHORIZED"},
		{TokenInvalid, 401, "INVALID_TOKEN"},
		{Forbidden, 403, "FORBIDDEN"},
		{ProblemNotFound, 404, "NOT_FOUND"},
		{ProblemAlreadyExists, 409, "CONFLICT"},
		{PayloadTooLarge, 413, "PAYLOAD_TOO_LARGE"},
		{TooManyRequests, 429, "RATE_LIMIT_EXCEEDED"},
		{ServiceUnavailable, 503, "SERVICE_UNAVAILABLE"},
		{DatabaseError, 500, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.code.Message(), func(t *testing.T) {
			if got := tt.code.HTTPStatus(); got != tt.wantStatus {
				t.Errorf("HTTPStatus() = %v, want %v", got, tt.wantStatus)
			}
			if got := tt.code.Name(); got != tt.wantName {
				t.Errorf("Name() = %v, want %v", got, tt.wantName)
			}
		})
	}
}

func TestNew(t *testing.T) {
	err := New(ProblemNotFound)

	if err.Code != ProblemNotFound {
		t.Errorf("Code = %v, want %v", err.Code, ProblemNotFound)
	}
	if err.Error() != ProblemNotFound.Message() {
		t.Errorf("Error() = %v, want %v", err.Error(), ProblemNotFound.Message())
	}
}

func TestNewf(t *testing.T) {
	err := Newf(ProblemNotFound, "problem %d not found", 42)

	want := "problem 42 not found"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}
}

func TestWrap(t *testing.T) {
	originalErr := errors.New("connection refused")
	wrappedErr := Wrap(originalErr, DatabaseError)

	if wrappedErr.Code != DatabaseError {
		t.Errorf("Code = %v, want %v", wrappedErr.Code, DatabaseError)
	}
	if wrappedErr.Unwrap() != originalErr {
		t.Error("Unwrap() should return original error")
	}
	if Wrap(nil, DatabaseError) != nil {
		t.Error("Wrap(nil) should return nil")
	}
}

func TestWrapKeepsCodedError(t *testing.T) {
	inner := New(ProblemNotFound)
	outer := fmt.Errorf("lookup: %w", inner)

	if got := GetCode(outer); got != ProblemNotFound {
		t.Fatalf("GetCode() = %v, want %v", got, ProblemNotFound)
	}
	if got := Wrap(outer, DatabaseError); got != inner || got.Code != DatabaseError {
		t.Fatalf("Wrap() should re-code the inner error")
	}
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{name: "nil error", err: nil, want: Success},
		{name: "custom error", err: New(ProblemAlreadyExists), want: ProblemAlreadyExists},
		{name: "standard error", err: errors.New("standard error"), want: InternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.want {
				t.Errorf("GetCode() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIs(t *testing.T) {
	err := New(ProblemNotFound)

	if !Is(err, ProblemNotFound) {
		t.Error("Is() should return true for matching code")
	}
	if Is(err, DatabaseError) {
		t.Error("Is() should return false for non-matching code")
	}
	if Is(nil, ProblemNotFound) {
		t.Error("Is() should return false for nil error")
	}
}

func TestValidationErrors(t *testing.T) {
	err := ValidationErrors([]string{`"title" is required`, `"testCases" must contain at least 1 items`})

	if err.Code != ValidationFailed {
		t.Fatalf("Code = %v, want %v", err.Code, ValidationFailed)
	}
	want := `"title" is required, "testCases" must contain at least 1 items`
	if err.Error() != want {
		t.Fatalf("Error() = %q, want %q", err.Error(), want)
	}
	if got := Messages(err); len(got) != 2 {
		t.Fatalf("Messages() = %v, want 2 items", got)
	}
	if got := Messages(errors.New("plain")); len(got) != 1 || got[0] != "plain" {
		t.Fatalf("Messages() on plain error = %v", got)
	}
}

func TestGetErrorAndDetails(t *testing.T) {
	plain := errors.New("socket closed")
	got := GetError(plain)
	if got.Code != InternalServerError || got.Unwrap() != plain {
		t.Fatalf("GetError(plain) = %+v", got)
	}

	coded := New(ProblemNotFound).WithDetail("problem_id", int64(9))
	if GetError(fmt.Errorf("lookup: %w", coded)) != coded {
		t.Fatalf("GetError should return the wrapped coded error")
	}
	if coded.Details["problem_id"] != int64(9) {
		t.Fatalf("detail not set: %v", coded.Details)
	}
	if GetError(nil) != nil {
		t.Fatalf("GetError(nil) should be nil")
	}
}
