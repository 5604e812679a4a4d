package util

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
)

func TestToDomainError_Passthrough(t *testing.T) {
	original := NewConflict("username or email already taken", map[string]any{"username": "alice"})

	got := ToDomainError(original)
	if got != original.(*DomainError) {
		t.Error("ToDomainError() rebuilt an error that was already a DomainError")
	}

	// Wrapping must not hide the domain error.
	wrapped := fmt.Errorf("signup: %w", original)
	if got := ToDomainError(wrapped); got.Code != "CONFLICT" {
		t.Errorf("wrapped code = %q, want CONFLICT", got.Code)
	}
}

func TestToDomainError_NoRows(t *testing.T) {
	got := ToDomainError(fmt.Errorf("query: %w", pgx.ErrNoRows))
	if got.Code != "NOT_FOUND" {
		t.Errorf("code = %q, want NOT_FOUND", got.Code)
	}
	if got.HTTPStatus != http.StatusNotFound {
		t.Errorf("status = %d, want 404", got.HTTPStatus)
	}
}

func TestToDomainError_Unknown(t *testing.T) {
	cause := errors.New("connection reset")
	got := ToDomainError(cause)
	if got.Code != "INTERNAL_ERROR" {
		t.Errorf("code = %q, want INTERNAL_ERROR", got.Code)
	}
	if !errors.Is(got, cause) {
		t.Error("cause not preserved through Unwrap")
	}
	if got.Message != "internal server error" {
		t.Errorf("message = %q, internals must not leak", got.Message)
	}
}

func TestToDomainError_Nil(t *testing.T) {
	if got := ToDomainError(nil); got != nil {
		t.Errorf("ToDomainError(nil) = %v, want nil", got)
	}
}

func TestDomainError_Extensions(t *testing.T) {
	err := NewValidationError("title is required", map[string]any{"field": "title"}).(*DomainError)

	ext := err.Extensions()
	if ext["code"] != "VALIDATION_FAILED" {
		t.Errorf("extensions.code = %v, want VALIDATION_FAILED", ext["code"])
	}
	if ext["field"] != "title" {
		t.Errorf("extensions.field = %v, want details merged in", ext["field"])
	}
}

func TestConstructorStatuses(t *testing.T) {
	cases := map[string]struct {
		err    error
		code   string
		status int
	}{
		"validation":      {NewValidationError("bad", nil), "VALIDATION_FAILED", http.StatusBadRequest},
		"not found":       {NewNotFound("post", nil), "NOT_FOUND", http.StatusNotFound},
		"unauthenticated": {NewUnauthenticated("log in"), "UNAUTHENTICATED", http.StatusUnauthorized},
		"unauthorized":    {NewUnauthorized("bad credentials"), "UNAUTHORIZED", http.StatusUnauthorized},
		"conflict":        {NewConflict("taken", nil), "CONFLICT", http.StatusConflict},
		"internal":        {NewInternalError(errors.New("boom")), "INTERNAL_ERROR", http.StatusInternalServerError},
	}
	for name, tc := range cases {
		de := ToDomainError(tc.err)
		if de.Code != tc.code || de.HTTPStatus != tc.status {
			t.Errorf("%s: got %s/%d, want %s/%d", name, de.Code, de.HTTPStatus, tc.code, tc.status)
		}
	}
}
