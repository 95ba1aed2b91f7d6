package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestStatusCode(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{ErrInvalidInput, http.StatusBadRequest},
		{ErrDuplicateEmail, http.StatusBadRequest},
		{ErrInsufficientStock, http.StatusBadRequest},
		{ErrEmptyCart, http.StatusBadRequest},
		{ErrInvalidCredentials, http.StatusUnauthorized},
		{ErrUnauthorized, http.StatusUnauthorized},
		{ErrForbidden, http.StatusForbidden},
		{ErrNotFound, http.StatusNotFound},
		{ErrInvalidTransition, http.StatusConflict},
		{ErrStoreUnavailable, http.StatusServiceUnavailable},
		{errors.New("anything else"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		if got := StatusCode(c.err); got != c.want {
			t.Fatalf("StatusCode(%v) = %d, want %d", c.err, got, c.want)
		}
	}
}

func TestStatusCodeWrapped(t *testing.T) {
	err := fmt.Errorf("%w: product not found", ErrNotFound)
	if got := StatusCode(err); got != http.StatusNotFound {
		t.Fatalf("expected wrapped ErrNotFound to map to 404, got %d", got)
	}
}

func TestWriteErrorEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, fmt.Errorf("%w: product not found", ErrNotFound))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	var body ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if body.Message == "" {
		t.Fatal("expected a message field")
	}
}

func TestWriteErrorHidesInternalDetail(t *testing.T) {
	t.Setenv("APP_ENV", "production")

	rec := httptest.NewRecorder()
	WriteError(rec, errors.New("dsn=mongodb://secret@host failed"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	var body ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if body.Message != "Something went wrong!" {
		t.Fatalf("expected generic message, got %q", body.Message)
	}
}

func TestWriteErrorShowsDetailInDevelopment(t *testing.T) {
	t.Setenv("APP_ENV", "development")

	rec := httptest.NewRecorder()
	WriteError(rec, errors.New("index build failed"))

	var body ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if body.Message != "index build failed" {
		t.Fatalf("expected detailed message in development, got %q", body.Message)
	}
}
