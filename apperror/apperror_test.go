package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestStatusCodeMapping(t *testing.T) {
	cases := []struct {
		kind Kind
		want int
	}{
		{BadRequest, http.StatusBadRequest},
		{Unauthenticated, http.StatusUnauthorized},
		{NotFound, http.StatusNotFound},
		{StorageError, http.StatusInternalServerError},
		{UpstreamError, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := New(tc.kind, "x").StatusCode(); got != tc.want {
			t.Errorf("kind %d -> %d, want %d", tc.kind, got, tc.want)
		}
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("disk on fire")
	err := Wrap(StorageError, "failed to create post", cause)

	if !errors.Is(err, cause) {
		t.Fatalf("wrapped cause must be reachable via errors.Is")
	}
	if err.Error() != "failed to create post: disk on fire" {
		t.Fatalf("Error() = %q", err.Error())
	}

	wrapped := fmt.Errorf("handler: %w", err)
	if !IsKind(wrapped, StorageError) {
		t.Fatalf("IsKind must see through wrapping")
	}
	if IsKind(wrapped, NotFound) {
		t.Fatalf("IsKind must not match other kinds")
	}
}

func TestAsAppError(t *testing.T) {
	app := New(NotFound, "post not found")
	if got := AsAppError(fmt.Errorf("x: %w", app)); got != app {
		t.Fatalf("AsAppError must extract the underlying AppError")
	}

	plain := errors.New("boom")
	got := AsAppError(plain)
	if got.Kind != StorageError {
		t.Fatalf("plain errors normalize to StorageError, got %d", got.Kind)
	}
	if !errors.Is(got, plain) {
		t.Fatalf("normalized error must keep its cause")
	}
}
