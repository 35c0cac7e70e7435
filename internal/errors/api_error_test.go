package errors

import (
	"net/http"
	"testing"
)

func TestConstructorsSetStatusAndCode(t *testing.T) {
	cases := []struct {
		name   string
		err    *APIError
		status int
		code   string
	}{
		{"internal default message", Internal(""), http.StatusInternalServerError, "internal_error"},
		{"bad request", BadRequest("invalid_name", "name is required"), http.StatusBadRequest, "invalid_name"},
		{"unauthorized", Unauthorized(""), http.StatusUnauthorized, "unauthorized"},
		{"not found", NotFound("preset_not_found", "preset not found"), http.StatusNotFound, "preset_not_found"},
		{"conflict", Conflict("email_exists", "email already registered", nil), http.StatusConflict, "email_exists"},
		{"unavailable", Unavailable("persistence_failed", "could not save", nil), http.StatusServiceUnavailable, "persistence_failed"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.err.Status != tc.status {
				t.Fatalf("expected status %d, got %d", tc.status, tc.err.Status)
			}
			if tc.err.Code != tc.code {
				t.Fatalf("expected code %s, got %s", tc.code, tc.err.Code)
			}
			if tc.err.Error() == "" {
				t.Fatal("expected non-empty message")
			}
		})
	}
}

func TestWithDetails(t *testing.T) {
	err := Unavailable("persistence_failed", "could not save", map[string]int{"sets": 3})
	details, ok := err.Details.(map[string]int)
	if !ok || details["sets"] != 3 {
		t.Fatalf("unexpected details: %#v", err.Details)
	}
}
