package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestErrorMessageFallbacks(t *testing.T) {
	cases := []struct {
		name string
		err  *Error
		want string
	}{
		{"wrapped error wins", New(http.StatusConflict, "validation_error", errors.New("boom")), "boom"},
		{"code when no error", &Error{Code: "capacity_error"}, "capacity_error"},
		{"status when nothing else", &Error{Status: 500}, "api error (500)"},
		{"empty", &Error{}, "api error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.err.Error(); got != tc.want {
				t.Fatalf("Error() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestFromUnwrapsChain(t *testing.T) {
	base := New(http.StatusTooManyRequests, "capacity_error", errors.New("cap reached"))
	wrapped := fmt.Errorf("start debate: %w", base)

	ae, ok := From(wrapped)
	if !ok {
		t.Fatal("From did not find the api error in the chain")
	}
	if ae.Status != http.StatusTooManyRequests || ae.Code != "capacity_error" {
		t.Fatalf("got %d/%q", ae.Status, ae.Code)
	}

	if _, ok := From(errors.New("plain")); ok {
		t.Fatal("From matched a plain error")
	}
}
