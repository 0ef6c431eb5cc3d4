package adapter

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestIsTransient(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain error", errors.New("bad request"), false},
		{"canceled", context.Canceled, false},
		{"deadline", context.DeadlineExceeded, true},
		{"net timeout", timeoutErr{}, true},
		{"rate limited", &AdapterError{Status: 429, Err: errors.New("slow down")}, true},
		{"server error", &AdapterError{Status: 503, Err: errors.New("unavailable")}, true},
		{"client error", &AdapterError{Status: 400, Err: errors.New("bad input")}, false},
		{"temporary flag", &AdapterError{Temporary: true, Err: errors.New("conn reset")}, true},
		{"wrapped adapter error", fmt.Errorf("generate: %w", &AdapterError{Status: 500}), true},
	}

	for _, tc := range cases {
		if got := IsTransient(tc.err); got != tc.want {
			t.Errorf("%s: IsTransient = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestAdapterErrorMessage(t *testing.T) {
	withErr := &AdapterError{Status: 500, Err: errors.New("upstream exploded")}
	if withErr.Error() != "upstream exploded" {
		t.Fatalf("unexpected message: %q", withErr.Error())
	}

	bare := &AdapterError{Status: 502}
	if bare.Error() != "adapter error (status=502)" {
		t.Fatalf("unexpected message: %q", bare.Error())
	}
}

func TestAdapterErrorUnwrap(t *testing.T) {
	inner := context.DeadlineExceeded
	wrapped := &AdapterError{Err: fmt.Errorf("call after %s: %w", time.Second, inner)}
	if !errors.Is(wrapped, context.DeadlineExceeded) {
		t.Fatal("errors.Is should reach the wrapped cause")
	}
}
