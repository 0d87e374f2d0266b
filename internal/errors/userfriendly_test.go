package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestUserFriendlyError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      UserFriendlyError
		contains []string
	}{
		{
			name:     "message only",
			err:      UserFriendlyError{Message: "something broke"},
			contains: []string{"something broke"},
		},
		{
			name: "all fields",
			err: UserFriendlyError{
				Message: "connection failed",
				Reason:  "timeout",
				Hint:    "check network",
				Try:     "ping host",
				Err:     fmt.Errorf("dial tcp: timeout"),
			},
			contains: []string{"connection failed", "Reason: timeout", "Hint: check network", "Try: ping host", "Details: dial tcp: timeout"},
		},
		{
			name: "no reason",
			err: UserFriendlyError{
				Message: "failed",
				Hint:    "hint here",
			},
			contains: []string{"failed", "Hint: hint here"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("Error() = %q, want to contain %q", msg, s)
				}
			}
		})
	}
}

func TestUserFriendlyError_ErrorOmitsEmptyFields(t *testing.T) {
	err := UserFriendlyError{Message: "msg"}
	msg := err.Error()
	if strings.Contains(msg, "Reason:") || strings.Contains(msg, "Hint:") || strings.Contains(msg, "Try:") || strings.Contains(msg, "Details:") {
		t.Errorf("Error() = %q, should not contain empty fields", msg)
	}
}

func TestUserFriendlyError_Unwrap(t *testing.T) {
	inner := fmt.Errorf("root cause")
	err := UserFriendlyError{Message: "wrapper", Err: inner}

	if !errors.Is(err, inner) {
		t.Error("Unwrap should return the inner error")
	}

	var nilErr UserFriendlyError
	if nilErr.Unwrap() != nil {
		t.Error("Unwrap on nil Err should return nil")
	}
}

func TestWrapNetworkError(t *testing.T) {
	t.Run("nil error returns nil", func(t *testing.T) {
		if WrapNetworkError(nil, "0.0.0.0", 32768) != nil {
			t.Error("expected nil")
		}
	})

	tests := []struct {
		name   string
		err    error
		reason string
	}{
		{"in use", fmt.Errorf("listen udp 0.0.0.0:32768: bind: address already in use"), "in use"},
		{"permission", fmt.Errorf("listen udp :80: bind: permission denied"), "Permission"},
		{"lookup", fmt.Errorf("lookup bbc: no such host"), "lookup"},
		{"refused", fmt.Errorf("write udp: connection refused"), "refused"},
		{"generic", fmt.Errorf("something else"), "Network communication failed"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := WrapNetworkError(tc.err, "0.0.0.0", 32768)
			ufe := err.(UserFriendlyError)
			if !strings.Contains(ufe.Message, "0.0.0.0:32768") {
				t.Errorf("message should contain address, got %q", ufe.Message)
			}
			if !strings.Contains(ufe.Reason, tc.reason) {
				t.Errorf("reason = %q, want to contain %q", ufe.Reason, tc.reason)
			}
			if !errors.Is(err, tc.err) {
				t.Error("wrapped error should unwrap to the original")
			}
		})
	}
}

func TestWrapLinkError(t *testing.T) {
	if WrapLinkError(nil, "0.2") != nil {
		t.Error("expected nil")
	}

	tests := []struct {
		name   string
		err    error
		reason string
	}{
		{"unreachable", fmt.Errorf("send: station unreachable"), "scout"},
		{"timeout", fmt.Errorf("send: data ack timeout"), "data frame"},
		{"too large", fmt.Errorf("message too large: 600 bytes"), "transmit buffer"},
		{"broadcast", fmt.Errorf("no destination station"), "broadcast"},
		{"generic", fmt.Errorf("network error"), "Network error"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ufe := WrapLinkError(tc.err, "0.2").(UserFriendlyError)
			if !strings.Contains(ufe.Message, "0.2") {
				t.Errorf("message should contain station, got %q", ufe.Message)
			}
			if !strings.Contains(ufe.Reason, tc.reason) {
				t.Errorf("reason = %q, want to contain %q", ufe.Reason, tc.reason)
			}
		})
	}
}

func TestWrapConfigError(t *testing.T) {
	if WrapConfigError(nil, "econetd.yaml") != nil {
		t.Error("expected nil")
	}
	ufe := WrapConfigError(fmt.Errorf("station must be 1-254"), "econetd.yaml").(UserFriendlyError)
	if !strings.Contains(ufe.Message, "econetd.yaml") {
		t.Errorf("message = %q", ufe.Message)
	}
	if ufe.Reason != "station must be 1-254" {
		t.Errorf("reason = %q", ufe.Reason)
	}
	if !strings.Contains(ufe.Try, "validate-config") {
		t.Errorf("try = %q", ufe.Try)
	}
}
