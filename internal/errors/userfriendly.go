package errors

import (
	"fmt"
	"strings"
)

// UserFriendlyError provides user-friendly error messages with context and hints
type UserFriendlyError struct {
	Message string
	Reason  string
	Hint    string
	Try     string
	Err     error
}

func (e UserFriendlyError) Error() string {
	var buf strings.Builder
	buf.WriteString(e.Message)
	if e.Reason != "" {
		buf.WriteString("\n  Reason: " + e.Reason)
	}
	if e.Hint != "" {
		buf.WriteString("\n  Hint: " + e.Hint)
	}
	if e.Try != "" {
		buf.WriteString("\n  Try: " + e.Try)
	}
	if e.Err != nil {
		buf.WriteString("\n  Details: " + e.Err.Error())
	}
	return buf.String()
}

func (e UserFriendlyError) Unwrap() error {
	return e.Err
}

// WrapNetworkError wraps UDP transport errors with user-friendly context
func WrapNetworkError(err error, host string, port int) error {
	if err == nil {
		return nil
	}

	return UserFriendlyError{
		Message: fmt.Sprintf("Failed to use the Econet UDP transport at %s:%d", host, port),
		Reason:  extractNetworkReason(err),
		Hint:    "Another station emulator may already own this port, or the station table points at the wrong host",
		Try:     "Check the aun.listen address and the stations file in your config",
		Err:     err,
	}
}

// WrapLinkError wraps an Econet transmission error with user-friendly context
func WrapLinkError(err error, dest string) error {
	if err == nil {
		return nil
	}

	return UserFriendlyError{
		Message: fmt.Sprintf("Transmission to station %s failed", dest),
		Reason:  extractLinkReason(err),
		Hint:    "The destination must be powered, clocked and listening on the port",
		Try:     fmt.Sprintf("econetd monitor   # watch for scouts and acks to %s", dest),
		Err:     err,
	}
}

// WrapConfigError wraps configuration errors with user-friendly context
func WrapConfigError(err error, configPath string) error {
	if err == nil {
		return nil
	}

	return UserFriendlyError{
		Message: fmt.Sprintf("Configuration error in %s", configPath),
		Reason:  err.Error(),
		Hint:    "Print a template with: econetd print-default-config",
		Try:     fmt.Sprintf("Validate your config: econetd validate-config --config %s", configPath),
		Err:     err,
	}
}

func extractNetworkReason(err error) string {
	errStr := err.Error()

	// Common socket error patterns
	if strings.Contains(errStr, "address already in use") {
		return "Address already in use - another process is bound to this port"
	}
	if strings.Contains(errStr, "permission denied") {
		return "Permission denied - the port may require elevated privileges"
	}
	if strings.Contains(errStr, "no such host") {
		return "Host lookup failed - check the station table"
	}
	if strings.Contains(errStr, "connection refused") {
		return "Connection refused - the remote station emulator is not running"
	}

	return "Network communication failed"
}

func extractLinkReason(err error) string {
	errStr := err.Error()

	// Link error patterns
	if strings.Contains(errStr, "unreachable") {
		return "No station acknowledged the scout - nothing is listening on that port"
	}
	if strings.Contains(errStr, "timeout") {
		return "The scout was acknowledged but the data frame was not"
	}
	if strings.Contains(errStr, "too large") {
		return "The message does not fit in the transmit buffer"
	}
	if strings.Contains(errStr, "no destination") {
		return "Station 0 is the broadcast address and cannot be sent to directly"
	}

	return "Network error during transmission"
}
