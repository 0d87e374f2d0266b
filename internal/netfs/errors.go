package netfs

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformed is returned for requests too short to carry a header.
	ErrMalformed = errors.New("malformed netfs request")
	// ErrNotImplemented is returned for defined function codes the server
	// does not handle.
	ErrNotImplemented = errors.New("function not implemented")
	// ErrUnknownFunction matches any UnknownFunctionError.
	ErrUnknownFunction = errors.New("unknown function code")
)

// UnknownFunctionError reports a function code outside the defined set.
type UnknownFunctionError struct {
	Code uint8
}

func (e *UnknownFunctionError) Error() string {
	return fmt.Sprintf("unknown function code %d", e.Code)
}

func (e *UnknownFunctionError) Is(target error) bool {
	return target == ErrUnknownFunction
}
