package link

import "errors"

// Transmission errors are expected, recoverable conditions. Callers decide
// whether to retry.
var (
	ErrUnreachable = errors.New("station unreachable: scout not acknowledged")
	ErrTimeout     = errors.New("data ack timeout: scout acknowledged but data was not")
	ErrNetError    = errors.New("network error")
)

// Argument and resource errors are returned synchronously at the call that
// caused them.
var (
	ErrMessageTooLarge = errors.New("message too large")
	ErrNoDestination   = errors.New("no destination station")
	ErrPortInUse       = errors.New("port in use")
	ErrInvalidPort     = errors.New("invalid port")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrClosed          = errors.New("handle closed")
	ErrNotListening    = errors.New("no receive port bound")
)
