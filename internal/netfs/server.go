package netfs

// NetFS request dispatch.

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/acornnet/econetd/internal/econet"
	"github.com/acornnet/econetd/internal/logging"
	"github.com/acornnet/econetd/internal/metrics"
)

// MaxRequest is the receive buffer size for one request.
const MaxRequest = 2048

// Sender transmits a reply.
type Sender interface {
	Send(ctx context.Context, dest econet.EconetAddress, payload []byte) (int, error)
}

// Receiver yields request payloads from the fileserver port.
type Receiver interface {
	Recv(ctx context.Context, buf []byte) (int, error)
}

// Options configures a Server.
type Options struct {
	Logger  *logging.Logger
	Metrics *metrics.Sink
	// NackUnknown sends a "Bad command" reply for unhandled requests
	// instead of staying silent.
	NackUnknown bool
	Handles     HandleAllocator
	// Port is the port requests arrive on, for metrics.
	Port econet.Port
}

// Server dispatches NetFS requests.
type Server struct {
	sender      Sender
	logger      *logging.Logger
	metrics     *metrics.Sink
	nackUnknown bool
	handles     HandleAllocator
	port        econet.Port

	mu       sync.RWMutex
	commands map[string]CommandFunc
}

// NewServer creates a server that replies through sender.
func NewServer(sender Sender, opts Options) *Server {
	if opts.Handles == nil {
		opts.Handles = DefaultHandles
	}
	if opts.Port == 0 {
		opts.Port = econet.PortNetFS
	}
	s := &Server{
		sender:      sender,
		logger:      opts.Logger,
		metrics:     opts.Metrics,
		nackUnknown: opts.NackUnknown,
		handles:     opts.Handles,
		port:        opts.Port,
		commands:    make(map[string]CommandFunc),
	}
	s.Handle("i", s.cmdIAm)
	s.Handle("echo", cmdEcho)
	return s
}

// Handle registers a star command. Names match case-insensitively.
func (s *Server) Handle(name string, fn CommandFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commands[strings.ToLower(name)] = fn
}

// Commands returns the registered command names.
func (s *Server) Commands() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.commands))
	for name := range s.commands {
		names = append(names, name)
	}
	return names
}

func (s *Server) lookup(name string) (CommandFunc, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn, ok := s.commands[strings.ToLower(name)]
	return fn, ok
}

// Serve handles requests from rx until ctx is done.
func (s *Server) Serve(ctx context.Context, rx Receiver) error {
	buf := make([]byte, MaxRequest)
	for {
		n, err := rx.Recv(ctx, buf)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("receive request: %w", err)
		}
		s.logger.Verbose("read msg: %d bytes", n)
		s.logger.LogHex("request", buf[:n])
		if err := s.HandleRequest(ctx, buf[:n]); err != nil {
			s.logger.Verbose("request dropped: %v", err)
		}
	}
}

// HandleRequest parses and dispatches one request payload. Malformed
// requests and unknown function codes are dropped without a reply unless
// NACKs are enabled.
func (s *Server) HandleRequest(ctx context.Context, buf []byte) error {
	msg, err := ParseMessage(buf)
	if err != nil {
		var unknown *UnknownFunctionError
		if errors.As(err, &unknown) {
			reply := econet.EconetAddress{Station: buf[0], Net: buf[1], Port: econet.Port(buf[2])}
			s.logger.Info("station %s sent unknown function code %d", reply.Addr(), unknown.Code)
			s.record(reply, len(buf), fmt.Sprintf("0x%02x", unknown.Code), false)
			if s.nackUnknown {
				s.reply(ctx, reply, BadCommandReply)
			}
		}
		return err
	}
	err = s.Dispatch(ctx, msg)
	s.record(msg.ReplyAddr, len(buf), msg.Function.String(), err == nil)
	return err
}

// Dispatch runs the handler for msg's function code.
func (s *Server) Dispatch(ctx context.Context, msg Message) error {
	switch msg.Function {
	case FcCommandLine:
		return s.commandLine(ctx, msg)
	default:
		s.logger.Info("station %s: %s not implemented", msg.ReplyAddr.Addr(), msg.Function)
		if s.nackUnknown {
			s.reply(ctx, msg.ReplyAddr, BadCommandReply)
		}
		return fmt.Errorf("%w: %s", ErrNotImplemented, msg.Function)
	}
}

func (s *Server) commandLine(ctx context.Context, msg Message) error {
	args := Tokenize(msg.Text())
	if len(args) == 0 {
		return nil
	}
	fn, ok := s.lookup(args[0])
	if !ok {
		s.logger.Info("cmd not handled: %q", args[0])
		if s.nackUnknown {
			s.reply(ctx, msg.ReplyAddr, BadCommandReply)
		}
		return nil
	}
	reply, err := fn(ctx, msg, args)
	if err != nil {
		return fmt.Errorf("*%s: %w", args[0], err)
	}
	if reply != nil {
		s.reply(ctx, msg.ReplyAddr, reply)
	}
	return nil
}

// reply sends a response. Failures are logged, not retried.
func (s *Server) reply(ctx context.Context, dest econet.EconetAddress, payload []byte) {
	if _, err := s.sender.Send(ctx, dest, payload); err != nil {
		s.logger.Error("reply to %s failed: %v", dest, err)
	}
}

func (s *Server) record(from econet.EconetAddress, size int, function string, ok bool) {
	m := metrics.Metric{
		Operation: metrics.OperationRecv,
		Station:   from.Addr().String(),
		Port:      uint8(s.port),
		Bytes:     size,
		Success:   ok,
		Function:  function,
		Outcome:   metrics.OutcomeDone,
	}
	if !ok {
		m.Outcome = metrics.OutcomeRejected
	}
	s.metrics.Record(m)
}
