package netfs

// Star commands carried in CommandLine requests.

import (
	"context"
	"strings"

	"github.com/acornnet/econetd/internal/econet"
)

// MaxArgs is the most tokens taken from a command line; the rest are
// dropped.
const MaxArgs = 8

// Reply codes.
const (
	CodeComplete uint8 = 0x00 // command complete, nothing for the client to do
	CodeIAm      uint8 = 0x05 // login succeeded
	ResultOK     uint8 = 0x00
	ResultEcho   uint8 = 0x01
	ResultBadCmd uint8 = 0xFE
)

// CommandFunc handles a star command. args[0] is the command name as sent.
// A nil reply sends nothing.
type CommandFunc func(ctx context.Context, msg Message, args []string) ([]byte, error)

// Tokenize splits a command line on spaces. Runs of spaces separate tokens
// like one; at most MaxArgs tokens are returned.
func Tokenize(line string) []string {
	var args []string
	for _, tok := range strings.Split(line, " ") {
		if tok == "" {
			continue
		}
		if len(args) == MaxArgs {
			break
		}
		args = append(args, tok)
	}
	return args
}

// Session holds the directory handles and boot option given to a client at
// login.
type Session struct {
	URD        uint8
	CSD        uint8
	LIB        uint8
	BootOption uint8
}

// HandleAllocator assigns directory handles at login.
type HandleAllocator interface {
	Login(client econet.Address, user string) (Session, error)
}

// FixedHandles gives every client the same session.
type FixedHandles Session

// DefaultHandles is the placeholder session used when no filesystem is
// attached.
var DefaultHandles = FixedHandles{URD: 3, CSD: 5, LIB: 6, BootOption: 0}

func (f FixedHandles) Login(econet.Address, string) (Session, error) {
	return Session(f), nil
}

// IAmReply builds the login reply.
func IAmReply(s Session) []byte {
	return []byte{CodeIAm, ResultOK, s.URD, s.CSD, s.LIB, s.BootOption}
}

// EchoReply is the fixed smoke-test reply. The trailing pad byte is NUL.
var EchoReply = []byte{CodeComplete, ResultEcho, 'T', 'e', 's', 't', '\n', 0x00}

// BadCommandReply is sent for unhandled requests when NACKs are enabled.
var BadCommandReply = append([]byte{CodeComplete, ResultBadCmd}, "Bad command\r"...)

func (s *Server) cmdIAm(ctx context.Context, msg Message, args []string) ([]byte, error) {
	var user string
	// "I AM name" or "I name"
	for _, a := range args[1:] {
		if strings.EqualFold(a, "AM") && user == "" {
			continue
		}
		user = a
		break
	}
	sess, err := s.handles.Login(msg.ReplyAddr.Addr(), user)
	if err != nil {
		return nil, err
	}
	s.logger.Info("station %s logged in as %q", msg.ReplyAddr.Addr(), user)
	return IAmReply(sess), nil
}

func cmdEcho(ctx context.Context, msg Message, args []string) ([]byte, error) {
	return EchoReply, nil
}
