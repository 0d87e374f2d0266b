package netfs

import (
	"bytes"
	"errors"
	"testing"

	"github.com/acornnet/econetd/internal/econet"
)

func TestMessageRoundTrip(t *testing.T) {
	want := Message{
		ReplyAddr: econet.EconetAddress{Port: 0x90, Net: 5, Station: 9},
		Function:  FcCommandLine,
		URD:       1,
		CSD:       2,
		LIB:       3,
		Payload:   []byte("I AM FRED"),
	}
	frame := econet.AppendFCS(econet.AppendData(nil,
		econet.Address{Station: 254}, want.ReplyAddr.Addr(),
		econet.DefaultControl, econet.PortNetFS, AppendMessage(nil, want)))

	got, err := ParseRequest(econet.RawFrame(frame))
	if err != nil {
		t.Fatalf("ParseRequest: %v", err)
	}
	if got.ReplyAddr != want.ReplyAddr || got.Function != want.Function ||
		got.URD != want.URD || got.CSD != want.CSD || got.LIB != want.LIB {
		t.Errorf("header = %+v, want %+v", got, want)
	}
	if !bytes.Equal(got.Payload, want.Payload) {
		t.Errorf("payload = %q", got.Payload)
	}
	terminated := got.Payload[:len(got.Payload)+1]
	if !bytes.Equal(terminated, append([]byte("I AM FRED"), 0)) {
		t.Errorf("terminated payload = %q", terminated)
	}
}

func TestParseMessageCopies(t *testing.T) {
	buf := AppendMessage(nil, Message{Function: FcCommandLine, Payload: []byte("echo")})
	msg, err := ParseMessage(buf)
	if err != nil {
		t.Fatalf("ParseMessage: %v", err)
	}
	buf[HeaderSize] = 'X'
	if msg.Text() != "echo" {
		t.Errorf("payload aliases the input buffer: %q", msg.Text())
	}
}

func TestParseMessageErrors(t *testing.T) {
	if _, err := ParseMessage([]byte{1, 2, 3, 4, 5, 6}); !errors.Is(err, ErrMalformed) {
		t.Errorf("short header = %v", err)
	}

	_, err := ParseMessage([]byte{9, 5, 0x90, 33, 0, 0, 0})
	if !errors.Is(err, ErrUnknownFunction) {
		t.Fatalf("code 33 = %v", err)
	}
	var unknown *UnknownFunctionError
	if !errors.As(err, &unknown) || unknown.Code != 33 {
		t.Errorf("UnknownFunctionError = %+v", unknown)
	}

	scout := econet.AppendFCS(econet.AppendScout(nil, econet.Address{Station: 1}, econet.Address{Station: 2}, 0x80, 0x99))
	if _, err := ParseRequest(econet.RawFrame(scout)); !errors.Is(err, ErrMalformed) {
		t.Errorf("scout frame = %v", err)
	}
}

func TestMessageText(t *testing.T) {
	tests := []struct {
		payload string
		want    string
	}{
		{"echo", "echo"},
		{"I AM FRED\r", "I AM FRED"},
		{"cat\x00junk", "cat"},
		{"", ""},
	}
	for _, tc := range tests {
		if got := (Message{Payload: []byte(tc.payload)}).Text(); got != tc.want {
			t.Errorf("Text(%q) = %q, want %q", tc.payload, got, tc.want)
		}
	}
}

func TestFunctionCodes(t *testing.T) {
	if FcReadClientUserID != NumFunctionCodes-1 {
		t.Fatalf("last code = %d", FcReadClientUserID)
	}
	for fc := FunctionCode(0); fc < NumFunctionCodes; fc++ {
		if fc.String() == "" || fc.String() == "Unknown" || !fc.IsKnown() {
			t.Errorf("code %d has no name", fc)
		}
	}
	if FunctionCode(NumFunctionCodes).IsKnown() || FunctionCode(0xFF).String() != "Unknown" {
		t.Error("codes past the table should be unknown")
	}
	if FcCommandLine.String() != "CommandLine" || FcReadFreeSpace.String() != "ReadFreeSpace" {
		t.Errorf("names = %s, %s", FcCommandLine, FcReadFreeSpace)
	}
}
