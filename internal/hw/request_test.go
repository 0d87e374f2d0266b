package hw

import "testing"

func TestRequestEncoding(t *testing.T) {
	tests := []struct {
		name    string
		req     Request
		id      Request
		param8  uint8
		param16 uint16
		str     string
	}{
		{"set_addr", ReqSetAddr.With(0x00FE), ReqSetAddr, 0xFE, 0x00FE, "SET_ADDR"},
		{"set_port", ReqSetRecvPort.With(0x99), ReqSetRecvPort, 0x99, 0x0099, "SET_RECV_PORT"},
		{"clkterm", ReqSetClkTerm.With(0x0303), ReqSetClkTerm, 0x03, 0x0303, "SET_CLKTERM"},
		{"debug", ReqDebugBuf, ReqDebugBuf, 0, 0, "DBG_BUF"},
		{"param_overflow", ReqSetMonitor.With(0xAB000001), ReqSetMonitor, 0x01, 0x0001, "SET_MONITOR"},
		{"unknown", Request(0x7F000001), Request(0x7F000000), 0x01, 0x0001, "0x7F000001"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.req.ID() != tc.id {
				t.Errorf("ID = %#08x, want %#08x", uint32(tc.req.ID()), uint32(tc.id))
			}
			if tc.req.Param8() != tc.param8 {
				t.Errorf("Param8 = %#02x, want %#02x", tc.req.Param8(), tc.param8)
			}
			if tc.req.Param16() != tc.param16 {
				t.Errorf("Param16 = %#04x, want %#04x", tc.req.Param16(), tc.param16)
			}
			if tc.req.String() != tc.str {
				t.Errorf("String = %q, want %q", tc.req.String(), tc.str)
			}
		})
	}
}

func TestClockTerm(t *testing.T) {
	ct := NewClockTerm(3, true, false)
	if ct != 0x0301 {
		t.Fatalf("NewClockTerm = %#04x, want 0x0301", uint16(ct))
	}
	if ct.Divider() != 3 || !ct.ClockEnabled() || ct.Terminated() {
		t.Errorf("decoded %d %v %v", ct.Divider(), ct.ClockEnabled(), ct.Terminated())
	}
	ct = NewClockTerm(7, false, true)
	if ct.Divider() != 7 || ct.ClockEnabled() || !ct.Terminated() {
		t.Errorf("decoded %d %v %v", ct.Divider(), ct.ClockEnabled(), ct.Terminated())
	}
}

func TestStateNames(t *testing.T) {
	if StateTxScout.String() != "TxScout" || HandshakeState(9).String() != "Unknown" {
		t.Error("unexpected handshake state names")
	}
	if TxUnreachable.String() != "Unreachable" || TxStatus(9).String() != "Unknown" {
		t.Error("unexpected tx status names")
	}
}
