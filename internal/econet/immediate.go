package econet

// ImmediateOp names a remote-control operation carried in an immediate scout.
type ImmediateOp uint8

const (
	ImmPeek         ImmediateOp = 0x81
	ImmPoke         ImmediateOp = 0x82
	ImmJSR          ImmediateOp = 0x83
	ImmUserProc     ImmediateOp = 0x84
	ImmOSProc       ImmediateOp = 0x85
	ImmHalt         ImmediateOp = 0x86
	ImmContinue     ImmediateOp = 0x87
	ImmMachineType  ImmediateOp = 0x88
	ImmGetRegisters ImmediateOp = 0x89

	firstImmediateOp = ImmPeek
	lastImmediateOp  = ImmGetRegisters
)

var immediateOpNames = [...]string{
	"PEEK", "POKE", "JSR", "UserProc", "OsProc", "Halt", "Cont", "MachType", "GetReg",
}

// IsKnown reports whether op is in the defined range.
func (op ImmediateOp) IsKnown() bool {
	return op >= firstImmediateOp && op <= lastImmediateOp
}

// String returns the operation name, or "Unknown" outside 0x81-0x89.
func (op ImmediateOp) String() string {
	if !op.IsKnown() {
		return "Unknown"
	}
	return immediateOpNames[op-firstImmediateOp]
}
