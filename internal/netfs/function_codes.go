package netfs

// NetFS function codes.

// FunctionCode selects the fileserver operation a request asks for.
type FunctionCode uint8

const (
	// Command line and whole-file transfer
	FcCommandLine FunctionCode = 0x00 // *command text in the payload
	FcSave        FunctionCode = 0x01
	FcLoad        FunctionCode = 0x02
	FcExamine     FunctionCode = 0x03
	FcCatHeader   FunctionCode = 0x04
	FcLoadCommand FunctionCode = 0x05

	// Open files and random access
	FcOpen                 FunctionCode = 0x06
	FcClose                FunctionCode = 0x07
	FcGetByte              FunctionCode = 0x08
	FcPutByte              FunctionCode = 0x09
	FcGetBytes             FunctionCode = 0x0a
	FcPutBytes             FunctionCode = 0x0b
	FcReadRandomAccessInfo FunctionCode = 0x0c
	FcSetRandomAccessInfo  FunctionCode = 0x0d

	// Server and object information
	FcReadDiscName   FunctionCode = 0x0e
	FcWho            FunctionCode = 0x0f
	FcReadDateTime   FunctionCode = 0x10
	FcReadEOF        FunctionCode = 0x11
	FcReadObjectInfo FunctionCode = 0x12
	FcSetObjectInfo  FunctionCode = 0x13
	FcDeleteObject   FunctionCode = 0x14
	FcReadUserEnv    FunctionCode = 0x15
	FcSetBootOption  FunctionCode = 0x16
	FcLogoff         FunctionCode = 0x17
	FcReadUserInfo   FunctionCode = 0x18
	FcReadFSVersion  FunctionCode = 0x19
	FcReadFreeSpace  FunctionCode = 0x1a
	FcMkdir          FunctionCode = 0x1b
	FcSetDateTime    FunctionCode = 0x1c
	FcCreateFile     FunctionCode = 0x1d

	// Acorn extensions
	FcReadUserFreeSpace FunctionCode = 0x1e
	FcSetUserFreeSpace  FunctionCode = 0x1f
	FcReadClientUserID  FunctionCode = 0x20

	// NumFunctionCodes is the number of defined codes; valid codes are
	// 0..NumFunctionCodes-1.
	NumFunctionCodes = 33
)

var functionNames = [NumFunctionCodes]string{
	"CommandLine",
	"Save",
	"Load",
	"Examine",
	"CatHeader",
	"LoadCommand",
	"Open",
	"Close",
	"GetByte",
	"PutByte",
	"GetBytes",
	"PutBytes",
	"ReadRandomAccessInfo",
	"SetRandomAccessInfo",
	"ReadDiscName",
	"Who",
	"ReadDateTime",
	"ReadEOF",
	"ReadObjectInfo",
	"SetObjectInfo",
	"DeleteObject",
	"ReadUserEnv",
	"SetBootOption",
	"Logoff",
	"ReadUserInfo",
	"ReadFSVersion",
	"ReadFreeSpace",
	"Mkdir",
	"SetDateTime",
	"CreateFile",
	"ReadUserFreeSpace",
	"SetUserFreeSpace",
	"ReadClientUserID",
}

// IsKnown reports whether fc is a defined function code.
func (fc FunctionCode) IsKnown() bool {
	return fc < NumFunctionCodes
}

// String returns a human-readable name for the function code.
func (fc FunctionCode) String() string {
	if !fc.IsKnown() {
		return "Unknown"
	}
	return functionNames[fc]
}
