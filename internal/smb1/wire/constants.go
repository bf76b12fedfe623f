// Package wire implements CIFS/SMB 1.0 message framing: the fixed 32-byte
// header, AndX command chaining, and the binary primitives the command
// handlers build on.
//
// Reference: [MS-CIFS] 2.2 Message Syntax; [MS-SMB] 2.2.
package wire

// ProtocolID is the 4-byte SMB1 magic, little-endian 0xFF 'S' 'M' 'B'.
const ProtocolID uint32 = 0x424D53FF

const (
	// HeaderSize is the fixed SMB1 header length in bytes.
	HeaderSize = 32

	// MinMessageLength is the smallest legal SMB1 message: a 32-byte header
	// plus a zero WordCount and zero ByteCount field.
	MinMessageLength = 35

	// MaxAndXChainLength bounds AndX chain walking against malformed input
	// that loops or points forward indefinitely.
	MaxAndXChainLength = 32
)

// CommandID identifies an SMB1 command.
type CommandID uint8

const (
	CmdCreateDirectory    CommandID = 0x00
	CmdDeleteDirectory    CommandID = 0x01
	CmdClose              CommandID = 0x04
	CmdDelete             CommandID = 0x06
	CmdRename             CommandID = 0x07
	CmdQueryInformation   CommandID = 0x08
	CmdSetInformation     CommandID = 0x09
	CmdLockingANDX        CommandID = 0x24
	CmdTransaction        CommandID = 0x25
	CmdTrans2             CommandID = 0x32
	CmdNegotiate          CommandID = 0x72
	CmdSessionSetupANDX   CommandID = 0x73
	CmdLogoffANDX         CommandID = 0x74
	CmdTreeConnectANDX    CommandID = 0x75
	CmdTreeDisconnect     CommandID = 0x71
	CmdEcho               CommandID = 0x2B
	CmdReadANDX           CommandID = 0x2E
	CmdWriteANDX          CommandID = 0x2F
	CmdNTCreateANDX       CommandID = 0xA2
	NoFurtherCommands     CommandID = 0xFF
)

// Trans2SubCommand identifies a TRANS2 sub-command carried in Setup[0].
type Trans2SubCommand uint16

const (
	Trans2FindFirst2         Trans2SubCommand = 0x0001
	Trans2FindNext2          Trans2SubCommand = 0x0002
	Trans2QueryPathInfo      Trans2SubCommand = 0x0005
	Trans2SetPathInfo        Trans2SubCommand = 0x0006
	Trans2QueryFileInfo      Trans2SubCommand = 0x0007
	Trans2SetFileInfo        Trans2SubCommand = 0x0008
)

// NT-passthrough TRANS2_SET_FILE_INFORMATION information levels. Only these
// and higher are implemented; anything below is STATUS_NOT_SUPPORTED.
const (
	InfoPassthrough               = 0x03E8
	FileDispositionInformation    = InfoPassthrough + 13 // 0x03F5
	FileEndOfFileInformation      = InfoPassthrough + 20 // 0x03FC
	FileAllocationInformation     = InfoPassthrough + 19 // 0x03FB
	FileRenameInformation         = InfoPassthrough + 10 // 0x03F2
)

// isAndX reports whether a command participates in AndX chaining.
func isAndX(id CommandID) bool {
	switch id {
	case CmdSessionSetupANDX, CmdLogoffANDX, CmdTreeConnectANDX,
		CmdLockingANDX, CmdReadANDX, CmdWriteANDX, CmdNTCreateANDX:
		return true
	default:
		return false
	}
}

// Header flags (byte 9 of the header).
const (
	FlagReply uint8 = 0x80
)

// Header flags2 (bytes 10-11, little-endian).
const (
	Flags2LongNames    uint16 = 0x0001
	Flags2NTStatus     uint16 = 0x4000
	Flags2Unicode      uint16 = 0x8000
)

// NT_CREATE_ANDX constants.
const (
	NTCreateOpBatch           uint32 = 0x00000004
	NTCreateExtendedResponse  uint32 = 0x00000010
	FileDirectoryFile         uint32 = 0x00000001

	FileTypeDisk             uint16 = 0x0000
	FileTypeMessageModePipe  uint16 = 0x0005

	FileStatusNoEAs         uint32 = 0x00000001
	FileStatusNoSubstreams  uint32 = 0x00000002
	FileStatusNoReparseTag  uint32 = 0x00000004

	// NTCreateMaxWordCount is the Samba/Windows-interop clamp: a response
	// param buffer whose word count would exceed this is truncated to it.
	NTCreateMaxWordCount uint8 = 0x2a
)

// READ_ANDX constants.
const (
	ReadDataOffset uint16 = 60
)
