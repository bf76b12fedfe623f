package wire

import "fmt"

// Header is the fixed 32-byte SMB1 message header.
//
//	Offset  Size  Field
//	0       4     Protocol ("\xFFSMB")
//	4       1     Command
//	5       4     Status (NTSTATUS when flags2.NTStatus is set)
//	9       1     Flags
//	10      2     Flags2
//	12      2     PIDHigh
//	14      8     SecuritySignature
//	22      2     Reserved
//	24      2     TID
//	26      2     PIDLow
//	28      2     UID
//	30      2     MID
type Header struct {
	Command   CommandID
	Status    uint32
	Flags     uint8
	Flags2    uint16
	PIDHigh   uint16
	Signature [8]byte
	TID       uint16
	PIDLow    uint16
	UID       uint16
	MID       uint16
}

// IsReply reports whether the response flag is set.
func (h *Header) IsReply() bool { return h.Flags&FlagReply != 0 }

// IsUnicode reports whether flags2.Unicode is set.
func (h *Header) IsUnicode() bool { return h.Flags2&Flags2Unicode != 0 }

// ParseHeader decodes the 32-byte fixed header starting at buf[0]. The
// caller must have already validated buf is at least HeaderSize long.
func ParseHeader(buf []byte) (*Header, error) {
	if len(buf) < HeaderSize {
		return nil, fmt.Errorf("smb1: header truncated: %d bytes", len(buf))
	}
	if readU32LE(buf, 0) != ProtocolID {
		return nil, fmt.Errorf("smb1: bad protocol magic %#x", readU32LE(buf, 0))
	}

	h := &Header{
		Command: CommandID(readU8(buf, 4)),
		Status:  readU32LE(buf, 5),
		Flags:   readU8(buf, 9),
		Flags2:  readU16LE(buf, 10),
		PIDHigh: readU16LE(buf, 12),
		TID:     readU16LE(buf, 24),
		PIDLow:  readU16LE(buf, 26),
		UID:     readU16LE(buf, 28),
		MID:     readU16LE(buf, 30),
	}
	copy(h.Signature[:], buf[14:22])
	return h, nil
}

// Encode serialises the header into a fresh HeaderSize-byte buffer.
func (h *Header) Encode() []byte {
	buf := make([]byte, HeaderSize)
	putU32LE(buf, 0, ProtocolID)
	buf[4] = byte(h.Command)
	putU32LE(buf, 5, h.Status)
	buf[9] = h.Flags
	putU16LE(buf, 10, h.Flags2)
	putU16LE(buf, 12, h.PIDHigh)
	copy(buf[14:22], h.Signature[:])
	// bytes 22-23 reserved, left zero
	putU16LE(buf, 24, h.TID)
	putU16LE(buf, 26, h.PIDLow)
	putU16LE(buf, 28, h.UID)
	putU16LE(buf, 30, h.MID)
	return buf
}

// NewResponseHeader builds the header for a reply to req: reply, NT
// status, unicode and long-pathnames-supported are always set on
// generated replies.
func NewResponseHeader(req *Header, status uint32) *Header {
	return &Header{
		Command: req.Command,
		Status:  status,
		Flags:   FlagReply,
		Flags2:  Flags2NTStatus | Flags2Unicode | Flags2LongNames,
		TID:     req.TID,
		PIDLow:  req.PIDLow,
		PIDHigh: req.PIDHigh,
		UID:     req.UID,
		MID:     req.MID,
	}
}
