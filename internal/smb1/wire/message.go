package wire

import "fmt"

// Command is one decoded SMB1 command, possibly part of an AndX chain.
// ParamsOffset and DataOffset are absolute offsets (from the start of the
// header) of Params and Data within the original message buffer; handlers
// that must 2-byte-align embedded UTF-16LE strings use these.
type Command struct {
	ID           CommandID
	WordCount    uint8
	Params       []byte
	ByteCount    uint16
	Data         []byte
	ParamsOffset uint32
	DataOffset   uint32

	// andX is true when this command participates in AndX chaining; it is
	// recorded at decode time so Encode knows whether to patch a
	// nextOffset field into Params[2:4].
	andX bool
}

// Message is a fully decoded SMB1 request or response: a header plus the
// ordered list of AndX-chained commands it carries.
type Message struct {
	Header    *Header
	Commands  []*Command
	Processed bool
}

// Decode parses a raw SMB1 message buffer into a Message. It validates the
// overall length, the protocol magic (via ParseHeader) and walks the AndX
// chain starting at HeaderSize.
func Decode(buf []byte) (*Message, error) {
	if len(buf) < MinMessageLength {
		return nil, fmt.Errorf("smb1: message too short: %d bytes", len(buf))
	}

	hdr, err := ParseHeader(buf)
	if err != nil {
		return nil, err
	}

	msg := &Message{Header: hdr}

	off := HeaderSize
	cmdID := hdr.Command
	for i := 0; ; i++ {
		if i >= MaxAndXChainLength {
			return nil, fmt.Errorf("smb1: AndX chain exceeds %d commands", MaxAndXChainLength)
		}
		if off >= len(buf) {
			return nil, fmt.Errorf("smb1: command at offset %d out of range", off)
		}

		cmd, consumed, err := decodeCommand(buf, off, cmdID)
		if err != nil {
			return nil, err
		}
		msg.Commands = append(msg.Commands, cmd)

		if !cmd.andX {
			break
		}

		nextID := CommandID(cmd.Params[0])
		if nextID == NoFurtherCommands {
			break
		}
		nextOffset := int(readU16LE(cmd.Params, 2))
		if nextOffset <= off || nextOffset >= len(buf) {
			// A non-advancing or out-of-range nextOffset would loop or
			// read out of bounds; treat the chain as terminated.
			break
		}
		off = nextOffset
		cmdID = nextID
		_ = consumed
	}

	if len(msg.Commands) == 0 {
		return nil, fmt.Errorf("smb1: message carries no commands")
	}

	return msg, nil
}

func decodeCommand(buf []byte, off int, id CommandID) (*Command, int, error) {
	start := off
	if off >= len(buf) {
		return nil, 0, fmt.Errorf("smb1: wordCount out of range at %d", off)
	}
	wordCount := readU8(buf, off)
	off++

	paramsLen := int(wordCount) * 2
	if off+paramsLen > len(buf) {
		return nil, 0, fmt.Errorf("smb1: params out of range at %d (wordCount=%d)", off, wordCount)
	}
	params := buf[off : off+paramsLen]
	paramsOffset := off
	off += paramsLen

	if off+2 > len(buf) {
		return nil, 0, fmt.Errorf("smb1: byteCount out of range at %d", off)
	}
	byteCount := readU16LE(buf, off)
	off += 2

	if off+int(byteCount) > len(buf) {
		return nil, 0, fmt.Errorf("smb1: data out of range at %d (byteCount=%d)", off, byteCount)
	}
	data := buf[off : off+int(byteCount)]
	dataOffset := off
	off += int(byteCount)

	cmd := &Command{
		ID:           id,
		WordCount:    wordCount,
		Params:       params,
		ByteCount:    byteCount,
		Data:         data,
		ParamsOffset: uint32(paramsOffset),
		DataOffset:   uint32(dataOffset),
		andX:         isAndX(id) && paramsLen >= 4,
	}
	return cmd, off - start, nil
}

// Encode serialises the header followed by each command in order, patching
// each non-final AndX command's next-command byte and nextOffset field to
// the command that follows it and its absolute start; a final AndX command
// gets next-command 0xFF. A command is patched when it was decoded as AndX
// or its ID is an AndX command and its Params hold the 4-byte AndX prefix,
// so replies built by dispatch.Dispatch are chained too. WordCount and ByteCount are always derived
// from len(Params)/2 and len(Data) rather than trusted from the Command
// struct, since reply commands built by dispatch.Dispatch never populate
// those fields themselves.
func Encode(msg *Message) []byte {
	buf := append([]byte{}, msg.Header.Encode()...)

	cmdStarts := make([]int, len(msg.Commands))
	for i, cmd := range msg.Commands {
		cmdStarts[i] = len(buf)

		buf = append(buf, byte(len(cmd.Params)/2))
		buf = append(buf, cmd.Params...)

		bc := make([]byte, 2)
		putU16LE(bc, 0, uint16(len(cmd.Data)))
		buf = append(buf, bc...)
		buf = append(buf, cmd.Data...)
	}

	for i, cmd := range msg.Commands {
		if !(cmd.andX || isAndX(cmd.ID)) || len(cmd.Params) < 4 {
			continue
		}
		// Params live right after the 1-byte wordCount field.
		paramsAt := cmdStarts[i] + 1
		if i == len(msg.Commands)-1 {
			buf[paramsAt] = byte(NoFurtherCommands)
			continue
		}
		nextStart := cmdStarts[i+1]
		buf[paramsAt] = byte(msg.Commands[i+1].ID)
		putU16LE(buf[paramsAt+2:], 0, uint16(nextStart))
	}

	return buf
}
