package wire

import "testing"

// buildCommandBytes lays out one command's wire bytes: wordCount, params,
// byteCount, data. andXNext/andXOffset are written into params[0:4] when
// hasAndX is true, as decodeCommand expects.
func buildCommandBytes(hasAndX bool, andXNext CommandID, andXOffset uint16, extraParams, data []byte) []byte {
	var params []byte
	if hasAndX {
		params = make([]byte, 4+len(extraParams))
		params[0] = byte(andXNext)
		params[1] = 0
		putU16LE(params, 2, andXOffset)
		copy(params[4:], extraParams)
	} else {
		params = extraParams
	}

	buf := make([]byte, 0, 1+len(params)+2+len(data))
	buf = append(buf, byte(len(params)/2))
	buf = append(buf, params...)
	bc := make([]byte, 2)
	putU16LE(bc, 0, uint16(len(data)))
	buf = append(buf, bc...)
	buf = append(buf, data...)
	return buf
}

// buildChain assembles a full message: header with Command set to the
// first command's id, followed by each command's bytes, patching AndX
// offsets to their actual positions.
func buildChain(t *testing.T, ids []CommandID) []byte {
	t.Helper()

	hdr := &Header{Command: ids[0], Flags2: Flags2Unicode}
	msg := hdr.Encode()

	type frag struct {
		hasAndX bool
		next    CommandID
	}
	frags := make([]frag, len(ids))
	for i := range ids {
		frags[i] = frag{hasAndX: isAndX(ids[i]) && i < len(ids)-1, next: NoFurtherCommands}
		if i < len(ids)-1 {
			frags[i].next = ids[i+1]
		}
	}

	// First pass: build with placeholder offsets, to learn each command's
	// start position; second pass patches the real nextOffset.
	starts := make([]int, len(ids))
	body := []byte{}
	for i, f := range frags {
		starts[i] = len(msg) + len(body)
		body = append(body, buildCommandBytes(isAndX(ids[i]) && i < len(ids)-1, f.next, 0, nil, nil)...)
	}

	full := append(append([]byte{}, msg...), body...)

	// Patch nextOffset fields now that absolute positions are known.
	for i := range ids {
		if !(isAndX(ids[i]) && i < len(ids)-1) {
			continue
		}
		paramsAt := starts[i] + 1
		putU16LE(full[paramsAt+2:], 0, uint16(starts[i+1]))
	}

	return full
}

func TestDecodeAndXChainRoundTrip(t *testing.T) {
	ids := []CommandID{CmdSessionSetupANDX, CmdTreeConnectANDX}
	buf := buildChain(t, ids)

	msg, err := Decode(buf)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(msg.Commands) != len(ids) {
		t.Fatalf("Commands = %d, want %d", len(msg.Commands), len(ids))
	}
	for i, cmd := range msg.Commands {
		if cmd.ID != ids[i] {
			t.Errorf("Commands[%d].ID = %v, want %v", i, cmd.ID, ids[i])
		}
	}

	re := Encode(msg)
	redecoded, err := Decode(re)
	if err != nil {
		t.Fatalf("re-Decode() error = %v", err)
	}
	if len(redecoded.Commands) != len(ids) {
		t.Fatalf("re-decoded Commands = %d, want %d", len(redecoded.Commands), len(ids))
	}
	for i, cmd := range redecoded.Commands {
		if cmd.ID != ids[i] {
			t.Errorf("re-decoded Commands[%d].ID = %v, want %v", i, cmd.ID, ids[i])
		}
	}
}

func TestDecodeSingleNegotiate(t *testing.T) {
	buf := buildChain(t, []CommandID{CmdNegotiate})
	msg, err := Decode(buf)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(msg.Commands) != 1 {
		t.Fatalf("Commands = %d, want 1", len(msg.Commands))
	}
	if msg.Commands[0].ID != CmdNegotiate {
		t.Errorf("Commands[0].ID = %v, want %v", msg.Commands[0].ID, CmdNegotiate)
	}
}

func TestDecodeRejectsBadMagic(t *testing.T) {
	buf := make([]byte, MinMessageLength)
	buf[0] = 0x00
	if _, err := Decode(buf); err == nil {
		t.Error("Decode() should reject a buffer without the SMB1 magic")
	}
}

func TestDecodeRejectsTooShort(t *testing.T) {
	if _, err := Decode(make([]byte, MinMessageLength-1)); err == nil {
		t.Error("Decode() should reject an under-length buffer")
	}
}
