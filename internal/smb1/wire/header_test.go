package wire

import "testing"

func TestParseHeader(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		wantErr bool
	}{
		{
			name:    "TooShort",
			data:    make([]byte, HeaderSize-1),
			wantErr: true,
		},
		{
			name: "InvalidProtocolID",
			data: func() []byte {
				d := make([]byte, HeaderSize)
				d[0], d[1], d[2], d[3] = 0xFE, 'S', 'M', 'B' // SMB2 magic
				return d
			}(),
			wantErr: true,
		},
		{
			name: "ValidNegotiateRequest",
			data: func() []byte {
				d := make([]byte, HeaderSize)
				d[0], d[1], d[2], d[3] = 0xFF, 'S', 'M', 'B'
				d[4] = byte(CmdNegotiate)
				return d
			}(),
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseHeader(tt.data)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseHeader() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if got.Command != CmdNegotiate {
				t.Errorf("Command = %v, want %v", got.Command, CmdNegotiate)
			}
		})
	}
}

func TestHeaderEncodeRoundTrip(t *testing.T) {
	h := &Header{
		Command: CmdReadANDX,
		Status:  0,
		Flags:   FlagReply,
		Flags2:  Flags2Unicode | Flags2NTStatus,
		TID:     7,
		PIDLow:  11,
		UID:     3,
		MID:     42,
	}
	h.Signature = [8]byte{1, 2, 3, 4, 5, 6, 7, 8}

	encoded := h.Encode()
	if len(encoded) != HeaderSize {
		t.Fatalf("Encode() length = %d, want %d", len(encoded), HeaderSize)
	}

	decoded, err := ParseHeader(encoded)
	if err != nil {
		t.Fatalf("ParseHeader() error = %v", err)
	}

	if decoded.Command != h.Command {
		t.Errorf("Command round-trip: got %v, want %v", decoded.Command, h.Command)
	}
	if decoded.Flags != h.Flags {
		t.Errorf("Flags round-trip: got %v, want %v", decoded.Flags, h.Flags)
	}
	if decoded.Flags2 != h.Flags2 {
		t.Errorf("Flags2 round-trip: got %v, want %v", decoded.Flags2, h.Flags2)
	}
	if decoded.TID != h.TID || decoded.UID != h.UID || decoded.MID != h.MID {
		t.Errorf("ID fields round-trip mismatch: got %+v, want %+v", decoded, h)
	}
	if decoded.Signature != h.Signature {
		t.Errorf("Signature round-trip: got %v, want %v", decoded.Signature, h.Signature)
	}
}

func TestNewResponseHeader(t *testing.T) {
	req := &Header{
		Command: CmdNTCreateANDX,
		TID:     5,
		PIDLow:  100,
		UID:     12345,
		MID:     9,
	}

	resp := NewResponseHeader(req, 0xC0000022)

	if resp.Command != req.Command {
		t.Errorf("Command not copied: got %v, want %v", resp.Command, req.Command)
	}
	if resp.TID != req.TID || resp.UID != req.UID || resp.MID != req.MID {
		t.Errorf("ID fields not copied from request: got %+v", resp)
	}
	if !resp.IsReply() {
		t.Error("response header must set the reply flag")
	}
	if !resp.IsUnicode() {
		t.Error("response header must set the unicode flag")
	}
	if resp.Status != 0xC0000022 {
		t.Errorf("Status = %#x, want %#x", resp.Status, 0xC0000022)
	}
}

func TestPadToAlign(t *testing.T) {
	tests := []struct {
		offset int
		want   int
	}{
		{0, 0},
		{1, 1},
		{2, 0},
		{3, 1},
		{60, 0},
		{61, 1},
	}
	for _, tt := range tests {
		if got := PadToAlign(tt.offset, 2); got != tt.want {
			t.Errorf("PadToAlign(%d, 2) = %d, want %d", tt.offset, got, tt.want)
		}
	}
}

func TestSMBTimeRoundTrip(t *testing.T) {
	// Any millisecond-resolution epoch timestamp must round-trip exactly.
	cases := []int64{0, 1, 1_700_000_000_000, 1_000}
	for _, ms := range cases {
		ticks := SystemToSMBTime(ms)
		got := SMBToSystemTime(ticks)
		if got != ms {
			t.Errorf("round-trip(%d) = %d, want %d", ms, got, ms)
		}
	}
}
