// Package transport owns the TCP listener, NetBIOS Session Service framing,
// and the per-connection read/dispatch/write loop: SMB1 as the primary
// protocol this server speaks, start to finish, rather than a legacy
// upgrade trigger for something else.
package transport

import (
	"fmt"
	"io"
	"net"
)

// NetBIOS Session Service message types ([RFC 1002] 4.3.1). This server
// only ever produces and expects sessionMessage; the others belong to the
// session-establishment handshake direct-TCP implementations skip.
const (
	sessionMessage uint8 = 0x00
)

// maxNetBIOSLength is the largest length the 3-byte big-endian length field
// can encode (24 bits). RFC 1002's 17-bit length with its extension bit is
// not used; all three bytes are read as the length.
const maxNetBIOSLength = 1<<24 - 1

// ReadFrame reads one NetBIOS Session Service frame from conn: a 4-byte
// header (1-byte type, 3-byte big-endian length) followed by that many
// bytes of payload. maxMessageSize bounds the payload length.
func ReadFrame(r io.Reader, maxMessageSize uint32) ([]byte, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, err
	}

	length := uint32(hdr[1])<<16 | uint32(hdr[2])<<8 | uint32(hdr[3])
	if hdr[0] != sessionMessage {
		return nil, fmt.Errorf("transport: unsupported NetBIOS session packet type 0x%02X", hdr[0])
	}
	if length > maxMessageSize {
		return nil, fmt.Errorf("transport: frame length %d exceeds max %d", length, maxMessageSize)
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// WriteFrame writes payload as one NetBIOS Session Service message.
func WriteFrame(w io.Writer, payload []byte) error {
	if len(payload) > maxNetBIOSLength {
		return fmt.Errorf("transport: payload length %d exceeds NetBIOS frame limit", len(payload))
	}
	var hdr [4]byte
	hdr[0] = sessionMessage
	hdr[1] = byte(len(payload) >> 16)
	hdr[2] = byte(len(payload) >> 8)
	hdr[3] = byte(len(payload))
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

// isTemporaryNetError reports whether err is a recoverable, transient
// network condition rather than a hard connection failure.
func isTemporaryNetError(err error) bool {
	var ne net.Error
	if ok := asNetError(err, &ne); ok {
		return ne.Timeout()
	}
	return false
}

func asNetError(err error, target *net.Error) bool {
	ne, ok := err.(net.Error)
	if ok {
		*target = ne
	}
	return ok
}
