package ntlm

import (
	"crypto/rand"
	"encoding/binary"
	"time"
	"unicode/utf16"
)

// AvID identifies an AV_PAIR entry in an NTLMv2 target-info blob.
type AvID uint16

const (
	AvEOL           AvID = 0x0000
	AvNbComputerName AvID = 0x0001
	AvNbDomainName   AvID = 0x0002
	AvDnsComputerName AvID = 0x0003
	AvDnsDomainName  AvID = 0x0004
	AvTimestamp      AvID = 0x0007
)

// blobSignature is the fixed NTLMv2 blob signature, 0x00000101 read
// little-endian as bytes 01 01 00 00.
var blobSignature = [4]byte{0x01, 0x01, 0x00, 0x00}

// ntlmEpoch mirrors wire.SystemToSMBTime's epoch; duplicated here (rather
// than imported) to keep the ntlm package free of a dependency on wire.
var ntlmEpoch = time.Date(1601, 1, 1, 0, 0, 0, 0, time.UTC)

// Blob is a parsed NTLMv2 "temp" / target-info blob.
type Blob struct {
	Timestamp     uint64 // 100-ns ticks since 1601-01-01 UTC
	ClientNonce   [8]byte
	TargetInfo    []AvPair
	TargetInfoRaw []byte // re-serialisable target-info, including the terminator
}

// AvPair is one (type, value) entry from a target-info blob.
type AvPair struct {
	ID    AvID
	Value []byte
}

// BuildTargetInfo constructs a minimal target-info list naming hostname as
// both the NetBIOS computer and domain name, terminated by AvEOL.
func BuildTargetInfo(hostname string) []byte {
	var buf []byte
	buf = append(buf, avPairBytes(AvNbComputerName, hostname)...)
	buf = append(buf, avPairBytes(AvNbDomainName, hostname)...)
	buf = append(buf, avPairBytes(AvEOL, "")...)
	return buf
}

func avPairBytes(id AvID, s string) []byte {
	u16 := utf16.Encode([]rune(s))
	val := make([]byte, len(u16)*2)
	for i, v := range u16 {
		binary.LittleEndian.PutUint16(val[i*2:i*2+2], v)
	}
	out := make([]byte, 4+len(val))
	binary.LittleEndian.PutUint16(out[0:2], uint16(id))
	binary.LittleEndian.PutUint16(out[2:4], uint16(len(val)))
	copy(out[4:], val)
	return out
}

// BuildBlob serialises a full NTLMv2 blob: signature, reserved, timestamp,
// clientNonce, unknown, target-info, trailing unknown2.
func BuildBlob(timestamp uint64, clientNonce [8]byte, targetInfo []byte) []byte {
	buf := make([]byte, 0, 28+len(targetInfo)+4)
	buf = append(buf, blobSignature[:]...)
	buf = append(buf, 0, 0, 0, 0) // reserved
	ts := make([]byte, 8)
	binary.LittleEndian.PutUint64(ts, timestamp)
	buf = append(buf, ts...)
	buf = append(buf, clientNonce[:]...)
	buf = append(buf, 0, 0, 0, 0) // unknown
	buf = append(buf, targetInfo...)
	buf = append(buf, 0, 0, 0, 0) // unknown2
	return buf
}

// ParseBlob decodes an NTLMv2 blob; it does not validate the signature
// strictly (some clients vary non-essential reserved fields) but requires
// enough bytes for the fixed-size prefix.
func ParseBlob(buf []byte) (*Blob, error) {
	const fixedPrefix = 4 + 4 + 8 + 8 + 4 // signature, reserved, ts, nonce, unknown
	if len(buf) < fixedPrefix+4 {         // +4 for at minimum an AvEOL terminator
		return nil, errShortBlob
	}

	b := &Blob{
		Timestamp: binary.LittleEndian.Uint64(buf[8:16]),
	}
	copy(b.ClientNonce[:], buf[16:24])

	rest := buf[28:]
	pairs, consumed, err := parseAvPairs(rest)
	if err != nil {
		return nil, err
	}
	b.TargetInfo = pairs
	b.TargetInfoRaw = rest[:consumed]
	return b, nil
}

func parseAvPairs(buf []byte) ([]AvPair, int, error) {
	var pairs []AvPair
	off := 0
	for {
		if off+4 > len(buf) {
			return nil, 0, errShortBlob
		}
		id := AvID(binary.LittleEndian.Uint16(buf[off : off+2]))
		l := int(binary.LittleEndian.Uint16(buf[off+2 : off+4]))
		off += 4
		if off+l > len(buf) {
			return nil, 0, errShortBlob
		}
		value := buf[off : off+l]
		off += l

		if id == AvEOL && l == 0 {
			return pairs, off, nil
		}
		pairs = append(pairs, AvPair{ID: id, Value: append([]byte{}, value...)})
	}
}

type blobError string

func (e blobError) Error() string { return string(e) }

const errShortBlob blobError = "ntlm: target-info blob truncated"

// NowAsSMBTimestamp returns the current time as 100-ns ticks since
// 1601-01-01 UTC, the unit NTLMv2 blobs embed.
func NowAsSMBTimestamp() uint64 {
	return uint64(time.Now().UnixNano()/100 - ntlmEpoch.Unix()*10_000_000)
}

// GenerateServerChallenge returns a fresh cryptographically random 8-byte
// challenge. It must never repeat across connections.
func GenerateServerChallenge() ([8]byte, error) {
	var c [8]byte
	_, err := rand.Read(c[:])
	return c, err
}
