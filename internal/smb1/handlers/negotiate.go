// Package handlers implements the SMB1 command handlers the dispatch table
// wires up: NEGOTIATE, SESSION_SETUP_ANDX, TREE_CONNECT_ANDX,
// NT_CREATE_ANDX, READ_ANDX, WRITE_ANDX, CLOSE, DELETE, the TRANS2
// sub-commands, LOCKING_ANDX and TRANS.
package handlers

import (
	"context"

	"github.com/rangeshare/smb1d/internal/smb1/dispatch"
	"github.com/rangeshare/smb1d/internal/smb1/ntlm"
	"github.com/rangeshare/smb1d/internal/smb1/status"
	"github.com/rangeshare/smb1d/internal/smb1/wire"
)

// dialectNT is "NT LM 0.12", the only dialect this server negotiates.
const dialectNT = "NT LM 0.12"

// NEGOTIATE response capability bits. This server advertises capUnicode,
// capLargeFiles, capNTSMBs, capStatus32, capNTFind and capExtendedSecurity.
const (
	capRawMode          uint32 = 0x00000001
	capNTSMBs           uint32 = 0x00000010
	capRPCRemoteAPIs    uint32 = 0x00000020
	capStatus32         uint32 = 0x00000040
	capLevel2Oplocks    uint32 = 0x00000080
	capNTFind           uint32 = 0x00000200
	capLargeFiles       uint32 = 0x00000008
	capUnicode          uint32 = 0x00000004
	capExtendedSecurity uint32 = 0x80000000
)

// Negotiate handles SMB_COM_NEGOTIATE. The request's dialect list is a
// sequence of null-terminated ASCII strings in Data; this server always
// selects "NT LM 0.12" if offered, since it is the only dialect it speaks.
func Negotiate(serverGUID [16]byte, maxBufferSize uint32) dispatch.Handler {
	return func(ctx context.Context, req *wire.Message, cmd *wire.Command, conn *dispatch.Connection, srv *dispatch.Server, done dispatch.Continuation) {
		dialects := parseDialects(cmd.Data)
		index := -1
		for i, d := range dialects {
			if d == dialectNT {
				index = i
				break
			}
		}
		if index < 0 {
			done(dispatch.Result{Processed: true, Status: status.NotImplemented})
			return
		}

		params := make([]byte, 2+8+4+4+4+4+4+4+2+2+2+8)
		off := 0
		wire.PutU16LE(params, off, uint16(index))
		off += 2
		params[off] = 0x03 // security mode: user-level + challenge/response
		off++
		wire.PutU16LE(params, off, 1) // max mpx count
		off += 2
		wire.PutU16LE(params, off, 1) // max vcs
		off += 2
		wire.PutU32LE(params, off, maxBufferSize)
		off += 4
		wire.PutU32LE(params, off, 0) // max raw size
		off += 4
		wire.PutU32LE(params, off, 0) // session key
		off += 4
		wire.PutU32LE(params, off, capUnicode|capLargeFiles|capNTSMBs|capStatus32|capNTFind|capExtendedSecurity)
		off += 4
		wire.PutU32LE(params, off, 0) // system time low
		off += 4
		wire.PutU32LE(params, off, 0) // system time high
		off += 4
		wire.PutU16LE(params, off, 0) // server time zone
		off += 2
		params[off] = 16 // challenge/GUID length
		off++

		data := make([]byte, 16)
		copy(data, serverGUID[:])

		done(dispatch.Result{Processed: true, Status: status.Success, Params: params[:off], Data: data})
	}
}

func parseDialects(data []byte) []string {
	var out []string
	off := 0
	for off < len(data) {
		if data[off] != 0x02 { // buffer format: dialect string
			break
		}
		off++
		start := off
		for off < len(data) && data[off] != 0 {
			off++
		}
		out = append(out, string(data[start:off]))
		off++ // skip NUL
	}
	return out
}

// newServerChallenge is a thin wrapper kept so handlers never import
// crypto/rand directly; never repeating a challenge across connections is
// the ntlm package's contract to uphold, not this caller's.
func newServerChallenge() ([8]byte, error) {
	return ntlm.GenerateServerChallenge()
}
