package handlers

import (
	"context"

	"github.com/rangeshare/smb1d/internal/smb1/dispatch"
	"github.com/rangeshare/smb1d/internal/smb1/status"
	"github.com/rangeshare/smb1d/internal/smb1/wire"
)

// READ_ANDX request parameter offsets, relative to the 4-byte AndX header.
const (
	readFID       = 0
	readOffset    = 2
	readMaxCount  = 6
	readOffsetHi  = 16
)

// ReadAndX handles SMB_COM_READ_ANDX. The response always places the data
// at DATA_OFFSET=60 from the start of the SMB header: a fixed convention
// this server relies on rather than computing it dynamically, since every
// READ_ANDX response has the same 24-byte param block after a 32-byte
// header plus 4-byte AndX prefix.
func ReadAndX() dispatch.Handler {
	return func(ctx context.Context, req *wire.Message, cmd *wire.Command, conn *dispatch.Connection, srv *dispatch.Server, done dispatch.Continuation) {
		p := cmd.Params
		if len(p) < 4+10 {
			done(dispatch.Result{Processed: true, Status: status.InvalidParameter})
			return
		}
		base := 4
		fid := wire.ReadU16LE(p, base+readFID)
		offsetLo := wire.ReadU32LE(p, base+readOffset)
		maxCount := wire.ReadU16LE(p, base+readMaxCount)
		var offsetHi uint32
		if len(p) >= base+readOffsetHi+4 {
			offsetHi = wire.ReadU32LE(p, base+readOffsetHi)
		}
		pos := int64(offsetHi)<<32 | int64(offsetLo)

		of, ok := conn.State.File(fid)
		if !ok {
			done(dispatch.Result{Processed: true, Status: status.SMBBadFID})
			return
		}

		buf := make([]byte, maxCount)
		n, err := of.File.Read(ctx, buf, pos)
		if err != nil && n == 0 {
			done(dispatch.Result{Processed: true, Status: status.FromError(err)})
			return
		}
		buf = buf[:n]

		const paramLen = 20
		params := make([]byte, 4+paramLen)
		off := 4
		wire.PutU16LE(params, off, 0xFFFF) // available (unknown)
		off += 2
		wire.PutU16LE(params, off, 0) // data compaction mode
		off += 2
		off += 2 // reserved
		wire.PutU16LE(params, off, uint16(n))
		off += 2
		wire.PutU16LE(params, off, wire.ReadDataOffset)
		off += 2
		wire.PutU16LE(params, off, uint16(n>>16)) // DataLengthHigh; the 8 reserved bytes after it stay zero

		// DataOffset (wire.ReadDataOffset) assumes a 1-byte pad before the
		// payload, aligning it to the fixed 60-byte offset every READ_ANDX
		// response uses.
		data := make([]byte, 1+len(buf))
		copy(data[1:], buf)

		done(dispatch.Result{Processed: true, Status: status.Success, Params: params, Data: data})
	}
}
