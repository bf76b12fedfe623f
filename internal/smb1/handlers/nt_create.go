package handlers

import (
	"context"

	"github.com/rangeshare/smb1d/internal/smb1/backend"
	"github.com/rangeshare/smb1d/internal/smb1/dispatch"
	"github.com/rangeshare/smb1d/internal/smb1/status"
	"github.com/rangeshare/smb1d/internal/smb1/wire"
)

// NT_CREATE_ANDX request parameter offsets, relative to the 4-byte AndX
// header that always precedes an AndX command's own parameters.
const (
	ntcReserved      = 0
	ntcNameLength    = 1
	ntcFlags         = 3
	ntcRootFID       = 7
	ntcDesiredAccess = 11
	ntcAllocSize     = 15
	ntcExtAttrs      = 23
	ntcShareAccess   = 27
	ntcDisposition   = 31
	ntcCreateOptions = 35
	ntcFixedParamLen = 44
)

// NTCreate handles SMB_COM_NT_CREATE_ANDX. This server is read-only: any
// disposition that could create or overwrite a file is rejected with
// STATUS_ACCESS_DENIED before reaching the backend.
func NTCreate() dispatch.Handler {
	return func(ctx context.Context, req *wire.Message, cmd *wire.Command, conn *dispatch.Connection, srv *dispatch.Server, done dispatch.Continuation) {
		p := cmd.Params
		if len(p) < 4+ntcFixedParamLen {
			done(dispatch.Result{Processed: true, Status: status.InvalidParameter})
			return
		}
		base := 4
		nameLen := int(wire.ReadU16LE(p, base+ntcNameLength))
		createOptions := wire.ReadU32LE(p, base+ntcCreateOptions)
		disposition := backend.CreateDisposition(wire.ReadU32LE(p, base+ntcDisposition))

		// The UTF-16LE name is 2-byte aligned relative to the header start.
		d := cmd.Data
		pad := wire.PadToAlign(int(cmd.DataOffset), 2)
		if pad+nameLen > len(d) {
			done(dispatch.Result{Processed: true, Status: status.InvalidParameter})
			return
		}
		name := wire.DecodeUTF16LE(d[pad : pad+nameLen])
		isDir := createOptions&wire.FileDirectoryFile != 0

		ot, ok := conn.State.Tree(req.Header.TID)
		if !ok {
			done(dispatch.Result{Processed: true, Status: status.SMBBadTID})
			return
		}

		switch disposition {
		case backend.DispositionOpen:
			// read-only open, always allowed
		default:
			done(dispatch.Result{Processed: true, Status: status.AccessDenied})
			return
		}

		file, err := ot.Tree.Open(ctx, name)
		if err != nil {
			done(dispatch.Result{Processed: true, Status: status.FromError(err)})
			return
		}

		of := conn.State.CreateFile(req.Header.TID, file, name)

		params := buildCreateResponseParams(of.FID, file, isDir)
		done(dispatch.Result{Processed: true, Status: status.Success, Params: params})
	}
}

func buildCreateResponseParams(fid uint16, file backend.File, isDir bool) []byte {
	const fixedLen = 1 + 2 + 4 + 8 + 8 + 8 + 8 + 4 + 8 + 8 + 2 + 2 + 1
	buf := make([]byte, 4+fixedLen)
	off := 4
	buf[off] = 0 // oplock level: none
	off++
	wire.PutU16LE(buf, off, fid)
	off += 2
	wire.PutU32LE(buf, off, file.CreateAction())
	off += 4
	wire.PutU64LE(buf, off, uint64(wire.SystemToSMBTime(file.CreatedAt())))
	off += 8
	wire.PutU64LE(buf, off, uint64(wire.SystemToSMBTime(file.LastAccessedAt())))
	off += 8
	wire.PutU64LE(buf, off, uint64(wire.SystemToSMBTime(file.LastModifiedAt())))
	off += 8
	wire.PutU64LE(buf, off, uint64(wire.SystemToSMBTime(file.LastChangedAt())))
	off += 8
	wire.PutU32LE(buf, off, file.Attributes())
	off += 4
	wire.PutU64LE(buf, off, uint64(file.AllocationSize()))
	off += 8
	wire.PutU64LE(buf, off, uint64(file.Size()))
	off += 8
	if isDir {
		wire.PutU16LE(buf, off, wire.FileTypeDisk)
	} else {
		wire.PutU16LE(buf, off, wire.FileTypeDisk)
	}
	off += 2
	wire.PutU16LE(buf, off, 0) // IPC state, unused for disk files
	off += 2
	if isDir {
		buf[off] = 1
	}
	off++

	// Some clients choke on a param buffer whose implied wordCount exceeds
	// NTCreateMaxWordCount; truncate rather than reject.
	if wordCount := len(buf) / 2; wordCount > int(wire.NTCreateMaxWordCount) {
		buf = buf[:int(wire.NTCreateMaxWordCount)*2]
	}
	return buf
}
