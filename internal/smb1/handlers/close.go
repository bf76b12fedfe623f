package handlers

import (
	"context"

	"github.com/rangeshare/smb1d/internal/smb1/dispatch"
	"github.com/rangeshare/smb1d/internal/smb1/status"
	"github.com/rangeshare/smb1d/internal/smb1/wire"
)

// Close handles SMB_COM_CLOSE. Request params: FID(2) || LastWriteTime(4).
// A nonzero, non-0xFFFFFFFF LastWriteTime (Unix seconds) updates the file's
// modification time before it is closed.
func Close() dispatch.Handler {
	return func(ctx context.Context, req *wire.Message, cmd *wire.Command, conn *dispatch.Connection, srv *dispatch.Server, done dispatch.Continuation) {
		p := cmd.Params
		if len(p) < 6 {
			done(dispatch.Result{Processed: true, Status: status.InvalidParameter})
			return
		}
		fid := wire.ReadU16LE(p, 0)
		lastWrite := wire.ReadU32LE(p, 2)

		of, ok := conn.State.File(fid)
		if !ok {
			done(dispatch.Result{Processed: true, Status: status.SMBBadFID})
			return
		}

		if lastWrite != 0 && lastWrite != 0xFFFFFFFF {
			of.File.SetLastModifiedTime(int64(lastWrite) * 1000)
		}

		if err := of.File.Close(ctx); err != nil {
			done(dispatch.Result{Processed: true, Status: status.FromError(err)})
			return
		}
		conn.State.DeleteFile(fid)

		done(dispatch.Result{Processed: true, Status: status.Success})
	}
}
