package handlers

import (
	"context"

	"github.com/rangeshare/smb1d/internal/smb1/dispatch"
	"github.com/rangeshare/smb1d/internal/smb1/status"
	"github.com/rangeshare/smb1d/internal/smb1/wire"
)

// Delete handles SMB_COM_DELETE. The pattern is resolved through tree.List
// first so that a pattern matching no files reports STATUS_NO_SUCH_FILE;
// otherwise each match is deleted in turn and the first error ends the
// request. On this server's read-only backend that first error is the
// access-denied every delete attempt produces.
func Delete() dispatch.Handler {
	return func(ctx context.Context, req *wire.Message, cmd *wire.Command, conn *dispatch.Connection, srv *dispatch.Server, done dispatch.Continuation) {
		d := cmd.Data
		if len(d) < 1 || d[0] != 0x04 {
			done(dispatch.Result{Processed: true, Status: status.InvalidParameter})
			return
		}
		rawName, _ := wire.ExtractUnicodeString(d, 1)
		pattern := wire.DecodeUTF16LE(rawName)

		ot, ok := conn.State.Tree(req.Header.TID)
		if !ok {
			done(dispatch.Result{Processed: true, Status: status.SMBBadTID})
			return
		}

		matches, err := ot.Tree.List(ctx, pattern)
		if err != nil {
			done(dispatch.Result{Processed: true, Status: status.FromError(err)})
			return
		}
		if len(matches) == 0 {
			done(dispatch.Result{Processed: true, Status: status.NoSuchFile})
			return
		}

		for _, f := range matches {
			if err := f.Delete(ctx); err != nil {
				done(dispatch.Result{Processed: true, Status: status.FromError(err)})
				return
			}
		}
		done(dispatch.Result{Processed: true, Status: status.Success})
	}
}
