package handlers

import (
	"context"

	"github.com/rangeshare/smb1d/internal/smb1/dispatch"
	"github.com/rangeshare/smb1d/internal/smb1/status"
	"github.com/rangeshare/smb1d/internal/smb1/wire"
)

// WriteAndX handles SMB_COM_WRITE_ANDX. This server only ever exposes
// read-only shares, so every write is rejected outright.
func WriteAndX() dispatch.Handler {
	return func(ctx context.Context, req *wire.Message, cmd *wire.Command, conn *dispatch.Connection, srv *dispatch.Server, done dispatch.Continuation) {
		done(dispatch.Result{Processed: true, Status: status.AccessDenied})
	}
}
