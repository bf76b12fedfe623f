package handlers

import (
	"context"

	"github.com/rangeshare/smb1d/internal/smb1/dispatch"
	"github.com/rangeshare/smb1d/internal/smb1/status"
	"github.com/rangeshare/smb1d/internal/smb1/wire"
)

// LockingAndX handles SMB_COM_LOCKING_ANDX. Byte-range locks are
// meaningless against a read-only, single-reader backend; this server
// accepts every lock/unlock request without actually tracking anything.
func LockingAndX() dispatch.Handler {
	return func(ctx context.Context, req *wire.Message, cmd *wire.Command, conn *dispatch.Connection, srv *dispatch.Server, done dispatch.Continuation) {
		done(dispatch.Result{Processed: true, Status: status.Success})
	}
}

// TreeDisconnect handles SMB_COM_TREE_DISCONNECT, closing every FID open on
// the tree and forgetting the TID.
func TreeDisconnect() dispatch.Handler {
	return func(ctx context.Context, req *wire.Message, cmd *wire.Command, conn *dispatch.Connection, srv *dispatch.Server, done dispatch.Continuation) {
		conn.State.DeleteTree(ctx, req.Header.TID)
		done(dispatch.Result{Processed: true, Status: status.Success})
	}
}

// Logoff handles SMB_COM_LOGOFF_ANDX, forgetting the UID's session. Trees
// and files opened under it are left alone; TREE_DISCONNECT/CLOSE own that.
func Logoff() dispatch.Handler {
	return func(ctx context.Context, req *wire.Message, cmd *wire.Command, conn *dispatch.Connection, srv *dispatch.Server, done dispatch.Continuation) {
		conn.State.DeleteSession(req.Header.UID)
		done(dispatch.Result{Processed: true, Status: status.Success})
	}
}

// Echo handles SMB_COM_ECHO by reflecting the request data back unchanged.
func Echo() dispatch.Handler {
	return func(ctx context.Context, req *wire.Message, cmd *wire.Command, conn *dispatch.Connection, srv *dispatch.Server, done dispatch.Continuation) {
		params := make([]byte, 2)
		wire.PutU16LE(params, 0, 1) // echo count
		done(dispatch.Result{Processed: true, Status: status.Success, Params: params, Data: cmd.Data})
	}
}

// Trans handles SMB_COM_TRANSACTION. Only used here to answer IPC$-style
// named-pipe transactions, which this server does not expose.
func Trans() dispatch.Handler {
	return func(ctx context.Context, req *wire.Message, cmd *wire.Command, conn *dispatch.Connection, srv *dispatch.Server, done dispatch.Continuation) {
		done(dispatch.Result{Processed: true, Status: status.NotSupported})
	}
}
