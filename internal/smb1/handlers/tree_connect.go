package handlers

import (
	"context"
	"strings"

	"github.com/rangeshare/smb1d/internal/smb1/dispatch"
	"github.com/rangeshare/smb1d/internal/smb1/status"
	"github.com/rangeshare/smb1d/internal/smb1/wire"
)

// TreeConnect handles SMB_COM_TREE_CONNECT_ANDX. Request data is:
// Password (length from params[4+2:4+4]) || Path (UTF-16LE, NUL-terminated,
// of the form \\server\share) || Service (ASCII, NUL-terminated).
func TreeConnect() dispatch.Handler {
	return func(ctx context.Context, req *wire.Message, cmd *wire.Command, conn *dispatch.Connection, srv *dispatch.Server, done dispatch.Continuation) {
		p := cmd.Params
		if len(p) < 4+6 {
			done(dispatch.Result{Processed: true, Status: status.InvalidParameter})
			return
		}
		pwLen := int(wire.ReadU16LE(p, 4+2))

		d := cmd.Data
		if pwLen > len(d) {
			done(dispatch.Result{Processed: true, Status: status.InvalidParameter})
			return
		}
		rest := d[pwLen:]
		rawPath, off := wire.ExtractUnicodeString(rest, 0)
		_ = off
		path := wire.DecodeUTF16LE(rawPath)

		shareName := lastPathComponent(path)
		if strings.EqualFold(shareName, "IPC$") {
			done(dispatch.Result{Processed: true, Status: status.BadNetworkName})
			return
		}

		share, ok := srv.Shares[strings.ToUpper(shareName)]
		if !ok {
			done(dispatch.Result{Processed: true, Status: status.BadNetworkName})
			return
		}

		uid := req.Header.UID
		sess, ok := conn.State.Session(uid)
		if !ok {
			done(dispatch.Result{Processed: true, Status: status.LogonFailure})
			return
		}

		tree, err := share.Connect(ctx, sess.Username, sess.Domain)
		if err != nil {
			done(dispatch.Result{Processed: true, Status: status.FromError(err)})
			return
		}

		ot := conn.State.CreateTree(share, tree)

		params := make([]byte, 4+2)
		wire.PutU16LE(params, 4, 0) // optional support bits

		data := append(wire.EncodeUTF16LE("A:"), wire.EncodeUTF16LE("")...)

		tid := ot.TID
		done(dispatch.Result{Processed: true, Status: status.Success, Params: params, Data: data, NewTID: &tid})
	}
}

func lastPathComponent(path string) string {
	path = strings.TrimRight(path, `\`)
	if i := strings.LastIndexByte(path, '\\'); i >= 0 {
		return path[i+1:]
	}
	return path
}
