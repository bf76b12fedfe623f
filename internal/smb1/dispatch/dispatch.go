// Package dispatch drives one SMB1 message's AndX command chain through a
// static command-id → handler table: commands in a chain run strictly
// sequentially, never in parallel, and a handler's continuation is
// invoked exactly once.
package dispatch

import (
	"context"

	"github.com/rangeshare/smb1d/internal/smb1/auth"
	"github.com/rangeshare/smb1d/internal/smb1/backend"
	"github.com/rangeshare/smb1d/internal/smb1/session"
	"github.com/rangeshare/smb1d/internal/smb1/status"
	"github.com/rangeshare/smb1d/internal/smb1/wire"
)

// Result is what a handler hands to its Continuation to commit a response.
// A Result with Processed left false stops Dispatch at that command: no
// response is built for it and the rest of the chain is not run. The reply
// Dispatch returns still carries the commands committed before it, and the
// transport writes that reply whether or not the handler has already
// written a response of its own.
type Result struct {
	Processed bool
	Status    status.NTStatus
	Params    []byte
	Data      []byte

	// NewUID and NewTID, when non-nil, assign the allocated UID/TID onto the
	// reply header. SESSION_SETUP_ANDX and TREE_CONNECT_ANDX are the only
	// handlers that ever set these.
	NewUID *uint16
	NewTID *uint16
}

// Continuation commits a handler's outcome. It must be called exactly once.
// SUCCESS and MORE_PROCESSING_REQUIRED continue the AndX chain; any other
// status aborts it.
type Continuation func(Result)

// Handler processes one command within a message. cmd is the command being
// handled; conn and srv give it access to connection-scoped state (session
// tables) and server-scoped state (shares, credentials). It must call done
// exactly once before returning; a handler that wants the chain to end at
// its command calls done with Processed left false (see Result).
type Handler func(ctx context.Context, req *wire.Message, cmd *wire.Command, conn *Connection, srv *Server, done Continuation)

// Connection is the subset of per-connection state a handler needs.
// Transport owns the concrete type; dispatch only requires this view.
type Connection struct {
	State *session.State
	Write func(msg *wire.Message) error
}

// Server is the subset of server-scoped state a handler needs.
type Server struct {
	Shares      map[string]backend.Share
	Credentials *auth.CredentialStore
	HostName    string
}

// Table is the static command-id → handler map. Built once at startup by
// the handlers package's init wiring and passed to Dispatch. A command id
// that is part of the protocol but unimplemented here should still have an
// entry — mapped to NotImplementedHandler — so the dispatcher can tell
// "unknown to SMB1" (STATUS_SMB_BAD_COMMAND) apart from "known, but this
// server doesn't implement it" (STATUS_NOT_IMPLEMENTED).
type Table map[wire.CommandID]Handler

// NotImplementedHandler answers any command with STATUS_NOT_IMPLEMENTED.
func NotImplementedHandler(ctx context.Context, req *wire.Message, cmd *wire.Command, conn *Connection, srv *Server, done Continuation) {
	done(Result{Processed: true, Status: status.NotImplemented})
}

// Dispatch runs every command in msg's AndX chain against table, in order,
// building the reply message. It never runs two commands concurrently: a
// handler's continuation must return before the next command begins.
func Dispatch(ctx context.Context, table Table, req *wire.Message, conn *Connection, srv *Server) *wire.Message {
	reply := &wire.Message{
		Header: wire.NewResponseHeader(req.Header, uint32(status.Success)),
	}

	for _, cmd := range req.Commands {
		handler, ok := table[cmd.ID]
		if !ok {
			reply.Header.Status = uint32(status.SMBBadCommand)
			break
		}

		var result Result
		var gotResult bool
		handler(ctx, req, cmd, conn, srv, func(r Result) {
			result = r
			gotResult = true
		})

		if !gotResult || !result.Processed {
			// Handler sent its own response (or produced nothing because it
			// already wrote directly); stop walking the chain either way.
			break
		}

		reply.Commands = append(reply.Commands, &wire.Command{
			ID:     cmd.ID,
			Params: result.Params,
			Data:   result.Data,
		})
		if result.NewUID != nil {
			reply.Header.UID = *result.NewUID
		}
		if result.NewTID != nil {
			reply.Header.TID = *result.NewTID
		}

		if result.Status != status.Success && result.Status != status.MoreProcessingRequired {
			reply.Header.Status = uint32(result.Status)
			break
		}
		reply.Header.Status = uint32(result.Status)
	}

	return reply
}

