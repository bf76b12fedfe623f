package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/rangeshare/smb1d/internal/logger"
	"github.com/rangeshare/smb1d/internal/metrics"
	"github.com/rangeshare/smb1d/internal/smb1/dispatch"
	"github.com/rangeshare/smb1d/internal/smb1/ntlm"
	"github.com/rangeshare/smb1d/internal/smb1/session"
	"github.com/rangeshare/smb1d/internal/smb1/status"
	"github.com/rangeshare/smb1d/internal/smb1/wire"
)

// Listener owns the TCP socket and the table/server state every connection
// dispatches against.
type Listener struct {
	Table          dispatch.Table
	Server         *dispatch.Server
	MaxMessageSize uint32

	// IdleTimeout bounds how long a connection may sit without sending a
	// complete message before it is closed. Zero disables the deadline.
	IdleTimeout time.Duration
}

// Serve accepts connections on ln until it returns an error (including when
// ctx is cancelled, which closes ln to unblock Accept).
func (l *Listener) Serve(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if isTemporaryNetError(err) {
				continue
			}
			return err
		}
		go l.handleConn(ctx, conn)
	}
}

// handleConn owns one TCP connection end to end: NetBIOS framing, SMB1
// decode/dispatch/encode, and teardown of every session/tree/file the
// connection opened. A handler panic is deliberately left unrecovered: it
// crashes the process instead of just the one goroutine, since a corrupted
// dispatch table or backend state is not safe to keep serving from.
func (l *Listener) handleConn(ctx context.Context, conn net.Conn) {
	metrics.ConnectionsTotal.Inc()
	metrics.ConnectionsActive.Inc()
	defer metrics.ConnectionsActive.Dec()

	remote := conn.RemoteAddr().String()
	logger.Info("connection accepted", logger.ClientIP(remote))
	defer conn.Close()

	challenge, err := ntlm.GenerateServerChallenge()
	if err != nil {
		logger.Error("failed to generate NTLM server challenge", logger.Err(err))
		return
	}

	state := session.NewState(challenge)
	defer state.CloseAll(ctx)

	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	dc := &dispatch.Connection{
		State: state,
		Write: func(msg *wire.Message) error {
			return WriteFrame(conn, wire.Encode(msg))
		},
	}

	for {
		if l.IdleTimeout > 0 {
			conn.SetReadDeadline(time.Now().Add(l.IdleTimeout))
		}

		payload, err := ReadFrame(conn, l.MaxMessageSize)
		if err != nil {
			if errors.Is(err, io.EOF) {
				logger.Info("connection closed by peer", logger.ClientIP(remote))
			} else {
				logger.Info("connection read failed", logger.ClientIP(remote), logger.Err(err))
			}
			return
		}

		req, err := wire.Decode(payload)
		if err != nil {
			logger.Warn("malformed SMB1 message, closing connection", logger.ClientIP(remote), logger.Err(err))
			return
		}

		reply := dispatch.Dispatch(connCtx, l.Table, req, dc, l.Server)
		for _, cmd := range reply.Commands {
			metrics.CommandsDispatched.WithLabelValues(commandName(cmd.ID), statusName(reply.Header.Status)).Inc()
		}

		if err := dc.Write(reply); err != nil {
			logger.Info("connection write failed", logger.ClientIP(remote), logger.Err(err))
			return
		}
	}
}

// commandName renders a CommandID for metrics labels; CommandID carries no
// String method of its own since handlers refer to commands by their typed
// constants, not their string form.
func commandName(id wire.CommandID) string {
	return fmt.Sprintf("0x%02X", uint8(id))
}

func statusName(code uint32) string {
	return status.NTStatus(code).String()
}
