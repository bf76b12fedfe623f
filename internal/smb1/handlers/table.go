package handlers

import (
	"github.com/rangeshare/smb1d/internal/smb1/dispatch"
	"github.com/rangeshare/smb1d/internal/smb1/wire"
)

// NewTable builds the static command-id → handler dispatch table this
// server answers. serverGUID and maxBufferSize parameterise NEGOTIATE;
// serverName is advertised in SESSION_SETUP_ANDX's native OS/LAN manager
// fields.
func NewTable(serverGUID [16]byte, maxBufferSize uint32, serverName string) dispatch.Table {
	t := dispatch.Table{
		wire.CmdNegotiate:        Negotiate(serverGUID, maxBufferSize),
		wire.CmdSessionSetupANDX: SessionSetup(serverName),
		wire.CmdTreeConnectANDX:  TreeConnect(),
		wire.CmdTreeDisconnect:   TreeDisconnect(),
		wire.CmdLogoffANDX:       Logoff(),
		wire.CmdNTCreateANDX:     NTCreate(),
		wire.CmdReadANDX:         ReadAndX(),
		wire.CmdWriteANDX:        WriteAndX(),
		wire.CmdClose:            Close(),
		wire.CmdDelete:           Delete(),
		wire.CmdLockingANDX:      LockingAndX(),
		wire.CmdTrans2:           Trans2(),
		wire.CmdTransaction:      Trans(),
		wire.CmdEcho:             Echo(),
	}

	// Known SMB1 commands this read-only server does not implement still
	// get an explicit table entry, so the dispatcher reports
	// STATUS_NOT_IMPLEMENTED rather than STATUS_SMB_BAD_COMMAND for them.
	for _, id := range []wire.CommandID{
		wire.CmdCreateDirectory,
		wire.CmdDeleteDirectory,
		wire.CmdRename,
		wire.CmdQueryInformation,
		wire.CmdSetInformation,
	} {
		t[id] = dispatch.NotImplementedHandler
	}

	return t
}
