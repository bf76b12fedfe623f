package handlers

import (
	"context"

	"github.com/rangeshare/smb1d/internal/smb1/dispatch"
	"github.com/rangeshare/smb1d/internal/smb1/ntlm"
	"github.com/rangeshare/smb1d/internal/smb1/status"
	"github.com/rangeshare/smb1d/internal/smb1/wire"
)

// SessionSetup handles SMB_COM_SESSION_SETUP_ANDX (non-extended-security
// form: the LM and NTLMv2 responses travel as raw bytes in the request
// rather than wrapped in an NTLMSSP/SPNEGO security blob). Request
// parameter layout, after the 4-byte AndX header:
//
//	0: MaxBufferSize  (u16)
//	2: MaxMpxCount    (u16)
//	4: VcNumber       (u16)
//	6: SessionKey     (u32)
//	10: CaseInsensitivePasswordLen (u16) -- LM/LMv2 response length
//	12: CaseSensitivePasswordLen   (u16) -- NTLM/NTLMv2 response length
//	14: Reserved      (u32)
//	18: Capabilities  (u32)
//
// Data: caseInsensitivePassword || caseSensitivePassword || AccountName
// (UTF-16LE, NUL-terminated) || PrimaryDomain (UTF-16LE, NUL-terminated) ||
// NativeOS || NativeLanMan.
func SessionSetup(serverName string) dispatch.Handler {
	return func(ctx context.Context, req *wire.Message, cmd *wire.Command, conn *dispatch.Connection, srv *dispatch.Server, done dispatch.Continuation) {
		p := cmd.Params
		if len(p) < 4+16 {
			done(dispatch.Result{Processed: true, Status: status.InvalidParameter})
			return
		}
		lmLen := int(wire.ReadU16LE(p, 4+10))
		ntLen := int(wire.ReadU16LE(p, 4+12))

		d := cmd.Data
		if lmLen+ntLen > len(d) {
			done(dispatch.Result{Processed: true, Status: status.InvalidParameter})
			return
		}
		// lmResponse is parsed for completeness but unused: this server only
		// validates the NTLM/NTLMv2 response.
		_ = d[:lmLen]
		ntResponse := d[lmLen : lmLen+ntLen]
		rest := d[lmLen+ntLen:]

		rawAccount, off := wire.ExtractUnicodeString(rest, 0)
		rawDomain, off2 := wire.ExtractUnicodeString(rest, off)
		_ = off2
		username := wire.DecodeUTF16LE(rawAccount)
		domain := wire.DecodeUTF16LE(rawDomain)

		isGuest := false
		cred, found := srv.Credentials.Lookup(username)
		switch {
		case found && len(ntResponse) == 24:
			if !ntlm.ValidateNTLMResponse(cred.NTHash, conn.State.ServerChallenge, ntResponse) {
				done(dispatch.Result{Processed: true, Status: status.LogonFailure})
				return
			}
		case found && len(ntResponse) > 24:
			if !ntlm.ValidateNTLMv2Response(cred.NTHash, username, domain, conn.State.ServerChallenge, ntResponse) {
				done(dispatch.Result{Processed: true, Status: status.LogonFailure})
				return
			}
		case !found && srv.Credentials.AllowGuest():
			isGuest = true
		default:
			done(dispatch.Result{Processed: true, Status: status.LogonFailure})
			return
		}

		sess := conn.State.CreateSession(username, domain, isGuest)

		params := make([]byte, 4+2)
		wire.PutU16LE(params, 4, 0) // action: not logged in as guest unless isGuest
		if isGuest {
			wire.PutU16LE(params, 4, 1)
		}

		data := wire.EncodeUTF16LE("smb1d")
		data = append(data, wire.EncodeUTF16LE(serverName)...)

		uid := sess.UID
		done(dispatch.Result{Processed: true, Status: status.Success, Params: params, Data: data, NewUID: &uid})
	}
}
