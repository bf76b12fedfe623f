package handlers

import (
	"context"
	"path"
	"strings"

	"github.com/rangeshare/smb1d/internal/smb1/backend"
	"github.com/rangeshare/smb1d/internal/smb1/dispatch"
	"github.com/rangeshare/smb1d/internal/smb1/status"
	"github.com/rangeshare/smb1d/internal/smb1/wire"
)

// TRANS2 request word block offsets (after the 1-byte wordCount). Setup[0],
// the sub-command, follows the fixed prefix below.
const (
	trans2TotalParamCount = 0
	trans2TotalDataCount  = 2
	trans2ParamCount      = 10
	trans2ParamOffset     = 12
	trans2DataCount       = 14
	trans2DataOffset      = 16
	trans2SetupCount      = 18
	trans2SetupStart      = 20
)

// Trans2 handles SMB_COM_TRANSACTION2, dispatching to a sub-handler keyed
// by Setup[0]. Parameters and Data are transaction-private byte ranges
// embedded in the command's byte block; trans2Slice recovers them using
// the absolute offsets the request carries.
func Trans2() dispatch.Handler {
	return func(ctx context.Context, req *wire.Message, cmd *wire.Command, conn *dispatch.Connection, srv *dispatch.Server, done dispatch.Continuation) {
		p := cmd.Params
		if len(p) < trans2SetupStart+2 {
			done(dispatch.Result{Processed: true, Status: status.InvalidParameter})
			return
		}
		sub := wire.Trans2SubCommand(wire.ReadU16LE(p, trans2SetupStart))

		paramCount := int(wire.ReadU16LE(p, trans2ParamCount))
		paramOffset := wire.ReadU32LE(p, trans2ParamOffset) & 0xFFFF
		dataCount := int(wire.ReadU16LE(p, trans2DataCount))
		dataOffset := wire.ReadU32LE(p, trans2DataOffset) & 0xFFFF

		params, err1 := trans2Slice(cmd, paramOffset, paramCount)
		data, err2 := trans2Slice(cmd, dataOffset, dataCount)
		if err1 != nil || err2 != nil {
			done(dispatch.Result{Processed: true, Status: status.InvalidParameter})
			return
		}

		switch sub {
		case wire.Trans2FindFirst2:
			trans2FindFirst2(ctx, req, conn, params, done)
		case wire.Trans2FindNext2:
			trans2FindNext2(ctx, req, conn, params, done)
		case wire.Trans2QueryPathInfo:
			trans2QueryPathInfo(ctx, req, conn, params, done)
		case wire.Trans2QueryFileInfo:
			trans2QueryFileInfo(ctx, req, conn, params, done)
		case wire.Trans2SetFileInfo:
			trans2SetFileInfo(ctx, req, conn, params, data, done)
		default:
			done(dispatch.Result{Processed: true, Status: status.NotImplemented})
		}
	}
}

// trans2Slice recovers a transaction parameter/data range: offset is
// absolute from the start of the SMB header, as the wire format specifies;
// cmd.DataOffset locates cmd.Data's own start the same way, so the
// difference is the range's position within cmd.Data.
func trans2Slice(cmd *wire.Command, offset uint32, count int) ([]byte, error) {
	if count == 0 {
		return nil, nil
	}
	rel := int(offset) - int(cmd.DataOffset)
	if rel < 0 || rel+count > len(cmd.Data) {
		return nil, errTrans2Range
	}
	return cmd.Data[rel : rel+count], nil
}

type trans2Error string

func (e trans2Error) Error() string { return string(e) }

const errTrans2Range trans2Error = "smb1: trans2 parameter/data range out of bounds"

func buildTrans2Response(params, data []byte) *dispatch.Result {
	// A TRANS2 response's own Params word block is the fixed transaction
	// envelope (counts + offsets); Data carries params||data back to back
	// for this server's simplified single-round responses (no setup words,
	// everything fits in one transaction reply).
	const fixedLen = 2 + 2 + 2 + 1 + 1 + 2 + 2 + 2 + 2 + 2 + 1 + 1
	out := make([]byte, fixedLen)
	wire.PutU16LE(out, 0, uint16(len(params)))  // TotalParameterCount
	wire.PutU16LE(out, 2, uint16(len(data)))    // TotalDataCount
	wire.PutU16LE(out, 6, uint16(len(params)))  // ParameterCount
	wire.PutU16LE(out, 8, uint16(fixedLen))     // ParameterOffset (relative, patched by caller if needed)
	wire.PutU16LE(out, 12, uint16(len(data)))   // DataCount
	wire.PutU16LE(out, 14, uint16(fixedLen+len(params)))

	body := append(append([]byte{}, params...), data...)
	return &dispatch.Result{Processed: true, Status: status.Success, Params: out, Data: body}
}

func trans2FindFirst2(ctx context.Context, req *wire.Message, conn *dispatch.Connection, params []byte, done dispatch.Continuation) {
	if len(params) < 12 {
		done(dispatch.Result{Processed: true, Status: status.InvalidParameter})
		return
	}
	searchCount := wire.ReadU16LE(params, 2)
	rawPattern, _ := wire.ExtractUnicodeString(params, 12)
	pattern := wire.DecodeUTF16LE(rawPattern)

	ot, ok := conn.State.Tree(req.Header.TID)
	if !ok {
		done(dispatch.Result{Processed: true, Status: status.SMBBadTID})
		return
	}
	files, err := ot.Tree.List(ctx, pattern)
	if err != nil {
		done(dispatch.Result{Processed: true, Status: status.FromError(err)})
		return
	}
	if int(searchCount) < len(files) {
		files = files[:searchCount]
	}

	respParams := make([]byte, 10)
	wire.PutU16LE(respParams, 0, 1) // SID, unused (single-shot search)
	wire.PutU16LE(respParams, 2, uint16(len(files)))
	wire.PutU16LE(respParams, 4, 1) // EndOfSearch
	respData := encodeFindEntries(files)

	r := buildTrans2Response(respParams, respData)
	done(*r)
}

func trans2FindNext2(ctx context.Context, req *wire.Message, conn *dispatch.Connection, params []byte, done dispatch.Continuation) {
	// This server answers FIND_FIRST2 with one response holding at most
	// SearchCount entries (EndOfSearch=1), so a well-behaved client never sends
	// FIND_NEXT2; if one arrives anyway, report an empty, exhausted search.
	respParams := make([]byte, 8)
	wire.PutU16LE(respParams, 2, 1) // EndOfSearch
	r := buildTrans2Response(respParams, nil)
	done(*r)
}

// A simplified FILE_BOTH_DIRECTORY_INFORMATION-style entry: NextEntryOffset
// (4) FileIndex (4) LastWriteTime (8) AllocationSize (8) EndOfFile (8)
// ExtFileAttributes (4) FileNameLength (4) FileName (variable).
func encodeFindEntries(files []backend.File) []byte {
	var out []byte
	for i, f := range files {
		name := wire.EncodeUTF16LE(f.Name())
		entry := make([]byte, 40+len(name))
		wire.PutU32LE(entry, 4, uint32(i))
		wire.PutU64LE(entry, 8, uint64(wire.SystemToSMBTime(f.LastModifiedAt())))
		wire.PutU64LE(entry, 16, uint64(f.AllocationSize()))
		wire.PutU64LE(entry, 24, uint64(f.Size()))
		wire.PutU32LE(entry, 32, f.Attributes())
		wire.PutU32LE(entry, 36, uint32(len(name)))
		copy(entry[40:], name)
		out = append(out, entry...)
	}
	// Patch NextEntryOffset to point each entry at the one following it.
	off := 0
	for i, f := range files {
		entryLen := 40 + len(wire.EncodeUTF16LE(f.Name()))
		if i < len(files)-1 {
			wire.PutU32LE(out, off, uint32(entryLen))
		}
		off += entryLen
	}
	return out
}

func trans2QueryPathInfo(ctx context.Context, req *wire.Message, conn *dispatch.Connection, params []byte, done dispatch.Continuation) {
	if len(params) < 6 {
		done(dispatch.Result{Processed: true, Status: status.InvalidParameter})
		return
	}
	rawName, _ := wire.ExtractUnicodeString(params, 6)
	name := wire.DecodeUTF16LE(rawName)

	ot, ok := conn.State.Tree(req.Header.TID)
	if !ok {
		done(dispatch.Result{Processed: true, Status: status.SMBBadTID})
		return
	}
	file, err := ot.Tree.Open(ctx, name)
	if err != nil {
		done(dispatch.Result{Processed: true, Status: status.FromError(err)})
		return
	}
	defer file.Close(ctx)

	respData := encodeFileBasicAndStandardInfo(file)
	r := buildTrans2Response(make([]byte, 2), respData)
	done(*r)
}

func trans2QueryFileInfo(ctx context.Context, req *wire.Message, conn *dispatch.Connection, params []byte, done dispatch.Continuation) {
	if len(params) < 2 {
		done(dispatch.Result{Processed: true, Status: status.InvalidParameter})
		return
	}
	fid := wire.ReadU16LE(params, 0)
	of, ok := conn.State.File(fid)
	if !ok {
		done(dispatch.Result{Processed: true, Status: status.SMBBadFID})
		return
	}

	respData := encodeFileBasicAndStandardInfo(of.File)
	r := buildTrans2Response(make([]byte, 2), respData)
	done(*r)
}

func encodeFileBasicAndStandardInfo(f backend.File) []byte {
	buf := make([]byte, 8*4+4+4+8+8+1+1)
	off := 0
	wire.PutU64LE(buf, off, uint64(wire.SystemToSMBTime(f.CreatedAt())))
	off += 8
	wire.PutU64LE(buf, off, uint64(wire.SystemToSMBTime(f.LastAccessedAt())))
	off += 8
	wire.PutU64LE(buf, off, uint64(wire.SystemToSMBTime(f.LastModifiedAt())))
	off += 8
	wire.PutU64LE(buf, off, uint64(wire.SystemToSMBTime(f.LastChangedAt())))
	off += 8
	wire.PutU32LE(buf, off, f.Attributes())
	off += 4
	off += 4 // reserved
	wire.PutU64LE(buf, off, uint64(f.AllocationSize()))
	off += 8
	wire.PutU64LE(buf, off, uint64(f.Size()))
	off += 8
	if f.IsDirectory() {
		buf[off] = 1
	}
	return buf
}

// trans2SetFileInfo handles TRANS2_SET_FILE_INFORMATION, but only the
// NT-passthrough info levels; anything below INFO_PASSTHROUGH is
// unsupported.
func trans2SetFileInfo(ctx context.Context, req *wire.Message, conn *dispatch.Connection, params, data []byte, done dispatch.Continuation) {
	if len(params) < 4 {
		done(dispatch.Result{Processed: true, Status: status.InvalidParameter})
		return
	}
	fid := wire.ReadU16LE(params, 0)
	level := wire.ReadU16LE(params, 2)

	of, ok := conn.State.File(fid)
	if !ok {
		done(dispatch.Result{Processed: true, Status: status.SMBBadFID})
		return
	}

	switch int(level) {
	case wire.FileDispositionInformation:
		if len(data) >= 1 && data[0] != 0 {
			of.File.SetDeleteOnClose(true)
		}
	case wire.FileEndOfFileInformation:
		if len(data) >= 8 {
			newSize := int64(wire.ReadU64LE(data, 0))
			if err := of.File.SetLength(ctx, newSize); err != nil {
				done(dispatch.Result{Processed: true, Status: status.FromError(err)})
				return
			}
		}
	case wire.FileAllocationInformation:
		// Setting an allocation size on a non-empty file is a documented
		// no-op; this server preserves that behaviour rather than "fixing"
		// it.
	case wire.FileRenameInformation:
		if len(data) < 4+4+4 {
			done(dispatch.Result{Processed: true, Status: status.InvalidParameter})
			return
		}
		nameLen := int(wire.ReadU32LE(data, 8))
		if 12+nameLen > len(data) {
			done(dispatch.Result{Processed: true, Status: status.InvalidParameter})
			return
		}
		newName := wire.DecodeUTF16LE(data[12 : 12+nameLen])
		ot, ok := conn.State.Tree(req.Header.TID)
		if !ok {
			done(dispatch.Result{Processed: true, Status: status.SMBBadTID})
			return
		}
		targetName := path.Clean(strings.ReplaceAll(newName, `\`, "/"))
		newPath := path.Join(parentOf(of.File.Path()), targetName)
		if err := ot.Tree.Rename(ctx, of.File, newPath); err != nil {
			done(dispatch.Result{Processed: true, Status: status.FromError(err)})
			return
		}
	default:
		done(dispatch.Result{Processed: true, Status: status.NotSupported})
		return
	}

	r := buildTrans2Response(make([]byte, 2), nil)
	done(*r)
}

// parentOf returns the directory portion of a slash-separated share-root
// path, "" for a top-level entry.
func parentOf(p string) string {
	dir := path.Dir(p)
	if dir == "." {
		return ""
	}
	return dir
}
