// Package session tracks the per-connection UID/TID/FID tables an SMB1
// connection owns.
//
// This server uses one goroutine per connection, and that goroutine is
// the sole caller into State, so the tables need no locking of their own:
// single-writer discipline from the event loop is enough. Unlike SMB2,
// SMB1 sessions cannot survive and reattach across TCP connections, so
// there is no cross-connection session table to guard here either.
package session

import (
	"context"

	"github.com/rangeshare/smb1d/internal/smb1/backend"
)

// Session is one authenticated (or anonymous) SESSION_SETUP_ANDX logon.
type Session struct {
	UID      uint16
	Username string
	Domain   string
	IsGuest  bool
}

// OpenTree is a connected TREE_CONNECT_ANDX share instance.
type OpenTree struct {
	TID   uint16
	Share backend.Share
	Tree  backend.Tree
}

// OpenFile is a live NT_CREATE_ANDX handle.
type OpenFile struct {
	FID    uint16
	TID    uint16
	File   backend.File
	Path   string
}

// State holds the UID/TID/FID tables for one connection, plus the 8-byte
// NTLM server challenge generated once when the connection is accepted.
type State struct {
	ServerChallenge [8]byte

	sessions  map[uint16]*Session
	trees     map[uint16]*OpenTree
	files     map[uint16]*OpenFile
	nextUID   uint16
	nextTID   uint16
	nextFID   uint16
}

// NewState creates an empty per-connection state table.
func NewState(serverChallenge [8]byte) *State {
	return &State{
		ServerChallenge: serverChallenge,
		sessions:        make(map[uint16]*Session),
		trees:           make(map[uint16]*OpenTree),
		files:           make(map[uint16]*OpenFile),
		nextUID:         1,
		nextTID:         1,
		nextFID:         1,
	}
}

// CreateSession allocates a new UID and stores the session.
func (s *State) CreateSession(username, domain string, isGuest bool) *Session {
	uid := s.nextUID
	s.nextUID++
	sess := &Session{UID: uid, Username: username, Domain: domain, IsGuest: isGuest}
	s.sessions[uid] = sess
	return sess
}

// Session looks up a session by UID.
func (s *State) Session(uid uint16) (*Session, bool) {
	sess, ok := s.sessions[uid]
	return sess, ok
}

// DeleteSession removes a session (LOGOFF_ANDX).
func (s *State) DeleteSession(uid uint16) {
	delete(s.sessions, uid)
}

// CreateTree allocates a new TID and stores the connected tree.
func (s *State) CreateTree(share backend.Share, tree backend.Tree) *OpenTree {
	tid := s.nextTID
	s.nextTID++
	ot := &OpenTree{TID: tid, Share: share, Tree: tree}
	s.trees[tid] = ot
	return ot
}

// Tree looks up a connected tree by TID.
func (s *State) Tree(tid uint16) (*OpenTree, bool) {
	ot, ok := s.trees[tid]
	return ot, ok
}

// DeleteTree disconnects and forgets a tree, closing every file still open
// on it.
func (s *State) DeleteTree(ctx context.Context, tid uint16) {
	for fid, of := range s.files {
		if of.TID == tid {
			_ = of.File.Close(ctx)
			delete(s.files, fid)
		}
	}
	if ot, ok := s.trees[tid]; ok {
		_ = ot.Tree.Disconnect(ctx)
	}
	delete(s.trees, tid)
}

// CreateFile allocates a new FID and stores the open file handle.
func (s *State) CreateFile(tid uint16, file backend.File, path string) *OpenFile {
	fid := s.nextFID
	s.nextFID++
	of := &OpenFile{FID: fid, TID: tid, File: file, Path: path}
	s.files[fid] = of
	return of
}

// File looks up an open file by FID.
func (s *State) File(fid uint16) (*OpenFile, bool) {
	of, ok := s.files[fid]
	return of, ok
}

// DeleteFile forgets a FID (CLOSE already closed the backing File).
func (s *State) DeleteFile(fid uint16) {
	delete(s.files, fid)
}

// CloseAll closes every open file and tree, used on connection teardown.
func (s *State) CloseAll(ctx context.Context) {
	for fid, of := range s.files {
		_ = of.File.Close(ctx)
		delete(s.files, fid)
	}
	for tid, ot := range s.trees {
		_ = ot.Tree.Disconnect(ctx)
		delete(s.trees, tid)
	}
}
