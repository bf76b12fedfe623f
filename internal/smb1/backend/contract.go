// Package backend declares the abstract Share/Tree/File contract that SMB1
// command handlers consume. The core never implements these interfaces;
// internal/backend/httpshare is the one concrete implementation this
// repository ships, projecting an HTTP-addressable content source as a
// read-only share.
package backend

import "context"

// CreateDisposition mirrors the NT_CREATE_ANDX createDisposition field that
// Tree.OpenOrCreate takes. The NT_CREATE_ANDX handler opens existing files
// only with DispositionOpen and rejects the other dispositions.
type CreateDisposition uint32

const (
	DispositionSupersede   CreateDisposition = 0
	DispositionOpen        CreateDisposition = 1
	DispositionCreate      CreateDisposition = 2
	DispositionOpenIf      CreateDisposition = 3
	DispositionOverwrite   CreateDisposition = 4
	DispositionOverwriteIf CreateDisposition = 5
)

// CreateAction values returned to NT_CREATE_ANDX callers.
const (
	ActionSuperseded  uint32 = 0
	ActionOpened      uint32 = 1
	ActionCreated      uint32 = 2
	ActionOverwritten uint32 = 3
)

// Share resolves a TREE_CONNECT_ANDX request into a Tree.
type Share interface {
	Name() string
	IsNamedPipe() bool
	Connect(ctx context.Context, username, domain string) (Tree, error)
}

// Tree is the per-connection view of a connected share: the FID table's
// backing store.
type Tree interface {
	Open(ctx context.Context, name string) (File, error)
	OpenOrCreate(ctx context.Context, name string, disposition CreateDisposition, isDir bool) (File, uint32, error)
	List(ctx context.Context, pattern string) ([]File, error)
	Rename(ctx context.Context, file File, newPath string) error
	CreateFile(ctx context.Context, name string) (File, error)
	CreateDirectory(ctx context.Context, name string) error
	Delete(ctx context.Context, name string) error
	DeleteDirectory(ctx context.Context, name string) error
	Disconnect(ctx context.Context) error
}

// File is one open file or directory handle.
type File interface {
	Name() string
	Path() string
	IsDirectory() bool
	Size() int64
	AllocationSize() int64

	// Timestamps, in epoch milliseconds.
	CreatedAt() int64
	LastModifiedAt() int64
	LastChangedAt() int64
	LastAccessedAt() int64

	Attributes() uint32
	CreateAction() uint32

	Read(ctx context.Context, buf []byte, pos int64) (int, error)
	SetLength(ctx context.Context, n int64) error
	Delete(ctx context.Context) error
	Close(ctx context.Context) error
	SetDeleteOnClose(bool)
	SetLastModifiedTime(epochMs int64)
}
