package httpshare

import (
	"context"
	"sync"

	"github.com/rangeshare/smb1d/internal/rectifier"
	"github.com/rangeshare/smb1d/internal/smb1/backend"
)

// File is one open handle on a manifest node. Directories never get a
// Rectifier; they answer Size/Read trivially and exist only so NT_CREATE_ANDX
// and TRANS2 path queries can resolve them.
type File struct {
	tree *Tree
	n    *node

	mu         sync.Mutex
	rect       *rectifier.Rectifier
	deleteOnClose bool
	lastModified  int64
}

func newFile(t *Tree, n *node) *File {
	return &File{tree: t, n: n, lastModified: n.modTime.UnixMilli()}
}

func (f *File) Name() string        { return f.n.name }
func (f *File) Path() string        { return f.n.path }
func (f *File) IsDirectory() bool   { return f.n.isDir }
func (f *File) Size() int64         { return f.n.size }
func (f *File) AllocationSize() int64 {
	const allocUnit = 4096
	return (f.n.size + allocUnit - 1) / allocUnit * allocUnit
}

func (f *File) CreatedAt() int64       { return f.n.modTime.UnixMilli() }
func (f *File) LastAccessedAt() int64  { return f.n.modTime.UnixMilli() }
func (f *File) LastChangedAt() int64   { return f.n.modTime.UnixMilli() }
func (f *File) LastModifiedAt() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastModified
}

func (f *File) Attributes() uint32 {
	const fileAttributeDirectory = 0x10
	const fileAttributeNormal = 0x80
	const fileAttributeReadonly = 0x01
	if f.n.isDir {
		return fileAttributeDirectory
	}
	return fileAttributeNormal | fileAttributeReadonly
}

func (f *File) CreateAction() uint32 { return backend.ActionOpened }

// Read lazily creates this file's Rectifier on first use and delegates to
// it; every subsequent Read shares the same prefetch stream.
func (f *File) Read(ctx context.Context, buf []byte, pos int64) (int, error) {
	if f.n.isDir {
		return 0, nil
	}
	f.mu.Lock()
	if f.rect == nil {
		f.rect = f.tree.newRectifier(f.n)
	}
	rect := f.rect
	f.mu.Unlock()

	return rect.Read(ctx, buf, pos)
}

func (f *File) SetLength(ctx context.Context, n int64) error { return errReadOnly }
func (f *File) Delete(ctx context.Context) error             { return errReadOnly }

func (f *File) Close(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.rect != nil {
		f.rect.Close()
		f.rect = nil
	}
	return nil
}

// SetDeleteOnClose and SetLastModifiedTime are accepted but inert: this
// backend is read-only, so no delete-on-close ever actually deletes
// anything, and the modified-time override only affects what subsequent
// QUERY_FILE_INFORMATION calls on the same handle report.
func (f *File) SetDeleteOnClose(v bool) {
	f.mu.Lock()
	f.deleteOnClose = v
	f.mu.Unlock()
}

func (f *File) SetLastModifiedTime(epochMs int64) {
	f.mu.Lock()
	f.lastModified = epochMs
	f.mu.Unlock()
}
