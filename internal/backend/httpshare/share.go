package httpshare

import (
	"context"
	"net/http"

	"github.com/rangeshare/smb1d/internal/rectifier"
	"github.com/rangeshare/smb1d/internal/smb1/backend"
	"github.com/rangeshare/smb1d/internal/smb1/status"
)

// Share projects one HTTP-addressable manifest as a read-only backend.Share.
type Share struct {
	name   string
	tree   *dirTree
	client *http.Client
	// authHeader is attached to every Rectifier's upstream requests; empty
	// when the origin needs no credentials.
	authHeader http.Header
}

// NewShare builds a Share from an already-fetched manifest.
func NewShare(name string, manifest *Manifest, client *http.Client, authHeader http.Header) *Share {
	return &Share{
		name:       name,
		tree:       buildTree(manifest),
		client:     client,
		authHeader: authHeader,
	}
}

func (s *Share) Name() string      { return s.name }
func (s *Share) IsNamedPipe() bool { return false }

// Connect ignores username/domain: every authenticated (or guest) session
// sees the same read-only tree.
func (s *Share) Connect(ctx context.Context, username, domain string) (backend.Tree, error) {
	return &Tree{share: s}, nil
}

// Tree is the per-connection view of a Share.
type Tree struct {
	share *Share
}

func (t *Tree) newRectifier(n *node) *rectifier.Rectifier {
	return rectifier.New(t.share.client, n.url, t.share.authHeader, n.size)
}

var errReadOnly = status.New(status.AccessDenied, "share is read-only")

func (t *Tree) Open(ctx context.Context, name string) (backend.File, error) {
	n, ok := t.share.tree.lookup(name)
	if !ok {
		return nil, status.New(status.NoSuchFile, "%s", name)
	}
	return newFile(t, n), nil
}

func (t *Tree) OpenOrCreate(ctx context.Context, name string, disposition backend.CreateDisposition, isDir bool) (backend.File, uint32, error) {
	if disposition != backend.DispositionOpen {
		return nil, 0, errReadOnly
	}
	f, err := t.Open(ctx, name)
	if err != nil {
		return nil, 0, err
	}
	return f, backend.ActionOpened, nil
}

func (t *Tree) List(ctx context.Context, pattern string) ([]backend.File, error) {
	dirPath, glob := splitPattern(pattern)
	n, ok := t.share.tree.lookup(dirPath)
	if !ok || !n.isDir {
		return nil, nil
	}

	var out []backend.File
	for _, child := range n.children {
		if matched, _ := matchGlob(glob, child.name); matched {
			out = append(out, newFile(t, child))
		}
	}
	return out, nil
}

func (t *Tree) Rename(ctx context.Context, file backend.File, newPath string) error {
	return errReadOnly
}

func (t *Tree) CreateFile(ctx context.Context, name string) (backend.File, error) {
	return nil, errReadOnly
}

func (t *Tree) CreateDirectory(ctx context.Context, name string) error {
	return errReadOnly
}

func (t *Tree) Delete(ctx context.Context, name string) error {
	return errReadOnly
}

func (t *Tree) DeleteDirectory(ctx context.Context, name string) error {
	return errReadOnly
}

func (t *Tree) Disconnect(ctx context.Context) error {
	return nil
}
