// Package rectifier implements a single-producer, many-waiter ranged-HTTP
// prefetcher. One Rectifier backs one open file on an httpshare tree: it
// issues a single ranged GET, streams the body into an in-memory buffer
// queue, and lets any number of sequential readers consume from that queue
// without each one driving its own HTTP request.
//
// The read pattern it assumes is sequential: successive Read calls must
// request non-decreasing positions. A caller that seeks backwards gets
// STATUS_UNSUCCESSFUL rather than a second upstream request; this server
// only serves the linear scan an SMB1 client performs when streaming a
// file, never random-access reads.
package rectifier

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"sync"

	"github.com/rangeshare/smb1d/internal/bytesize"
	"github.com/rangeshare/smb1d/internal/logger"
	"github.com/rangeshare/smb1d/internal/metrics"
	"github.com/rangeshare/smb1d/internal/smb1/status"
	"github.com/rangeshare/smb1d/pkg/bufpool"
)

// minCacheSize is the floor under cacheSize = max(size/10, minCacheSize).
const minCacheSize = int64(2 * bytesize.MiB)

// chunk is one piece of the in-memory buffer queue.
type chunk struct {
	data []byte
}

// waiter is a registered reader blocked on data reaching targetPos.
type waiter struct {
	targetPos int64
	ready     chan struct{}
}

// Rectifier prefetches one HTTP-addressable resource, ranged from the
// offset its first reader requests, and fans the resulting byte stream out
// to every subsequent sequential reader.
type Rectifier struct {
	url     string
	headers http.Header
	size    int64

	client *http.Client

	mu        sync.Mutex
	offset    int64 // byte position the current upstream request started from
	position  int64 // bytes received so far, offset+position = absolute stream position
	buffers   []chunk
	length    int64 // total bytes currently queued in buffers
	tasks     []*waiter
	loaded    bool // upstream body fully drained
	running   bool
	paused    bool
	closed    bool
	cacheSize int64

	cancel context.CancelFunc
	err    error
}

// New creates a Rectifier for url with the given request headers (e.g.
// Authorization) and the resource's total size as reported out of band
// (a directory manifest entry). The upstream GET is not issued until the
// first Read call registers a waiter.
func New(client *http.Client, url string, headers http.Header, size int64) *Rectifier {
	cacheSize := size / 10
	if cacheSize < minCacheSize {
		cacheSize = minCacheSize
	}
	return &Rectifier{
		url:       url,
		headers:   headers,
		size:      size,
		client:    client,
		cacheSize: cacheSize,
	}
}

// ErrNonSequentialRead is returned when a caller's requested position is
// behind the stream's current position: this Rectifier only ever prefetches
// forward.
var ErrNonSequentialRead = errors.New("rectifier: non-sequential read")

// ErrClosed is returned by Read after Close.
var ErrClosed = errors.New("rectifier: closed")

// Read blocks until bytes covering pos are available (or the stream ends,
// or ctx is cancelled), then copies min(len(p), available) bytes starting
// at pos into p and returns the count read.
func (r *Rectifier) Read(ctx context.Context, p []byte, pos int64) (int, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return 0, ErrClosed
	}
	if pos < r.offset+r.position-r.length {
		r.mu.Unlock()
		return 0, ErrNonSequentialRead
	}
	if !r.running {
		r.offset = pos
		r.running = true
		go r.run(context.Background())
	}

	ready := make(chan struct{})
	w := &waiter{targetPos: pos, ready: ready}
	r.tasks = append(r.tasks, w)
	r.updateTaskLocked()
	r.mu.Unlock()

	select {
	case <-ready:
	case <-ctx.Done():
		return 0, ctx.Err()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil && r.length == 0 {
		return 0, r.err
	}
	return r.consumeLocked(p, pos)
}

// consumeLocked reads from the head of the buffer queue, assuming pos is at
// (or is about to become) the stream's current consumption point. The
// caller holds r.mu.
func (r *Rectifier) consumeLocked(p []byte, pos int64) (int, error) {
	streamStart := r.offset + r.position - r.length
	skip := int(pos - streamStart)
	if skip < 0 {
		return 0, ErrNonSequentialRead
	}

	n := 0
	for skip > 0 && len(r.buffers) > 0 {
		c := &r.buffers[0]
		if skip >= len(c.data) {
			skip -= len(c.data)
			r.length -= int64(len(c.data))
			r.buffers = r.buffers[1:]
			continue
		}
		c.data = c.data[skip:]
		skip = 0
	}

	for n < len(p) && len(r.buffers) > 0 {
		c := &r.buffers[0]
		copied := copy(p[n:], c.data)
		n += copied
		c.data = c.data[copied:]
		r.length -= int64(copied)
		if len(c.data) == 0 {
			r.buffers = r.buffers[1:]
		}
	}

	r.updateTaskLocked()

	if n == 0 && r.loaded {
		return 0, io.EOF
	}
	return n, nil
}

// run issues the ranged GET and streams the response body into the buffer
// queue, pausing and resuming as updateTask directs. It runs on its own
// goroutine for the Rectifier's lifetime, terminating on Close or EOF.
func (r *Rectifier) run(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	r.mu.Lock()
	r.cancel = cancel
	startOffset := r.offset
	r.mu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.url, nil)
	if err != nil {
		r.fail(err)
		return
	}
	for k, vs := range r.headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Range", rangeHeader(startOffset))

	resp, err := r.client.Do(req)
	if err != nil {
		r.fail(err)
		return
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNotFound:
		r.fail(status.New(status.NoSuchFile, "rectifier: upstream %s: status %d", r.url, resp.StatusCode))
		return
	case http.StatusRequestedRangeNotSatisfiable:
		r.fail(status.New(status.EndOfFile, "rectifier: upstream %s: status %d", r.url, resp.StatusCode))
		return
	}
	if resp.StatusCode >= 400 {
		r.fail(status.New(status.Unsuccessful, "rectifier: upstream %s: status %d", r.url, resp.StatusCode))
		return
	}

	r.mu.Lock()
	if resp.StatusCode != http.StatusPartialContent {
		// Upstream ignored the range; restart accounting from zero and
		// treat the body as the whole resource.
		r.offset = 0
		r.position = 0
		metrics.RectifierFallbacks.Inc()
	}
	r.mu.Unlock()

	buf := bufpool.Get(int(64 * bytesize.KiB))
	defer bufpool.Put(buf)
	for {
		if r.waitIfPaused(ctx) {
			return
		}

		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			data := append([]byte(nil), buf[:n]...)
			r.mu.Lock()
			r.buffers = append(r.buffers, chunk{data: data})
			r.length += int64(len(data))
			r.position += int64(len(data))
			r.updateTaskLocked()
			r.mu.Unlock()
			metrics.RectifierBytesFetched.Add(float64(len(data)))
		}
		if readErr != nil {
			r.mu.Lock()
			r.loaded = true
			if readErr != io.EOF {
				r.err = readErr
			}
			r.updateTaskLocked()
			r.mu.Unlock()
			return
		}
	}
}

// waitIfPaused blocks while the producer is paused, returning true if ctx
// was cancelled (or the Rectifier closed) while waiting.
func (r *Rectifier) waitIfPaused(ctx context.Context) bool {
	for {
		r.mu.Lock()
		paused := r.paused
		closed := r.closed
		r.mu.Unlock()
		if closed {
			return true
		}
		if !paused {
			return false
		}
		select {
		case <-ctx.Done():
			return true
		default:
		}
	}
}

// updateTaskLocked finds the farthest waiter, pauses/resumes the producer
// against cacheSize thresholds, and wakes every waiter whose target has
// been reached (or the stream has ended). The caller holds r.mu.
func (r *Rectifier) updateTaskLocked() {
	var farthest int64
	for _, t := range r.tasks {
		if t.targetPos > farthest {
			farthest = t.targetPos
		}
	}

	streamPos := r.offset + r.position
	wasPaused := r.paused
	if streamPos-farthest > r.cacheSize {
		r.paused = true
	} else if streamPos-farthest < r.cacheSize/5 {
		r.paused = false
	}
	if r.paused && !wasPaused {
		metrics.RectifierPauses.Inc()
	} else if !r.paused && wasPaused {
		metrics.RectifierResumes.Inc()
	}

	remaining := r.tasks[:0]
	for _, t := range r.tasks {
		if t.targetPos < streamPos || (r.size > 0 && t.targetPos >= r.size && r.loaded) || r.loaded {
			close(t.ready)
			continue
		}
		remaining = append(remaining, t)
	}
	r.tasks = remaining
}

func (r *Rectifier) fail(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
	r.loaded = true
	r.updateTaskLocked()
}

// Close aborts the upstream request and wakes every blocked waiter.
func (r *Rectifier) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	if r.cancel != nil {
		r.cancel()
	}
	for _, t := range r.tasks {
		close(t.ready)
	}
	r.tasks = nil
	logger.Debug("rectifier closed", logger.Path(r.url))
}

func rangeHeader(start int64) string {
	return "bytes=" + strconv.FormatInt(start, 10) + "-"
}
