// Package memory provides pooled buffers and bounded reads for spec
// documents and upstream response bodies.
package memory

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"
)

// ErrTooLarge is returned when a body exceeds the configured read limit.
var ErrTooLarge = errors.New("content exceeds size limit")

// maxPooledCap keeps oversized buffers out of the pool.
const maxPooledCap = 64 * 1024

// BufferPool manages a pool of reusable bytes.Buffer instances
type BufferPool struct {
	pool sync.Pool
}

// NewBufferPool creates a new buffer pool
func NewBufferPool() *BufferPool {
	return &BufferPool{
		pool: sync.Pool{
			New: func() interface{} {
				return &bytes.Buffer{}
			},
		},
	}
}

// Get retrieves a buffer from the pool
func (bp *BufferPool) Get() *bytes.Buffer {
	buf := bp.pool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

// Put returns a buffer to the pool for reuse
func (bp *BufferPool) Put(buf *bytes.Buffer) {
	if buf.Cap() <= maxPooledCap {
		bp.pool.Put(buf)
	}
}

// ReadLimited reads all of r into a fresh slice, failing with ErrTooLarge
// once more than limit bytes are available. A limit <= 0 disables the bound.
func (bp *BufferPool) ReadLimited(r io.Reader, limit int64) ([]byte, error) {
	buf := bp.Get()
	defer bp.Put(buf)

	src := r
	if limit > 0 {
		src = io.LimitReader(r, limit+1)
	}
	if _, err := buf.ReadFrom(src); err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}
	if limit > 0 && int64(buf.Len()) > limit {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, limit)
	}

	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out, nil
}

var defaultPool = NewBufferPool()

// ReadLimited reads r through the package-level pool.
func ReadLimited(r io.Reader, limit int64) ([]byte, error) {
	return defaultPool.ReadLimited(r, limit)
}
