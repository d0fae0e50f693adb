// Package bufpool pools the copy buffers used to stream artifact bodies
// between HTTP connections and blob backends.
//
// Two size classes are kept: a default class for ordinary streams and a
// large class for bulk transfers. Requests above the large class are
// allocated directly so an occasional huge buffer is not retained.
//
//	n, err := bufpool.Copy(dst, src)
package bufpool

import (
	"io"
	"sync"
)

const (
	// DefaultSize suits request and response bodies (32KiB, io.Copy's size).
	DefaultSize = 32 << 10

	// LargeSize suits bulk copies into files and object stores (1MiB).
	LargeSize = 1 << 20
)

// Pool hands out byte slices from two size classes.
type Pool struct {
	small     sync.Pool
	large     sync.Pool
	smallSize int
	largeSize int
}

// NewPool creates a pool. Non-positive sizes fall back to the defaults.
func NewPool(smallSize, largeSize int) *Pool {
	if smallSize <= 0 {
		smallSize = DefaultSize
	}
	if largeSize < smallSize {
		largeSize = max(LargeSize, smallSize)
	}

	p := &Pool{smallSize: smallSize, largeSize: largeSize}
	p.small.New = func() any {
		buf := make([]byte, p.smallSize)
		return &buf
	}
	p.large.New = func() any {
		buf := make([]byte, p.largeSize)
		return &buf
	}
	return p
}

// Get returns a slice of length size backed by a pooled buffer when size
// fits a class. Return it with Put.
func (p *Pool) Get(size int) []byte {
	switch {
	case size <= p.smallSize:
		return (*p.small.Get().(*[]byte))[:max(size, 0)]
	case size <= p.largeSize:
		return (*p.large.Get().(*[]byte))[:size]
	default:
		return make([]byte, size)
	}
}

// Put returns buf to its class. Buffers of any other capacity are dropped.
func (p *Pool) Put(buf []byte) {
	full := buf[:cap(buf)]
	switch cap(buf) {
	case p.smallSize:
		p.small.Put(&full)
	case p.largeSize:
		p.large.Put(&full)
	}
}

// CopySize copies src to dst through a pooled buffer of bufSize bytes.
// As with io.CopyBuffer, the buffer is bypassed when src implements
// io.WriterTo or dst implements io.ReaderFrom.
func (p *Pool) CopySize(dst io.Writer, src io.Reader, bufSize int) (int64, error) {
	buf := p.Get(bufSize)
	defer p.Put(buf)
	return io.CopyBuffer(dst, src, buf)
}

var globalPool = NewPool(DefaultSize, LargeSize)

// Get returns a buffer from the package pool.
func Get(size int) []byte {
	return globalPool.Get(size)
}

// Put returns a buffer to the package pool.
func Put(buf []byte) {
	globalPool.Put(buf)
}

// Copy streams src to dst through a DefaultSize pooled buffer.
func Copy(dst io.Writer, src io.Reader) (int64, error) {
	return globalPool.CopySize(dst, src, DefaultSize)
}

// CopyLarge streams src to dst through a LargeSize pooled buffer.
func CopyLarge(dst io.Writer, src io.Reader) (int64, error) {
	return globalPool.CopySize(dst, src, LargeSize)
}
