package bufpool

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet(t *testing.T) {
	t.Run("SmallClass", func(t *testing.T) {
		buf := Get(100)
		defer Put(buf)

		assert.Len(t, buf, 100)
		assert.Equal(t, DefaultSize, cap(buf))
	})

	t.Run("LargeClass", func(t *testing.T) {
		buf := Get(DefaultSize + 1)
		defer Put(buf)

		assert.Len(t, buf, DefaultSize+1)
		assert.Equal(t, LargeSize, cap(buf))
	})

	t.Run("Oversized", func(t *testing.T) {
		buf := Get(2 * LargeSize)
		defer Put(buf)

		assert.Len(t, buf, 2*LargeSize)
		assert.Equal(t, len(buf), cap(buf))
	})

	t.Run("ZeroAndNegative", func(t *testing.T) {
		for _, size := range []int{0, -5} {
			buf := Get(size)
			assert.Empty(t, buf)
			assert.Equal(t, DefaultSize, cap(buf))
			Put(buf)
		}
	})
}

func TestNewPool_Sizes(t *testing.T) {
	p := NewPool(0, 0)
	assert.Equal(t, DefaultSize, p.smallSize)
	assert.Equal(t, LargeSize, p.largeSize)

	p = NewPool(8, 64)
	buf := p.Get(9)
	assert.Equal(t, 64, cap(buf))
	p.Put(buf)
}

func TestPut_ForeignBuffersAreDropped(t *testing.T) {
	p := NewPool(8, 64)
	assert.NotPanics(t, func() {
		p.Put(make([]byte, 10))
		p.Put(nil)
	})
}

func TestPut_ResetsLength(t *testing.T) {
	p := NewPool(8, 64)
	buf := p.Get(3)
	p.Put(buf)

	// sync.Pool may or may not hand back the same buffer; either way the
	// requested length is honoured.
	assert.Len(t, p.Get(8), 8)
}

// onlyReader hides io.WriterTo so CopyBuffer uses the pooled buffer.
type onlyReader struct{ r io.Reader }

func (o onlyReader) Read(p []byte) (int, error) { return o.r.Read(p) }

// onlyWriter hides io.ReaderFrom.
type onlyWriter struct{ w io.Writer }

func (o onlyWriter) Write(p []byte) (int, error) { return o.w.Write(p) }

func TestCopy(t *testing.T) {
	payload := strings.Repeat("cask", 100_000)

	for name, copyFn := range map[string]func(io.Writer, io.Reader) (int64, error){
		"Default": Copy,
		"Large":   CopyLarge,
	} {
		t.Run(name, func(t *testing.T) {
			var dst bytes.Buffer
			n, err := copyFn(onlyWriter{&dst}, onlyReader{strings.NewReader(payload)})
			require.NoError(t, err)
			assert.Equal(t, int64(len(payload)), n)
			assert.Equal(t, payload, dst.String())
		})
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("disk on fire") }

func TestCopy_PropagatesErrors(t *testing.T) {
	_, err := Copy(io.Discard, failingReader{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk on fire")
}

func TestConcurrentCopies(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			payload := strings.Repeat(string(rune('a'+i%26)), 70_000)
			var dst bytes.Buffer
			_, err := Copy(onlyWriter{&dst}, onlyReader{strings.NewReader(payload)})
			assert.NoError(t, err)
			assert.Equal(t, payload, dst.String())
		}(i)
	}
	wg.Wait()
}
