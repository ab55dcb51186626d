package engine

import (
	"sync"
)

// DefaultChunkSize is the unit of streaming copy. Chunks must be a bounded,
// non-zero size: unbounded reads trip edge cases in streaming backends and
// starve per-chunk progress updates.
const DefaultChunkSize = 5 * 1024 * 1024

// BufferPool manages reusable chunk buffers to minimize GC overhead when
// many workers stream large objects concurrently.
type BufferPool struct {
	pool sync.Pool
}

// NewBufferPool creates a BufferPool that allocates buffers of the given
// size. If size is <= 0, DefaultChunkSize is used.
func NewBufferPool(size int) *BufferPool {
	if size <= 0 {
		size = DefaultChunkSize
	}
	return &BufferPool{
		pool: sync.Pool{
			New: func() any {
				b := make([]byte, size)
				return &b
			},
		},
	}
}

// Get retrieves a reusable chunk buffer from the pool.
// The caller should defer calling Put on this buffer once finished.
func (bp *BufferPool) Get() *[]byte {
	return bp.pool.Get().(*[]byte)
}

// Put returns the chunk buffer to the pool so it can be reused.
// The caller must not touch the buffer after calling Put.
func (bp *BufferPool) Put(b *[]byte) {
	if b != nil {
		bp.pool.Put(b)
	}
}
