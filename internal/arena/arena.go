// Package arena implements a bump-pointer allocator that hands out memory
// grouped into coarse blocks. Nothing allocated from an Arena is ever freed
// individually; every block lives exactly as long as the Arena itself.
//
// An Arena is meant to be driven by a single allocating goroutine. Only
// MemoryUsage may be called concurrently with allocation.
package arena

import (
	"sync/atomic"
	"unsafe"
)

const (
	// DefaultBlockSize is the size of a shared block when none is configured.
	DefaultBlockSize = 4096
	// MinBlockSize is the smallest block size an Arena accepts.
	MinBlockSize = 512
	// MaxBlockSize is the largest block size an Arena accepts.
	MaxBlockSize = 64 << 20

	// BlockOverhead is the bookkeeping charged to MemoryUsage for every block.
	BlockOverhead = int(unsafe.Sizeof([]byte(nil)))

	// Alignment is the address multiple guaranteed by AllocateAligned.
	Alignment = max(int(unsafe.Sizeof(uintptr(0))), 8)

	inlineSize = 2048
)

// Option configures an Arena.
type Option func(*Arena)

// WithBlockSize sets the shared block size, clamped to [MinBlockSize, MaxBlockSize].
func WithBlockSize(size int) Option {
	return func(a *Arena) {
		a.blockSize = min(max(size, MinBlockSize), MaxBlockSize)
	}
}

// WithLimit caps the bytes the Arena may obtain. Allocations that would push
// MemoryUsage past the limit fail with ErrArenaFull. Zero means unlimited.
func WithLimit(limit int64) Option {
	return func(a *Arena) {
		if limit > 0 {
			a.limit = limit
		}
	}
}

// Arena is a block-based bump allocator.
type Arena struct {
	memoryUsage atomic.Int64

	blockSize int
	limit     int64

	// The first small allocations are served from inline before any heap
	// block is created.
	inline [inlineSize]byte

	cur []byte
	off int

	blocks [][]byte
	typed  []any
}

// New creates an Arena. The inline buffer is charged to MemoryUsage up front.
func New(opts ...Option) *Arena {
	a := &Arena{blockSize: DefaultBlockSize}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	a.cur = a.inline[:]
	a.memoryUsage.Store(inlineSize)
	return a
}

// Allocate returns n bytes of writable memory with no alignment guarantee.
func (a *Arena) Allocate(n int) ([]byte, error) {
	if n <= 0 {
		return nil, ErrZeroSize
	}
	if n > a.blockSize/4 {
		return a.allocateDedicated(n)
	}
	if n <= a.remaining() {
		return a.carve(n), nil
	}
	return a.allocateFallback(n)
}

// AllocateAligned returns n bytes whose address is a multiple of Alignment.
func (a *Arena) AllocateAligned(n int) ([]byte, error) {
	if n <= 0 {
		return nil, ErrZeroSize
	}
	if n > a.blockSize/4 {
		return a.allocateDedicated(n)
	}
	slop := a.slop()
	if n+slop <= a.remaining() {
		a.off += slop
		return a.carve(n), nil
	}
	// Fresh heap blocks start on an Alignment boundary.
	return a.allocateFallback(n)
}

// MemoryUsage reports the total bytes obtained for this Arena, including the
// inline buffer and per-block overhead. It never decreases.
func (a *Arena) MemoryUsage() int64 {
	return a.memoryUsage.Load()
}

// BlockSize returns the configured shared block size.
func (a *Arena) BlockSize() int {
	return a.blockSize
}

// Blocks returns the number of heap blocks obtained so far, raw and typed.
func (a *Arena) Blocks() int {
	return len(a.blocks) + len(a.typed)
}

func (a *Arena) remaining() int {
	return len(a.cur) - a.off
}

func (a *Arena) carve(n int) []byte {
	b := a.cur[a.off : a.off+n : a.off+n]
	a.off += n
	return b
}

func (a *Arena) slop() int {
	if a.remaining() == 0 {
		return 0
	}
	addr := uintptr(unsafe.Pointer(&a.cur[a.off]))
	mod := int(addr & uintptr(Alignment-1))
	if mod == 0 {
		return 0
	}
	return Alignment - mod
}

// allocateFallback replaces the current shared block. Whatever was left of
// the old block is abandoned.
func (a *Arena) allocateFallback(n int) ([]byte, error) {
	block, err := a.newBlock(a.blockSize)
	if err != nil {
		return nil, err
	}
	a.cur = block
	a.off = 0
	return a.carve(n), nil
}

func (a *Arena) allocateDedicated(n int) ([]byte, error) {
	block, err := a.newBlock(n)
	if err != nil {
		return nil, err
	}
	return block[:n:n], nil
}

func (a *Arena) newBlock(size int) ([]byte, error) {
	if err := a.charge(size); err != nil {
		return nil, err
	}
	block := make([]byte, size)
	a.blocks = append(a.blocks, block)
	return block, nil
}

// charge accounts for a new block of size bytes, refusing it if the limit
// would be exceeded.
func (a *Arena) charge(size int) error {
	total := int64(size + BlockOverhead)
	if a.limit > 0 && a.memoryUsage.Load()+total > a.limit {
		return ErrArenaFull
	}
	a.memoryUsage.Add(total)
	return nil
}
