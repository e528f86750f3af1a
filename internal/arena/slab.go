package arena

import "unsafe"

// Slab carves typed values out of blocks owned by an Arena. Values that hold
// Go pointers cannot live in the Arena's raw byte blocks, so a Slab keeps
// them in typed blocks instead while still charging every block to the
// parent Arena's MemoryUsage. The Arena keeps each block reachable for its
// whole lifetime.
//
// Like the Arena, a Slab must only be used by one allocating goroutine.
type Slab[T any] struct {
	arena    *Arena
	elemSize int
	perBlock int

	cur []T
	off int
}

// NewSlab returns a Slab that allocates from a. A shared block holds as many
// values as fit in the arena's block size.
func NewSlab[T any](a *Arena) *Slab[T] {
	var zero T
	size := max(int(unsafe.Sizeof(zero)), 1)
	return &Slab[T]{
		arena:    a,
		elemSize: size,
		perBlock: max(a.blockSize/size, 1),
	}
}

// Alloc returns n contiguous zero values. Requests larger than a quarter of a
// shared block get a dedicated block of exactly n values.
func (s *Slab[T]) Alloc(n int) ([]T, error) {
	if n <= 0 {
		return nil, ErrZeroSize
	}
	if n > s.perBlock/4 {
		return s.newBlock(n)
	}
	if n > len(s.cur)-s.off {
		block, err := s.newBlock(s.perBlock)
		if err != nil {
			return nil, err
		}
		s.cur = block
		s.off = 0
	}
	v := s.cur[s.off : s.off+n : s.off+n]
	s.off += n
	return v, nil
}

func (s *Slab[T]) newBlock(n int) ([]T, error) {
	if err := s.arena.charge(n * s.elemSize); err != nil {
		return nil, err
	}
	block := make([]T, n)
	s.arena.typed = append(s.arena.typed, block)
	return block, nil
}
