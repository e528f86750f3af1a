// Package skiplist implements an ordered index over immutable keys whose
// nodes live in an arena for the lifetime of the list.
//
// Writes require external synchronization: at most one goroutine may call
// Insert at a time. Any number of goroutines may call Contains or drive their
// own Iterator concurrently with that writer, without locking. A node becomes
// visible at a level through a single atomic store of its predecessor's
// forward pointer, made after the node's key and every one of its own forward
// pointers are written, so readers never observe a half-built node.
//
// Nodes are never removed.
package skiplist

import (
	"bytes"
	"cmp"
	"fmt"
	"math/rand"
	"sync/atomic"

	"github.com/MikhailWahib/gravelmem/internal/arena"
)

const (
	// MaxHeight is the tallest tower any node may have.
	MaxHeight = 12

	// DefaultSeed seeds height selection when no WithSeed option is given.
	DefaultSeed = 0xdeadbeef

	// Each level holds on average 1/branching of the nodes below it.
	branching = 4
)

// Comparator returns a negative number if a < b, zero if a == b and a
// positive number if a > b. It must define a total order.
type Comparator[K any] func(a, b K) int

// Bytewise orders byte slices lexicographically.
func Bytewise(a, b []byte) int {
	return bytes.Compare(a, b)
}

// Ordered orders any cmp.Ordered key type.
func Ordered[K cmp.Ordered](a, b K) int {
	return cmp.Compare(a, b)
}

type node[K any] struct {
	key K
	// next holds exactly one slot per level the node participates in.
	next []atomic.Pointer[node[K]]
}

// loadNext observes the successor at level. Go atomics are sequentially
// consistent, which covers the acquire ordering readers need.
func (n *node[K]) loadNext(level int) *node[K] {
	return n.next[level].Load()
}

// storeNext publishes x as the successor at level.
func (n *node[K]) storeNext(level int, x *node[K]) {
	n.next[level].Store(x)
}

// Option configures a SkipList.
type Option func(*options)

type options struct {
	seed int64
}

// WithSeed sets the seed of the generator that picks node heights.
func WithSeed(seed int64) Option {
	return func(o *options) {
		o.seed = seed
	}
}

// SkipList is a sorted multi-level linked list of unique keys.
type SkipList[K any] struct {
	cmp   Comparator[K]
	arena *arena.Arena
	nodes *arena.Slab[node[K]]
	links *arena.Slab[atomic.Pointer[node[K]]]

	head *node[K]

	// height only grows. Readers holding a stale value simply skip the
	// newest levels and still converge through level 0.
	height atomic.Int32
	length atomic.Int64

	// Only touched by the writer.
	rnd *rand.Rand
}

// New creates an empty SkipList ordered by cmp whose nodes are allocated
// from a. The list never frees a and never creates its own arena.
func New[K any](cmp Comparator[K], a *arena.Arena, opts ...Option) (*SkipList[K], error) {
	o := options{seed: DefaultSeed}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	s := &SkipList[K]{
		cmp:   cmp,
		arena: a,
		nodes: arena.NewSlab[node[K]](a),
		links: arena.NewSlab[atomic.Pointer[node[K]]](a),
		rnd:   rand.New(rand.NewSource(o.seed)),
	}

	var zero K
	head, err := s.newNode(zero, MaxHeight)
	if err != nil {
		return nil, fmt.Errorf("skiplist: allocate head: %w", err)
	}
	s.head = head
	s.height.Store(1)
	return s, nil
}

// Insert adds key to the list. Inserting a key equal to one already present
// returns ErrDuplicateKey and leaves the list unchanged. An allocation
// failure is returned wrapped and also leaves the list unchanged.
//
// Insert must not be called concurrently with itself.
func (s *SkipList[K]) Insert(key K) error {
	var prev [MaxHeight]*node[K]
	x := s.findGreaterOrEqual(key, &prev)
	if x != nil && s.cmp(key, x.key) == 0 {
		return ErrDuplicateKey
	}

	height := s.randomHeight()
	x, err := s.newNode(key, height)
	if err != nil {
		return fmt.Errorf("skiplist: allocate node: %w", err)
	}

	if cur := s.Height(); height > cur {
		for i := cur; i < height; i++ {
			prev[i] = s.head
		}
		s.height.Store(int32(height))
	}

	for i := 0; i < height; i++ {
		// x is unreachable until prev[i] points at it, so this first store
		// cannot race with a reader.
		x.storeNext(i, prev[i].loadNext(i))
		prev[i].storeNext(i, x)
	}
	s.length.Add(1)
	return nil
}

// Contains reports whether a key equal to key is in the list.
func (s *SkipList[K]) Contains(key K) bool {
	x := s.findGreaterOrEqual(key, nil)
	return x != nil && s.cmp(key, x.key) == 0
}

// Len returns the number of keys inserted so far.
func (s *SkipList[K]) Len() int64 {
	return s.length.Load()
}

// Height returns the tallest level currently in use.
func (s *SkipList[K]) Height() int {
	return int(s.height.Load())
}

// Arena returns the arena backing this list.
func (s *SkipList[K]) Arena() *arena.Arena {
	return s.arena
}

func (s *SkipList[K]) newNode(key K, height int) (*node[K], error) {
	nodes, err := s.nodes.Alloc(1)
	if err != nil {
		return nil, err
	}
	next, err := s.links.Alloc(height)
	if err != nil {
		return nil, err
	}
	n := &nodes[0]
	n.key = key
	n.next = next
	return n, nil
}

func (s *SkipList[K]) randomHeight() int {
	height := 1
	for height < MaxHeight && s.rnd.Intn(branching) == 0 {
		height++
	}
	return height
}

func (s *SkipList[K]) keyIsAfterNode(key K, n *node[K]) bool {
	return n != nil && s.cmp(n.key, key) < 0
}

// findGreaterOrEqual returns the first node whose key is >= key, or nil.
// When prev is non-nil it is filled with the predecessor at every level
// below the current height.
func (s *SkipList[K]) findGreaterOrEqual(key K, prev *[MaxHeight]*node[K]) *node[K] {
	x := s.head
	level := s.Height() - 1
	for {
		next := x.loadNext(level)
		if s.keyIsAfterNode(key, next) {
			x = next
			continue
		}
		if prev != nil {
			prev[level] = x
		}
		if level == 0 {
			return next
		}
		level--
	}
}

// findLessThan returns the last node whose key is < key, or head.
func (s *SkipList[K]) findLessThan(key K) *node[K] {
	x := s.head
	level := s.Height() - 1
	for {
		next := x.loadNext(level)
		if next == nil || s.cmp(next.key, key) >= 0 {
			if level == 0 {
				return x
			}
			level--
			continue
		}
		x = next
	}
}

// findLast returns the last node in the list, or head if it is empty.
func (s *SkipList[K]) findLast() *node[K] {
	x := s.head
	level := s.Height() - 1
	for {
		next := x.loadNext(level)
		if next == nil {
			if level == 0 {
				return x
			}
			level--
			continue
		}
		x = next
	}
}
