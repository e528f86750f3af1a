// Package memtable implements an in-memory table structure for the database,
// holding recent writes in an arena-backed skip list until the table is
// frozen and released.
package memtable

import (
	"fmt"

	"github.com/MikhailWahib/gravelmem/internal/arena"
	"github.com/MikhailWahib/gravelmem/internal/config"
	"github.com/MikhailWahib/gravelmem/internal/skiplist"
	"github.com/MikhailWahib/gravelmem/internal/storage"
	"github.com/google/uuid"
)

// Memtable defines the interface for an in-memory table. Add must be called
// by one goroutine at a time; every other method is safe to call
// concurrently with it.
type Memtable interface {
	ID() uuid.UUID
	Add(seq uint64, t storage.EntryType, key, value []byte) error
	Get(key []byte, seq uint64) (value []byte, t storage.EntryType, found bool)
	NewIterator() *Iterator
	ApproximateMemoryUsage() int64
	Len() int64
}

// entry is the skip list key. Both slices point into the memtable's arena.
type entry struct {
	ikey  []byte
	value []byte
}

// SkiplistMemtable implements the Memtable interface using a skiplist
// data structure whose nodes and entries live in one arena.
type SkiplistMemtable struct {
	id    uuid.UUID
	cmp   skiplist.Comparator[[]byte]
	arena *arena.Arena
	sl    *skiplist.SkipList[entry]
}

// NewMemtable creates a new Memtable instance ordering user keys bytewise.
func NewMemtable(cfg *config.Config) (Memtable, error) {
	return NewMemtableWithComparator(cfg, skiplist.Bytewise)
}

// NewMemtableWithComparator creates a new Memtable ordering user keys with cmp.
func NewMemtableWithComparator(cfg *config.Config, cmp skiplist.Comparator[[]byte]) (Memtable, error) {
	m, err := newSkiplistMemtable(cfg, cmp)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func newSkiplistMemtable(cfg *config.Config, cmp skiplist.Comparator[[]byte]) (*SkiplistMemtable, error) {
	a := arena.New(cfg.ArenaOptions()...)
	compare := func(x, y entry) int {
		return storage.CompareInternalKeys(cmp, x.ikey, y.ikey)
	}

	sl, err := skiplist.New(compare, a, skiplist.WithSeed(cfg.Seed))
	if err != nil {
		return nil, fmt.Errorf("failed to create memtable: %w", err)
	}

	return &SkiplistMemtable{
		id:    uuid.New(),
		cmp:   cmp,
		arena: a,
		sl:    sl,
	}, nil
}

// ID returns the identifier assigned to this memtable at creation.
func (m *SkiplistMemtable) ID() uuid.UUID {
	return m.id
}

// Add copies key and value into the arena and inserts them as version seq.
// The internal key is allocated aligned; the value is not.
func (m *SkiplistMemtable) Add(seq uint64, t storage.EntryType, key, value []byte) error {
	ikey, err := m.arena.AllocateAligned(storage.InternalKeySize(key))
	if err != nil {
		return fmt.Errorf("failed to allocate key: %w", err)
	}
	if err := storage.EncodeInternalKey(ikey, key, seq, t); err != nil {
		return err
	}

	var v []byte
	if len(value) > 0 {
		v, err = m.arena.Allocate(len(value))
		if err != nil {
			return fmt.Errorf("failed to allocate value: %w", err)
		}
		copy(v, value)
	}

	if err := m.sl.Insert(entry{ikey: ikey, value: v}); err != nil {
		return fmt.Errorf("failed to insert seq %d: %w", seq, err)
	}
	return nil
}

// Get returns the newest version of key whose sequence is <= seq. The
// returned value aliases arena memory and must not be modified.
func (m *SkiplistMemtable) Get(key []byte, seq uint64) ([]byte, storage.EntryType, bool) {
	it := m.NewIterator()
	it.seekVersion(key, seq)
	if !it.Valid() || m.cmp(key, it.Key()) != 0 {
		return nil, 0, false
	}
	return it.Value(), it.Type(), true
}

// NewIterator returns an iterator over every version in the memtable.
func (m *SkiplistMemtable) NewIterator() *Iterator {
	return &Iterator{it: m.sl.NewIterator()}
}

// ApproximateMemoryUsage returns the bytes held by the memtable's arena.
func (m *SkiplistMemtable) ApproximateMemoryUsage() int64 {
	return m.arena.MemoryUsage()
}

// Len returns the number of versions added.
func (m *SkiplistMemtable) Len() int64 {
	return m.sl.Len()
}
