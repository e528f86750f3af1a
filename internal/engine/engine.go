// Package engine implements the in-memory storage engine: a single
// serialized write path into an active memtable, lock-free reads across the
// active and frozen memtables, and rotation once a memtable's arena grows
// past the configured size.
package engine

import (
	"bytes"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/MikhailWahib/gravelmem/internal/arena"
	"github.com/MikhailWahib/gravelmem/internal/config"
	"github.com/MikhailWahib/gravelmem/internal/memtable"
	"github.com/MikhailWahib/gravelmem/internal/storage"
	"go.uber.org/zap"
)

// view is an immutable snapshot of the memtables a reader should consult.
type view struct {
	active memtable.Memtable
	frozen []memtable.Memtable // oldest first
}

// tables returns every memtable, newest first.
func (v *view) tables() []memtable.Memtable {
	tables := make([]memtable.Memtable, 0, len(v.frozen)+1)
	tables = append(tables, v.active)
	for i := len(v.frozen) - 1; i >= 0; i-- {
		tables = append(tables, v.frozen[i])
	}
	return tables
}

type Engine struct {
	cfg *config.Config
	log *zap.Logger

	// mu serializes writers. Memtables accept one writer at a time.
	mu     sync.Mutex
	seq    atomic.Uint64
	view   atomic.Pointer[view]
	closed atomic.Bool
}

// NewEngine creates an engine with an empty active memtable. A nil cfg
// means DefaultConfig.
func NewEngine(cfg *config.Config) (*Engine, error) {
	c := config.DefaultConfig()
	if cfg != nil {
		*c = *cfg
		c.FillDefaults()
	}

	mt, err := memtable.NewMemtable(c)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		cfg: c,
		log: c.Logger.Named("engine"),
	}
	e.view.Store(&view{active: mt})
	e.log.Debug("engine opened",
		zap.Stringer("memtable_id", mt.ID()),
		zap.Int64("max_memtable_size", c.MaxMemtableSize))
	return e, nil
}

// Put writes a key-value pair, shadowing any previous value.
func (e *Engine) Put(key, value []byte) error {
	return e.write(storage.SetEntry, key, value)
}

// Delete writes a tombstone for key.
func (e *Engine) Delete(key []byte) error {
	return e.write(storage.DeleteEntry, key, nil)
}

func (e *Engine) write(t storage.EntryType, key, value []byte) error {
	if len(key) == 0 {
		return ErrEmptyKey
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed.Load() {
		return ErrClosed
	}

	if e.view.Load().active.ApproximateMemoryUsage() >= e.cfg.MaxMemtableSize {
		if err := e.rotateLocked(); err != nil {
			return err
		}
	}

	seq := e.seq.Load() + 1
	active := e.view.Load().active
	err := active.Add(seq, t, key, value)
	if errors.Is(err, arena.ErrArenaFull) && active.Len() > 0 {
		e.log.Warn("memtable arena full",
			zap.Stringer("memtable_id", active.ID()),
			zap.Int64("memory_usage", active.ApproximateMemoryUsage()))
		if err := e.rotateLocked(); err != nil {
			return err
		}
		err = e.view.Load().active.Add(seq, t, key, value)
	}
	if err != nil {
		return fmt.Errorf("failed to write key: %w", err)
	}

	// Publishing seq makes the write visible to new readers.
	e.seq.Store(seq)
	return nil
}

// Get returns the newest value for key, or false if it is absent or deleted.
func (e *Engine) Get(key []byte) ([]byte, bool) {
	if e.closed.Load() {
		return nil, false
	}

	snapshot := e.seq.Load()
	for _, mt := range e.view.Load().tables() {
		val, t, found := mt.Get(key, snapshot)
		if !found {
			continue
		}
		if t == storage.DeleteEntry {
			return nil, false
		}
		return bytes.Clone(val), true
	}
	return nil, false
}

// Scan returns the live entries with start <= key <= end in key order. A nil
// start or end leaves that side unbounded.
func (e *Engine) Scan(start, end []byte) ([]storage.Entry, error) {
	if e.closed.Load() {
		return nil, ErrClosed
	}

	snapshot := e.seq.Load()
	seen := make(map[string]struct{})
	var entries []storage.Entry

	for _, mt := range e.view.Load().tables() {
		it := mt.NewIterator()
		if start == nil {
			it.SeekToFirst()
		} else {
			it.Seek(start)
		}

		var last []byte
		for ; it.Valid(); it.Next() {
			key := it.Key()
			if end != nil && bytes.Compare(key, end) > 0 {
				break
			}
			if it.Seq() > snapshot {
				continue
			}
			// Only the newest visible version of each key counts.
			if last != nil && bytes.Equal(key, last) {
				continue
			}
			last = key

			if _, ok := seen[string(key)]; ok {
				continue
			}
			seen[string(key)] = struct{}{}

			entry := it.Entry()
			if entry.Type == storage.DeleteEntry {
				continue
			}
			entries = append(entries, storage.Entry{
				Type:  entry.Type,
				Seq:   entry.Seq,
				Key:   bytes.Clone(entry.Key),
				Value: bytes.Clone(entry.Value),
			})
		}
	}

	slices.SortFunc(entries, func(a, b storage.Entry) int {
		return bytes.Compare(a.Key, b.Key)
	})
	return entries, nil
}

// Rotate freezes the active memtable and starts a new one. It is a no-op
// when the active memtable is empty.
func (e *Engine) Rotate() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed.Load() {
		return ErrClosed
	}
	if e.view.Load().active.Len() == 0 {
		return nil
	}
	return e.rotateLocked()
}

func (e *Engine) rotateLocked() error {
	v := e.view.Load()
	if len(v.frozen) >= e.cfg.MaxFrozenMemtables {
		return ErrTooManyFrozen
	}

	mt, err := memtable.NewMemtable(e.cfg)
	if err != nil {
		return fmt.Errorf("failed to rotate memtable: %w", err)
	}

	frozen := append(slices.Clone(v.frozen), v.active)
	e.view.Store(&view{active: mt, frozen: frozen})

	e.log.Info("memtable rotated",
		zap.Stringer("memtable_id", v.active.ID()),
		zap.Int64("memory_usage", v.active.ApproximateMemoryUsage()),
		zap.Int64("entries", v.active.Len()),
		zap.Int("frozen", len(frozen)))
	return nil
}

// Frozen returns the frozen memtables, oldest first.
func (e *Engine) Frozen() []memtable.Memtable {
	return slices.Clone(e.view.Load().frozen)
}

// ReleaseFrozen drops up to n of the oldest frozen memtables, for example
// once a caller has persisted them, and returns how many were dropped.
// Readers still holding a released memtable keep it alive until they finish.
func (e *Engine) ReleaseFrozen(n int) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	v := e.view.Load()
	n = min(max(n, 0), len(v.frozen))
	if n == 0 {
		return 0
	}

	for _, mt := range v.frozen[:n] {
		e.log.Debug("memtable released",
			zap.Stringer("memtable_id", mt.ID()),
			zap.Int64("memory_usage", mt.ApproximateMemoryUsage()))
	}
	e.view.Store(&view{active: v.active, frozen: slices.Clone(v.frozen[n:])})
	return n
}

// MemoryUsage returns the arena bytes held by every live memtable.
func (e *Engine) MemoryUsage() int64 {
	var total int64
	for _, mt := range e.view.Load().tables() {
		total += mt.ApproximateMemoryUsage()
	}
	return total
}

// Seq returns the sequence number of the last applied write.
func (e *Engine) Seq() uint64 {
	return e.seq.Load()
}

// Close stops the engine. Subsequent writes fail with ErrClosed and reads
// find nothing.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed.Swap(true) {
		return ErrClosed
	}

	v := e.view.Load()
	e.log.Info("engine closed",
		zap.Uint64("seq", e.seq.Load()),
		zap.Int("frozen", len(v.frozen)))
	return nil
}
