// Package gravelmem is the in-memory write buffer of an LSM-tree key-value
// store.
//
// Writes land in an arena-backed skip list memtable. Once a memtable's arena
// grows past Config.MaxMemtableSize it is frozen and a fresh one takes over;
// frozen memtables stay readable until the caller releases them, typically
// after persisting them elsewhere. Writes are serialized internally and
// reads never take a lock.
//
// Example usage:
//
//	db, err := gravelmem.Open(nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer db.Close()
//
//	err = db.Set([]byte("key"), []byte("value"))
//	if err != nil {
//		log.Printf("Set failed: %v", err)
//	}
//
//	value, exists := db.Get([]byte("key"))
//	if exists {
//		fmt.Printf("Value: %s\n", string(value))
//	}
//
//	err = db.Delete([]byte("key"))
//	if err != nil {
//		log.Printf("Delete failed: %v", err)
//	}
package gravelmem

import (
	"github.com/MikhailWahib/gravelmem/internal/config"
	"github.com/MikhailWahib/gravelmem/internal/engine"
	"github.com/MikhailWahib/gravelmem/internal/storage"
)

// Config is an alias for config.Config, re-exported for user convenience.
type Config = config.Config

// Entry is an alias for storage.Entry, returned by Scan.
type Entry = storage.Entry

// DefaultConfig returns a Config struct populated with default values. Re-exported for user convenience.
var DefaultConfig = config.DefaultConfig

var (
	// ErrClosed is returned when the DB is used after Close.
	ErrClosed = engine.ErrClosed
	// ErrEmptyKey is returned when a write uses an empty key.
	ErrEmptyKey = engine.ErrEmptyKey
	// ErrTooManyFrozen is returned when writes outpace ReleaseFrozen.
	ErrTooManyFrozen = engine.ErrTooManyFrozen
)

// DB represents a thread-safe GravelMem instance.
type DB struct {
	engine *engine.Engine
}

// Open creates an empty database. A nil cfg uses DefaultConfig.
func Open(cfg *Config) (*DB, error) {
	e, err := engine.NewEngine(cfg)
	if err != nil {
		return nil, err
	}
	return &DB{engine: e}, nil
}

// Set writes a key-value pair to the database.
// Overwrites the value if the key already exists.
//
// The key must be non-empty. Returns an error if the operation fails.
func (db *DB) Set(key, value []byte) error {
	return db.engine.Put(key, value)
}

// Get retrieves the value for a given key.
// Returns the value and true if found, or nil and false if the key doesn't exist.
func (db *DB) Get(key []byte) ([]byte, bool) {
	return db.engine.Get(key)
}

// Delete removes the key and its value from the database.
// Returns an error only if the deletion fails.
func (db *DB) Delete(key []byte) error {
	return db.engine.Delete(key)
}

// Scan returns the live entries with start <= key <= end in key order.
// A nil bound leaves that side of the range open.
func (db *DB) Scan(start, end []byte) ([]Entry, error) {
	return db.engine.Scan(start, end)
}

// Flush freezes the active memtable so its contents can be handed off.
func (db *DB) Flush() error {
	return db.engine.Rotate()
}

// FrozenCount returns how many frozen memtables await release.
func (db *DB) FrozenCount() int {
	return len(db.engine.Frozen())
}

// ReleaseFrozen drops up to n of the oldest frozen memtables and returns
// how many were dropped.
func (db *DB) ReleaseFrozen(n int) int {
	return db.engine.ReleaseFrozen(n)
}

// MemoryUsage returns the bytes held by every live memtable.
func (db *DB) MemoryUsage() int64 {
	return db.engine.MemoryUsage()
}

// Close shuts down the database. After calling Close, the database should
// not be used for any operations.
func (db *DB) Close() error {
	return db.engine.Close()
}
