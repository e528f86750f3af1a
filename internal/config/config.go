// Package config provides configuration structures and defaults for GravelMem.
package config

import (
	"github.com/MikhailWahib/gravelmem/internal/arena"
	"github.com/MikhailWahib/gravelmem/internal/skiplist"
	"go.uber.org/zap"
)

const (
	defaultMaxMemtableSize    = 4 * 1024 * 1024
	defaultMaxFrozenMemtables = 4
	defaultArenaBlockSize     = arena.DefaultBlockSize
	defaultSeed               = skiplist.DefaultSeed
)

// Config holds all tunable parameters for GravelMem's memory usage.
type Config struct {
	// MaxMemtableSize is the arena usage at which the active memtable is frozen.
	MaxMemtableSize int64
	// MaxFrozenMemtables bounds how many frozen memtables may await release
	// before writes are refused.
	MaxFrozenMemtables int
	// ArenaBlockSize is the shared block size of each memtable's arena.
	ArenaBlockSize int
	// ArenaLimit caps a single memtable's arena. Zero means unlimited.
	ArenaLimit int64
	// Seed seeds skip list height selection.
	Seed int64
	// Logger receives engine events. Defaults to a no-op logger.
	Logger *zap.Logger
}

// DefaultConfig returns a Config struct populated with default values.
func DefaultConfig() *Config {
	return &Config{
		MaxMemtableSize:    defaultMaxMemtableSize,
		MaxFrozenMemtables: defaultMaxFrozenMemtables,
		ArenaBlockSize:     defaultArenaBlockSize,
		Seed:               defaultSeed,
		Logger:             zap.NewNop(),
	}
}

// FillDefaults sets any zero-value fields in the Config to their default values.
func (c *Config) FillDefaults() {
	def := DefaultConfig()
	if c.MaxMemtableSize == 0 {
		c.MaxMemtableSize = def.MaxMemtableSize
	}
	if c.MaxFrozenMemtables == 0 {
		c.MaxFrozenMemtables = def.MaxFrozenMemtables
	}
	if c.ArenaBlockSize == 0 {
		c.ArenaBlockSize = def.ArenaBlockSize
	}
	if c.Seed == 0 {
		c.Seed = def.Seed
	}
	if c.Logger == nil {
		c.Logger = def.Logger
	}
}

// ArenaOptions returns the arena options derived from the Config.
func (c *Config) ArenaOptions() []arena.Option {
	return []arena.Option{
		arena.WithBlockSize(c.ArenaBlockSize),
		arena.WithLimit(c.ArenaLimit),
	}
}
