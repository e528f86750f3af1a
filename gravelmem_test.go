package gravelmem_test

import (
	"fmt"
	"testing"

	"github.com/MikhailWahib/gravelmem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDB_SetGetDelete(t *testing.T) {
	db, err := gravelmem.Open(nil)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Set([]byte("key"), []byte("value")))

	val, found := db.Get([]byte("key"))
	require.True(t, found)
	assert.Equal(t, []byte("value"), val)

	require.NoError(t, db.Delete([]byte("key")))
	_, found = db.Get([]byte("key"))
	assert.False(t, found)

	require.ErrorIs(t, db.Set(nil, []byte("v")), gravelmem.ErrEmptyKey)
}

func TestDB_FlushAndRelease(t *testing.T) {
	cfg := gravelmem.DefaultConfig()
	cfg.MaxFrozenMemtables = 1
	db, err := gravelmem.Open(cfg)
	require.NoError(t, err)
	defer db.Close()

	for i := 0; i < 10; i++ {
		require.NoError(t, db.Set(fmt.Appendf(nil, "k%d", i), []byte("v")))
	}
	require.NoError(t, db.Flush())
	assert.Equal(t, 1, db.FrozenCount())

	require.NoError(t, db.Set([]byte("k10"), []byte("v")))
	require.ErrorIs(t, db.Flush(), gravelmem.ErrTooManyFrozen)

	assert.Equal(t, 1, db.ReleaseFrozen(1))
	require.NoError(t, db.Flush())

	entries, err := db.Scan(nil, nil)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, []byte("k10"), entries[0].Key)
	assert.Positive(t, db.MemoryUsage())
}

func TestDB_Close(t *testing.T) {
	db, err := gravelmem.Open(nil)
	require.NoError(t, err)

	require.NoError(t, db.Close())
	require.ErrorIs(t, db.Set([]byte("k"), []byte("v")), gravelmem.ErrClosed)
}
