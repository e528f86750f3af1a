package memtable_test

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/MikhailWahib/gravelmem/internal/arena"
	"github.com/MikhailWahib/gravelmem/internal/config"
	"github.com/MikhailWahib/gravelmem/internal/memtable"
	"github.com/MikhailWahib/gravelmem/internal/skiplist"
	"github.com/MikhailWahib/gravelmem/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMemtable(t *testing.T, cfg *config.Config) memtable.Memtable {
	t.Helper()
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	cfg.FillDefaults()
	mt, err := memtable.NewMemtable(cfg)
	require.NoError(t, err, "failed to create memtable")
	return mt
}

func TestMemtable_AddAndGet(t *testing.T) {
	mt := newMemtable(t, nil)

	require.NoError(t, mt.Add(1, storage.SetEntry, []byte("key1"), []byte("value1")))

	val, kind, ok := mt.Get([]byte("key1"), 1)
	assert.True(t, ok, "expected key1 to exist")
	assert.Equal(t, storage.SetEntry, kind)
	assert.Equal(t, []byte("value1"), val)

	_, _, ok = mt.Get([]byte("key2"), 1)
	assert.False(t, ok, "expected key2 to be absent")

	_, _, ok = mt.Get([]byte("key0"), 1)
	assert.False(t, ok, "a preceding key must not match")
}

func TestMemtable_CopiesCallerBuffers(t *testing.T) {
	mt := newMemtable(t, nil)

	key := []byte("key")
	value := []byte("value")
	require.NoError(t, mt.Add(1, storage.SetEntry, key, value))

	key[0] = 'X'
	value[0] = 'X'

	val, _, ok := mt.Get([]byte("key"), 1)
	require.True(t, ok)
	assert.Equal(t, []byte("value"), val)
}

func TestMemtable_Versions(t *testing.T) {
	mt := newMemtable(t, nil)

	require.NoError(t, mt.Add(1, storage.SetEntry, []byte("k"), []byte("v1")))
	require.NoError(t, mt.Add(2, storage.SetEntry, []byte("k"), []byte("v2")))
	require.NoError(t, mt.Add(3, storage.DeleteEntry, []byte("k"), nil))
	require.NoError(t, mt.Add(4, storage.SetEntry, []byte("k"), []byte("v4")))

	tests := []struct {
		seq      uint64
		found    bool
		kind     storage.EntryType
		expected string
	}{
		{0, false, 0, ""},
		{1, true, storage.SetEntry, "v1"},
		{2, true, storage.SetEntry, "v2"},
		{3, true, storage.DeleteEntry, ""},
		{4, true, storage.SetEntry, "v4"},
		{100, true, storage.SetEntry, "v4"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("seq_%d", tt.seq), func(t *testing.T) {
			val, kind, ok := mt.Get([]byte("k"), tt.seq)
			require.Equal(t, tt.found, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.kind, kind)
			assert.Equal(t, tt.expected, string(val))
		})
	}
	assert.Equal(t, int64(4), mt.Len())
}

func TestMemtable_DuplicateVersion(t *testing.T) {
	mt := newMemtable(t, nil)

	require.NoError(t, mt.Add(7, storage.SetEntry, []byte("k"), []byte("a")))
	err := mt.Add(7, storage.SetEntry, []byte("k"), []byte("b"))
	require.ErrorIs(t, err, skiplist.ErrDuplicateKey)

	val, _, ok := mt.Get([]byte("k"), 7)
	require.True(t, ok)
	assert.Equal(t, []byte("a"), val, "a rejected add must not replace the stored version")
}

func TestMemtable_Iterator(t *testing.T) {
	mt := newMemtable(t, nil)

	require.NoError(t, mt.Add(1, storage.SetEntry, []byte("b"), []byte("b1")))
	require.NoError(t, mt.Add(2, storage.SetEntry, []byte("a"), []byte("a2")))
	require.NoError(t, mt.Add(3, storage.SetEntry, []byte("b"), []byte("b3")))
	require.NoError(t, mt.Add(4, storage.DeleteEntry, []byte("c"), nil))

	var got []string
	it := mt.NewIterator()
	for it.SeekToFirst(); it.Valid(); it.Next() {
		e := it.Entry()
		got = append(got, fmt.Sprintf("%s@%d:%d=%s", e.Key, e.Seq, e.Type, e.Value))
	}
	assert.Equal(t, []string{"a@2:0=a2", "b@3:0=b3", "b@1:0=b1", "c@4:1="}, got)

	it.Seek([]byte("b"))
	require.True(t, it.Valid())
	assert.Equal(t, []byte("b"), it.Key())
	assert.Equal(t, uint64(3), it.Seq(), "seek lands on the newest version")

	it.Seek([]byte("bb"))
	require.True(t, it.Valid())
	assert.Equal(t, []byte("c"), it.Key())
	assert.Equal(t, storage.DeleteEntry, it.Type())

	it.SeekToLast()
	require.True(t, it.Valid())
	assert.Equal(t, []byte("c"), it.Key())
	it.Prev()
	require.True(t, it.Valid())
	assert.Equal(t, []byte("b1"), it.Value())
}

func TestMemtable_CustomComparator(t *testing.T) {
	cfg := config.DefaultConfig()
	reverse := func(a, b []byte) int { return bytes.Compare(b, a) }
	mt, err := memtable.NewMemtableWithComparator(cfg, reverse)
	require.NoError(t, err)

	for i, k := range []string{"a", "c", "b"} {
		require.NoError(t, mt.Add(uint64(i+1), storage.SetEntry, []byte(k), []byte(k)))
	}

	var keys []string
	it := mt.NewIterator()
	for it.SeekToFirst(); it.Valid(); it.Next() {
		keys = append(keys, string(it.Key()))
	}
	assert.Equal(t, []string{"c", "b", "a"}, keys)
}

func TestMemtable_MemoryUsage(t *testing.T) {
	mt := newMemtable(t, nil)
	initial := mt.ApproximateMemoryUsage()

	requested := 0
	for i := 0; i < 1000; i++ {
		key := fmt.Appendf(nil, "key_%05d", i)
		value := []byte(strings.Repeat("v", i%64))
		require.NoError(t, mt.Add(uint64(i+1), storage.SetEntry, key, value))
		requested += storage.InternalKeySize(key) + len(value)
	}

	assert.GreaterOrEqual(t, mt.ApproximateMemoryUsage()-initial, int64(requested))
}

func TestMemtable_ArenaFull(t *testing.T) {
	cfg := &config.Config{ArenaBlockSize: arena.MinBlockSize, ArenaLimit: 64 * 1024}
	mt := newMemtable(t, cfg)

	var err error
	for i := 0; i < 100000 && err == nil; i++ {
		err = mt.Add(uint64(i+1), storage.SetEntry, fmt.Appendf(nil, "key_%06d", i), []byte("value"))
	}
	require.ErrorIs(t, err, arena.ErrArenaFull)
	assert.LessOrEqual(t, mt.ApproximateMemoryUsage(), int64(64*1024))
}

func TestMemtable_IDsAreUnique(t *testing.T) {
	a := newMemtable(t, nil)
	b := newMemtable(t, nil)
	assert.NotEqual(t, a.ID(), b.ID())
}

func TestMemtable_ConcurrentGet(t *testing.T) {
	mt := newMemtable(t, nil)

	const n = 5000
	var published atomic.Uint64
	var wg sync.WaitGroup

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				seq := published.Load()
				if seq > 0 {
					key := fmt.Appendf(nil, "key_%05d", seq-1)
					val, _, ok := mt.Get(key, seq)
					if !ok || !bytes.Equal(val, key) {
						t.Errorf("published key %s not readable", key)
						return
					}
				}
				if seq == n {
					return
				}
			}
		}()
	}

	for i := 0; i < n; i++ {
		key := fmt.Appendf(nil, "key_%05d", i)
		require.NoError(t, mt.Add(uint64(i+1), storage.SetEntry, key, key))
		published.Store(uint64(i + 1))
	}
	wg.Wait()
}
