package memtable

import (
	"github.com/MikhailWahib/gravelmem/internal/skiplist"
	"github.com/MikhailWahib/gravelmem/internal/storage"
)

// Iterator walks memtable versions ordered by user key, newest version of
// each key first. Keys and values returned alias arena memory.
type Iterator struct {
	it *skiplist.Iterator[entry]
}

// Valid returns whether the iterator is at a valid position.
func (i *Iterator) Valid() bool { return i.it.Valid() }

// SeekToFirst moves to the first version in the memtable.
func (i *Iterator) SeekToFirst() { i.it.SeekToFirst() }

// SeekToLast moves to the last version in the memtable.
func (i *Iterator) SeekToLast() { i.it.SeekToLast() }

// Seek moves to the newest version of the first user key >= key.
func (i *Iterator) Seek(key []byte) {
	i.seekVersion(key, storage.MaxSequence)
}

func (i *Iterator) seekVersion(key []byte, seq uint64) {
	i.it.Seek(entry{ikey: storage.AppendInternalKey(nil, key, seq, storage.KindForSeek)})
}

// Next advances the iterator.
func (i *Iterator) Next() { i.it.Next() }

// Prev moves the iterator back one version.
func (i *Iterator) Prev() { i.it.Prev() }

// Key returns the user key at the current position.
func (i *Iterator) Key() []byte { return storage.UserKey(i.it.Key().ikey) }

// Value returns the value at the current position.
func (i *Iterator) Value() []byte { return i.it.Key().value }

// Seq returns the sequence number at the current position.
func (i *Iterator) Seq() uint64 {
	seq, _ := storage.UnpackTag(storage.Tag(i.it.Key().ikey))
	return seq
}

// Type returns the entry type at the current position.
func (i *Iterator) Type() storage.EntryType {
	_, t := storage.UnpackTag(storage.Tag(i.it.Key().ikey))
	return t
}

// Entry returns the decoded entry at the current position.
func (i *Iterator) Entry() storage.Entry {
	e := i.it.Key()
	seq, t := storage.UnpackTag(storage.Tag(e.ikey))
	return storage.Entry{
		Type:  t,
		Seq:   seq,
		Key:   storage.UserKey(e.ikey),
		Value: e.value,
	}
}
