package storage

// EntryType represents the type of entry stored in the database
type EntryType byte

const (
	// SetEntry indicates a key-value insertion operation
	SetEntry EntryType = iota
	// DeleteEntry indicates a key deletion operation
	DeleteEntry
)

// KindForSeek is the largest EntryType. Tags order descending, so a lookup
// key built with it sorts before every entry sharing its sequence number.
const KindForSeek = DeleteEntry

// Entry is a decoded memtable entry
type Entry struct {
	Type  EntryType
	Seq   uint64
	Key   []byte
	Value []byte
}
