// Package storage defines the entry types shared by the memtable and engine
// and the internal key format used to order versions of a user key.
package storage

import (
	"encoding/binary"
	"fmt"
)

// InternalKeySize returns the encoded size of an internal key for userKey.
func InternalKeySize(userKey []byte) int {
	return TagSize + len(userKey)
}

// PackTag combines a sequence number and entry type into a tag.
func PackTag(seq uint64, t EntryType) uint64 {
	return seq<<8 | uint64(t)
}

// UnpackTag splits a tag into its sequence number and entry type.
func UnpackTag(tag uint64) (uint64, EntryType) {
	return tag >> 8, EntryType(tag & 0xff)
}

// EncodeInternalKey writes an internal key into dst, which must be exactly
// InternalKeySize(userKey) bytes.
// Format: [8 bytes tag (seq<<8 | type), little endian][user key]
// The tag leads so that it stays word aligned when dst is.
func EncodeInternalKey(dst, userKey []byte, seq uint64, t EntryType) error {
	if seq > MaxSequence {
		return fmt.Errorf("encode internal key: seq %d: %w", seq, ErrSequenceOverflow)
	}
	if len(dst) != InternalKeySize(userKey) {
		return fmt.Errorf("encode internal key: buffer is %d bytes, need %d", len(dst), InternalKeySize(userKey))
	}
	binary.LittleEndian.PutUint64(dst[:TagSize], PackTag(seq, t))
	copy(dst[TagSize:], userKey)
	return nil
}

// AppendInternalKey appends the internal key for userKey to dst.
func AppendInternalKey(dst, userKey []byte, seq uint64, t EntryType) []byte {
	dst = binary.LittleEndian.AppendUint64(dst, PackTag(seq, t))
	return append(dst, userKey...)
}

// ParseInternalKey splits an internal key into its parts. The returned user
// key aliases ikey.
func ParseInternalKey(ikey []byte) (userKey []byte, seq uint64, t EntryType, err error) {
	if len(ikey) < TagSize {
		return nil, 0, 0, fmt.Errorf("parse internal key of %d bytes: %w", len(ikey), ErrCorruptedKey)
	}
	seq, t = UnpackTag(binary.LittleEndian.Uint64(ikey[:TagSize]))
	return ikey[TagSize:], seq, t, nil
}

// UserKey returns the user key portion of a well-formed internal key.
func UserKey(ikey []byte) []byte {
	return ikey[TagSize:]
}

// Tag returns the tag of a well-formed internal key.
func Tag(ikey []byte) uint64 {
	return binary.LittleEndian.Uint64(ikey[:TagSize])
}

// CompareInternalKeys orders internal keys by user key ascending using
// userCmp, then by tag descending so newer versions come first.
func CompareInternalKeys(userCmp func(a, b []byte) int, a, b []byte) int {
	if c := userCmp(UserKey(a), UserKey(b)); c != 0 {
		return c
	}
	ta, tb := Tag(a), Tag(b)
	switch {
	case ta > tb:
		return -1
	case ta < tb:
		return 1
	}
	return 0
}
