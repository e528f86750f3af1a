package storage

// TagSize is the size in bytes of the tag that follows every user key
const TagSize = 8

// MaxSequence is the largest sequence number that fits in a tag
const MaxSequence = 1<<56 - 1
