package badger

import (
	"encoding/binary"
)

// Key prefixes for different data types
const (
	valuePrefix      = "val:"
	collectionPrefix = "col:"
	appendSeqKey     = "seq:append"
)

// makeValueKey generates the key of a single value.
func makeValueKey(key string) []byte {
	return []byte(valuePrefix + key)
}

// makeCollectionPrefix generates the shared prefix of a collection's entries.
// Format: prefix:len(key):key
// The length keeps one collection's prefix from matching a longer key.
func makeCollectionPrefix(key string) []byte {
	prefixBytes := []byte(collectionPrefix)
	buf := make([]byte, len(prefixBytes)+4+len(key))
	offset := copy(buf, prefixBytes)
	binary.BigEndian.PutUint32(buf[offset:], uint32(len(key)))
	offset += 4
	copy(buf[offset:], key)
	return buf
}

// makeCollectionKey generates the key of one collection entry.
// Format: prefix:len(key):key:seq
func makeCollectionKey(key string, seq uint64) []byte {
	prefix := makeCollectionPrefix(key)
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], seq)
	return buf
}
