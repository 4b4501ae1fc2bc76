package internal

import (
	"hash/fnv"
)

// Hash64String returns a stable 64-bit hash for the given string using FNV-1a 64-bit.
// Pure Go, fast, and non-cryptographic.
func Hash64String(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}

// Hash64Bytes is Hash64String for a raw byte payload, such as a
// wire-encoded blob.
func Hash64Bytes(b []byte) uint64 {
	h := fnv.New64a()
	_, _ = h.Write(b)
	return h.Sum64()
}
