// Package utils holds the fnv-1a hashing helpers the ast package's node
// fingerprints are built from.
package utils

import "hash/fnv"

// U64 hashes s with fnv-1a.
func U64(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}

// FingerprintString is U64 under the name the ast fingerprint code uses.
func FingerprintString(s string) uint64 { return U64(s) }

// U64ToBytes spreads u big-endian into 8 bytes for feeding one hash into
// another.
func U64ToBytes(u uint64) []byte {
	return []byte{
		byte(u >> 56), byte(u >> 48), byte(u >> 40), byte(u >> 32),
		byte(u >> 24), byte(u >> 16), byte(u >> 8), byte(u),
	}
}

// Mix64 combines two fingerprints order-sensitively.
func Mix64(a, b uint64) uint64 {
	h := fnv.New64a()
	h.Write(U64ToBytes(a))
	h.Write(U64ToBytes(b))
	return h.Sum64()
}
