package bitonic

import "math/bits"

// Return ceil(log2(v)). Log2(0) is 0.
func Log2(v uint64) uint8 {
	if v == 0 {
		return 0
	}
	return uint8(bits.Len64(v - 1))
}

// Round v up to the next power of two. AlignPowerOfTwo(0) is 0.
func AlignPowerOfTwo(v uint64) uint64 {
	if v == 0 {
		return 0
	}
	return 1 << Log2(v)
}

// Number of macro merge iterations needed for a buffer with the given
// capacity; the first iteration is the 2048 element pre-sort.
func MaxIterations(capacity uint64) uint32 {
	return uint32(Log2(max(groupSortSize, AlignPowerOfTwo(capacity)))) - 10
}

// Insert a set bit at position j (a power of two), shifting the higher bits
// of v up by one.
func insertOneBit(v, j uint32) uint32 {
	return (v&^(j-1))<<1 | (v & (j - 1)) | j
}

// Pack a key and payload into a 64-bit record that orders by key first.
func Pack(key, payload uint32) uint64 {
	return uint64(key)<<32 | uint64(payload)
}

// Split a 64-bit record into its key and payload.
func Unpack(record uint64) (key, payload uint32) {
	return uint32(record >> 32), uint32(record)
}
