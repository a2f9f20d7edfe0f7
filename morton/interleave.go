package morton

// Spread the low 10 bits of x so that bit i lands on bit 3i.
func expandBits(x uint32) uint32 {
	x &= 0x000003ff
	x = (x ^ (x << 16)) & 0xff0000ff
	x = (x ^ (x << 8)) & 0x0300f00f
	x = (x ^ (x << 4)) & 0x030c30c3
	x = (x ^ (x << 2)) & 0x09249249
	return x
}

// Inverse of expandBits.
func compactBits(x uint32) uint32 {
	x &= 0x09249249
	x = (x ^ (x >> 2)) & 0x030c30c3
	x = (x ^ (x >> 4)) & 0x0300f00f
	x = (x ^ (x >> 8)) & 0xff0000ff
	x = (x ^ (x >> 16)) & 0x000003ff
	return x
}

// Interleave three 10-bit axis codes. Within every bit triple x is the most
// significant bit and z the least significant one.
func Interleave3(x, y, z uint32) uint32 {
	return expandBits(x)<<2 | expandBits(y)<<1 | expandBits(z)
}

// Split an interleaved code into its three axis codes.
func Deinterleave3(code uint32) (x, y, z uint32) {
	return compactBits(code >> 2), compactBits(code >> 1), compactBits(code)
}

// Length of the common prefix of two codes that are width bits wide.
func CommonPrefix(a, b uint32, width uint) uint {
	diff := (a ^ b) & widthMask(width)
	var prefix uint
	for bit := int(width) - 1; bit >= 0; bit-- {
		if diff&(1<<uint(bit)) != 0 {
			break
		}
		prefix++
	}
	return prefix
}

func widthMask(width uint) uint32 {
	if width >= 32 {
		return 0xFFFFFFFF
	}
	return (1 << width) - 1
}
