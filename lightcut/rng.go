package lightcut

import "math/rand/v2"

const (
	frameMix = 0x9E3779B97F4A7C15
	slotBits = 16
)

// A per-sample random stream. Every (seed, frame, pixel, slot) tuple maps
// to its own PCG stream so results do not depend on the order in which
// pixels are processed.
type sampleRNG struct {
	pcg rand.PCG
}

func (r *sampleRNG) reset(seed uint64, frame uint32, pixel, slot int) {
	r.pcg.Seed(seed^(uint64(frame)+1)*frameMix, uint64(pixel)<<slotBits|uint64(slot))
}

// Uniform float in [0, 1).
func (r *sampleRNG) float32() float32 {
	return float32(r.pcg.Uint64()>>40) / (1 << 24)
}
