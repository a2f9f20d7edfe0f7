package lightcut

import (
	"math"

	"github.com/achilleasa/lightcuts/lighttree"
)

// Light index of an empty selection.
const NoLight = lighttree.BogusLight

// A selected light and the probability of selecting it within its cut node.
type Selection struct {
	Light uint32
	Pdf   float32
}

// Returns true if the selection references a light.
func (s Selection) Valid() bool {
	return s.Light != NoLight
}

// Pack the selection into a 64-bit value with the light index in the high
// 32 bits and the pdf bits in the low 32 bits.
func (s Selection) Pack() uint64 {
	return uint64(s.Light)<<32 | uint64(math.Float32bits(s.Pdf))
}

// Unpack a selection packed with Pack.
func UnpackSelection(v uint64) Selection {
	return Selection{
		Light: uint32(v >> 32),
		Pdf:   math.Float32frombits(uint32(v)),
	}
}

var noSelection = Selection{Light: NoLight}

// Weight of a sample slot. Slot s samples cut node s mod cutSize so the
// nodes at the front of the cut may receive one more sample than the rest;
// a slot's contribution is scaled by the reciprocal of the number of slots
// that share its cut node. Pixels without a cut have zero weight.
func SlotWeight(slot, cutSize, samplesPerPixel int) float32 {
	if cutSize <= 0 || slot < 0 || slot >= samplesPerPixel {
		return 0
	}

	node := slot % cutSize
	shared := samplesPerPixel / cutSize
	if node < samplesPerPixel%cutSize {
		shared++
	}
	return 1 / float32(shared)
}
