package lightcut

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelectionPacking(t *testing.T) {
	sel := Selection{Light: 1234, Pdf: 0.125}
	assert.Equal(t, sel, UnpackSelection(sel.Pack()))
	assert.True(t, sel.Valid())

	empty := UnpackSelection(noSelection.Pack())
	assert.False(t, empty.Valid())
	assert.Equal(t, float32(0), empty.Pdf)
}

func TestSlotWeight(t *testing.T) {
	type spec struct {
		slot, cutSize, spp int
		exp                float32
	}
	specs := []spec{
		{0, 1, 1, 1},
		{0, 1, 4, 0.25},
		{3, 4, 4, 1},
		// 5 slots over a cut of 2: node 0 gets slots 0,2,4 and node 1 gets 1,3
		{0, 2, 5, 1.0 / 3},
		{4, 2, 5, 1.0 / 3},
		{1, 2, 5, 0.5},
		{0, 0, 4, 0},
		{4, 1, 4, 0},
	}

	for index, s := range specs {
		assert.InDelta(t, s.exp, SlotWeight(s.slot, s.cutSize, s.spp), 1e-6, "[spec %d]", index)
	}

	// The weights of all slots that share a cut node sum to one.
	for spp := 1; spp <= 9; spp++ {
		for cutSize := 1; cutSize <= spp; cutSize++ {
			sums := make([]float32, cutSize)
			for slot := 0; slot < spp; slot++ {
				sums[slot%cutSize] += SlotWeight(slot, cutSize, spp)
			}
			for node, sum := range sums {
				assert.InDelta(t, 1, sum, 1e-5, "spp=%d cut=%d node=%d", spp, cutSize, node)
			}
		}
	}
}
