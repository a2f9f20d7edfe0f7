package lighttree

import (
	"github.com/achilleasa/lightcuts/bitonic"
	"github.com/achilleasa/lightcuts/device"
)

// Compute the spatial code of every light, write an unsorted leaf into the
// sorting helper buffer and a (code, light) record into the key buffer.
// Key slots past the light count receive the sentinel record of the current
// sort direction. The light count is published on the device for the sorter.
func (b *Builder) generateKeysKernel(g device.WorkGroup) {
	lights := b.lights.Data()
	helper := b.helper.Data()
	keys := b.keys.Data()
	lightCount := b.layout.LightCount

	g.Items1D(func(gid int) {
		if gid == 0 {
			b.counter.Data()[0] = lightCount
		}

		if uint32(gid) >= lightCount {
			keys[gid] = b.sentinel
			return
		}

		light := lights[gid]
		code := b.coder.Encode(light.Position)
		center := b.coder.DecodeCenter(code)
		helper[gid] = Node{
			Min:   center,
			Max:   center,
			Power: light.Power,
			Code:  code,
			Light: uint32(gid),
		}
		keys[gid] = bitonic.Pack(code, uint32(gid))
	})
}

// Copy the sorted leaves into the last tree level and pad the remaining
// leaf slots with bogus nodes.
func (b *Builder) generateLeavesKernel(g device.WorkGroup) {
	helper := b.helper.Data()
	keys := b.keys.Data()
	nodes := b.nodes.Data()
	leafStart := b.layout.LeafStart()
	lightCount := b.layout.LightCount

	g.Items1D(func(gid int) {
		if uint32(gid) >= lightCount {
			nodes[leafStart+gid] = bogusNode()
			return
		}

		_, lightIndex := bitonic.Unpack(keys[gid])
		nodes[leafStart+gid] = helper[lightIndex]
	})
}

// Compute every node of the current batch from its descendants on the
// batch source level. Descendants are reduced pairwise in tree order which
// yields the same result as building one level at a time.
func (b *Builder) constructTreeKernel(g device.WorkGroup) {
	nodes := b.nodes.Data()
	batch := b.batch
	codeWidth := b.coder.Width()
	srcStart := LevelStart(batch.SrcLevel)

	var scratch []Node
	g.Items1D(func(gid int) {
		level := LevelOf(gid)
		span := 1 << (batch.SrcLevel - level)
		first := srcStart + (gid-LevelStart(level))*span

		if span == 2 {
			nodes[gid] = mergeNodes(&nodes[first], &nodes[first+1], codeWidth)
			return
		}

		if cap(scratch) < span/2 {
			scratch = make([]Node, span/2)
		}
		scratch = scratch[:span/2]
		for i := range scratch {
			scratch[i] = mergeNodes(&nodes[first+2*i], &nodes[first+2*i+1], codeWidth)
		}
		for width := len(scratch) / 2; width > 0; width /= 2 {
			for i := 0; i < width; i++ {
				scratch[i] = mergeNodes(&scratch[2*i], &scratch[2*i+1], codeWidth)
			}
		}
		nodes[gid] = scratch[0]
	})
}
