package lighttree

import (
	"fmt"
)

// Check the structural invariants of a tree: the leaf level holds the real
// lights followed by the bogus padding and every internal node is the
// merge of its children (union of bounds, sum of power, bogus only if both
// children are bogus).
func Verify(nodes []Node, layout Layout) error {
	if len(nodes) < layout.NodeCount {
		return fmt.Errorf("lighttree: expected %d nodes; got %d", layout.NodeCount, len(nodes))
	}
	if layout.Empty() {
		return nil
	}

	leafStart := layout.LeafStart()
	for slot := 0; slot < int(layout.LeafCount); slot++ {
		node := &nodes[leafStart+slot]
		isPadding := uint32(slot) >= layout.LightCount
		if node.IsBogus() != isPadding {
			return fmt.Errorf("lighttree: leaf slot %d: expected bogus=%t; got %t", slot, isPadding, node.IsBogus())
		}
		if !isPadding && node.Light >= layout.LightCount {
			return fmt.Errorf("lighttree: leaf slot %d references light %d; light count is %d", slot, node.Light, layout.LightCount)
		}
	}

	for i := 0; i < leafStart; i++ {
		left, right := Children(i)
		node, l, r := &nodes[i], &nodes[left], &nodes[right]

		if node.IsBogus() != (l.IsBogus() && r.IsBogus()) {
			return fmt.Errorf("lighttree: node %d: expected bogus=%t; got %t", i, l.IsBogus() && r.IsBogus(), node.IsBogus())
		}
		if node.Power != l.Power+r.Power {
			return fmt.Errorf("lighttree: node %d: expected power %v; got %v", i, l.Power+r.Power, node.Power)
		}
		if box := l.BBox().Union(r.BBox()); box != node.BBox() {
			return fmt.Errorf("lighttree: node %d: expected bounds %v; got %v", i, box, node.BBox())
		}
	}

	return nil
}

// Returns the lights referenced by the leaf level in order.
func LeafLights(nodes []Node, layout Layout) []uint32 {
	if layout.Empty() {
		return []uint32{}
	}

	lights := make([]uint32, 0, layout.LightCount)
	leafStart := layout.LeafStart()
	for slot := 0; slot < int(layout.LightCount); slot++ {
		lights = append(lights, nodes[leafStart+slot].Light)
	}
	return lights
}
