package lighttree

import (
	"github.com/achilleasa/lightcuts/morton"
	"github.com/achilleasa/lightcuts/types"
)

// Light index stored in bogus nodes.
const BogusLight uint32 = 0xFFFFFFFF

// A light tree node. Leaves hold a single light; internal nodes aggregate
// the power and bounds of their subtree and keep the light of their left
// most real descendant as a representative.
type Node struct {
	Min types.Vec3
	Max types.Vec3

	// Sum of descendant light power.
	Power float32

	// Spatial code of a leaf or the common code prefix of a subtree with
	// the remaining low bits cleared.
	Code uint32

	// Light index of a leaf or subtree representative.
	Light uint32
}

// A padding node that carries no light.
func bogusNode() Node {
	box := types.EmptyBBox()
	return Node{
		Min:   box.Min,
		Max:   box.Max,
		Light: BogusLight,
	}
}

// Returns true if the node and all its descendants are padding.
func (n *Node) IsBogus() bool {
	return n.Light == BogusLight
}

// Node bounds.
func (n *Node) BBox() types.BBox {
	return types.BBox{Min: n.Min, Max: n.Max}
}

// Merge two sibling nodes into their parent.
func mergeNodes(left, right *Node, codeWidth uint) Node {
	switch {
	case left.IsBogus() && right.IsBogus():
		return bogusNode()
	case right.IsBogus():
		return *left
	case left.IsBogus():
		return *right
	}

	box := left.BBox().Union(right.BBox())
	prefix := morton.CommonPrefix(left.Code, right.Code, codeWidth)
	return Node{
		Min:   box.Min,
		Max:   box.Max,
		Power: left.Power + right.Power,
		Code:  left.Code &^ (1<<(codeWidth-prefix) - 1),
		Light: left.Light,
	}
}
