package lighttree

import (
	"github.com/achilleasa/lightcuts/device"
	"github.com/achilleasa/lightcuts/types"
)

// A built light tree. The node buffer is owned by the Builder and is
// overwritten by the next build.
type Hierarchy struct {
	Layout Layout

	// Cubic bound used for spatial coding.
	Bounds types.BBox

	// Width of the node spatial codes in bits.
	CodeWidth uint

	nodes *device.Buffer[Node]
}

// Returns true if the hierarchy holds no lights.
func (h *Hierarchy) Empty() bool {
	return h.Layout.Empty()
}

// Get the device node buffer.
func (h *Hierarchy) Buffer() *device.Buffer[Node] {
	return h.nodes
}

// Read back a host copy of all tree nodes.
func (h *Hierarchy) Nodes() ([]Node, error) {
	if h.Empty() {
		return []Node{}, nil
	}

	nodes := make([]Node, h.Layout.NodeCount)
	if err := h.nodes.ReadData(0, 0, len(nodes), nodes); err != nil {
		return nil, err
	}
	return nodes, nil
}

// Read back the root node.
func (h *Hierarchy) Root() (Node, error) {
	if h.Empty() {
		return bogusNode(), nil
	}

	var root [1]Node
	if err := h.nodes.ReadData(0, 0, 1, root[:]); err != nil {
		return Node{}, err
	}
	return root[0], nil
}

// Node index ranges of every level, root first.
func (h *Hierarchy) Levels() []LevelRange {
	return h.Layout.Levels()
}

// Total power of all lights in the tree.
func (h *Hierarchy) TotalPower() (float32, error) {
	root, err := h.Root()
	if err != nil || root.IsBogus() {
		return 0, err
	}
	return root.Power, nil
}
