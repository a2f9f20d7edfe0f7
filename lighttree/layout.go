package lighttree

import "math/bits"

// The shape of a complete binary tree stored as a flat array. Level L starts
// at index 2^L - 1 and holds 2^L nodes; the children of node i are 2i+1 and
// 2i+2. Leaves live on the last level.
type Layout struct {
	LightCount uint32
	LeafCount  uint32
	BogusCount uint32
	LevelCount int
	NodeCount  int
}

// A half-open node index range [Start, End) covering a single level.
type LevelRange struct {
	Level int
	Start int
	End   int
}

// Compute the tree layout for lightCount lights. The leaf count is rounded up
// to a power of two with a minimum of two leaves so that every real light has
// a parent; padding leaves are bogus. Zero lights yield an empty layout.
func NewLayout(lightCount uint32) Layout {
	if lightCount == 0 {
		return Layout{}
	}

	leafCount := max(2, nextPow2(lightCount))
	levelCount := bits.TrailingZeros32(leafCount) + 1
	return Layout{
		LightCount: lightCount,
		LeafCount:  leafCount,
		BogusCount: leafCount - lightCount,
		LevelCount: levelCount,
		NodeCount:  1<<levelCount - 1,
	}
}

// Returns true if the layout contains no nodes.
func (l Layout) Empty() bool {
	return l.NodeCount == 0
}

// Index of the first leaf.
func (l Layout) LeafStart() int {
	return LevelStart(l.LevelCount - 1)
}

// Index of the last level.
func (l Layout) LeafLevel() int {
	return l.LevelCount - 1
}

// Node index range of a level.
func (l Layout) LevelRange(level int) LevelRange {
	start := LevelStart(level)
	return LevelRange{Level: level, Start: start, End: start + LevelSize(level)}
}

// Node index ranges of all levels, root first.
func (l Layout) Levels() []LevelRange {
	levels := make([]LevelRange, l.LevelCount)
	for level := range levels {
		levels[level] = l.LevelRange(level)
	}
	return levels
}

// Returns true if node i is a leaf.
func (l Layout) IsLeaf(i int) bool {
	return i >= l.LeafStart()
}

// Index of the first node on a level.
func LevelStart(level int) int {
	return 1<<level - 1
}

// Number of nodes on a level.
func LevelSize(level int) int {
	return 1 << level
}

// Level of node i.
func LevelOf(i int) int {
	return bits.Len(uint(i)+1) - 1
}

// Children of node i.
func Children(i int) (left, right int) {
	return 2*i + 1, 2*i + 2
}

// Parent of node i; the root has no parent and returns -1.
func Parent(i int) int {
	if i == 0 {
		return -1
	}
	return (i - 1) / 2
}

// Smallest power of two >= v; nextPow2(0) is 0.
func nextPow2(v uint32) uint32 {
	if v == 0 {
		return 0
	}
	return 1 << bits.Len32(v-1)
}
