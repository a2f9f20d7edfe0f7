package lighttree

type kernelType uint8

// The kernels used for building the light tree.
const (
	generateKeys kernelType = iota
	generateLeaves
	constructTree
	//
	numKernels
)

// Implements Stringer.
func (kt kernelType) String() string {
	switch kt {
	case generateKeys:
		return "generateLightTreeKeys"
	case generateLeaves:
		return "generateLightTreeLeaves"
	case constructTree:
		return "constructLightTree"
	}
	panic("lighttree: unsupported kernel type")
}
