package bitonic

type kernelType uint8

// The kernels that make up the sorting network.
const (
	indirectArgs kernelType = iota
	preSort
	outerSort
	innerSort
	//
	numKernels
)

// Implements Stringer.
func (kt kernelType) String() string {
	switch kt {
	case indirectArgs:
		return "bitonicIndirectArgs"
	case preSort:
		return "bitonicPreSort"
	case outerSort:
		return "bitonicOuterSort"
	case innerSort:
		return "bitonicInnerSort"
	}
	panic("bitonic: unsupported kernel type")
}
