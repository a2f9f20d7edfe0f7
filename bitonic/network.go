package bitonic

import (
	"github.com/achilleasa/lightcuts/device"
)

const (
	// Elements sorted by one work group in shared memory.
	groupSortSize = 2048

	// Comparators (threads) per work group.
	groupThreads = groupSortSize / 2

	// Upper bound on MaxIterations for 32-bit element counts; the args
	// buffer holds one record per dispatch of every iteration.
	maxIterations     = 22
	indirectArgsCount = maxIterations * (maxIterations + 1) / 2
)

type record interface {
	~uint32 | ~uint64
}

// The dispatch arguments shared by all kernels of a sort invocation.
type bindings[T record] struct {
	sortBuf      *device.Buffer[T]
	counter      *device.Buffer[uint32]
	counterIndex int
	nullItem     T
	maxIter      uint32
	k, j         uint32
}

// Compare-and-swap order. With an all-ones null item this yields an
// ascending order and with a zero null item a descending one; in both cases
// the null item sorts last.
func (b *bindings[T]) shouldSwap(a, c T) bool {
	return a^b.nullItem < c^b.nullItem
}

func (b *bindings[T]) listCount() uint32 {
	return b.counter.Data()[b.counterIndex]
}

// A sorting network for a particular record width.
type network[T record] struct {
	args    *device.Buffer[device.DispatchArgs]
	kernels []*device.Kernel
	bind    bindings[T]
}

func newNetwork[T record](dev *device.Device, args *device.Buffer[device.DispatchArgs]) *network[T] {
	n := &network[T]{args: args}
	n.kernels = make([]*device.Kernel, numKernels)
	n.kernels[indirectArgs] = dev.Kernel(indirectArgs.String(), n.indirectArgsKernel)
	n.kernels[preSort] = dev.Kernel(preSort.String(), n.preSortKernel)
	n.kernels[outerSort] = dev.Kernel(outerSort.String(), n.outerSortKernel)
	n.kernels[innerSort] = dev.Kernel(innerSort.String(), n.innerSortKernel)
	return n
}

func (n *network[T]) release() {
	for _, kernel := range n.kernels {
		kernel.Release()
	}
}

// Compute the group counts of every dispatch from the logical element count.
// Iterations whose block size exceeds the padded element count receive zero
// groups so their dispatches retire immediately.
func (n *network[T]) indirectArgsKernel(_ device.WorkGroup) {
	out := n.args.Data()
	count := n.bind.listCount()
	if count < 2 {
		count = 0
	}

	for gi := uint32(0); gi < n.bind.maxIter; gi++ {
		listCount := count
		k := uint64(groupSortSize) << gi
		if k > AlignPowerOfTwo(roundUpToGroup(listCount)) {
			listCount = 0
		}

		offset := gi * (gi + 1) / 2
		for j := k / 2; j > groupThreads; j /= 2 {
			completeGroups := (uint64(listCount) &^ (2*j - 1)) / groupSortSize
			partial := int64(listCount) - int64(completeGroups*groupSortSize) - int64(j)
			partialGroups := (uint64(max(partial, 0)) + groupThreads - 1) / groupThreads
			out[offset] = device.DispatchArgs{GroupsX: uint32(completeGroups + partialGroups), GroupsY: 1, GroupsZ: 1}
			offset++
		}

		out[offset] = device.DispatchArgs{GroupsX: uint32((uint64(listCount) + groupSortSize - 1) / groupSortSize), GroupsY: 1, GroupsZ: 1}
	}
}

// Sort runs of 2048 elements with the full bitonic network for k = 2..2048.
// Slots past the logical count are padded with null items and never
// written back.
func (n *network[T]) preSortKernel(g device.WorkGroup) {
	var shared [groupSortSize]T
	groupStart := n.load(g, shared[:])

	for k := uint32(2); k <= groupSortSize; k <<= 1 {
		for j := k / 2; j > 0; j /= 2 {
			for gi := uint32(0); gi < groupThreads; gi++ {
				index2 := insertOneBit(gi, j)
				index1 := index2 ^ j
				if k == 2*j {
					index1 = index2 ^ (k - 1)
				}
				if n.bind.shouldSwap(shared[index1], shared[index2]) {
					shared[index1], shared[index2] = shared[index2], shared[index1]
				}
			}
		}
	}

	n.store(groupStart, shared[:])
}

// Merge pass for comparison distances j >= 2048 that span several groups.
func (n *network[T]) outerSortKernel(g device.WorkGroup) {
	data := n.bind.sortBuf.Data()
	count := n.bind.listCount()
	k, j := n.bind.k, n.bind.j

	g.Items1D(func(gid int) {
		index2 := insertOneBit(uint32(gid), j)
		if index2 >= count {
			return
		}
		index1 := index2 ^ j
		if k == 2*j {
			index1 = index2 ^ (k - 1)
		}
		if n.bind.shouldSwap(data[index1], data[index2]) {
			data[index1], data[index2] = data[index2], data[index1]
		}
	})
}

// Finish a merge step by resolving distances 1024..1 inside each group.
func (n *network[T]) innerSortKernel(g device.WorkGroup) {
	var shared [groupSortSize]T
	groupStart := n.load(g, shared[:])

	for j := uint32(groupThreads); j > 0; j /= 2 {
		for gi := uint32(0); gi < groupThreads; gi++ {
			index2 := insertOneBit(gi, j)
			index1 := index2 ^ j
			if n.bind.shouldSwap(shared[index1], shared[index2]) {
				shared[index1], shared[index2] = shared[index2], shared[index1]
			}
		}
	}

	n.store(groupStart, shared[:])
}

// Copy the group's slice of the sort buffer into shared memory.
func (n *network[T]) load(g device.WorkGroup, shared []T) uint32 {
	data := n.bind.sortBuf.Data()
	count := n.bind.listCount()
	groupStart := uint32(g.ID[0]) * groupSortSize

	for i := uint32(0); i < groupSortSize; i++ {
		if index := groupStart + i; index < count {
			shared[i] = data[index]
		} else {
			shared[i] = n.bind.nullItem
		}
	}
	return groupStart
}

// Write back the valid elements of a group.
func (n *network[T]) store(groupStart uint32, shared []T) {
	data := n.bind.sortBuf.Data()
	count := n.bind.listCount()

	for i := uint32(0); i < groupSortSize; i++ {
		if index := groupStart + i; index < count {
			data[index] = shared[i]
		}
	}
}

func roundUpToGroup(count uint32) uint64 {
	return (uint64(count) + groupSortSize - 1) &^ (groupSortSize - 1)
}
