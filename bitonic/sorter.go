package bitonic

import (
	"fmt"
	"time"

	"github.com/achilleasa/lightcuts/device"
	"github.com/achilleasa/lightcuts/log"
)

// The size of the records sorted by a Sorter.
type KeyWidth uint8

// Supported key widths.
const (
	// 32-bit keys without a payload.
	Key32 KeyWidth = 32

	// 64-bit records built with Pack.
	Key64 KeyWidth = 64
)

// Parse a key width given in bits.
func ParseKeyWidth(bits int) (KeyWidth, error) {
	switch KeyWidth(bits) {
	case Key32, Key64:
		return KeyWidth(bits), nil
	}
	return 0, fmt.Errorf("%w: %d", ErrUnsupportedKeyWidth, bits)
}

// Per-call sort options.
type Options struct {
	// Sort in non-increasing order.
	Descending bool

	// The input is already sorted in runs of 2048 elements so the pre-sort
	// stage can be skipped.
	PreSorted bool
}

// Statistics for a single sort invocation.
type Stats struct {
	// Dispatches submitted to the device, including ones that had no groups
	// to execute.
	Dispatches int

	// Total time spent in dispatches.
	Elapsed time.Duration
}

// A Buffer that can be sorted: either a *device.Buffer[uint32] of keys or a
// *device.Buffer[uint64] of packed records.
type Buffer interface {
	Name() string
	Len() int
}

// A bitonic sorting network running on a device. A Sorter is not safe for
// concurrent use.
type Sorter struct {
	device *device.Device
	width  KeyWidth
	logger log.Logger

	// Host supplied element counts are uploaded here.
	counter *device.Buffer[uint32]

	// Per-dispatch group counts written by the indirect args kernel.
	indirectArgs *device.Buffer[device.DispatchArgs]

	keys32    *network[uint32]
	records64 *network[uint64]
}

// Create a sorter for records of the given width.
func New(dev *device.Device, width KeyWidth) (*Sorter, error) {
	if width != Key32 && width != Key64 {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedKeyWidth, width)
	}

	s := &Sorter{
		device:       dev,
		width:        width,
		logger:       log.New("bitonic"),
		counter:      device.NewBuffer[uint32](dev, "bitonic.counter"),
		indirectArgs: device.NewBuffer[device.DispatchArgs](dev, "bitonic.dispatchArgs"),
	}

	if err := s.counter.Allocate(1); err != nil {
		return nil, err
	}
	if err := s.indirectArgs.Allocate(indirectArgsCount); err != nil {
		return nil, err
	}

	switch width {
	case Key32:
		s.keys32 = newNetwork[uint32](dev, s.indirectArgs)
	case Key64:
		s.records64 = newNetwork[uint64](dev, s.indirectArgs)
	}

	return s, nil
}

// Get sorter key width.
func (s *Sorter) Width() KeyWidth {
	return s.width
}

// Release sorter resources.
func (s *Sorter) Close() {
	if s.keys32 != nil {
		s.keys32.release()
	}
	if s.records64 != nil {
		s.records64.release()
	}
	s.counter.Release()
	s.indirectArgs.Release()
}

// Sort the first count elements of buf. Elements past count are left
// untouched.
func (s *Sorter) Sort(buf Buffer, count uint32, opts Options) (Stats, error) {
	if int(count) > buf.Len() {
		return Stats{}, fmt.Errorf("%w: %d > %d (%s)", ErrCountExceedsCapacity, count, buf.Len(), buf.Name())
	}
	if err := s.counter.WriteData([]uint32{count}, 0); err != nil {
		return Stats{}, err
	}

	return s.SortIndirect(buf, s.counter, 0, opts)
}

// Sort buf using the logical element count stored in counter at the given
// byte offset. The count is read on the device when the sort executes so it
// may be produced by an earlier dispatch.
func (s *Sorter) SortIndirect(buf Buffer, counter *device.Buffer[uint32], counterOffset uint32, opts Options) (Stats, error) {
	counterIndex, err := counter.IndexOf(counterOffset)
	if err != nil {
		return Stats{}, err
	}

	switch b := buf.(type) {
	case *device.Buffer[uint32]:
		if s.keys32 == nil {
			return Stats{}, fmt.Errorf("%w: %s holds 32-bit keys; sorter width is %d", ErrKeyWidthMismatch, b.Name(), s.width)
		}
		return run(s, s.keys32, b, counter, counterIndex, opts)
	case *device.Buffer[uint64]:
		if s.records64 == nil {
			return Stats{}, fmt.Errorf("%w: %s holds 64-bit records; sorter width is %d", ErrKeyWidthMismatch, b.Name(), s.width)
		}
		return run(s, s.records64, b, counter, counterIndex, opts)
	}

	return Stats{}, fmt.Errorf("%w: unsupported buffer type %T", ErrKeyWidthMismatch, buf)
}

func run[T record](s *Sorter, n *network[T], buf *device.Buffer[T], counter *device.Buffer[uint32], counterIndex int, opts Options) (Stats, error) {
	var stats Stats

	alignedMaxElements := AlignPowerOfTwo(uint64(buf.Len()))
	n.bind = bindings[T]{
		sortBuf:      buf,
		counter:      counter,
		counterIndex: counterIndex,
		maxIter:      MaxIterations(uint64(buf.Len())),
	}
	if !opts.Descending {
		n.bind.nullItem = ^T(0)
	}

	exec := func(kt kernelType, argsIndex int) error {
		var (
			elapsed time.Duration
			err     error
		)
		if kt == indirectArgs {
			elapsed, err = n.kernels[kt].Exec1D(0, 1, 1)
		} else {
			elapsed, err = n.kernels[kt].Exec1DIndirect(n.args, argsIndex, groupThreads)
		}
		stats.Dispatches++
		stats.Elapsed += elapsed
		if err != nil {
			return fmt.Errorf("bitonic: %s (k=%d, j=%d) on %s failed: %w", kt, n.bind.k, n.bind.j, buf.Name(), err)
		}
		return nil
	}

	if err := exec(indirectArgs, 0); err != nil {
		return stats, err
	}

	// Pre-sort up to k = 2048; this also pads partial groups with null items
	// that drift to the end of the list.
	if !opts.PreSorted {
		if err := exec(preSort, 0); err != nil {
			return stats, err
		}
	}

	argsIndex := 1
	for k := uint64(2 * groupSortSize); k <= alignedMaxElements; k *= 2 {
		for j := k / 2; j >= groupSortSize; j /= 2 {
			n.bind.k, n.bind.j = uint32(k), uint32(j)
			if err := exec(outerSort, argsIndex); err != nil {
				return stats, err
			}
			argsIndex++
		}

		n.bind.k, n.bind.j = uint32(k), 0
		if err := exec(innerSort, argsIndex); err != nil {
			return stats, err
		}
		argsIndex++
	}

	s.logger.Debugf("sorted %s (%d-bit, capacity %d) with %d dispatches in %d ms", buf.Name(), s.width, buf.Len(), stats.Dispatches, stats.Elapsed.Nanoseconds()/1e6)
	return stats, nil
}
