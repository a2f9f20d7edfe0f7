package bitonic

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/achilleasa/lightcuts/device"
)

// Sort the first count elements of buf on the host using the same ordering
// as the device network. The range is read back, sorted and written back
// with blocking transfers; no dispatch may be in flight against buf.
func HostSort(buf Buffer, count uint32, opts Options) error {
	if int(count) > buf.Len() {
		return fmt.Errorf("%w: %d > %d (%s)", ErrCountExceedsCapacity, count, buf.Len(), buf.Name())
	}

	switch b := buf.(type) {
	case *device.Buffer[uint32]:
		return hostSort(b, count, opts)
	case *device.Buffer[uint64]:
		return hostSort(b, count, opts)
	}
	return fmt.Errorf("%w: unsupported buffer type %T", ErrKeyWidthMismatch, buf)
}

func hostSort[T record](buf *device.Buffer[T], count uint32, opts Options) error {
	if count < 2 {
		return nil
	}

	data := make([]T, count)
	if err := buf.ReadData(0, 0, int(count), data); err != nil {
		return err
	}

	if opts.Descending {
		slices.SortFunc(data, func(a, b T) int { return cmp.Compare(b, a) })
	} else {
		slices.Sort(data)
	}

	return buf.WriteData(data, 0)
}
