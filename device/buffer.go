package device

import (
	"fmt"
	"strings"
	"unsafe"
)

// Allocation strategy applied by Buffer.Ensure.
type AllocPolicy uint8

const (
	// Reallocate only when the requested element count exceeds the current
	// capacity. Callers track the logical element count themselves.
	GrowOnly AllocPolicy = iota

	// Reallocate whenever the requested element count differs from the
	// current capacity.
	ExactResize
)

func (p AllocPolicy) String() string {
	switch p {
	case GrowOnly:
		return "grow-only"
	case ExactResize:
		return "exact-resize"
	}
	return fmt.Sprintf("policy(%d)", uint8(p))
}

// Parse a policy name as returned by String.
func ParseAllocPolicy(name string) (AllocPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "grow-only", "growonly":
		return GrowOnly, nil
	case "exact-resize", "exactresize":
		return ExactResize, nil
	}
	return GrowOnly, fmt.Errorf("software device: unknown allocation policy %q", name)
}

// A typed device buffer.
type Buffer[T any] struct {
	// Associated Device.
	device *Device

	// A name for identifying the buffer.
	name string

	// Device storage.
	data []T
}

// Create an empty buffer.
func NewBuffer[T any](d *Device, name string) *Buffer[T] {
	return &Buffer[T]{
		device: d,
		name:   name,
	}
}

// Get buffer name.
func (b *Buffer[T]) Name() string {
	return b.name
}

// Get buffer capacity in elements.
func (b *Buffer[T]) Len() int {
	return len(b.data)
}

// Get the size of a single element in bytes.
func (b *Buffer[T]) ElementSize() int {
	var zero T
	return int(unsafe.Sizeof(zero))
}

// Get buffer size in bytes.
func (b *Buffer[T]) Size() int {
	return len(b.data) * b.ElementSize()
}

// Allocate a zeroed buffer with room for count elements, releasing any
// previous allocation.
func (b *Buffer[T]) Allocate(count int) error {
	if count < 0 {
		return fmt.Errorf("software device (%s): could not allocate buffer %s with %d elements", b.device.Name, b.name, count)
	}

	b.Release()
	b.data = make([]T, count)
	return nil
}

// Allocate a buffer large enough to hold data and copy data into it.
func (b *Buffer[T]) AllocateAndWriteData(data []T) error {
	if err := b.Allocate(len(data)); err != nil {
		return err
	}
	return b.WriteData(data, 0)
}

// Make sure the buffer can hold count elements using the given policy.
// Buffer contents are not preserved when the buffer is reallocated. The
// returned flag reports whether a reallocation took place.
func (b *Buffer[T]) Ensure(count int, policy AllocPolicy) (bool, error) {
	switch policy {
	case GrowOnly:
		if b.data != nil && len(b.data) >= count {
			return false, nil
		}
	case ExactResize:
		if b.data != nil && len(b.data) == count {
			return false, nil
		}
	default:
		return false, fmt.Errorf("software device (%s): unsupported allocation policy %s for buffer %s", b.device.Name, policy, b.name)
	}

	return true, b.Allocate(count)
}

// Copy host data into the device buffer starting at the given element offset.
// The copy waits for any in-flight dispatch to retire.
func (b *Buffer[T]) WriteData(data []T, offset int) error {
	if offset < 0 || offset+len(data) > len(b.data) {
		return fmt.Errorf("software device (%s): insufficient buffer space (%d) in %s for copying %d elements at offset %d", b.device.Name, len(b.data), b.name, len(data), offset)
	}

	b.device.queueMu.Lock()
	defer b.device.queueMu.Unlock()
	copy(b.data[offset:], data)
	return nil
}

// Read count elements starting at srcOffset into hostBuffer starting at
// dstOffset. If count is <= 0 then ReadData will read everything from
// srcOffset to the end of the buffer. The read waits for any in-flight
// dispatch to retire.
func (b *Buffer[T]) ReadData(srcOffset, dstOffset, count int, hostBuffer []T) error {
	if count <= 0 {
		count = len(b.data) - srcOffset
	}

	if srcOffset < 0 || count < 0 || srcOffset+count > len(b.data) {
		return fmt.Errorf("software device (%s): read of %d elements at offset %d exceeds buffer %s capacity (%d)", b.device.Name, count, srcOffset, b.name, len(b.data))
	}
	if dstOffset < 0 || dstOffset+count > len(hostBuffer) {
		return fmt.Errorf("software device (%s): host buffer too small for reading %d elements from %s", b.device.Name, count, b.name)
	}

	b.device.queueMu.Lock()
	defer b.device.queueMu.Unlock()
	copy(hostBuffer[dstOffset:dstOffset+count], b.data[srcOffset:srcOffset+count])
	return nil
}

// Convert a byte offset into an element index. The offset must be aligned to
// the element size and address an allocated element.
func (b *Buffer[T]) IndexOf(byteOffset uint32) (int, error) {
	elemSize := uint32(b.ElementSize())
	if byteOffset%elemSize != 0 {
		return 0, fmt.Errorf("software device (%s): byte offset %d is not aligned to the %d byte elements of %s", b.device.Name, byteOffset, elemSize, b.name)
	}

	index := int(byteOffset / elemSize)
	if index >= len(b.data) {
		return 0, fmt.Errorf("software device (%s): byte offset %d is out of range for %s (%d bytes)", b.device.Name, byteOffset, b.name, b.Size())
	}
	return index, nil
}

// Access the device-side storage. Only kernels should use the returned slice;
// the host must go through ReadData/WriteData.
func (b *Buffer[T]) Data() []T {
	return b.data
}

// Release buffer.
func (b *Buffer[T]) Release() {
	b.data = nil
}
