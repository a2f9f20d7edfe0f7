package device

import (
	"fmt"
	"time"

	"github.com/sourcegraph/conc/panics"
	"github.com/sourcegraph/conc/pool"
)

// Arguments for an indirect dispatch. The layout matches the 12 byte
// (x, y, z) group count records consumed by GPU indirect dispatches.
type DispatchArgs struct {
	GroupsX uint32
	GroupsY uint32
	GroupsZ uint32
}

// A function executed once per work group.
type KernelFunc func(g WorkGroup)

// A single work group of a dispatch.
type WorkGroup struct {
	// Group id along each dimension.
	ID [2]int

	// Local work size along each dimension.
	Size [2]int

	// Dispatch offsets and global work sizes.
	Offset [2]int
	Global [2]int
}

// Return the global id range [min, max) covered by this group. Groups at the
// edge of a dispatch whose global size is not a multiple of the local size
// are clipped.
func (g WorkGroup) Bounds() (min, max [2]int) {
	for dim := 0; dim < 2; dim++ {
		min[dim] = g.Offset[dim] + g.ID[dim]*g.Size[dim]
		max[dim] = min[dim] + g.Size[dim]
		if limit := g.Offset[dim] + g.Global[dim]; max[dim] > limit {
			max[dim] = limit
		}
	}
	return min, max
}

// Invoke fn for each global id in this group of a 1D dispatch.
func (g WorkGroup) Items1D(fn func(gid int)) {
	min, max := g.Bounds()
	for gid := min[0]; gid < max[0]; gid++ {
		fn(gid)
	}
}

// Invoke fn for each global (x, y) id in this group of a 2D dispatch.
func (g WorkGroup) Items2D(fn func(x, y int)) {
	min, max := g.Bounds()
	for y := min[1]; y < max[1]; y++ {
		for x := min[0]; x < max[0]; x++ {
			fn(x, y)
		}
	}
}

// A named kernel bound to a device.
type Kernel struct {
	device *Device
	name   string
	fn     KernelFunc

	// kernel workgroup sizes and offsets
	offsets         [2]int
	globalWorkSizes [2]int
	localWorkSizes  [2]int
}

// Get kernel name.
func (k *Kernel) Name() string {
	return k.name
}

// Free any allocated resources used by this kernel.
func (k *Kernel) Release() {
	k.fn = nil
}

// Execute 1D kernel. If localWorkSize is equal to 0 then the device picks a
// default local work size.
func (k *Kernel) Exec1D(offset, globalWorkSize, localWorkSize int) (time.Duration, error) {
	if offset < 0 || globalWorkSize < 0 || localWorkSize < 0 {
		return 0, fmt.Errorf("software device (%s): kernel %s: %w", k.device.Name, k.name, ErrInvalidWorkSize)
	}
	if localWorkSize == 0 {
		localWorkSize = defaultLocalWorkSize
	}

	k.offsets = [2]int{offset, 0}
	k.globalWorkSizes = [2]int{globalWorkSize, 1}
	k.localWorkSizes = [2]int{localWorkSize, 1}
	return k.exec()
}

// Execute 2D kernel. If both localWorkSizeX and localWorkSizeY are 0 then the
// device picks a default square local work size.
func (k *Kernel) Exec2D(offsetX, offsetY, globalWorkSizeX, globalWorkSizeY, localWorkSizeX, localWorkSizeY int) (time.Duration, error) {
	if offsetX < 0 || offsetY < 0 || globalWorkSizeX < 0 || globalWorkSizeY < 0 || localWorkSizeX < 0 || localWorkSizeY < 0 {
		return 0, fmt.Errorf("software device (%s): kernel %s: %w", k.device.Name, k.name, ErrInvalidWorkSize)
	}
	if localWorkSizeX == 0 && localWorkSizeY == 0 {
		localWorkSizeX, localWorkSizeY = 8, 8
	}
	if localWorkSizeX == 0 || localWorkSizeY == 0 {
		return 0, fmt.Errorf("software device (%s): kernel %s: %w", k.device.Name, k.name, ErrInvalidWorkSize)
	}

	k.offsets = [2]int{offsetX, offsetY}
	k.globalWorkSizes = [2]int{globalWorkSizeX, globalWorkSizeY}
	k.localWorkSizes = [2]int{localWorkSizeX, localWorkSizeY}
	return k.exec()
}

// Execute 1D kernel using the group count stored in args[index]. The group
// count is read when the dispatch starts executing so it may be produced by
// an earlier dispatch without a host read-back. A zero group count turns the
// dispatch into a no-op.
func (k *Kernel) Exec1DIndirect(args *Buffer[DispatchArgs], index int, localWorkSize int) (time.Duration, error) {
	if localWorkSize <= 0 {
		return 0, fmt.Errorf("software device (%s): kernel %s: %w", k.device.Name, k.name, ErrInvalidWorkSize)
	}
	if index < 0 || index >= args.Len() {
		return 0, fmt.Errorf("software device (%s): kernel %s: indirect args index %d out of range for %s", k.device.Name, k.name, index, args.Name())
	}

	k.offsets = [2]int{0, 0}
	k.localWorkSizes = [2]int{localWorkSize, 1}
	k.globalWorkSizes = [2]int{-1, 1}
	return k.execWith(func() [2]int {
		groups := args.Data()[index].GroupsX
		return [2]int{int(groups) * localWorkSize, 1}
	})
}

func (k *Kernel) exec() (time.Duration, error) {
	global := k.globalWorkSizes
	return k.execWith(func() [2]int { return global })
}

// Run all work groups of a dispatch and wait for them to complete. The global
// work size is resolved after the command queue has been acquired.
func (k *Kernel) execWith(globalSize func() [2]int) (time.Duration, error) {
	dev := k.device

	dev.queueMu.Lock()
	defer dev.queueMu.Unlock()

	if !dev.initialized {
		return 0, ErrDeviceNotInitialized
	}
	if k.fn == nil {
		return 0, fmt.Errorf("software device (%s): kernel %s: %w", dev.Name, k.name, ErrKernelReleased)
	}

	tick := time.Now()
	global := globalSize()
	k.globalWorkSizes = global

	var groups [2]int
	for dim := 0; dim < 2; dim++ {
		groups[dim] = (global[dim] + k.localWorkSizes[dim] - 1) / k.localWorkSizes[dim]
	}
	if groups[0] == 0 || groups[1] == 0 {
		return time.Since(tick), nil
	}

	var catcher panics.Catcher
	p := pool.New().WithMaxGoroutines(dev.ComputeUnits)
	for gy := 0; gy < groups[1]; gy++ {
		for gx := 0; gx < groups[0]; gx++ {
			wg := WorkGroup{
				ID:     [2]int{gx, gy},
				Size:   k.localWorkSizes,
				Offset: k.offsets,
				Global: global,
			}
			p.Go(func() {
				catcher.Try(func() { k.fn(wg) })
			})
		}
	}
	p.Wait()

	dev.dispatches.Add(1)
	if recovered := catcher.Recovered(); recovered != nil {
		return time.Since(tick), fmt.Errorf("software device (%s): kernel %s did not complete successfully: %w", dev.Name, k.name, recovered.AsError())
	}

	return time.Since(tick), nil
}
