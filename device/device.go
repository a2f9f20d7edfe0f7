package device

import (
	"fmt"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/achilleasa/lightcuts/log"
)

type DeviceType uint8

// Supported device types.
const (
	CpuDevice       DeviceType = 1 << iota
	ReferenceDevice            = 1 << iota
	AllDevices                 = 0xFF
)

// Local work size used when a dispatch does not specify one.
const defaultLocalWorkSize = 64

func (dt DeviceType) String() string {
	switch dt {
	case CpuDevice:
		return "CPU"
	case ReferenceDevice:
		return "Reference"
	}
	panic("device: unsupported device type")
}

// A software compute device. Work groups of a dispatch run concurrently on up
// to ComputeUnits goroutines while the items of a single group run in order on
// one goroutine, which gives kernels the same guarantees as group-shared memory
// with barriers. All dispatches go through a single command queue and block
// until they retire.
type Device struct {
	Name string
	Type DeviceType

	// Number of work groups that may execute concurrently.
	ComputeUnits int

	logger log.Logger

	// Serializes dispatches and host transfers.
	queueMu     sync.Mutex
	initialized bool

	dispatches atomic.Uint64
}

// A list of devices.
type DeviceList []*Device

// Implements Stringer.
func (d *Device) String() string {
	return fmt.Sprintf(
		"Name: %s\nType: %s\nSpecs: %d compute units",
		d.Name,
		d.Type.String(),
		d.ComputeUnits,
	)
}

// Relative speed estimate compared to the single-unit reference device.
func (d *Device) SpeedEstimate() float32 {
	return float32(d.ComputeUnits)
}

// Initialize device. Calling Init on an initialized device is a no-op.
func (d *Device) Init() error {
	d.queueMu.Lock()
	defer d.queueMu.Unlock()

	if d.initialized {
		return nil
	}
	if d.ComputeUnits < 1 {
		return fmt.Errorf("software device (%s): invalid compute unit count %d", d.Name, d.ComputeUnits)
	}

	d.logger = log.New("device")
	d.initialized = true
	d.logger.Debugf("initialized device %q with %d compute units", d.Name, d.ComputeUnits)
	return nil
}

// Shut down the device. Pending dispatches complete before Close returns.
func (d *Device) Close() {
	d.queueMu.Lock()
	defer d.queueMu.Unlock()
	d.initialized = false
}

// Number of dispatches that were executed by this device.
func (d *Device) Dispatches() uint64 {
	return d.dispatches.Load()
}

// Create a named kernel backed by the given work group function.
func (d *Device) Kernel(name string, fn KernelFunc) *Kernel {
	return &Kernel{
		device: d,
		name:   name,
		fn:     fn,
	}
}

// Enumerate the available devices whose type matches typeMask and whose name
// contains nameFilter. An empty filter matches all devices.
func SelectDevices(typeMask DeviceType, nameFilter string) (DeviceList, error) {
	if typeMask == 0 {
		return nil, fmt.Errorf("software device: empty device type mask")
	}

	available := DeviceList{
		&Device{
			Name:         fmt.Sprintf("CPU (%d threads)", runtime.NumCPU()),
			Type:         CpuDevice,
			ComputeUnits: runtime.NumCPU(),
		},
		&Device{
			Name:         "Reference",
			Type:         ReferenceDevice,
			ComputeUnits: 1,
		},
	}

	list := make(DeviceList, 0, len(available))
	for _, dev := range available {
		if dev.Type&typeMask == 0 {
			continue
		}
		if nameFilter != "" && !strings.Contains(strings.ToLower(dev.Name), strings.ToLower(nameFilter)) {
			continue
		}
		list = append(list, dev)
	}

	return list, nil
}
