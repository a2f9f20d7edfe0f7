package renderer

import (
	"github.com/achilleasa/lightcuts/bitonic"
	"github.com/achilleasa/lightcuts/device"
	"github.com/achilleasa/lightcuts/lightcut"
	"github.com/achilleasa/lightcuts/lighttree"
	"github.com/achilleasa/lightcuts/morton"
)

type Options struct {
	// Frame dims.
	FrameW uint32
	FrameH uint32

	// Bits per axis for light spatial codes.
	CodeBits uint

	// Leaf sort record width and direction.
	KeyWidth   bitonic.KeyWidth
	Descending bool

	// Max nodes written per tree construction dispatch.
	WorkBudget int

	// Cut selection error limit.
	ErrorLimit float32

	// Number of light samples per pixel.
	SamplesPerPixel uint32

	// Min light distance as a fraction of the scene radius.
	MinDistanceRatio float32

	// Sort tree leaves on the host.
	HostSort bool

	// Seed for light sampling.
	Seed uint64

	// Allocation policy for device buffers.
	BufferPolicy device.AllocPolicy

	// Device selection.
	BlackListedDevices []string
	ForceDevice        string
}

// Default renderer options.
func DefaultOptions() Options {
	tree := lighttree.DefaultConfig()
	cut := lightcut.DefaultConfig()

	return Options{
		FrameW:           256,
		FrameH:           256,
		CodeBits:         morton.DefaultBits,
		KeyWidth:         tree.KeyWidth,
		WorkBudget:       tree.WorkBudget,
		ErrorLimit:       cut.ErrorLimit,
		SamplesPerPixel:  uint32(cut.SamplesPerPixel),
		MinDistanceRatio: cut.MinDistanceRatio,
		BufferPolicy:     tree.BufferPolicy,
	}
}

// Light tree builder configuration.
func (opts Options) TreeConfig() lighttree.Config {
	return lighttree.Config{
		CodeBits:     opts.CodeBits,
		KeyWidth:     opts.KeyWidth,
		Descending:   opts.Descending,
		WorkBudget:   opts.WorkBudget,
		HostSort:     opts.HostSort,
		BufferPolicy: opts.BufferPolicy,
	}
}

// Cut selector configuration.
func (opts Options) CutConfig() lightcut.Config {
	return lightcut.Config{
		ErrorLimit:       opts.ErrorLimit,
		SamplesPerPixel:  int(opts.SamplesPerPixel),
		Seed:             opts.Seed,
		MinDistanceRatio: opts.MinDistanceRatio,
	}
}
