package lighttree

import (
	"fmt"
	"time"

	"github.com/achilleasa/lightcuts/bitonic"
	"github.com/achilleasa/lightcuts/device"
	"github.com/achilleasa/lightcuts/log"
	"github.com/achilleasa/lightcuts/morton"
	"github.com/achilleasa/lightcuts/scene"
	"github.com/achilleasa/lightcuts/types"
)

const (
	// Local work size for the per-light and per-node kernels.
	localWorkSize = 64
)

// Builder configuration.
type Config struct {
	// Bits per axis for spatial codes.
	CodeBits uint

	// Width of the leaf sort records. Leaves are sorted as (code, light)
	// pairs so only 64-bit records are supported.
	KeyWidth bitonic.KeyWidth

	// Sort leaves by decreasing code.
	Descending bool

	// Max number of nodes written by a construction dispatch.
	WorkBudget int

	// Sort the leaves on the host instead of the device.
	HostSort bool

	// Allocation policy for the node, key and helper buffers.
	BufferPolicy device.AllocPolicy
}

// Default builder configuration.
func DefaultConfig() Config {
	return Config{
		CodeBits:     morton.DefaultBits,
		KeyWidth:     bitonic.Key64,
		WorkBudget:   DefaultWorkBudget,
		BufferPolicy: device.GrowOnly,
	}
}

// Builder statistics for the last build.
type Stats struct {
	KeysTime      time.Duration
	SortTime      time.Duration
	LeavesTime    time.Duration
	ConstructTime time.Duration

	SortDispatches      int
	ConstructDispatches int
}

// Builds a light tree on a device. The build is split into stages that
// run as separate dispatches in the order GenerateKeys, SortKeys,
// GenerateLeaves and Construct. A Builder is not safe for concurrent use.
type Builder struct {
	logger log.Logger

	device    *device.Device
	config    Config
	sorter    *bitonic.Sorter
	scheduler BatchScheduler

	// Tree nodes.
	nodes *device.Buffer[Node]

	// Unsorted leaves indexed by light.
	helper *device.Buffer[Node]

	// (code, light) sort records.
	keys *device.Buffer[uint64]

	// Device-side light count consumed by the sorter.
	counter *device.Buffer[uint32]

	kernels []*device.Kernel

	// Per-build state.
	lights   *device.Buffer[scene.Light]
	layout   Layout
	coder    *morton.Coder
	sentinel uint64
	batch    Batch
	prepared bool
	leaves   bool

	stats Stats
}

// Create a new builder.
func NewBuilder(dev *device.Device, config Config) (*Builder, error) {
	if config.KeyWidth != bitonic.Key64 {
		return nil, fmt.Errorf("%w: leaf sort requires %d-bit records; got %d", bitonic.ErrUnsupportedKeyWidth, bitonic.Key64, config.KeyWidth)
	}
	if config.WorkBudget <= 0 {
		return nil, ErrInvalidWorkBudget
	}
	if config.CodeBits < 1 || config.CodeBits > morton.MaxBits {
		return nil, fmt.Errorf("%w: got %d", morton.ErrInvalidBits, config.CodeBits)
	}

	sorter, err := bitonic.New(dev, config.KeyWidth)
	if err != nil {
		return nil, err
	}

	b := &Builder{
		logger:    log.New("lighttree"),
		device:    dev,
		config:    config,
		sorter:    sorter,
		scheduler: NewBudgetScheduler(config.WorkBudget),
		nodes:     device.NewBuffer[Node](dev, "lighttree.nodes"),
		helper:    device.NewBuffer[Node](dev, "lighttree.sortingHelper"),
		keys:      device.NewBuffer[uint64](dev, "lighttree.sortingKeys"),
		counter:   device.NewBuffer[uint32](dev, "lighttree.lightCount"),
	}

	if err = b.counter.Allocate(1); err != nil {
		b.Close()
		return nil, err
	}

	b.kernels = make([]*device.Kernel, numKernels)
	b.kernels[generateKeys] = dev.Kernel(generateKeys.String(), b.generateKeysKernel)
	b.kernels[generateLeaves] = dev.Kernel(generateLeaves.String(), b.generateLeavesKernel)
	b.kernels[constructTree] = dev.Kernel(constructTree.String(), b.constructTreeKernel)

	return b, nil
}

// Release all builder resources.
func (b *Builder) Close() {
	for _, kernel := range b.kernels {
		if kernel != nil {
			kernel.Release()
		}
	}
	b.kernels = nil

	if b.sorter != nil {
		b.sorter.Close()
		b.sorter = nil
	}

	b.nodes.Release()
	b.helper.Release()
	b.keys.Release()
	b.counter.Release()
}

// Get builder config.
func (b *Builder) Config() Config {
	return b.config
}

// Get the stats of the last build.
func (b *Builder) Stats() Stats {
	return b.stats
}

// Bind the light buffer for the next build and make sure that all buffers
// are large enough. lights must hold at least lightCount elements and bounds
// must enclose every light position.
func (b *Builder) Prepare(lights *device.Buffer[scene.Light], lightCount uint32, bounds types.BBox) error {
	if int(lightCount) > lights.Len() {
		return fmt.Errorf("lighttree: light count %d exceeds capacity of %s (%d)", lightCount, lights.Name(), lights.Len())
	}

	coder, err := morton.NewCoder(b.config.CodeBits, bounds)
	if err != nil {
		return err
	}

	b.lights = lights
	b.layout = NewLayout(lightCount)
	b.coder = coder
	b.stats = Stats{}
	b.leaves = false
	b.prepared = true

	b.sentinel = ^uint64(0)
	if b.config.Descending {
		b.sentinel = 0
	}

	if b.layout.Empty() {
		return nil
	}

	policy := b.config.BufferPolicy
	if _, err = b.nodes.Ensure(b.layout.NodeCount, policy); err != nil {
		return err
	}
	if _, err = b.helper.Ensure(int(b.layout.LightCount), policy); err != nil {
		return err
	}
	if _, err = b.keys.Ensure(int(b.layout.LeafCount), policy); err != nil {
		return err
	}

	return nil
}

// Get the layout of the prepared tree.
func (b *Builder) Layout() Layout {
	return b.layout
}

// Generate spatial codes and sort records for all lights.
func (b *Builder) GenerateKeys() (time.Duration, error) {
	if !b.prepared {
		return 0, ErrNotPrepared
	}
	if b.layout.Empty() {
		return 0, nil
	}

	elapsed, err := b.kernels[generateKeys].Exec1D(0, int(b.layout.LeafCount), localWorkSize)
	b.stats.KeysTime = elapsed
	if err != nil {
		return elapsed, fmt.Errorf("lighttree: %s failed: %w", generateKeys, err)
	}
	return elapsed, nil
}

// Sort the leaf records by spatial code. The device path reads the light
// count from the device counter written by GenerateKeys; the host path
// reads back the records, sorts them and writes them back.
func (b *Builder) SortKeys() (time.Duration, error) {
	if !b.prepared {
		return 0, ErrNotPrepared
	}
	if b.layout.Empty() {
		return 0, nil
	}

	opts := bitonic.Options{Descending: b.config.Descending}
	if b.config.HostSort {
		start := time.Now()
		if err := bitonic.HostSort(b.keys, b.layout.LightCount, opts); err != nil {
			return 0, fmt.Errorf("lighttree: host leaf sort failed: %w", err)
		}
		b.stats.SortTime = time.Since(start)
		return b.stats.SortTime, nil
	}

	sortStats, err := b.sorter.SortIndirect(b.keys, b.counter, 0, opts)
	b.stats.SortTime = sortStats.Elapsed
	b.stats.SortDispatches = sortStats.Dispatches
	if err != nil {
		return sortStats.Elapsed, fmt.Errorf("lighttree: leaf sort failed: %w", err)
	}
	return sortStats.Elapsed, nil
}

// Write the sorted leaves into the last tree level.
func (b *Builder) GenerateLeaves() (time.Duration, error) {
	if !b.prepared {
		return 0, ErrNotPrepared
	}
	if b.layout.Empty() {
		return 0, nil
	}

	elapsed, err := b.kernels[generateLeaves].Exec1D(0, int(b.layout.LeafCount), localWorkSize)
	b.stats.LeavesTime = elapsed
	if err != nil {
		return elapsed, fmt.Errorf("lighttree: %s failed: %w", generateLeaves, err)
	}
	b.leaves = true
	return elapsed, nil
}

// Build all internal tree levels bottom-up in budget-sized batches.
func (b *Builder) Construct() (time.Duration, error) {
	if !b.prepared {
		return 0, ErrNotPrepared
	}
	if b.layout.Empty() {
		return 0, nil
	}
	if !b.leaves {
		return 0, ErrStaleLeaves
	}

	var total time.Duration
	batches := b.scheduler.Schedule(b.layout)
	for _, batch := range batches {
		b.batch = batch
		elapsed, err := b.kernels[constructTree].Exec1D(batch.Start, batch.Size(), localWorkSize)
		total += elapsed
		b.stats.ConstructDispatches++
		if err != nil {
			return total, fmt.Errorf("lighttree: %s for levels %d-%d failed: %w", constructTree, batch.FirstLevel, batch.LastLevel, err)
		}
		b.logger.Debugf("constructed levels %d-%d (nodes %d-%d) from level %d in %d us", batch.FirstLevel, batch.LastLevel, batch.Start, batch.End, batch.SrcLevel, elapsed.Microseconds())
	}

	b.stats.ConstructTime = total
	return total, nil
}

// Get the hierarchy produced by the last build.
func (b *Builder) Hierarchy() *Hierarchy {
	if b.coder == nil {
		return &Hierarchy{nodes: b.nodes}
	}
	return &Hierarchy{
		Layout:    b.layout,
		Bounds:    b.coder.Bounds,
		CodeWidth: b.coder.Width(),
		nodes:     b.nodes,
	}
}

// Run all build stages for the given light buffer.
func (b *Builder) Build(lights *device.Buffer[scene.Light], lightCount uint32, bounds types.BBox) (*Hierarchy, error) {
	start := time.Now()

	if err := b.Prepare(lights, lightCount, bounds); err != nil {
		return nil, err
	}

	stages := []func() (time.Duration, error){
		b.GenerateKeys,
		b.SortKeys,
		b.GenerateLeaves,
		b.Construct,
	}
	for _, stage := range stages {
		if _, err := stage(); err != nil {
			return nil, err
		}
	}

	b.logger.Debugf(
		"light tree build time: %d ms, lights: %d, leafs: %d, levels: %d, construct dispatches: %d",
		time.Since(start).Nanoseconds()/1e6,
		b.layout.LightCount, b.layout.LeafCount, b.layout.LevelCount, b.stats.ConstructDispatches,
	)
	return b.Hierarchy(), nil
}
