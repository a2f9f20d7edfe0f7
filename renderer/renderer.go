package renderer

import (
	"context"
	"fmt"
	"time"

	"github.com/achilleasa/lightcuts/device"
	"github.com/achilleasa/lightcuts/lightcut"
	"github.com/achilleasa/lightcuts/lighttree"
	"github.com/achilleasa/lightcuts/log"
	"github.com/achilleasa/lightcuts/scene"
	"github.com/achilleasa/lightcuts/types"
)

// The per-frame input.
type FrameInput struct {
	Lights *scene.LightSet

	// One query point per pixel in row-major order; w == 0 marks pixels
	// without a surface.
	Points []types.Vec4
}

// The result of a frame. The surface and hierarchy are overwritten by the
// next frame.
type FrameOutput struct {
	Frame     uint32
	Hierarchy *lighttree.Hierarchy
	Surface   *lightcut.Surface
}

// Read back the selection surface.
func (out *FrameOutput) Read() (*lightcut.Frame, error) {
	return out.Surface.Read()
}

// Renderer drives the frame pipeline on a device.
type Renderer struct {
	logger log.Logger

	device    *device.Device
	options   Options
	pipeline  *Pipeline
	resources *Resources

	coder    SpatialCoder
	sorter   KeySorter
	builder  HierarchyBuilder
	selector CutSelector

	treeBuilder *lighttree.Builder
	cutSelector *lightcut.Selector

	hierarchy  *lighttree.Hierarchy
	frameIndex uint32
	stats      FrameStats
}

// Create a new renderer. The device is initialized if needed.
func New(dev *device.Device, pipeline *Pipeline, opts Options) (*Renderer, error) {
	if err := dev.Init(); err != nil {
		return nil, err
	}

	treeBuilder, err := lighttree.NewBuilder(dev, opts.TreeConfig())
	if err != nil {
		return nil, err
	}

	cutSelector, err := lightcut.NewSelector(dev, opts.CutConfig())
	if err != nil {
		treeBuilder.Close()
		return nil, err
	}

	r := &Renderer{
		logger:      log.New("renderer"),
		device:      dev,
		options:     opts,
		pipeline:    pipeline,
		resources:   NewResources(dev, opts.BufferPolicy),
		coder:       treeBuilder,
		sorter:      treeBuilder,
		builder:     treeBuilder,
		selector:    cutSelector,
		treeBuilder: treeBuilder,
		cutSelector: cutSelector,
	}

	return r, nil
}

// Shutdown renderer and release its resources.
func (r *Renderer) Close() {
	if r.cutSelector != nil {
		r.cutSelector.Close()
		r.cutSelector = nil
	}
	if r.treeBuilder != nil {
		r.treeBuilder.Close()
		r.treeBuilder = nil
	}
	if r.resources != nil {
		r.resources.Release()
		r.resources = nil
	}
}

// Get render statistics for the last frame.
func (r *Renderer) Stats() FrameStats {
	return r.stats
}

// Get the shared resources.
func (r *Renderer) Resources() *Resources {
	return r.resources
}

// Render a frame. The context is checked between stages; a cancelled frame
// returns ErrInterrupted and no output.
func (r *Renderer) Render(ctx context.Context, in FrameInput) (*FrameOutput, error) {
	if in.Lights == nil {
		return nil, ErrNoLightSet
	}

	start := time.Now()
	dispatches := r.device.Dispatches()

	err := r.resources.Upload(in.Lights, in.Points, int(r.options.FrameW), int(r.options.FrameH), int(r.options.SamplesPerPixel))
	if err != nil {
		return nil, err
	}
	if err = r.builder.Prepare(r.resources.Lights, r.resources.LightCount, r.resources.Bounds); err != nil {
		return nil, err
	}
	r.hierarchy = nil

	stats := FrameStats{
		Frame:  r.frameIndex,
		Stages: make([]StageStat, 0, len(r.pipeline.Stages)),
	}
	for _, stage := range r.pipeline.Stages {
		if err = ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInterrupted, err)
		}

		elapsed, err := stage.Run(r)
		if err != nil {
			return nil, fmt.Errorf("renderer: stage %q failed: %w", stage.Name, err)
		}
		stats.Stages = append(stats.Stages, StageStat{Name: stage.Name, Time: elapsed})
	}

	stats.RenderTime = time.Since(start)
	for i := range stats.Stages {
		if stats.RenderTime > 0 {
			stats.Stages[i].FramePercent = 100 * float32(stats.Stages[i].Time) / float32(stats.RenderTime)
		}
	}
	if r.hierarchy != nil {
		layout := r.hierarchy.Layout
		stats.LightCount, stats.LeafCount = layout.LightCount, layout.LeafCount
		stats.LevelCount, stats.NodeCount = layout.LevelCount, layout.NodeCount
	}
	stats.Dispatches = r.device.Dispatches() - dispatches
	r.stats = stats

	r.logger.Infof("frame %d: %d lights, %d dispatches in %d ms", r.frameIndex, stats.LightCount, stats.Dispatches, stats.RenderTime.Nanoseconds()/1e6)

	out := &FrameOutput{
		Frame:     r.frameIndex,
		Hierarchy: r.hierarchy,
		Surface:   r.resources.Surface,
	}
	r.frameIndex++
	return out, nil
}
