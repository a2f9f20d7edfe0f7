package renderer

import (
	"time"

	"github.com/achilleasa/lightcuts/device"
	"github.com/achilleasa/lightcuts/lightcut"
	"github.com/achilleasa/lightcuts/lighttree"
	"github.com/achilleasa/lightcuts/scene"
	"github.com/achilleasa/lightcuts/types"
)

// The SpatialCoder interface is implemented by stages that compute light
// spatial codes and sort records.
type SpatialCoder interface {
	GenerateKeys() (time.Duration, error)
}

// The KeySorter interface is implemented by stages that order the light
// sort records.
type KeySorter interface {
	SortKeys() (time.Duration, error)
}

// The HierarchyBuilder interface is implemented by light tree builders.
type HierarchyBuilder interface {
	Prepare(lights *device.Buffer[scene.Light], lightCount uint32, bounds types.BBox) error
	GenerateLeaves() (time.Duration, error)
	Construct() (time.Duration, error)
	Hierarchy() *lighttree.Hierarchy
}

// The CutSelector interface is implemented by per-pixel light selectors.
type CutSelector interface {
	Select(h *lighttree.Hierarchy, points *device.Buffer[types.Vec4], surface *lightcut.Surface, frame uint32) (time.Duration, error)
}

// Debug flags.
type DebugFlag uint16

const (
	Off DebugFlag = 0
	// Verify the tree invariants after construction.
	VerifyTree DebugFlag = 1 << iota
	// Log the per-level node ranges of the tree.
	DumpTreeLevels
)

// An alias for functions that can be used as part of the frame pipeline.
type PipelineStage func(r *Renderer) (time.Duration, error)

// A named pipeline stage.
type Stage struct {
	Name string
	Run  PipelineStage
}

// The ordered list of stages that are used to produce a frame.
type Pipeline struct {
	Stages []Stage
}

// Build the default pipeline: keys, sort, leaves, construction and cut
// selection followed by any requested debug stages.
func DefaultPipeline(debugFlags DebugFlag) *Pipeline {
	pipeline := &Pipeline{
		Stages: []Stage{
			{"generate keys", GenerateKeys()},
			{"sort keys", SortKeys()},
			{"generate leaves", GenerateLeaves()},
			{"construct tree", ConstructTree()},
			{"find lightcuts", FindLightcuts()},
		},
	}

	if debugFlags&VerifyTree == VerifyTree {
		pipeline.Stages = append(pipeline.Stages, Stage{"verify tree", VerifyHierarchy()})
	}
	if debugFlags&DumpTreeLevels == DumpTreeLevels {
		pipeline.Stages = append(pipeline.Stages, Stage{"dump tree levels", LogTreeLevels()})
	}

	return pipeline
}

// Compute light spatial codes.
func GenerateKeys() PipelineStage {
	return func(r *Renderer) (time.Duration, error) {
		return r.coder.GenerateKeys()
	}
}

// Sort the light records by spatial code.
func SortKeys() PipelineStage {
	return func(r *Renderer) (time.Duration, error) {
		return r.sorter.SortKeys()
	}
}

// Write the sorted tree leaves.
func GenerateLeaves() PipelineStage {
	return func(r *Renderer) (time.Duration, error) {
		return r.builder.GenerateLeaves()
	}
}

// Build the internal tree levels.
func ConstructTree() PipelineStage {
	return func(r *Renderer) (time.Duration, error) {
		elapsed, err := r.builder.Construct()
		if err == nil {
			r.hierarchy = r.builder.Hierarchy()
		}
		return elapsed, err
	}
}

// Select lights for every pixel.
func FindLightcuts() PipelineStage {
	return func(r *Renderer) (time.Duration, error) {
		if r.hierarchy == nil {
			return 0, ErrTreeNotBuilt
		}
		return r.selector.Select(r.hierarchy, r.resources.Points, r.resources.Surface, r.frameIndex)
	}
}

// Read back the tree and check its invariants.
func VerifyHierarchy() PipelineStage {
	return func(r *Renderer) (time.Duration, error) {
		if r.hierarchy == nil {
			return 0, ErrTreeNotBuilt
		}

		start := time.Now()
		nodes, err := r.hierarchy.Nodes()
		if err != nil {
			return time.Since(start), err
		}
		return time.Since(start), lighttree.Verify(nodes, r.hierarchy.Layout)
	}
}

// Log the node range and real node count of every tree level.
func LogTreeLevels() PipelineStage {
	return func(r *Renderer) (time.Duration, error) {
		if r.hierarchy == nil {
			return 0, ErrTreeNotBuilt
		}

		start := time.Now()
		nodes, err := r.hierarchy.Nodes()
		if err != nil {
			return time.Since(start), err
		}

		for _, level := range r.hierarchy.Levels() {
			realNodes := 0
			for i := level.Start; i < level.End; i++ {
				if !nodes[i].IsBogus() {
					realNodes++
				}
			}
			r.logger.Infof("tree level %d: nodes [%d, %d), %d real", level.Level, level.Start, level.End, realNodes)
		}
		return time.Since(start), nil
	}
}
