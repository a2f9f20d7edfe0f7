package lightcut

import (
	"fmt"
	"math"
	"time"

	"github.com/achilleasa/lightcuts/device"
	"github.com/achilleasa/lightcuts/lighttree"
	"github.com/achilleasa/lightcuts/log"
	"github.com/achilleasa/lightcuts/types"
)

// Lower bound for the squared min light distance so that degenerate scene
// bounds never produce an infinite geometry term.
const minDistSqFloor = 1e-12

// Selector configuration.
type Config struct {
	// A cut node is accepted when its error bound is at most ErrorLimit
	// times the estimate of the whole cut. +Inf accepts the root.
	ErrorLimit float32

	// Light samples per pixel; also the max cut size.
	SamplesPerPixel int

	// Seed for the per-sample random streams.
	Seed uint64

	// Min light distance as a fraction of the scene radius. Keeps the
	// geometry term bounded for points close to a light.
	MinDistanceRatio float32
}

// Default selector configuration.
func DefaultConfig() Config {
	return Config{
		ErrorLimit:       0.001,
		SamplesPerPixel:  1,
		MinDistanceRatio: 1.0 / 1024,
	}
}

func (c Config) validate() error {
	if c.SamplesPerPixel < 1 {
		return fmt.Errorf("%w: samples per pixel must be >= 1; got %d", ErrInvalidConfig, c.SamplesPerPixel)
	}
	if c.SamplesPerPixel >= 1<<slotBits {
		return fmt.Errorf("%w: samples per pixel must be < %d; got %d", ErrInvalidConfig, 1<<slotBits, c.SamplesPerPixel)
	}
	if !(c.ErrorLimit >= 0) {
		return fmt.Errorf("%w: error limit must be >= 0; got %v", ErrInvalidConfig, c.ErrorLimit)
	}
	if !(c.MinDistanceRatio >= 0) || math.IsInf(float64(c.MinDistanceRatio), 0) {
		return fmt.Errorf("%w: min distance ratio must be finite and >= 0; got %v", ErrInvalidConfig, c.MinDistanceRatio)
	}
	return nil
}

// An entry of a pixel light cut.
type cutNode struct {
	index    int
	bound    float32
	estimate float32
}

// Selects lights for every pixel of a surface by building an error bounded
// light cut and drawing one light per sample slot from the cut. A Selector
// is not safe for concurrent use.
type Selector struct {
	logger log.Logger
	device *device.Device
	config Config
	kernel *device.Kernel

	// Per-dispatch bindings.
	hierarchy *lighttree.Hierarchy
	points    *device.Buffer[types.Vec4]
	surface   *Surface
	frame     uint32
	minDistSq float32
}

// Create a new selector.
func NewSelector(dev *device.Device, config Config) (*Selector, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}

	s := &Selector{
		logger: log.New("lightcut"),
		device: dev,
		config: config,
	}
	s.kernel = dev.Kernel("findLightcuts", s.findLightcutsKernel)
	return s, nil
}

// Get selector config.
func (s *Selector) Config() Config {
	return s.config
}

// Release selector resources.
func (s *Selector) Close() {
	s.kernel.Release()
}

// Select lights for all pixels of surface. points holds one query point
// per pixel in row-major order; points with w == 0 have no surface and
// receive empty selections. An empty hierarchy produces empty selections
// for every pixel.
func (s *Selector) Select(h *lighttree.Hierarchy, points *device.Buffer[types.Vec4], surface *Surface, frame uint32) (time.Duration, error) {
	if surface.SamplesPerPixel != s.config.SamplesPerPixel {
		return 0, fmt.Errorf("%w: surface has %d samples per pixel; selector uses %d", ErrSurfaceMismatch, surface.SamplesPerPixel, s.config.SamplesPerPixel)
	}
	if points.Len() < surface.Pixels() {
		return 0, fmt.Errorf("%w: %d points for %dx%d pixels", ErrQueryPointsTooFew, points.Len(), surface.Width, surface.Height)
	}
	if surface.Pixels() == 0 {
		return 0, nil
	}

	s.hierarchy = h
	s.points = points
	s.surface = surface
	s.frame = frame
	minDist := h.Bounds.Radius() * s.config.MinDistanceRatio
	s.minDistSq = max(minDist*minDist, minDistSqFloor)

	elapsed, err := s.kernel.Exec2D(0, 0, surface.Width, surface.Height, 0, 0)
	if err != nil {
		return elapsed, fmt.Errorf("lightcut: %s failed: %w", s.kernel.Name(), err)
	}

	s.logger.Debugf("selected %d lights per pixel for %dx%d pixels in %d ms", s.config.SamplesPerPixel, surface.Width, surface.Height, elapsed.Nanoseconds()/1e6)
	return elapsed, nil
}

func (s *Selector) findLightcutsKernel(g device.WorkGroup) {
	spp := s.config.SamplesPerPixel
	width := s.surface.Width
	points := s.points.Data()
	selections := s.surface.Selections.Data()
	cutSizes := s.surface.CutSizes.Data()

	var (
		nodes  []lighttree.Node
		layout = s.hierarchy.Layout
		cut    = make([]cutNode, 0, spp)
		rng    sampleRNG
	)
	if !s.hierarchy.Empty() {
		nodes = s.hierarchy.Buffer().Data()
	}

	g.Items2D(func(x, y int) {
		pixel := y*width + x
		out := selections[pixel*spp : (pixel+1)*spp]
		query := points[pixel]

		if nodes == nil || query[3] == 0 {
			for slot := range out {
				out[slot] = noSelection.Pack()
			}
			cutSizes[pixel] = 0
			return
		}

		p := query.Vec3()
		cut = s.buildCut(cut[:0], nodes, layout, p)
		cutSizes[pixel] = uint32(len(cut))

		for slot := range out {
			rng.reset(s.config.Seed, s.frame, pixel, slot)
			out[slot] = sampleSubtree(nodes, layout, cut[slot%len(cut)].index, &rng).Pack()
		}
	})
}

// Grow the cut from the root by repeatedly splitting the node with the
// largest error bound until the cut reaches the sample count or the largest
// bound is acceptable.
func (s *Selector) buildCut(cut []cutNode, nodes []lighttree.Node, layout lighttree.Layout, p types.Vec3) []cutNode {
	cut = append(cut, s.makeCutNode(nodes, layout, 0, p))
	total := cut[0].estimate

	for len(cut) < s.config.SamplesPerPixel {
		worst := 0
		for i := 1; i < len(cut); i++ {
			if cut[i].bound > cut[worst].bound {
				worst = i
			}
		}

		node := cut[worst]
		if layout.IsLeaf(node.index) || node.bound == 0 || node.bound <= s.config.ErrorLimit*total {
			break
		}

		total -= node.estimate
		left, right := lighttree.Children(node.index)
		replaced := false
		for _, child := range [2]int{left, right} {
			if nodes[child].IsBogus() {
				continue
			}
			entry := s.makeCutNode(nodes, layout, child, p)
			total += entry.estimate
			if !replaced {
				cut[worst] = entry
				replaced = true
			} else {
				cut = append(cut, entry)
			}
		}
	}

	return cut
}

func (s *Selector) makeCutNode(nodes []lighttree.Node, layout lighttree.Layout, index int, p types.Vec3) cutNode {
	node := &nodes[index]
	entry := cutNode{
		index:    index,
		estimate: estimate(node, p, s.minDistSq),
	}
	if !layout.IsLeaf(index) {
		entry.bound = errorBound(node, p, s.minDistSq)
	}
	return entry
}

// Descend from node to a real leaf choosing children with probability
// proportional to their power. Bogus children are never chosen and a pair
// of zero power children is split evenly.
func sampleSubtree(nodes []lighttree.Node, layout lighttree.Layout, index int, rng *sampleRNG) Selection {
	pdf := float32(1)
	for !layout.IsLeaf(index) {
		left, right := lighttree.Children(index)
		l, r := &nodes[left], &nodes[right]

		var pLeft float32
		switch {
		case l.IsBogus():
			pLeft = 0
		case r.IsBogus():
			pLeft = 1
		case l.Power+r.Power > 0:
			pLeft = l.Power / (l.Power + r.Power)
		default:
			pLeft = 0.5
		}

		if rng.float32() < pLeft {
			index = left
			pdf *= pLeft
		} else {
			index = right
			pdf *= 1 - pLeft
		}
	}

	if nodes[index].IsBogus() {
		return noSelection
	}
	return Selection{Light: nodes[index].Light, Pdf: pdf}
}
