package lightcut

import (
	"github.com/achilleasa/lightcuts/lighttree"
	"github.com/achilleasa/lightcuts/types"
)

// Inverse square geometry term clamped by the min distance.
func geometry(distSq, minDistSq float32) float32 {
	return 1 / max(distSq, minDistSq)
}

// Upper bound of the error introduced by representing node with a single
// light when shading p: the node power times the spread of the geometry
// term over the node bounds.
func errorBound(node *lighttree.Node, p types.Vec3, minDistSq float32) float32 {
	box := node.BBox()
	gMax := geometry(box.DistanceSq(p), minDistSq)
	gMin := geometry(box.FarDistanceSq(p), minDistSq)
	return node.Power * (gMax - gMin)
}

// Contribution estimate of node at p using its box centre.
func estimate(node *lighttree.Node, p types.Vec3, minDistSq float32) float32 {
	return node.Power * geometry(node.BBox().Center().Sub(p).LenSq(), minDistSq)
}
