package types

import "math"

// An axis-aligned bounding box. An empty box has Min > Max on every axis so
// that it acts as the identity element for Union.
type BBox struct {
	Min Vec3
	Max Vec3
}

// Create an empty bounding box.
func EmptyBBox() BBox {
	return BBox{
		Min: Vec3{math.MaxFloat32, math.MaxFloat32, math.MaxFloat32},
		Max: Vec3{-math.MaxFloat32, -math.MaxFloat32, -math.MaxFloat32},
	}
}

// Create a degenerate box containing a single point.
func PointBBox(p Vec3) BBox {
	return BBox{Min: p, Max: p}
}

// Returns true if the box contains no points.
func (b BBox) IsEmpty() bool {
	return b.Min[0] > b.Max[0] || b.Min[1] > b.Max[1] || b.Min[2] > b.Max[2]
}

// Merge two boxes.
func (b BBox) Union(b2 BBox) BBox {
	return BBox{Min: MinVec3(b.Min, b2.Min), Max: MaxVec3(b.Max, b2.Max)}
}

// Grow the box to include a point.
func (b BBox) Extend(p Vec3) BBox {
	return BBox{Min: MinVec3(b.Min, p), Max: MaxVec3(b.Max, p)}
}

// Box side lengths; zero for empty boxes.
func (b BBox) Extent() Vec3 {
	if b.IsEmpty() {
		return Vec3{}
	}
	return b.Max.Sub(b.Min)
}

// Box centre.
func (b BBox) Center() Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Half the length of the box diagonal.
func (b BBox) Radius() float32 {
	return b.Extent().Len() * 0.5
}

// Check whether p lies inside the box (boundary included).
func (b BBox) Contains(p Vec3) bool {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] || p[i] > b.Max[i] {
			return false
		}
	}
	return true
}

// Return a cube anchored at Min whose side equals the largest extent of b.
// Spatial codes quantize every axis with the same number of levels so a cubic
// bound keeps the coded cells isotropic.
func (b BBox) Cubic() BBox {
	side := b.Extent().MaxComponent()
	return BBox{Min: b.Min, Max: b.Min.Add(Vec3{side, side, side})}
}

// Squared distance from p to the nearest point of the box; zero if p is inside.
func (b BBox) DistanceSq(p Vec3) float32 {
	var d float32
	for i := 0; i < 3; i++ {
		var delta float32
		if p[i] < b.Min[i] {
			delta = b.Min[i] - p[i]
		} else if p[i] > b.Max[i] {
			delta = p[i] - b.Max[i]
		}
		d += delta * delta
	}
	return d
}

// Squared distance from p to the farthest corner of the box.
func (b BBox) FarDistanceSq(p Vec3) float32 {
	var d float32
	for i := 0; i < 3; i++ {
		delta := max(float32(math.Abs(float64(p[i]-b.Min[i]))), float32(math.Abs(float64(p[i]-b.Max[i]))))
		d += delta * delta
	}
	return d
}
