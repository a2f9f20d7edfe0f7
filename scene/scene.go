package scene

import (
	"fmt"
	"math"

	"github.com/achilleasa/lightcuts/types"
	"gonum.org/v1/gonum/floats"
)

// A point light as consumed by the light hierarchy builder.
type Light struct {
	Position types.Vec3
	Power    float32
}

// The set of lights for a frame. Lights are addressed by their index in
// the set.
type LightSet struct {
	Lights []Light
}

func NewLightSet() *LightSet {
	return &LightSet{
		Lights: make([]Light, 0),
	}
}

// Add a light to the set.
func (ls *LightSet) Add(light Light) error {
	if light.Power < 0 || math.IsNaN(float64(light.Power)) || math.IsInf(float64(light.Power), 0) {
		return fmt.Errorf("scene: invalid light power %v", light.Power)
	}
	for axis := 0; axis < 3; axis++ {
		if c := float64(light.Position[axis]); math.IsNaN(c) || math.IsInf(c, 0) {
			return fmt.Errorf("scene: invalid light position %v", light.Position)
		}
	}

	ls.Lights = append(ls.Lights, light)
	return nil
}

// Number of lights in the set.
func (ls *LightSet) Len() int {
	return len(ls.Lights)
}

// Return a cubic bound that encloses all light positions. The cube is
// anchored at the min corner of the tight bound and its side equals the
// largest extent. An empty set yields an empty box.
func (ls *LightSet) Bounds() types.BBox {
	bounds := types.EmptyBBox()
	for _, light := range ls.Lights {
		bounds = bounds.Extend(light.Position)
	}
	if bounds.IsEmpty() {
		return bounds
	}
	return bounds.Cubic()
}

// Per-light power.
func (ls *LightSet) Powers() []float64 {
	powers := make([]float64, len(ls.Lights))
	for i, light := range ls.Lights {
		powers[i] = float64(light.Power)
	}
	return powers
}

// Sum of light power.
func (ls *LightSet) TotalPower() float32 {
	return float32(floats.Sum(ls.Powers()))
}
