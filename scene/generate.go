package scene

import (
	"math/rand/v2"

	"github.com/achilleasa/lightcuts/types"
)

// Generate n lights uniformly distributed inside bounds with power in
// (0, 1]. The same seed always produces the same set.
func Random(n int, bounds types.BBox, seed uint64) *LightSet {
	rng := rand.New(rand.NewPCG(seed, 0x5eed))
	extent := bounds.Extent()

	ls := &LightSet{Lights: make([]Light, n)}
	for i := range ls.Lights {
		ls.Lights[i] = Light{
			Position: types.XYZ(
				bounds.Min[0]+rng.Float32()*extent[0],
				bounds.Min[1]+rng.Float32()*extent[1],
				bounds.Min[2]+rng.Float32()*extent[2],
			),
			Power: 1 - rng.Float32(),
		}
	}
	return ls
}

// Generate a w x h grid of query points on the horizontal plane at height y
// spanning the x/z extent of bounds. Points are stored in row-major order
// with w set to 1 to mark a valid surface.
func QueryGrid(w, h int, bounds types.BBox, y float32) []types.Vec4 {
	points := make([]types.Vec4, w*h)
	extent := bounds.Extent()

	for row := 0; row < h; row++ {
		for col := 0; col < w; col++ {
			u := (float32(col) + 0.5) / float32(w)
			v := (float32(row) + 0.5) / float32(h)
			points[row*w+col] = types.XYZW(
				bounds.Min[0]+u*extent[0],
				y,
				bounds.Min[2]+v*extent[2],
				1,
			)
		}
	}
	return points
}
