package morton

import (
	"fmt"

	"github.com/achilleasa/lightcuts/types"
)

const (
	// Default number of bits per axis.
	DefaultBits = 10

	// Default number of quantization levels per axis.
	QuantLevels = 1 << DefaultBits

	// Max bits per axis; 3 interleaved axes must fit a 30-bit key field.
	MaxBits = 10
)

// A Coder maps positions inside a bounding volume to interleaved spatial
// codes in [0, 2^(3*Bits)) and back.
type Coder struct {
	Bits   uint
	Bounds types.BBox

	levels   uint32
	cellSize types.Vec3
	invCell  types.Vec3
}

// Create a coder that quantizes each axis of bounds to bits bits.
func NewCoder(bits uint, bounds types.BBox) (*Coder, error) {
	if bits < 1 || bits > MaxBits {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidBits, bits)
	}

	c := &Coder{
		Bits:   bits,
		Bounds: bounds,
		levels: 1 << bits,
	}

	extent := bounds.Extent()
	for axis := 0; axis < 3; axis++ {
		c.cellSize[axis] = extent[axis] / float32(c.levels)
		if extent[axis] > 0 {
			c.invCell[axis] = float32(c.levels) / extent[axis]
		}
	}

	return c, nil
}

// Code width in bits.
func (c *Coder) Width() uint {
	return 3 * c.Bits
}

// Number of distinct codes.
func (c *Coder) CodeCount() uint32 {
	return 1 << c.Width()
}

// Quantize a position to its per-axis cell coordinates. Positions outside the
// bounds are clamped to the border cells.
func (c *Coder) Quantize(p types.Vec3) (q [3]uint32) {
	for axis := 0; axis < 3; axis++ {
		f := (p[axis] - c.Bounds.Min[axis]) * c.invCell[axis]
		switch {
		case !(f > 0):
			q[axis] = 0
		case f >= float32(c.levels):
			q[axis] = c.levels - 1
		default:
			q[axis] = uint32(f)
		}
	}
	return q
}

// Encode a position.
func (c *Coder) Encode(p types.Vec3) uint32 {
	q := c.Quantize(p)
	return Interleave3(q[0], q[1], q[2])
}

// Return the per-axis cell coordinates of a code.
func (c *Coder) Cell(code uint32) [3]uint32 {
	x, y, z := Deinterleave3(code & widthMask(c.Width()))
	return [3]uint32{x, y, z}
}

// Return the minimum corner of the cell addressed by code.
func (c *Coder) DecodePoint(code uint32) types.Vec3 {
	return c.cellCorner(c.Cell(code))
}

// Return the box covered by the cell addressed by code.
func (c *Coder) DecodeCell(code uint32) types.BBox {
	q := c.Cell(code)
	return types.BBox{
		Min: c.cellCorner(q),
		Max: c.cellCorner([3]uint32{q[0] + 1, q[1] + 1, q[2] + 1}),
	}
}

// Return the centre of the cell addressed by code.
func (c *Coder) DecodeCenter(code uint32) types.Vec3 {
	return c.DecodeCell(code).Center()
}

// Return the box covered by all codes that share the first prefixLen bits of
// code. A zero prefix covers the whole bound.
func (c *Coder) PrefixBox(code uint32, prefixLen uint) (types.BBox, error) {
	width := c.Width()
	if prefixLen > width {
		return types.BBox{}, fmt.Errorf("%w: %d > %d", ErrInvalidPrefix, prefixLen, width)
	}

	free := width - prefixLen
	lowMask := widthMask(free)
	minCode := code & widthMask(width) &^ lowMask
	maxCode := minCode | lowMask

	return c.DecodeCell(minCode).Union(c.DecodeCell(maxCode)), nil
}

func (c *Coder) cellCorner(q [3]uint32) types.Vec3 {
	var p types.Vec3
	for axis := 0; axis < 3; axis++ {
		p[axis] = c.Bounds.Min[axis] + float32(q[axis])*c.cellSize[axis]
	}
	return p
}
