package lightcut

import (
	"fmt"

	"github.com/achilleasa/lightcuts/device"
)

// The per-pixel selection output. Each pixel owns SamplesPerPixel
// consecutive packed selections and one cut size entry.
type Surface struct {
	Width           int
	Height          int
	SamplesPerPixel int

	Selections *device.Buffer[uint64]
	CutSizes   *device.Buffer[uint32]
}

// Create an unallocated surface.
func NewSurface(dev *device.Device) *Surface {
	return &Surface{
		Selections: device.NewBuffer[uint64](dev, "lightcut.selections"),
		CutSizes:   device.NewBuffer[uint32](dev, "lightcut.cutSizes"),
	}
}

// Resize the surface. Buffer contents are not preserved when a buffer is
// reallocated.
func (s *Surface) Resize(width, height, samplesPerPixel int, policy device.AllocPolicy) error {
	if width < 0 || height < 0 || samplesPerPixel < 1 {
		return fmt.Errorf("lightcut: invalid surface dimensions %dx%d with %d samples per pixel", width, height, samplesPerPixel)
	}

	if _, err := s.Selections.Ensure(width*height*samplesPerPixel, policy); err != nil {
		return err
	}
	if _, err := s.CutSizes.Ensure(width*height, policy); err != nil {
		return err
	}

	s.Width, s.Height, s.SamplesPerPixel = width, height, samplesPerPixel
	return nil
}

// Number of pixels.
func (s *Surface) Pixels() int {
	return s.Width * s.Height
}

// Read back the surface contents.
func (s *Surface) Read() (*Frame, error) {
	frame := &Frame{
		Width:           s.Width,
		Height:          s.Height,
		SamplesPerPixel: s.SamplesPerPixel,
		Selections:      make([]Selection, s.Pixels()*s.SamplesPerPixel),
		CutSizes:        make([]uint32, s.Pixels()),
	}
	if s.Pixels() == 0 {
		return frame, nil
	}

	packed := make([]uint64, len(frame.Selections))
	if err := s.Selections.ReadData(0, 0, len(packed), packed); err != nil {
		return nil, err
	}
	for i, v := range packed {
		frame.Selections[i] = UnpackSelection(v)
	}

	if err := s.CutSizes.ReadData(0, 0, len(frame.CutSizes), frame.CutSizes); err != nil {
		return nil, err
	}
	return frame, nil
}

// Release surface buffers.
func (s *Surface) Release() {
	s.Selections.Release()
	s.CutSizes.Release()
}

// A host copy of a surface.
type Frame struct {
	Width           int
	Height          int
	SamplesPerPixel int

	Selections []Selection
	CutSizes   []uint32
}

// Get the selection for a pixel sample slot.
func (f *Frame) At(x, y, slot int) Selection {
	return f.Selections[(y*f.Width+x)*f.SamplesPerPixel+slot]
}

// Get the cut size of a pixel.
func (f *Frame) CutSize(x, y int) int {
	return int(f.CutSizes[y*f.Width+x])
}

// Get the weight of a pixel sample slot.
func (f *Frame) SlotWeight(x, y, slot int) float32 {
	return SlotWeight(slot, f.CutSize(x, y), f.SamplesPerPixel)
}
