package renderer

import (
	"fmt"

	"github.com/achilleasa/lightcuts/device"
	"github.com/achilleasa/lightcuts/lightcut"
	"github.com/achilleasa/lightcuts/scene"
	"github.com/achilleasa/lightcuts/types"
)

// Resources owns the device buffers shared between pipeline stages: the
// per-frame light set and query points and the selection surface.
type Resources struct {
	Device *device.Device

	Lights  *device.Buffer[scene.Light]
	Points  *device.Buffer[types.Vec4]
	Surface *lightcut.Surface

	// Logical light count and coding bounds of the uploaded light set.
	LightCount uint32
	Bounds     types.BBox

	policy device.AllocPolicy
}

// Create the shared resources for a device.
func NewResources(dev *device.Device, policy device.AllocPolicy) *Resources {
	return &Resources{
		Device:  dev,
		Lights:  device.NewBuffer[scene.Light](dev, "renderer.lights"),
		Points:  device.NewBuffer[types.Vec4](dev, "renderer.queryPoints"),
		Surface: lightcut.NewSurface(dev),
		policy:  policy,
	}
}

// Upload the light set and query points for a frame and resize the surface.
func (r *Resources) Upload(lights *scene.LightSet, points []types.Vec4, frameW, frameH, samplesPerPixel int) error {
	if len(points) != frameW*frameH {
		return fmt.Errorf("%w: %d points for %dx%d frame", ErrFrameSizeMismatch, len(points), frameW, frameH)
	}

	if _, err := r.Lights.Ensure(lights.Len(), r.policy); err != nil {
		return err
	}
	if err := r.Lights.WriteData(lights.Lights, 0); err != nil {
		return err
	}

	if _, err := r.Points.Ensure(len(points), r.policy); err != nil {
		return err
	}
	if err := r.Points.WriteData(points, 0); err != nil {
		return err
	}

	if err := r.Surface.Resize(frameW, frameH, samplesPerPixel, r.policy); err != nil {
		return err
	}

	r.LightCount = uint32(lights.Len())
	r.Bounds = lights.Bounds()
	return nil
}

// Release all buffers.
func (r *Resources) Release() {
	r.Lights.Release()
	r.Points.Release()
	r.Surface.Release()
}
