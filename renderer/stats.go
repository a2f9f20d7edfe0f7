package renderer

import "time"

type StageStat struct {
	// The stage name.
	Name string

	// Time spent in stage dispatches.
	Time time.Duration

	// The percentage of total frame time spent in the stage.
	FramePercent float32
}

type FrameStats struct {
	// Frame counter.
	Frame uint32

	// Individual stage stats in execution order.
	Stages []StageStat

	// Tree shape.
	LightCount uint32
	LeafCount  uint32
	LevelCount int
	NodeCount  int

	// Dispatches issued by the device during the frame.
	Dispatches uint64

	// Total render time for entire frame.
	RenderTime time.Duration
}
