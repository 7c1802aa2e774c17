package debug

import "time"

// FrameTimer measures frame deltas and reports frames per second once a
// second.
type FrameTimer struct {
	last     time.Time
	windowAt time.Time
	frames   int
	fps      int
}

// NewFrameTimer starts timing at now.
func NewFrameTimer(now time.Time) *FrameTimer {
	return &FrameTimer{last: now, windowAt: now}
}

// Tick marks a frame at now and returns the seconds since the previous
// one. report is true when a new FPS value is available.
func (t *FrameTimer) Tick(now time.Time) (dt float32, report bool) {
	dt = float32(now.Sub(t.last).Seconds())
	t.last = now
	t.frames++
	if now.Sub(t.windowAt) >= time.Second {
		t.fps = t.frames
		t.frames = 0
		t.windowAt = now
		report = true
	}
	return dt, report
}

// FPS returns the frame count of the last full second.
func (t *FrameTimer) FPS() int {
	return t.fps
}
