package scene

import (
	"time"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// EnterDuration is how long an entering flow takes to fade in.
const EnterDuration = 750 * time.Millisecond

// FadeIn samples an eased opacity ramp from 0 to 1 over d. It returns
// steps+1 keyframes, the first 0 and the last 1. A non-positive duration
// gives a single keyframe of 1.
func FadeIn(d time.Duration, steps int) []float64 {
	secs := float32(d.Seconds())
	if secs <= 0 {
		return []float64{1}
	}
	if steps < 1 {
		steps = 1
	}
	tw := gween.New(0, 1, secs, ease.OutCubic)
	dt := secs / float32(steps)

	frames := make([]float64, 0, steps+1)
	frames = append(frames, 0)
	for i := 0; i < steps; i++ {
		v, _ := tw.Update(dt)
		frames = append(frames, float64(v))
	}
	frames[steps] = 1
	return frames
}
