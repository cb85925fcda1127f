// Package waveform implements the interaction logic of the zoomable
// waveform timeline: pixel/time mapping, wheel zoom anchored under the
// pointer, cue-edge hit-testing, and the drag-to-resize state machine.
// It produces render instructions but does no drawing itself, so any
// rendering layer can sit on top.
package waveform

const (
	// MinZoom and MaxZoom bound the multiplicative zoom level. The upper
	// bound is fixed at 1000: one part in a thousand of the sample axis
	// is the narrowest useful window.
	MinZoom = 1.0
	MaxZoom = 1000.0

	// ZoomInFactor and ZoomOutFactor are applied per wheel notch.
	ZoomInFactor  = 1.1
	ZoomOutFactor = 0.9

	// edgePixels is the hit tolerance around a cue edge, converted to a
	// time tolerance at the current zoom before comparing.
	edgePixels = 8.0
)

// Viewport maps between canvas pixels, waveform samples, and media time
// for the currently visible zoom window.
type Viewport struct {
	TotalSamples int
	Duration     float64
	CanvasWidth  float64
	ZoomLevel    float64
	ZoomCenter   float64
}

func NewViewport(totalSamples int, duration, canvasWidth float64) Viewport {
	return Viewport{
		TotalSamples: totalSamples,
		Duration:     duration,
		CanvasWidth:  canvasWidth,
		ZoomLevel:    MinZoom,
		ZoomCenter:   0,
	}
}

// SampleWindow returns the half-open visible sample range implied by the
// current zoom level and center.
func (v Viewport) SampleWindow() (start, end int) {
	visible := int(float64(v.TotalSamples) / v.ZoomLevel)
	start = int(float64(v.TotalSamples-visible) * v.ZoomCenter)
	end = start + visible
	if end > v.TotalSamples {
		end = v.TotalSamples
	}
	return start, end
}

// VisibleTimeRange returns the start and duration, in seconds, of the
// proportional slice of media time covered by the visible sample window.
func (v Viewport) VisibleTimeRange() (start, duration float64) {
	s, e := v.SampleWindow()
	total := float64(v.TotalSamples)
	if total == 0 {
		return 0, 0
	}
	start = float64(s) / total * v.Duration
	duration = float64(e-s) / total * v.Duration
	return start, duration
}

// TimeAtX converts a canvas x-coordinate to media time.
func (v Viewport) TimeAtX(x float64) float64 {
	start, dur := v.VisibleTimeRange()
	if v.CanvasWidth == 0 {
		return start
	}
	return start + x/v.CanvasWidth*dur
}

// XAtTime converts media time to a canvas x-coordinate. Times outside
// the visible range land outside [0, CanvasWidth].
func (v Viewport) XAtTime(t float64) float64 {
	start, dur := v.VisibleTimeRange()
	if dur == 0 {
		return 0
	}
	return (t - start) / dur * v.CanvasWidth
}

// EdgeThreshold is the edge hit tolerance expressed in seconds at the
// current zoom.
func (v Viewport) EdgeThreshold() float64 {
	if v.CanvasWidth == 0 {
		return 0
	}
	_, dur := v.VisibleTimeRange()
	return dur / v.CanvasWidth * edgePixels
}

// ZoomAt applies a multiplicative zoom factor and recomputes the center
// so the absolute sample under the pointer at x stays put.
func (v *Viewport) ZoomAt(x, factor float64) {
	oldZoom := v.ZoomLevel
	newZoom := clamp(oldZoom*factor, MinZoom, MaxZoom)
	if newZoom == oldZoom {
		return
	}

	total := float64(v.TotalSamples)
	frac := 0.0
	if v.CanvasWidth > 0 {
		frac = x / v.CanvasWidth
	}

	// Solve for the new center that keeps the same absolute sample under
	// the pointer. Computed in float to avoid accumulating floor error.
	visibleOld := total / oldZoom
	startOld := (total - visibleOld) * v.ZoomCenter
	anchor := startOld + frac*visibleOld

	visibleNew := total / newZoom
	startNew := anchor - frac*visibleNew

	v.ZoomLevel = newZoom
	if total-visibleNew <= 0 {
		v.ZoomCenter = 0
	} else {
		v.ZoomCenter = clamp(startNew/(total-visibleNew), 0, 1)
	}
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
