package waveform

import (
	"math"
	"testing"
)

func TestSampleWindow(t *testing.T) {
	tests := []struct {
		name      string
		zoom      float64
		center    float64
		wantStart int
		wantEnd   int
	}{
		{"no zoom shows everything", 1, 0, 0, 100000},
		{"no zoom ignores center", 1, 1, 0, 100000},
		{"2x centered", 2, 0.5, 25000, 75000},
		{"2x left", 2, 0, 0, 50000},
		{"2x right", 2, 1, 50000, 100000},
		{"4x centered", 4, 0.5, 37500, 62500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewViewport(100000, 100, 1000)
			v.ZoomLevel = tt.zoom
			v.ZoomCenter = tt.center

			start, end := v.SampleWindow()
			if start != tt.wantStart || end != tt.wantEnd {
				t.Errorf("SampleWindow() = (%d, %d), want (%d, %d)", start, end, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestVisibleTimeRange(t *testing.T) {
	v := NewViewport(100000, 200, 1000)
	v.ZoomLevel = 4
	v.ZoomCenter = 0.5

	start, dur := v.VisibleTimeRange()
	if !approx(start, 75, 0.01) || !approx(dur, 50, 0.01) {
		t.Errorf("VisibleTimeRange() = (%v, %v), want (75, 50)", start, dur)
	}
}

func TestTimeAtX_XAtTime_Inverse(t *testing.T) {
	v := NewViewport(100000, 100, 1000)
	v.ZoomLevel = 3
	v.ZoomCenter = 0.4

	for _, x := range []float64{0, 1, 250, 500, 999} {
		back := v.XAtTime(v.TimeAtX(x))
		if !approx(back, x, 1e-6) {
			t.Errorf("XAtTime(TimeAtX(%v)) = %v", x, back)
		}
	}
}

func TestTimeAtX_NoZoom(t *testing.T) {
	v := NewViewport(100000, 100, 1000)

	if got := v.TimeAtX(0); !approx(got, 0, 1e-9) {
		t.Errorf("TimeAtX(0) = %v, want 0", got)
	}
	if got := v.TimeAtX(500); !approx(got, 50, 1e-9) {
		t.Errorf("TimeAtX(500) = %v, want 50", got)
	}
	if got := v.TimeAtX(1000); !approx(got, 100, 1e-9) {
		t.Errorf("TimeAtX(1000) = %v, want 100", got)
	}
}

func TestEdgeThreshold(t *testing.T) {
	v := NewViewport(100000, 100, 1000)

	// 8 pixels at 0.1s per pixel.
	if got := v.EdgeThreshold(); !approx(got, 0.8, 1e-9) {
		t.Errorf("EdgeThreshold() = %v, want 0.8", got)
	}

	// Zooming in tightens the threshold proportionally.
	v.ZoomLevel = 10
	if got := v.EdgeThreshold(); !approx(got, 0.08, 1e-9) {
		t.Errorf("EdgeThreshold() at 10x = %v, want 0.08", got)
	}
}

func TestZoomAt_AnchorsPointer(t *testing.T) {
	v := NewViewport(100000, 100, 1000)
	v.ZoomLevel = 2
	v.ZoomCenter = 0.3

	const x = 640.0
	before := v.TimeAtX(x)

	v.ZoomAt(x, ZoomInFactor)

	after := v.TimeAtX(x)
	// The sample window floors to whole samples, so allow one sample of
	// drift (one sample = 1ms of media here).
	if !approx(after, before, 0.01) {
		t.Errorf("time under pointer moved: before %v, after %v", before, after)
	}
}

func TestZoomAt_ReciprocalRestores(t *testing.T) {
	v := NewViewport(100000, 100, 1000)
	v.ZoomLevel = 5
	v.ZoomCenter = 0.6

	const x = 250.0
	v.ZoomAt(x, ZoomInFactor)
	v.ZoomAt(x, 1/ZoomInFactor)

	if !approx(v.ZoomLevel, 5, 1e-9) {
		t.Errorf("ZoomLevel = %v, want 5", v.ZoomLevel)
	}
	if !approx(v.ZoomCenter, 0.6, 1e-6) {
		t.Errorf("ZoomCenter = %v, want 0.6", v.ZoomCenter)
	}
}

func TestZoomAt_Clamped(t *testing.T) {
	v := NewViewport(100000, 100, 1000)

	// Cannot zoom out past 1.
	v.ZoomAt(500, ZoomOutFactor)
	if v.ZoomLevel != MinZoom {
		t.Errorf("ZoomLevel = %v, want %v", v.ZoomLevel, MinZoom)
	}

	// Repeated zoom-in saturates at the upper bound.
	for i := 0; i < 200; i++ {
		v.ZoomAt(500, ZoomInFactor)
	}
	if v.ZoomLevel != MaxZoom {
		t.Errorf("ZoomLevel = %v, want %v", v.ZoomLevel, MaxZoom)
	}

	if v.ZoomCenter < 0 || v.ZoomCenter > 1 {
		t.Errorf("ZoomCenter = %v, want within [0, 1]", v.ZoomCenter)
	}
}

func approx(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}
