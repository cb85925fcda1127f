package waveform

import (
	"github.com/subedit/subedit-agent/internal/timeline"
)

// State is the interaction state of the controller.
type State int

const (
	StateIdle State = iota
	StateHovering
	StateDragging
)

// RegionState is the highlight applied to a visible cue region.
type RegionState int

const (
	RegionNone RegionState = iota
	RegionActive
	RegionSelected
	RegionHoveredEdge
	RegionDraggedEdge
)

// Region is one visible cue with its pixel bounds and highlight,
// the authoritative input to whatever rendering layer is plugged in.
type Region struct {
	Index int
	X0    float64
	X1    float64
	State RegionState
	Edge  timeline.Edge
}

// Controller owns the zoom/pan view state and turns pointer and wheel
// events into timeline edits. Everything runs synchronously inside the
// event handler; there is no background work.
type Controller struct {
	model *timeline.Model
	view  Viewport

	state      State
	hoverIndex int
	hoverEdge  timeline.Edge
	dragIndex  int
	dragEdge   timeline.Edge

	pressed bool
	downX   float64

	playbackTime  float64
	selectedIndex int
	activeIndex   int

	dirty bool

	// OnSeek, when set, is called whenever the controller wants the
	// player repositioned (edge grab, click-to-seek).
	OnSeek func(t float64)
}

func NewController(model *timeline.Model, view Viewport) *Controller {
	return &Controller{
		model:         model,
		view:          view,
		hoverIndex:    -1,
		dragIndex:     -1,
		selectedIndex: -1,
		activeIndex:   -1,
	}
}

func (c *Controller) State() State          { return c.state }
func (c *Controller) Viewport() Viewport    { return c.view }
func (c *Controller) SelectedIndex() int    { return c.selectedIndex }
func (c *Controller) ActiveIndex() int      { return c.activeIndex }
func (c *Controller) PlaybackTime() float64 { return c.playbackTime }

// HoveredEdge reports the cue edge currently under the pointer.
func (c *Controller) HoveredEdge() (index int, edge timeline.Edge, ok bool) {
	if c.state != StateHovering {
		return -1, 0, false
	}
	return c.hoverIndex, c.hoverEdge, true
}

// TakeRedraw reports whether state relevant to rendering changed since
// the last call, and clears the flag.
func (c *Controller) TakeRedraw() bool {
	d := c.dirty
	c.dirty = false
	return d
}

// Resize updates the canvas width used for pixel mapping.
func (c *Controller) Resize(width float64) {
	if width == c.view.CanvasWidth {
		return
	}
	c.view.CanvasWidth = width
	c.dirty = true
}

// SetPlaybackTime records the player position and recomputes the active
// cue. Called on every playback tick.
func (c *Controller) SetPlaybackTime(t float64) {
	c.playbackTime = t
	active := c.model.FindActiveIndex(t)
	if active != c.activeIndex {
		c.activeIndex = active
	}
	c.dirty = true
}

// HandleWheel zooms around the pointer when the modifier is held.
// A notch away from the user (deltaY > 0) zooms out.
func (c *Controller) HandleWheel(x, deltaY float64, modifier bool) {
	if !modifier || deltaY == 0 {
		return
	}
	factor := ZoomInFactor
	if deltaY > 0 {
		factor = ZoomOutFactor
	}
	c.view.ZoomAt(x, factor)
	c.dirty = true
}

// HandleMouseMove updates hover state, or applies the drag edit when an
// edge is being dragged.
func (c *Controller) HandleMouseMove(x float64) {
	switch c.state {
	case StateDragging:
		c.dragTo(x)
	default:
		index, edge, ok := c.edgeAt(x)
		if ok {
			if c.state != StateHovering || index != c.hoverIndex || edge != c.hoverEdge {
				c.state = StateHovering
				c.hoverIndex = index
				c.hoverEdge = edge
				c.dirty = true
			}
		} else if c.state == StateHovering {
			c.state = StateIdle
			c.hoverIndex = -1
			c.dirty = true
		}
	}
}

// HandleMouseDown begins a drag when the pointer is on a cue edge. The
// grabbed cue is also selected and playback is seeked to its start.
func (c *Controller) HandleMouseDown(x float64) {
	c.pressed = true
	c.downX = x

	index, edge, ok := c.edgeAt(x)
	if !ok {
		return
	}

	c.state = StateDragging
	c.dragIndex = index
	c.dragEdge = edge
	c.selectedIndex = index

	start, _ := c.model.CueTimes(index)
	c.seek(start)
	c.dirty = true
}

// HandleMouseUp ends a drag from anywhere, or resolves a plain click:
// seek to the clicked time and select the cue under it, if any.
func (c *Controller) HandleMouseUp(x float64) {
	wasDragging := c.state == StateDragging
	pressed := c.pressed
	c.pressed = false

	if wasDragging {
		c.state = StateIdle
		c.dragIndex = -1
		c.dirty = true
		return
	}

	if !pressed {
		return
	}

	// A click is a press/release pair that never strayed beyond the edge
	// tolerance and did not land on an edge.
	threshold := c.view.EdgeThreshold()
	travel := c.view.TimeAtX(x) - c.view.TimeAtX(c.downX)
	if travel < 0 {
		travel = -travel
	}
	if travel > threshold {
		return
	}

	t := c.view.TimeAtX(x)
	c.seek(t)
	c.playbackTime = t
	if hit := c.model.FindActiveIndex(t); hit >= 0 {
		c.selectedIndex = hit
		c.activeIndex = hit
	}
	c.dirty = true
}

// Regions returns the cues intersecting the visible window with pixel
// bounds and highlight state, dragged edge first in precedence.
func (c *Controller) Regions() []Region {
	visStart, visDur := c.view.VisibleTimeRange()
	visEnd := visStart + visDur

	var regions []Region
	for i := 0; i < c.model.Len(); i++ {
		start, end := c.model.CueTimes(i)
		if end < visStart || start > visEnd {
			continue
		}

		r := Region{
			Index: i,
			X0:    c.view.XAtTime(start),
			X1:    c.view.XAtTime(end),
		}

		switch {
		case c.state == StateDragging && i == c.dragIndex:
			r.State = RegionDraggedEdge
			r.Edge = c.dragEdge
		case c.state == StateHovering && i == c.hoverIndex:
			r.State = RegionHoveredEdge
			r.Edge = c.hoverEdge
		case i == c.selectedIndex:
			r.State = RegionSelected
		case i == c.activeIndex:
			r.State = RegionActive
		}

		regions = append(regions, r)
	}
	return regions
}

// edgeAt hit-tests cue edges at the given x, first match in list order.
func (c *Controller) edgeAt(x float64) (int, timeline.Edge, bool) {
	mouseTime := c.view.TimeAtX(x)
	threshold := c.view.EdgeThreshold()

	for i := 0; i < c.model.Len(); i++ {
		start, end := c.model.CueTimes(i)
		if abs(mouseTime-start) <= threshold {
			return i, timeline.EdgeStart, true
		}
		if abs(mouseTime-end) <= threshold {
			return i, timeline.EdgeEnd, true
		}
	}
	return -1, 0, false
}

// dragTo recomputes the dragged edge from the pointer, clamped against
// the neighbor constraints and the cue's own opposite edge, and writes
// it into the model immediately.
func (c *Controller) dragTo(x float64) {
	t := c.view.TimeAtX(x)
	minT, maxT := c.model.TimeConstraints(c.dragIndex)
	start, end := c.model.CueTimes(c.dragIndex)

	if c.dragEdge == timeline.EdgeStart {
		t = clamp(t, minT, end-timeline.MinCueGap)
	} else {
		t = clamp(t, start+timeline.MinCueGap, maxT)
	}

	c.model.SetEdgeSeconds(c.dragIndex, c.dragEdge, t)
	c.dirty = true
}

func (c *Controller) seek(t float64) {
	if c.OnSeek != nil {
		c.OnSeek(t)
	}
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
