// Package timeline holds the in-memory cue set for one subtitle file and
// answers the point queries the editor needs: which cue is active at a
// playback time, and how far a cue edge may move before colliding with a
// neighbor.
package timeline

import (
	"sort"

	"github.com/subedit/subedit-agent/internal/srt"
)

// MinCueGap is the minimum spacing, in seconds, enforced between a cue
// edge and its neighbor (and between a cue's own start and end) during
// edits.
const MinCueGap = 0.1

// Model is the cue set for the currently loaded file. Cues are kept
// sorted by start time: Load establishes the order, and drag edits are
// constraint-clamped so they cannot break it. The model itself never
// validates — rejecting bad input is the edit-form's job.
type Model struct {
	Filename string
	Duration float64

	cues []srt.Cue
}

// CuePatch is a partial update to one cue. Nil fields are left unchanged.
type CuePatch struct {
	Start *string
	End   *string
	Text  *string
}

func New(filename string, duration float64) *Model {
	return &Model{Filename: filename, Duration: duration}
}

// Load replaces the whole cue set, sorting by start time. Cues whose
// start cannot be parsed sort to the front.
func (m *Model) Load(cues []srt.Cue) {
	m.cues = make([]srt.Cue, len(cues))
	copy(m.cues, cues)
	sort.SliceStable(m.cues, func(i, j int) bool {
		a, _ := srt.TimeToSeconds(m.cues[i].Start)
		b, _ := srt.TimeToSeconds(m.cues[j].Start)
		return a < b
	})
}

// Cues returns the cue list in model order. The returned slice is shared;
// callers must treat it as read-only.
func (m *Model) Cues() []srt.Cue {
	return m.cues
}

func (m *Model) Len() int {
	return len(m.cues)
}

func (m *Model) Cue(index int) (srt.Cue, bool) {
	if index < 0 || index >= len(m.cues) {
		return srt.Cue{}, false
	}
	return m.cues[index], true
}

// CueTimes returns a cue's start and end in seconds. Unparseable
// timestamps yield zeros.
func (m *Model) CueTimes(index int) (start, end float64) {
	c, ok := m.Cue(index)
	if !ok {
		return 0, 0
	}
	start, _ = srt.TimeToSeconds(c.Start)
	end, _ = srt.TimeToSeconds(c.End)
	return start, end
}

// FindActiveIndex returns the index of the first cue whose [start, end]
// interval contains t, or -1 when no cue is active. First match in list
// order wins, which settles ties when permissively parsed cues overlap.
func (m *Model) FindActiveIndex(t float64) int {
	for i := range m.cues {
		start, end := m.CueTimes(i)
		if t >= start && t <= end {
			return i
		}
	}
	return -1
}

// TimeConstraints returns the window a cue's edges may occupy without
// crossing into a neighbor: the preceding cue's end plus MinCueGap (or 0)
// up to the following cue's start minus MinCueGap (or the media
// duration). Neighbors are positional, which matches time order because
// of the sort invariant.
func (m *Model) TimeConstraints(index int) (minTime, maxTime float64) {
	minTime = 0
	maxTime = m.Duration

	if index > 0 {
		_, prevEnd := m.CueTimes(index - 1)
		minTime = prevEnd + MinCueGap
	}
	if index < len(m.cues)-1 {
		nextStart, _ := m.CueTimes(index + 1)
		maxTime = nextStart - MinCueGap
	}
	return minTime, maxTime
}

// UpdateCue applies a partial update to one cue. The model applies the
// patch as given; callers clamp or validate first.
func (m *Model) UpdateCue(index int, patch CuePatch) bool {
	if index < 0 || index >= len(m.cues) {
		return false
	}
	if patch.Start != nil {
		m.cues[index].Start = *patch.Start
	}
	if patch.End != nil {
		m.cues[index].End = *patch.End
	}
	if patch.Text != nil {
		m.cues[index].Text = *patch.Text
	}
	return true
}

func (m *Model) RemoveCue(index int) bool {
	if index < 0 || index >= len(m.cues) {
		return false
	}
	m.cues = append(m.cues[:index], m.cues[index+1:]...)
	return true
}

// SetEdgeSeconds writes one edge of a cue from a seconds value,
// formatting onto the canonical millisecond grid. Used by drag updates.
func (m *Model) SetEdgeSeconds(index int, edge Edge, t float64) bool {
	if index < 0 || index >= len(m.cues) {
		return false
	}
	formatted := srt.SecondsToTime(t)
	if edge == EdgeStart {
		m.cues[index].Start = formatted
	} else {
		m.cues[index].End = formatted
	}
	return true
}

// Edge identifies which boundary of a cue is being addressed.
type Edge int

const (
	EdgeStart Edge = iota
	EdgeEnd
)

func (e Edge) String() string {
	if e == EdgeStart {
		return "start"
	}
	return "end"
}
