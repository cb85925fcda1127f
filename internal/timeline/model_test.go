package timeline

import (
	"errors"
	"testing"

	"github.com/subedit/subedit-agent/internal/srt"
)

func testCues() []srt.Cue {
	return []srt.Cue{
		{SequenceNumber: 1, Start: "00:00:01,000", End: "00:00:05,000", Text: "Hello"},
		{SequenceNumber: 2, Start: "00:00:06,000", End: "00:00:10,000", Text: "World"},
		{SequenceNumber: 3, Start: "00:00:12,000", End: "00:00:15,000", Text: "Again"},
	}
}

func loadedModel(t *testing.T) *Model {
	t.Helper()
	m := New("episode1.srt", 60)
	m.Load(testCues())
	return m
}

func TestLoad_SortsByStartTime(t *testing.T) {
	m := New("shuffled.srt", 60)
	m.Load([]srt.Cue{
		{SequenceNumber: 3, Start: "00:00:12,000", End: "00:00:15,000", Text: "Again"},
		{SequenceNumber: 1, Start: "00:00:01,000", End: "00:00:05,000", Text: "Hello"},
		{SequenceNumber: 2, Start: "00:00:06,000", End: "00:00:10,000", Text: "World"},
	})

	var starts []string
	for _, c := range m.Cues() {
		starts = append(starts, c.Start)
	}
	want := []string{"00:00:01,000", "00:00:06,000", "00:00:12,000"}
	for i := range want {
		if starts[i] != want[i] {
			t.Errorf("cue %d start = %s, want %s", i, starts[i], want[i])
		}
	}
}

func TestFindActiveIndex(t *testing.T) {
	m := loadedModel(t)

	tests := []struct {
		name string
		time float64
		want int
	}{
		{"before first cue", 0.5, -1},
		{"at first start", 1.0, 0},
		{"inside first", 3.0, 0},
		{"at first end", 5.0, 0},
		{"in gap", 5.5, -1},
		{"inside second", 7.0, 1},
		{"inside third", 13.0, 2},
		{"after last end", 20.0, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := m.FindActiveIndex(tt.time); got != tt.want {
				t.Errorf("FindActiveIndex(%v) = %d, want %d", tt.time, got, tt.want)
			}
		})
	}
}

func TestFindActiveIndex_OverlappingCuesFirstWins(t *testing.T) {
	m := New("overlap.srt", 60)
	m.Load([]srt.Cue{
		{SequenceNumber: 1, Start: "00:00:01,000", End: "00:00:10,000", Text: "A"},
		{SequenceNumber: 2, Start: "00:00:05,000", End: "00:00:12,000", Text: "B"},
	})

	if got := m.FindActiveIndex(7); got != 0 {
		t.Errorf("FindActiveIndex(7) = %d, want 0 (first in list order)", got)
	}
}

func TestTimeConstraints(t *testing.T) {
	m := loadedModel(t)

	tests := []struct {
		name    string
		index   int
		wantMin float64
		wantMax float64
	}{
		{"first cue bounded by zero and next start", 0, 0, 5.9},
		{"middle cue bounded by both neighbors", 1, 5.1, 11.9},
		{"last cue bounded by media duration", 2, 10.1, 60},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotMin, gotMax := m.TimeConstraints(tt.index)
			if !closeTo(gotMin, tt.wantMin) || !closeTo(gotMax, tt.wantMax) {
				t.Errorf("TimeConstraints(%d) = (%v, %v), want (%v, %v)",
					tt.index, gotMin, gotMax, tt.wantMin, tt.wantMax)
			}
		})
	}
}

func TestUpdateCue_PartialPatch(t *testing.T) {
	m := loadedModel(t)

	end := "00:00:05,950"
	if !m.UpdateCue(0, CuePatch{End: &end}) {
		t.Fatal("UpdateCue returned false")
	}

	c, _ := m.Cue(0)
	if c.End != "00:00:05,950" {
		t.Errorf("end = %s, want 00:00:05,950", c.End)
	}
	if c.Start != "00:00:01,000" || c.Text != "Hello" {
		t.Errorf("unpatched fields changed: %+v", c)
	}

	// Serializing reproduces the edited end time verbatim.
	out := srt.Serialize(m.Cues())
	back := srt.Parse(out)
	if back[0].End != "00:00:05,950" {
		t.Errorf("serialized end = %s, want 00:00:05,950", back[0].End)
	}
}

func TestUpdateCue_OutOfRange(t *testing.T) {
	m := loadedModel(t)
	text := "nope"
	if m.UpdateCue(-1, CuePatch{Text: &text}) || m.UpdateCue(3, CuePatch{Text: &text}) {
		t.Error("UpdateCue accepted out-of-range index")
	}
}

func TestRemoveCue(t *testing.T) {
	m := loadedModel(t)

	if !m.RemoveCue(1) {
		t.Fatal("RemoveCue returned false")
	}
	if m.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", m.Len())
	}
	c, _ := m.Cue(1)
	if c.Text != "Again" {
		t.Errorf("cue 1 after removal = %q, want %q", c.Text, "Again")
	}

	if m.RemoveCue(5) {
		t.Error("RemoveCue accepted out-of-range index")
	}
}

func TestSetEdgeSeconds(t *testing.T) {
	m := loadedModel(t)

	if !m.SetEdgeSeconds(0, EdgeEnd, 4.5) {
		t.Fatal("SetEdgeSeconds returned false")
	}
	c, _ := m.Cue(0)
	if c.End != "00:00:04,500" {
		t.Errorf("end = %s, want 00:00:04,500", c.End)
	}

	if !m.SetEdgeSeconds(0, EdgeStart, 0.25) {
		t.Fatal("SetEdgeSeconds returned false")
	}
	c, _ = m.Cue(0)
	if c.Start != "00:00:00,250" {
		t.Errorf("start = %s, want 00:00:00,250", c.Start)
	}
}

func TestValidateTimestamp(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"00:00:01,000", false},
		{"00:00:01.000", false},
		{"12:34:56,789", false},
		{"0:00:01,000", true},
		{"00:00:01,00", true},
		{"00:00:01", true},
		{"1000", true},
		{"", true},
		{"00:00:01,000 extra", true},
	}

	for _, tt := range tests {
		err := ValidateTimestamp(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateTimestamp(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
	}
}

func TestValidateCueEdit(t *testing.T) {
	tests := []struct {
		name    string
		start   string
		end     string
		text    string
		wantErr error
	}{
		{"valid", "00:00:01,000", "00:00:02,000", "Hi", nil},
		{"bad start format", "bad", "00:00:02,000", "Hi", ErrBadTimestamp},
		{"bad end format", "00:00:01,000", "2s", "Hi", ErrBadTimestamp},
		{"end equals start", "00:00:01,000", "00:00:01,000", "Hi", ErrEndNotAfter},
		{"end before start", "00:00:05,000", "00:00:01,000", "Hi", ErrEndNotAfter},
		{"empty text", "00:00:01,000", "00:00:02,000", "  ", ErrEmptyText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCueEdit(tt.start, tt.end, tt.text)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("ValidateCueEdit() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateCueEdit() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func closeTo(a, b float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d < 1e-9
}
