package store

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/subedit/subedit-agent/internal/srt"
)

// SubtitleFile is one stored SRT document with its cue rows.
type SubtitleFile struct {
	ID        string     `json:"id"`
	Filename  string     `json:"filename"`
	EditedBy  string     `json:"edited_by,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	Subtitles []Subtitle `json:"subtitles,omitempty"`
}

type Subtitle struct {
	SRTID          string `json:"srt_id,omitempty"`
	SequenceNumber int    `json:"sequence_number"`
	StartTime      string `json:"start_time"`
	EndTime        string `json:"end_time"`
	Text           string `json:"text"`
}

// SubtitlePatch carries the fields of a partial edit; nil means unchanged.
type SubtitlePatch struct {
	StartTime *string `json:"start_time,omitempty"`
	EndTime   *string `json:"end_time,omitempty"`
	Text      *string `json:"text,omitempty"`
}

func NewID() string {
	b := make([]byte, 16)
	rand.Read(b)
	return fmt.Sprintf("%x-%x-%x-%x-%x", b[0:4], b[4:6], b[6:8], b[8:10], b[10:])
}

func CuesToSubtitles(srtID string, cues []srt.Cue) []Subtitle {
	subs := make([]Subtitle, 0, len(cues))
	for _, c := range cues {
		subs = append(subs, Subtitle{
			SRTID:          srtID,
			SequenceNumber: c.SequenceNumber,
			StartTime:      c.Start,
			EndTime:        c.End,
			Text:           c.Text,
		})
	}
	return subs
}

func SubtitlesToCues(subs []Subtitle) []srt.Cue {
	cues := make([]srt.Cue, 0, len(subs))
	for _, s := range subs {
		cues = append(cues, srt.Cue{
			SequenceNumber: s.SequenceNumber,
			Start:          s.StartTime,
			End:            s.EndTime,
			Text:           s.Text,
		})
	}
	return cues
}
