// Package srt parses and generates SubRip subtitle text.
//
// Parsing is permissive: blocks that cannot be understood are dropped
// rather than reported, so a mangled file still yields every cue that can
// be recovered. Serialization is strict and projects cues exactly as
// given, with no re-numbering or re-sorting.
package srt

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Cue is one subtitle entry. Start and End are kept in the canonical
// SRT text form HH:MM:SS,mmm.
type Cue struct {
	SequenceNumber int    `json:"sequence_number"`
	Start          string `json:"start_time"`
	End            string `json:"end_time"`
	Text           string `json:"text"`
}

var (
	blankLines = regexp.MustCompile(`\n([ \t]*\n)+`)
	timeLine   = regexp.MustCompile(`^(\d{2}:\d{2}:\d{2}[,.]\d{3})\s*-->\s*(\d{2}:\d{2}:\d{2}[,.]\d{3})`)
	leadingInt = regexp.MustCompile(`^\s*(\d+)`)
	timestamp  = regexp.MustCompile(`^(\d{2}):(\d{2}):(\d{2})[,.](\d{3})$`)
)

// Parse extracts cues from raw SRT text in a single pass.
//
// Block order from the input is preserved; cues are NOT re-sorted by time.
// A block missing a usable sequence number gets its 1-based position in
// the file, so malformed numbering never drops a cue. Blocks with an
// unparseable time line or no text are skipped.
func Parse(text string) []Cue {
	text = strings.TrimPrefix(text, "\ufeff")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var cues []Cue
	for i, block := range blankLines.Split(text, -1) {
		lines := strings.Split(block, "\n")
		if len(lines) < 3 {
			continue
		}

		m := timeLine.FindStringSubmatch(strings.TrimSpace(lines[1]))
		if m == nil {
			continue
		}

		seq := i + 1
		if im := leadingInt.FindStringSubmatch(lines[0]); im != nil {
			if n, err := strconv.Atoi(im[1]); err == nil {
				seq = n
			}
		}

		parts := make([]string, 0, len(lines)-2)
		for _, l := range lines[2:] {
			parts = append(parts, strings.TrimSpace(l))
		}
		body := strings.TrimSpace(strings.Join(parts, " "))
		if body == "" {
			continue
		}

		cues = append(cues, Cue{
			SequenceNumber: seq,
			Start:          strings.ReplaceAll(m[1], ".", ","),
			End:            strings.ReplaceAll(m[2], ".", ","),
			Text:           body,
		})
	}
	return cues
}

// Serialize renders cues as SRT text in the given order. It is a direct
// projection of the in-memory state: sequence numbers and ordering are
// written exactly as provided.
func Serialize(cues []Cue) string {
	var sb strings.Builder
	for i, c := range cues {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "%d\n%s --> %s\n%s\n", c.SequenceNumber, c.Start, c.End, c.Text)
	}
	return sb.String()
}

// TimeToSeconds converts HH:MM:SS,mmm (or with a dot separator) to
// seconds. Malformed input is an error, never a silent zero.
func TimeToSeconds(s string) (float64, error) {
	m := timestamp.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, fmt.Errorf("invalid SRT timestamp %q", s)
	}
	h, _ := strconv.Atoi(m[1])
	min, _ := strconv.Atoi(m[2])
	sec, _ := strconv.Atoi(m[3])
	ms, _ := strconv.Atoi(m[4])
	return float64(h)*3600 + float64(min)*60 + float64(sec) + float64(ms)/1000, nil
}

// SecondsToTime formats seconds as HH:MM:SS,mmm, truncating to the
// millisecond grid. Negative or non-finite input is clamped to zero;
// callers are expected to clamp before calling.
func SecondsToTime(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		seconds = 0
	}
	// The small epsilon keeps values that sit exactly on the millisecond
	// grid from truncating down due to float representation error.
	totalMs := int64(math.Floor(seconds*1000 + 1e-4))
	h := totalMs / 3600000
	m := totalMs % 3600000 / 60000
	s := totalMs % 60000 / 1000
	ms := totalMs % 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}

// ChunkGap is the silence inserted between merged transcription chunks.
const ChunkGap = 0.1

// MergeChunks concatenates sequential SRT chunk documents into one,
// shifting each chunk by the running end time plus ChunkGap and
// renumbering cues from 1.
func MergeChunks(chunks []string) string {
	var merged []Cue
	number := 1
	offset := 0.0

	for _, chunk := range chunks {
		chunkMax := 0.0
		for _, c := range Parse(chunk) {
			start, err := TimeToSeconds(c.Start)
			if err != nil {
				continue
			}
			end, err := TimeToSeconds(c.End)
			if err != nil {
				continue
			}
			start += offset
			end += offset
			if end > chunkMax {
				chunkMax = end
			}
			merged = append(merged, Cue{
				SequenceNumber: number,
				Start:          SecondsToTime(start),
				End:            SecondsToTime(end),
				Text:           c.Text,
			})
			number++
		}
		if chunkMax > 0 {
			offset = chunkMax + ChunkGap
		}
	}
	return Serialize(merged)
}

// Valid reports whether text contains at least one recoverable cue.
func Valid(text string) bool {
	return len(Parse(text)) > 0
}
