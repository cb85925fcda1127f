// Package export renders a cue list into downloadable document formats.
// SRT itself is handled by the srt package; this package covers the
// derived formats (WebVTT and a plain-text transcript) and filename
// sanitization for download headers.
package export

import (
	"fmt"
	"strings"

	"github.com/subedit/subedit-agent/internal/srt"
)

// Format identifies a download format by its query-parameter value.
type Format string

const (
	FormatSRT        Format = "srt"
	FormatVTT        Format = "vtt"
	FormatTranscript Format = "txt"
)

// ParseFormat maps a query value onto a known format. An empty value
// defaults to SRT.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "srt":
		return FormatSRT, nil
	case "vtt":
		return FormatVTT, nil
	case "txt", "text", "transcript":
		return FormatTranscript, nil
	default:
		return "", fmt.Errorf("unknown export format %q", s)
	}
}

// ContentType returns the MIME type for a format.
func (f Format) ContentType() string {
	switch f {
	case FormatVTT:
		return "text/vtt; charset=utf-8"
	case FormatTranscript:
		return "text/plain; charset=utf-8"
	default:
		return "application/x-subrip; charset=utf-8"
	}
}

// Extension returns the file extension, without the dot.
func (f Format) Extension() string {
	return string(f)
}

// GenerateVTT renders cues as a WebVTT document. Timestamps keep the
// SRT millisecond precision with the separator swapped to a dot.
func GenerateVTT(cues []srt.Cue) string {
	var sb strings.Builder
	sb.WriteString("WEBVTT\n")
	for _, c := range cues {
		sb.WriteString("\n")
		fmt.Fprintf(&sb, "%s --> %s\n%s\n", vttTime(c.Start), vttTime(c.End), c.Text)
	}
	return sb.String()
}

func vttTime(t string) string {
	return strings.Replace(t, ",", ".", 1)
}

// GenerateTranscript renders cue text as plain prose, one cue per line,
// dropping all timing.
func GenerateTranscript(cues []srt.Cue) string {
	lines := make([]string, 0, len(cues))
	for _, c := range cues {
		if text := strings.TrimSpace(c.Text); text != "" {
			lines = append(lines, text)
		}
	}
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

// Render produces the document for a format from a cue list.
func Render(f Format, cues []srt.Cue) string {
	switch f {
	case FormatVTT:
		return GenerateVTT(cues)
	case FormatTranscript:
		return GenerateTranscript(cues)
	default:
		return srt.Serialize(cues)
	}
}

// DownloadName builds a safe attachment filename for a document,
// replacing the original extension with the format's.
func DownloadName(filename string, f Format) string {
	base := filename
	if i := strings.LastIndex(base, "."); i > 0 {
		base = base[:i]
	}
	base = strings.Trim(SanitizeName(base, 120), ". ")
	if base == "" {
		base = "subtitles"
	}
	return base + "." + f.Extension()
}
