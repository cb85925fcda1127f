package api

import (
	"time"

	"github.com/subedit/subedit-agent/internal/jobs"
	"github.com/subedit/subedit-agent/internal/srt"
	"github.com/subedit/subedit-agent/internal/store"
)

type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	UptimeS  int64  `json:"uptime_s"`
	DeviceID string `json:"device_id"`
}

type StatusResponse struct {
	State       string       `json:"state"`
	LastError   string       `json:"last_error,omitempty"`
	FilesCount  int          `json:"files_count"`
	JobsRunning int          `json:"jobs_running"`
	ActiveJob   *JobResponse `json:"active_job,omitempty"`
}

type SubtitleResponse struct {
	SequenceNumber int    `json:"sequence_number"`
	StartTime      string `json:"start_time"`
	EndTime        string `json:"end_time"`
	Text           string `json:"text"`
}

type SRTResponse struct {
	SRTID     string             `json:"srt_id"`
	Filename  string             `json:"filename"`
	EditedBy  string             `json:"edited_by,omitempty"`
	UpdatedAt string             `json:"updated_at"`
	Subtitles []SubtitleResponse `json:"subtitles,omitempty"`
}

type SRTListResponse struct {
	SRTs []SRTResponse `json:"srts"`
}

type SaveSubtitlesRequest struct {
	Subtitles []SubtitleResponse `json:"subtitles"`
	EditedBy  string             `json:"edited_by,omitempty"`
}

type EditSubtitleRequest struct {
	StartTime *string `json:"start_time,omitempty"`
	EndTime   *string `json:"end_time,omitempty"`
	Text      *string `json:"text,omitempty"`
}

type CreateJobRequest struct {
	Filename  string `json:"filename"`
	MediaPath string `json:"media_path"`
}

type JobResponse struct {
	ID        string `json:"id"`
	Filename  string `json:"filename"`
	Status    string `json:"status"`
	Progress  int    `json:"progress"`
	Error     string `json:"error,omitempty"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type JobsResponse struct {
	Jobs []JobResponse `json:"jobs"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func SubtitleToResponse(s store.Subtitle) SubtitleResponse {
	return SubtitleResponse{
		SequenceNumber: s.SequenceNumber,
		StartTime:      s.StartTime,
		EndTime:        s.EndTime,
		Text:           s.Text,
	}
}

func SRTToResponse(f *store.SubtitleFile) SRTResponse {
	resp := SRTResponse{
		SRTID:     f.ID,
		Filename:  f.Filename,
		EditedBy:  f.EditedBy,
		UpdatedAt: f.UpdatedAt.Format(time.RFC3339),
	}
	for _, s := range f.Subtitles {
		resp.Subtitles = append(resp.Subtitles, SubtitleToResponse(s))
	}
	return resp
}

func JobToResponse(j *jobs.Job) JobResponse {
	return JobResponse{
		ID:        j.ID,
		Filename:  j.Filename,
		Status:    j.Status,
		Progress:  j.Progress,
		Error:     j.Error,
		CreatedAt: j.CreatedAt.Format(time.RFC3339),
		UpdatedAt: j.UpdatedAt.Format(time.RFC3339),
	}
}

func RequestToCues(req SaveSubtitlesRequest) []srt.Cue {
	cues := make([]srt.Cue, 0, len(req.Subtitles))
	for _, s := range req.Subtitles {
		cues = append(cues, srt.Cue{
			SequenceNumber: s.SequenceNumber,
			Start:          s.StartTime,
			End:            s.EndTime,
			Text:           s.Text,
		})
	}
	return cues
}
