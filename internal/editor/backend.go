package editor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/subedit/subedit-agent/internal/srt"
	"github.com/subedit/subedit-agent/internal/store"
)

// Backend is the persistence contract the editing session talks to:
// fetch a document, replace it wholesale, patch one cue, delete one cue.
type Backend interface {
	GetSubtitles(ctx context.Context, filename string) ([]srt.Cue, error)
	SaveSubtitles(ctx context.Context, filename string, cues []srt.Cue, editedBy string) error
	EditSubtitle(ctx context.Context, filename string, sequenceNumber int, patch store.SubtitlePatch) (srt.Cue, error)
	DeleteSubtitle(ctx context.Context, filename string, sequenceNumber int) error
}

// BackendError carries the HTTP status of a failed backend call.
type BackendError struct {
	StatusCode int
	Body       string
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backend request failed: HTTP %d: %s", e.StatusCode, e.Body)
}

// IsRetryable returns true for server errors (5xx) and network errors.
// Client errors (4xx) are considered permanent.
func (e *BackendError) IsRetryable() bool {
	return e.StatusCode >= 500
}

// HTTPBackend talks to the agent's own REST API, or any server exposing
// the same routes.
type HTTPBackend struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewHTTPBackend(baseURL, token string, logger *slog.Logger) *HTTPBackend {
	return &HTTPBackend{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: logger,
	}
}

type srtDocument struct {
	Subtitles []wireSubtitle `json:"subtitles"`
}

type wireSubtitle struct {
	SequenceNumber int    `json:"sequence_number"`
	StartTime      string `json:"start_time"`
	EndTime        string `json:"end_time"`
	Text           string `json:"text"`
}

type saveRequest struct {
	Subtitles []wireSubtitle `json:"subtitles"`
	EditedBy  string         `json:"edited_by,omitempty"`
}

func (b *HTTPBackend) GetSubtitles(ctx context.Context, filename string) ([]srt.Cue, error) {
	var doc srtDocument
	if err := b.do(ctx, http.MethodGet, "/srts/"+filename, nil, &doc); err != nil {
		return nil, err
	}

	cues := make([]srt.Cue, 0, len(doc.Subtitles))
	for _, s := range doc.Subtitles {
		cues = append(cues, srt.Cue{
			SequenceNumber: s.SequenceNumber,
			Start:          s.StartTime,
			End:            s.EndTime,
			Text:           s.Text,
		})
	}
	return cues, nil
}

func (b *HTTPBackend) SaveSubtitles(ctx context.Context, filename string, cues []srt.Cue, editedBy string) error {
	req := saveRequest{EditedBy: editedBy}
	for _, c := range cues {
		req.Subtitles = append(req.Subtitles, wireSubtitle{
			SequenceNumber: c.SequenceNumber,
			StartTime:      c.Start,
			EndTime:        c.End,
			Text:           c.Text,
		})
	}
	return b.do(ctx, http.MethodPut, "/srts/"+filename+"/subtitles", req, nil)
}

func (b *HTTPBackend) EditSubtitle(ctx context.Context, filename string, sequenceNumber int, patch store.SubtitlePatch) (srt.Cue, error) {
	var s wireSubtitle
	path := fmt.Sprintf("/srts/%s/subtitles/%d", filename, sequenceNumber)
	if err := b.do(ctx, http.MethodPatch, path, patch, &s); err != nil {
		return srt.Cue{}, err
	}
	return srt.Cue{
		SequenceNumber: s.SequenceNumber,
		Start:          s.StartTime,
		End:            s.EndTime,
		Text:           s.Text,
	}, nil
}

func (b *HTTPBackend) DeleteSubtitle(ctx context.Context, filename string, sequenceNumber int) error {
	path := fmt.Sprintf("/srts/%s/subtitles/%d", filename, sequenceNumber)
	return b.do(ctx, http.MethodDelete, path, nil, nil)
}

func (b *HTTPBackend) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if b.token != "" {
		req.Header.Set("Authorization", "Bearer "+b.token)
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &BackendError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
