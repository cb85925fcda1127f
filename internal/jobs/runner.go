package jobs

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/subedit/subedit-agent/internal/srt"
	"github.com/subedit/subedit-agent/internal/store"
)

// Transcriber turns a media file into SRT text chunks, one per audio
// segment, reporting progress as a 0-100 percentage.
type Transcriber interface {
	Transcribe(ctx context.Context, mediaPath string, progress func(int)) ([]string, error)
}

type Runner struct {
	manager      *Manager
	subtitles    store.SubtitleService
	transcriber  Transcriber
	logger       *slog.Logger
	pollInterval time.Duration
	jobMaxAge    time.Duration
	running      atomic.Bool
	paused       atomic.Bool
}

func NewRunner(manager *Manager, subtitles store.SubtitleService, transcriber Transcriber, logger *slog.Logger) *Runner {
	return &Runner{
		manager:      manager,
		subtitles:    subtitles,
		transcriber:  transcriber,
		logger:       logger,
		pollInterval: 2 * time.Second,
		jobMaxAge:    24 * time.Hour,
	}
}

func (r *Runner) Start(ctx context.Context) {
	if r.running.Swap(true) {
		return
	}

	r.logger.Info("job runner started")

	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("job runner stopping")
			r.running.Store(false)
			return
		case <-ticker.C:
			if !r.paused.Load() {
				r.processNextJob(ctx)
			}
			r.manager.Cleanup(r.jobMaxAge)
		}
	}
}

func (r *Runner) IsRunning() bool {
	return r.running.Load()
}

// SetJobMaxAge overrides how long finished jobs are retained. Must be
// called before Start.
func (r *Runner) SetJobMaxAge(d time.Duration) {
	if d > 0 {
		r.jobMaxAge = d
	}
}

// Pause stops picking up queued jobs. A job already in flight finishes.
func (r *Runner) Pause() {
	r.paused.Store(true)
	r.logger.Info("job runner paused")
}

func (r *Runner) Resume() {
	r.paused.Store(false)
	r.logger.Info("job runner resumed")
}

func (r *Runner) IsPaused() bool {
	return r.paused.Load()
}

func (r *Runner) processNextJob(ctx context.Context) {
	job, ok := r.manager.NextQueued()
	if !ok {
		return
	}

	r.logger.Info("processing job", "job_id", job.ID, "filename", job.Filename)
	r.manager.SetStatus(job.ID, StatusProcessing, "")

	chunks, err := r.transcriber.Transcribe(ctx, job.MediaPath, func(p int) {
		r.manager.SetProgress(job.ID, p)
	})
	if err != nil {
		r.logger.Error("transcription failed", "job_id", job.ID, "error", err)
		r.manager.SetStatus(job.ID, StatusError, err.Error())
		return
	}

	r.manager.SetStatus(job.ID, StatusMerging, "")
	merged := srt.MergeChunks(chunks)

	cues := srt.Parse(merged)
	if _, err := r.subtitles.SaveAll(ctx, job.Filename, cues, ""); err != nil {
		r.logger.Error("failed to save transcript", "job_id", job.ID, "error", err)
		r.manager.SetStatus(job.ID, StatusError, err.Error())
		return
	}

	r.manager.SetProgress(job.ID, 100)
	r.manager.SetStatus(job.ID, StatusCompleted, "")
	r.logger.Info("job completed", "job_id", job.ID, "cues", len(cues))
}
