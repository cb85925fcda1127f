// Package watcher polls the media directory and queues transcription
// jobs for media files that do not yet have a subtitle document.
package watcher

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/subedit/subedit-agent/internal/jobs"
	"github.com/subedit/subedit-agent/internal/store"
)

var mediaExtensions = map[string]bool{
	".mp4": true,
	".mkv": true,
	".mov": true,
	".avi": true,
	".m4a": true,
	".mp3": true,
	".wav": true,
}

type Watcher struct {
	mediaDir     string
	manager      *jobs.Manager
	subtitles    store.SubtitleService
	logger       *slog.Logger
	pollInterval time.Duration

	// seen holds media paths already considered, so one file is only
	// ever queued once per process lifetime.
	seen map[string]bool
}

func New(mediaDir string, manager *jobs.Manager, subtitles store.SubtitleService, logger *slog.Logger) *Watcher {
	return &Watcher{
		mediaDir:     mediaDir,
		manager:      manager,
		subtitles:    subtitles,
		logger:       logger,
		pollInterval: 30 * time.Second,
		seen:         make(map[string]bool),
	}
}

// Run polls until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	w.logger.Info("media watcher started", "dir", w.mediaDir, "interval", w.pollInterval)

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.Scan(ctx)
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("media watcher stopping")
			return
		case <-ticker.C:
			w.Scan(ctx)
		}
	}
}

// Scan walks the media directory once and queues a job for every new
// media file that has no subtitle document and no job yet.
func (w *Watcher) Scan(ctx context.Context) {
	entries, err := os.ReadDir(w.mediaDir)
	if err != nil {
		if !os.IsNotExist(err) {
			w.logger.Warn("cannot read media dir", "dir", w.mediaDir, "error", err)
		}
		return
	}

	for _, entry := range entries {
		if entry.IsDir() || !IsMediaFile(entry.Name()) {
			continue
		}

		path := filepath.Join(w.mediaDir, entry.Name())
		if w.seen[path] {
			continue
		}
		w.seen[path] = true

		subtitleName := SubtitleName(entry.Name())
		if w.hasSubtitles(ctx, subtitleName) || w.hasJob(subtitleName) {
			continue
		}

		job := w.manager.Create(subtitleName, path)
		w.logger.Info("queued transcription for new media",
			"job_id", job.ID, "filename", subtitleName, "media", entry.Name())
	}
}

func (w *Watcher) hasSubtitles(ctx context.Context, filename string) bool {
	_, err := w.subtitles.GetFile(ctx, filename)
	if err == nil {
		return true
	}
	if !errors.Is(err, store.ErrNotFound) {
		w.logger.Warn("subtitle lookup failed", "filename", filename, "error", err)
		// On lookup failure err on the safe side and skip queueing.
		return true
	}
	return false
}

func (w *Watcher) hasJob(filename string) bool {
	for _, j := range w.manager.List() {
		if j.Filename == filename && j.Status != jobs.StatusError {
			return true
		}
	}
	return false
}

// IsMediaFile reports whether a name has a recognised media extension.
func IsMediaFile(name string) bool {
	return mediaExtensions[strings.ToLower(filepath.Ext(name))]
}

// SubtitleName maps a media filename onto its subtitle document name.
func SubtitleName(mediaName string) string {
	ext := filepath.Ext(mediaName)
	return strings.TrimSuffix(mediaName, ext) + ".srt"
}
