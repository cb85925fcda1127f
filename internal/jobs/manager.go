package jobs

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/subedit/subedit-agent/internal/store"
)

const (
	StatusQueued     = "queued"
	StatusProcessing = "processing"
	StatusMerging    = "merging"
	StatusCompleted  = "completed"
	StatusError      = "error"
)

// Job is one transcription request. Jobs live in memory only; a restart
// drops the queue and clients are expected to resubmit.
type Job struct {
	ID        string    `json:"id"`
	Filename  string    `json:"filename"`
	MediaPath string    `json:"media_path"`
	Status    string    `json:"status"`
	Progress  int       `json:"progress"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Manager struct {
	mu     sync.Mutex
	jobs   map[string]*Job
	logger *slog.Logger
}

func NewManager(logger *slog.Logger) *Manager {
	return &Manager{
		jobs:   make(map[string]*Job),
		logger: logger,
	}
}

func (m *Manager) Create(filename, mediaPath string) *Job {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	job := &Job{
		ID:        store.NewID(),
		Filename:  filename,
		MediaPath: mediaPath,
		Status:    StatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.jobs[job.ID] = job

	if m.logger != nil {
		m.logger.Info("job queued", "job_id", job.ID, "filename", filename)
	}
	return copyJob(job)
}

func (m *Manager) Get(id string) (*Job, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[id]
	if !ok {
		return nil, false
	}
	return copyJob(job), true
}

// List returns all jobs, newest first.
func (m *Manager) List() []*Job {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*Job, 0, len(m.jobs))
	for _, j := range m.jobs {
		out = append(out, copyJob(j))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// NextQueued returns the oldest queued job, if any.
func (m *Manager) NextQueued() (*Job, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var oldest *Job
	for _, j := range m.jobs {
		if j.Status != StatusQueued {
			continue
		}
		if oldest == nil || j.CreatedAt.Before(oldest.CreatedAt) {
			oldest = j
		}
	}
	if oldest == nil {
		return nil, false
	}
	return copyJob(oldest), true
}

func (m *Manager) SetStatus(id, status, errorMsg string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[id]
	if !ok {
		return
	}
	job.Status = status
	job.Error = errorMsg
	job.UpdatedAt = time.Now()
}

func (m *Manager) SetProgress(id string, progress int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[id]
	if !ok {
		return
	}
	job.Progress = progress
	job.UpdatedAt = time.Now()
}

// Cleanup drops finished jobs older than maxAge and returns the number
// removed.
func (m *Manager) Cleanup(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for id, j := range m.jobs {
		if j.Status != StatusCompleted && j.Status != StatusError {
			continue
		}
		if j.UpdatedAt.Before(cutoff) {
			delete(m.jobs, id)
			removed++
		}
	}

	if removed > 0 && m.logger != nil {
		m.logger.Info("cleaned up old jobs", "count", removed)
	}
	return removed
}

func copyJob(j *Job) *Job {
	c := *j
	return &c
}
