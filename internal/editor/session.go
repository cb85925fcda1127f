package editor

import (
	"context"
	"log/slog"
	"sync"

	"github.com/subedit/subedit-agent/internal/srt"
	"github.com/subedit/subedit-agent/internal/timeline"
)

// Session owns one open subtitle document. Edits mutate the timeline
// model immediately; Save pushes the whole document to the backend
// optimistically and rolls the model back to the last acknowledged
// state if the backend rejects it.
//
// Saves may overlap when the user keeps editing while one is in
// flight. Each save takes a monotonically increasing token; a response
// whose token is older than the newest issued one is stale and its
// outcome is discarded, so a slow early save can never clobber the
// result of a later one.
type Session struct {
	mu sync.Mutex

	filename string
	model    *timeline.Model
	backend  Backend
	logger   *slog.Logger

	// lastGood is the most recent cue set the backend has acknowledged.
	lastGood []srt.Cue

	issuedToken  uint64
	appliedToken uint64
	dirty        bool
}

func NewSession(backend Backend, logger *slog.Logger) *Session {
	return &Session{backend: backend, logger: logger}
}

// Open fetches the document and builds the timeline model for it.
func (s *Session) Open(ctx context.Context, filename string, duration float64) error {
	cues, err := s.backend.GetSubtitles(ctx, filename)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.filename = filename
	s.model = timeline.New(filename, duration)
	s.model.Load(cues)
	s.lastGood = cloneCues(s.model.Cues())
	s.dirty = false
	return nil
}

// cloneCues copies the cue list so later in-place edits to the model
// cannot reach into a held snapshot.
func cloneCues(cues []srt.Cue) []srt.Cue {
	out := make([]srt.Cue, len(cues))
	copy(out, cues)
	return out
}

// Model returns the live timeline model. Mutations through it must be
// followed by MarkDirty.
func (s *Session) Model() *timeline.Model {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model
}

func (s *Session) Filename() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filename
}

func (s *Session) MarkDirty() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dirty = true
}

func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// Save pushes the current cue set to the backend. On success the
// snapshot becomes the new last-known-good state; on failure the model
// is rolled back to the previous one. Either way, if a newer save was
// issued while this one was in flight the outcome is ignored.
func (s *Session) Save(ctx context.Context, editedBy string) error {
	s.mu.Lock()
	if s.model == nil {
		s.mu.Unlock()
		return nil
	}
	s.issuedToken++
	token := s.issuedToken
	snapshot := cloneCues(s.model.Cues())
	filename := s.filename
	s.mu.Unlock()

	err := s.backend.SaveSubtitles(ctx, filename, snapshot, editedBy)

	s.mu.Lock()
	defer s.mu.Unlock()

	if token < s.issuedToken || token <= s.appliedToken {
		if s.logger != nil {
			s.logger.Debug("discarding stale save response", "filename", filename, "token", token)
		}
		return nil
	}

	if err != nil {
		if s.logger != nil {
			s.logger.Warn("save rejected, rolling back", "filename", filename, "error", err)
		}
		s.model.Load(s.lastGood)
		return err
	}

	s.appliedToken = token
	s.lastGood = snapshot
	s.dirty = false
	return nil
}

// DeleteCue removes a cue on the backend first and mirrors the
// deletion into the model only once the backend has acknowledged it.
func (s *Session) DeleteCue(ctx context.Context, index int) error {
	s.mu.Lock()
	if s.model == nil {
		s.mu.Unlock()
		return nil
	}
	cue, ok := s.model.Cue(index)
	filename := s.filename
	s.mu.Unlock()
	if !ok {
		return nil
	}

	if err := s.backend.DeleteSubtitle(ctx, filename, cue.SequenceNumber); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.model.RemoveCue(index)
	s.lastGood = cloneCues(s.model.Cues())
	return nil
}
