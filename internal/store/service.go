package store

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/subedit/subedit-agent/internal/srt"
	"github.com/subedit/subedit-agent/internal/timeline"
)

var ErrNotFound = errors.New("not found")

type SubtitleService interface {
	ListFiles(ctx context.Context) ([]*SubtitleFile, error)
	GetFile(ctx context.Context, filename string) (*SubtitleFile, error)
	SaveAll(ctx context.Context, filename string, cues []srt.Cue, editedBy string) (*SubtitleFile, error)
	EditSubtitle(ctx context.Context, filename string, sequenceNumber int, patch SubtitlePatch) (*Subtitle, error)
	DeleteSubtitle(ctx context.Context, filename string, sequenceNumber int) error
	Export(ctx context.Context, filename string) (string, error)
}

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

func (s *Service) ListFiles(ctx context.Context) ([]*SubtitleFile, error) {
	return s.repo.ListSRTs(ctx)
}

// GetFile returns the document with its cues ordered by start time.
func (s *Service) GetFile(ctx context.Context, filename string) (*SubtitleFile, error) {
	f, err := s.repo.GetSRTByFilename(ctx, filename)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, ErrNotFound
	}

	subs, err := s.repo.GetSubtitles(ctx, f.ID)
	if err != nil {
		return nil, err
	}
	f.Subtitles = subs
	return f, nil
}

// SaveAll replaces the complete cue set of a document, creating the
// document on first save. Every cue is validated before anything is
// written.
func (s *Service) SaveAll(ctx context.Context, filename string, cues []srt.Cue, editedBy string) (*SubtitleFile, error) {
	for _, c := range cues {
		if err := timeline.ValidateCueEdit(c.Start, c.End, c.Text); err != nil {
			return nil, err
		}
	}

	f, err := s.repo.GetSRTByFilename(ctx, filename)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if f == nil {
		f = &SubtitleFile{
			ID:        NewID(),
			Filename:  filename,
			EditedBy:  editedBy,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.repo.CreateSRT(ctx, f); err != nil {
			return nil, err
		}
	}

	if err := s.repo.ReplaceSubtitles(ctx, f.ID, CuesToSubtitles(f.ID, cues)); err != nil {
		return nil, err
	}
	if err := s.repo.TouchSRT(ctx, f.ID, editedBy); err != nil {
		return nil, err
	}

	f.EditedBy = editedBy
	f.UpdatedAt = now
	f.Subtitles = CuesToSubtitles(f.ID, cues)

	if s.logger != nil {
		s.logger.Info("subtitles saved", "filename", filename, "count", len(cues))
	}
	return f, nil
}

// EditSubtitle applies a partial update to one cue. The patched cue is
// validated as a whole, so a start edit that crosses the existing end
// is rejected.
func (s *Service) EditSubtitle(ctx context.Context, filename string, sequenceNumber int, patch SubtitlePatch) (*Subtitle, error) {
	f, err := s.repo.GetSRTByFilename(ctx, filename)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, ErrNotFound
	}

	sub, err := s.repo.GetSubtitle(ctx, f.ID, sequenceNumber)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, ErrNotFound
	}

	if patch.StartTime != nil {
		sub.StartTime = *patch.StartTime
	}
	if patch.EndTime != nil {
		sub.EndTime = *patch.EndTime
	}
	if patch.Text != nil {
		sub.Text = *patch.Text
	}
	if err := timeline.ValidateCueEdit(sub.StartTime, sub.EndTime, sub.Text); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateSubtitle(ctx, f.ID, sequenceNumber, patch); err != nil {
		return nil, err
	}
	if err := s.repo.TouchSRT(ctx, f.ID, f.EditedBy); err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.Info("subtitle edited", "filename", filename, "sequence_number", sequenceNumber)
	}
	return sub, nil
}

func (s *Service) DeleteSubtitle(ctx context.Context, filename string, sequenceNumber int) error {
	f, err := s.repo.GetSRTByFilename(ctx, filename)
	if err != nil {
		return err
	}
	if f == nil {
		return ErrNotFound
	}

	sub, err := s.repo.GetSubtitle(ctx, f.ID, sequenceNumber)
	if err != nil {
		return err
	}
	if sub == nil {
		return ErrNotFound
	}

	if err := s.repo.DeleteSubtitle(ctx, f.ID, sequenceNumber); err != nil {
		return err
	}
	if err := s.repo.TouchSRT(ctx, f.ID, f.EditedBy); err != nil {
		return err
	}

	if s.logger != nil {
		s.logger.Info("subtitle deleted", "filename", filename, "sequence_number", sequenceNumber)
	}
	return nil
}

// Export renders the stored document back to SRT text.
func (s *Service) Export(ctx context.Context, filename string) (string, error) {
	f, err := s.GetFile(ctx, filename)
	if err != nil {
		return "", err
	}
	return srt.Serialize(SubtitlesToCues(f.Subtitles)), nil
}
