package store

import (
	"context"
	"database/sql"
	"time"
)

type Repository interface {
	CreateSRT(ctx context.Context, f *SubtitleFile) error
	GetSRT(ctx context.Context, id string) (*SubtitleFile, error)
	GetSRTByFilename(ctx context.Context, filename string) (*SubtitleFile, error)
	ListSRTs(ctx context.Context) ([]*SubtitleFile, error)
	DeleteSRT(ctx context.Context, id string) error
	TouchSRT(ctx context.Context, id, editedBy string) error

	ReplaceSubtitles(ctx context.Context, srtID string, subs []Subtitle) error
	GetSubtitles(ctx context.Context, srtID string) ([]Subtitle, error)
	GetSubtitle(ctx context.Context, srtID string, sequenceNumber int) (*Subtitle, error)
	UpdateSubtitle(ctx context.Context, srtID string, sequenceNumber int, patch SubtitlePatch) error
	DeleteSubtitle(ctx context.Context, srtID string, sequenceNumber int) error

	GetConfig(ctx context.Context, key string) (string, error)
	SetConfig(ctx context.Context, key, value string) error
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) CreateSRT(ctx context.Context, f *SubtitleFile) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO srts (id, filename, edited_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, f.ID, f.Filename, nullString(f.EditedBy),
		f.CreatedAt.Format(time.RFC3339), f.UpdatedAt.Format(time.RFC3339))
	return err
}

func (r *SQLiteRepository) GetSRT(ctx context.Context, id string) (*SubtitleFile, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, filename, edited_by, created_at, updated_at
		FROM srts WHERE id = ?
	`, id)
	return r.scanSRT(row)
}

func (r *SQLiteRepository) GetSRTByFilename(ctx context.Context, filename string) (*SubtitleFile, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, filename, edited_by, created_at, updated_at
		FROM srts WHERE filename = ?
	`, filename)
	return r.scanSRT(row)
}

func (r *SQLiteRepository) scanSRT(row *sql.Row) (*SubtitleFile, error) {
	var f SubtitleFile
	var editedBy sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(&f.ID, &f.Filename, &editedBy, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	f.EditedBy = editedBy.String
	f.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	f.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &f, nil
}

func (r *SQLiteRepository) ListSRTs(ctx context.Context) ([]*SubtitleFile, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, filename, edited_by, created_at, updated_at
		FROM srts ORDER BY filename
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []*SubtitleFile
	for rows.Next() {
		var f SubtitleFile
		var editedBy sql.NullString
		var createdAt, updatedAt string

		if err := rows.Scan(&f.ID, &f.Filename, &editedBy, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		f.EditedBy = editedBy.String
		f.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		f.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		files = append(files, &f)
	}
	return files, rows.Err()
}

func (r *SQLiteRepository) DeleteSRT(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM srts WHERE id = ?", id)
	return err
}

func (r *SQLiteRepository) TouchSRT(ctx context.Context, id, editedBy string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE srts SET edited_by = ?, updated_at = ? WHERE id = ?
	`, nullString(editedBy), time.Now().Format(time.RFC3339), id)
	return err
}

// ReplaceSubtitles swaps the full cue set of one document in a single
// transaction, so readers never observe a partially saved file.
func (r *SQLiteRepository) ReplaceSubtitles(ctx context.Context, srtID string, subs []Subtitle) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM subtitles WHERE srt_id = ?", srtID); err != nil {
		return err
	}

	for _, s := range subs {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO subtitles (srt_id, sequence_number, start_time, end_time, text)
			VALUES (?, ?, ?, ?, ?)
		`, srtID, s.SequenceNumber, s.StartTime, s.EndTime, s.Text)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *SQLiteRepository) GetSubtitles(ctx context.Context, srtID string) ([]Subtitle, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT srt_id, sequence_number, start_time, end_time, text
		FROM subtitles WHERE srt_id = ? ORDER BY start_time, sequence_number
	`, srtID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []Subtitle
	for rows.Next() {
		var s Subtitle
		if err := rows.Scan(&s.SRTID, &s.SequenceNumber, &s.StartTime, &s.EndTime, &s.Text); err != nil {
			return nil, err
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}

func (r *SQLiteRepository) GetSubtitle(ctx context.Context, srtID string, sequenceNumber int) (*Subtitle, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT srt_id, sequence_number, start_time, end_time, text
		FROM subtitles WHERE srt_id = ? AND sequence_number = ?
	`, srtID, sequenceNumber)

	var s Subtitle
	err := row.Scan(&s.SRTID, &s.SequenceNumber, &s.StartTime, &s.EndTime, &s.Text)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SQLiteRepository) UpdateSubtitle(ctx context.Context, srtID string, sequenceNumber int, patch SubtitlePatch) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE subtitles SET
			start_time = COALESCE(?, start_time),
			end_time = COALESCE(?, end_time),
			text = COALESCE(?, text)
		WHERE srt_id = ? AND sequence_number = ?
	`, nullStringPtr(patch.StartTime), nullStringPtr(patch.EndTime), nullStringPtr(patch.Text),
		srtID, sequenceNumber)
	return err
}

func (r *SQLiteRepository) DeleteSubtitle(ctx context.Context, srtID string, sequenceNumber int) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM subtitles WHERE srt_id = ? AND sequence_number = ?
	`, srtID, sequenceNumber)
	return err
}

func (r *SQLiteRepository) GetConfig(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, "SELECT value FROM config WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

func (r *SQLiteRepository) SetConfig(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullStringPtr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
