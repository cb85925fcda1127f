package watcher

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/subedit/subedit-agent/internal/jobs"
	"github.com/subedit/subedit-agent/internal/srt"
	"github.com/subedit/subedit-agent/internal/store"
)

type fakeSubtitles struct {
	existing map[string]bool
}

func (f *fakeSubtitles) ListFiles(ctx context.Context) ([]*store.SubtitleFile, error) {
	return nil, nil
}

func (f *fakeSubtitles) GetFile(ctx context.Context, filename string) (*store.SubtitleFile, error) {
	if f.existing[filename] {
		return &store.SubtitleFile{Filename: filename}, nil
	}
	return nil, store.ErrNotFound
}

func (f *fakeSubtitles) SaveAll(ctx context.Context, filename string, cues []srt.Cue, editedBy string) (*store.SubtitleFile, error) {
	return nil, store.ErrNotFound
}

func (f *fakeSubtitles) EditSubtitle(ctx context.Context, filename string, sequenceNumber int, patch store.SubtitlePatch) (*store.Subtitle, error) {
	return nil, store.ErrNotFound
}

func (f *fakeSubtitles) DeleteSubtitle(ctx context.Context, filename string, sequenceNumber int) error {
	return store.ErrNotFound
}

func (f *fakeSubtitles) Export(ctx context.Context, filename string) (string, error) {
	return "", store.ErrNotFound
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func touch(t *testing.T, dir, name string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
		t.Fatalf("cannot create %s: %v", name, err)
	}
}

func TestScan_QueuesNewMedia(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "episode1.mp4")
	touch(t, dir, "notes.txt")

	m := jobs.NewManager(nil)
	w := New(dir, m, &fakeSubtitles{}, testLogger())

	w.Scan(context.Background())

	list := m.List()
	if len(list) != 1 {
		t.Fatalf("job count = %d, want 1", len(list))
	}
	if list[0].Filename != "episode1.srt" {
		t.Errorf("job filename = %s, want episode1.srt", list[0].Filename)
	}
	if list[0].MediaPath != filepath.Join(dir, "episode1.mp4") {
		t.Errorf("job media path = %s", list[0].MediaPath)
	}
}

func TestScan_SkipsMediaWithSubtitles(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "episode1.mp4")

	m := jobs.NewManager(nil)
	svc := &fakeSubtitles{existing: map[string]bool{"episode1.srt": true}}
	w := New(dir, m, svc, testLogger())

	w.Scan(context.Background())

	if got := len(m.List()); got != 0 {
		t.Fatalf("job count = %d, want 0", got)
	}
}

func TestScan_DoesNotRequeueAcrossScans(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "episode1.mp4")

	m := jobs.NewManager(nil)
	w := New(dir, m, &fakeSubtitles{}, testLogger())

	ctx := context.Background()
	w.Scan(ctx)
	w.Scan(ctx)

	if got := len(m.List()); got != 1 {
		t.Fatalf("job count = %d, want 1", got)
	}
}

func TestScan_MissingDirIsQuiet(t *testing.T) {
	m := jobs.NewManager(nil)
	w := New("/nonexistent/media", m, &fakeSubtitles{}, testLogger())

	// Must be a no-op, not a crash.
	w.Scan(context.Background())
	if got := len(m.List()); got != 0 {
		t.Fatalf("job count = %d, want 0", got)
	}
}

func TestIsMediaFile(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"a.mp4", true},
		{"a.MKV", true},
		{"a.wav", true},
		{"a.srt", false},
		{"a.txt", false},
		{"noext", false},
	}
	for _, tt := range tests {
		if got := IsMediaFile(tt.name); got != tt.want {
			t.Errorf("IsMediaFile(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestSubtitleName(t *testing.T) {
	if got := SubtitleName("episode1.mp4"); got != "episode1.srt" {
		t.Errorf("SubtitleName(episode1.mp4) = %s, want episode1.srt", got)
	}
	if got := SubtitleName("show.s01e02.mkv"); got != "show.s01e02.srt" {
		t.Errorf("SubtitleName(show.s01e02.mkv) = %s", got)
	}
}
