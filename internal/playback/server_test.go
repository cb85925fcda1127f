package playback

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func setupMediaDir(t *testing.T) (*Server, string) {
	t.Helper()

	dir := t.TempDir()
	content := []byte("0123456789abcdefghij")
	if err := os.WriteFile(filepath.Join(dir, "episode1.mp3"), content, 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	return NewServer(dir, nil), string(content)
}

func TestResolve_RejectsEscapes(t *testing.T) {
	s, _ := setupMediaDir(t)

	for _, name := range []string{"../etc/passwd", "../../x", "a/../../b"} {
		if _, err := s.Resolve(name); err != ErrOutsideMediaDir {
			t.Errorf("Resolve(%q) error = %v, want ErrOutsideMediaDir", name, err)
		}
	}

	if _, err := s.Resolve("episode1.mp3"); err != nil {
		t.Errorf("Resolve(episode1.mp3) error = %v", err)
	}
	if _, err := s.Resolve("sub/dir/file.mp3"); err != nil {
		t.Errorf("Resolve(sub/dir/file.mp3) error = %v", err)
	}
}

func TestServeMedia_FullFile(t *testing.T) {
	s, content := setupMediaDir(t)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/playback/file", nil)

	if err := s.ServeMedia(rr, req, "episode1.mp3"); err != nil {
		t.Fatalf("ServeMedia() error = %v", err)
	}

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if rr.Header().Get("Accept-Ranges") != "bytes" {
		t.Error("Accept-Ranges header missing")
	}
	if body, _ := io.ReadAll(rr.Body); string(body) != content {
		t.Errorf("body = %q, want full content", body)
	}
}

func TestServeMedia_RangeRequest(t *testing.T) {
	s, content := setupMediaDir(t)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/playback/file", nil)
	req.Header.Set("Range", "bytes=5-9")

	if err := s.ServeMedia(rr, req, "episode1.mp3"); err != nil {
		t.Fatalf("ServeMedia() error = %v", err)
	}

	if rr.Code != http.StatusPartialContent {
		t.Fatalf("status = %d, want 206", rr.Code)
	}
	if got := rr.Header().Get("Content-Range"); got != "bytes 5-9/20" {
		t.Errorf("Content-Range = %s, want bytes 5-9/20", got)
	}
	if body, _ := io.ReadAll(rr.Body); string(body) != content[5:10] {
		t.Errorf("body = %q, want %q", body, content[5:10])
	}
}

func TestServeMedia_UnsatisfiableRange(t *testing.T) {
	s, _ := setupMediaDir(t)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/playback/file", nil)
	req.Header.Set("Range", "bytes=100-")

	if err := s.ServeMedia(rr, req, "episode1.mp3"); err != nil {
		t.Fatalf("ServeMedia() error = %v", err)
	}

	if rr.Code != http.StatusRequestedRangeNotSatisfiable {
		t.Fatalf("status = %d, want 416", rr.Code)
	}
	if got := rr.Header().Get("Content-Range"); got != "bytes */20" {
		t.Errorf("Content-Range = %s, want bytes */20", got)
	}
}

func TestServeMedia_MissingFile(t *testing.T) {
	s, _ := setupMediaDir(t)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/playback/file", nil)

	if err := s.ServeMedia(rr, req, "nope.mp3"); err != nil {
		t.Fatalf("ServeMedia() error = %v", err)
	}
	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rr.Code)
	}
}

func TestServeMedia_EscapingPath(t *testing.T) {
	s, _ := setupMediaDir(t)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/playback/file", nil)

	if err := s.ServeMedia(rr, req, "../secret"); err != nil {
		t.Fatalf("ServeMedia() error = %v", err)
	}
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}
