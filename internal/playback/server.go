package playback

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

var ErrOutsideMediaDir = errors.New("path escapes media directory")

type PlaybackService interface {
	ServeMedia(w http.ResponseWriter, r *http.Request, name string) error
}

// Server streams media files for the editor's player. Range requests
// are honored so the player can seek without downloading the whole
// file.
type Server struct {
	mediaDir string
	logger   *slog.Logger
}

func NewServer(mediaDir string, logger *slog.Logger) *Server {
	return &Server{mediaDir: mediaDir, logger: logger}
}

// Resolve maps a client-supplied name to a path under the media
// directory, rejecting anything that would escape it.
func (s *Server) Resolve(name string) (string, error) {
	cleaned := filepath.Clean(name)
	full := filepath.Join(s.mediaDir, cleaned)

	rel, err := filepath.Rel(s.mediaDir, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", ErrOutsideMediaDir
	}
	return full, nil
}

func (s *Server) ServeMedia(w http.ResponseWriter, r *http.Request, name string) error {
	path, err := s.Resolve(name)
	if err != nil {
		http.Error(w, "invalid media path", http.StatusBadRequest)
		return nil
	}

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			http.Error(w, "file not found", http.StatusNotFound)
			return nil
		}
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat file: %w", err)
	}

	size := stat.Size()
	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	w.Header().Set("Accept-Ranges", "bytes")
	w.Header().Set("Content-Type", contentType)

	parsedRange, err := ParseRange(r.Header.Get("Range"), size)

	if err == ErrUnsatisfiable {
		w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", size))
		http.Error(w, "Range Not Satisfiable", http.StatusRequestedRangeNotSatisfiable)
		return nil
	}

	// An invalid Range header degrades to a full response.
	if err != nil && err != ErrInvalidRange {
		return err
	}

	if parsedRange == nil {
		w.Header().Set("Content-Length", fmt.Sprintf("%d", size))
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodHead {
			return nil
		}
		io.Copy(w, file)
		return nil
	}

	w.Header().Set("Content-Length", fmt.Sprintf("%d", parsedRange.ContentLength()))
	w.Header().Set("Content-Range", parsedRange.ContentRange(size))
	w.WriteHeader(http.StatusPartialContent)
	if r.Method == http.MethodHead {
		return nil
	}

	if _, err := file.Seek(parsedRange.Start, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek: %w", err)
	}

	io.CopyN(w, file, parsedRange.ContentLength())

	if s.logger != nil {
		s.logger.Debug("served media range",
			"name", name, "start", parsedRange.Start, "end", parsedRange.End)
	}
	return nil
}
