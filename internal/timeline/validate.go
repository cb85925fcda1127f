package timeline

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/subedit/subedit-agent/internal/srt"
)

var (
	ErrBadTimestamp = errors.New("time must match HH:MM:SS,mmm")
	ErrEndNotAfter  = errors.New("end time must be after start time")
	ErrEmptyText    = errors.New("subtitle text is required")
)

var strictTimestamp = regexp.MustCompile(`^\d{2}:\d{2}:\d{2}[,.]\d{3}$`)

// ValidateTimestamp enforces the exact manual-edit format. Unlike the
// permissive parser, anything that is not HH:MM:SS,mmm (comma or dot)
// is rejected with a user-facing error.
func ValidateTimestamp(value string) error {
	if !strictTimestamp.MatchString(strings.TrimSpace(value)) {
		return fmt.Errorf("%w: %q", ErrBadTimestamp, value)
	}
	return nil
}

// ValidateCueEdit checks a manual edit before it is committed to the
// model: both timestamps well-formed, end strictly after start, text
// non-empty. Out-of-order times are rejected, not silently corrected.
func ValidateCueEdit(start, end, text string) error {
	if err := ValidateTimestamp(start); err != nil {
		return err
	}
	if err := ValidateTimestamp(end); err != nil {
		return err
	}
	s, err := srt.TimeToSeconds(strings.TrimSpace(start))
	if err != nil {
		return fmt.Errorf("%w: %q", ErrBadTimestamp, start)
	}
	e, err := srt.TimeToSeconds(strings.TrimSpace(end))
	if err != nil {
		return fmt.Errorf("%w: %q", ErrBadTimestamp, end)
	}
	if e <= s {
		return ErrEndNotAfter
	}
	if strings.TrimSpace(text) == "" {
		return ErrEmptyText
	}
	return nil
}
