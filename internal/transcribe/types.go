// Package transcribe runs the subedit-speech Python CLI as a subprocess
// to turn media files into chunked SRT documents, with structured result
// parsing and a doctor probe for environment capabilities.
package transcribe

import "time"

// Capabilities represents what the installed speech environment can do,
// as reported by the `doctor --json` command.
type Capabilities struct {
	PackageVersion string             `json:"package_version"`
	Python         PythonInfo         `json:"python"`
	Dependencies   map[string]DepInfo `json:"dependencies"`
	Executables    map[string]DepInfo `json:"executables"`
	Summary        SummaryInfo        `json:"summary"`

	HasSpeech bool      `json:"-"`
	ProbedAt  time.Time `json:"-"`
}

// PythonInfo holds Python runtime information.
type PythonInfo struct {
	Version    string `json:"version"`
	Executable string `json:"executable"`
}

// DepInfo represents the availability status of a single dependency.
type DepInfo struct {
	Available bool   `json:"available"`
	Version   string `json:"version,omitempty"`
	Path      string `json:"path,omitempty"`
	Error     string `json:"error,omitempty"`
}

// SummaryInfo summarises overall dependency status.
type SummaryInfo struct {
	Available int  `json:"available"`
	Total     int  `json:"total"`
	AllOK     bool `json:"all_ok"`
}

// RunResult is the structured outcome of executing a subprocess.
type RunResult struct {
	ExitCode   int           `json:"exit_code"`
	OutputPath string        `json:"output_path,omitempty"`
	StderrTail string        `json:"stderr_tail,omitempty"`
	Duration   time.Duration `json:"duration"`
}

// IsSuccess returns true when the subprocess exited cleanly.
func (r RunResult) IsSuccess() bool { return r.ExitCode == 0 }

// Manifest is the JSON document the transcribe command writes,
// pointing at the SRT chunk files it produced.
type Manifest struct {
	SchemaVersion   string   `json:"schema_version"`
	PipelineVersion string   `json:"pipeline_version"`
	ModelVersion    string   `json:"model_version"`
	MediaDurationS  float64  `json:"media_duration_s,omitempty"`
	Chunks          []string `json:"chunks"`
}

// RequiredFieldsPresent checks the hard invariants the agent enforces
// before trusting a manifest.
func (m Manifest) RequiredFieldsPresent() bool {
	return m.SchemaVersion != "" && m.PipelineVersion != "" && m.ModelVersion != ""
}
