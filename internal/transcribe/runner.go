package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

const (
	maxStderrBytes = 8 * 1024 // 8 KB tail of stderr kept for diagnostics
)

// Prober exposes the doctor probe separately from transcription so the
// cached wrapper can fake it in tests.
type Prober interface {
	RunDoctor(ctx context.Context) (*Capabilities, error)
}

// Config holds the subprocess transcriber's configuration.
type Config struct {
	PythonPath    string        // path to python binary; empty = auto-detect
	ModuleName    string        // default "subedit_speech"
	WorkBase      string        // base dir for manifests and chunk files
	DoctorTimeout time.Duration // timeout for doctor command
	SpeechTimeout time.Duration // timeout for one transcription run
	Logger        *slog.Logger
	DebugPaths    bool // if true, log full file paths; otherwise sanitise
}

// DefaultConfig returns production-ready defaults.
func DefaultConfig(dataDir string, logger *slog.Logger) Config {
	return Config{
		PythonPath:    "", // auto-detect
		ModuleName:    "subedit_speech",
		WorkBase:      filepath.Join(dataDir, "transcribe"),
		DoctorTimeout: 30 * time.Second,
		SpeechTimeout: 30 * time.Minute,
		Logger:        logger,
		DebugPaths:    false,
	}
}

// SubprocessTranscriber shells out to the speech CLI. It satisfies the
// job runner's Transcriber contract.
type SubprocessTranscriber struct {
	cfg    Config
	python string // resolved python path
}

// New creates a SubprocessTranscriber, resolving the Python binary path.
func New(cfg Config) (*SubprocessTranscriber, error) {
	python, err := resolvePython(cfg.PythonPath)
	if err != nil {
		return nil, fmt.Errorf("cannot locate python: %w", err)
	}

	if err := os.MkdirAll(cfg.WorkBase, 0755); err != nil {
		return nil, fmt.Errorf("cannot create work dir: %w", err)
	}

	cfg.Logger.Info("transcriber initialised",
		"python", python,
		"module", cfg.ModuleName,
		"work_dir", cfg.WorkBase,
	)

	return &SubprocessTranscriber{cfg: cfg, python: python}, nil
}

// RunDoctor probes the installed speech environment.
func (t *SubprocessTranscriber) RunDoctor(ctx context.Context) (*Capabilities, error) {
	outPath := filepath.Join(t.cfg.WorkBase, ".doctor.json")

	ctx, cancel := context.WithTimeout(ctx, t.cfg.DoctorTimeout)
	defer cancel()

	result := t.exec(ctx, outPath, "doctor", "--json", "--out", outPath)
	if !result.IsSuccess() {
		return nil, fmt.Errorf("doctor exited %d: %s", result.ExitCode, result.StderrTail)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("cannot read doctor output: %w", err)
	}

	var caps Capabilities
	if err := json.Unmarshal(data, &caps); err != nil {
		return nil, fmt.Errorf("cannot parse doctor JSON: %w", err)
	}

	caps.HasSpeech = isAvailable(caps.Dependencies, "whisper") &&
		isAvailable(caps.Executables, "ffmpeg")
	caps.ProbedAt = time.Now()

	t.cfg.Logger.Info("doctor probe complete",
		"speech", caps.HasSpeech,
		"deps_available", caps.Summary.Available,
		"deps_total", caps.Summary.Total,
	)

	return &caps, nil
}

// Transcribe runs the speech CLI on one media file and returns the raw
// SRT text of each chunk in order.
func (t *SubprocessTranscriber) Transcribe(ctx context.Context, mediaPath string, progress func(int)) ([]string, error) {
	if progress != nil {
		progress(5)
	}

	runDir, err := os.MkdirTemp(t.cfg.WorkBase, "run-")
	if err != nil {
		return nil, fmt.Errorf("cannot create run dir: %w", err)
	}
	defer os.RemoveAll(runDir)

	manifestPath := filepath.Join(runDir, "manifest.json")

	ctx, cancel := context.WithTimeout(ctx, t.cfg.SpeechTimeout)
	defer cancel()

	result := t.exec(ctx, manifestPath,
		"transcribe",
		"--media", mediaPath,
		"--out", manifestPath,
	)
	if !result.IsSuccess() {
		return nil, fmt.Errorf("transcribe exited %d: %s", result.ExitCode, truncate(result.StderrTail, 512))
	}
	if progress != nil {
		progress(80)
	}

	manifest, err := readManifest(manifestPath)
	if err != nil {
		return nil, err
	}

	return t.loadChunks(runDir, manifest, progress)
}

// readManifest reads a transcription manifest and checks required fields.
func readManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("cannot parse manifest JSON: %w", err)
	}

	if !m.RequiredFieldsPresent() {
		missing := []string{}
		if m.SchemaVersion == "" {
			missing = append(missing, "schema_version")
		}
		if m.PipelineVersion == "" {
			missing = append(missing, "pipeline_version")
		}
		if m.ModelVersion == "" {
			missing = append(missing, "model_version")
		}
		return &m, fmt.Errorf("manifest missing required fields: %s", strings.Join(missing, ", "))
	}

	return &m, nil
}

// loadChunks reads each chunk SRT file listed in the manifest. Chunk
// paths are taken relative to the run directory; absolute paths are
// rejected so a manifest cannot point outside its own run.
func (t *SubprocessTranscriber) loadChunks(runDir string, m *Manifest, progress func(int)) ([]string, error) {
	if len(m.Chunks) == 0 {
		return nil, fmt.Errorf("manifest lists no chunks")
	}

	chunks := make([]string, 0, len(m.Chunks))
	for i, rel := range m.Chunks {
		if filepath.IsAbs(rel) || strings.Contains(rel, "..") {
			return nil, fmt.Errorf("manifest chunk path %q is not relative to the run", rel)
		}
		data, err := os.ReadFile(filepath.Join(runDir, rel))
		if err != nil {
			return nil, fmt.Errorf("cannot read chunk %d: %w", i, err)
		}
		chunks = append(chunks, string(data))

		if progress != nil {
			progress(80 + (i+1)*15/len(m.Chunks))
		}
	}
	return chunks, nil
}

// exec is the core subprocess execution helper.
func (t *SubprocessTranscriber) exec(ctx context.Context, outPath string, args ...string) RunResult {
	start := time.Now()

	if outPath != "" {
		if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
			t.cfg.Logger.Error("cannot create output dir", "error", err)
			return RunResult{ExitCode: -1, StderrTail: err.Error(), Duration: time.Since(start)}
		}
	}

	cmdArgs := append([]string{"-m", t.cfg.ModuleName}, args...)
	cmd := exec.CommandContext(ctx, t.python, cmdArgs...)

	// Capture stderr with bounded buffer
	var stderrBuf bytes.Buffer
	cmd.Stderr = io.Writer(&limitedWriter{w: &stderrBuf, limit: maxStderrBytes})
	cmd.Stdout = io.Discard // CLI writes to --out file, not stdout

	t.cfg.Logger.Info("executing speech command", "args", cmdArgs)

	err := cmd.Run()
	elapsed := time.Since(start)

	exitCode := 0
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			exitCode = -1
		}
	}

	stderrTail := stderrBuf.String()

	if exitCode != 0 {
		t.cfg.Logger.Warn("speech command failed",
			"exit_code", exitCode,
			"duration_ms", elapsed.Milliseconds(),
			"stderr_tail", truncate(stderrTail, 512),
		)
	} else {
		t.cfg.Logger.Info("speech command succeeded",
			"duration_ms", elapsed.Milliseconds(),
			"output", t.safePath(outPath),
		)
	}

	return RunResult{
		ExitCode:   exitCode,
		OutputPath: outPath,
		StderrTail: stderrTail,
		Duration:   elapsed,
	}
}

func (t *SubprocessTranscriber) safePath(path string) string {
	if t.cfg.DebugPaths {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Base(path)
	}
	if strings.HasPrefix(path, home) {
		return "~" + path[len(home):]
	}
	return filepath.Base(path)
}

// resolvePython finds a usable python binary.
func resolvePython(preferred string) (string, error) {
	if preferred != "" {
		if p, err := exec.LookPath(preferred); err == nil {
			return p, nil
		}
		return "", fmt.Errorf("configured python %q not found", preferred)
	}
	for _, name := range []string{"python3", "python"} {
		if p, err := exec.LookPath(name); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("no python binary found on PATH (tried python3, python)")
}

func isAvailable(deps map[string]DepInfo, name string) bool {
	d, ok := deps[name]
	return ok && d.Available
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return "..." + s[len(s)-maxLen:]
}

// limitedWriter is an io.Writer that keeps only the last `limit` bytes.
type limitedWriter struct {
	w     *bytes.Buffer
	limit int
}

func (lw *limitedWriter) Write(p []byte) (int, error) {
	n := len(p)
	lw.w.Write(p)
	if lw.w.Len() > lw.limit {
		// Keep only the tail
		b := lw.w.Bytes()
		lw.w.Reset()
		lw.w.Write(b[len(b)-lw.limit:])
	}
	return n, nil
}
