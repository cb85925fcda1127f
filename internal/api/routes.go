package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/subedit/subedit-agent/internal/export"
	"github.com/subedit/subedit-agent/internal/jobs"
	"github.com/subedit/subedit-agent/internal/store"
	"github.com/subedit/subedit-agent/internal/timeline"
)

func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(LoopbackGuard())
	r.Use(CORSAllowlist())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))

	r.Get("/health", healthHandler(cfg))

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.Repository, cfg.Logger))

		r.Get("/status", statusHandler(cfg))

		r.Get("/srts", listSRTsHandler(cfg))
		r.Get("/srts/{filename}", getSRTHandler(cfg))
		r.Get("/srts/{filename}/download", downloadSRTHandler(cfg))
		r.Put("/srts/{filename}/subtitles", saveSubtitlesHandler(cfg))
		r.Patch("/srts/{filename}/subtitles/{seq}", editSubtitleHandler(cfg))
		r.Delete("/srts/{filename}/subtitles/{seq}", deleteSubtitleHandler(cfg))

		r.Post("/jobs", createJobHandler(cfg))
		r.Get("/jobs", listJobsHandler(cfg))
		r.Get("/jobs/{id}", getJobHandler(cfg))

		r.Get("/playback/file", playbackHandler(cfg))
	})

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uptime := int64(time.Since(cfg.StartTime).Seconds())
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:   "ok",
			Version:  "0.1.0",
			UptimeS:  uptime,
			DeviceID: cfg.DeviceID,
		})
	}
}

func statusHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		files, _ := cfg.Subtitles.ListFiles(r.Context())

		state := "idle"
		var activeJob *JobResponse
		jobsRunning := 0
		lastError := ""

		if cfg.Jobs != nil {
			for _, j := range cfg.Jobs.List() {
				switch j.Status {
				case jobs.StatusProcessing, jobs.StatusMerging:
					state = "transcribing"
					resp := JobToResponse(j)
					activeJob = &resp
					jobsRunning++
				case jobs.StatusError:
					if lastError == "" {
						lastError = j.Error
					}
				}
			}
		}

		if lastError != "" && state == "idle" {
			state = "error"
		}

		WriteJSON(w, http.StatusOK, StatusResponse{
			State:       state,
			LastError:   lastError,
			FilesCount:  len(files),
			JobsRunning: jobsRunning,
			ActiveJob:   activeJob,
		})
	}
}

func listSRTsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		files, err := cfg.Subtitles.ListFiles(r.Context())
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list subtitle files", "INTERNAL_ERROR")
			return
		}

		resp := SRTListResponse{SRTs: make([]SRTResponse, len(files))}
		for i, f := range files {
			resp.SRTs[i] = SRTToResponse(f)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func getSRTHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filename := chi.URLParam(r, "filename")

		f, err := cfg.Subtitles.GetFile(r.Context(), filename)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, SRTToResponse(f))
	}
}

func downloadSRTHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filename := chi.URLParam(r, "filename")

		format, err := export.ParseFormat(r.URL.Query().Get("format"))
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}

		f, err := cfg.Subtitles.GetFile(r.Context(), filename)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		text := export.Render(format, store.SubtitlesToCues(f.Subtitles))
		w.Header().Set("Content-Type", format.ContentType())
		w.Header().Set("Content-Disposition", "attachment; filename=\""+export.DownloadName(filename, format)+"\"")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(text))
	}
}

func saveSubtitlesHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filename := chi.URLParam(r, "filename")

		var req SaveSubtitlesRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		f, err := cfg.Subtitles.SaveAll(r.Context(), filename, RequestToCues(req), req.EditedBy)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, SRTToResponse(f))
	}
}

func editSubtitleHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filename := chi.URLParam(r, "filename")
		seq, err := strconv.Atoi(chi.URLParam(r, "seq"))
		if err != nil {
			WriteError(w, http.StatusBadRequest, "sequence number must be an integer", "BAD_REQUEST")
			return
		}

		var req EditSubtitleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		sub, err := cfg.Subtitles.EditSubtitle(r.Context(), filename, seq, store.SubtitlePatch{
			StartTime: req.StartTime,
			EndTime:   req.EndTime,
			Text:      req.Text,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, SubtitleToResponse(*sub))
	}
}

func deleteSubtitleHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filename := chi.URLParam(r, "filename")
		seq, err := strconv.Atoi(chi.URLParam(r, "seq"))
		if err != nil {
			WriteError(w, http.StatusBadRequest, "sequence number must be an integer", "BAD_REQUEST")
			return
		}

		if err := cfg.Subtitles.DeleteSubtitle(r.Context(), filename, seq); err != nil {
			writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func createJobHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateJobRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		if req.Filename == "" || req.MediaPath == "" {
			WriteError(w, http.StatusBadRequest, "filename and media_path are required", "BAD_REQUEST")
			return
		}

		job := cfg.Jobs.Create(req.Filename, req.MediaPath)
		WriteJSON(w, http.StatusAccepted, JobToResponse(job))
	}
}

func listJobsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list := cfg.Jobs.List()

		resp := JobsResponse{Jobs: make([]JobResponse, len(list))}
		for i, j := range list {
			resp.Jobs[i] = JobToResponse(j)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func getJobHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		job, ok := cfg.Jobs.Get(id)
		if !ok {
			WriteError(w, http.StatusNotFound, "job not found", "NOT_FOUND")
			return
		}
		WriteJSON(w, http.StatusOK, JobToResponse(job))
	}
}

func playbackHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Query().Get("name")
		if name == "" {
			WriteError(w, http.StatusBadRequest, "name is required", "BAD_REQUEST")
			return
		}

		if err := cfg.Playback.ServeMedia(w, r, name); err != nil {
			cfg.Logger.Error("playback error", "error", err, "name", name)
		}
	}
}

// writeServiceError maps service errors onto HTTP statuses: missing
// documents to 404, rejected edits to 400, everything else to 500.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		WriteError(w, http.StatusNotFound, "not found", "NOT_FOUND")
	case errors.Is(err, timeline.ErrBadTimestamp),
		errors.Is(err, timeline.ErrEndNotAfter),
		errors.Is(err, timeline.ErrEmptyText):
		WriteError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
	default:
		WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
	}
}
