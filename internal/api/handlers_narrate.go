package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/docvoice/docvoice/internal/parser"
	"github.com/docvoice/docvoice/internal/pipeline"
)

func (s *Server) handleNarrate(w http.ResponseWriter, r *http.Request) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !parser.IsSupportedExtension(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	opts, err := parseNarrateOptions(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	job := s.orchestrator.NewJob(filename, data, opts)
	if title := r.FormValue("title"); title != "" {
		job.Title = title
	}

	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":    job.ID,
		"status":    job.Status,
		"poll_url":  fmt.Sprintf("/api/narrate/%s/status", job.ID),
		"audio_url": fmt.Sprintf("/api/narrate/%s/audio", job.ID),
	})
}

// parseNarrateOptions reads the optional narration form fields. Invalid
// values reject the request rather than falling back to defaults.
func parseNarrateOptions(r *http.Request) (pipeline.Options, error) {
	var opts pipeline.Options

	if v := r.FormValue("max_chars"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return opts, fmt.Errorf("max_chars must be a positive integer, got %q", v)
		}
		opts.MaxChars = n
	}

	if v := r.FormValue("pages"); v != "" {
		pr, err := parsePageRange(v)
		if err != nil {
			return opts, err
		}
		opts.Pages = pr
	}

	opts.Voice = r.FormValue("voice")

	if v := r.FormValue("speed"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 {
			return opts, fmt.Errorf("speed must be a positive number, got %q", v)
		}
		opts.Speed = f
	}

	return opts, nil
}

// parsePageRange parses "start:stop" (zero-based, stop exclusive).
func parsePageRange(v string) (*pipeline.PageRange, error) {
	start, stop, ok := strings.Cut(v, ":")
	if !ok {
		return nil, fmt.Errorf("pages must be start:stop, got %q", v)
	}
	a, err := strconv.Atoi(start)
	if err != nil {
		return nil, fmt.Errorf("invalid page start %q", start)
	}
	b, err := strconv.Atoi(stop)
	if err != nil {
		return nil, fmt.Errorf("invalid page stop %q", stop)
	}
	pr := &pipeline.PageRange{Start: a, Stop: b}
	if err := pr.Validate(); err != nil {
		return nil, err
	}
	return pr, nil
}

func (s *Server) handleNarrateStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	snap := job.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":   snap.ID,
		"status":   snap.Status,
		"phase":    snap.Phase,
		"title":    snap.Title,
		"progress": snap.Progress,
	})
}

func (s *Server) handleNarrateAudio(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	snap := job.Snapshot()
	if snap.Status != pipeline.StatusCompleted {
		jsonError(w, fmt.Sprintf("job is %s, audio not ready", snap.Status), http.StatusConflict)
		return
	}
	data := job.Audio()
	if data == nil {
		jsonError(w, "audio expired", http.StatusGone)
		return
	}

	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", wavFilename(snap.Filename)))
	w.Write(data)
}

func wavFilename(input string) string {
	base := strings.TrimSuffix(input, filepath.Ext(input))
	if base == "" {
		base = "narration"
	}
	return base + ".wav"
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
