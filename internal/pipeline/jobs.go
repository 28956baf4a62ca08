package pipeline

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrEmptyOutput marks a document where every line was filtered out before
// chunking. Callers distinguish it from malformed input.
var ErrEmptyOutput = errors.New("no narratable text in document")

// JobStatus represents the state of a narration job.
type JobStatus string

const (
	StatusQueued         JobStatus = "queued"
	StatusParsing        JobStatus = "parsing"
	StatusClassifying    JobStatus = "classifying"
	StatusReconstructing JobStatus = "reconstructing"
	StatusChunking       JobStatus = "chunking"
	StatusSynthesizing   JobStatus = "synthesizing"
	StatusEncoding       JobStatus = "encoding"
	StatusCompleted      JobStatus = "completed"
	StatusFailed         JobStatus = "failed"
)

// PageRange selects pages [Start, Stop), zero-based.
type PageRange struct {
	Start int `json:"start"`
	Stop  int `json:"stop"`
}

func (r PageRange) Validate() error {
	if r.Start < 0 {
		return fmt.Errorf("page range start %d is negative", r.Start)
	}
	if r.Stop <= r.Start {
		return fmt.Errorf("page range [%d,%d) is empty", r.Start, r.Stop)
	}
	return nil
}

// ProgressFunc is called after each chunk is synthesized with the zero-based
// chunk index and the total chunk count.
type ProgressFunc func(index, total int)

// Options are the per-job narration settings.
type Options struct {
	MaxChars int        `json:"max_chars"`
	Pages    *PageRange `json:"pages,omitempty"`
	Voice    string     `json:"voice,omitempty"`
	Speed    float64    `json:"speed,omitempty"`

	// OnProgress is invoked from the worker goroutine; not serialized.
	OnProgress ProgressFunc `json:"-"`
}

// NewJob creates a queued job for a raw input file.
func NewJob(filename string, data []byte, opts Options) *Job {
	now := time.Now()
	job := &Job{
		ID:        generateULID(),
		Status:    StatusQueued,
		Phase:     "queued",
		Filename:  filename,
		Options:   opts,
		CreatedAt: now,
		UpdatedAt: now,
	}
	job.SetFileData(data)
	return job
}

// Job tracks the state of a single narration.
type Job struct {
	mu sync.Mutex

	ID       string    `json:"job_id"`
	Status   JobStatus `json:"status"`
	Phase    string    `json:"phase"`
	Filename string    `json:"filename"`
	Title    string    `json:"title"`

	Options  Options  `json:"options"`
	Progress Progress `json:"progress"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Internal: not serialized.
	fileData  []byte
	audioData []byte
	errors    []string
}

// Progress tracks synthesis progress.
type Progress struct {
	TotalChunks       int      `json:"total_chunks"`
	ChunksSynthesized int      `json:"chunks_synthesized"`
	OversizedChunks   int      `json:"oversized_chunks"`
	AudioSeconds      float64  `json:"audio_seconds"`
	Errors            []string `json:"errors"`
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		if now.Sub(job.UpdatedAt) > s.ttl {
			delete(s.jobs, id)
		}
	}
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// IncrChunksSynthesized atomically increments the synthesized count.
func (j *Job) IncrChunksSynthesized() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.ChunksSynthesized++
	j.UpdatedAt = time.Now()
}

// SetTotalChunks records total and oversized chunk counts.
func (j *Job) SetTotalChunks(total, oversized int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.TotalChunks = total
	j.Progress.OversizedChunks = oversized
	j.UpdatedAt = time.Now()
}

// SetFileData sets the raw input bytes for processing.
func (j *Job) SetFileData(data []byte) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fileData = data
}

// FileData returns the raw input bytes.
func (j *Job) FileData() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.fileData
}

// SetAudio stores the encoded WAV output and its duration. The input bytes
// are released at the same time.
func (j *Job) SetAudio(data []byte, seconds float64) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.audioData = data
	j.Progress.AudioSeconds = seconds
	j.fileData = nil
	j.UpdatedAt = time.Now()
}

// Audio returns the encoded WAV output, or nil if not yet available.
func (j *Job) Audio() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.audioData
}

// SetTitle records the parsed document title.
func (j *Job) SetTitle(title string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Title = title
	j.UpdatedAt = time.Now()
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID       string    `json:"job_id"`
	Status   JobStatus `json:"status"`
	Phase    string    `json:"phase"`
	Filename string    `json:"filename"`
	Title    string    `json:"title"`
	Options  Options   `json:"options"`
	Progress Progress  `json:"progress"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := j.Progress.Errors
	if errs == nil {
		errs = []string{}
	}
	return JobSnapshot{
		ID:       j.ID,
		Status:   j.Status,
		Phase:    j.Phase,
		Filename: j.Filename,
		Title:    j.Title,
		Options:  j.Options,
		Progress: Progress{
			TotalChunks:       j.Progress.TotalChunks,
			ChunksSynthesized: j.Progress.ChunksSynthesized,
			OversizedChunks:   j.Progress.OversizedChunks,
			AudioSeconds:      j.Progress.AudioSeconds,
			Errors:            errs,
		},
	}
}
