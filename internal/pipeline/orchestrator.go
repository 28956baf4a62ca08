package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/docvoice/docvoice/internal/config"
	"github.com/docvoice/docvoice/internal/tts"
)

// Orchestrator manages the narration pipeline.
type Orchestrator struct {
	jobs     *JobStore
	queue    chan *Job
	newSynth SynthesizerFactory
	stats    *tts.Stats
	log      *slog.Logger
	cfg      config.Config
	tuning   config.Tuning

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates the pipeline. Call Start to launch workers.
func NewOrchestrator(cfg config.Config, tuning config.Tuning, newSynth SynthesizerFactory, stats *tts.Stats, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		jobs:     NewJobStore(cfg.JobTTL),
		queue:    make(chan *Job, cfg.MaxQueueSize),
		newSynth: newSynth,
		stats:    stats,
		log:      log,
		cfg:      cfg,
		tuning:   tuning,
	}
}

// NewJob creates a queued job for an uploaded file, filling in configured
// defaults.
func (o *Orchestrator) NewJob(filename string, data []byte, opts Options) *Job {
	if opts.MaxChars == 0 {
		opts.MaxChars = o.cfg.DefaultMaxChars
	}
	return NewJob(filename, data, opts)
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for range o.cfg.WorkerCount {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			w := NewWorker(o.newSynth, o.stats, o.log, o.tuning, o.cfg.SampleRate, o.cfg.MaxConcurrentSynth, o.cfg.PDFFallbackPdftotext)
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					w.Process(workerCtx, job)
				}
			}
		}()
	}

	// Start job store cleanup.
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.jobs.Cleanup()
			}
		}
	}()
}

// Stop gracefully shuts down the pipeline.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	close(o.queue)
	o.wg.Wait()
}

// Submit queues a new job for processing.
func (o *Orchestrator) Submit(job *Job) error {
	o.jobs.Put(job)
	select {
	case o.queue <- job:
		return nil
	default:
		job.SetStatus(StatusFailed, "queue_full")
		return fmt.Errorf("job queue is full (%d)", o.cfg.MaxQueueSize)
	}
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// Stats returns the synthesis latency tracker.
func (o *Orchestrator) Stats() *tts.Stats {
	return o.stats
}
