package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/docvoice/docvoice/internal/audio"
	"github.com/docvoice/docvoice/internal/chunker"
	"github.com/docvoice/docvoice/internal/classify"
	"github.com/docvoice/docvoice/internal/clean"
	"github.com/docvoice/docvoice/internal/config"
	"github.com/docvoice/docvoice/internal/layout"
	"github.com/docvoice/docvoice/internal/parser"
	"github.com/docvoice/docvoice/internal/reconstruct"
	"github.com/docvoice/docvoice/internal/tts"
)

// Synthesizer converts one text chunk to audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (audio.Clip, error)
}

// SynthesizerFactory builds a Synthesizer for a job's voice settings. Empty
// voice or zero speed mean the configured defaults.
type SynthesizerFactory func(voice string, speed float64) Synthesizer

// Worker processes a single narration job.
type Worker struct {
	newSynth SynthesizerFactory
	stats    *tts.Stats
	log      *slog.Logger
	tuning   config.Tuning

	sampleRate         int
	maxConcurrentSynth int
	pdfFallback        bool
}

func NewWorker(newSynth SynthesizerFactory, stats *tts.Stats, log *slog.Logger, tuning config.Tuning, sampleRate, maxSynth int, pdfFallback bool) *Worker {
	if maxSynth <= 0 {
		maxSynth = 1
	}
	if sampleRate <= 0 {
		sampleRate = audio.DefaultSampleRate
	}
	return &Worker{
		newSynth:           newSynth,
		stats:              stats,
		log:                log,
		tuning:             tuning,
		sampleRate:         sampleRate,
		maxConcurrentSynth: maxSynth,
		pdfFallback:        pdfFallback,
	}
}

// Process runs the full narration pipeline for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "filename", job.Filename)

	// Phase 1: Parse
	job.SetStatus(StatusParsing, "parsing")
	doc, err := w.parse(job)
	if err != nil {
		log.Error("parse failed", "error", err)
		job.AddError(fmt.Sprintf("parse: %s", err))
		job.SetStatus(StatusFailed, "parsing")
		return
	}
	if job.Title == "" {
		job.SetTitle(doc.Title)
	}

	// Phase 2: Layout analysis for page-based input; structured formats
	// arrive as paragraphs and skip straight to chunking.
	paras := doc.Paragraphs
	if len(doc.Lines) > 0 {
		job.SetStatus(StatusClassifying, "classifying")
		classified, stats := w.classify(doc.Lines)

		job.SetStatus(StatusReconstructing, "reconstructing")
		paras = reconstruct.Collect(classified, stats, w.tuning.ReconstructConfig())
		paras = clean.Clean(paras, w.tuning.CleanConfig())
		log.Info("reconstructed text", "lines", len(doc.Lines), "paragraphs", len(paras))
	}

	// Phase 3: Chunk
	job.SetStatus(StatusChunking, "chunking")
	chunkCfg := w.tuning.ChunkConfig(job.Options.MaxChars)
	if err := chunkCfg.Validate(); err != nil {
		log.Error("invalid chunk settings", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "chunking")
		return
	}
	chunks := chunker.Collect(paras, chunkCfg)
	oversized := 0
	for _, c := range chunks {
		if c.Oversized {
			oversized++
		}
	}
	job.SetTotalChunks(len(chunks), oversized)
	log.Info("chunked document", "chunks", len(chunks), "oversized", oversized)

	if len(chunks) == 0 {
		log.Warn("no narratable text")
		job.AddError(ErrEmptyOutput.Error())
		job.SetStatus(StatusFailed, "chunking")
		return
	}

	// Phase 4: Synthesize chunks with bounded concurrency. Clips are
	// written by index so output order matches chunk order.
	job.SetStatus(StatusSynthesizing, "synthesizing")
	synth := w.newSynth(job.Options.Voice, job.Options.Speed)

	type synthResult struct {
		idx int
		err error
	}
	clips := make([]audio.Clip, len(chunks))
	results := make(chan synthResult, len(chunks))
	sem := make(chan struct{}, w.maxConcurrentSynth)

	for i, chunk := range chunks {
		sem <- struct{}{}
		go func(i int, text string) {
			defer func() { <-sem }()
			clip, err := w.synthesizeChunk(ctx, synth, text)
			if err == nil {
				clips[i] = clip
			}
			results <- synthResult{idx: i, err: err}
		}(i, chunk.Text)
	}

	// Completions arrive in any order; progress notifications must walk the
	// chunk indices in order, so buffer them and release the contiguous
	// prefix as it fills in.
	failed := false
	done := make([]bool, len(chunks))
	notified := 0
	for range chunks {
		r := <-results
		if r.err != nil {
			log.Error("synthesis failed", "chunk", r.idx, "error", r.err)
			job.AddError(fmt.Sprintf("chunk %d: %s", r.idx, r.err))
			failed = true
			continue
		}
		job.IncrChunksSynthesized()
		done[r.idx] = true
		for notified < len(done) && done[notified] {
			if job.Options.OnProgress != nil {
				job.Options.OnProgress(notified, len(chunks))
			}
			notified++
		}
	}
	if failed {
		job.SetStatus(StatusFailed, "synthesizing")
		return
	}

	// Phase 5: Assemble and encode.
	job.SetStatus(StatusEncoding, "encoding")
	full := audio.Concat(clips, w.sampleRate, audio.GapDuration)
	wavData, err := audio.EncodeWAVBytes(full)
	if err != nil {
		log.Error("encode failed", "error", err)
		job.AddError(fmt.Sprintf("encode: %s", err))
		job.SetStatus(StatusFailed, "encoding")
		return
	}

	job.SetAudio(wavData, full.Duration().Seconds())
	job.SetStatus(StatusCompleted, "done")
	log.Info("narration complete", "chunks", len(chunks), "audio_seconds", full.Duration().Seconds())
}

func (w *Worker) parse(job *Job) (*parser.Document, error) {
	p, err := parser.ForFile(job.Filename)
	if err != nil {
		return nil, err
	}
	if pdfP, ok := p.(*parser.PDFParser); ok {
		pdfP.FallbackPdftotext = w.pdfFallback
		if pr := job.Options.Pages; pr != nil {
			if err := pr.Validate(); err != nil {
				return nil, err
			}
			pdfP.Pages = &[2]int{pr.Start, pr.Stop}
		}
	} else if job.Options.Pages != nil {
		return nil, fmt.Errorf("page selection only applies to pdf input")
	}
	return p.Parse(bytes.NewReader(job.FileData()), job.Filename)
}

// classify runs the layout rules over all lines, page by page, preserving
// reading order.
func (w *Worker) classify(lines []layout.Line) ([]layout.ClassifiedLine, map[int]layout.PageStats) {
	cfg := w.tuning.ClassifyConfig()
	stats := classify.BuildStats(lines, cfg)
	cls := classify.New(cfg)

	byPage := make(map[int][]layout.Line)
	var pages []int
	for _, l := range lines {
		if _, seen := byPage[l.Page]; !seen {
			pages = append(pages, l.Page)
		}
		byPage[l.Page] = append(byPage[l.Page], l)
	}
	sort.Ints(pages)

	classified := make([]layout.ClassifiedLine, 0, len(lines))
	for _, page := range pages {
		classified = append(classified, cls.ClassifyPage(byPage[page], stats[page])...)
	}
	return classified, stats
}

// synthesizeChunk calls the TTS backend with retries on transient failures.
func (w *Worker) synthesizeChunk(ctx context.Context, synth Synthesizer, text string) (audio.Clip, error) {
	var clip audio.Clip
	var lastErr error
	for attempt := range MaxRetries {
		start := time.Now()
		clip, lastErr = synth.Synthesize(ctx, text)
		if w.stats != nil {
			w.stats.Record(time.Since(start).Milliseconds())
		}
		if lastErr == nil || !IsRetryable(lastErr) {
			break
		}
		w.log.Warn("retryable synthesis error", "attempt", attempt, "error", lastErr)
		select {
		case <-time.After(Backoff(attempt)):
		case <-ctx.Done():
			return audio.Clip{}, ctx.Err()
		}
	}
	return clip, lastErr
}
