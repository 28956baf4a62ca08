package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/docvoice/docvoice/internal/audio"
	"github.com/docvoice/docvoice/internal/config"
	"github.com/docvoice/docvoice/internal/pipeline"
	"github.com/docvoice/docvoice/internal/tts"
)

var narrateCmd = &cobra.Command{
	Use:   "narrate [input-file]",
	Short: "Narrate a document to a WAV file",
	Long: `Narrate parses the input document, reconstructs its prose, splits it
into sentence-aligned chunks, and synthesizes each chunk through the
configured TTS endpoint. Supported inputs: .pdf, .txt, .md, .html,
.docx, .tex, and .zip (LaTeX project).`,
	Args: cobra.ExactArgs(1),
	RunE: runNarrate,
}

var (
	narrateOutput   string
	narratePages    string
	narrateMaxChars int
	narrateVoice    string
	narrateSpeed    float64
	narrateTuning   string
	narrateQuiet    bool
)

func init() {
	narrateCmd.Flags().StringVarP(&narrateOutput, "output", "o", "", "Output WAV path (default: input name with .wav)")
	narrateCmd.Flags().StringVar(&narratePages, "pages", "", "PDF page range start:stop, zero-based, stop exclusive")
	narrateCmd.Flags().IntVar(&narrateMaxChars, "max-chars", 0, "Maximum characters per TTS chunk")
	narrateCmd.Flags().StringVar(&narrateVoice, "voice", "", "TTS voice (default from TTS_VOICE)")
	narrateCmd.Flags().Float64Var(&narrateSpeed, "speed", 0, "Playback speed multiplier")
	narrateCmd.Flags().StringVar(&narrateTuning, "config", "", "Tuning TOML file for layout thresholds")
	narrateCmd.Flags().BoolVarP(&narrateQuiet, "quiet", "q", false, "Suppress progress output")

	rootCmd.AddCommand(narrateCmd)
}

func runNarrate(cmd *cobra.Command, args []string) error {
	inputPath := args[0]
	cfg := config.Load()

	tuning, err := config.LoadTuning(narrateTuning)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	opts := pipeline.Options{
		MaxChars: narrateMaxChars,
		Voice:    narrateVoice,
		Speed:    narrateSpeed,
	}
	if opts.MaxChars == 0 {
		opts.MaxChars = cfg.DefaultMaxChars
	}
	if err := tuning.ChunkConfig(opts.MaxChars).Validate(); err != nil {
		return err
	}
	if narratePages != "" {
		pr, err := parsePages(narratePages)
		if err != nil {
			return err
		}
		opts.Pages = pr
	}

	var mu sync.Mutex
	start := time.Now()
	if !narrateQuiet {
		opts.OnProgress = func(index, total int) {
			mu.Lock()
			defer mu.Unlock()
			done := index + 1
			elapsed := time.Since(start)
			eta := "done"
			if done < total {
				perChunk := elapsed / time.Duration(done)
				eta = "ETA " + audio.FormatDuration(perChunk*time.Duration(total-done))
			}
			fmt.Fprintf(os.Stderr, "  Chunk %d/%d - %s\n", done, total, eta)
		}
	}

	client := tts.NewClient(tts.Config{
		BaseURL:    cfg.TTSBaseURL,
		APIKey:     cfg.TTSAPIKey,
		Model:      cfg.TTSModel,
		Voice:      cfg.TTSVoice,
		Speed:      cfg.TTSSpeed,
		SampleRate: cfg.SampleRate,
	})
	newSynth := func(voice string, speed float64) pipeline.Synthesizer {
		return client.WithVoice(voice, speed)
	}

	logLevel := slog.LevelWarn
	if narrateQuiet {
		logLevel = slog.LevelError
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	worker := pipeline.NewWorker(newSynth, nil, log, tuning, cfg.SampleRate, cfg.MaxConcurrentSynth, cfg.PDFFallbackPdftotext)
	job := pipeline.NewJob(filepath.Base(inputPath), data, opts)
	worker.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != pipeline.StatusCompleted {
		return fmt.Errorf("narration failed during %s: %s", snap.Phase, strings.Join(snap.Progress.Errors, "; "))
	}

	outPath := narrateOutput
	if outPath == "" {
		outPath = strings.TrimSuffix(inputPath, filepath.Ext(inputPath)) + ".wav"
	}
	if err := os.WriteFile(outPath, job.Audio(), 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	if !narrateQuiet {
		audioDur := time.Duration(snap.Progress.AudioSeconds * float64(time.Second))
		fmt.Fprintf(os.Stderr, "Saved %s (%s audio, took %s)\n",
			outPath, audio.FormatDuration(audioDur), audio.FormatDuration(time.Since(start)))
	}
	return nil
}

func parsePages(v string) (*pipeline.PageRange, error) {
	startStr, stopStr, ok := strings.Cut(v, ":")
	if !ok {
		return nil, fmt.Errorf("pages must be start:stop, got %q", v)
	}
	var pr pipeline.PageRange
	if _, err := fmt.Sscanf(startStr, "%d", &pr.Start); err != nil {
		return nil, fmt.Errorf("invalid page start %q", startStr)
	}
	if _, err := fmt.Sscanf(stopStr, "%d", &pr.Stop); err != nil {
		return nil, fmt.Errorf("invalid page stop %q", stopStr)
	}
	if err := pr.Validate(); err != nil {
		return nil, err
	}
	return &pr, nil
}
