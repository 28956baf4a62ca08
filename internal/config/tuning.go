package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/docvoice/docvoice/internal/chunker"
	"github.com/docvoice/docvoice/internal/classify"
	"github.com/docvoice/docvoice/internal/clean"
	"github.com/docvoice/docvoice/internal/reconstruct"
)

// Tuning holds the layout heuristic thresholds. Zero values mean "use the
// default"; a TOML file can override any subset:
//
//	[classify]
//	heading_font_ratio = 1.2
//
//	[chunk]
//	paragraph_flush_ratio = 0.9
type Tuning struct {
	Classify struct {
		BandRatio            float64 `toml:"band_ratio"`
		RepeatMinPages       int     `toml:"repeat_min_pages"`
		HeadingFontRatio     float64 `toml:"heading_font_ratio"`
		HeadingMaxWidthRatio float64 `toml:"heading_max_width_ratio"`
		ColumnGapPts         float64 `toml:"column_gap_pts"`
		TableLineRatio       float64 `toml:"table_line_ratio"`
		TableRunMin          int     `toml:"table_run_min"`
	} `toml:"classify"`

	Reconstruct struct {
		BreakRatio         float64 `toml:"break_ratio"`
		MarginTolerancePts float64 `toml:"margin_tolerance_pts"`
	} `toml:"reconstruct"`

	Clean struct {
		ShortFragmentLen int `toml:"short_fragment_len"`
		RunMin           int `toml:"run_min"`
		NoiseMaxLen      int `toml:"noise_max_len"`
	} `toml:"clean"`

	Chunk struct {
		ParagraphFlushRatio float64 `toml:"paragraph_flush_ratio"`
	} `toml:"chunk"`
}

// LoadTuning reads overrides from a TOML file. An empty path yields the
// zero Tuning, which resolves to all defaults.
func LoadTuning(path string) (Tuning, error) {
	var t Tuning
	if path == "" {
		return t, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return t, fmt.Errorf("read tuning file: %w", err)
	}
	if err := toml.Unmarshal(data, &t); err != nil {
		return t, fmt.Errorf("parse tuning file: %w", err)
	}
	return t, nil
}

// ClassifyConfig resolves the classifier thresholds.
func (t Tuning) ClassifyConfig() classify.Config {
	cfg := classify.DefaultConfig()
	if t.Classify.BandRatio > 0 {
		cfg.BandRatio = t.Classify.BandRatio
	}
	if t.Classify.RepeatMinPages > 0 {
		cfg.RepeatMinPages = t.Classify.RepeatMinPages
	}
	if t.Classify.HeadingFontRatio > 0 {
		cfg.HeadingFontRatio = t.Classify.HeadingFontRatio
	}
	if t.Classify.HeadingMaxWidthRatio > 0 {
		cfg.HeadingMaxWidthRatio = t.Classify.HeadingMaxWidthRatio
	}
	if t.Classify.ColumnGapPts > 0 {
		cfg.ColumnGapPts = t.Classify.ColumnGapPts
	}
	if t.Classify.TableLineRatio > 0 {
		cfg.TableLineRatio = t.Classify.TableLineRatio
	}
	if t.Classify.TableRunMin > 0 {
		cfg.TableRunMin = t.Classify.TableRunMin
	}
	return cfg
}

// ReconstructConfig resolves the paragraph reconstruction thresholds.
func (t Tuning) ReconstructConfig() reconstruct.Config {
	cfg := reconstruct.DefaultConfig()
	if t.Reconstruct.BreakRatio > 0 {
		cfg.BreakRatio = t.Reconstruct.BreakRatio
	}
	if t.Reconstruct.MarginTolerancePts > 0 {
		cfg.MarginTolerancePts = t.Reconstruct.MarginTolerancePts
	}
	return cfg
}

// CleanConfig resolves the cleaning thresholds.
func (t Tuning) CleanConfig() clean.Config {
	cfg := clean.DefaultConfig()
	if t.Clean.ShortFragmentLen > 0 {
		cfg.ShortFragmentLen = t.Clean.ShortFragmentLen
	}
	if t.Clean.RunMin > 0 {
		cfg.RunMin = t.Clean.RunMin
	}
	if t.Clean.NoiseMaxLen > 0 {
		cfg.NoiseMaxLen = t.Clean.NoiseMaxLen
	}
	return cfg
}

// ChunkConfig resolves the chunker settings for a given chunk size.
func (t Tuning) ChunkConfig(maxChars int) chunker.Config {
	cfg := chunker.DefaultConfig()
	if maxChars != 0 {
		cfg.MaxChars = maxChars
	}
	if t.Chunk.ParagraphFlushRatio > 0 {
		cfg.ParaFlushRatio = t.Chunk.ParagraphFlushRatio
	}
	return cfg
}
