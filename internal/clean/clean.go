// Package clean sweeps the reconstructed paragraph stream for structural
// residue that survived classification: runs of short fragments merged out
// of tables or diagrams, stray page numbers, and caption lines. The sweep is
// idempotent, so re-running it on its own output changes nothing.
package clean

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/docvoice/docvoice/internal/layout"
)

// Config controls the paragraph-level sweeps.
type Config struct {
	// ShortFragmentLen: paragraphs shorter than this (in characters) are
	// "short fragments" for run detection.
	ShortFragmentLen int
	// RunMin: a run of at least this many consecutive short fragments is
	// dropped entirely.
	RunMin int
	// NoiseMaxLen: fragments at or below this length with no terminal
	// punctuation are dropped individually (diagram labels, stray numbers).
	NoiseMaxLen int
	// CaptionMarkers mirrors the classifier's caption tokens for the
	// verbatim-survival sweep.
	CaptionMarkers []string
}

func DefaultConfig() Config {
	return Config{
		ShortFragmentLen: 60,
		RunMin:           5,
		NoiseMaxLen:      3,
		CaptionMarkers:   []string{"figure", "fig.", "table", "tab."},
	}
}

// Clean returns the narratable paragraphs in order. It first drops
// paragraphs that are verbatim survivors of non-body labels, then removes
// consecutive runs of short fragments that indicate merged table columns.
func Clean(paras []layout.Paragraph, cfg Config) []layout.Paragraph {
	if cfg.ShortFragmentLen <= 0 {
		cfg.ShortFragmentLen = 60
	}
	if cfg.RunMin <= 0 {
		cfg.RunMin = 5
	}

	kept := make([]layout.Paragraph, 0, len(paras))
	for _, p := range paras {
		if isLabelSurvivor(p.Text, cfg) {
			continue
		}
		kept = append(kept, p)
	}

	return dropShortRuns(kept, cfg)
}

var paraPageNumberRe = regexp.MustCompile(`^[-–—([{]*\s*\d{1,4}\s*[-–—)\]}]*$`)

func isLabelSurvivor(text string, cfg Config) bool {
	t := strings.TrimSpace(text)
	if t == "" {
		return true
	}
	if paraPageNumberRe.MatchString(t) {
		return true
	}
	if symbolOnly(t) {
		return true
	}
	if len(t) <= cfg.NoiseMaxLen && !endsSentence(t) {
		return true
	}
	lower := strings.ToLower(t)
	for _, marker := range cfg.CaptionMarkers {
		rest, ok := strings.CutPrefix(lower, marker)
		if !ok {
			continue
		}
		rest = strings.TrimSpace(rest)
		if rest != "" && unicode.IsDigit(rune(rest[0])) {
			return true
		}
	}
	return false
}

// dropShortRuns removes maximal runs of RunMin or more consecutive short
// paragraphs. Surviving short runs are always flanked by long paragraphs,
// which this sweep never removes, so a second pass finds nothing new.
func dropShortRuns(paras []layout.Paragraph, cfg Config) []layout.Paragraph {
	keep := make([]bool, len(paras))
	for i := range keep {
		keep[i] = true
	}

	runStart := 0
	for runStart < len(paras) {
		if len(paras[runStart].Text) >= cfg.ShortFragmentLen {
			runStart++
			continue
		}
		runEnd := runStart + 1
		for runEnd < len(paras) && len(paras[runEnd].Text) < cfg.ShortFragmentLen {
			runEnd++
		}
		if runEnd-runStart >= cfg.RunMin {
			for i := runStart; i < runEnd; i++ {
				keep[i] = false
			}
		}
		runStart = runEnd
	}

	out := make([]layout.Paragraph, 0, len(paras))
	for i, p := range paras {
		if keep[i] {
			out = append(out, p)
		}
	}
	return out
}

func symbolOnly(text string) bool {
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func endsSentence(text string) bool {
	t := strings.TrimRight(text, `"')]}`+"’”»")
	if t == "" {
		return false
	}
	switch t[len(t)-1] {
	case '.', '!', '?':
		return true
	}
	return false
}
