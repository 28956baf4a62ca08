// Package chunker segments cleaned prose into bounded-size chunks aligned
// to sentence boundaries, the unit handed to speech synthesis.
package chunker

import (
	"fmt"
	"iter"
	"strings"

	"github.com/docvoice/docvoice/internal/layout"
)

// Config controls chunking behavior.
type Config struct {
	// MaxChars is the upper bound on chunk length. A single sentence longer
	// than the bound becomes its own oversized chunk rather than being
	// split mid-sentence.
	MaxChars int
	// ParaFlushRatio: at a paragraph boundary, a chunk already at this
	// fraction of MaxChars is sealed so chunk pauses land between
	// paragraphs when a near-full split is available.
	ParaFlushRatio float64
}

// DefaultMaxChars matches what short-input TTS models handle comfortably.
const DefaultMaxChars = 500

func DefaultConfig() Config {
	return Config{
		MaxChars:       DefaultMaxChars,
		ParaFlushRatio: 0.8,
	}
}

// Validate fails fast on unusable configuration, before any processing.
func (c Config) Validate() error {
	if c.MaxChars <= 0 {
		return fmt.Errorf("max chars per chunk must be positive, got %d", c.MaxChars)
	}
	return nil
}

// Chunks lazily segments the cleaned paragraphs into chunks in document
// order. Every chunk ends on a sentence boundary; only a sentence that
// alone exceeds MaxChars yields an oversized chunk. The sequence is
// restartable: each range re-runs the segmentation.
func Chunks(paras []layout.Paragraph, cfg Config) iter.Seq[layout.Chunk] {
	if cfg.MaxChars <= 0 {
		cfg.MaxChars = DefaultMaxChars
	}
	if cfg.ParaFlushRatio <= 0 || cfg.ParaFlushRatio > 1 {
		cfg.ParaFlushRatio = 0.8
	}
	flushLen := int(float64(cfg.MaxChars) * cfg.ParaFlushRatio)

	return func(yield func(layout.Chunk) bool) {
		var current []string
		currentLen := 0
		index := 0

		emit := func(text string, oversized bool) bool {
			ok := yield(layout.Chunk{Text: text, Index: index, Oversized: oversized})
			index++
			return ok
		}
		flush := func() bool {
			if currentLen == 0 {
				return true
			}
			text := strings.Join(current, " ")
			current = current[:0]
			currentLen = 0
			return emit(text, false)
		}

		for _, para := range paras {
			for _, sentence := range SplitSentences(para.Text) {
				if len(sentence) > cfg.MaxChars {
					// Oversized single sentence: flush, then emit it whole.
					if !flush() {
						return
					}
					if !emit(sentence, true) {
						return
					}
					continue
				}
				added := len(sentence)
				if currentLen > 0 {
					added++ // joining space
				}
				if currentLen > 0 && currentLen+added > cfg.MaxChars {
					if !flush() {
						return
					}
					added = len(sentence)
				}
				current = append(current, sentence)
				currentLen += added
			}
			// Prefer sealing at the paragraph break when the chunk is
			// already near the limit.
			if currentLen >= flushLen {
				if !flush() {
					return
				}
			}
		}
		flush()
	}
}

// Collect materializes the chunk sequence into a slice.
func Collect(paras []layout.Paragraph, cfg Config) []layout.Chunk {
	var out []layout.Chunk
	for c := range Chunks(paras, cfg) {
		out = append(out, c)
	}
	return out
}

// ChunkText splits free-form text (paragraphs separated by blank lines)
// without going through the layout pipeline.
func ChunkText(text string, cfg Config) []layout.Chunk {
	var paras []layout.Paragraph
	for _, p := range strings.Split(text, "\n\n") {
		p = strings.TrimSpace(p)
		if p != "" {
			paras = append(paras, layout.Paragraph{Text: p})
		}
	}
	return Collect(paras, cfg)
}
