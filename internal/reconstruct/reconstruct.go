// Package reconstruct rebuilds flowing paragraphs from classified layout
// lines: wrapped lines are rejoined, hyphenated word breaks are resolved,
// and paragraph boundaries are detected from line-length deltas.
package reconstruct

import (
	"iter"
	"math"
	"strings"

	"github.com/docvoice/docvoice/internal/layout"
)

// Config controls paragraph-break detection.
type Config struct {
	// BreakRatio: a line ending below this fraction of the page's median
	// body width signals the end of a paragraph.
	BreakRatio float64
	// MarginTolerancePts: how far (points) a line's left edge may sit from
	// the page's modal left margin and still count as "at the margin".
	MarginTolerancePts float64
}

func DefaultConfig() Config {
	return Config{
		BreakRatio:         0.7,
		MarginTolerancePts: 2.0,
	}
}

// Paragraphs folds the classified-line stream into sealed paragraphs. The
// open paragraph is threaded through as an explicit carry, so the fold is
// pure and paragraphs span page boundaries naturally. The returned sequence
// is lazy and restartable: each range re-runs the fold from the start.
func Paragraphs(lines []layout.ClassifiedLine, stats map[int]layout.PageStats, cfg Config) iter.Seq[layout.Paragraph] {
	if cfg.BreakRatio <= 0 {
		cfg.BreakRatio = 0.7
	}
	if cfg.MarginTolerancePts <= 0 {
		cfg.MarginTolerancePts = 2.0
	}

	return func(yield func(layout.Paragraph) bool) {
		var open carry

		for i, cl := range lines {
			if cl.Label != layout.Body {
				// Non-body lines seal the open paragraph without being
				// inserted into it.
				if !open.seal(yield) {
					return
				}
				continue
			}

			text := strings.TrimSpace(cl.Text)
			if text == "" {
				continue
			}
			open.append(text, cl.Page)

			if !breaksAfter(lines, i, stats, cfg) {
				continue
			}
			if !open.seal(yield) {
				return
			}
		}

		open.seal(yield)
	}
}

// Collect materializes the paragraph sequence into a slice.
func Collect(lines []layout.ClassifiedLine, stats map[int]layout.PageStats, cfg Config) []layout.Paragraph {
	var out []layout.Paragraph
	for p := range Paragraphs(lines, stats, cfg) {
		out = append(out, p)
	}
	return out
}

// carry is the accumulator for the in-progress paragraph.
type carry struct {
	text string
	page int
}

// append joins a body line onto the carry. A word-final hyphen at the end of
// the previous line is a printer's word break: the hyphen is stripped and the
// next line concatenated directly, so "occupa-" + "tional" gives
// "occupational". Ordinary wraps join with a single space.
func (c *carry) append(text string, page int) {
	if c.text == "" {
		c.text = text
		c.page = page
		return
	}
	if strings.HasSuffix(c.text, "-") && !strings.HasSuffix(c.text, "--") {
		c.text = strings.TrimSuffix(c.text, "-") + text
		return
	}
	c.text += " " + text
}

func (c *carry) seal(yield func(layout.Paragraph) bool) bool {
	if c.text == "" {
		return true
	}
	p := layout.Paragraph{Text: c.text, Page: c.page}
	c.text = ""
	c.page = 0
	return yield(p)
}

// breaksAfter decides whether the body line at index i ends its paragraph:
// it must fall substantially short of the page's median body width, and the
// next body line (if any) must start back at the standard left margin.
func breaksAfter(lines []layout.ClassifiedLine, i int, stats map[int]layout.PageStats, cfg Config) bool {
	cur := lines[i]
	st := stats[cur.Page]
	if st.MedianWidth <= 0 || cur.Width() <= 0 {
		// No width signal (malformed geometry, or a page with no prose
		// statistics): keep the paragraph open.
		return false
	}
	if cur.Width() >= cfg.BreakRatio*st.MedianWidth {
		return false
	}

	next, ok := nextBody(lines, i+1)
	if !ok {
		return true
	}
	nst := stats[next.Page]
	if next.Width() <= 0 || nst.ModalLeft <= 0 {
		return true
	}
	// The next line must begin at the standard left margin, or indented from
	// it by no more than a first-line indent. Anything further right is a
	// continuation fragment, not a new block.
	offset := next.Left - nst.ModalLeft
	return math.Abs(offset) <= cfg.MarginTolerancePts || (offset > 0 && offset <= maxIndentPts)
}

// maxIndentPts bounds a plausible first-line paragraph indent (half an inch).
const maxIndentPts = 36.0

func nextBody(lines []layout.ClassifiedLine, from int) (layout.ClassifiedLine, bool) {
	for i := from; i < len(lines); i++ {
		if lines[i].Label == layout.Body && strings.TrimSpace(lines[i].Text) != "" {
			return lines[i], true
		}
	}
	return layout.ClassifiedLine{}, false
}
