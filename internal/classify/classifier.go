package classify

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/docvoice/docvoice/internal/layout"
)

// Config holds the classification thresholds. These are heuristic constants
// tuned on academic-paper layouts; callers are expected to override them per
// document class rather than patch the defaults.
type Config struct {
	BandRatio            float64  // header/footer band as a fraction of page height
	RepeatMinPages       int      // pages a margin text must recur on to count as a running header
	HeadingFontRatio     float64  // font size multiple of the page median that suggests a heading
	HeadingMaxWidthRatio float64  // headings must be shorter than this fraction of median width
	ColumnGapPts         float64  // internal gap (points) that suggests table columns
	TableLineRatio       float64  // lines below this fraction of median width can form a table run
	TableRunMin          int      // consecutive short lines needed for run-based table detection
	CaptionMarkers       []string // lowercase tokens that open a figure/table caption
}

// DefaultConfig returns the thresholds used for single-column academic text.
func DefaultConfig() Config {
	return Config{
		BandRatio:            0.08,
		RepeatMinPages:       3,
		HeadingFontRatio:     1.15,
		HeadingMaxWidthRatio: 0.75,
		ColumnGapPts:         30.0,
		TableLineRatio:       0.4,
		TableRunMin:          4,
		CaptionMarkers:       []string{"figure", "fig.", "table", "tab."},
	}
}

// Classifier labels extracted lines using an ordered rule table. Rules are
// evaluated top-down and the first match wins; every rule reads only the
// line and its page statistics, never prior output.
type Classifier struct {
	cfg   Config
	rules []rule
}

type rule struct {
	name  string
	label layout.Label
	match func(l layout.Line, st layout.PageStats) bool
}

func New(cfg Config) *Classifier {
	if cfg.TableRunMin <= 0 {
		cfg.TableRunMin = 4
	}
	if cfg.RepeatMinPages <= 0 {
		cfg.RepeatMinPages = 3
	}
	c := &Classifier{cfg: cfg}
	c.rules = []rule{
		{"malformed", layout.Body, c.isMalformed},
		{"empty", layout.Noise, c.isEmpty},
		{"symbol_only", layout.Noise, c.isSymbolOnly},
		{"margin_repeat", layout.Noise, c.isMarginRepeat},
		{"page_number", layout.PageNumber, c.isPageNumber},
		{"caption", layout.Caption, c.isCaption},
		{"table_columns", layout.TableRow, c.isColumnar},
		{"heading", layout.Heading, c.isHeading},
	}
	return c
}

// Classify labels a single line against its page statistics. Lines matching
// no rule default to Body.
func (c *Classifier) Classify(l layout.Line, st layout.PageStats) layout.ClassifiedLine {
	for _, r := range c.rules {
		if r.match(l, st) {
			return layout.ClassifiedLine{Line: l, Label: r.label}
		}
	}
	return layout.ClassifiedLine{Line: l, Label: layout.Body}
}

// ClassifyPage labels every line on a page, then applies run-based table
// detection: a stretch of consecutive short, unterminated lines is a table
// (or diagram labels) even when each line alone looks harmless. The post-pass
// reads only the lines' own text and geometry.
func (c *Classifier) ClassifyPage(lines []layout.Line, st layout.PageStats) []layout.ClassifiedLine {
	out := make([]layout.ClassifiedLine, len(lines))
	for i, l := range lines {
		out[i] = c.Classify(l, st)
	}

	runStart := -1
	flush := func(end int) {
		if runStart >= 0 && end-runStart >= c.cfg.TableRunMin {
			for i := runStart; i < end; i++ {
				if out[i].Label == layout.Body {
					out[i].Label = layout.TableRow
				}
			}
		}
		runStart = -1
	}
	for i, l := range lines {
		if c.isTableRunMember(l, st) {
			if runStart < 0 {
				runStart = i
			}
			continue
		}
		flush(i)
	}
	flush(len(lines))

	return out
}

// Malformed geometry degrades to Body: reading a stray fragment aloud is
// preferred over silently dropping real content.
func (c *Classifier) isMalformed(l layout.Line, _ layout.PageStats) bool {
	return strings.TrimSpace(l.Text) != "" && (l.FontSize <= 0 || l.Width() <= 0)
}

func (c *Classifier) isEmpty(l layout.Line, _ layout.PageStats) bool {
	return strings.TrimSpace(l.Text) == ""
}

func (c *Classifier) isSymbolOnly(l layout.Line, _ layout.PageStats) bool {
	for _, r := range l.Text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func (c *Classifier) isMarginRepeat(l layout.Line, st layout.PageStats) bool {
	if len(st.Repeated) == 0 || !st.InMarginBand(l.Y) {
		return false
	}
	return st.Repeated[normalizeRepeat(l.Text)]
}

var pageNumberRe = regexp.MustCompile(`^[-–—([{]*\s*\d{1,4}\s*[-–—)\]}]*$`)

func (c *Classifier) isPageNumber(l layout.Line, st layout.PageStats) bool {
	t := strings.TrimSpace(l.Text)
	if !pageNumberRe.MatchString(t) {
		return false
	}
	return st.InMarginBand(l.Y)
}

func (c *Classifier) isCaption(l layout.Line, _ layout.PageStats) bool {
	t := strings.ToLower(strings.TrimSpace(l.Text))
	for _, marker := range c.cfg.CaptionMarkers {
		rest, ok := strings.CutPrefix(t, marker)
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

// isColumnar detects table rows structurally: several fragments on one line
// separated by a gap far wider than any word space.
func (c *Classifier) isColumnar(l layout.Line, _ layout.PageStats) bool {
	if l.MaxGap < c.cfg.ColumnGapPts {
		return false
	}
	return len(strings.Fields(l.Text)) >= 2
}

func (c *Classifier) isHeading(l layout.Line, st layout.PageStats) bool {
	if st.MedianFontSize <= 0 || l.FontSize < c.cfg.HeadingFontRatio*st.MedianFontSize {
		return false
	}
	if st.MedianWidth > 0 && l.Width() >= c.cfg.HeadingMaxWidthRatio*st.MedianWidth {
		return false
	}
	return !endsSentence(l.Text)
}

func (c *Classifier) isTableRunMember(l layout.Line, st layout.PageStats) bool {
	if st.MedianWidth <= 0 || l.Width() <= 0 {
		return false
	}
	t := strings.TrimSpace(l.Text)
	if t == "" {
		return false
	}
	return l.Width() < c.cfg.TableLineRatio*st.MedianWidth && !endsSentence(t)
}

// endsSentence reports whether text finishes with sentence-terminal
// punctuation, allowing trailing closing quotes or brackets.
func endsSentence(text string) bool {
	t := strings.TrimSpace(text)
	t = strings.TrimRight(t, `"')]}`+"’”»")
	if t == "" {
		return false
	}
	switch t[len(t)-1] {
	case '.', '!', '?', ':', ';':
		return true
	}
	return false
}
