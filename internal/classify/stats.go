package classify

import (
	"regexp"
	"sort"
	"strings"

	"github.com/docvoice/docvoice/internal/layout"
)

// minProseChars is the length below which a line is ignored when computing
// page medians, so headings and stray fragments don't skew the statistics.
const minProseChars = 20

// BuildStats computes per-page statistics for a whole document in one
// pre-pass. Classification itself stays a pure function of a line plus its
// page's stats.
func BuildStats(lines []layout.Line, cfg Config) map[int]layout.PageStats {
	byPage := make(map[int][]layout.Line)
	for _, l := range lines {
		byPage[l.Page] = append(byPage[l.Page], l)
	}

	stats := make(map[int]layout.PageStats, len(byPage))
	for page, pl := range byPage {
		stats[page] = pageStats(page, pl, cfg)
	}

	markRepeated(stats, byPage, cfg)
	return stats
}

func pageStats(page int, lines []layout.Line, cfg Config) layout.PageStats {
	st := layout.PageStats{Page: page}

	var widths, fonts, lefts []float64
	for _, l := range lines {
		if l.Y > st.Height {
			st.Height = l.Y
		}
		if len(strings.TrimSpace(l.Text)) < minProseChars {
			continue
		}
		if w := l.Width(); w > 0 {
			widths = append(widths, w)
			lefts = append(lefts, l.Left)
		}
		if l.FontSize > 0 {
			fonts = append(fonts, l.FontSize)
		}
	}

	st.MedianWidth = median(widths)
	st.MedianFontSize = median(fonts)
	st.ModalLeft = modal(lefts)
	st.HeaderBand = st.Height * (1 - cfg.BandRatio)
	st.FooterBand = st.Height * cfg.BandRatio
	return st
}

// markRepeated flags normalized texts that recur in the margin bands of
// several pages: running headers, footers, journal names.
func markRepeated(stats map[int]layout.PageStats, byPage map[int][]layout.Line, cfg Config) {
	counts := make(map[string]int)
	for page, lines := range byPage {
		st := stats[page]
		seen := make(map[string]bool)
		for _, l := range lines {
			if !st.InMarginBand(l.Y) {
				continue
			}
			key := normalizeRepeat(l.Text)
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			counts[key]++
		}
	}

	repeated := make(map[string]bool)
	for key, n := range counts {
		if n >= cfg.RepeatMinPages {
			repeated[key] = true
		}
	}
	if len(repeated) == 0 {
		return
	}
	for page, st := range stats {
		st.Repeated = repeated
		stats[page] = st
	}
}

var digitRun = regexp.MustCompile(`\d+`)

// normalizeRepeat folds page-varying digits so "Chapter 3   17" and
// "Chapter 3   18" count as the same recurring header.
func normalizeRepeat(text string) string {
	t := strings.ToLower(strings.Join(strings.Fields(text), " "))
	return digitRun.ReplaceAllString(t, "#")
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

// modal returns the most frequent value after rounding to whole points.
func modal(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	counts := make(map[int]int)
	best, bestCount := values[0], 0
	for _, v := range values {
		key := int(v + 0.5)
		counts[key]++
		if counts[key] > bestCount {
			best, bestCount = float64(key), counts[key]
		}
	}
	return best
}
