package parser

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"
	"unicode"

	"github.com/docvoice/docvoice/internal/layout"
	pdflib "github.com/ledongthuc/pdf"
)

// PDFParser extracts positioned text lines from a PDF. It tries the Go
// library first and can fall back to pdftotext; the fallback has no
// geometry, so those lines degrade to body text downstream.
type PDFParser struct {
	FallbackPdftotext bool
	// Pages restricts extraction to [Start, Stop) when non-nil. Lines
	// outside the range never enter the pipeline.
	Pages *[2]int
}

// rowTolerancePts groups glyph runs whose baselines differ by no more than
// this into one line.
const rowTolerancePts = 3.0

func (p *PDFParser) Parse(r io.Reader, filename string) (*Document, error) {
	// ledongthuc/pdf requires a ReadSeeker+size, so we write to a temp file.
	tmp, err := os.CreateTemp("", "docvoice-pdf-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	lines, err := extractPDFLines(tmpPath, p.Pages)
	if err != nil && p.FallbackPdftotext {
		lines, err = extractPdftotextLines(tmpPath, p.Pages)
	}
	if err != nil {
		return nil, fmt.Errorf("extract pdf lines: %w", err)
	}

	return &Document{
		Title: titleFromFilename(filename),
		Lines: lines,
	}, nil
}

func extractPDFLines(path string, pages *[2]int) ([]layout.Line, error) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	numPages := reader.NumPage()
	start, stop := 0, numPages
	if pages != nil {
		start, stop = pages[0], pages[1]
		if start < 0 || stop > numPages {
			return nil, fmt.Errorf("page range [%d,%d) out of bounds (document has %d pages)", start, stop, numPages)
		}
	}

	var lines []layout.Line
	for i := start; i < stop; i++ {
		page := reader.Page(i + 1) // reader pages are 1-based
		if page.V.IsNull() {
			continue
		}
		content := page.Content()
		lines = append(lines, buildLines(content.Text, i)...)
	}
	return lines, nil
}

// buildLines groups positioned glyph runs into reading-order lines: rows by
// baseline proximity, left to right within a row, with word spaces inferred
// from horizontal gaps relative to the font size.
func buildLines(texts []pdflib.Text, page int) []layout.Line {
	if len(texts) == 0 {
		return nil
	}

	sorted := make([]pdflib.Text, len(texts))
	copy(sorted, texts)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Y != sorted[j].Y {
			return sorted[i].Y > sorted[j].Y // top of page first
		}
		return sorted[i].X < sorted[j].X
	})

	var lines []layout.Line
	var row []pdflib.Text
	rowY := sorted[0].Y

	flush := func() {
		if len(row) == 0 {
			return
		}
		lines = append(lines, assembleRow(row, page))
		row = row[:0]
	}

	for _, t := range sorted {
		if rowY-t.Y > rowTolerancePts {
			flush()
			rowY = t.Y
		}
		row = append(row, t)
	}
	flush()

	return lines
}

func assembleRow(row []pdflib.Text, page int) layout.Line {
	sort.SliceStable(row, func(i, j int) bool { return row[i].X < row[j].X })

	var sb strings.Builder
	line := layout.Line{
		Page: page,
		Y:    row[0].Y,
		Left: row[0].X,
	}
	cursor := row[0].X

	for _, t := range row {
		if t.FontSize > line.FontSize {
			line.FontSize = t.FontSize
		}
		spaceW := t.FontSize * 0.3
		if spaceW <= 0 {
			spaceW = 1.0
		}
		gap := t.X - cursor
		if sb.Len() > 0 && gap > spaceW {
			sb.WriteString(" ")
			if gap > line.MaxGap {
				line.MaxGap = gap
			}
		}
		sb.WriteString(sanitizeText(t.S))
		if end := t.X + t.W; end > cursor {
			cursor = end
		}
	}

	line.Right = cursor
	line.Text = strings.TrimSpace(sb.String())
	return line
}

// sanitizeText drops stray control characters; extractors give no clean
// UTF-8 guarantee.
func sanitizeText(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}

// extractPdftotextLines shells out to pdftotext. The output carries no
// geometry, so every line is left with zero metrics and the classifier
// treats it as body text.
func extractPdftotextLines(path string, pages *[2]int) ([]layout.Line, error) {
	args := []string{"-layout"}
	if pages != nil {
		args = append(args, "-f", fmt.Sprint(pages[0]+1), "-l", fmt.Sprint(pages[1]))
	}
	args = append(args, path, "-")
	cmd := exec.Command("pdftotext", args...)
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("pdftotext: %w", err)
	}

	pageOffset := 0
	if pages != nil {
		pageOffset = pages[0]
	}
	return pdftotextLines(string(out), pageOffset), nil
}

// pdftotextLines parses pdftotext output, which separates pages with form
// feeds. Page numbers start at pageOffset so a restricted extraction keeps
// the document's own numbering.
func pdftotextLines(out string, pageOffset int) []layout.Line {
	var lines []layout.Line
	for pageIdx, pageText := range strings.Split(out, "\f") {
		for _, raw := range strings.Split(pageText, "\n") {
			text := strings.TrimSpace(sanitizeText(raw))
			if text == "" {
				continue
			}
			lines = append(lines, layout.Line{
				Text: text,
				Page: pageOffset + pageIdx,
			})
		}
	}
	return lines
}
