package parser

import (
	"bufio"
	"io"
	"strings"

	"github.com/docvoice/docvoice/internal/layout"
)

// TextParser handles plain text files. Blank lines separate paragraphs;
// wrapped lines within a paragraph are rejoined with spaces.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*Document, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var paragraphs []layout.Paragraph
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			paragraphs = append(paragraphs, layout.Paragraph{Text: current.String()})
			current.Reset()
		}
	}

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			flush()
			continue
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(line)
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return &Document{
		Title:      titleFromFilename(filename),
		Paragraphs: paragraphs,
	}, nil
}
