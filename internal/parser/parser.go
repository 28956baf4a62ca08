package parser

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/docvoice/docvoice/internal/layout"
)

// Document is the parsed form of an input file. PDF input yields positioned
// Lines that go through the full layout pipeline (classify, reconstruct,
// clean); structured formats yield Paragraphs directly and skip it.
type Document struct {
	Title      string
	Lines      []layout.Line
	Paragraphs []layout.Paragraph
}

// Parser converts raw document bytes into a Document.
type Parser interface {
	Parse(r io.Reader, filename string) (*Document, error)
}

// SupportedExtensions lists file extensions this service can narrate.
var SupportedExtensions = map[string]bool{
	".pdf":  true,
	".txt":  true,
	".md":   true,
	".html": true,
	".htm":  true,
	".docx": true,
	".tex":  true,
	".zip":  true, // LaTeX project archive (Overleaf export)
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".pdf":
		return &PDFParser{}, nil
	case ".txt":
		return &TextParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".docx":
		return &DOCXParser{}, nil
	case ".tex":
		return &LaTeXParser{}, nil
	case ".zip":
		return &LaTeXProjectParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

func titleFromFilename(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
