package parser

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
)

// LaTeXProjectParser handles zipped LaTeX projects, as exported from
// Overleaf. It locates the root file (main.tex, or the first file with a
// \begin{document}) and expands \input/\include from the archive.
type LaTeXProjectParser struct {
	// MainFile overrides root file detection when set, e.g. "paper.tex".
	MainFile string
}

func (p *LaTeXProjectParser) Parse(r io.Reader, filename string) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}

	files := make(map[string]string)
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || !strings.HasSuffix(f.Name, ".tex") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", f.Name, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f.Name, err)
		}
		files[path.Clean(f.Name)] = string(content)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .tex files in archive")
	}

	main, err := findMainFile(files, p.MainFile)
	if err != nil {
		return nil, err
	}

	return parseLaTeX(files[main], filename, files, path.Dir(main))
}

func findMainFile(files map[string]string, override string) (string, error) {
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	if override != "" {
		for _, name := range names {
			if name == override || path.Base(name) == override {
				return name, nil
			}
		}
		return "", fmt.Errorf("main file %s not found in archive", override)
	}
	for _, name := range names {
		if path.Base(name) == "main.tex" {
			return name, nil
		}
	}
	// No main.tex; fall back to any file holding the document body.
	for _, name := range names {
		if beginDocumentRe.MatchString(files[name]) {
			return name, nil
		}
	}
	return "", fmt.Errorf("no root .tex file found in archive")
}
