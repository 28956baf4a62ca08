package parser

import (
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"

	"github.com/docvoice/docvoice/internal/layout"
)

// LaTeXParser handles a single .tex file. Sections become labeled headline
// paragraphs ("1. Introduction", "A.2 ..."), math turns into the word
// "formula", tables are read row by row, and captions are kept. Include
// commands referencing files outside the source are skipped silently; use
// LaTeXProjectParser for multi-file projects.
type LaTeXParser struct{}

func (p *LaTeXParser) Parse(r io.Reader, filename string) (*Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return parseLaTeX(string(src), filename, nil, "")
}

// parseLaTeX runs the full pipeline over one root source. files maps
// slash-separated relative paths to .tex contents for include expansion;
// baseDir is the directory of the root file within that set.
func parseLaTeX(src, filename string, files map[string]string, baseDir string) (*Document, error) {
	src = stripComments(src)
	src = expandIncludes(src, baseDir, files, 0)

	title := titleFromFilename(filename)
	body := src
	var preamble string
	if m := beginDocumentRe.FindStringIndex(src); m != nil {
		preamble = src[:m[0]]
		body = src[m[1]:]
		if e := endDocumentRe.FindStringIndex(body); e != nil {
			body = body[:e[0]]
		}
	}

	var paragraphs []layout.Paragraph
	if tm := titleCmdRe.FindStringIndex(preamble); tm != nil {
		raw, _ := extractBraced(preamble, tm[1]-1)
		if t := cleanLaTeX(raw); t != "" {
			title = t
			paragraphs = append(paragraphs, layout.Paragraph{Text: t})
		}
	}

	st := &latexState{}
	st.parseBody(body)
	paragraphs = append(paragraphs, st.paragraphs...)

	return &Document{
		Title:      title,
		Paragraphs: paragraphs,
	}, nil
}

var (
	beginDocumentRe = regexp.MustCompile(`\\begin\s*\{document\}`)
	endDocumentRe   = regexp.MustCompile(`\\end\s*\{document\}`)
	titleCmdRe      = regexp.MustCompile(`\\title\s*\{`)
	inputCmdRe      = regexp.MustCompile(`\\(?:input|include)\s*\{([^}]+)\}`)
)

// stripComments removes % comments but keeps escaped \%.
func stripComments(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	escaped := false
	skipping := false
	for _, r := range s {
		if skipping {
			if r == '\n' {
				skipping = false
				sb.WriteRune(r)
			}
			continue
		}
		if escaped {
			sb.WriteRune(r)
			escaped = false
			continue
		}
		switch r {
		case '\\':
			sb.WriteRune(r)
			escaped = true
		case '%':
			skipping = true
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

const maxIncludeDepth = 10

func expandIncludes(s, baseDir string, files map[string]string, depth int) string {
	if files == nil || depth >= maxIncludeDepth {
		return inputCmdRe.ReplaceAllString(s, "")
	}
	return inputCmdRe.ReplaceAllStringFunc(s, func(m string) string {
		name := strings.TrimSpace(inputCmdRe.FindStringSubmatch(m)[1])
		if !strings.HasSuffix(name, ".tex") {
			name += ".tex"
		}
		key := path.Clean(path.Join(baseDir, name))
		content, ok := files[key]
		if !ok {
			return "" // missing file, skip silently
		}
		return expandIncludes(stripComments(content), path.Dir(key), files, depth+1)
	})
}

// extractBraced returns the content of balanced braces starting at pos,
// which must point at '{', and the position after the closing brace.
func extractBraced(s string, pos int) (string, int) {
	if pos >= len(s) || s[pos] != '{' {
		return "", pos
	}
	depth := 0
	for i := pos; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++ // skip escaped character
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[pos+1 : i], i + 1
			}
		}
	}
	return s[pos+1:], len(s)
}

// skipOptionalArg advances past a [...] argument at pos, if present.
func skipOptionalArg(s string, pos int) int {
	i := pos
	for i < len(s) && (s[i] == ' ' || s[i] == '\t' || s[i] == '\n') {
		i++
	}
	if i < len(s) && s[i] == '[' {
		for i < len(s) && s[i] != ']' {
			i++
		}
		if i < len(s) {
			return i + 1
		}
		return pos
	}
	return pos
}

// findEnvEnd locates the matching \end{env} for content starting just after
// \begin{env}, handling nested environments of the same name.
func findEnvEnd(s string, contentStart int, env string) (string, int) {
	esc := regexp.QuoteMeta(env)
	beginRe := regexp.MustCompile(`\\begin\s*\{` + esc + `\*?\}`)
	endRe := regexp.MustCompile(`\\end\s*\{` + esc + `\*?\}`)

	depth := 1
	scan := contentStart
	for {
		rest := s[scan:]
		ne := endRe.FindStringIndex(rest)
		if ne == nil {
			return s[contentStart:], len(s)
		}
		nb := beginRe.FindStringIndex(rest)
		if nb != nil && nb[0] < ne[0] {
			depth++
			scan += nb[1]
			continue
		}
		depth--
		if depth == 0 {
			return s[contentStart : scan+ne[0]], scan + ne[1]
		}
		scan += ne[1]
	}
}

var (
	displayMathRe = regexp.MustCompile(`(?s)\\begin\{(?:equation|align|eqnarray|gather|multline|displaymath)\*?\}.*?\\end\{(?:equation|align|eqnarray|gather|multline|displaymath)\*?\}`)
	dollarMathRe  = regexp.MustCompile(`(?s)\$\$.*?\$\$`)
	inlineMathRe  = regexp.MustCompile(`\$[^$\n]{0,200}\$`)
	spacingCmdRe  = regexp.MustCompile(`\\(?:noindent|bigskip|medskip|smallskip|vfill|hfill)\b`)
	spaceArgRe    = regexp.MustCompile(`\\(?:vspace|hspace)\*?\{[^}]*\}`)
	lineBreakRe   = regexp.MustCompile(`\\(?:newline|linebreak)\b\*?`)
	hardBreakRe   = regexp.MustCompile(`\\\\(?:\[[^\]]*\])?`)
	layoutCmdRe   = regexp.MustCompile(`\\(?:newpage|clearpage|cleardoublepage|maketitle|tableofcontents|bibliographystyle|bibliography)\b(?:\{[^}]*\})?`)
	refCmdRe      = regexp.MustCompile(`\\(?:cite[a-z]*|ref|eqref|label|pageref)\{[^}]*\}`)
	footnoteRe    = regexp.MustCompile(`\\footnote\{[^{}]*(?:\{[^{}]*\}[^{}]*)?\}`)
	graphicsRe    = regexp.MustCompile(`\\includegraphics\s*(?:\[[^\]]*\])?\{[^}]*\}`)
	urlCmdRe      = regexp.MustCompile(`\\url\{([^}]*)\}`)
	hrefCmdRe     = regexp.MustCompile(`\\href\{[^}]*\}\{([^{}]*)\}`)
	fmtCmdRe      = regexp.MustCompile(`\\(?:textbf|textit|emph|texttt|textrm|textsc|textup|textsf|textmd|text)\{([^{}]*)\}`)
	bracedCmdRe   = regexp.MustCompile(`\\[a-zA-Z]+\*?\{([^{}]*)\}`)
	bareCmdRe     = regexp.MustCompile(`\\[a-zA-Z]+\*?`)
	escapedChRe   = regexp.MustCompile(`\\([%$&#_{}|<>])`)
	braceRe       = regexp.MustCompile(`[{}]`)
	spaceRunRe    = regexp.MustCompile(`[ \t]+`)
	blankRunRe    = regexp.MustCompile(`\n{3,}`)
)

// cleanLaTeX strips markup and returns readable plain text. Display and
// inline math collapse to the word "formula".
func cleanLaTeX(s string) string {
	s = displayMathRe.ReplaceAllString(s, " formula ")
	s = dollarMathRe.ReplaceAllString(s, " formula ")
	s = inlineMathRe.ReplaceAllString(s, "formula")

	// Strip spacing commands before the formatting pass so they do not
	// merge with adjacent command names (\noindent\textbf).
	s = spacingCmdRe.ReplaceAllString(s, " ")
	s = spaceArgRe.ReplaceAllString(s, " ")
	s = lineBreakRe.ReplaceAllString(s, " ")
	s = hardBreakRe.ReplaceAllString(s, " ")
	s = layoutCmdRe.ReplaceAllString(s, "")

	s = refCmdRe.ReplaceAllString(s, "")
	s = footnoteRe.ReplaceAllString(s, "")
	s = graphicsRe.ReplaceAllString(s, "")

	s = urlCmdRe.ReplaceAllString(s, "$1")
	s = hrefCmdRe.ReplaceAllString(s, "$1")

	for i := 0; i < 4; i++ {
		s = fmtCmdRe.ReplaceAllString(s, "$1")
	}

	s = strings.ReplaceAll(s, "~", " ")

	for i := 0; i < 4; i++ {
		s = bracedCmdRe.ReplaceAllString(s, "$1")
	}
	s = bareCmdRe.ReplaceAllString(s, " ")

	s = escapedChRe.ReplaceAllString(s, "$1")
	s = braceRe.ReplaceAllString(s, "")

	s = strings.ReplaceAll(s, "---", "—")
	s = strings.ReplaceAll(s, "--", "–")

	s = spaceRunRe.ReplaceAllString(s, " ")
	s = blankRunRe.ReplaceAllString(s, "\n\n")

	return strings.TrimSpace(s)
}

var (
	decorRuleRe  = regexp.MustCompile(`\\(?:toprule|midrule|bottomrule|hline)\b`)
	captionRe    = regexp.MustCompile(`\\caption\s*(?:\[[^\]]*\])?\s*\{`)
	beginTabRe   = regexp.MustCompile(`\\begin\s*\{(tabular[x*]?)\}`)
	endTabRe     = regexp.MustCompile(`\\end\{tabular[x*]?\}`)
	endTableRe   = regexp.MustCompile(`\\end\s*\{table\*?\}`)
	itemCmdRe    = regexp.MustCompile(`\\item\s*`)
	sectionTokRe = regexp.MustCompile(`\\((?:sub)*section)\s*\*?|\\appendix\b|\\begin\s*\{(\w+\*?)\}|\\maketitle\b`)
	blankSplitRe = regexp.MustCompile(`\n{2,}`)
)

// tabularToText converts tabular rows (separated by \\) to readable lines.
func tabularToText(content string) []string {
	content = decorRuleRe.ReplaceAllString(content, "")
	var lines []string
	for _, row := range strings.Split(content, `\\`) {
		var cells []string
		for _, c := range strings.Split(row, "&") {
			if cleaned := cleanLaTeX(c); cleaned != "" {
				cells = append(cells, cleaned)
			}
		}
		if len(cells) > 0 {
			lines = append(lines, strings.Join(cells, "   "))
		}
	}
	return lines
}

var transparentEnvs = map[string]bool{
	"document": true, "center": true, "flushleft": true, "flushright": true,
	"quote": true, "quotation": true, "verse": true, "minipage": true,
	"framed": true, "mdframed": true, "tcolorbox": true,
	"columns": true, "column": true, "frame": true,
}

var skipEnvs = map[string]bool{
	"tikzpicture": true, "pgfpicture": true, "lstlisting": true,
	"verbatim": true, "algorithm": true, "algorithmic": true,
	"comment": true, "filecontents": true, "thebibliography": true,
	"equation": true, "align": true, "eqnarray": true, "gather": true,
	"multline": true, "displaymath": true, "array": true,
	"pmatrix": true, "bmatrix": true,
}

// latexState accumulates output paragraphs and section numbering across
// recursive body parses.
type latexState struct {
	paragraphs []layout.Paragraph
	counters   [3]int // section, subsection, subsubsection
	inAppendix bool
	textBuf    []string
}

func (st *latexState) add(text string) {
	if text != "" {
		st.paragraphs = append(st.paragraphs, layout.Paragraph{Text: text})
	}
}

const minParagraphChars = 10

func (st *latexState) flushText() {
	if len(st.textBuf) == 0 {
		return
	}
	raw := strings.Join(st.textBuf, " ")
	st.textBuf = st.textBuf[:0]
	for _, chunk := range blankSplitRe.Split(raw, -1) {
		cleaned := cleanLaTeX(chunk)
		if len(cleaned) > minParagraphChars {
			st.add(cleaned)
		}
	}
}

// headingLabel formats a section label such as "1." or "A.2".
func (st *latexState) headingLabel(level int) string {
	first := fmt.Sprint(st.counters[0])
	if st.inAppendix {
		first = string(rune('A' + st.counters[0] - 1))
	}
	switch level {
	case 0:
		return first + "."
	case 1:
		return fmt.Sprintf("%s.%d", first, st.counters[1])
	default:
		return fmt.Sprintf("%s.%d.%d", first, st.counters[1], st.counters[2])
	}
}

func (st *latexState) parseBody(text string) {
	pos := 0
	for pos < len(text) {
		loc := sectionTokRe.FindStringSubmatchIndex(text[pos:])
		if loc == nil {
			st.textBuf = append(st.textBuf, text[pos:])
			break
		}
		st.textBuf = append(st.textBuf, text[pos:pos+loc[0]])
		token := text[pos+loc[0] : pos+loc[1]]

		if token == `\maketitle` {
			pos += loc[1]
			continue
		}
		if token == `\appendix` {
			st.inAppendix = true
			st.counters = [3]int{}
			pos += loc[1]
			continue
		}

		// Section command: group 1 holds "section", "subsection", ...
		if loc[2] >= 0 {
			cmd := text[pos+loc[2] : pos+loc[3]]
			level := strings.Count(cmd, "sub")
			st.flushText()
			afterCmd := skipOptionalArg(text, pos+loc[1])
			headingRaw, afterHeading := extractBraced(text, afterCmd)
			heading := cleanLaTeX(headingRaw)
			st.counters[level]++
			for i := level + 1; i < 3; i++ {
				st.counters[i] = 0
			}
			st.add(st.headingLabel(level) + " " + heading)
			pos = afterHeading
			continue
		}

		// \begin{env}: group 2 holds the environment name.
		if loc[4] < 0 {
			pos += loc[1]
			continue
		}
		envName := strings.TrimSuffix(text[pos+loc[4]:pos+loc[5]], "*")
		afterBegin := skipOptionalArg(text, pos+loc[1])
		envContent, afterEnv := findEnvEnd(text, afterBegin, envName)

		switch {
		case envName == "abstract":
			st.flushText()
			st.add(cleanLaTeX(envContent))

		case envName == "table":
			st.flushText()
			st.parseTableEnv(envContent)

		case envName == "figure":
			st.flushText()
			st.parseFigureEnv(envContent)

		case envName == "itemize" || envName == "enumerate" || envName == "description":
			st.flushText()
			st.parseBody(itemCmdRe.ReplaceAllString(envContent, "\n\n"))

		case skipEnvs[envName]:
			// No spoken content.

		default:
			// Transparent and unknown environments both descend.
			st.parseBody(envContent)
		}

		pos = afterEnv
	}
	st.flushText()
}

func (st *latexState) parseTableEnv(text string) {
	var captions []string
	for _, m := range captionRe.FindAllStringIndex(text, -1) {
		content, _ := extractBraced(text, m[1]-1)
		if cap := cleanLaTeX(content); cap != "" {
			captions = append(captions, cap)
		}
	}

	if tab := beginTabRe.FindStringSubmatchIndex(text); tab != nil {
		envName := text[tab[2]:tab[3]]
		afterBegin := skipOptionalArg(text, tab[1])
		_, afterSpec := extractBraced(text, afterBegin)
		content, _ := findEnvEnd(text, afterSpec, envName)
		if rows := tabularToText(content); len(rows) > 0 {
			st.add("Table data: " + strings.Join(rows, ".  "))
		}
	}

	for _, cap := range captions {
		st.add(cap)
	}

	// Notes after the tabular block are narrated like a caption.
	if end := endTabRe.FindStringIndex(text); end != nil {
		notes := cleanLaTeX(endTableRe.ReplaceAllString(text[end[1]:], ""))
		if len(notes) > 5 {
			st.add(notes)
		}
	}
}

func (st *latexState) parseFigureEnv(text string) {
	for _, m := range captionRe.FindAllStringIndex(text, -1) {
		content, _ := extractBraced(text, m[1]-1)
		if cap := cleanLaTeX(content); cap != "" {
			st.add(cap)
		}
	}
}
