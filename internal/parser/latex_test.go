package parser

import (
	"archive/zip"
	"bytes"
	"strings"
	"testing"
)

func TestCleanLaTeX(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"textbf", `\textbf{hello}`, "hello"},
		{"emph", `\emph{important}`, "important"},
		{"tilde", `Figure~A`, "Figure A"},
		{"double dash", "1990--2020", "1990–2020"},
		{"triple dash", "however---not always", "however—not always"},
		{"escaped percent", `50\% of respondents`, "50% of respondents"},
		{"nested formatting", `\textbf{\emph{both}}`, "both"},
	}
	for _, tc := range cases {
		if got := cleanLaTeX(tc.in); got != tc.want {
			t.Errorf("%s: cleanLaTeX(%q) = %q, want %q", tc.name, tc.in, got, tc.want)
		}
	}
}

func TestCleanLaTeXCitations(t *testing.T) {
	got := cleanLaTeX(`See \cite{smith2020} for details.`)
	if strings.Contains(got, "cite") || strings.Contains(got, "smith") {
		t.Errorf("citation leaked: %q", got)
	}
	if !strings.Contains(got, "for details") {
		t.Errorf("surrounding text lost: %q", got)
	}
}

func TestCleanLaTeXInlineMath(t *testing.T) {
	got := cleanLaTeX(`We find $p < 0.01$.`)
	if strings.Contains(got, "$") {
		t.Errorf("dollar sign survived: %q", got)
	}
	if !strings.Contains(got, "formula") {
		t.Errorf("math not replaced: %q", got)
	}
}

func TestCleanLaTeXNoindentBeforeTextbf(t *testing.T) {
	got := cleanLaTeX(`\noindent\textbf{Disclaimer:} Some text`)
	if !strings.Contains(got, "Disclaimer:") {
		t.Errorf("bold content lost: %q", got)
	}
	if strings.Contains(got, "noindent") {
		t.Errorf("spacing command survived: %q", got)
	}
}

func TestCleanLaTeXReferences(t *testing.T) {
	got := cleanLaTeX(`Table \ref{tab:main} shows results.`)
	if strings.Contains(got, "tab:main") {
		t.Errorf("label leaked: %q", got)
	}
	if !strings.Contains(got, "shows results") {
		t.Errorf("surrounding text lost: %q", got)
	}
}

func TestCleanLaTeXBibliographyCommands(t *testing.T) {
	if got := cleanLaTeX(`\bibliographystyle{apalike}\bibliography{references}`); got != "" {
		t.Errorf("got %q, want empty", got)
	}
}

func TestExtractBraced(t *testing.T) {
	content, end := extractBraced("{hello}", 0)
	if content != "hello" || end != 7 {
		t.Errorf("got (%q, %d)", content, end)
	}
	content, end = extractBraced("{a{b}c}", 0)
	if content != "a{b}c" || end != 7 {
		t.Errorf("nested: got (%q, %d)", content, end)
	}
	content, end = extractBraced("hello", 0)
	if content != "" || end != 0 {
		t.Errorf("not at brace: got (%q, %d)", content, end)
	}
	content, end = extractBraced(`\title{My Paper}`, 6)
	if content != "My Paper" || end != 16 {
		t.Errorf("offset: got (%q, %d)", content, end)
	}
}

func TestStripComments(t *testing.T) {
	got := stripComments("text % a comment\nmore text")
	if strings.Contains(got, "a comment") {
		t.Errorf("comment survived: %q", got)
	}
	if !strings.Contains(got, "more text") {
		t.Errorf("text after newline lost: %q", got)
	}

	got = stripComments(`50\% of respondents`)
	if !strings.Contains(got, `\%`) {
		t.Errorf("escaped percent stripped: %q", got)
	}
}

func TestExpandIncludes(t *testing.T) {
	files := map[string]string{"sub.tex": "Sub content here."}
	got := expandIncludes(`\input{sub}`, ".", files, 0)
	if !strings.Contains(got, "Sub content here.") {
		t.Errorf("include not expanded: %q", got)
	}

	got = expandIncludes(`\input{nonexistent}`, ".", files, 0)
	if strings.TrimSpace(got) != "" {
		t.Errorf("missing include should vanish: %q", got)
	}

	// Extension is optional in the source.
	files = map[string]string{"chap.tex": "Chapter text."}
	got = expandIncludes(`\input{chap}`, ".", files, 0)
	if !strings.Contains(got, "Chapter text.") {
		t.Errorf("extension-less include not expanded: %q", got)
	}
}

const mockMainTex = `\documentclass{article}
\title{The Economic Returns to Education}
\begin{document}
\maketitle

\begin{abstract}
We study schooling outcomes across 42 countries over three decades.
\end{abstract}

\section{Introduction}
Education has long been linked to earnings. % inline note
This introduction motivates the question at hand in some detail.

\section{Data and Methods}
\subsection{Data Sources}
We draw on household surveys covering several decades of outcomes.

\subsection{Estimation Strategy}
The identification strategy follows standard panel techniques throughout.

\section{Results}
\input{Tables/table1}

Returns are largest for tertiary schooling in our full sample of countries.

\section{Conclusion}
Education pays, and the premium has been stable over time in the data.

\appendix
\section{Robustness Checks}
\input{appendix}

\end{document}
`

const mockTable1Tex = `\begin{table}
\centering
\begin{tabular}{lcc}
\toprule
Group & Return & SE \\
\midrule
High Income & 0.08 & 0.01 \\
Middle Income & 0.11 & 0.02 \\
\bottomrule
\end{tabular}
\caption{Returns to Education by income group}
\end{table}
`

const mockAppendixTex = `The Robustness checks confirm the main estimates under every alternative
specification we tried across the sample.
`

func mockProjectZip(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range map[string]string{
		"main.tex":          mockMainTex,
		"Tables/table1.tex": mockTable1Tex,
		"appendix.tex":      mockAppendixTex,
	} {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func parseMockProject(t *testing.T) *Document {
	t.Helper()
	doc, err := (&LaTeXProjectParser{}).Parse(bytes.NewReader(mockProjectZip(t)), "paper.zip")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(doc.Paragraphs) == 0 {
		t.Fatal("no paragraphs")
	}
	return doc
}

func projectTexts(doc *Document) []string {
	out := make([]string, len(doc.Paragraphs))
	for i, p := range doc.Paragraphs {
		out[i] = p.Text
	}
	return out
}

func TestProjectTitleIsFirstParagraph(t *testing.T) {
	doc := parseMockProject(t)
	if !strings.Contains(doc.Paragraphs[0].Text, "Economic Returns") {
		t.Errorf("first paragraph = %q", doc.Paragraphs[0].Text)
	}
	if !strings.Contains(doc.Title, "Economic Returns") {
		t.Errorf("title = %q", doc.Title)
	}
}

func TestProjectAbstractBeforeSections(t *testing.T) {
	texts := projectTexts(parseMockProject(t))
	abstract, intro := -1, -1
	for i, txt := range texts {
		if strings.Contains(txt, "42 countries") && abstract < 0 {
			abstract = i
		}
		if strings.HasPrefix(txt, "1. Introduction") && intro < 0 {
			intro = i
		}
	}
	if abstract < 0 {
		t.Fatal("abstract missing")
	}
	if intro < 0 {
		t.Fatal("introduction headline missing")
	}
	if abstract > intro {
		t.Errorf("abstract at %d after introduction at %d", abstract, intro)
	}
}

func TestProjectSectionNumbering(t *testing.T) {
	texts := projectTexts(parseMockProject(t))
	wantPrefixes := []string{"1. Introduction", "2. Data and Methods", "2.1 Data Sources", "2.2 Estimation Strategy", "3. Results", "4. Conclusion"}
	for _, want := range wantPrefixes {
		found := false
		for _, txt := range texts {
			if strings.HasPrefix(txt, want) {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("headline %q missing from %v", want, texts)
		}
	}
}

func TestProjectAppendixUsesLetters(t *testing.T) {
	texts := projectTexts(parseMockProject(t))
	found := false
	for _, txt := range texts {
		if strings.HasPrefix(txt, "A. Robustness Checks") {
			found = true
		}
	}
	if !found {
		t.Errorf("appendix headline missing from %v", texts)
	}
}

func TestProjectTableNarrated(t *testing.T) {
	texts := projectTexts(parseMockProject(t))
	var table, caption string
	for _, txt := range texts {
		if strings.HasPrefix(txt, "Table data: ") {
			table = txt
		}
		if strings.Contains(txt, "Returns to Education by income group") {
			caption = txt
		}
	}
	if table == "" {
		t.Fatalf("table data missing from %v", texts)
	}
	if !strings.Contains(table, "High Income") || !strings.Contains(table, "Middle Income") {
		t.Errorf("table rows incomplete: %q", table)
	}
	if caption == "" {
		t.Error("table caption missing")
	}
}

func TestProjectIncludedContentAppears(t *testing.T) {
	texts := projectTexts(parseMockProject(t))
	all := strings.Join(texts, " ")
	if !strings.Contains(all, "Robustness checks confirm") {
		t.Error("appendix.tex content missing")
	}
}

func TestProjectOutputFreeOfCommands(t *testing.T) {
	for _, txt := range projectTexts(parseMockProject(t)) {
		if strings.Contains(txt, `\`) {
			t.Errorf("backslash in output: %q", txt)
		}
	}
}

func TestProjectMissingMainFile(t *testing.T) {
	p := &LaTeXProjectParser{MainFile: "nonexistent.tex"}
	if _, err := p.Parse(bytes.NewReader(mockProjectZip(t)), "paper.zip"); err == nil {
		t.Fatal("expected error for missing main file")
	}
}

func TestLaTeXSingleFile(t *testing.T) {
	src := `\begin{document}
\section{Overview}
A single file parses fine without any project context around it.
\end{document}`
	doc, err := (&LaTeXParser{}).Parse(strings.NewReader(src), "note.tex")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	texts := projectTexts(doc)
	if len(texts) != 2 || !strings.HasPrefix(texts[0], "1. Overview") {
		t.Errorf("got %v", texts)
	}
	if doc.Title != "note" {
		t.Errorf("title = %q", doc.Title)
	}
}

func TestLaTeXListItemsBecomeParagraphs(t *testing.T) {
	src := `\begin{document}
\begin{itemize}
\item The first bullet point carries enough text to keep.
\item The second bullet point also carries enough text.
\end{itemize}
\end{document}`
	doc, err := (&LaTeXParser{}).Parse(strings.NewReader(src), "list.tex")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(doc.Paragraphs) != 2 {
		t.Errorf("got %v", projectTexts(doc))
	}
}

func TestLaTeXSkipEnvironmentsSilent(t *testing.T) {
	src := `\begin{document}
Visible prose surrounds the listing in this short document.
\begin{lstlisting}
x = secret_code()
\end{lstlisting}
\begin{equation}
E = mc^2
\end{equation}
\end{document}`
	doc, err := (&LaTeXParser{}).Parse(strings.NewReader(src), "code.tex")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	all := strings.Join(projectTexts(doc), " ")
	if strings.Contains(all, "secret_code") {
		t.Errorf("listing content leaked: %q", all)
	}
	if strings.Contains(all, "mc^2") {
		t.Errorf("equation content leaked: %q", all)
	}
}
