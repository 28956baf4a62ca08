package parser

import (
	"strings"
	"testing"
)

func docTexts(t *testing.T, p Parser, src, filename string) []string {
	t.Helper()
	doc, err := p.Parse(strings.NewReader(src), filename)
	if err != nil {
		t.Fatalf("parse %s: %v", filename, err)
	}
	out := make([]string, len(doc.Paragraphs))
	for i, para := range doc.Paragraphs {
		out[i] = para.Text
	}
	return out
}

func TestForFile(t *testing.T) {
	cases := map[string]bool{
		"paper.pdf":    true,
		"PAPER.PDF":    true,
		"notes.txt":    true,
		"README.md":    true,
		"page.html":    true,
		"page.htm":     true,
		"report.docx":  true,
		"thesis.tex":   true,
		"project.zip":  true,
		"image.png":    false,
		"archive.tar":  false,
		"no-extension": false,
		"slides.pptx":  false,
	}
	for name, want := range cases {
		_, err := ForFile(name)
		if got := err == nil; got != want {
			t.Errorf("ForFile(%q): err = %v, supported = %v", name, err, want)
		}
		if got := IsSupportedExtension(name); got != want {
			t.Errorf("IsSupportedExtension(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestTextParserParagraphs(t *testing.T) {
	src := "First line of one paragraph\nwraps onto a second line.\n\n\nSecond paragraph stands alone.\n"
	texts := docTexts(t, &TextParser{}, src, "notes.txt")
	want := []string{
		"First line of one paragraph wraps onto a second line.",
		"Second paragraph stands alone.",
	}
	if len(texts) != len(want) {
		t.Fatalf("got %v", texts)
	}
	for i := range want {
		if texts[i] != want[i] {
			t.Errorf("paragraph %d = %q, want %q", i, texts[i], want[i])
		}
	}
}

func TestTextParserTitleFromFilename(t *testing.T) {
	doc, err := (&TextParser{}).Parse(strings.NewReader("hello"), "my-notes.txt")
	if err != nil {
		t.Fatal(err)
	}
	if doc.Title != "my-notes" {
		t.Errorf("title = %q", doc.Title)
	}
}

func TestMarkdownParser(t *testing.T) {
	src := "# Top Heading\n\nA paragraph of prose with *emphasis* inside it.\n\n- first item\n- second item\n\n```\ncode block to skip\n```\n\nClosing paragraph.\n"
	texts := docTexts(t, &MarkdownParser{}, src, "doc.md")

	want := []string{
		"Top Heading",
		"A paragraph of prose with emphasis inside it.",
		"first item",
		"second item",
		"Closing paragraph.",
	}
	if len(texts) != len(want) {
		t.Fatalf("got %v", texts)
	}
	for i := range want {
		if texts[i] != want[i] {
			t.Errorf("paragraph %d = %q, want %q", i, texts[i], want[i])
		}
	}
}

func TestMarkdownParserSkipsHTMLBlocks(t *testing.T) {
	src := "Real prose first.\n\n<div>\nraw html here\n</div>\n"
	texts := docTexts(t, &MarkdownParser{}, src, "doc.md")
	for _, txt := range texts {
		if strings.Contains(txt, "raw html") {
			t.Errorf("html block leaked: %q", txt)
		}
	}
}

func TestHTMLParser(t *testing.T) {
	src := `<html><head><title>Sample Page</title></head><body>
<header>site chrome</header>
<nav>menu menu menu</nav>
<h1>Main Heading</h1>
<p>Body prose in a paragraph element.</p>
<ul><li>list entry</li></ul>
<script>alert("nope")</script>
<footer>copyright line</footer>
</body></html>`
	doc, err := (&HTMLParser{}).Parse(strings.NewReader(src), "page.html")
	if err != nil {
		t.Fatal(err)
	}
	if doc.Title != "Sample Page" {
		t.Errorf("title = %q", doc.Title)
	}

	var texts []string
	for _, p := range doc.Paragraphs {
		texts = append(texts, p.Text)
	}
	all := strings.Join(texts, " ")
	for _, want := range []string{"Main Heading", "Body prose in a paragraph element.", "list entry"} {
		if !strings.Contains(all, want) {
			t.Errorf("%q missing from %v", want, texts)
		}
	}
	for _, skip := range []string{"menu", "alert", "copyright", "chrome"} {
		if strings.Contains(all, skip) {
			t.Errorf("%q should be skipped: %v", skip, texts)
		}
	}
}

func TestHTMLParserNestedMarkup(t *testing.T) {
	src := `<body><p>Text with <strong>bold</strong> and <a href="#">a link</a> inline.</p></body>`
	texts := docTexts(t, &HTMLParser{}, src, "page.html")
	if len(texts) != 1 || texts[0] != "Text with bold and a link inline." {
		t.Errorf("got %v", texts)
	}
}
