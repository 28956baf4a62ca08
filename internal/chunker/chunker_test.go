package chunker

import (
	"reflect"
	"strings"
	"testing"

	"github.com/docvoice/docvoice/internal/layout"
)

func chunkTexts(chunks []layout.Chunk) []string {
	out := make([]string, len(chunks))
	for i, c := range chunks {
		out[i] = c.Text
	}
	return out
}

func TestChunksRespectMaxChars(t *testing.T) {
	var sentences []string
	for i := 0; i < 20; i++ {
		sentences = append(sentences, "This sentence pads out the paragraph with ordinary prose.")
	}
	paras := []layout.Paragraph{{Text: strings.Join(sentences, " ")}}

	chunks := Collect(paras, Config{MaxChars: 200})
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for _, c := range chunks {
		if len(c.Text) > 200 {
			t.Errorf("chunk %d is %d chars, exceeds bound: %q", c.Index, len(c.Text), c.Text)
		}
		if c.Oversized {
			t.Errorf("chunk %d flagged oversized for ordinary sentences", c.Index)
		}
	}
}

func TestChunksEndOnSentenceBoundaries(t *testing.T) {
	paras := []layout.Paragraph{
		{Text: "First sentence here. Second sentence follows! Third asks a question? Fourth wraps up."},
	}
	for _, c := range Collect(paras, Config{MaxChars: 50}) {
		last := c.Text[len(c.Text)-1]
		if last != '.' && last != '!' && last != '?' {
			t.Errorf("chunk does not end on a terminator: %q", c.Text)
		}
	}
}

func TestChunksLosslessReassembly(t *testing.T) {
	paras := []layout.Paragraph{
		{Text: "Alpha beta gamma delta. Epsilon zeta eta theta. Iota kappa lambda mu."},
		{Text: "Nu xi omicron pi. Rho sigma tau upsilon. Phi chi psi omega."},
	}
	chunks := Collect(paras, Config{MaxChars: 40})
	joined := strings.Join(chunkTexts(chunks), " ")
	want := paras[0].Text + " " + paras[1].Text
	if joined != want {
		t.Errorf("reassembly lost text:\ngot:  %q\nwant: %q", joined, want)
	}
}

func TestChunkIndicesSequential(t *testing.T) {
	paras := []layout.Paragraph{
		{Text: "One sentence. Two sentence. Three sentence. Four sentence. Five sentence."},
	}
	for i, c := range Collect(paras, Config{MaxChars: 30}) {
		if c.Index != i {
			t.Errorf("chunk %d has index %d", i, c.Index)
		}
	}
}

func TestOversizedSentenceEmittedWhole(t *testing.T) {
	long := "This single sentence runs on and on, " + strings.Repeat("clause after clause, ", 10) + "and only ends here."
	paras := []layout.Paragraph{
		{Text: "A normal opener."},
		{Text: long},
		{Text: "A normal closer."},
	}
	chunks := Collect(paras, Config{MaxChars: 100})

	var oversized []layout.Chunk
	for _, c := range chunks {
		if c.Oversized {
			oversized = append(oversized, c)
		}
	}
	if len(oversized) != 1 {
		t.Fatalf("want exactly one oversized chunk, got %d", len(oversized))
	}
	if oversized[0].Text != long {
		t.Errorf("oversized sentence was altered: %q", oversized[0].Text)
	}
}

func TestParagraphBoundaryFlush(t *testing.T) {
	// First paragraph lands above the flush ratio, so the chunk seals at the
	// paragraph break instead of pulling in the next paragraph's opening.
	first := strings.Repeat("Nine char. ", 9) // ~98 chars of full sentences
	paras := []layout.Paragraph{
		{Text: strings.TrimSpace(first)},
		{Text: "The next paragraph starts a fresh chunk."},
	}
	chunks := Collect(paras, Config{MaxChars: 120, ParaFlushRatio: 0.8})
	if len(chunks) != 2 {
		t.Fatalf("want 2 chunks, got %d: %v", len(chunks), chunkTexts(chunks))
	}
	if chunks[1].Text != "The next paragraph starts a fresh chunk." {
		t.Errorf("paragraph break not honored: %q", chunks[1].Text)
	}
}

func TestChunksEmptyInput(t *testing.T) {
	if got := Collect(nil, DefaultConfig()); len(got) != 0 {
		t.Errorf("got %v", got)
	}
	if got := Collect([]layout.Paragraph{{Text: "   "}}, DefaultConfig()); len(got) != 0 {
		t.Errorf("whitespace-only paragraph produced chunks: %v", got)
	}
}

func TestConfigValidate(t *testing.T) {
	if err := (Config{MaxChars: 500}).Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := (Config{MaxChars: 0}).Validate(); err == nil {
		t.Error("zero max chars accepted")
	}
	if err := (Config{MaxChars: -5}).Validate(); err == nil {
		t.Error("negative max chars accepted")
	}
}

func TestChunkText(t *testing.T) {
	text := "First paragraph of the plain file.\n\nSecond paragraph after a blank line."
	chunks := ChunkText(text, Config{MaxChars: 500})
	if len(chunks) != 1 {
		t.Fatalf("want 1 chunk, got %d", len(chunks))
	}
	want := "First paragraph of the plain file. Second paragraph after a blank line."
	if chunks[0].Text != want {
		t.Errorf("got %q", chunks[0].Text)
	}
}

func TestSplitSentencesBasic(t *testing.T) {
	got := SplitSentences("One here. Two there! Three anywhere?")
	want := []string{"One here.", "Two there!", "Three anywhere?"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v", got)
	}
}

func TestSplitSentencesAbbreviations(t *testing.T) {
	got := SplitSentences("Dr. Smith studied rodents, e.g. voles. The results held.")
	want := []string{"Dr. Smith studied rodents, e.g. voles.", "The results held."}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v", got)
	}
}

func TestSplitSentencesInitials(t *testing.T) {
	got := SplitSentences("The paper by J. Doe covers this. It is thorough.")
	want := []string{"The paper by J. Doe covers this.", "It is thorough."}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v", got)
	}
}

func TestSplitSentencesDecimals(t *testing.T) {
	got := SplitSentences("The ratio was 3.14 across groups. It was stable.")
	want := []string{"The ratio was 3.14 across groups.", "It was stable."}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v", got)
	}
}

func TestSplitSentencesClosersAbsorbed(t *testing.T) {
	got := SplitSentences(`He said "stop." Then he left.`)
	want := []string{`He said "stop."`, "Then he left."}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v", got)
	}
}

func TestSplitSentencesTrailingFragment(t *testing.T) {
	got := SplitSentences("A complete sentence. and a trailing fragment without a terminator")
	want := []string{"A complete sentence.", "and a trailing fragment without a terminator"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v", got)
	}
}

func TestSplitSentencesEmpty(t *testing.T) {
	if got := SplitSentences("   "); got != nil {
		t.Errorf("got %v", got)
	}
}
