package chunker

import (
	"strings"
	"unicode"
)

// abbreviations that commonly precede a period without ending the sentence.
// Guarding against them is best-effort; misses degrade to an early chunk
// boundary, not corrupted text.
var abbreviations = map[string]bool{
	"mr.": true, "mrs.": true, "ms.": true, "dr.": true, "prof.": true,
	"sr.": true, "jr.": true, "st.": true, "vs.": true, "etc.": true,
	"e.g.": true, "i.e.": true, "cf.": true, "al.": true, "et al.": true,
	"fig.": true, "figs.": true, "eq.": true, "eqs.": true, "sec.": true,
	"no.": true, "vol.": true, "pp.": true, "approx.": true,
}

const closers = `"')]}` + "’”»"

// SplitSentences splits text on terminal punctuation (. ! ?), keeping any
// closing quotes or brackets with the sentence they end.
func SplitSentences(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var sentences []string
	runes := []rune(text)
	start := 0

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		// Absorb closing quotes/parens after the terminator.
		end := i + 1
		for end < len(runes) && strings.ContainsRune(closers, runes[end]) {
			end++
		}
		if !boundaryAt(runes, start, i, end) {
			continue
		}
		s := strings.TrimSpace(string(runes[start:end]))
		if s != "" {
			sentences = append(sentences, s)
		}
		start = end
		i = end - 1
	}

	if rest := strings.TrimSpace(string(runes[start:])); rest != "" {
		sentences = append(sentences, rest)
	}
	return sentences
}

// boundaryAt decides whether the terminator at index term really ends a
// sentence, given the sentence start and the position just past any closers.
func boundaryAt(runes []rune, start, term, end int) bool {
	// End of text is always a boundary.
	if end >= len(runes) {
		return true
	}
	// A sentence boundary is followed by whitespace.
	if !unicode.IsSpace(runes[end]) {
		return false
	}
	if runes[term] != '.' {
		return true
	}

	// Look at the word carrying the period.
	wordStart := term
	for wordStart > start && !unicode.IsSpace(runes[wordStart-1]) {
		wordStart--
	}
	word := strings.ToLower(string(runes[wordStart : term+1]))
	if abbreviations[word] {
		return false
	}
	// Single-letter initials such as "J." in "J. Doe".
	if len(word) == 2 && unicode.IsLetter(rune(word[0])) {
		return false
	}
	// Decimal numbers ("3.14") never reach here: the character after the
	// period is a digit, not whitespace.
	return true
}
