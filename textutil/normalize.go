// Package textutil provides the text normalization and tokenization used by
// every matching algorithm. All question and query text goes through
// Normalize before any comparison, so the rest of the engine only ever sees
// lowercase, diacritic-free, single-spaced strings.
package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldTable maps characters that do not decompose into base + combining mark
// (or whose decomposition we want to override) to their ASCII-ish base form.
// Plain accented vowels are handled by the NFD pass below; this table covers
// ligatures and letters with no combining-mark decomposition.
var foldTable = map[rune]string{
	'ß': "ss",
	'æ': "ae",
	'œ': "oe",
	'ø': "o",
	'đ': "d",
	'ð': "d",
	'ł': "l",
	'þ': "th",
	'ı': "i",
	'ĸ': "k",
}

// punctToRemove is deleted outright: apostrophes and accent-like marks that
// glue word variants together ("what's" -> "whats").
const punctToRemove = "'’`´¨^·"

// punctToSpace is replaced by a space so it acts as a token separator.
const punctToSpace = ".,;:¡!¿?\"-+*|@#$~%&=\\/<>(){}[]_"

// stripMarks decomposes to NFD, drops combining marks and recomposes,
// turning "á" into "a", "ñ" into "n" and so on.
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// FoldDiacritics folds diacritics and ligatures to their base form.
// Characters without a known fold pass through unchanged.
func FoldDiacritics(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if rep, ok := foldTable[r]; ok {
			b.WriteString(rep)
			continue
		}
		if rep, ok := foldTable[unicode.ToLower(r)]; ok {
			b.WriteString(rep)
			continue
		}
		b.WriteRune(r)
	}
	folded, _, err := transform.String(stripMarks, b.String())
	if err != nil {
		// The transform chain cannot fail on valid UTF-8; fall back to the
		// table-folded form for anything pathological.
		return b.String()
	}
	return folded
}

// Normalize lowercases the input, folds diacritics, strips the removal
// punctuation class, turns the separator punctuation class into spaces and
// collapses runs of whitespace into single spaces. Unrecognized characters
// pass through case-folded. Normalize never fails.
func Normalize(text string) string {
	text = FoldDiacritics(text)

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		switch {
		case strings.ContainsRune(punctToRemove, r):
			// dropped
		case strings.ContainsRune(punctToSpace, r):
			b.WriteByte(' ')
		case unicode.IsSpace(r):
			b.WriteByte(' ')
		default:
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Tokenize splits normalized text on spaces, dropping empty tokens.
func Tokenize(text string) []string {
	return strings.Fields(text)
}

// Detokenize joins tokens back into a single-spaced string.
func Detokenize(tokens []string) string {
	return strings.Join(tokens, " ")
}

// Vocabulary returns the set of tokens appearing in any of the given
// questions after normalization. Duplicate questions contribute once.
func Vocabulary(questions []string) map[string]bool {
	vocab := make(map[string]bool)
	seen := make(map[string]bool, len(questions))
	for _, q := range questions {
		n := Normalize(q)
		if seen[n] {
			continue
		}
		seen[n] = true
		for _, tok := range Tokenize(n) {
			vocab[tok] = true
		}
	}
	return vocab
}
