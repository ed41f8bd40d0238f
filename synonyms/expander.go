package synonyms

import (
	"log/slog"
	"strings"

	"github.com/Jarturog/colpabot/textutil"
)

// fuzzyLadder is the sequence of (count, maxDistance) pairs tried when an
// out-of-vocabulary token needs a close replacement. Tried in order until at
// least one candidate is found.
var fuzzyLadder = [][2]int{
	{1, 1},
	{2, 2},
	{3, 3},
}

// maxVariants caps the Cartesian product of per-position candidate sets.
// Queries are short so this is rarely reached; it guards against synonym
// lines producing combinatorial blowups.
const maxVariants = 128

// Expander holds one language's synonym table, filtered against the corpus
// vocabulary. Immutable after NewExpander; safe for concurrent reads.
type Expander struct {
	groups *Groups
	vocab  map[string]bool

	// searchSpace is vocabulary ∪ synonym-table keys, the pool for fuzzy
	// replacement of out-of-vocabulary tokens.
	searchSpace []string
}

// NewExpander builds a per-language expander from raw synonym lines. Each
// line is one group of interchangeable phrases. Tokens are normalized, lines
// with no connection to the corpus vocabulary are dropped, and grouping
// conflicts are logged and skipped rather than treated as fatal.
func NewExpander(lines [][]string, vocab map[string]bool) *Expander {
	groups := NewGroups()

	for _, line := range lines {
		normalized := make([]string, 0, len(line))
		for _, raw := range line {
			if n := textutil.Normalize(raw); n != "" {
				normalized = append(normalized, n)
			}
		}
		if len(normalized) < 2 {
			continue
		}
		if !touchesVocabulary(normalized, vocab) {
			slog.Debug("synonyms: dropping line with no vocabulary overlap", "line", normalized)
			continue
		}
		if err := groups.Assign(normalized[0], normalized[1:]...); err != nil {
			slog.Warn("synonyms: skipping conflicting line", "line", normalized, "error", err)
		}
	}

	e := &Expander{groups: groups, vocab: vocab}

	space := make(map[string]bool, len(vocab)+groups.Len())
	for w := range vocab {
		space[w] = true
	}
	for _, k := range groups.Keys() {
		space[k] = true
	}
	e.searchSpace = make([]string, 0, len(space))
	for w := range space {
		e.searchSpace = append(e.searchSpace, w)
	}
	return e
}

// touchesVocabulary reports whether at least one phrase on the line, or one
// word of a multi-word phrase, appears in the corpus vocabulary. Synonyms
// for words the corpus never uses are worthless.
func touchesVocabulary(phrases []string, vocab map[string]bool) bool {
	for _, p := range phrases {
		if vocab[p] {
			return true
		}
	}
	for _, p := range phrases {
		for _, w := range strings.Fields(p) {
			if vocab[w] {
				return true
			}
		}
	}
	return false
}

// Lookup exposes the group of a normalized token.
func (e *Expander) Lookup(token string) []string {
	return e.groups.Lookup(token)
}

// InVocabulary reports whether the token appears in the corpus vocabulary.
func (e *Expander) InVocabulary(token string) bool {
	return e.vocab[token]
}

// Expand turns a tokenized query into the alternative token sequences to
// score. Per position: an in-vocabulary token stands for itself; an unknown
// token is replaced by its closest matches in vocabulary-or-synonym space
// (progressively looser search), or dropped if nothing is close enough.
// Every candidate is then widened through its synonym group, keeping only
// members whose words the vocabulary knows. The Cartesian product of the
// per-position candidate sets is returned, multi-word phrases re-tokenized
// into the flat sequence.
func (e *Expander) Expand(tokens []string) [][]string {
	var positions [][]string
	for _, tok := range tokens {
		cands := e.candidates(tok)
		if len(cands) == 0 {
			continue // position dropped entirely
		}
		positions = append(positions, cands)
	}
	if len(positions) == 0 {
		return nil
	}

	variants := [][]string{{}}
	capped := false
	for _, cands := range positions {
		next := make([][]string, 0, len(variants)*len(cands))
		for _, v := range variants {
			for _, c := range cands {
				seq := make([]string, len(v), len(v)+1)
				copy(seq, v)
				seq = append(seq, textutil.Tokenize(c)...)
				next = append(next, seq)
				// Past the cap, each prefix keeps growing with a single
				// candidate per position, so every returned sequence still
				// covers all positions.
				if capped || len(next) >= maxVariants {
					capped = true
					break
				}
			}
		}
		variants = next
	}
	if capped {
		slog.Debug("synonyms: variant cap reached", "tokens", tokens)
	}
	return variants
}

// candidates computes the per-position candidate set for one token.
func (e *Expander) candidates(tok string) []string {
	var base []string
	if e.vocab[tok] {
		base = []string{tok}
	} else {
		for _, step := range fuzzyLadder {
			base = textutil.Closest(tok, e.searchSpace, step[0], step[1])
			if len(base) > 0 {
				break
			}
		}
		if len(base) == 0 {
			return nil
		}
	}

	seen := make(map[string]bool, len(base))
	out := make([]string, 0, len(base))
	add := func(c string) {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	for _, c := range base {
		add(c)
		for _, syn := range e.groups.Lookup(c) {
			if syn != c && e.phraseInVocabulary(syn) {
				add(syn)
			}
		}
	}
	return out
}

// phraseInVocabulary reports whether every word of a (possibly multi-word)
// synonym phrase is in the corpus vocabulary.
func (e *Expander) phraseInVocabulary(phrase string) bool {
	words := strings.Fields(phrase)
	if len(words) == 0 {
		return false
	}
	for _, w := range words {
		if !e.vocab[w] {
			return false
		}
	}
	return true
}
