package match

import (
	"github.com/Jarturog/colpabot/synonyms"
	"github.com/Jarturog/colpabot/textutil"
)

// maxEditDistance caps the character-level edit distance; anything farther
// scores 0. With the cap at 20, two single-character substitutions into an
// otherwise exact question still score 0.9.
const maxEditDistance = 20

// Levenshtein scores candidates by normalized edit-distance ratio:
// 1 - distance/maxEditDistance, floored at 0 past the cap. Synonym-expanded
// variants of the input are tried in addition to the raw input.
type Levenshtein struct {
	expander   *synonyms.Expander
	thresholds Thresholds
}

// NewLevenshtein builds the edit-distance strategy. expander may be nil.
func NewLevenshtein(expander *synonyms.Expander) *Levenshtein {
	return &Levenshtein{
		expander:   expander,
		thresholds: Thresholds{Minimum: 0.5, Acceptance: 0.8},
	}
}

func (l *Levenshtein) Thresholds() Thresholds { return l.thresholds }

func (l *Levenshtein) FindMostSimilar(input string, candidates []string, topN int) ([]Match, error) {
	normalized := textutil.Normalize(input)
	inputs := []string{normalized}
	for _, variant := range expandInput(l.expander, textutil.Tokenize(normalized)) {
		if v := textutil.Detokenize(variant); v != normalized {
			inputs = append(inputs, v)
		}
	}

	var pool []Match
	for _, candidate := range candidates {
		normCand := textutil.Normalize(candidate)
		best := 0.0
		for _, in := range inputs {
			if s := ratio(in, normCand); s > best {
				best = s
			}
		}
		m, err := NewMatch(candidate, best)
		if err != nil {
			return nil, err
		}
		pool = append(pool, m)
	}
	return Merge(pool, topN), nil
}

func ratio(a, b string) float64 {
	d := textutil.EditDistance(a, b)
	if d >= maxEditDistance {
		return 0
	}
	return 1 - float64(d)/maxEditDistance
}
