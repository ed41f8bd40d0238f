package match

import (
	"github.com/Jarturog/colpabot/synonyms"
	"github.com/Jarturog/colpabot/textutil"
)

// Jaccard scores candidates by token-set overlap: |A ∩ B| / |A ∪ B|.
// Each synonym-expanded variant of the input is evaluated independently and
// the pooled results are merged under the shared dedup policy.
type Jaccard struct {
	expander   *synonyms.Expander
	thresholds Thresholds
}

// NewJaccard builds the token-overlap strategy. expander may be nil.
func NewJaccard(expander *synonyms.Expander) *Jaccard {
	return &Jaccard{
		expander:   expander,
		thresholds: Thresholds{Minimum: 0.33, Acceptance: 0.66},
	}
}

func (j *Jaccard) Thresholds() Thresholds { return j.thresholds }

func (j *Jaccard) FindMostSimilar(input string, candidates []string, topN int) ([]Match, error) {
	variants := expandInput(j.expander, textutil.Tokenize(textutil.Normalize(input)))

	var pool []Match
	for _, candidate := range candidates {
		candSet := tokenSet(textutil.Tokenize(textutil.Normalize(candidate)))
		for _, variant := range variants {
			m, err := NewMatch(candidate, jaccard(tokenSet(variant), candSet))
			if err != nil {
				return nil, err
			}
			pool = append(pool, m)
		}
	}
	return Merge(pool, topN), nil
}

func tokenSet(tokens []string) map[string]bool {
	set := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		set[t] = true
	}
	return set
}

// jaccard computes intersection over union. Two empty sets share nothing to
// compare, so the similarity is 0.
func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	inter := 0
	for t := range a {
		if b[t] {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}
