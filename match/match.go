// Package match implements the family of question-similarity algorithms:
// Levenshtein ratio, Jaccard token overlap, TF-IDF cosine, BM25 and an
// optional word-vector cosine strategy. All algorithms share one contract
// (FindMostSimilar) and one merge policy, and every score they produce lies
// in [0,1]. Corpus statistics are computed once at construction; after that
// an algorithm is immutable and safe for concurrent use.
package match

import (
	"fmt"
	"sort"

	"github.com/Jarturog/colpabot/synonyms"
)

// Kind selects one algorithm out of the family.
type Kind string

const (
	KindLevenshtein Kind = "levenshtein"
	KindJaccard     Kind = "jaccard"
	KindTFIDF       Kind = "tfidf"
	KindBM25        Kind = "bm25"
	KindVector      Kind = "vector"
)

// Match pairs a candidate question with its similarity score. Identity is by
// Text only; Score orders descending.
type Match struct {
	Text  string
	Score float64
}

// NewMatch constructs a Match, rejecting scores outside [0,1]. A score out
// of range is a programming error in the algorithm that produced it.
func NewMatch(text string, score float64) (Match, error) {
	if score < 0 || score > 1 {
		return Match{}, fmt.Errorf("%w: %g for %q", ErrScoreOutOfRange, score, text)
	}
	return Match{Text: text, Score: score}, nil
}

// Thresholds carries an algorithm's (minimum, acceptance) similarity pair.
// Scores below Minimum are discarded, scores at or above Acceptance are
// confident matches, and the band in between is plausible but uncertain.
type Thresholds struct {
	Minimum    float64
	Acceptance float64
}

func (t Thresholds) validate() error {
	if t.Minimum < 0 || t.Minimum > 1 || t.Acceptance < 0 || t.Acceptance > 1 {
		return fmt.Errorf("%w: %+v not in [0,1]", ErrInvalidThresholds, t)
	}
	if t.Minimum > t.Acceptance {
		return fmt.Errorf("%w: minimum %g > acceptance %g", ErrInvalidThresholds, t.Minimum, t.Acceptance)
	}
	return nil
}

// Algorithm is the capability shared by every member of the family.
// Implementations report candidate questions by their original text, best
// first, truncated to topN after de-duplication.
type Algorithm interface {
	// FindMostSimilar scores input against the candidate questions and
	// returns the top matches in descending score order.
	FindMostSimilar(input string, candidates []string, topN int) ([]Match, error)

	// Thresholds returns the algorithm's own similarity thresholds.
	Thresholds() Thresholds
}

// Merge applies the family-wide tie-break/dedup policy: sort all pooled
// matches by descending score, drop later duplicates by text, truncate to
// topN. Sorting is stable so equal scores keep pool order; a topN of 0
// means unbounded.
func Merge(pool []Match, topN int) []Match {
	sort.SliceStable(pool, func(i, j int) bool {
		return pool[i].Score > pool[j].Score
	})
	seen := make(map[string]bool, len(pool))
	out := make([]Match, 0, min(len(pool), topN))
	for _, m := range pool {
		if seen[m.Text] {
			continue
		}
		seen[m.Text] = true
		out = append(out, m)
		if topN > 0 && len(out) == topN {
			break
		}
	}
	return out
}

// expandInput produces the token-sequence variants for an input, falling
// back to the raw tokenization when no expander is configured or expansion
// yields nothing.
func expandInput(exp *synonyms.Expander, tokens []string) [][]string {
	if exp == nil {
		return [][]string{tokens}
	}
	variants := exp.Expand(tokens)
	if len(variants) == 0 {
		return [][]string{tokens}
	}
	return variants
}
