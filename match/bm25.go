package match

import (
	"math"

	"github.com/Jarturog/colpabot/synonyms"
	"github.com/Jarturog/colpabot/textutil"
)

// Standard BM25 free parameters.
const (
	bm25K1 = 1.2
	bm25B  = 0.75
)

// BM25 scores candidates with the probabilistic BM25 ranking function over
// corpus statistics built once at construction. The raw additive score is
// squashed into [0,1] with 1 - e^(-score), which is monotonic and bounded.
type BM25 struct {
	expander   *synonyms.Expander
	thresholds Thresholds

	docFreq   map[string]int
	numDocs   int
	avgDocLen float64
}

// NewBM25 builds the BM25 strategy over the full question corpus.
// expander may be nil.
func NewBM25(questions []string, expander *synonyms.Expander) *BM25 {
	b := &BM25{
		expander:   expander,
		thresholds: Thresholds{Minimum: 0.3, Acceptance: 0.6},
		docFreq:    make(map[string]int),
	}

	seen := make(map[string]bool, len(questions))
	totalLen := 0
	for _, q := range questions {
		n := textutil.Normalize(q)
		if seen[n] {
			continue
		}
		seen[n] = true
		tokens := textutil.Tokenize(n)
		totalLen += len(tokens)
		for tok := range tokenSet(tokens) {
			b.docFreq[tok]++
		}
		b.numDocs++
	}
	if b.numDocs > 0 {
		b.avgDocLen = float64(totalLen) / float64(b.numDocs)
	}
	return b
}

func (b *BM25) Thresholds() Thresholds { return b.thresholds }

// idf uses the non-negative BM25+ form log(1 + (N-df+0.5)/(df+0.5)).
func (b *BM25) idf(term string) float64 {
	df := float64(b.docFreq[term])
	return math.Log(1 + (float64(b.numDocs)-df+0.5)/(df+0.5))
}

// score computes the raw additive BM25 score of query tokens against one
// document's token counts.
func (b *BM25) score(query []string, docCounts map[string]int, docLen int) float64 {
	if b.avgDocLen == 0 {
		return 0
	}
	s := 0.0
	for _, term := range query {
		tf := float64(docCounts[term])
		if tf == 0 {
			continue
		}
		norm := tf * (bm25K1 + 1) / (tf + bm25K1*(1-bm25B+bm25B*float64(docLen)/b.avgDocLen))
		s += b.idf(term) * norm
	}
	return s
}

func (b *BM25) FindMostSimilar(input string, candidates []string, topN int) ([]Match, error) {
	variants := expandInput(b.expander, textutil.Tokenize(textutil.Normalize(input)))

	var pool []Match
	for _, candidate := range candidates {
		tokens := textutil.Tokenize(textutil.Normalize(candidate))
		counts := make(map[string]int, len(tokens))
		for _, tok := range tokens {
			counts[tok]++
		}
		for _, variant := range variants {
			raw := b.score(variant, counts, len(tokens))
			m, err := NewMatch(candidate, 1-math.Exp(-raw))
			if err != nil {
				return nil, err
			}
			pool = append(pool, m)
		}
	}
	return Merge(pool, topN), nil
}
