package match

import (
	"math"

	"github.com/Jarturog/colpabot/synonyms"
	"github.com/Jarturog/colpabot/textutil"
)

// TFIDF scores candidates by cosine similarity between TF-IDF vectors.
// Document frequencies are computed once over the whole per-language
// question corpus at construction; the query vector is built the same way
// over the synonym-expanded token multiset. Negative cosines (impossible
// with non-negative weights, kept as a floor anyway) clamp to 0.
type TFIDF struct {
	expander   *synonyms.Expander
	thresholds Thresholds

	docFreq map[string]int
	numDocs int
	// docVectors caches the weighted vector of every corpus question by its
	// normalized text, so per-query work is only the query side.
	docVectors map[string]map[string]float64
}

// NewTFIDF builds the TF-IDF strategy over the full question corpus.
// expander may be nil.
func NewTFIDF(questions []string, expander *synonyms.Expander) *TFIDF {
	t := &TFIDF{
		expander:   expander,
		thresholds: Thresholds{Minimum: 0.4, Acceptance: 0.75},
		docFreq:    make(map[string]int),
		docVectors: make(map[string]map[string]float64),
	}

	seen := make(map[string]bool, len(questions))
	var docs [][]string
	for _, q := range questions {
		n := textutil.Normalize(q)
		if seen[n] {
			continue
		}
		seen[n] = true
		tokens := textutil.Tokenize(n)
		docs = append(docs, tokens)
		for tok := range tokenSet(tokens) {
			t.docFreq[tok]++
		}
	}
	t.numDocs = len(docs)

	for _, tokens := range docs {
		t.docVectors[textutil.Detokenize(tokens)] = t.vector(tokens)
	}
	return t
}

func (t *TFIDF) Thresholds() Thresholds { return t.thresholds }

// idf is Laplace-smoothed so terms unseen at build time still get a finite,
// small weight: log((1+N)/(1+df)).
func (t *TFIDF) idf(term string) float64 {
	return math.Log(float64(1+t.numDocs) / float64(1+t.docFreq[term]))
}

// vector builds the tf×idf weight map for a token multiset.
func (t *TFIDF) vector(tokens []string) map[string]float64 {
	counts := make(map[string]int, len(tokens))
	for _, tok := range tokens {
		counts[tok]++
	}
	vec := make(map[string]float64, len(counts))
	for term, c := range counts {
		vec[term] = float64(c) * t.idf(term)
	}
	return vec
}

func (t *TFIDF) FindMostSimilar(input string, candidates []string, topN int) ([]Match, error) {
	variants := expandInput(t.expander, textutil.Tokenize(textutil.Normalize(input)))

	var pool []Match
	for _, candidate := range candidates {
		normCand := textutil.Normalize(candidate)
		docVec, ok := t.docVectors[normCand]
		if !ok {
			docVec = t.vector(textutil.Tokenize(normCand))
		}
		for _, variant := range variants {
			score := cosine(t.vector(variant), docVec)
			m, err := NewMatch(candidate, score)
			if err != nil {
				return nil, err
			}
			pool = append(pool, m)
		}
	}
	return Merge(pool, topN), nil
}

// cosine computes the cosine similarity of two sparse vectors, clamped to
// [0,1].
func cosine(a, b map[string]float64) float64 {
	var dot, na, nb float64
	for term, w := range a {
		dot += w * b[term]
		na += w * w
	}
	for _, w := range b {
		nb += w * w
	}
	if na == 0 || nb == 0 {
		return 0
	}
	s := dot / (math.Sqrt(na) * math.Sqrt(nb))
	return math.Min(math.Max(s, 0), 1)
}
