package match

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/Jarturog/colpabot/textutil"
)

// oovFoldDistance bounds the edit-distance fallback for words missing from
// the embedding table.
const oovFoldDistance = 2

// Vector scores candidates by cosine similarity of mean word embeddings.
// The per-language embedding table is fixed at construction; words missing
// from it fall back to the nearest table word within a small edit distance,
// or contribute nothing. Construction fails with ErrLanguageNotSupported
// when no embeddings exist, and the caller omits this strategy.
type Vector struct {
	thresholds Thresholds

	vectors map[string][]float64
	words   []string // table keys, for the edit-distance fallback
	dim     int

	// candidate embeddings are precomputed for the corpus questions.
	embeddings map[string][]float64
}

// NewVector builds the embedding strategy from a word-vector table.
// questions are the per-language corpus questions whose embeddings are
// precomputed. Returns ErrLanguageNotSupported when vectors is empty.
func NewVector(vectors map[string][]float32, questions []string) (*Vector, error) {
	if len(vectors) == 0 {
		return nil, ErrLanguageNotSupported
	}

	v := &Vector{
		thresholds: Thresholds{Minimum: 0.8, Acceptance: 0.93},
		vectors:    make(map[string][]float64, len(vectors)),
		embeddings: make(map[string][]float64),
	}
	for word, vec := range vectors {
		if v.dim == 0 {
			v.dim = len(vec)
		} else if len(vec) != v.dim {
			return nil, fmt.Errorf("match: embedding for %q has dimension %d, table uses %d", word, len(vec), v.dim)
		}
		f64 := make([]float64, len(vec))
		for i, x := range vec {
			f64[i] = float64(x)
		}
		v.vectors[word] = f64
		v.words = append(v.words, word)
	}

	for _, q := range questions {
		n := textutil.Normalize(q)
		if _, ok := v.embeddings[n]; !ok {
			if emb := v.embed(textutil.Tokenize(n)); emb != nil {
				v.embeddings[n] = emb
			}
		}
	}
	return v, nil
}

func (v *Vector) Thresholds() Thresholds { return v.thresholds }

// embed returns the elementwise mean of the tokens' word vectors, or nil if
// no token resolves to a vector.
func (v *Vector) embed(tokens []string) []float64 {
	sum := make([]float64, v.dim)
	n := 0
	for _, tok := range tokens {
		vec, ok := v.vectors[tok]
		if !ok {
			if near := textutil.Closest(tok, v.words, 1, oovFoldDistance); len(near) > 0 {
				vec, ok = v.vectors[near[0]]
			}
		}
		if !ok {
			continue
		}
		floats.Add(sum, vec)
		n++
	}
	if n == 0 {
		return nil
	}
	floats.Scale(1/float64(n), sum)
	return sum
}

func (v *Vector) FindMostSimilar(input string, candidates []string, topN int) ([]Match, error) {
	query := v.embed(textutil.Tokenize(textutil.Normalize(input)))

	var pool []Match
	for _, candidate := range candidates {
		normCand := textutil.Normalize(candidate)
		cand, ok := v.embeddings[normCand]
		if !ok {
			cand = v.embed(textutil.Tokenize(normCand))
		}
		score := 0.0
		if query != nil && cand != nil {
			score = cosineDense(query, cand)
		}
		m, err := NewMatch(candidate, score)
		if err != nil {
			return nil, err
		}
		pool = append(pool, m)
	}
	return Merge(pool, topN), nil
}

// cosineDense computes cosine similarity of two dense vectors, clamped to
// [0,1]; word vectors can have negative components so negative similarities
// floor at 0.
func cosineDense(a, b []float64) float64 {
	na := floats.Norm(a, 2)
	nb := floats.Norm(b, 2)
	if na == 0 || nb == 0 {
		return 0
	}
	s := floats.Dot(a, b) / (na * nb)
	return math.Min(math.Max(s, 0), 1)
}
