package match

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/Jarturog/colpabot/synonyms"
)

// Registry holds one language's constructed algorithm family, keyed by Kind.
type Registry map[Kind]Algorithm

// NewRegistry constructs the full family over a language's question corpus.
// The vector strategy is included only when word vectors exist for the
// language; its absence is logged and the rest of the family is unaffected.
func NewRegistry(questions []string, expander *synonyms.Expander, vectors map[string][]float32) (Registry, error) {
	reg := Registry{
		KindLevenshtein: NewLevenshtein(expander),
		KindJaccard:     NewJaccard(expander),
		KindTFIDF:       NewTFIDF(questions, expander),
		KindBM25:        NewBM25(questions, expander),
	}

	vec, err := NewVector(vectors, questions)
	switch {
	case err == nil:
		reg[KindVector] = vec
	case errors.Is(err, ErrLanguageNotSupported):
		slog.Debug("match: vector strategy unavailable", "error", err)
	default:
		return nil, fmt.Errorf("building vector strategy: %w", err)
	}

	for kind, algo := range reg {
		if err := algo.Thresholds().validate(); err != nil {
			return nil, fmt.Errorf("algorithm %s: %w", kind, err)
		}
	}
	return reg, nil
}

// Get returns the algorithm for kind, or ErrUnknownKind. An unknown
// selector is a caller error, not a data problem.
func (r Registry) Get(kind Kind) (Algorithm, error) {
	algo, ok := r[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return algo, nil
}

// Kinds returns the selectors available in this registry.
func (r Registry) Kinds() []Kind {
	kinds := make([]Kind, 0, len(r))
	for k := range r {
		kinds = append(kinds, k)
	}
	return kinds
}
