package match

import "errors"

var (
	// ErrScoreOutOfRange is returned when an algorithm produces a
	// similarity outside [0,1]. This is a programming error, not a data
	// problem.
	ErrScoreOutOfRange = errors.New("match: score out of [0,1] range")

	// ErrInvalidThresholds is returned at construction for threshold pairs
	// outside [0,1] or with minimum above acceptance.
	ErrInvalidThresholds = errors.New("match: invalid similarity thresholds")

	// ErrLanguageNotSupported is returned by the vector strategy when no
	// word embeddings exist for a language. Callers skip the strategy and
	// keep the rest of the family.
	ErrLanguageNotSupported = errors.New("match: language not supported by vector strategy")

	// ErrUnknownKind is returned when a selector names no registered
	// algorithm.
	ErrUnknownKind = errors.New("match: unknown algorithm kind")
)
