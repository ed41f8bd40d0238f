package colpabot

import "errors"

var (
	// ErrUnknownLanguage is returned when a query names a language the
	// engine was not built for.
	ErrUnknownLanguage = errors.New("colpabot: unknown language")

	// ErrInvalidConfig is returned for invalid configuration values.
	ErrInvalidConfig = errors.New("colpabot: invalid configuration")

	// ErrNoCorpus is returned when a configured language has no
	// question/answer data.
	ErrNoCorpus = errors.New("colpabot: language has no corpus")
)
