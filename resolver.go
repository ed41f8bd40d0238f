package colpabot

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/Jarturog/colpabot/corpus"
	"github.com/Jarturog/colpabot/match"
)

// Outcome classifies what a Resolve call produced.
type Outcome int

const (
	// OutcomeMatch means a confident answer was found.
	OutcomeMatch Outcome = iota
	// OutcomeAmbiguous means plausible candidates exist but none is
	// certain; the caller should offer a disambiguation choice.
	OutcomeAmbiguous
	// OutcomeMiss means nothing matched and the user has not yet exceeded
	// the miss limit.
	OutcomeMiss
	// OutcomeSuggestions means nothing matched and the user has exceeded
	// the miss limit; sampled example questions are attached.
	OutcomeSuggestions
)

func (o Outcome) String() string {
	switch o {
	case OutcomeMatch:
		return "match"
	case OutcomeAmbiguous:
		return "ambiguous"
	case OutcomeMiss:
		return "miss"
	case OutcomeSuggestions:
		return "suggestions"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Query is one resolution request.
type Query struct {
	// Text is the user's raw message.
	Text string

	// Language selects the per-language model.
	Language string

	// Reference is the user's event date. The zero value means no
	// day-specific section applies.
	Reference time.Time

	// Asked is when the question was asked; zero means now. Day offsets
	// are computed by calendar-day difference, not elapsed time.
	Asked time.Time

	// Algorithm selects the similarity strategy; empty uses the
	// configured default. An unknown selector is a caller error.
	Algorithm match.Kind

	// Misses points at the caller-owned consecutive-miss counter. May be
	// nil, in which case miss escalation is disabled for this call.
	Misses *int

	// PrevQuestion and PrevAnswer optionally carry the previous exchange
	// for the context-carry heuristic. Ignored unless the engine was
	// configured with CombinePreviousQuestion.
	PrevQuestion string
	PrevAnswer   string
}

// Result is the outcome of one resolution.
type Result struct {
	// Outcome classifies the result; Entry and Question are set only for
	// OutcomeMatch.
	Outcome  Outcome
	Entry    *corpus.Entry
	Question string

	// Candidates holds the plausible question texts of an ambiguous
	// result, best first.
	Candidates []string

	// Suggestions holds sampled example questions after repeated misses.
	Suggestions []string
}

// Matched reports whether the result carries a confident answer.
func (r *Result) Matched() bool {
	return r.Outcome == OutcomeMatch
}

// Resolve answers one query. The embedded decision rules: matches below the
// algorithm's minimum threshold are discarded; a best match at or above its
// acceptance threshold is confident; anything in between is ambiguous.
// Day-specific entries take priority over general ones for the same
// question.
func (e *Engine) Resolve(q Query) (*Result, error) {
	lm, algo, err := e.lookup(q.Language, q.Algorithm)
	if err != nil {
		return nil, err
	}

	_, daySection := e.daySection(lm, q)
	ranked, err := e.rank(lm, algo, q.Text, daySection, e.cfg.TopCandidates)
	if err != nil {
		return nil, err
	}

	// Context-carry: only when enabled, only on a non-confident result,
	// and only when a previous exchange is supplied.
	if e.cfg.CombinePreviousQuestion && q.PrevQuestion != "" && !confident(ranked, algo) {
		ranked = e.carryContext(lm, algo, q, daySection, ranked)
	}

	if len(ranked) == 0 {
		return e.miss(lm, q, daySection)
	}

	best := ranked[0]
	if best.Score >= algo.Thresholds().Acceptance {
		if q.Misses != nil {
			*q.Misses = 0
		}
		return &Result{
			Outcome:  OutcomeMatch,
			Entry:    entryFor(best.Text, daySection, lm.corpus.General),
			Question: best.Text,
		}, nil
	}

	candidates := make([]string, 0, len(ranked))
	for _, m := range ranked {
		candidates = append(candidates, m.Text)
	}
	return &Result{Outcome: OutcomeAmbiguous, Candidates: candidates}, nil
}

// FindBestQuestion is the lightweight variant used by evaluation: it runs
// the same matching pipeline but keeps no miss bookkeeping and samples no
// suggestions. Returns the best question above the algorithm's minimum
// threshold, and whether it also reached acceptance.
func (e *Engine) FindBestQuestion(text, lang string, reference time.Time, kind match.Kind) (string, bool, error) {
	ranked, algo, err := e.TopQuestions(text, lang, reference, kind, 1)
	if err != nil {
		return "", false, err
	}
	if len(ranked) == 0 {
		return "", false, nil
	}
	return ranked[0].Text, ranked[0].Score >= algo.Thresholds().Acceptance, nil
}

// TopQuestions exposes the merged, threshold-filtered ranking for a query,
// primarily for evaluation tooling.
func (e *Engine) TopQuestions(text, lang string, reference time.Time, kind match.Kind, topN int) ([]match.Match, match.Algorithm, error) {
	lm, algo, err := e.lookup(lang, kind)
	if err != nil {
		return nil, nil, err
	}
	_, daySection := e.daySection(lm, Query{Reference: reference})
	limit := topN
	if limit < e.cfg.TopCandidates {
		limit = e.cfg.TopCandidates
	}
	ranked, err := e.rank(lm, algo, text, daySection, limit)
	if err != nil {
		return nil, nil, err
	}
	if topN > 0 && len(ranked) > topN {
		ranked = ranked[:topN]
	}
	return ranked, algo, nil
}

func (e *Engine) lookup(lang string, kind match.Kind) (*languageModel, match.Algorithm, error) {
	lm, ok := e.langs[lang]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownLanguage, lang)
	}
	if kind == "" {
		kind = e.cfg.DefaultAlgorithm
	}
	algo, err := lm.registry.Get(kind)
	if err != nil {
		return nil, nil, err
	}
	return lm, algo, nil
}

// daySection resolves the day-specific section for a query, if any.
func (e *Engine) daySection(lm *languageModel, q Query) (int, corpus.Section) {
	if q.Reference.IsZero() {
		return 0, nil
	}
	asked := q.Asked
	if asked.IsZero() {
		asked = time.Now()
	}
	day := daysUntil(asked, q.Reference)
	section, ok := lm.corpus.ForDay(day)
	if !ok {
		return day, nil
	}
	return day, section
}

// daysUntil computes the calendar-day difference from asked to reference:
// positive before the event, negative once it has passed. Truncation is by
// date components, not elapsed hours.
func daysUntil(asked, reference time.Time) int {
	return civilDay(reference) - civilDay(asked)
}

func civilDay(t time.Time) int {
	y, m, d := t.Date()
	return int(time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400)
}

// rank runs the algorithm against the general section and, when present,
// the day-specific section. Day matches are prepended before the shared
// merge so they win ties, then everything above the minimum threshold is
// re-sorted descending and de-duplicated.
func (e *Engine) rank(lm *languageModel, algo match.Algorithm, text string, daySection corpus.Section, topN int) ([]match.Match, error) {
	minScore := algo.Thresholds().Minimum

	var pool []match.Match
	if daySection != nil {
		matches, err := e.usable(algo, text, daySection.Questions(), minScore, topN)
		if err != nil {
			return nil, err
		}
		pool = append(pool, matches...)
	}
	matches, err := e.usable(algo, text, lm.corpus.General.Questions(), minScore, topN)
	if err != nil {
		return nil, err
	}
	pool = append(pool, matches...)

	return match.Merge(pool, topN), nil
}

// usable scores candidates and keeps matches passing the minimum threshold.
func (e *Engine) usable(algo match.Algorithm, text string, candidates []string, minScore float64, topN int) ([]match.Match, error) {
	matches, err := algo.FindMostSimilar(text, candidates, topN)
	if err != nil {
		return nil, err
	}
	kept := matches[:0]
	for _, m := range matches {
		if m.Score >= minScore {
			kept = append(kept, m)
		}
	}
	return kept, nil
}

func confident(ranked []match.Match, algo match.Algorithm) bool {
	return len(ranked) > 0 && ranked[0].Score >= algo.Thresholds().Acceptance
}

// carryContext re-runs the pipeline on "previous question + current text".
// If the combined query yields a confident match that is neither the
// previous answer nor the catch-all entry, its results are merged with the
// original ranking and the top three survive. The heuristic is known to be
// unreliable and ships disabled.
func (e *Engine) carryContext(lm *languageModel, algo match.Algorithm, q Query, daySection corpus.Section, original []match.Match) []match.Match {
	combined := q.PrevQuestion + " " + q.Text
	carried, err := e.rank(lm, algo, combined, daySection, e.cfg.TopCandidates)
	if err != nil || !confident(carried, algo) {
		return original
	}

	entry := entryFor(carried[0].Text, daySection, lm.corpus.General)
	if entry == nil || entry.Answer == q.PrevAnswer || entry.HasAction(corpus.ActionCatchAll) {
		return original
	}

	return match.Merge(append(carried, original...), 3)
}

// entryFor resolves a matched question text to its entry, preferring the
// day-specific section.
func entryFor(question string, daySection, general corpus.Section) *corpus.Entry {
	if daySection != nil {
		if entry, ok := daySection[question]; ok {
			return entry
		}
	}
	return general[question]
}

// miss handles the no-result path: bump the caller's counter and either
// return a plain miss or, past the limit, sample suggested questions.
func (e *Engine) miss(lm *languageModel, q Query, daySection corpus.Section) (*Result, error) {
	if q.Misses == nil {
		return &Result{Outcome: OutcomeMiss}, nil
	}
	*q.Misses++
	if *q.Misses <= e.cfg.MaxMisses {
		return &Result{Outcome: OutcomeMiss}, nil
	}
	return &Result{
		Outcome:     OutcomeSuggestions,
		Suggestions: e.sampleSuggestions(lm, daySection),
	}, nil
}

// sampleSuggestions draws up to MaxSuggestions example questions from the
// day-specific and general sections. Entries flagged no_example are
// excluded, as is any question whose entry was already chosen (several
// questions may alias one entry through synonym duplicates). Each slot
// gives up after SuggestionRetries draws so sparse sections terminate.
func (e *Engine) sampleSuggestions(lm *languageModel, daySection corpus.Section) []string {
	var pool []string
	pools := []corpus.Section{lm.corpus.General}
	if daySection != nil {
		pools = append(pools, daySection)
	}
	for _, s := range pools {
		pool = append(pool, s.Questions()...)
	}
	if len(pool) == 0 {
		return nil
	}

	chosen := make(map[*corpus.Entry]bool, e.cfg.MaxSuggestions)
	var suggestions []string
	for slot := 0; slot < e.cfg.MaxSuggestions; slot++ {
		for attempt := 0; attempt < e.cfg.SuggestionRetries; attempt++ {
			question := pool[rand.IntN(len(pool))]
			entry := entryFor(question, daySection, lm.corpus.General)
			if entry == nil || entry.HasAction(corpus.ActionNoExample) || chosen[entry] {
				continue
			}
			chosen[entry] = true
			suggestions = append(suggestions, question)
			break
		}
	}
	return suggestions
}
