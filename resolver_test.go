package colpabot

import (
	"errors"
	"testing"
	"time"

	"github.com/Jarturog/colpabot/corpus"
	"github.com/Jarturog/colpabot/match"
)

func testCorpus() *corpus.Corpus {
	c := corpus.New()
	c.General["can i drink water"] = &corpus.Entry{Answer: "Yes, water is fine."}
	c.General["can i drink water today"] = &corpus.Entry{Answer: "Yes, but only until noon."}
	c.General["what can i eat today"] = &corpus.Entry{Answer: "Light meals only."}
	c.General["what is a colonoscopy"] = &corpus.Entry{Answer: "An examination of the colon."}
	c.General["do not suggest me"] = &corpus.Entry{
		Actions: []string{corpus.ActionNoExample},
		Answer:  "Hidden from suggestions.",
	}

	// Two phrasings sharing one entry, as synonym duplicates do.
	soda := &corpus.Entry{Answer: "No fizzy drinks."}
	c.General["can i drink soda"] = soda
	c.General["can i drink pop"] = soda

	c.ByDay[1] = corpus.Section{
		"what can i eat today": &corpus.Entry{Answer: "Only clear liquids."},
	}
	return c
}

func testEngine(t *testing.T, mutate func(*Config)) *Engine {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Languages = []string{"EN"}
	cfg.SuggestionRetries = 50
	if mutate != nil {
		mutate(&cfg)
	}
	engine, err := New(cfg, Resources{
		Corpora: map[string]*corpus.Corpus{"EN": testCorpus()},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return engine
}

func TestResolveConfidentMatch(t *testing.T) {
	engine := testEngine(t, nil)
	misses := 1

	res, err := engine.Resolve(Query{
		Text:     "can i drink watre",
		Language: "EN",
		Misses:   &misses,
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Outcome != OutcomeMatch {
		t.Fatalf("outcome = %v, want match", res.Outcome)
	}
	if res.Question != "can i drink water" {
		t.Errorf("question = %q, want %q", res.Question, "can i drink water")
	}
	if res.Entry == nil || res.Entry.Answer != "Yes, water is fine." {
		t.Errorf("entry = %+v, want the water answer", res.Entry)
	}
	if misses != 0 {
		t.Errorf("miss counter = %d, want reset to 0", misses)
	}
}

func TestResolveDaySectionPrecedence(t *testing.T) {
	engine := testEngine(t, nil)
	asked := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	// One day before the event the day-specific answer wins.
	res, err := engine.Resolve(Query{
		Text:      "what can i eat today",
		Language:  "EN",
		Reference: asked.AddDate(0, 0, 1),
		Asked:     asked,
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Outcome != OutcomeMatch {
		t.Fatalf("outcome = %v, want match", res.Outcome)
	}
	if res.Entry.Answer != "Only clear liquids." {
		t.Errorf("answer = %q, want the day-specific one", res.Entry.Answer)
	}

	// Without a reference date only the general section applies.
	res, err = engine.Resolve(Query{Text: "what can i eat today", Language: "EN"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Entry.Answer != "Light meals only." {
		t.Errorf("answer = %q, want the general one", res.Entry.Answer)
	}
}

func TestResolveDayOffsetIsCalendarBased(t *testing.T) {
	engine := testEngine(t, nil)

	// Asked late in the evening, event shortly after midnight: less than
	// two hours of elapsed time but one calendar day apart.
	asked := time.Date(2026, 3, 1, 23, 30, 0, 0, time.UTC)
	reference := time.Date(2026, 3, 2, 0, 30, 0, 0, time.UTC)

	res, err := engine.Resolve(Query{
		Text:      "what can i eat today",
		Language:  "EN",
		Reference: reference,
		Asked:     asked,
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Entry.Answer != "Only clear liquids." {
		t.Errorf("answer = %q, want the day-1 section to apply", res.Entry.Answer)
	}
}

func TestResolveAmbiguous(t *testing.T) {
	engine := testEngine(t, nil)

	// Six corrupted characters leave the best edit-distance score at 0.7,
	// above the minimum but below acceptance.
	res, err := engine.Resolve(Query{Text: "can i drink xxxxxx", Language: "EN"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Outcome != OutcomeAmbiguous {
		t.Fatalf("outcome = %v, want ambiguous", res.Outcome)
	}
	if len(res.Candidates) == 0 {
		t.Fatal("ambiguous result with no candidates")
	}
	if res.Entry != nil {
		t.Errorf("ambiguous result carries an entry: %+v", res.Entry)
	}
}

func TestResolveMissEscalation(t *testing.T) {
	engine := testEngine(t, nil)
	misses := 0

	// First unmatched query is a plain miss.
	res, err := engine.Resolve(Query{Text: "zzzz qqqq jjjj", Language: "EN", Misses: &misses})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Outcome != OutcomeMiss {
		t.Fatalf("outcome = %v, want miss", res.Outcome)
	}
	if misses != 1 {
		t.Fatalf("miss counter = %d, want 1", misses)
	}

	// Second unmatched query exceeds MaxMisses=1 and carries suggestions.
	res, err = engine.Resolve(Query{Text: "zzzz qqqq jjjj", Language: "EN", Misses: &misses})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Outcome != OutcomeSuggestions {
		t.Fatalf("outcome = %v, want suggestions", res.Outcome)
	}
	if misses != 2 {
		t.Errorf("miss counter = %d, want 2", misses)
	}
	if len(res.Suggestions) == 0 || len(res.Suggestions) > 3 {
		t.Fatalf("got %d suggestions, want 1..3", len(res.Suggestions))
	}

	seen := map[string]bool{}
	for _, s := range res.Suggestions {
		if s == "do not suggest me" {
			t.Errorf("suggested a no_example question: %q", s)
		}
		seen[s] = true
	}
	if seen["can i drink soda"] && seen["can i drink pop"] {
		t.Error("two suggestions share the same entry")
	}
	if len(seen) != len(res.Suggestions) {
		t.Error("duplicate suggestion texts")
	}
}

func TestResolveMissWithoutCounter(t *testing.T) {
	engine := testEngine(t, nil)

	res, err := engine.Resolve(Query{Text: "zzzz qqqq jjjj", Language: "EN"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Outcome != OutcomeMiss {
		t.Fatalf("outcome = %v, want miss when no counter is supplied", res.Outcome)
	}
	if res.Suggestions != nil {
		t.Errorf("suggestions without a miss counter: %v", res.Suggestions)
	}
}

func TestResolveContextCarry(t *testing.T) {
	engine := testEngine(t, func(cfg *Config) {
		cfg.CombinePreviousQuestion = true
	})

	// "today" alone matches nothing, but prefixed with the previous
	// question it hits "can i drink water today" exactly.
	res, err := engine.Resolve(Query{
		Text:         "today",
		Language:     "EN",
		PrevQuestion: "can i drink water",
		PrevAnswer:   "Yes, water is fine.",
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Outcome != OutcomeMatch {
		t.Fatalf("outcome = %v, want match via context carry", res.Outcome)
	}
	if res.Question != "can i drink water today" {
		t.Errorf("question = %q, want %q", res.Question, "can i drink water today")
	}

	// Disabled by default: the same exchange stays a miss.
	engine = testEngine(t, nil)
	res, err = engine.Resolve(Query{
		Text:         "today",
		Language:     "EN",
		PrevQuestion: "can i drink water",
		PrevAnswer:   "Yes, water is fine.",
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Outcome == OutcomeMatch {
		t.Error("context carry applied while disabled")
	}
}

func TestResolveUnknownLanguage(t *testing.T) {
	engine := testEngine(t, nil)

	_, err := engine.Resolve(Query{Text: "hola", Language: "FR"})
	if !errors.Is(err, ErrUnknownLanguage) {
		t.Fatalf("err = %v, want ErrUnknownLanguage", err)
	}
}

func TestResolveUnknownAlgorithm(t *testing.T) {
	engine := testEngine(t, nil)

	_, err := engine.Resolve(Query{
		Text:      "can i drink water",
		Language:  "EN",
		Algorithm: match.Kind("quantum"),
	})
	if !errors.Is(err, match.ErrUnknownKind) {
		t.Fatalf("err = %v, want ErrUnknownKind", err)
	}
}

func TestFindBestQuestion(t *testing.T) {
	engine := testEngine(t, nil)

	q, confident, err := engine.FindBestQuestion("can i drink water", "EN", time.Time{}, match.KindLevenshtein)
	if err != nil {
		t.Fatalf("FindBestQuestion: %v", err)
	}
	if q != "can i drink water" || !confident {
		t.Errorf("got (%q, %v), want exact confident match", q, confident)
	}

	q, confident, err = engine.FindBestQuestion("zzzz qqqq jjjj", "EN", time.Time{}, match.KindLevenshtein)
	if err != nil {
		t.Fatalf("FindBestQuestion: %v", err)
	}
	if q != "" || confident {
		t.Errorf("got (%q, %v), want no match", q, confident)
	}
}

func TestTopQuestionsLimit(t *testing.T) {
	engine := testEngine(t, nil)

	ranked, algo, err := engine.TopQuestions("can i drink water", "EN", time.Time{}, match.KindLevenshtein, 2)
	if err != nil {
		t.Fatalf("TopQuestions: %v", err)
	}
	if len(ranked) > 2 {
		t.Fatalf("got %d matches, want at most 2", len(ranked))
	}
	if ranked[0].Text != "can i drink water" || ranked[0].Score != 1 {
		t.Errorf("top = %+v, want the exact question at score 1", ranked[0])
	}
	if algo == nil {
		t.Fatal("nil algorithm returned")
	}
}
