package match

import (
	"errors"
	"math"
	"testing"

	"github.com/Jarturog/colpabot/synonyms"
	"github.com/Jarturog/colpabot/textutil"
)

var testQuestions = []string{
	"What should I eat today?",
	"Can I drink water?",
	"When is the appointment?",
	"What should I avoid today?",
}

func testExpander(t *testing.T) *synonyms.Expander {
	t.Helper()
	vocab := textutil.Vocabulary(testQuestions)
	lines := [][]string{
		{"drink", "sip"},
	}
	return synonyms.NewExpander(lines, vocab)
}

// buildAll returns every algorithm constructed over the test corpus, for
// properties that must hold family-wide.
func buildAll(t *testing.T) map[Kind]Algorithm {
	t.Helper()
	exp := testExpander(t)
	reg, err := NewRegistry(testQuestions, exp, map[string][]float32{
		"what": {1, 0, 0}, "should": {0.9, 0.1, 0}, "i": {0.5, 0.5, 0},
		"eat": {0, 1, 0}, "today": {0, 0.8, 0.2}, "can": {0.7, 0.2, 0.1},
		"drink": {0.1, 0.2, 1}, "water": {0, 0.1, 1}, "when": {1, 0.2, 0},
		"is": {0.4, 0.4, 0.2}, "the": {0.3, 0.3, 0.3}, "appointment": {0.2, 1, 0.5},
		"avoid": {0.1, 0.9, 0.3},
	})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return reg
}

func TestScoresInRangeAcrossFamily(t *testing.T) {
	inputs := []string{
		"What should I eat today?",
		"completely unrelated gibberish zzz",
		"can i sip water",
		"",
	}
	for kind, algo := range buildAll(t) {
		for _, input := range inputs {
			matches, err := algo.FindMostSimilar(input, testQuestions, 10)
			if err != nil {
				t.Fatalf("%s: FindMostSimilar(%q): %v", kind, input, err)
			}
			for _, m := range matches {
				if m.Score < 0 || m.Score > 1 {
					t.Errorf("%s: score %g out of range for %q", kind, m.Score, m.Text)
				}
			}
		}
	}
}

func TestExactQuestionIsTopMatchAcrossFamily(t *testing.T) {
	for kind, algo := range buildAll(t) {
		matches, err := algo.FindMostSimilar("What should I eat today?", testQuestions, 3)
		if err != nil {
			t.Fatalf("%s: %v", kind, err)
		}
		if len(matches) == 0 {
			t.Fatalf("%s: no matches for exact corpus question", kind)
		}
		if matches[0].Text != "What should I eat today?" {
			t.Errorf("%s: top match %q, want the exact question", kind, matches[0].Text)
		}
		if acc := algo.Thresholds().Acceptance; matches[0].Score < acc {
			t.Errorf("%s: exact match score %g below acceptance %g", kind, matches[0].Score, acc)
		}
	}
}

func TestThresholdOrderingAcrossFamily(t *testing.T) {
	for kind, algo := range buildAll(t) {
		th := algo.Thresholds()
		if th.Minimum > th.Acceptance {
			t.Errorf("%s: minimum %g > acceptance %g", kind, th.Minimum, th.Acceptance)
		}
	}
}

func TestNewMatchRejectsOutOfRangeScores(t *testing.T) {
	for _, score := range []float64{-0.01, 1.01, math.Inf(1)} {
		if _, err := NewMatch("q", score); !errors.Is(err, ErrScoreOutOfRange) {
			t.Errorf("NewMatch(score=%g): err = %v, want ErrScoreOutOfRange", score, err)
		}
	}
	if _, err := NewMatch("q", 0); err != nil {
		t.Errorf("NewMatch(0): %v", err)
	}
	if _, err := NewMatch("q", 1); err != nil {
		t.Errorf("NewMatch(1): %v", err)
	}
}

func TestMergePolicy(t *testing.T) {
	pool := []Match{
		{Text: "a", Score: 0.5},
		{Text: "b", Score: 0.9},
		{Text: "a", Score: 0.8}, // duplicate, higher score wins via sort-first
		{Text: "c", Score: 0.7},
	}
	got := Merge(pool, 2)
	if len(got) != 2 {
		t.Fatalf("Merge: got %v", got)
	}
	if got[0].Text != "b" || got[1].Text != "a" || got[1].Score != 0.8 {
		t.Errorf("Merge: got %v, want [b 0.9] [a 0.8]", got)
	}
}

func TestLevenshteinTwoSubstitutionsStillMatch(t *testing.T) {
	algo := NewLevenshtein(nil)

	// Two single-character substitutions into a corpus question:
	// distance 2, score 1 - 2/20 = 0.9 >= acceptance 0.8.
	corrupted := "Whft should I eat todey?"
	matches, err := algo.FindMostSimilar(corrupted, testQuestions, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) == 0 || matches[0].Text != "What should I eat today?" {
		t.Fatalf("corrupted input: got %v", matches)
	}
	if want := 0.9; math.Abs(matches[0].Score-want) > 1e-9 {
		t.Errorf("score = %g, want %g", matches[0].Score, want)
	}
	if matches[0].Score < algo.Thresholds().Acceptance {
		t.Errorf("score %g below acceptance", matches[0].Score)
	}
}

func TestTokenAlgorithmsMayMissCorruptedTokens(t *testing.T) {
	// The same corruption knocks "whft" and "todey" out of vocabulary. With
	// no expander to repair them, exact-token overlap degrades; that is
	// expected and distinct from the edit-distance behavior above.
	algo := NewJaccard(nil)
	matches, err := algo.FindMostSimilar("whft should I eat todey", testQuestions, 1)
	if err != nil {
		t.Fatal(err)
	}
	// 3 of 5 tokens survive: {should, i, eat} vs {what, should, i, eat,
	// today} gives 3/7.
	if len(matches) == 0 {
		t.Fatal("no matches")
	}
	if want := 3.0 / 7.0; math.Abs(matches[0].Score-want) > 1e-9 {
		t.Errorf("jaccard = %g, want %g", matches[0].Score, want)
	}
	if matches[0].Score >= algo.Thresholds().Acceptance {
		t.Errorf("corrupted tokens unexpectedly reach acceptance: %g", matches[0].Score)
	}
}

func TestJaccardIdentityAndDisjoint(t *testing.T) {
	a := tokenSet([]string{"x", "y", "z"})
	if got := jaccard(a, a); got != 1.0 {
		t.Errorf("jaccard(A, A) = %g, want 1", got)
	}
	b := tokenSet([]string{"p", "q"})
	if got := jaccard(a, b); got != 0.0 {
		t.Errorf("jaccard(disjoint) = %g, want 0", got)
	}
	if got := jaccard(tokenSet(nil), tokenSet(nil)); got != 0.0 {
		t.Errorf("jaccard(empty, empty) = %g, want 0", got)
	}
}

func TestSynonymVariantMatches(t *testing.T) {
	exp := testExpander(t)

	// "sip" is a synonym of the in-vocabulary "drink": the expanded variant
	// should recover the exact question for token algorithms.
	algo := NewJaccard(exp)
	matches, err := algo.FindMostSimilar("can i sip water", testQuestions, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) == 0 || matches[0].Text != "Can I drink water?" {
		t.Fatalf("got %v, want Can I drink water?", matches)
	}
	if matches[0].Score != 1.0 {
		t.Errorf("expanded variant score = %g, want 1", matches[0].Score)
	}
}

func TestTFIDFIDFSmoothing(t *testing.T) {
	tf := NewTFIDF([]string{"a b", "a c"}, nil)

	// N=2. "a" in both docs: idf = log(3/3) = 0. "b" in one: log(3/2).
	// Unknown term: log(3/1).
	if got := tf.idf("a"); math.Abs(got) > 1e-12 {
		t.Errorf("idf(a) = %g, want 0", got)
	}
	if got, want := tf.idf("b"), math.Log(1.5); math.Abs(got-want) > 1e-12 {
		t.Errorf("idf(b) = %g, want %g", got, want)
	}
	if got, want := tf.idf("zz"), math.Log(3); math.Abs(got-want) > 1e-12 {
		t.Errorf("idf(zz) = %g, want %g", got, want)
	}
}

func TestBM25SquashBounds(t *testing.T) {
	algo := NewBM25(testQuestions, nil)

	matches, err := algo.FindMostSimilar("What should I eat today?", testQuestions, 4)
	if err != nil {
		t.Fatal(err)
	}
	for _, m := range matches {
		if m.Score < 0 || m.Score >= 1 {
			t.Errorf("squashed BM25 score %g not in [0,1)", m.Score)
		}
	}
	if matches[0].Text != "What should I eat today?" {
		t.Errorf("top = %q", matches[0].Text)
	}
	// A query sharing no terms scores exactly 0 everywhere.
	zero, err := algo.FindMostSimilar("zzz qqq", testQuestions, 4)
	if err != nil {
		t.Fatal(err)
	}
	for _, m := range zero {
		if m.Score != 0 {
			t.Errorf("disjoint query score = %g, want 0", m.Score)
		}
	}
}

func TestVectorLanguageNotSupported(t *testing.T) {
	if _, err := NewVector(nil, testQuestions); !errors.Is(err, ErrLanguageNotSupported) {
		t.Errorf("NewVector(nil): err = %v, want ErrLanguageNotSupported", err)
	}

	// The registry must still carry the other four strategies.
	reg, err := NewRegistry(testQuestions, nil, nil)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	if _, ok := reg[KindVector]; ok {
		t.Error("vector strategy should be omitted without embeddings")
	}
	for _, kind := range []Kind{KindLevenshtein, KindJaccard, KindTFIDF, KindBM25} {
		if _, err := reg.Get(kind); err != nil {
			t.Errorf("Get(%s): %v", kind, err)
		}
	}
}

func TestRegistryUnknownKind(t *testing.T) {
	reg, err := NewRegistry(testQuestions, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := reg.Get("soundex"); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("Get(soundex): err = %v, want ErrUnknownKind", err)
	}
}

func TestVectorDimensionMismatch(t *testing.T) {
	_, err := NewVector(map[string][]float32{
		"a": {1, 0},
		"b": {1, 0, 0},
	}, nil)
	if err == nil || errors.Is(err, ErrLanguageNotSupported) {
		t.Errorf("mismatched dimensions: err = %v, want construction error", err)
	}
}
