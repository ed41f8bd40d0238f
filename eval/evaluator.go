package eval

import (
	"fmt"
	"log/slog"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/Jarturog/colpabot"
	"github.com/Jarturog/colpabot/match"
)

// Evaluator replays paraphrase datasets through an engine.
type Evaluator struct {
	engine *colpabot.Engine

	// TopK bounds the ranking depth considered for reciprocal rank; an
	// expected question ranked deeper counts as rank 0. Defaults to 10.
	TopK int
}

// NewEvaluator wraps an engine for evaluation runs.
func NewEvaluator(engine *colpabot.Engine) *Evaluator {
	return &Evaluator{engine: engine, TopK: 10}
}

// CaseResult holds the outcome of one evaluation case.
type CaseResult struct {
	Input    string `json:"input"`
	Expected string `json:"expected"`
	Got      string `json:"got,omitempty"`

	// Rank is the 1-based position of the expected question in the
	// ranking, 0 when it did not appear within TopK.
	Rank int `json:"rank"`

	// Confident reports whether the top match cleared the algorithm's
	// acceptance threshold.
	Confident bool `json:"confident"`

	// Correct reports Got == Expected with Confident set.
	Correct bool `json:"correct"`

	Error string `json:"error,omitempty"`
}

// Report aggregates one dataset run for one algorithm.
type Report struct {
	Dataset   string        `json:"dataset"`
	Language  string        `json:"language"`
	Algorithm match.Kind    `json:"algorithm"`
	Total     int           `json:"total"`
	Correct   int           `json:"correct"`
	Accuracy  float64       `json:"accuracy"`
	MRR       float64       `json:"mrr"`
	RunTime   time.Duration `json:"run_time"`
	Results   []CaseResult  `json:"results"`
}

// Run evaluates one dataset with one algorithm.
func (e *Evaluator) Run(ds Dataset, kind match.Kind) (*Report, error) {
	start := time.Now()
	report := &Report{
		Dataset:   ds.Name,
		Language:  ds.Language,
		Algorithm: kind,
		Total:     len(ds.Cases),
		Results:   make([]CaseResult, 0, len(ds.Cases)),
	}

	var ranks []float64
	for _, c := range ds.Cases {
		result := e.runCase(ds.Language, c, kind)
		report.Results = append(report.Results, result)
		if result.Correct {
			report.Correct++
		}
		if result.Rank > 0 {
			ranks = append(ranks, 1/float64(result.Rank))
		} else {
			ranks = append(ranks, 0)
		}
	}

	if report.Total > 0 {
		report.Accuracy = float64(report.Correct) / float64(report.Total)
		report.MRR = stat.Mean(ranks, nil)
	}
	report.RunTime = time.Since(start)

	slog.Info("eval: dataset finished",
		"dataset", ds.Name,
		"language", ds.Language,
		"algorithm", kind,
		"accuracy", report.Accuracy,
		"mrr", report.MRR,
		"cases", report.Total,
	)
	return report, nil
}

// RunAll evaluates a dataset against every algorithm available for its
// language, returning one report per algorithm.
func (e *Evaluator) RunAll(ds Dataset) ([]*Report, error) {
	kinds, err := e.engine.Algorithms(ds.Language)
	if err != nil {
		return nil, fmt.Errorf("listing algorithms for %s: %w", ds.Language, err)
	}

	reports := make([]*Report, 0, len(kinds))
	for _, kind := range kinds {
		report, err := e.Run(ds, kind)
		if err != nil {
			return reports, err
		}
		reports = append(reports, report)
	}
	return reports, nil
}

func (e *Evaluator) runCase(language string, c Case, kind match.Kind) CaseResult {
	result := CaseResult{Input: c.Input, Expected: c.Expected}

	ranked, algo, err := e.engine.TopQuestions(c.Input, language, time.Time{}, kind, e.TopK)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	if len(ranked) == 0 {
		return result
	}

	result.Got = ranked[0].Text
	result.Confident = ranked[0].Score >= algo.Thresholds().Acceptance
	result.Correct = result.Confident && result.Got == c.Expected
	for i, m := range ranked {
		if m.Text == c.Expected {
			result.Rank = i + 1
			break
		}
	}
	return result
}
