// Package colpabot answers free-text patient questions by matching them
// against a curated, multilingual knowledge base of question/answer pairs.
// Some answers are only valid within a window of days around the user's
// colonoscopy date; the engine resolves the right section, scores the
// question with a selectable similarity algorithm, and turns raw scores
// into an answer, a retry prompt, or a list of candidate questions.
//
// Everything is built once by New and immutable afterwards, so a single
// Engine may serve arbitrarily many concurrent queries. The only mutable
// per-query state is the caller-owned consecutive-miss counter.
package colpabot

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/Jarturog/colpabot/corpus"
	"github.com/Jarturog/colpabot/match"
	"github.com/Jarturog/colpabot/synonyms"
	"github.com/Jarturog/colpabot/textutil"
	"github.com/Jarturog/colpabot/wordvec"
)

// Resources holds the parsed per-language inputs the engine is built from.
// The loader side (TSV/XLSX files, the word-vector database) is separate so
// tests and alternative frontends can construct an engine directly.
type Resources struct {
	// Corpora maps language code to its question/answer corpus. Required.
	Corpora map[string]*corpus.Corpus

	// Synonyms maps language code to raw synonym lines. Optional.
	Synonyms map[string][][]string

	// Vectors maps language code to its word-embedding table. Optional;
	// languages without vectors simply lack the vector strategy.
	Vectors map[string]map[string][]float32
}

// languageModel is one language's immutable matching state.
type languageModel struct {
	corpus   *corpus.Corpus
	expander *synonyms.Expander
	registry match.Registry
}

// Engine is the question-matching and answer-resolution engine.
type Engine struct {
	cfg   Config
	langs map[string]*languageModel
}

// New builds an engine from already-parsed resources. Construction is the
// only expensive phase: vocabularies, synonym tables and per-algorithm
// corpus statistics are computed here, once.
func New(cfg Config, res Resources) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{cfg: cfg, langs: make(map[string]*languageModel, len(cfg.Languages))}
	for _, lang := range cfg.Languages {
		c, ok := res.Corpora[lang]
		if !ok || len(c.General) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrNoCorpus, lang)
		}

		questions := c.Questions()
		vocab := textutil.Vocabulary(questions)
		expander := synonyms.NewExpander(res.Synonyms[lang], vocab)

		registry, err := match.NewRegistry(questions, expander, res.Vectors[lang])
		if err != nil {
			return nil, fmt.Errorf("building algorithms for %s: %w", lang, err)
		}

		e.langs[lang] = &languageModel{corpus: c, expander: expander, registry: registry}
		slog.Info("colpabot: language loaded",
			"language", lang,
			"questions", len(questions),
			"vocabulary", len(vocab),
			"algorithms", len(registry),
		)
	}
	return e, nil
}

// LoadResources reads the per-language resource files named by cfg: the
// QnA corpus and synonym TSVs from cfg.DataDir and, when configured, the
// word-vector database. The result feeds New.
func LoadResources(cfg Config) (Resources, error) {
	res := Resources{
		Corpora:  make(map[string]*corpus.Corpus, len(cfg.Languages)),
		Synonyms: make(map[string][][]string, len(cfg.Languages)),
	}

	var workbook map[string]*corpus.Corpus
	for _, lang := range cfg.Languages {
		c, err := corpus.LoadTSV(cfg.QnAPath(lang))
		if errors.Is(err, fs.ErrNotExist) {
			// Languages without a TSV may live as sheets of a workbook.
			if workbook == nil {
				if workbook, err = corpus.LoadWorkbook(cfg.WorkbookPath()); err != nil {
					return res, fmt.Errorf("loading corpus for %s: %w", lang, err)
				}
			}
			var ok bool
			if c, ok = workbook[lang]; !ok {
				return res, fmt.Errorf("%w: %s", ErrNoCorpus, lang)
			}
		} else if err != nil {
			return res, fmt.Errorf("loading corpus for %s: %w", lang, err)
		}
		res.Corpora[lang] = c

		lines, err := corpus.LoadSynonymTSV(cfg.SynonymsPath(lang))
		if err != nil {
			return res, fmt.Errorf("loading synonyms for %s: %w", lang, err)
		}
		res.Synonyms[lang] = lines
	}

	if cfg.VectorDBPath != "" {
		store, err := wordvec.Open(cfg.VectorDBPath, cfg.VectorDim)
		if err != nil {
			return res, fmt.Errorf("opening word vectors: %w", err)
		}
		defer store.Close()

		res.Vectors = make(map[string]map[string][]float32)
		for _, lang := range cfg.Languages {
			table, err := store.Load(context.Background(), lang)
			if err != nil {
				return res, fmt.Errorf("loading word vectors for %s: %w", lang, err)
			}
			if len(table) > 0 {
				res.Vectors[lang] = table
			}
		}
	}
	return res, nil
}

// Languages returns the language codes the engine was built with.
func (e *Engine) Languages() []string {
	langs := make([]string, 0, len(e.langs))
	for l := range e.langs {
		langs = append(langs, l)
	}
	return langs
}

// Algorithms returns the algorithm kinds available for a language.
func (e *Engine) Algorithms(lang string) ([]match.Kind, error) {
	lm, ok := e.langs[lang]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownLanguage, lang)
	}
	return lm.registry.Kinds(), nil
}
