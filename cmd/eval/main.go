// Command eval measures matching quality on paraphrase datasets.
//
// Usage:
//
//	go run ./cmd/eval \
//	  --config config.json \
//	  --dataset ./data/paraphrases_EN.tsv \
//	  --language EN \
//	  --algorithm all
//
// Importing fastText word vectors into the embedding database:
//
//	go run ./cmd/eval \
//	  --import-vectors ./data/cc.en.300.vec \
//	  --vector-db ./data/vectors.db \
//	  --vector-dim 300 \
//	  --language EN
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/Jarturog/colpabot"
	"github.com/Jarturog/colpabot/eval"
	"github.com/Jarturog/colpabot/match"
	"github.com/Jarturog/colpabot/wordvec"
)

func main() {
	var (
		configPath  = flag.String("config", "", "Path to config file (JSON or YAML)")
		datasetPath = flag.String("dataset", "", "Paraphrase dataset TSV (input<TAB>expected question)")
		language    = flag.String("language", "EN", "Language code of the dataset")
		algorithm   = flag.String("algorithm", "all", "Algorithm to evaluate, or 'all'")
		topK        = flag.Int("top-k", 10, "Ranking depth for reciprocal rank")
		jsonOut     = flag.Bool("json", false, "Emit the full report as JSON")

		importPath = flag.String("import-vectors", "", "Import fastText vectors from this file and exit")
		vectorDB   = flag.String("vector-db", "", "Word-vector database path (overrides config)")
		vectorDim  = flag.Int("vector-dim", 0, "Embedding dimension (overrides config)")
	)
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	cfg := colpabot.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = colpabot.LoadConfig(*configPath); err != nil {
			fatal("loading config", err)
		}
	}
	if *vectorDB != "" {
		cfg.VectorDBPath = *vectorDB
	}
	if *vectorDim > 0 {
		cfg.VectorDim = *vectorDim
	}

	if *importPath != "" {
		importVectors(cfg, *importPath, *language)
		return
	}

	if *datasetPath == "" {
		fmt.Fprintln(os.Stderr, "either --dataset or --import-vectors is required")
		flag.Usage()
		os.Exit(2)
	}

	res, err := colpabot.LoadResources(cfg)
	if err != nil {
		fatal("loading resources", err)
	}
	engine, err := colpabot.New(cfg, res)
	if err != nil {
		fatal("creating engine", err)
	}

	ds, err := eval.LoadTSV(*datasetPath, *language)
	if err != nil {
		fatal("loading dataset", err)
	}

	ev := eval.NewEvaluator(engine)
	ev.TopK = *topK

	var reports []*eval.Report
	if *algorithm == "all" {
		if reports, err = ev.RunAll(ds); err != nil {
			fatal("running evaluation", err)
		}
	} else {
		report, err := ev.Run(ds, match.Kind(*algorithm))
		if err != nil {
			fatal("running evaluation", err)
		}
		reports = append(reports, report)
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(reports); err != nil {
			fatal("encoding report", err)
		}
		return
	}

	printSummary(reports)
}

func printSummary(reports []*eval.Report) {
	fmt.Printf("%-14s %8s %8s %8s %10s\n", "ALGORITHM", "CASES", "CORRECT", "ACC", "MRR")
	for _, r := range reports {
		fmt.Printf("%-14s %8d %8d %7.1f%% %10.3f\n",
			r.Algorithm, r.Total, r.Correct, r.Accuracy*100, r.MRR)
	}

	for _, r := range reports {
		var misses []string
		for _, c := range r.Results {
			if !c.Correct {
				misses = append(misses, fmt.Sprintf("  %q -> %q (want %q, rank %d)",
					c.Input, c.Got, c.Expected, c.Rank))
			}
		}
		if len(misses) > 0 {
			fmt.Printf("\n%s failures:\n%s\n", r.Algorithm, strings.Join(misses, "\n"))
		}
	}
}

// importVectors loads a fastText-format embedding file into the vector
// database and prints a small nearest-neighbor probe as a sanity check.
func importVectors(cfg colpabot.Config, path, lang string) {
	if cfg.VectorDBPath == "" || cfg.VectorDim <= 0 {
		fatal("importing vectors", fmt.Errorf("--vector-db and --vector-dim are required"))
	}

	store, err := wordvec.Open(cfg.VectorDBPath, cfg.VectorDim)
	if err != nil {
		fatal("opening vector database", err)
	}
	defer store.Close()

	f, err := os.Open(path)
	if err != nil {
		fatal("opening vector file", err)
	}
	defer f.Close()

	ctx := context.Background()
	n, err := store.Import(ctx, lang, f)
	if err != nil {
		fatal("importing vectors", err)
	}
	slog.Info("vectors imported", "language", lang, "words", n)

	// Probe with the first stored word so an empty or corrupt import is
	// caught here rather than at serving time.
	table, err := store.Load(ctx, lang)
	if err != nil {
		fatal("reloading vectors", err)
	}
	for word, vec := range table {
		neighbors, err := store.Nearest(ctx, lang, vec, 5)
		if err != nil {
			fatal("nearest-neighbor probe", err)
		}
		words := make([]string, 0, len(neighbors))
		for _, nb := range neighbors {
			words = append(words, nb.Word)
		}
		slog.Info("nearest-neighbor probe", "word", word, "neighbors", words)
		break
	}
}

func fatal(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}
