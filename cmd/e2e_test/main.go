// Command e2e_test exercises the full pipeline end to end against a real
// resource directory: load corpora, resolve a handful of phrasings per
// language, and print what each algorithm decided. It is a manual smoke
// check, not part of the test suite.
//
//	go run ./cmd/e2e_test --data ./resources --language EN
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/Jarturog/colpabot"
	"github.com/Jarturog/colpabot/match"
)

func main() {
	dataDir := flag.String("data", "resources", "Resource directory")
	language := flag.String("language", "EN", "Language to probe")
	reference := flag.String("event", "", "Event date (YYYY-MM-DD), optional")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})))

	cfg := colpabot.DefaultConfig()
	cfg.DataDir = *dataDir
	cfg.Languages = []string{*language}

	res, err := colpabot.LoadResources(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading resources: %v\n", err)
		os.Exit(1)
	}
	engine, err := colpabot.New(cfg, res)
	if err != nil {
		fmt.Fprintf(os.Stderr, "creating engine: %v\n", err)
		os.Exit(1)
	}

	var ref time.Time
	if *reference != "" {
		if ref, err = time.Parse("2006-01-02", *reference); err != nil {
			fmt.Fprintf(os.Stderr, "parsing event date: %v\n", err)
			os.Exit(1)
		}
	}

	kinds, err := engine.Algorithms(*language)
	if err != nil {
		fmt.Fprintf(os.Stderr, "listing algorithms: %v\n", err)
		os.Exit(1)
	}

	// A spread of inputs: exact, typo, paraphrase, gibberish.
	probes := flag.Args()
	if len(probes) == 0 {
		probes = []string{
			"can I drink water?",
			"cna i drnk water",
			"is it ok to have a glass of water",
			"qwerty asdfgh",
		}
	}

	type view struct {
		Probe     string     `json:"probe"`
		Algorithm match.Kind `json:"algorithm"`
		Outcome   string     `json:"outcome"`
		Question  string     `json:"question,omitempty"`
		Answer    string     `json:"answer,omitempty"`
		Others    []string   `json:"others,omitempty"`
	}

	var views []view
	for _, probe := range probes {
		for _, kind := range kinds {
			misses := 0
			result, err := engine.Resolve(colpabot.Query{
				Text:      probe,
				Language:  *language,
				Reference: ref,
				Algorithm: kind,
				Misses:    &misses,
			})
			if err != nil {
				fmt.Fprintf(os.Stderr, "resolve error: %v\n", err)
				os.Exit(1)
			}

			v := view{Probe: probe, Algorithm: kind, Outcome: result.Outcome.String()}
			if result.Matched() {
				v.Question = result.Question
				v.Answer = result.Entry.Answer
			}
			v.Others = append(v.Others, result.Candidates...)
			v.Others = append(v.Others, result.Suggestions...)
			views = append(views, v)
		}
	}

	out, _ := json.MarshalIndent(views, "", "  ")
	fmt.Println(string(out))
}
