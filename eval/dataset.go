// Package eval measures how well the matching algorithms recover the
// intended corpus question from paraphrased user input. A dataset pairs
// free-form phrasings with the exact question text they should resolve to;
// the evaluator replays them through the engine per algorithm and reports
// accuracy and ranking quality.
package eval

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Case is one evaluation probe: a user phrasing and the corpus question it
// must resolve to.
type Case struct {
	Input    string `json:"input"`
	Expected string `json:"expected"`
}

// Dataset is a named collection of evaluation cases for one language.
type Dataset struct {
	Name     string `json:"name"`
	Language string `json:"language"`
	Cases    []Case `json:"cases"`
}

// ParseTSV reads a paraphrase dataset: one case per line, the phrasing and
// the expected question separated by a tab. Blank lines and lines starting
// with // are skipped.
func ParseTSV(r io.Reader, name, language string) (Dataset, error) {
	ds := Dataset{Name: name, Language: language}
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), "\r\n")
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) != 2 || fields[0] == "" || fields[1] == "" {
			return ds, fmt.Errorf("dataset %s line %d: want 2 tab-separated fields, got %d", name, lineNo, len(fields))
		}
		ds.Cases = append(ds.Cases, Case{Input: fields[0], Expected: fields[1]})
	}
	return ds, sc.Err()
}

// LoadTSV reads a paraphrase dataset file. The file's base name becomes the
// dataset name.
func LoadTSV(path, language string) (Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return Dataset{}, fmt.Errorf("opening dataset: %w", err)
	}
	defer f.Close()
	return ParseTSV(f, path, language)
}
