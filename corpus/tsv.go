package corpus

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// TSV corpus format, one file per language:
//
//	// comment lines and blank lines are ignored
//	actions<TAB>question<TAB>answer      general-section entry
//	3                                    opens the section for day 3
//	-1<TAB>copy<TAB>3                    day -1 aliases day 3's section
//
// A line whose first field parses as an integer switches the target section;
// subsequent entry lines land there until the next day line. Actions are
// comma-separated and may be empty.

const (
	commentPrefix   = "//"
	fieldSeparator  = "\t"
	actionSeparator = ","
	copyDirective   = "copy"
)

// ParseTSV reads one language's corpus. Malformed entry lines are a
// data-integrity error and abort the load.
func ParseTSV(r io.Reader) (*Corpus, error) {
	c := New()
	target := c.General

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, commentPrefix) {
			continue
		}

		fields := strings.Split(line, fieldSeparator)
		if day, err := strconv.Atoi(strings.TrimSpace(fields[0])); err == nil {
			section, err := daySection(c, day, fields)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			target = section
			continue
		}

		if len(fields) != 3 {
			return nil, fmt.Errorf("line %d: expected 3 fields, got %d", lineNo, len(fields))
		}
		question := strings.TrimSpace(fields[1])
		answer := strings.TrimSpace(fields[2])
		if question == "" || answer == "" {
			return nil, fmt.Errorf("line %d: empty question or answer", lineNo)
		}
		if _, dup := target[question]; dup {
			slog.Warn("corpus: duplicate question overwritten", "line", lineNo, "question", question)
		}
		target[question] = &Entry{
			Actions: parseActions(fields[0]),
			Answer:  answer,
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading corpus: %w", err)
	}
	return c, nil
}

// daySection resolves a day line to its section, creating it on first use
// or aliasing another day's section for copy lines.
func daySection(c *Corpus, day int, fields []string) (Section, error) {
	if len(fields) >= 3 && strings.TrimSpace(fields[1]) == copyDirective {
		src, err := strconv.Atoi(strings.TrimSpace(fields[2]))
		if err != nil {
			return nil, fmt.Errorf("copy target %q is not a day offset", fields[2])
		}
		section, ok := c.ByDay[src]
		if !ok {
			return nil, fmt.Errorf("day %d copies unknown day %d", day, src)
		}
		c.ByDay[day] = section
		return section, nil
	}

	section, ok := c.ByDay[day]
	if !ok {
		section = make(Section)
		c.ByDay[day] = section
	}
	return section, nil
}

func parseActions(field string) []string {
	field = strings.TrimSpace(field)
	if field == "" {
		return nil
	}
	parts := strings.Split(field, actionSeparator)
	actions := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			actions = append(actions, p)
		}
	}
	return actions
}

// LoadTSV reads a corpus file from disk.
func LoadTSV(path string) (*Corpus, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening corpus: %w", err)
	}
	defer f.Close()
	c, err := ParseTSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// ParseSynonymTSV reads raw synonym lines: one group of tab-separated
// phrases per line, comments and blanks skipped. Single-phrase lines carry
// no grouping information and are dropped.
func ParseSynonymTSV(r io.Reader) ([][]string, error) {
	var lines [][]string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, commentPrefix) {
			continue
		}
		fields := strings.Split(line, fieldSeparator)
		var phrases []string
		for _, f := range fields {
			if f = strings.TrimSpace(f); f != "" {
				phrases = append(phrases, f)
			}
		}
		if len(phrases) >= 2 {
			lines = append(lines, phrases)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading synonyms: %w", err)
	}
	return lines, nil
}

// LoadSynonymTSV reads a synonym file from disk. A missing file is treated
// as an empty synonym table.
func LoadSynonymTSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		slog.Debug("corpus: no synonym file", "path", path)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening synonyms: %w", err)
	}
	defer f.Close()
	lines, err := ParseSynonymTSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return lines, nil
}
