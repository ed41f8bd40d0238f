package corpus

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// LoadWorkbook reads a QnA workbook where each sheet is one language
// (sheet name = language code) with the same three logical columns as the
// TSV format: actions, question, answer. Day lines use the first column the
// same way. Returns a corpus per language.
func LoadWorkbook(path string) (map[string]*Corpus, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	corpora := make(map[string]*Corpus)
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("sheet %s: %w", sheet, err)
		}
		c, err := parseRows(rows)
		if err != nil {
			return nil, fmt.Errorf("sheet %s: %w", sheet, err)
		}
		corpora[strings.TrimSpace(sheet)] = c
	}
	if len(corpora) == 0 {
		return nil, fmt.Errorf("workbook %s has no sheets", path)
	}
	return corpora, nil
}

// parseRows applies the TSV section rules to spreadsheet rows.
func parseRows(rows [][]string) (*Corpus, error) {
	c := New()
	target := c.General

	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		first := strings.TrimSpace(row[0])
		if first == "" && rowEmpty(row) {
			continue
		}
		if strings.HasPrefix(first, commentPrefix) {
			continue
		}

		if day, err := strconv.Atoi(first); err == nil {
			section, err := daySection(c, day, row)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", i+1, err)
			}
			target = section
			continue
		}

		if len(row) < 3 {
			return nil, fmt.Errorf("row %d: expected 3 cells, got %d", i+1, len(row))
		}
		question := strings.TrimSpace(row[1])
		answer := strings.TrimSpace(row[2])
		if question == "" || answer == "" {
			return nil, fmt.Errorf("row %d: empty question or answer", i+1)
		}
		target[question] = &Entry{
			Actions: parseActions(row[0]),
			Answer:  answer,
		}
	}
	return c, nil
}

func rowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
