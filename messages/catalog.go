// Package messages provides the bot's fixed-text catalog: keyed messages in
// every supported language with two placeholder forms, a single-slot "{}"
// filled positionally and a repeating "{{}}" expanded once per item and
// joined with a caller-specified separator.
package messages

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

const (
	// Slot is replaced by one argument per occurrence.
	Slot = "{}"
	// Repeat is expanded to one copy of its surrounding text per item.
	Repeat = "{{}}"

	commentPrefix  = "//"
	fieldSeparator = "\t"
)

// ErrKeyNotFound is returned when a message key is missing for a language.
var ErrKeyNotFound = errors.New("messages: key not found")

// Catalog is the immutable message table, safe for concurrent reads.
type Catalog struct {
	languages []string
	byLang    map[string]map[string]string
}

// ParseTSV reads a message catalog:
//
//	// comments and blank lines ignored
//	key<TAB>EN text<TAB>ES text...       after the header row
//
// The first non-comment line is the header: "key" followed by language
// codes, one column per language.
func ParseTSV(r io.Reader) (*Catalog, error) {
	c := &Catalog{byLang: make(map[string]map[string]string)}

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

		if c.languages == nil {
			if len(fields) < 2 {
				return nil, fmt.Errorf("line %d: header needs at least one language column", lineNo)
			}
			c.languages = fields[1:]
			for _, lang := range c.languages {
				c.byLang[lang] = make(map[string]string)
			}
			continue
		}

		if len(fields) != len(c.languages)+1 {
			return nil, fmt.Errorf("line %d: expected %d fields, got %d", lineNo, len(c.languages)+1, len(fields))
		}
		key := strings.TrimSpace(fields[0])
		if key == "" {
			return nil, fmt.Errorf("line %d: empty message key", lineNo)
		}
		for i, lang := range c.languages {
			c.byLang[lang][key] = fields[i+1]
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading messages: %w", err)
	}
	if c.languages == nil {
		return nil, errors.New("messages: catalog has no header")
	}
	return c, nil
}

// LoadTSV reads a message catalog from disk.
func LoadTSV(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening messages: %w", err)
	}
	defer f.Close()
	c, err := ParseTSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Languages returns the catalog's language codes in header order.
func (c *Catalog) Languages() []string {
	return append([]string(nil), c.languages...)
}

// Get returns the raw message for key in lang.
func (c *Catalog) Get(lang, key string) (string, error) {
	msgs, ok := c.byLang[lang]
	if !ok {
		return "", fmt.Errorf("%w: language %q", ErrKeyNotFound, lang)
	}
	msg, ok := msgs[key]
	if !ok {
		return "", fmt.Errorf("%w: %q (%s)", ErrKeyNotFound, key, lang)
	}
	return msg, nil
}

// Format substitutes the message's "{}" slots with args in order. Extra
// slots stay verbatim; extra args are ignored.
func (c *Catalog) Format(lang, key string, args ...string) (string, error) {
	msg, err := c.Get(lang, key)
	if err != nil {
		return "", err
	}
	for _, arg := range args {
		if !strings.Contains(msg, Slot) {
			break
		}
		msg = strings.Replace(msg, Slot, arg, 1)
	}
	return msg, nil
}

// FormatList expands the message's "{{}}" placeholder once per item, joined
// by sep. A message without the repeat placeholder is returned unchanged.
func (c *Catalog) FormatList(lang, key, sep string, items []string) (string, error) {
	msg, err := c.Get(lang, key)
	if err != nil {
		return "", err
	}
	if !strings.Contains(msg, Repeat) {
		return msg, nil
	}
	return strings.Replace(msg, Repeat, strings.Join(items, sep), 1), nil
}
