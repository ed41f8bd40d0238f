// Package corpus holds the per-language question/answer data the resolution
// engine matches against: one general section plus day-keyed sections valid
// only at a given offset from the user's event date. A corpus is built once
// at load time and never mutated afterwards, so it is safe to share
// read-only across concurrent queries.
package corpus

import "sort"

// Well-known action directives. The first action of an entry may be a
// command for the transport layer (such as an image to render); later
// actions are flags.
const (
	// ActionNoExample marks an entry that must never be offered as a
	// suggested question.
	ActionNoExample = "no_example"

	// ActionCatchAll marks the generic fallback entry; it is excluded from
	// context-carry matching.
	ActionCatchAll = "catch_all"

	// ActionImagePrefix prefixes an image command, e.g. "img=diet.png".
	ActionImagePrefix = "img="
)

// Entry is the answer side of a QnA pair: an optional ordered list of
// directive strings and the answer text.
type Entry struct {
	Actions []string
	Answer  string
}

// HasAction reports whether any action equals name.
func (e *Entry) HasAction(name string) bool {
	for _, a := range e.Actions {
		if a == name {
			return true
		}
	}
	return false
}

// Command returns the first action when present, or "".
func (e *Entry) Command() string {
	if len(e.Actions) == 0 {
		return ""
	}
	return e.Actions[0]
}

// Section maps question text to its entry. Question keys are unique within
// a section; insertion order is irrelevant.
type Section map[string]*Entry

// Questions returns the section's question texts in sorted order, so that
// callers iterating a section behave deterministically.
func (s Section) Questions() []string {
	qs := make([]string, 0, len(s))
	for q := range s {
		qs = append(qs, q)
	}
	sort.Strings(qs)
	return qs
}

// Corpus is one language's QnA data: the general section plus day-specific
// sections keyed by "days until the reference event". Several day keys may
// alias the same Section (copy links in the source data).
type Corpus struct {
	General Section
	ByDay   map[int]Section
}

// New returns an empty corpus.
func New() *Corpus {
	return &Corpus{
		General: make(Section),
		ByDay:   make(map[int]Section),
	}
}

// ForDay returns the day-specific section for the given offset, if any.
// Absence is a normal condition, not an error.
func (c *Corpus) ForDay(day int) (Section, bool) {
	s, ok := c.ByDay[day]
	return s, ok
}

// Questions returns every distinct question text across all sections.
// Day sections aliased under several keys contribute once.
func (c *Corpus) Questions() []string {
	seen := make(map[string]bool, len(c.General))
	var qs []string
	add := func(s Section) {
		for q := range s {
			if !seen[q] {
				seen[q] = true
				qs = append(qs, q)
			}
		}
	}
	add(c.General)
	for _, s := range c.ByDay {
		add(s)
	}
	sort.Strings(qs)
	return qs
}
