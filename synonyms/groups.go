// Package synonyms maintains per-language synonym groups and expands
// tokenized queries into the alternative token sequences the matching
// algorithms score. Groups are stored as two-level stars: one root token per
// group, every other member pointing only at that root, so "root" doubles as
// the canonical form of the group.
package synonyms

import "fmt"

// AmbiguousRootError reports an Assign call that would have merged two
// existing groups with different roots. The structure is guaranteed to be
// unchanged when this error is returned.
type AmbiguousRootError struct {
	Existing    string // root found first among the incoming members
	Conflicting string // second, different root
	Member      string // the member that resolved to Conflicting
}

func (e *AmbiguousRootError) Error() string {
	return fmt.Sprintf("synonyms: member %q resolves to root %q but group already rooted at %q",
		e.Member, e.Conflicting, e.Existing)
}

// Groups is the star-shaped equivalence structure. Not safe for concurrent
// mutation; build it fully before sharing it read-only.
type Groups struct {
	rootOf  map[string]string          // member -> its root
	members map[string]map[string]bool // root -> members excluding the root itself
}

// NewGroups returns an empty group structure.
func NewGroups() *Groups {
	return &Groups{
		rootOf:  make(map[string]string),
		members: make(map[string]map[string]bool),
	}
}

// Len returns the number of known tokens (roots and members).
func (g *Groups) Len() int {
	return len(g.rootOf) + len(g.members)
}

// root resolves a token to its group root, reporting whether the token is
// known at all.
func (g *Groups) root(tok string) (string, bool) {
	if r, ok := g.rootOf[tok]; ok {
		return r, true
	}
	if _, ok := g.members[tok]; ok {
		return tok, true
	}
	return "", false
}

// Lookup returns the full group of key, root included, or nil if key is not
// part of any group.
func (g *Groups) Lookup(key string) []string {
	r, ok := g.root(key)
	if !ok {
		return nil
	}
	group := make([]string, 0, len(g.members[r])+1)
	group = append(group, r)
	for m := range g.members[r] {
		group = append(group, m)
	}
	return group
}

// Keys returns every known token.
func (g *Groups) Keys() []string {
	keys := make([]string, 0, g.Len())
	for r := range g.members {
		keys = append(keys, r)
	}
	for m := range g.rootOf {
		keys = append(keys, m)
	}
	return keys
}

// Assign merges members plus key into a single group. If any incoming token
// already belongs to a group, that group's root is reused and the whole
// existing group is folded in; if two incoming tokens belong to groups with
// different roots the call fails with *AmbiguousRootError and the structure
// is left exactly as it was. The conflict check runs before any mutation, so
// no rollback bookkeeping is needed.
func (g *Groups) Assign(key string, members ...string) error {
	incoming := make([]string, 0, len(members)+1)
	seen := make(map[string]bool, len(members)+1)
	for _, tok := range append([]string{key}, members...) {
		if tok == "" || seen[tok] {
			continue
		}
		seen[tok] = true
		incoming = append(incoming, tok)
	}
	if len(incoming) == 0 {
		return nil
	}

	// Validate: at most one distinct existing root may be touched.
	root := ""
	for _, tok := range incoming {
		r, ok := g.root(tok)
		if !ok {
			continue
		}
		if root == "" {
			root = r
		} else if r != root {
			return &AmbiguousRootError{Existing: root, Conflicting: r, Member: tok}
		}
	}
	if root == "" {
		root = incoming[0]
	}

	// Fold the existing group in so the merged star stays complete.
	group := make(map[string]bool, len(incoming)+len(g.members[root]))
	for m := range g.members[root] {
		group[m] = true
	}
	for _, tok := range incoming {
		if tok != root {
			group[tok] = true
		}
	}

	for m := range group {
		g.rootOf[m] = root
	}
	g.members[root] = group
	return nil
}
