// Package router implements the trie-based rule matcher that picks which
// upstream should answer a given query name and type.
package router

import (
	"context"
	"log/slog"
	"strings"

	"github.com/rafalfr/ruledns/internal/config"
	"github.com/rafalfr/ruledns/internal/textutil"
)

// node is one label of a reversed-domain trie.  A node's match is set only
// when some pattern terminates exactly at that depth.
type node struct {
	children map[string]*node
	match    *match
}

// match is what a trie lookup returns: the upstream a rule names, and the
// priority of the rule that installed it.  Lower priority values win, since
// priority is assigned as the rule's position in the config list and
// earlier rules outrank later ones.
type match struct {
	upstream *config.Upstream
	priority int
}

// Router holds the four tries spec.md's matching model calls for: an exact
// trie and a suffix trie, each further split by record type so a
// type-restricted pattern can be searched without scanning every rule.
type Router struct {
	exact          *node
	exactByRecord  map[uint16]*node
	suffix         *node
	suffixByRecord map[uint16]*node

	logger *slog.Logger
}

// New returns an empty Router.  A nil logger disables trace logging.
func New(logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Router{
		exactByRecord:  map[uint16]*node{},
		suffixByRecord: map[uint16]*node{},
		logger:         logger,
	}
}

// AddRule installs rule at the given priority (lower wins; pass the rule's
// index in the config list).  Every name in the pattern is inserted
// independently, and every record type the pattern restricts to gets its
// own trie entry.
func (r *Router) AddRule(rule config.Rule, priority int) {
	for _, name := range rule.Pattern.Names {
		labels := reverseLabels(name)
		m := match{upstream: &rule.Upstream, priority: priority}

		if rule.Pattern.Records == nil {
			root := r.untypedRoot(rule.Pattern.Kind)
			*root = insert(*root, labels, m)

			continue
		}

		for _, rt := range rule.Pattern.Records {
			byRecord := r.typedRoots(rule.Pattern.Kind)
			byRecord[rt] = insert(byRecord[rt], labels, m)
		}
	}

	r.logger.Log(context.Background(), config.LevelTrace, "rule added",
		"pattern_kind", rule.Pattern.Kind, "names", rule.Pattern.Names, "priority", priority)
}

func (r *Router) untypedRoot(kind config.PatternKind) **node {
	if kind == config.PatternDomain {
		return &r.exact
	}

	return &r.suffix
}

func (r *Router) typedRoots(kind config.PatternKind) map[uint16]*node {
	if kind == config.PatternDomain {
		return r.exactByRecord
	}

	return r.suffixByRecord
}

// Search returns the upstream that should answer domain for qtype, applying
// the fixed priority order: exact+typed, exact+untyped, suffix+typed,
// suffix+untyped, with the two suffix candidates (when both exist) resolved
// by longest match first and then by rule priority, ties going to the typed
// trie.
func (r *Router) Search(domain string, qtype uint16) (*config.Upstream, bool) {
	labels := reverseLabels(domain)

	if m, ok := searchExact(r.exactByRecord[qtype], labels); ok {
		r.trace(domain, qtype, "exact+typed", m)

		return m.upstream, true
	}

	if m, ok := searchExact(r.exact, labels); ok {
		r.trace(domain, qtype, "exact+untyped", m)

		return m.upstream, true
	}

	typed, typedDepth, typedOK := searchSuffix(r.suffixByRecord[qtype], labels)
	untyped, untypedDepth, untypedOK := searchSuffix(r.suffix, labels)

	switch {
	case typedOK && untypedOK:
		winner := resolveSuffixTie(typed, typedDepth, untyped, untypedDepth)
		r.trace(domain, qtype, "suffix", winner)

		return winner.upstream, true
	case typedOK:
		r.trace(domain, qtype, "suffix+typed", typed)

		return typed.upstream, true
	case untypedOK:
		r.trace(domain, qtype, "suffix+untyped", untyped)

		return untyped.upstream, true
	default:
		r.logger.Log(context.Background(), config.LevelTrace, "search: no match",
			"domain", textutil.ShortText(domain, 128), "qtype", qtype)

		return nil, false
	}
}

func (r *Router) trace(domain string, qtype uint16, via string, m *match) {
	r.logger.Log(context.Background(), config.LevelTrace, "search: found",
		"domain", textutil.ShortText(domain, 128), "qtype", qtype, "via", via, "priority", m.priority)
}

// resolveSuffixTie picks between a typed and an untyped suffix candidate at
// possibly different depths: the deeper match always wins; at equal depth
// the higher-priority (lower value) rule wins; a full tie goes to typed.
func resolveSuffixTie(typed *match, typedDepth int, untyped *match, untypedDepth int) *match {
	if typedDepth != untypedDepth {
		if typedDepth > untypedDepth {
			return typed
		}

		return untyped
	}

	if untyped.priority < typed.priority {
		return untyped
	}

	return typed
}

// insert walks labels from root, creating nodes as needed, and stores m at
// the terminal node if no match is there yet or m outranks it.
func insert(root *node, labels []string, m match) *node {
	if root == nil {
		root = &node{children: map[string]*node{}}
	}

	cur := root
	for _, label := range labels {
		child, ok := cur.children[label]
		if !ok {
			child = &node{children: map[string]*node{}}
			cur.children[label] = child
		}

		cur = child
	}

	if cur.match == nil || m.priority < cur.match.priority {
		mCopy := m
		cur.match = &mCopy
	}

	return root
}

// searchExact walks the full label sequence and reports a match only if a
// pattern terminates exactly there.
func searchExact(root *node, labels []string) (*match, bool) {
	if root == nil {
		return nil, false
	}

	cur := root
	for _, label := range labels {
		child, ok := cur.children[label]
		if !ok {
			return nil, false
		}

		cur = child
	}

	if cur.match == nil {
		return nil, false
	}

	return cur.match, true
}

// searchSuffix walks labels from root and returns the deepest match found
// along the path, since a longer consumed suffix is always preferred.
func searchSuffix(root *node, labels []string) (m *match, depth int, ok bool) {
	if root == nil {
		return nil, 0, false
	}

	cur := root
	for i, label := range labels {
		child, exists := cur.children[label]
		if !exists {
			break
		}

		cur = child
		if cur.match != nil {
			m = cur.match
			depth = i + 1
		}
	}

	return m, depth, m != nil
}

// reverseLabels splits a domain name into its labels and reverses their
// order, so that tries share prefixes by top-level domain instead of by
// leftmost label.  Names are lower-cased, since DNS matching is
// case-insensitive.
func reverseLabels(name string) []string {
	name = strings.TrimSuffix(name, ".")
	labels := strings.Split(strings.ToLower(name), ".")

	for i, j := 0, len(labels)-1; i < j; i, j = i+1, j-1 {
		labels[i], labels[j] = labels[j], labels[i]
	}

	return labels
}
