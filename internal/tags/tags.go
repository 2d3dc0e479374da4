package tags

import (
	"sort"
	"strings"
)

// DefaultDelimiter separates the segments of a hierarchical tag.
const DefaultDelimiter = "|"

// Set is an unordered collection of distinct tag strings.
type Set map[string]struct{}

// NewSet returns a set holding the non-empty values of tags.
func NewSet(tags ...string) Set {
	s := make(Set, len(tags))
	s.Add(tags...)
	return s
}

// Add inserts tags into the set. Empty strings are ignored.
func (s Set) Add(tags ...string) {
	for _, t := range tags {
		if t == "" {
			continue
		}
		s[t] = struct{}{}
	}
}

// Union adds every tag of other to s.
func (s Set) Union(other Set) {
	for t := range other {
		s[t] = struct{}{}
	}
}

// Sorted returns the tags in lexical order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Tree is a hierarchical tag structure. Each key is one tag segment and its
// value holds the segments nested beneath it. Leaves are empty, never nil.
type Tree map[string]Tree

// Parse builds a Tree from delimited tag strings such as "Animals|Birds|Owl".
// Empty segments are dropped, so "A||B" is the same path as "A|B".
func Parse(tags []string, delimiter string) Tree {
	if delimiter == "" {
		delimiter = DefaultDelimiter
	}
	root := Tree{}
	for _, tag := range tags {
		node := root
		for _, segment := range strings.Split(tag, delimiter) {
			segment = strings.TrimSpace(segment)
			if segment == "" {
				continue
			}
			child, ok := node[segment]
			if !ok {
				child = Tree{}
				node[segment] = child
			}
			node = child
		}
	}
	return root
}

// Keys returns the child segments of t in lexical order.
func (t Tree) Keys() []string {
	out := make([]string, 0, len(t))
	for k := range t {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Leaves returns the full delimited path of every leaf in t, sorted.
func (t Tree) Leaves(delimiter string) []string {
	if delimiter == "" {
		delimiter = DefaultDelimiter
	}
	var out []string
	var walk func(prefix string, node Tree)
	walk = func(prefix string, node Tree) {
		for _, k := range node.Keys() {
			path := k
			if prefix != "" {
				path = prefix + delimiter + k
			}
			child := node[k]
			if len(child) == 0 {
				out = append(out, path)
				continue
			}
			walk(path, child)
		}
	}
	walk("", t)
	return out
}
