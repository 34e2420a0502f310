// Package schema compares nested configuration documents by their leaf key-paths.
//
// A document is a tree of mappings whose leaves are scalars. Sequences count as
// leaves too: only mappings are descended into. Comparison looks at path existence
// alone, so a key that is a mapping in one document and a scalar in the other is
// not reported as long as the leaf paths line up. Merge keys ("<<") are expanded
// into the mapping that holds them.
package schema

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ErrNotMapping is returned when a document root is not a mapping.
var ErrNotMapping = errors.New("document root is not a mapping")

// ValueKind tags a Value.
type ValueKind int

const (
	KindScalar ValueKind = iota
	KindMapping
)

// Value is either a scalar leaf or an ordered mapping.
type Value struct {
	Kind    ValueKind
	Scalar  any
	Entries []Entry
}

// Entry is one key of a mapping, in document order.
type Entry struct {
	Key   string
	Value Value
}

// Scalar builds a leaf value.
func Scalar(v any) Value {
	return Value{Kind: KindScalar, Scalar: v}
}

// Mapping builds a mapping value from entries in the given order.
func Mapping(entries ...Entry) Value {
	return Value{Kind: KindMapping, Entries: entries}
}

// E is shorthand for an Entry.
func E(key string, v Value) Entry {
	return Entry{Key: key, Value: v}
}

// Parse decodes a YAML document into a Value, keeping key order. An empty
// document yields an empty mapping.
func Parse(data []byte) (Value, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Value{}, err
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return Mapping(), nil
	}
	root := doc.Content[0]
	if root.Kind == yaml.AliasNode {
		root = root.Alias
	}
	if root.Kind != yaml.MappingNode {
		if root.Tag == "!!null" {
			return Mapping(), nil
		}
		return Value{}, fmt.Errorf("%w (line %d)", ErrNotMapping, root.Line)
	}
	return FromNode(root), nil
}

// FromNode converts a yaml node tree. Anything other than a mapping becomes a scalar.
func FromNode(n *yaml.Node) Value {
	if n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	if n.Kind != yaml.MappingNode {
		var v any
		if err := n.Decode(&v); err != nil {
			v = n.Value
		}
		return Scalar(v)
	}
	// Merged keys come first; a later key keeps the earlier position but
	// replaces its value, so explicit keys win over merged ones.
	var entries []Entry
	index := make(map[string]int)
	put := func(e Entry) {
		if i, ok := index[e.Key]; ok {
			entries[i].Value = e.Value
			return
		}
		index[e.Key] = len(entries)
		entries = append(entries, e)
	}
	for _, e := range mergedEntries(n) {
		put(e)
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if isMergeKey(n.Content[i]) {
			continue
		}
		put(E(n.Content[i].Value, FromNode(n.Content[i+1])))
	}
	return Mapping(entries...)
}

func isMergeKey(k *yaml.Node) bool {
	return k.Kind == yaml.ScalarNode && k.ShortTag() == "!!merge"
}

// mergedEntries expands every "<<" value of n. In a sequence of mappings the
// earlier mapping takes precedence.
func mergedEntries(n *yaml.Node) []Entry {
	var sources []*yaml.Node
	for i := 0; i+1 < len(n.Content); i += 2 {
		if !isMergeKey(n.Content[i]) {
			continue
		}
		v := n.Content[i+1]
		if v.Kind == yaml.AliasNode && v.Alias != nil {
			v = v.Alias
		}
		switch v.Kind {
		case yaml.MappingNode:
			sources = append(sources, v)
		case yaml.SequenceNode:
			for j := len(v.Content) - 1; j >= 0; j-- {
				sources = append(sources, v.Content[j])
			}
		}
	}

	var out []Entry
	index := make(map[string]int)
	for _, src := range sources {
		m := FromNode(src)
		if m.Kind != KindMapping {
			continue
		}
		for _, e := range m.Entries {
			if i, ok := index[e.Key]; ok {
				out[i].Value = e.Value
				continue
			}
			index[e.Key] = len(out)
			out = append(out, e)
		}
	}
	return out
}

// LeafPaths flattens v depth-first into "/a/b/c" paths in key order.
func LeafPaths(v Value) []string {
	return appendLeafPaths(nil, v, "")
}

func appendLeafPaths(dst []string, v Value, prefix string) []string {
	for _, e := range v.Entries {
		path := prefix + "/" + e.Key
		if e.Value.Kind == KindMapping {
			dst = appendLeafPaths(dst, e.Value, path)
			continue
		}
		dst = append(dst, path)
	}
	return dst
}

// FindMissingKeys returns the leaf paths of reference that are not leaf paths of
// candidate, in reference order.
func FindMissingKeys(reference, candidate Value) []string {
	have := make(map[string]struct{})
	for _, p := range LeafPaths(candidate) {
		have[p] = struct{}{}
	}
	var missing []string
	for _, p := range LeafPaths(reference) {
		if _, ok := have[p]; !ok {
			missing = append(missing, p)
		}
	}
	return missing
}
