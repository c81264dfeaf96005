// Package document models the nested JSON trees returned by the InnerTube API
// and provides the primitives used to mine them: bounded key search and
// rich-text resolution.
package document

import (
	"encoding/json"
	"errors"
)

// ErrMalformed is returned when a document has no structure that can be
// searched, i.e. its root is not a Mapping or a Sequence.
var ErrMalformed = errors.New("malformed document")

// Node is one of Scalar, Sequence or *Mapping.
type Node interface {
	node()
}

// Scalar holds a JSON leaf: string, json.Number, bool or nil.
type Scalar struct {
	Value any
}

// Sequence is an ordered list of nodes.
type Sequence []Node

// Mapping is an object whose keys keep the order they had in the source.
type Mapping struct {
	keys   []string
	values map[string]Node
}

func (Scalar) node()   {}
func (Sequence) node() {}
func (*Mapping) node() {}

// NewMapping returns an empty mapping.
func NewMapping() *Mapping {
	return &Mapping{values: make(map[string]Node)}
}

// Set stores value under key. A key that is already present keeps its
// original position.
func (m *Mapping) Set(key string, value Node) {
	if _, exists := m.values[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Get returns the value stored under key.
func (m *Mapping) Get(key string) (Node, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m.values[key]
	return v, ok
}

// Has reports whether the mapping directly owns key.
func (m *Mapping) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// Keys returns the keys in source order.
func (m *Mapping) Keys() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Len returns the number of keys.
func (m *Mapping) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// String returns the scalar string value of n, if it is one.
func String(n Node) (string, bool) {
	s, ok := n.(Scalar)
	if !ok {
		return "", false
	}
	str, ok := s.Value.(string)
	return str, ok
}

// Number returns the scalar numeric value of n as float64.
func Number(n Node) (float64, bool) {
	s, ok := n.(Scalar)
	if !ok {
		return 0, false
	}
	switch v := s.Value.(type) {
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

// Dig walks a path of mapping keys (string) and sequence indexes (int)
// starting at n and returns the node at the end of it.
func Dig(n Node, path ...any) (Node, bool) {
	cur := n
	for _, step := range path {
		switch key := step.(type) {
		case string:
			m, ok := cur.(*Mapping)
			if !ok {
				return nil, false
			}
			next, ok := m.Get(key)
			if !ok {
				return nil, false
			}
			cur = next
		case int:
			seq, ok := cur.(Sequence)
			if !ok || key < 0 || key >= len(seq) {
				return nil, false
			}
			cur = seq[key]
		default:
			return nil, false
		}
	}
	return cur, cur != nil
}

// DigString is Dig followed by String.
func DigString(n Node, path ...any) (string, bool) {
	v, ok := Dig(n, path...)
	if !ok {
		return "", false
	}
	return String(v)
}

// Searchable reports whether n can be mined. Scalars and nil are not.
func Searchable(n Node) bool {
	switch v := n.(type) {
	case *Mapping:
		return v != nil
	case Sequence:
		return true
	}
	return false
}
