package requirements

import (
	"encoding/json"
	"slices"
	"strings"
)

// Entry states that an operation on a layer, for the listed subtypes, is gated by a flag.
type Entry struct {
	Flag      string
	Layer     Layer
	Operation string
	subtypes  []string // sorted, unique, never empty
}

// Subtypes returns a copy of the subtypes the entry applies to, sorted.
func (e Entry) Subtypes() []string {
	return slices.Clone(e.subtypes)
}

// Applies reports whether the entry gates a call with the given subtype.
// An empty subtype means no discriminator could be determined for the call,
// in which case the entry applies.
func (e Entry) Applies(subtype string) bool {
	if subtype == "" {
		return true
	}
	_, found := slices.BinarySearch(e.subtypes, subtype)
	return found
}

// MarshalJSON renders the entry for diagnostics.
func (e Entry) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Flag      string   `json:"flag"`
		Layer     Layer    `json:"layer"`
		Operation string   `json:"operation"`
		Subtypes  []string `json:"subtypes"`
	}{e.Flag, e.Layer, e.Operation, e.subtypes})
}

type matrixKey struct {
	layer     Layer
	operation string
}

// Matrix is an immutable index of requirement entries keyed by (layer, operation).
type Matrix struct {
	index   map[matrixKey][]Entry
	entries []Entry
	flags   []string
}

func newMatrix(entries []Entry) *Matrix {
	slices.SortFunc(entries, compareEntries)

	m := &Matrix{
		index:   make(map[matrixKey][]Entry),
		entries: entries,
	}
	for _, e := range entries {
		k := matrixKey{layer: e.Layer, operation: e.Operation}
		m.index[k] = append(m.index[k], e)
		if n := len(m.flags); n == 0 || m.flags[n-1] != e.Flag {
			m.flags = append(m.flags, e.Flag)
		}
	}
	return m
}

func compareEntries(a, b Entry) int {
	if c := strings.Compare(a.Flag, b.Flag); c != 0 {
		return c
	}
	if c := strings.Compare(string(a.Layer), string(b.Layer)); c != 0 {
		return c
	}
	return strings.Compare(a.Operation, b.Operation)
}

// For returns the entries gating operation on layer. An empty result means
// the operation is always permitted.
func (m *Matrix) For(layer Layer, operation string) []Entry {
	if m == nil {
		return nil
	}
	return slices.Clone(m.index[matrixKey{layer: layer, operation: operation}])
}

// Entries returns every entry ordered by flag, layer and operation.
func (m *Matrix) Entries() []Entry {
	if m == nil {
		return nil
	}
	return slices.Clone(m.entries)
}

// Flags returns the sorted names of all flags referenced by the matrix.
func (m *Matrix) Flags() []string {
	if m == nil {
		return nil
	}
	return slices.Clone(m.flags)
}

// Len returns the number of entries.
func (m *Matrix) Len() int {
	if m == nil {
		return 0
	}
	return len(m.entries)
}

// Document converts the matrix back into the configuration format.
func (m *Matrix) Document() Document {
	doc := make(Document)
	if m == nil {
		return doc
	}
	for _, e := range m.entries {
		layers, ok := doc[e.Flag]
		if !ok {
			layers = make(map[string]map[string][]string)
			doc[e.Flag] = layers
		}
		ops, ok := layers[string(e.Layer)]
		if !ok {
			ops = make(map[string][]string)
			layers[string(e.Layer)] = ops
		}
		ops[e.Operation] = e.Subtypes()
	}
	return doc
}
