package requirements

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/featuregate/pkg/feature"
)

// Document is the configuration format of the requirements matrix:
//
//	flag name -> layer -> operation name -> subtypes
type Document map[string]map[string]map[string][]string

// Add appends subtypes to the rule for (flag, layer, operation), creating it if needed.
func (d Document) Add(flag string, layer Layer, operation string, subtypes ...string) {
	layers, ok := d[flag]
	if !ok {
		layers = make(map[string]map[string][]string)
		d[flag] = layers
	}
	ops, ok := layers[string(layer)]
	if !ok {
		ops = make(map[string][]string)
		layers[string(layer)] = ops
	}
	ops[operation] = append(ops[operation], subtypes...)
}

// Clone returns a deep copy of the document.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	out := make(Document, len(d))
	for flag, layers := range d {
		if layers == nil {
			out[flag] = nil
			continue
		}
		lc := make(map[string]map[string][]string, len(layers))
		for layer, ops := range layers {
			if ops == nil {
				lc[layer] = nil
				continue
			}
			oc := make(map[string][]string, len(ops))
			for op, subtypes := range ops {
				oc[op] = slices.Clone(subtypes)
			}
			lc[layer] = oc
		}
		out[flag] = lc
	}
	return out
}

// KnownFlags reports whether a flag name is registered.
// *feature.Directory satisfies it.
type KnownFlags interface {
	IsKnown(name string) bool
}

// Parse validates doc and builds the lookup index.
// Every problem found is reported at once; the returned error matches
// ErrMalformedRequirements and, for unregistered flags, feature.ErrUnknownFlag.
// A nil known skips the flag registration check.
func Parse(doc Document, known KnownFlags) (*Matrix, error) {
	var (
		entries []Entry
		errs    []error
	)

	for _, flag := range slices.Sorted(maps.Keys(doc)) {
		layers := doc[flag]
		if strings.TrimSpace(flag) == "" {
			errs = append(errs, errors.New("empty flag name"))
			continue
		}
		if known != nil && !known.IsKnown(flag) {
			errs = append(errs, fmt.Errorf("%w: %s", feature.ErrUnknownFlag, flag))
			continue
		}
		if len(layers) == 0 {
			errs = append(errs, fmt.Errorf("flag %s: no layers", flag))
			continue
		}

		for _, rawLayer := range slices.Sorted(maps.Keys(layers)) {
			layer, err := ParseLayer(rawLayer)
			if err != nil || string(layer) != rawLayer {
				errs = append(errs, fmt.Errorf("flag %s: %w: %q", flag, ErrInvalidLayer, rawLayer))
				continue
			}
			ops := layers[rawLayer]
			if len(ops) == 0 {
				errs = append(errs, fmt.Errorf("flag %s: layer %s: no operations", flag, layer))
				continue
			}

			for _, op := range slices.Sorted(maps.Keys(ops)) {
				entry, err := NewEntry(flag, layer, op, ops[op]...)
				if err != nil {
					errs = append(errs, fmt.Errorf("flag %s: %w", flag, err))
					continue
				}
				entries = append(entries, entry)
			}
		}
	}

	if len(errs) > 0 {
		return nil, errors.Join(append([]error{ErrMalformedRequirements}, errs...)...)
	}
	return newMatrix(entries), nil
}

// NewEntry builds a validated entry. Subtypes are sorted and de-duplicated.
func NewEntry(flag string, layer Layer, operation string, subtypes ...string) (Entry, error) {
	switch {
	case strings.TrimSpace(flag) == "":
		return Entry{}, errors.Join(ErrMalformedRequirements, errors.New("empty flag name"))
	case !layer.Valid():
		return Entry{}, errors.Join(ErrMalformedRequirements, fmt.Errorf("%w: %q", ErrInvalidLayer, layer))
	case strings.TrimSpace(operation) == "":
		return Entry{}, errors.Join(ErrMalformedRequirements, fmt.Errorf("layer %s: empty operation name", layer))
	case len(subtypes) == 0:
		return Entry{}, errors.Join(ErrMalformedRequirements, fmt.Errorf("%s.%s: empty subtype set", layer, operation))
	}

	set := slices.Clone(subtypes)
	for _, s := range set {
		if strings.TrimSpace(s) == "" {
			return Entry{}, errors.Join(ErrMalformedRequirements, fmt.Errorf("%s.%s: empty subtype", layer, operation))
		}
	}
	slices.Sort(set)

	return Entry{
		Flag:      flag,
		Layer:     layer,
		Operation: operation,
		subtypes:  slices.Compact(set),
	}, nil
}

// DecodeJSON reads a JSON requirements document.
func DecodeJSON(r io.Reader) (Document, error) {
	var doc Document
	dec := json.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return Document{}, nil
		}
		return nil, errors.Join(ErrMalformedRequirements, err)
	}
	return doc, nil
}

// DecodeYAML reads a YAML requirements document.
func DecodeYAML(r io.Reader) (Document, error) {
	var doc Document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return Document{}, nil
		}
		return nil, errors.Join(ErrMalformedRequirements, err)
	}
	return doc, nil
}

// Decode picks the decoder by format: "json", or "yaml"/"yml".
func Decode(r io.Reader, format string) (Document, error) {
	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "json":
		return DecodeJSON(r)
	case "yaml", "yml":
		return DecodeYAML(r)
	default:
		return nil, errors.Join(ErrMalformedRequirements, fmt.Errorf("unsupported format %q", format))
	}
}
