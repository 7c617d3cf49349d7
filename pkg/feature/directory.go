package feature

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Directory is the authoritative catalog of flag names and their static metadata.
type Directory struct {
	mu   sync.RWMutex
	defs map[string]Definition
}

// NewDirectory creates a directory pre-populated with the given definitions.
func NewDirectory(defs ...Definition) (*Directory, error) {
	d := &Directory{defs: make(map[string]Definition, len(defs))}
	for _, def := range defs {
		if err := d.Register(def); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// Register adds a flag definition.
// It returns ErrDuplicateFlag if the name is already registered.
func (d *Directory) Register(def Definition) error {
	def.Name = strings.TrimSpace(def.Name)
	if def.Name == "" {
		return errors.Join(ErrInvalidFlag, errors.New("flag name cannot be empty"))
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.defs[def.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateFlag, def.Name)
	}
	d.defs[def.Name] = def
	return nil
}

// IsKnown reports whether name is a registered flag.
func (d *Directory) IsKnown(name string) bool {
	d.mu.RLock()
	_, ok := d.defs[name]
	d.mu.RUnlock()
	return ok
}

// Lookup returns the definition registered under name.
func (d *Directory) Lookup(name string) (Definition, bool) {
	d.mu.RLock()
	def, ok := d.defs[name]
	d.mu.RUnlock()
	return def, ok
}

// Definitions returns all registered definitions ordered by name.
func (d *Directory) Definitions() []Definition {
	d.mu.RLock()
	result := make([]Definition, 0, len(d.defs))
	for _, def := range d.defs {
		result = append(result, def)
	}
	d.mu.RUnlock()

	slices.SortFunc(result, func(a, b Definition) int {
		return strings.Compare(a.Name, b.Name)
	})
	return result
}

// Len returns the number of registered flags.
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.defs)
}

type definitionsDocument struct {
	Flags []Definition `yaml:"flags"`
}

// LoadDefinitions decodes a definitions document of the form
//
//	flags:
//	  - name: BANKING_ACCOUNT_TYPES_ENABLED
//	    description: Typed banking accounts
//	    default: false
//
// JSON input is accepted as well since it is a subset of YAML.
func LoadDefinitions(r io.Reader) ([]Definition, error) {
	var doc definitionsDocument
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, errors.Join(ErrInvalidDefinitions, err)
	}
	return doc.Flags, nil
}

// LoadDefinitionsFile reads definitions from a YAML or JSON file.
func LoadDefinitionsFile(path string) ([]Definition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Join(ErrInvalidDefinitions, err)
	}
	defer f.Close()
	return LoadDefinitions(f)
}
