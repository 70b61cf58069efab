package character

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// ErrCharacterNotFound is returned when a character lookup yields no result.
var ErrCharacterNotFound = errors.New("character not found")

// LoadFile parses a single YAML character sheet.
//
// Precondition: path must be a readable YAML file.
// Postcondition: Returns a Character with non-empty ID and Name and no
// negative values, or an error.
func LoadFile(path string) (*Character, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %q: %w", path, err)
	}
	var c Character
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("parsing %q: %w", path, err)
	}
	if c.ID == "" || c.Name == "" {
		return nil, fmt.Errorf("character %q: id and name are required", path)
	}
	if c.Type == "" {
		c.Type = TypeCharacter
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("character %q: %w", path, err)
	}
	return &c, nil
}

// Roster is an in-memory set of character sheets keyed by ID.
// All methods are safe for concurrent use.
type Roster struct {
	mu    sync.RWMutex
	chars map[string]*Character
}

// NewRoster creates a Roster holding chars.
func NewRoster(chars ...*Character) *Roster {
	r := &Roster{chars: make(map[string]*Character, len(chars))}
	for _, c := range chars {
		r.chars[c.ID] = c
	}
	return r
}

// LoadDirectory reads every *.yaml file in dir into a Roster.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns a non-nil Roster, or an error if any file fails to
// parse or two files share an ID.
func LoadDirectory(dir string) (*Roster, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading character dir %q: %w", dir, err)
	}
	r := NewRoster()
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		c, err := LoadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		if _, dup := r.chars[c.ID]; dup {
			return nil, fmt.Errorf("duplicate character id %q in %q", c.ID, dir)
		}
		r.chars[c.ID] = c
	}
	return r, nil
}

// Put adds or replaces a sheet.
func (r *Roster) Put(c *Character) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chars[c.ID] = c
}

// Character returns a copy of the sheet with the given ID.
//
// Postcondition: Returns the Character or ErrCharacterNotFound.
func (r *Roster) Character(_ context.Context, id string) (*Character, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.chars[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrCharacterNotFound, id)
	}
	return c.Clone(), nil
}

// IDs returns all sheet IDs in sorted order.
func (r *Roster) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.chars))
	for id := range r.chars {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
