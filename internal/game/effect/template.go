package effect

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/holotable/internal/game/character"
)

// Template is the static definition of a reusable effect, loaded from YAML.
type Template struct {
	ID       string             `yaml:"id"`
	Label    string             `yaml:"label"`
	Icon     string             `yaml:"icon"`
	Disabled bool               `yaml:"disabled"`
	Duration Duration           `yaml:"duration"`
	Changes  []character.Change `yaml:"changes"`
}

// Instantiate creates a fresh effect on actorID from the template.
//
// Postcondition: Returns an effect with a new ID and full Remaining counters.
func (t *Template) Instantiate(actorID, origin string) *ActiveEffect {
	e := &ActiveEffect{
		ID:        uuid.NewString(),
		ActorID:   actorID,
		Label:     t.Label,
		Icon:      t.Icon,
		Origin:    origin,
		Disabled:  t.Disabled,
		Duration:  t.Duration,
		Remaining: t.Duration,
		Changes:   append([]character.Change(nil), t.Changes...),
	}
	if e.Label == "" {
		e.Label = DefaultLabel
	}
	if e.Icon == "" {
		e.Icon = DefaultIcon
	}
	return e
}

// Registry holds all known Templates keyed by ID.
type Registry struct {
	templates map[string]*Template
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{templates: make(map[string]*Template)}
}

// Register adds t, overwriting any existing entry with the same ID.
// Precondition: t must not be nil and t.ID must not be empty.
func (r *Registry) Register(t *Template) {
	r.templates[t.ID] = t
}

// Get returns the Template for id, or (nil, false) if not found.
func (r *Registry) Get(id string) (*Template, bool) {
	t, ok := r.templates[id]
	return t, ok
}

// All returns the registered templates ordered by ID.
func (r *Registry) All() []*Template {
	out := make([]*Template, 0, len(r.templates))
	for _, t := range r.templates {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// LoadDirectory reads every *.yaml file in dir, parses each as a Template,
// and returns a populated Registry.
// Precondition: dir must be a readable directory.
// Postcondition: Returns a non-nil Registry, or an error if any file fails to
// parse or names an unknown anchor.
func LoadDirectory(dir string) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading effect dir %q: %w", dir, err)
	}
	reg := NewRegistry()
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		var t Template
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&t); err != nil {
			return nil, fmt.Errorf("parsing %q: %w", path, err)
		}
		if t.ID == "" {
			return nil, fmt.Errorf("parsing %q: id is required", path)
		}
		switch t.Duration.Anchor {
		case "", AnchorStart, AnchorEnd:
		default:
			return nil, fmt.Errorf("parsing %q: unknown anchor %q", path, t.Duration.Anchor)
		}
		reg.Register(&t)
	}
	return reg, nil
}
