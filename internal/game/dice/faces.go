package dice

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FaceTable maps each die kind to its ordered list of faces.
// It is static game data; callers must not mutate a table after handing it to
// an Evaluator.
type FaceTable map[Kind][]Symbols

var (
	blank = Symbols{}
	s1    = Symbols{Success: 1}
	s2    = Symbols{Success: 2}
	a1    = Symbols{Advantage: 1}
	a2    = Symbols{Advantage: 2}
	sa    = Symbols{Success: 1, Advantage: 1}
	tri   = Symbols{Success: 1, Triumph: 1}
	f1    = Symbols{Failure: 1}
	f2    = Symbols{Failure: 2}
	t1    = Symbols{Threat: 1}
	t2    = Symbols{Threat: 2}
	ft    = Symbols{Failure: 1, Threat: 1}
	des   = Symbols{Failure: 1, Despair: 1}
	l1    = Symbols{Light: 1}
	l2    = Symbols{Light: 2}
	d1    = Symbols{Dark: 1}
	d2    = Symbols{Dark: 2}
)

// DefaultFaceTable returns the published face data for all seven die kinds.
// Triumph faces also carry one success and despair faces one failure.
//
// Postcondition: Validate() on the returned table is nil.
func DefaultFaceTable() FaceTable {
	return FaceTable{
		Boost:       {blank, blank, s1, sa, a2, a1},
		Setback:     {blank, blank, f1, f1, t1, t1},
		Ability:     {blank, s1, s1, s2, a1, a1, sa, a2},
		Difficulty:  {blank, f1, f2, t1, t1, t1, t2, ft},
		Proficiency: {blank, s1, s1, s2, s2, a1, sa, sa, sa, a2, a2, tri},
		Challenge:   {blank, f1, f1, f2, f2, t1, t1, ft, ft, t2, t2, des},
		Force:       {d1, d1, d1, d1, d1, d1, d2, l1, l1, l2, l2, l2},
	}
}

// Validate checks that every die kind has at least one face and that no face
// carries a negative count.
func (t FaceTable) Validate() error {
	for _, k := range Kinds {
		faces, ok := t[k]
		if !ok || len(faces) == 0 {
			return fmt.Errorf("dice: face table has no faces for %s", k)
		}
		for i, f := range faces {
			if f.Success < 0 || f.Advantage < 0 || f.Triumph < 0 || f.Failure < 0 ||
				f.Threat < 0 || f.Despair < 0 || f.Light < 0 || f.Dark < 0 {
				return fmt.Errorf("dice: %s face %d has a negative symbol count", k, i)
			}
		}
	}
	return nil
}

// LoadFaceTable reads a YAML face table keyed by die name:
//
//	ability:
//	  - {}
//	  - {success: 1}
//
// Precondition: path must be a readable YAML file.
// Postcondition: Returns a validated FaceTable, or an error if the file fails to
// parse, names an unknown die or omits one.
func LoadFaceTable(path string) (FaceTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading face table %q: %w", path, err)
	}
	var raw map[string][]Symbols
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("parsing face table %q: %w", path, err)
	}
	table := make(FaceTable, len(raw))
	for name, faces := range raw {
		k, ok := KindFromName(name)
		if !ok {
			return nil, fmt.Errorf("face table %q: unknown die %q", path, name)
		}
		table[k] = faces
	}
	if err := table.Validate(); err != nil {
		return nil, fmt.Errorf("face table %q: %w", path, err)
	}
	return table, nil
}
