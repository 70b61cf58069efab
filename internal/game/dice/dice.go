// Package dice provides the narrative dice model for the holotable rules core:
// typed dice pools, symbol tallies, face tables and the roll evaluator.
package dice

import (
	"errors"
	"fmt"
	"strings"
)

// Kind identifies one of the seven narrative die types.
type Kind int

const (
	Ability Kind = iota
	Proficiency
	Boost
	Setback
	Difficulty
	Challenge
	Force
)

// Kinds lists every die kind in canonical render order.
var Kinds = []Kind{Ability, Proficiency, Boost, Setback, Difficulty, Challenge, Force}

var kindCodes = map[Kind]string{
	Ability:     "a",
	Proficiency: "p",
	Boost:       "b",
	Setback:     "s",
	Difficulty:  "i",
	Challenge:   "c",
	Force:       "f",
}

var kindNames = map[Kind]string{
	Ability:     "ability",
	Proficiency: "proficiency",
	Boost:       "boost",
	Setback:     "setback",
	Difficulty:  "difficulty",
	Challenge:   "challenge",
	Force:       "force",
}

// Code returns the single-letter expression code for k.
func (k Kind) Code() string { return kindCodes[k] }

// String returns the lower-case die name, e.g. "proficiency".
func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return "unknown"
}

// KindFromCode resolves an expression letter code to its Kind.
//
// Postcondition: Returns (kind, true) for a known code, or (0, false) otherwise.
func KindFromCode(code string) (Kind, bool) {
	for k, c := range kindCodes {
		if c == code {
			return k, true
		}
	}
	return 0, false
}

// KindFromName resolves a die name (case-insensitive) to its Kind.
func KindFromName(name string) (Kind, bool) {
	n := strings.ToLower(name)
	for k, kn := range kindNames {
		if kn == n {
			return k, true
		}
	}
	return 0, false
}

// RankedAdvantageLimit is the exclusive upper bound on net advantage for which
// the initiative ranking scalar success + advantage*0.01 stays order-preserving.
const RankedAdvantageLimit = 100

// ErrMalformedExpression is returned when a dice expression or pool container
// cannot be parsed.
var ErrMalformedExpression = errors.New("dice: malformed expression")

// ErrAdvantageOverflow is returned when a result carries too much advantage to
// be ranked without crossing into the next success band.
var ErrAdvantageOverflow = errors.New("dice: advantage exceeds ranking bound")

// Symbols is a tally of narrative symbols.
//
// Invariant: every field is >= 0.
type Symbols struct {
	Success   int `yaml:"success"`
	Advantage int `yaml:"advantage"`
	Triumph   int `yaml:"triumph"`
	Failure   int `yaml:"failure"`
	Threat    int `yaml:"threat"`
	Despair   int `yaml:"despair"`
	Light     int `yaml:"light"`
	Dark      int `yaml:"dark"`
}

// Add returns the field-wise sum of s and o.
func (s Symbols) Add(o Symbols) Symbols {
	return Symbols{
		Success:   s.Success + o.Success,
		Advantage: s.Advantage + o.Advantage,
		Triumph:   s.Triumph + o.Triumph,
		Failure:   s.Failure + o.Failure,
		Threat:    s.Threat + o.Threat,
		Despair:   s.Despair + o.Despair,
		Light:     s.Light + o.Light,
		Dark:      s.Dark + o.Dark,
	}
}

// IsZero reports whether no symbol is present.
func (s Symbols) IsZero() bool { return s == Symbols{} }

// Cancel applies the opposed-symbol rule: success cancels failure and
// advantage cancels threat one for one. Triumph, despair and force pips are
// never cancelled.
//
// Postcondition: result.Success-result.Failure == s.Success-s.Failure;
// result.Advantage-result.Threat == s.Advantage-s.Threat; at least one of each
// opposed pair is zero.
func (s Symbols) Cancel() Symbols {
	out := s
	if out.Success >= out.Failure {
		out.Success -= out.Failure
		out.Failure = 0
	} else {
		out.Failure -= out.Success
		out.Success = 0
	}
	if out.Advantage >= out.Threat {
		out.Advantage -= out.Threat
		out.Threat = 0
	} else {
		out.Threat -= out.Advantage
		out.Advantage = 0
	}
	return out
}

// String renders the non-zero symbols, e.g. "2 success, 1 advantage".
func (s Symbols) String() string {
	var parts []string
	add := func(n int, name string) {
		if n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, name))
		}
	}
	add(s.Success, "success")
	add(s.Advantage, "advantage")
	add(s.Triumph, "triumph")
	add(s.Failure, "failure")
	add(s.Threat, "threat")
	add(s.Despair, "despair")
	add(s.Light, "light")
	add(s.Dark, "dark")
	if len(parts) == 0 {
		return "blank"
	}
	return strings.Join(parts, ", ")
}

// DieOutcome records the face one die landed on.
type DieOutcome struct {
	Kind    Kind
	Face    int // zero-based index into the die's face list
	Symbols Symbols
}

// RollResult holds the full audit trail for one pool roll.
//
// Postcondition: Net == Raw.Cancel().
type RollResult struct {
	Expression string
	Dice       []DieOutcome
	Bias       Symbols // symbols injected without dice
	Raw        Symbols // faces + bias before cancellation
	Net        Symbols
}

// Total returns the initiative ranking scalar success + advantage*0.01.
func (r RollResult) Total() float64 {
	return float64(r.Net.Success) + float64(r.Net.Advantage)*0.01
}

// InitiativeScore returns Total, refusing results whose advantage would spill
// into the next success band.
//
// Postcondition: Returns ErrAdvantageOverflow iff Net.Advantage >= RankedAdvantageLimit.
func (r RollResult) InitiativeScore() (float64, error) {
	if r.Net.Advantage >= RankedAdvantageLimit {
		return 0, fmt.Errorf("%w: %d advantage", ErrAdvantageOverflow, r.Net.Advantage)
	}
	return r.Total(), nil
}

// String returns a human-readable audit string, e.g.
//
//	"1da+2dp → 2 success, 1 advantage = 2.01"
func (r RollResult) String() string {
	expr := r.Expression
	if expr == "" {
		expr = "0"
	}
	return fmt.Sprintf("%s → %s = %.2f", expr, r.Net, r.Total())
}

// Source is the randomness provider for dice rolls.
//
// Implementations MUST be safe for concurrent use.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
}
