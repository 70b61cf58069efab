package dice

import (
	"fmt"
	"strconv"
	"strings"
)

// Pool is a bag of typed dice plus symbols injected without dice.
// Pool is a value type; copies are independent.
//
// Invariant: every count is >= 0.
type Pool struct {
	Ability     int `yaml:"ability"`
	Proficiency int `yaml:"proficiency"`
	Boost       int `yaml:"boost"`
	Setback     int `yaml:"setback"`
	Difficulty  int `yaml:"difficulty"`
	Challenge   int `yaml:"challenge"`
	Force       int `yaml:"force"`

	Success   int `yaml:"success"`
	Advantage int `yaml:"advantage"`
	Triumph   int `yaml:"triumph"`
	Failure   int `yaml:"failure"`
	Threat    int `yaml:"threat"`
	Despair   int `yaml:"despair"`
}

// Count returns the number of dice of kind k in the pool.
func (p Pool) Count(k Kind) int {
	switch k {
	case Ability:
		return p.Ability
	case Proficiency:
		return p.Proficiency
	case Boost:
		return p.Boost
	case Setback:
		return p.Setback
	case Difficulty:
		return p.Difficulty
	case Challenge:
		return p.Challenge
	case Force:
		return p.Force
	}
	return 0
}

// SetCount sets the number of dice of kind k, flooring at zero.
func (p *Pool) SetCount(k Kind, n int) {
	if n < 0 {
		n = 0
	}
	switch k {
	case Ability:
		p.Ability = n
	case Proficiency:
		p.Proficiency = n
	case Boost:
		p.Boost = n
	case Setback:
		p.Setback = n
	case Difficulty:
		p.Difficulty = n
	case Challenge:
		p.Challenge = n
	case Force:
		p.Force = n
	}
}

// DiceCount returns the total number of dice in the pool.
func (p Pool) DiceCount() int {
	n := 0
	for _, k := range Kinds {
		n += p.Count(k)
	}
	return n
}

// IsEmpty reports whether the pool holds no dice and no symbols.
func (p Pool) IsEmpty() bool { return p == Pool{} }

// Symbols returns the pre-seeded symbols carried by the pool.
func (p Pool) Symbols() Symbols {
	return Symbols{
		Success:   p.Success,
		Advantage: p.Advantage,
		Triumph:   p.Triumph,
		Failure:   p.Failure,
		Threat:    p.Threat,
		Despair:   p.Despair,
	}
}

// Add returns the field-wise sum of p and o. Negative sums floor at zero.
func (p Pool) Add(o Pool) Pool {
	out := Pool{
		Success:   nonNeg(p.Success + o.Success),
		Advantage: nonNeg(p.Advantage + o.Advantage),
		Triumph:   nonNeg(p.Triumph + o.Triumph),
		Failure:   nonNeg(p.Failure + o.Failure),
		Threat:    nonNeg(p.Threat + o.Threat),
		Despair:   nonNeg(p.Despair + o.Despair),
	}
	for _, k := range Kinds {
		out.SetCount(k, p.Count(k)+o.Count(k))
	}
	return out
}

// Upgrade performs n upgrade steps. Each step turns one ability die into a
// proficiency die, or, with no ability die left, one boost die into an ability
// die. A step with neither available does nothing.
//
// Postcondition: DiceCount() is unchanged.
func (p *Pool) Upgrade(n int) {
	for i := 0; i < n; i++ {
		switch {
		case p.Ability > 0:
			p.Ability--
			p.Proficiency++
		case p.Boost > 0:
			p.Boost--
			p.Ability++
		}
	}
}

// Downgrade is the inverse of Upgrade: proficiency to ability first, then
// ability to boost. A step with neither available does nothing.
//
// Postcondition: DiceCount() is unchanged.
func (p *Pool) Downgrade(n int) {
	for i := 0; i < n; i++ {
		switch {
		case p.Proficiency > 0:
			p.Proficiency--
			p.Ability++
		case p.Ability > 0:
			p.Ability--
			p.Boost++
		}
	}
}

// UpgradeDifficulty turns up to n difficulty dice into challenge dice.
func (p *Pool) UpgradeDifficulty(n int) {
	for i := 0; i < n && p.Difficulty > 0; i++ {
		p.Difficulty--
		p.Challenge++
	}
}

// DowngradeDifficulty turns up to n challenge dice into difficulty dice.
func (p *Pool) DowngradeDifficulty(n int) {
	for i := 0; i < n && p.Challenge > 0; i++ {
		p.Challenge--
		p.Difficulty++
	}
}

// RenderExpression serializes the dice as "<count>d<code>" tokens joined by
// "+", in canonical kind order with zero counts omitted. Symbols are not part
// of the expression. An empty dice set renders as "0".
//
// Postcondition: ParseExpression(p.RenderExpression()) has the same dice as p.
func (p Pool) RenderExpression() string {
	var tokens []string
	for _, k := range Kinds {
		if n := p.Count(k); n > 0 {
			tokens = append(tokens, strconv.Itoa(n)+"d"+k.Code())
		}
	}
	if len(tokens) == 0 {
		return "0"
	}
	return strings.Join(tokens, "+")
}

// String renders the dice expression followed by any injected symbols.
func (p Pool) String() string {
	if s := p.Symbols(); !s.IsZero() {
		return fmt.Sprintf("%s (+%s)", p.RenderExpression(), s)
	}
	return p.RenderExpression()
}

// ParseExpression parses a rendered dice expression back into a Pool.
// "" and "0" yield the empty pool; repeated codes accumulate.
//
// Postcondition: Returns a Pool without symbols, or an error wrapping
// ErrMalformedExpression naming the offending token.
func ParseExpression(expr string) (Pool, error) {
	var p Pool
	s := strings.TrimSpace(expr)
	if s == "" || s == "0" {
		return p, nil
	}
	for _, raw := range strings.Split(s, "+") {
		tok := strings.ToLower(strings.TrimSpace(raw))
		dIdx := strings.Index(tok, "d")
		if dIdx < 0 || dIdx == len(tok)-1 {
			return Pool{}, fmt.Errorf("%w: token %q in %q", ErrMalformedExpression, raw, expr)
		}
		count := 1
		if dIdx > 0 {
			n, err := strconv.Atoi(tok[:dIdx])
			if err != nil || n < 0 {
				return Pool{}, fmt.Errorf("%w: count in token %q of %q", ErrMalformedExpression, raw, expr)
			}
			count = n
		}
		k, ok := KindFromCode(tok[dIdx+1:])
		if !ok {
			return Pool{}, fmt.Errorf("%w: unknown die code in token %q of %q", ErrMalformedExpression, raw, expr)
		}
		p.SetCount(k, p.Count(k)+count)
	}
	return p, nil
}

// MustParseExpression parses expr and panics on error. Useful for fixtures.
//
// Precondition: expr must be a valid dice expression.
func MustParseExpression(expr string) Pool {
	p, err := ParseExpression(expr)
	if err != nil {
		panic(err.Error())
	}
	return p
}

func nonNeg(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
