package dice

import (
	"fmt"
	"strconv"
	"strings"
)

// Container is the flat field form of a pool as a front end submits it:
// field name to decimal count, e.g. {"ability": "2", "advantage": "1"}.
type Container map[string]string

var symbolFields = []string{"success", "advantage", "triumph", "failure", "threat", "despair"}

func (p *Pool) symbolField(name string) *int {
	switch name {
	case "success":
		return &p.Success
	case "advantage":
		return &p.Advantage
	case "triumph":
		return &p.Triumph
	case "failure":
		return &p.Failure
	case "threat":
		return &p.Threat
	case "despair":
		return &p.Despair
	}
	return nil
}

// Container renders p into its field form, omitting zero counts.
//
// Postcondition: FromContainer(p.Container()) == p.
func (p Pool) Container() Container {
	c := make(Container)
	for _, k := range Kinds {
		if n := p.Count(k); n > 0 {
			c[k.String()] = strconv.Itoa(n)
		}
	}
	for _, f := range symbolFields {
		if n := *p.symbolField(f); n > 0 {
			c[f] = strconv.Itoa(n)
		}
	}
	return c
}

// FromContainer rebuilds a Pool from its field form. Field names are
// case-insensitive and blank values read as zero.
//
// Postcondition: Returns the Pool, or an error wrapping ErrMalformedExpression
// for an unknown field or a value that is not a non-negative integer.
func FromContainer(raw Container) (Pool, error) {
	var p Pool
	for field, value := range raw {
		name := strings.ToLower(strings.TrimSpace(field))
		v := strings.TrimSpace(value)
		n := 0
		if v != "" {
			var err error
			n, err = strconv.Atoi(v)
			if err != nil || n < 0 {
				return Pool{}, fmt.Errorf("%w: field %q has value %q", ErrMalformedExpression, field, value)
			}
		}
		if k, ok := KindFromName(name); ok {
			p.SetCount(k, n)
			continue
		}
		if ptr := p.symbolField(name); ptr != nil {
			*ptr = n
			continue
		}
		return Pool{}, fmt.Errorf("%w: unknown field %q", ErrMalformedExpression, field)
	}
	return p, nil
}
