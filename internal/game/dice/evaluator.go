package dice

// Evaluator rolls pools against a face table.
type Evaluator struct {
	faces FaceTable
	src   Source
}

// NewEvaluator creates an Evaluator. A nil faces argument selects
// DefaultFaceTable.
//
// Precondition: src must be non-nil; faces, if non-nil, must pass Validate.
func NewEvaluator(faces FaceTable, src Source) *Evaluator {
	if faces == nil {
		faces = DefaultFaceTable()
	}
	return &Evaluator{faces: faces, src: src}
}

// Roll parses expr and rolls it, adding bias to the tally before cancellation.
//
// Postcondition: Returns a RollResult, or an error wrapping ErrMalformedExpression.
func (e *Evaluator) Roll(expr string, bias Symbols) (RollResult, error) {
	p, err := ParseExpression(expr)
	if err != nil {
		return RollResult{}, err
	}
	return e.roll(p, bias), nil
}

// RollPool rolls p's dice with p's own symbols as bias.
//
// Postcondition: result.Expression == p.RenderExpression().
func (e *Evaluator) RollPool(p Pool) RollResult {
	return e.roll(p, p.Symbols())
}

func (e *Evaluator) roll(p Pool, bias Symbols) RollResult {
	result := RollResult{
		Expression: p.RenderExpression(),
		Bias:       bias,
		Raw:        bias,
	}
	for _, k := range Kinds {
		faces := e.faces[k]
		for i := 0; i < p.Count(k); i++ {
			idx := e.src.Intn(len(faces))
			face := faces[idx]
			result.Dice = append(result.Dice, DieOutcome{Kind: k, Face: idx, Symbols: face})
			result.Raw = result.Raw.Add(face)
		}
	}
	result.Net = result.Raw.Cancel()
	return result
}
