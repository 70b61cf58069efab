package dice

import "go.uber.org/zap"

// Roller wraps an Evaluator and logger to provide logged dice rolling.
// All rolls are logged at debug level with expression, net symbols and total.
type Roller struct {
	eval   *Evaluator
	logger *zap.Logger
}

// NewLoggedRoller creates a Roller that rolls with eval and logs each roll to logger.
//
// Precondition: eval and logger must be non-nil.
func NewLoggedRoller(eval *Evaluator, logger *zap.Logger) *Roller {
	return &Roller{eval: eval, logger: logger}
}

// RollPool rolls p and logs the result at debug level.
func (r *Roller) RollPool(p Pool) RollResult {
	result := r.eval.RollPool(p)
	r.log(result)
	return result
}

// RollExpr parses expr, rolls it with bias, and logs the result.
//
// Postcondition: Returns a RollResult or a parse error.
func (r *Roller) RollExpr(expr string, bias Symbols) (RollResult, error) {
	result, err := r.eval.Roll(expr, bias)
	if err != nil {
		return RollResult{}, err
	}
	r.log(result)
	return result, nil
}

func (r *Roller) log(result RollResult) {
	r.logger.Debug("dice roll",
		zap.String("expression", result.Expression),
		zap.Int("dice", len(result.Dice)),
		zap.String("net", result.Net.String()),
		zap.Int("triumph", result.Net.Triumph),
		zap.Int("despair", result.Net.Despair),
		zap.Float64("total", result.Total()),
	)
}
