package dice

import "go.uber.org/zap"

// Roller rolls a fixed expression against a Source and logs every result at
// debug level. The tower service holds one Roller for its configured die.
type Roller struct {
	expr   Expression
	src    Source
	logger *zap.Logger
}

// NewLoggedRoller creates a Roller for expr.
//
// Precondition: src and logger must be non-nil.
// Postcondition: Returns a Roller or a parse error for expr.
func NewLoggedRoller(expr string, src Source, logger *zap.Logger) (*Roller, error) {
	e, err := Parse(expr)
	if err != nil {
		return nil, err
	}
	return &Roller{expr: e, src: src, logger: logger}, nil
}

// Expression returns the parsed expression this Roller evaluates.
func (r *Roller) Expression() Expression { return r.expr }

// Roll evaluates the configured expression and logs the outcome.
//
// Postcondition: Expression().Min() <= result.Total() <= Expression().Max().
func (r *Roller) Roll(fields ...zap.Field) RollResult {
	result := Roll(r.expr, r.src)
	r.logger.Debug("dice roll", append(fields,
		zap.String("expression", result.Expression),
		zap.Ints("dice", result.Dice),
		zap.Int("modifier", result.Modifier),
		zap.Int("total", result.Total()),
	)...)
	return result
}
