package dice

import (
	"errors"
	"fmt"
)

// ErrSyntax indicates a dice expression could not be parsed.
var ErrSyntax = errors.New("invalid dice expression")

// ErrNotDensity indicates an expression evaluated to a probability where a
// density was required.
var ErrNotDensity = errors.New("expression is a comparison, not a density")

// ErrTooLarge indicates an expression whose dice or intermediate densities
// exceed the parser limits.
var ErrTooLarge = errors.New("dice expression is too large")

// ErrInvalidSampleCount indicates a sample request asked for no draws.
var ErrInvalidSampleCount = errors.New("sample count must be positive")

// SyntaxError reports where parsing failed.
type SyntaxError struct {
	Expr string
	Pos  int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s at position %d in %q", e.Msg, e.Pos, e.Expr)
}

// Is lets errors.Is match ErrSyntax.
func (e *SyntaxError) Is(target error) bool {
	return target == ErrSyntax
}
