package density

import "errors"

// ErrInvalidOperand indicates a value that cannot be lifted into a Density.
var ErrInvalidOperand = errors.New("operand must be a density or an integer")

// ErrNegativeCount indicates a repeat count below zero.
var ErrNegativeCount = errors.New("repeat count must be non-negative")

// ErrInvalidCount indicates an order statistic count outside the component range.
var ErrInvalidCount = errors.New("count must be between zero and the number of densities")

// ErrInvalidDie indicates a die with fewer than one side.
var ErrInvalidDie = errors.New("die must have at least one side")

// ErrInvalidWeights indicates mixture weights that do not match the densities
// or do not sum to 1.0.
var ErrInvalidWeights = errors.New("weights must match the densities and sum to 1")

// ErrEmptyMultiDensity indicates a MultiDensity without components.
var ErrEmptyMultiDensity = errors.New("multi density requires at least one density")

// ErrEmptyDensity indicates an operation that needs at least one outcome.
var ErrEmptyDensity = errors.New("density has no outcomes")

// ErrZeroProbability indicates conditioning on an event with no mass.
var ErrZeroProbability = errors.New("conditioning event has zero probability")

// ErrNonPositiveSupport indicates a density with outcomes at or below zero
// where strictly positive outcomes are required.
var ErrNonPositiveSupport = errors.New("density outcomes must be strictly positive")

// ErrNegativeGoal indicates a renewal goal below zero.
var ErrNegativeGoal = errors.New("goal must be non-negative")

// ErrProbabilityRange indicates a probability outside [0, 1].
var ErrProbabilityRange = errors.New("probability must be between 0 and 1")
