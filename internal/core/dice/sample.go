package dice

import (
	"math/rand"

	"github.com/louisbranch/dicedensity/internal/core/density"
	"github.com/louisbranch/dicedensity/internal/random"
)

// SampleRequest describes how many draws to take from an expression.
type SampleRequest struct {
	Expr  string
	Count int
	Seed  int64
}

// SampleResult captures the individual draws and their sum.
type SampleResult struct {
	Values []int
	Total  int
}

// Sample parses the request expression and draws Count values from it.
//
// # Determinism
//
// Sample is deterministic with respect to the Seed field on SampleRequest.
// Given the same Seed, Expr and Count, Sample will always produce the same
// SampleResult.
//
// # Errors
//
//   - Count must be positive, otherwise ErrInvalidSampleCount is returned.
//   - Expr must parse to a density; comparisons return ErrNotDensity and
//     malformed expressions return an error matching ErrSyntax.
//
// Example:
//
//	result, err := Sample(SampleRequest{Expr: "m2d6+3", Count: 5, Seed: 1})
func Sample(request SampleRequest) (SampleResult, error) {
	if request.Count <= 0 {
		return SampleResult{}, ErrInvalidSampleCount
	}
	d, err := ParseDensity(request.Expr)
	if err != nil {
		return SampleResult{}, err
	}
	return SampleWithRng(random.New(request.Seed), d, request.Count)
}

// SampleWithRng draws count values from d using a provided random source.
// This is useful when you want to control the RNG directly.
func SampleWithRng(rng *rand.Rand, d density.Density, count int) (SampleResult, error) {
	if count <= 0 {
		return SampleResult{}, ErrInvalidSampleCount
	}
	values := make([]int, count)
	total := 0
	for i := range values {
		value, err := d.Roll(rng)
		if err != nil {
			return SampleResult{}, err
		}
		values[i] = value
		total += value
	}
	return SampleResult{Values: values, Total: total}, nil
}
