package density

import (
	"math"
	"math/rand"
)

// cdfSlack absorbs rounding in accumulated masses when searching the CDF.
const cdfSlack = 1e-12

// Expected returns the mean outcome.
func (d Density) Expected() float64 {
	sum := 0.0
	for i, k := range d.keys {
		sum += float64(k) * d.probs[i]
	}
	return sum
}

// Variance returns the second central moment.
func (d Density) Variance() float64 {
	mean := d.Expected()
	sum := 0.0
	for i, k := range d.keys {
		delta := float64(k) - mean
		sum += delta * delta * d.probs[i]
	}
	return sum
}

// Stdev returns the standard deviation.
func (d Density) Stdev() float64 {
	return math.Sqrt(d.Variance())
}

// InverseCDF returns the smallest outcome whose CDF reaches p.
func (d Density) InverseCDF(p float64) (int, error) {
	if math.IsNaN(p) || p < 0 || p > 1 {
		return 0, ErrProbabilityRange
	}
	if len(d.keys) == 0 {
		return 0, ErrEmptyDensity
	}
	cum := 0.0
	for i, k := range d.keys {
		cum += d.probs[i]
		if cum >= p-cdfSlack {
			return k, nil
		}
	}
	return d.keys[len(d.keys)-1], nil
}

// Median returns the middle outcome. When the CDF reaches exactly 0.5 at one
// outcome, the median is the midpoint between it and the next outcome.
func (d Density) Median() (float64, error) {
	if len(d.keys) == 0 {
		return 0, ErrEmptyDensity
	}
	cum := 0.0
	for i, k := range d.keys {
		cum += d.probs[i]
		if math.Abs(cum-0.5) <= cdfSlack && i+1 < len(d.keys) {
			return float64(k+d.keys[i+1]) / 2, nil
		}
		if cum > 0.5 {
			return float64(k), nil
		}
	}
	return float64(d.keys[len(d.keys)-1]), nil
}

// Roll draws one outcome by inverse-CDF sampling.
func (d Density) Roll(rng *rand.Rand) (int, error) {
	if len(d.keys) == 0 {
		return 0, ErrEmptyDensity
	}
	u := rng.Float64()
	cum := 0.0
	for i, k := range d.keys {
		cum += d.probs[i]
		if u < cum {
			return k, nil
		}
	}
	return d.keys[len(d.keys)-1], nil
}
