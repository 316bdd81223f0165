package density

import (
	"math"
	"slices"
)

// MultiDensity is an ordered group of independent densities rolled together.
type MultiDensity struct {
	parts []Density
	total Density
}

// NewMulti groups parts into a MultiDensity.
func NewMulti(parts ...Density) (MultiDensity, error) {
	if len(parts) == 0 {
		return MultiDensity{}, ErrEmptyMultiDensity
	}
	total := parts[0]
	for _, p := range parts[1:] {
		total = total.Add(p)
	}
	return MultiDensity{parts: slices.Clone(parts), total: total}, nil
}

// AsMultiDensity returns n independent copies of d.
func (d Density) AsMultiDensity(n int) (MultiDensity, error) {
	if n < 1 {
		return MultiDensity{}, ErrEmptyMultiDensity
	}
	parts := make([]Density, n)
	for i := range parts {
		parts[i] = d
	}
	return NewMulti(parts...)
}

// Len returns the number of grouped densities.
func (m MultiDensity) Len() int {
	return len(m.parts)
}

// Parts returns the grouped densities in order.
func (m MultiDensity) Parts() []Density {
	return slices.Clone(m.parts)
}

// Total returns the distribution of the sum of all parts.
func (m MultiDensity) Total() Density {
	return m.total
}

// MultiOp reduces one draw of every part with f. Every combination of
// outcomes is visited, weighted by the product of its masses, so the cost is
// the product of the support sizes.
//
// The slice passed to f is reused between calls and must not be retained.
func (m MultiDensity) MultiOp(f func(values []int) int) Density {
	out := make(map[int]float64)
	if len(m.parts) == 0 {
		return fromMap(out, false)
	}
	for _, p := range m.parts {
		if len(p.keys) == 0 {
			return fromMap(out, false)
		}
	}

	idx := make([]int, len(m.parts))
	values := make([]int, len(m.parts))
	scratch := make([]int, len(m.parts))
	for {
		weight := 1.0
		for i, p := range m.parts {
			values[i] = p.keys[idx[i]]
			weight *= p.probs[idx[i]]
		}
		copy(scratch, values)
		out[f(scratch)] += weight

		// Advance the odometer, last part fastest.
		i := len(idx) - 1
		for ; i >= 0; i-- {
			idx[i]++
			if idx[i] < len(m.parts[i].keys) {
				break
			}
			idx[i] = 0
		}
		if i < 0 {
			break
		}
	}
	return fromMap(out, false)
}

// KeepHighest returns the sum of the n largest results.
func (m MultiDensity) KeepHighest(n int) (Density, error) {
	if n < 0 || n > len(m.parts) {
		return Density{}, ErrInvalidCount
	}
	return m.MultiOp(func(values []int) int {
		slices.Sort(values)
		return sumInts(values[len(values)-n:])
	}), nil
}

// KeepLowest returns the sum of the n smallest results.
func (m MultiDensity) KeepLowest(n int) (Density, error) {
	if n < 0 || n > len(m.parts) {
		return Density{}, ErrInvalidCount
	}
	return m.MultiOp(func(values []int) int {
		slices.Sort(values)
		return sumInts(values[:n])
	}), nil
}

// DropHighest returns the sum of all results except the n largest.
func (m MultiDensity) DropHighest(n int) (Density, error) {
	if n < 0 || n > len(m.parts) {
		return Density{}, ErrInvalidCount
	}
	return m.KeepLowest(len(m.parts) - n)
}

// DropLowest returns the sum of all results except the n smallest.
func (m MultiDensity) DropLowest(n int) (Density, error) {
	if n < 0 || n > len(m.parts) {
		return Density{}, ErrInvalidCount
	}
	return m.KeepHighest(len(m.parts) - n)
}

// Combine mixes the parts: part i is chosen with probability weights[i].
func (m MultiDensity) Combine(weights []float64) (Density, error) {
	if len(weights) != len(m.parts) {
		return Density{}, ErrInvalidWeights
	}
	total := 0.0
	for _, w := range weights {
		if w < 0 || math.IsNaN(w) {
			return Density{}, ErrInvalidWeights
		}
		total += w
	}
	if math.Abs(1-total) >= Tolerance {
		return Density{}, ErrInvalidWeights
	}

	out := make(map[int]float64)
	for i, p := range m.parts {
		for j, k := range p.keys {
			out[k] += weights[i] * p.probs[j]
		}
	}
	return fromMap(out, false), nil
}

// KeepOneAtRandom picks one part uniformly at random and keeps its result.
func (m MultiDensity) KeepOneAtRandom() (Density, error) {
	if len(m.parts) == 0 {
		return Density{}, ErrEmptyMultiDensity
	}
	weights := make([]float64, len(m.parts))
	for i := range weights {
		weights[i] = 1 / float64(len(m.parts))
	}
	return m.Combine(weights)
}

func sumInts(values []int) int {
	total := 0
	for _, v := range values {
		total += v
	}
	return total
}
