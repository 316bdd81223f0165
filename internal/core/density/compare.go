package density

// Prob returns the probability that cond holds for independent draws of d
// and other.
func (d Density) Prob(other Density, cond func(a, b int) bool) float64 {
	sum := 0.0
	for i, a := range d.keys {
		for j, b := range other.keys {
			if cond(a, b) {
				sum += d.probs[i] * other.probs[j]
			}
		}
	}
	return sum
}

// Eq returns P(d == other).
func (d Density) Eq(other Density) float64 {
	return d.Prob(other, func(a, b int) bool { return a == b })
}

// Ne returns P(d != other).
func (d Density) Ne(other Density) float64 {
	return d.Prob(other, func(a, b int) bool { return a != b })
}

// Lt returns P(d < other).
func (d Density) Lt(other Density) float64 {
	return d.Prob(other, func(a, b int) bool { return a < b })
}

// Le returns P(d <= other).
func (d Density) Le(other Density) float64 {
	return d.Prob(other, func(a, b int) bool { return a <= b })
}

// Gt returns P(d > other).
func (d Density) Gt(other Density) float64 {
	return d.Prob(other, func(a, b int) bool { return a > b })
}

// Ge returns P(d >= other).
func (d Density) Ge(other Density) float64 {
	return d.Prob(other, func(a, b int) bool { return a >= b })
}

// ProbWhere returns the mass of outcomes satisfying pred.
func (d Density) ProbWhere(pred func(k int) bool) float64 {
	sum := 0.0
	for i, k := range d.keys {
		if pred(k) {
			sum += d.probs[i]
		}
	}
	return sum
}

// CDF returns P(d <= x).
func (d Density) CDF(x int) float64 {
	return d.ProbWhere(func(k int) bool { return k <= x })
}

// EqConst returns P(d == c).
func (d Density) EqConst(c int) float64 {
	return d.ProbWhere(func(k int) bool { return k == c })
}

// NeConst returns P(d != c).
func (d Density) NeConst(c int) float64 {
	return d.ProbWhere(func(k int) bool { return k != c })
}

// LtConst returns P(d < c).
func (d Density) LtConst(c int) float64 {
	return d.ProbWhere(func(k int) bool { return k < c })
}

// LeConst returns P(d <= c).
func (d Density) LeConst(c int) float64 {
	return d.CDF(c)
}

// GtConst returns P(d > c).
func (d Density) GtConst(c int) float64 {
	return d.ProbWhere(func(k int) bool { return k > c })
}

// GeConst returns P(d >= c).
func (d Density) GeConst(c int) float64 {
	return d.ProbWhere(func(k int) bool { return k >= c })
}
