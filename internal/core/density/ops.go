package density

// BinOp combines d and other as independent draws: every pair of outcomes
// (a, b) contributes the product of their masses to f(a, b).
func (d Density) BinOp(other Density, f func(a, b int) int) Density {
	out := make(map[int]float64, len(d.keys)*len(other.keys))
	for i, a := range d.keys {
		pa := d.probs[i]
		for j, b := range other.keys {
			out[f(a, b)] += pa * other.probs[j]
		}
	}
	return fromMap(out, false)
}

// Add returns the distribution of the sum of independent draws.
func (d Density) Add(other Density) Density {
	return d.BinOp(other, func(a, b int) int { return a + b })
}

// Sub returns the distribution of d minus other.
func (d Density) Sub(other Density) Density {
	return d.Add(other.Neg())
}

// Mul returns the distribution of the product of independent draws.
func (d Density) Mul(other Density) Density {
	return d.BinOp(other, func(a, b int) int { return a * b })
}

// Max returns the distribution of the larger of independent draws.
func (d Density) Max(other Density) Density {
	return d.BinOp(other, func(a, b int) int { return max(a, b) })
}

// Min returns the distribution of the smaller of independent draws.
func (d Density) Min(other Density) Density {
	return d.BinOp(other, func(a, b int) int { return min(a, b) })
}

// WithAdvantage returns the larger of two independent draws of d.
func (d Density) WithAdvantage() Density {
	return d.Max(d)
}

// WithDisadvantage returns the smaller of two independent draws of d.
func (d Density) WithDisadvantage() Density {
	return d.Min(d)
}

// Op remaps every outcome through f. Outcomes mapping to the same result
// have their masses summed.
func (d Density) Op(f func(k int) int) Density {
	out := make(map[int]float64, len(d.keys))
	for i, k := range d.keys {
		out[f(k)] += d.probs[i]
	}
	return fromMap(out, false)
}

// Neg negates every outcome.
func (d Density) Neg() Density {
	return d.Op(func(k int) int { return -k })
}

// Abs replaces every outcome with its absolute value.
func (d Density) Abs() Density {
	return d.Op(func(k int) int {
		if k < 0 {
			return -k
		}
		return k
	})
}

// Shift adds c to every outcome.
func (d Density) Shift(c int) Density {
	return d.Op(func(k int) int { return k + c })
}

// ClampMin raises every outcome below floor to floor.
func (d Density) ClampMin(floor int) Density {
	return d.Op(func(k int) int { return max(k, floor) })
}

// ArithMult returns the sum of n independent draws of d. ArithMult(0) is Zero.
func (d Density) ArithMult(n int) (Density, error) {
	if n < 0 {
		return Density{}, ErrNegativeCount
	}
	if n == 0 {
		return Zero(), nil
	}
	res := d
	for i := 1; i < n; i++ {
		res = res.Add(d)
	}
	return res, nil
}

// ArithMultDensity repeats d a random number of times given by count and
// returns the resulting mixture.
func (d Density) ArithMultDensity(count Density) (Density, error) {
	if len(count.keys) == 0 {
		return Density{}, ErrEmptyDensity
	}
	if count.keys[0] < 0 {
		return Density{}, ErrNegativeCount
	}

	out := make(map[int]float64)
	current := Zero()
	repeats := 0
	for i, n := range count.keys {
		for repeats < n {
			current = current.Add(d)
			repeats++
		}
		pn := count.probs[i]
		for j, k := range current.keys {
			out[k] += pn * current.probs[j]
		}
	}
	return fromMap(out, false), nil
}
