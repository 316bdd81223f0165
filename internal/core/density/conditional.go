package density

import "context"

// Conditional restricts d to the outcomes satisfying pred and renormalizes.
// It fails with ErrZeroProbability when no mass satisfies pred.
func (d Density) Conditional(pred func(k int) bool) (Density, error) {
	kept := make(map[int]float64, len(d.keys))
	total := 0.0
	for i, k := range d.keys {
		if pred(k) {
			kept[k] = d.probs[i]
			total += d.probs[i]
		}
	}
	if total <= 0 {
		return Density{}, ErrZeroProbability
	}
	for k := range kept {
		kept[k] /= total
	}
	return fromMap(kept, d.miss), nil
}

// Summed returns the distribution of how many independent draws of d can be
// added up before the running total exceeds goal. Outcome n has the mass of
// "the first n draws stay at or below goal and draw n+1 exceeds it".
//
// Every outcome of d must be strictly positive, which guarantees the running
// total passes goal after finitely many draws.
func (d Density) Summed(goal int) (Density, error) {
	return d.SummedContext(context.Background(), goal)
}

// SummedContext is Summed that stops with the context error when ctx ends
// between draws.
func (d Density) SummedContext(ctx context.Context, goal int) (Density, error) {
	if len(d.keys) == 0 {
		return Density{}, ErrEmptyDensity
	}
	if d.keys[0] <= 0 {
		return Density{}, ErrNonPositiveSupport
	}
	if goal < 0 {
		return Density{}, ErrNegativeGoal
	}

	// below holds the unnormalized running total restricted to "still <= goal";
	// its mass is the surviving probability after n draws.
	out := make(map[int]float64)
	below := map[int]float64{0: 1}
	for n := 0; len(below) > 0; n++ {
		if err := ctx.Err(); err != nil {
			return Density{}, err
		}
		next := make(map[int]float64, len(below))
		exceeded := 0.0
		for total, pt := range below {
			for i, k := range d.keys {
				mass := pt * d.probs[i]
				if total+k > goal {
					exceeded += mass
					continue
				}
				next[total+k] += mass
			}
		}
		if exceeded > 0 {
			out[n] = exceeded
		}
		below = next
	}
	return fromMap(out, false), nil
}
