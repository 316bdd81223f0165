package density

import (
	"fmt"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"
)

// Tolerance is the allowed deviation of the total mass from 1.0.
const Tolerance = 1e-9

// Density is a discrete probability distribution over integer outcomes.
//
// The zero value has no outcomes and is not valid.
type Density struct {
	keys  []int
	probs []float64
	miss  bool
}

// New builds a Density from a result-to-mass mapping. Entries with zero mass
// are dropped; the input map is copied.
func New(masses map[int]float64) Density {
	return fromMap(masses, false)
}

// Constant returns the Density with all mass on c.
func Constant(c int) Density {
	return Density{keys: []int{c}, probs: []float64{1}}
}

// Zero returns the "no effect" Density: all mass on 0, flagged so that a
// missed attack can be told apart from a hit that happens to deal 0.
func Zero() Density {
	return Density{keys: []int{0}, probs: []float64{1}, miss: true}
}

// NewDie returns the uniform Density on 1..sides.
func NewDie(sides int) (Density, error) {
	if sides < 1 {
		return Density{}, ErrInvalidDie
	}
	keys := make([]int, sides)
	probs := make([]float64, sides)
	for i := range keys {
		keys[i] = i + 1
		probs[i] = 1 / float64(sides)
	}
	return Density{keys: keys, probs: probs}, nil
}

// Die is like NewDie but panics on an invalid side count. It is meant for
// literal dice in code, such as Die(20).
func Die(sides int) Density {
	d, err := NewDie(sides)
	if err != nil {
		panic(fmt.Sprintf("density: Die(%d): %v", sides, err))
	}
	return d
}

// AdvantageDie returns the better of two rolls of Die(sides).
func AdvantageDie(sides int) Density {
	return Die(sides).WithAdvantage()
}

// DisadvantageDie returns the worse of two rolls of Die(sides).
func DisadvantageDie(sides int) Density {
	return Die(sides).WithDisadvantage()
}

// From lifts v into a Density. Densities are returned unchanged and integral
// numbers become Constant densities.
func From(v any) (Density, error) {
	switch value := v.(type) {
	case Density:
		return value, nil
	case *Density:
		if value == nil {
			return Density{}, ErrInvalidOperand
		}
		return *value, nil
	case int:
		return Constant(value), nil
	case int32:
		return Constant(int(value)), nil
	case int64:
		return Constant(int(value)), nil
	case float64:
		if value != math.Trunc(value) || math.IsInf(value, 0) {
			return Density{}, fmt.Errorf("%w: %v is not integral", ErrInvalidOperand, value)
		}
		return Constant(int(value)), nil
	default:
		return Density{}, fmt.Errorf("%w: got %T", ErrInvalidOperand, v)
	}
}

func fromMap(masses map[int]float64, miss bool) Density {
	keys := slices.Sorted(maps.Keys(masses))
	d := Density{
		keys:  make([]int, 0, len(keys)),
		probs: make([]float64, 0, len(keys)),
		miss:  miss,
	}
	for _, k := range keys {
		p := masses[k]
		if p == 0 {
			continue
		}
		d.keys = append(d.keys, k)
		d.probs = append(d.probs, p)
	}
	return d
}

// IsMiss reports whether d is the Zero sentinel.
func (d Density) IsMiss() bool {
	return d.miss
}

// IsValid reports whether all masses are non-negative and sum to 1.0 within
// Tolerance.
func (d Density) IsValid() bool {
	total := 0.0
	for _, p := range d.probs {
		if p < 0 || math.IsNaN(p) {
			return false
		}
		total += p
	}
	return math.Abs(1-total) < Tolerance
}

// Len returns the number of outcomes with non-zero mass.
func (d Density) Len() int {
	return len(d.keys)
}

// Keys returns the outcomes in ascending order.
func (d Density) Keys() []int {
	return slices.Clone(d.keys)
}

// Values returns the masses in the order of Keys.
func (d Density) Values() []float64 {
	return slices.Clone(d.probs)
}

// Mass returns the probability of outcome k.
func (d Density) Mass(k int) float64 {
	i, ok := slices.BinarySearch(d.keys, k)
	if !ok {
		return 0
	}
	return d.probs[i]
}

// Map returns a copy of the outcome-to-mass mapping.
func (d Density) Map() map[int]float64 {
	out := make(map[int]float64, len(d.keys))
	for i, k := range d.keys {
		out[k] = d.probs[i]
	}
	return out
}

// Lowest returns the smallest outcome.
func (d Density) Lowest() (int, error) {
	if len(d.keys) == 0 {
		return 0, ErrEmptyDensity
	}
	return d.keys[0], nil
}

// Highest returns the largest outcome.
func (d Density) Highest() (int, error) {
	if len(d.keys) == 0 {
		return 0, ErrEmptyDensity
	}
	return d.keys[len(d.keys)-1], nil
}

// Key returns a canonical encoding of d. Two densities share a Key exactly
// when they have the same outcomes, the same masses and the same miss flag.
func (d Density) Key() string {
	var b strings.Builder
	if d.miss {
		b.WriteString("miss|")
	}
	for i, k := range d.keys {
		b.WriteString(strconv.Itoa(k))
		b.WriteByte(':')
		b.WriteString(strconv.FormatFloat(d.probs[i], 'g', -1, 64))
		b.WriteByte(';')
	}
	return b.String()
}

// Equal reports whether d and other are structurally identical.
func (d Density) Equal(other Density) bool {
	return d.miss == other.miss &&
		slices.Equal(d.keys, other.keys) &&
		slices.Equal(d.probs, other.probs)
}

// ApproxEqual reports whether both densities assign the same mass to every
// outcome within tol. The miss flag is ignored.
func (d Density) ApproxEqual(other Density, tol float64) bool {
	for i, k := range d.keys {
		if math.Abs(d.probs[i]-other.Mass(k)) > tol {
			return false
		}
	}
	for i, k := range other.keys {
		if math.Abs(other.probs[i]-d.Mass(k)) > tol {
			return false
		}
	}
	return true
}

// String renders the expectation, standard deviation and the outcome table.
func (d Density) String() string {
	var b strings.Builder
	if !d.IsValid() {
		b.WriteString("Invalid Density!\n")
	}
	fmt.Fprintf(&b, "%12s\t%12.5f\n", "Expected", d.Expected())
	fmt.Fprintf(&b, "%12s\t%12.5f\n", "Stdev", d.Stdev())
	b.WriteString("\n")
	fmt.Fprintf(&b, "%12s\t%12s\n", "Result", "Probability")
	for i, k := range d.keys {
		if d.probs[i] <= 0 {
			continue
		}
		fmt.Fprintf(&b, "%12d\t%11.4f%%\n", k, d.probs[i]*100)
	}
	return b.String()
}
