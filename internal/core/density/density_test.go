package density

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"
)

const testTolerance = 1e-9

func approx(a, b float64) bool {
	return math.Abs(a-b) <= testTolerance
}

func TestDieExpectedValue(t *testing.T) {
	for n := 1; n <= 20; n++ {
		d := Die(n)
		want := float64(n+1) / 2
		if got := d.Expected(); !approx(got, want) {
			t.Fatalf("Die(%d).Expected() = %v, want %v", n, got, want)
		}
		if !d.IsValid() {
			t.Fatalf("Die(%d) is not valid", n)
		}
	}
}

func TestDieVariance(t *testing.T) {
	if got := Die(6).Variance(); !approx(got, 35.0/12) {
		t.Fatalf("Die(6).Variance() = %v, want %v", got, 35.0/12)
	}
	if got := Die(6).Stdev(); !approx(got, math.Sqrt(35.0/12)) {
		t.Fatalf("Die(6).Stdev() = %v", got)
	}
}

func TestNewDieRejectsInvalidSides(t *testing.T) {
	for _, sides := range []int{0, -1} {
		if _, err := NewDie(sides); !errors.Is(err, ErrInvalidDie) {
			t.Fatalf("NewDie(%d) error = %v, want %v", sides, err, ErrInvalidDie)
		}
	}
}

func TestNewDropsZeroMassAndCopies(t *testing.T) {
	masses := map[int]float64{1: 0.5, 2: 0, 3: 0.5}
	d := New(masses)
	masses[1] = 1

	if d.Len() != 2 {
		t.Fatalf("expected 2 outcomes, got %d", d.Len())
	}
	if d.Mass(1) != 0.5 {
		t.Fatalf("expected mass copied at construction, got %v", d.Mass(1))
	}
	if d.Mass(2) != 0 {
		t.Fatalf("expected zero mass to be dropped")
	}
}

func TestIsValid(t *testing.T) {
	tests := []struct {
		name string
		d    Density
		want bool
	}{
		{"die", Die(6), true},
		{"constant", Constant(4), true},
		{"short", New(map[int]float64{1: 0.5, 2: 0.4}), false},
		{"negative", New(map[int]float64{1: 1.5, 2: -0.5}), false},
		{"empty", Density{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.d.IsValid(); got != tt.want {
				t.Fatalf("IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCompositionPreservesValidity(t *testing.T) {
	d6, d8 := Die(6), Die(8)
	results := map[string]Density{
		"add":  d6.Add(d8),
		"sub":  d6.Sub(d8),
		"mul":  d6.Mul(d8),
		"max":  d6.Max(d8),
		"neg":  d6.Neg(),
		"abs":  d6.Sub(d8).Abs(),
		"adv":  AdvantageDie(20),
		"dis":  DisadvantageDie(20),
		"clmp": d6.Shift(-3).ClampMin(0),
	}
	for name, d := range results {
		if !d.IsValid() {
			t.Fatalf("%s: result is not valid", name)
		}
	}
}

func TestAddIsCommutativeAndAssociative(t *testing.T) {
	d1, d2, d3 := Die(4), Die(6), AdvantageDie(8)

	if !d1.Add(d2).ApproxEqual(d2.Add(d1), testTolerance) {
		t.Fatal("addition is not commutative")
	}
	left := d1.Add(d2).Add(d3)
	right := d1.Add(d2.Add(d3))
	if !left.ApproxEqual(right, testTolerance) {
		t.Fatal("addition is not associative")
	}
}

func TestSubMatchesAddNegate(t *testing.T) {
	d20, d6 := Die(20), Die(6)
	if !d20.Sub(d6).Equal(d20.Add(d6.Neg())) {
		t.Fatal("Sub should equal Add of the negation")
	}
}

func TestTwoD6Distribution(t *testing.T) {
	sum := Die(6).Add(Die(6))
	if !approx(sum.Mass(7), 6.0/36) {
		t.Fatalf("P(7) = %v, want %v", sum.Mass(7), 6.0/36)
	}
	if !approx(sum.Mass(2), 1.0/36) {
		t.Fatalf("P(2) = %v, want %v", sum.Mass(2), 1.0/36)
	}
	if lo, _ := sum.Lowest(); lo != 2 {
		t.Fatalf("lowest = %d, want 2", lo)
	}
	if hi, _ := sum.Highest(); hi != 12 {
		t.Fatalf("highest = %d, want 12", hi)
	}
}

func TestOpMergesCollidingOutcomes(t *testing.T) {
	d := New(map[int]float64{-2: 0.25, 2: 0.25, 3: 0.5})
	abs := d.Abs()
	if abs.Len() != 2 {
		t.Fatalf("expected 2 outcomes, got %d", abs.Len())
	}
	if !approx(abs.Mass(2), 0.5) {
		t.Fatalf("P(2) = %v, want 0.5", abs.Mass(2))
	}
}

func TestArithMult(t *testing.T) {
	d := AdvantageDie(6)

	zero, err := d.ArithMult(0)
	if err != nil {
		t.Fatalf("ArithMult(0): %v", err)
	}
	if !zero.IsMiss() || zero.Mass(0) != 1 {
		t.Fatalf("ArithMult(0) = %v, want Zero", zero.Map())
	}

	three, err := d.ArithMult(3)
	if err != nil {
		t.Fatalf("ArithMult(3): %v", err)
	}
	if !three.ApproxEqual(d.Add(d).Add(d), testTolerance) {
		t.Fatal("ArithMult(3) should equal d+d+d")
	}

	if _, err := d.ArithMult(-1); !errors.Is(err, ErrNegativeCount) {
		t.Fatalf("ArithMult(-1) error = %v, want %v", err, ErrNegativeCount)
	}
}

func TestArithMultDensity(t *testing.T) {
	d6 := Die(6)
	count := New(map[int]float64{1: 0.5, 2: 0.5})
	got, err := d6.ArithMultDensity(count)
	if err != nil {
		t.Fatalf("ArithMultDensity: %v", err)
	}
	if !got.IsValid() {
		t.Fatal("mixture is not valid")
	}
	if want := 0.5*3.5 + 0.5*7; !approx(got.Expected(), want) {
		t.Fatalf("Expected() = %v, want %v", got.Expected(), want)
	}

	withZero, err := d6.ArithMultDensity(New(map[int]float64{0: 0.5, 1: 0.5}))
	if err != nil {
		t.Fatalf("ArithMultDensity with zero count: %v", err)
	}
	if !approx(withZero.Mass(0), 0.5) {
		t.Fatalf("P(0) = %v, want 0.5", withZero.Mass(0))
	}

	if _, err := d6.ArithMultDensity(New(map[int]float64{-1: 1})); !errors.Is(err, ErrNegativeCount) {
		t.Fatalf("expected %v, got %v", ErrNegativeCount, err)
	}
}

func TestAdvantageOrdering(t *testing.T) {
	for n := 2; n <= 20; n++ {
		adv := AdvantageDie(n).Expected()
		plain := Die(n).Expected()
		dis := DisadvantageDie(n).Expected()
		if !(adv > plain && plain > dis) {
			t.Fatalf("n=%d: expected %v > %v > %v", n, adv, plain, dis)
		}
	}
}

func TestComparisons(t *testing.T) {
	d6 := Die(6)
	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"eq", d6.Eq(d6), 6.0 / 36},
		{"ne", d6.Ne(d6), 30.0 / 36},
		{"lt", d6.Lt(d6), 15.0 / 36},
		{"le", d6.Le(d6), 21.0 / 36},
		{"gt", d6.Gt(d6), 15.0 / 36},
		{"ge", d6.Ge(d6), 21.0 / 36},
		{"ge constant", d6.Ge(Constant(5)), 2.0 / 6},
		{"cdf", d6.CDF(2), 2.0 / 6},
		{"eq const", d6.EqConst(3), 1.0 / 6},
		{"ne const", d6.NeConst(3), 5.0 / 6},
		{"lt const", d6.LtConst(3), 2.0 / 6},
		{"le const", d6.LeConst(3), 3.0 / 6},
		{"gt const", d6.GtConst(3), 3.0 / 6},
		{"ge const", d6.GeConst(3), 4.0 / 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !approx(tt.got, tt.want) {
				t.Fatalf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
}

func TestConditional(t *testing.T) {
	d := Die(6).Add(Die(6))

	same, err := d.Conditional(func(int) bool { return true })
	if err != nil {
		t.Fatalf("Conditional: %v", err)
	}
	if !same.Equal(d) {
		t.Fatal("conditioning on a certain event should not change the density")
	}

	high, err := Die(6).Conditional(func(k int) bool { return k > 4 })
	if err != nil {
		t.Fatalf("Conditional: %v", err)
	}
	if !approx(high.Mass(5), 0.5) || !approx(high.Mass(6), 0.5) {
		t.Fatalf("unexpected conditional masses: %v", high.Map())
	}

	if _, err := Die(6).Conditional(func(k int) bool { return k > 6 }); !errors.Is(err, ErrZeroProbability) {
		t.Fatalf("expected %v, got %v", ErrZeroProbability, err)
	}
}

func TestZeroIsDistinctFromConstantZero(t *testing.T) {
	if !Zero().IsMiss() {
		t.Fatal("Zero should be the miss sentinel")
	}
	if Constant(0).IsMiss() {
		t.Fatal("Constant(0) must not be the miss sentinel")
	}
	if Zero().Expected() != 0 {
		t.Fatalf("Zero().Expected() = %v", Zero().Expected())
	}
	if Zero().Key() == Constant(0).Key() {
		t.Fatal("Zero and Constant(0) must not share a key")
	}
	if Zero().Equal(Constant(0)) {
		t.Fatal("Zero and Constant(0) must not be equal")
	}
}

func TestKeyIdentifiesStructure(t *testing.T) {
	a := Die(6).Shift(2)
	b := Die(6).Op(func(k int) int { return k + 2 })
	if a.Key() != b.Key() {
		t.Fatalf("equal densities have different keys: %q vs %q", a.Key(), b.Key())
	}
	if a.Key() == Die(6).Key() {
		t.Fatal("different densities share a key")
	}
}

func TestInverseCDF(t *testing.T) {
	d6 := Die(6)
	tests := []struct {
		p    float64
		want int
	}{
		{0, 1},
		{1.0 / 6, 1},
		{0.2, 2},
		{0.5, 3},
		{1, 6},
	}
	for _, tt := range tests {
		got, err := d6.InverseCDF(tt.p)
		if err != nil {
			t.Fatalf("InverseCDF(%v): %v", tt.p, err)
		}
		if got != tt.want {
			t.Fatalf("InverseCDF(%v) = %d, want %d", tt.p, got, tt.want)
		}
	}
	for _, p := range []float64{-0.1, 1.1, math.NaN()} {
		if _, err := d6.InverseCDF(p); !errors.Is(err, ErrProbabilityRange) {
			t.Fatalf("InverseCDF(%v) error = %v, want %v", p, err, ErrProbabilityRange)
		}
	}
}

func TestMedian(t *testing.T) {
	tests := []struct {
		name string
		d    Density
		want float64
	}{
		{"d6 plateau", Die(6), 3.5},
		{"d5", Die(5), 3},
		{"2d6", Die(6).Add(Die(6)), 7},
		{"constant", Constant(9), 9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.d.Median()
			if err != nil {
				t.Fatalf("Median: %v", err)
			}
			if !approx(got, tt.want) {
				t.Fatalf("Median() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRollIsDeterministicAndInSupport(t *testing.T) {
	d := Die(6).Add(Die(6))
	first := rand.New(rand.NewSource(7))
	second := rand.New(rand.NewSource(7))
	for i := 0; i < 100; i++ {
		a, err := d.Roll(first)
		if err != nil {
			t.Fatalf("Roll: %v", err)
		}
		b, _ := d.Roll(second)
		if a != b {
			t.Fatalf("same seed produced %d and %d", a, b)
		}
		if d.Mass(a) == 0 {
			t.Fatalf("rolled %d outside the support", a)
		}
	}
	if _, err := (Density{}).Roll(first); !errors.Is(err, ErrEmptyDensity) {
		t.Fatalf("expected %v, got %v", ErrEmptyDensity, err)
	}
}

func TestSummed(t *testing.T) {
	twoD6, err := Die(6).ArithMult(2)
	if err != nil {
		t.Fatalf("ArithMult: %v", err)
	}
	summed, err := twoD6.Summed(12)
	if err != nil {
		t.Fatalf("Summed: %v", err)
	}
	if !summed.IsValid() {
		t.Fatalf("summed density is not valid: %v", summed.Map())
	}
	for _, k := range summed.Keys() {
		if k < 0 {
			t.Fatalf("unexpected negative count %d", k)
		}
	}
	// A single 2d6 never exceeds 12.
	if summed.Mass(0) != 0 {
		t.Fatalf("P(0) = %v, want 0", summed.Mass(0))
	}

	d2, err := Constant(2).Summed(5)
	if err != nil {
		t.Fatalf("Summed: %v", err)
	}
	if !approx(d2.Mass(2), 1) {
		t.Fatalf("constant 2 with goal 5 should fit exactly 2 draws, got %v", d2.Map())
	}
}

func TestSummedRejectsInvalidInput(t *testing.T) {
	if _, err := Die(6).Shift(-1).Summed(10); !errors.Is(err, ErrNonPositiveSupport) {
		t.Fatalf("expected %v, got %v", ErrNonPositiveSupport, err)
	}
	if _, err := Die(6).Summed(-1); !errors.Is(err, ErrNegativeGoal) {
		t.Fatalf("expected %v, got %v", ErrNegativeGoal, err)
	}
}

func TestSummedContextStopsWhenDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Die(6).SummedContext(ctx, 20000); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected %v, got %v", context.Canceled, err)
	}

	got, err := Die(6).SummedContext(context.Background(), 12)
	if err != nil {
		t.Fatalf("SummedContext: %v", err)
	}
	want, err := Die(6).Summed(12)
	if err != nil {
		t.Fatalf("Summed: %v", err)
	}
	if !got.Equal(want) {
		t.Fatal("SummedContext with a live context should match Summed")
	}
}

func TestFrom(t *testing.T) {
	d6 := Die(6)
	tests := []struct {
		name    string
		in      any
		want    Density
		wantErr error
	}{
		{"density", d6, d6, nil},
		{"pointer", &d6, d6, nil},
		{"int", 3, Constant(3), nil},
		{"int64", int64(-2), Constant(-2), nil},
		{"integral float", 4.0, Constant(4), nil},
		{"fractional float", 1.5, Density{}, ErrInvalidOperand},
		{"string", "d6", Density{}, ErrInvalidOperand},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := From(tt.in)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("From(%v) error = %v, want %v", tt.in, err, tt.wantErr)
			}
			if tt.wantErr == nil && !got.Equal(tt.want) {
				t.Fatalf("From(%v) = %v, want %v", tt.in, got.Map(), tt.want.Map())
			}
		})
	}
}

func TestOperationsDoNotMutateInputs(t *testing.T) {
	d := Die(4)
	before := d.Key()
	_ = d.Add(d)
	_ = d.Op(func(k int) int { return k * 2 })
	_, _ = d.Conditional(func(k int) bool { return k > 2 })
	keys := d.Keys()
	keys[0] = 99
	if d.Key() != before {
		t.Fatal("density was mutated by an operation")
	}
}
