// Package report renders densities, damage tables and fight outcomes as
// plain text columns.
package report

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/louisbranch/dicedensity/internal/combat"
	"github.com/louisbranch/dicedensity/internal/core/density"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// DefaultWidth is the bar length of the largest plotted value.
const DefaultWidth = 70

const column = "%12s"

// Options controls rendering.
type Options struct {
	// Width is the bar length of the largest value. Zero means DefaultWidth.
	Width int
	// Language selects number formatting. The zero tag means English.
	Language language.Tag
}

func (o Options) width() int {
	if o.Width <= 0 {
		return DefaultWidth
	}
	return o.Width
}

func (o Options) printer() *message.Printer {
	if o.Language == language.Und {
		return message.NewPrinter(language.English)
	}
	return message.NewPrinter(o.Language)
}

// Percent formats p with the given number of fraction digits.
func (o Options) Percent(p float64, digits int) string {
	return o.printer().Sprint(number.Percent(p, number.MinFractionDigits(digits), number.MaxFractionDigits(digits)))
}

// Decimal formats v with the given number of fraction digits.
func (o Options) Decimal(v float64, digits int) string {
	return o.printer().Sprint(number.Decimal(v, number.MinFractionDigits(digits), number.MaxFractionDigits(digits), number.NoSeparator()))
}

func row(w io.Writer, cells ...string) error {
	padded := make([]string, len(cells))
	for i, cell := range cells {
		padded[i] = fmt.Sprintf(column, cell)
	}
	_, err := fmt.Fprintln(w, strings.TrimRight(strings.Join(padded, "\t"), " "))
	return err
}

// DensityTable writes the expectation, standard deviation and probability of
// every outcome with positive mass.
func DensityTable(w io.Writer, d density.Density, opts Options) error {
	if !d.IsValid() {
		if _, err := fmt.Fprintln(w, "Invalid Density!"); err != nil {
			return err
		}
	}
	if err := row(w, "Expected", opts.Decimal(d.Expected(), 5)); err != nil {
		return err
	}
	if err := row(w, "Stdev", opts.Decimal(d.Stdev(), 5)); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}
	if err := row(w, "Result", "Probability"); err != nil {
		return err
	}
	probs := d.Values()
	for i, k := range d.Keys() {
		p := probs[i]
		if p <= 0 {
			continue
		}
		if err := row(w, fmt.Sprint(k), opts.Percent(p, 4)); err != nil {
			return err
		}
	}
	return nil
}

// Probability writes a single probability, as produced by a comparison.
func Probability(w io.Writer, p float64, opts Options) error {
	_, err := fmt.Fprintln(w, opts.Percent(p, 4))
	return err
}

// Plot writes one row per input with f(input) and a bar scaled so that the
// largest absolute value spans opts.Width.
func Plot(w io.Writer, inputs []int, f func(x int) float64, opts Options) error {
	values := make([]float64, len(inputs))
	peak := 0.0
	for i, x := range inputs {
		values[i] = f(x)
		peak = math.Max(peak, math.Abs(values[i]))
	}
	for i, x := range inputs {
		if err := row(w, fmt.Sprint(x), opts.Decimal(values[i], 5), bar(values[i], peak, opts.width())); err != nil {
			return err
		}
	}
	return nil
}

// DensityPlot draws a bar per outcome proportional to its probability.
func DensityPlot(w io.Writer, d density.Density, opts Options) error {
	keys := d.Keys()
	probs := d.Values()
	peak := 0.0
	for _, p := range probs {
		peak = math.Max(peak, p)
	}
	for i, k := range keys {
		if _, err := fmt.Fprintf(w, column+"\t%s\n", fmt.Sprint(k), bar(probs[i], peak, opts.width())); err != nil {
			return err
		}
	}
	return nil
}

func bar(value, peak float64, width int) string {
	if peak <= 0 {
		return ""
	}
	return strings.Repeat("|", int(math.Round(math.Abs(value)*float64(width)/peak)))
}

// DamageTable writes the attacker's expected damage and hit chance against
// defender, then the expected damage of each attack roll.
func DamageTable(w io.Writer, attacker, defender combat.Combatant, opts Options) error {
	expected, err := attacker.ExpectedDamage(defender)
	if err != nil {
		return err
	}
	hit, err := attacker.ChanceToHit(defender)
	if err != nil {
		return err
	}
	byRoll, err := attacker.DamageByRoll(defender)
	if err != nil {
		return err
	}

	if err := row(w, "Expected", opts.Decimal(expected, 5)); err != nil {
		return err
	}
	if err := row(w, "Hit chance", opts.Percent(hit, 5)); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, column+"\t"+column+"\t%s\n", "Result", "Exp. damage", "Plot"); err != nil {
		return err
	}

	rolls := make([]int, len(byRoll))
	damage := make(map[int]float64, len(byRoll))
	for i, r := range byRoll {
		rolls[i] = r.Roll
		damage[r.Roll] = r.Damage.Expected()
	}
	return Plot(w, rolls, func(roll int) float64 { return damage[roll] }, opts)
}

// Outcome writes the result of a win probability run.
func Outcome(w io.Writer, attacker, defender string, outcome combat.Outcome, opts Options) error {
	lines := []struct {
		label string
		value string
	}{
		{fmt.Sprintf("%s wins", attacker), opts.Percent(outcome.Probability, 2)},
		{fmt.Sprintf("%s wins", defender), opts.Percent(1-outcome.Probability, 2)},
		{"Decided", opts.Percent(outcome.AttackerWins+outcome.DefenderWins, 4)},
		{"Undecided", opts.Percent(outcome.Undecided, 4)},
		{"Rounds", fmt.Sprint(outcome.Rounds)},
		{"States", fmt.Sprint(outcome.States)},
	}
	for _, line := range lines {
		if _, err := fmt.Fprintf(w, "%-24s %12s\n", line.label, line.value); err != nil {
			return err
		}
	}
	return nil
}
