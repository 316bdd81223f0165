// Package dicedensity evaluates dice expressions from the command line.
package dicedensity

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/louisbranch/dicedensity/internal/core/dice"
	platformcmd "github.com/louisbranch/dicedensity/internal/platform/cmd"
	"github.com/louisbranch/dicedensity/internal/random"
	"github.com/louisbranch/dicedensity/internal/report"
	"golang.org/x/text/language"
)

const help = `Syntax: dicedensity [flags] <die expression>

Supported density operators (resulting in a density): +, -, *, abs()
Supported comparison operators (resulting in a probability): <, >, <=, >=, ==, !=
Syntax for densities: d<number> (normal die), ad<number> (advantage die), dd<number> (disadvantage die), <number> (constant density)
Remark: 3*d20 corresponds to one d20 whose result is multiplied by 3, m3d20 corresponds to d20+d20+d20

Example: d20 + d6, d20 + d6 == 7, ad20-d6
`

// Config holds dicedensity command configuration.
type Config struct {
	Expr    string
	Plot    bool   `env:"PLOT"`
	Samples int    `env:"SAMPLES"`
	Seed    int64  `env:"SEED"`
	Lang    string `env:"LANG" envDefault:"en"`
	Width   int    `env:"PLOT_WIDTH" envDefault:"70"`
}

// Usage writes the expression syntax summary.
func Usage(w io.Writer) {
	fmt.Fprint(w, help)
}

// ParseConfig parses environment and flags into a Config. Remaining arguments
// are joined into the expression.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := platformcmd.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	fs.BoolVar(&cfg.Plot, "plot", cfg.Plot, "draw a bar per outcome")
	fs.IntVar(&cfg.Samples, "samples", cfg.Samples, "also roll the expression this many times")
	fs.Int64Var(&cfg.Seed, "seed", cfg.Seed, "seed for -samples, random when 0")
	fs.StringVar(&cfg.Lang, "lang", cfg.Lang, "language tag for number formatting")
	fs.IntVar(&cfg.Width, "width", cfg.Width, "bar length of the most likely outcome")
	fs.Usage = func() {
		Usage(fs.Output())
		fs.PrintDefaults()
	}
	if err := platformcmd.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	cfg.Expr = strings.Join(fs.Args(), "")
	return cfg, nil
}

// Run evaluates the configured expression and writes a density table or a
// probability to out.
func Run(ctx context.Context, cfg Config, out io.Writer, errOut io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	if errOut == nil {
		errOut = io.Discard
	}
	if strings.TrimSpace(cfg.Expr) == "" {
		Usage(out)
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	opts, err := reportOptions(cfg)
	if err != nil {
		return err
	}
	result, err := dice.Parse(cfg.Expr)
	if err != nil {
		return err
	}
	if result.Comparison {
		return report.Probability(out, result.Probability, opts)
	}

	if err := report.DensityTable(out, result.Density, opts); err != nil {
		return err
	}
	if cfg.Plot {
		if _, err := fmt.Fprintln(out); err != nil {
			return err
		}
		if err := report.DensityPlot(out, result.Density, opts); err != nil {
			return err
		}
	}
	if cfg.Samples > 0 {
		return writeSamples(out, errOut, result, cfg)
	}
	return nil
}

func writeSamples(out, errOut io.Writer, result dice.Result, cfg Config) error {
	seed := cfg.Seed
	if seed == 0 {
		fresh, err := random.NewSeed()
		if err != nil {
			return err
		}
		seed = fresh
	}
	logger := log.New(errOut, "", 0)
	logger.Printf("sampling %d roll(s) with seed %d", cfg.Samples, seed)

	sample, err := dice.SampleWithRng(random.New(seed), result.Density, cfg.Samples)
	if err != nil {
		return err
	}
	rolls := make([]string, len(sample.Values))
	for i, v := range sample.Values {
		rolls[i] = fmt.Sprint(v)
	}
	_, err = fmt.Fprintf(out, "\nRolls: %s (total %d)\n", strings.Join(rolls, " "), sample.Total)
	return err
}

func reportOptions(cfg Config) (report.Options, error) {
	opts := report.Options{Width: cfg.Width}
	if lang := strings.TrimSpace(cfg.Lang); lang != "" {
		tag, err := language.Parse(lang)
		if err != nil {
			return report.Options{}, fmt.Errorf("parse lang %q: %w", lang, err)
		}
		opts.Language = tag
	}
	return opts, nil
}
