// Package combat runs a fight between two combatants from the command line.
package combat

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/louisbranch/dicedensity/internal/bestiary"
	bestiarysqlite "github.com/louisbranch/dicedensity/internal/bestiary/sqlite"
	"github.com/louisbranch/dicedensity/internal/combat"
	"github.com/louisbranch/dicedensity/internal/combat/luarule"
	"github.com/louisbranch/dicedensity/internal/core/density"
	platformcmd "github.com/louisbranch/dicedensity/internal/platform/cmd"
	"github.com/louisbranch/dicedensity/internal/report"
	"golang.org/x/text/language"
)

// Config holds combat command configuration.
type Config struct {
	// Attacker and Defender are bestiary names, or paths to JSON profile
	// files when they end in ".json".
	Attacker       string
	Defender       string
	AttackerScript string
	DefenderScript string
	DBPath         string  `env:"BESTIARY_DB" envDefault:"data/bestiary.db"`
	Precise        bool    `env:"COMBAT_PRECISE" envDefault:"true"`
	DefenderFirst  float64 `env:"COMBAT_DEFENDER_FIRST"`
	MaxError       float64 `env:"COMBAT_MAX_ERROR" envDefault:"0.001"`
	MaxRounds      int     `env:"COMBAT_MAX_ROUNDS" envDefault:"1000"`
	// Rounds, when positive, adds the hit point densities after that many
	// rounds.
	Rounds  int    `env:"COMBAT_ROUNDS"`
	Verbose bool   `env:"COMBAT_VERBOSE"`
	Lang    string `env:"LANG" envDefault:"en"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := platformcmd.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.Attacker, "attacker", cfg.Attacker, "attacker bestiary name or JSON profile file")
	fs.StringVar(&cfg.Defender, "defender", cfg.Defender, "defender bestiary name or JSON profile file")
	fs.StringVar(&cfg.AttackerScript, "attacker-script", cfg.AttackerScript, "Lua damage rule for the attacker")
	fs.StringVar(&cfg.DefenderScript, "defender-script", cfg.DefenderScript, "Lua damage rule for the defender")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "bestiary database path")
	fs.BoolVar(&cfg.Precise, "precise", cfg.Precise, "branch on every damage value instead of expected damage")
	fs.Float64Var(&cfg.DefenderFirst, "defender-first", cfg.DefenderFirst, "probability that the defender strikes first")
	fs.Float64Var(&cfg.MaxError, "max-error", cfg.MaxError, "undecided mass at which the fight stops")
	fs.IntVar(&cfg.MaxRounds, "max-rounds", cfg.MaxRounds, "round limit")
	fs.IntVar(&cfg.Rounds, "rounds", cfg.Rounds, "print hit point densities after this many rounds")
	fs.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "log every round")
	fs.StringVar(&cfg.Lang, "lang", cfg.Lang, "language tag for number formatting")
	if err := platformcmd.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}

	if strings.TrimSpace(cfg.Attacker) == "" {
		return Config{}, errors.New("attacker is required")
	}
	if strings.TrimSpace(cfg.Defender) == "" {
		return Config{}, errors.New("defender is required")
	}
	return cfg, nil
}

// Run resolves both combatants and writes their damage tables and the fight
// outcome to out.
func Run(ctx context.Context, cfg Config, out io.Writer, errOut io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	if errOut == nil {
		errOut = io.Discard
	}
	logger := log.New(errOut, "", 0)

	opts := report.Options{}
	if lang := strings.TrimSpace(cfg.Lang); lang != "" {
		tag, err := language.Parse(lang)
		if err != nil {
			return fmt.Errorf("parse lang %q: %w", lang, err)
		}
		opts.Language = tag
	}

	loader := &profileLoader{dbPath: cfg.DBPath}
	defer loader.Close()

	attacker, err := loader.combatant(ctx, cfg.Attacker, cfg.AttackerScript)
	if err != nil {
		return fmt.Errorf("attacker: %w", err)
	}
	defender, err := loader.combatant(ctx, cfg.Defender, cfg.DefenderScript)
	if err != nil {
		return fmt.Errorf("defender: %w", err)
	}

	engine, err := combat.NewEngine(attacker, defender, combat.Config{
		Precise:       cfg.Precise,
		MaxError:      cfg.MaxError,
		MaxRounds:     cfg.MaxRounds,
		DefenderFirst: cfg.DefenderFirst,
		Verbose:       cfg.Verbose,
		Logger:        logger,
	})
	if err != nil {
		return err
	}

	for _, side := range []struct{ actor, target combat.Combatant }{
		{attacker, defender},
		{defender, attacker},
	} {
		if _, err := fmt.Fprintf(out, "%s against %s\n\n", side.actor.Name, side.target.Name); err != nil {
			return err
		}
		if err := report.DamageTable(out, side.actor, side.target, opts); err != nil {
			return err
		}
		if _, err := fmt.Fprintln(out); err != nil {
			return err
		}
	}

	outcome, err := engine.WinProbability(ctx)
	if err != nil {
		return err
	}
	if err := report.Outcome(out, attacker.Name, defender.Name, outcome, opts); err != nil {
		return err
	}

	if cfg.Rounds <= 0 {
		return nil
	}
	return writeHPDensities(out, engine, cfg.Rounds, opts)
}

func writeHPDensities(out io.Writer, engine *combat.Engine, rounds int, opts report.Options) error {
	attackerHP, err := engine.HPDensity(rounds)
	if err != nil {
		return err
	}
	defenderHP, err := engine.DefenderHPDensity(rounds)
	if err != nil {
		return err
	}
	for _, side := range []struct {
		name string
		hp   density.Density
	}{
		{engine.Attacker().Name, attackerHP},
		{engine.Defender().Name, defenderHP},
	} {
		if _, err := fmt.Fprintf(out, "\n%s hp after %d round(s)\n\n", side.name, rounds); err != nil {
			return err
		}
		if err := report.DensityTable(out, side.hp, opts); err != nil {
			return err
		}
	}
	return nil
}

// profileLoader resolves combatants from JSON files or the bestiary, opening
// the database on first use.
type profileLoader struct {
	dbPath string
	store  *bestiarysqlite.Store
}

func (l *profileLoader) combatant(ctx context.Context, ref, script string) (combat.Combatant, error) {
	profile, err := l.profile(ctx, strings.TrimSpace(ref))
	if err != nil {
		return combat.Combatant{}, err
	}
	c, err := profile.Combatant()
	if err != nil {
		return combat.Combatant{}, err
	}
	if script = strings.TrimSpace(script); script != "" {
		rule, err := luarule.LoadFile(script)
		if err != nil {
			return combat.Combatant{}, err
		}
		c.Stats.Rule = rule
	}
	return c, nil
}

func (l *profileLoader) profile(ctx context.Context, ref string) (bestiary.Profile, error) {
	if strings.EqualFold(filepath.Ext(ref), ".json") {
		return readProfile(ref)
	}
	if l.store == nil {
		store, err := bestiarysqlite.Open(ctx, l.dbPath)
		if err != nil {
			return bestiary.Profile{}, fmt.Errorf("open bestiary store: %w", err)
		}
		l.store = store
	}
	return l.store.GetProfile(ctx, ref)
}

func (l *profileLoader) Close() error {
	if l.store == nil {
		return nil
	}
	return l.store.Close()
}

func readProfile(path string) (bestiary.Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return bestiary.Profile{}, err
	}
	var profile bestiary.Profile
	if err := json.Unmarshal(data, &profile); err != nil {
		return bestiary.Profile{}, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return profile, nil
}
