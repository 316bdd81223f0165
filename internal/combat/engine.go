package combat

import (
	"context"
	"fmt"
	"log"
	"math"
	"os"

	"github.com/louisbranch/dicedensity/internal/core/density"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/louisbranch/dicedensity/internal/combat")

// Pair is the joint state of both sides of a fight.
type Pair struct {
	Attacker State
	Defender State
}

// Distribution maps joint states to probability mass.
type Distribution map[Pair]float64

// Total returns the summed mass.
func (d Distribution) Total() float64 {
	total := 0.0
	for _, p := range d {
		total += p
	}
	return total
}

// Config controls engine behavior.
type Config struct {
	// Precise branches on every damage value. When false each attack roll
	// applies its expected damage instead, which keeps the state space small
	// at the cost of accuracy.
	Precise bool
	// MaxError is the undecided mass at which WinProbability stops.
	MaxError float64
	// MaxRounds bounds WinProbability.
	MaxRounds int
	// DefenderFirst is the probability that the defender strikes first.
	DefenderFirst float64
	Verbose       bool
	Logger        *log.Logger
}

// DefaultConfig returns default engine configuration.
func DefaultConfig() Config {
	return Config{
		Precise:   true,
		MaxError:  0.001,
		MaxRounds: 1000,
	}
}

// Engine runs fights between two fixed combatants.
type Engine struct {
	attacker Combatant
	defender Combatant
	cfg      Config
	logger   *log.Logger
	outcomes map[strikeKey][]damageOutcome
}

type strikeKey struct {
	attackerActs bool
	actor        State
	target       State
}

// NewEngine validates both combatants and prepares an engine. Zero MaxError
// and MaxRounds take their defaults.
func NewEngine(attacker, defender Combatant, cfg Config) (*Engine, error) {
	if err := attacker.Stats.Validate(); err != nil {
		return nil, fmt.Errorf("attacker: %w", err)
	}
	if err := defender.Stats.Validate(); err != nil {
		return nil, fmt.Errorf("defender: %w", err)
	}
	defaults := DefaultConfig()
	if cfg.MaxError == 0 {
		cfg.MaxError = defaults.MaxError
	}
	if cfg.MaxRounds == 0 {
		cfg.MaxRounds = defaults.MaxRounds
	}
	if math.IsNaN(cfg.MaxError) || cfg.MaxError <= 0 || cfg.MaxError >= 1 {
		return nil, fmt.Errorf("%w: max error %v must be in (0, 1)", ErrInvalidProbability, cfg.MaxError)
	}
	if cfg.MaxRounds < 0 {
		return nil, fmt.Errorf("max rounds must be positive, got %d", cfg.MaxRounds)
	}
	if err := checkProbability(cfg.DefenderFirst); err != nil {
		return nil, fmt.Errorf("defender first: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.New(os.Stderr, "", 0)
	}
	return &Engine{
		attacker: attacker,
		defender: defender,
		cfg:      cfg,
		logger:   logger,
		outcomes: make(map[strikeKey][]damageOutcome),
	}, nil
}

// Attacker returns the attacker in its starting state.
func (e *Engine) Attacker() Combatant { return e.attacker }

// Defender returns the defender in its starting state.
func (e *Engine) Defender() Combatant { return e.defender }

// Start returns the distribution with all mass on the starting states.
func (e *Engine) Start() Distribution {
	return Distribution{{Attacker: e.attacker.State, Defender: e.defender.State}: 1}
}

// Initial returns the starting distribution with the configured initiative
// applied.
func (e *Engine) Initial() (Distribution, error) {
	return e.WithInitiative(e.cfg.DefenderFirst)
}

// WithInitiative mixes "attacker acts first" with "defender strikes once
// before the first round". The defender goes first with probability
// defenderFirst.
func (e *Engine) WithInitiative(defenderFirst float64) (Distribution, error) {
	if err := checkProbability(defenderFirst); err != nil {
		return nil, err
	}
	start := e.Start()
	if defenderFirst == 0 {
		return start, nil
	}
	struck, _, err := e.strike(start, false)
	if err != nil {
		return nil, err
	}
	out := make(Distribution, len(struck)+1)
	for pair, p := range start {
		out[pair] += (1 - defenderFirst) * p
	}
	for pair, p := range struck {
		out[pair] += defenderFirst * p
	}
	return prune(out), nil
}

// Round lets the attacker strike and then the defender retaliate.
func (e *Engine) Round(dist Distribution) (Distribution, error) {
	next, _, err := e.round(dist)
	return next, err
}

// round is Round that also reports whether any mass reached a different
// joint state.
func (e *Engine) round(dist Distribution) (Distribution, bool, error) {
	next, attackerMoved, err := e.strike(dist, true)
	if err != nil {
		return nil, false, err
	}
	next, defenderMoved, err := e.strike(next, false)
	if err != nil {
		return nil, false, err
	}
	return next, attackerMoved || defenderMoved, nil
}

// CombatDistribution runs the given number of rounds from Initial.
func (e *Engine) CombatDistribution(rounds int) (Distribution, error) {
	dist, err := e.Initial()
	if err != nil {
		return nil, err
	}
	for i := 0; i < rounds; i++ {
		if dist, err = e.Round(dist); err != nil {
			return nil, fmt.Errorf("round %d: %w", i+1, err)
		}
	}
	return dist, nil
}

// EventProbability returns the mass of joint states satisfying cond.
func (e *Engine) EventProbability(dist Distribution, cond func(attacker, defender Combatant) bool) float64 {
	total := 0.0
	for pair, p := range dist {
		if cond(e.attacker.WithState(pair.Attacker), e.defender.WithState(pair.Defender)) {
			total += p
		}
	}
	return total
}

// CombatEventProbability runs the given number of rounds and returns the
// probability of cond.
func (e *Engine) CombatEventProbability(rounds int, cond func(attacker, defender Combatant) bool) (float64, error) {
	dist, err := e.CombatDistribution(rounds)
	if err != nil {
		return 0, err
	}
	return e.EventProbability(dist, cond), nil
}

// ResultDensity pushes the joint distribution through f.
func (e *Engine) ResultDensity(dist Distribution, f func(attacker, defender Combatant) int) density.Density {
	masses := make(map[int]float64)
	for pair, p := range dist {
		masses[f(e.attacker.WithState(pair.Attacker), e.defender.WithState(pair.Defender))] += p
	}
	return density.New(masses)
}

// HPDensity returns the attacker's hit points after the given number of
// rounds, rounded to the nearest integer.
func (e *Engine) HPDensity(rounds int) (density.Density, error) {
	dist, err := e.CombatDistribution(rounds)
	if err != nil {
		return density.Density{}, err
	}
	return e.ResultDensity(dist, func(attacker, _ Combatant) int {
		return int(math.Round(attacker.State.HP))
	}), nil
}

// DefenderHPDensity is HPDensity for the defender.
func (e *Engine) DefenderHPDensity(rounds int) (density.Density, error) {
	dist, err := e.CombatDistribution(rounds)
	if err != nil {
		return density.Density{}, err
	}
	return e.ResultDensity(dist, func(_, defender Combatant) int {
		return int(math.Round(defender.State.HP))
	}), nil
}

// Outcome summarizes a converged fight.
type Outcome struct {
	// Probability is the attacker's extrapolated chance to win.
	Probability  float64
	AttackerWins float64
	DefenderWins float64
	Undecided    float64
	Rounds       int
	States       int
}

// WinProbability runs rounds from Initial until the mass where both sides can
// still fight is at most MaxError, then extrapolates
//
//	attackerWins + undecided*attackerWins/(1-undecided)
//
// This assumes the undecided branches end in the same ratio as the decided
// ones. It is an approximation whose error shrinks with MaxError.
func (e *Engine) WinProbability(ctx context.Context) (Outcome, error) {
	ctx, span := tracer.Start(ctx, "combat.WinProbability", trace.WithAttributes(
		attribute.String("combat.attacker", e.attacker.Name),
		attribute.String("combat.defender", e.defender.Name),
		attribute.Bool("combat.precise", e.cfg.Precise),
		attribute.Float64("combat.max_error", e.cfg.MaxError),
	))
	defer span.End()

	outcome, err := e.winProbability(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Outcome{}, err
	}
	span.SetAttributes(
		attribute.Int("combat.rounds", outcome.Rounds),
		attribute.Int("combat.states", outcome.States),
		attribute.Float64("combat.win_probability", outcome.Probability),
	)
	return outcome, nil
}

func (e *Engine) winProbability(ctx context.Context) (Outcome, error) {
	dist, err := e.Initial()
	if err != nil {
		return Outcome{}, err
	}
	undecided := func(attacker, defender Combatant) bool {
		return attacker.CanFight() && defender.CanFight()
	}

	rounds := 0
	for {
		up := e.EventProbability(dist, undecided)
		e.logf("round %d: %d states, undecided %.6f", rounds, len(dist), up)
		if up <= e.cfg.MaxError {
			break
		}
		if rounds >= e.cfg.MaxRounds {
			return Outcome{}, fmt.Errorf("%w: undecided %.6f after %d rounds", ErrNotConverged, up, rounds)
		}
		if err := ctx.Err(); err != nil {
			return Outcome{}, err
		}
		next, moved, err := e.round(dist)
		if err != nil {
			return Outcome{}, fmt.Errorf("round %d: %w", rounds+1, err)
		}
		if !moved {
			return Outcome{}, fmt.Errorf("%w: undecided %.6f after %d rounds", ErrStalemate, up, rounds)
		}
		dist = next
		rounds++
	}

	outcome := Outcome{
		AttackerWins: e.EventProbability(dist, func(_, defender Combatant) bool { return !defender.CanFight() }),
		DefenderWins: e.EventProbability(dist, func(attacker, defender Combatant) bool {
			return !attacker.CanFight() && defender.CanFight()
		}),
		Undecided: e.EventProbability(dist, undecided),
		Rounds:    rounds,
		States:    len(dist),
	}
	outcome.Probability = outcome.AttackerWins
	if outcome.Undecided < 1 {
		outcome.Probability += outcome.Undecided * outcome.AttackerWins / (1 - outcome.Undecided)
	}
	return outcome, nil
}

// strike applies one attack to every joint state. When attackerActs is true
// the attacker hits the defender, otherwise the defender hits the attacker.
// moved reports whether any positive mass changed state, which is the only
// way a fight can progress.
func (e *Engine) strike(dist Distribution, attackerActs bool) (_ Distribution, moved bool, _ error) {
	next := make(Distribution, len(dist))
	add := func(from, to Pair, mass float64) {
		next[to] += mass
		if to != from && mass > 0 {
			moved = true
		}
	}
	for pair, p := range dist {
		actor := e.attacker.WithState(pair.Attacker)
		target := e.defender.WithState(pair.Defender)
		if !attackerActs {
			actor, target = e.defender.WithState(pair.Defender), e.attacker.WithState(pair.Attacker)
		}
		if !actor.CanFight() {
			next[pair] += p
			continue
		}

		outcomes, err := e.damageOutcomes(attackerActs, actor, target)
		if err != nil {
			return nil, false, err
		}
		for _, o := range outcomes {
			mass := p * o.probability
			if o.damage.IsMiss() {
				next[pair] += mass
				continue
			}
			if !e.cfg.Precise {
				add(pair, withTarget(pair, attackerActs, target.takeHit(o.damage.Expected())), mass)
				continue
			}
			values := o.damage.Values()
			for i, dmg := range o.damage.Keys() {
				add(pair, withTarget(pair, attackerActs, target.takeHit(float64(dmg))), mass*values[i])
			}
		}
	}
	return prune(next), moved, nil
}

func (e *Engine) damageOutcomes(attackerActs bool, actor, target Combatant) ([]damageOutcome, error) {
	key := strikeKey{attackerActs: attackerActs, actor: actor.State, target: target.State}
	if cached, ok := e.outcomes[key]; ok {
		return cached, nil
	}
	outcomes, err := damageOutcomes(actor, target)
	if err != nil {
		return nil, fmt.Errorf("%s attacking %s: %w", displayName(actor), displayName(target), err)
	}
	e.outcomes[key] = outcomes
	return outcomes, nil
}

func (e *Engine) logf(format string, args ...any) {
	if !e.cfg.Verbose || e.logger == nil {
		return
	}
	e.logger.Printf(format, args...)
}

func withTarget(pair Pair, attackerActs bool, target State) Pair {
	if attackerActs {
		pair.Defender = target
	} else {
		pair.Attacker = target
	}
	return pair
}

// prune drops states whose mass underflowed to zero.
func prune(dist Distribution) Distribution {
	for pair, p := range dist {
		if p == 0 {
			delete(dist, pair)
		}
	}
	return dist
}

func checkProbability(p float64) error {
	if math.IsNaN(p) || p < 0 || p > 1 {
		return fmt.Errorf("%w: %v", ErrInvalidProbability, p)
	}
	return nil
}

func displayName(c Combatant) string {
	if c.Name == "" {
		return "combatant"
	}
	return c.Name
}
