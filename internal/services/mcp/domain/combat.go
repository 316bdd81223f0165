package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/dicedensity/internal/bestiary"
	"github.com/louisbranch/dicedensity/internal/combat"
	"github.com/louisbranch/dicedensity/internal/platform/timeouts"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// DefaultComputeTimeout bounds a single tool computation.
const DefaultComputeTimeout = timeouts.ToolCompute

// ErrNoBestiary is returned when a tool references a profile by name but no
// bestiary is configured.
var ErrNoBestiary = errors.New("bestiary is not configured")

// CombatantRef selects a combatant inline or by bestiary name.
type CombatantRef struct {
	Name    string            `json:"name,omitempty" jsonschema:"bestiary profile name, used when profile is omitted"`
	Profile *bestiary.Profile `json:"profile,omitempty" jsonschema:"inline combatant profile"`
	HP      *float64          `json:"hp,omitempty" jsonschema:"optional starting hit point override"`
}

// SideSummary reports one side's attack against the other.
type SideSummary struct {
	Name           string  `json:"name" jsonschema:"combatant name"`
	HitChance      float64 `json:"hit_chance" jsonschema:"probability that one attack is not a miss"`
	ExpectedDamage float64 `json:"expected_damage" jsonschema:"mean damage of one attack"`
}

// CombatMatchupInput represents the MCP tool input for a fight analysis.
type CombatMatchupInput struct {
	Attacker      CombatantRef `json:"attacker" jsonschema:"combatant that acts first in every round"`
	Defender      CombatantRef `json:"defender" jsonschema:"combatant that responds in every round"`
	Precise       *bool        `json:"precise,omitempty" jsonschema:"branch on every damage value (default true); false applies expected damage"`
	DefenderFirst float64      `json:"defender_first,omitempty" jsonschema:"probability that the defender strikes once before the first round"`
	MaxError      float64      `json:"max_error,omitempty" jsonschema:"undecided probability at which the run stops (default 0.001)"`
	MaxRounds     int          `json:"max_rounds,omitempty" jsonschema:"round limit (default 1000)"`
}

// CombatMatchupResult represents the MCP tool output for a fight analysis.
type CombatMatchupResult struct {
	Attacker       SideSummary `json:"attacker" jsonschema:"attacker against defender"`
	Defender       SideSummary `json:"defender" jsonschema:"defender against attacker"`
	WinProbability float64     `json:"win_probability" jsonschema:"extrapolated probability that the attacker wins"`
	AttackerWins   float64     `json:"attacker_wins" jsonschema:"decided probability that the defender cannot fight"`
	DefenderWins   float64     `json:"defender_wins" jsonschema:"decided probability that the attacker cannot fight"`
	Undecided      float64     `json:"undecided" jsonschema:"probability that both sides can still fight"`
	Rounds         int         `json:"rounds" jsonschema:"rounds computed"`
	States         int         `json:"states" jsonschema:"joint states in the final distribution"`
}

// CombatMatchupTool defines the MCP tool schema for a fight analysis.
func CombatMatchupTool() *mcp.Tool {
	return &mcp.Tool{
		Name: "combat_matchup",
		Description: "Computes hit chances, expected damage and the probability that the attacker wins a fight " +
			"to incapacitation against the defender. Combatants are inline profiles or bestiary names.",
	}
}

// CombatMatchupHandler executes a fight analysis. store may be nil, in which
// case only inline profiles are accepted.
func CombatMatchupHandler(store bestiary.Store, timeout time.Duration) mcp.ToolHandlerFor[CombatMatchupInput, CombatMatchupResult] {
	if timeout <= 0 {
		timeout = DefaultComputeTimeout
	}
	return traced("combat_matchup", func(ctx context.Context, _ *mcp.CallToolRequest, input CombatMatchupInput) (*mcp.CallToolResult, CombatMatchupResult, error) {
		runCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		attacker, err := resolveCombatant(runCtx, store, input.Attacker)
		if err != nil {
			return nil, CombatMatchupResult{}, fmt.Errorf("attacker: %w", err)
		}
		defender, err := resolveCombatant(runCtx, store, input.Defender)
		if err != nil {
			return nil, CombatMatchupResult{}, fmt.Errorf("defender: %w", err)
		}

		cfg := combat.DefaultConfig()
		if input.Precise != nil {
			cfg.Precise = *input.Precise
		}
		cfg.DefenderFirst = input.DefenderFirst
		cfg.MaxError = input.MaxError
		cfg.MaxRounds = input.MaxRounds

		result := CombatMatchupResult{}
		if result.Attacker, err = summarizeSide(attacker, defender); err != nil {
			return nil, CombatMatchupResult{}, err
		}
		if result.Defender, err = summarizeSide(defender, attacker); err != nil {
			return nil, CombatMatchupResult{}, err
		}

		engine, err := combat.NewEngine(attacker, defender, cfg)
		if err != nil {
			return nil, CombatMatchupResult{}, err
		}
		outcome, err := engine.WinProbability(runCtx)
		if err != nil {
			return nil, CombatMatchupResult{}, fmt.Errorf("win probability: %w", err)
		}
		result.WinProbability = outcome.Probability
		result.AttackerWins = outcome.AttackerWins
		result.DefenderWins = outcome.DefenderWins
		result.Undecided = outcome.Undecided
		result.Rounds = outcome.Rounds
		result.States = outcome.States
		return &mcp.CallToolResult{}, result, nil
	})
}

func resolveCombatant(ctx context.Context, store bestiary.Store, ref CombatantRef) (combat.Combatant, error) {
	var profile bestiary.Profile
	switch {
	case ref.Profile != nil:
		profile = *ref.Profile
	case strings.TrimSpace(ref.Name) != "":
		if store == nil {
			return combat.Combatant{}, ErrNoBestiary
		}
		stored, err := store.GetProfile(ctx, ref.Name)
		if err != nil {
			return combat.Combatant{}, err
		}
		profile = stored
	default:
		return combat.Combatant{}, fmt.Errorf("%w: name or profile is required", combat.ErrMissingCombatant)
	}
	if ref.HP != nil {
		profile.HP = *ref.HP
	}
	return profile.Combatant()
}

func summarizeSide(actor, target combat.Combatant) (SideSummary, error) {
	hit, err := actor.ChanceToHit(target)
	if err != nil {
		return SideSummary{}, fmt.Errorf("%s hit chance: %w", actor.Name, err)
	}
	expected, err := actor.ExpectedDamage(target)
	if err != nil {
		return SideSummary{}, fmt.Errorf("%s expected damage: %w", actor.Name, err)
	}
	return SideSummary{Name: actor.Name, HitChance: hit, ExpectedDamage: expected}, nil
}
