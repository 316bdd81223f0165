package combat

import (
	"fmt"
	"sort"
	"strings"

	"github.com/louisbranch/dicedensity/internal/core/check"
	"github.com/louisbranch/dicedensity/internal/core/density"
)

// DamageRule resolves a single attack roll into a damage density. A complete
// miss must return density.Zero() so it can be told apart from a hit that
// deals no damage.
type DamageRule interface {
	Resolve(attacker, defender Combatant, roll int) (density.Density, error)
}

// Rule names accepted by RuleByName.
const (
	RuleThreshold = "threshold"
	RuleNatural   = "natural"
	RuleExcess    = "excess"
)

// RuleByName returns the built-in rule registered under name. The empty name
// selects ThresholdRule.
func RuleByName(name string) (DamageRule, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", RuleThreshold:
		return ThresholdRule{}, nil
	case RuleNatural:
		return NaturalRule{}, nil
	case RuleExcess:
		return ExcessRule{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownRule, name)
	}
}

// RuleNames lists the built-in rule names in sorted order.
func RuleNames() []string {
	names := []string{RuleThreshold, RuleNatural, RuleExcess}
	sort.Strings(names)
	return names
}

// ThresholdRule is the default rule. Totals below evade miss. Totals that
// reach evade but not evade+armor deal damage reduced by resistance. Higher
// totals deal full damage and every CriticalThreshold points above
// evade+armor add another damage die.
type ThresholdRule struct{}

// Resolve implements DamageRule.
func (ThresholdRule) Resolve(attacker, defender Combatant, roll int) (density.Density, error) {
	if err := requireStats(attacker, defender); err != nil {
		return density.Density{}, err
	}
	a, d := attacker.Stats, defender.Stats
	attack := check.Classify(roll+a.BonusToHit, d.Evade, d.Armor)
	switch attack.Outcome {
	case check.OutcomeMiss:
		return density.Zero(), nil
	case check.OutcomeArmorHit:
		return armorHitDamage(a, d), nil
	}
	return criticalDamage(a, check.CriticalSteps(attack.Margin, a.EffectiveCriticalThreshold()))
}

func (ThresholdRule) String() string { return RuleThreshold }

// NaturalRule follows ThresholdRule except that the lowest face of the attack
// die always misses and the highest face always connects, at worst as an
// armor hit.
type NaturalRule struct{}

// Resolve implements DamageRule.
func (NaturalRule) Resolve(attacker, defender Combatant, roll int) (density.Density, error) {
	if err := requireStats(attacker, defender); err != nil {
		return density.Density{}, err
	}
	a, d := attacker.Stats, defender.Stats
	lowest, err := a.AttackDie.Lowest()
	if err != nil {
		return density.Density{}, err
	}
	highest, err := a.AttackDie.Highest()
	if err != nil {
		return density.Density{}, err
	}
	if roll == lowest {
		return density.Zero(), nil
	}

	attack := check.Classify(roll+a.BonusToHit, d.Evade, d.Armor)
	switch {
	case attack.Outcome == check.OutcomeMiss && roll < highest:
		return density.Zero(), nil
	case attack.Outcome != check.OutcomeHit:
		return armorHitDamage(a, d), nil
	}
	return criticalDamage(a, check.CriticalSteps(attack.Margin, a.EffectiveCriticalThreshold()))
}

func (NaturalRule) String() string { return RuleNatural }

// ExcessRule ignores armor and resistance. Any total reaching evade hits, and
// every CriticalThreshold points of excess over evade add a damage die.
type ExcessRule struct{}

// Resolve implements DamageRule.
func (ExcessRule) Resolve(attacker, defender Combatant, roll int) (density.Density, error) {
	if err := requireStats(attacker, defender); err != nil {
		return density.Density{}, err
	}
	a, d := attacker.Stats, defender.Stats
	result := check.Check(roll+a.BonusToHit, d.Evade)
	if !result.Success {
		return density.Zero(), nil
	}
	return criticalDamage(a, check.CriticalSteps(result.Margin, a.EffectiveCriticalThreshold()))
}

func (ExcessRule) String() string { return RuleExcess }

func armorHitDamage(a, d *Stats) density.Density {
	return a.DamageDie.Op(func(k int) int {
		return max(0, k+a.BonusToDamage-d.Resistance)
	})
}

func criticalDamage(a *Stats, crits int) (density.Density, error) {
	dmg, err := a.DamageDie.ArithMult(1 + crits)
	if err != nil {
		return density.Density{}, err
	}
	return dmg.Op(func(k int) int { return max(0, k+a.BonusToDamage) }), nil
}

func requireStats(attacker, defender Combatant) error {
	if attacker.Stats == nil || defender.Stats == nil {
		return ErrMissingCombatant
	}
	return nil
}
