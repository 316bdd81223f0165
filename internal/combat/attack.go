package combat

import (
	"fmt"

	"github.com/louisbranch/dicedensity/internal/core/density"
)

// RollDamage is the damage dealt by one face of the attack die.
type RollDamage struct {
	Roll        int
	Probability float64
	Damage      density.Density
}

// Hit reports whether the roll connects.
func (r RollDamage) Hit() bool {
	return !r.Damage.IsMiss()
}

// DamageByRoll resolves every face of c's attack die against defender.
func (c Combatant) DamageByRoll(defender Combatant) ([]RollDamage, error) {
	if c.Stats == nil || defender.Stats == nil {
		return nil, ErrMissingCombatant
	}
	rule := c.Stats.rule()
	rolls := c.Stats.AttackDie.Keys()
	probs := c.Stats.AttackDie.Values()
	out := make([]RollDamage, 0, len(rolls))
	for i, roll := range rolls {
		dmg, err := rule.Resolve(c, defender, roll)
		if err != nil {
			return nil, fmt.Errorf("resolve roll %d: %w", roll, err)
		}
		out = append(out, RollDamage{Roll: roll, Probability: probs[i], Damage: dmg})
	}
	return out, nil
}

// ChanceToHit returns the probability that an attack by c is not a miss.
func (c Combatant) ChanceToHit(defender Combatant) (float64, error) {
	rolls, err := c.DamageByRoll(defender)
	if err != nil {
		return 0, err
	}
	chance := 0.0
	for _, r := range rolls {
		if r.Hit() {
			chance += r.Probability
		}
	}
	return chance, nil
}

// ExpectedDamage returns the mean damage of one attack by c.
func (c Combatant) ExpectedDamage(defender Combatant) (float64, error) {
	rolls, err := c.DamageByRoll(defender)
	if err != nil {
		return 0, err
	}
	expected := 0.0
	for _, r := range rolls {
		expected += r.Probability * r.Damage.Expected()
	}
	return expected, nil
}

// damageOutcome is a distinct damage density and the total probability of
// the attack rolls producing it.
type damageOutcome struct {
	damage      density.Density
	probability float64
}

// damageOutcomes merges attack rolls that resolve to identical damage
// densities. Outcomes keep the order of their first roll.
func damageOutcomes(attacker, defender Combatant) ([]damageOutcome, error) {
	rolls, err := attacker.DamageByRoll(defender)
	if err != nil {
		return nil, err
	}
	index := make(map[string]int, len(rolls))
	out := make([]damageOutcome, 0, len(rolls))
	for _, r := range rolls {
		key := r.Damage.Key()
		if i, ok := index[key]; ok {
			out[i].probability += r.Probability
			continue
		}
		index[key] = len(out)
		out = append(out, damageOutcome{damage: r.Damage, probability: r.Probability})
	}
	return out, nil
}
