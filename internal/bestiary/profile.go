// Package bestiary stores named combatant profiles and turns them into
// combatants ready for the combat engine.
package bestiary

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/dicedensity/internal/combat"
	"github.com/louisbranch/dicedensity/internal/combat/luarule"
	"github.com/louisbranch/dicedensity/internal/core/dice"
)

var (
	// ErrNotFound indicates a requested profile is missing.
	ErrNotFound = errors.New("profile not found")
	// ErrInvalidProfile indicates a profile that cannot become a combatant.
	ErrInvalidProfile = errors.New("invalid profile")
)

// DefaultAttack is the attack expression used when a profile leaves it empty.
const DefaultAttack = "d20"

// Profile is the stored description of one combatant. Dice are kept as
// expressions so profiles stay readable in the database and in JSON.
type Profile struct {
	Name          string  `json:"name" jsonschema:"unique profile name"`
	HP            float64 `json:"hp" jsonschema:"starting hit points"`
	Attack        string  `json:"attack,omitempty" jsonschema:"attack roll expression, d20 when empty"`
	BonusToHit    int     `json:"bonus_to_hit,omitempty" jsonschema:"added to every attack roll"`
	Damage        string  `json:"damage" jsonschema:"damage roll expression"`
	BonusToDamage int     `json:"bonus_to_damage,omitempty" jsonschema:"added to every damage roll"`
	Evade         int     `json:"evade,omitempty" jsonschema:"attack total needed to land any hit"`
	Armor         int     `json:"armor,omitempty" jsonschema:"attack total needed for full damage"`
	Resistance    int     `json:"resistance,omitempty" jsonschema:"subtracted from damage taken"`
	// CriticalThreshold is the margin per extra damage die. Nil means
	// combat.DefaultCriticalThreshold and zero disables critical hits.
	CriticalThreshold *int   `json:"critical_threshold,omitempty" jsonschema:"margin per extra damage die, 0 disables critical hits"`
	Resource          string `json:"resource,omitempty" jsonschema:"secondary resource: none, exhausts or fatigue"`
	ResourceValue     int    `json:"resource_value,omitempty" jsonschema:"starting value of the secondary resource"`
	MaxFatigue        int    `json:"max_fatigue,omitempty" jsonschema:"fatigue at which the combatant is incapacitated"`
	Rule              string `json:"rule,omitempty" jsonschema:"damage rule: threshold, natural or excess"`
	// Script is Lua source defining damage(attacker, defender, roll). It
	// takes precedence over Rule.
	Script    string    `json:"script,omitempty" jsonschema:"Lua source defining damage(attacker, defender, roll)"`
	UpdatedAt time.Time `json:"-"`
}

// Store persists profiles.
type Store interface {
	PutProfile(ctx context.Context, profile Profile) error
	GetProfile(ctx context.Context, name string) (Profile, error)
	// ListProfiles returns the profiles matching an AIP-160 filter ordered
	// by name. An empty filter matches every profile.
	ListProfiles(ctx context.Context, filter string) ([]Profile, error)
}

// Normalize trims names and lowercases enumerated fields.
func (p Profile) Normalize() Profile {
	p.Name = strings.TrimSpace(p.Name)
	p.Attack = strings.TrimSpace(p.Attack)
	p.Damage = strings.TrimSpace(p.Damage)
	p.Resource = strings.ToLower(strings.TrimSpace(p.Resource))
	p.Rule = strings.ToLower(strings.TrimSpace(p.Rule))
	return p
}

// Validate checks that the profile describes a combatant, compiling its
// script if it has one.
func (p Profile) Validate() error {
	_, err := p.Combatant()
	return err
}

// Combatant builds a combatant in its starting state. A profile with a
// script gets a fresh Lua rule each call.
func (p Profile) Combatant() (combat.Combatant, error) {
	p = p.Normalize()
	stats, err := p.stats()
	if err != nil {
		return combat.Combatant{}, err
	}
	if strings.TrimSpace(p.Script) != "" {
		rule, err := luarule.Load(p.Name, p.Script)
		if err != nil {
			return combat.Combatant{}, fmt.Errorf("%w: %s: %w", ErrInvalidProfile, p.Name, err)
		}
		stats.Rule = rule
	}
	return combat.Combatant{
		Name:  p.Name,
		Stats: stats,
		State: combat.State{HP: p.HP, Resource: p.ResourceValue},
	}, nil
}

func (p Profile) stats() (*combat.Stats, error) {
	if p.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidProfile)
	}
	if p.HP <= 0 {
		return nil, fmt.Errorf("%w: %s: hp must be positive", ErrInvalidProfile, p.Name)
	}
	attackExpr := p.Attack
	if attackExpr == "" {
		attackExpr = DefaultAttack
	}
	attack, err := dice.ParseDensity(attackExpr)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: attack: %w", ErrInvalidProfile, p.Name, err)
	}
	if p.Damage == "" {
		return nil, fmt.Errorf("%w: %s: damage is required", ErrInvalidProfile, p.Name)
	}
	damage, err := dice.ParseDensity(p.Damage)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: damage: %w", ErrInvalidProfile, p.Name, err)
	}
	resource, err := combat.ParseResourceKind(p.Resource)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidProfile, p.Name, err)
	}
	switch resource {
	case combat.ResourceExhausts:
		if p.ResourceValue <= 0 {
			return nil, fmt.Errorf("%w: %s: exhausts needs a positive resource value", ErrInvalidProfile, p.Name)
		}
	case combat.ResourceFatigue:
		if p.ResourceValue < 0 || p.ResourceValue >= p.MaxFatigue {
			return nil, fmt.Errorf("%w: %s: fatigue must start below max fatigue", ErrInvalidProfile, p.Name)
		}
	}
	rule, err := combat.RuleByName(p.Rule)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidProfile, p.Name, err)
	}

	threshold := combat.DefaultCriticalThreshold
	switch {
	case p.CriticalThreshold == nil:
	case *p.CriticalThreshold < 0:
		return nil, fmt.Errorf("%w: %s: critical threshold must be non-negative", ErrInvalidProfile, p.Name)
	case *p.CriticalThreshold == 0:
		threshold = combat.NoCriticalHits
	default:
		threshold = *p.CriticalThreshold
	}
	stats := &combat.Stats{
		AttackDie:         attack,
		BonusToHit:        p.BonusToHit,
		DamageDie:         damage,
		BonusToDamage:     p.BonusToDamage,
		Evade:             p.Evade,
		Armor:             p.Armor,
		Resistance:        p.Resistance,
		CriticalThreshold: threshold,
		Resource:          resource,
		MaxFatigue:        p.MaxFatigue,
		Rule:              rule,
	}
	if err := stats.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidProfile, p.Name, err)
	}
	return stats, nil
}
