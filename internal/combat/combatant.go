package combat

import (
	"fmt"
	"math"
	"strings"

	"github.com/louisbranch/dicedensity/internal/core/density"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultCriticalThreshold is the margin per extra damage die used when
// Stats.CriticalThreshold is zero.
const DefaultCriticalThreshold = 5

// NoCriticalHits, or any negative CriticalThreshold, turns critical hits off.
const NoCriticalHits = -1

// hpPrecision is the grid HP values are snapped to, so that expected-value
// damage applied in different orders lands on the same state.
const hpPrecision = 1e9

// ResourceKind selects the optional secondary resource a combatant tracks.
type ResourceKind int

const (
	ResourceNone ResourceKind = iota
	// ResourceExhausts counts down on every hit taken; at zero the combatant
	// is incapacitated.
	ResourceExhausts
	// ResourceFatigue counts up on every hit taken; at MaxFatigue the
	// combatant is incapacitated.
	ResourceFatigue
)

func (k ResourceKind) String() string {
	switch k {
	case ResourceNone:
		return "none"
	case ResourceExhausts:
		return "exhausts"
	case ResourceFatigue:
		return "fatigue"
	default:
		return "unknown"
	}
}

// ParseResourceKind maps a resource name back to its kind. The empty string
// is ResourceNone.
func ParseResourceKind(name string) (ResourceKind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "none":
		return ResourceNone, nil
	case "exhausts":
		return ResourceExhausts, nil
	case "fatigue":
		return ResourceFatigue, nil
	default:
		return ResourceNone, fmt.Errorf("%w: unknown resource %q", ErrInvalidStats, name)
	}
}

// Stats are the fixed attributes of a combatant.
type Stats struct {
	AttackDie     density.Density
	BonusToHit    int
	DamageDie     density.Density
	BonusToDamage int
	Evade         int
	Armor         int
	Resistance    int
	// CriticalThreshold is the margin per extra damage die. Zero means
	// DefaultCriticalThreshold; a negative value such as NoCriticalHits
	// disables critical hits.
	CriticalThreshold int
	Resource          ResourceKind
	MaxFatigue        int
	// Rule resolves attack rolls into damage. Nil means ThresholdRule.
	Rule DamageRule
}

// Validate reports whether the stats can take part in a fight.
func (s *Stats) Validate() error {
	if s == nil {
		return ErrMissingCombatant
	}
	if s.AttackDie.Len() == 0 {
		return fmt.Errorf("%w: attack die is required", ErrInvalidStats)
	}
	if s.DamageDie.Len() == 0 {
		return fmt.Errorf("%w: damage die is required", ErrInvalidStats)
	}
	if s.Resource == ResourceFatigue && s.MaxFatigue <= 0 {
		return fmt.Errorf("%w: fatigue requires a positive max fatigue", ErrInvalidStats)
	}
	return nil
}

// EffectiveCriticalThreshold resolves the zero value to
// DefaultCriticalThreshold. It returns 0 when critical hits are disabled.
func (s *Stats) EffectiveCriticalThreshold() int {
	switch {
	case s.CriticalThreshold == 0:
		return DefaultCriticalThreshold
	case s.CriticalThreshold < 0:
		return 0
	default:
		return s.CriticalThreshold
	}
}

func (s *Stats) rule() DamageRule {
	if s.Rule == nil {
		return ThresholdRule{}
	}
	return s.Rule
}

// State is the part of a combatant that changes during a fight. It is
// comparable and used as a distribution key.
type State struct {
	HP       float64
	Resource int
}

// Combatant pairs fixed stats with a current state.
type Combatant struct {
	Name  string
	Stats *Stats
	State State
}

// WithState returns a copy of c in the given state.
func (c Combatant) WithState(state State) Combatant {
	c.State = state
	return c
}

// IsDead reports whether hit points are exhausted.
func (c Combatant) IsDead() bool {
	return c.State.HP <= 0
}

// IsIncapacitated reports whether a living combatant has its secondary
// resource at its limit.
func (c Combatant) IsIncapacitated() bool {
	if c.IsDead() || c.Stats == nil {
		return false
	}
	switch c.Stats.Resource {
	case ResourceExhausts:
		return c.State.Resource <= 0
	case ResourceFatigue:
		return c.State.Resource >= c.Stats.MaxFatigue
	default:
		return false
	}
}

// CanFight reports whether c can still act.
func (c Combatant) CanFight() bool {
	return !c.IsDead() && !c.IsIncapacitated()
}

// takeHit returns the state after a hit dealing damage. HP never drops below
// zero and the resource moves one step toward its limit.
func (c Combatant) takeHit(damage float64) State {
	next := c.State
	next.HP = math.Round(math.Max(0, next.HP-damage)*hpPrecision) / hpPrecision
	if c.Stats == nil {
		return next
	}
	switch c.Stats.Resource {
	case ResourceExhausts:
		if next.Resource > 0 {
			next.Resource--
		}
	case ResourceFatigue:
		if next.Resource < c.Stats.MaxFatigue {
			next.Resource++
		}
	}
	return next
}

func (c Combatant) String() string {
	var b strings.Builder
	if c.Name != "" {
		b.WriteString(c.Name)
		b.WriteString(": ")
	}
	fmt.Fprintf(&b, "HP = %g", c.State.HP)
	if c.Stats != nil && c.Stats.Resource != ResourceNone {
		fmt.Fprintf(&b, ", %s = %d", cases.Title(language.English).String(c.Stats.Resource.String()), c.State.Resource)
	}
	if c.IsDead() {
		b.WriteString(" (DEAD)")
	}
	if c.IsIncapacitated() {
		b.WriteString(" (Incapacitated)")
	}
	return b.String()
}
