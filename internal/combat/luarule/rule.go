// Package luarule runs combat damage rules written in Lua.
//
// A script must define a global function
//
//	damage(attacker, defender, roll)
//
// which receives both combatants as tables and the attack roll as an
// integer, and returns a density, an integer, or nil for a miss. The global
// table "dice" builds densities:
//
//	dice.die(6), dice.const(3), dice.miss(), dice.parse("m2d6+1"),
//	dice.advantage(20), dice.disadvantage(20)
//
// Densities support +, -, * and unary minus with other densities or
// integers, plus the methods times(n), shift(c), clamp_min(c), max(d),
// min(d), expected(), lowest(), highest() and is_miss().
package luarule

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Shopify/go-lua"
	"github.com/louisbranch/dicedensity/internal/combat"
	"github.com/louisbranch/dicedensity/internal/core/density"
)

const damageFunction = "damage"

var (
	// ErrNoDamageFunction indicates a script that does not define damage.
	ErrNoDamageFunction = errors.New("script must define a damage function")
	// ErrInvalidResult indicates damage returned something other than a
	// density, an integer or nil.
	ErrInvalidResult = errors.New("damage must return a density, an integer or nil")
	// ErrScript wraps Lua load and runtime failures.
	ErrScript = errors.New("lua script failed")
)

// Rule is a combat.DamageRule backed by a Lua state. A Rule is safe for use
// by one engine at a time; calls are serialized.
type Rule struct {
	name  string
	mu    sync.Mutex
	state *lua.State
}

// Load compiles source and checks that it defines a damage function.
func Load(name, source string) (*Rule, error) {
	state := lua.NewState()
	lua.OpenLibraries(state)
	registerDensityType(state)
	registerDiceLibrary(state)

	if err := lua.LoadBuffer(state, source, "="+name, ""); err != nil {
		return nil, fmt.Errorf("%w: load %s: %v", ErrScript, name, err)
	}
	if err := state.ProtectedCall(0, 0, 0); err != nil {
		return nil, fmt.Errorf("%w: run %s: %v", ErrScript, name, err)
	}
	state.Global(damageFunction)
	defined := state.IsFunction(-1)
	state.Pop(1)
	if !defined {
		return nil, fmt.Errorf("%w: %s", ErrNoDamageFunction, name)
	}
	return &Rule{name: name, state: state}, nil
}

// LoadFile reads and loads a script from disk. The rule is named after the
// file without its extension.
func LoadFile(path string) (*Rule, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lua rule: %w", err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return Load(name, string(source))
}

// Name returns the script name.
func (r *Rule) Name() string {
	return r.name
}

func (r *Rule) String() string {
	return "lua:" + r.name
}

// Resolve implements combat.DamageRule.
func (r *Rule) Resolve(attacker, defender combat.Combatant, roll int) (density.Density, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state := r.state
	top := state.Top()
	defer state.SetTop(top)

	state.Global(damageFunction)
	pushCombatant(state, attacker)
	pushCombatant(state, defender)
	state.PushInteger(roll)
	if err := state.ProtectedCall(3, 1, 0); err != nil {
		return density.Density{}, fmt.Errorf("%w: %s: roll %d: %v", ErrScript, r.name, roll, err)
	}

	switch state.TypeOf(-1) {
	case lua.TypeNil, lua.TypeNone:
		return density.Zero(), nil
	case lua.TypeNumber:
		value, _ := state.ToNumber(-1)
		d, err := density.From(value)
		if err != nil {
			return density.Density{}, fmt.Errorf("%w: %v", ErrInvalidResult, err)
		}
		return d, nil
	case lua.TypeUserData:
		if d, ok := state.ToUserData(-1).(*density.Density); ok && d != nil {
			return *d, nil
		}
	}
	return density.Density{}, fmt.Errorf("%w: got %s", ErrInvalidResult, lua.TypeNameOf(state, -1))
}

func pushCombatant(state *lua.State, c combat.Combatant) {
	state.NewTable()
	state.PushString(c.Name)
	state.SetField(-2, "name")
	state.PushNumber(c.State.HP)
	state.SetField(-2, "hp")
	state.PushInteger(c.State.Resource)
	state.SetField(-2, "resource")
	if c.Stats == nil {
		return
	}
	fields := []struct {
		name  string
		value int
	}{
		{"bonus_to_hit", c.Stats.BonusToHit},
		{"bonus_to_damage", c.Stats.BonusToDamage},
		{"evade", c.Stats.Evade},
		{"armor", c.Stats.Armor},
		{"resistance", c.Stats.Resistance},
		{"critical_threshold", c.Stats.EffectiveCriticalThreshold()},
		{"max_fatigue", c.Stats.MaxFatigue},
	}
	for _, field := range fields {
		state.PushInteger(field.value)
		state.SetField(-2, field.name)
	}
	state.PushString(c.Stats.Resource.String())
	state.SetField(-2, "resource_kind")
	pushDensity(state, c.Stats.AttackDie)
	state.SetField(-2, "attack_die")
	pushDensity(state, c.Stats.DamageDie)
	state.SetField(-2, "damage_die")
}
