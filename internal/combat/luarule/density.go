package luarule

import (
	"math"

	"github.com/Shopify/go-lua"
	"github.com/louisbranch/dicedensity/internal/core/density"
	"github.com/louisbranch/dicedensity/internal/core/dice"
)

const densityTypeName = "density"

func registerDensityType(state *lua.State) {
	lua.NewMetaTable(state, densityTypeName)
	lua.SetFunctions(state, densityMetaMethods, 0)
	state.NewTable()
	lua.SetFunctions(state, densityMethods, 0)
	state.SetField(-2, "__index")
	state.Pop(1)
}

func registerDiceLibrary(state *lua.State) {
	state.NewTable()
	lua.SetFunctions(state, diceLibrary, 0)
	state.SetGlobal("dice")
}

var densityMetaMethods = []lua.RegistryFunction{
	{Name: "__add", Function: densityAdd},
	{Name: "__sub", Function: densitySub},
	{Name: "__mul", Function: densityMul},
	{Name: "__unm", Function: densityNeg},
	{Name: "__tostring", Function: densityToString},
}

var densityMethods = []lua.RegistryFunction{
	{Name: "times", Function: densityTimes},
	{Name: "shift", Function: densityShift},
	{Name: "clamp_min", Function: densityClampMin},
	{Name: "max", Function: densityMax},
	{Name: "min", Function: densityMin},
	{Name: "expected", Function: densityExpected},
	{Name: "lowest", Function: densityLowest},
	{Name: "highest", Function: densityHighest},
	{Name: "is_miss", Function: densityIsMiss},
}

var diceLibrary = []lua.RegistryFunction{
	{Name: "die", Function: diceDie},
	{Name: "const", Function: diceConst},
	{Name: "miss", Function: diceMiss},
	{Name: "parse", Function: diceParse},
	{Name: "advantage", Function: diceAdvantage},
	{Name: "disadvantage", Function: diceDisadvantage},
}

func pushDensity(state *lua.State, d density.Density) {
	state.PushUserData(&d)
	lua.SetMetaTableNamed(state, densityTypeName)
}

// toDensity accepts a density userdata or an integral number.
func toDensity(state *lua.State, index int) (density.Density, bool) {
	switch state.TypeOf(index) {
	case lua.TypeUserData:
		if d, ok := lua.TestUserData(state, index, densityTypeName).(*density.Density); ok && d != nil {
			return *d, true
		}
	case lua.TypeNumber:
		value, _ := state.ToNumber(index)
		if value == math.Trunc(value) {
			return density.Constant(int(value)), true
		}
	}
	return density.Density{}, false
}

func checkDensity(state *lua.State, index int) density.Density {
	d, ok := toDensity(state, index)
	if !ok {
		lua.ArgumentError(state, index, "density or integer expected")
	}
	return d
}

func densityAdd(state *lua.State) int {
	pushDensity(state, checkDensity(state, 1).Add(checkDensity(state, 2)))
	return 1
}

func densitySub(state *lua.State) int {
	pushDensity(state, checkDensity(state, 1).Sub(checkDensity(state, 2)))
	return 1
}

func densityMul(state *lua.State) int {
	pushDensity(state, checkDensity(state, 1).Mul(checkDensity(state, 2)))
	return 1
}

func densityNeg(state *lua.State) int {
	pushDensity(state, checkDensity(state, 1).Neg())
	return 1
}

func densityToString(state *lua.State) int {
	state.PushString(checkDensity(state, 1).String())
	return 1
}

func densityTimes(state *lua.State) int {
	d := checkDensity(state, 1)
	out, err := d.ArithMult(lua.CheckInteger(state, 2))
	if err != nil {
		lua.Errorf(state, "times: %s", err.Error())
	}
	pushDensity(state, out)
	return 1
}

func densityShift(state *lua.State) int {
	pushDensity(state, checkDensity(state, 1).Shift(lua.CheckInteger(state, 2)))
	return 1
}

func densityClampMin(state *lua.State) int {
	pushDensity(state, checkDensity(state, 1).ClampMin(lua.CheckInteger(state, 2)))
	return 1
}

func densityMax(state *lua.State) int {
	pushDensity(state, checkDensity(state, 1).Max(checkDensity(state, 2)))
	return 1
}

func densityMin(state *lua.State) int {
	pushDensity(state, checkDensity(state, 1).Min(checkDensity(state, 2)))
	return 1
}

func densityExpected(state *lua.State) int {
	state.PushNumber(checkDensity(state, 1).Expected())
	return 1
}

func densityLowest(state *lua.State) int {
	value, err := checkDensity(state, 1).Lowest()
	if err != nil {
		lua.Errorf(state, "lowest: %s", err.Error())
	}
	state.PushInteger(value)
	return 1
}

func densityHighest(state *lua.State) int {
	value, err := checkDensity(state, 1).Highest()
	if err != nil {
		lua.Errorf(state, "highest: %s", err.Error())
	}
	state.PushInteger(value)
	return 1
}

func densityIsMiss(state *lua.State) int {
	state.PushBoolean(checkDensity(state, 1).IsMiss())
	return 1
}

func diceDie(state *lua.State) int {
	d, err := density.NewDie(lua.CheckInteger(state, 1))
	if err != nil {
		lua.Errorf(state, "die: %s", err.Error())
	}
	pushDensity(state, d)
	return 1
}

func diceConst(state *lua.State) int {
	pushDensity(state, density.Constant(lua.CheckInteger(state, 1)))
	return 1
}

func diceMiss(state *lua.State) int {
	pushDensity(state, density.Zero())
	return 1
}

func diceParse(state *lua.State) int {
	d, err := dice.ParseDensity(lua.CheckString(state, 1))
	if err != nil {
		lua.Errorf(state, "parse: %s", err.Error())
	}
	pushDensity(state, d)
	return 1
}

func diceAdvantage(state *lua.State) int {
	d, err := density.NewDie(lua.CheckInteger(state, 1))
	if err != nil {
		lua.Errorf(state, "advantage: %s", err.Error())
	}
	pushDensity(state, d.WithAdvantage())
	return 1
}

func diceDisadvantage(state *lua.State) int {
	d, err := density.NewDie(lua.CheckInteger(state, 1))
	if err != nil {
		lua.Errorf(state, "disadvantage: %s", err.Error())
	}
	pushDensity(state, d.WithDisadvantage())
	return 1
}
