// Package check classifies attack totals against a defender's evade and
// armor.
package check

// MeetsDifficulty returns true if total >= difficulty.
func MeetsDifficulty(total, difficulty int) bool {
	return total >= difficulty
}

// Margin calculates the margin of success or failure.
// Positive values indicate success, negative indicate failure.
func Margin(total, difficulty int) int {
	return total - difficulty
}

// Result represents the outcome of a difficulty check.
type Result struct {
	Success bool
	Margin  int
}

// Check performs a difficulty check and returns the result.
func Check(total, difficulty int) Result {
	return Result{
		Success: MeetsDifficulty(total, difficulty),
		Margin:  Margin(total, difficulty),
	}
}

// Outcome is how an attack total lands against a defense.
type Outcome int

const (
	OutcomeMiss Outcome = iota
	// OutcomeArmorHit connects but is absorbed in part by armor.
	OutcomeArmorHit
	OutcomeHit
)

func (o Outcome) String() string {
	switch o {
	case OutcomeMiss:
		return "Miss"
	case OutcomeArmorHit:
		return "Armor hit"
	case OutcomeHit:
		return "Hit"
	default:
		return "Unknown"
	}
}

// Attack is the classified result of an attack total.
type Attack struct {
	Outcome Outcome
	// Margin is how far the total cleared evade plus armor. It is only
	// meaningful for OutcomeHit.
	Margin int
}

// Classify compares an attack total against evade and armor. Totals below
// evade miss, totals below evade+armor are armor hits, anything else is a
// clean hit.
func Classify(total, evade, armor int) Attack {
	if !MeetsDifficulty(total, evade) {
		return Attack{Outcome: OutcomeMiss, Margin: Margin(total, evade)}
	}
	if armor > 0 && !MeetsDifficulty(total, evade+armor) {
		return Attack{Outcome: OutcomeArmorHit, Margin: Margin(total, evade+armor)}
	}
	return Attack{Outcome: OutcomeHit, Margin: Margin(total, evade+armor)}
}

// CriticalSteps returns how many extra damage dice a margin earns when every
// threshold points of margin add one. A non-positive threshold or a negative
// margin earns none.
func CriticalSteps(margin, threshold int) int {
	if threshold <= 0 || margin < 0 {
		return 0
	}
	return margin / threshold
}
