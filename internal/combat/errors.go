package combat

import "errors"

var (
	// ErrNotConverged indicates the round limit was reached while too much
	// probability mass was still undecided.
	ErrNotConverged = errors.New("combat did not converge within the round limit")
	// ErrStalemate indicates a round changed nothing while combat was still
	// undecided, so it can never converge.
	ErrStalemate = errors.New("combat is a stalemate")
	// ErrInvalidProbability indicates a probability parameter outside its range.
	ErrInvalidProbability = errors.New("probability out of range")
	// ErrMissingCombatant indicates a combatant without stats.
	ErrMissingCombatant = errors.New("combatant stats are required")
	// ErrInvalidStats indicates stats that cannot be used in a fight.
	ErrInvalidStats = errors.New("invalid combatant stats")
	// ErrUnknownRule indicates a damage rule name that is not registered.
	ErrUnknownRule = errors.New("unknown damage rule")
)
