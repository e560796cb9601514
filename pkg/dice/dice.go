// Package dice provides the dice tray: the standard polyhedral dice a
// player can roll to resolve actions, with the result handed to the
// narrator for interpretation.
package dice

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
)

// Sizes are the dice offered in the tray.
var Sizes = []int{4, 6, 8, 10, 12, 20}

// ErrUnsupportedDie is returned for a die size not in the tray.
var ErrUnsupportedDie = errors.New("unsupported die")

// Roll rolls a die with the given number of sides, returning a result
// in [1, sides]. Only tray sizes are accepted.
func Roll(sides int) (int, error) {
	if !slices.Contains(Sizes, sides) {
		return 0, fmt.Errorf("%w: d%d", ErrUnsupportedDie, sides)
	}
	return rand.IntN(sides) + 1, nil
}

// RollMessage formats a roll as the player's chat turn.
func RollMessage(sides, result int) string {
	return fmt.Sprintf("I rolled a %d on a D%d!", result, sides)
}

// InterpretHint formats the system nudge that asks the narrator to
// adjudicate a roll result.
func InterpretHint(result int) string {
	return fmt.Sprintf("[SYSTEM: I rolled a %d. Interpret this result.]", result)
}
