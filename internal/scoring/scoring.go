// Package scoring computes Farkle point values for dice combinations.
//
// The rules mirror the wagering contract's score_turn so the client can
// validate a hold before submitting it and predict outcomes ahead of
// confirmation:
//
//	1 - 100 points, 5 - 50 points
//	three of a kind - 1000 for 1s, face*100 otherwise
//	each matching die past the third doubles the base
//	1 2 3 4 5   - 500 points
//	2 3 4 5 6   - 750 points
//	1 2 3 4 5 6 - 1500 points
package scoring

import (
	"fmt"
	"sort"
	"strings"

	"github.com/farklezone/farkle-client/internal/domain"
)

// Straight bonuses
const (
	fullStraightScore = 1500
	lowStraightScore  = 500
	highStraightScore = 750
)

// Score returns the Farkle point value of dice. A result of zero means the
// combination scores nothing: for a fresh roll that is a bust, for a proposed
// hold it is a client-side validation error.
//
// The result is a pure function of the multiset of faces; order never
// matters. Faces outside [1,6] contribute nothing.
func Score(dice domain.DieRoll) int {
	if len(dice) == 0 {
		return 0
	}

	var counts [7]int
	for _, die := range dice {
		if die >= 1 && die <= 6 {
			counts[die]++
		}
	}

	score := 0
	switch {
	case distinctRun(counts, 1, 6):
		// Full straight is exclusive: six dice, one of each.
		return fullStraightScore

	case distinctRun(counts, 1, 5):
		score += lowStraightScore
		for face := 1; face <= 5; face++ {
			counts[face]--
		}

	case distinctRun(counts, 2, 6):
		score += highStraightScore
		for face := 2; face <= 6; face++ {
			counts[face]--
		}
	}

	// Triples and better. Every die past the third doubles the base.
	for face := 1; face <= 6; face++ {
		count := counts[face]
		if count < 3 {
			continue
		}

		base := face * 100
		if face == 1 {
			base = 1000
		}
		score += base << (count - 3)
		counts[face] = 0
	}

	// Straggler 1s and 5s.
	score += 100 * max(0, counts[1])
	score += 50 * max(0, counts[5])

	return score
}

// distinctRun reports whether the faces present are exactly lo..hi, each at
// least once and nothing outside the run.
func distinctRun(counts [7]int, lo, hi int) bool {
	for face := 1; face <= 6; face++ {
		inRun := face >= lo && face <= hi
		if inRun && counts[face] == 0 {
			return false
		}
		if !inRun && counts[face] != 0 {
			return false
		}
	}
	return true
}

// Select resolves hold indices against a roll, returning the held dice.
// Indices address positions within roll, matching the contract's save
// argument.
func Select(roll domain.DieRoll, indices []int) (domain.DieRoll, error) {
	held := make(domain.DieRoll, 0, len(indices))
	for _, idx := range indices {
		if idx < 0 || idx >= len(roll) {
			return nil, fmt.Errorf("%w: %d", domain.ErrBadDieIndex, idx)
		}
		held = append(held, roll[idx])
	}
	return held, nil
}

// DiceWords renders dice as prose: "a 1", "1 and 5", or "1, 1, and 5".
func DiceWords(dice domain.DieRoll) string {
	if len(dice) == 0 {
		return "nothing"
	}
	if len(dice) == 1 {
		return fmt.Sprintf("a %d", dice[0])
	}

	sorted := append(domain.DieRoll(nil), dice...)
	sort.Ints(sorted)

	parts := make([]string, len(sorted))
	for i, die := range sorted {
		parts[i] = fmt.Sprintf("%d", die)
	}

	comma := ""
	if len(parts) > 2 {
		comma = ","
	}
	return fmt.Sprintf("%s%s and %s", strings.Join(parts[:len(parts)-1], ", "), comma, parts[len(parts)-1])
}
