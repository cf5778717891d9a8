package ledger

import (
	"fmt"
	"math"

	"github.com/farklezone/farkle-client/internal/domain"
)

// Native coercion helpers. Codec implementations differ in the Go types
// they produce for wire values (JSON decoding yields float64, in-process
// fakes yield int, XDR codecs yield fixed-width integers). These helpers
// accept every representation that is exactly convertible and fail closed
// on everything else, wrapping domain.ErrMalformedEvent.

// NativeString coerces v to a string.
func NativeString(v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: expected string, got %T", domain.ErrMalformedEvent, v)
	}
	return s, nil
}

// NativeAddress coerces v to a non-empty player address.
func NativeAddress(v any) (domain.Player, error) {
	s, err := NativeString(v)
	if err != nil {
		return "", err
	}
	if s == "" {
		return "", fmt.Errorf("%w: empty address", domain.ErrMalformedEvent)
	}
	return domain.Player(s), nil
}

// NativeInt coerces v to an int. Floats are accepted only when integral.
func NativeInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int32:
		return int(n), nil
	case int64:
		return int(n), nil
	case uint32:
		return int(n), nil
	case uint64:
		if n > math.MaxInt64 {
			return 0, fmt.Errorf("%w: integer overflow", domain.ErrMalformedEvent)
		}
		return int(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("%w: non-integral number %v", domain.ErrMalformedEvent, n)
		}
		return int(n), nil
	default:
		return 0, fmt.Errorf("%w: expected integer, got %T", domain.ErrMalformedEvent, v)
	}
}

// NativeBool coerces v to a bool.
func NativeBool(v any) (bool, error) {
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("%w: expected bool, got %T", domain.ErrMalformedEvent, v)
	}
	return b, nil
}

// NativeDice coerces v to a die roll. An empty list is valid: the contract
// emits one as a turn-handoff signal.
func NativeDice(v any) (domain.DieRoll, error) {
	items, err := NativeSlice(v)
	if err != nil {
		return nil, err
	}

	dice := make(domain.DieRoll, 0, len(items))
	for _, item := range items {
		die, err := NativeInt(item)
		if err != nil {
			return nil, err
		}
		if die < 1 || die > 6 {
			return nil, fmt.Errorf("%w: die face %d out of range", domain.ErrMalformedEvent, die)
		}
		dice = append(dice, die)
	}
	if len(dice) > domain.MaxDice {
		return nil, fmt.Errorf("%w: %d dice exceeds maximum", domain.ErrMalformedEvent, len(dice))
	}
	return dice, nil
}

// NativeSlice coerces v to a slice of raw values.
func NativeSlice(v any) ([]any, error) {
	switch items := v.(type) {
	case []any:
		return items, nil
	case []int:
		out := make([]any, len(items))
		for i, n := range items {
			out[i] = n
		}
		return out, nil
	case nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: expected list, got %T", domain.ErrMalformedEvent, v)
	}
}
