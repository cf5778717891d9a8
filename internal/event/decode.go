package event

import (
	"fmt"

	"github.com/farklezone/farkle-client/internal/domain"
	"github.com/farklezone/farkle-client/internal/ledger"
)

// Decode translates a raw contract event into its typed variant. The first
// topic discriminates the kind, the second names the player; the payload
// shape depends on the kind. Decoding fails closed: an unknown discriminator
// returns domain.ErrUnrecognizedEventKind and any shape mismatch returns
// domain.ErrMalformedEvent.
func Decode(raw ledger.RawEvent) (Event, error) {
	if len(raw.Topics) < 2 {
		return nil, fmt.Errorf("%w: %d topics", domain.ErrMalformedEvent, len(raw.Topics))
	}

	kind, err := ledger.NativeString(raw.Topics[0])
	if err != nil {
		return nil, err
	}
	player, err := ledger.NativeAddress(raw.Topics[1])
	if err != nil {
		return nil, err
	}

	switch Kind(kind) {
	case KindMatch:
		return decodeMatch(raw, player)

	case KindRoll:
		dice, err := ledger.NativeDice(raw.Data)
		if err != nil {
			return nil, err
		}
		return Roll{Player: player, Dice: dice}, nil

	case KindHold:
		return decodeHold(raw, player)

	case KindBust:
		dice, err := ledger.NativeDice(raw.Data)
		if err != nil {
			return nil, err
		}
		return Bust{Player: player, Dice: dice}, nil

	case KindWin:
		score, err := ledger.NativeInt(raw.Data)
		if err != nil {
			return nil, err
		}
		return Win{Player: player, Score: score}, nil

	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnrecognizedEventKind, kind)
	}
}

// decodeMatch reads the third topic as the other player and the payload as
// the first actor.
func decodeMatch(raw ledger.RawEvent, player domain.Player) (Event, error) {
	if len(raw.Topics) < 3 {
		return nil, fmt.Errorf("%w: match event missing other player topic", domain.ErrMalformedEvent)
	}
	other, err := ledger.NativeAddress(raw.Topics[2])
	if err != nil {
		return nil, err
	}
	first, err := ledger.NativeAddress(raw.Data)
	if err != nil {
		return nil, err
	}
	if first != player && first != other {
		return nil, fmt.Errorf("%w: first actor %q is not a participant", domain.ErrMalformedEvent, first)
	}
	return MatchStarted{Player: player, OtherPlayer: other, First: first}, nil
}

// decodeHold reads the payload as the (dice, score, stop) 3-tuple.
func decodeHold(raw ledger.RawEvent, player domain.Player) (Event, error) {
	tuple, err := ledger.NativeSlice(raw.Data)
	if err != nil {
		return nil, err
	}
	if len(tuple) != 3 {
		return nil, fmt.Errorf("%w: reroll payload has %d elements", domain.ErrMalformedEvent, len(tuple))
	}

	dice, err := ledger.NativeDice(tuple[0])
	if err != nil {
		return nil, err
	}
	score, err := ledger.NativeInt(tuple[1])
	if err != nil {
		return nil, err
	}
	stop, err := ledger.NativeBool(tuple[2])
	if err != nil {
		return nil, err
	}
	return Hold{Player: player, Dice: dice, Score: score, Stop: stop}, nil
}
