package txguard

import (
	"fmt"

	"github.com/farklezone/farkle-client/internal/domain"
	"github.com/farklezone/farkle-client/internal/ledger"
)

// Continue-branch fee padding. Every constant here is tied to the
// contract's temporary storage schema; TestFeeOffsetMatchesKeySchema fails
// if the key list and the offset multiplier drift apart.
const (
	// readEntryFee and readByteFee are the per-entry read charges the
	// padding budgets for.
	readEntryFee int64 = 6250
	readByteFee  int64 = 1786

	// paddedKeyReads is the number of extra entry reads the fee offset
	// covers: the four continue-branch keys plus one entry of headroom.
	paddedKeyReads = 5

	// ReadFeeOffset is added to the resource fee of a non-stopping roll.
	ReadFeeOffset = paddedKeyReads * (readEntryFee + readByteFee)

	// bytePad widens the declared read and write byte budgets.
	bytePad int64 = 1000
)

// ContinueBranchKeys lists the contract state entries touched only when a
// re-roll survives instead of busting:
//
//	TurnScore(player) -> u32
//	Dice(player)      -> Vec<u32>
//	Turn(player)      -> Address
//	Turn(opponent)    -> Address
//
// Simulation will have skipped them when it predicted a bust.
func ContinueBranchKeys(contractID string, player, opponent domain.Player) []ledger.Key {
	return []ledger.Key{
		{Contract: contractID, Kind: "TurnScore", Address: player},
		{Contract: contractID, Kind: "Dice", Address: player},
		{Contract: contractID, Kind: "Turn", Address: player},
		{Contract: contractID, Kind: "Turn", Address: opponent},
	}
}

// PadRollFootprint widens fp to tolerate either branch of a non-stopping
// roll. The continue-branch keys move into the read-write set; any copy of
// them already present in either set is filtered out first, since a key
// must not appear twice or in both sets. Fees and byte budgets grow by the
// named offsets.
func PadRollFootprint(fp *ledger.Footprint, contractID string, player, opponent domain.Player) error {
	extra := ContinueBranchKeys(contractID, player, opponent)

	drop := make(map[ledger.Key]bool, len(extra))
	for _, key := range extra {
		drop[key] = true
	}

	fp.ReadOnly = filterKeys(fp.ReadOnly, drop)
	fp.ReadWrite = append(filterKeys(fp.ReadWrite, drop), extra...)

	fp.ReadBytes += bytePad
	fp.WriteBytes += bytePad
	fp.ResourceFee += ReadFeeOffset

	return validateFootprint(fp)
}

// validateFootprint rejects a footprint that declares a key in both the
// read-only and read-write sets.
func validateFootprint(fp *ledger.Footprint) error {
	rw := make(map[ledger.Key]bool, len(fp.ReadWrite))
	for _, key := range fp.ReadWrite {
		rw[key] = true
	}
	for _, key := range fp.ReadOnly {
		if rw[key] {
			return fmt.Errorf("%w: %s(%s)", domain.ErrDoubleListed, key.Kind, key.Address)
		}
	}
	return nil
}

func filterKeys(keys []ledger.Key, drop map[ledger.Key]bool) []ledger.Key {
	out := keys[:0]
	for _, key := range keys {
		if !drop[key] {
			out = append(out, key)
		}
	}
	return out
}
