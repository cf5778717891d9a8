// Package ledger defines the capabilities the client consumes from the
// blockchain: querying contract events and invoking contract functions.
// Implementations own the wire codec; everything above this package works
// with native Go values only.
package ledger

import (
	"context"

	"github.com/farklezone/farkle-client/internal/domain"
)

// RawEvent is one contract event as returned by the query capability.
// Topics and Data hold codec-translated native values; interpreting their
// shape is the event decoder's job.
type RawEvent struct {
	// ID uniquely identifies the event within the ledger's history.
	ID string

	// LedgerSeq is the sequence number of the ledger that recorded the
	// event. Monotonically non-decreasing within a page.
	LedgerSeq uint32

	Topics []any
	Data   any
}

// EventFilter selects contract events by contract identity and by the
// player addresses indexed in the second topic position. The remote source
// applies the filter; the poller does not re-filter client-side.
type EventFilter struct {
	ContractID string
	Players    []domain.Player
}

// EventPage is one page of filtered events plus the pagination cursor to
// resume strictly after it.
type EventPage struct {
	Events       []RawEvent
	Cursor       string
	LatestLedger uint32
}

// QueryClient is the ledger query capability.
type QueryClient interface {
	// GetLatestLedgerSequence returns the sequence of the most recently
	// closed ledger.
	GetLatestLedgerSequence(ctx context.Context) (uint32, error)

	// GetEvents returns events matching filter in ledger arrival order.
	// When cursor is empty the range starts at startLedger; otherwise
	// results begin strictly after the cursor.
	GetEvents(ctx context.Context, filter EventFilter, cursor string, startLedger uint32, limit int) (EventPage, error)
}

// Key identifies one contract state entry in a transaction footprint.
type Key struct {
	Contract string `json:"contract"`

	// Kind names the contract storage enum variant, e.g. "Turn" or "Dice".
	Kind string `json:"kind"`

	// Address is the player the entry is keyed by.
	Address domain.Player `json:"address"`
}

// Footprint is the declared resource usage of a simulated transaction: the
// state keys it touches and the fee it is willing to pay.
type Footprint struct {
	ReadOnly     []Key `json:"read_only"`
	ReadWrite    []Key `json:"read_write"`
	Instructions int64 `json:"instructions"`
	ReadBytes    int64 `json:"read_bytes"`
	WriteBytes   int64 `json:"write_bytes"`
	ResourceFee  int64 `json:"resource_fee"`
}

// AssembledTx is a simulated, signable, not yet submitted contract
// invocation. The footprint reflects the branch the simulation took; the
// submission guard may widen it before Submit.
type AssembledTx struct {
	Function  string
	Args      []any
	Footprint Footprint

	// SimResult is the return value the simulation predicted.
	SimResult any
}

// TxStatus is the terminal status of a submitted transaction.
type TxStatus string

// Transaction statuses
const (
	TxStatusSuccess TxStatus = "SUCCESS"
	TxStatusFailed  TxStatus = "FAILED"
)

// TxResult is the settled outcome of a submitted transaction.
type TxResult struct {
	Status      TxStatus
	ReturnValue any

	// Diagnostics carries contract diagnostic output for failed
	// transactions, opaque to this client beyond logging and display.
	Diagnostics []string
}

// Invoker is the contract invocation capability. Simulate* calls dry-run
// the invocation and return its predicted result and footprint; Submit
// signs and sends the assembled transaction and awaits settlement.
type Invoker interface {
	SimulateRoll(ctx context.Context, player domain.Player, save []int, stop bool) (*AssembledTx, error)
	SimulateDeposit(ctx context.Context, to domain.Player, amount int64) (*AssembledTx, error)
	SimulateWithdraw(ctx context.Context, from domain.Player) (*AssembledTx, error)
	Submit(ctx context.Context, tx *AssembledTx) (*TxResult, error)
}

// ScoreReader reads authoritative game state without submitting anything.
type ScoreReader interface {
	// ReadScore returns player's banked total as recorded on the ledger.
	ReadScore(ctx context.Context, player domain.Player) (int, error)

	// ReadBalance returns player's in-game balance in smallest units.
	// A player with no deposit reads as zero.
	ReadBalance(ctx context.Context, player domain.Player) (int64, error)
}
