package domain

import "errors"

// Error message string constants - single source of truth for error messages.
// Use these in assert.Contains() checks when testing error messages.
const (
	// Decoder errors
	ErrMsgUnrecognizedEventKind = "unrecognized event kind"
	ErrMsgMalformedEvent        = "malformed event"

	// Action errors
	ErrMsgInvalidHoldSelection = "hold selection scores zero"
	ErrMsgSubmissionRejected   = "submission rejected"
	ErrMsgExecutionFailed      = "transaction execution failed"
	ErrMsgNetworkTransient     = "transient network failure"
	ErrMsgActionInFlight       = "another action is still in flight"

	// State machine errors
	ErrMsgNotYourTurn  = "not your turn"
	ErrMsgWrongPhase   = "action not allowed in current phase"
	ErrMsgMatchOver    = "match is over"
	ErrMsgNoMatch      = "no active match"
	ErrMsgBadDieIndex  = "die index out of range"
	ErrMsgEmptyHold    = "a re-roll must hold at least one die"
	ErrMsgDoubleListed = "ledger key listed as both read-only and read-write"

	// Wallet errors
	ErrMsgBadKeyEncoding = "malformed key encoding"
)

// Common domain errors.
// Wrap these with fmt.Errorf("%w: ...", domain.ErrXxx) for additional context.
var (
	// Decoder errors. A decode failure is fatal for the single event only;
	// the poller logs and skips it.
	ErrUnrecognizedEventKind = errors.New(ErrMsgUnrecognizedEventKind)
	ErrMalformedEvent        = errors.New(ErrMsgMalformedEvent)

	// ErrInvalidHoldSelection means a locally proposed hold scored zero.
	// Recovered locally: the player re-selects, nothing is submitted.
	ErrInvalidHoldSelection = errors.New(ErrMsgInvalidHoldSelection)

	// ErrSubmissionRejected means signing or pre-submit validation failed.
	// No ledger state changed; the action may be retried.
	ErrSubmissionRejected = errors.New(ErrMsgSubmissionRejected)

	// ErrExecutionFailed means the transaction reached the ledger but
	// reverted. The action did not happen and may be retried.
	ErrExecutionFailed = errors.New(ErrMsgExecutionFailed)

	// ErrNetworkTransient means connectivity failed before an outcome was
	// known. Submissions surface this to the caller; polls retry silently.
	ErrNetworkTransient = errors.New(ErrMsgNetworkTransient)

	// ErrActionInFlight enforces the one-outstanding-action rule per local
	// player.
	ErrActionInFlight = errors.New(ErrMsgActionInFlight)

	// State machine errors
	ErrNotYourTurn = errors.New(ErrMsgNotYourTurn)
	ErrWrongPhase  = errors.New(ErrMsgWrongPhase)
	ErrMatchOver   = errors.New(ErrMsgMatchOver)
	ErrNoMatch     = errors.New(ErrMsgNoMatch)
	ErrBadDieIndex = errors.New(ErrMsgBadDieIndex)
	ErrEmptyHold   = errors.New(ErrMsgEmptyHold)

	// ErrDoubleListed means a footprint merge would declare the same ledger
	// key in both the read-only and read-write sets.
	ErrDoubleListed = errors.New(ErrMsgDoubleListed)

	// ErrBadKeyEncoding means a strkey-encoded address or seed failed to
	// parse or verify its checksum.
	ErrBadKeyEncoding = errors.New(ErrMsgBadKeyEncoding)
)
