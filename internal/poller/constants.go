package poller

import "time"

// Polling configuration
const (
	// DefaultPollInterval matches the cadence at which new ledgers close.
	DefaultPollInterval = 1500 * time.Millisecond

	// BootstrapLedgerWindow is how many recent ledgers the first fetch
	// covers before a cursor exists.
	BootstrapLedgerWindow = 10

	// FetchLimit caps the number of events per fetch.
	FetchLimit = 100

	// SeenCacheSize bounds the duplicate-event guard. A match produces a
	// handful of events per ledger; this covers hours of play.
	SeenCacheSize = 512
)

// Error messages
const (
	ErrMsgNotRestartable = "poller streams are not restartable"
)

// Log messages
const (
	LogMsgLatestLedgerFailed = "Latest ledger lookup failed, retrying next tick"
	LogMsgFetchFailed        = "Event fetch failed, retrying next tick"
	LogMsgDecodeFailed       = "Skipping undecodable contract event"
	LogMsgPublishFailed      = "Event handler failed"
)
