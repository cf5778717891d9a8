package server

import "time"

// HTTP settings
const (
	ReadHeaderTimeout = 5 * time.Second
	ShutdownTimeout   = 10 * time.Second

	// DefaultHistoryLimit caps the history listing when no limit is given.
	// The upper bound lives in the historyQuery validate tag.
	DefaultHistoryLimit = 20
)

// Generic HTTP error messages for client responses.
// These messages intentionally do not expose internal error details.
// Both handlers and tests should reference these constants.
const (
	ErrMsgInvalidRequest = "Invalid request body"
	ErrMsgInvalidLimit   = "Invalid limit parameter"
	ErrMsgPlayFailed     = "Failed to join matchmaking"
	ErrMsgCancelFailed   = "Failed to leave matchmaking"
	ErrMsgRollFailed     = "Failed to submit roll"
	ErrMsgHoldFailed     = "Failed to submit hold"
	ErrMsgDepositFailed  = "Failed to deposit"
	ErrMsgWithdrawFailed = "Failed to withdraw"
	ErrMsgBalanceFailed  = "Failed to read balance"
	ErrMsgHistoryFailed  = "Failed to read match history"
)

// Log messages
const (
	LogMsgServerStarting  = "UI bridge listening"
	LogMsgServerStopped   = "UI bridge stopped"
	LogMsgRequestStarted  = "Request started"
	LogMsgRequestFinished = "Request completed"
	LogMsgRequestInvalid  = "Invalid request"
)
