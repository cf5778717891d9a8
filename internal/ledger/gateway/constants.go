package gateway

import "time"

// HTTP settings
const (
	RequestTimeout = 30 * time.Second

	maxErrorBodyBytes = 4096
)

// Gateway endpoints
const (
	pathLatestLedger     = "/v1/ledger/latest"
	pathEvents           = "/v1/events"
	pathSimulateRoll     = "/v1/simulate/roll"
	pathSimulateDeposit  = "/v1/simulate/deposit"
	pathSimulateWithdraw = "/v1/simulate/withdraw"
	pathSubmit           = "/v1/submit"
	pathScore            = "/v1/score/"
	pathBalance          = "/v1/balance/"
)
