package match

import "time"

// Auto-roll behaviour. When a turn opens for the local player the
// reconciler submits the opening roll itself; a player decision is only
// needed once there are dice to hold.
const (
	AutoRollMaxAttempts = 5
	AutoRollRetryDelay  = 2 * time.Second
)

// Log messages
const (
	LogMsgMatchStarted       = "Match started"
	LogMsgEventIgnoredNoGame = "Event ignored, no active match"
	LogMsgNotAParticipant    = "Match event ignored, local player not a participant"
	LogMsgTurnOpened         = "Turn opened for local player"
	LogMsgAutoRollRetry      = "Opening roll failed, retrying"
	LogMsgAutoRollGaveUp     = "Opening roll abandoned after retries"
	LogMsgReadBackFailed     = "Score read-back failed"
	LogMsgReadBackStale      = "Score read-back discarded, state moved on"
	LogMsgReadBackApplied    = "Score read-back corrected local total"
)
