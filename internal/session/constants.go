package session

// AuthLedgerLookahead is added to the relay-reported latest ledger to set
// the auth signature's validity horizon: one minute of five-second
// ledgers.
const AuthLedgerLookahead uint32 = 60 / 5

// MatchIDSeparator splits the relay's "<id>|<opponent>" announcement.
const MatchIDSeparator = "|"

// Lobby notification payloads
const (
	LobbyStatusSearching = "searching"
	LobbyStatusMatched   = "matched"
	LobbyStatusError     = "error"
	LobbyStatusCancelled = "cancelled"
)

// Log messages
const (
	LogMsgJoinedQueue        = "Joined the matchmaking queue"
	LogMsgQueueCancelled     = "Left the matchmaking queue"
	LogMsgMatchEngaged       = "Match engaged"
	LogMsgMalformedMatchID   = "Malformed match announcement"
	LogMsgPollerStartFailed  = "Event poller failed to start"
	LogMsgMatchRecorded      = "Match recorded to history"
	LogMsgMatchRecordFailed  = "Failed to record match"
	LogMsgSessionClosed      = "Session closed"
	LogMsgRelayAlreadyActive = "Already queued or in a match"
)
