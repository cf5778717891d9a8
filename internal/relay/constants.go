package relay

import "time"

// Wire message types
const (
	TypeJoin         = "join"
	TypeAuthRequest  = "auth_request"
	TypeAuthResponse = "auth_response"
	TypeMatchStart   = "match_start"
	TypeMatchError   = "match_error"
)

// Connection tuning
const (
	DialTimeout  = 10 * time.Second
	WriteTimeout = 10 * time.Second
)

// Log messages
const (
	LogMsgConnected         = "Connected to matchmaking relay"
	LogMsgDisconnected      = "Relay connection closed"
	LogMsgUnknownMessage    = "Unknown relay message type"
	LogMsgMalformedMessage  = "Malformed relay message"
	LogMsgAuthRequested     = "Relay requested authorization"
	LogMsgAuthHandlerFailed = "Authorization handler failed"
	LogMsgMatchStarted      = "Relay announced a match"
	LogMsgMatchError        = "Relay reported a match error"
)
