package sse

import "time"

// Buffer sizes
const (
	// BroadcastBufferSize is the buffer size for the broadcast channel
	BroadcastBufferSize = 100

	// ClientEventBuffer is the buffer size for each client's event channel
	ClientEventBuffer = 50

	// ClientChannelBuffer is the buffer size for register/unregister channels
	ClientChannelBuffer = 10
)

// SSE connection settings
const (
	// KeepaliveInterval is how often to send keepalive pings
	KeepaliveInterval = 30 * time.Second
)

// Notification types. Game types mirror the contract event kinds so UI
// code can filter on the wire names it already knows.
const (
	NotifyTypeMatch  = "match"
	NotifyTypeRoll   = "roll"
	NotifyTypeHold   = "reroll"
	NotifyTypeBust   = "bust"
	NotifyTypeWin    = "win"
	NotifyTypeLobby  = "lobby"
	NotifyTypeWallet = "wallet"

	// NotifyTypeConnected is the first event on every new connection.
	NotifyTypeConnected = "connected"

	// NotifyTypeKeepalive is the keepalive ping event type
	NotifyTypeKeepalive = "keepalive"
)

// Log messages
const (
	LogMsgClientConnected    = "SSE client connected"
	LogMsgClientDisconnected = "SSE client disconnected"
	LogMsgWriteError         = "Failed to write SSE event"
)
