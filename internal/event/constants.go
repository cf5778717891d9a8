package event

// Log message constants
const (
	// LogMsgHandlerErrorFormat reports handler failures from Publish.
	LogMsgHandlerErrorFormat = "encountered %d errors while handling %s event: %v"
)
