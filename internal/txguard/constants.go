package txguard

// Log messages
const (
	LogMsgSubmitIndeterminate = "Submission settled without an execution outcome"
	LogMsgDiagnosticEvent     = "Contract diagnostic event"
)
