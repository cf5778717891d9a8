package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metric names
const (
	MetricNamePollsTotal        = "farkle_ledger_polls_total"
	MetricNamePollSkips         = "farkle_ledger_poll_skips_total"
	MetricNamePollFailures      = "farkle_ledger_poll_failures_total"
	MetricNameEventsDecoded     = "farkle_events_decoded_total"
	MetricNameDecodeFailures    = "farkle_event_decode_failures_total"
	MetricNameDuplicateEvents   = "farkle_duplicate_events_total"
	MetricNameSubmissionsTotal  = "farkle_submissions_total"
	MetricNameNotificationsSent = "farkle_ui_notifications_total"

	MetricNameHTTPRequestsTotal   = "farkle_http_requests_total"
	MetricNameHTTPRequestDuration = "farkle_http_request_duration_seconds"
)

// Help text
const (
	HelpTextPollsTotal        = "Number of ledger poll ticks that fetched events"
	HelpTextPollSkips         = "Number of poll ticks skipped because the ledger had not advanced"
	HelpTextPollFailures      = "Number of poll ticks that failed transiently"
	HelpTextEventsDecoded     = "Number of contract events decoded, by kind"
	HelpTextDecodeFailures    = "Number of contract events that failed to decode and were skipped"
	HelpTextDuplicateEvents   = "Number of already-seen contract events dropped by the poller"
	HelpTextSubmissionsTotal  = "Number of settled transaction submissions, by function and outcome"
	HelpTextNotificationsSent = "Number of notifications broadcast to UI subscribers, by type"

	HelpTextHTTPRequestsTotal   = "Number of HTTP requests served by the UI bridge"
	HelpTextHTTPRequestDuration = "HTTP request latency for the UI bridge"
)

// Label names
const (
	LabelKind     = "kind"
	LabelFunction = "function"
	LabelOutcome  = "outcome"
	LabelType     = "type"
	LabelMethod   = "method"
	LabelPath     = "path"
	LabelStatus   = "status"
)

// HTTPLatencyBuckets suits a local bridge: sub-millisecond to a few seconds.
var HTTPLatencyBuckets = prometheus.ExponentialBuckets(0.0005, 4, 8)
