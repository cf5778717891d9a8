// Package metrics exposes Prometheus collectors for the reconciliation
// engine and the UI bridge.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Poller metrics
var (
	PollsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: MetricNamePollsTotal,
		Help: HelpTextPollsTotal,
	})

	PollSkips = promauto.NewCounter(prometheus.CounterOpts{
		Name: MetricNamePollSkips,
		Help: HelpTextPollSkips,
	})

	PollFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: MetricNamePollFailures,
		Help: HelpTextPollFailures,
	})

	EventsDecoded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: MetricNameEventsDecoded,
		Help: HelpTextEventsDecoded,
	}, []string{LabelKind})

	DecodeFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: MetricNameDecodeFailures,
		Help: HelpTextDecodeFailures,
	})

	DuplicateEvents = promauto.NewCounter(prometheus.CounterOpts{
		Name: MetricNameDuplicateEvents,
		Help: HelpTextDuplicateEvents,
	})
)

// Submission metrics
var (
	SubmissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: MetricNameSubmissionsTotal,
		Help: HelpTextSubmissionsTotal,
	}, []string{LabelFunction, LabelOutcome})
)

// UI bridge metrics
var (
	NotificationsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: MetricNameNotificationsSent,
		Help: HelpTextNotificationsSent,
	}, []string{LabelType})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: MetricNameHTTPRequestsTotal,
		Help: HelpTextHTTPRequestsTotal,
	}, []string{LabelMethod, LabelPath, LabelStatus})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    MetricNameHTTPRequestDuration,
		Help:    HelpTextHTTPRequestDuration,
		Buckets: HTTPLatencyBuckets,
	}, []string{LabelMethod, LabelPath})
)
