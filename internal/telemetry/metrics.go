package telemetry

import (
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName = "github.com/meridianaudio/meridian"
)

// Metrics holds all the OpenTelemetry metric instruments
type Metrics struct {
	// Workflow metrics
	TransitionsTotal       metric.Int64Counter
	RejectedTransitions    metric.Int64Counter
	PurgedObjectsTotal     metric.Int64Counter
	NotificationsSentTotal metric.Int64Counter

	// Auth metrics
	LoginsTotal       metric.Int64Counter
	AuthFailuresTotal metric.Int64Counter

	// HTTP metrics
	RequestDuration metric.Float64Histogram
}

var (
	once    sync.Once
	metrics *Metrics
)

// GetMetrics returns the singleton Metrics instance, initializing it if necessary
func GetMetrics() *Metrics {
	once.Do(func() {
		metrics = initMetrics()
	})
	return metrics
}

// initMetrics creates and registers all metric instruments
func initMetrics() *Metrics {
	meter := otel.GetMeterProvider().Meter(meterName)

	m := &Metrics{}

	m.TransitionsTotal, _ = meter.Int64Counter(
		"meridian.releases.transitions.total",
		metric.WithDescription("Total number of committed release status transitions"),
		metric.WithUnit("{transition}"),
	)

	m.RejectedTransitions, _ = meter.Int64Counter(
		"meridian.releases.transitions.rejected.total",
		metric.WithDescription("Total number of transition requests refused by the state machine"),
		metric.WithUnit("{transition}"),
	)

	m.PurgedObjectsTotal, _ = meter.Int64Counter(
		"meridian.releases.purged_objects.total",
		metric.WithDescription("Total number of audio objects deleted by asset purges"),
		metric.WithUnit("{object}"),
	)

	m.NotificationsSentTotal, _ = meter.Int64Counter(
		"meridian.notifications.sent.total",
		metric.WithDescription("Total number of outbound notification emails sent"),
		metric.WithUnit("{email}"),
	)

	m.LoginsTotal, _ = meter.Int64Counter(
		"meridian.auth.logins.total",
		metric.WithDescription("Total number of successful logins"),
		metric.WithUnit("{login}"),
	)

	m.AuthFailuresTotal, _ = meter.Int64Counter(
		"meridian.auth.failures.total",
		metric.WithDescription("Total number of failed authentication attempts"),
		metric.WithUnit("{failure}"),
	)

	m.RequestDuration, _ = meter.Float64Histogram(
		"meridian.http.request.duration",
		metric.WithDescription("Duration of HTTP requests"),
		metric.WithUnit("ms"),
	)

	return m
}
