package session

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

var tracer = otel.Tracer("session")

var (
	refreshTotal       metric.Int64Counter
	guardChecksTotal   metric.Int64Counter
	requestRetries     metric.Int64Counter
	sessionsEndedTotal metric.Int64Counter
)

func init() {
	m := otel.Meter("session")

	refreshTotal, _ = m.Int64Counter("session_refresh_total",
		metric.WithDescription("Access credential refresh exchanges by outcome"))
	guardChecksTotal, _ = m.Int64Counter("session_guard_checks_total",
		metric.WithDescription("Guard checks by final state"))
	requestRetries, _ = m.Int64Counter("session_request_retries_total",
		metric.WithDescription("Requests resubmitted after a 401, by outcome"))
	sessionsEndedTotal, _ = m.Int64Counter("session_ended_total",
		metric.WithDescription("Sessions torn down by reason"))
}
