// Package observe holds the OpenTelemetry instruments the narrator records.
//
// Instruments are created from a metric.MeterProvider. Production code uses
// the global provider (a no-op unless one is installed); tests and the
// replay command use an sdk provider with a ManualReader.
package observe

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "focusnarrator"

// Suppression reasons recorded on UtterancesSuppressed.
const (
	ReasonDisabled    = "disabled"
	ReasonUnavailable = "unavailable"
	ReasonPointer     = "pointer"
	ReasonEmpty       = "empty"
)

// Metrics holds every instrument. All fields are safe for concurrent use.
type Metrics struct {
	// UtterancesSpoken counts texts handed to the speech engine.
	UtterancesSpoken metric.Int64Counter

	// UtterancesCancelled counts in-flight utterances cut off by a newer one.
	UtterancesCancelled metric.Int64Counter

	// UtterancesSuppressed counts narration that never reached the engine.
	// Use with attribute.String("reason", ...).
	UtterancesSuppressed metric.Int64Counter

	// Announcements counts live region writes.
	// Use with attribute.String("region", ...).
	Announcements metric.Int64Counter

	// EngineErrors counts failures returned by the speech engine.
	EngineErrors metric.Int64Counter
}

// NewMetrics creates all instruments from mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.UtterancesSpoken, err = m.Int64Counter("narrator.utterances.spoken",
		metric.WithDescription("Utterances sent to the speech engine."),
	); err != nil {
		return nil, err
	}
	if met.UtterancesCancelled, err = m.Int64Counter("narrator.utterances.cancelled",
		metric.WithDescription("Utterances cancelled before or during playback."),
	); err != nil {
		return nil, err
	}
	if met.UtterancesSuppressed, err = m.Int64Counter("narrator.utterances.suppressed",
		metric.WithDescription("Narration requests dropped before reaching the engine."),
	); err != nil {
		return nil, err
	}
	if met.Announcements, err = m.Int64Counter("narrator.announcements",
		metric.WithDescription("Text written into live regions."),
	); err != nil {
		return nil, err
	}
	if met.EngineErrors, err = m.Int64Counter("narrator.engine.errors",
		metric.WithDescription("Errors returned by the speech engine."),
	); err != nil {
		return nil, err
	}
	return met, nil
}

// Default returns instruments from the global MeterProvider. Instrument
// creation on the global provider does not fail in practice; if it does,
// a no-op set is returned.
func Default() *Metrics {
	m, err := NewMetrics(otel.GetMeterProvider())
	if err != nil {
		return Noop()
	}
	return m
}

// Suppressed records one dropped narration with its reason.
func (m *Metrics) Suppressed(ctx context.Context, reason string) {
	m.UtterancesSuppressed.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

// Announced records one live region write.
func (m *Metrics) Announced(ctx context.Context, region string) {
	m.Announcements.Add(ctx, 1, metric.WithAttributes(attribute.String("region", region)))
}
