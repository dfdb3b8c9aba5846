package observability

import (
	"context"
	"math/big"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"milkfactory/core/events"
)

type eventMetrics struct {
	events    *prometheus.CounterVec
	transfers *prometheus.CounterVec
	claims    *prometheus.CounterVec
	supply    *prometheus.GaugeVec

	// OTLP counterparts, bound to whichever meter provider telemetry
	// installs; no-ops until then.
	emitted metric.Int64Counter
	claimed metric.Int64Counter
}

var (
	eventMetricsOnce sync.Once
	eventRegistry    *eventMetrics
)

// Events returns the metrics registry tracking structured ledger events. The
// registry implements events.Emitter so it can sit next to the audit sink.
func Events() *eventMetrics {
	eventMetricsOnce.Do(func() {
		eventRegistry = &eventMetrics{
			events: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "milkfactory",
				Subsystem: "events",
				Name:      "emitted_total",
				Help:      "Count of committed events segmented by type.",
			}, []string{"type"}),
			transfers: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "milkfactory",
				Subsystem: "events",
				Name:      "transfers_total",
				Help:      "Count of fungible transfers segmented by asset and kind.",
			}, []string{"asset", "kind"}),
			claims: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "milkfactory",
				Subsystem: "events",
				Name:      "daily_claims_total",
				Help:      "Count of resolved daily claims segmented by reward type and rarity.",
			}, []string{"type", "rarity"}),
			supply: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Namespace: "milkfactory",
				Subsystem: "events",
				Name:      "token_supply",
				Help:      "Latest observed total supply per token.",
			}, []string{"token"}),
		}
		meter := otel.Meter("milkfactory/events")
		eventRegistry.emitted, _ = meter.Int64Counter("milkfactory.events.emitted",
			metric.WithDescription("Committed events by type."))
		eventRegistry.claimed, _ = meter.Int64Counter("milkfactory.claims.resolved",
			metric.WithDescription("Resolved daily claims by reward type and rarity."))
		prometheus.MustRegister(
			eventRegistry.events,
			eventRegistry.transfers,
			eventRegistry.claims,
			eventRegistry.supply,
		)
	})
	return eventRegistry
}

// Emit implements events.Emitter.
func (m *eventMetrics) Emit(evt events.Event) {
	if m == nil || evt == nil {
		return
	}
	ctx := context.Background()
	m.events.WithLabelValues(evt.EventType()).Inc()
	if m.emitted != nil {
		m.emitted.Add(ctx, 1, metric.WithAttributes(attribute.String("type", evt.EventType())))
	}
	switch e := evt.(type) {
	case events.Transfer:
		kind := "transfer"
		if e.IsMint() {
			kind = "mint"
		} else if e.IsBurn() {
			kind = "burn"
		}
		m.RecordTransfer(e.Asset, kind)
	case events.DailyClaim:
		m.claims.WithLabelValues(e.Type, e.Rarity).Inc()
		if m.claimed != nil {
			m.claimed.Add(ctx, 1, metric.WithAttributes(
				attribute.String("type", e.Type),
				attribute.String("rarity", e.Rarity),
			))
		}
	case events.TokenSupply:
		m.supply.WithLabelValues(normalizeAsset(e.Token)).Set(approxFloat(e.Total))
	}
}

// RecordTransfer increments the transfer counter for the supplied asset ticker.
func (m *eventMetrics) RecordTransfer(asset, kind string) {
	if m == nil {
		return
	}
	m.transfers.WithLabelValues(normalizeAsset(asset), kind).Inc()
}

func normalizeAsset(asset string) string {
	normalized := strings.TrimSpace(strings.ToUpper(asset))
	if normalized == "" {
		normalized = "UNKNOWN"
	}
	return normalized
}

func approxFloat(v *big.Int) float64 {
	if v == nil {
		return 0
	}
	f, _ := new(big.Float).SetInt(v).Float64()
	return f
}
