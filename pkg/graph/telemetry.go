package graph

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/fyrsmithlabs/ctxgraph/pkg/block"
)

// InstrumentationName is the name used for OTEL instrumentation.
const InstrumentationName = "github.com/fyrsmithlabs/ctxgraph/pkg/graph"

// Metrics provides OpenTelemetry metrics for graph operations. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	blocksAddedTotal   metric.Int64Counter
	blocksRemovedTotal metric.Int64Counter
	viewsCreatedTotal  metric.Int64Counter
	viewBlockCount     metric.Int64Histogram
}

// NewMetrics creates a Metrics instance with the provided meter. If meter
// is nil, the global meter provider is used.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	if meter == nil {
		meter = otel.Meter(InstrumentationName)
	}

	m := &Metrics{}
	var err error

	m.blocksAddedTotal, err = meter.Int64Counter(
		"ctxgraph.block.added.total",
		metric.WithDescription("Total number of blocks added to the graph"),
		metric.WithUnit("{block}"),
	)
	if err != nil {
		return nil, err
	}

	m.blocksRemovedTotal, err = meter.Int64Counter(
		"ctxgraph.block.removed.total",
		metric.WithDescription("Total number of blocks removed from the graph"),
		metric.WithUnit("{block}"),
	)
	if err != nil {
		return nil, err
	}

	m.viewsCreatedTotal, err = meter.Int64Counter(
		"ctxgraph.view.created.total",
		metric.WithDescription("Total number of views materialized"),
		metric.WithUnit("{view}"),
	)
	if err != nil {
		return nil, err
	}

	m.viewBlockCount, err = meter.Int64Histogram(
		"ctxgraph.view.block.count",
		metric.WithDescription("Number of blocks per materialized view"),
		metric.WithUnit("{block}"),
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}

func (m *Metrics) recordBlockAdded(ctx context.Context, kind block.Kind) {
	if m == nil {
		return
	}
	m.blocksAddedTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", string(kind)),
	))
}

func (m *Metrics) recordBlockRemoved(ctx context.Context) {
	if m == nil {
		return
	}
	m.blocksRemovedTotal.Add(ctx, 1)
}

func (m *Metrics) recordViewCreated(ctx context.Context, blocks int, truncated bool) {
	if m == nil {
		return
	}
	m.viewsCreatedTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.Bool("truncated", truncated),
	))
	m.viewBlockCount.Record(ctx, int64(blocks))
}
