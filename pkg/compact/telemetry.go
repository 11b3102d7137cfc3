package compact

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// InstrumentationName is the name used for OTEL instrumentation.
const InstrumentationName = "github.com/fyrsmithlabs/ctxgraph/pkg/compact"

// Metrics provides OpenTelemetry metrics for compaction runs. A nil
// *Metrics records nothing.
type Metrics struct {
	runsTotal   metric.Int64Counter
	tokensSaved metric.Int64Histogram
}

// NewMetrics creates a Metrics instance with the provided meter. If meter
// is nil, the global meter provider is used.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	if meter == nil {
		meter = otel.Meter(InstrumentationName)
	}

	m := &Metrics{}
	var err error

	m.runsTotal, err = meter.Int64Counter(
		"ctxgraph.compaction.runs.total",
		metric.WithDescription("Total number of compaction pipeline runs"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, err
	}

	m.tokensSaved, err = meter.Int64Histogram(
		"ctxgraph.compaction.tokens.saved",
		metric.WithDescription("Tokens saved per compaction run"),
		metric.WithUnit("{token}"),
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}

func (m *Metrics) recordRun(ctx context.Context, steps, tokensSaved int) {
	if m == nil {
		return
	}
	m.runsTotal.Add(ctx, 1, metric.WithAttributes(attribute.Int("steps", steps)))
	m.tokensSaved.Record(ctx, int64(tokensSaved))
}
