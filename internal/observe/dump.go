package observe

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// Recorder pairs Metrics with an in-process reader so counters can be
// printed at the end of a run.
type Recorder struct {
	*Metrics
	reader   *sdkmetric.ManualReader
	provider *sdkmetric.MeterProvider
}

// NewRecorder creates Metrics backed by an sdk MeterProvider.
func NewRecorder() (*Recorder, error) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := NewMetrics(mp)
	if err != nil {
		return nil, err
	}
	return &Recorder{Metrics: m, reader: reader, provider: mp}, nil
}

// Totals returns every counter data point keyed by metric name plus its
// sorted attributes, e.g. "narrator.utterances.suppressed{reason=pointer}".
func (r *Recorder) Totals(ctx context.Context) (map[string]int64, error) {
	var rm metricdata.ResourceMetrics
	if err := r.reader.Collect(ctx, &rm); err != nil {
		return nil, fmt.Errorf("failed to collect metrics: %w", err)
	}

	totals := make(map[string]int64)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range sum.DataPoints {
				key := m.Name
				if dp.Attributes.Len() > 0 {
					var attrs []string
					for _, kv := range dp.Attributes.ToSlice() {
						attrs = append(attrs, string(kv.Key)+"="+kv.Value.Emit())
					}
					sort.Strings(attrs)
					key += "{" + strings.Join(attrs, ",") + "}"
				}
				totals[key] += dp.Value
			}
		}
	}
	return totals, nil
}

// Print writes totals in name order.
func (r *Recorder) Print(ctx context.Context, w io.Writer) error {
	totals, err := r.Totals(ctx)
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(totals))
	for k := range totals {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "%s %d\n", k, totals[k])
	}
	return nil
}

// Shutdown releases the provider.
func (r *Recorder) Shutdown(ctx context.Context) error {
	return r.provider.Shutdown(ctx)
}
