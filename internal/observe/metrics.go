// Package observe records OpenTelemetry metrics for utterance processing and
// summarizes them for the stats command.
package observe

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

const meterName = "github.com/rbright/dictum"

// Metric names.
const (
	NameUtterances      = "dictum.utterances"
	NameCancelledChars  = "dictum.cancelled_chars"
	NameShortcuts       = "dictum.shortcuts"
	NameReloads         = "dictum.reloads"
	NameProcessDuration = "dictum.process.duration"
)

// Metrics holds the instruments. All fields are safe for concurrent use.
type Metrics struct {
	// Utterances counts processed revisions by kind (partial, final).
	Utterances metric.Int64Counter
	// CancelledChars counts characters removed from committed text.
	CancelledChars metric.Int64Counter
	// Shortcuts counts injected key events.
	Shortcuts metric.Int64Counter
	// Reloads counts configuration rebuilds by status.
	Reloads metric.Int64Counter
	// ProcessDuration tracks formatting latency in milliseconds.
	ProcessDuration metric.Float64Histogram
}

var durationBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25}

// NewMetrics creates the instruments on mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.Utterances, err = m.Int64Counter(NameUtterances,
		metric.WithDescription("Processed utterance revisions by kind."),
	); err != nil {
		return nil, err
	}
	if met.CancelledChars, err = m.Int64Counter(NameCancelledChars,
		metric.WithDescription("Characters removed from committed text by cancel."),
	); err != nil {
		return nil, err
	}
	if met.Shortcuts, err = m.Int64Counter(NameShortcuts,
		metric.WithDescription("Key events emitted by final results."),
	); err != nil {
		return nil, err
	}
	if met.Reloads, err = m.Int64Counter(NameReloads,
		metric.WithDescription("Configuration rebuilds by status."),
	); err != nil {
		return nil, err
	}
	if met.ProcessDuration, err = m.Float64Histogram(NameProcessDuration,
		metric.WithDescription("Latency of formatting one utterance revision."),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(durationBuckets...),
	); err != nil {
		return nil, err
	}
	return met, nil
}

// RecordUtterance records one processed revision.
func (m *Metrics) RecordUtterance(ctx context.Context, kind string, elapsed time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("kind", kind))
	m.Utterances.Add(ctx, 1, attrs)
	m.ProcessDuration.Record(ctx, float64(elapsed.Microseconds())/1000, attrs)
}

// RecordFinal records the side effects of a committed revision.
func (m *Metrics) RecordFinal(ctx context.Context, cancelled, shortcuts int) {
	if m == nil {
		return
	}
	if cancelled > 0 {
		m.CancelledChars.Add(ctx, int64(cancelled))
	}
	if shortcuts > 0 {
		m.Shortcuts.Add(ctx, int64(shortcuts))
	}
}

// RecordReload records a configuration rebuild.
func (m *Metrics) RecordReload(ctx context.Context, status string) {
	if m == nil {
		return
	}
	m.Reloads.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

// Point is one summarized metric stream.
type Point struct {
	Name  string  `json:"name"`
	Attrs string  `json:"attrs,omitempty"`
	Value float64 `json:"value"`
	// Count is set for histograms; Value is then the mean.
	Count uint64 `json:"count,omitempty"`
}

// Summarize collects reader and flattens sums and histograms into points
// sorted by name and attributes.
func Summarize(ctx context.Context, reader *sdkmetric.ManualReader) ([]Point, error) {
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		return nil, fmt.Errorf("collect metrics: %w", err)
	}

	var points []Point
	for _, sm := range rm.ScopeMetrics {
		for _, met := range sm.Metrics {
			switch data := met.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					points = append(points, Point{
						Name:  met.Name,
						Attrs: formatAttrs(dp.Attributes),
						Value: float64(dp.Value),
					})
				}
			case metricdata.Histogram[float64]:
				for _, dp := range data.DataPoints {
					p := Point{Name: met.Name, Attrs: formatAttrs(dp.Attributes), Count: dp.Count}
					if dp.Count > 0 {
						p.Value = dp.Sum / float64(dp.Count)
					}
					points = append(points, p)
				}
			}
		}
	}

	sort.Slice(points, func(i, j int) bool {
		if points[i].Name != points[j].Name {
			return points[i].Name < points[j].Name
		}
		return points[i].Attrs < points[j].Attrs
	})
	return points, nil
}

func formatAttrs(set attribute.Set) string {
	out := ""
	iter := set.Iter()
	for iter.Next() {
		kv := iter.Attribute()
		if out != "" {
			out += ","
		}
		out += string(kv.Key) + "=" + kv.Value.Emit()
	}
	return out
}
