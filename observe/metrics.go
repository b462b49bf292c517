package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records fragment cache activity.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: must honor cancellation/deadlines and return quickly.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordLookup records a hit test with its outcome (hit, stale_miss, fresh_miss).
	RecordLookup(ctx context.Context, meta FragmentMeta, outcome string, duration time.Duration)

	// RecordCommit records a stored fragment and its size in bytes.
	RecordCommit(ctx context.Context, meta FragmentMeta, size int)

	// RecordPurge records a bulk purge for tenant.
	RecordPurge(ctx context.Context, tenant string, keys, failures int)

	// RecordBackendError records a swallowed backend failure for op (get, set, delete).
	RecordBackendError(ctx context.Context, meta FragmentMeta, op string)
}

type metricsImpl struct {
	lookups       metric.Int64Counter
	lookupLatency metric.Float64Histogram
	commits       metric.Int64Counter
	commitBytes   metric.Int64Histogram
	purgedKeys    metric.Int64Counter
	backendErrors metric.Int64Counter
}

// NewMetrics creates a Metrics instance with instruments from meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	return newMetrics(meter)
}

func newMetrics(meter metric.Meter) (*metricsImpl, error) {
	lookups, err := meter.Int64Counter(
		"fragment.lookups",
		metric.WithDescription("Fragment hit tests by outcome"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, err
	}

	lookupLatency, err := meter.Float64Histogram(
		"fragment.lookup.duration_ms",
		metric.WithDescription("Fragment hit test duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	commits, err := meter.Int64Counter(
		"fragment.commits",
		metric.WithDescription("Fragments captured and stored"),
		metric.WithUnit("{fragment}"),
	)
	if err != nil {
		return nil, err
	}

	commitBytes, err := meter.Int64Histogram(
		"fragment.commit.bytes",
		metric.WithDescription("Size of stored fragment content"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	purgedKeys, err := meter.Int64Counter(
		"fragment.purged.keys",
		metric.WithDescription("Index entries processed by bulk purge"),
		metric.WithUnit("{key}"),
	)
	if err != nil {
		return nil, err
	}

	backendErrors, err := meter.Int64Counter(
		"fragment.backend.errors",
		metric.WithDescription("Backend failures absorbed by the fragment engine"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		lookups:       lookups,
		lookupLatency: lookupLatency,
		commits:       commits,
		commitBytes:   commitBytes,
		purgedKeys:    purgedKeys,
		backendErrors: backendErrors,
	}, nil
}

// metricAttrs keeps cardinality bounded: keys are per-render and stay out.
func metricAttrs(meta FragmentMeta, extra ...attribute.KeyValue) metric.MeasurementOption {
	attrs := make([]attribute.KeyValue, 0, 2+len(extra))
	if meta.Tenant != "" {
		attrs = append(attrs, attribute.String(AttrTenant, meta.Tenant))
	}
	if meta.Site != "" {
		attrs = append(attrs, attribute.String(AttrSite, meta.Site))
	}
	attrs = append(attrs, extra...)
	return metric.WithAttributes(attrs...)
}

func (m *metricsImpl) RecordLookup(ctx context.Context, meta FragmentMeta, outcome string, duration time.Duration) {
	opt := metricAttrs(meta, attribute.String(AttrOutcome, outcome))
	m.lookups.Add(ctx, 1, opt)
	m.lookupLatency.Record(ctx, float64(duration.Microseconds())/1000, opt)
}

func (m *metricsImpl) RecordCommit(ctx context.Context, meta FragmentMeta, size int) {
	opt := metricAttrs(meta)
	m.commits.Add(ctx, 1, opt)
	m.commitBytes.Record(ctx, int64(size), opt)
}

func (m *metricsImpl) RecordPurge(ctx context.Context, tenant string, keys, failures int) {
	m.purgedKeys.Add(ctx, int64(keys), metricAttrs(FragmentMeta{Tenant: tenant}, attribute.Bool(AttrError, false)))
	if failures > 0 {
		m.purgedKeys.Add(ctx, int64(failures), metricAttrs(FragmentMeta{Tenant: tenant}, attribute.Bool(AttrError, true)))
	}
}

func (m *metricsImpl) RecordBackendError(ctx context.Context, meta FragmentMeta, op string) {
	m.backendErrors.Add(ctx, 1, metricAttrs(meta, attribute.String(AttrOp, op)))
}

type noopMetrics struct{}

func (noopMetrics) RecordLookup(context.Context, FragmentMeta, string, time.Duration) {}
func (noopMetrics) RecordCommit(context.Context, FragmentMeta, int)                   {}
func (noopMetrics) RecordPurge(context.Context, string, int, int)                     {}
func (noopMetrics) RecordBackendError(context.Context, FragmentMeta, string)          {}
