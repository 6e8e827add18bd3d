package llm

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/joseph-ayodele/immigration-docs/vision"

type visionMetrics struct {
	requestCount    metric.Int64Counter
	requestDuration metric.Float64Histogram
	requestErrors   metric.Int64Counter
	cacheHits       metric.Int64Counter
}

var (
	metricsOnce sync.Once
	metrics     *visionMetrics
)

func ensureMetrics() *visionMetrics {
	metricsOnce.Do(func() {
		meter := otel.Meter(meterName)

		requestCount, err := meter.Int64Counter(
			"vision.request.count",
			metric.WithDescription("Number of vision model requests"),
		)
		if err != nil {
			return
		}
		requestDuration, err := meter.Float64Histogram(
			"vision.request.duration",
			metric.WithDescription("Vision request duration in milliseconds"),
			metric.WithUnit("ms"),
		)
		if err != nil {
			return
		}
		requestErrors, err := meter.Int64Counter(
			"vision.request.errors",
			metric.WithDescription("Number of failed vision requests"),
		)
		if err != nil {
			return
		}
		cacheHits, err := meter.Int64Counter(
			"vision.cache.hits",
			metric.WithDescription("Vision answers served from cache"),
		)
		if err != nil {
			return
		}
		metrics = &visionMetrics{
			requestCount:    requestCount,
			requestDuration: requestDuration,
			requestErrors:   requestErrors,
			cacheHits:       cacheHits,
		}
	})
	return metrics
}

func recordRequest(ctx context.Context, provider, model, docType string, duration time.Duration, err error) {
	m := ensureMetrics()
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("ai.provider", provider),
		attribute.String("ai.model", model),
		attribute.String("document.type", docType),
	)
	m.requestCount.Add(ctx, 1, attrs)
	m.requestDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
	if err != nil {
		m.requestErrors.Add(ctx, 1, attrs)
	}
}

func recordCacheHit(ctx context.Context, provider string) {
	if m := ensureMetrics(); m != nil {
		m.cacheHits.Add(ctx, 1, metric.WithAttributes(attribute.String("ai.provider", provider)))
	}
}
