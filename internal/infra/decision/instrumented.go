package decision

import (
	"context"
	"time"

	"github.com/hrops/registry/internal/pipeline/metrics"
)

// Instrumented records call counts and latency for a wrapped classifier.
type Instrumented struct {
	inner    Classifier
	provider string
}

func NewInstrumented(inner Classifier, provider string) *Instrumented {
	return &Instrumented{inner: inner, provider: provider}
}

func (i *Instrumented) Classify(ctx context.Context, rec Context) (*Decision, error) {
	start := time.Now()
	d, err := i.inner.Classify(ctx, rec)
	metrics.DecisionLatency.WithLabelValues(i.provider).Observe(time.Since(start).Seconds())

	result := "ok"
	if err != nil {
		result = "error"
	}
	metrics.DecisionCalls.WithLabelValues(i.provider, result).Inc()
	return d, err
}
