package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"net"
	"time"

	"github.com/couchcryptid/flood-risk-service/internal/domain"
	"github.com/couchcryptid/flood-risk-service/internal/observability"
)

// Fetcher resolves live rainfall for one coordinate and never fails: any
// lookup problem yields a degraded fallback sample. It holds no per-request
// state and is safe for concurrent use.
type Fetcher struct {
	provider domain.WeatherProvider
	timeout  time.Duration
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewFetcher creates a Fetcher. A nil provider marks every sample degraded
// with FailureDisabled.
func NewFetcher(provider domain.WeatherProvider, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Fetcher {
	return &Fetcher{
		provider: provider,
		timeout:  timeout,
		logger:   logger,
		metrics:  metrics,
	}
}

// Fetch performs a single bounded lookup for c.
func (f *Fetcher) Fetch(ctx context.Context, c domain.Coordinate) domain.EnvironmentalSample {
	if f.provider == nil {
		f.metrics.FetchTotal.WithLabelValues(string(domain.FailureDisabled)).Inc()
		return domain.DegradedSample(domain.FailureDisabled)
	}

	fetchCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	start := time.Now()
	rain, err := f.provider.Rainfall(fetchCtx, c)
	f.metrics.FetchDuration.Observe(time.Since(start).Seconds())

	if err == nil && (math.IsNaN(rain) || math.IsInf(rain, 0) || rain < 0) {
		err = &domain.FetchError{Kind: domain.FailureMalformed, Err: errors.New("rainfall is not a non-negative number")}
	}
	if err != nil {
		kind := classifyFailure(ctx, err)
		f.logger.Warn("rainfall lookup degraded, using fallback",
			"lat", c.Lat,
			"lon", c.Lon,
			"failure", kind,
			"error", err,
		)
		f.metrics.FetchTotal.WithLabelValues(string(kind)).Inc()
		return domain.DegradedSample(kind)
	}

	f.metrics.FetchTotal.WithLabelValues("ok").Inc()
	return domain.EnvironmentalSample{RainfallMM: rain}
}

// classifyFailure maps a provider error to a FailureKind. parent is the
// request context, used to tell caller cancellation apart from our own
// per-point deadline.
func classifyFailure(parent context.Context, err error) domain.FailureKind {
	if parent.Err() != nil {
		return domain.FailureCancelled
	}
	var fe *domain.FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.FailureTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return domain.FailureTimeout
	}
	return domain.FailureNetwork
}
