package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/couchcryptid/flood-risk-service/internal/domain"
	"github.com/couchcryptid/flood-risk-service/internal/observability"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"
)

// Publisher ships a finished report downstream.
type Publisher interface {
	Publish(ctx context.Context, report domain.RiskReport) error
}

// DefaultPublishTimeout bounds report publishing when Options leaves it unset.
const DefaultPublishTimeout = 2 * time.Second

// Options are the assessment defaults applied when a request leaves them out.
type Options struct {
	Pattern           domain.Pattern
	Offset            float64
	FanoutLimit       int
	DefaultCovariates domain.Covariates
	// PublishTimeout caps how long a response waits on the publisher.
	PublishTimeout time.Duration
}

// Request is one assessment request. Nil Offset and empty Pattern take the
// configured defaults.
type Request struct {
	Query
	Pattern domain.Pattern
	Offset  *float64
}

// Assessor runs the grid, fetch, classify, aggregate and assemble stages for
// one request. It keeps no per-request state and serves concurrent requests.
type Assessor struct {
	locator    *Locator
	fetcher    *Fetcher
	covariates domain.CovariateSource
	classifier domain.Classifier
	publisher  Publisher
	clock      clockwork.Clock
	opts       Options
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// Deps groups the collaborators of an Assessor. Covariates and Publisher may
// be nil.
type Deps struct {
	Locator    *Locator
	Fetcher    *Fetcher
	Covariates domain.CovariateSource
	Classifier domain.Classifier
	Publisher  Publisher
	Clock      clockwork.Clock
}

// New creates an Assessor.
func New(deps Deps, opts Options, logger *slog.Logger, metrics *observability.Metrics) *Assessor {
	if opts.FanoutLimit < 1 {
		opts.FanoutLimit = 1
	}
	if opts.Pattern == "" {
		opts.Pattern = domain.PatternCross5
	}
	if opts.PublishTimeout <= 0 {
		opts.PublishTimeout = DefaultPublishTimeout
	}
	clock := deps.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Assessor{
		locator:    deps.Locator,
		fetcher:    deps.Fetcher,
		covariates: deps.Covariates,
		classifier: deps.Classifier,
		publisher:  deps.Publisher,
		clock:      clock,
		opts:       opts,
		logger:     logger,
		metrics:    metrics,
	}
}

// CheckReadiness returns nil once a classifier is wired in.
func (a *Assessor) CheckReadiness(_ context.Context) error {
	if a.classifier == nil {
		return errors.New("classifier not loaded")
	}
	return nil
}

// Assess resolves the request's center and produces a report.
func (a *Assessor) Assess(ctx context.Context, req Request) (domain.RiskReport, error) {
	start := time.Now()
	report, err := a.assess(ctx, req)
	a.metrics.Assessments.WithLabelValues(outcome(err)).Inc()
	if err != nil {
		return domain.RiskReport{}, err
	}
	a.metrics.AssessmentDuration.Observe(time.Since(start).Seconds())
	a.metrics.PointsPerReport.Observe(float64(len(report.Entries)))
	return report, nil
}

func (a *Assessor) assess(ctx context.Context, req Request) (domain.RiskReport, error) {
	if a.classifier == nil {
		return domain.RiskReport{}, domain.ErrModelUnavailable
	}

	pattern := req.Pattern
	if pattern == "" {
		pattern = a.opts.Pattern
	}
	offset := a.opts.Offset
	if req.Offset != nil {
		offset = *req.Offset
	}

	center, zone, err := a.locator.Resolve(ctx, req.Query)
	if err != nil {
		return domain.RiskReport{}, err
	}

	coords, err := domain.GenerateGrid(center, offset, pattern)
	if err != nil {
		return domain.RiskReport{}, err
	}

	entries, err := a.sample(ctx, coords)
	if err != nil {
		return domain.RiskReport{}, err
	}

	report := domain.Assemble(entries)
	report.Center = center
	report.Zone = zone
	report.Pattern = pattern
	report.GeneratedAt = a.clock.Now().UTC()

	a.logger.Info("assessment complete",
		"lat", center.Lat,
		"lon", center.Lon,
		"zone", zone,
		"pattern", pattern,
		"points", len(entries),
		"degraded", report.DegradedCount(),
	)

	a.publish(ctx, report)
	return report, nil
}

// sample fans the per-point work out to at most FanoutLimit goroutines. Each
// worker writes only its own index, so results keep grid order regardless of
// completion order.
func (a *Assessor) sample(ctx context.Context, coords []domain.Coordinate) ([]domain.RiskEntry, error) {
	n := len(coords)
	samples := make([]domain.EnvironmentalSample, n)
	features := make([]domain.SampleFeatureVector, n)
	results := make([]domain.ClassificationResult, n)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.opts.FanoutLimit)
	for i, c := range coords {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			samples[i] = a.fetcher.Fetch(gctx, c)
			cov := domain.ResolveCovariates(gctx, a.covariates, c, a.opts.DefaultCovariates, a.logger)
			features[i] = domain.NewFeatureVector(samples[i], cov)
			results[i] = a.classify(features[i], c)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	// Fetches swallow cancellation into degraded samples; a cancelled request
	// must not produce a report built from them.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return domain.Aggregate(coords, samples, features, results)
}

func (a *Assessor) classify(f domain.SampleFeatureVector, c domain.Coordinate) domain.ClassificationResult {
	result, err := a.classifier.Classify(f)
	if err != nil {
		a.logger.Warn("classification failed, reporting unscored LOW",
			"lat", c.Lat,
			"lon", c.Lon,
			"error", err,
		)
		a.metrics.ClassificationErrors.Inc()
		return domain.UnscoredResult()
	}
	a.metrics.Classifications.WithLabelValues(string(result.Label)).Inc()
	return result
}

func (a *Assessor) publish(ctx context.Context, report domain.RiskReport) {
	if a.publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, a.opts.PublishTimeout)
	defer cancel()
	if err := a.publisher.Publish(ctx, report); err != nil {
		a.logger.Error("publish report failed", "error", err, "center", report.Center.String())
		a.metrics.PublishErrors.Inc()
		return
	}
	a.metrics.ReportsPublished.Inc()
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrInvalidParameter):
		return "invalid"
	case errors.Is(err, domain.ErrZoneNotFound):
		return "not_found"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "error"
	}
}

