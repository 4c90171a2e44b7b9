package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// GatewayMetrics tracks generation traffic, quota warnings and accounting failures.
type GatewayMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	callsTotal          *Counter
	quotaWarningsTotal  *Counter
	upstreamErrorsTotal *Counter
	usageCommitFailures *Counter
	streamDuration      *Histogram

	accountsAtLimit *Gauge
	accountsTotal   *Gauge

	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once

	usageProvider UsageMetricsProvider
}

// UsageMetricsProvider supplies ledger-wide figures for periodic gauge collection.
type UsageMetricsProvider interface {
	// AccountsAtLimit returns how many standard accounts have used their free calls, and the total account count
	AccountsAtLimit(ctx context.Context) (atLimit int64, total int64, err error)
}

// GatewayMetricsConfig holds configuration for gateway metrics.
type GatewayMetricsConfig struct {
	Meter         metric.Meter
	Logger        *zap.Logger
	UsageProvider UsageMetricsProvider
}

// CallOutcome labels how a generation call ended.
type CallOutcome string

const (
	OutcomeCompleted     CallOutcome = "completed"
	OutcomeUpstreamError CallOutcome = "upstream_error"
	OutcomeAborted       CallOutcome = "aborted"
	OutcomeRejected      CallOutcome = "rejected"
)

// NewGatewayMetrics creates a new GatewayMetrics instance.
func NewGatewayMetrics(cfg GatewayMetricsConfig) (*GatewayMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	gm := &GatewayMetrics{
		meter:         cfg.Meter,
		logger:        logger,
		stopChan:      make(chan struct{}),
		usageProvider: cfg.UsageProvider,
	}

	var err error

	gm.callsTotal, err = NewCounter(
		cfg.Meter,
		"aigate_generation_calls_total",
		"Total number of generation calls by outcome",
		"{calls}",
	)
	if err != nil {
		return nil, err
	}

	gm.quotaWarningsTotal, err = NewCounter(
		cfg.Meter,
		"aigate_quota_warnings_total",
		"Total number of quota warning frames emitted",
		"{warnings}",
	)
	if err != nil {
		return nil, err
	}

	gm.upstreamErrorsTotal, err = NewCounter(
		cfg.Meter,
		"aigate_upstream_errors_total",
		"Total number of generator calls that failed before streaming",
		"{errors}",
	)
	if err != nil {
		return nil, err
	}

	gm.usageCommitFailures, err = NewCounter(
		cfg.Meter,
		"aigate_usage_commit_failures_total",
		"Total number of usage increments that failed after a completed stream",
		"{failures}",
	)
	if err != nil {
		return nil, err
	}

	gm.streamDuration, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "aigate_generation_stream_duration_seconds",
		Description: "Duration of generation streams",
		Unit:        "s",
		Boundaries:  StreamDurationBuckets,
	})
	if err != nil {
		return nil, err
	}

	gm.accountsAtLimit, err = NewGauge(
		cfg.Meter,
		"aigate_accounts_at_limit",
		"Standard accounts that have used all free calls",
		"{accounts}",
	)
	if err != nil {
		return nil, err
	}

	gm.accountsTotal, err = NewGauge(
		cfg.Meter,
		"aigate_accounts_total",
		"Registered accounts",
		"{accounts}",
	)
	if err != nil {
		return nil, err
	}

	return gm, nil
}

// RecordCall records one generation call and, for streamed calls, its duration.
func (gm *GatewayMetrics) RecordCall(ctx context.Context, outcome CallOutcome, attributed bool, d time.Duration) {
	gm.callsTotal.Inc(ctx,
		AttrOutcome.String(string(outcome)),
		AttrAttributed.Bool(attributed),
	)
	if outcome == OutcomeCompleted || outcome == OutcomeAborted {
		gm.streamDuration.RecordDuration(ctx, d, AttrOutcome.String(string(outcome)))
	}
	if outcome == OutcomeUpstreamError {
		gm.upstreamErrorsTotal.Inc(ctx)
	}
}

// RecordQuotaWarning records a warning frame; limitReached distinguishes hard from soft warnings.
func (gm *GatewayMetrics) RecordQuotaWarning(ctx context.Context, limitReached bool) {
	kind := "last_free_call"
	if limitReached {
		kind = "limit_reached"
	}
	gm.quotaWarningsTotal.Inc(ctx, AttrWarningKind.String(kind))
}

// RecordUsageCommitFailure records a swallowed usage increment failure.
func (gm *GatewayMetrics) RecordUsageCommitFailure(ctx context.Context) {
	gm.usageCommitFailures.Inc(ctx)
}

// StartPeriodicCollection starts collecting the account gauges every interval.
// Non-blocking; use Stop() to end collection.
func (gm *GatewayMetrics) StartPeriodicCollection(ctx context.Context, interval time.Duration) {
	gm.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}
		go gm.runPeriodicCollection(ctx, interval)
	})
}

func (gm *GatewayMetrics) runPeriodicCollection(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	gm.collectUsageMetrics(ctx)

	for {
		select {
		case <-gm.stopChan:
			gm.logger.Info("Stopping periodic gateway metrics collection")
			return
		case <-ctx.Done():
			gm.logger.Info("Context cancelled, stopping periodic gateway metrics collection")
			return
		case <-ticker.C:
			gm.collectUsageMetrics(ctx)
		}
	}
}

func (gm *GatewayMetrics) collectUsageMetrics(ctx context.Context) {
	if gm.usageProvider == nil {
		gm.logger.Debug("No usage provider configured, skipping usage metrics collection")
		return
	}

	atLimit, total, err := gm.usageProvider.AccountsAtLimit(ctx)
	if err != nil {
		gm.logger.Warn("Failed to collect usage metrics", zap.Error(err))
		return
	}
	gm.accountsAtLimit.Record(ctx, atLimit)
	gm.accountsTotal.Record(ctx, total)
}

// Stop stops the periodic collection.
func (gm *GatewayMetrics) Stop() {
	gm.stopOnce.Do(func() {
		close(gm.stopChan)
	})
}

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewGatewayMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
