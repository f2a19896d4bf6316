package forexfactory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/mazen160/go-random"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"
)

// BrowserFactory opens a fresh page for one detail session and returns
// a teardown that releases it. Every detail ID gets its own page so a
// wedged overlay can never poison the next ID.
type BrowserFactory func(ctx context.Context) (Page, func(), error)

// SessionSetupError wraps a browser-factory failure that survived its
// retry budget. It aborts the whole batch: if the driver cannot start,
// every remaining ID would fail the same way.
type SessionSetupError struct {
	DetailID string
	Err      error
}

func (e *SessionSetupError) Error() string {
	return fmt.Sprintf("session setup for detail %s: %v", e.DetailID, e.Err)
}

func (e *SessionSetupError) Unwrap() error { return e.Err }

// BatchConfig tunes pacing and session setup for a batch run.
type BatchConfig struct {
	Session SessionConfig

	// DelayPerID is the pause after each detail ID.
	DelayPerID time.Duration
	// BatchDelay is an extra pause taken after every BatchEvery IDs.
	BatchDelay time.Duration
	BatchEvery int
	// JitterMillis adds up to this many random milliseconds to every
	// pause so the request cadence never looks metronomic.
	JitterMillis int

	// NavInterval caps how often a new session may start navigating,
	// independent of per-ID pacing. Zero disables the cap.
	NavInterval time.Duration

	// SetupRetries bounds how many times a failed browser-factory call
	// is retried before the batch aborts.
	SetupRetries uint64
}

func (c BatchConfig) withDefaults() BatchConfig {
	c.Session = c.Session.withDefaults()
	if c.DelayPerID <= 0 {
		c.DelayPerID = 3 * time.Second
	}
	if c.BatchDelay <= 0 {
		c.BatchDelay = 5 * time.Second
	}
	if c.BatchEvery <= 0 {
		c.BatchEvery = 5
	}
	if c.JitterMillis < 0 {
		c.JitterMillis = 0
	}
	if c.SetupRetries == 0 {
		c.SetupRetries = 3
	}
	return c
}

// BatchStats summarizes a finished (or aborted) batch run.
type BatchStats struct {
	Processed int
	Failed    int
	Elapsed   time.Duration
}

// BatchOrchestrator walks a list of detail IDs, running one fresh
// session per ID with polite pacing between them. Results come back in
// input order.
type BatchOrchestrator struct {
	factory BrowserFactory
	config  BatchConfig
	kinds   Kinds
	limiter *rate.Limiter
}

func NewBatchOrchestrator(factory BrowserFactory, config BatchConfig, kinds Kinds) *BatchOrchestrator {
	config = config.withDefaults()
	o := &BatchOrchestrator{
		factory: factory,
		config:  config,
		kinds:   kinds,
	}
	if config.NavInterval > 0 {
		o.limiter = rate.NewLimiter(rate.Every(config.NavInterval), 1)
	}
	return o
}

// Run processes every detail ID in order. Individual extraction
// failures are recorded in the corresponding Result and do not stop the
// batch; only a context cancellation or an exhausted session-setup
// retry budget aborts it, returning the results accumulated so far.
func (o *BatchOrchestrator) Run(ctx context.Context, detailIDs []string) ([]Result, BatchStats, error) {
	ctx, span := tracer.Start(ctx, "BatchOrchestrator.Run")
	defer span.End()
	span.SetAttributes(attribute.Int("detail_ids", len(detailIDs)))

	started := time.Now()
	results := make([]Result, 0, len(detailIDs))
	var stats BatchStats

	for i, detailID := range detailIDs {
		if err := ctx.Err(); err != nil {
			stats.Elapsed = time.Since(started)
			return results, stats, err
		}
		if o.limiter != nil {
			if err := o.limiter.Wait(ctx); err != nil {
				stats.Elapsed = time.Since(started)
				return results, stats, err
			}
		}

		slog.InfoContext(ctx, "processing detail",
			"detail_id", detailID, "position", i+1, "total", len(detailIDs))

		result, err := o.runOne(ctx, detailID)
		if err != nil {
			var setupErr *SessionSetupError
			if errors.As(err, &setupErr) {
				stats.Elapsed = time.Since(started)
				return results, stats, err
			}
			slog.ErrorContext(ctx, "detail session failed",
				"detail_id", detailID, "error", err)
			stats.Failed++
			results = append(results, Result{DetailID: detailID})
		} else {
			if result.Failed() {
				stats.Failed++
			} else {
				stats.Processed++
			}
			results = append(results, result)
		}

		if i == len(detailIDs)-1 {
			break
		}
		if err := o.pause(ctx, i+1); err != nil {
			stats.Elapsed = time.Since(started)
			return results, stats, err
		}
	}

	stats.Elapsed = time.Since(started)
	slog.InfoContext(ctx, "batch finished",
		"processed", stats.Processed, "failed", stats.Failed,
		"elapsed", stats.Elapsed)
	return results, stats, nil
}

func (o *BatchOrchestrator) runOne(ctx context.Context, detailID string) (Result, error) {
	page, teardown, err := o.openPage(ctx, detailID)
	if err != nil {
		return Result{DetailID: detailID}, err
	}
	defer func() {
		// Teardown failures are logged and swallowed: the next ID gets
		// its own page regardless.
		defer func() {
			if r := recover(); r != nil {
				slog.ErrorContext(ctx, "panic during page teardown",
					"detail_id", detailID, "panic", r)
			}
		}()
		teardown()
	}()

	session, err := NewDetailSession(page, o.config.Session, o.kinds)
	if err != nil {
		return Result{DetailID: detailID}, err
	}
	return session.Run(ctx, detailID)
}

// openPage calls the browser factory with an exponential-backoff retry
// budget. Exhausting it is fatal for the batch.
func (o *BatchOrchestrator) openPage(ctx context.Context, detailID string) (Page, func(), error) {
	var page Page
	var teardown func()

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), o.config.SetupRetries),
		ctx)
	err := backoff.Retry(func() error {
		var err error
		page, teardown, err = o.factory(ctx)
		if err != nil {
			slog.WarnContext(ctx, "browser setup failed, retrying",
				"detail_id", detailID, "error", err)
		}
		return err
	}, policy)
	if err != nil {
		return nil, nil, &SessionSetupError{DetailID: detailID, Err: err}
	}
	return page, teardown, nil
}

// pause sleeps between IDs, with the longer batch pause every
// BatchEvery-th ID and a little jitter on top of both.
func (o *BatchOrchestrator) pause(ctx context.Context, completed int) error {
	delay := o.config.DelayPerID + o.jitter()
	if completed%o.config.BatchEvery == 0 {
		delay += o.config.BatchDelay + o.jitter()
		slog.DebugContext(ctx, "batch checkpoint pause",
			"completed", completed, "delay", delay)
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
		return nil
	}
}

func (o *BatchOrchestrator) jitter() time.Duration {
	if o.config.JitterMillis <= 0 {
		return 0
	}
	millis, err := random.IntRange(0, o.config.JitterMillis)
	if err != nil {
		return 0
	}
	return time.Duration(millis) * time.Millisecond
}
