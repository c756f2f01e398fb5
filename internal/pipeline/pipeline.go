package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/fire-danger-service/internal/domain"
	"github.com/couchcryptid/fire-danger-service/internal/observability"
	"github.com/google/go-cmp/cmp"
)

// Refresher produces readings. *Sensor implements it.
type Refresher interface {
	Initial() domain.Reading
	Refresh(ctx context.Context) Result
}

// Publisher hands a reading to a downstream consumer.
type Publisher interface {
	Publish(ctx context.Context, reading domain.Reading) error
}

// Pipeline refreshes the reading on a fixed interval and keeps the latest
// one for concurrent readers.
type Pipeline struct {
	refresher Refresher
	publisher Publisher
	logger    *slog.Logger
	metrics   *observability.Metrics
	interval  time.Duration

	current       atomic.Pointer[domain.Reading]
	ready         atomic.Bool
	lastPublished *domain.Reading
}

// New creates a Pipeline. publisher may be nil to disable publishing.
func New(r Refresher, publisher Publisher, logger *slog.Logger, metrics *observability.Metrics, interval time.Duration) *Pipeline {
	p := &Pipeline{
		refresher: r,
		publisher: publisher,
		logger:    logger,
		metrics:   metrics,
		interval:  interval,
	}
	initial := r.Initial()
	p.current.Store(&initial)
	return p
}

// CheckReadiness returns nil once the first refresh has completed.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no refresh has completed yet")
	}
	return nil
}

// Current returns the latest reading. It is safe to call from any goroutine.
func (p *Pipeline) Current() domain.Reading {
	return *p.current.Load()
}

// Run refreshes once immediately, then on every tick until the context is
// cancelled. Refreshes never overlap.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("scheduler started", "interval", p.interval)
	p.metrics.SchedulerRunning.Set(1)
	defer p.metrics.SchedulerRunning.Set(0)

	p.RefreshOnce(ctx)

	ticker := clock.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("scheduler stopping", "reason", ctx.Err())
			return nil
		case <-ticker.Chan():
			p.RefreshOnce(ctx)
		}
	}
}

// RefreshOnce runs a single refresh, stores and publishes the result.
func (p *Pipeline) RefreshOnce(ctx context.Context) domain.Reading {
	start := time.Now()
	res := p.refresher.Refresh(ctx)
	reading := res.Reading

	p.current.Store(&reading)
	p.ready.Store(true)

	p.metrics.Refreshes.WithLabelValues(string(res.Outcome)).Inc()
	p.metrics.LastRefreshTimestamp.Set(float64(reading.RefreshedAt.Unix()))
	if res.SourceState == domain.StateFallenBack {
		p.metrics.FallbackActive.Set(1)
	} else {
		p.metrics.FallbackActive.Set(0)
	}

	p.logger.Info("refresh complete",
		"name", reading.Name,
		"state", reading.State,
		"available", reading.Available,
		"outcome", res.Outcome,
		"source_state", res.SourceState.String(),
		"duration", time.Since(start),
	)

	p.publish(ctx, reading)
	return reading
}

// publish sends the reading unless it is unchanged and force_update is off.
func (p *Pipeline) publish(ctx context.Context, reading domain.Reading) {
	if p.publisher == nil {
		return
	}
	if !reading.ForceUpdate && p.lastPublished != nil && sameReading(*p.lastPublished, reading) {
		p.logger.Debug("reading unchanged, not publishing", "state", reading.State)
		return
	}
	if err := p.publisher.Publish(ctx, reading); err != nil {
		p.metrics.PublishErrors.Inc()
		p.logger.Warn("publish reading failed", "error", err)
		return
	}
	p.metrics.ReadingsPublished.Inc()
	p.lastPublished = &reading
}

// sameReading compares the parts of a reading a consumer would see change.
// RefreshedAt is ignored.
func sameReading(a, b domain.Reading) bool {
	return a.State == b.State &&
		a.Available == b.Available &&
		cmp.Equal(a.Attributes, b.Attributes)
}
