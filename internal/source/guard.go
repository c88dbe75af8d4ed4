// Boonscroll - Personal Grounding Feed Engine
// Copyright 2026 J. Boone (boonware)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/boonware/boonscroll

package source

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/boonware/boonscroll/internal/logging"
	"github.com/boonware/boonscroll/internal/metrics"
	"github.com/boonware/boonscroll/internal/models"
)

// guardedAdapter wraps a raw adapter with the engine's I/O policy: a
// per-call deadline, an upstream rate limit, and a circuit breaker. A
// tripped breaker turns fetches into instant ErrUnavailable, which the
// pool treats as a degraded source for the session.
//
// The breaker covers Fetch only. GetItem and GetDetail are request-scoped
// (a 404 there is the caller's problem, not upstream health), so they get
// the deadline and limiter but bypass the breaker.
type guardedAdapter struct {
	inner   Adapter
	timeout time.Duration
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[FetchResult]
}

var _ Adapter = (*guardedAdapter)(nil)

func newGuardedAdapter(inner Adapter, cfg GuardConfig) Adapter {
	g := &guardedAdapter{
		inner:   inner,
		timeout: cfg.FetchTimeout,
	}
	if cfg.RequestsPerSecond > 0 {
		g.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	name := inner.SourceType()
	metrics.BreakerState.WithLabelValues(name).Set(0)

	g.breaker = gobreaker.NewCircuitBreaker[FetchResult](gobreaker.Settings{
		Name:        name,
		MaxRequests: 2,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			// Trip after repeated consecutive failures; adapters see few
			// calls per refill so a ratio test would be too slow.
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("source", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("source breaker state change")
			metrics.BreakerState.WithLabelValues(name).Set(breakerStateValue(to))
		},
	})
	return g
}

func breakerStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

func (g *guardedAdapter) SourceType() string       { return g.inner.SourceType() }
func (g *guardedAdapter) Prefixes() []Prefix       { return g.inner.Prefixes() }
func (g *guardedAdapter) DefaultTier() models.Tier { return g.inner.DefaultTier() }

func (g *guardedAdapter) Fetch(ctx context.Context, q FetchQuery) (FetchResult, error) {
	start := time.Now()

	res, err := g.breaker.Execute(func() (FetchResult, error) {
		ctx, cancel := context.WithTimeout(ctx, g.timeout)
		defer cancel()
		if err := g.wait(ctx); err != nil {
			return FetchResult{}, err
		}
		return g.inner.Fetch(ctx, q)
	})

	switch {
	case err == nil:
		metrics.ObserveFetch(g.SourceType(), start, len(res.Items), "")
		return res, nil
	case errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.ObserveFetch(g.SourceType(), start, 0, "breaker")
		return FetchResult{}, ErrUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		metrics.ObserveFetch(g.SourceType(), start, 0, "timeout")
		return FetchResult{}, err
	default:
		metrics.ObserveFetch(g.SourceType(), start, 0, "upstream")
		return FetchResult{}, err
	}
}

func (g *guardedAdapter) GetItem(ctx context.Context, localID string) (*models.FeedItem, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	if err := g.wait(ctx); err != nil {
		return nil, err
	}
	return g.inner.GetItem(ctx, localID)
}

func (g *guardedAdapter) GetDetail(ctx context.Context, localID string, meta models.Meta) ([]models.DetailSection, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	if err := g.wait(ctx); err != nil {
		return nil, err
	}
	return g.inner.GetDetail(ctx, localID, meta)
}

// MarkConsumed passes through when the wrapped adapter opts in.
func (g *guardedAdapter) MarkConsumed(ctx context.Context, user string, localIDs []string) error {
	c, ok := g.inner.(Consumer)
	if !ok {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	return c.MarkConsumed(ctx, user, localIDs)
}

// HandleResponse passes through when the wrapped adapter opts in.
func (g *guardedAdapter) HandleResponse(ctx context.Context, user, localID, response string, reqContext map[string]string) (map[string]interface{}, error) {
	r, ok := g.inner.(Responder)
	if !ok {
		return nil, ErrNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	return r.HandleResponse(ctx, user, localID, response, reqContext)
}

// IsResponder reports whether the wrapped adapter handles interactions.
func (g *guardedAdapter) IsResponder() bool {
	_, ok := g.inner.(Responder)
	return ok
}

// IsConsumer reports whether the wrapped adapter tracks external read state.
func (g *guardedAdapter) IsConsumer() bool {
	_, ok := g.inner.(Consumer)
	return ok
}

func (g *guardedAdapter) wait(ctx context.Context) error {
	if g.limiter == nil {
		return nil
	}
	return g.limiter.Wait(ctx)
}
