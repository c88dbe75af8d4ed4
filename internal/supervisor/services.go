// Boonscroll - Personal Grounding Feed Engine
// Copyright 2026 J. Boone (boonware)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/boonware/boonscroll

package supervisor

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/boonware/boonscroll/internal/logging"
)

// HTTPService wraps an *http.Server as a supervised service,
// translating its blocking ListenAndServe into suture's context-aware
// Serve.
type HTTPService struct {
	Server          *http.Server
	ShutdownTimeout time.Duration
}

// Serve implements suture.Service.
func (h *HTTPService) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := h.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeout := h.ShutdownTimeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := h.Server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return ctx.Err()
	}
}

func (h *HTTPService) String() string { return "http-server" }

// SessionEvictor periodically drops scroll sessions idle longer than
// the TTL.
type SessionEvictor struct {
	Evict    func(ttl time.Duration) int
	IdleTTL  time.Duration
	Interval time.Duration
}

// Serve implements suture.Service.
func (e *SessionEvictor) Serve(ctx context.Context) error {
	ticker := time.NewTicker(e.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if n := e.Evict(e.IdleTTL); n > 0 {
				logging.Debug().Int("sessions", n).Msg("evicted idle sessions")
			}
		}
	}
}

func (e *SessionEvictor) String() string { return "session-evictor" }

// CacheJanitor periodically sweeps expired entries out of a cache.
type CacheJanitor struct {
	Name     string
	Sweep    func() int
	Interval time.Duration
}

// Serve implements suture.Service.
func (j *CacheJanitor) Serve(ctx context.Context) error {
	ticker := time.NewTicker(j.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if n := j.Sweep(); n > 0 {
				logging.Debug().Str("cache", j.Name).Int("entries", n).Msg("swept expired entries")
			}
		}
	}
}

func (j *CacheJanitor) String() string { return j.Name + "-janitor" }
