// Boonscroll - Personal Grounding Feed Engine
// Copyright 2026 J. Boone (boonware)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/boonware/boonscroll

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/boonware/boonscroll/internal/config"
	"github.com/boonware/boonscroll/internal/middleware"
)

// Router builds the HTTP surface.
type Router struct {
	handlers *Handlers
	cfg      config.APIConfig
}

// NewRouter creates the router.
func NewRouter(handlers *Handlers, cfg config.APIConfig) *Router {
	return &Router{handlers: handlers, cfg: cfg}
}

// Setup wires all routes and middleware.
func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   rt.cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID", "X-Scroll-User"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Get("/live", rt.handlers.Live)
		r.Get("/ready", rt.handlers.Ready)
	})

	r.Route("/api/v1/feed", func(r chi.Router) {
		r.Use(httprate.LimitByIP(rt.cfg.RateLimitRequests, rt.cfg.RateLimitWindow))
		r.Use(middleware.PrometheusMetrics)

		r.Get("/scroll", rt.handlers.Scroll)
		r.Get("/detail/{itemId}", rt.handlers.Detail)
		r.Post("/respond", rt.handlers.Respond)
		r.Get("/bridge/{anchorId}/thread", rt.handlers.Thread)
		r.Get("/config", rt.handlers.GetConfig)
		r.Put("/config", rt.handlers.PutConfig)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
