// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/autobrr/rtorrent-exporter/internal/api/handlers"
	apimiddleware "github.com/autobrr/rtorrent-exporter/internal/api/middleware"
	"github.com/autobrr/rtorrent-exporter/internal/config"
	"github.com/autobrr/rtorrent-exporter/internal/web/swagger"
)

// Dependencies holds all the dependencies needed for the API
type Dependencies struct {
	Config         *config.AppConfig
	MetricsManager handlers.Renderer
	SwaggerHandler *swagger.Handler
}

// NewRouter creates and configures the main application router
func NewRouter(deps *Dependencies) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(apimiddleware.HTTPLogger)
	r.Use(middleware.Recoverer)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		handlers.RespondError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		handlers.RespondError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	// Health check endpoint, never touches rTorrent
	r.Get("/health", handlers.Health)

	if deps.SwaggerHandler != nil {
		deps.SwaggerHandler.RegisterRoutes(r)
	}

	metricsHandler := handlers.NewMetricsHandler(deps.MetricsManager)
	r.Group(func(r chi.Router) {
		if users := apimiddleware.ParseBasicAuthUsers(deps.Config.Config.MetricsBasicAuthUsers); len(users) > 0 {
			r.Use(middleware.BasicAuth("metrics", users))
		}
		r.Get("/metrics", metricsHandler.ServeMetrics)
	})

	return r
}
