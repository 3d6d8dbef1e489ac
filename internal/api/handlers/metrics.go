// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/autobrr/rtorrent-exporter/internal/metrics"
)

// Renderer produces one encoded metrics snapshot.
type Renderer interface {
	Render(ctx context.Context) ([]byte, error)
}

type MetricsHandler struct {
	renderer Renderer
}

func NewMetricsHandler(renderer Renderer) *MetricsHandler {
	return &MetricsHandler{
		renderer: renderer,
	}
}

func (h *MetricsHandler) ServeMetrics(w http.ResponseWriter, r *http.Request) {
	log.Debug().Msg("Serving rtorrent metrics")

	body, err := h.renderer.Render(r.Context())
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			log.Debug().Err(err).Msg("Scrape abandoned by client")
			return
		}
		log.Error().Err(err).Msg("Failed to render metrics")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", metrics.ContentType)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Debug().Err(err).Msg("Failed to write metrics response")
	}
}
