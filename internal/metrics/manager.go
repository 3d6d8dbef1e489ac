// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"github.com/autobrr/rtorrent-exporter/internal/metrics/collector"
)

type Manager struct {
	registry         *prometheus.Registry
	torrentCollector *collector.TorrentCollector
	encoder          *Encoder
}

func NewManager(source collector.StatSource, catalog *collector.Registry) *Manager {
	registry := prometheus.NewRegistry()

	torrentCollector := collector.NewTorrentCollector(source, catalog)
	registry.MustRegister(torrentCollector)

	log.Info().Int("metrics", catalog.Len()).Msg("Metrics manager initialized with torrent collector")

	return &Manager{
		registry:         registry,
		torrentCollector: torrentCollector,
		encoder:          NewEncoder(catalog, torrentCollector),
	}
}

func (m *Manager) GetRegistry() *prometheus.Registry {
	return m.registry
}

type renderResult struct {
	body []byte
	err  error
}

// Render encodes a snapshot on its own goroutine and waits for it or for ctx.
// Cancelling ctx does not stop the remote queries already in flight; their
// result is dropped.
func (m *Manager) Render(ctx context.Context) ([]byte, error) {
	done := make(chan renderResult, 1)
	go func() {
		body, err := m.encoder.Encode()
		done <- renderResult{body: body, err: err}
	}()

	select {
	case r := <-done:
		return r.body, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
