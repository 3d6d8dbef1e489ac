// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package collector turns rTorrent statistics into prometheus metrics.
package collector

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

// TorrentCollector evaluates every provider of a Registry, in order, on each
// gather. The first failing provider ends the pass with an invalid metric, so
// a gather either yields every value or fails.
type TorrentCollector struct {
	source   StatSource
	registry *Registry
	descs    []*prometheus.Desc
}

// NewTorrentCollector creates a collector. Remote calls are bounded only by
// the timeout configured on source.
func NewTorrentCollector(source StatSource, registry *Registry) *TorrentCollector {
	descs := make([]*prometheus.Desc, 0, registry.Len())
	for _, p := range registry.providers {
		descs = append(descs, p.desc())
	}

	return &TorrentCollector{
		source:   source,
		registry: registry,
		descs:    descs,
	}
}

func (c *TorrentCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range c.descs {
		ch <- d
	}
}

func (c *TorrentCollector) Collect(ch chan<- prometheus.Metric) {
	c.CollectSamples(ch)
}

// Sample is one evaluated provider value, kept as the exact integer the
// provider returned.
type Sample struct {
	Descriptor
	Value int64
}

// CollectSamples performs a Collect pass and also returns the values it
// emitted, in registry order. A failed pass returns the samples evaluated
// before the failure.
func (c *TorrentCollector) CollectSamples(ch chan<- prometheus.Metric) []Sample {
	if c.source == nil {
		log.Debug().Msg("No rtorrent source configured, skipping collection")
		return nil
	}

	ctx := context.Background()
	start := time.Now()
	samples := make([]Sample, 0, len(c.descs))
	for i, p := range c.registry.providers {
		value, err := p.Value(ctx, c.source)
		if err != nil {
			log.Warn().Err(err).Str("metric", p.Name).Msg("Failed to collect metric, aborting scrape")
			ch <- prometheus.NewInvalidMetric(c.descs[i], err)
			return samples
		}

		ch <- prometheus.MustNewConstMetric(c.descs[i], p.Kind.ValueType(), float64(value))
		samples = append(samples, Sample{Descriptor: p.Descriptor, Value: value})
	}

	log.Trace().Dur("took", time.Since(start)).Int("metrics", len(c.descs)).Msg("Collected rtorrent metrics")
	return samples
}
