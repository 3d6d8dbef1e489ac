// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package collector

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/autobrr/rtorrent-exporter/internal/rtorrent"
)

// Namespace prefixes every published metric name.
const Namespace = "rtorrent"

// StatSource is the subset of the rTorrent client the providers query.
// Implementations must be safe for concurrent use.
type StatSource interface {
	DownTotal(ctx context.Context) (int64, error)
	UpTotal(ctx context.Context) (int64, error)
	Multicall(ctx context.Context, view string, fields ...rtorrent.Field) ([]rtorrent.Row, error)
}

type Kind int

const (
	KindCounter Kind = iota
	KindGauge
)

func (k Kind) String() string {
	switch k {
	case KindCounter:
		return "counter"
	case KindGauge:
		return "gauge"
	default:
		return "unknown"
	}
}

func (k Kind) ValueType() prometheus.ValueType {
	if k == KindCounter {
		return prometheus.CounterValue
	}
	return prometheus.GaugeValue
}

// Descriptor names and types one published metric.
type Descriptor struct {
	Name string
	Help string
	Kind Kind
}

// ValueFunc performs one fresh query and reduces it to a single value.
type ValueFunc func(ctx context.Context, src StatSource) (int64, error)

// Provider binds a Descriptor to the query that produces its value.
type Provider struct {
	Descriptor
	Value ValueFunc
}

func (p Provider) desc() *prometheus.Desc {
	return prometheus.NewDesc(p.Name, p.Help, nil, nil)
}
