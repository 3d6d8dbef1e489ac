// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package collector

import (
	"context"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/autobrr/rtorrent-exporter/internal/rtorrent"
)

// Build returns the published catalog for view, in output order.
func Build(view string) *Registry {
	r, err := NewRegistry(
		DownloadedBytes(),
		UploadedBytes(),
		ActiveTorrents(view),
		PausedTorrents(view),
		StoppedTorrents(view),
		CompleteTorrents(view),
		IncompleteTorrents(view),
		TotalLeftBytes(view),
	)
	if err != nil {
		panic(err)
	}
	return r
}

func DownloadedBytes() Provider {
	return Provider{
		Descriptor: Descriptor{
			Name: prometheus.BuildFQName(Namespace, "", "downloaded_bytes_total"),
			Help: "Total number of downloaded bytes",
			Kind: KindCounter,
		},
		Value: func(ctx context.Context, src StatSource) (int64, error) {
			return src.DownTotal(ctx)
		},
	}
}

func UploadedBytes() Provider {
	return Provider{
		Descriptor: Descriptor{
			Name: prometheus.BuildFQName(Namespace, "", "uploaded_bytes_total"),
			Help: "Total number of uploaded bytes",
			Kind: KindCounter,
		},
		Value: func(ctx context.Context, src StatSource) (int64, error) {
			return src.UpTotal(ctx)
		},
	}
}

func ActiveTorrents(view string) Provider {
	return gauge("active_torrents", "Number of active torrents", countStates(view, TorrentState.IsActive))
}

func PausedTorrents(view string) Provider {
	return gauge("paused_torrents", "Number of paused torrents", countStates(view, TorrentState.IsPaused))
}

// StoppedTorrents only fetches d.state; the other flags cannot change the outcome.
func StoppedTorrents(view string) Provider {
	return gauge("stopped_torrents", "Number of stopped torrents", countFlag(view, rtorrent.FieldState, false))
}

func CompleteTorrents(view string) Provider {
	return gauge("complete_torrents", "Number of complete torrents", countFlag(view, rtorrent.FieldComplete, true))
}

func IncompleteTorrents(view string) Provider {
	return gauge("incomplete_torrents", "Number of incomplete torrents", countFlag(view, rtorrent.FieldIncomplete, true))
}

// TotalLeftBytes sums left bytes over every torrent in view. Seeding torrents
// contribute zero. The sum is signed and is published even when negative.
func TotalLeftBytes(view string) Provider {
	return gauge("total_left_bytes", "Total number of bytes yet to be downloaded for all leeching torrents",
		func(ctx context.Context, src StatSource) (int64, error) {
			rows, err := src.Multicall(ctx, view, rtorrent.FieldLeftBytes)
			if err != nil {
				return 0, err
			}

			var sum int64
			for i, row := range rows {
				left, err := row.Int(0)
				if err != nil {
					return 0, errors.Wrapf(err, "torrent %d", i)
				}
				sum += left
			}
			return sum, nil
		})
}

func gauge(name, help string, value ValueFunc) Provider {
	return Provider{
		Descriptor: Descriptor{
			Name: prometheus.BuildFQName(Namespace, "", name),
			Help: help,
			Kind: KindGauge,
		},
		Value: value,
	}
}

func countStates(view string, match func(TorrentState) bool) ValueFunc {
	return func(ctx context.Context, src StatSource) (int64, error) {
		rows, err := src.Multicall(ctx, view, stateFields...)
		if err != nil {
			return 0, err
		}

		var n int64
		for i, row := range rows {
			s, err := stateFromRow(row)
			if err != nil {
				return 0, errors.Wrapf(err, "torrent %d", i)
			}
			if match(s) {
				n++
			}
		}
		return n, nil
	}
}

func countFlag(view string, field rtorrent.Field, want bool) ValueFunc {
	return func(ctx context.Context, src StatSource) (int64, error) {
		rows, err := src.Multicall(ctx, view, field)
		if err != nil {
			return 0, err
		}

		var n int64
		for i, row := range rows {
			v, err := row.Bool(0)
			if err != nil {
				return 0, errors.Wrapf(err, "torrent %d", i)
			}
			if v == want {
				n++
			}
		}
		return n, nil
	}
}
